package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

// Hash is an offline provider that hashes lower-cased tokens into a fixed
// number of buckets and L2-normalizes the counts. Texts sharing words end up
// close under cosine distance; no model is required.
type Hash struct {
	dim int
}

// NewHash creates a hashing provider with dim buckets; dim <= 0 selects DefaultDimension.
func NewHash(dim int) *Hash {
	if dim <= 0 {
		dim = DefaultDimension
	}
	return &Hash{dim: dim}
}

// Dimension returns the number of buckets.
func (h *Hash) Dimension() int { return h.dim }

// Embed returns the normalized bucket counts of text. Text without tokens maps
// to the zero vector.
func (h *Hash) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make([]float32, h.dim)
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		f := fnv.New32a()
		_, _ = f.Write([]byte(tok))
		sum := f.Sum32()
		sign := float32(1)
		if sum&0x80000000 != 0 {
			sign = -1
		}
		vec[int(sum%uint32(h.dim))] += sign
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		n := float32(math.Sqrt(norm))
		for i := range vec {
			vec[i] /= n
		}
	}
	return vec, nil
}

// Close is a no-op.
func (h *Hash) Close() error { return nil }
