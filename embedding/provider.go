// Package embedding defines the text embedding contract consumed by the chunk
// store together with a local hashing provider and an OpenAI-compatible HTTP
// provider.
package embedding

import (
	"context"
	"errors"
	"fmt"
)

// DefaultDimension is used when neither the store nor the provider declares a width.
const DefaultDimension = 384

// Provider converts text into a fixed-length vector. Implementations must
// return vectors of exactly Dimension() elements or fail with a
// *DimensionError; vectors are never padded or truncated.
type Provider interface {
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
	Close() error
}

// ErrDimension is matched by every *DimensionError.
var ErrDimension = errors.New("embedding: dimension mismatch")

// DimensionError reports a vector whose length differs from the declared one.
type DimensionError struct {
	Expected int
	Actual   int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("embedding: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Is reports whether target is ErrDimension.
func (e *DimensionError) Is(target error) bool { return target == ErrDimension }

// CheckDimension returns a *DimensionError when len(v) != dim.
func CheckDimension(dim int, v []float32) error {
	if len(v) != dim {
		return &DimensionError{Expected: dim, Actual: len(v)}
	}
	return nil
}
