package chunkstore

import (
	"log/slog"

	"github.com/viant/chunkstore/index"
)

const (
	// DefaultBatchSize is the bulk insert slice size used when none is given.
	DefaultBatchSize = 500
	// DefaultK is the neighbor count used when k <= 0.
	DefaultK = 5
	// DefaultEmbedConcurrency bounds concurrent provider calls of a bulk insert.
	DefaultEmbedConcurrency = 8
)

type options struct {
	dim              int
	logger           *Logger
	batchSize        int
	embedConcurrency int
	indexKind        index.Kind
}

// Option configures a Store.
type Option func(*options)

// WithEmbeddingDim overrides the provider dimension.
func WithEmbeddingDim(dim int) Option {
	return func(o *options) {
		o.dim = dim
	}
}

// WithLogger sets the logger; nil disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger == nil {
			o.logger = NoopLogger()
			return
		}
		o.logger = &Logger{Logger: logger}
	}
}

// WithBatchSize sets the default bulk insert slice size.
func WithBatchSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.batchSize = size
		}
	}
}

// WithEmbedConcurrency bounds concurrent embedding calls of BulkInsertChunks.
func WithEmbedConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.embedConcurrency = n
		}
	}
}

// WithIndexKind selects the in-memory index behind the embedded vector index:
// brute (exact, default), cover or auto. The relational backend ignores it.
func WithIndexKind(kind index.Kind) Option {
	return func(o *options) {
		if kind != "" {
			o.indexKind = kind
		}
	}
}

func newOptions(opts []Option) *options {
	ret := &options{
		logger:           NoopLogger(),
		batchSize:        DefaultBatchSize,
		embedConcurrency: DefaultEmbedConcurrency,
		indexKind:        index.KindBrute,
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}
