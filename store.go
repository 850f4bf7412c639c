// Package chunkstore stores text chunks with their embeddings and metadata
// and answers k-nearest-neighbor queries over them.
//
// Two backends are supported and selected from the driver kind:
//
//   - embedded: SQLite with a vec virtual table kept in sync with the chunks
//     table by triggers;
//   - relational: PostgreSQL with a pgvector column and an HNSW cosine index.
//
// Usage:
//
//	drv, _ := driver.OpenSQLite(ctx, ":memory:")
//	store, _ := chunkstore.New(drv, embedding.NewHash(384))
//	_ = store.InitSchema(ctx)
//	id, _ := store.InsertChunk(ctx, chunkstore.Entity{Content: "hello", Filepath: "a.txt"})
//	results, _ := store.SearchSimilar(ctx, "hello", 5)
package chunkstore

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/viant/chunkstore/config"
	"github.com/viant/chunkstore/driver"
	"github.com/viant/chunkstore/embedding"
	"github.com/viant/chunkstore/index"
	"github.com/viant/chunkstore/vecadmin"
	"github.com/viant/chunkstore/vector"
)

// Store is a vector chunk store bound to one driver. It is not safe for
// concurrent mutation; callers serialize writes.
type Store struct {
	drv      driver.Driver
	provider embedding.Provider
	backend  backend
	dim      int
	opts     *options
	logger   *Logger
	closed   atomic.Bool
}

// New creates a store on drv. The backend variant is chosen from drv.Kind().
// The embedding dimension is WithEmbeddingDim, else provider.Dimension(),
// else embedding.DefaultDimension. provider may be nil when only the
// embedding-level API is used.
func New(drv driver.Driver, provider embedding.Provider, opts ...Option) (*Store, error) {
	if drv == nil {
		return nil, fmt.Errorf("chunkstore: driver is required")
	}
	o := newOptions(opts)
	dim := o.dim
	if dim == 0 && provider != nil {
		dim = provider.Dimension()
	}
	if dim == 0 {
		dim = embedding.DefaultDimension
	}
	ret := &Store{drv: drv, provider: provider, dim: dim, opts: o, logger: o.logger}
	switch drv.Kind() {
	case driver.Embedded:
		ret.backend = newSQLiteBackend(dim, o.indexKind)
	case driver.Relational:
		ret.backend = newPostgresBackend(dim)
	default:
		return nil, fmt.Errorf("chunkstore: unsupported driver kind %q", drv.Kind())
	}
	return ret, nil
}

// Open opens the driver described by cfg, creates the store and initializes
// its schema. opts are applied after the settings derived from cfg.
func Open(ctx context.Context, cfg *config.Config, provider embedding.Provider, opts ...Option) (*Store, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	kind, err := index.ParseKind(cfg.Index)
	if err != nil {
		return nil, err
	}
	var drv *driver.SQL
	switch cfg.Backend {
	case config.BackendPostgres:
		drv, err = driver.OpenPostgres(ctx, cfg.Driver, cfg.DBPath)
	case config.BackendSQLite, "":
		drv, err = driver.OpenSQLite(ctx, cfg.DBPath)
	default:
		return nil, fmt.Errorf("chunkstore: unsupported backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	base := []Option{
		WithBatchSize(cfg.BatchSize),
		WithEmbedConcurrency(cfg.EmbedConcurrency),
		WithIndexKind(kind),
	}
	if cfg.EmbeddingDim > 0 {
		base = append(base, WithEmbeddingDim(cfg.EmbeddingDim))
	}
	store, err := New(drv, provider, append(base, opts...)...)
	if err != nil {
		_ = drv.Close()
		return nil, err
	}
	if err := store.InitSchema(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// Dimension returns the embedding dimension of the store.
func (s *Store) Dimension() int { return s.dim }

// Kind returns the backend kind.
func (s *Store) Kind() driver.Kind { return s.drv.Kind() }

// InitSchema creates the chunk table and the vector index if missing and
// verifies an existing schema matches the store dimension. It is safe to
// call on every startup.
func (s *Store) InitSchema(ctx context.Context) error {
	if err := s.ensureOpen("init schema"); err != nil {
		return err
	}
	err := s.backend.initSchema(ctx, s.drv)
	s.logger.LogSchema(ctx, string(s.drv.Kind()), s.dim, err)
	return err
}

// Verify compares the chunk table with its vector index.
func (s *Store) Verify(ctx context.Context) (*vecadmin.Report, error) {
	if err := s.ensureOpen("verify"); err != nil {
		return nil, err
	}
	return s.backend.verify(ctx, s.drv)
}

// Reindex rebuilds the vector index from the chunk table and returns the
// number of indexed chunks.
func (s *Store) Reindex(ctx context.Context) (int, error) {
	if err := s.ensureOpen("reindex"); err != nil {
		return 0, err
	}
	n, err := s.backend.reindex(ctx, s.drv)
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "reindex completed", "count", n)
	return n, nil
}

// Close closes the driver. Every later call, Close included, fails with
// *ClosedStoreError. The provider is owned by the caller.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return &ClosedStoreError{Op: "close"}
	}
	s.backend.close()
	return s.drv.Close()
}

func (s *Store) ensureOpen(op string) error {
	if s.closed.Load() {
		return &ClosedStoreError{Op: op}
	}
	return nil
}

func (s *Store) checkDimension(v []float32) error {
	if _, ok := vector.CheckDimension(s.dim, v); !ok {
		return &DimensionMismatchError{Expected: s.dim, Actual: len(v)}
	}
	return nil
}
