package chunkstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/viant/chunkstore/embedding"
	"golang.org/x/sync/errgroup"
)

// InsertChunk embeds entity.Content and stores the entity.
func (s *Store) InsertChunk(ctx context.Context, entity Entity) (int64, error) {
	if err := s.ensureOpen("insert"); err != nil {
		return 0, err
	}
	v, err := s.embed(ctx, entity.Content)
	if err != nil {
		return 0, err
	}
	return s.InsertChunkWithEmbedding(ctx, Chunk{Entity: entity, Embedding: v})
}

// BulkInsertChunks embeds all entities concurrently, then stores them with
// BulkInsertChunksWithEmbedding. No chunk is stored when any embedding fails.
func (s *Store) BulkInsertChunks(ctx context.Context, entities []Entity, batchSize int) error {
	if err := s.ensureOpen("bulk insert"); err != nil {
		return err
	}
	if s.provider == nil {
		return ErrNoProvider
	}
	chunks := make([]Chunk, len(entities))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.embedConcurrency)
	for i := range entities {
		g.Go(func() error {
			v, err := s.embed(gctx, entities[i].Content)
			if err != nil {
				return fmt.Errorf("chunkstore: embed entity %d: %w", i, err)
			}
			chunks[i] = Chunk{Entity: entities[i], Embedding: v}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return s.BulkInsertChunksWithEmbedding(ctx, chunks, batchSize)
}

// SearchSimilar embeds text and returns the k nearest chunks.
func (s *Store) SearchSimilar(ctx context.Context, text string, k int) ([]SearchResult, error) {
	if err := s.ensureOpen("search"); err != nil {
		return nil, err
	}
	v, err := s.embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return s.SearchSimilarByEmbedding(ctx, v, k)
}

// SearchSimilarInFile embeds text and returns the k nearest chunks stored under path.
func (s *Store) SearchSimilarInFile(ctx context.Context, text, path string, k int) ([]SearchResult, error) {
	if err := s.ensureOpen("search"); err != nil {
		return nil, err
	}
	v, err := s.embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return s.SearchSimilarByEmbeddingInFile(ctx, v, path, k)
}

func (s *Store) embed(ctx context.Context, text string) ([]float32, error) {
	if s.provider == nil {
		return nil, ErrNoProvider
	}
	v, err := s.provider.Embed(ctx, text)
	if err != nil {
		var dimErr *embedding.DimensionError
		if errors.As(err, &dimErr) {
			return nil, &DimensionMismatchError{Expected: s.dim, Actual: dimErr.Actual, cause: err}
		}
		return nil, err
	}
	return v, nil
}
