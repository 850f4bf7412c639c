package chunkstore

import (
	"context"
	"fmt"
)

// SearchSimilarByEmbedding returns up to k chunks nearest to query ordered by
// ascending cosine distance; k <= 0 selects DefaultK. An empty store yields an
// empty slice. Ties have no defined order.
func (s *Store) SearchSimilarByEmbedding(ctx context.Context, query []float32, k int) ([]SearchResult, error) {
	if err := s.ensureOpen("search"); err != nil {
		return nil, err
	}
	if err := s.checkDimension(query); err != nil {
		return nil, err
	}
	if k <= 0 {
		k = DefaultK
	}
	q, err := s.backend.encodeEmbedding(query)
	if err != nil {
		return nil, err
	}
	results, err := s.search(ctx, s.backend.statements().search, s.backend.searchArgs(q, k))
	s.logger.LogSearch(ctx, k, len(results), err)
	return results, err
}

// SearchSimilarByEmbeddingInFile is SearchSimilarByEmbedding restricted to
// chunks stored under path. The ranking is exact.
func (s *Store) SearchSimilarByEmbeddingInFile(ctx context.Context, query []float32, path string, k int) ([]SearchResult, error) {
	if err := s.ensureOpen("search"); err != nil {
		return nil, err
	}
	if err := s.checkDimension(query); err != nil {
		return nil, err
	}
	if k <= 0 {
		k = DefaultK
	}
	q, err := s.backend.encodeEmbedding(query)
	if err != nil {
		return nil, err
	}
	results, err := s.search(ctx, s.backend.statements().searchInFile, s.backend.searchInFileArgs(q, path, k))
	s.logger.LogSearch(ctx, k, len(results), err)
	return results, err
}

func (s *Store) search(ctx context.Context, query string, args []interface{}) ([]SearchResult, error) {
	stmt, err := s.drv.Prepare(ctx, query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()
	rows, err := stmt.All(ctx, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ret := make([]SearchResult, 0)
	for rows.Next() {
		var r SearchResult
		var metadata []byte
		if err := rows.Scan(&r.ID, &r.Content, &r.Filepath, &metadata, &r.Distance); err != nil {
			return nil, err
		}
		if r.Metadata, err = decodeMetadata(metadata); err != nil {
			return nil, err
		}
		ret = append(ret, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

// GetChunk returns the chunk with id including its embedding.
func (s *Store) GetChunk(ctx context.Context, id int64) (*Chunk, error) {
	if err := s.ensureOpen("get"); err != nil {
		return nil, err
	}
	ret := &Chunk{}
	var metadata, embedding []byte
	found, err := queryRow(ctx, s.drv, s.backend.statements().get, []interface{}{id},
		&ret.ID, &ret.Content, &ret.Filepath, &metadata, &embedding)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if ret.Metadata, err = decodeMetadata(metadata); err != nil {
		return nil, err
	}
	if ret.Embedding, err = s.backend.decodeEmbedding(embedding); err != nil {
		return nil, err
	}
	return ret, nil
}

// Count returns the number of stored chunks.
func (s *Store) Count(ctx context.Context) (int64, error) {
	if err := s.ensureOpen("count"); err != nil {
		return 0, err
	}
	var n int64
	if _, err := queryRow(ctx, s.drv, s.backend.statements().count, nil, &n); err != nil {
		return 0, err
	}
	return n, nil
}
