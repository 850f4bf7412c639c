package chunkstore

import (
	"context"
	"fmt"

	"github.com/viant/chunkstore/driver"
	"github.com/viant/chunkstore/vector"
)

// InsertChunkWithEmbedding stores chunk and returns its id. chunk.ID is ignored.
func (s *Store) InsertChunkWithEmbedding(ctx context.Context, chunk Chunk) (int64, error) {
	if err := s.ensureOpen("insert"); err != nil {
		return 0, err
	}
	if err := s.checkDimension(chunk.Embedding); err != nil {
		return 0, err
	}
	r, err := s.encode(&chunk)
	if err != nil {
		return 0, err
	}
	id, err := s.insertRow(ctx, r)
	s.logger.LogInsert(ctx, id, s.dim, err)
	return id, err
}

func (s *Store) insertRow(ctx context.Context, r *row) (int64, error) {
	stmt, err := s.drv.Prepare(ctx, s.backend.statements().insert)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	return s.runInsert(ctx, stmt, r)
}

func (s *Store) runInsert(ctx context.Context, stmt driver.Statement, r *row) (int64, error) {
	if !s.backend.statements().insertReturnsID {
		res, err := stmt.Run(ctx, r.args()...)
		if err != nil {
			return 0, err
		}
		if !res.HasLastInsertID {
			return 0, errMissingID
		}
		return res.LastInsertID, nil
	}
	rows, err := stmt.All(ctx, r.args()...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, err
		}
		return 0, errMissingID
	}
	var id int64
	if err := rows.Scan(&id); err != nil {
		return 0, err
	}
	return id, rows.Err()
}

// BulkInsertChunksWithEmbedding stores chunks in consecutive slices of at most
// batchSize (<= 0 selects the store default), one transaction per slice,
// in order. Every chunk of a slice is validated before its transaction
// begins. On failure it returns *TransactionError: the failing slice is
// rolled back, earlier slices stay committed and later ones are not
// attempted. Assigned ids are written back to chunks[i].ID of committed slices.
func (s *Store) BulkInsertChunksWithEmbedding(ctx context.Context, chunks []Chunk, batchSize int) error {
	if err := s.ensureOpen("bulk insert"); err != nil {
		return err
	}
	if batchSize <= 0 {
		batchSize = s.opts.batchSize
	}
	slice := 0
	for offset := 0; offset < len(chunks); offset += batchSize {
		end := min(offset+batchSize, len(chunks))
		if err := s.insertSlice(ctx, chunks[offset:end]); err != nil {
			txErr := &TransactionError{Slice: slice, Offset: offset, Size: end - offset, Err: err}
			s.logger.LogBatchInsert(ctx, len(chunks), offset, txErr)
			return txErr
		}
		slice++
	}
	s.logger.LogBatchInsert(ctx, len(chunks), len(chunks), nil)
	return nil
}

func (s *Store) insertSlice(ctx context.Context, part []Chunk) error {
	embeddings := make([][]float32, len(part))
	for i := range part {
		embeddings[i] = part[i].Embedding
	}
	if pos, ok := vector.CheckDimension(s.dim, embeddings...); !ok {
		return &DimensionMismatchError{
			Expected: s.dim,
			Actual:   len(embeddings[pos]),
			cause:    fmt.Errorf("chunk %d of slice", pos),
		}
	}
	rows := make([]*row, len(part))
	for i := range part {
		r, err := s.encode(&part[i])
		if err != nil {
			return err
		}
		rows[i] = r
	}
	ids := make([]int64, len(rows))
	err := s.drv.Transaction(ctx, func(tx driver.Executor) error {
		stmt, err := tx.Prepare(ctx, s.backend.statements().insert)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, r := range rows {
			if ids[i], err = s.runInsert(ctx, stmt, r); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for i := range part {
		part[i].ID = ids[i]
	}
	return nil
}

// UpdateChunkWithEmbedding replaces content, filepath, metadata and embedding
// of the chunk with chunk.ID. An unknown id fails with ErrNotFound.
func (s *Store) UpdateChunkWithEmbedding(ctx context.Context, chunk Chunk) error {
	if err := s.ensureOpen("update"); err != nil {
		return err
	}
	if err := s.checkDimension(chunk.Embedding); err != nil {
		return err
	}
	r, err := s.encode(&chunk)
	if err != nil {
		return err
	}
	err = s.update(ctx, chunk.ID, r)
	s.logger.LogUpdate(ctx, chunk.ID, err)
	return err
}

func (s *Store) update(ctx context.Context, id int64, r *row) error {
	stmt, err := s.drv.Prepare(ctx, s.backend.statements().update)
	if err != nil {
		return err
	}
	defer stmt.Close()
	res, err := stmt.Run(ctx, append(r.args(), id)...)
	if err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return nil
}

// DeleteChunks deletes the chunks with the given ids in one transaction and
// returns how many existed. The vector index follows synchronously.
func (s *Store) DeleteChunks(ctx context.Context, ids ...int64) (int64, error) {
	if err := s.ensureOpen("delete"); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	var deleted int64
	err := s.drv.Transaction(ctx, func(tx driver.Executor) error {
		stmt, err := tx.Prepare(ctx, s.backend.statements().deleteByID)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, id := range ids {
			res, err := stmt.Run(ctx, id)
			if err != nil {
				return err
			}
			deleted += res.RowsAffected
		}
		return nil
	})
	if err != nil {
		deleted = 0
	}
	s.logger.LogDelete(ctx, deleted, err)
	return deleted, err
}

// DeleteByFilepath deletes every chunk stored under path.
func (s *Store) DeleteByFilepath(ctx context.Context, path string) (int64, error) {
	if err := s.ensureOpen("delete"); err != nil {
		return 0, err
	}
	stmt, err := s.drv.Prepare(ctx, s.backend.statements().deleteByPath)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	res, err := stmt.Run(ctx, path)
	s.logger.LogDelete(ctx, res.RowsAffected, err)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}
