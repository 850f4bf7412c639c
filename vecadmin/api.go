// Package vecadmin checks and repairs the mirror between a primary table and
// its vec shadow table.
package vecadmin

import (
	"context"
	"fmt"

	"github.com/viant/chunkstore/driver"
	"github.com/viant/chunkstore/vecsync"
)

// Report summarizes the consistency of a shadow table with its primary table.
type Report struct {
	// Records is the number of primary rows.
	Records int
	// Indexed is the number of shadow rows.
	Indexed int
	// Missing counts primary rows without a shadow row.
	Missing int
	// Orphaned counts shadow rows without a primary row.
	Orphaned int
	// Mismatched counts shadow rows whose embedding differs from the primary
	// row or whose length does not match the expected dimension.
	Mismatched int
}

// Consistent reports whether every primary row is mirrored exactly once.
func (r *Report) Consistent() bool {
	return r.Missing == 0 && r.Orphaned == 0 && r.Mismatched == 0 && r.Records == r.Indexed
}

// String returns a short summary.
func (r *Report) String() string {
	return fmt.Sprintf("records=%d indexed=%d missing=%d orphaned=%d mismatched=%d", r.Records, r.Indexed, r.Missing, r.Orphaned, r.Mismatched)
}

// Check compares b.Table with b.Shadow. dim is the expected embedding
// dimension; zero skips the length check.
func Check(ctx context.Context, exec driver.Executor, b vecsync.Binding, dim int) (*Report, error) {
	b = b.WithDefaults()
	mismatch := fmt.Sprintf("s.embedding <> p.%s", b.Column)
	if dim > 0 {
		mismatch += fmt.Sprintf(" OR length(s.embedding) <> %d", dim*4)
	}
	queries := []struct {
		dest  *int
		query string
	}{
		{query: fmt.Sprintf("SELECT COUNT(*) FROM %s", b.Table)},
		{query: fmt.Sprintf("SELECT COUNT(*) FROM %s", b.Shadow)},
		{query: fmt.Sprintf("SELECT COUNT(*) FROM %s p LEFT JOIN %s s ON s.rowid = p.%s WHERE s.rowid IS NULL", b.Table, b.Shadow, b.Key)},
		{query: fmt.Sprintf("SELECT COUNT(*) FROM %s s LEFT JOIN %s p ON p.%s = s.rowid WHERE p.%s IS NULL", b.Shadow, b.Table, b.Key, b.Key)},
		{query: fmt.Sprintf("SELECT COUNT(*) FROM %s p JOIN %s s ON s.rowid = p.%s WHERE %s", b.Table, b.Shadow, b.Key, mismatch)},
	}
	ret := &Report{}
	queries[0].dest = &ret.Records
	queries[1].dest = &ret.Indexed
	queries[2].dest = &ret.Missing
	queries[3].dest = &ret.Orphaned
	queries[4].dest = &ret.Mismatched
	for _, q := range queries {
		n, err := count(ctx, exec, q.query)
		if err != nil {
			return nil, fmt.Errorf("vecadmin: check %s: %w", b.Shadow, err)
		}
		*q.dest = n
	}
	return ret, nil
}

// Rebuild repopulates b.Shadow from b.Table in a single transaction and
// returns the number of mirrored rows.
func Rebuild(ctx context.Context, drv driver.Driver, b vecsync.Binding) (int, error) {
	b = b.WithDefaults()
	var n int
	err := drv.Transaction(ctx, func(tx driver.Executor) error {
		for _, stmt := range vecsync.ResyncSQL(b) {
			if err := tx.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		var err error
		n, err = count(ctx, tx, fmt.Sprintf("SELECT COUNT(*) FROM %s", b.Shadow))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("vecadmin: rebuild %s: %w", b.Shadow, err)
	}
	return n, nil
}

func count(ctx context.Context, exec driver.Executor, query string) (int, error) {
	stmt, err := exec.Prepare(ctx, query)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	rows, err := stmt.All(ctx)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, err
		}
	}
	return n, rows.Err()
}
