package chunkstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/viant/chunkstore/driver"
)

// fakeDriver records statements and applies rows written inside a
// transaction only when the transaction commits.
type fakeDriver struct {
	kind        driver.Kind
	committed   []fakeRow
	begun       int
	rolledBack  int
	failContent string
	nextID      int64
	prepared    []string
	closed      bool
	// noID makes inserts report no id: Run without LastInsertId, RETURNING
	// without a row.
	noID bool
	// queried records the arguments of every non-insert All call.
	queried [][]interface{}
	// resultRows are returned by every non-insert All call.
	resultRows [][]interface{}
}

type fakeRow struct {
	id   int64
	args []interface{}
}

var errFakeConstraint = errors.New("fake: constraint failed")

func newFakeDriver(kind driver.Kind) *fakeDriver { return &fakeDriver{kind: kind} }

func (d *fakeDriver) Kind() driver.Kind { return d.kind }

func (d *fakeDriver) Exec(ctx context.Context, query string) error {
	d.prepared = append(d.prepared, query)
	return nil
}

func (d *fakeDriver) Prepare(ctx context.Context, query string) (driver.Statement, error) {
	d.prepared = append(d.prepared, query)
	return &fakeStatement{d: d, sink: &d.committed, query: query}, nil
}

func (d *fakeDriver) Transaction(ctx context.Context, fn func(tx driver.Executor) error) error {
	d.begun++
	tx := &fakeTx{d: d}
	if err := fn(tx); err != nil {
		d.rolledBack++
		return err
	}
	d.committed = append(d.committed, tx.pending...)
	return nil
}

func (d *fakeDriver) Close() error {
	d.closed = true
	return nil
}

func (d *fakeDriver) contents() []string {
	var ret []string
	for _, r := range d.committed {
		ret = append(ret, r.args[0].(string))
	}
	return ret
}

type fakeTx struct {
	d       *fakeDriver
	pending []fakeRow
}

func (t *fakeTx) Exec(ctx context.Context, query string) error { return t.d.Exec(ctx, query) }

func (t *fakeTx) Prepare(ctx context.Context, query string) (driver.Statement, error) {
	t.d.prepared = append(t.d.prepared, query)
	return &fakeStatement{d: t.d, sink: &t.pending, query: query}, nil
}

type fakeStatement struct {
	d     *fakeDriver
	sink  *[]fakeRow
	query string
}

func (s *fakeStatement) write(args []interface{}) (int64, error) {
	if len(args) > 0 && s.d.failContent != "" && args[0] == s.d.failContent {
		return 0, errFakeConstraint
	}
	s.d.nextID++
	*s.sink = append(*s.sink, fakeRow{id: s.d.nextID, args: args})
	return s.d.nextID, nil
}

func (s *fakeStatement) Run(ctx context.Context, args ...interface{}) (driver.Result, error) {
	id, err := s.write(args)
	if err != nil {
		return driver.Result{}, err
	}
	if s.d.noID {
		return driver.Result{RowsAffected: 1}, nil
	}
	return driver.Result{LastInsertID: id, HasLastInsertID: true, RowsAffected: 1}, nil
}

func (s *fakeStatement) All(ctx context.Context, args ...interface{}) (driver.Rows, error) {
	if strings.Contains(s.query, "RETURNING id") {
		id, err := s.write(args)
		if err != nil {
			return nil, err
		}
		if s.d.noID {
			return &fakeRows{}, nil
		}
		return &fakeRows{data: [][]interface{}{{id}}}, nil
	}
	s.d.queried = append(s.d.queried, args)
	return &fakeRows{data: s.d.resultRows}, nil
}

func (s *fakeStatement) Close() error { return nil }

// fakeRows serves data row by row; Scan assigns by destination type.
type fakeRows struct {
	data [][]interface{}
	pos  int
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...interface{}) error {
	row := r.data[r.pos-1]
	if len(dest) != len(row) {
		return fmt.Errorf("fake: scan %d columns into %d targets", len(row), len(dest))
	}
	for i, d := range dest {
		switch target := d.(type) {
		case *int64:
			*target = row[i].(int64)
		case *int:
			*target = int(row[i].(int64))
		case *string:
			*target = row[i].(string)
		case *float64:
			*target = row[i].(float64)
		case *[]byte:
			switch v := row[i].(type) {
			case string:
				*target = []byte(v)
			case []byte:
				*target = v
			}
		default:
			return fmt.Errorf("fake: unsupported scan target %T", d)
		}
	}
	return nil
}

func (r *fakeRows) Err() error   { return nil }
func (r *fakeRows) Close() error { return nil }

// stubProvider returns a fixed-width vector derived from the text length.
type stubProvider struct {
	dim      int
	failText string
	width    int
}

func (p *stubProvider) Dimension() int { return p.dim }

func (p *stubProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == p.failText {
		return nil, errors.New("stub: model unavailable")
	}
	width := p.dim
	if p.width > 0 {
		width = p.width
	}
	v := make([]float32, width)
	v[0] = float32(len(text))
	return v, nil
}

func (p *stubProvider) Close() error { return nil }
