package vec

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	idxapi "github.com/viant/chunkstore/index"
	"github.com/viant/chunkstore/index/bruteforce"
	covidx "github.com/viant/chunkstore/index/cover"
	"github.com/viant/chunkstore/vector"
	"modernc.org/sqlite/vtab"
)

// Module implements vtab.Module for the vec virtual table. It is stateless:
// tables resolve their database through the store registry.
type Module struct{}

// Table represents a single vec virtual table instance.
type Table struct {
	dbName    string
	tableName string
	shadow    string // qualified shadow table name (e.g. "main._vec_vec_index")
	info      string // qualified info table name
	spec      Spec
}

const (
	autoCoverMinDocs            = 4000
	autoCoverMinDim             = 64
	autoCoverMinDensity float64 = 16
)

const (
	colEmbedding = iota
	colDistance
	colK
)

const (
	idxScan = iota
	idxRowid
	idxMatch
	idxMatchK
)

// Create initializes a vec table instance. Shadow and info tables are created
// by the caller (SchemaDDL) before the virtual table so that xCreate never
// issues cross-connection DDL.
func (m *Module) Create(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.connect(ctx, args, "CREATE")
}

// Connect attaches to an existing vec table instance.
func (m *Module) Connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.connect(ctx, args, "CONNECT")
}

func (m *Module) connect(ctx vtab.Context, args []string, op string) (vtab.Table, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("vec: %s expects at least 3 args, got %d", op, len(args))
	}
	spec, err := ParseSpec(args[3:])
	if err != nil {
		return nil, err
	}
	if err := ctx.EnableConstraintSupport(); err != nil {
		return nil, fmt.Errorf("vec: EnableConstraintSupport failed: %w", err)
	}
	if err := ctx.Declare(fmt.Sprintf("CREATE TABLE %s(%s BLOB, distance REAL, k INTEGER HIDDEN)", args[2], spec.Column)); err != nil {
		return nil, err
	}
	t := &Table{dbName: args[1], tableName: args[2], spec: spec}
	t.shadow = t.qualified(ShadowTable(t.tableName))
	t.info = t.qualified(InfoTable(t.tableName))
	return t, nil
}

// BestIndex pushes down MATCH on the embedding column together with the
// hidden k column; rowid equality and full scans are served from the shadow.
func (t *Table) BestIndex(info *vtab.IndexInfo) error {
	var (
		matchConstraint *vtab.Constraint
		kConstraint     *vtab.Constraint
		rowidConstraint *vtab.Constraint
	)
	for i := range info.Constraints {
		c := &info.Constraints[i]
		if !c.Usable {
			continue
		}
		switch {
		case c.Column == colEmbedding && c.Op == vtab.OpMATCH:
			matchConstraint = c
		case c.Column == colK && c.Op == vtab.OpEQ:
			kConstraint = c
		case c.Column == -1 && c.Op == vtab.OpEQ:
			rowidConstraint = c
		}
	}

	switch {
	case matchConstraint != nil:
		matchConstraint.ArgIndex = 0
		matchConstraint.Omit = true
		info.IdxNum = idxMatch
		if kConstraint != nil {
			kConstraint.ArgIndex = 1
			kConstraint.Omit = true
			info.IdxNum = idxMatchK
		}
		if len(info.OrderBy) == 1 && info.OrderBy[0].Column == colDistance && !info.OrderBy[0].Desc {
			info.OrderByConsumed = true
		}
		info.EstimatedCost = 10
	case rowidConstraint != nil:
		rowidConstraint.ArgIndex = 0
		rowidConstraint.Omit = true
		info.IdxNum = idxRowid
		info.IdxFlags = vtab.IndexScanUnique
		info.EstimatedCost = 1
		info.EstimatedRows = 1
	default:
		info.IdxNum = idxScan
		info.EstimatedCost = 1e6
	}
	return nil
}

// Open allocates a new cursor.
func (t *Table) Open() (vtab.Cursor, error) { return &Cursor{table: t}, nil }

// Disconnect cleans up per-connection resources.
func (t *Table) Disconnect() error { return nil }

// Destroy drops the cached index; the shadow table is owned by the caller.
func (t *Table) Destroy() error {
	InvalidateCache(t.spec.StoreID, t.tableName)
	return nil
}

func (t *Table) qualified(name string) string {
	if strings.TrimSpace(t.dbName) == "" {
		return name
	}
	return t.dbName + "." + name
}

func (t *Table) resolveIndexKind(docCount int) idxapi.Kind {
	switch t.spec.Index {
	case idxapi.KindCover, idxapi.KindBrute:
		return t.spec.Index
	}
	dim := t.spec.Dim
	if docCount >= autoCoverMinDocs && dim >= autoCoverMinDim {
		density := float64(docCount) / float64(dim)
		if density >= autoCoverMinDensity {
			return idxapi.KindCover
		}
	}
	return idxapi.KindBrute
}

func (t *Table) readVersion(ctx context.Context, db *sql.DB) (int64, error) {
	var version int64
	err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT version FROM %s WHERE id = 1", t.info)).Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return version, err
}

// ensureIndex returns an index built from the shadow at its current version,
// rebuilding the shared cached one when the shadow changed.
func (t *Table) ensureIndex(ctx context.Context, db *sql.DB) (*snapshot, error) {
	version, err := t.readVersion(ctx, db)
	if err != nil {
		return nil, err
	}
	entry := getCacheEntry(cacheKey(t.spec.StoreID, t.tableName))
	for {
		if snap := entry.current(version); snap != nil {
			return snap, nil
		}
		if entry.startBuild() {
			break
		}
		entry.waitForBuild()
	}
	defer entry.finishBuild()
	if snap := entry.current(version); snap != nil {
		return snap, nil
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT rowid, embedding FROM %s", t.shadow))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	var vecs [][]float32
	vectors := make(map[int64][]float32)
	for rows.Next() {
		var id int64
		var emb []byte
		if err := rows.Scan(&id, &emb); err != nil {
			return nil, err
		}
		v, err := vector.DecodeEmbeddingDim(emb, t.spec.Dim)
		if err != nil {
			return nil, fmt.Errorf("vec: shadow row %d: %w", id, err)
		}
		ids = append(ids, id)
		vecs = append(vecs, v)
		vectors[id] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var built idxapi.Index
	switch t.resolveIndexKind(len(ids)) {
	case idxapi.KindCover:
		built = covidx.New(t.spec.cover.toIndexOptions(t.spec.Metric)...)
	default:
		built = bruteforce.New(t.spec.Metric)
	}
	if err := built.Build(ids, vecs); err != nil {
		return nil, err
	}
	snap := &snapshot{version: version, idx: built, vectors: vectors}
	entry.set(snap)
	return snap, nil
}

type row struct {
	rowid     int64
	embedding []float32
	blob      []byte
	distance  *float64
}

// Cursor scans results from a vec table.
type Cursor struct {
	table *Table
	rows  []row
	pos   int
	k     int64
}

// Filter computes the result set based on idxNum/vals.
func (c *Cursor) Filter(idxNum int, idxStr string, vals []vtab.Value) error {
	_ = idxStr
	c.rows = nil
	c.pos = 0
	c.k = 0
	db, err := lookupStore(c.table.spec.StoreID)
	if err != nil {
		return err
	}
	ctx := context.Background()

	switch idxNum {
	case idxScan:
		return c.scan(ctx, db, fmt.Sprintf("SELECT rowid, embedding FROM %s ORDER BY rowid", c.table.shadow))
	case idxRowid:
		if len(vals) == 0 || vals[0] == nil {
			return nil
		}
		rowid, err := asInt(vals[0])
		if err != nil {
			return err
		}
		return c.scan(ctx, db, fmt.Sprintf("SELECT rowid, embedding FROM %s WHERE rowid = ?", c.table.shadow), rowid)
	case idxMatch, idxMatchK:
		if len(vals) == 0 || vals[0] == nil {
			return fmt.Errorf("vec: MATCH argument is required")
		}
		query, err := decodeMatchArg(vals[0])
		if err != nil {
			return err
		}
		if len(query) != c.table.spec.Dim {
			return fmt.Errorf("vec: query dimension %d does not match table dimension %d", len(query), c.table.spec.Dim)
		}
		k := 0
		if idxNum == idxMatchK {
			if len(vals) < 2 {
				return fmt.Errorf("vec: missing k constraint")
			}
			n, err := asInt(vals[1])
			if err != nil {
				return err
			}
			if n <= 0 {
				return fmt.Errorf("vec: k must be positive, got %d", n)
			}
			k = int(n)
			c.k = n
		}
		snap, err := c.table.ensureIndex(ctx, db)
		if err != nil {
			return err
		}
		ids, distances, err := snap.idx.Query(query, k)
		if err != nil {
			return err
		}
		out := make([]row, 0, len(ids))
		for i, id := range ids {
			d := distances[i]
			out = append(out, row{rowid: id, embedding: snap.vectors[id], distance: &d})
		}
		c.rows = out
		return nil
	default:
		return fmt.Errorf("vec: unsupported query plan")
	}
}

func (c *Cursor) scan(ctx context.Context, db *sql.DB, query string, args ...interface{}) error {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	var out []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.rowid, &r.blob); err != nil {
			return err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	c.rows = out
	return nil
}

// Next advances the cursor.
func (c *Cursor) Next() error {
	if c.pos < len(c.rows) {
		c.pos++
	}
	return nil
}

// Eof reports end-of-rows.
func (c *Cursor) Eof() bool { return c.pos >= len(c.rows) }

// Column returns the value of a column in the current row.
func (c *Cursor) Column(col int) (vtab.Value, error) {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return nil, fmt.Errorf("vec: Column out of range (pos=%d,len=%d)", c.pos, len(c.rows))
	}
	r := c.rows[c.pos]
	switch col {
	case colEmbedding:
		if r.blob != nil {
			return r.blob, nil
		}
		return vector.EncodeEmbedding(r.embedding)
	case colDistance:
		if r.distance == nil {
			return nil, nil
		}
		return *r.distance, nil
	case colK:
		if c.k == 0 {
			return nil, nil
		}
		return c.k, nil
	}
	return nil, fmt.Errorf("vec: unsupported column %d", col)
}

// Rowid returns the current rowid.
func (c *Cursor) Rowid() (int64, error) {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return 0, fmt.Errorf("vec: Rowid out of range (pos=%d,len=%d)", c.pos, len(c.rows))
	}
	return c.rows[c.pos].rowid, nil
}

// Close releases resources.
func (c *Cursor) Close() error { c.rows = nil; c.pos = 0; return nil }
