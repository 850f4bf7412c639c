package vec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/viant/chunkstore/index"
	covidx "github.com/viant/chunkstore/index/cover"
	"github.com/viant/chunkstore/vector"
)

const defaultColumn = "embedding"

// Spec describes a vec virtual table as declared in its USING clause:
//
//	CREATE VIRTUAL TABLE vec_index USING vec(embedding, dim=384, distance_metric=cosine, index=brute, store='<id>')
type Spec struct {
	Column  string
	Dim     int
	Metric  vector.Metric
	Index   index.Kind
	StoreID string
	cover   coverOptions
}

type coverOptions struct {
	base     float32
	useBound bool
	bound    covidx.BoundStrategy
}

func (c coverOptions) toIndexOptions(metric vector.Metric) []covidx.Option {
	opts := []covidx.Option{covidx.WithMetric(metric)}
	if c.base > 1 {
		opts = append(opts, covidx.WithBase(c.base))
	}
	if c.useBound {
		opts = append(opts, covidx.WithBoundStrategy(c.bound))
	}
	return opts
}

// ParseSpec parses module arguments (argv[3:] of xCreate/xConnect).
func ParseSpec(args []string) (Spec, error) {
	spec := Spec{Column: defaultColumn, Metric: vector.MetricCosine, Index: index.KindAuto}
	for i, raw := range args {
		a := strings.TrimSpace(raw)
		if a == "" {
			continue
		}
		parts := strings.SplitN(a, "=", 2)
		if len(parts) != 2 {
			if i == 0 {
				spec.Column = unquote(a)
				continue
			}
			return spec, fmt.Errorf("vec: unexpected argument %q", a)
		}
		key := strings.ToLower(strings.TrimSpace(parts[0]))
		val := unquote(strings.TrimSpace(parts[1]))
		switch key {
		case "dim", "dimension":
			n, err := strconv.Atoi(val)
			if err != nil || n <= 0 {
				return spec, fmt.Errorf("vec: invalid dim %q", val)
			}
			spec.Dim = n
		case "distance_metric", "metric":
			m, err := vector.ParseMetric(val)
			if err != nil {
				return spec, err
			}
			spec.Metric = m
		case "index":
			k, err := index.ParseKind(val)
			if err != nil {
				return spec, err
			}
			spec.Index = k
		case "store":
			spec.StoreID = val
		case "cover_base":
			if f, err := strconv.ParseFloat(val, 32); err == nil && f > 1 {
				spec.cover.base = float32(f)
			}
		case "cover_bound":
			switch strings.ToLower(val) {
			case "level", "boundlevel":
				spec.cover.bound = covidx.BoundLevel
				spec.cover.useBound = true
			case "per_node", "pernode", "node":
				spec.cover.bound = covidx.BoundPerNode
				spec.cover.useBound = true
			}
		default:
			return spec, fmt.Errorf("vec: unknown option %q", key)
		}
	}
	if spec.Dim <= 0 {
		return spec, fmt.Errorf("vec: dim option is required")
	}
	return spec, nil
}

// ShadowTable returns the shadow table name for a vec table.
func ShadowTable(table string) string { return "_vec_" + table }

// InfoTable returns the info table name for a vec table.
func InfoTable(table string) string { return "_vec_" + table + "_info" }

// CreateTableDDL returns the CREATE VIRTUAL TABLE statement for spec.
func CreateTableDDL(table string, spec Spec) string {
	column := spec.Column
	if column == "" {
		column = defaultColumn
	}
	metric := spec.Metric
	if metric == "" {
		metric = vector.MetricCosine
	}
	kind := spec.Index
	if kind == "" {
		kind = index.KindAuto
	}
	args := []string{
		column,
		"dim=" + strconv.Itoa(spec.Dim),
		"distance_metric=" + string(metric),
		"index=" + string(kind),
	}
	if spec.StoreID != "" {
		args = append(args, "store='"+spec.StoreID+"'")
	}
	return fmt.Sprintf("CREATE VIRTUAL TABLE IF NOT EXISTS %s USING vec(%s)", table, strings.Join(args, ", "))
}

// SchemaDDL returns the statements creating the shadow table, the info table
// and the triggers bumping the info version on every shadow change. The info
// row itself is written with InfoInsertSQL.
func SchemaDDL(table string) []string {
	shadow := ShadowTable(table)
	info := InfoTable(table)
	bump := fmt.Sprintf("UPDATE %s SET version = version + 1 WHERE id = 1;", info)
	trig := sanitizeName("trg" + shadow)
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    rowid INTEGER PRIMARY KEY,
    embedding BLOB NOT NULL
)`, shadow),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    store_id TEXT NOT NULL,
    dim INTEGER NOT NULL,
    metric TEXT NOT NULL,
    version INTEGER NOT NULL DEFAULT 0
)`, info),
		fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s_ins AFTER INSERT ON %s BEGIN %s END`, trig, shadow, bump),
		fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s_upd AFTER UPDATE ON %s BEGIN %s END`, trig, shadow, bump),
		fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s_del AFTER DELETE ON %s BEGIN %s END`, trig, shadow, bump),
	}
}

// InfoInsertSQL inserts the info row unless present; args: store_id, dim, metric.
func InfoInsertSQL(table string) string {
	return fmt.Sprintf("INSERT OR IGNORE INTO %s (id, store_id, dim, metric, version) VALUES (1, ?, ?, ?, 0)", InfoTable(table))
}

// InfoSelectSQL selects store_id, dim, metric and version of the info row.
func InfoSelectSQL(table string) string {
	return fmt.Sprintf("SELECT store_id, dim, metric, version FROM %s WHERE id = 1", InfoTable(table))
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// sanitizeName converts a qualified name into a safe identifier for triggers.
func sanitizeName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch r {
		case '.', '-', ' ':
			out = append(out, '_')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
