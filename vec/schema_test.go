package vec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/chunkstore/index"
	"github.com/viant/chunkstore/vector"
)

func indexKind(t *testing.T, name string) index.Kind {
	t.Helper()
	k, err := index.ParseKind(name)
	require.NoError(t, err)
	return k
}

func TestParseSpec(t *testing.T) {
	testCases := []struct {
		description string
		args        []string
		expect      Spec
		expectErr   bool
	}{
		{
			description: "full",
			args:        []string{"embedding", "dim=384", "distance_metric=cosine", "index=cover", "store=abc"},
			expect:      Spec{Column: "embedding", Dim: 384, Metric: vector.MetricCosine, Index: index.KindCover, StoreID: "abc"},
		},
		{
			description: "defaults and custom column",
			args:        []string{"vec", " dim = 4 "},
			expect:      Spec{Column: "vec", Dim: 4, Metric: vector.MetricCosine, Index: index.KindAuto},
		},
		{description: "missing dim", args: []string{"embedding"}, expectErr: true},
		{description: "bad dim", args: []string{"embedding", "dim=x"}, expectErr: true},
		{description: "bad metric", args: []string{"embedding", "dim=2", "distance_metric=dot"}, expectErr: true},
		{description: "unknown option", args: []string{"embedding", "dim=2", "foo=bar"}, expectErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			spec, err := ParseSpec(tc.args)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			spec.cover = coverOptions{}
			assert.Equal(t, tc.expect, spec)
		})
	}
}

func TestCreateTableDDL_RoundTrip(t *testing.T) {
	spec := Spec{Dim: 8, Metric: vector.MetricL2, Index: index.KindBrute, StoreID: "s1"}
	ddl := CreateTableDDL("vec_index", spec)
	assert.Equal(t, "CREATE VIRTUAL TABLE IF NOT EXISTS vec_index USING vec(embedding, dim=8, distance_metric=l2, index=brute, store='s1')", ddl)

	args := strings.Split(ddl[strings.Index(ddl, "(")+1:len(ddl)-1], ",")
	parsed, err := ParseSpec(args)
	require.NoError(t, err)
	assert.Equal(t, 8, parsed.Dim)
	assert.Equal(t, vector.MetricL2, parsed.Metric)
	assert.Equal(t, "s1", parsed.StoreID)
}

func TestSchemaDDL(t *testing.T) {
	stmts := SchemaDDL("vec_index")
	require.Len(t, stmts, 5)
	assert.Contains(t, stmts[0], "CREATE TABLE IF NOT EXISTS _vec_vec_index (")
	assert.Contains(t, stmts[1], "CREATE TABLE IF NOT EXISTS _vec_vec_index_info (")
	for _, trig := range stmts[2:] {
		assert.Contains(t, trig, "UPDATE _vec_vec_index_info SET version = version + 1")
	}
}

func TestDecodeMatchString(t *testing.T) {
	v, err := decodeMatchString("[1, 2.5]")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2.5}, v)

	v, err = decodeMatchString("0.5, 1")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 1}, v)

	_, err = decodeMatchString("")
	assert.Error(t, err)
}
