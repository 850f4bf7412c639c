package engine

import (
	"database/sql/driver"
	"fmt"
	"sync"

	"github.com/viant/chunkstore/vector"
	sqlite "modernc.org/sqlite"
)

var registerFunctionsOnce sync.Once

// RegisterVectorFunctions registers vec_distance_cosine(a, b) and
// vec_distance_l2(a, b) over embedding BLOBs. Registration is process wide and
// only affects connections opened after this call.
func RegisterVectorFunctions() {
	registerFunctionsOnce.Do(func() {
		_ = sqlite.RegisterDeterministicScalarFunction("vec_distance_cosine", 2, distanceFunc(vector.MetricCosine))
		_ = sqlite.RegisterDeterministicScalarFunction("vec_distance_l2", 2, distanceFunc(vector.MetricL2))
	})
}

func distanceFunc(metric vector.Metric) func(*sqlite.FunctionContext, []driver.Value) (driver.Value, error) {
	name := "vec_distance_" + string(metric)
	return func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("%s: expected 2 arguments, got %d", name, len(args))
		}
		a, err := asEmbedding(args[0])
		if err != nil {
			return nil, err
		}
		b, err := asEmbedding(args[1])
		if err != nil {
			return nil, err
		}
		if a == nil || b == nil {
			return nil, nil
		}
		return metric.Distance(a, b)
	}
}

func asEmbedding(arg driver.Value) ([]float32, error) {
	switch v := arg.(type) {
	case nil:
		return nil, nil
	case []byte:
		return vector.DecodeEmbedding(v)
	default:
		return nil, fmt.Errorf("engine: unsupported argument type %T for embedding; want BLOB", arg)
	}
}
