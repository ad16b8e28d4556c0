package sink

import (
	"math"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/go-faster/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/metrico/datareader/reader/data_types"
	"github.com/metrico/datareader/reader/shared"
)

// ColumnTypes types each column: declared fields by the schema, the rest
// by the first non-nil value found in records.
func ColumnTypes(opts Options, columns []string, records []*shared.Record) []data_types.DataType {
	res := make([]data_types.DataType, len(columns))
	for i, c := range columns {
		if opts.Schema != nil {
			if f, ok := opts.Schema.Field(c); ok {
				res[i] = f.Type
				continue
			}
		}
		res[i] = data_types.String{}
		for _, rec := range records {
			if v := rec.Value(c); v != nil {
				res[i] = data_types.ForValue(v)
				break
			}
		}
	}
	return res
}

// ToMatrix builds a dense row-major matrix. Every value must be numeric;
// nil becomes NaN.
func ToMatrix(columns []string, records []*shared.Record) (*mat.Dense, error) {
	if len(records) == 0 || len(columns) == 0 {
		return nil, nil
	}
	data := make([]float64, 0, len(records)*len(columns))
	for _, rec := range records {
		for _, c := range columns {
			switch v := rec.Value(c).(type) {
			case nil:
				data = append(data, math.NaN())
			case int64:
				data = append(data, float64(v))
			case float64:
				data = append(data, v)
			case bool:
				f := 0.0
				if v {
					f = 1
				}
				data = append(data, f)
			default:
				return nil, errors.Errorf("column %s holds %T, NUMERIC_MATRIX needs numeric fields", c, v)
			}
		}
	}
	return mat.NewDense(len(records), len(columns), data), nil
}

// ToTable builds an arrow record with one column per output column. The
// caller releases the record.
func ToTable(opts Options, columns []string, records []*shared.Record) (arrow.Record, error) {
	types := ColumnTypes(opts, columns, records)
	fields := make([]arrow.Field, len(columns))
	for i, c := range columns {
		fields[i] = arrow.Field{Name: c, Type: types[i].ArrowDataType(), Nullable: true}
	}
	b := array.NewRecordBuilder(memory.NewGoAllocator(), arrow.NewSchema(fields, nil))
	defer b.Release()
	for _, rec := range records {
		for i, c := range columns {
			if err := types[i].WriteToBatch(b.Field(i), rec.Value(c)); err != nil {
				return nil, errors.Wrapf(err, "column %s", c)
			}
		}
	}
	return b.NewRecord(), nil
}
