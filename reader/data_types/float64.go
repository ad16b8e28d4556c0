package data_types

import (
	"fmt"
	"strconv"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
)

type Float64 struct {
	generic[float64]
}

func (f Float64) GetName() string {
	return DATA_TYPE_NAME_FLOAT64
}

func (f Float64) Parse(raw string, opts ParseOptions) (any, error) {
	return f.ParseText(removeChar(trimValue(raw), opts.RemoveChar))
}

func (f Float64) ParseText(s string) (any, error) {
	v, err := strconv.ParseFloat(trimValue(s), 64)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// ParseLiteral also takes integer literals.
func (f Float64) ParseLiteral(v any) (any, error) {
	switch _v := v.(type) {
	case float64:
		return _v, nil
	case float32:
		return float64(_v), nil
	}
	if n, ok := toInt64(v); ok {
		return float64(n), nil
	}
	return nil, fmt.Errorf("%v is not %s", v, f.GetName())
}

func (f Float64) ArrowDataType() arrow.DataType {
	return arrow.PrimitiveTypes.Float64
}

func (f Float64) WriteToBatch(batch array.Builder, v any) error {
	_batch := batch.(*array.Float64Builder)
	return f.generic.WriteToBatch(_batch.Append, _batch.AppendNull, v)
}
