package data_types

import (
	"fmt"
	"math"
	"strconv"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
)

type Int64 struct {
	generic[int64]
}

func (i Int64) GetName() string {
	return DATA_TYPE_NAME_INT64
}

// Parse goes through a float parse and truncates, so "3.9" is 3.
func (i Int64) Parse(raw string, opts ParseOptions) (any, error) {
	return parseTruncated(removeChar(trimValue(raw), opts.RemoveChar))
}

func (i Int64) ParseText(s string) (any, error) {
	return parseTruncated(trimValue(s))
}

func (i Int64) ParseLiteral(v any) (any, error) {
	if n, ok := toInt64(v); ok {
		return n, nil
	}
	return nil, fmt.Errorf("%v is not %s", v, i.GetName())
}

func parseTruncated(s string) (any, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return nil, fmt.Errorf("%q does not fit an integer", s)
	}
	return int64(f), nil
}

func (i Int64) ArrowDataType() arrow.DataType {
	return arrow.PrimitiveTypes.Int64
}

func (i Int64) WriteToBatch(batch array.Builder, v any) error {
	_batch := batch.(*array.Int64Builder)
	return i.generic.WriteToBatch(_batch.Append, _batch.AppendNull, v)
}
