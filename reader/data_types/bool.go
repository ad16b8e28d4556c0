package data_types

import (
	"fmt"
	"strconv"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
)

// Bool is not a schema type. Row hooks produce it (e.g. a lookup's
// matched flag) and sinks need to write it.
type Bool struct{}

func (b Bool) GetName() string {
	return DATA_TYPE_NAME_BOOL
}

func (b Bool) Parse(raw string, _ ParseOptions) (any, error) {
	return b.ParseText(raw)
}

func (b Bool) ParseText(s string) (any, error) {
	v, err := strconv.ParseBool(trimValue(s))
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (b Bool) ParseLiteral(v any) (any, error) {
	if _v, ok := v.(bool); ok {
		return _v, nil
	}
	return nil, fmt.Errorf("%v is not %s", v, b.GetName())
}

func (b Bool) Compare(x, y any) int {
	_x, _y := x.(bool), y.(bool)
	switch {
	case _x == _y:
		return 0
	case !_x:
		return -1
	}
	return 1
}

func (b Bool) ArrowDataType() arrow.DataType {
	return arrow.FixedWidthTypes.Boolean
}

func (b Bool) WriteToBatch(batch array.Builder, v any) error {
	_batch := batch.(*array.BooleanBuilder)
	if v == nil {
		_batch.AppendNull()
		return nil
	}
	_v, ok := v.(bool)
	if !ok {
		return fmt.Errorf("invalid data type %T", v)
	}
	_batch.Append(_v)
	return nil
}
