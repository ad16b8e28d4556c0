package data_types

import (
	"bytes"
	"fmt"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
)

// Bytes keeps the raw value untouched.
type Bytes struct{}

func (b Bytes) GetName() string {
	return DATA_TYPE_NAME_BYTES
}

func (b Bytes) Parse(raw string, _ ParseOptions) (any, error) {
	return []byte(raw), nil
}

func (b Bytes) ParseText(s string) (any, error) {
	return []byte(trimValue(s)), nil
}

func (b Bytes) ParseLiteral(v any) (any, error) {
	switch _v := v.(type) {
	case []byte:
		return _v, nil
	case string:
		return []byte(_v), nil
	}
	return nil, fmt.Errorf("%v is not %s", v, b.GetName())
}

func (b Bytes) Compare(x, y any) int {
	return bytes.Compare(x.([]byte), y.([]byte))
}

func (b Bytes) ArrowDataType() arrow.DataType {
	return arrow.BinaryTypes.Binary
}

func (b Bytes) WriteToBatch(batch array.Builder, v any) error {
	_batch := batch.(*array.BinaryBuilder)
	if v == nil {
		_batch.AppendNull()
		return nil
	}
	_v, ok := v.([]byte)
	if !ok {
		return fmt.Errorf("invalid data type %T", v)
	}
	_batch.Append(_v)
	return nil
}
