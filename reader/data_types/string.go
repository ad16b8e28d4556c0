package data_types

import (
	"fmt"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
)

type String struct {
	generic[string]
}

func (s String) GetName() string {
	return DATA_TYPE_NAME_STRING
}

func (s String) Parse(raw string, opts ParseOptions) (any, error) {
	return removeChar(trimValue(raw), opts.RemoveChar), nil
}

func (s String) ParseText(str string) (any, error) {
	return trimValue(str), nil
}

func (s String) ParseLiteral(v any) (any, error) {
	if _v, ok := v.(string); ok {
		return _v, nil
	}
	return nil, fmt.Errorf("%v is not %s", v, s.GetName())
}

func (s String) ArrowDataType() arrow.DataType {
	return arrow.BinaryTypes.String
}

func (s String) WriteToBatch(batch array.Builder, v any) error {
	_batch := batch.(*array.StringBuilder)
	return s.generic.WriteToBatch(_batch.Append, _batch.AppendNull, v)
}

// State holds a US postal state code; its legal values come from the
// built-in states table.
type State struct {
	String
}

func (s State) GetName() string {
	return DATA_TYPE_NAME_STATE
}

// StateTerr is a state or territory postal code.
type StateTerr struct {
	String
}

func (s StateTerr) GetName() string {
	return DATA_TYPE_NAME_STATETERR
}
