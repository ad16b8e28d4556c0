package data_types

import (
	"fmt"
	"strings"
	"time"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
)

const DATA_TYPE_NAME_STRING = "STR"
const DATA_TYPE_NAME_INT64 = "INT"
const DATA_TYPE_NAME_FLOAT64 = "FLOAT"
const DATA_TYPE_NAME_DATE = "DATE"
const DATA_TYPE_NAME_BYTES = "BYTES"
const DATA_TYPE_NAME_ZIP = "ZIP"
const DATA_TYPE_NAME_STATE = "STATE"
const DATA_TYPE_NAME_STATETERR = "STATETERR"
const DATA_TYPE_NAME_BOOL = "BOOL"

// ParseOptions carries the per-field settings a parse needs.
type ParseOptions struct {
	// RemoveChar is stripped from every non-BYTES value before parsing.
	RemoveChar string
	// Format is only consulted by DATE.
	Format DateFormat
}

// DataType is the value-level contract of one logical type. Parse never
// decides a failure policy; it only reports that the raw value is not of
// the type.
type DataType interface {
	GetName() string
	// Parse coerces a raw file value.
	Parse(raw string, opts ParseOptions) (any, error)
	// ParseText coerces a line of a persisted legal-value table.
	ParseText(s string) (any, error)
	// ParseLiteral type-checks and normalizes a schema literal
	// (bounds, replacements, legal values).
	ParseLiteral(v any) (any, error)
	// Compare orders two normalized values of this type.
	Compare(a, b any) int
	ArrowDataType() arrow.DataType
	// WriteToBatch appends one value, nil meaning null.
	WriteToBatch(batch array.Builder, v any) error
}

// DataTypes maps the accepted type names to their implementation. The long
// names are aliases of the short names used by schema files.
var DataTypes = map[string]DataType{
	"STR":                String{},
	"STRING":             String{},
	"INT":                Int64{},
	"INTEGER":            Int64{},
	"FLOAT":              Float64{},
	"DATE":               Date{},
	"BYTES":              Bytes{},
	"ZIP":                Zip{},
	"STATE":              State{},
	"STATETERR":          StateTerr{},
	"STATE-OR-TERRITORY": StateTerr{},
}

// Lookup returns the type registered under name, case-insensitively.
func Lookup(name string) (DataType, error) {
	tp, ok := DataTypes[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf(
			"field_type must be one of: FLOAT, INT, STR, BYTES, DATE, ZIP, STATE, STATETERR, got %q", name)
	}
	return tp, nil
}

// ForValue picks the type a sink should use for a value whose field is not
// declared in the schema, e.g. one added by a row hook.
func ForValue(v any) DataType {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		return Int64{}
	case float32, float64:
		return Float64{}
	case time.Time:
		return Date{}
	case []byte:
		return Bytes{}
	case bool:
		return Bool{}
	}
	return String{}
}

// IsStringLike reports whether values of tp are Go strings.
func IsStringLike(tp DataType) bool {
	switch tp.(type) {
	case String, Zip, State, StateTerr:
		return true
	}
	return false
}
