package schema

import (
	"bufio"
	"os"
	"reflect"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"golang.org/x/exp/constraints"

	"github.com/metrico/datareader/reader/data_types"
	"github.com/metrico/datareader/reader/shared"
)

// LegalValues is a sorted, read-only set of permitted values.
type LegalValues interface {
	Contains(v any) bool
	Len() int
	Values() []any
}

type orderedValues[T constraints.Ordered] struct {
	values []T
}

func newOrderedValues[T constraints.Ordered](values []any) *orderedValues[T] {
	res := &orderedValues[T]{values: make([]T, len(values))}
	for i, v := range values {
		res.values[i] = v.(T)
	}
	slices.Sort(res.values)
	res.values = slices.Compact(res.values)
	return res
}

func (o *orderedValues[T]) Contains(v any) bool {
	_v, ok := v.(T)
	if !ok {
		return false
	}
	_, found := slices.BinarySearch(o.values, _v)
	return found
}

func (o *orderedValues[T]) Len() int {
	return len(o.values)
}

func (o *orderedValues[T]) Values() []any {
	res := make([]any, len(o.values))
	for i, v := range o.values {
		res[i] = v
	}
	return res
}

// comparedValues serves the types that are not constraints.Ordered
// (dates, bytes) through the type's own comparison.
type comparedValues struct {
	tp     data_types.DataType
	values []any
}

func (c *comparedValues) Contains(v any) bool {
	if v == nil {
		return false
	}
	i := sort.Search(len(c.values), func(i int) bool {
		return c.tp.Compare(c.values[i], v) >= 0
	})
	return i < len(c.values) && c.tp.Compare(c.values[i], v) == 0
}

func (c *comparedValues) Len() int {
	return len(c.values)
}

func (c *comparedValues) Values() []any {
	return slices.Clone(c.values)
}

// NewLegalValues builds a set for tp from a slice or array of literals, or
// returns values unchanged when it already is a LegalValues. Every literal
// is type checked and normalized before sorting.
func NewLegalValues(tp data_types.DataType, values any) (LegalValues, error) {
	if lv, ok := values.(LegalValues); ok {
		return lv, nil
	}
	rv := reflect.ValueOf(values)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, errors.Errorf("legal values must be a list, got %T", values)
	}
	parsed := make([]any, rv.Len())
	for i := range parsed {
		v, err := tp.ParseLiteral(rv.Index(i).Interface())
		if err != nil {
			return nil, errors.Wrapf(err, "legal values not correct type at index %d", i)
		}
		parsed[i] = v
	}
	return fromParsed(tp, parsed), nil
}

func fromParsed(tp data_types.DataType, parsed []any) LegalValues {
	if data_types.IsStringLike(tp) {
		return newOrderedValues[string](parsed)
	}
	switch tp.(type) {
	case data_types.Int64:
		return newOrderedValues[int64](parsed)
	case data_types.Float64:
		return newOrderedValues[float64](parsed)
	}
	slices.SortFunc(parsed, tp.Compare)
	return &comparedValues{tp: tp, values: parsed}
}

// LoadLegalValuesFile reads one value per line. Blank lines are skipped,
// the file does not need to be sorted. DATE lines are CCYY-MM-DD.
func LoadLegalValuesFile(tp data_types.DataType, path string) (LegalValues, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, shared.NewResourceError(path, err)
	}
	defer f.Close()
	return readLegalValues(tp, path, bufio.NewScanner(f))
}

func readLegalValues(tp data_types.DataType, name string, scanner *bufio.Scanner) (LegalValues, error) {
	var (
		parsed []any
		line   int
	)
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		v, err := tp.ParseText(text)
		if err != nil {
			return nil, errors.Wrapf(err, "%s:%d", name, line)
		}
		parsed = append(parsed, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, shared.NewResourceError(name, err)
	}
	return fromParsed(tp, parsed), nil
}

// dateOnly renders set members for Describe.
func dateOnly(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.Format(time.DateOnly)
	}
	return v
}
