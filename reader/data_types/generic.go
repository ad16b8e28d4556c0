package data_types

import (
	"cmp"
	"fmt"
	"strings"

	"golang.org/x/exp/constraints"
)

type generic[T constraints.Ordered] struct{}

func (g generic[T]) Compare(a, b any) int {
	return cmp.Compare(a.(T), b.(T))
}

func (g generic[T]) WriteToBatch(appendVal func(T), appendNull func(), v any) error {
	if v == nil {
		appendNull()
		return nil
	}
	_v, ok := v.(T)
	if !ok {
		return fmt.Errorf("invalid data type %T", v)
	}
	appendVal(_v)
	return nil
}

// trimValue strips what a line-oriented file leaves around a value.
func trimValue(s string) string {
	return strings.Trim(s, " \t\r\n")
}

func removeChar(s, c string) string {
	if c == "" {
		return s
	}
	return strings.ReplaceAll(s, c, "")
}

func toInt64(v any) (int64, bool) {
	switch _v := v.(type) {
	case int:
		return int64(_v), true
	case int8:
		return int64(_v), true
	case int16:
		return int64(_v), true
	case int32:
		return int64(_v), true
	case int64:
		return _v, true
	case uint8:
		return int64(_v), true
	case uint16:
		return int64(_v), true
	case uint32:
		return int64(_v), true
	}
	return 0, false
}
