package data_types

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
)

// Date values are time.Time at midnight UTC.
type Date struct{}

const minLiteralYear, maxLiteralYear = 1900, 2200

var dateLiteral = regexp.MustCompile(`^date\(\s*(\d+)\s*,\s*(\d+)\s*,\s*(\d+)\s*\)$`)

func (d Date) GetName() string {
	return DATA_TYPE_NAME_DATE
}

func (d Date) Parse(raw string, opts ParseOptions) (any, error) {
	return opts.Format.Parse(trimValue(removeChar(raw, opts.RemoveChar)))
}

// ParseText reads persisted values, which are always CCYY-MM-DD.
func (d Date) ParseText(s string) (any, error) {
	t, err := time.Parse(time.DateOnly, trimValue(s))
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ParseLiteral accepts a time.Time or a string of the form
// "date(y, m, d)" or "CCYY-MM-DD".
func (d Date) ParseLiteral(v any) (any, error) {
	switch _v := v.(type) {
	case time.Time:
		return time.Date(_v.Year(), _v.Month(), _v.Day(), 0, 0, 0, 0, time.UTC), nil
	case string:
		return parseDateLiteral(_v)
	}
	return nil, fmt.Errorf("%v is not %s", v, d.GetName())
}

func parseDateLiteral(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var parts []string
	if m := dateLiteral.FindStringSubmatch(s); m != nil {
		parts = m[1:]
	} else {
		parts = strings.Split(s, "-")
	}
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("dates must be date(y, m, d) or CCYY-MM-DD, got %q", s)
	}
	var n [3]int
	for i, p := range parts {
		x, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, fmt.Errorf("dates must be date(y, m, d) or CCYY-MM-DD, got %q", s)
		}
		n[i] = x
	}
	if n[0] < minLiteralYear || n[0] > maxLiteralYear {
		return time.Time{}, fmt.Errorf("year %d outside %d..%d", n[0], minLiteralYear, maxLiteralYear)
	}
	return MakeDate(n[0], n[1], n[2])
}

func (d Date) Compare(a, b any) int {
	return a.(time.Time).Compare(b.(time.Time))
}

func (d Date) ArrowDataType() arrow.DataType {
	return arrow.FixedWidthTypes.Date32
}

func (d Date) WriteToBatch(batch array.Builder, v any) error {
	_batch := batch.(*array.Date32Builder)
	if v == nil {
		_batch.AppendNull()
		return nil
	}
	t, ok := v.(time.Time)
	if !ok {
		return fmt.Errorf("invalid data type %T", v)
	}
	_batch.Append(arrow.Date32FromTime(t))
	return nil
}

// YMD is the [year, month, day] triple used where a format has no date type.
func YMD(t time.Time) []int64 {
	return []int64{int64(t.Year()), int64(t.Month()), int64(t.Day())}
}
