package data_types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date format tokens accepted for DATE fields.
const (
	DATE_FORMAT_CCYYMMDD   = "CCYYMMDD"
	DATE_FORMAT_CCYYMM     = "CCYYMM"
	DATE_FORMAT_YYMM       = "YYMM"
	DATE_FORMAT_MMDDCCYY_S = "MM/DD/CCYY"
	DATE_FORMAT_MMDDYY_S   = "MM/DD/YY"
	DATE_FORMAT_MMDDCCYY   = "MMDDCCYY"
	DATE_FORMAT_MMCCYY_S   = "MM/CCYY"
	DATE_FORMAT_CCYYMMDD_S = "CCYY/MM/DD"
)

var dateFormats = []string{
	DATE_FORMAT_CCYYMMDD, DATE_FORMAT_CCYYMM, DATE_FORMAT_YYMM, DATE_FORMAT_MMDDCCYY_S,
	DATE_FORMAT_MMDDYY_S, DATE_FORMAT_MMDDCCYY, DATE_FORMAT_MMCCYY_S, DATE_FORMAT_CCYYMMDD_S,
}

// TwoDigitYearPivot bounds how far into the future a two digit year may
// land before it is read as the previous century.
const TwoDigitYearPivot = 20

// DateModifier moves a parsed date within its month.
type DateModifier byte

const (
	ModifierNone       DateModifier = 0
	ModifierEndOfMonth DateModifier = 'E'
	ModifierStartMonth DateModifier = 'B'
)

// DateFormat is a parsed format token such as "CCYYMMDDE".
type DateFormat struct {
	Token    string
	Modifier DateModifier
}

// ParseDateFormat validates a format token with its optional E/B suffix.
// An empty token selects CCYYMMDD.
func ParseDateFormat(s string) (DateFormat, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return DateFormat{Token: DATE_FORMAT_CCYYMMDD}, nil
	}
	f := DateFormat{Token: s}
	switch s[len(s)-1] {
	case 'E', 'B':
		f.Token = s[:len(s)-1]
		f.Modifier = DateModifier(s[len(s)-1])
	}
	for _, known := range dateFormats {
		if f.Token == known {
			return f, nil
		}
	}
	return DateFormat{}, fmt.Errorf(
		"supported date formats are: %s <E>, <B>, got %q", strings.Join(dateFormats, " "), s)
}

func (f DateFormat) String() string {
	if f.Modifier == ModifierNone {
		return f.Token
	}
	return f.Token + string(f.Modifier)
}

// Parse reads s according to the format and applies the modifier.
// The result is midnight UTC.
func (f DateFormat) Parse(s string) (time.Time, error) {
	var (
		yr, mo, day int
		err         error
	)
	token := f.Token
	if token == "" {
		token = DATE_FORMAT_CCYYMMDD
	}
	switch token {
	case DATE_FORMAT_CCYYMMDD:
		yr, mo, day, err = fixedParts(s, 8, [2]int{0, 4}, [2]int{4, 6}, [2]int{6, 8})
	case DATE_FORMAT_CCYYMM:
		yr, mo, day, err = fixedParts(s, 6, [2]int{0, 4}, [2]int{4, 6}, [2]int{})
	case DATE_FORMAT_YYMM:
		yr, mo, day, err = fixedParts(s, 4, [2]int{0, 2}, [2]int{2, 4}, [2]int{})
		yr = expandYear(yr)
	case DATE_FORMAT_MMDDCCYY:
		yr, mo, day, err = fixedParts(s, 8, [2]int{4, 8}, [2]int{0, 2}, [2]int{2, 4})
	case DATE_FORMAT_MMCCYY_S:
		yr, mo, day, err = fixedParts(s, 7, [2]int{3, 7}, [2]int{0, 2}, [2]int{})
	case DATE_FORMAT_CCYYMMDD_S:
		yr, mo, day, err = fixedParts(s, 10, [2]int{0, 4}, [2]int{5, 7}, [2]int{8, 10})
	case DATE_FORMAT_MMDDCCYY_S, DATE_FORMAT_MMDDYY_S:
		yr, mo, day, err = slashParts(s)
		if err == nil && token == DATE_FORMAT_MMDDYY_S && yr < 100 {
			yr = expandYear(yr)
		}
	default:
		return time.Time{}, fmt.Errorf("unsupported date format %q", f.Token)
	}
	if err != nil {
		return time.Time{}, err
	}
	t, err := MakeDate(yr, mo, day)
	if err != nil {
		return time.Time{}, err
	}
	return f.adjust(t), nil
}

// Format renders t with the format token, ignoring the modifier.
func (f DateFormat) Format(t time.Time) string {
	switch f.Token {
	case DATE_FORMAT_CCYYMM:
		return t.Format("200601")
	case DATE_FORMAT_YYMM:
		return t.Format("0601")
	case DATE_FORMAT_MMDDCCYY_S:
		return t.Format("01/02/2006")
	case DATE_FORMAT_MMDDYY_S:
		return t.Format("01/02/06")
	case DATE_FORMAT_MMDDCCYY:
		return t.Format("01022006")
	case DATE_FORMAT_MMCCYY_S:
		return t.Format("01/2006")
	case DATE_FORMAT_CCYYMMDD_S:
		return t.Format("2006/01/02")
	}
	return t.Format("20060102")
}

func (f DateFormat) adjust(t time.Time) time.Time {
	switch f.Modifier {
	case ModifierEndOfMonth:
		return EndOfMonth(t)
	case ModifierStartMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return t
}

// EndOfMonth returns the last day of t's month: the first of the next
// month minus one day.
func EndOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1)
}

// MakeDate builds a UTC date, rejecting out-of-range months and days
// instead of normalizing them like time.Date does.
func MakeDate(yr, mo, day int) (time.Time, error) {
	if mo < 1 || mo > 12 {
		return time.Time{}, fmt.Errorf("month %d out of range", mo)
	}
	t := time.Date(yr, time.Month(mo), 1, 0, 0, 0, 0, time.UTC)
	if day < 1 || day > EndOfMonth(t).Day() {
		return time.Time{}, fmt.Errorf("day %d out of range for %04d-%02d", day, yr, mo)
	}
	return t.AddDate(0, 0, day-1), nil
}

func expandYear(yy int) int {
	yr := 2000 + yy
	if yr > time.Now().Year()+TwoDigitYearPivot {
		yr -= 100
	}
	return yr
}

// fixedParts extracts year, month and day from fixed character positions.
// An empty day range means day 1.
func fixedParts(s string, size int, y, m, d [2]int) (int, int, int, error) {
	if len(s) < size {
		return 0, 0, 0, fmt.Errorf("date %q shorter than %d characters", s, size)
	}
	yr, err := atoi(s[y[0]:y[1]])
	if err != nil {
		return 0, 0, 0, err
	}
	mo, err := atoi(s[m[0]:m[1]])
	if err != nil {
		return 0, 0, 0, err
	}
	day := 1
	if d[1] > 0 {
		if day, err = atoi(s[d[0]:d[1]]); err != nil {
			return 0, 0, 0, err
		}
	}
	return yr, mo, day, nil
}

func slashParts(s string) (int, int, int, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("date %q is not MM/DD/YY", s)
	}
	var v [3]int
	for i, p := range parts {
		n, err := atoi(p)
		if err != nil {
			return 0, 0, 0, err
		}
		v[i] = n
	}
	return v[2], v[0], v[1], nil
}

func atoi(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
