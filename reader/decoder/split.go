package decoder

import (
	"bytes"
	"encoding/csv"
	"unicode/utf8"

	"github.com/go-faster/errors"
)

// SplitLine splits one delimited line. With a quote character the line is
// read as a single CSV record, so delimiters inside quotes are kept and
// doubled quotes are unescaped. The quote character can only be '"'.
func SplitLine(line []byte, delimiter string, quote string) ([][]byte, error) {
	if quote == "" {
		return bytes.Split(line, []byte(delimiter)), nil
	}
	comma, err := csvComma(delimiter, quote)
	if err != nil {
		return nil, err
	}
	r := csv.NewReader(bytes.NewReader(line))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rec, err := r.Read()
	if err != nil {
		return nil, errors.Wrap(err, "split quoted line")
	}
	res := make([][]byte, len(rec))
	for i, v := range rec {
		res[i] = []byte(v)
	}
	return res, nil
}

func csvComma(delimiter, quote string) (rune, error) {
	if quote != `"` {
		return 0, errors.Errorf(`quote_char must be '"', got %q`, quote)
	}
	comma, size := utf8.DecodeRuneInString(delimiter)
	if size == 0 || size != len(delimiter) || comma == '"' || comma == '\n' || comma == '\r' {
		return 0, errors.Errorf("quoted input needs a single character delimiter, got %q", delimiter)
	}
	return comma, nil
}

// trimEOL drops the line terminator the reader hands over with each line.
func trimEOL(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte{'\n'})
	return bytes.TrimSuffix(line, []byte{'\r'})
}
