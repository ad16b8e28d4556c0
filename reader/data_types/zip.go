package data_types

import (
	"strings"

	"github.com/metrico/datareader/reader/shared"
)

// Zip is a 5 digit US zip code kept as a string.
type Zip struct {
	String
}

func (z Zip) GetName() string {
	return DATA_TYPE_NAME_ZIP
}

// Parse pads 3 and 4 digit input with leading zeros. A value that is not
// 5 digits afterwards fails with shared.ErrZipFormat, which callers treat
// as fatal regardless of the field's action.
func (z Zip) Parse(raw string, opts ParseOptions) (any, error) {
	return NormalizeZip(removeChar(trimValue(raw), opts.RemoveChar))
}

func (z Zip) ParseText(s string) (any, error) {
	return NormalizeZip(trimValue(s))
}

func NormalizeZip(s string) (string, error) {
	switch len(s) {
	case 3:
		s = "00" + s
	case 4:
		s = "0" + s
	}
	if len(s) != 5 || strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return "", shared.ErrZipFormat
	}
	return s, nil
}
