package shared

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"
)

// ErrorKind classifies every error the engine reports.
type ErrorKind int

const (
	KindConfiguration ErrorKind = iota
	KindResource
	KindTypeCoercion
	KindRange
	KindMembership
	KindStructural
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrResource      = errors.New("resource error")
	ErrTypeCoercion  = errors.New("type conversion error")
	ErrRange         = errors.New("range violation")
	ErrMembership    = errors.New("membership violation")
	ErrStructural    = errors.New("structural error")

	// ErrZipFormat is returned for zip codes that are not 5 digits after padding.
	// It is never subject to the field's failure policy.
	ErrZipFormat = errors.New("zip has non-numeric values")
)

var kindSentinels = map[ErrorKind]error{
	KindConfiguration: ErrConfiguration,
	KindResource:      ErrResource,
	KindTypeCoercion:  ErrTypeCoercion,
	KindRange:         ErrRange,
	KindMembership:    ErrMembership,
	KindStructural:    ErrStructural,
}

func (k ErrorKind) String() string {
	return kindSentinels[k].Error()
}

// Error carries enough context to diagnose a failure without re-running:
// the field, the raw value and what was expected of it.
type Error struct {
	Kind     ErrorKind
	Field    string
	Value    string
	Expected string
	Row      int64
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Field != "" {
		fmt.Fprintf(&b, ". Field: %s", e.Field)
	}
	if e.Row > 0 {
		fmt.Fprintf(&b, ", Row: %d", e.Row)
	}
	if e.Kind != KindConfiguration && e.Kind != KindResource {
		fmt.Fprintf(&b, ", Value: %q", e.Value)
	}
	if e.Expected != "" {
		fmt.Fprintf(&b, ", expected %s", e.Expected)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels, so errors.Is(err, ErrRange) works through wrapping.
func (e *Error) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

func NewConfigError(field string, err error) *Error {
	return &Error{Kind: KindConfiguration, Field: field, Err: err}
}

func NewResourceError(path string, err error) *Error {
	return &Error{Kind: KindResource, Expected: "readable file " + path, Err: err}
}

func NewStructuralError(field string, value string, expected string) *Error {
	return &Error{Kind: KindStructural, Field: field, Value: value, Expected: expected}
}
