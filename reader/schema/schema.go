package schema

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/metrico/datareader/model"
	"github.com/metrico/datareader/reader/data_types"
	"github.com/metrico/datareader/reader/shared"
)

type FieldDef = model.FieldDef

// Field is one validated column definition. It is never modified after
// Build returns.
type Field struct {
	Name   string
	Type   data_types.DataType
	Format data_types.DateFormat
	// Start is 1-based; Start and Width are 0 for delimited schemas.
	Start  int
	Width  int
	Action shared.Action

	Min            any
	Max            any
	MinReplacement any
	MaxReplacement any

	Legal              LegalValues
	IllegalReplacement any
}

// Schema is an ordered, immutable list of fields safe for concurrent use.
type Schema struct {
	fields []*Field
	index  map[string]int
}

func (s *Schema) Fields() []*Field {
	return s.fields
}

func (s *Schema) Len() int {
	return len(s.fields)
}

func (s *Schema) Field(name string) (*Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.fields[i], true
}

func (s *Schema) Names() []string {
	res := make([]string, len(s.fields))
	for i, f := range s.fields {
		res[i] = f.Name
	}
	return res
}

// FixedWidth reports whether fields carry start and width.
func (s *Schema) FixedWidth() bool {
	return len(s.fields) > 0 && s.fields[0].Width > 0
}

// RecordLength is the last column covered by any field of a fixed-width
// schema.
func (s *Schema) RecordLength() int {
	res := 0
	for _, f := range s.fields {
		res = max(res, f.Start+f.Width-1)
	}
	return res
}

// Describe writes a summary of the named fields, or of all fields when no
// names are given.
func (s *Schema) Describe(w io.Writer, names ...string) error {
	fields := s.fields
	if len(names) > 0 {
		fields = make([]*Field, 0, len(names))
		for _, name := range names {
			f, ok := s.Field(name)
			if !ok {
				return shared.NewConfigError(name, fmt.Errorf("no such field"))
			}
			fields = append(fields, f)
		}
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTYPE\tFORMAT\tSTART\tWIDTH\tACTION\tMIN\tMAX\tLEGAL")
	for _, f := range fields {
		format := ""
		if f.Type.GetName() == data_types.DATA_TYPE_NAME_DATE {
			format = f.Format.String()
		}
		legal := "-"
		if f.Legal != nil {
			legal = fmt.Sprintf("%d values", f.Legal.Len())
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			f.Name, f.Type.GetName(), orDash(format), position(f.Start), position(f.Width), f.Action,
			literal(f.Min, f.MinReplacement), literal(f.Max, f.MaxReplacement), legal)
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func position(v int) string {
	if v == 0 {
		return "-"
	}
	return fmt.Sprint(v)
}

func literal(bound, replacement any) string {
	if bound == nil {
		return "-"
	}
	if replacement == nil {
		return fmt.Sprint(dateOnly(bound))
	}
	return fmt.Sprintf("%v (fix %v)", dateOnly(bound), dateOnly(replacement))
}
