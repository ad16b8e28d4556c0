package decoder

import (
	"strings"

	"github.com/go-faster/errors"

	"github.com/metrico/datareader/reader/data_types"
	"github.com/metrico/datareader/reader/schema"
	"github.com/metrico/datareader/reader/shared"
)

type Options struct {
	// Delimiter separates DELIM columns. Defaults to ",".
	Delimiter string
	// QuoteChar enables quote-aware splitting.
	QuoteChar string
	// RemoveChar is stripped from every non-BYTES value.
	RemoveChar string
}

// Decoder turns raw lines into records. It holds per-chunk scratch state
// (the header mapping) and must not be shared between workers.
type Decoder struct {
	schema  *schema.Schema
	opts    Options
	fields  []*schema.Field
	parse   []data_types.ParseOptions
	columns []int
	// header is set once SetHeader has mapped columns by name.
	header bool
	width  int
}

func New(s *schema.Schema, opts Options) (*Decoder, error) {
	if opts.Delimiter == "" {
		opts.Delimiter = ","
	}
	if opts.QuoteChar != "" {
		if _, err := csvComma(opts.Delimiter, opts.QuoteChar); err != nil {
			return nil, shared.NewConfigError("", err)
		}
	}
	d := &Decoder{
		schema:  s,
		opts:    opts,
		fields:  s.Fields(),
		parse:   make([]data_types.ParseOptions, s.Len()),
		columns: make([]int, s.Len()),
		width:   s.Len(),
	}
	for i, f := range d.fields {
		d.parse[i] = data_types.ParseOptions{RemoveChar: opts.RemoveChar, Format: f.Format}
		d.columns[i] = i
	}
	return d, nil
}

func (d *Decoder) Schema() *schema.Schema {
	return d.schema
}

// SetHeader maps schema fields to the columns of a header line. Columns
// the schema does not name are ignored; a schema field missing from the
// header is a structural error.
func (d *Decoder) SetHeader(line []byte) error {
	tokens, err := SplitLine(trimEOL(line), d.opts.Delimiter, d.opts.QuoteChar)
	if err != nil {
		return shared.NewStructuralError("", string(line), "a header line")
	}
	index := make(map[string]int, len(tokens))
	for i, tok := range tokens {
		name := strings.Trim(string(tok), " \t\"")
		if _, ok := index[name]; !ok {
			index[name] = i
		}
	}
	width := 0
	for i, f := range d.fields {
		col, ok := index[f.Name]
		if !ok {
			return shared.NewStructuralError(f.Name, strings.TrimSpace(string(line)), "a header column "+f.Name)
		}
		d.columns[i] = col
		width = max(width, col+1)
	}
	d.width = width
	d.header = true
	return nil
}

// Split cuts a line into raw column values: fixed column ranges for
// fixed-width schemas, delimiter split otherwise.
func (d *Decoder) Split(line []byte) ([][]byte, error) {
	line = trimEOL(line)
	if d.schema.FixedWidth() {
		res := make([][]byte, len(d.fields))
		for i, f := range d.fields {
			start := min(f.Start-1, len(line))
			end := min(start+f.Width, len(line))
			res[i] = line[start:end]
		}
		return res, nil
	}
	return SplitLine(line, d.opts.Delimiter, d.opts.QuoteChar)
}

// DecodeLine is Split followed by Decode.
func (d *Decoder) DecodeLine(line []byte) (*shared.Record, bool, error) {
	fields, err := d.Split(line)
	if err != nil {
		return nil, false, shared.NewStructuralError("", string(trimEOL(line)), "a delimited line")
	}
	return d.Decode(fields)
}

// Decode validates raw column values field by field in schema order.
// DROP and FIX outcomes are resolved here and only show in the returned
// keep flag and values; the error is non-nil only for FATAL outcomes,
// malformed zip codes and structural mismatches.
func (d *Decoder) Decode(fields [][]byte) (*shared.Record, bool, error) {
	if err := d.checkWidth(fields); err != nil {
		return nil, false, err
	}
	rec := shared.NewRecord(len(d.fields))
	keep := true
	for i, f := range d.fields {
		raw := fields[d.columns[i]]
		v, err := f.Type.Parse(string(raw), d.parse[i])
		if err != nil {
			if errors.Is(err, shared.ErrZipFormat) {
				return nil, false, &shared.Error{
					Kind: shared.KindTypeCoercion, Field: f.Name, Value: string(raw),
					Expected: "a 5 digit zip", Err: err,
				}
			}
			if v, err = d.violation(f, &keep, shared.KindTypeCoercion, raw, f.Type.GetName(), f.IllegalReplacement, err); err != nil {
				return nil, false, err
			}
		}
		if v != nil && f.Min != nil && f.Type.Compare(v, f.Min) < 0 {
			if v, err = d.violation(f, &keep, shared.KindRange, raw, bound(">=", f.Min), f.MinReplacement, nil); err != nil {
				return nil, false, err
			}
		}
		if v != nil && f.Max != nil && f.Type.Compare(v, f.Max) > 0 {
			if v, err = d.violation(f, &keep, shared.KindRange, raw, bound("<=", f.Max), f.MaxReplacement, nil); err != nil {
				return nil, false, err
			}
		}
		if v != nil && f.Legal != nil && !f.Legal.Contains(v) {
			if v, err = d.violation(f, &keep, shared.KindMembership, raw, "a legal value", f.IllegalReplacement, nil); err != nil {
				return nil, false, err
			}
		}
		rec.Set(f.Name, v)
	}
	return rec, keep, nil
}

func (d *Decoder) checkWidth(fields [][]byte) error {
	if d.schema.FixedWidth() {
		return nil
	}
	if len(fields) < d.width {
		return shared.NewStructuralError("", joinRaw(fields, d.opts.Delimiter),
			fmtColumns(d.width, "at least"))
	}
	if !d.header && len(fields) > d.width {
		return shared.NewStructuralError("", joinRaw(fields, d.opts.Delimiter),
			fmtColumns(d.width, "exactly"))
	}
	return nil
}

// violation applies the field's action to a failed check.
func (d *Decoder) violation(f *schema.Field, keep *bool, kind shared.ErrorKind, raw []byte,
	expected string, replacement any, cause error) (any, error) {
	switch f.Action {
	case shared.ActionFatal:
		return nil, &shared.Error{Kind: kind, Field: f.Name, Value: string(raw), Expected: expected, Err: cause}
	case shared.ActionDrop:
		*keep = false
		return nil, nil
	}
	return replacement, nil
}
