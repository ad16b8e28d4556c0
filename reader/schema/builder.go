package schema

import (
	"log/slog"
	"strings"

	"github.com/go-faster/errors"

	"github.com/metrico/datareader/model"
	"github.com/metrico/datareader/reader/data_types"
	"github.com/metrico/datareader/reader/shared"
)

// Builder assembles a Schema one field at a time. Every check happens in
// AddField, so a bad definition is reported before any file is opened.
type Builder struct {
	tablesDir string
	logger    *slog.Logger

	fields      []*Field
	index       map[string]int
	fixedFields int
}

type Option func(*Builder)

// WithTablesDir sets where zips.dat is looked up.
func WithTablesDir(dir string) Option {
	return func(b *Builder) {
		b.tablesDir = dir
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		logger: slog.Default(),
		index:  map[string]int{},
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// AddField validates def and appends it. A rejected field leaves the
// builder unchanged.
func (b *Builder) AddField(def FieldDef) error {
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return shared.NewConfigError("", errors.New("field name is required"))
	}
	if _, ok := b.index[name]; ok {
		return shared.NewConfigError(name, errors.New("duplicate field name"))
	}
	fail := func(err error) error {
		return shared.NewConfigError(name, err)
	}

	action, err := shared.ParseAction(def.Action)
	if err != nil {
		return fail(errors.Unwrap(err))
	}
	tp, err := data_types.Lookup(def.Type)
	if err != nil {
		return fail(err)
	}
	f := &Field{Name: name, Type: tp, Action: action}

	isDate := tp.GetName() == data_types.DATA_TYPE_NAME_DATE
	if def.Format != "" && !isDate {
		return fail(errors.New("only DATE field_type supports format"))
	}
	if isDate {
		if f.Format, err = data_types.ParseDateFormat(def.Format); err != nil {
			return fail(err)
		}
	}

	if err := b.setPosition(f, def); err != nil {
		return fail(err)
	}

	for _, l := range []struct {
		name string
		in   any
		out  *any
	}{
		{"min", def.Min, &f.Min},
		{"max", def.Max, &f.Max},
		{"min_replacement", def.MinReplacement, &f.MinReplacement},
		{"max_replacement", def.MaxReplacement, &f.MaxReplacement},
		{"illegal_replacement", def.IllegalReplacement, &f.IllegalReplacement},
	} {
		if l.in == nil {
			continue
		}
		if *l.out, err = tp.ParseLiteral(l.in); err != nil {
			return fail(errors.Wrapf(err, "%s is not the right type", l.name))
		}
	}
	if f.Min != nil && f.Max != nil && tp.Compare(f.Min, f.Max) > 0 {
		return fail(errors.Errorf("min %v is greater than max %v", f.Min, f.Max))
	}

	if err := b.setLegalValues(f, def); err != nil {
		return err
	}

	if action != shared.ActionFix {
		b.dropReplacements(f)
	}

	b.index[name] = len(b.fields)
	b.fields = append(b.fields, f)
	if f.Width > 0 {
		b.fixedFields++
	}
	return nil
}

func (b *Builder) setPosition(f *Field, def FieldDef) error {
	switch {
	case def.Start == nil && def.Width == nil:
	case def.Start == nil:
		return errors.New("start is missing but width is set")
	case def.Width == nil:
		return errors.New("width is missing but start is set")
	case *def.Start < 1:
		return errors.New("start must be positive")
	case *def.Width < 1:
		return errors.New("width must be positive")
	default:
		f.Start, f.Width = *def.Start, *def.Width
	}
	fixed := b.fixedFields
	if f.Width > 0 {
		fixed++
	}
	if fixed > 0 && fixed != len(b.fields)+1 {
		return errors.New("either no field may have start/width or all must have it")
	}
	return nil
}

func (b *Builder) setLegalValues(f *Field, def FieldDef) error {
	builtin, err := BuiltinTable(f.Type, b.tablesDir)
	if err != nil {
		return shared.NewConfigError(f.Name, err)
	}
	switch {
	case builtin != nil:
		if def.LegalValues != nil || def.LegalValuesFile != "" {
			b.logger.Debug("built-in table replaces legal values", "field", f.Name, "type", f.Type.GetName())
		}
		f.Legal = builtin
	case def.LegalValues != nil && def.LegalValuesFile != "":
		return shared.NewConfigError(f.Name, errors.New("legal_values and legal_values_file are exclusive"))
	case def.LegalValues != nil:
		if f.Legal, err = NewLegalValues(f.Type, def.LegalValues); err != nil {
			return shared.NewConfigError(f.Name, err)
		}
	case def.LegalValuesFile != "":
		if f.Legal, err = LoadLegalValuesFile(f.Type, def.LegalValuesFile); err != nil {
			var e *shared.Error
			if errors.As(err, &e) {
				return err
			}
			return shared.NewConfigError(f.Name, err)
		}
	}
	return nil
}

// dropReplacements clears replacement values that FATAL and DROP never use.
func (b *Builder) dropReplacements(f *Field) {
	for _, r := range []struct {
		name string
		v    *any
	}{
		{"min_replacement", &f.MinReplacement},
		{"max_replacement", &f.MaxReplacement},
		{"illegal_replacement", &f.IllegalReplacement},
	} {
		if *r.v != nil {
			b.logger.Warn("replacement value will not be used",
				"field", f.Name, "replacement", r.name, "action", f.Action.String())
			*r.v = nil
		}
	}
}

// Build returns the schema. The builder can keep adding fields afterwards
// without affecting schemas already built.
func (b *Builder) Build() (*Schema, error) {
	if len(b.fields) == 0 {
		return nil, shared.NewConfigError("", errors.New("schema has no fields"))
	}
	s := &Schema{
		fields: make([]*Field, len(b.fields)),
		index:  make(map[string]int, len(b.index)),
	}
	copy(s.fields, b.fields)
	for k, v := range b.index {
		s.index[k] = v
	}
	return s, nil
}

// FromFile builds a schema from its on-disk form.
func FromFile(file *model.SchemaFile, opts ...Option) (*Schema, error) {
	b := NewBuilder(append([]Option{WithTablesDir(file.TablesDir)}, opts...)...)
	for _, def := range file.Fields {
		if err := b.AddField(def); err != nil {
			return nil, err
		}
	}
	return b.Build()
}
