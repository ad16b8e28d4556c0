package model

// FieldDef declares one column of a schema. Literal values (bounds,
// replacements, legal values) are untyped here and checked against Type
// when the schema is built.
type FieldDef struct {
	Name   string `yaml:"name" json:"name"`
	Type   string `yaml:"type" json:"type"`
	Format string `yaml:"format" json:"format"`
	// Start is 1-based. Start and Width are set on every field of a
	// fixed-width schema and on none of a delimited one.
	Start  *int   `yaml:"start" json:"start"`
	Width  *int   `yaml:"width" json:"width"`
	Action string `yaml:"action" json:"action"`

	Min            any `yaml:"min" json:"min"`
	Max            any `yaml:"max" json:"max"`
	MinReplacement any `yaml:"min_replacement" json:"min_replacement"`
	MaxReplacement any `yaml:"max_replacement" json:"max_replacement"`

	LegalValues        any    `yaml:"legal_values" json:"legal_values"`
	LegalValuesFile    string `yaml:"legal_values_file" json:"legal_values_file"`
	IllegalReplacement any    `yaml:"illegal_replacement" json:"illegal_replacement"`
}

// SchemaFile is the on-disk form of a schema.
type SchemaFile struct {
	// TablesDir holds optional built-in tables that are not compiled in
	// (zips.dat).
	TablesDir string     `yaml:"tables_dir" json:"tables_dir"`
	Fields    []FieldDef `yaml:"fields" json:"fields"`
}

// IntPtr is a helper for literal FieldDefs.
func IntPtr(v int) *int {
	return &v
}
