package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"

	"github.com/metrico/datareader/reader/shared"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Delimiter != "," || cfg.SampleRate != 1 || cfg.Workers != 1 || cfg.OutputKind != "COLLECT" {
		t.Fatalf("defaults %+v", cfg)
	}
	if cfg.Log.Level != "info" || cfg.Upload.Region != "us-east-1" {
		t.Fatalf("nested defaults %+v %+v", cfg.Log, cfg.Upload)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "run.yaml", `
source_path: /data/in.csv
has_header: true
workers: 4
output_kind: delimited_file
output_path: /data/out/res.csv
split_rows: 5000
partition_field: state
filter: value > 0
lookups:
  - file: /data/zipcbsa.dat
    key: zip
    columns: [cbsa_code, state, level, cbsa_name]
    matched: zip_ok
upload:
  enabled: true
  url: localhost:9000
  bucket: exports
`)
	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SourcePath != "/data/in.csv" || !cfg.HasHeader || cfg.Workers != 4 || cfg.SplitRows != 5000 {
		t.Fatalf("config %+v", cfg)
	}
	if len(cfg.Lookups) != 1 || cfg.Lookups[0].Key != "zip" || len(cfg.Lookups[0].Columns) != 4 {
		t.Fatalf("lookups %+v", cfg.Lookups)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if opts := cfg.SinkOptions(); opts.Kind != "DELIMITED_FILE" || opts.PartitionField != "state" {
		t.Fatalf("sink options %+v", opts)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("DATAREADER_WORKERS", "7")
	t.Setenv("DATAREADER_LOG_LEVEL", "debug")
	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Workers != 7 || cfg.Log.Level != "debug" {
		t.Fatalf("workers %d, level %s", cfg.Workers, cfg.Log.Level)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Configuration {
		cfg, _ := Load(viper.New(), "")
		cfg.SourcePath = "in.csv"
		return cfg
	}
	tests := []struct {
		name   string
		modify func(c *Configuration)
	}{
		{"no source", func(c *Configuration) { c.SourcePath = "" }},
		{"sample rate zero", func(c *Configuration) { c.SampleRate = 0 }},
		{"sample rate above one", func(c *Configuration) { c.SampleRate = 1.5 }},
		{"rows reversed", func(c *Configuration) { c.FirstRow, c.LastRow = 10, 5 }},
		{"bytes reversed", func(c *Configuration) { c.StartByte, c.EndByte = 10, 5 }},
		{"unknown layout", func(c *Configuration) { c.Layout = "json" }},
		{"too many workers", func(c *Configuration) { c.Workers = 27 }},
		{"no workers", func(c *Configuration) { c.Workers = 0 }},
		{"unknown kind", func(c *Configuration) { c.OutputKind = "xml" }},
		{"file kind without path", func(c *Configuration) { c.OutputKind = "BINARY_RECORDS" }},
		{"partition on parquet", func(c *Configuration) {
			c.OutputKind, c.OutputPath, c.PartitionField = "BINARY_RECORDS", "o.parquet", "state"
		}},
		{"upload in memory", func(c *Configuration) {
			c.Upload.Enabled, c.Upload.URL, c.Upload.Bucket = true, "localhost:9000", "b"
		}},
	}
	if err := valid().Validate(); err != nil {
		t.Fatal(err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.modify(c)
			err := c.Validate()
			if !errors.Is(err, shared.ErrConfiguration) {
				t.Fatalf("got %v", err)
			}
		})
	}
}

func TestLoadSchema(t *testing.T) {
	path := writeFile(t, "schema.yaml", `
tables_dir: /opt/tables
fields:
  - name: value
    type: FLOAT
    action: FIX
    min: -2
    max: 2
  - name: day
    type: DATE
    format: CCYYMMDD
    min: date(2000,1,1)
  - name: state
    type: STATE
    action: DROP
`)
	sf, err := LoadSchema(path)
	if err != nil {
		t.Fatal(err)
	}
	if sf.TablesDir != "/opt/tables" || len(sf.Fields) != 3 {
		t.Fatalf("schema %+v", sf)
	}
	if sf.Fields[0].Min != -2 || sf.Fields[1].Min != "date(2000,1,1)" {
		t.Fatalf("literals %#v %#v", sf.Fields[0].Min, sf.Fields[1].Min)
	}

	if _, err := LoadSchema(writeFile(t, "empty.yaml", "tables_dir: x\n")); !errors.Is(err, shared.ErrConfiguration) {
		t.Fatalf("empty schema: %v", err)
	}
	if _, err := LoadSchema(filepath.Join(t.TempDir(), "none.yaml")); !errors.Is(err, shared.ErrResource) {
		t.Fatalf("missing schema: %v", err)
	}
}
