package config

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/spf13/viper"

	"github.com/metrico/datareader/reader/hooks"
	"github.com/metrico/datareader/reader/shared"
	"github.com/metrico/datareader/reader/sink"
	"github.com/metrico/datareader/reader/source"
)

// MaxWorkers is bounded by the a..z suffix given to per-worker output files.
const MaxWorkers = 26

type UploadConfiguration struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled" default:"false"`
	URL     string `json:"url" mapstructure:"url" default:""`
	Key     string `json:"key" mapstructure:"key" default:""`
	Secret  string `json:"secret" mapstructure:"secret" default:""`
	Bucket  string `json:"bucket" mapstructure:"bucket" default:""`
	Region  string `json:"region" mapstructure:"region" default:"us-east-1"`
	Path    string `json:"path" mapstructure:"path" default:""`
	Secure  bool   `json:"secure" mapstructure:"secure" default:"true"`
}

type LogConfiguration struct {
	Level  string `json:"level" mapstructure:"level" default:"info"`
	Format string `json:"format" mapstructure:"format" default:"text"`
}

type Configuration struct {
	Schema    string `json:"schema" mapstructure:"schema" default:""`
	TablesDir string `json:"tables_dir" mapstructure:"tables_dir" default:""`

	SourcePath   string `json:"source_path" mapstructure:"source_path" default:""`
	Layout       string `json:"layout" mapstructure:"layout" default:""`
	Delimiter    string `json:"delimiter" mapstructure:"delimiter" default:","`
	QuoteChar    string `json:"quote_char" mapstructure:"quote_char" default:""`
	RemoveChar   string `json:"remove_char" mapstructure:"remove_char" default:""`
	RecordLength int    `json:"record_length" mapstructure:"record_length" default:"0"`
	HasHeader    bool   `json:"has_header" mapstructure:"has_header" default:"false"`
	StartByte    int64  `json:"start_byte" mapstructure:"start_byte" default:"0"`
	EndByte      int64  `json:"end_byte" mapstructure:"end_byte" default:"0"`

	SampleRate       float64 `json:"sample_rate" mapstructure:"sample_rate" default:"1"`
	Seed             uint64  `json:"seed" mapstructure:"seed" default:"0"`
	FirstRow         int64   `json:"first_row" mapstructure:"first_row" default:"0"`
	LastRow          int64   `json:"last_row" mapstructure:"last_row" default:"0"`
	RemapWindowBytes int64   `json:"remap_window_bytes" mapstructure:"remap_window_bytes" default:"0"`

	OutputKind      string `json:"output_kind" mapstructure:"output_kind" default:"COLLECT"`
	OutputPath      string `json:"output_path" mapstructure:"output_path" default:""`
	OutputDelimiter string `json:"output_delimiter" mapstructure:"output_delimiter" default:","`
	OutputHeader    bool   `json:"output_header" mapstructure:"output_header" default:"false"`
	SplitRows       int    `json:"split_rows" mapstructure:"split_rows" default:"0"`
	PartitionField  string `json:"partition_field" mapstructure:"partition_field" default:""`
	CompressOnClose bool   `json:"compress_on_close" mapstructure:"compress_on_close" default:"false"`

	Workers int                  `json:"workers" mapstructure:"workers" default:"1"`
	Filter  string               `json:"filter" mapstructure:"filter" default:""`
	Lookups []hooks.LookupConfig `json:"lookups" mapstructure:"lookups"`

	Upload UploadConfiguration `json:"upload" mapstructure:"upload"`
	Log    LogConfiguration    `json:"log" mapstructure:"log"`
}

var Config *Configuration

func setDefaults(v *viper.Viper) {
	v.SetDefault("delimiter", ",")
	v.SetDefault("sample_rate", 1.0)
	v.SetDefault("output_kind", string(sink.KIND_COLLECT))
	v.SetDefault("output_delimiter", ",")
	v.SetDefault("workers", 1)
	v.SetDefault("upload.region", "us-east-1")
	v.SetDefault("upload.secure", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// InitConfig loads the run configuration into Config from file (optional),
// DATAREADER_* environment variables and the flags bound to viper.
func InitConfig(file string) error {
	cfg, err := Load(viper.GetViper(), file)
	if err != nil {
		return err
	}
	Config = cfg
	return nil
}

// Load reads a configuration through v without touching Config.
func Load(v *viper.Viper, file string) (*Configuration, error) {
	setDefaults(v)
	v.SetEnvPrefix("DATAREADER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, shared.NewResourceError(file, err)
		}
	}
	cfg := &Configuration{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, shared.NewConfigError("", err)
	}
	return cfg, nil
}

// Validate reports the first inconsistent option as a configuration error.
func (c *Configuration) Validate() error {
	fail := func(field string, format string, args ...any) error {
		return shared.NewConfigError(field, errors.Errorf(format, args...))
	}
	if c.SourcePath == "" {
		return fail("source_path", "is required")
	}
	if c.SampleRate <= 0 || c.SampleRate > 1 {
		return fail("sample_rate", "must be in (0, 1], got %v", c.SampleRate)
	}
	if c.FirstRow < 0 || c.LastRow < 0 {
		return fail("first_row", "row bounds must not be negative")
	}
	if c.LastRow > 0 && c.FirstRow > c.LastRow {
		return fail("first_row", "first_row %d is after last_row %d", c.FirstRow, c.LastRow)
	}
	if c.StartByte < 0 || c.EndByte < 0 || (c.EndByte > 0 && c.StartByte >= c.EndByte) {
		return fail("start_byte", "invalid byte range %d..%d", c.StartByte, c.EndByte)
	}
	if c.RecordLength < 0 {
		return fail("record_length", "must not be negative")
	}
	// FLAT may take its record length from the schema, so only the name is checked here.
	if l := strings.ToUpper(c.Layout); l != "" && l != source.LAYOUT_FLAT {
		if _, err := source.GetLayout(l, source.Options{RecordLength: c.RecordLength}); err != nil {
			return fail("layout", "%v", err)
		}
	}
	if c.Workers < 1 || c.Workers > MaxWorkers {
		return fail("workers", "must be in 1..%d, got %d", MaxWorkers, c.Workers)
	}
	kind, err := sink.ParseKind(c.OutputKind)
	if err != nil {
		return shared.NewConfigError("output_kind", err)
	}
	if !kind.InMemory() && c.OutputPath == "" {
		return fail("output_path", "is required for %s", kind)
	}
	if c.PartitionField != "" && kind != sink.KIND_DELIMITED_FILE {
		return fail("partition_field", "only applies to %s output", sink.KIND_DELIMITED_FILE)
	}
	if c.Upload.Enabled {
		if kind.InMemory() {
			return fail("upload", "needs a file output kind")
		}
		if c.Upload.URL == "" || c.Upload.Bucket == "" {
			return fail("upload", "url and bucket are required")
		}
	}
	return nil
}

// SourceOptions maps the scan options. Byte and row bounds are left to
// the caller, which sets them per chunk.
func (c *Configuration) SourceOptions() source.Options {
	return source.Options{
		Path:         c.SourcePath,
		Layout:       strings.ToUpper(c.Layout),
		RecordLength: c.RecordLength,
		HasHeader:    c.HasHeader,
		SampleRate:   c.SampleRate,
		Seed:         c.Seed,
		RemapWindow:  c.RemapWindowBytes,
	}
}

func (c *Configuration) SinkOptions() sink.Options {
	kind, _ := sink.ParseKind(c.OutputKind)
	return sink.Options{
		Kind:           kind,
		Path:           c.OutputPath,
		Delimiter:      c.OutputDelimiter,
		Header:         c.OutputHeader,
		SplitRows:      c.SplitRows,
		PartitionField: c.PartitionField,
		Compress:       c.CompressOnClose,
	}
}

func (c *Configuration) UploadConfig() sink.UploadConfig {
	return sink.UploadConfig{
		URL:    c.Upload.URL,
		Key:    c.Upload.Key,
		Secret: c.Upload.Secret,
		Bucket: c.Upload.Bucket,
		Region: c.Upload.Region,
		Path:   c.Upload.Path,
		Secure: c.Upload.Secure,
	}
}
