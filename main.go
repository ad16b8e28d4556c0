package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-faster/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/metrico/datareader/config"
	"github.com/metrico/datareader/model"
	"github.com/metrico/datareader/reader/schema"
	"github.com/metrico/datareader/reader/service"
	"github.com/metrico/datareader/reader/sink"
	"github.com/metrico/datareader/utils"
	"github.com/metrico/datareader/utils/logging"
)

// initFlags initializes the command line flags and binds them to the
// configuration keys they override.
func initFlags() *model.CommandLineFlags {
	appFlags := &model.CommandLineFlags{}
	appFlags.Config = pflag.StringP("config", "c", "", "Run configuration file (yaml, json or toml)")
	appFlags.Schema = pflag.StringP("schema", "s", "", "Schema file (yaml)")
	appFlags.Source = pflag.String("source", "", "Source file to read")
	appFlags.Output = pflag.StringP("output", "o", "", "Output file or directory")
	appFlags.OutputKind = pflag.String("output-kind", "", "COLLECT, NUMERIC_MATRIX, TABLE, DELIMITED_FILE or BINARY_RECORDS")
	appFlags.Workers = pflag.IntP("workers", "w", 1, "Parallel chunks, 1..26")
	appFlags.Print = pflag.Bool("print", false, "Print collected records to stdout")
	appFlags.Format = pflag.String("format", utils.FORMAT_JSON_EACH_ROW, "Print format: JSONEachRow, JSONCompact, CSVWithNames, TSV")
	appFlags.Describe = pflag.Bool("describe", false, "Describe the schema and exit")
	appFlags.LogLevel = pflag.String("log-level", "info", "debug, info, warn or error")
	appFlags.LogFormat = pflag.String("log-format", "text", "text or json")
	pflag.Parse()

	bind := map[string]string{
		"schema":      "schema",
		"source_path": "source",
		"output_path": "output",
		"output_kind": "output-kind",
		"workers":     "workers",
		"log.level":   "log-level",
		"log.format":  "log-format",
	}
	for key, flag := range bind {
		if err := viper.BindPFlag(key, pflag.Lookup(flag)); err != nil {
			panic(err)
		}
	}
	return appFlags
}

var appFlags *model.CommandLineFlags

func main() {
	appFlags = initFlags()
	if err := config.InitConfig(*appFlags.Config); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logging.Setup(config.Config.Log.Level, config.Config.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx); err != nil {
		logging.FromContext(ctx).Error("datareader failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := config.Config
	if cfg.Schema == "" {
		return errors.New("--schema is required")
	}
	file, err := config.LoadSchema(cfg.Schema)
	if err != nil {
		return err
	}
	opts := []schema.Option{schema.WithLogger(logging.FromContext(ctx))}
	if cfg.TablesDir != "" {
		opts = append(opts, schema.WithTablesDir(cfg.TablesDir))
	}
	s, err := schema.FromFile(file, opts...)
	if err != nil {
		return err
	}
	if *appFlags.Describe {
		return s.Describe(os.Stdout)
	}

	format, err := utils.ParseFormat(*appFlags.Format)
	if err != nil {
		return err
	}
	start := time.Now()
	res, err := service.Run(ctx, cfg, s)
	if err != nil {
		return err
	}
	if !*appFlags.Print || !res.Kind.InMemory() {
		for _, f := range res.Files {
			fmt.Println(f)
		}
		return nil
	}

	sinkOpts := cfg.SinkOptions()
	sinkOpts.Schema = s
	types := sink.ColumnTypes(sinkOpts, res.Columns, res.Records)
	meta := make([]model.Metadata, len(res.Columns))
	for i, c := range res.Columns {
		meta[i] = model.Metadata{Name: c, Type: types[i].GetName()}
	}
	return utils.ConversationOfRecords(os.Stdout, format, meta, res.Records, model.Statistics{
		Elapsed:   time.Since(start).Seconds(),
		RowsRead:  res.Stats.Rows,
		RowsKept:  res.Stats.Kept,
		Dropped:   res.Stats.Dropped,
		BytesRead: res.Stats.BytesRead,
	})
}
