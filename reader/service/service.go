package service

import (
	"context"
	"os"
	"runtime"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/metrico/datareader/config"
	"github.com/metrico/datareader/reader/decoder"
	"github.com/metrico/datareader/reader/hooks"
	"github.com/metrico/datareader/reader/schema"
	"github.com/metrico/datareader/reader/shared"
	"github.com/metrico/datareader/reader/sink"
	"github.com/metrico/datareader/reader/source"
	"github.com/metrico/datareader/utils/logging"
)

// Run reads cfg.SourcePath with s in cfg.Workers chunks at once. A FATAL
// failure in any chunk cancels the others and is returned. userHooks run
// after the filter and lookups and are shared by all workers, so they must
// be safe for concurrent use.
func Run(ctx context.Context, cfg *config.Configuration, s *schema.Schema, userHooks ...shared.RowHook) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	st, err := os.Stat(cfg.SourcePath)
	if err != nil {
		return nil, shared.NewResourceError(cfg.SourcePath, err)
	}
	base, end := cfg.StartByte, st.Size()
	if cfg.EndByte > 0 {
		end = min(cfg.EndByte, end)
	}
	chunks, err := Chunks(max(end-base, 0), cfg.Workers)
	if err != nil {
		return nil, err
	}

	ctx = logging.NewContext(ctx, "run", uuid.NewString(), "source", cfg.SourcePath)
	logger := logging.FromContext(ctx)
	if len(chunks) > 1 {
		if cfg.LastRow > 0 {
			logger.Warn("last_row is ignored when reading with several workers", "last_row", cfg.LastRow)
		}
		if cfg.FirstRow > 0 {
			logger.Warn("first_row only applies to the first chunk, row numbers are chunk-local",
				"first_row", cfg.FirstRow)
		}
	}

	var filter *hooks.Expression
	if cfg.Filter != "" {
		if filter, err = hooks.CompileFilter(cfg.Filter); err != nil {
			return nil, err
		}
	}
	lookups := make([]shared.RowHook, 0, len(cfg.Lookups))
	known := s.Names()
	for _, lc := range cfg.Lookups {
		l, err := hooks.NewLookup(lc)
		if err != nil {
			return nil, err
		}
		lookups = append(lookups, l)
		known = append(known, lc.Columns...)
		if lc.Matched != "" {
			known = append(known, lc.Matched)
		}
	}
	if filter != nil {
		for _, id := range filter.Identifiers() {
			if !slices.Contains(known, id) {
				logger.Warn("filter reads a field no record has, it evaluates to nil", "field", id)
			}
		}
	}

	limit := semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0)))
	sinkOpts := cfg.SinkOptions()
	sinkOpts.Schema = s
	sinkOpts.Limit = limit

	type chunkResult struct {
		res   *sink.Result
		stats source.Stats
	}
	results := make([]chunkResult, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range chunks {
		c = c.offset(base)
		w := &worker{cfg: cfg, schema: s, chunk: c, workers: len(chunks), sinkOpts: sinkOpts}
		w.hooks = make([]shared.RowHook, 0, len(lookups)+len(userHooks)+1)
		// Lookups run first so the filter can read their columns.
		w.hooks = append(w.hooks, lookups...)
		if filter != nil {
			w.hooks = append(w.hooks, filter.Filter())
		}
		w.hooks = append(w.hooks, userHooks...)
		g.Go(func() error {
			res, stats, err := w.run(gctx)
			results[c.Index] = chunkResult{res: res, stats: stats}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Kind: sinkOpts.Kind, sinkOpts: sinkOpts}
	for i, c := range chunks {
		res.add(c.offset(base), results[i].res, results[i].stats)
	}
	if res.Kind == sink.KIND_NUMERIC_MATRIX {
		if _, err := res.Matrix(); err != nil {
			return nil, shared.NewConfigError("output_kind", err)
		}
	}
	if cfg.Upload.Enabled && len(res.Files) > 0 {
		up, err := sink.NewUploader(cfg.UploadConfig(), limit)
		if err != nil {
			return nil, err
		}
		if res.Objects, err = up.Upload(ctx, sink.OutputRoot(cfg.OutputPath), res.Files); err != nil {
			return nil, err
		}
		logger.Info("output uploaded", "bucket", cfg.Upload.Bucket, "objects", len(res.Objects))
	}
	logger.Info("run finished", "chunks", len(chunks), "rows", res.Stats.Rows, "kept", res.Stats.Kept,
		"dropped", res.Stats.Dropped, "files", len(res.Files))
	return res, nil
}

type worker struct {
	cfg      *config.Configuration
	schema   *schema.Schema
	chunk    Chunk
	workers  int
	hooks    []shared.RowHook
	sinkOpts sink.Options
}

func (w *worker) sourceOptions() source.Options {
	opts := w.cfg.SourceOptions()
	opts.StartByte, opts.EndByte = w.chunk.Start, w.chunk.End
	if w.chunk.Index == 0 {
		opts.FirstRow = w.cfg.FirstRow
	}
	if w.workers == 1 {
		opts.LastRow = w.cfg.LastRow
	}
	if opts.Seed != 0 {
		opts.Seed += uint64(w.chunk.Index)
	}
	if opts.RecordLength == 0 && w.schema.FixedWidth() {
		// Fixed-width records end with a newline.
		opts.RecordLength = w.schema.RecordLength() + 1
	}
	opts.Hooks = w.hooks
	return opts
}

// run scans one chunk into its own sink. The sink is finished on every
// path so no file handle outlives the worker.
func (w *worker) run(ctx context.Context) (res *sink.Result, stats source.Stats, err error) {
	logger := logging.WithFields(ctx, "chunk", w.chunk.Index, "start", w.chunk.Start, "end", w.chunk.End)
	dec, err := decoder.New(w.schema, decoder.Options{
		Delimiter:  w.cfg.Delimiter,
		QuoteChar:  w.cfg.QuoteChar,
		RemoveChar: w.cfg.RemoveChar,
	})
	if err != nil {
		return nil, stats, err
	}
	rdr, err := source.NewReader(dec, w.sourceOptions())
	if err != nil {
		return nil, stats, err
	}
	opts := w.sinkOpts
	if w.workers > 1 && !opts.Kind.InMemory() {
		opts.Suffix = sink.WorkerSuffix(w.chunk.Index)
	}
	out, err := sink.New(ctx, opts)
	if err != nil {
		return nil, stats, err
	}
	defer func() {
		var ferr error
		res, ferr = out.Finish()
		err = multierr.Append(err, ferr)
	}()

	logger.Debug("chunk started")
	err = rdr.Scan(ctx, out.Accept)
	stats = rdr.Stats()
	if err != nil {
		logger.Error("chunk failed", "rows", stats.Rows, "error", err)
		return nil, stats, err
	}
	logger.Info("chunk finished", "rows", stats.Rows, "kept", stats.Kept, "dropped", stats.Dropped)
	return nil, stats, nil
}
