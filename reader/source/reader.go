package source

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"time"

	"github.com/go-faster/errors"
	"golang.org/x/exp/rand"

	"github.com/metrico/datareader/reader/decoder"
	"github.com/metrico/datareader/reader/shared"
	"github.com/metrico/datareader/utils/logging"
)

const ctxPollRows = 1024

// Options of a single scan. Zero values mean "not set".
type Options struct {
	Path         string
	Layout       string
	RecordLength int
	HasHeader    bool
	// StartByte and EndByte bound the scan; EndByte 0 reads to the end of
	// the file.
	StartByte int64
	EndByte   int64
	// SampleRate in (0, 1]; 0 keeps every row.
	SampleRate float64
	// Seed makes sampling reproducible; 0 seeds from the clock.
	Seed uint64
	// FirstRow and LastRow are 1-based and inclusive.
	FirstRow int64
	LastRow  int64
	// RemapWindow re-maps the file every RemapWindow bytes scanned.
	RemapWindow int64
	Hooks       []shared.RowHook
}

// Stats counts what one scan did with the rows it read.
type Stats struct {
	Rows      int64
	Sampled   int64
	Skipped   int64
	Dropped   int64
	Filtered  int64
	Kept      int64
	BytesRead int64
}

// Reader scans one byte range of a file into records. A Reader is used by
// one goroutine.
type Reader struct {
	opts    Options
	layout  Layout
	decoder *decoder.Decoder
	rng     *rand.Rand
	stats   Stats
}

func NewReader(dec *decoder.Decoder, opts Options) (*Reader, error) {
	if opts.Layout == "" {
		opts.Layout = LAYOUT_DELIM
		if dec.Schema().FixedWidth() {
			opts.Layout = LAYOUT_FLAT
		}
	}
	layout, err := GetLayout(opts.Layout, opts)
	if err != nil {
		return nil, shared.NewConfigError("", err)
	}
	switch fixed := dec.Schema().FixedWidth(); {
	case layout.Name() == LAYOUT_FLAT && !fixed:
		return nil, shared.NewConfigError("", errors.New("FLAT layout needs start/width on every field"))
	case layout.Name() != LAYOUT_FLAT && fixed:
		return nil, shared.NewConfigError("", errors.Errorf("%s layout cannot use start/width fields", layout.Name()))
	}
	if opts.HasHeader && !layout.HasHeaders() {
		return nil, shared.NewConfigError("", errors.Errorf("%s layout has no header", layout.Name()))
	}
	if opts.SampleRate < 0 || opts.SampleRate > 1 {
		return nil, shared.NewConfigError("", errors.Errorf("sample_rate must be in (0, 1], got %v", opts.SampleRate))
	}
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Reader{
		opts:    opts,
		layout:  layout,
		decoder: dec,
		rng:     rand.New(rand.NewSource(seed)),
	}, nil
}

func (r *Reader) Stats() Stats {
	return r.stats
}

// Scan reads the configured byte range and calls fn for every kept record.
// The range is aligned to whole records first, so adjacent ranges never
// share or miss a record. A validation failure with the FATAL action, a
// structural mismatch, a hook error, an fn error or ctx cancellation ends
// the scan with that error.
func (r *Reader) Scan(ctx context.Context, fn func(*shared.Record) error) error {
	v, err := OpenView(r.opts.Path)
	if err != nil {
		return err
	}
	defer v.Close()

	size := v.Len()
	start, end := int64(0), size
	if r.opts.StartByte > 0 {
		start = r.layout.AlignStart(v, r.opts.StartByte)
	}
	if r.opts.EndByte > 0 {
		end = min(r.layout.AlignEnd(v, r.opts.EndByte), size)
	}
	logger := logging.WithFields(ctx, "path", r.opts.Path)
	logger.Debug("scan range aligned", "start", start, "end", end,
		"requested_start", r.opts.StartByte, "requested_end", r.opts.EndByte)

	if r.opts.HasHeader {
		header, err := r.layout.ReadRecord(bufio.NewReader(io.NewSectionReader(v, 0, size)))
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return shared.NewResourceError(r.opts.Path, err)
		}
		if err := r.decoder.SetHeader(header); err != nil {
			return err
		}
		start = max(start, int64(len(header)))
	}

	pos := start
	lastRemap := pos
	br := bufio.NewReaderSize(io.NewSectionReader(v, pos, size-pos), scanBlock)
	defer func() {
		r.stats.BytesRead = pos - start
	}()

	for {
		if pos >= end {
			return nil
		}
		line, err := r.layout.ReadRecord(br)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return shared.NewResourceError(r.opts.Path, err)
		}
		pos += int64(len(line))
		if pos > end {
			return nil
		}
		if r.opts.RemapWindow > 0 && pos/r.opts.RemapWindow > lastRemap/r.opts.RemapWindow {
			if err := v.Remap(); err != nil {
				return err
			}
			br.Reset(io.NewSectionReader(v, pos, size-pos))
			lastRemap = pos
		}
		if isBlank(line) {
			continue
		}

		sampledOut := r.opts.SampleRate > 0 && r.opts.SampleRate < 1 && r.rng.Float64() > r.opts.SampleRate
		r.stats.Rows++
		row := r.stats.Rows
		if row%ctxPollRows == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if r.opts.LastRow > 0 && row > r.opts.LastRow {
			return nil
		}
		switch {
		case sampledOut:
			r.stats.Sampled++
			continue
		case r.opts.FirstRow > 0 && row < r.opts.FirstRow:
			r.stats.Skipped++
			continue
		}

		if err := r.process(line, row, fn); err != nil {
			return err
		}
	}
}

func (r *Reader) process(line []byte, row int64, fn func(*shared.Record) error) error {
	rec, keep, err := r.decoder.DecodeLine(line)
	if err != nil {
		var e *shared.Error
		if errors.As(err, &e) {
			e.Row = row
		}
		return err
	}
	if !keep {
		r.stats.Dropped++
		return nil
	}
	for _, h := range r.opts.Hooks {
		ok, err := h.Process(rec)
		if err != nil {
			return errors.Wrapf(err, "row %d", row)
		}
		if !ok {
			r.stats.Filtered++
			return nil
		}
	}
	r.stats.Kept++
	return fn(rec)
}

func isBlank(line []byte) bool {
	return len(bytes.Trim(line, "\r\n")) == 0
}
