package service

import (
	"github.com/apache/arrow/go/v18/arrow"
	"gonum.org/v1/gonum/mat"

	"github.com/metrico/datareader/reader/shared"
	"github.com/metrico/datareader/reader/sink"
	"github.com/metrico/datareader/reader/source"
)

// Result merges the chunk results of one run in chunk order.
type Result struct {
	Kind    sink.Kind
	Columns []string
	// Records is set for the in-memory output kinds.
	Records []*shared.Record
	// Files lists the output files, worker by worker.
	Files []string
	// Objects lists the uploaded object keys when upload is enabled.
	Objects []string
	Stats   source.Stats
	Chunks  []ChunkStats

	sinkOpts sink.Options
	matrix   *mat.Dense
}

type ChunkStats struct {
	Chunk
	source.Stats
}

// Matrix returns the records as a dense row-major matrix, one column per
// output column. It fails when a column is not numeric.
func (r *Result) Matrix() (*mat.Dense, error) {
	if r.matrix != nil {
		return r.matrix, nil
	}
	m, err := sink.ToMatrix(r.Columns, r.Records)
	if err != nil {
		return nil, err
	}
	r.matrix = m
	return m, nil
}

// Table returns the records as an arrow record. The caller releases it.
func (r *Result) Table() (arrow.Record, error) {
	return sink.ToTable(r.sinkOpts, r.Columns, r.Records)
}

func (r *Result) add(c Chunk, res *sink.Result, st source.Stats) {
	r.Chunks = append(r.Chunks, ChunkStats{Chunk: c, Stats: st})
	r.Stats = sumStats(r.Stats, st)
	if res == nil {
		return
	}
	if r.Columns == nil {
		r.Columns = res.Columns
	}
	r.Records = append(r.Records, res.Records...)
	r.Files = append(r.Files, res.Files...)
}

func sumStats(a, b source.Stats) source.Stats {
	return source.Stats{
		Rows:      a.Rows + b.Rows,
		Sampled:   a.Sampled + b.Sampled,
		Skipped:   a.Skipped + b.Skipped,
		Dropped:   a.Dropped + b.Dropped,
		Filtered:  a.Filtered + b.Filtered,
		Kept:      a.Kept + b.Kept,
		BytesRead: a.BytesRead + b.BytesRead,
	}
}
