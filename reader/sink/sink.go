package sink

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"golang.org/x/sync/semaphore"

	"github.com/metrico/datareader/reader/schema"
	"github.com/metrico/datareader/reader/shared"
)

type Kind string

const (
	KIND_COLLECT        Kind = "COLLECT"
	KIND_NUMERIC_MATRIX Kind = "NUMERIC_MATRIX"
	KIND_TABLE          Kind = "TABLE"
	KIND_DELIMITED_FILE Kind = "DELIMITED_FILE"
	KIND_BINARY_RECORDS Kind = "BINARY_RECORDS"
)

// MinSplitRows is the smallest split_rows that enables file rotation.
const MinSplitRows = 10

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToUpper(strings.TrimSpace(s)))
	switch k {
	case "":
		return KIND_COLLECT, nil
	case KIND_COLLECT, KIND_NUMERIC_MATRIX, KIND_TABLE, KIND_DELIMITED_FILE, KIND_BINARY_RECORDS:
		return k, nil
	}
	return "", errors.Errorf(
		"output_kind must be one of: COLLECT, NUMERIC_MATRIX, TABLE, DELIMITED_FILE, BINARY_RECORDS, got %q", s)
}

// InMemory reports whether the kind keeps records in memory until the
// chunks are merged.
func (k Kind) InMemory() bool {
	return k == KIND_COLLECT || k == KIND_NUMERIC_MATRIX || k == KIND_TABLE
}

type Options struct {
	Kind Kind
	// Path of the output file. A path without an extension is a directory
	// and files are named part<N> inside it.
	Path string
	// Suffix is appended to every file stem, keeping worker outputs apart.
	Suffix         string
	Delimiter      string
	Header         bool
	SplitRows      int
	PartitionField string
	Compress       bool
	// Schema gives declared fields their type; undeclared fields are typed
	// from their first value.
	Schema *schema.Schema
	// Limit bounds concurrent compressions across sinks. Optional.
	Limit *semaphore.Weighted
}

// Sink consumes the kept records of one chunk. Finish must be called on
// every path, it releases all handles the sink holds.
type Sink interface {
	Accept(rec *shared.Record) error
	Finish() (*Result, error)
}

type Result struct {
	// Columns is the output column order, fixed by the first record.
	Columns []string
	Records []*shared.Record
	Files   []string
	Rows    int64
}

func New(ctx context.Context, opts Options) (Sink, error) {
	if opts.Delimiter == "" {
		opts.Delimiter = ","
	}
	switch opts.Kind {
	case "", KIND_COLLECT, KIND_NUMERIC_MATRIX, KIND_TABLE:
		return NewCollector(), nil
	case KIND_DELIMITED_FILE:
		return NewDelimitedWriter(ctx, opts)
	case KIND_BINARY_RECORDS:
		return NewParquetWriter(opts)
	}
	return nil, shared.NewConfigError("", errors.Errorf("unknown output kind %s", opts.Kind))
}

// columnsOf returns the names of rec, leaving out skip.
func columnsOf(rec *shared.Record, skip string) []string {
	res := make([]string, 0, rec.Len())
	for _, n := range rec.Names() {
		if n != skip {
			res = append(res, n)
		}
	}
	return res
}
