package sink

import (
	"os"
	"path/filepath"
	"time"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/metrico/datareader/reader/data_types"
	"github.com/metrico/datareader/reader/shared"
)

const rowGroupLength = 8124

var ymdType = arrow.ListOf(arrow.PrimitiveTypes.Int64)

// ParquetWriter writes records to a self-describing parquet file, one
// typed column per field. Dates become [year, month, day] int64 lists.
// The file is written under a temporary name and renamed on Finish.
type ParquetWriter struct {
	opts    Options
	path    string
	tmpPath string

	columns []string
	types   []data_types.DataType
	file    *os.File
	writer  *pqarrow.FileWriter
	batch   *array.RecordBuilder
	pending int
	rows    int64
}

func NewParquetWriter(opts Options) (*ParquetWriter, error) {
	if opts.Path == "" {
		return nil, shared.NewConfigError("", errors.New("output_path is required for BINARY_RECORDS"))
	}
	dir, stem, ext := outputName(opts.Path)
	if ext == "" {
		ext = ".parquet"
	}
	return &ParquetWriter{opts: opts, path: filepath.Join(dir, stem+opts.Suffix+ext)}, nil
}

func (p *ParquetWriter) Accept(rec *shared.Record) error {
	if p.writer == nil {
		if err := p.open(rec); err != nil {
			return err
		}
	}
	for i, c := range p.columns {
		if err := p.write(i, rec.Value(c)); err != nil {
			return errors.Wrapf(err, "field %s", c)
		}
	}
	p.pending++
	p.rows++
	if p.pending >= rowGroupLength {
		return p.flush()
	}
	return nil
}

func (p *ParquetWriter) open(rec *shared.Record) error {
	p.columns = columnsOf(rec, "")
	p.types = ColumnTypes(p.opts, p.columns, []*shared.Record{rec})
	fields := make([]arrow.Field, len(p.columns))
	for i, c := range p.columns {
		tp := p.types[i].ArrowDataType()
		if _, ok := p.types[i].(data_types.Date); ok {
			tp = ymdType
		}
		fields[i] = arrow.Field{Name: c, Type: tp, Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return err
	}
	uid, err := uuid.NewUUID()
	if err != nil {
		return err
	}
	p.tmpPath = filepath.Join(filepath.Dir(p.path), "."+uid.String()+".tmp.parquet")
	if p.file, err = os.Create(p.tmpPath); err != nil {
		return errors.Wrapf(err, "create %s", p.tmpPath)
	}
	writerProps := parquet.NewWriterProperties(
		parquet.WithMaxRowGroupLength(rowGroupLength),
	)
	arrprops := pqarrow.NewArrowWriterProperties()
	if p.writer, err = pqarrow.NewFileWriter(schema, p.file, writerProps, arrprops); err != nil {
		return p.discard(err)
	}
	p.batch = array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	return nil
}

// discard closes and removes the temporary file left by a failed open.
func (p *ParquetWriter) discard(err error) error {
	if p.file != nil {
		err = multierr.Append(err, p.file.Close())
		p.file = nil
	}
	if rmErr := os.Remove(p.tmpPath); rmErr != nil && !os.IsNotExist(rmErr) {
		err = multierr.Append(err, rmErr)
	}
	return err
}

func (p *ParquetWriter) write(i int, v any) error {
	if _, ok := p.types[i].(data_types.Date); !ok {
		return p.types[i].WriteToBatch(p.batch.Field(i), v)
	}
	lb := p.batch.Field(i).(*array.ListBuilder)
	if v == nil {
		lb.AppendNull()
		return nil
	}
	t, ok := v.(time.Time)
	if !ok {
		return errors.Errorf("invalid data type %T", v)
	}
	lb.Append(true)
	lb.ValueBuilder().(*array.Int64Builder).AppendValues(data_types.YMD(t), nil)
	return nil
}

func (p *ParquetWriter) flush() error {
	if p.pending == 0 {
		return nil
	}
	record := p.batch.NewRecord()
	defer record.Release()
	p.pending = 0
	return p.writer.Write(record)
}

// Finish writes the last row group and moves the file into place. A
// chunk without records writes no file.
func (p *ParquetWriter) Finish() (*Result, error) {
	res := &Result{Columns: p.columns, Rows: p.rows}
	if p.writer == nil {
		return res, nil
	}
	err := p.flush()
	err = multierr.Append(err, p.writer.Close())
	p.batch.Release()
	p.writer = nil
	if err != nil {
		os.Remove(p.tmpPath)
		return res, err
	}
	if err := os.Rename(p.tmpPath, p.path); err != nil {
		return res, err
	}
	res.Files = []string{p.path}
	return res, nil
}
