package sink

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/go-faster/city"
	"github.com/go-faster/errors"
	"go.uber.org/multierr"

	"github.com/metrico/datareader/reader/shared"
)

// DelimitedWriter writes one text row per record, optionally split into
// numbered files of SplitRows rows and partitioned into field=value
// directories.
type DelimitedWriter struct {
	ctx     context.Context
	opts    Options
	split   int
	columns []string
	row     []byte

	dir, stem, ext string

	single     *delimFile
	partitions map[uint64]*delimFile
	files      []string
	rows       int64
}

// delimFile tracks one output stream: the single output or one partition.
type delimFile struct {
	dir     string
	append  bool
	splitNo int
	rows    int
	path    string
	f       *os.File
	w       *bufio.Writer
}

func NewDelimitedWriter(ctx context.Context, opts Options) (*DelimitedWriter, error) {
	if opts.Path == "" {
		return nil, shared.NewConfigError("", errors.New("output_path is required for DELIMITED_FILE"))
	}
	if opts.Delimiter == "" {
		opts.Delimiter = ","
	}
	w := &DelimitedWriter{
		ctx:        ctx,
		opts:       opts,
		partitions: map[uint64]*delimFile{},
	}
	if opts.SplitRows > MinSplitRows {
		w.split = opts.SplitRows
	}
	w.dir, w.stem, w.ext = outputName(opts.Path)
	w.stem += opts.Suffix
	return w, nil
}

func (d *DelimitedWriter) Accept(rec *shared.Record) error {
	if d.columns == nil {
		if d.opts.PartitionField != "" {
			if _, ok := rec.Get(d.opts.PartitionField); !ok {
				return shared.NewConfigError(d.opts.PartitionField, errors.New("partition field not in output"))
			}
		}
		d.columns = columnsOf(rec, d.opts.PartitionField)
	}

	out, err := d.target(rec)
	if err != nil {
		return err
	}
	if out.f == nil {
		if err := d.open(out); err != nil {
			return err
		}
	}
	d.row = d.formatRow(d.row[:0], rec)
	if _, err := out.w.Write(d.row); err != nil {
		return errors.Wrapf(err, "write %s", out.path)
	}
	out.rows++
	d.rows++
	if d.split > 0 && out.rows >= d.split {
		return d.rotate(out)
	}
	return nil
}

func (d *DelimitedWriter) target(rec *shared.Record) (*delimFile, error) {
	if d.opts.PartitionField == "" {
		if d.single == nil {
			d.single = &delimFile{dir: d.dir}
		}
		return d.single, nil
	}
	dir := PartitionDir(d.opts.PartitionField, rec.Value(d.opts.PartitionField))
	key := city.CH64([]byte(dir))
	out, ok := d.partitions[key]
	if !ok {
		out = &delimFile{dir: filepath.Join(d.dir, dir), append: true}
		d.partitions[key] = out
	}
	return out, nil
}

func (d *DelimitedWriter) open(out *delimFile) error {
	if err := os.MkdirAll(out.dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", out.dir)
	}
	name := d.stem
	if d.split > 0 {
		name += strconv.Itoa(out.splitNo)
	}
	out.path = filepath.Join(out.dir, name+d.ext)

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if out.append {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(out.path, flags, 0o644)
	if err != nil {
		return errors.Wrapf(err, "open %s", out.path)
	}
	out.f, out.w, out.rows = f, bufio.NewWriter(f), 0

	if d.opts.Header {
		st, err := f.Stat()
		if err != nil {
			return err
		}
		if st.Size() == 0 {
			if _, err := out.w.Write(d.formatHeader()); err != nil {
				return err
			}
		}
	}
	return nil
}

// rotate closes a full file; the next record for it opens the next split.
func (d *DelimitedWriter) rotate(out *delimFile) error {
	err := d.closeFile(out)
	out.splitNo++
	return err
}

func (d *DelimitedWriter) closeFile(out *delimFile) error {
	if out.f == nil {
		return nil
	}
	err := out.w.Flush()
	err = multierr.Append(err, out.f.Close())
	out.f, out.w = nil, nil
	if err != nil {
		return errors.Wrapf(err, "close %s", out.path)
	}
	path := out.path
	if d.opts.Compress {
		if path, err = gzipFile(d.ctx, d.opts.Limit, path); err != nil {
			return err
		}
	}
	d.files = append(d.files, path)
	return nil
}

func (d *DelimitedWriter) formatHeader() []byte {
	var b []byte
	for i, c := range d.columns {
		if i > 0 {
			b = append(b, d.opts.Delimiter...)
		}
		b = append(b, c...)
	}
	return append(b, '\n')
}

func (d *DelimitedWriter) formatRow(b []byte, rec *shared.Record) []byte {
	for i, c := range d.columns {
		if i > 0 {
			b = append(b, d.opts.Delimiter...)
		}
		b = append(b, FormatValue(rec.Value(c))...)
	}
	return append(b, '\n')
}

// Finish closes every open file and returns the files written, compressed
// names included.
func (d *DelimitedWriter) Finish() (*Result, error) {
	var err error
	if d.single != nil {
		err = multierr.Append(err, d.closeFile(d.single))
	}
	for _, out := range d.partitions {
		err = multierr.Append(err, d.closeFile(out))
	}
	sort.Strings(d.files)
	return &Result{Columns: d.columns, Files: d.files, Rows: d.rows}, err
}
