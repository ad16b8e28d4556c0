package source

import (
	"bufio"
	"io"
	"strings"

	"github.com/go-faster/errors"
)

const (
	LAYOUT_DELIM = "DELIM"
	LAYOUT_FLAT  = "FLAT"
)

// Layout knows where records start and end in a source file.
type Layout interface {
	Name() string
	// AlignStart moves a non-zero start offset to the first record that
	// begins at or after it.
	AlignStart(v *View, start int64) int64
	// AlignEnd moves an end offset to the end of the record containing it.
	AlignEnd(v *View, end int64) int64
	// ReadRecord returns the next record including its terminator, or
	// io.EOF when nothing is left.
	ReadRecord(r *bufio.Reader) ([]byte, error)
	// HasHeaders reports whether the layout can carry a header line.
	HasHeaders() bool
}

type LayoutFactory func(opts Options) (Layout, error)

var registry = make(map[string]LayoutFactory)

func RegisterLayout(name string, factory LayoutFactory) {
	registry[strings.ToUpper(name)] = factory
}

func GetLayout(name string, opts Options) (Layout, error) {
	if name == "" {
		name = LAYOUT_DELIM
	}
	factory, ok := registry[strings.ToUpper(name)]
	if !ok {
		return nil, errors.Errorf("layout %s not found", name)
	}
	return factory(opts)
}

func init() {
	RegisterLayout(LAYOUT_DELIM, func(opts Options) (Layout, error) {
		return delimLayout{}, nil
	})
	RegisterLayout(LAYOUT_FLAT, func(opts Options) (Layout, error) {
		if opts.RecordLength < 1 {
			return nil, errors.New("record_length is required for FLAT layout")
		}
		return flatLayout{recordLength: int64(opts.RecordLength)}, nil
	})
}

type delimLayout struct{}

func (d delimLayout) Name() string {
	return LAYOUT_DELIM
}

func (d delimLayout) AlignStart(v *View, start int64) int64 {
	nl := v.IndexByte(start, '\n')
	if nl < 0 {
		return v.Len()
	}
	return nl + 1
}

func (d delimLayout) AlignEnd(v *View, end int64) int64 {
	nl := v.IndexByte(end, '\n')
	if nl < 0 {
		return v.Len()
	}
	return nl + 1
}

func (d delimLayout) ReadRecord(r *bufio.Reader) ([]byte, error) {
	line, err := r.ReadBytes('\n')
	if len(line) > 0 && (err == nil || err == io.EOF) {
		return line, nil
	}
	return nil, err
}

func (d delimLayout) HasHeaders() bool {
	return true
}

// flatLayout reads fixed-length records. The record length includes any
// line terminator, so alignment is plain arithmetic.
type flatLayout struct {
	recordLength int64
}

func (f flatLayout) Name() string {
	return LAYOUT_FLAT
}

func (f flatLayout) AlignStart(v *View, start int64) int64 {
	return min(f.next(start), v.Len())
}

func (f flatLayout) AlignEnd(v *View, end int64) int64 {
	return min(f.next(end), v.Len())
}

func (f flatLayout) next(off int64) int64 {
	return (off/f.recordLength + 1) * f.recordLength
}

func (f flatLayout) ReadRecord(r *bufio.Reader) ([]byte, error) {
	buf := make([]byte, f.recordLength)
	n, err := io.ReadFull(r, buf)
	if n > 0 && (err == nil || err == io.ErrUnexpectedEOF) {
		return buf[:n], nil
	}
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return nil, err
}

func (f flatLayout) HasHeaders() bool {
	return false
}
