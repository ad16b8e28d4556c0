package source

import (
	"bytes"

	"golang.org/x/exp/mmap"

	"github.com/metrico/datareader/reader/shared"
)

const scanBlock = 64 * 1024

// View is a read-only memory mapped source file.
type View struct {
	path string
	ra   *mmap.ReaderAt
}

func OpenView(path string) (*View, error) {
	ra, err := mmap.Open(path)
	if err != nil {
		return nil, shared.NewResourceError(path, err)
	}
	return &View{path: path, ra: ra}, nil
}

func (v *View) Len() int64 {
	return int64(v.ra.Len())
}

func (v *View) ReadAt(p []byte, off int64) (int, error) {
	return v.ra.ReadAt(p, off)
}

// IndexByte returns the offset of the first c at or after from, or -1.
func (v *View) IndexByte(from int64, c byte) int64 {
	buf := make([]byte, scanBlock)
	for off := max(from, 0); off < v.Len(); off += scanBlock {
		n, _ := v.ra.ReadAt(buf, off)
		if i := bytes.IndexByte(buf[:n], c); i >= 0 {
			return off + int64(i)
		}
		if n < len(buf) {
			break
		}
	}
	return -1
}

// Remap drops the mapping and maps the file again, releasing the pages
// touched so far.
func (v *View) Remap() error {
	if err := v.ra.Close(); err != nil {
		return err
	}
	ra, err := mmap.Open(v.path)
	if err != nil {
		return shared.NewResourceError(v.path, err)
	}
	v.ra = ra
	return nil
}

func (v *View) Close() error {
	return v.ra.Close()
}
