package sink

import (
	"context"
	"io"
	"os"

	"github.com/go-faster/errors"
	"github.com/klauspost/compress/gzip"
	"golang.org/x/sync/semaphore"
)

// gzipFile replaces path with path.gz and returns the new name.
func gzipFile(ctx context.Context, limit *semaphore.Weighted, path string) (string, error) {
	if limit != nil {
		if err := limit.Acquire(ctx, 1); err != nil {
			return "", err
		}
		defer limit.Release(1)
	}
	in, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer in.Close()

	gzPath := path + ".gz"
	out, err := os.Create(gzPath)
	if err != nil {
		return "", err
	}
	zw := gzip.NewWriter(out)
	if _, err = io.Copy(zw, in); err == nil {
		err = zw.Close()
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(gzPath)
		return "", errors.Wrapf(err, "compress %s", path)
	}
	return gzPath, os.Remove(path)
}
