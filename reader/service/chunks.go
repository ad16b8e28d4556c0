package service

import (
	"github.com/go-faster/errors"

	"github.com/metrico/datareader/config"
	"github.com/metrico/datareader/reader/shared"
)

// Chunk is one worker's byte range, [Start, End) before record alignment.
type Chunk struct {
	Index int
	Start int64
	End   int64
}

// Chunks splits size bytes into k roughly equal ranges. k is reduced when
// the range has fewer bytes than workers, so every start is distinct.
func Chunks(size int64, k int) ([]Chunk, error) {
	if k < 1 || k > config.MaxWorkers {
		return nil, shared.NewConfigError("workers", errors.Errorf("must be in 1..%d, got %d", config.MaxWorkers, k))
	}
	if size < 0 {
		return nil, shared.NewConfigError("", errors.Errorf("negative range size %d", size))
	}
	k = int(max(min(int64(k), size), 1))
	res := make([]Chunk, k)
	for i := range res {
		res[i] = Chunk{
			Index: i,
			Start: int64(i) * size / int64(k),
			End:   int64(i+1) * size / int64(k),
		}
	}
	return res, nil
}

func (c Chunk) offset(base int64) Chunk {
	c.Start += base
	c.End += base
	return c
}
