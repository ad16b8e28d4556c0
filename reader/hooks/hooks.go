package hooks

import (
	"github.com/metrico/datareader/reader/shared"
)

// HookFunc adapts a plain function to shared.RowHook.
type HookFunc func(rec *shared.Record) (bool, error)

func (f HookFunc) Process(rec *shared.Record) (bool, error) {
	return f(rec)
}

// Chain runs hooks in order and stops at the first one that drops the
// record or fails.
type Chain []shared.RowHook

func (c Chain) Process(rec *shared.Record) (bool, error) {
	for _, h := range c {
		keep, err := h.Process(rec)
		if err != nil || !keep {
			return false, err
		}
	}
	return true, nil
}
