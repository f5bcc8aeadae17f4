package engine

import (
	"context"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/flashmat/matrixio"
	"github.com/hupe1980/flashmat/worker"
)

// ledger records which row blocks were dispatched and which failed.
type ledger struct {
	rowBlockSize int

	mu         sync.Mutex
	served     *roaring.Bitmap
	failed     *roaring.Bitmap
	duplicates int
}

func newLedger(rowBlockSize int) *ledger {
	return &ledger{
		rowBlockSize: rowBlockSize,
		served:       roaring.New(),
		failed:       roaring.New(),
	}
}

// wrap returns a creator that records every request before delegating to c.
func (l *ledger) wrap(c worker.TaskCreator) worker.TaskCreator {
	return worker.TaskCreatorFunc(func(io matrixio.IORequest) worker.Task {
		first, n := io.Blocks(l.rowBlockSize)
		l.serve(first, n)
		t := c.Create(io)
		return worker.TaskFunc(func(ctx context.Context, b worker.Block) error {
			if b.Failed() {
				l.fail(first, n)
			}
			return t.Run(ctx, b)
		})
	})
}

func (l *ledger) serve(first, n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := first; i < first+n; i++ {
		if !l.served.CheckedAdd(uint32(i)) { //nolint:gosec // block ordinals fit uint32
			l.duplicates++
		}
	}
}

func (l *ledger) fail(first, n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failed.AddRange(uint64(first), uint64(first+n)) //nolint:gosec // non-negative
}

func (l *ledger) snapshot() (served, failed *roaring.Bitmap, duplicates int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.served.Clone(), l.failed.Clone(), l.duplicates
}
