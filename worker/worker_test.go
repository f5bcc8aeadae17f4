package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/flashmat/matrix"
	"github.com/hupe1980/flashmat/matrixio"
)

const testCols = 3

func uniformIndex(rows, rbs int) matrixio.RowBlockIndex {
	n := (rows + rbs - 1) / rbs
	x := matrixio.RowBlockIndex{NumRows: rows}
	for i := 0; i <= n; i++ {
		x.Blocks = append(x.Blocks, matrixio.RowBlock{Offset: uint64(min(i*rbs, rows) * testCols * 8)})
	}
	return x
}

// rowReader returns blocks whose elements hold their global row number.
func rowReader() BlockReader {
	return BlockReaderFunc(func(_ context.Context, io matrixio.IORequest) (*matrix.RowMatrix, error) {
		m := matrix.NewRow(io.NumRows, io.NumCols, matrix.Int64)
		top := io.TopLeft.Row
		m.SetData(matrix.NewSetOp("row", func(r, _ int) int64 { return int64(top + r) }))
		return m, nil
	})
}

type rowLedger struct {
	mu   sync.Mutex
	seen map[int]int
}

func newRowLedger() *rowLedger {
	return &rowLedger{seen: make(map[int]int)}
}

func (l *rowLedger) creator() TaskCreator {
	return TaskCreatorFunc(func(matrixio.IORequest) Task {
		return TaskFunc(func(_ context.Context, b Block) error {
			if b.Failed() {
				return nil
			}
			l.mu.Lock()
			defer l.mu.Unlock()
			for r := range b.Matrix.Rows() {
				row := int(matrix.At[int64](b.Matrix, r, 0))
				l.seen[row]++
			}
			return nil
		})
	})
}

func (l *rowLedger) assertExactlyOnce(t *testing.T, rows int) {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()
	require.Len(t, l.seen, rows)
	for r := range rows {
		assert.Equal(t, 1, l.seen[r], "row %d", r)
	}
}

func runWorkers(t *testing.T, ctx context.Context, gens []*matrixio.Generator, reader BlockReader, creator TaskCreator, opts Options) ([]*Worker, error) {
	t.Helper()
	workers := make([]*Worker, len(gens))
	errs := make([]error, len(gens))
	var wg sync.WaitGroup
	for i, g := range gens {
		workers[i] = New(i, nil, g, gens, reader, creator, opts)
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = workers[i].Run(ctx)
		}()
	}
	wg.Wait()
	return workers, errors.Join(errs...)
}

func TestWorker_SingleWorkerCoversAllRows(t *testing.T) {
	idx := uniformIndex(1000, 7)
	gens := matrixio.NewGenerators(idx, testCols, 0, 1, matrixio.Config{RowBlockSize: 7, RBIOSize: 4, RBStealIOSize: 1})
	ledger := newRowLedger()

	workers, err := runWorkers(t, context.Background(), gens, rowReader(), ledger.creator(), Options{})
	require.NoError(t, err)

	ledger.assertExactlyOnce(t, 1000)
	assert.Equal(t, int64(0), workers[0].Stats().Steals)
	assert.False(t, gens[0].HasNextIO())
}

func TestWorker_ManyWorkersCoverAllRows(t *testing.T) {
	for _, numWorkers := range []int{2, 3, 8} {
		idx := uniformIndex(5000, 16)
		gens := matrixio.NewGenerators(idx, testCols, 0, numWorkers, matrixio.Config{RowBlockSize: 16, RBIOSize: 5, RBStealIOSize: 2})
		ledger := newRowLedger()

		workers, err := runWorkers(t, context.Background(), gens, rowReader(), ledger.creator(), Options{MaxPending: 3})
		require.NoError(t, err)
		ledger.assertExactlyOnce(t, 5000)

		var blocks int64
		for _, w := range workers {
			blocks += w.Stats().Requests
		}
		assert.Positive(t, blocks)
		for _, g := range gens {
			assert.False(t, g.HasNextIO())
		}
	}
}

func TestWorker_IdleWorkerSteals(t *testing.T) {
	// 4 blocks in one chunk: generator 1 owns nothing and must steal.
	idx := uniformIndex(40, 10)
	conf := matrixio.Config{RowBlockSize: 10, RBIOSize: 4, RBStealIOSize: 1}
	gens := matrixio.NewGenerators(idx, testCols, 0, 2, conf)
	require.False(t, gens[1].HasNextIO())

	ledger := newRowLedger()
	m := &countingMetrics{}
	w := New(1, nil, gens[1], gens, rowReader(), ledger.creator(), Options{Metrics: m})
	require.NoError(t, w.Run(context.Background()))

	ledger.assertExactlyOnce(t, 40)
	assert.Equal(t, int64(4), w.Stats().Steals)
	assert.Equal(t, int64(4), m.stolen.Load())
	assert.Equal(t, int64(4), gens[0].Stats().StolenBlocks)
}

func TestWorker_FailedBlockIsReported(t *testing.T) {
	idx := uniformIndex(100, 10)
	gens := matrixio.NewGenerators(idx, testCols, 0, 1, matrixio.Config{RowBlockSize: 10, RBIOSize: 1})
	errRead := errors.New("disk on fire")

	inner := rowReader()
	reader := BlockReaderFunc(func(ctx context.Context, io matrixio.IORequest) (*matrix.RowMatrix, error) {
		if io.TopLeft.Row == 30 {
			return nil, errRead
		}
		return inner.ReadBlock(ctx, io)
	})

	var mu sync.Mutex
	var failed []Block
	ledger := newRowLedger()
	creator := TaskCreatorFunc(func(io matrixio.IORequest) Task {
		next := ledger.creator().Create(io)
		return TaskFunc(func(ctx context.Context, b Block) error {
			if b.Failed() {
				mu.Lock()
				failed = append(failed, b)
				mu.Unlock()
			}
			return next.Run(ctx, b)
		})
	})

	m := &countingMetrics{}
	w := New(0, nil, gens[0], gens, reader, creator, Options{Metrics: m})
	require.NoError(t, w.Run(context.Background()))

	require.Len(t, failed, 1)
	assert.ErrorIs(t, failed[0].Err, errRead)
	assert.Nil(t, failed[0].Matrix)
	assert.Equal(t, 30, failed[0].IO.TopLeft.Row)
	assert.Equal(t, int64(1), w.Stats().FailedRequests)
	assert.Equal(t, int64(10), w.Stats().Requests)
	assert.Equal(t, int64(1), m.readErrors.Load())

	ledger.mu.Lock()
	assert.Len(t, ledger.seen, 90)
	ledger.mu.Unlock()
}

func TestWorker_TaskErrorStopsRun(t *testing.T) {
	idx := uniformIndex(100, 10)
	gens := matrixio.NewGenerators(idx, testCols, 0, 1, matrixio.Config{RowBlockSize: 10, RBIOSize: 1})
	errTask := errors.New("boom")

	var runs atomic.Int64
	creator := TaskCreatorFunc(func(matrixio.IORequest) Task {
		return TaskFunc(func(context.Context, Block) error {
			if runs.Add(1) == 3 {
				return errTask
			}
			return nil
		})
	})

	w := New(0, nil, gens[0], gens, rowReader(), creator, Options{})
	err := w.Run(context.Background())
	require.ErrorIs(t, err, errTask)
	assert.Equal(t, int64(3), runs.Load())
	assert.True(t, gens[0].HasNextIO())
}

func TestWorker_ContextCancel(t *testing.T) {
	idx := uniformIndex(100, 10)
	gens := matrixio.NewGenerators(idx, testCols, 0, 1, matrixio.Config{RowBlockSize: 10, RBIOSize: 1})

	reader := BlockReaderFunc(func(ctx context.Context, _ matrixio.IORequest) (*matrix.RowMatrix, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	creator := TaskCreatorFunc(func(matrixio.IORequest) Task {
		return TaskFunc(func(context.Context, Block) error { return nil })
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	w := New(0, nil, gens[0], gens, reader, creator, Options{})
	err := w.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWorker_BoundsPendingReads(t *testing.T) {
	idx := uniformIndex(400, 4)
	gens := matrixio.NewGenerators(idx, testCols, 0, 1, matrixio.Config{RowBlockSize: 4, RBIOSize: 1})

	var cur, peak atomic.Int64
	inner := rowReader()
	reader := BlockReaderFunc(func(ctx context.Context, io matrixio.IORequest) (*matrix.RowMatrix, error) {
		n := cur.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		cur.Add(-1)
		return inner.ReadBlock(ctx, io)
	})

	ledger := newRowLedger()
	w := New(0, nil, gens[0], gens, reader, ledger.creator(), Options{MaxPending: 4})
	require.NoError(t, w.Run(context.Background()))

	ledger.assertExactlyOnce(t, 400)
	assert.LessOrEqual(t, peak.Load(), int64(4))
	assert.GreaterOrEqual(t, peak.Load(), int64(1))
}

func TestWorker_EmptyMatrix(t *testing.T) {
	gens := matrixio.NewGenerators(matrixio.RowBlockIndex{}, testCols, 0, 2, matrixio.DefaultConfig())
	creator := TaskCreatorFunc(func(matrixio.IORequest) Task {
		return TaskFunc(func(context.Context, Block) error {
			t.Error("task must not run")
			return nil
		})
	})
	_, err := runWorkers(t, context.Background(), gens, rowReader(), creator, Options{})
	require.NoError(t, err)
}

type countingMetrics struct {
	reads      atomic.Int64
	readErrors atomic.Int64
	stolen     atomic.Int64
	tasks      atomic.Int64
}

func (m *countingMetrics) RecordBlockRead(_ int64, _ time.Duration, err error) {
	m.reads.Add(1)
	if err != nil {
		m.readErrors.Add(1)
	}
}

func (m *countingMetrics) RecordSteal(blocks int) {
	m.stolen.Add(int64(blocks))
}

func (m *countingMetrics) RecordTask(time.Duration, error) {
	m.tasks.Add(1)
}
