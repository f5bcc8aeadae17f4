package flashmat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/flashmat/blobstore"
	"github.com/hupe1980/flashmat/engine"
	"github.com/hupe1980/flashmat/format"
	"github.com/hupe1980/flashmat/internal/cache"
	"github.com/hupe1980/flashmat/matrix"
	"github.com/hupe1980/flashmat/worker"
)

// Matrix is a read-only matrix stored as row blocks on a blob store.
// It is safe for concurrent use.
type Matrix struct {
	name  string
	index *format.Index
	blob  blobstore.Blob

	engine  *engine.Engine
	logger  *Logger
	metrics MetricsCollector

	mu     sync.RWMutex
	closed bool
}

// Create writes m to store under name and opens it.
func Create(ctx context.Context, store blobstore.BlobStore, name string, m matrix.Dense, optFns ...Option) (*Matrix, error) {
	o := applyOptions(optFns)
	_, err := format.WriteMatrix(ctx, store, name, m, format.WriterOptions{
		RowBlockSize: o.rowBlockSize,
		Codec:        o.codec,
	})
	if err != nil {
		return nil, translateError(err)
	}
	o.logger.InfoContext(ctx, "matrix created",
		"matrix", name,
		"rows", m.Rows(),
		"cols", m.Cols(),
		"codec", o.codec,
	)
	return open(ctx, store, name, o)
}

// Open opens the matrix stored under name.
func Open(ctx context.Context, store blobstore.BlobStore, name string, optFns ...Option) (*Matrix, error) {
	return open(ctx, store, name, applyOptions(optFns))
}

func open(ctx context.Context, store blobstore.BlobStore, name string, o options) (*Matrix, error) {
	if o.blockCacheBytes > 0 {
		store = blobstore.NewCachingStore(store, cache.NewLRUBlockCache(o.blockCacheBytes, nil), blobstore.DefaultCacheBlockSize)
	}

	idx, err := format.ReadIndex(ctx, store, name)
	if err != nil {
		return nil, translateError(err)
	}
	blob, err := store.Open(ctx, format.DataName(name))
	if err != nil {
		return nil, translateError(err)
	}
	if blob.Size() != idx.DataSize() {
		_ = blob.Close()
		return nil, fmt.Errorf("%w: data blob holds %d bytes, index expects %d", ErrCorrupt, blob.Size(), idx.DataSize())
	}

	logger := o.logger.WithMatrix(name)
	return &Matrix{
		name:    name,
		index:   idx,
		blob:    blob,
		logger:  logger,
		metrics: o.metricsCollector,
		engine: engine.New(engine.Config{
			RBIOSize:           o.rbIOSize,
			RBStealIOSize:      o.rbStealIOSize,
			NumWorkers:         o.numWorkers,
			NUMANodes:          o.numaNodes,
			MaxPendingIO:       o.maxPendingIO,
			MemoryLimitBytes:   o.memoryLimit,
			IOLimitBytesPerSec: o.ioLimit,
			Logger:             logger.Logger,
			Metrics:            observer{MetricsCollector: o.metricsCollector, logger: logger},
		}),
	}, nil
}

// Name returns the name the matrix is stored under.
func (m *Matrix) Name() string { return m.name }

// Rows returns the number of rows.
func (m *Matrix) Rows() int { return m.index.Rows }

// Cols returns the number of columns.
func (m *Matrix) Cols() int { return m.index.Cols }

// Type returns the element type.
func (m *Matrix) Type() matrix.ScalarType { return m.index.Type }

// Index returns the row block index of the matrix.
func (m *Matrix) Index() *format.Index { return m.index }

// Multiply computes m * right over sr. right must be resident and have
// Cols() rows; a nil right is reported as a dimension mismatch. If some row
// blocks could not be read the product is still returned, with zero rows
// for those blocks, together with an error matching ErrFailedBlocks.
func (m *Matrix) Multiply(ctx context.Context, right matrix.Dense, sr matrix.Semiring) (*matrix.RowMatrix, error) {
	if matrix.IsNil(right) {
		return nil, &ErrDimensionMismatch{Expected: m.Cols(), Actual: 0}
	}
	if right.Rows() != m.Cols() {
		return nil, &ErrDimensionMismatch{Expected: m.Cols(), Actual: right.Rows()}
	}
	if sr.Multiply.Left != m.Type() {
		return nil, &ErrTypeMismatch{Expected: m.Type(), Actual: sr.Multiply.Left}
	}
	if sr.Multiply.Right != right.Type() {
		return nil, &ErrTypeMismatch{Expected: sr.Multiply.Right, Actual: right.Type()}
	}
	task := engine.NewMultiply(m.Rows(), right, sr)
	if task == nil {
		return nil, fmt.Errorf("%w: %s and %s do not form a semiring", ErrInvalidOperator, sr.Multiply.Name, sr.Add.Name)
	}

	report, err := m.run(ctx, "multiply", task)
	if err != nil {
		return nil, err
	}
	out, err := task.Result()
	return out, m.blockErrors(ctx, report, err)
}

// Aggregate reduces every element with op. Failed row blocks are left out
// of the result, which is returned with an error matching ErrFailedBlocks.
func (m *Matrix) Aggregate(ctx context.Context, op matrix.BinaryOp) (matrix.Scalar, error) {
	if !op.Associative() {
		return matrix.Scalar{}, fmt.Errorf("%w: %s is not a reduction", ErrInvalidOperator, op.Name)
	}
	if op.Left != m.Type() {
		return matrix.Scalar{}, &ErrTypeMismatch{Expected: m.Type(), Actual: op.Left}
	}
	task := engine.NewAggregate(op, m.index.RowBlockSize)

	report, err := m.run(ctx, "aggregate", task)
	if err != nil {
		return matrix.Scalar{}, err
	}
	acc, err := task.Result()
	return acc, m.blockErrors(ctx, report, err)
}

// Run hands every row block to a task from creator. Failed reads reach the
// tasks as blocks with Err set; the run itself fails only if a task does.
func (m *Matrix) Run(ctx context.Context, creator worker.TaskCreator) (*engine.Report, error) {
	return m.run(ctx, "run", creator)
}

// Load reads the whole matrix into memory.
func (m *Matrix) Load(ctx context.Context) (*matrix.RowMatrix, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	if m.index.NumBlocks == 0 {
		return matrix.NewRow(0, m.Cols(), m.Type()), nil
	}

	data, err := m.readAll(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	out, err := m.index.DecodeBlocks(data, 0, m.index.NumBlocks)
	return out, translateError(err)
}

// Close releases the data blob. Operations after Close return ErrClosed.
func (m *Matrix) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	return m.blob.Close()
}

func (m *Matrix) run(ctx context.Context, op string, creator worker.TaskCreator) (*engine.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}

	start := time.Now()
	report, err := m.engine.Run(ctx, worker.File{Blob: m.blob, Index: m.index}, creator)
	failed := 0
	if report != nil {
		failed = int(report.Failed.GetCardinality()) //nolint:gosec // bounded by block count
	}
	m.logger.LogRun(ctx, op, m.index.NumBlocks, failed, time.Since(start), err)
	return report, translateError(err)
}

func (m *Matrix) blockErrors(ctx context.Context, report *engine.Report, err error) error {
	if err == nil {
		return nil
	}
	it := report.Failed.Iterator()
	for it.HasNext() {
		m.logger.LogBlockFailure(ctx, int(it.Next()), err)
	}
	return fmt.Errorf("%w: %d of %d: %w", ErrFailedBlocks, report.Failed.GetCardinality(), report.Blocks, err)
}

func (m *Matrix) readAll(ctx context.Context) ([]byte, error) {
	if mp, ok := m.blob.(blobstore.Mappable); ok {
		return mp.Bytes()
	}
	buf := make([]byte, m.blob.Size())
	if err := blobstore.ReadFull(ctx, m.blob, buf, 0); err != nil {
		return nil, err
	}
	return buf, nil
}
