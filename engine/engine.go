package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/flashmat/internal/numa"
	"github.com/hupe1980/flashmat/internal/resource"
	"github.com/hupe1980/flashmat/matrixio"
	"github.com/hupe1980/flashmat/worker"
)

// ErrIncompleteCoverage is returned when a run finished without dispatching
// every row block exactly once.
var ErrIncompleteCoverage = errors.New("engine: incomplete row block coverage")

// Report describes a finished run.
type Report struct {
	// Blocks is the number of row blocks in the file.
	Blocks int
	// Served holds the ordinals of dispatched row blocks.
	Served *roaring.Bitmap
	// Failed holds the ordinals of row blocks whose read failed.
	Failed   *roaring.Bitmap
	Steals   int64
	Duration time.Duration
	Workers  []worker.Stats
}

// Engine runs tasks over on-disk matrices.
type Engine struct {
	cfg Config
	rc  *resource.Controller
}

// New creates an engine. Zero fields of cfg take their defaults.
func New(cfg Config) *Engine {
	cfg = cfg.normalize()
	return &Engine{
		cfg: cfg,
		rc: resource.NewController(resource.Config{
			MemoryLimitBytes:   cfg.MemoryLimitBytes,
			IOLimitBytesPerSec: cfg.IOLimitBytesPerSec,
		}),
	}
}

// Config returns the normalized configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Resources returns the controller shared by all reads of the engine.
func (e *Engine) Resources() *resource.Controller {
	return e.rc
}

// Run runs the tasks of creator over every row block of f.
func (e *Engine) Run(ctx context.Context, f worker.File, creator worker.TaskCreator) (*Report, error) {
	reader := worker.NewStoreReader(map[int]worker.File{0: f}, e.rc)
	return e.RunReader(ctx, f.Index.RowBlocks(), f.Index.Cols, f.Index.RowBlockSize, reader, creator)
}

// RunReader runs the tasks of creator over every row block of x, reading
// blocks through reader. Requests carry file id 0.
func (e *Engine) RunReader(ctx context.Context, x matrixio.RowBlockIndex, numCols, rowBlockSize int, reader worker.BlockReader, creator worker.TaskCreator) (*Report, error) {
	if err := x.Validate(rowBlockSize); err != nil {
		return nil, err
	}

	start := time.Now()
	logger := e.cfg.Logger
	n := e.cfg.NumWorkers
	gens := matrixio.NewGenerators(x, numCols, 0, n, e.cfg.generatorConfig(rowBlockSize))
	l := newLedger(rowBlockSize)
	tasks := l.wrap(creator)

	logger.DebugContext(ctx, "run started", "blocks", x.NumBlocks(), "rows", x.NumRows, "workers", n)

	workers := make([]*worker.Worker, n)
	g, gctx := errgroup.WithContext(ctx)
	for i := range n {
		w := worker.New(i, e.nodeFor(i), gens[i], gens, reader, tasks, worker.Options{
			MaxPending: e.cfg.MaxPendingIO,
			Logger:     logger,
			Metrics:    e.cfg.Metrics,
		})
		workers[i] = w
		g.Go(func() error {
			return w.Run(gctx)
		})
	}
	err := g.Wait()

	served, failed, dup := l.snapshot()
	report := &Report{
		Blocks:   x.NumBlocks(),
		Served:   served,
		Failed:   failed,
		Duration: time.Since(start),
		Workers:  make([]worker.Stats, n),
	}
	for i, w := range workers {
		report.Workers[i] = w.Stats()
		report.Steals += report.Workers[i].Steals
	}

	if err == nil && (served.GetCardinality() != uint64(report.Blocks) || dup != 0) { //nolint:gosec // non-negative
		err = fmt.Errorf("%w: %d of %d row blocks served, %d served twice", ErrIncompleteCoverage, served.GetCardinality(), report.Blocks, dup)
	}

	e.cfg.Metrics.RecordRun(report.Duration, report.Blocks, err)
	if err != nil {
		logger.ErrorContext(ctx, "run failed", "error", err, "duration", report.Duration)
		return report, err
	}

	level := slog.LevelInfo
	if !failed.IsEmpty() {
		level = slog.LevelWarn
	}
	logger.Log(ctx, level, "run finished",
		"blocks", report.Blocks,
		"failed", failed.GetCardinality(),
		"steals", report.Steals,
		"duration", report.Duration,
	)
	return report, nil
}

func (e *Engine) nodeFor(i int) *numa.Node {
	if len(e.cfg.NUMANodes) == 0 {
		return nil
	}
	node := e.cfg.NUMANodes[i%len(e.cfg.NUMANodes)]
	return &node
}
