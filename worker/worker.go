package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hupe1980/flashmat/internal/numa"
	"github.com/hupe1980/flashmat/matrixio"
)

// DefaultMaxPending is the number of reads a worker keeps in flight.
const DefaultMaxPending = 2

// Metrics receives per-block events. Implementations must be safe for
// concurrent use.
type Metrics interface {
	RecordBlockRead(bytes int64, d time.Duration, err error)
	RecordSteal(blocks int)
	RecordTask(d time.Duration, err error)
}

type noopMetrics struct{}

func (noopMetrics) RecordBlockRead(int64, time.Duration, error) {}
func (noopMetrics) RecordSteal(int)                             {}
func (noopMetrics) RecordTask(time.Duration, error)             {}

// Options configures a Worker.
type Options struct {
	// MaxPending bounds reads in flight. Defaults to DefaultMaxPending.
	MaxPending int
	Logger     *slog.Logger
	Metrics    Metrics
}

// Stats summarizes the work a worker did.
type Stats struct {
	Requests       int64
	FailedRequests int64
	Steals         int64
}

// Worker consumes I/O requests from its own generator and its peers.
type Worker struct {
	id      int
	node    *numa.Node
	self    *matrixio.Generator
	peers   []*matrixio.Generator
	reader  BlockReader
	creator TaskCreator

	maxPending int
	logger     *slog.Logger
	metrics    Metrics

	// stealFrom is the peer the next steal scan starts at. It stays on a
	// peer after a successful steal so the thief keeps draining it.
	stealFrom int
	exhausted bool

	requests atomic.Int64
	failed   atomic.Int64
	steals   atomic.Int64
}

// New creates worker id. peers lists every generator of the run and may
// include self. node selects the NUMA node to pin to; nil disables pinning.
func New(id int, node *numa.Node, self *matrixio.Generator, peers []*matrixio.Generator, reader BlockReader, creator TaskCreator, opts Options) *Worker {
	if opts.MaxPending <= 0 {
		opts.MaxPending = DefaultMaxPending
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Metrics == nil {
		opts.Metrics = noopMetrics{}
	}

	w := &Worker{
		id:         id,
		node:       node,
		self:       self,
		peers:      peers,
		reader:     reader,
		creator:    creator,
		maxPending: opts.MaxPending,
		logger:     opts.Logger.With("worker", id),
		metrics:    opts.Metrics,
	}
	if len(peers) > 0 {
		w.stealFrom = (id + 1) % len(peers)
	}
	return w
}

// ID returns the worker id.
func (w *Worker) ID() int {
	return w.id
}

// Stats returns the counters of the worker.
func (w *Worker) Stats() Stats {
	return Stats{
		Requests:       w.requests.Load(),
		FailedRequests: w.failed.Load(),
		Steals:         w.steals.Load(),
	}
}

// Run processes requests until every generator is exhausted and no read is
// in flight. It returns the first task error or ctx.Err().
func (w *Worker) Run(ctx context.Context) error {
	if w.node != nil {
		unpin, err := numa.Pin(*w.node)
		if err != nil {
			w.logger.WarnContext(ctx, "numa pinning failed", "node", w.node.ID, "error", err)
		}
		defer unpin()
	}

	// The buffer holds every in-flight read, so readers never block even if
	// Run returns early.
	results := make(chan Block, w.maxPending)
	inflight := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		for inflight < w.maxPending {
			req, ok := w.nextIO()
			if !ok {
				break
			}
			inflight++
			go w.read(ctx, req, results)
		}
		if inflight == 0 {
			return nil
		}

		var b Block
		select {
		case b = <-results:
		case <-ctx.Done():
			return ctx.Err()
		}
		inflight--

		if err := w.runTask(ctx, b); err != nil {
			return err
		}
	}
}

// nextIO returns the next request: an owned chunk if any, else a stolen
// slice from the first peer with work in round-robin order.
func (w *Worker) nextIO() (matrixio.IORequest, bool) {
	if w.exhausted {
		return matrixio.IORequest{}, false
	}
	if req := w.self.NextIO(); req.Valid() {
		return req, true
	}

	n := len(w.peers)
	for i := range n {
		idx := (w.stealFrom + i) % n
		p := w.peers[idx]
		if p == w.self {
			continue
		}
		if req := p.StealIO(); req.Valid() {
			w.stealFrom = idx
			_, blocks := req.Blocks(p.Config().RowBlockSize)
			w.steals.Add(1)
			w.metrics.RecordSteal(blocks)
			w.logger.Debug("stole blocks", "victim", p.ID(), "row", req.TopLeft.Row, "blocks", blocks)
			return req, true
		}
	}

	// Generators never refill, so one empty scan is final.
	w.exhausted = true
	return matrixio.IORequest{}, false
}

func (w *Worker) read(ctx context.Context, req matrixio.IORequest, results chan<- Block) {
	start := time.Now()
	m, err := w.reader.ReadBlock(ctx, req)
	w.metrics.RecordBlockRead(req.Size, time.Since(start), err)
	if err != nil {
		m = nil
	}
	results <- Block{IO: req, Matrix: m, Err: err}
}

func (w *Worker) runTask(ctx context.Context, b Block) error {
	w.requests.Add(1)
	if b.Failed() {
		w.failed.Add(1)
		w.logger.WarnContext(ctx, "block read failed", "row", b.IO.TopLeft.Row, "rows", b.IO.NumRows, "error", b.Err)
	}

	start := time.Now()
	err := w.creator.Create(b.IO).Run(ctx, b)
	w.metrics.RecordTask(time.Since(start), err)
	if err != nil {
		return fmt.Errorf("worker %d: task at row %d: %w", w.id, b.IO.TopLeft.Row, err)
	}
	return nil
}
