package flashmat

import (
	"log/slog"

	"github.com/hupe1980/flashmat/format"
	"github.com/hupe1980/flashmat/internal/numa"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector

	numWorkers    int
	rbIOSize      int
	rbStealIOSize int
	maxPendingIO  int
	numaNodes     []numa.Node

	rowBlockSize int
	codec        format.Codec

	memoryLimit     int64
	ioLimit         int64
	blockCacheBytes int64
}

// Option configures Create and Open.
type Option func(*options)

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := flashmat.NewJSONLogger(slog.LevelInfo)
//	m, _ := flashmat.Open(ctx, store, "A", flashmat.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for block reads,
// steals, tasks and runs. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &flashmat.BasicMetricsCollector{}
//	m, _ := flashmat.Open(ctx, store, "A", flashmat.WithMetricsCollector(metrics))
//	// ... run operations ...
//	stats := metrics.GetStats()
//	fmt.Printf("Blocks read: %d, Steals: %d\n", stats.BlockReads, stats.Steals)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithWorkers sets the number of workers. Defaults to GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.numWorkers = n
	}
}

// WithIOSize sets the row blocks a worker reads from its own share at once
// and the row blocks it takes per steal.
func WithIOSize(rbIOSize, rbStealIOSize int) Option {
	return func(o *options) {
		o.rbIOSize = rbIOSize
		o.rbStealIOSize = rbStealIOSize
	}
}

// WithMaxPendingIO bounds the reads each worker keeps in flight.
func WithMaxPendingIO(n int) Option {
	return func(o *options) {
		o.maxPendingIO = n
	}
}

// WithNUMA pins workers round-robin to the NUMA nodes of the machine.
// It has no effect where the topology cannot be read.
func WithNUMA() Option {
	return func(o *options) {
		o.numaNodes = numa.Nodes()
	}
}

// WithRowBlockSize sets the rows per stored row block. Only Create uses it.
func WithRowBlockSize(rows int) Option {
	return func(o *options) {
		o.rowBlockSize = rows
	}
}

// WithCodec sets the block compression. Only Create uses it.
func WithCodec(c format.Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}

// WithMemoryLimit bounds the bytes of read buffers alive at once.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithIORateLimit throttles reads to bytesPerSec.
func WithIORateLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithBlockCache caches reads of remote blobs in an LRU cache of the given
// capacity.
func WithBlockCache(bytes int64) Option {
	return func(o *options) {
		o.blockCacheBytes = bytes
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		rowBlockSize:     format.DefaultRowBlockSize,
		codec:            format.CodecNone,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
