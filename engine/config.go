package engine

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/hupe1980/flashmat/internal/numa"
	"github.com/hupe1980/flashmat/matrixio"
	"github.com/hupe1980/flashmat/worker"
)

// Metrics receives worker events and one summary per run.
type Metrics interface {
	worker.Metrics
	RecordRun(d time.Duration, blocks int, err error)
}

type noopMetrics struct{}

func (noopMetrics) RecordBlockRead(int64, time.Duration, error) {}
func (noopMetrics) RecordSteal(int)                             {}
func (noopMetrics) RecordTask(time.Duration, error)             {}
func (noopMetrics) RecordRun(time.Duration, int, error)         {}

// Config configures an Engine.
type Config struct {
	// RBIOSize is the number of row blocks in one owned chunk.
	RBIOSize int
	// RBStealIOSize bounds the row blocks taken by one steal.
	RBStealIOSize int
	// NumWorkers defaults to GOMAXPROCS.
	NumWorkers int
	// NUMANodes assigns node i%len(NUMANodes) to worker i. Empty disables
	// pinning.
	NUMANodes []numa.Node
	// MaxPendingIO bounds reads in flight per worker.
	MaxPendingIO int
	// MemoryLimitBytes bounds read buffers alive at once. Zero is unlimited.
	MemoryLimitBytes int64
	// IOLimitBytesPerSec throttles reads. Zero is unlimited.
	IOLimitBytesPerSec int64

	Logger  *slog.Logger
	Metrics Metrics
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	d := matrixio.DefaultConfig()
	return Config{
		RBIOSize:      d.RBIOSize,
		RBStealIOSize: d.RBStealIOSize,
		NumWorkers:    runtime.GOMAXPROCS(0),
		MaxPendingIO:  worker.DefaultMaxPending,
	}
}

func (c Config) normalize() Config {
	d := DefaultConfig()
	if c.RBIOSize <= 0 {
		c.RBIOSize = d.RBIOSize
	}
	if c.RBStealIOSize <= 0 {
		c.RBStealIOSize = d.RBStealIOSize
	}
	if c.NumWorkers <= 0 {
		c.NumWorkers = d.NumWorkers
	}
	if c.MaxPendingIO <= 0 {
		c.MaxPendingIO = d.MaxPendingIO
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.Metrics == nil {
		c.Metrics = noopMetrics{}
	}
	return c
}

func (c Config) generatorConfig(rowBlockSize int) matrixio.Config {
	return matrixio.Config{
		RowBlockSize:  rowBlockSize,
		RBIOSize:      c.RBIOSize,
		RBStealIOSize: c.RBStealIOSize,
	}
}
