package flashmat

import (
	"context"
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
// Methods are called concurrently from all workers.
type MetricsCollector interface {
	// RecordBlockRead is called after each read of row blocks. bytes is the
	// stored size of the request, err is nil if successful.
	RecordBlockRead(bytes int64, duration time.Duration, err error)

	// RecordSteal is called when a worker takes blocks from a peer.
	RecordSteal(blocks int)

	// RecordTask is called after each task.
	RecordTask(duration time.Duration, err error)

	// RecordRun is called once per out-of-core operation.
	RecordRun(duration time.Duration, blocks int, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordBlockRead(int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordSteal(int)                             {}
func (NoopMetricsCollector) RecordTask(time.Duration, error)             {}
func (NoopMetricsCollector) RecordRun(time.Duration, int, error)         {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	BlockReads      atomic.Int64
	BlockReadErrors atomic.Int64
	BytesRead       atomic.Int64
	ReadTotalNanos  atomic.Int64
	Steals          atomic.Int64
	StolenBlocks    atomic.Int64
	TaskCount       atomic.Int64
	TaskErrors      atomic.Int64
	TaskTotalNanos  atomic.Int64
	RunCount        atomic.Int64
	RunErrors       atomic.Int64
	RunBlocks       atomic.Int64
}

// RecordBlockRead implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBlockRead(bytes int64, duration time.Duration, err error) {
	b.BlockReads.Add(1)
	b.ReadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BlockReadErrors.Add(1)
		return
	}
	b.BytesRead.Add(bytes)
}

// RecordSteal implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSteal(blocks int) {
	b.Steals.Add(1)
	b.StolenBlocks.Add(int64(blocks))
}

// RecordTask implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTask(duration time.Duration, err error) {
	b.TaskCount.Add(1)
	b.TaskTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.TaskErrors.Add(1)
	}
}

// RecordRun implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRun(_ time.Duration, blocks int, err error) {
	b.RunCount.Add(1)
	b.RunBlocks.Add(int64(blocks))
	if err != nil {
		b.RunErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		BlockReads:      b.BlockReads.Load(),
		BlockReadErrors: b.BlockReadErrors.Load(),
		BytesRead:       b.BytesRead.Load(),
		ReadAvgNanos:    avg(b.ReadTotalNanos.Load(), b.BlockReads.Load()),
		Steals:          b.Steals.Load(),
		StolenBlocks:    b.StolenBlocks.Load(),
		TaskCount:       b.TaskCount.Load(),
		TaskErrors:      b.TaskErrors.Load(),
		TaskAvgNanos:    avg(b.TaskTotalNanos.Load(), b.TaskCount.Load()),
		RunCount:        b.RunCount.Load(),
		RunErrors:       b.RunErrors.Load(),
		RunBlocks:       b.RunBlocks.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	BlockReads      int64
	BlockReadErrors int64
	BytesRead       int64
	ReadAvgNanos    int64
	Steals          int64
	StolenBlocks    int64
	TaskCount       int64
	TaskErrors      int64
	TaskAvgNanos    int64
	RunCount        int64
	RunErrors       int64
	RunBlocks       int64
}

// observer feeds engine events to the collector and steals to the logger.
type observer struct {
	MetricsCollector
	logger *Logger
}

func (o observer) RecordSteal(blocks int) {
	o.MetricsCollector.RecordSteal(blocks)
	o.logger.LogSteal(context.Background(), blocks)
}
