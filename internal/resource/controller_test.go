package resource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Memory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	require.NoError(t, c.AcquireMemory(t.Context(), 50))
	require.NoError(t, c.AcquireMemory(t.Context(), 40))
	assert.Equal(t, int64(90), c.MemoryUsage())
	assert.Equal(t, int64(100), c.MemoryLimit())

	assert.False(t, c.TryAcquireMemory(20))
	assert.Equal(t, int64(90), c.MemoryUsage())

	c.ReleaseMemory(50)
	assert.Equal(t, int64(40), c.MemoryUsage())
	assert.True(t, c.TryAcquireMemory(20))
	assert.Equal(t, int64(60), c.MemoryUsage())
}

func TestController_MemoryBlocksUntilRelease(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})
	require.NoError(t, c.AcquireMemory(t.Context(), 100))

	ctx, cancel := context.WithTimeout(t.Context(), 30*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.AcquireMemory(ctx, 1), context.DeadlineExceeded)

	done := make(chan error, 1)
	go func() { done <- c.AcquireMemory(t.Context(), 30) }()

	c.ReleaseMemory(40)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("acquire did not unblock after release")
	}
	assert.Equal(t, int64(90), c.MemoryUsage())
}

func TestController_OversizedReservation(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 10})
	assert.ErrorIs(t, c.AcquireMemory(t.Context(), 11), ErrMemoryLimitExceeded)
	assert.Equal(t, int64(0), c.MemoryUsage())
}

func TestController_Unlimited(t *testing.T) {
	c := NewController(Config{})
	require.NoError(t, c.AcquireMemory(t.Context(), 1<<40))
	assert.Equal(t, int64(1<<40), c.MemoryUsage())
	require.NoError(t, c.AcquireIO(t.Context(), 1<<30))
}

func TestController_IOInstallments(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1000})

	// The bucket starts full; a request of twice the burst must wait about a second.
	start := time.Now()
	require.NoError(t, c.AcquireIO(t.Context(), 2000))
	assert.GreaterOrEqual(t, time.Since(start), 500*time.Millisecond)
}

func TestController_Nil(t *testing.T) {
	var c *Controller
	require.NoError(t, c.AcquireMemory(t.Context(), 10))
	assert.True(t, c.TryAcquireMemory(10))
	c.ReleaseMemory(10)
	assert.Zero(t, c.MemoryUsage())
	assert.Zero(t, c.MemoryLimit())
	require.NoError(t, c.AcquireIO(t.Context(), 10))
}
