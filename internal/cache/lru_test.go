package cache

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/flashmat/internal/resource"
)

func TestLRUBlockCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewLRUBlockCache(10, nil)

	c.Set(ctx, Key{Path: "a", Block: 0}, []byte("1234"))
	c.Set(ctx, Key{Path: "a", Block: 1}, []byte("5678"))

	v, ok := c.Get(ctx, Key{Path: "a", Block: 0})
	require.True(t, ok)
	assert.Equal(t, "1234", string(v))

	// Block 1 is least recently used and makes room for block 2.
	c.Set(ctx, Key{Path: "a", Block: 2}, []byte("9abc"))
	_, ok = c.Get(ctx, Key{Path: "a", Block: 1})
	assert.False(t, ok)
	assert.Equal(t, int64(8), c.Size())
	assert.Equal(t, 2, c.Len())

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestLRUBlockCache_ReplaceAndOversized(t *testing.T) {
	ctx := context.Background()
	c := NewLRUBlockCache(8, nil)

	key := Key{Path: "m", Block: 3}
	c.Set(ctx, key, []byte("ab"))
	c.Set(ctx, key, []byte("abcd"))
	assert.Equal(t, int64(4), c.Size())

	c.Set(ctx, Key{Path: "m", Block: 4}, []byte(strings.Repeat("x", 9)))
	assert.Equal(t, 1, c.Len())
}

func TestLRUBlockCache_ResourceAccounting(t *testing.T) {
	ctx := context.Background()
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 6})
	c := NewLRUBlockCache(100, rc)

	c.Set(ctx, Key{Path: "a"}, []byte("1234"))
	assert.Equal(t, int64(4), rc.MemoryUsage())

	// The controller refuses the second block even though the cache has room.
	c.Set(ctx, Key{Path: "b"}, []byte("5678"))
	_, ok := c.Get(ctx, Key{Path: "b"})
	assert.False(t, ok)

	c.Invalidate(func(k Key) bool { return k.Path == "a" })
	assert.Equal(t, int64(0), rc.MemoryUsage())
	assert.Equal(t, 0, c.Len())
}

func TestLRUBlockCache_Concurrent(t *testing.T) {
	ctx := context.Background()
	c := NewLRUBlockCache(1<<20, nil)

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				key := Key{Path: "p", Block: uint64(g*100 + i)}
				c.Set(ctx, key, []byte{byte(i)})
				v, ok := c.Get(ctx, key)
				if assert.True(t, ok) {
					assert.Equal(t, byte(i), v[0])
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 800, c.Len())
}
