package blobstore

import (
	"context"
	"errors"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/flashmat/internal/cache"
)

// DefaultCacheBlockSize is the storage block granularity of CachingStore.
const DefaultCacheBlockSize = 256 << 10

// CachingStore wraps a BlobStore and serves reads through a block cache.
// It is meant for remote stores read repeatedly by iterative algorithms.
type CachingStore struct {
	inner     BlobStore
	cache     cache.BlockCache
	blockSize int64
}

// NewCachingStore creates a CachingStore. blockSize defaults to
// DefaultCacheBlockSize if <= 0.
func NewCachingStore(inner BlobStore, c cache.BlockCache, blockSize int64) *CachingStore {
	if blockSize <= 0 {
		blockSize = DefaultCacheBlockSize
	}
	return &CachingStore{inner: inner, cache: c, blockSize: blockSize}
}

// Open opens a cached view of a blob.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &cachingBlob{inner: b, cache: s.cache, name: name, blockSize: s.blockSize}, nil
}

// Create passes through; blobs are immutable once closed.
func (s *CachingStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	s.invalidate(name)
	return s.inner.Create(ctx, name)
}

// Put writes through and drops cached blocks of name.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.invalidate(name)
	return s.inner.Put(ctx, name, data)
}

// Delete removes the blob and its cached blocks.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.invalidate(name)
	return s.inner.Delete(ctx, name)
}

// List passes through.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

func (s *CachingStore) invalidate(name string) {
	s.cache.Invalidate(func(k cache.Key) bool { return k.Path == name })
}

type cachingBlob struct {
	inner     Blob
	cache     cache.BlockCache
	name      string
	blockSize int64
}

func (b *cachingBlob) Size() int64 {
	return b.inner.Size()
}

func (b *cachingBlob) Close() error {
	return b.inner.Close()
}

func (b *cachingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	size := b.Size()
	if off < 0 || off >= size {
		return 0, io.EOF
	}

	want := p
	if off+int64(len(p)) > size {
		want = p[:size-off]
	}

	first := off / b.blockSize
	last := (off + int64(len(want)) - 1) / b.blockSize
	if err := b.fill(ctx, first, last); err != nil {
		return 0, err
	}

	n := 0
	for blk := first; blk <= last; blk++ {
		data, err := b.block(ctx, blk)
		if err != nil {
			return n, err
		}
		blkStart := blk * b.blockSize
		src := max(off+int64(n), blkStart) - blkStart
		if src >= int64(len(data)) {
			break
		}
		n += copy(want[n:], data[src:])
	}

	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// fill loads every missing block in [first, last], coalescing runs of
// adjacent misses into single backend reads.
func (b *cachingBlob) fill(ctx context.Context, first, last int64) error {
	type run struct{ start, count int64 }
	var runs []run

	for blk := first; blk <= last; blk++ {
		if _, ok := b.cache.Get(ctx, b.key(blk)); ok {
			continue
		}
		if n := len(runs); n > 0 && runs[n-1].start+runs[n-1].count == blk {
			runs[n-1].count++
			continue
		}
		runs = append(runs, run{start: blk, count: 1})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(16)
	for _, r := range runs {
		g.Go(func() error {
			start := r.start * b.blockSize
			length := min(r.count*b.blockSize, b.Size()-start)
			if length <= 0 {
				return nil
			}
			buf := make([]byte, length)
			n, err := b.inner.ReadAt(gctx, buf, start)
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			buf = buf[:n]
			for i := int64(0); i < r.count; i++ {
				lo := i * b.blockSize
				if lo >= int64(len(buf)) {
					break
				}
				hi := min(lo+b.blockSize, int64(len(buf)))
				// Copy so one cached block does not pin the whole run.
				b.cache.Set(gctx, b.key(r.start+i), append([]byte(nil), buf[lo:hi]...))
			}
			return nil
		})
	}
	return g.Wait()
}

// block returns one storage block, reading it directly if the cache did not
// keep it.
func (b *cachingBlob) block(ctx context.Context, blk int64) ([]byte, error) {
	if data, ok := b.cache.Get(ctx, b.key(blk)); ok {
		return data, nil
	}
	start := blk * b.blockSize
	buf := make([]byte, min(b.blockSize, b.Size()-start))
	n, err := b.inner.ReadAt(ctx, buf, start)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:n], nil
}

func (b *cachingBlob) key(blk int64) cache.Key {
	return cache.Key{Path: b.name, Block: uint64(blk)}
}
