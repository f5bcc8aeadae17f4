package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/flashmat/blobstore"
	"github.com/hupe1980/flashmat/format"
	"github.com/hupe1980/flashmat/internal/resource"
	"github.com/hupe1980/flashmat/matrix"
	"github.com/hupe1980/flashmat/matrixio"
)

// ErrUnknownFile is returned for a request naming a file the reader does
// not serve.
var ErrUnknownFile = errors.New("worker: unknown file")

// BlockReader performs the read of one request and decodes the bytes.
type BlockReader interface {
	ReadBlock(ctx context.Context, io matrixio.IORequest) (*matrix.RowMatrix, error)
}

// BlockReaderFunc adapts a function to BlockReader.
type BlockReaderFunc func(ctx context.Context, io matrixio.IORequest) (*matrix.RowMatrix, error)

func (f BlockReaderFunc) ReadBlock(ctx context.Context, io matrixio.IORequest) (*matrix.RowMatrix, error) {
	return f(ctx, io)
}

// File is an open data blob together with its index.
type File struct {
	Blob  blobstore.Blob
	Index *format.Index
}

// StoreReader reads row blocks from blobs. Mapped blobs are decoded in
// place; other blobs are read into a buffer charged against the memory
// budget of the resource controller.
type StoreReader struct {
	files map[int]File
	rc    *resource.Controller
}

// NewStoreReader creates a reader for files keyed by file id. rc may be nil.
func NewStoreReader(files map[int]File, rc *resource.Controller) *StoreReader {
	return &StoreReader{files: files, rc: rc}
}

// ReadBlock reads and decodes the blocks of io.
func (r *StoreReader) ReadBlock(ctx context.Context, io matrixio.IORequest) (*matrix.RowMatrix, error) {
	f, ok := r.files[io.FileID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFile, io.FileID)
	}
	first, n := io.Blocks(f.Index.RowBlockSize)
	off, size, err := f.Index.BlockRange(first, n)
	if err != nil {
		return nil, err
	}
	if off != io.Offset || size != io.Size {
		return nil, fmt.Errorf("%w: request %v does not match blocks %d+%d", format.ErrCorruptBlock, io, first, n)
	}

	if err := r.rc.AcquireIO(ctx, int(size)); err != nil {
		return nil, err
	}

	if m, ok := f.Blob.(blobstore.Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return nil, err
		}
		if off+size > int64(len(data)) {
			return nil, fmt.Errorf("%w: blocks %d+%d beyond end of data", format.ErrCorruptBlock, first, n)
		}
		if p, ok := f.Blob.(blobstore.Prefetcher); ok {
			_ = p.Prefetch(off, size)
		}
		return f.Index.DecodeBlocks(data[off:off+size], first, n)
	}

	if err := r.rc.AcquireMemory(ctx, size); err != nil {
		return nil, err
	}
	defer r.rc.ReleaseMemory(size)

	buf := make([]byte, size)
	if err := blobstore.ReadFull(ctx, f.Blob, buf, off); err != nil {
		return nil, fmt.Errorf("worker: read blocks %d+%d: %w", first, n, err)
	}
	return f.Index.DecodeBlocks(buf, first, n)
}
