package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist. It is os.ErrNotExist so
// errors.Is works across backends.
var ErrNotFound = os.ErrNotExist

// BlobStore opens and writes named blobs.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Create creates a blob for streaming writes. The blob becomes visible
	// when the returned writer is closed.
	Create(ctx context.Context, name string) (WritableBlob, error)
	// Put writes a whole blob atomically.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a stored blob.
type Blob interface {
	// ReadAt reads len(p) bytes at off. Like io.ReaderAt it returns io.EOF
	// together with a short count at the end of the blob.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// Size returns the blob length in bytes.
	Size() int64
	io.Closer
}

// WritableBlob is a blob being written.
type WritableBlob interface {
	io.Writer
	io.Closer
	// Sync flushes buffered data to durable storage where supported.
	Sync() error
}

// Mappable is implemented by blobs whose whole content is addressable in
// memory without a copy.
type Mappable interface {
	// Bytes returns the content; it is valid until the blob is closed.
	Bytes() ([]byte, error)
}

// Prefetcher is implemented by blobs that can start loading a range before
// it is read.
type Prefetcher interface {
	Prefetch(off, size int64) error
}

// ReadFull reads exactly len(p) bytes at off, turning a short read into
// io.ErrUnexpectedEOF.
func ReadFull(ctx context.Context, b Blob, p []byte, off int64) error {
	n, err := b.ReadAt(ctx, p, off)
	if n == len(p) {
		return nil
	}
	if err == nil || err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// ReadAll reads a whole blob.
func ReadAll(ctx context.Context, s BlobStore, name string) ([]byte, error) {
	b, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	buf := make([]byte, b.Size())
	if err := ReadFull(ctx, b, buf, 0); err != nil {
		return nil, err
	}
	return buf, nil
}
