package format

import (
	"context"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/hupe1980/flashmat/blobstore"
	"github.com/hupe1980/flashmat/matrix"
)

// DefaultRowBlockSize is the number of rows per block if none is set.
const DefaultRowBlockSize = 4096

// WriterOptions configures a Writer.
type WriterOptions struct {
	RowBlockSize int
	Codec        Codec
}

// Writer streams rows into the data blob of a matrix and writes the index
// on Close.
type Writer struct {
	ctx   context.Context
	store blobstore.BlobStore
	name  string
	hdr   Header
	comp  Compressor
	data  blobstore.WritableBlob

	pending     []byte
	pendingRows int
	offsets     []uint64
	sums        []uint64
	written     uint64
	done        bool
}

// NewWriter starts writing matrix name with cols columns of typ.
func NewWriter(ctx context.Context, store blobstore.BlobStore, name string, typ matrix.ScalarType, cols int, opts WriterOptions) (*Writer, error) {
	if opts.RowBlockSize <= 0 {
		opts.RowBlockSize = DefaultRowBlockSize
	}
	hdr := Header{Type: typ, Codec: opts.Codec, Cols: cols, RowBlockSize: opts.RowBlockSize}
	if err := hdr.validate(); err != nil {
		return nil, err
	}
	comp, err := GetCompressor(opts.Codec)
	if err != nil {
		return nil, err
	}
	data, err := store.Create(ctx, DataName(name))
	if err != nil {
		return nil, fmt.Errorf("format: create %s: %w", DataName(name), err)
	}

	return &Writer{
		ctx:     ctx,
		store:   store,
		name:    name,
		hdr:     hdr,
		comp:    comp,
		data:    data,
		pending: make([]byte, opts.RowBlockSize*hdr.RowBytes()),
		offsets: []uint64{0},
	}, nil
}

// Append writes the rows of m, which must match the column count and
// element type of the writer.
func (w *Writer) Append(m matrix.Dense) error {
	if m.Cols() != w.hdr.Cols || m.Type() != w.hdr.Type {
		return fmt.Errorf("format: append %dx%d %v to %d columns of %v", m.Rows(), m.Cols(), m.Type(), w.hdr.Cols, w.hdr.Type)
	}
	return w.AppendRows(matrix.RowMajor(m).Raw())
}

// AppendRows writes whole rows given as raw row-major bytes.
func (w *Writer) AppendRows(raw []byte) error {
	if w.done {
		return errors.New("format: writer closed")
	}
	rowBytes := w.hdr.RowBytes()
	if len(raw)%rowBytes != 0 {
		return fmt.Errorf("format: %d bytes are not whole rows of %d bytes", len(raw), rowBytes)
	}

	for len(raw) > 0 {
		n := copy(w.pending[w.pendingRows*rowBytes:], raw)
		w.pendingRows += n / rowBytes
		w.hdr.Rows += n / rowBytes
		raw = raw[n:]
		if w.pendingRows == w.hdr.RowBlockSize {
			if err := w.flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Writer) flush() error {
	if w.pendingRows == 0 {
		return nil
	}
	if err := w.ctx.Err(); err != nil {
		return err
	}
	block, err := w.comp.Compress(w.pending[:w.pendingRows*w.hdr.RowBytes()])
	if err != nil {
		return fmt.Errorf("format: compress block %d: %w", len(w.sums), err)
	}
	if _, err := w.data.Write(block); err != nil {
		return fmt.Errorf("format: write block %d: %w", len(w.sums), err)
	}

	w.written += uint64(len(block))
	w.offsets = append(w.offsets, w.written)
	w.sums = append(w.sums, xxhash.Sum64(block))
	w.pendingRows = 0
	return nil
}

// Close flushes the last block, completes the data blob and writes the
// index.
func (w *Writer) Close() (*Index, error) {
	if w.done {
		return nil, errors.New("format: writer closed")
	}
	w.done = true

	if err := w.flush(); err != nil {
		_ = w.data.Close()
		return nil, err
	}
	if err := w.data.Close(); err != nil {
		return nil, fmt.Errorf("format: close %s: %w", DataName(w.name), err)
	}

	w.hdr.NumBlocks = len(w.sums)
	idx := &Index{Header: w.hdr, Offsets: w.offsets, Checksums: w.sums}
	buf, err := idx.MarshalBinary()
	if err != nil {
		return nil, err
	}
	if err := w.store.Put(w.ctx, IndexName(w.name), buf); err != nil {
		return nil, fmt.Errorf("format: write %s: %w", IndexName(w.name), err)
	}
	return idx, nil
}

// WriteMatrix stores m as matrix name.
func WriteMatrix(ctx context.Context, store blobstore.BlobStore, name string, m matrix.Dense, opts WriterOptions) (*Index, error) {
	w, err := NewWriter(ctx, store, name, m.Type(), m.Cols(), opts)
	if err != nil {
		return nil, err
	}
	if err := w.Append(m); err != nil {
		w.done = true
		_ = w.data.Close()
		return nil, err
	}
	return w.Close()
}

// ReadIndex loads the index of matrix name.
func ReadIndex(ctx context.Context, store blobstore.BlobStore, name string) (*Index, error) {
	buf, err := blobstore.ReadAll(ctx, store, IndexName(name))
	if err != nil {
		return nil, fmt.Errorf("format: read %s: %w", IndexName(name), err)
	}
	var idx Index
	if err := idx.UnmarshalBinary(buf); err != nil {
		return nil, err
	}
	return &idx, nil
}

// ReadMatrix loads a whole stored matrix into memory.
func ReadMatrix(ctx context.Context, store blobstore.BlobStore, name string) (*matrix.RowMatrix, error) {
	idx, err := ReadIndex(ctx, store, name)
	if err != nil {
		return nil, err
	}
	if idx.NumBlocks == 0 {
		return matrix.NewRow(0, idx.Cols, idx.Type), nil
	}

	data, err := blobstore.ReadAll(ctx, store, DataName(name))
	if err != nil {
		return nil, fmt.Errorf("format: read %s: %w", DataName(name), err)
	}
	return idx.DecodeBlocks(data, 0, idx.NumBlocks)
}
