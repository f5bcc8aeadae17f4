package format

import (
	"context"
	"crypto/rand"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/flashmat/blobstore"
	"github.com/hupe1980/flashmat/matrix"
)

var codecs = []Codec{CodecNone, CodecLZ4, CodecZstd, CodecS2}

func seqMatrix(rows, cols int) *matrix.RowMatrix {
	m := matrix.NewRow(rows, cols, matrix.Float64)
	m.SetData(matrix.Seq[float64](0, 0.5, rows, cols, true))
	return m
}

func TestWriteRead_RoundTrip(t *testing.T) {
	for _, c := range codecs {
		t.Run(c.String(), func(t *testing.T) {
			ctx := context.Background()
			store := blobstore.NewMemoryStore()
			m := seqMatrix(103, 7)

			idx, err := WriteMatrix(ctx, store, "A", m, WriterOptions{RowBlockSize: 10, Codec: c})
			require.NoError(t, err)
			assert.Equal(t, 11, idx.NumBlocks)
			assert.Equal(t, 3, idx.BlockRows(10))

			got, err := ReadMatrix(ctx, store, "A")
			require.NoError(t, err)
			assert.True(t, matrix.Equal(m, got))

			read, err := ReadIndex(ctx, store, "A")
			require.NoError(t, err)
			assert.Equal(t, idx.Header, read.Header)
			assert.Equal(t, idx.Offsets, read.Offsets)
			require.NoError(t, read.RowBlocks().Validate(10))
		})
	}
}

func TestDecodeBlocks_Range(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	m := seqMatrix(50, 3)
	idx, err := WriteMatrix(ctx, store, "A", m, WriterOptions{RowBlockSize: 8, Codec: CodecZstd})
	require.NoError(t, err)

	data, err := blobstore.ReadAll(ctx, store, DataName("A"))
	require.NoError(t, err)

	off, size, err := idx.BlockRange(2, 3)
	require.NoError(t, err)
	blk, err := idx.DecodeBlocks(data[off:off+size], 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 24, blk.Rows())
	assert.Equal(t, matrix.At[float64](m, 16, 2), matrix.At[float64](blk, 0, 2))

	_, _, err = idx.BlockRange(6, 2)
	assert.ErrorIs(t, err, ErrCorruptBlock)
	_, err = idx.DecodeBlocks(data[off:off+size-1], 2, 3)
	assert.ErrorIs(t, err, ErrCorruptBlock)
}

func TestDecodeBlocks_ChecksumMismatch(t *testing.T) {
	for _, c := range codecs {
		t.Run(c.String(), func(t *testing.T) {
			ctx := context.Background()
			store := blobstore.NewMemoryStore()
			idx, err := WriteMatrix(ctx, store, "A", seqMatrix(20, 4), WriterOptions{RowBlockSize: 5, Codec: c})
			require.NoError(t, err)

			data, err := blobstore.ReadAll(ctx, store, DataName("A"))
			require.NoError(t, err)
			data[idx.Offsets[2]+1] ^= 0xFF

			_, err = idx.DecodeBlocks(data, 0, idx.NumBlocks)
			require.ErrorIs(t, err, ErrChecksumMismatch)
			var be *BlockError
			require.ErrorAs(t, err, &be)
			assert.Equal(t, 2, be.Block)
		})
	}
}

func TestIndex_Corruption(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	idx, err := WriteMatrix(ctx, store, "A", seqMatrix(9, 2), WriterOptions{RowBlockSize: 4})
	require.NoError(t, err)
	buf, err := idx.MarshalBinary()
	require.NoError(t, err)

	flipped := append([]byte(nil), buf...)
	flipped[10] ^= 1
	assert.ErrorIs(t, new(Index).UnmarshalBinary(flipped), ErrChecksumMismatch)
	assert.ErrorIs(t, new(Index).UnmarshalBinary(buf[:20]), ErrInvalidHeader)

	bad := *idx
	bad.NumBlocks = 7
	_, err = bad.MarshalBinary()
	assert.ErrorIs(t, err, ErrInvalidHeader)

	_, err = ReadIndex(ctx, store, "missing")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestWriter_Streaming(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewLocalStore(t.TempDir())
	full := seqMatrix(37, 5)

	w, err := NewWriter(ctx, store, "S", matrix.Float64, 5, WriterOptions{RowBlockSize: 6, Codec: CodecS2})
	require.NoError(t, err)
	rm := matrix.RowMajor(full)
	for r := 0; r < 37; r += 4 {
		end := min(r+4, 37)
		require.NoError(t, w.AppendRows(rm.Raw()[r*40:end*40]))
	}
	assert.Error(t, w.AppendRows(make([]byte, 7)))
	assert.Error(t, w.Append(matrix.NewRow(1, 4, matrix.Float64)))

	idx, err := w.Close()
	require.NoError(t, err)
	assert.Equal(t, 37, idx.Rows)
	_, err = w.Close()
	assert.Error(t, err)

	got, err := ReadMatrix(ctx, store, "S")
	require.NoError(t, err)
	assert.True(t, matrix.Equal(full, got))
}

func TestWriter_EmptyMatrix(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	idx, err := WriteMatrix(ctx, store, "E", matrix.NewRow(0, 3, matrix.Int32), WriterOptions{})
	require.NoError(t, err)
	assert.Zero(t, idx.NumBlocks)

	got, err := ReadMatrix(ctx, store, "E")
	require.NoError(t, err)
	assert.Zero(t, got.Rows())
}

func TestCompressors(t *testing.T) {
	random := make([]byte, 5000)
	_, _ = rand.Read(random)
	inputs := map[string][]byte{
		"random": random,
		"zeros":  make([]byte, 4096),
		"small":  []byte("abc"),
	}
	for _, c := range codecs {
		comp, err := GetCompressor(c)
		require.NoError(t, err)
		for name, in := range inputs {
			t.Run(fmt.Sprintf("%v/%s", c, name), func(t *testing.T) {
				enc, err := comp.Compress(append([]byte(nil), in...))
				require.NoError(t, err)
				out := make([]byte, len(in))
				require.NoError(t, comp.Decompress(out, enc))
				assert.Equal(t, in, out)
				assert.Error(t, comp.Decompress(make([]byte, len(in)+1), enc))
			})
		}
	}

	_, err := GetCompressor(Codec(9))
	assert.ErrorIs(t, err, ErrInvalidHeader)
}
