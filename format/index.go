package format

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/hupe1980/flashmat/internal/conv"
	"github.com/hupe1980/flashmat/matrix"
	"github.com/hupe1980/flashmat/matrixio"
)

var (
	// ErrInvalidHeader is returned for an index blob that cannot be parsed.
	ErrInvalidHeader = errors.New("format: invalid header")
	// ErrChecksumMismatch is returned when stored bytes do not match their
	// checksum.
	ErrChecksumMismatch = errors.New("format: checksum mismatch")
	// ErrCorruptBlock is returned when a row block cannot be decoded.
	ErrCorruptBlock = errors.New("format: corrupt block")
)

const (
	// Version is the current index format version.
	Version = 1

	headerSize = 40
)

var magic = [4]byte{'F', 'M', 'R', 'B'}

// DataName and IndexName return the blob names of matrix name.
func DataName(name string) string  { return name + ".data" }
func IndexName(name string) string { return name + ".index" }

// Header describes a stored matrix.
//
//	magic        [4]byte "FMRB"
//	version      uint16
//	type         uint8
//	codec        uint8
//	rows         uint64
//	cols         uint64
//	rowBlockSize uint32
//	_            uint32
//	numBlocks    uint64
type Header struct {
	Type         matrix.ScalarType
	Codec        Codec
	Rows         int
	Cols         int
	RowBlockSize int
	NumBlocks    int
}

// RowBytes returns the decoded size of one row.
func (h Header) RowBytes() int {
	return h.Cols * h.Type.Size()
}

// BlockRows returns the number of rows in block i.
func (h Header) BlockRows(i int) int {
	return min(h.RowBlockSize, h.Rows-i*h.RowBlockSize)
}

func (h Header) validate() error {
	if !h.Type.Valid() {
		return fmt.Errorf("%w: element type %d", ErrInvalidHeader, h.Type)
	}
	if h.Codec > CodecS2 {
		return fmt.Errorf("%w: codec %d", ErrInvalidHeader, h.Codec)
	}
	if h.Rows < 0 || h.Cols <= 0 || h.RowBlockSize <= 0 || int64(h.RowBlockSize) > math.MaxUint32 {
		return fmt.Errorf("%w: shape %dx%d, row block size %d", ErrInvalidHeader, h.Rows, h.Cols, h.RowBlockSize)
	}
	if want := (h.Rows + h.RowBlockSize - 1) / h.RowBlockSize; h.NumBlocks != want {
		return fmt.Errorf("%w: %d blocks for %d rows", ErrInvalidHeader, h.NumBlocks, h.Rows)
	}
	return nil
}

// Index is the decoded index blob of a matrix.
type Index struct {
	Header
	// Offsets has NumBlocks+1 entries; the last is the data blob size.
	Offsets []uint64
	// Checksums holds the xxhash64 of each stored block.
	Checksums []uint64
}

// RowBlocks returns the index in the form the I/O generators consume.
func (x *Index) RowBlocks() matrixio.RowBlockIndex {
	blocks := make([]matrixio.RowBlock, len(x.Offsets))
	for i, off := range x.Offsets {
		blocks[i] = matrixio.RowBlock{Offset: off}
	}
	return matrixio.RowBlockIndex{Blocks: blocks, NumRows: x.Rows}
}

// DataSize returns the size of the data blob.
func (x *Index) DataSize() int64 {
	if len(x.Offsets) == 0 {
		return 0
	}
	return int64(x.Offsets[len(x.Offsets)-1]) //nolint:gosec // validated on decode
}

// MarshalBinary encodes the index blob.
func (x *Index) MarshalBinary() ([]byte, error) {
	if err := x.validate(); err != nil {
		return nil, err
	}
	if len(x.Offsets) != x.NumBlocks+1 || len(x.Checksums) != x.NumBlocks {
		return nil, fmt.Errorf("%w: %d offsets, %d checksums for %d blocks", ErrInvalidHeader, len(x.Offsets), len(x.Checksums), x.NumBlocks)
	}

	buf := make([]byte, headerSize, headerSize+16*x.NumBlocks+16)
	copy(buf[0:4], magic[:])
	binary.LittleEndian.PutUint16(buf[4:6], Version)
	buf[6] = byte(x.Type)
	buf[7] = byte(x.Codec)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(x.Rows))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(x.Cols))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(x.RowBlockSize)) //nolint:gosec // bounded by validate
	binary.LittleEndian.PutUint64(buf[32:40], uint64(x.NumBlocks))

	for _, off := range x.Offsets {
		buf = binary.LittleEndian.AppendUint64(buf, off)
	}
	for _, sum := range x.Checksums {
		buf = binary.LittleEndian.AppendUint64(buf, sum)
	}
	return binary.LittleEndian.AppendUint64(buf, xxhash.Sum64(buf)), nil
}

// UnmarshalBinary decodes and validates an index blob.
func (x *Index) UnmarshalBinary(data []byte) error {
	if len(data) < headerSize+8 {
		return fmt.Errorf("%w: %d bytes", ErrInvalidHeader, len(data))
	}
	body, trailer := data[:len(data)-8], data[len(data)-8:]
	if xxhash.Sum64(body) != binary.LittleEndian.Uint64(trailer) {
		return fmt.Errorf("%w: index", ErrChecksumMismatch)
	}
	if [4]byte(body[0:4]) != magic {
		return fmt.Errorf("%w: bad magic %q", ErrInvalidHeader, body[0:4])
	}
	if v := binary.LittleEndian.Uint16(body[4:6]); v != Version {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidHeader, v)
	}

	var h Header
	h.Type = matrix.ScalarType(body[6])
	h.Codec = Codec(body[7])
	fields := []struct {
		dst *int
		v   uint64
	}{
		{&h.Rows, binary.LittleEndian.Uint64(body[8:16])},
		{&h.Cols, binary.LittleEndian.Uint64(body[16:24])},
		{&h.RowBlockSize, uint64(binary.LittleEndian.Uint32(body[24:28]))},
		{&h.NumBlocks, binary.LittleEndian.Uint64(body[32:40])},
	}
	for _, f := range fields {
		n, err := conv.Uint64ToInt(f.v)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidHeader, err)
		}
		*f.dst = n
	}
	if err := h.validate(); err != nil {
		return err
	}

	rest := body[headerSize:]
	if len(rest) != 8*(2*h.NumBlocks+1) {
		return fmt.Errorf("%w: %d index bytes for %d blocks", ErrInvalidHeader, len(rest), h.NumBlocks)
	}
	offsets := make([]uint64, h.NumBlocks+1)
	for i := range offsets {
		offsets[i] = binary.LittleEndian.Uint64(rest[8*i:])
	}
	rest = rest[8*len(offsets):]
	sums := make([]uint64, h.NumBlocks)
	for i := range sums {
		sums[i] = binary.LittleEndian.Uint64(rest[8*i:])
	}

	idx := Index{Header: h, Offsets: offsets, Checksums: sums}
	if offsets[0] != 0 {
		return fmt.Errorf("%w: first block at %d", ErrInvalidHeader, offsets[0])
	}
	if _, err := conv.Uint64ToInt64(offsets[len(offsets)-1]); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}
	if err := idx.RowBlocks().Validate(h.RowBlockSize); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}
	*x = idx
	return nil
}
