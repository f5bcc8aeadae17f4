package format

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/hupe1980/flashmat/matrix"
)

// BlockError reports a failure of one row block.
type BlockError struct {
	Block int
	Err   error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("format: row block %d: %v", e.Block, e.Err)
}

func (e *BlockError) Unwrap() error {
	return e.Err
}

// BlockRange returns the byte range in the data blob holding n blocks
// starting at first.
func (x *Index) BlockRange(first, n int) (off, size int64, err error) {
	if first < 0 || n <= 0 || first+n > x.NumBlocks {
		return 0, 0, fmt.Errorf("%w: blocks %d+%d of %d", ErrCorruptBlock, first, n, x.NumBlocks)
	}
	start, end := x.Offsets[first], x.Offsets[first+n]
	return int64(start), int64(end - start), nil //nolint:gosec // validated on decode
}

// DecodeBlocks verifies and decodes n consecutive blocks starting at first.
// data must hold exactly the bytes of BlockRange(first, n). The result is a
// row-major matrix of the rows of those blocks.
func (x *Index) DecodeBlocks(data []byte, first, n int) (*matrix.RowMatrix, error) {
	_, size, err := x.BlockRange(first, n)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) != size {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrCorruptBlock, len(data), size)
	}
	comp, err := GetCompressor(x.Codec)
	if err != nil {
		return nil, err
	}

	rows := 0
	for b := first; b < first+n; b++ {
		rows += x.BlockRows(b)
	}
	out := matrix.NewRow(rows, x.Cols, x.Type)
	raw := out.Raw()
	rowBytes := x.RowBytes()
	base := x.Offsets[first]

	row := 0
	for b := first; b < first+n; b++ {
		seg := data[x.Offsets[b]-base : x.Offsets[b+1]-base]
		if xxhash.Sum64(seg) != x.Checksums[b] {
			return nil, &BlockError{Block: b, Err: ErrChecksumMismatch}
		}
		br := x.BlockRows(b)
		dst := raw[row*rowBytes : (row+br)*rowBytes]
		if err := comp.Decompress(dst, seg); err != nil {
			return nil, &BlockError{Block: b, Err: fmt.Errorf("%w: %v: %w", ErrCorruptBlock, x.Codec, err)}
		}
		row += br
	}
	out.Touch()
	return out, nil
}
