package matrixio

import (
	"errors"
	"fmt"
)

// ErrInvalidIndex is returned for a row block index that violates its
// invariants.
var ErrInvalidIndex = errors.New("matrixio: invalid row block index")

// RowBlock is the start offset of one row block in the data file.
type RowBlock struct {
	Offset uint64
}

// RowBlockIndex describes the row blocks of a row-major matrix file.
// Blocks holds N+1 entries for N blocks; the last entry is the end of the
// file. Every block holds RowBlockSize rows except possibly the last.
type RowBlockIndex struct {
	Blocks  []RowBlock
	NumRows int
}

// NumBlocks returns the number of row blocks.
func (x RowBlockIndex) NumBlocks() int {
	return max(0, len(x.Blocks)-1)
}

// FileSize returns the offset of the end sentinel.
func (x RowBlockIndex) FileSize() uint64 {
	if len(x.Blocks) == 0 {
		return 0
	}
	return x.Blocks[len(x.Blocks)-1].Offset
}

// Validate checks that offsets strictly increase and that the block count
// matches NumRows for the given row block size.
func (x RowBlockIndex) Validate(rowBlockSize int) error {
	if rowBlockSize <= 0 {
		return fmt.Errorf("%w: row block size %d", ErrInvalidIndex, rowBlockSize)
	}
	if x.NumRows < 0 {
		return fmt.Errorf("%w: %d rows", ErrInvalidIndex, x.NumRows)
	}
	want := (x.NumRows + rowBlockSize - 1) / rowBlockSize
	if x.NumBlocks() != want {
		return fmt.Errorf("%w: %d blocks for %d rows of block size %d", ErrInvalidIndex, x.NumBlocks(), x.NumRows, rowBlockSize)
	}
	for i := 1; i < len(x.Blocks); i++ {
		if x.Blocks[i].Offset <= x.Blocks[i-1].Offset {
			return fmt.Errorf("%w: offset %d of block %d does not follow %d", ErrInvalidIndex, x.Blocks[i].Offset, i, x.Blocks[i-1].Offset)
		}
	}
	return nil
}

// Loc is the position of the top-left element of a block.
type Loc struct {
	Row int
	Col int
}

// IORequest describes one contiguous read of whole row blocks. The zero
// value is the empty request returned when no work remains.
type IORequest struct {
	TopLeft Loc
	NumRows int
	NumCols int
	FileID  int
	Offset  int64
	Size    int64

	valid bool
}

// Valid reports whether r describes work.
func (r IORequest) Valid() bool {
	return r.valid
}

// Blocks returns the range of row blocks r covers.
func (r IORequest) Blocks(rowBlockSize int) (first, n int) {
	if !r.valid {
		return 0, 0
	}
	first = r.TopLeft.Row / rowBlockSize
	n = (r.NumRows + rowBlockSize - 1) / rowBlockSize
	return first, n
}

func (r IORequest) String() string {
	if !r.valid {
		return "IORequest(empty)"
	}
	return fmt.Sprintf("IORequest(file %d, rows %d+%d, bytes %d+%d)", r.FileID, r.TopLeft.Row, r.NumRows, r.Offset, r.Size)
}
