package matrixio

// RowRangeCursor is the unconsumed part of one chunk of contiguous row
// blocks. It is owned by a single Generator and only mutated under its lock.
type RowRangeCursor struct {
	blocks       []RowBlock
	rowBlockSize int
	numCols      int
	fileID       int

	first     int
	numBlocks int
	totRows   int
}

func newCursor(x RowBlockIndex, first, numBlocks, numCols, fileID, rowBlockSize int) RowRangeCursor {
	return RowRangeCursor{
		blocks:       x.Blocks,
		rowBlockSize: rowBlockSize,
		numCols:      numCols,
		fileID:       fileID,
		first:        first,
		numBlocks:    numBlocks,
		// The last chunk of the file may end in a short block.
		totRows: min(numBlocks*rowBlockSize, x.NumRows-first*rowBlockSize),
	}
}

// HasData reports whether blocks remain.
func (c *RowRangeCursor) HasData() bool {
	return c.numBlocks > 0
}

// TakeWhole returns a request for all remaining blocks and empties c.
func (c *RowRangeCursor) TakeWhole() IORequest {
	return c.take(c.numBlocks)
}

// TakePrefix returns a request for at most maxBlocks leading blocks.
func (c *RowRangeCursor) TakePrefix(maxBlocks int) IORequest {
	return c.take(min(maxBlocks, c.numBlocks))
}

func (c *RowRangeCursor) take(n int) IORequest {
	if !c.HasData() || n <= 0 {
		panic("matrixio: take from exhausted cursor")
	}

	rows := min(n*c.rowBlockSize, c.totRows)
	start := c.blocks[c.first].Offset
	end := c.blocks[c.first+n].Offset
	req := IORequest{
		TopLeft: Loc{Row: c.first * c.rowBlockSize},
		NumRows: rows,
		NumCols: c.numCols,
		FileID:  c.fileID,
		Offset:  int64(start),
		Size:    int64(end - start),
		valid:   true,
	}

	c.first += n
	c.numBlocks -= n
	c.totRows -= rows
	return req
}
