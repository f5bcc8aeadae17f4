package engine

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/hupe1980/flashmat/matrix"
	"github.com/hupe1980/flashmat/matrixio"
	"github.com/hupe1980/flashmat/worker"
)

// ErrInvalidOperands is returned by a task whose block does not fit the
// operation.
var ErrInvalidOperands = errors.New("engine: invalid operands")

// failures collects the errors of failed blocks.
type failures struct {
	mu   sync.Mutex
	errs []error
}

func (f *failures) add(b worker.Block) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = append(f.errs, fmt.Errorf("rows %d+%d: %w", b.IO.TopLeft.Row, b.IO.NumRows, b.Err))
}

func (f *failures) err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return errors.Join(f.errs...)
}

// Multiply computes left * right over a semiring, where left is the on-disk
// matrix and right is resident. Each block contributes the rows of the
// product at its own row offset.
type Multiply struct {
	right    matrix.Dense
	sr       matrix.Semiring
	out      *matrix.RowMatrix
	rowBytes int
	failures
}

// NewMultiply prepares a product with rows rows. It returns nil if right is
// nil or the semiring does not accept it.
func NewMultiply(rows int, right matrix.Dense, sr matrix.Semiring) *Multiply {
	if matrix.IsNil(right) || !sr.Multiply.Valid() || !sr.Add.Valid() || sr.Multiply.Right != right.Type() || sr.Multiply.Out != sr.Add.Left {
		return nil
	}
	out := matrix.NewRow(rows, right.Cols(), sr.Add.Out)
	return &Multiply{
		right:    right,
		sr:       sr,
		out:      out,
		rowBytes: right.Cols() * sr.Add.Out.Size(),
	}
}

func (m *Multiply) Create(matrixio.IORequest) worker.Task {
	return worker.TaskFunc(m.run)
}

func (m *Multiply) run(_ context.Context, b worker.Block) error {
	if b.Failed() {
		m.add(b)
		return nil
	}
	prod := b.Matrix.SerialInnerProd(m.right, m.sr.Multiply, m.sr.Add)
	if prod == nil {
		return fmt.Errorf("%w: %s block %dx%d times %dx%d", ErrInvalidOperands, m.sr.Multiply.Name,
			b.Matrix.Rows(), b.Matrix.Cols(), m.right.Rows(), m.right.Cols())
	}
	// Blocks cover disjoint rows of out.
	copy(m.out.Raw()[b.IO.TopLeft.Row*m.rowBytes:], matrix.RowMajor(prod).Raw())
	return nil
}

// Result returns the product and the joined errors of failed blocks. Rows
// of failed blocks are zero.
func (m *Multiply) Result() (*matrix.RowMatrix, error) {
	m.out.Touch()
	return m.out, m.err()
}

// Aggregate reduces every element of the on-disk matrix with an associative
// operator. Each row block is reduced on its own and the block results are
// folded in block order, so the grouping of the operations does not depend
// on how requests were sized or which worker served them.
type Aggregate struct {
	op           matrix.BinaryOp
	rowBlockSize int

	mu       sync.Mutex
	partials map[int]matrix.Scalar
	failures
}

// NewAggregate prepares a reduction with op over a matrix stored in row
// blocks of rowBlockSize rows. It returns nil if rowBlockSize is not
// positive.
func NewAggregate(op matrix.BinaryOp, rowBlockSize int) *Aggregate {
	if rowBlockSize <= 0 {
		return nil
	}
	return &Aggregate{op: op, rowBlockSize: rowBlockSize, partials: make(map[int]matrix.Scalar)}
}

func (a *Aggregate) Create(matrixio.IORequest) worker.Task {
	return worker.TaskFunc(a.run)
}

func (a *Aggregate) run(_ context.Context, b worker.Block) error {
	if b.Failed() {
		a.add(b)
		return nil
	}
	rbs := a.rowBlockSize
	rows := b.Matrix.Rows()
	first := b.IO.TopLeft.Row / rbs
	sums := make([]matrix.Scalar, 0, (rows+rbs-1)/rbs)
	for top := 0; top < rows; top += rbs {
		var s matrix.Scalar
		if !b.Matrix.SubRows(top, min(rbs, rows-top)).Aggregate(a.op, &s) {
			return fmt.Errorf("%w: %s over %v", ErrInvalidOperands, a.op.Name, b.Matrix.Type())
		}
		sums = append(sums, s)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for i, s := range sums {
		a.partials[first+i] = s
	}
	return nil
}

// Result folds the block results. Failed blocks are left out and their
// errors returned. Without any block the result is the zero value of the
// operand type.
func (a *Aggregate) Result() (matrix.Scalar, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var acc matrix.Scalar
	if len(a.partials) == 0 {
		if !matrix.NewRow(0, 1, a.op.Left).Aggregate(a.op, &acc) {
			return acc, fmt.Errorf("%w: %s is not a reduction", ErrInvalidOperands, a.op.Name)
		}
		return acc, a.err()
	}

	blocks := slices.Sorted(maps.Keys(a.partials))
	xs := make([]matrix.Scalar, len(blocks))
	for i, blk := range blocks {
		xs[i] = a.partials[blk]
	}
	acc, _ = a.op.Fold(xs)
	return acc, a.err()
}
