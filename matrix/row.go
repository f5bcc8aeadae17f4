package matrix

import (
	"fmt"
	"io"
)

// RowMatrix is a dense matrix stored row by row.
type RowMatrix struct {
	dense
}

// NewRow allocates a zeroed row-major matrix.
func NewRow(rows, cols int, typ ScalarType) *RowMatrix {
	m := &RowMatrix{}
	m.init(rows, cols, typ)
	return m
}

// Layout returns LayoutRow.
func (m *RowMatrix) Layout() Layout {
	return LayoutRow
}

// Row returns the bytes of row r.
func (m *RowMatrix) Row(r int) []byte {
	sz := m.cols * m.typ.Size()
	return m.buf.data[r*sz : (r+1)*sz : (r+1)*sz]
}

// SubRows returns rows [top, top+n) as a matrix sharing storage with m.
// Writes through the result are not seen by the caches of m until m.Touch.
func (m *RowMatrix) SubRows(top, n int) *RowMatrix {
	if top < 0 || n < 0 || top+n > m.rows {
		panic(fmt.Sprintf("matrix: rows %d+%d out of range [0, %d)", top, n, m.rows))
	}
	sz := m.cols * m.typ.Size()
	return &RowMatrix{dense: dense{
		rows: n,
		cols: m.cols,
		typ:  m.typ,
		buf:  &buffer{data: m.buf.data[top*sz : (top+n)*sz : (top+n)*sz]},
	}}
}

func (m *RowMatrix) elem(r, c int) []byte {
	checkPos(&m.dense, r, c)
	sz := m.typ.Size()
	off := (r*m.cols + c) * sz
	return m.buf.data[off : off+sz : off+sz]
}

// ColStore returns a column-major copy with the same contents. The copy is
// built on first use and reused until the matrix is modified.
func (m *RowMatrix) ColStore() *ColMatrix {
	return m.cached(func() Dense {
		out := NewCol(m.rows, m.cols, m.typ)
		transposeInto(out.Raw(), m.buf.data, m.rows, m.cols, m.typ.Size())
		return out
	}).(*ColMatrix)
}

func (m *RowMatrix) isNil() bool          { return m == nil }
func (m *RowMatrix) rowMajor() *RowMatrix { return m }
func (m *RowMatrix) colMajor() *ColMatrix { return m.ColStore() }

func (m *RowMatrix) ResetData() {
	resetData(&m.dense, true)
}

func (m *RowMatrix) SerialResetData() {
	resetData(&m.dense, false)
}

// SetData fills every element from op, parallel over rows. It returns false
// if op produces a different element type.
func (m *RowMatrix) SetData(op SetOp) bool {
	return m.setData(op, true)
}

// SerialSetData is SetData on the calling goroutine.
func (m *RowMatrix) SerialSetData(op SetOp) bool {
	return m.setData(op, false)
}

func (m *RowMatrix) setData(op SetOp, parallel bool) bool {
	if op.fill == nil || op.Type != m.typ {
		return false
	}
	run := func(lo, hi int) {
		for r := lo; r < hi; r++ {
			op.fill(r, 0, m.cols, true, m.Row(r))
		}
	}
	if parallel {
		parallelFor(m.rows, stripLen(m.cols), run)
	} else {
		run(0, m.rows)
	}
	m.Touch()
	return true
}

func (m *RowMatrix) Sapply(op UnaryOp) Dense {
	if op.runA == nil || op.In != m.typ {
		return nil
	}
	return sapplyInto(NewRow(m.rows, m.cols, op.Out), &m.dense, op)
}

func (m *RowMatrix) Mapply2(other Dense, op BinaryOp) Dense {
	if !canMapply(&m.dense, other, op) {
		return nil
	}
	return mapplyInto(NewRow(m.rows, m.cols, op.Out), m.buf.data, other.rowMajor().Raw(), &m.dense, op)
}

// Aggregate reduces all elements with op into acc. It returns false, leaving
// acc untouched, if op is not a reduction over the element type.
func (m *RowMatrix) Aggregate(op BinaryOp, acc *Scalar) bool {
	return aggregate(&m.dense, op, acc)
}

func (m *RowMatrix) Apply(margin Margin, op ArrayOp) Dense {
	return applyMargin(m, margin, op)
}

// InnerProd computes m * right over the (add, mul) semiring. Output rows are
// computed in parallel. It returns nil if the inner dimensions or operator
// types do not match.
func (m *RowMatrix) InnerProd(right Dense, mul, add BinaryOp) Dense {
	if !verifyInnerProd(m, right, mul, add) {
		return nil
	}
	return innerProdRow(m, right, mul, add, true)
}

// SerialInnerProd is InnerProd on the calling goroutine.
func (m *RowMatrix) SerialInnerProd(right Dense, mul, add BinaryOp) Dense {
	if !verifyInnerProd(m, right, mul, add) {
		return nil
	}
	return innerProdRow(m, right, mul, add, false)
}

// Transpose returns the cols x rows column-major view of the same data.
// The view shares storage with m; mutations through either are visible in
// both.
func (m *RowMatrix) Transpose() Dense {
	return &ColMatrix{dense: m.view(m.cols, m.rows)}
}

func (m *RowMatrix) DeepCopy() Dense {
	out := NewRow(m.rows, m.cols, m.typ)
	copy(out.buf.data, m.buf.data)
	return out
}

// Conv2 reshapes m into rows x cols, reading elements in row-major order if
// byRow is set and column-major order otherwise. It returns nil if the
// element count differs.
func (m *RowMatrix) Conv2(rows, cols int, byRow bool) Dense {
	return conv2(m, rows, cols, byRow)
}

func (m *RowMatrix) WriteTo(w io.Writer) (int64, error) {
	return writeTo(w, m)
}

func (m *RowMatrix) WriteFile(name string) error {
	return writeFile(name, m)
}
