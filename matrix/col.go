package matrix

import "io"

// ColMatrix is a dense matrix stored column by column.
type ColMatrix struct {
	dense
}

// NewCol allocates a zeroed column-major matrix.
func NewCol(rows, cols int, typ ScalarType) *ColMatrix {
	m := &ColMatrix{}
	m.init(rows, cols, typ)
	return m
}

// Layout returns LayoutCol.
func (m *ColMatrix) Layout() Layout {
	return LayoutCol
}

// Col returns the bytes of column c.
func (m *ColMatrix) Col(c int) []byte {
	sz := m.rows * m.typ.Size()
	return m.buf.data[c*sz : (c+1)*sz : (c+1)*sz]
}

func (m *ColMatrix) elem(r, c int) []byte {
	checkPos(&m.dense, r, c)
	sz := m.typ.Size()
	off := (c*m.rows + r) * sz
	return m.buf.data[off : off+sz : off+sz]
}

// RowStore returns a row-major copy with the same contents, cached until the
// matrix is modified.
func (m *ColMatrix) RowStore() *RowMatrix {
	return m.cached(func() Dense {
		out := NewRow(m.rows, m.cols, m.typ)
		transposeInto(out.Raw(), m.buf.data, m.cols, m.rows, m.typ.Size())
		return out
	}).(*RowMatrix)
}

func (m *ColMatrix) isNil() bool          { return m == nil }
func (m *ColMatrix) rowMajor() *RowMatrix { return m.RowStore() }
func (m *ColMatrix) colMajor() *ColMatrix { return m }

func (m *ColMatrix) ResetData() {
	resetData(&m.dense, true)
}

func (m *ColMatrix) SerialResetData() {
	resetData(&m.dense, false)
}

// SetData fills every element from op, parallel over columns.
func (m *ColMatrix) SetData(op SetOp) bool {
	return m.setData(op, true)
}

// SerialSetData is SetData on the calling goroutine.
func (m *ColMatrix) SerialSetData(op SetOp) bool {
	return m.setData(op, false)
}

func (m *ColMatrix) setData(op SetOp, parallel bool) bool {
	if op.fill == nil || op.Type != m.typ {
		return false
	}
	run := func(lo, hi int) {
		for c := lo; c < hi; c++ {
			op.fill(0, c, m.rows, false, m.Col(c))
		}
	}
	if parallel {
		parallelFor(m.cols, stripLen(m.rows), run)
	} else {
		run(0, m.cols)
	}
	m.Touch()
	return true
}

func (m *ColMatrix) Sapply(op UnaryOp) Dense {
	if op.runA == nil || op.In != m.typ {
		return nil
	}
	return sapplyInto(NewCol(m.rows, m.cols, op.Out), &m.dense, op)
}

func (m *ColMatrix) Mapply2(other Dense, op BinaryOp) Dense {
	if !canMapply(&m.dense, other, op) {
		return nil
	}
	return mapplyInto(NewCol(m.rows, m.cols, op.Out), m.buf.data, other.colMajor().Raw(), &m.dense, op)
}

func (m *ColMatrix) Aggregate(op BinaryOp, acc *Scalar) bool {
	return aggregate(&m.dense, op, acc)
}

func (m *ColMatrix) Apply(margin Margin, op ArrayOp) Dense {
	return applyMargin(m, margin, op)
}

// InnerProd computes m * right. A tall m is multiplied directly by
// reconstructing its rows strip by strip; otherwise the cached row store is
// used with the row kernel.
func (m *ColMatrix) InnerProd(right Dense, mul, add BinaryOp) Dense {
	return m.innerProd(right, mul, add, true)
}

// SerialInnerProd is InnerProd on the calling goroutine.
func (m *ColMatrix) SerialInnerProd(right Dense, mul, add BinaryOp) Dense {
	return m.innerProd(right, mul, add, false)
}

func (m *ColMatrix) innerProd(right Dense, mul, add BinaryOp, parallel bool) Dense {
	if !verifyInnerProd(m, right, mul, add) {
		return nil
	}
	if m.rows > m.cols {
		return innerProdColTall(m, right, mul, add, parallel)
	}
	return innerProdRow(m.RowStore(), right, mul, add, parallel)
}

// Transpose returns the cols x rows row-major view of the same data.
func (m *ColMatrix) Transpose() Dense {
	return &RowMatrix{dense: m.view(m.cols, m.rows)}
}

func (m *ColMatrix) DeepCopy() Dense {
	out := NewCol(m.rows, m.cols, m.typ)
	copy(out.buf.data, m.buf.data)
	return out
}

func (m *ColMatrix) Conv2(rows, cols int, byRow bool) Dense {
	return conv2(m, rows, cols, byRow)
}

// GetCols copies the given columns into a new matrix. It returns nil if any
// index is out of range.
func (m *ColMatrix) GetCols(idxs []int) *ColMatrix {
	for _, c := range idxs {
		if c < 0 || c >= m.cols {
			return nil
		}
	}
	out := NewCol(m.rows, len(idxs), m.typ)
	for i, c := range idxs {
		copy(out.Col(i), m.Col(c))
	}
	return out
}

// SetCols overwrites columns idxs with the columns of src. It returns false
// if the shapes, types or indexes do not fit.
func (m *ColMatrix) SetCols(src *ColMatrix, idxs []int) bool {
	if src == nil || src.rows != m.rows || src.cols != len(idxs) || src.typ != m.typ {
		return false
	}
	for _, c := range idxs {
		if c < 0 || c >= m.cols {
			return false
		}
	}
	for i, c := range idxs {
		copy(m.Col(c), src.Col(i))
	}
	m.Touch()
	return true
}

// SetCol overwrites column col with buf, which must hold exactly Rows
// elements.
func (m *ColMatrix) SetCol(col int, buf []byte) bool {
	if col < 0 || col >= m.cols || len(buf) != m.rows*m.typ.Size() {
		return false
	}
	copy(m.Col(col), buf)
	m.Touch()
	return true
}

func (m *ColMatrix) WriteTo(w io.Writer) (int64, error) {
	return writeTo(w, m)
}

func (m *ColMatrix) WriteFile(name string) error {
	return writeFile(name, m)
}
