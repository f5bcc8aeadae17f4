package matrix

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/flashmat/internal/mem"
)

// Dense is the capability set shared by both layouts.
type Dense interface {
	Rows() int
	Cols() int
	Type() ScalarType
	Layout() Layout
	// Raw returns the backing buffer in the matrix's own layout. Writing to
	// it directly bypasses cache invalidation; call Touch afterwards.
	Raw() []byte
	// Touch marks the data as modified.
	Touch()

	ResetData()
	SerialResetData()
	SetData(op SetOp) bool
	SerialSetData(op SetOp) bool

	Sapply(op UnaryOp) Dense
	Mapply2(other Dense, op BinaryOp) Dense
	Aggregate(op BinaryOp, acc *Scalar) bool
	Apply(margin Margin, op ArrayOp) Dense
	InnerProd(right Dense, mul, add BinaryOp) Dense
	SerialInnerProd(right Dense, mul, add BinaryOp) Dense

	Transpose() Dense
	DeepCopy() Dense
	Conv2(rows, cols int, byRow bool) Dense

	WriteTo(w io.Writer) (int64, error)
	WriteFile(name string) error

	elem(r, c int) []byte
	rowMajor() *RowMatrix
	colMajor() *ColMatrix
}

// Margin selects the direction of Apply.
type Margin uint8

const (
	MarginRow Margin = iota
	MarginCol
)

// buffer is the data shared by a matrix and the views created by Transpose.
// version is bumped on every mutation; cached opposite-layout copies record
// the version they were built from.
type buffer struct {
	data    []byte
	version atomic.Uint64
}

type dense struct {
	rows, cols int
	typ        ScalarType
	buf        *buffer

	mu           sync.Mutex
	other        Dense
	otherVersion uint64
}

func (d *dense) init(rows, cols int, typ ScalarType) {
	if rows < 0 || cols < 0 || !typ.Valid() {
		panic(fmt.Sprintf("matrix: invalid shape %dx%d of %v", rows, cols, typ))
	}
	d.rows = rows
	d.cols = cols
	d.typ = typ
	d.buf = &buffer{data: mem.AllocPage(rows * cols * typ.Size())}
}

// wrap adopts data, which must hold rows*cols elements of typ, as the
// storage of a new matrix.
func wrap(rows, cols int, typ ScalarType, layout Layout, data []byte) Dense {
	buf := &buffer{data: data}
	if layout == LayoutCol {
		return &ColMatrix{dense: dense{rows: rows, cols: cols, typ: typ, buf: buf}}
	}
	return &RowMatrix{dense: dense{rows: rows, cols: cols, typ: typ, buf: buf}}
}

// view shares the buffer of d under a new shape.
func (d *dense) view(rows, cols int) dense {
	return dense{rows: rows, cols: cols, typ: d.typ, buf: d.buf}
}

func (d *dense) Rows() int        { return d.rows }
func (d *dense) Cols() int        { return d.cols }
func (d *dense) Type() ScalarType { return d.typ }
func (d *dense) Raw() []byte      { return d.buf.data }
func (d *dense) Touch()           { d.buf.version.Add(1) }

func (d *dense) size() int {
	return d.rows * d.cols
}

// cached returns the opposite-layout copy, building it with build when it is
// missing or stale.
func (d *dense) cached(build func() Dense) Dense {
	d.mu.Lock()
	defer d.mu.Unlock()

	v := d.buf.version.Load()
	if d.other == nil || d.otherVersion != v {
		d.other = build()
		d.otherVersion = v
	}
	return d.other
}

// New allocates a zeroed rows x cols matrix.
func New(rows, cols int, typ ScalarType, layout Layout) Dense {
	if layout == LayoutCol {
		return NewCol(rows, cols, typ)
	}
	return NewRow(rows, cols, typ)
}

// FromBytes copies data into a new matrix. It fails if data does not hold
// exactly rows*cols elements.
func FromBytes(rows, cols int, typ ScalarType, layout Layout, data []byte) (Dense, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("matrix: invalid element type %d", typ)
	}
	if rows < 0 || cols < 0 || len(data) != rows*cols*typ.Size() {
		return nil, fmt.Errorf("matrix: %d bytes do not hold %dx%d %v", len(data), rows, cols, typ)
	}
	m := New(rows, cols, typ, layout)
	copy(m.Raw(), data)
	return m, nil
}

// IsNil reports whether m is nil or holds a nil matrix pointer.
func IsNil(m Dense) bool {
	if m == nil {
		return true
	}
	n, ok := m.(interface{ isNil() bool })
	return ok && n.isNil()
}

// RowMajor returns m itself if it is row-major and its cached row store
// otherwise.
func RowMajor(m Dense) *RowMatrix {
	return m.rowMajor()
}

// ColMajor returns m itself if it is column-major and its cached column
// store otherwise.
func ColMajor(m Dense) *ColMatrix {
	return m.colMajor()
}

// At returns element (r, c). It panics if T is not the matrix element type
// or the position is out of range.
func At[T Element](m Dense, r, c int) T {
	mustType[T](m)
	return getElem[T](m.elem(r, c))
}

// Set stores v at (r, c) and invalidates cached copies.
func Set[T Element](m Dense, r, c int, v T) {
	mustType[T](m)
	putElem(m.elem(r, c), v)
	m.Touch()
}

func mustType[T Element](m Dense) {
	if t := TypeOf[T](); t != m.Type() {
		panic(fmt.Sprintf("matrix: access %v matrix as %v", m.Type(), t))
	}
}

func checkPos(d *dense, r, c int) {
	if r < 0 || r >= d.rows || c < 0 || c >= d.cols {
		panic(fmt.Sprintf("matrix: index (%d, %d) out of range %dx%d", r, c, d.rows, d.cols))
	}
}

// Equal reports whether a and b have the same shape, type and values,
// independent of layout.
func Equal(a, b Dense) bool {
	if a.Rows() != b.Rows() || a.Cols() != b.Cols() || a.Type() != b.Type() {
		return false
	}
	return bytes.Equal(a.rowMajor().Raw(), b.rowMajor().Raw())
}
