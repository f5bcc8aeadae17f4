package matrix

import "fmt"

// Typed is a dense matrix with a compile-time element type.
type Typed[T Number] struct {
	Dense
}

// NewTyped allocates a zeroed rows x cols matrix of T.
func NewTyped[T Number](rows, cols int, layout Layout) *Typed[T] {
	return &Typed[T]{Dense: New(rows, cols, TypeOf[T](), layout)}
}

// AsTyped wraps m if its element type is T.
func AsTyped[T Number](m Dense) (*Typed[T], bool) {
	if IsNil(m) || m.Type() != TypeOf[T]() {
		return nil, false
	}
	return &Typed[T]{Dense: m}, true
}

// At returns element (r, c).
func (t *Typed[T]) At(r, c int) T {
	return At[T](t.Dense, r, c)
}

// Set stores v at (r, c).
func (t *Typed[T]) Set(r, c int, v T) {
	Set(t.Dense, r, c, v)
}

// Multiply returns t * o on the calling goroutine. It returns nil if o is
// nil or the inner dimensions differ.
func (t *Typed[T]) Multiply(o *Typed[T]) *Typed[T] {
	if o.isNil() {
		return nil
	}
	s := Arithmetic[T, T, T]()
	return wrapTyped[T](t.SerialInnerProd(o.Dense, s.Multiply, s.Add))
}

// ParMultiply is Multiply with the parallel kernels.
func (t *Typed[T]) ParMultiply(o *Typed[T]) *Typed[T] {
	if o.isNil() {
		return nil
	}
	s := Arithmetic[T, T, T]()
	return wrapTyped[T](t.InnerProd(o.Dense, s.Multiply, s.Add))
}

func (t *Typed[T]) isNil() bool {
	return t == nil || IsNil(t.Dense)
}

func wrapTyped[T Number](m Dense) *Typed[T] {
	if m == nil {
		return nil
	}
	return &Typed[T]{Dense: m}
}

// NewVector returns an n x 1 column vector with every element set to init.
func NewVector[T Element](n int, init T) *ColMatrix {
	v := NewCol(n, 1, TypeOf[T]())
	v.SetData(Const(init))
	return v
}

// NewSeq returns the column vector from, from+by, ... up to and including
// to.
func NewSeq[T Number](from, to, by T) (*ColMatrix, error) {
	if by == 0 || (to-from)/by < 0 {
		return nil, fmt.Errorf("matrix: invalid sequence from %v to %v by %v", from, to, by)
	}
	// The tolerance keeps float steps like 0.1 from dropping the last element.
	n := int(float64(to-from)/float64(by)+1e-10) + 1
	v := NewCol(n, 1, TypeOf[T]())
	v.SetData(Seq(from, by, n, 1, false))
	return v, nil
}
