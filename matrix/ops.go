package matrix

import (
	"math/rand/v2"

	"github.com/hupe1980/flashmat/internal/mem"
)

// BinaryOp is a typed binary operator. Left and Right are the operand types
// and Out the declared result type.
type BinaryOp struct {
	Name  string
	Left  ScalarType
	Right ScalarType
	Out   ScalarType

	// runAA computes out[i] = f(l[i], r[i]) for n elements.
	runAA func(n int, l, r, out []byte)
	// fold computes out = f(...f(f(in[0], in[1]), in[2])..., in[n-1]).
	// It is nil unless Left, Right and Out are the same type.
	fold func(n int, in, out []byte)
}

// NewBinaryOp builds an operator from an element function.
func NewBinaryOp[L, R, O Element](name string, fn func(L, R) O) BinaryOp {
	op := BinaryOp{
		Name:  name,
		Left:  TypeOf[L](),
		Right: TypeOf[R](),
		Out:   TypeOf[O](),
		runAA: func(n int, l, r, out []byte) {
			ls := mem.Slice[L](l)[:n]
			rs := mem.Slice[R](r)[:n]
			os := mem.Slice[O](out)[:n]
			for i := range ls {
				os[i] = fn(ls[i], rs[i])
			}
		},
	}
	if f, ok := any(fn).(func(O, O) O); ok {
		op.fold = func(n int, in, out []byte) {
			xs := mem.Slice[O](in)[:n]
			acc := xs[0]
			for _, x := range xs[1:] {
				acc = f(acc, x)
			}
			putElem(out, acc)
		}
	}
	return op
}

// Valid reports whether op was built by a constructor.
func (op BinaryOp) Valid() bool {
	return op.runAA != nil
}

// Associative reports whether op can be used as a reduction.
func (op BinaryOp) Associative() bool {
	return op.fold != nil
}

// Fold combines xs left to right with op. It returns false if op is not
// associative, xs is empty or an element does not have type op.Left.
func (op BinaryOp) Fold(xs []Scalar) (Scalar, bool) {
	if !op.Associative() || len(xs) == 0 {
		return Scalar{}, false
	}
	sz := op.Left.Size()
	in := make([]byte, len(xs)*sz)
	for i := range xs {
		if xs[i].typ != op.Left {
			return Scalar{}, false
		}
		copy(in[i*sz:], xs[i].bytes()[:sz])
	}
	var out Scalar
	res := make([]byte, 8)
	op.fold(len(xs), in, res)
	out.set(op.Out, res)
	return out, true
}

// Multiply returns l*r computed in the output type.
func Multiply[L, R, O Number]() BinaryOp {
	return NewBinaryOp("multiply", func(l L, r R) O { return O(l) * O(r) })
}

// Add returns l+r.
func Add[T Number]() BinaryOp {
	return NewBinaryOp("add", func(l, r T) T { return l + r })
}

// Min returns the smaller operand.
func Min[T Number]() BinaryOp {
	return NewBinaryOp("min", func(l, r T) T { return min(l, r) })
}

// Max returns the larger operand.
func Max[T Number]() BinaryOp {
	return NewBinaryOp("max", func(l, r T) T { return max(l, r) })
}

// And is logical conjunction.
func And() BinaryOp {
	return NewBinaryOp("and", func(l, r bool) bool { return l && r })
}

// Or is logical disjunction.
func Or() BinaryOp {
	return NewBinaryOp("or", func(l, r bool) bool { return l || r })
}

// UnaryOp is a typed element-wise map.
type UnaryOp struct {
	Name string
	In   ScalarType
	Out  ScalarType

	runA func(n int, in, out []byte)
}

// NewUnaryOp builds a map from an element function.
func NewUnaryOp[I, O Element](name string, fn func(I) O) UnaryOp {
	return UnaryOp{
		Name: name,
		In:   TypeOf[I](),
		Out:  TypeOf[O](),
		runA: func(n int, in, out []byte) {
			is := mem.Slice[I](in)[:n]
			os := mem.Slice[O](out)[:n]
			for i, x := range is {
				os[i] = fn(x)
			}
		},
	}
}

// Convert casts each element from I to O.
func Convert[I, O Number]() UnaryOp {
	return NewUnaryOp("convert", func(x I) O { return O(x) })
}

// ArrayOp reduces one row or column to a single element. It is used by
// Apply.
type ArrayOp struct {
	Name string
	In   ScalarType
	Out  ScalarType

	run func(n int, in, out []byte)
}

// NewArrayOp builds an array reduction from a slice function.
func NewArrayOp[I, O Element](name string, fn func([]I) O) ArrayOp {
	return ArrayOp{
		Name: name,
		In:   TypeOf[I](),
		Out:  TypeOf[O](),
		run: func(n int, in, out []byte) {
			putElem(out, fn(mem.Slice[I](in)[:n]))
		},
	}
}

// Sum adds all elements of an array.
func Sum[T Number]() ArrayOp {
	return NewArrayOp("sum", func(xs []T) T {
		var s T
		for _, x := range xs {
			s += x
		}
		return s
	})
}

// SetOp computes the value of an element from its position. It drives
// SetData.
type SetOp struct {
	Name string
	Type ScalarType

	// fill writes n elements along one row (byRow) or one column starting at
	// (row, col).
	fill func(row, col, n int, byRow bool, out []byte)
}

// NewSetOp builds a position-dependent fill.
func NewSetOp[T Element](name string, fn func(row, col int) T) SetOp {
	return SetOp{
		Name: name,
		Type: TypeOf[T](),
		fill: func(row, col, n int, byRow bool, out []byte) {
			xs := mem.Slice[T](out)[:n]
			if byRow {
				for i := range xs {
					xs[i] = fn(row, col+i)
				}
				return
			}
			for i := range xs {
				xs[i] = fn(row+i, col)
			}
		},
	}
}

// Const fills every element with v.
func Const[T Element](v T) SetOp {
	return NewSetOp("const", func(int, int) T { return v })
}

// Seq fills a rows x cols matrix with from, from+by, from+2*by, ... in
// row-major order if byRow is set and column-major order otherwise.
func Seq[T Number](from, by T, rows, cols int, byRow bool) SetOp {
	return NewSetOp("seq", func(r, c int) T {
		idx := c*rows + r
		if byRow {
			idx = r*cols + c
		}
		return from + by*T(idx)
	})
}

// RandSetOp fills with uniform values in [lo, hi). The value of an element
// depends only on its position and seed, not on layout or parallelism.
func RandSetOp[T Number](lo, hi T, seed uint64) SetOp {
	return NewSetOp("rand", func(r, c int) T {
		src := rand.NewPCG(seed, uint64(r)<<32|uint64(uint32(c)))
		u := float64(src.Uint64()>>11) / (1 << 53)
		return lo + T(u*float64(hi-lo))
	})
}

// Semiring pairs the multiply and add operators of a generalized matrix
// product.
type Semiring struct {
	Multiply BinaryOp
	Add      BinaryOp
}

// Arithmetic is the ordinary (+, *) semiring with products computed in O.
func Arithmetic[L, R, O Number]() Semiring {
	return Semiring{Multiply: Multiply[L, R, O](), Add: Add[O]()}
}

// Boolean is the (or, and) semiring used for reachability.
func Boolean() Semiring {
	return Semiring{Multiply: And(), Add: Or()}
}

// MinPlus is the tropical (min, +) semiring used for shortest paths.
func MinPlus[T Number]() Semiring {
	return Semiring{Multiply: Add[T](), Add: Min[T]()}
}
