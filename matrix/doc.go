// Package matrix implements resident dense matrices in row-major and
// column-major layout together with the numeric kernels that run on them.
//
// Both layouts implement Dense. Operators are first-class values carrying
// their declared input and output element types, so a multiply of two int32
// matrices can produce float64 results if the supplied operators say so:
//
//	a := matrix.NewRow(1000, 20, matrix.Float64)
//	a.SetData(matrix.RandSetOp[float64](0, 1, 42))
//	b := matrix.NewCol(20, 5, matrix.Float64)
//	b.SetData(matrix.Const[float64](1))
//
//	s := matrix.Arithmetic[float64, float64, float64]()
//	c := a.InnerProd(b, s.Multiply, s.Add)
//
// Each matrix lazily materializes a copy of itself in the opposite layout
// (RowMatrix.ColStore, ColMatrix.RowStore). The copy is dropped as soon as
// the primary data is mutated.
//
// Shape or type mismatches are reported as nil or false results rather than
// errors so kernels can be called from hot loops and tested by the caller.
package matrix
