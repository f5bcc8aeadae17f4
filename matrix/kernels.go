package matrix

// Every kernel computes out(i, j) = add(...add(mul(a(i,0), b(0,j)), mul(a(i,1), b(1,j)))..., mul(a(i,k-1), b(k-1,j)))
// in that order, so all kernels, serial or parallel, produce identical bits.

// verifyInnerProd checks the operand shapes and the operator types of
// a * b.
func verifyInnerProd(a, b Dense, mul, add BinaryOp) bool {
	if IsNil(b) || a.Cols() != b.Rows() {
		return false
	}
	if !mul.Valid() || !add.Associative() {
		return false
	}
	return mul.Left == a.Type() && mul.Right == b.Type() && add.Left == mul.Out
}

// dot writes the semiring product of the k-element arrays a and b to out.
// tmp must hold k elements of mul.Out.
func dot(k int, a, b, tmp, out []byte, mul, add BinaryOp) {
	if k == 0 {
		return
	}
	mul.runAA(k, a, b, tmp)
	add.fold(k, tmp, out)
}

// innerProdRow holds one row of a and streams the columns of b's column
// store. Output is row-major; strips of output rows run in parallel.
func innerProdRow(a *RowMatrix, b Dense, mul, add BinaryOp, parallel bool) *RowMatrix {
	n, k, m := a.rows, a.cols, b.Cols()
	bc := b.colMajor()
	out := NewRow(n, m, mul.Out)
	osz := mul.Out.Size()

	run := func(lo, hi int) {
		tmp := make([]byte, k*osz)
		for i := lo; i < hi; i++ {
			arow := a.Row(i)
			orow := out.Row(i)
			for j := range m {
				dot(k, arow, bc.Col(j), tmp, orow[j*osz:], mul, add)
			}
		}
	}
	if parallel {
		parallelFor(n, stripLen(k*m), run)
	} else {
		run(0, n)
	}
	return out
}

// innerProdColTall multiplies a tall column-major a without transposing it.
// Each strip reconstructs the rows of a it owns into a scratch row and dots
// it with every column of b. Output is column-major.
func innerProdColTall(a *ColMatrix, b Dense, mul, add BinaryOp, parallel bool) *ColMatrix {
	n, k, m := a.rows, a.cols, b.Cols()
	bc := b.colMajor()
	out := NewCol(n, m, mul.Out)
	asz, osz := a.typ.Size(), mul.Out.Size()
	dst := out.Raw()

	run := func(lo, hi int) {
		row := make([]byte, k*asz)
		tmp := make([]byte, k*osz)
		for i := lo; i < hi; i++ {
			for p := range k {
				copy(row[p*asz:(p+1)*asz], a.Col(p)[i*asz:])
			}
			for j := range m {
				dot(k, row, bc.Col(j), tmp, dst[(j*n+i)*osz:], mul, add)
			}
		}
	}
	if parallel {
		parallelFor(n, stripLen(k*m), run)
	} else {
		run(0, n)
	}
	return out
}

// innerProdColNaive walks a strictly by column for every output element.
// It is a correctness baseline and is never selected by InnerProd.
func innerProdColNaive(a *ColMatrix, b Dense, mul, add BinaryOp) *RowMatrix {
	n, k, m := a.rows, a.cols, b.Cols()
	bc := b.colMajor()
	out := NewRow(n, m, mul.Out)
	asz, bsz, osz := a.typ.Size(), b.Type().Size(), mul.Out.Size()
	tmp := make([]byte, k*osz)

	for i := range n {
		orow := out.Row(i)
		for j := range m {
			bcol := bc.Col(j)
			for p := range k {
				mul.runAA(1, a.Col(p)[i*asz:], bcol[p*bsz:], tmp[p*osz:])
			}
			if k > 0 {
				add.fold(k, tmp, orow[j*osz:])
			}
		}
	}
	return out
}
