package matrix

// Layout-independent kernels. They treat the buffer as a flat array, which is
// valid whenever all operands share one layout.

func resetData(d *dense, parallel bool) {
	data := d.buf.data
	if !parallel {
		clear(data)
		d.Touch()
		return
	}
	parallelFor(len(data), parallelWork, func(lo, hi int) {
		clear(data[lo:hi])
	})
	d.Touch()
}

func sapplyInto(out Dense, d *dense, op UnaryOp) Dense {
	in, dst := d.buf.data, out.Raw()
	isz, osz := d.typ.Size(), op.Out.Size()
	parallelFor(d.size(), parallelWork, func(lo, hi int) {
		op.runA(hi-lo, in[lo*isz:], dst[lo*osz:])
	})
	return out
}

func mapplyInto(out Dense, l, r []byte, d *dense, op BinaryOp) Dense {
	lsz, rsz, osz := op.Left.Size(), op.Right.Size(), op.Out.Size()
	dst := out.Raw()
	parallelFor(d.size(), parallelWork, func(lo, hi int) {
		op.runAA(hi-lo, l[lo*lsz:], r[lo*rsz:], dst[lo*osz:])
	})
	return out
}

func canMapply(d *dense, other Dense, op BinaryOp) bool {
	return op.Valid() && !IsNil(other) &&
		d.rows == other.Rows() && d.cols == other.Cols() &&
		op.Left == d.typ && op.Right == other.Type()
}

// aggregate folds fixed-length strips and then folds the strip results in
// strip order, so the result does not depend on GOMAXPROCS.
func aggregate(d *dense, op BinaryOp, acc *Scalar) bool {
	if !op.Associative() || op.Left != d.typ {
		return false
	}
	n := d.size()
	if n == 0 {
		*acc = Scalar{typ: d.typ}
		return true
	}

	sz := d.typ.Size()
	data := d.buf.data
	grain := parallelWork
	strips := (n + grain - 1) / grain
	partial := make([]byte, strips*sz)
	parallelFor(strips, 1, func(lo, hi int) {
		for s := lo; s < hi; s++ {
			start := s * grain
			cnt := min(grain, n-start)
			op.fold(cnt, data[start*sz:], partial[s*sz:])
		}
	})

	res := make([]byte, sz)
	op.fold(strips, partial, res)
	acc.set(d.typ, res)
	return true
}

// applyMargin reduces each row (MarginRow) or column (MarginCol) of m to one
// element and returns the results as a column vector.
func applyMargin(m Dense, margin Margin, op ArrayOp) Dense {
	if op.run == nil || op.In != m.Type() {
		return nil
	}
	osz := op.Out.Size()
	if margin == MarginRow {
		rm := m.rowMajor()
		out := NewCol(rm.rows, 1, op.Out)
		dst := out.Raw()
		parallelFor(rm.rows, stripLen(rm.cols), func(lo, hi int) {
			for r := lo; r < hi; r++ {
				op.run(rm.cols, rm.Row(r), dst[r*osz:])
			}
		})
		return out
	}
	cm := m.colMajor()
	out := NewCol(cm.cols, 1, op.Out)
	dst := out.Raw()
	parallelFor(cm.cols, stripLen(cm.rows), func(lo, hi int) {
		for c := lo; c < hi; c++ {
			op.run(cm.rows, cm.Col(c), dst[c*osz:])
		}
	})
	return out
}

func conv2(m Dense, rows, cols int, byRow bool) Dense {
	if rows < 0 || cols < 0 || rows*cols != m.Rows()*m.Cols() {
		return nil
	}
	if byRow {
		out := NewRow(rows, cols, m.Type())
		copy(out.Raw(), m.rowMajor().Raw())
		return out
	}
	out := NewCol(rows, cols, m.Type())
	copy(out.Raw(), m.colMajor().Raw())
	return out
}
