package matrix

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/flashmat/internal/mem"
)

// parallelWork is the amount of element work below which a strip is not
// worth a goroutine.
const parallelWork = 1 << 15

// stripLen returns how many items one strip should hold when each item costs
// work element operations.
func stripLen(work int) int {
	return max(1, parallelWork/max(1, work))
}

// parallelFor runs fn over [0, n) in strips of grain items. Strips are
// claimed through a shared counter by up to GOMAXPROCS goroutines.
func parallelFor(n, grain int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	grain = max(1, grain)
	strips := (n + grain - 1) / grain
	workers := min(runtime.GOMAXPROCS(0), strips)
	if workers <= 1 {
		fn(0, n)
		return
	}

	var next atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for {
				s := int(next.Add(1) - 1)
				if s >= strips {
					return
				}
				lo := s * grain
				fn(lo, min(lo+grain, n))
			}
		}()
	}
	wg.Wait()
}

// transposeInto writes the rows x cols row-major elements of src into dst in
// column-major order (equivalently the cols x rows row-major transpose).
func transposeInto(dst, src []byte, rows, cols, size int) {
	switch size {
	case 8:
		transposeTyped(mem.Slice[uint64](dst), mem.Slice[uint64](src), rows, cols)
	case 4:
		transposeTyped(mem.Slice[uint32](dst), mem.Slice[uint32](src), rows, cols)
	default:
		transposeTyped(dst, src, rows, cols)
	}
}

const transposeTile = 32

func transposeTyped[T any](dst, src []T, rows, cols int) {
	parallelFor(rows, max(transposeTile, stripLen(cols)), func(lo, hi int) {
		for r0 := lo; r0 < hi; r0 += transposeTile {
			r1 := min(r0+transposeTile, hi)
			for c0 := 0; c0 < cols; c0 += transposeTile {
				c1 := min(c0+transposeTile, cols)
				for r := r0; r < r1; r++ {
					row := src[r*cols:]
					for c := c0; c < c1; c++ {
						dst[c*rows+r] = row[c]
					}
				}
			}
		}
	})
}
