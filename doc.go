// Package flashmat provides out-of-core dense matrix computation for Go.
//
// A matrix too large for memory is stored as compressed row blocks on a
// blob store (local disk, memory, S3 or MinIO). Operations stream the row
// blocks through a pool of workers: each worker owns a striped share of the
// blocks, reads ahead while it computes, and steals small slices from its
// peers once its own share is done.
//
// # Quick Start
//
//	ctx := context.Background()
//	store := blobstore.NewLocalStore("./data")
//
//	a := matrix.NewRow(1_000_000, 32, matrix.Float64)
//	a.SetData(matrix.RandSetOp[float64](0, 1, 42))
//
//	m, _ := flashmat.Create(ctx, store, "A", a, flashmat.WithCodec(format.CodecZstd))
//	defer m.Close()
//
//	b := matrix.NewCol(32, 4, matrix.Float64)
//	b.SetData(matrix.Const(1.0))
//	out, _ := m.Multiply(ctx, b, matrix.Arithmetic[float64, float64, float64]())
//
// # Custom Tasks
//
// Run hands every row block to a task created for its I/O request:
//
//	report, err := m.Run(ctx, worker.TaskCreatorFunc(func(io matrixio.IORequest) worker.Task {
//	    return worker.TaskFunc(func(ctx context.Context, b worker.Block) error {
//	        if b.Failed() {
//	            return nil // b.Err describes the failed read
//	        }
//	        // b.Matrix holds rows [io.TopLeft.Row, io.TopLeft.Row+io.NumRows)
//	        return nil
//	    })
//	}))
//
// # Key Features
//
//   - Striped row-block scheduling with bounded work stealing
//   - Pipelined reads with a memory budget and I/O rate limit
//   - Semiring matrix products (arithmetic, boolean, min-plus)
//   - LZ4, Zstd and S2 block compression with xxhash checksums
//   - Optional NUMA pinning of workers
package flashmat
