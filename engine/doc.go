// Package engine runs tasks over every row block of an on-disk matrix.
//
// An Engine stripes the row blocks of a file over one matrixio.Generator per
// worker, starts the workers and waits for all of them. A coverage ledger
// records every dispatched row block, so a finished run proves that each
// block reached exactly one task. Reads share one resource.Controller that
// bounds buffered bytes and read throughput.
//
// Multiply and Aggregate are ready-made task creators for the two common
// out-of-core operations.
package engine
