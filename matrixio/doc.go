// Package matrixio partitions the row blocks of an on-disk row-major matrix
// into units of I/O work.
//
// A Generator owns a striped subset of the row blocks: chunk k of RBIOSize
// blocks belongs to generator k mod numGens. Its owner takes whole chunks with
// NextIO; any other worker may take a prefix of at most RBStealIOSize blocks
// with StealIO. Every row block is served by exactly one IORequest.
package matrixio
