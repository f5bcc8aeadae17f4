// Package worker runs the I/O and compute loop of one worker.
//
// A Worker drains its own matrixio.Generator, then steals bounded slices from
// its peers, reads each block through a BlockReader and hands the decoded
// block to a Task created for that request. Up to MaxPending reads overlap
// with task execution; tasks see blocks in read-completion order.
//
// A failed read is not fatal: the task receives a Block with Err set and the
// loop continues. An error returned by a task ends the run.
package worker
