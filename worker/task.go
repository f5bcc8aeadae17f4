package worker

import (
	"context"

	"github.com/hupe1980/flashmat/matrix"
	"github.com/hupe1980/flashmat/matrixio"
)

// Block is one retrieved unit of work. Exactly one of Matrix and Err is set.
type Block struct {
	IO     matrixio.IORequest
	Matrix *matrix.RowMatrix
	Err    error
}

// Failed reports whether the read of the block failed.
func (b Block) Failed() bool {
	return b.Err != nil
}

// Task is the computation run on one block.
type Task interface {
	Run(ctx context.Context, b Block) error
}

// TaskFunc adapts a function to Task.
type TaskFunc func(ctx context.Context, b Block) error

func (f TaskFunc) Run(ctx context.Context, b Block) error {
	return f(ctx, b)
}

// TaskCreator creates the task for one request. It is called once per
// dispatched request, possibly from several workers at once.
type TaskCreator interface {
	Create(io matrixio.IORequest) Task
}

// TaskCreatorFunc adapts a function to TaskCreator.
type TaskCreatorFunc func(io matrixio.IORequest) Task

func (f TaskCreatorFunc) Create(io matrixio.IORequest) Task {
	return f(io)
}
