// Package dist provides the collective operations the optimizers use to
// keep data-parallel workers in agreement.
//
// A Communicator is handed to each worker explicitly; nothing in this
// package is global. LocalGroup implements Communicator for workers running
// as goroutines in one process, which is what the tests and the CLI use.
package dist

import (
	"context"
	"errors"

	"github.com/born-ml/descent/internal/tensor"
)

// Errors returned by communicators.
var (
	ErrShapeMismatch = errors.New("dist: workers contributed tensors of different shape or dtype")
	ErrInvalidRank   = errors.New("dist: rank out of range")
	ErrWorldSize     = errors.New("dist: world size must be positive")
	ErrAborted       = errors.New("dist: group aborted by a cancelled collective")
)

// Communicator performs collective operations for one worker.
type Communicator interface {
	// Rank returns this worker's index in [0, WorldSize()).
	Rank() int

	// WorldSize returns the number of participating workers.
	WorldSize() int

	// AllReduceMean replaces t, in place, with the element-wise mean of t
	// across all workers. Every worker must call it the same number of
	// times with tensors of the same shape and dtype. It blocks until all
	// workers have contributed or ctx is done.
	AllReduceMean(ctx context.Context, t *tensor.RawTensor) error
}

// Distributed reports whether c spans more than one worker.
func Distributed(c Communicator) bool {
	return c != nil && c.WorldSize() > 1
}
