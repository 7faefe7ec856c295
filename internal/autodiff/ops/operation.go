// Package ops defines the differentiable operations recorded in the
// autodiff graph.
//
// Each operation is stateless apart from its hyperparameters. The graph node
// that owns it supplies the realized input values to Forward and Backward,
// so a single op value can be shared by many nodes.
//
// Supported operations:
//   - AddOp, SubOp, MulOp, DivOp: element-wise binary ops with
//     single-element broadcasting
//   - ScaleOp: multiplication by a constant
//   - SumOp: reduction to a scalar
//   - MatMulOp: 2-D matrix multiplication
package ops

import "github.com/born-ml/descent/internal/tensor"

// Operation represents a differentiable operation in the computation graph.
type Operation interface {
	// Name identifies the op in error messages.
	Name() string

	// Shape returns the output shape for the given input shapes.
	// It panics if the inputs are incompatible, so bad graphs fail at
	// construction rather than at realization.
	Shape(inputs ...tensor.Shape) tensor.Shape

	// Forward computes the output from realized inputs.
	Forward(inputs ...*tensor.RawTensor) *tensor.RawTensor

	// Backward computes gradients for inputs given the output gradient.
	// Returns one gradient per input; a nil entry means no gradient flows.
	Backward(inputs []*tensor.RawTensor, output, outputGrad *tensor.RawTensor) []*tensor.RawTensor
}
