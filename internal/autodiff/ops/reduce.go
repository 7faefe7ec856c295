package ops

import (
	"fmt"

	"github.com/born-ml/descent/internal/tensor"
)

// SumOp reduces a tensor to a scalar.
//
// Backward: every input element receives the (scalar) output gradient.
type SumOp struct{}

// Name returns "sum".
func (SumOp) Name() string { return "sum" }

// Shape returns the scalar shape.
func (SumOp) Shape(...tensor.Shape) tensor.Shape { return tensor.Shape{} }

// Forward sums all elements.
func (SumOp) Forward(in ...*tensor.RawTensor) *tensor.RawTensor { return tensor.Sum(in[0]) }

// Backward broadcasts the output gradient to the input shape.
func (SumOp) Backward(in []*tensor.RawTensor, _, g *tensor.RawTensor) []*tensor.RawTensor {
	return []*tensor.RawTensor{tensor.Expand(g, in[0].Shape())}
}

// MatMulOp represents output = A @ B for 2-D A (M, K) and B (K, N).
//
// Backward:
//   - grad_A = outputGrad @ Bᵀ
//   - grad_B = Aᵀ @ outputGrad
type MatMulOp struct{}

// Name returns "matmul".
func (MatMulOp) Name() string { return "matmul" }

// Shape returns (M, N).
func (op MatMulOp) Shape(in ...tensor.Shape) tensor.Shape {
	a, b := in[0], in[1]
	if len(a) != 2 || len(b) != 2 || a[1] != b[0] {
		panic(fmt.Sprintf("%s: incompatible shapes %v and %v", op.Name(), a, b))
	}
	return tensor.Shape{a[0], b[1]}
}

// Forward computes A @ B.
func (MatMulOp) Forward(in ...*tensor.RawTensor) *tensor.RawTensor {
	return tensor.MatMul(in[0], in[1])
}

// Backward computes gradients for both matrices.
func (MatMulOp) Backward(in []*tensor.RawTensor, _, g *tensor.RawTensor) []*tensor.RawTensor {
	a, b := in[0], in[1]
	return []*tensor.RawTensor{
		tensor.MatMul(g, tensor.Transpose(b)),
		tensor.MatMul(tensor.Transpose(a), g),
	}
}
