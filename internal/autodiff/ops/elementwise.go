package ops

import (
	"fmt"

	"github.com/born-ml/descent/internal/tensor"
)

// broadcastShape mirrors the broadcasting accepted by the tensor kernels.
func broadcastShape(name string, a, b tensor.Shape) tensor.Shape {
	switch {
	case a.Equal(b), b.NumElements() == 1:
		return a.Clone()
	case a.NumElements() == 1:
		return b.Clone()
	default:
		panic(fmt.Sprintf("%s: shapes %v and %v are not compatible", name, a, b))
	}
}

// AddOp represents output = a + b.
//
// Backward: grad_a = grad_b = outputGrad, reduced to each input's shape.
type AddOp struct{}

// Name returns "add".
func (AddOp) Name() string { return "add" }

// Shape returns the broadcast shape of a and b.
func (op AddOp) Shape(in ...tensor.Shape) tensor.Shape {
	return broadcastShape(op.Name(), in[0], in[1])
}

// Forward computes a + b.
func (AddOp) Forward(in ...*tensor.RawTensor) *tensor.RawTensor { return tensor.Add(in[0], in[1]) }

// Backward passes the output gradient through to both inputs.
func (AddOp) Backward(in []*tensor.RawTensor, _, g *tensor.RawTensor) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		tensor.ReduceTo(g, in[0].Shape()),
		tensor.ReduceTo(g, in[1].Shape()),
	}
}

// SubOp represents output = a - b.
//
// Backward: grad_a = outputGrad, grad_b = -outputGrad.
type SubOp struct{}

// Name returns "sub".
func (SubOp) Name() string { return "sub" }

// Shape returns the broadcast shape of a and b.
func (op SubOp) Shape(in ...tensor.Shape) tensor.Shape {
	return broadcastShape(op.Name(), in[0], in[1])
}

// Forward computes a - b.
func (SubOp) Forward(in ...*tensor.RawTensor) *tensor.RawTensor { return tensor.Sub(in[0], in[1]) }

// Backward negates the gradient flowing into b.
func (SubOp) Backward(in []*tensor.RawTensor, _, g *tensor.RawTensor) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		tensor.ReduceTo(g, in[0].Shape()),
		tensor.ReduceTo(tensor.Scale(g, -1), in[1].Shape()),
	}
}

// MulOp represents output = a * b.
//
// Backward:
//   - grad_a = outputGrad * b
//   - grad_b = outputGrad * a
type MulOp struct{}

// Name returns "mul".
func (MulOp) Name() string { return "mul" }

// Shape returns the broadcast shape of a and b.
func (op MulOp) Shape(in ...tensor.Shape) tensor.Shape {
	return broadcastShape(op.Name(), in[0], in[1])
}

// Forward computes a * b.
func (MulOp) Forward(in ...*tensor.RawTensor) *tensor.RawTensor { return tensor.Mul(in[0], in[1]) }

// Backward applies the product rule.
func (MulOp) Backward(in []*tensor.RawTensor, _, g *tensor.RawTensor) []*tensor.RawTensor {
	a, b := in[0], in[1]
	return []*tensor.RawTensor{
		tensor.ReduceTo(tensor.Mul(g, b), a.Shape()),
		tensor.ReduceTo(tensor.Mul(g, a), b.Shape()),
	}
}

// DivOp represents output = a / b.
//
// Backward:
//   - grad_a = outputGrad / b
//   - grad_b = -outputGrad * a / b²
type DivOp struct{}

// Name returns "div".
func (DivOp) Name() string { return "div" }

// Shape returns the broadcast shape of a and b.
func (op DivOp) Shape(in ...tensor.Shape) tensor.Shape {
	return broadcastShape(op.Name(), in[0], in[1])
}

// Forward computes a / b.
func (DivOp) Forward(in ...*tensor.RawTensor) *tensor.RawTensor { return tensor.Div(in[0], in[1]) }

// Backward applies the quotient rule. output = a/b, so grad_b = -g*output/b.
func (DivOp) Backward(in []*tensor.RawTensor, out, g *tensor.RawTensor) []*tensor.RawTensor {
	a, b := in[0], in[1]
	gradB := tensor.Scale(tensor.Div(tensor.Mul(g, out), b), -1)
	return []*tensor.RawTensor{
		tensor.ReduceTo(tensor.Div(g, b), a.Shape()),
		tensor.ReduceTo(gradB, b.Shape()),
	}
}

// ScaleOp represents output = x * Factor for a constant Factor.
type ScaleOp struct {
	Factor float64
}

// Name returns "scale".
func (ScaleOp) Name() string { return "scale" }

// Shape returns the input shape.
func (ScaleOp) Shape(in ...tensor.Shape) tensor.Shape { return in[0].Clone() }

// Forward computes x * Factor.
func (op ScaleOp) Forward(in ...*tensor.RawTensor) *tensor.RawTensor {
	return tensor.Scale(in[0], op.Factor)
}

// Backward scales the output gradient by Factor.
func (op ScaleOp) Backward(_ []*tensor.RawTensor, _, g *tensor.RawTensor) []*tensor.RawTensor {
	return []*tensor.RawTensor{tensor.Scale(g, op.Factor)}
}
