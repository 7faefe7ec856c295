package autodiff

import (
	"fmt"

	"github.com/born-ml/descent/internal/autodiff/ops"
	"github.com/born-ml/descent/internal/tensor"
)

// Tensor is a node in the computation graph.
//
// Leaves hold a value directly. Interior nodes hold the operation and inputs
// that produce them and are evaluated lazily: the value is computed on the
// first call to Raw (or Engine.Sync) and cached. DetachInPlace turns any node
// into a leaf holding its current value.
type Tensor struct {
	value    *tensor.RawTensor
	shape    tensor.Shape
	dtype    tensor.DataType
	op       ops.Operation
	inputs   []*Tensor
	stopGrad bool
}

// Leaf wraps raw as a graph leaf. The tensor aliases raw's storage.
func Leaf(raw *tensor.RawTensor) *Tensor {
	return &Tensor{value: raw, shape: raw.Shape(), dtype: raw.DType()}
}

// FromSlice creates a leaf tensor holding a copy of data.
func FromSlice[T tensor.Float](data []T, shape tensor.Shape) (*Tensor, error) {
	raw, err := tensor.FromSlice(data, shape)
	if err != nil {
		return nil, err
	}
	return Leaf(raw), nil
}

// Zeros creates a zero-filled leaf tensor.
func Zeros(shape tensor.Shape, dtype tensor.DataType) *Tensor {
	return Leaf(tensor.Zeros(shape, dtype))
}

// ZerosLike creates a zero-filled leaf with t's shape and dtype.
func ZerosLike(t *Tensor) *Tensor {
	return Zeros(t.shape, t.dtype)
}

func newNode(op ops.Operation, inputs ...*Tensor) *Tensor {
	shapes := make([]tensor.Shape, len(inputs))
	for i, in := range inputs {
		if in.dtype != inputs[0].dtype {
			panic(fmt.Sprintf("%s: dtype mismatch %s vs %s", op.Name(), inputs[0].dtype, in.dtype))
		}
		shapes[i] = in.shape
	}
	return &Tensor{
		shape:  op.Shape(shapes...),
		dtype:  inputs[0].dtype,
		op:     op,
		inputs: inputs,
	}
}

// Raw returns the realized value, evaluating pending operations first.
func (t *Tensor) Raw() *tensor.RawTensor {
	if t.value == nil {
		in := make([]*tensor.RawTensor, len(t.inputs))
		for i, x := range t.inputs {
			in[i] = x.Raw()
		}
		t.value = t.op.Forward(in...)
	}
	return t.value
}

// IsRealized reports whether the value has been computed.
func (t *Tensor) IsRealized() bool {
	return t.value != nil
}

// IsLeaf reports whether t has no producing operation.
func (t *Tensor) IsLeaf() bool {
	return t.op == nil
}

// Shape returns the tensor's shape. It does not force evaluation.
func (t *Tensor) Shape() tensor.Shape {
	return t.shape
}

// DType returns the tensor's data type.
func (t *Tensor) DType() tensor.DataType {
	return t.dtype
}

// NumElements returns the number of elements.
func (t *Tensor) NumElements() int {
	return t.shape.NumElements()
}

// StopGrad marks t as excluded from gradient computation and returns t.
func (t *Tensor) StopGrad() *Tensor {
	t.stopGrad = true
	return t
}

// IsStopGrad reports whether t is excluded from gradient computation.
func (t *Tensor) IsStopGrad() bool {
	return t.stopGrad
}

// DetachInPlace severs t from the graph that produced it. The value is
// realized first, so detaching never changes what t holds.
func (t *Tensor) DetachInPlace() {
	t.Raw()
	t.op = nil
	t.inputs = nil
}

// Item returns the single element of a one-element tensor as float64.
func (t *Tensor) Item() float64 {
	if t.NumElements() != 1 {
		panic(fmt.Sprintf("item: tensor has %d elements", t.NumElements()))
	}
	return t.Raw().At(0)
}

// String returns a short description of the tensor.
func (t *Tensor) String() string {
	kind := "leaf"
	if t.op != nil {
		kind = t.op.Name()
	}
	return fmt.Sprintf("Tensor(%s%v, %s)", t.dtype, t.shape, kind)
}

// Add returns t + o.
func (t *Tensor) Add(o *Tensor) *Tensor { return newNode(ops.AddOp{}, t, o) }

// Sub returns t - o.
func (t *Tensor) Sub(o *Tensor) *Tensor { return newNode(ops.SubOp{}, t, o) }

// Mul returns t * o element-wise.
func (t *Tensor) Mul(o *Tensor) *Tensor { return newNode(ops.MulOp{}, t, o) }

// Div returns t / o element-wise.
func (t *Tensor) Div(o *Tensor) *Tensor { return newNode(ops.DivOp{}, t, o) }

// Scale returns t * s.
func (t *Tensor) Scale(s float64) *Tensor { return newNode(ops.ScaleOp{Factor: s}, t) }

// Sum reduces t to a scalar.
func (t *Tensor) Sum() *Tensor { return newNode(ops.SumOp{}, t) }

// Mean returns the mean of all elements as a scalar.
func (t *Tensor) Mean() *Tensor { return t.Sum().Scale(1 / float64(t.NumElements())) }

// MatMul returns t @ o for 2-D tensors.
func (t *Tensor) MatMul(o *Tensor) *Tensor { return newNode(ops.MatMulOp{}, t, o) }
