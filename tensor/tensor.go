// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/descent/internal/tensor"
)

// Float is a constraint for supported element types: float32, float64.
type Float = tensor.Float

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3} is a 2×3 matrix, Shape{} is a scalar.
type Shape = tensor.Shape

// Kernels. Binary kernels broadcast only when one side has a single
// element; any other shape or dtype mismatch panics.

// Add returns a + b.
func Add(a, b *RawTensor) *RawTensor { return tensor.Add(a, b) }

// Sub returns a - b.
func Sub(a, b *RawTensor) *RawTensor { return tensor.Sub(a, b) }

// Mul returns a * b element-wise.
func Mul(a, b *RawTensor) *RawTensor { return tensor.Mul(a, b) }

// Div returns a / b element-wise.
func Div(a, b *RawTensor) *RawTensor { return tensor.Div(a, b) }

// Scale returns x * s.
func Scale(x *RawTensor, s float64) *RawTensor { return tensor.Scale(x, s) }

// Sqrt returns the element-wise square root of x.
func Sqrt(x *RawTensor) *RawTensor { return tensor.Sqrt(x) }

// Sum reduces x to a scalar.
func Sum(x *RawTensor) *RawTensor { return tensor.Sum(x) }

// MatMul returns the product of two 2-D tensors.
func MatMul(a, b *RawTensor) *RawTensor { return tensor.MatMul(a, b) }

// Transpose returns the transpose of a 2-D tensor.
func Transpose(x *RawTensor) *RawTensor { return tensor.Transpose(x) }
