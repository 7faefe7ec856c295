// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/descent/internal/tensor"
)

// RawTensor is the low-level tensor representation.
//
// RawTensor provides:
//   - Shape and type information via Shape(), DType()
//   - Type-safe data access via Data[T]
//   - Deep copies via Clone() and in-place copies via CopyFrom()
//
// Example:
//
//	raw, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32)
//	data := tensor.Data[float32](raw) // aliases raw's storage
//	clone := raw.Clone()
type RawTensor = tensor.RawTensor

// NewRaw allocates a zero-filled tensor.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype)
}

// Zeros allocates a zero-filled tensor. It panics on an invalid shape.
func Zeros(shape Shape, dtype DataType) *RawTensor {
	return tensor.Zeros(shape, dtype)
}

// ZerosLike allocates a zero-filled tensor with r's shape and dtype.
func ZerosLike(r *RawTensor) *RawTensor {
	return tensor.ZerosLike(r)
}

// Full allocates a tensor with every element set to value.
func Full(shape Shape, dtype DataType, value float64) *RawTensor {
	return tensor.Full(shape, dtype, value)
}

// FromSlice creates a tensor holding a copy of data.
func FromSlice[T Float](data []T, shape Shape) (*RawTensor, error) {
	return tensor.FromSlice(data, shape)
}

// FromBytes creates a tensor from little-endian encoded data.
func FromBytes(b []byte, shape Shape, dtype DataType) (*RawTensor, error) {
	return tensor.FromBytes(b, shape, dtype)
}

// Data returns a typed view of r's storage. It panics if T does not
// match r's dtype.
func Data[T Float](r *RawTensor) []T {
	return tensor.Data[T](r)
}
