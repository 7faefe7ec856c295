// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for raw tensor storage.
//
// The package defines the dense, CPU-resident representation shared by the
// autodiff engine, the optimizers and the collectives:
//   - RawTensor: contiguous float32 or float64 data with a shape
//   - Shape, DataType: core type definitions
//   - Element-wise and reduction kernels used by the engine
//
// Example:
//
//	x, _ := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
//	y := tensor.Scale(x, 0.5)
//	data := tensor.Data[float32](y) // zero-copy view
package tensor
