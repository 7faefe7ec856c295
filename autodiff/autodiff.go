// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides automatic differentiation capabilities.
//
// This package implements lazy, graph-based reverse-mode automatic
// differentiation. Operations on a Tensor build a graph; values are
// computed on demand, and Engine.Grad returns gradients for several
// tensors from a single backward sweep.
//
// Example:
//
//	import (
//	    "github.com/born-ml/descent/autodiff"
//	    "github.com/born-ml/descent/tensor"
//	)
//
//	func main() {
//	    w, _ := autodiff.FromSlice([]float32{1, 2}, tensor.Shape{2})
//	    x, _ := autodiff.FromSlice([]float32{3, 4}, tensor.Shape{2})
//	    loss := w.Mul(x.StopGrad()).Sum() // nothing computed yet
//
//	    engine := autodiff.New(autodiff.Config{})
//	    grads, err := engine.Grad(loss, []*autodiff.Tensor{w})
//	}
package autodiff

import (
	"github.com/born-ml/descent/internal/autodiff"
	"github.com/born-ml/descent/internal/tensor"
)

// Tensor is a node in the computation graph.
type Tensor = autodiff.Tensor

// Engine evaluates graphs and computes gradients.
type Engine = autodiff.Engine

// Config configures an Engine.
type Config = autodiff.Config

// Errors returned by Engine.Grad.
var (
	ErrNotScalar      = autodiff.ErrNotScalar
	ErrNoGradientPath = autodiff.ErrNoGradientPath
	ErrStopGrad       = autodiff.ErrStopGrad
)

// New creates an engine.
//
// Example:
//
//	engine := autodiff.New(autodiff.Config{AllowUnused: true})
func New(cfg Config) *Engine {
	return autodiff.New(cfg)
}

// Leaf wraps raw as a graph leaf sharing its storage.
func Leaf(raw *tensor.RawTensor) *Tensor {
	return autodiff.Leaf(raw)
}

// FromSlice creates a leaf tensor holding a copy of data.
func FromSlice[T tensor.Float](data []T, shape tensor.Shape) (*Tensor, error) {
	return autodiff.FromSlice(data, shape)
}

// Zeros creates a zero-filled leaf tensor.
func Zeros(shape tensor.Shape, dtype tensor.DataType) *Tensor {
	return autodiff.Zeros(shape, dtype)
}

// ZerosLike creates a zero-filled leaf with t's shape and dtype.
func ZerosLike(t *Tensor) *Tensor {
	return autodiff.ZerosLike(t)
}
