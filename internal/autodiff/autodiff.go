// Package autodiff implements a lazy, graph-based reverse-mode automatic
// differentiation engine on top of the CPU kernels in internal/tensor.
//
// Operations on *Tensor build graph nodes without computing anything.
// Values are realized on demand (Tensor.Raw) or in bulk (Engine.Sync).
// Engine.Grad computes gradients of a scalar loss with respect to a list of
// tensors in a single reverse sweep.
//
// Usage:
//
//	engine := autodiff.New(autodiff.Config{})
//	x, _ := autodiff.FromSlice([]float32{2}, tensor.Shape{1})
//	loss := x.Mul(x).Sum() // x²
//	grads, err := engine.Grad(loss, []*autodiff.Tensor{x})
//	// grads[0] holds 2x = 4
package autodiff

import (
	"fmt"

	"github.com/born-ml/descent/internal/tensor"
)

// Config controls gradient computation.
type Config struct {
	// AllowUnused returns zero gradients for requested tensors the loss does
	// not depend on, instead of failing with ErrNoGradientPath.
	AllowUnused bool
}

// Engine computes gradients and forces evaluation of lazy tensors.
type Engine struct {
	cfg Config
}

// New creates an Engine.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Sync realizes every tensor in ts. Pending graphs are evaluated once and
// the results cached on their nodes.
func (e *Engine) Sync(ts []*Tensor) error {
	for _, t := range ts {
		t.Raw()
	}
	return nil
}

// Grad computes d(loss)/d(w) for every w in wrt in one backward sweep.
//
// The returned tensors are detached leaves aligned with wrt. Gradients do
// not flow through stop-grad tensors.
func (e *Engine) Grad(loss *Tensor, wrt []*Tensor) ([]*Tensor, error) {
	if loss.NumElements() != 1 {
		return nil, fmt.Errorf("%w: got shape %v", ErrNotScalar, loss.Shape())
	}
	for i, w := range wrt {
		if w.stopGrad {
			return nil, fmt.Errorf("%w: index %d", ErrStopGrad, i)
		}
	}

	grads := make(map[*Tensor]*tensor.RawTensor)
	if !loss.stopGrad {
		grads[loss] = tensor.Full(loss.shape, loss.dtype, 1)
		backward(topoSort(loss), grads)
	}

	out := make([]*Tensor, len(wrt))
	for i, w := range wrt {
		g, ok := grads[w]
		if !ok {
			if !e.cfg.AllowUnused {
				return nil, fmt.Errorf("%w: index %d %s", ErrNoGradientPath, i, w)
			}
			g = tensor.Zeros(w.shape, w.dtype)
		}
		out[i] = Leaf(g)
	}
	return out, nil
}

// topoSort returns the nodes reachable from root in topological order
// (inputs before the nodes that consume them). Stop-grad nodes are not
// expanded.
func topoSort(root *Tensor) []*Tensor {
	var order []*Tensor
	visited := make(map[*Tensor]bool)

	type frame struct {
		node *Tensor
		next int
	}
	stack := []frame{{node: root}}
	visited[root] = true
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.node.inputs) {
			in := top.node.inputs[top.next]
			top.next++
			if !visited[in] && !in.stopGrad {
				visited[in] = true
				stack = append(stack, frame{node: in})
			}
			continue
		}
		order = append(order, top.node)
		stack = stack[:len(stack)-1]
	}
	return order
}

// backward walks order in reverse and accumulates input gradients.
func backward(order []*Tensor, grads map[*Tensor]*tensor.RawTensor) {
	for i := len(order) - 1; i >= 0; i-- {
		node := order[i]
		g, ok := grads[node]
		if !ok || node.op == nil {
			continue
		}
		in := make([]*tensor.RawTensor, len(node.inputs))
		for j, x := range node.inputs {
			in[j] = x.Raw()
		}
		inputGrads := node.op.Backward(in, node.Raw(), g)
		for j, x := range node.inputs {
			if x.stopGrad || inputGrads[j] == nil {
				continue
			}
			if existing, ok := grads[x]; ok {
				grads[x] = tensor.Add(existing, inputGrads[j])
			} else {
				grads[x] = inputGrads[j]
			}
		}
	}
}
