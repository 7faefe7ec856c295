package optim

import (
	"github.com/born-ml/descent/internal/autodiff"
)

// ParamGroup is a set of parameters sharing hyperparameter overrides.
//
// Callers fill Params and Options. The optimizer owns everything else:
// gradient slots, refreshed on every step, and auxiliary state allocated
// once at construction.
type ParamGroup struct {
	Params  []*autodiff.Tensor
	Options GroupOptions

	grads  []*autodiff.Tensor
	values []*autodiff.Tensor // SGD velocity, Adam second moment
	m      []*autodiff.Tensor // Adam first moment
}

// Params puts ps into a single group with no overrides.
func Params(ps ...*autodiff.Tensor) []ParamGroup {
	return []ParamGroup{{Params: ps}}
}

// Group builds a group with the given overrides.
func Group(opts GroupOptions, ps ...*autodiff.Tensor) ParamGroup {
	return ParamGroup{Params: ps, Options: opts}
}

// Grads returns the gradients from the last step, aligned with Params.
// Entries for stop-grad parameters are nil.
func (g *ParamGroup) Grads() []*autodiff.Tensor {
	return g.grads
}

// Values returns the per-parameter velocity (SGD) or second moment (Adam).
func (g *ParamGroup) Values() []*autodiff.Tensor {
	return g.values
}

// M returns the per-parameter first moment (Adam only).
func (g *ParamGroup) M() []*autodiff.Tensor {
	return g.m
}

// resetGrads replaces the gradient slots with nils.
func (g *ParamGroup) resetGrads() {
	g.grads = make([]*autodiff.Tensor, len(g.Params))
}

// zerosState allocates one zero tensor per parameter, excluded from
// gradient tracking.
func (g *ParamGroup) zerosState() []*autodiff.Tensor {
	state := make([]*autodiff.Tensor, len(g.Params))
	for i, p := range g.Params {
		state[i] = autodiff.ZerosLike(p).StopGrad()
	}
	return state
}
