package optim

import (
	"github.com/born-ml/descent/internal/tensor"
)

// SGDConfig holds configuration for the SGD optimizer.
// Every field except ParamSyncIter, Engine and Comm can be overridden per
// group through GroupOptions.
type SGDConfig struct {
	Config

	Momentum    float64 // Momentum factor (default: 0)
	WeightDecay float64 // L2 penalty added to the gradient (default: 0)
	Dampening   float64 // Dampening for momentum (default: 0)
	Nesterov    bool    // Use Nesterov momentum (default: false)
}

// sgdRule implements Stochastic Gradient Descent with momentum, weight
// decay, dampening and optional Nesterov momentum.
//
// Update rule:
//
//	dp       = param * weight_decay + grad
//	velocity = momentum * velocity + dp * (1 - dampening)
//	param    = param - lr * (dp + momentum * velocity)   // nesterov
//	param    = param - lr * velocity                     // otherwise
//
// With all of momentum, weight_decay and dampening at zero this reduces to
// plain gradient descent.
type sgdRule struct {
	momentum    float64
	weightDecay float64
	dampening   float64
	nesterov    bool
}

// NewSGD creates a new SGD optimizer.
//
// Default LR: 0.01.
//
// Example:
//
//	sgd, err := optim.NewSGD(optim.Params(w, b), optim.SGDConfig{
//	    Config:   optim.Config{LR: 0.01},
//	    Momentum: 0.9,
//	})
func NewSGD(groups []ParamGroup, cfg SGDConfig) (*Optimizer, error) {
	if cfg.LR == 0 {
		cfg.LR = 0.01
	}
	return New(groups, cfg.Config, &sgdRule{
		momentum:    cfg.Momentum,
		weightDecay: cfg.WeightDecay,
		dampening:   cfg.Dampening,
		nesterov:    cfg.Nesterov,
	})
}

func (r *sgdRule) Kind() Kind { return KindSGD }

// Initialize allocates one zero velocity per parameter.
func (r *sgdRule) Initialize(groups []*ParamGroup) error {
	for _, g := range groups {
		g.values = g.zerosState()
	}
	return nil
}

func (r *sgdRule) Apply(g *ParamGroup, lr float64, _ int) {
	h := sgdHyper{
		lr:          lr,
		momentum:    resolve(g.Options.Momentum, r.momentum),
		weightDecay: resolve(g.Options.WeightDecay, r.weightDecay),
		dampening:   resolve(g.Options.Dampening, r.dampening),
		nesterov:    resolve(g.Options.Nesterov, r.nesterov),
	}
	for i, p := range g.Params {
		grad := g.grads[i]
		if p.IsStopGrad() || grad == nil {
			continue
		}
		v := g.values[i].Raw()
		switch p.DType() {
		case tensor.Float32:
			sgdUpdate(tensor.Data[float32](p.Raw()), tensor.Data[float32](grad.Raw()), tensor.Data[float32](v), h)
		case tensor.Float64:
			sgdUpdate(tensor.Data[float64](p.Raw()), tensor.Data[float64](grad.Raw()), tensor.Data[float64](v), h)
		}
	}
}

// sgdHyper is the resolved hyperparameter set for one group.
type sgdHyper struct {
	lr, momentum, weightDecay, dampening float64
	nesterov                             bool
}

func sgdUpdate[T tensor.Float](p, g, v []T, h sgdHyper) {
	lr, mom, wd, damp := T(h.lr), T(h.momentum), T(h.weightDecay), T(h.dampening)
	for i := range p {
		dp := p[i]*wd + g[i]
		v[i] = mom*v[i] + dp*(1-damp)
		if h.nesterov {
			p[i] -= (dp + mom*v[i]) * lr
		} else {
			p[i] -= v[i] * lr
		}
	}
}
