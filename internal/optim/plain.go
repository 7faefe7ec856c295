package optim

import (
	"github.com/born-ml/descent/internal/tensor"
)

// plainRule is vanilla gradient descent: param = param - lr * grad.
type plainRule struct{}

// NewPlain creates a gradient descent optimizer with no auxiliary state.
//
// Default LR: 0.01.
func NewPlain(groups []ParamGroup, cfg Config) (*Optimizer, error) {
	if cfg.LR == 0 {
		cfg.LR = 0.01
	}
	return New(groups, cfg, plainRule{})
}

func (plainRule) Kind() Kind { return KindPlain }

func (plainRule) Initialize([]*ParamGroup) error { return nil }

func (plainRule) Apply(g *ParamGroup, lr float64, _ int) {
	for i, p := range g.Params {
		grad := g.grads[i]
		if p.IsStopGrad() || grad == nil {
			continue
		}
		switch p.DType() {
		case tensor.Float32:
			descend(tensor.Data[float32](p.Raw()), tensor.Data[float32](grad.Raw()), float32(lr))
		case tensor.Float64:
			descend(tensor.Data[float64](p.Raw()), tensor.Data[float64](grad.Raw()), lr)
		}
	}
}

func descend[T tensor.Float](p, g []T, lr T) {
	for i := range p {
		p[i] -= g[i] * lr
	}
}
