package optim

import (
	"fmt"
	"math"

	"github.com/born-ml/descent/internal/tensor"
)

// AdamConfig holds configuration for the Adam optimizer.
type AdamConfig struct {
	Config

	Eps float64 // Term for numerical stability (default: 1e-8)

	// Betas are the coefficients for the running averages (default:
	// [0.9, 0.999]). A zero entry means "use the default" for that entry.
	// To run with a beta of exactly 0, set it through GroupOptions.Betas,
	// whose overrides are taken as given.
	Betas Betas

	// WeightDecay must be zero. It exists so that callers porting settings
	// from other optimizers get an error instead of a silently ignored value.
	WeightDecay float64
}

// adamRule implements Adam (Adaptive Moment Estimation).
//
// Update rule, with n the optimizer step count (1 on the first step):
//
//	m         = b0 * m + (1 - b0) * grad
//	v         = b1 * v + (1 - b1) * grad²
//	step_size = lr * sqrt(1 - b1^n) / (1 - b0^n)
//	param     = param - step_size * m / (sqrt(v) + eps)
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type adamRule struct {
	eps   float64
	betas Betas
}

// NewAdam creates a new Adam optimizer.
//
// Default hyperparameters:
//   - LR: 0.001
//   - Betas: [0.9, 0.999]
//   - Eps: 1e-8
//
// Fails with ErrWeightDecayUnsupported if WeightDecay, or any group's
// WeightDecay override, is non-zero.
func NewAdam(groups []ParamGroup, cfg AdamConfig) (*Optimizer, error) {
	if cfg.WeightDecay != 0 {
		return nil, fmt.Errorf("%w: got %g", ErrWeightDecayUnsupported, cfg.WeightDecay)
	}
	if cfg.LR == 0 {
		cfg.LR = 0.001
	}
	if cfg.Betas[0] == 0 {
		cfg.Betas[0] = 0.9
	}
	if cfg.Betas[1] == 0 {
		cfg.Betas[1] = 0.999
	}
	if cfg.Eps == 0 {
		cfg.Eps = 1e-8
	}
	return New(groups, cfg.Config, &adamRule{eps: cfg.Eps, betas: cfg.Betas})
}

func (r *adamRule) Kind() Kind { return KindAdam }

// Initialize allocates zero first and second moments per parameter.
func (r *adamRule) Initialize(groups []*ParamGroup) error {
	for i, g := range groups {
		if wd := resolve(g.Options.WeightDecay, 0); wd != 0 {
			return fmt.Errorf("%w: group %d has %g", ErrWeightDecayUnsupported, i, wd)
		}
		g.values = g.zerosState()
		g.m = g.zerosState()
	}
	return nil
}

func (r *adamRule) Apply(g *ParamGroup, lr float64, nStep int) {
	eps := resolve(g.Options.Eps, r.eps)
	betas := resolve(g.Options.Betas, r.betas)
	stepSize := AdamStepSize(lr, betas, nStep)

	for i, p := range g.Params {
		grad := g.grads[i]
		if p.IsStopGrad() || grad == nil {
			continue
		}
		m, v := g.m[i].Raw(), g.values[i].Raw()
		switch p.DType() {
		case tensor.Float32:
			adamUpdate(tensor.Data[float32](p.Raw()), tensor.Data[float32](grad.Raw()),
				tensor.Data[float32](m), tensor.Data[float32](v), betas, stepSize, eps)
		case tensor.Float64:
			adamUpdate(tensor.Data[float64](p.Raw()), tensor.Data[float64](grad.Raw()),
				tensor.Data[float64](m), tensor.Data[float64](v), betas, stepSize, eps)
		}
	}
}

// AdamStepSize returns the bias-corrected step size
// lr * sqrt(1 - b1^n) / (1 - b0^n).
func AdamStepSize(lr float64, betas Betas, n int) float64 {
	fn := float64(n)
	return lr * math.Sqrt(1-math.Pow(betas[1], fn)) / (1 - math.Pow(betas[0], fn))
}

func adamUpdate[T tensor.Float](p, g, m, v []T, betas Betas, stepSize, eps float64) {
	b0, b1 := T(betas[0]), T(betas[1])
	step, e := T(stepSize), T(eps)
	for i := range p {
		m[i] = b0*m[i] + (1-b0)*g[i]
		v[i] = b1*v[i] + (1-b1)*g[i]*g[i]
		p[i] -= m[i] * step / (T(math.Sqrt(float64(v[i]))) + e)
	}
}
