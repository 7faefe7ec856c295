// Package optim implements optimization algorithms for training neural networks.
//
// This package provides:
//   - Optimizer: gradient collection, distributed synchronization and
//     bookkeeping shared by every update rule
//   - Plain gradient descent, SGD with momentum and Adam as UpdateRule
//     variants selected at construction
//   - Parameter groups with per-group hyperparameter overrides
//
// Example usage:
//
//	optimizer, err := optim.NewAdam(optim.Params(w, b), optim.AdamConfig{
//	    Config: optim.Config{LR: 0.001},
//	})
//
//	// Training loop
//	for range epochs {
//	    loss := computeLoss(model, data)
//	    if err := optimizer.Step(ctx, loss); err != nil {
//	        return err
//	    }
//	}
package optim

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/born-ml/descent/internal/autodiff"
	"github.com/born-ml/descent/internal/dist"
)

// DefaultParamSyncIter is the default interval, in steps, between full
// parameter resyncs in distributed mode.
const DefaultParamSyncIter = 10000

// Engine is the autodiff capability the optimizer needs.
// *autodiff.Engine implements it.
type Engine interface {
	// Grad computes gradients of loss with respect to each tensor in wrt,
	// returned in the same order.
	Grad(loss *autodiff.Tensor, wrt []*autodiff.Tensor) ([]*autodiff.Tensor, error)

	// Sync forces evaluation of any pending computation behind ts.
	Sync(ts []*autodiff.Tensor) error
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR float64 // Default learning rate for groups without an override

	// ParamSyncIter is the full parameter resync interval used in
	// distributed mode (default: 10000).
	ParamSyncIter int

	// Engine computes gradients (default: autodiff.New with a zero Config).
	Engine Engine

	// Comm enables distributed mode when it spans more than one worker.
	Comm dist.Communicator
}

// Optimizer owns parameter groups and drives one UpdateRule.
//
// Step is synchronous and not safe for concurrent use.
type Optimizer struct {
	groups        []*ParamGroup
	lr            float64
	paramSyncIter int
	nStep         int
	engine        Engine
	comm          dist.Communicator
	rule          UpdateRule
}

// New creates an optimizer that applies rule to groups.
//
// The groups are copied; auxiliary state is allocated here and lives for
// the optimizer's lifetime. Fails if there are no groups or any group is
// empty.
func New(groups []ParamGroup, cfg Config, rule UpdateRule) (*Optimizer, error) {
	if len(groups) == 0 {
		return nil, ErrNoParameters
	}
	if cfg.ParamSyncIter < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidParamSyncIter, cfg.ParamSyncIter)
	}
	if cfg.ParamSyncIter == 0 {
		cfg.ParamSyncIter = DefaultParamSyncIter
	}
	if cfg.Engine == nil {
		cfg.Engine = autodiff.New(autodiff.Config{})
	}

	owned := make([]*ParamGroup, len(groups))
	for i, g := range groups {
		if len(g.Params) == 0 {
			return nil, fmt.Errorf("%w: group %d", ErrEmptyGroup, i)
		}
		owned[i] = &ParamGroup{
			Params:  append([]*autodiff.Tensor(nil), g.Params...),
			Options: g.Options,
		}
		owned[i].resetGrads()
	}
	if err := rule.Initialize(owned); err != nil {
		return nil, err
	}

	return &Optimizer{
		groups:        owned,
		lr:            cfg.LR,
		paramSyncIter: cfg.ParamSyncIter,
		engine:        cfg.Engine,
		comm:          cfg.Comm,
		rule:          rule,
	}, nil
}

// PreStep does the work shared by every update rule: it computes gradients
// of loss, synchronizes them across workers and scatters them into the
// groups' gradient slots.
//
// Order of operations:
//  1. clear all gradient slots
//  2. realize every parameter, so the graph does not grow across steps
//  3. compute gradients for all non-stop-grad parameters in one call
//  4. in distributed mode, average each gradient across workers, and every
//     ParamSyncIter steps average every parameter as well
//  5. increment the step count
//  6. scatter gradients back to the groups
func (o *Optimizer) PreStep(ctx context.Context, loss *autodiff.Tensor) error {
	for _, g := range o.groups {
		g.resetGrads()
	}

	params := lo.FlatMap(o.groups, func(g *ParamGroup, _ int) []*autodiff.Tensor {
		return g.Params
	})
	trainable := lo.Filter(params, func(p *autodiff.Tensor, _ int) bool {
		return !p.IsStopGrad()
	})

	if err := o.engine.Sync(params); err != nil {
		return fmt.Errorf("sync parameters: %w", err)
	}

	grads, err := o.engine.Grad(loss, trainable)
	if err != nil {
		return fmt.Errorf("compute gradients: %w", err)
	}
	if len(grads) != len(trainable) {
		return fmt.Errorf("%w: got %d, want %d", ErrGradientCount, len(grads), len(trainable))
	}

	if dist.Distributed(o.comm) {
		for i, g := range grads {
			if err := o.comm.AllReduceMean(ctx, g.Raw()); err != nil {
				return fmt.Errorf("all-reduce gradient %d: %w", i, err)
			}
		}
		if o.nStep%o.paramSyncIter == 0 {
			for i, p := range params {
				if err := o.comm.AllReduceMean(ctx, p.Raw()); err != nil {
					return fmt.Errorf("all-reduce parameter %d: %w", i, err)
				}
				p.DetachInPlace()
			}
		}
	}

	o.nStep++

	pid := 0
	for _, g := range o.groups {
		for i, p := range g.Params {
			if p.IsStopGrad() {
				continue
			}
			g.grads[i] = grads[pid]
			pid++
		}
	}
	return nil
}

// Step runs PreStep and then applies the update rule to every group.
// Updated parameters are detached from the graph that produced them, so
// the next forward pass starts from the new values.
func (o *Optimizer) Step(ctx context.Context, loss *autodiff.Tensor) error {
	if err := o.PreStep(ctx, loss); err != nil {
		return err
	}
	for _, g := range o.groups {
		o.rule.Apply(g, resolve(g.Options.LR, o.lr), o.nStep)
		for _, p := range g.Params {
			if !p.IsStopGrad() {
				p.DetachInPlace()
			}
		}
	}
	return nil
}

// ZeroGrad clears the gradient slots of every group.
func (o *Optimizer) ZeroGrad() {
	for _, g := range o.groups {
		g.resetGrads()
	}
}

// Groups returns the optimizer's parameter groups.
func (o *Optimizer) Groups() []*ParamGroup {
	return o.groups
}

// NStep returns the number of completed PreStep calls.
func (o *Optimizer) NStep() int {
	return o.nStep
}

// Kind returns the update rule in use.
func (o *Optimizer) Kind() Kind {
	return o.rule.Kind()
}

// GetLR returns the default learning rate.
func (o *Optimizer) GetLR() float64 {
	return o.lr
}

// SetLR updates the default learning rate. Groups with an LR override
// are unaffected.
//
// Useful for learning rate scheduling during training.
func (o *Optimizer) SetLR(lr float64) {
	o.lr = lr
}

// ParamSyncIter returns the full parameter resync interval.
func (o *Optimizer) ParamSyncIter() int {
	return o.paramSyncIter
}
