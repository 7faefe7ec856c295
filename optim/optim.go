// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/born-ml/descent/internal/autodiff"
	"github.com/born-ml/descent/internal/optim"
)

// Optimizer owns parameter groups and drives one update rule.
type Optimizer = optim.Optimizer

// Config represents the base configuration for optimizers.
type Config = optim.Config

// Engine is the autodiff capability an optimizer needs.
type Engine = optim.Engine

// UpdateRule turns gradients into parameter updates.
type UpdateRule = optim.UpdateRule

// Kind identifies an update rule.
type Kind = optim.Kind

// Update rules.
const (
	KindPlain = optim.KindPlain
	KindSGD   = optim.KindSGD
	KindAdam  = optim.KindAdam
)

// DefaultParamSyncIter is the default full parameter resync interval.
const DefaultParamSyncIter = optim.DefaultParamSyncIter

// StepKey is the state dict key holding the step count.
const StepKey = optim.StepKey

// ParseKind parses "plain", "sgd" or "adam".
func ParseKind(s string) (Kind, error) {
	return optim.ParseKind(s)
}

// New creates an optimizer driving a custom update rule.
func New(groups []ParamGroup, cfg Config, rule UpdateRule) (*Optimizer, error) {
	return optim.New(groups, cfg, rule)
}

// Parameter groups

// ParamGroup is a set of parameters sharing hyperparameter overrides.
type ParamGroup = optim.ParamGroup

// GroupOptions holds per-group overrides. Nil fields use the optimizer
// default.
type GroupOptions = optim.GroupOptions

// Betas holds Adam's moment decay rates.
type Betas = optim.Betas

// Params puts every parameter in a single group without overrides.
func Params(ps ...*autodiff.Tensor) []ParamGroup {
	return optim.Params(ps...)
}

// Group creates a parameter group with overrides.
//
// Example:
//
//	groups := []optim.ParamGroup{
//	    optim.Group(optim.GroupOptions{}, w),
//	    optim.Group(optim.GroupOptions{LR: optim.Float(0.001)}, b),
//	}
func Group(opts GroupOptions, ps ...*autodiff.Tensor) ParamGroup {
	return optim.Group(opts, ps...)
}

// Float returns a pointer to v, for GroupOptions fields.
func Float(v float64) *float64 { return optim.Float(v) }

// Bool returns a pointer to v, for GroupOptions fields.
func Bool(v bool) *bool { return optim.Bool(v) }

// BetasOf returns a pointer to Betas{b0, b1}, for GroupOptions fields.
func BetasOf(b0, b1 float64) *Betas { return optim.BetasOf(b0, b1) }

// Plain gradient descent

// NewPlain creates a plain gradient descent optimizer: p -= lr * g.
func NewPlain(groups []ParamGroup, cfg Config) (*Optimizer, error) {
	return optim.NewPlain(groups, cfg)
}

// SGD (Stochastic Gradient Descent)

// SGDConfig contains configuration for SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD creates a new SGD optimizer.
//
// Example:
//
//	optimizer, err := optim.NewSGD(
//	    optim.Params(w, b),
//	    optim.SGDConfig{
//	        Config:   optim.Config{LR: 0.01},
//	        Momentum: 0.9,
//	    },
//	)
func NewSGD(groups []ParamGroup, cfg SGDConfig) (*Optimizer, error) {
	return optim.NewSGD(groups, cfg)
}

// Adam (Adaptive Moment Estimation)

// AdamConfig contains configuration for Adam optimizer.
type AdamConfig = optim.AdamConfig

// NewAdam creates a new Adam optimizer with bias correction.
//
// Example:
//
//	optimizer, err := optim.NewAdam(
//	    optim.Params(w, b),
//	    optim.AdamConfig{
//	        Config: optim.Config{LR: 0.001},
//	        Betas:  optim.Betas{0.9, 0.999},
//	        Eps:    1e-8,
//	    },
//	)
func NewAdam(groups []ParamGroup, cfg AdamConfig) (*Optimizer, error) {
	return optim.NewAdam(groups, cfg)
}

// AdamStepSize returns the bias-corrected Adam step size for step n.
func AdamStepSize(lr float64, betas Betas, n int) float64 {
	return optim.AdamStepSize(lr, betas, n)
}

// Errors

// Errors returned by optimizers.
var (
	ErrNoParameters           = optim.ErrNoParameters
	ErrEmptyGroup             = optim.ErrEmptyGroup
	ErrWeightDecayUnsupported = optim.ErrWeightDecayUnsupported
	ErrInvalidParamSyncIter   = optim.ErrInvalidParamSyncIter
	ErrGradientCount          = optim.ErrGradientCount
	ErrKindMismatch           = optim.ErrKindMismatch
	ErrStateShape             = optim.ErrStateShape
	ErrInvalidStep            = optim.ErrInvalidStep
	ErrUnknownKind            = optim.ErrUnknownKind
)
