package optim

// Betas holds Adam's exponential decay rates for the first and second
// moment estimates.
type Betas [2]float64

// GroupOptions overrides optimizer-wide hyperparameters for one group.
// A nil field falls back to the optimizer default.
type GroupOptions struct {
	LR          *float64
	Momentum    *float64
	WeightDecay *float64
	Dampening   *float64
	Nesterov    *bool
	Eps         *float64
	Betas       *Betas
}

// Float returns a pointer to v, for filling GroupOptions.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v, for filling GroupOptions.
func Bool(v bool) *bool { return &v }

// BetasOf returns a pointer to Betas{b0, b1}, for filling GroupOptions.
func BetasOf(b0, b1 float64) *Betas { return &Betas{b0, b1} }

// resolve returns the group override if set, otherwise the default.
func resolve[T any](override *T, def T) T {
	if override != nil {
		return *override
	}
	return def
}
