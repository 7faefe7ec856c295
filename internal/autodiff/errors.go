package autodiff

import "errors"

// Errors returned by Engine.Grad.
var (
	ErrNotScalar      = errors.New("autodiff: loss must have exactly one element")
	ErrNoGradientPath = errors.New("autodiff: loss does not depend on tensor")
	ErrStopGrad       = errors.New("autodiff: gradient requested for stop-grad tensor")
)
