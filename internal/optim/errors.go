package optim

import "errors"

// Construction and runtime errors.
var (
	ErrNoParameters           = errors.New("optim: length of parameters should not be zero")
	ErrEmptyGroup             = errors.New("optim: parameter group has no parameters")
	ErrWeightDecayUnsupported = errors.New("optim: weight decay is not supported by adam")
	ErrInvalidParamSyncIter   = errors.New("optim: param sync interval must be positive")
	ErrGradientCount          = errors.New("optim: engine returned wrong number of gradients")
	ErrKindMismatch           = errors.New("optim: checkpoint was written by a different optimizer")
	ErrStateShape             = errors.New("optim: state tensor shape mismatch")
	ErrInvalidStep            = errors.New("optim: step count must be a non-negative integer")
	ErrUnknownKind            = errors.New("optim: unknown optimizer kind")
)
