package optim

import (
	"fmt"
	"strings"
)

// Kind identifies an update rule.
type Kind int

// Update rules.
const (
	KindPlain Kind = iota
	KindSGD
	KindAdam
)

// String returns the lower-case rule name.
func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindSGD:
		return "sgd"
	case KindAdam:
		return "adam"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind parses a rule name as printed by Kind.String.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "plain", "gd":
		return KindPlain, nil
	case "sgd":
		return KindSGD, nil
	case "adam":
		return KindAdam, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// UpdateRule turns gradients into parameter updates.
type UpdateRule interface {
	// Kind identifies the rule.
	Kind() Kind

	// Initialize validates the groups and allocates auxiliary state.
	// It is called exactly once, at optimizer construction.
	Initialize(groups []*ParamGroup) error

	// Apply updates every trainable parameter of g in place.
	// lr is already resolved for the group; nStep is the optimizer step
	// count after the current increment (1 on the first step).
	Apply(g *ParamGroup, lr float64, nStep int)
}
