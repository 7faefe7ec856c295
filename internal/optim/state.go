package optim

import (
	"fmt"
	"io"
	"math"

	"github.com/born-ml/descent/internal/autodiff"
	"github.com/born-ml/descent/internal/checkpoint"
	"github.com/born-ml/descent/internal/tensor"
)

// StepKey is the state dict key holding the step count.
const StepKey = "n_step"

// StateDict returns the optimizer state for serialization.
//
// State keys:
//   - "n_step": scalar float64 step count
//   - "group.{g}.values.{i}": SGD velocity or Adam second moment
//   - "group.{g}.m.{i}": Adam first moment
//
// The returned tensors alias the live state; clone them if the optimizer
// keeps stepping before they are written out.
func (o *Optimizer) StateDict() map[string]*tensor.RawTensor {
	state := make(map[string]*tensor.RawTensor)
	state[StepKey] = tensor.Full(tensor.Shape{}, tensor.Float64, float64(o.nStep))

	for gi, g := range o.groups {
		for i, v := range g.values {
			state[fmt.Sprintf("group.%d.values.%d", gi, i)] = v.Raw()
		}
		for i, m := range g.m {
			state[fmt.Sprintf("group.%d.m.%d", gi, i)] = m.Raw()
		}
	}
	return state
}

// LoadStateDict restores state produced by StateDict.
//
// Values are copied into the existing auxiliary tensors, which are never
// reallocated. Missing entries leave the current state untouched. Every
// entry is validated before anything is copied, so on error the optimizer
// is unchanged. Tensors must match their slot's shape and dtype, and
// "n_step" must hold one non-negative integer.
func (o *Optimizer) LoadStateDict(state map[string]*tensor.RawTensor) error {
	nStep := o.nStep
	if n, ok := state[StepKey]; ok {
		var err error
		if nStep, err = stepCount(n); err != nil {
			return err
		}
	}

	type pending struct {
		dst, src *tensor.RawTensor
	}
	var copies []pending
	for gi, g := range o.groups {
		for _, slots := range []struct {
			prefix string
			ts     []*autodiff.Tensor
		}{
			{fmt.Sprintf("group.%d.values", gi), g.values},
			{fmt.Sprintf("group.%d.m", gi), g.m},
		} {
			for i, slot := range slots.ts {
				key := fmt.Sprintf("%s.%d", slots.prefix, i)
				src, ok := state[key]
				if !ok {
					continue
				}
				dst := slot.Raw()
				if !src.Shape().Equal(dst.Shape()) || src.DType() != dst.DType() {
					return fmt.Errorf("%w: %s: expected %s%v, got %s%v",
						ErrStateShape, key, dst.DType(), dst.Shape(), src.DType(), src.Shape())
				}
				copies = append(copies, pending{dst: dst, src: src})
			}
		}
	}

	for _, c := range copies {
		c.dst.CopyFrom(c.src)
	}
	o.nStep = nStep
	return nil
}

func stepCount(t *tensor.RawTensor) (int, error) {
	if t.NumElements() != 1 {
		return 0, fmt.Errorf("%w: %s: expected one element, got shape %v", ErrStateShape, StepKey, t.Shape())
	}
	v := t.At(0)
	if v < 0 || v != math.Trunc(v) || v > 1<<53 {
		return 0, fmt.Errorf("%w: %s = %g", ErrInvalidStep, StepKey, v)
	}
	return int(v), nil
}

// Save writes the optimizer state to w as a checkpoint file.
func (o *Optimizer) Save(w io.Writer) error {
	return checkpoint.Write(w, &checkpoint.File{
		Kind:    o.Kind().String(),
		Tensors: o.StateDict(),
	})
}

// Load restores optimizer state from a checkpoint written by Save.
// The checkpoint must come from an optimizer of the same kind.
func (o *Optimizer) Load(r io.Reader) error {
	f, err := checkpoint.Read(r)
	if err != nil {
		return err
	}
	if f.Kind != o.Kind().String() {
		return fmt.Errorf("%w: file has %q, optimizer is %q", ErrKindMismatch, f.Kind, o.Kind())
	}
	return o.LoadStateDict(f.Tensors)
}
