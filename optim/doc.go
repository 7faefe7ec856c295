// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides gradient descent optimizers.
//
// # Overview
//
// This package contains:
//   - Plain gradient descent: p -= lr * g
//   - SGD: Stochastic Gradient Descent with momentum, dampening, Nesterov
//     and weight decay
//   - Adam: Adaptive Moment Estimation with bias correction
//   - Parameter groups with per-group hyperparameter overrides
//   - Data-parallel gradient averaging through a dist.Communicator
//
// Every optimizer is an *Optimizer driving one UpdateRule. The optimizer
// computes gradients itself from the loss, so a training step is a single
// call.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/descent/autodiff"
//	    "github.com/born-ml/descent/optim"
//	    "github.com/born-ml/descent/tensor"
//	)
//
//	func main() {
//	    w := autodiff.Zeros(tensor.Shape{3, 1}, tensor.Float32)
//
//	    optimizer, err := optim.NewAdam(optim.Params(w), optim.AdamConfig{
//	        Config: optim.Config{LR: 0.01},
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    for range 100 {
//	        loss := x.MatMul(w).Sub(y).Mul(x.MatMul(w).Sub(y)).Mean()
//	        if err := optimizer.Step(ctx, loss); err != nil {
//	            log.Fatal(err)
//	        }
//	    }
//	}
//
// # Parameter Groups
//
// Nil override fields fall back to the optimizer's configuration:
//
//	groups := []optim.ParamGroup{
//	    optim.Group(optim.GroupOptions{}, w),
//	    optim.Group(optim.GroupOptions{
//	        LR:       optim.Float(0.1),
//	        Momentum: optim.Float(0),
//	    }, b),
//	}
//	optimizer, err := optim.NewSGD(groups, optim.SGDConfig{
//	    Config:   optim.Config{LR: 0.01},
//	    Momentum: 0.9,
//	})
//
// Parameters marked with StopGrad stay in their group and receive no
// gradient or update, but are still included in distributed resyncs.
//
// # Distributed Training
//
// With a Communicator spanning more than one worker, every gradient is
// replaced by its cross-worker mean before the update, and every
// ParamSyncIter steps (default 10000) every parameter is replaced by its
// cross-worker mean as well:
//
//	optimizer, err := optim.NewSGD(optim.Params(w), optim.SGDConfig{
//	    Config: optim.Config{LR: 0.01, Comm: comm, ParamSyncIter: 1000},
//	})
//
// # Checkpoints
//
// StateDict and LoadStateDict expose the step count and auxiliary state.
// Save and Load write them as a checkpoint file:
//
//	f, _ := os.Create("adam.ckpt")
//	defer f.Close()
//	err := optimizer.Save(f)
package optim
