// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package dist provides collective operations for data-parallel training.
//
// Each worker holds a Communicator and passes it to its optimizer through
// optim.Config.Comm. LocalGroup connects workers running as goroutines in
// one process:
//
//	group, _ := dist.NewLocalGroup(4)
//	g, ctx := errgroup.WithContext(ctx)
//	for rank, comm := range group.Workers() {
//	    g.Go(func() error { return train(ctx, rank, comm) })
//	}
//	err := g.Wait()
package dist

import (
	"github.com/born-ml/descent/internal/dist"
)

// Communicator performs collective operations for one worker.
type Communicator = dist.Communicator

// LocalGroup connects a fixed number of in-process workers.
type LocalGroup = dist.LocalGroup

// Errors returned by communicators.
var (
	ErrShapeMismatch = dist.ErrShapeMismatch
	ErrInvalidRank   = dist.ErrInvalidRank
	ErrWorldSize     = dist.ErrWorldSize
	ErrAborted       = dist.ErrAborted
)

// NewLocalGroup creates a group of size in-process workers.
func NewLocalGroup(size int) (*LocalGroup, error) {
	return dist.NewLocalGroup(size)
}

// Distributed reports whether c spans more than one worker.
func Distributed(c Communicator) bool {
	return dist.Distributed(c)
}
