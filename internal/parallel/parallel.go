// Package parallel splits index ranges across goroutines for CPU kernels.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled    bool // Whether parallel execution is enabled.
	NumWorkers int  // Maximum number of concurrent goroutines.
	MinChunk   int  // Minimum indices per goroutine.
}

// DefaultConfig returns defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:    n > 1,
		NumWorkers: n,
		MinChunk:   4096,
	}
}

// Chunks calls f(start, end) for consecutive half-open chunks covering
// [0, n). Chunks never overlap, so f may write to disjoint slices without
// locking. Runs sequentially as one chunk when parallelism is disabled or
// n is below MinChunk. Chunks returns after every call has finished.
func Chunks(n int, cfg Config, f func(start, end int)) {
	if n <= 0 {
		return
	}
	if !cfg.Enabled || cfg.NumWorkers < 2 || n < 2*max(cfg.MinChunk, 1) {
		f(0, n)
		return
	}

	size := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunk, 1)
	var g errgroup.Group
	g.SetLimit(cfg.NumWorkers)
	for start := 0; start < n; start += size {
		end := min(start+size, n)
		g.Go(func() error {
			f(start, end)
			return nil
		})
	}
	_ = g.Wait()
}

// Rows is Chunks over a row-major matrix: it splits rows, requiring at
// least MinChunk elements (rows * rowLen) per chunk.
func Rows(rows, rowLen int, cfg Config, f func(start, end int)) {
	if rowLen > 0 {
		cfg.MinChunk = max(cfg.MinChunk/rowLen, 1)
	}
	Chunks(rows, cfg, f)
}
