package dist

import (
	"context"
	"fmt"
	"sync"

	"github.com/born-ml/descent/internal/tensor"
)

// LocalGroup connects a fixed number of in-process workers.
//
// Collectives are matched by call order: the k-th AllReduceMean of every
// rank forms round k. A round completes when the last rank contributes.
//
// A collective abandoned through context cancellation breaks the pairing
// of later rounds, so it aborts the group: every pending and future
// AllReduceMean returns ErrAborted.
type LocalGroup struct {
	size int

	mu      sync.Mutex
	rounds  map[uint64]*round
	next    []uint64 // per-rank round counter
	err     error    // set once the group is aborted
	aborted chan struct{}
}

type round struct {
	shape   tensor.Shape
	dtype   tensor.DataType
	sum     []float64
	count   int
	err     error
	done    chan struct{}
	waiters int
}

// NewLocalGroup creates a group of size workers.
func NewLocalGroup(size int) (*LocalGroup, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrWorldSize, size)
	}
	return &LocalGroup{
		size:    size,
		rounds:  make(map[uint64]*round),
		next:    make([]uint64, size),
		aborted: make(chan struct{}),
	}, nil
}

// Size returns the number of workers in the group.
func (g *LocalGroup) Size() int {
	return g.size
}

// Worker returns the Communicator for rank.
func (g *LocalGroup) Worker(rank int) (Communicator, error) {
	if rank < 0 || rank >= g.size {
		return nil, fmt.Errorf("%w: %d of %d", ErrInvalidRank, rank, g.size)
	}
	return &localWorker{group: g, rank: rank}, nil
}

// Workers returns one Communicator per rank, in rank order.
func (g *LocalGroup) Workers() []Communicator {
	out := make([]Communicator, g.size)
	for i := range out {
		out[i] = &localWorker{group: g, rank: i}
	}
	return out
}

// join adds t to the rank's next round and returns the round and its id.
// It fails if the group has been aborted.
func (g *LocalGroup) join(rank int, t *tensor.RawTensor) (uint64, *round, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return 0, nil, g.err
	}

	id := g.next[rank]
	g.next[rank]++

	r, ok := g.rounds[id]
	if !ok {
		r = &round{
			shape: t.Shape().Clone(),
			dtype: t.DType(),
			sum:   make([]float64, t.NumElements()),
			done:  make(chan struct{}),
		}
		g.rounds[id] = r
	}
	r.waiters++

	switch {
	case r.err != nil:
	case !r.shape.Equal(t.Shape()) || r.dtype != t.DType():
		r.err = fmt.Errorf("%w: %s%v vs %s%v", ErrShapeMismatch, r.dtype, r.shape, t.DType(), t.Shape())
	default:
		for i := range r.sum {
			r.sum[i] += t.At(i)
		}
	}

	r.count++
	if r.count == g.size {
		if r.err == nil {
			for i := range r.sum {
				r.sum[i] /= float64(g.size)
			}
		}
		close(r.done)
	}
	return id, r, nil
}

// abort marks the group unusable and wakes every waiting rank.
func (g *LocalGroup) abort(cause error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err == nil {
		g.err = fmt.Errorf("%w: %v", ErrAborted, cause)
		close(g.aborted)
	}
}

func (g *LocalGroup) abortErr() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

// leave drops the round once every rank has read the result.
func (g *LocalGroup) leave(id uint64, r *round) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r.waiters--
	if r.waiters == 0 && r.count == g.size {
		delete(g.rounds, id)
	}
}

type localWorker struct {
	group *LocalGroup
	rank  int
}

func (w *localWorker) Rank() int      { return w.rank }
func (w *localWorker) WorldSize() int { return w.group.size }

func (w *localWorker) AllReduceMean(ctx context.Context, t *tensor.RawTensor) error {
	g := w.group
	if g.size == 1 {
		return nil
	}

	id, r, err := g.join(w.rank, t)
	if err != nil {
		return err
	}
	defer g.leave(id, r)

	select {
	case <-r.done:
	case <-ctx.Done():
		g.abort(fmt.Errorf("rank %d left round %d", w.rank, id))
		return fmt.Errorf("all-reduce round %d: %w", id, ctx.Err())
	case <-g.aborted:
		return g.abortErr()
	}
	if r.err != nil {
		return r.err
	}
	writeMean(t, r.sum)
	return nil
}

func writeMean(t *tensor.RawTensor, mean []float64) {
	switch t.DType() {
	case tensor.Float32:
		dst := tensor.Data[float32](t)
		for i := range dst {
			dst[i] = float32(mean[i])
		}
	case tensor.Float64:
		copy(tensor.Data[float64](t), mean)
	}
}
