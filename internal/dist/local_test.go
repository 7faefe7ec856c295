package dist_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/born-ml/descent/internal/dist"
	"github.com/born-ml/descent/internal/tensor"
)

func TestNewLocalGroup(t *testing.T) {
	_, err := dist.NewLocalGroup(0)
	require.ErrorIs(t, err, dist.ErrWorldSize)

	group, err := dist.NewLocalGroup(3)
	require.NoError(t, err)
	assert.Equal(t, 3, group.Size())

	_, err = group.Worker(3)
	require.ErrorIs(t, err, dist.ErrInvalidRank)
	_, err = group.Worker(-1)
	require.ErrorIs(t, err, dist.ErrInvalidRank)

	for rank, w := range group.Workers() {
		assert.Equal(t, rank, w.Rank())
		assert.Equal(t, 3, w.WorldSize())
	}
}

func TestDistributed(t *testing.T) {
	assert.False(t, dist.Distributed(nil))

	single, err := dist.NewLocalGroup(1)
	require.NoError(t, err)
	w, err := single.Worker(0)
	require.NoError(t, err)
	assert.False(t, dist.Distributed(w))

	pair, err := dist.NewLocalGroup(2)
	require.NoError(t, err)
	w, err = pair.Worker(1)
	require.NoError(t, err)
	assert.True(t, dist.Distributed(w))
}

func TestAllReduceMean(t *testing.T) {
	const workers = 4
	group, err := dist.NewLocalGroup(workers)
	require.NoError(t, err)

	// Rank r contributes [r, 2r] in the first round and [1, 1] in the second.
	first := make([]*tensor.RawTensor, workers)
	second := make([]*tensor.RawTensor, workers)
	for r := range workers {
		first[r], err = tensor.FromSlice([]float32{float32(r), float32(2 * r)}, tensor.Shape{2})
		require.NoError(t, err)
		second[r] = tensor.Full(tensor.Shape{1}, tensor.Float64, 1)
	}

	g, ctx := errgroup.WithContext(context.Background())
	for rank, comm := range group.Workers() {
		g.Go(func() error {
			if err := comm.AllReduceMean(ctx, first[rank]); err != nil {
				return err
			}
			return comm.AllReduceMean(ctx, second[rank])
		})
	}
	require.NoError(t, g.Wait())

	for r := range workers {
		assert.Equal(t, []float64{1.5, 3}, first[r].Float64s(), "rank %d", r)
		assert.Equal(t, []float64{1}, second[r].Float64s(), "rank %d", r)
	}
}

func TestAllReduceMean_SingleWorkerIsNoop(t *testing.T) {
	group, err := dist.NewLocalGroup(1)
	require.NoError(t, err)
	w, err := group.Worker(0)
	require.NoError(t, err)

	x := tensor.Full(tensor.Shape{2}, tensor.Float32, 7)
	require.NoError(t, w.AllReduceMean(context.Background(), x))
	assert.Equal(t, []float64{7, 7}, x.Float64s())
}

func TestAllReduceMean_ShapeMismatch(t *testing.T) {
	group, err := dist.NewLocalGroup(2)
	require.NoError(t, err)

	inputs := []*tensor.RawTensor{
		tensor.Zeros(tensor.Shape{2}, tensor.Float32),
		tensor.Zeros(tensor.Shape{3}, tensor.Float32),
	}
	errs := make([]error, 2)

	var g errgroup.Group
	for rank, comm := range group.Workers() {
		g.Go(func() error {
			errs[rank] = comm.AllReduceMean(context.Background(), inputs[rank])
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for rank, err := range errs {
		require.ErrorIs(t, err, dist.ErrShapeMismatch, "rank %d", rank)
	}
}

func TestAllReduceMean_ContextCancel(t *testing.T) {
	group, err := dist.NewLocalGroup(2)
	require.NoError(t, err)
	w, err := group.Worker(0)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	x := tensor.Full(tensor.Shape{1}, tensor.Float32, 3)
	err = w.AllReduceMean(ctx, x)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []float64{3}, x.Float64s(), "input untouched on failure")
}

func TestAllReduceMean_CancelAbortsGroup(t *testing.T) {
	group, err := dist.NewLocalGroup(3)
	require.NoError(t, err)
	workers := group.Workers()

	// Rank 1 waits in round 0 for a peer that never arrives.
	blocked := make(chan error, 1)
	go func() {
		blocked <- workers[1].AllReduceMean(context.Background(), tensor.Zeros(tensor.Shape{1}, tensor.Float32))
	}()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = workers[0].AllReduceMean(ctx, tensor.Zeros(tensor.Shape{1}, tensor.Float32))
	require.ErrorIs(t, err, context.Canceled)

	select {
	case err := <-blocked:
		require.ErrorIs(t, err, dist.ErrAborted)
	case <-time.After(5 * time.Second):
		t.Fatal("waiting rank was not released")
	}

	// Retrying on the same group fails instead of pairing mismatched rounds.
	for rank, w := range workers {
		err := w.AllReduceMean(context.Background(), tensor.Zeros(tensor.Shape{1}, tensor.Float32))
		require.ErrorIs(t, err, dist.ErrAborted, "rank %d", rank)
	}
}
