package optim_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/born-ml/descent/autodiff"
	"github.com/born-ml/descent/dist"
	"github.com/born-ml/descent/optim"
	"github.com/born-ml/descent/tensor"
)

// TestPublicAPI_DataParallel fits y = 3x on two workers holding different
// halves of the data and checks that both end with the same parameter.
func TestPublicAPI_DataParallel(t *testing.T) {
	group, err := dist.NewLocalGroup(2)
	require.NoError(t, err)

	shards := [][]float64{{1, 2}, {-1, 0.5}}
	final := make([]float64, 2)

	g, ctx := errgroup.WithContext(context.Background())
	for rank, comm := range group.Workers() {
		x, err := autodiff.FromSlice(shards[rank], tensor.Shape{2})
		require.NoError(t, err)
		y := autodiff.Leaf(tensor.Scale(x.Raw(), 3)).StopGrad()
		x.StopGrad()
		w := autodiff.Zeros(tensor.Shape{1}, tensor.Float64)

		g.Go(func() error {
			optimizer, err := optim.NewSGD(optim.Params(w), optim.SGDConfig{
				Config:   optim.Config{LR: 0.1, Comm: comm, ParamSyncIter: 50},
				Momentum: 0.5,
			})
			if err != nil {
				return err
			}
			for range 200 {
				diff := x.Mul(w).Sub(y)
				if err := optimizer.Step(ctx, diff.Mul(diff).Mean()); err != nil {
					return err
				}
			}
			final[rank] = w.Item()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.InDelta(t, 3.0, final[0], 1e-6)
	assert.Equal(t, final[0], final[1])
}

func TestPublicAPI_GroupsAndCheckpoint(t *testing.T) {
	a := autodiff.Zeros(tensor.Shape{2}, tensor.Float32)
	b := autodiff.Zeros(tensor.Shape{1}, tensor.Float32)
	groups := []optim.ParamGroup{
		optim.Group(optim.GroupOptions{}, a),
		optim.Group(optim.GroupOptions{LR: optim.Float(0.5), Betas: optim.BetasOf(0.8, 0.99)}, b),
	}

	adam, err := optim.NewAdam(groups, optim.AdamConfig{})
	require.NoError(t, err)
	assert.Equal(t, optim.KindAdam, adam.Kind())

	loss := a.Sum().Add(b.Sum())
	require.NoError(t, adam.Step(context.Background(), loss))
	assert.Equal(t, 1, adam.NStep())

	var buf bytes.Buffer
	require.NoError(t, adam.Save(&buf))

	fresh, err := optim.NewAdam(groups, optim.AdamConfig{})
	require.NoError(t, err)
	require.NoError(t, fresh.Load(&buf))
	assert.Equal(t, 1, fresh.NStep())

	kind, err := optim.ParseKind("gd")
	require.NoError(t, err)
	assert.Equal(t, optim.KindPlain, kind)
	_, err = optim.ParseKind("rmsprop")
	require.ErrorIs(t, err, optim.ErrUnknownKind)
}
