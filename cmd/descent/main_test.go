package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func defaultOptions() trainOptions {
	return trainOptions{
		optimizer: "sgd",
		lr:        0.05,
		momentum:  0.9,
		steps:     300,
		workers:   2,
		syncIter:  100,
		samples:   128,
		seed:      1,
	}
}

func TestRunTrain_Converges(t *testing.T) {
	for _, name := range []string{"plain", "sgd"} {
		t.Run(name, func(t *testing.T) {
			opts := defaultOptions()
			opts.optimizer = name

			res, err := runTrain(context.Background(), opts, quietLogger())
			require.NoError(t, err)
			assert.Equal(t, opts.steps, res.nStep)
			assert.Less(t, res.loss, 1e-3)
			for i, w := range trueWeights {
				assert.InDelta(t, float64(w), res.weights[i], 0.05, "weight %d", i)
			}
			assert.InDelta(t, float64(trueBias), res.bias, 0.05)
		})
	}
}

func TestRunTrain_AdamReducesLoss(t *testing.T) {
	opts := defaultOptions()
	opts.optimizer = "adam"
	opts.steps = 1
	first, err := runTrain(context.Background(), opts, quietLogger())
	require.NoError(t, err)

	opts.steps = 300
	last, err := runTrain(context.Background(), opts, quietLogger())
	require.NoError(t, err)
	assert.Less(t, last.loss, first.loss)
}

func TestRunTrain_CheckpointResume(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sgd.ckpt")

	opts := defaultOptions()
	opts.steps = 20
	opts.checkpoint = path
	_, err := runTrain(context.Background(), opts, quietLogger())
	require.NoError(t, err)
	assert.FileExists(t, path)

	opts.checkpoint = ""
	opts.resume = path
	opts.steps = 5
	res, err := runTrain(context.Background(), opts, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 25, res.nStep)

	opts.optimizer = "adam"
	_, err = runTrain(context.Background(), opts, quietLogger())
	require.Error(t, err)
}

func TestRunTrain_BadOptions(t *testing.T) {
	opts := defaultOptions()
	opts.optimizer = "lbfgs"
	_, err := runTrain(context.Background(), opts, quietLogger())
	require.Error(t, err)

	opts = defaultOptions()
	opts.workers = 0
	_, err = runTrain(context.Background(), opts, quietLogger())
	require.Error(t, err)
}

func TestCommands(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), version)

	out.Reset()
	root = newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"train", "--optimizer", "sgd", "--steps", "50", "--workers", "3"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "steps=50")
}
