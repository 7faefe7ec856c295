package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/born-ml/descent/autodiff"
	"github.com/born-ml/descent/dist"
	"github.com/born-ml/descent/optim"
	"github.com/born-ml/descent/tensor"
)

// trueWeights and trueBias generate the regression targets.
var (
	trueWeights = []float32{0.5, -1.5, 2}
	trueBias    = float32(0.25)
)

type trainOptions struct {
	optimizer  string
	lr         float64
	momentum   float64
	nesterov   bool
	steps      int
	workers    int
	syncIter   int
	samples    int
	logEvery   int
	seed       uint64
	checkpoint string
	resume     string
	verbose    bool
}

// trainResult is what rank 0 ends with.
type trainResult struct {
	loss    float64
	weights []float64
	bias    float64
	nStep   int
}

func newTrainCmd() *cobra.Command {
	opts := trainOptions{}
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit a linear regression with data-parallel workers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			res, err := runTrain(cmd.Context(), opts, logger)
			if err != nil {
				return err
			}
			cmd.Printf("loss=%.6g weights=%.4f bias=%.4f steps=%d\n", res.loss, res.weights, res.bias, res.nStep)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.optimizer, "optimizer", "sgd", "update rule: plain, sgd or adam")
	f.Float64Var(&opts.lr, "lr", 0.05, "learning rate")
	f.Float64Var(&opts.momentum, "momentum", 0.9, "SGD momentum")
	f.BoolVar(&opts.nesterov, "nesterov", false, "use Nesterov momentum")
	f.IntVar(&opts.steps, "steps", 300, "training steps")
	f.IntVar(&opts.workers, "workers", 2, "number of data-parallel workers")
	f.IntVar(&opts.syncIter, "sync-iter", optim.DefaultParamSyncIter, "steps between full parameter resyncs")
	f.IntVar(&opts.samples, "samples", 256, "training samples per worker")
	f.IntVar(&opts.logEvery, "log-every", 50, "log the loss every N steps")
	f.Uint64Var(&opts.seed, "seed", 1, "random seed")
	f.StringVar(&opts.checkpoint, "checkpoint", "", "write rank 0 optimizer state to this file")
	f.StringVar(&opts.resume, "resume", "", "restore optimizer state from this file")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log every step of every worker")
	return cmd
}

func runTrain(ctx context.Context, opts trainOptions, logger *slog.Logger) (*trainResult, error) {
	kind, err := optim.ParseKind(opts.optimizer)
	if err != nil {
		return nil, err
	}
	group, err := dist.NewLocalGroup(opts.workers)
	if err != nil {
		return nil, err
	}

	var state []byte
	if opts.resume != "" {
		if state, err = os.ReadFile(opts.resume); err != nil {
			return nil, fmt.Errorf("resume: %w", err)
		}
	}

	logger.Info("training",
		"optimizer", kind,
		"workers", opts.workers,
		"steps", opts.steps,
		"lr", opts.lr,
	)

	results := make([]*trainResult, opts.workers)
	g, ctx := errgroup.WithContext(ctx)
	for rank, comm := range group.Workers() {
		g.Go(func() error {
			w := &worker{
				rank:   rank,
				opts:   opts,
				kind:   kind,
				comm:   comm,
				state:  state,
				logger: logger.With("rank", rank),
			}
			res, err := w.run(ctx)
			if err != nil {
				return fmt.Errorf("worker %d: %w", rank, err)
			}
			results[rank] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := results[0]
	logger.Info("done", "loss", res.loss, "weights", res.weights, "bias", res.bias)
	return res, nil
}

type worker struct {
	rank   int
	opts   trainOptions
	kind   optim.Kind
	comm   dist.Communicator
	state  []byte
	logger *slog.Logger
}

func (w *worker) run(ctx context.Context) (*trainResult, error) {
	rng := rand.New(rand.NewPCG(w.opts.seed, uint64(w.rank)))
	x, y, err := shard(rng, w.opts.samples)
	if err != nil {
		return nil, err
	}

	// Every rank draws the same initial weights. A resumed run may not
	// resync parameters until the next multiple of ParamSyncIter.
	initRNG := rand.New(rand.NewPCG(w.opts.seed, math.MaxUint64))
	weights, err := autodiff.FromSlice(lo.Times(len(trueWeights), func(int) float32 {
		return float32(initRNG.NormFloat64())
	}), tensor.Shape{len(trueWeights), 1})
	if err != nil {
		return nil, err
	}
	bias := autodiff.Zeros(tensor.Shape{1}, tensor.Float32)

	optimizer, err := w.newOptimizer(optim.Params(weights, bias))
	if err != nil {
		return nil, err
	}
	if w.state != nil {
		if err := optimizer.Load(bytes.NewReader(w.state)); err != nil {
			return nil, fmt.Errorf("resume: %w", err)
		}
		w.logger.Debug("resumed", "n_step", optimizer.NStep())
	}

	mse := func() *autodiff.Tensor {
		diff := x.MatMul(weights).Add(bias).Sub(y)
		return diff.Mul(diff).Mean()
	}

	for step := range w.opts.steps {
		loss := mse()
		if err := optimizer.Step(ctx, loss); err != nil {
			return nil, fmt.Errorf("step %d: %w", step, err)
		}
		w.logger.Debug("step", "step", optimizer.NStep(), "loss", loss.Item())
		if w.rank == 0 && w.opts.logEvery > 0 && (step+1)%w.opts.logEvery == 0 {
			w.logger.Info("progress", "step", optimizer.NStep(), "loss", loss.Item())
		}
	}

	if w.rank == 0 && w.opts.checkpoint != "" {
		if err := save(optimizer, w.opts.checkpoint); err != nil {
			return nil, err
		}
		w.logger.Info("checkpoint written", "path", w.opts.checkpoint)
	}

	return &trainResult{
		loss:    mse().Item(),
		weights: weights.Raw().Float64s(),
		bias:    bias.Item(),
		nStep:   optimizer.NStep(),
	}, nil
}

func (w *worker) newOptimizer(groups []optim.ParamGroup) (*optim.Optimizer, error) {
	cfg := optim.Config{
		LR:            w.opts.lr,
		ParamSyncIter: w.opts.syncIter,
		Comm:          w.comm,
	}
	switch w.kind {
	case optim.KindSGD:
		return optim.NewSGD(groups, optim.SGDConfig{
			Config:   cfg,
			Momentum: w.opts.momentum,
			Nesterov: w.opts.nesterov,
		})
	case optim.KindAdam:
		return optim.NewAdam(groups, optim.AdamConfig{Config: cfg})
	default:
		return optim.NewPlain(groups, cfg)
	}
}

// shard draws n samples of y = x·trueWeights + trueBias. Both tensors are
// stop-grad: only the model parameters are trained.
func shard(rng *rand.Rand, n int) (x, y *autodiff.Tensor, err error) {
	features := len(trueWeights)
	xs := make([]float32, n*features)
	ys := make([]float32, n)
	for i := range n {
		row := xs[i*features : (i+1)*features]
		ys[i] = trueBias
		for j := range row {
			row[j] = float32(rng.NormFloat64())
			ys[i] += row[j] * trueWeights[j]
		}
	}
	if x, err = autodiff.FromSlice(xs, tensor.Shape{n, features}); err != nil {
		return nil, nil, err
	}
	if y, err = autodiff.FromSlice(ys, tensor.Shape{n, 1}); err != nil {
		return nil, nil, err
	}
	return x.StopGrad(), y.StopGrad(), nil
}

func save(o *optim.Optimizer, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	if err := o.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
