package cli

import (
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/onlinelearn/core/model"
	"github.com/YuminosukeSato/onlinelearn/linear"
	"github.com/YuminosukeSato/onlinelearn/metrics"
	"github.com/YuminosukeSato/onlinelearn/pkg/config"
	"github.com/YuminosukeSato/onlinelearn/pkg/errors"
	"github.com/YuminosukeSato/onlinelearn/preprocessing"
)

type logisticOptions struct {
	noScale bool
	noise   float64
}

func newLogisticCmd(g *globalOptions) *cobra.Command {
	opts := &logisticOptions{}

	cmd := &cobra.Command{
		Use:   "logistic",
		Short: "Progressive validation of online logistic regression",
		Long: `Streams a synthetic two-class problem through a standard scaler and an
online logistic regression, scoring each prediction before learning from it.

Features "a" and "b" are informative and live on very different scales,
"c" is pure noise. The label is 2a' - b' + noise > 0 on the standardized
features a', b'.

Examples:
  onlinedemo logistic --n 5000
  onlinedemo logistic --optimizer ftpl --plot logistic.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := runLogistic(g.cfg, g.n, g.streamSeed, opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			res.print(cmd.OutOrStdout())
			if g.plotPath != "" {
				if err := savePlot(g.plotPath, "progressive validation", "samples", "score", []series{
					{name: "F1", ys: res.f1Trace},
					{name: "Accuracy", ys: res.accTrace},
				}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Plot saved as %s\n", g.plotPath)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.noScale, "no-scale", false, "feed raw features to the model")
	cmd.Flags().Float64Var(&opts.noise, "noise", 0.3, "standard deviation of the label noise")

	return cmd
}

type logisticResult struct {
	optimizer string
	f1        *metrics.F1
	accuracy  *metrics.Accuracy
	weights   model.Weights
	f1Trace   []float64
	accTrace  []float64
}

func (r *logisticResult) print(w io.Writer) {
	fmt.Fprintf(w, "optimizer: %s\n", r.optimizer)
	fmt.Fprintf(w, "samples: %d\n", r.f1.N())
	fmt.Fprintln(w, r.f1)
	fmt.Fprintln(w, r.accuracy)
	fmt.Fprintf(w, "non-zero weights: %d/%d\n", r.weights.NonZero(), len(r.weights))
	for _, k := range r.weights.Keys() {
		fmt.Fprintf(w, "weight %s: %.6f\n", k, r.weights[k])
	}
}

// sample draws one example of the synthetic stream.
func sample(rng *rand.Rand, noise float64) (model.Features, bool) {
	a := rng.NormFloat64()
	b := rng.NormFloat64()
	x := model.Features{
		"a": 100 + 20*a,
		"b": 0.01 * b,
		"c": rng.NormFloat64() * 5,
	}
	return x, 2*a-b+noise*rng.NormFloat64() > 0
}

func runLogistic(cfg *config.Config, n int, seed uint64, opts *logisticOptions, progress io.Writer) (*logisticResult, error) {
	opt, err := cfg.Optimizer.Build()
	if err != nil {
		return nil, err
	}
	clf, err := linear.NewLogisticRegression(opt)
	if err != nil {
		return nil, err
	}
	scaler := preprocessing.NewStandardScalerDefault()

	res := &logisticResult{
		optimizer: cfg.Optimizer.Kind,
		f1:        metrics.NewF1(),
		accuracy:  metrics.NewAccuracy(),
		f1Trace:   make([]float64, 0, n),
		accTrace:  make([]float64, 0, n),
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	every := max(n/10, 1)

	for i := 1; i <= n; i++ {
		x, y := sample(rng, opts.noise)

		if !opts.noScale {
			if err := scaler.LearnOne(x); err != nil {
				return nil, err
			}
			x = scaler.TransformOne(x)
		}

		yPred := clf.PredictOne(x)
		res.f1.Update(y, yPred)
		res.accuracy.Update(y, yPred)

		if err := clf.LearnOne(x, y); err != nil {
			var numErr *errors.NumericalInstabilityError
			if !errors.As(err, &numErr) {
				return nil, err
			}
		}

		f1, _ := res.f1.Get()
		acc, _ := res.accuracy.Get()
		res.f1Trace = append(res.f1Trace, f1)
		res.accTrace = append(res.accTrace, acc)

		if i%every == 0 && i != n {
			fmt.Fprintf(progress, "[%d] %s, %s\n", i, res.f1, res.accuracy)
		}
	}

	res.weights = clf.Weights()
	return res, nil
}
