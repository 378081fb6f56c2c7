package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/onlinelearn/core/model"
	"github.com/YuminosukeSato/onlinelearn/funcmodel"
	"github.com/YuminosukeSato/onlinelearn/metrics"
	"github.com/YuminosukeSato/onlinelearn/optim"
	"github.com/YuminosukeSato/onlinelearn/pkg/config"
	"github.com/YuminosukeSato/onlinelearn/pkg/errors"
)

type funcOptions struct {
	xTrue    float64
	xInit    float64
	estimate bool
}

func newFuncCmd(g *globalOptions) *cobra.Command {
	opts := &funcOptions{}

	cmd := &cobra.Command{
		Use:   "func",
		Short: "Track the sinusoid family parameter over t = 1..n",
		Long: `Streams t = 1..n through the sinusoid regressor.

At each step the regressor predicts f(w, t) with its current weight w, the
prediction is scored against the target f(x-true, t), and the regressor
learns from t.

Examples:
  onlinedemo func --optimizer ftrl --n 500
  onlinedemo func --optimizer ftpl --estimate --plot func.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := runFunc(g.cfg, g.n, opts)
			if err != nil {
				return err
			}
			res.print(cmd.OutOrStdout())
			if g.plotPath != "" {
				if err := savePlot(g.plotPath, "sinusoid regressor", "t", "f", []series{
					{name: "target", ys: res.targets},
					{name: "prediction", ys: res.predictions},
				}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Plot saved as %s\n", g.plotPath)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&opts.xTrue, "x-true", 1.0, "parameter used to generate the target")
	cmd.Flags().Float64Var(&opts.xInit, "x-init", 0.5, "initial weight of the regressor")
	cmd.Flags().BoolVar(&opts.estimate, "estimate", false, "feed the closed-form gradient to the FTPL estimate hook")

	return cmd
}

type funcResult struct {
	optimizer   string
	mae         *metrics.MAE
	rmse        *metrics.RMSE
	weight      float64
	rejected    int
	predictions []float64
	targets     []float64
}

func (r *funcResult) print(w io.Writer) {
	fmt.Fprintf(w, "optimizer: %s\n", r.optimizer)
	fmt.Fprintf(w, "samples: %d\n", r.mae.N())
	fmt.Fprintln(w, r.mae)
	fmt.Fprintln(w, r.rmse)
	fmt.Fprintf(w, "final weight x: %.6f\n", r.weight)
	if r.rejected > 0 {
		fmt.Fprintf(w, "steps with rejected coordinates: %d\n", r.rejected)
	}
}

func runFunc(cfg *config.Config, n int, opts *funcOptions) (*funcResult, error) {
	var reg *funcmodel.Regressor

	optCfg := cfg.Optimizer
	var (
		opt model.Optimizer
		err error
	)
	if opts.estimate && optCfg.Kind == config.KindFTPL {
		// the hook closes over reg, which is assigned right after the optimizer exists
		ftplOpts := []optim.FTPLOption{
			optim.WithFTPLEta(optCfg.Eta),
			optim.WithFTPLGamma(optCfg.Gamma),
			optim.WithFTPLGradientEstimator(func(key string, w float64, t int) float64 {
				return reg.GradientEstimate(key, w, t)
			}),
		}
		if optCfg.Seed != nil {
			ftplOpts = append(ftplOpts, optim.WithFTPLSeed(*optCfg.Seed))
		}
		opt, err = optim.NewFTPL(ftplOpts...)
	} else {
		opt, err = optCfg.Build()
	}
	if err != nil {
		return nil, err
	}

	reg, err = funcmodel.NewRegressor(opt, funcmodel.WithInitialWeight(opts.xInit))
	if err != nil {
		return nil, err
	}

	res := &funcResult{
		optimizer:   optCfg.Kind,
		mae:         metrics.NewMAE(),
		rmse:        metrics.NewRMSE(),
		predictions: make([]float64, 0, n),
		targets:     make([]float64, 0, n),
	}

	for t := 1; t <= n; t++ {
		w := reg.Weights()[funcmodel.FeatureX]
		yPred := reg.PredictOne(model.Features{funcmodel.FeatureX: w, funcmodel.FeatureT: float64(t)})
		yTrue := reg.PredictOne(model.Features{funcmodel.FeatureX: opts.xTrue, funcmodel.FeatureT: float64(t)})

		res.mae.Update(yTrue, yPred)
		res.rmse.Update(yTrue, yPred)
		res.predictions = append(res.predictions, yPred)
		res.targets = append(res.targets, yTrue)

		if err := reg.LearnOne(model.Features{funcmodel.FeatureT: float64(t)}, yTrue); err != nil {
			var numErr *errors.NumericalInstabilityError
			if !errors.As(err, &numErr) {
				return nil, err
			}
			res.rejected++
		}
	}

	res.weight = reg.Weights()[funcmodel.FeatureX]
	return res, nil
}
