// Package cli implements the onlinedemo command tree.
package cli

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/onlinelearn/pkg/config"
	"github.com/YuminosukeSato/onlinelearn/pkg/errors"
	"github.com/YuminosukeSato/onlinelearn/pkg/log"
)

// globalOptions are the flags shared by every subcommand.
type globalOptions struct {
	configPath string
	optimizer  string
	n          int
	seed       uint64
	logLevel   string
	plotPath   string

	// resolved in PersistentPreRunE
	cfg        *config.Config
	streamSeed uint64
}

// NewRootCmd builds a fresh command tree.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "onlinedemo",
		Short: "Stream synthetic data through FTRL-Proximal and FTPL learners",
		Long: `onlinedemo - progressive validation of online optimizers
  - func      fit the sinusoid family parameter with a chosen optimizer
  - logistic  online logistic regression on a synthetic two-class stream
  - compare   run the func task with both optimizers side by side
  - config    print the effective configuration`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.resolve(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "YAML config file (optimizer and logging sections)")
	pf.StringVar(&opts.optimizer, "optimizer", "", "optimizer kind: ftrl or ftpl (overrides config)")
	pf.IntVar(&opts.n, "n", 1000, "number of samples to stream")
	pf.Uint64Var(&opts.seed, "seed", 42, "seed for the synthetic stream; also seeds FTPL when given explicitly")
	pf.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error (overrides config)")
	pf.StringVar(&opts.plotPath, "plot", "", "write a PNG trace of the run to this file")

	root.AddCommand(newFuncCmd(opts))
	root.AddCommand(newLogisticCmd(opts))
	root.AddCommand(newCompareCmd(opts))
	root.AddCommand(newConfigCmd(opts))

	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// resolve loads the config file, applies flag overrides and installs the log provider.
func (o *globalOptions) resolve(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.Load(o.configPath)
	} else {
		cfg, err = config.Parse(nil)
	}
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("optimizer") {
		cfg.Optimizer.Kind = o.optimizer
	}
	// FTPL draws fresh perturbations unless a seed is requested
	o.streamSeed = o.seed
	if flags.Changed("seed") {
		seed := o.seed
		cfg.Optimizer.Seed = &seed
	} else if cfg.Optimizer.Seed != nil {
		o.streamSeed = *cfg.Optimizer.Seed
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if o.n <= 0 {
		return errors.NewValidationError("n", "must be greater than 0", o.n)
	}

	level, err := log.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	log.SetProvider(log.NewZerologProvider(
		zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen},
		level,
	))

	o.cfg = cfg
	return nil
}
