package optim

import (
	"context"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/onlinelearn/core/model"
	"github.com/YuminosukeSato/onlinelearn/pkg/errors"
	"github.com/YuminosukeSato/onlinelearn/pkg/log"
)

// GradientEstimator returns an estimate of the next gradient of key given its
// current weight and the step number t (1-based). FTPL adds it to the
// cumulative loss when configured.
type GradientEstimator func(key string, weight float64, t int) float64

// FTPL is the Follow-the-Perturbed-Leader optimizer.
//
// For every key i of the gradient:
//
//	L[i] += g[i] + est(i)          (est is 0 unless a GradientEstimator is set)
//	p[i] ~ Normal(0, gamma)        (fresh draw each step)
//	w[i]  = -L[i] / eta + p[i]
//
// Weights are recomputed from the cumulative loss on every step, so there is
// no proximal or regularization term; stability comes from the perturbation.
type FTPL struct {
	// Hyperparameters
	eta   float64 // inverse learning-rate scale
	gamma float64 // perturbation standard deviation

	// Per-coordinate state
	cumulativeLoss map[string]runningSum
	perturbation   map[string]float64 // latest draw, kept for inspection only

	src       rand.Source
	seed      *uint64
	estimator GradientEstimator

	nIterations int

	id     string
	logger log.Logger
}

// FTPLOption configures an FTPL.
type FTPLOption func(*FTPL)

// WithFTPLEta sets the inverse learning-rate scale (default 1000).
func WithFTPLEta(eta float64) FTPLOption {
	return func(f *FTPL) {
		f.eta = eta
	}
}

// WithFTPLGamma sets the perturbation standard deviation (default 0.1).
func WithFTPLGamma(gamma float64) FTPLOption {
	return func(f *FTPL) {
		f.gamma = gamma
	}
}

// WithFTPLSeed seeds the instance's PCG source for reproducible runs.
func WithFTPLSeed(seed uint64) FTPLOption {
	return func(f *FTPL) {
		f.seed = &seed
		f.src = rand.NewPCG(seed, seed)
	}
}

// WithFTPLSource sets the random source the instance draws perturbations from.
func WithFTPLSource(src rand.Source) FTPLOption {
	return func(f *FTPL) {
		f.src = src
	}
}

// WithFTPLGradientEstimator enables the gradient-estimate term. Off by default.
func WithFTPLGradientEstimator(est GradientEstimator) FTPLOption {
	return func(f *FTPL) {
		f.estimator = est
	}
}

// WithFTPLLogger sets the logger used for construction and step traces.
func WithFTPLLogger(logger log.Logger) FTPLOption {
	return func(f *FTPL) {
		f.logger = logger
	}
}

// NewFTPL creates an FTPL optimizer.
// Without WithFTPLSeed or WithFTPLSource the instance gets its own randomly
// seeded source; nothing is shared with other instances.
func NewFTPL(options ...FTPLOption) (*FTPL, error) {
	f := &FTPL{
		eta:            1e3,
		gamma:          0.1,
		cumulativeLoss: make(map[string]runningSum),
		perturbation:   make(map[string]float64),
	}

	for _, opt := range options {
		opt(f)
	}

	if err := requirePositive("eta", f.eta); err != nil {
		return nil, err
	}
	if err := requireNonNegative("gamma", f.gamma); err != nil {
		return nil, err
	}

	if f.src == nil {
		f.src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}

	f.id, f.logger = newEstimatorLogger(f.logger, "FTPL")
	fields := []any{
		log.OperationKey, log.OperationNew,
		log.EtaKey, f.eta,
		log.GammaKey, f.gamma,
	}
	if f.seed != nil {
		fields = append(fields, log.RandomSeedKey, *f.seed)
	}
	f.logger.Debug("optimizer created", fields...)

	if f.gamma == 0 {
		errors.Warn(errors.NewDegenerateConfigWarning("FTPL", "gamma", f.gamma,
			"perturbation disabled, updates reduce to follow-the-leader"))
	}

	return f, nil
}

// Step applies one FTPL update to w for every key of g, drawing perturbations
// from the instance's own source.
//
// Non-finite gradients or estimates are rejected per key, as in FTRLProximal.Step.
func (f *FTPL) Step(w model.Weights, g model.Gradient) (model.Weights, error) {
	return f.step(w, g, f.src)
}

// StepWithSource is Step drawing perturbations from src instead of the
// instance's source. A nil src falls back to the instance's source.
func (f *FTPL) StepWithSource(w model.Weights, g model.Gradient, src rand.Source) (model.Weights, error) {
	if src == nil {
		src = f.src
	}
	return f.step(w, g, src)
}

func (f *FTPL) step(w model.Weights, g model.Gradient, src rand.Source) (model.Weights, error) {
	if err := checkWeights("FTPL.Step", w, g); err != nil {
		return w, err
	}

	t := f.nIterations + 1
	noise := distuv.Normal{Mu: 0, Sigma: f.gamma, Src: src}

	var (
		rejected map[string]float64
		hookErr  error
	)
	reject := func(key string, v float64) {
		if rejected == nil {
			rejected = make(map[string]float64)
		}
		rejected[key] = v
	}

	for _, i := range g.Keys() {
		gi := g[i]
		if !errors.IsFinite(gi) {
			reject(i, gi)
			continue
		}

		est, err := f.estimate(i, w.Get(i), t)
		if err != nil {
			if hookErr == nil {
				hookErr = err
			}
			continue
		}
		if !errors.IsFinite(est) {
			reject(i, est)
			continue
		}

		cl := lookup(f.cumulativeLoss, i).add(gi + est)

		var p float64
		if f.gamma > 0 {
			p = noise.Rand()
		}

		wi := -cl.value()/f.eta + p
		if !errors.IsFinite(cl.value()) || !errors.IsFinite(wi) {
			reject(i, wi)
			continue
		}

		f.cumulativeLoss[i] = cl
		f.perturbation[i] = p
		w[i] = wi
	}

	f.nIterations = t

	if f.logger.Enabled(context.Background(), log.LevelDebug) {
		f.logger.Debug("step applied",
			log.OperationKey, log.OperationStep,
			log.IterationKey, t,
			log.GradKeysKey, len(g),
			log.WeightKeysKey, len(w),
			log.RejectedKeysKey, len(rejected),
		)
	}

	if hookErr != nil {
		f.logger.Error("gradient estimator failed", hookErr, log.IterationKey, t)
		return w, errors.NewModelError("FTPL.Step", "gradient estimator failed", hookErr)
	}
	if len(rejected) > 0 {
		f.logger.Warn("non-finite coordinates rejected",
			log.OperationKey, log.OperationStep,
			log.IterationKey, t,
			log.RejectedKeysKey, len(rejected),
			log.ErrorCodeKey, log.ErrorNonFinite,
		)
		return w, errors.NewKeyedInstabilityError("ftpl_step", rejected, t)
	}

	return w, nil
}

// estimate runs the optional gradient-estimate hook, converting a panic into an error.
func (f *FTPL) estimate(key string, weight float64, t int) (est float64, err error) {
	if f.estimator == nil {
		return 0, nil
	}
	err = errors.SafeExecute("FTPL.GradientEstimator", func() error {
		est = f.estimator(key, weight, t)
		return nil
	})
	return est, err
}

// NIterations returns the number of completed steps.
func (f *FTPL) NIterations() int {
	return f.nIterations
}

// CumulativeLoss returns the running gradient sum for key (0 for unseen keys).
func (f *FTPL) CumulativeLoss(key string) float64 {
	return lookup(f.cumulativeLoss, key).value()
}

// Perturbation returns the most recent perturbation drawn for key.
// It is reported for inspection; the next step draws a new one.
func (f *FTPL) Perturbation(key string) float64 {
	if p, ok := f.perturbation[key]; ok {
		return p
	}
	return 0
}

// ID returns the instance identifier attached to this optimizer's logs.
func (f *FTPL) ID() string {
	return f.id
}

// Params returns the hyperparameters.
func (f *FTPL) Params() map[string]float64 {
	return map[string]float64{
		"eta":   f.eta,
		"gamma": f.gamma,
	}
}
