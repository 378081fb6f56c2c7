package optim

import (
	"context"
	"math"

	"github.com/YuminosukeSato/onlinelearn/core/model"
	"github.com/YuminosukeSato/onlinelearn/pkg/errors"
	"github.com/YuminosukeSato/onlinelearn/pkg/log"
)

// FTRLProximal is the per-coordinate FTRL-Proximal optimizer.
//
// For every key i of the gradient:
//
//	sigma = (sqrt(n[i] + g[i]^2) - sqrt(n[i])) / alpha
//	z[i] += g[i] - sigma * w[i]
//	n[i] += g[i]^2
//	w[i]  = 0                                                   if |z[i]| <= l1
//	w[i]  = -(z[i] - sign(z[i])*l1) / ((beta + sqrt(n[i]))/alpha + l2)  otherwise
type FTRLProximal struct {
	// Hyperparameters
	alpha float64 // base learning rate
	beta  float64 // smoothing constant for the adaptive denominator
	l1    float64 // L1 regularization strength
	l2    float64 // L2 regularization strength

	// Per-coordinate state
	z map[string]runningSum // gradients minus learning-rate-weighted weights
	n map[string]runningSum // squared gradients

	nIterations int

	id     string
	logger log.Logger
}

// FTRLOption configures an FTRLProximal.
type FTRLOption func(*FTRLProximal)

// WithFTRLAlpha sets the base learning rate (default 0.05).
func WithFTRLAlpha(alpha float64) FTRLOption {
	return func(f *FTRLProximal) {
		f.alpha = alpha
	}
}

// WithFTRLBeta sets the smoothing constant (default 1.0).
// beta and l2 keep the weight denominator away from zero, so they cannot both be 0.
func WithFTRLBeta(beta float64) FTRLOption {
	return func(f *FTRLProximal) {
		f.beta = beta
	}
}

// WithFTRLL1 sets the L1 regularization strength (default 0).
func WithFTRLL1(l1 float64) FTRLOption {
	return func(f *FTRLProximal) {
		f.l1 = l1
	}
}

// WithFTRLL2 sets the L2 regularization strength (default 1.0).
func WithFTRLL2(l2 float64) FTRLOption {
	return func(f *FTRLProximal) {
		f.l2 = l2
	}
}

// WithFTRLLogger sets the logger used for construction and step traces.
func WithFTRLLogger(logger log.Logger) FTRLOption {
	return func(f *FTRLProximal) {
		f.logger = logger
	}
}

// NewFTRLProximal creates an FTRLProximal optimizer.
// It fails with a ValidationError when alpha is not positive or any
// parameter is negative or non-finite.
func NewFTRLProximal(options ...FTRLOption) (*FTRLProximal, error) {
	f := &FTRLProximal{
		alpha: 0.05,
		beta:  1.0,
		l1:    0.0,
		l2:    1.0,
		z:     make(map[string]runningSum),
		n:     make(map[string]runningSum),
	}

	for _, opt := range options {
		opt(f)
	}

	if err := f.validate(); err != nil {
		return nil, err
	}

	f.id, f.logger = newEstimatorLogger(f.logger, "FTRLProximal")
	f.logger.Debug("optimizer created",
		log.OperationKey, log.OperationNew,
		log.LearningRateKey, f.alpha,
		log.SmoothingKey, f.beta,
		log.L1Key, f.l1,
		log.L2Key, f.l2,
	)

	return f, nil
}

func (f *FTRLProximal) validate() error {
	if err := requirePositive("alpha", f.alpha); err != nil {
		return err
	}
	if err := requireNonNegative("beta", f.beta); err != nil {
		return err
	}
	if err := requireNonNegative("l1", f.l1); err != nil {
		return err
	}
	if err := requireNonNegative("l2", f.l2); err != nil {
		return err
	}
	if f.beta == 0 && f.l2 == 0 {
		return errors.NewValidationError("beta", "must be greater than 0 when l2 is 0", f.beta)
	}
	return nil
}

// Step applies one FTRL-Proximal update to w for every key of g and returns w.
//
// A gradient entry that is NaN or ±Inf, or an update that would make the
// coordinate's state non-finite, is rejected: that coordinate keeps its previous
// weight and state, the remaining coordinates are still updated, and the
// returned error is a *errors.NumericalInstabilityError listing the keys.
func (f *FTRLProximal) Step(w model.Weights, g model.Gradient) (model.Weights, error) {
	if err := checkWeights("FTRLProximal.Step", w, g); err != nil {
		return w, err
	}

	t := f.nIterations + 1
	var rejected map[string]float64
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

		zi := lookup(f.z, i)
		ni := lookup(f.n, i)

		nPrev := ni.value()
		sigma := (math.Sqrt(nPrev+gi*gi) - math.Sqrt(nPrev)) / f.alpha
		zi = zi.add(gi - sigma*w.Get(i))
		ni = ni.add(gi * gi)

		wi := f.proximal(zi.value(), ni.value())
		if !errors.IsFinite(zi.value()) || !errors.IsFinite(ni.value()) || !errors.IsFinite(wi) {
			reject(i, wi)
			continue
		}

		f.z[i] = zi
		f.n[i] = ni
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

	if len(rejected) > 0 {
		err := errors.NewKeyedInstabilityError("ftrl_step", rejected, t)
		f.logger.Warn("non-finite coordinates rejected",
			log.OperationKey, log.OperationStep,
			log.IterationKey, t,
			log.RejectedKeysKey, len(rejected),
			log.ErrorCodeKey, log.ErrorNonFinite,
		)
		return w, err
	}

	return w, nil
}

// proximal is the closed-form weight for accumulated z and n.
func (f *FTRLProximal) proximal(z, n float64) float64 {
	if math.Abs(z) <= f.l1 {
		return 0
	}
	return -(z - sign(z)*f.l1) / ((f.beta+math.Sqrt(n))/f.alpha + f.l2)
}

// NIterations returns the number of completed steps.
func (f *FTRLProximal) NIterations() int {
	return f.nIterations
}

// Z returns the accumulated z statistic for key (0 for unseen keys).
func (f *FTRLProximal) Z(key string) float64 {
	return lookup(f.z, key).value()
}

// N returns the accumulated squared gradient for key (0 for unseen keys).
func (f *FTRLProximal) N(key string) float64 {
	return lookup(f.n, key).value()
}

// ID returns the instance identifier attached to this optimizer's logs.
func (f *FTRLProximal) ID() string {
	return f.id
}

// Params returns the hyperparameters.
func (f *FTRLProximal) Params() map[string]float64 {
	return map[string]float64{
		"alpha": f.alpha,
		"beta":  f.beta,
		"l1":    f.l1,
		"l2":    f.l2,
	}
}
