// Package funcmodel provides a regressor over a fixed sinusoid family whose
// single parameter is learned by any model.Optimizer.
//
// The target function is
//
//	f(x, t) = b*sin(c*t) + a*sin(exp(d*x)*t)   (second term only for x > 0)
//
// so the frequency of the second component grows exponentially with x and is
// hard to track for large x. The learner's weight map holds the current
// estimate of x under the key "x".
package funcmodel

import (
	"context"
	"math"

	"github.com/YuminosukeSato/onlinelearn/core/model"
	"github.com/YuminosukeSato/onlinelearn/pkg/errors"
	"github.com/YuminosukeSato/onlinelearn/pkg/log"
)

// Feature keys read by PredictOne and LearnOne.
const (
	FeatureX = "x"
	FeatureT = "t"
)

var _ model.OnlineRegressor = (*Regressor)(nil)

// Regressor learns the parameter of the sinusoid family from a stream.
type Regressor struct {
	optimizer model.Optimizer

	a, b, c, d float64

	weights model.Weights
	logger  log.Logger
}

// Option configures a Regressor.
type Option func(*Regressor)

// WithCoefficients sets the shape coefficients a, b, c and d (default 1, 1, 0.5, 1).
func WithCoefficients(a, b, c, d float64) Option {
	return func(r *Regressor) {
		r.a, r.b, r.c, r.d = a, b, c, d
	}
}

// WithInitialWeight sets the starting value of the "x" weight (default 1).
func WithInitialWeight(w float64) Option {
	return func(r *Regressor) {
		r.weights[FeatureX] = w
	}
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(r *Regressor) {
		r.logger = logger
	}
}

// NewRegressor creates a Regressor driven by optimizer.
func NewRegressor(optimizer model.Optimizer, options ...Option) (*Regressor, error) {
	if optimizer == nil {
		return nil, errors.NewValueError("funcmodel.NewRegressor", "optimizer must not be nil")
	}

	r := &Regressor{
		optimizer: optimizer,
		a:         1,
		b:         1,
		c:         0.5,
		d:         1,
		weights:   model.Weights{FeatureX: 1},
	}
	for _, opt := range options {
		opt(r)
	}

	for name, v := range map[string]float64{"a": r.a, "b": r.b, "c": r.c, "d": r.d, "w": r.weights[FeatureX]} {
		if !errors.IsFinite(v) {
			return nil, errors.NewValidationError(name, "must be finite", v)
		}
	}

	if r.logger == nil {
		r.logger = log.GetLoggerWithName("funcmodel")
	}
	r.logger = r.logger.With(log.ModelNameKey, "funcmodel.Regressor")

	return r, nil
}

// PredictOne evaluates f(x["x"], x["t"]). It does not touch the learned weights.
func (r *Regressor) PredictOne(x model.Features) float64 {
	return r.f(x.Get(FeatureX), x.Get(FeatureT))
}

// LearnOne computes the gradient of every weight at time x["t"] from the
// current weights and hands it to the optimizer. y is not used by the update.
func (r *Regressor) LearnOne(x model.Features, y float64) error {
	t := x.Get(FeatureT)

	g := make(model.Gradient, len(r.weights))
	for k, w := range r.weights {
		g[k] = r.fGradient(w, t)
	}

	if _, err := r.optimizer.Step(r.weights, g); err != nil {
		return errors.Wrap(err, "funcmodel: optimizer step")
	}

	if r.logger.Enabled(context.Background(), log.LevelDebug) {
		r.logger.Debug("sample learned",
			log.OperationKey, log.OperationLearnOne,
			log.IterationKey, r.optimizer.NIterations(),
			log.FeatureKey, FeatureX,
			log.WeightValueKey, r.weights[FeatureX],
		)
	}
	return nil
}

// GradientEstimate has the optim.GradientEstimator signature: it returns the
// closed-form gradient at weight w and time t, ignoring key.
func (r *Regressor) GradientEstimate(_ string, w float64, t int) float64 {
	return r.fGradient(w, float64(t))
}

// Weights returns a copy of the learned weights.
func (r *Regressor) Weights() model.Weights {
	return r.weights.Clone()
}

// f は目的関数。x <= 0 では第2項が消える
func (r *Regressor) f(x, t float64) float64 {
	main := r.b * math.Sin(r.c*t)
	if x <= 0 {
		return main
	}
	return main + r.a*math.Sin(math.Exp(r.d*x)*t)
}

// fGradient は f の x に関する偏微分
func (r *Regressor) fGradient(x, t float64) float64 {
	if x <= 0 {
		return 0
	}
	e := math.Exp(r.d * x)
	return r.a * t * e * math.Cos(e*t) * r.d
}
