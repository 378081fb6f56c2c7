// Package optim implements online optimizers over sparse weight maps.
//
// Both optimizers satisfy model.Optimizer: Step mutates the caller's weight map
// in place for every key of the gradient and leaves every other key, and every
// other key's internal state, untouched.
//
//   - FTRLProximal: per-coordinate adaptive learning rates with L1/L2
//     regularization and proximal soft-thresholding (McMahan et al., 2013).
//   - FTPL: follow-the-perturbed-leader over cumulative per-coordinate
//     gradients with fresh Gaussian noise each step.
//
// An optimizer instance belongs to one stream. It is not safe for concurrent use.
package optim

import (
	"math"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/onlinelearn/core/model"
	"github.com/YuminosukeSato/onlinelearn/pkg/errors"
	"github.com/YuminosukeSato/onlinelearn/pkg/log"
)

var (
	_ model.Optimizer       = (*FTRLProximal)(nil)
	_ model.Optimizer       = (*FTPL)(nil)
	_ model.ParameterGetter = (*FTRLProximal)(nil)
	_ model.ParameterGetter = (*FTPL)(nil)
)

// runningSum is a Neumaier-compensated running sum. The per-coordinate
// statistics grow without bound over a stream and are never reset, so the
// low-order bits lost by each addition are carried in c.
type runningSum struct {
	sum float64
	c   float64
}

func (r runningSum) add(v float64) runningSum {
	t := r.sum + v
	if math.Abs(r.sum) >= math.Abs(v) {
		r.c += (r.sum - t) + v
	} else {
		r.c += (v - t) + r.sum
	}
	r.sum = t
	return r
}

func (r runningSum) value() float64 {
	return r.sum + r.c
}

// lookup returns the state stored for key, or the zero state for a key seen
// for the first time.
func lookup(m map[string]runningSum, key string) runningSum {
	if s, ok := m[key]; ok {
		return s
	}
	return runningSum{}
}

// sign returns -1, 0 or +1.
func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func requirePositive(param string, v float64) error {
	if !errors.IsFinite(v) || v <= 0 {
		return errors.NewValidationError(param, "must be a finite number greater than 0", v)
	}
	return nil
}

func requireNonNegative(param string, v float64) error {
	if !errors.IsFinite(v) || v < 0 {
		return errors.NewValidationError(param, "must be a finite number greater than or equal to 0", v)
	}
	return nil
}

// checkWeights rejects a nil weight map that would have to be written to.
func checkWeights(op string, w model.Weights, g model.Gradient) error {
	if w == nil && len(g) > 0 {
		return errors.NewValueError(op, "weights must be a non-nil map when the gradient is not empty")
	}
	return nil
}

func newEstimatorLogger(base log.Logger, name string) (string, log.Logger) {
	id := uuid.NewString()
	if base == nil {
		base = log.GetLoggerWithName("optim")
	}
	return id, base.With(log.ModelNameKey, name, log.EstimatorIDKey, id)
}
