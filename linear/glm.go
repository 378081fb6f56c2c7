// Package linear implements online generalized linear models over sparse
// feature maps. Each model owns its weight map and delegates every update to
// a model.Optimizer, so the same learner runs on FTRL-Proximal or FTPL.
package linear

import (
	"context"
	"fmt"
	"math"

	"github.com/YuminosukeSato/onlinelearn/core/model"
	"github.com/YuminosukeSato/onlinelearn/optim"
	"github.com/YuminosukeSato/onlinelearn/pkg/errors"
	"github.com/YuminosukeSato/onlinelearn/pkg/log"
)

// InterceptKey is the reserved weight key holding the intercept.
const InterceptKey = "_intercept"

// glm は線形モデル共通の状態。損失の微分だけがモデルごとに異なる
type glm struct {
	name      string
	optimizer model.Optimizer
	weights   model.Weights

	// ハイパーパラメータ
	intercept bool
	clip      float64

	nSamples int
	logger   log.Logger
}

func newGLM(name string, optimizer model.Optimizer, options []Option) (*glm, error) {
	op := "linear.New" + name
	if optimizer == nil {
		return nil, errors.NewValueError(op, "optimizer must not be nil")
	}

	m := &glm{
		name:      name,
		optimizer: optimizer,
		weights:   make(model.Weights),
		intercept: true,
		clip:      1e12,
	}
	for _, opt := range options {
		opt(m)
	}

	if math.IsNaN(m.clip) || m.clip <= 0 {
		return nil, errors.NewValidationError("clip_gradient", "must be greater than 0", m.clip)
	}

	if m.logger == nil {
		m.logger = log.GetLoggerWithName("linear")
	}
	m.logger = m.logger.With(log.ModelNameKey, name, log.OptimizerKey, optimizerName(optimizer))

	return m, nil
}

// raw は線形スコア w·x + intercept
func (m *glm) raw(x model.Features) float64 {
	score := m.weights.Dot(x)
	if m.intercept {
		score += m.weights.Get(InterceptKey)
	}
	return score
}

// learn builds g[k] = dl * x[k] (plus dl for the intercept) and applies one
// optimizer step. The sample counts as seen even if the optimizer rejects
// some coordinates.
func (m *glm) learn(op string, x model.Features, dl, loss float64) error {
	if _, ok := x[InterceptKey]; ok {
		return errors.NewValueError(op, "feature name "+InterceptKey+" is reserved for the intercept")
	}

	g := make(model.Gradient, len(x)+1)
	for k, v := range x {
		g[k] = errors.ClipValue(dl*v, -m.clip, m.clip)
	}
	if m.intercept {
		g[InterceptKey] = errors.ClipValue(dl, -m.clip, m.clip)
	}

	_, err := m.optimizer.Step(m.weights, g)
	m.nSamples++

	if err != nil {
		var numErr *errors.NumericalInstabilityError
		if errors.As(err, &numErr) {
			m.logger.Warn("optimizer rejected coordinates",
				log.OperationKey, log.OperationLearnOne,
				log.SamplesKey, m.nSamples,
				log.RejectedKeysKey, len(numErr.Keys),
				log.ErrorCodeKey, log.ErrorNonFinite,
			)
		}
		return errors.Wrapf(err, "%s", op)
	}

	if m.logger.Enabled(context.Background(), log.LevelDebug) {
		m.logger.Debug("sample learned",
			log.OperationKey, log.OperationLearnOne,
			log.SamplesKey, m.nSamples,
			log.LossKey, loss,
		)
	}
	return nil
}

// Weights returns a copy of the learned weights, intercept included.
func (m *glm) Weights() model.Weights {
	return m.weights.Clone()
}

// Intercept returns the learned intercept (0 when disabled).
func (m *glm) Intercept() float64 {
	if !m.intercept {
		return 0
	}
	return m.weights.Get(InterceptKey)
}

// NSamples returns the number of samples passed to LearnOne.
func (m *glm) NSamples() int {
	return m.nSamples
}

func optimizerName(opt model.Optimizer) string {
	switch opt.(type) {
	case *optim.FTRLProximal:
		return "FTRLProximal"
	case *optim.FTPL:
		return "FTPL"
	default:
		return fmt.Sprintf("%T", opt)
	}
}
