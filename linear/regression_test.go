package linear

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/onlinelearn/core/model"
	"github.com/YuminosukeSato/onlinelearn/optim"
	"github.com/YuminosukeSato/onlinelearn/pkg/errors"
	"github.com/YuminosukeSato/onlinelearn/pkg/log"
)

// recordingOptimizer applies a fixed-rate gradient step and remembers every gradient.
type recordingOptimizer struct {
	grads []model.Gradient
	lr    float64
}

func (o *recordingOptimizer) Step(w model.Weights, g model.Gradient) (model.Weights, error) {
	o.grads = append(o.grads, g)
	for k, v := range g {
		w[k] = w.Get(k) - o.lr*v
	}
	return w, nil
}

func (o *recordingOptimizer) NIterations() int { return len(o.grads) }

func TestRegressionGradient(t *testing.T) {
	opt := &recordingOptimizer{lr: 0.1}
	reg, err := NewRegression(opt)
	require.NoError(t, err)

	x := model.Features{"a": 2, "b": -1}
	require.NoError(t, reg.LearnOne(x, 3))

	// prediction 0, dl = 2*(0-3) = -6
	require.Len(t, opt.grads, 1)
	assert.Equal(t, model.Gradient{"a": -12, "b": 6, InterceptKey: -6}, opt.grads[0])
	assert.Equal(t, 1, reg.NSamples())

	assert.InDelta(t, 0.6, reg.Intercept(), 1e-12)
	assert.InDelta(t, 1.2*2+0.6*1+0.6, reg.PredictOne(x), 1e-12)
}

func TestRegressionWithoutIntercept(t *testing.T) {
	opt := &recordingOptimizer{lr: 0.1}
	reg, err := NewRegression(opt, WithIntercept(false))
	require.NoError(t, err)

	require.NoError(t, reg.LearnOne(model.Features{"a": 1}, 1))

	_, ok := opt.grads[0][InterceptKey]
	assert.False(t, ok)
	assert.Equal(t, 0.0, reg.Intercept())
	assert.NotContains(t, reg.Weights(), InterceptKey)
}

func TestRegressionClipGradient(t *testing.T) {
	opt := &recordingOptimizer{lr: 0}
	reg, err := NewRegression(opt, WithClipGradient(1))
	require.NoError(t, err)

	require.NoError(t, reg.LearnOne(model.Features{"a": 100, "b": -100, "c": 0.1}, 1))

	// dl = -2
	assert.Equal(t, model.Gradient{"a": -1, "b": 1, "c": -0.2, InterceptKey: -1}, opt.grads[0])
}

func TestRegressionReservedFeature(t *testing.T) {
	opt := &recordingOptimizer{}
	reg, err := NewRegression(opt)
	require.NoError(t, err)

	err = reg.LearnOne(model.Features{InterceptKey: 1}, 1)
	var valErr *errors.ValueError
	assert.True(t, errors.As(err, &valErr))
	assert.Empty(t, opt.grads)
	assert.Equal(t, 0, reg.NSamples())
}

func TestRegressionLearnsLinearStream(t *testing.T) {
	opt, err := optim.NewFTRLProximal(optim.WithFTRLAlpha(0.5), optim.WithFTRLL2(0))
	require.NoError(t, err)
	reg, err := NewRegression(opt)
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(1, 2))
	const n = 3000
	var early, late float64
	for i := 0; i < n; i++ {
		x := model.Features{"a": rng.Float64()*2 - 1, "b": rng.Float64()*2 - 1}
		y := 2*x["a"] - 3*x["b"] + 1

		absErr := math.Abs(reg.PredictOne(x) - y)
		switch {
		case i < 200:
			early += absErr / 200
		case i >= n-200:
			late += absErr / 200
		}
		require.NoError(t, reg.LearnOne(x, y))
	}

	assert.Less(t, late, early/4, "early MAE %.3f, late MAE %.3f", early, late)
	assert.Equal(t, n, opt.NIterations())
	assert.Equal(t, n, reg.NSamples())
}

func TestRegressionNonFiniteFeature(t *testing.T) {
	logger := log.NewTestLogger(log.LevelDebug)
	opt, err := optim.NewFTRLProximal()
	require.NoError(t, err)
	reg, err := NewRegression(opt, WithLogger(logger))
	require.NoError(t, err)

	require.NoError(t, reg.LearnOne(model.Features{"b": 1}, 1))
	before := reg.Weights()

	// an infinite feature makes the score, and with it every coordinate, non-finite
	err = reg.LearnOne(model.Features{"a": math.Inf(1), "b": 1}, 1)

	var numErr *errors.NumericalInstabilityError
	require.True(t, errors.As(err, &numErr))
	assert.Equal(t, []string{InterceptKey, "a", "b"}, numErr.Keys)
	assert.True(t, logger.ContainsMessage("optimizer rejected coordinates"))
	assert.True(t, logger.ContainsField(log.OptimizerKey, "FTRLProximal"))

	assert.Equal(t, before, reg.Weights())
	assert.Equal(t, 0.0, opt.N("a"))
	assert.Equal(t, 2, reg.NSamples())
	assert.Equal(t, 2, opt.NIterations())
}

func TestRegressionNonFiniteTarget(t *testing.T) {
	opt := &recordingOptimizer{lr: 0.1}
	reg, err := NewRegression(opt)
	require.NoError(t, err)
	require.NoError(t, reg.LearnOne(model.Features{"a": 1}, 1))
	before := reg.Weights()

	for _, y := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		err := reg.LearnOne(model.Features{"a": 1}, y)

		var numErr *errors.NumericalInstabilityError
		require.True(t, errors.As(err, &numErr), "y=%v", y)
		assert.Equal(t, "Regression.LearnOne", numErr.Operation)
		assert.Equal(t, 2, numErr.Iteration)
	}

	assert.Len(t, opt.grads, 1)
	assert.Equal(t, before, reg.Weights())
	assert.Equal(t, 1, reg.NSamples())
}

func TestNewRegressionValidation(t *testing.T) {
	_, err := NewRegression(nil)
	var valErr *errors.ValueError
	assert.True(t, errors.As(err, &valErr))

	for _, clip := range []float64{0, -1, math.NaN()} {
		_, err := NewRegression(&recordingOptimizer{}, WithClipGradient(clip))
		var cfgErr *errors.ValidationError
		require.True(t, errors.As(err, &cfgErr), "clip %v", clip)
		assert.Equal(t, "clip_gradient", cfgErr.ParamName)
	}
}

func TestOptimizerName(t *testing.T) {
	ftrl, _ := optim.NewFTRLProximal()
	ftpl, _ := optim.NewFTPL(optim.WithFTPLSeed(1))

	assert.Equal(t, "FTRLProximal", optimizerName(ftrl))
	assert.Equal(t, "FTPL", optimizerName(ftpl))
	assert.Equal(t, "*linear.recordingOptimizer", optimizerName(&recordingOptimizer{}))
}
