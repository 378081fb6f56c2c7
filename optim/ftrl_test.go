package optim

import (
	"math"
	"math/rand/v2"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/onlinelearn/core/model"
	"github.com/YuminosukeSato/onlinelearn/pkg/errors"
	"github.com/YuminosukeSato/onlinelearn/pkg/log"
)

func newTestFTRL(t *testing.T, opts ...FTRLOption) *FTRLProximal {
	t.Helper()
	f, err := NewFTRLProximal(opts...)
	require.NoError(t, err)
	return f
}

func TestFTRLProximalFirstStep(t *testing.T) {
	f := newTestFTRL(t, WithFTRLAlpha(0.05), WithFTRLBeta(1.0), WithFTRLL1(0), WithFTRLL2(1.0))

	w, err := f.Step(model.Weights{}, model.Gradient{"x": 1.0})
	require.NoError(t, err)

	assert.Equal(t, 1.0, f.N("x"))
	assert.Equal(t, 1.0, f.Z("x"))
	// -(1 - 0) / ((1 + 1)/0.05 + 1)
	assert.Equal(t, -1.0/41.0, w["x"])
	assert.InDelta(t, -0.02439, w["x"], 1e-5)
	assert.Equal(t, 1, f.NIterations())
}

func TestFTRLProximalL1Pruning(t *testing.T) {
	t.Run("inside the L1 band", func(t *testing.T) {
		f := newTestFTRL(t, WithFTRLL1(2.0))
		w, err := f.Step(model.Weights{}, model.Gradient{"x": 1.0})
		require.NoError(t, err)

		assert.Equal(t, 1.0, f.Z("x"))
		assert.Equal(t, 0.0, w["x"])
		_, exists := w["x"]
		assert.True(t, exists, "pruned coordinate is still written")
	})

	t.Run("on the boundary", func(t *testing.T) {
		f := newTestFTRL(t, WithFTRLL1(1.0))
		w, err := f.Step(model.Weights{}, model.Gradient{"x": 1.0})
		require.NoError(t, err)

		assert.Equal(t, 1.0, math.Abs(f.Z("x")))
		assert.Equal(t, 0.0, w["x"], "|z| == l1 must be pruned")
	})

	t.Run("outside the band is shrunk by l1", func(t *testing.T) {
		f := newTestFTRL(t, WithFTRLL1(0.5))
		w, err := f.Step(model.Weights{}, model.Gradient{"x": -3.0})
		require.NoError(t, err)

		// n = 9, z = -3, w = -(-3 + 0.5) / ((1 + 3)/0.05 + 1)
		assert.Equal(t, -3.0, f.Z("x"))
		assert.InDelta(t, 2.5/81.0, w["x"], 1e-15)
	})
}

func TestFTRLProximalFirstSightKey(t *testing.T) {
	f := newTestFTRL(t)

	w, err := f.Step(model.Weights{}, model.Gradient{"x": 2.0})
	require.NoError(t, err)

	// sigma = 2/0.05 = 40, z = 2, n = 4
	assert.Equal(t, 4.0, f.N("x"))
	assert.Equal(t, 2.0, f.Z("x"))
	assert.Equal(t, -2.0/61.0, w["x"])
	assert.False(t, math.IsNaN(w["x"]))
}

func TestFTRLProximalSecondStep(t *testing.T) {
	const alpha, beta, l2 = 0.05, 1.0, 1.0
	f := newTestFTRL(t)
	w := model.Weights{}

	_, err := f.Step(w, model.Gradient{"x": 1.0})
	require.NoError(t, err)
	w1 := w["x"]

	_, err = f.Step(w, model.Gradient{"x": 0.5})
	require.NoError(t, err)

	sigma := (math.Sqrt(1.25) - 1.0) / alpha
	z := 1.0 + 0.5 - sigma*w1
	want := -z / ((beta+math.Sqrt(1.25))/alpha + l2)

	assert.InDelta(t, z, f.Z("x"), 1e-15)
	assert.Equal(t, 1.25, f.N("x"))
	assert.InDelta(t, want, w["x"], 1e-15)
}

func TestFTRLProximalZeroGradient(t *testing.T) {
	f := newTestFTRL(t)
	w := model.Weights{}
	_, err := f.Step(w, model.Gradient{"x": 1.0})
	require.NoError(t, err)

	zBefore, nBefore := f.Z("x"), f.N("x")

	// sigma = (sqrt(n + 0) - sqrt(n)) / alpha = 0, so z and n advance by exactly 0,
	// but the weight is still recomputed from (z, n).
	w["x"] = 5.0
	_, err = f.Step(w, model.Gradient{"x": 0})
	require.NoError(t, err)

	assert.Equal(t, zBefore, f.Z("x"))
	assert.Equal(t, nBefore, f.N("x"))
	assert.Equal(t, -1.0/41.0, w["x"], "weight is overwritten, not left at the caller's value")
	assert.Equal(t, 2, f.NIterations())

	t.Run("first sight with zero gradient", func(t *testing.T) {
		f := newTestFTRL(t)
		w := model.Weights{"y": 3.0}
		_, err := f.Step(w, model.Gradient{"y": 0})
		require.NoError(t, err)

		assert.Equal(t, 0.0, f.Z("y"))
		assert.Equal(t, 0.0, f.N("y"))
		assert.Equal(t, 0.0, w["y"])
	})
}

func TestFTRLProximalKeyIndependence(t *testing.T) {
	f := newTestFTRL(t, WithFTRLL1(0.1))
	w := model.Weights{}
	_, err := f.Step(w, model.Gradient{"a": 0.3, "b": -1.2, "c": 2.5})
	require.NoError(t, err)
	w["untracked"] = 7.0

	type snapshot struct{ w, z, n uint64 }
	take := func(key string) snapshot {
		return snapshot{
			w: math.Float64bits(w[key]),
			z: math.Float64bits(f.Z(key)),
			n: math.Float64bits(f.N(key)),
		}
	}
	before := map[string]snapshot{}
	for _, k := range []string{"b", "c", "untracked"} {
		before[k] = take(k)
	}

	_, err = f.Step(w, model.Gradient{"a": -0.7})
	require.NoError(t, err)

	for k, s := range before {
		assert.Equal(t, s, take(k), "key %q changed", k)
	}
	assert.Len(t, w, 4)
}

func TestFTRLProximalGradientKeySets(t *testing.T) {
	tests := []struct {
		name    string
		weights model.Weights
		grad    model.Gradient
		touched []string
		kept    []string
	}{
		{
			name:    "subset",
			weights: model.Weights{"a": 1, "b": 2},
			grad:    model.Gradient{"a": 0.5},
			touched: []string{"a"},
			kept:    []string{"b"},
		},
		{
			name:    "superset",
			weights: model.Weights{"a": 1},
			grad:    model.Gradient{"a": 0.5, "b": -0.5},
			touched: []string{"a", "b"},
		},
		{
			name:    "disjoint",
			weights: model.Weights{"a": 1},
			grad:    model.Gradient{"b": -0.5},
			touched: []string{"b"},
			kept:    []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestFTRL(t)
			orig := tt.weights.Clone()

			w, err := f.Step(tt.weights, tt.grad)
			require.NoError(t, err)

			for _, k := range tt.touched {
				v, ok := w[k]
				assert.True(t, ok, "gradient key %q must be present after the step", k)
				assert.True(t, errors.IsFinite(v))
				assert.NotEqual(t, 0.0, f.N(k))
			}
			for _, k := range tt.kept {
				assert.Equal(t, orig[k], w[k])
				assert.Equal(t, 0.0, f.N(k))
				assert.Equal(t, 0.0, f.Z(k))
			}
		})
	}
}

func TestFTRLProximalReturnsSameMap(t *testing.T) {
	f := newTestFTRL(t)
	w := model.Weights{}

	out, err := f.Step(w, model.Gradient{"x": 1})
	require.NoError(t, err)

	assert.Equal(t, reflect.ValueOf(w).Pointer(), reflect.ValueOf(out).Pointer())
}

func TestFTRLProximalInvariantsOverStream(t *testing.T) {
	const l1 = 0.8
	f := newTestFTRL(t, WithFTRLL1(l1), WithFTRLAlpha(0.1))
	rng := rand.New(rand.NewPCG(42, 42))
	keys := []string{"a", "b", "c", "d", "e"}

	w := model.Weights{}
	prevN := map[string]float64{}
	for step := 0; step < 500; step++ {
		g := model.Gradient{}
		for _, k := range keys {
			if rng.Float64() < 0.6 {
				g[k] = rng.NormFloat64() * 2
			}
		}

		_, err := f.Step(w, g)
		require.NoError(t, err)

		for k := range g {
			// sparsity
			if math.Abs(f.Z(k)) <= l1 {
				require.Equal(t, 0.0, w[k], "step %d key %s", step, k)
			}
			// monotone evidence
			require.GreaterOrEqual(t, f.N(k), prevN[k], "step %d key %s", step, k)
			prevN[k] = f.N(k)
			require.True(t, errors.IsFinite(w[k]))
		}
	}
	assert.Equal(t, 500, f.NIterations())
}

func TestFTRLProximalDeterminism(t *testing.T) {
	run := func() (model.Weights, *FTRLProximal) {
		f := newTestFTRL(t, WithFTRLL1(0.2), WithFTRLL2(0.5))
		rng := rand.New(rand.NewPCG(7, 11))
		w := model.Weights{}
		for i := 0; i < 200; i++ {
			g := model.Gradient{
				"a": rng.NormFloat64(),
				"b": rng.NormFloat64() * 10,
			}
			if i%3 == 0 {
				g["c"] = rng.Float64()
			}
			_, err := f.Step(w, g)
			require.NoError(t, err)
		}
		return w, f
	}

	w1, f1 := run()
	w2, f2 := run()

	for k, v := range w1 {
		assert.Equal(t, math.Float64bits(v), math.Float64bits(w2[k]), "weight %s", k)
		assert.Equal(t, math.Float64bits(f1.Z(k)), math.Float64bits(f2.Z(k)), "z %s", k)
		assert.Equal(t, math.Float64bits(f1.N(k)), math.Float64bits(f2.N(k)), "n %s", k)
	}
}

func TestFTRLProximalNonFiniteGradient(t *testing.T) {
	f := newTestFTRL(t)
	w := model.Weights{"a": 0.25}

	_, err := f.Step(w, model.Gradient{"a": math.NaN(), "b": 1.0, "c": math.Inf(-1)})
	require.Error(t, err)

	var numErr *errors.NumericalInstabilityError
	require.True(t, errors.As(err, &numErr))
	assert.Equal(t, []string{"a", "c"}, numErr.Keys)
	assert.Equal(t, 1, numErr.Iteration)

	// rejected keys keep their previous weight and zero state
	assert.Equal(t, 0.25, w["a"])
	assert.Equal(t, 0.0, f.Z("a"))
	assert.Equal(t, 0.0, f.N("a"))
	_, exists := w["c"]
	assert.False(t, exists)

	// the finite coordinate is updated as usual
	assert.Equal(t, -1.0/41.0, w["b"])
	assert.Equal(t, 1, f.NIterations())

	// a later finite gradient for the rejected key starts from clean state
	_, err = f.Step(w, model.Gradient{"c": 1.0})
	require.NoError(t, err)
	assert.Equal(t, -1.0/41.0, w["c"])
}

func TestFTRLProximalNilWeights(t *testing.T) {
	f := newTestFTRL(t)

	_, err := f.Step(nil, model.Gradient{"x": 1})
	var valErr *errors.ValueError
	assert.True(t, errors.As(err, &valErr))

	w, err := f.Step(nil, model.Gradient{})
	assert.NoError(t, err)
	assert.Nil(t, w)
}

func TestNewFTRLProximalValidation(t *testing.T) {
	tests := []struct {
		name  string
		opt   FTRLOption
		param string
	}{
		{"zero alpha", WithFTRLAlpha(0), "alpha"},
		{"negative alpha", WithFTRLAlpha(-0.1), "alpha"},
		{"NaN alpha", WithFTRLAlpha(math.NaN()), "alpha"},
		{"infinite alpha", WithFTRLAlpha(math.Inf(1)), "alpha"},
		{"negative beta", WithFTRLBeta(-1), "beta"},
		{"negative l1", WithFTRLL1(-0.5), "l1"},
		{"NaN l2", WithFTRLL2(math.NaN()), "l2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFTRLProximal(tt.opt)
			require.Error(t, err)
			assert.Nil(t, f)

			var valErr *errors.ValidationError
			require.True(t, errors.As(err, &valErr))
			assert.Equal(t, tt.param, valErr.ParamName)
		})
	}

	t.Run("zero beta and l2", func(t *testing.T) {
		f, err := NewFTRLProximal(WithFTRLBeta(0), WithFTRLL2(0))
		assert.Nil(t, f)
		var valErr *errors.ValidationError
		require.True(t, errors.As(err, &valErr))
		assert.Equal(t, "beta", valErr.ParamName)
	})

	t.Run("zero beta with l2", func(t *testing.T) {
		f, err := NewFTRLProximal(WithFTRLBeta(0))
		require.NoError(t, err)

		// g² underflows to 0, so only l2 keeps the denominator finite
		w, err := f.Step(model.Weights{}, model.Gradient{"x": 1e-200})
		require.NoError(t, err)
		assert.True(t, errors.IsFinite(w["x"]))
	})

	t.Run("defaults", func(t *testing.T) {
		f := newTestFTRL(t)
		assert.Equal(t, map[string]float64{"alpha": 0.05, "beta": 1.0, "l1": 0, "l2": 1.0}, f.Params())
		assert.NotEmpty(t, f.ID())
	})
}

func TestFTRLProximalLogging(t *testing.T) {
	logger := log.NewTestLogger(log.LevelDebug)
	f := newTestFTRL(t, WithFTRLLogger(logger))

	_, err := f.Step(model.Weights{}, model.Gradient{"x": 1, "y": math.NaN()})
	require.Error(t, err)

	assert.True(t, logger.ContainsMessage("optimizer created"))
	assert.True(t, logger.ContainsMessage("step applied"))
	assert.True(t, logger.ContainsMessage("non-finite coordinates rejected"))
	assert.True(t, logger.ContainsField(log.EstimatorIDKey, f.ID()))
	assert.True(t, logger.ContainsField(log.ModelNameKey, "FTRLProximal"))
	assert.True(t, logger.ContainsField(log.RejectedKeysKey, 1.0))
}
