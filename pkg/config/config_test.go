package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/onlinelearn/core/model"
	"github.com/YuminosukeSato/onlinelearn/optim"
	"github.com/YuminosukeSato/onlinelearn/pkg/errors"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"ONLINELEARN_OPTIMIZER", "ONLINELEARN_SEED", "ONLINELEARN_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestParseDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Parse([]byte("optimizer:\n  kind: ftrl\n  l1: 0.5\n"))
	require.NoError(t, err)

	assert.Equal(t, KindFTRL, cfg.Optimizer.Kind)
	assert.Equal(t, 0.5, cfg.Optimizer.L1)
	assert.Equal(t, 0.05, cfg.Optimizer.Alpha, "omitted fields keep library defaults")
	assert.Equal(t, 1.0, cfg.Optimizer.Beta)
	assert.Equal(t, 1.0, cfg.Optimizer.L2)
	assert.Nil(t, cfg.Optimizer.Seed)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestParseFTPL(t *testing.T) {
	clearEnv(t)

	data := []byte(`
optimizer:
  kind: FTPL
  eta: 500
  gamma: 0.2
  seed: 42
logging:
  level: debug
`)
	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, KindFTPL, cfg.Optimizer.Kind, "kind is normalized")
	require.NotNil(t, cfg.Optimizer.Seed)
	assert.Equal(t, uint64(42), *cfg.Optimizer.Seed)

	opt, err := cfg.Optimizer.Build()
	require.NoError(t, err)
	ftpl, ok := opt.(*optim.FTPL)
	require.True(t, ok)
	assert.Equal(t, map[string]float64{"eta": 500, "gamma": 0.2}, ftpl.Params())

	// the seed makes two builds draw the same perturbations
	other, err := cfg.Optimizer.Build()
	require.NoError(t, err)
	w1, err := opt.Step(model.Weights{}, model.Gradient{"x": 1})
	require.NoError(t, err)
	w2, err := other.Step(model.Weights{}, model.Gradient{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, w1, w2)
}

func TestParseErrors(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name  string
		data  string
		param string
	}{
		{"unknown kind", "optimizer:\n  kind: adam\n", "optimizer.kind"},
		{"bad level", "logging:\n  level: loud\n", "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			var valErr *errors.ValidationError
			require.True(t, errors.As(err, &valErr))
			assert.Equal(t, tt.param, valErr.ParamName)
		})
	}

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Parse([]byte("optimizer: [unclosed"))
		assert.Error(t, err)
	})
}

func TestBuildValidatesParameters(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Optimizer.Alpha = 0

	opt, err := cfg.Optimizer.Build()
	assert.Nil(t, opt)
	var valErr *errors.ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "alpha", valErr.ParamName)

	cfg = DefaultConfig()
	cfg.Optimizer.Kind = KindFTPL
	cfg.Optimizer.Eta = 0
	opt, err = cfg.Optimizer.Build()
	assert.Nil(t, opt)
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "eta", valErr.ParamName)
}

func TestBuildFTRL(t *testing.T) {
	cfg := DefaultConfig()
	opt, err := cfg.Optimizer.Build()
	require.NoError(t, err)

	w, err := opt.Step(model.Weights{}, model.Gradient{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, -1.0/41.0, w["x"])
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ONLINELEARN_OPTIMIZER", "ftpl")
	t.Setenv("ONLINELEARN_SEED", "7")
	t.Setenv("ONLINELEARN_LOG_LEVEL", "error")

	cfg, err := Parse([]byte("optimizer:\n  kind: ftrl\n"))
	require.NoError(t, err)
	assert.Equal(t, KindFTPL, cfg.Optimizer.Kind)
	require.NotNil(t, cfg.Optimizer.Seed)
	assert.Equal(t, uint64(7), *cfg.Optimizer.Seed)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestLoadAndSave(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "onlinelearn.yaml")

	cfg, err := Load(path)
	require.NoError(t, err, "missing file yields defaults")
	assert.Equal(t, DefaultConfig(), cfg)

	seed := uint64(99)
	cfg.Optimizer.Kind = KindFTPL
	cfg.Optimizer.Gamma = 0.3
	cfg.Optimizer.Seed = &seed
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	require.NoError(t, os.WriteFile(path, []byte("optimizer:\n  kind: nope\n"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}
