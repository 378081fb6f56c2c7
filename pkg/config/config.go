// Package config loads optimizer and logging settings from YAML.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/onlinelearn/core/model"
	"github.com/YuminosukeSato/onlinelearn/optim"
	"github.com/YuminosukeSato/onlinelearn/pkg/errors"
	"github.com/YuminosukeSato/onlinelearn/pkg/log"
)

// Optimizer kinds accepted in OptimizerConfig.Kind.
const (
	KindFTRL = "ftrl"
	KindFTPL = "ftpl"
)

// Config is the top-level configuration file.
type Config struct {
	Optimizer OptimizerConfig `yaml:"optimizer"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// OptimizerConfig describes one optimizer. Fields that do not apply to Kind are ignored.
type OptimizerConfig struct {
	Kind string `yaml:"kind"` // ftrl or ftpl

	// FTRL-Proximal
	Alpha float64 `yaml:"alpha"` // base learning rate
	Beta  float64 `yaml:"beta"`  // smoothing constant
	L1    float64 `yaml:"l1"`    // L1 regularization strength
	L2    float64 `yaml:"l2"`    // L2 regularization strength

	// FTPL
	Eta   float64 `yaml:"eta"`            // inverse learning-rate scale
	Gamma float64 `yaml:"gamma"`          // perturbation standard deviation
	Seed  *uint64 `yaml:"seed,omitempty"` // optional; random when omitted
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the configuration with every library default filled in.
func DefaultConfig() *Config {
	return &Config{
		Optimizer: OptimizerConfig{
			Kind:  KindFTRL,
			Alpha: 0.05,
			Beta:  1.0,
			L1:    0.0,
			L2:    1.0,
			Eta:   1e3,
			Gamma: 0.1,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// Parse decodes YAML on top of DefaultConfig, applies environment overrides
// and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}

// Load reads and parses the file at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Parse(nil)
		}
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}
	return Parse(data)
}

// SaveToFile writes the configuration as YAML, creating parent directories.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}
	return nil
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal config")
	}
	return data, nil
}

// ApplyEnvOverrides applies ONLINELEARN_* environment variables.
//
//	ONLINELEARN_OPTIMIZER  optimizer kind
//	ONLINELEARN_SEED       FTPL seed
//	ONLINELEARN_LOG_LEVEL  logging level
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("ONLINELEARN_OPTIMIZER"); v != "" {
		c.Optimizer.Kind = v
	}
	if v := os.Getenv("ONLINELEARN_SEED"); v != "" {
		if seed, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Optimizer.Seed = &seed
		}
	}
	if v := os.Getenv("ONLINELEARN_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the optimizer kind and the logging level. Numeric
// parameters are validated by the optimizer constructors in Build.
func (c *Config) Validate() error {
	c.Optimizer.Kind = strings.ToLower(strings.TrimSpace(c.Optimizer.Kind))
	switch c.Optimizer.Kind {
	case KindFTRL, KindFTPL:
	default:
		return errors.NewValidationError("optimizer.kind", "must be one of ftrl, ftpl", c.Optimizer.Kind)
	}
	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		return errors.NewValidationError("logging.level", "must be one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}

// Build constructs the configured optimizer.
func (o *OptimizerConfig) Build() (model.Optimizer, error) {
	switch strings.ToLower(o.Kind) {
	case KindFTRL:
		opt, err := optim.NewFTRLProximal(
			optim.WithFTRLAlpha(o.Alpha),
			optim.WithFTRLBeta(o.Beta),
			optim.WithFTRLL1(o.L1),
			optim.WithFTRLL2(o.L2),
		)
		if err != nil {
			return nil, err
		}
		return opt, nil
	case KindFTPL:
		opts := []optim.FTPLOption{
			optim.WithFTPLEta(o.Eta),
			optim.WithFTPLGamma(o.Gamma),
		}
		if o.Seed != nil {
			opts = append(opts, optim.WithFTPLSeed(*o.Seed))
		}
		opt, err := optim.NewFTPL(opts...)
		if err != nil {
			return nil, err
		}
		return opt, nil
	default:
		return nil, errors.NewValidationError("optimizer.kind", "must be one of ftrl, ftpl", o.Kind)
	}
}
