package linear

import (
	"github.com/YuminosukeSato/onlinelearn/pkg/log"
)

// Option configures Regression and LogisticRegression.
type Option func(*glm)

// WithIntercept sets whether to learn an intercept (default true).
// The intercept is stored in the weight map under InterceptKey and updated
// by the same optimizer as the feature weights.
func WithIntercept(fit bool) Option {
	return func(m *glm) {
		m.intercept = fit
	}
}

// WithClipGradient clips every gradient coordinate to [-maxAbs, maxAbs]
// before it reaches the optimizer (default 1e12).
func WithClipGradient(maxAbs float64) Option {
	return func(m *glm) {
		m.clip = maxAbs
	}
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return func(m *glm) {
		m.logger = logger
	}
}
