package linear

import (
	"math"

	"github.com/YuminosukeSato/onlinelearn/core/model"
	"github.com/YuminosukeSato/onlinelearn/pkg/errors"
)

var _ model.OnlineClassifier = (*LogisticRegression)(nil)

// LogisticRegression is an online binary logistic regression.
// The loss is the log loss; its derivative with respect to the linear score
// is p - y with y in {0, 1}.
type LogisticRegression struct {
	*glm
}

// NewLogisticRegression creates a LogisticRegression driven by opt.
func NewLogisticRegression(opt model.Optimizer, options ...Option) (*LogisticRegression, error) {
	m, err := newGLM("LogisticRegression", opt, options)
	if err != nil {
		return nil, err
	}
	return &LogisticRegression{glm: m}, nil
}

// PredictProbaOne returns the probability of the positive class.
func (lr *LogisticRegression) PredictProbaOne(x model.Features) float64 {
	return sigmoid(lr.raw(x))
}

// PredictOne reports whether the positive class has probability >= 0.5.
func (lr *LogisticRegression) PredictOne(x model.Features) bool {
	return lr.PredictProbaOne(x) >= 0.5
}

// LearnOne updates the weights with one labelled sample.
func (lr *LogisticRegression) LearnOne(x model.Features, y bool) error {
	p := lr.PredictProbaOne(x)
	target := 0.0
	if y {
		target = 1.0
	}
	return lr.learn("LogisticRegression.LearnOne", x, p-target, logLoss(p, target))
}

// sigmoid computes the sigmoid function without overflowing for large |z|.
func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1.0 / (1.0 + errors.StabilizeExp(-z))
	}
	e := errors.StabilizeExp(z)
	return e / (1.0 + e)
}

func logLoss(p, y float64) float64 {
	const eps = 1e-15
	p = errors.ClipValue(p, eps, 1-eps)
	return -(y*math.Log(p) + (1-y)*math.Log(1-p))
}
