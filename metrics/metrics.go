// Package metrics provides running (streaming) evaluation metrics.
//
// Each metric is updated with one (yTrue, yPred) pair at a time and can be
// read at any point of the stream, which is how progressive validation scores
// an online learner: predict, update the metric, then learn.
package metrics

import (
	"fmt"

	"github.com/YuminosukeSato/onlinelearn/pkg/errors"
)

// RegressionMetric is a running metric over real-valued targets.
type RegressionMetric interface {
	Update(yTrue, yPred float64)
	Get() (float64, error)
	N() int
	Name() string
}

// ClassificationMetric is a running metric over binary labels.
type ClassificationMetric interface {
	Update(yTrue, yPred bool)
	Get() (float64, error)
	N() int
	Name() string
}

// runningMean は逐次平均。mean += (v - mean) / n の形で更新する
type runningMean struct {
	mean float64
	n    int
}

func (m *runningMean) add(v float64) {
	m.n++
	m.mean += (v - m.mean) / float64(m.n)
}

func (m *runningMean) get(name string) (float64, error) {
	if m.n == 0 {
		return 0, errors.NewModelError(name+".Get", "no samples", errors.ErrEmptyData)
	}
	return m.mean, nil
}

// Format renders a metric the way progressive validation reports it,
// e.g. "F1: 0.8812". Empty metrics render as "F1: -".
func Format(name string, get func() (float64, error)) string {
	v, err := get()
	if err != nil {
		return name + ": -"
	}
	return fmt.Sprintf("%s: %.4f", name, v)
}
