package metrics

import (
	"github.com/YuminosukeSato/onlinelearn/pkg/errors"
)

var (
	_ ClassificationMetric = (*Accuracy)(nil)
	_ ClassificationMetric = (*F1)(nil)
)

// Accuracy is the running fraction of correct predictions.
type Accuracy struct {
	m runningMean
}

// NewAccuracy creates an empty Accuracy.
func NewAccuracy() *Accuracy { return &Accuracy{} }

// Update adds one prediction.
func (a *Accuracy) Update(yTrue, yPred bool) {
	if yTrue == yPred {
		a.m.add(1)
	} else {
		a.m.add(0)
	}
}

// Get returns the accuracy so far.
func (a *Accuracy) Get() (float64, error) { return a.m.get("Accuracy") }

// N returns the number of updates.
func (a *Accuracy) N() int { return a.m.n }

// Name returns "Accuracy".
func (a *Accuracy) Name() string { return "Accuracy" }

func (a *Accuracy) String() string { return Format(a.Name(), a.Get) }

// F1 は陽性クラスに対する F1 スコアの逐次版
//
//	F1 = 2TP / (2TP + FP + FN)
//
// 陽性の予測もラベルも一つもない場合は未定義なので
// UndefinedMetricWarning を出して 0 を返す。
type F1 struct {
	tp, fp, fn, tn int
}

// NewF1 creates an empty F1.
func NewF1() *F1 { return &F1{} }

// Update adds one prediction.
func (f *F1) Update(yTrue, yPred bool) {
	switch {
	case yTrue && yPred:
		f.tp++
	case !yTrue && yPred:
		f.fp++
	case yTrue && !yPred:
		f.fn++
	default:
		f.tn++
	}
}

// Get returns the F1 score so far.
func (f *F1) Get() (float64, error) {
	if f.N() == 0 {
		return 0, errors.NewModelError("F1.Get", "no samples", errors.ErrEmptyData)
	}
	denom := 2*f.tp + f.fp + f.fn
	if denom == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("F1", "no positive predictions and no positive labels", 0))
		return 0, nil
	}
	return float64(2*f.tp) / float64(denom), nil
}

// Precision returns TP / (TP + FP), 0 when nothing was predicted positive.
func (f *F1) Precision() float64 {
	if f.tp+f.fp == 0 {
		return 0
	}
	return float64(f.tp) / float64(f.tp+f.fp)
}

// Recall returns TP / (TP + FN), 0 when there were no positive labels.
func (f *F1) Recall() float64 {
	if f.tp+f.fn == 0 {
		return 0
	}
	return float64(f.tp) / float64(f.tp+f.fn)
}

// N returns the number of updates.
func (f *F1) N() int { return f.tp + f.fp + f.fn + f.tn }

// Name returns "F1".
func (f *F1) Name() string { return "F1" }

func (f *F1) String() string { return Format(f.Name(), f.Get) }
