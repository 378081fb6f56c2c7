package linear

import (
	"github.com/YuminosukeSato/onlinelearn/core/model"
	"github.com/YuminosukeSato/onlinelearn/pkg/errors"
)

var _ model.OnlineRegressor = (*Regression)(nil)

// Regression は二乗損失のオンライン線形回帰
//
// 予測は w·x + intercept。LearnOne は損失 (ŷ - y)² の微分 2(ŷ - y) を
// 特徴量ごとに掛けた勾配で最適化器を1ステップ進める。
type Regression struct {
	*glm
}

// NewRegression は最適化器 opt で学習するRegressionを作成する
//
// 使用例:
//
//	opt, _ := optim.NewFTRLProximal()
//	reg, err := linear.NewRegression(opt, linear.WithClipGradient(10))
//	for x, y := range stream {
//	    yPred := reg.PredictOne(x)
//	    _ = reg.LearnOne(x, y)
//	}
func NewRegression(opt model.Optimizer, options ...Option) (*Regression, error) {
	m, err := newGLM("Regression", opt, options)
	if err != nil {
		return nil, err
	}
	return &Regression{glm: m}, nil
}

// PredictOne returns w·x + intercept.
func (r *Regression) PredictOne(x model.Features) float64 {
	return r.raw(x)
}

// LearnOne updates the weights with one (x, y) pair.
// A NaN or infinite target is rejected before the optimizer is stepped.
func (r *Regression) LearnOne(x model.Features, y float64) error {
	if err := errors.CheckScalar("Regression.LearnOne", y, r.nSamples+1); err != nil {
		return err
	}
	diff := r.raw(x) - y
	return r.learn("Regression.LearnOne", x, 2*diff, diff*diff)
}
