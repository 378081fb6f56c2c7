package preprocessing

import (
	"math"

	"github.com/YuminosukeSato/onlinelearn/core/model"
	"github.com/YuminosukeSato/onlinelearn/pkg/errors"
)

// stats は特徴量1つ分の逐次統計（Welford法）
type stats struct {
	n    int
	mean float64
	m2   float64 // 平均からの偏差の二乗和
}

func (s *stats) add(v float64) {
	s.n++
	delta := v - s.mean
	s.mean += delta / float64(s.n)
	s.m2 += delta * (v - s.mean)
}

func (s *stats) variance() float64 {
	if s.n == 0 {
		return 0
	}
	return s.m2 / float64(s.n)
}

// StandardScaler は疎な特徴量マップを逐次的に標準化するスケーラー
// 特徴量ごとに平均と分散を更新し、(x - mean) / std に変換する
type StandardScaler struct {
	// WithMean は平均を引くかどうか (デフォルト: true)
	WithMean bool

	// WithStd は標準偏差で割るかどうか (デフォルト: true)
	WithStd bool

	stats map[string]*stats
}

// NewStandardScaler は新しいStandardScalerを作成する
//
// パラメータ:
//   - withMean: 平均を引くかどうか
//   - withStd: 標準偏差で割るかどうか
//
// 使用例:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	for x, y := range stream {
//	    scaler.LearnOne(x)
//	    xs := scaler.TransformOne(x)
//	    ...
//	}
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		WithMean: withMean,
		WithStd:  withStd,
		stats:    make(map[string]*stats),
	}
}

// NewStandardScalerDefault はデフォルト設定でStandardScalerを作成する
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// LearnOne は1サンプル分の統計を更新する
// 非有限値を含む特徴量はその特徴量だけ更新せず、エラーで報告する
func (s *StandardScaler) LearnOne(x model.Features) error {
	var bad map[string]float64
	for k, v := range x {
		if !errors.IsFinite(v) {
			if bad == nil {
				bad = make(map[string]float64)
			}
			bad[k] = v
			continue
		}
		st, ok := s.stats[k]
		if !ok {
			st = &stats{}
			s.stats[k] = st
		}
		st.add(v)
	}
	if bad != nil {
		return errors.NewKeyedInstabilityError("StandardScaler.LearnOne", bad, 0)
	}
	return nil
}

// TransformOne は現在の統計で標準化した新しい特徴量マップを返す
// 未学習の特徴量はそのまま、分散が0に近い特徴量はスケールを1とする
func (s *StandardScaler) TransformOne(x model.Features) model.Features {
	out := make(model.Features, len(x))
	for k, v := range x {
		st, ok := s.stats[k]
		if !ok {
			out[k] = v
			continue
		}
		if s.WithMean {
			v -= st.mean
		}
		if s.WithStd {
			if std := math.Sqrt(st.variance()); std >= 1e-8 {
				v /= std
			}
		}
		out[k] = v
	}
	return out
}

// Mean は特徴量 key の現在の平均を返す（未学習なら 0）
func (s *StandardScaler) Mean(key string) float64 {
	if st, ok := s.stats[key]; ok {
		return st.mean
	}
	return 0
}

// Var は特徴量 key の現在の母分散を返す（未学習なら 0）
func (s *StandardScaler) Var(key string) float64 {
	if st, ok := s.stats[key]; ok {
		return st.variance()
	}
	return 0
}

// Count は特徴量 key を観測した回数を返す
func (s *StandardScaler) Count(key string) int {
	if st, ok := s.stats[key]; ok {
		return st.n
	}
	return 0
}
