// Package model defines the sparse data model and the contracts shared by
// online optimizers and the learners that drive them.
package model

// Optimizer は重みマップと勾配マップから更新後の重みマップを作る最適化器の契約
//
// Step は w をその場で書き換え、同じマップを返す。g に含まれるキーについてだけ
// 内部状態が進む（w にだけ存在するキーは触らない）。g は w のキー集合の部分集合・
// 上位集合・互いに素のいずれでもよい。
//
// 実装は単一のストリームが所有する前提で、並行呼び出しには対応しない。
type Optimizer interface {
	Step(w Weights, g Gradient) (Weights, error)

	// NIterations は完了した Step の回数を返す
	NIterations() int
}

// OnlineRegressor は1サンプルずつ予測・学習する回帰モデルのインターフェース
type OnlineRegressor interface {
	// PredictOne は現在の重みで予測する。状態は変更しない
	PredictOne(x Features) float64

	// LearnOne は現在の重みから勾配を計算し、最適化器で1ステップ更新する
	LearnOne(x Features, y float64) error
}

// OnlineClassifier は1サンプルずつ予測・学習する二値分類モデルのインターフェース
type OnlineClassifier interface {
	// PredictProbaOne は陽性クラスの確率を返す
	PredictProbaOne(x Features) float64

	// PredictOne は陽性クラスと判定するかを返す
	PredictOne(x Features) bool

	// LearnOne は正解ラベル y で1ステップ学習する
	LearnOne(x Features, y bool) error
}

// ParameterGetter is the interface for components that expose their hyperparameters.
type ParameterGetter interface {
	// Params returns the hyperparameters keyed by name.
	Params() map[string]float64
}
