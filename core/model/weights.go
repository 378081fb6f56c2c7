package model

import (
	"sort"
)

// Features は1サンプル分の疎な特徴量ベクトル（特徴量名 -> 値）
// 存在しないキーは 0 として扱う
type Features map[string]float64

// Get は特徴量の値を返す。未観測のキーは 0
func (x Features) Get(key string) float64 {
	if v, ok := x[key]; ok {
		return v
	}
	return 0
}

// Weights は疎な重みマップ（特徴量名 -> 係数）
//
// 最適化器は Step の間だけ呼び出し側のマップを直接書き換える。
// 一度書き込まれたキーは削除されない（値が 0 になっても残る）。
type Weights map[string]float64

// Get は重みを返す。未観測のキーは 0
func (w Weights) Get(key string) float64 {
	if v, ok := w[key]; ok {
		return v
	}
	return 0
}

// Clone はWeightsのコピーを作成
func (w Weights) Clone() Weights {
	clone := make(Weights, len(w))
	for k, v := range w {
		clone[k] = v
	}
	return clone
}

// Keys はソート済みのキー一覧を返す
func (w Weights) Keys() []string {
	return sortedKeys(w)
}

// Dot は重みと特徴量の内積を計算する。x 側のキーだけを走査する
func (w Weights) Dot(x Features) float64 {
	var sum float64
	for _, k := range sortedKeys(x) {
		sum += w.Get(k) * x[k]
	}
	return sum
}

// NonZero は値が 0 でない重みの数を返す（L1 によるスパース性の確認用）
func (w Weights) NonZero() int {
	n := 0
	for _, v := range w {
		if v != 0 {
			n++
		}
	}
	return n
}

// Gradient は1ステップ分の座標ごとの偏微分（特徴量名 -> dL/dw）
// 最適化器からは読み取り専用
type Gradient map[string]float64

// Keys はソート済みのキー一覧を返す
func (g Gradient) Keys() []string {
	return sortedKeys(g)
}

func sortedKeys[M ~map[string]float64](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
