package metrics

import (
	"math"
)

var (
	_ RegressionMetric = (*MAE)(nil)
	_ RegressionMetric = (*MSE)(nil)
	_ RegressionMetric = (*RMSE)(nil)
)

// MAE は平均絶対誤差（Mean Absolute Error）の逐次版
type MAE struct {
	m runningMean
}

// NewMAE creates an empty MAE.
func NewMAE() *MAE { return &MAE{} }

// Update adds |yTrue - yPred|.
func (e *MAE) Update(yTrue, yPred float64) {
	e.m.add(math.Abs(yTrue - yPred))
}

// Get returns the mean absolute error so far.
func (e *MAE) Get() (float64, error) { return e.m.get("MAE") }

// N returns the number of updates.
func (e *MAE) N() int { return e.m.n }

// Name returns "MAE".
func (e *MAE) Name() string { return "MAE" }

func (e *MAE) String() string { return Format(e.Name(), e.Get) }

// MSE は平均二乗誤差（Mean Squared Error）の逐次版
type MSE struct {
	m runningMean
}

// NewMSE creates an empty MSE.
func NewMSE() *MSE { return &MSE{} }

// Update adds (yTrue - yPred)².
func (e *MSE) Update(yTrue, yPred float64) {
	diff := yTrue - yPred
	e.m.add(diff * diff)
}

// Get returns the mean squared error so far.
func (e *MSE) Get() (float64, error) { return e.m.get("MSE") }

// N returns the number of updates.
func (e *MSE) N() int { return e.m.n }

// Name returns "MSE".
func (e *MSE) Name() string { return "MSE" }

func (e *MSE) String() string { return Format(e.Name(), e.Get) }

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）の逐次版
type RMSE struct {
	mse MSE
}

// NewRMSE creates an empty RMSE.
func NewRMSE() *RMSE { return &RMSE{} }

// Update adds one pair.
func (e *RMSE) Update(yTrue, yPred float64) { e.mse.Update(yTrue, yPred) }

// Get returns sqrt(MSE).
func (e *RMSE) Get() (float64, error) {
	mse, err := e.mse.m.get("RMSE")
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// N returns the number of updates.
func (e *RMSE) N() int { return e.mse.N() }

// Name returns "RMSE".
func (e *RMSE) Name() string { return "RMSE" }

func (e *RMSE) String() string { return Format(e.Name(), e.Get) }
