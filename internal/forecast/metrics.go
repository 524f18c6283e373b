package forecast

import "math"

// Metrics scores predictions against held out actuals
type Metrics struct {
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
	R2   float64 `json:"r2"`
}

// Evaluate computes MAE, RMSE and the coefficient of determination. R² of
// a constant target is 1 for a perfect fit and 0 otherwise.
func Evaluate(actual, predicted []float64) Metrics {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return Metrics{}
	}
	n := float64(len(actual))
	var absErr, sqErr, mean float64
	for i, a := range actual {
		d := predicted[i] - a
		absErr += math.Abs(d)
		sqErr += d * d
		mean += a
	}
	mean /= n

	var total float64
	for _, a := range actual {
		total += (a - mean) * (a - mean)
	}

	m := Metrics{MAE: absErr / n, RMSE: math.Sqrt(sqErr / n)}
	switch {
	case total > 0:
		m.R2 = 1 - sqErr/total
	case sqErr == 0:
		m.R2 = 1
	}
	return m
}

// residualStd is the population standard deviation of predicted - actual
func residualStd(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	res := make([]float64, len(actual))
	mean := 0.0
	for i := range actual {
		res[i] = predicted[i] - actual[i]
		mean += res[i]
	}
	mean /= float64(len(res))
	v := 0.0
	for _, r := range res {
		v += (r - mean) * (r - mean)
	}
	return math.Sqrt(v / float64(len(res)))
}
