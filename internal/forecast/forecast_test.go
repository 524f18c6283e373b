package forecast

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"olistcli/internal/calendar"
	"olistcli/internal/config"
	"olistcli/internal/shared/testutil"
	"olistcli/internal/validation"
	"olistcli/pkg/contracts/domain"
)

// syntheticTrends builds n consecutive months ending at (endYear, endMonth)
// with a trend, a November spike and a little deterministic wobble
func syntheticTrends(n, endYear, endMonth int) []domain.MonthlyTrend {
	startYear, startMonth := calendar.AddMonths(endYear, endMonth, -(n - 1))
	out := make([]domain.MonthlyTrend, n)
	for i := range out {
		y, m := calendar.AddMonths(startYear, startMonth, i)
		orders := 400 + 25*i + (i*37)%50
		if m == 11 {
			orders += 300
		}
		revenue := float64(orders) * (150 + float64((i*13)%20))
		out[i] = domain.MonthlyTrend{
			Year:           y,
			Month:          m,
			MonthlyOrders:  orders,
			MonthlyRevenue: revenue,
			YearMonth:      fmt.Sprintf("%04d-%02d", y, m),
		}
	}
	return out
}

func newTestForecaster(t *testing.T) *Forecaster {
	t.Helper()
	logger, _ := testutil.NewCaptureLogger()
	cfg := config.Default().Forecast
	cfg.Trees = 25
	return NewForecaster(cfg, logger)
}

func TestForecast_SequentialMonthsWrapDecember(t *testing.T) {
	f := newTestForecaster(t)
	res, err := f.Forecast(context.Background(), syntheticTrends(30, 2018, 10))
	require.NoError(t, err)

	assert.Equal(t, StatusOK, res.Status)
	require.Len(t, res.Points, 3)

	want := [][2]int{{2018, 11}, {2018, 12}, {2019, 1}}
	for i, p := range res.Points {
		assert.Equal(t, want[i][0], p.Year)
		assert.Equal(t, want[i][1], p.Month)
		assert.Equal(t, calendar.MonthName(p.Month), p.MonthName)
		assert.Equal(t, calendar.Events[p.Month].Name, p.EventName)
		assert.Equal(t, calendar.Events[p.Month].Impact, p.ExpectedImpact)

		assert.LessOrEqual(t, p.RevenueLowerCI, p.PredictedRevenue)
		assert.GreaterOrEqual(t, p.RevenueUpperCI, p.PredictedRevenue)
		assert.GreaterOrEqual(t, p.OrdersLowerCI, 0)
		assert.LessOrEqual(t, p.OrdersLowerCI, p.PredictedOrders)
		assert.GreaterOrEqual(t, p.OrdersUpperCI, p.PredictedOrders)
		assert.Positive(t, p.PredictedRevenue)
	}
	require.NoError(t, validation.ValidateRows("seasonal_forecast", res.Points))

	// 27 usable rows after dropping the first three months
	assert.Equal(t, 21, res.TrainRows)
	assert.Equal(t, 6, res.TestRows)

	require.Len(t, res.Importances, len(FeatureNames))
	total := 0.0
	for i, fi := range res.Importances {
		total += fi.Importance
		if i > 0 {
			assert.GreaterOrEqual(t, res.Importances[i-1].Importance, fi.Importance)
		}
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestForecast_Deterministic(t *testing.T) {
	trends := syntheticTrends(24, 2018, 8)
	a, err := newTestForecaster(t).Forecast(context.Background(), trends)
	require.NoError(t, err)
	b, err := newTestForecaster(t).Forecast(context.Background(), trends)
	require.NoError(t, err)
	assert.Equal(t, a.Points, b.Points)
	assert.Equal(t, a.Revenue, b.Revenue)
}

func TestForecast_UnsortedInput(t *testing.T) {
	trends := syntheticTrends(20, 2018, 6)
	reversed := make([]domain.MonthlyTrend, len(trends))
	for i, m := range trends {
		reversed[len(trends)-1-i] = m
	}

	a, err := newTestForecaster(t).Forecast(context.Background(), trends)
	require.NoError(t, err)
	b, err := newTestForecaster(t).Forecast(context.Background(), reversed)
	require.NoError(t, err)
	assert.Equal(t, a.Points, b.Points)
}

func TestForecast_InsufficientData(t *testing.T) {
	f := newTestForecaster(t)

	// twelve months leave nine rows, one short of the minimum
	res, err := f.Forecast(context.Background(), syntheticTrends(12, 2018, 8))
	assert.ErrorIs(t, err, ErrInsufficientData)
	require.NotNil(t, res)
	assert.Equal(t, StatusInsufficientData, res.Status)
	assert.Empty(t, res.Points)

	res, err = f.Forecast(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInsufficientData)
	assert.Equal(t, StatusInsufficientData, res.Status)
}

func TestForecast_CustomHorizon(t *testing.T) {
	logger, _ := testutil.NewCaptureLogger()
	cfg := config.Default().Forecast
	cfg.Trees = 10
	cfg.Horizon = 14

	res, err := NewForecaster(cfg, logger).Forecast(context.Background(), syntheticTrends(20, 2017, 12))
	require.NoError(t, err)
	require.Len(t, res.Points, 14)
	assert.Equal(t, 2018, res.Points[0].Year)
	assert.Equal(t, 1, res.Points[0].Month)
	assert.Equal(t, 2019, res.Points[13].Year)
	assert.Equal(t, 2, res.Points[13].Month)
}

func TestFeatureRow(t *testing.T) {
	row := featureRow(12, []float64{3, 2, 1}, []float64{30, 20, 10})
	require.Len(t, row, len(FeatureNames))
	assert.Equal(t, 12.0, row[0])
	assert.Equal(t, 4.0, row[1])
	assert.InDelta(t, 0, row[2], 1e-9)
	assert.InDelta(t, 1, row[3], 1e-9)
	assert.Equal(t, 4.0, row[4])
	assert.Equal(t, []float64{3, 2, 1, 30, 20, 10}, row[5:])
}

func TestShift(t *testing.T) {
	assert.Equal(t, []float64{9, 3, 2}, shift([]float64{3, 2, 1}, 9))
}

func TestBuildRows(t *testing.T) {
	series := syntheticTrends(5, 2018, 5)
	x, rev, ord := buildRows(series)
	require.Len(t, x, 2)
	assert.Equal(t, series[3].MonthlyRevenue, rev[0])
	assert.Equal(t, float64(series[4].MonthlyOrders), ord[1])
	// lag 1 of the first row is the third month
	assert.Equal(t, series[2].MonthlyRevenue, x[0][5])
	assert.Equal(t, series[0].MonthlyRevenue, x[0][7])
}

func TestEvaluate(t *testing.T) {
	m := Evaluate([]float64{1, 2, 3, 4}, []float64{1, 2, 3, 4})
	assert.Equal(t, Metrics{MAE: 0, RMSE: 0, R2: 1}, m)

	m = Evaluate([]float64{1, 2, 3}, []float64{2, 2, 2})
	assert.InDelta(t, 2.0/3, m.MAE, 1e-9)
	assert.InDelta(t, math.Sqrt(2.0/3), m.RMSE, 1e-9)
	assert.InDelta(t, 0, m.R2, 1e-9)

	// constant target, imperfect fit
	m = Evaluate([]float64{5, 5}, []float64{4, 6})
	assert.Zero(t, m.R2)

	assert.Equal(t, Metrics{}, Evaluate(nil, nil))
}

func TestResidualStd(t *testing.T) {
	assert.InDelta(t, 1.0, residualStd([]float64{0, 0}, []float64{1, -1}), 1e-9)
	assert.Zero(t, residualStd([]float64{1, 2}, []float64{2, 3}))
	assert.Zero(t, residualStd(nil, nil))
}

func TestOrdersBound(t *testing.T) {
	pred, std := 10.9, 0.5/ciZ

	// bounds come from the raw prediction, not the truncated 10
	assert.Equal(t, 10, ordersBound(pred-ciZ*std))
	assert.Equal(t, 11, ordersBound(pred+ciZ*std))
	assert.Zero(t, ordersBound(0.4-ciZ*1))
}
