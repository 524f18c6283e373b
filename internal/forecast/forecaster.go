package forecast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"olistcli/internal/calendar"
	"olistcli/internal/config"
	"olistcli/pkg/contracts/domain"
)

// ErrInsufficientData is returned when too few months remain after the
// lag features are built
var ErrInsufficientData = errors.New("insufficient data for forecasting")

// Forecast status values
const (
	StatusOK               = "ok"
	StatusInsufficientData = "insufficient_data"
)

// FeatureNames lists the model inputs in column order
var FeatureNames = []string{
	"month", "quarter", "month_sin", "month_cos", "holiday_impact",
	"revenue_lag_1", "revenue_lag_2", "revenue_lag_3",
	"orders_lag_1", "orders_lag_2", "orders_lag_3",
}

const lags = 3

// ciZ is the normal quantile of a two sided 95% interval
const ciZ = 1.96

// FeatureImportance is the weight of one input in the revenue model
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// Result is the outcome of one forecasting run
type Result struct {
	Status      string                 `json:"status"`
	Points      []domain.ForecastPoint `json:"points,omitempty"`
	Revenue     Metrics                `json:"revenue_metrics"`
	Orders      Metrics                `json:"orders_metrics"`
	Importances []FeatureImportance    `json:"feature_importance,omitempty"`
	TrainRows   int                    `json:"train_rows"`
	TestRows    int                    `json:"test_rows"`
}

// Forecaster predicts monthly revenue and order counts with two random
// forests fed by calendar features and the previous three months
type Forecaster struct {
	cfg    config.ForecastConfig
	logger *slog.Logger
}

// NewForecaster creates a forecaster. A nil logger uses slog.Default().
func NewForecaster(cfg config.ForecastConfig, logger *slog.Logger) *Forecaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Forecaster{cfg: cfg, logger: logger}
}

// Forecast trains on the monthly series and predicts the next Horizon
// months. When the series is too short it returns a Result with status
// insufficient_data together with ErrInsufficientData.
func (f *Forecaster) Forecast(ctx context.Context, trends []domain.MonthlyTrend) (*Result, error) {
	series := append([]domain.MonthlyTrend(nil), trends...)
	sort.Slice(series, func(i, j int) bool {
		if series[i].Year != series[j].Year {
			return series[i].Year < series[j].Year
		}
		return series[i].Month < series[j].Month
	})

	x, revenue, orders := buildRows(series)
	if len(x) < f.cfg.MinRows {
		f.logger.WarnContext(ctx, "Insufficient data for reliable forecasting",
			slog.Int("rows", len(x)),
			slog.Int("min_rows", f.cfg.MinRows))
		return &Result{Status: StatusInsufficientData}, ErrInsufficientData
	}

	split := int(float64(len(x)) * f.cfg.TrainRatio)
	if split < 1 || split >= len(x) {
		return &Result{Status: StatusInsufficientData}, ErrInsufficientData
	}

	scaler := FitScaler(x[:split])
	train := scaler.Transform(x[:split])
	test := scaler.Transform(x[split:])

	revModel := NewForest(f.cfg.Trees, f.cfg.Seed, f.cfg.MaxDepth)
	if err := revModel.Fit(ctx, train, revenue[:split]); err != nil {
		return nil, fmt.Errorf("fit revenue model: %w", err)
	}
	ordModel := NewForest(f.cfg.Trees, f.cfg.Seed, f.cfg.MaxDepth)
	if err := ordModel.Fit(ctx, train, orders[:split]); err != nil {
		return nil, fmt.Errorf("fit orders model: %w", err)
	}

	revPred, err := revModel.PredictAll(test)
	if err != nil {
		return nil, err
	}
	ordPred, err := ordModel.PredictAll(test)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Status:    StatusOK,
		Revenue:   Evaluate(revenue[split:], revPred),
		Orders:    Evaluate(orders[split:], ordPred),
		TrainRows: split,
		TestRows:  len(x) - split,
	}
	f.logger.InfoContext(ctx, "Forecast model performance",
		slog.Float64("revenue_mae", res.Revenue.MAE),
		slog.Float64("revenue_rmse", res.Revenue.RMSE),
		slog.Float64("revenue_r2", res.Revenue.R2),
		slog.Float64("orders_mae", res.Orders.MAE),
		slog.Float64("orders_rmse", res.Orders.RMSE),
		slog.Float64("orders_r2", res.Orders.R2))

	revStd := residualStd(revenue[split:], revPred)
	ordStd := residualStd(orders[split:], ordPred)

	last := series[len(series)-1]
	revLags := lastValues(series, func(m domain.MonthlyTrend) float64 { return m.MonthlyRevenue })
	ordLags := lastValues(series, func(m domain.MonthlyTrend) float64 { return float64(m.MonthlyOrders) })

	for i := 1; i <= f.cfg.Horizon; i++ {
		year, month := calendar.AddMonths(last.Year, last.Month, i)
		row := scaler.TransformRow(featureRow(month, revLags, ordLags))

		predRev, err := revModel.Predict(row)
		if err != nil {
			return nil, err
		}
		predOrdF, err := ordModel.Predict(row)
		if err != nil {
			return nil, err
		}
		// orders are truncated when stored; the interval uses the raw prediction
		predOrd := int(predOrdF)

		event := calendar.Events[month]
		res.Points = append(res.Points, domain.ForecastPoint{
			Year:             year,
			Month:            month,
			MonthName:        calendar.MonthName(month),
			PredictedRevenue: predRev,
			PredictedOrders:  predOrd,
			RevenueLowerCI:   predRev - ciZ*revStd,
			RevenueUpperCI:   predRev + ciZ*revStd,
			OrdersLowerCI:    ordersBound(predOrdF - ciZ*ordStd),
			OrdersUpperCI:    ordersBound(predOrdF + ciZ*ordStd),
			EventName:        event.Name,
			ExpectedImpact:   event.Impact,
		})

		revLags = shift(revLags, predRev)
		ordLags = shift(ordLags, float64(predOrd))
	}

	imp := revModel.Importances()
	for j, name := range FeatureNames {
		res.Importances = append(res.Importances, FeatureImportance{Feature: name, Importance: imp[j]})
	}
	sort.SliceStable(res.Importances, func(a, b int) bool {
		return res.Importances[a].Importance > res.Importances[b].Importance
	})

	for _, p := range res.Points {
		f.logger.InfoContext(ctx, "Forecast",
			slog.String("month", fmt.Sprintf("%s %d", p.MonthName, p.Year)),
			slog.Float64("revenue", p.PredictedRevenue),
			slog.Int("orders", p.PredictedOrders),
			slog.String("event", p.EventName))
	}
	return res, nil
}

// buildRows turns the series into model rows. The first three months have
// incomplete lags and are dropped.
func buildRows(series []domain.MonthlyTrend) (x [][]float64, revenue, orders []float64) {
	for i := lags; i < len(series); i++ {
		revLags := make([]float64, lags)
		ordLags := make([]float64, lags)
		for l := 1; l <= lags; l++ {
			revLags[l-1] = series[i-l].MonthlyRevenue
			ordLags[l-1] = float64(series[i-l].MonthlyOrders)
		}
		x = append(x, featureRow(series[i].Month, revLags, ordLags))
		revenue = append(revenue, series[i].MonthlyRevenue)
		orders = append(orders, float64(series[i].MonthlyOrders))
	}
	return x, revenue, orders
}

// featureRow builds one input row; lag slices hold the most recent month
// first
func featureRow(month int, revLags, ordLags []float64) []float64 {
	angle := 2 * math.Pi * float64(month) / 12
	row := []float64{
		float64(month),
		float64(calendar.Quarter(month)),
		math.Sin(angle),
		math.Cos(angle),
		float64(calendar.MonthImpact(month)),
	}
	row = append(row, revLags...)
	return append(row, ordLags...)
}

// lastValues returns the final three values of the series, most recent
// first
func lastValues(series []domain.MonthlyTrend, v func(domain.MonthlyTrend) float64) []float64 {
	out := make([]float64, lags)
	for l := 0; l < lags; l++ {
		out[l] = v(series[len(series)-1-l])
	}
	return out
}

func shift(window []float64, latest float64) []float64 {
	return append([]float64{latest}, window[:len(window)-1]...)
}

// ordersBound truncates an order interval bound, never below zero
func ordersBound(v float64) int {
	return int(math.Max(0, v))
}
