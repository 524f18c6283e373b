package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"olistcli/internal/calendar"
	"olistcli/internal/dataset"
	"olistcli/internal/forecast"
	"olistcli/pkg/contracts/domain"
)

func flatEvents(revenue map[int]float64) []domain.CulturalEvent {
	var out []domain.CulturalEvent
	for m := 1; m <= 12; m++ {
		v, ok := revenue[m]
		if !ok {
			v = 100
		}
		out = append(out, domain.CulturalEvent{Month: m, MonthlyTotalRevenue: v, OrderCount: int(v / 10)})
	}
	return out
}

func TestInventoryStrategy_WrapsYear(t *testing.T) {
	s := inventoryStrategy(flatEvents(map[int]float64{1: 150, 12: 150, 6: 10}))

	require.Len(t, s.HighSeason, 2)
	assert.Equal(t, 1, s.HighSeason[0].Month)
	assert.Equal(t, 12, s.HighSeason[1].Month)
	assert.Equal(t, "Increase inventory by 30-50%", s.HighSeason[0].Recommendation)

	require.Len(t, s.LowSeason, 1)
	assert.Equal(t, 6, s.LowSeason[0].Month)

	require.Len(t, s.Preparation, 2)
	assert.Equal(t, 12, s.Preparation[0].Month, "January is prepared in December")
	assert.Equal(t, 11, s.Preparation[1].Month)
	assert.Equal(t, "Build inventory for "+calendar.Events[1].Name, s.Preparation[0].Recommendation)

	require.Len(t, s.Clearance, 2)
	assert.Equal(t, 2, s.Clearance[0].Month)
	assert.Equal(t, 1, s.Clearance[1].Month, "December clears in January")
	assert.Equal(t, "Clear excess inventory from "+calendar.Events[12].Name, s.Clearance[1].Recommendation)
}

func TestHolidayImpact(t *testing.T) {
	all, high := holidayImpact(flatEvents(map[int]float64{11: 250, 3: 50}))
	require.Len(t, all, 12)
	assert.Equal(t, 11, all[0].Month)
	assert.Equal(t, 3, all[len(all)-1].Month)

	// average is (10*100 + 250 + 50) / 12
	avg := 1300.0 / 12
	assert.InDelta(t, (250/avg-1)*100, all[0].RevenueVsAverage, 0.01)

	for _, h := range high {
		assert.True(t, calendar.HighImpact(calendar.Events[h.Month]), h.EventName)
	}
	assert.Len(t, high, 4)
}

func TestOverallVariance(t *testing.T) {
	v := overallVariance(flatEvents(map[int]float64{12: 400, 2: 40}))
	assert.Equal(t, 12, v.PeakRevenue.Month)
	assert.Equal(t, "Christmas", v.PeakRevenue.Event)
	assert.Equal(t, 2, v.TroughRevenue.Month)
	assert.Equal(t, 12, v.PeakOrders.Month)
	assert.Positive(t, v.RevenueCV)

	flat := overallVariance(flatEvents(nil))
	assert.Zero(t, flat.RevenueCV)
	assert.Equal(t, 1, flat.PeakRevenue.Month, "ties resolve to the first month")
}

func TestCategoryVarianceByMonth_FoldsYears(t *testing.T) {
	patterns := []domain.CategoryMonth{
		{Category: "toys", Year: 2017, Month: 12, CategoryRevenue: 100},
		{Category: "toys", Year: 2018, Month: 12, CategoryRevenue: 100},
		{Category: "toys", Year: 2018, Month: 6, CategoryRevenue: 50},
		{Category: "books", Year: 2018, Month: 6, CategoryRevenue: 80},
		{Category: "books", Year: 2018, Month: 7, CategoryRevenue: 80},
	}
	got := categoryVarianceByMonth(patterns)
	require.Len(t, got, 2)
	assert.Equal(t, "toys", got[0].Category)
	assert.Equal(t, 2, got[0].MonthsActive)
	assert.InDelta(t, 200, got[0].MaxMonthlyRevenue, 1e-9)
	assert.InDelta(t, 4, got[0].PeakToTrough, 1e-9)
	assert.Equal(t, "books", got[1].Category)
	assert.Zero(t, got[1].SeasonalVariance)
}

func TestCategoryHolidayShare(t *testing.T) {
	patterns := []domain.CategoryMonth{
		{Category: "toys", Month: 12, CategoryRevenue: 300, CategoryOrders: 3},
		{Category: "toys", Month: 4, CategoryRevenue: 100, CategoryOrders: 1},
		{Category: "books", Month: 5, CategoryRevenue: 50, CategoryOrders: 1},
		{Category: "books", Month: 9, CategoryRevenue: 150, CategoryOrders: 2},
		{Category: "tools", Month: 9, CategoryRevenue: 10, CategoryOrders: 1},
	}
	got := categoryHolidayShare(patterns)
	require.Len(t, got, 2, "categories without holiday orders are dropped")
	assert.Equal(t, "toys", got[0].Category)
	assert.InDelta(t, 75, got[0].Share, 1e-9)
	assert.InDelta(t, 25, got[1].Share, 1e-9)
}

func TestCategoryStrategies(t *testing.T) {
	got := categoryStrategies([]domain.CategoryVariance{
		{Category: "a", SeasonalityLevel: domain.SeasonalityLow, AvgMonthlyRevenue: 10},
		{Category: "b", SeasonalityLevel: domain.SeasonalityVeryHigh, AvgMonthlyRevenue: 30},
		{Category: "c", SeasonalityLevel: domain.SeasonalityModerate, AvgMonthlyRevenue: 20},
	})
	require.Len(t, got, 3)
	assert.Equal(t, []string{"b", "c", "a"}, []string{got[0].Category, got[1].Category, got[2].Category})
	assert.Equal(t, "Dynamic inventory with 60-80% seasonal adjustment", got[0].Strategy)
	assert.Equal(t, "High", got[0].RiskLevel)
	assert.Equal(t, "Medium (20-25%)", got[1].BufferStock)
	assert.Equal(t, "Stable inventory with minimal adjustment", got[2].Strategy)
}

func TestForecastAdjustments(t *testing.T) {
	got := forecastAdjustments([]domain.ForecastPoint{
		{Month: 11, ExpectedImpact: calendar.ImpactVeryHigh},
		{Month: 5, ExpectedImpact: calendar.ImpactHigh},
		{Month: 4, ExpectedImpact: calendar.ImpactLow},
	})
	require.Len(t, got, 3)
	assert.Equal(t, "+50-70%", got[0].InventoryAdjustment)
	assert.Equal(t, "6-8 weeks before", got[0].PreparationTiming)
	assert.Equal(t, "+30-50%", got[1].InventoryAdjustment)
	assert.Equal(t, "±10%", got[2].InventoryAdjustment)
	assert.Equal(t, "1-2 weeks before", got[2].PreparationTiming)
}

func TestSeasonalAnalyzer(t *testing.T) {
	in := sampleInput(t)
	rep, err := NewSeasonalAnalyzer().Analyze(context.Background(), in)
	require.NoError(t, err)
	s := rep.(*SeasonalReport)

	assert.Len(t, s.Months, 12)
	assert.Len(t, s.Quarters, 4)
	orders := 0
	for _, q := range s.Quarters {
		orders += q.Orders
		assert.Equal(t, calendar.Season(q.Quarter), q.Season)
	}
	assert.Equal(t, len(in.Features.Orders), orders)
	for i := 1; i < len(s.Holidays); i++ {
		assert.GreaterOrEqual(t, s.Holidays[i-1].RevenueVsAverage, s.Holidays[i].RevenueVsAverage)
	}
	assert.NotEmpty(t, s.CategoryVariance)
	assert.Len(t, s.KeyInsights, 4)
	assert.Equal(t, len(in.Features.Forecast), len(s.Adjustments))
}

func TestSeasonalAnalyzer_PrefersLiveForecast(t *testing.T) {
	in := sampleInput(t)
	in.Forecast = &forecast.Result{
		Status: forecast.StatusOK,
		Points: []domain.ForecastPoint{
			{Year: 2018, Month: 11, MonthName: "November", PredictedRevenue: 1000, RevenueLowerCI: 800, RevenueUpperCI: 1200,
				EventName: "Black Friday", ExpectedImpact: calendar.ImpactVeryHigh},
		},
		Importances: []forecast.FeatureImportance{{Feature: "revenue_lag_1", Importance: 0.6}},
	}
	rep, err := NewSeasonalAnalyzer().Analyze(context.Background(), in)
	require.NoError(t, err)
	s := rep.(*SeasonalReport)

	require.Len(t, s.Adjustments, 1)
	assert.Equal(t, "+50-70%", s.Adjustments[0].InventoryAdjustment)

	charts := s.Charts()
	assert.Equal(t, "Revenue Forecast", charts[len(charts)-1].Title)
	md := renderMarkdown(t, s)
	assert.Contains(t, md, "Revenue Drivers")
	assert.Contains(t, md, "revenue_lag_1: 0.600")
}

func TestSeasonalAnalyzer_MissingItems(t *testing.T) {
	in := sampleInput(t)
	in.Tables = dataset.NewTableSet()
	_, err := NewSeasonalAnalyzer().Analyze(context.Background(), in)
	assert.ErrorIs(t, err, ErrMissingData)
}
