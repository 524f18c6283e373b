package features

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"olistcli/internal/config"
	"olistcli/internal/dataset"
	"olistcli/pkg/contracts/domain"
)

func TestSpeedCategory(t *testing.T) {
	tests := []struct {
		days float64
		want string
	}{
		{0, domain.SpeedVeryFast},
		{7, domain.SpeedVeryFast},
		{8, domain.SpeedFast},
		{14, domain.SpeedFast},
		{21, domain.SpeedNormal},
		{30, domain.SpeedSlow},
		{31, domain.SpeedVerySlow},
		{200, domain.SpeedVerySlow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SpeedCategory(tt.days), "days=%v", tt.days)
	}
}

func TestAccuracyCategory(t *testing.T) {
	assert.Equal(t, domain.AccuracyMuchEarlier, AccuracyCategory(-10))
	assert.Equal(t, domain.AccuracyMuchEarlier, AccuracyCategory(-7))
	assert.Equal(t, domain.AccuracyEarlier, AccuracyCategory(-1))
	assert.Equal(t, domain.AccuracyEarlier, AccuracyCategory(0))
	assert.Equal(t, domain.AccuracyOnTime, AccuracyCategory(7))
	assert.Equal(t, domain.AccuracyLate, AccuracyCategory(14))
	assert.Equal(t, domain.AccuracyVeryLate, AccuracyCategory(15))
}

func TestEnhanceOrders(t *testing.T) {
	purchase := time.Date(2017, 11, 24, 22, 15, 0, 0, time.UTC) // Friday
	orders := []dataset.Order{
		{
			OrderID:               "o1",
			CustomerID:            "c1",
			Status:                dataset.StatusDelivered,
			PurchaseTimestamp:     purchase,
			ApprovedAt:            dataset.Time(purchase.Add(30 * time.Minute)),
			DeliveredCarrierDate:  dataset.Time(purchase.Add(50 * time.Hour)),
			DeliveredCustomerDate: dataset.Time(purchase.Add(10*24*time.Hour + time.Hour)),
			EstimatedDeliveryDate: dataset.Time(purchase.AddDate(0, 0, 15)),
		},
		{
			OrderID:           "o2",
			CustomerID:        "c2",
			Status:            dataset.StatusCanceled,
			PurchaseTimestamp: purchase.AddDate(0, 0, 1),
		},
	}

	got := enhanceOrders(orders)
	require.Len(t, got, 2)

	o := got[0]
	require.NotNil(t, o.DeliveryDays)
	assert.Equal(t, 10.0, *o.DeliveryDays)
	assert.Equal(t, domain.SpeedFast, o.DeliverySpeedCategory)
	require.NotNil(t, o.DeliveryVsEstimateDays)
	assert.Equal(t, -5.0, *o.DeliveryVsEstimateDays)
	require.NotNil(t, o.OnTimeDelivery)
	assert.True(t, *o.OnTimeDelivery)
	require.NotNil(t, o.ProcessingDays)
	assert.Equal(t, 2.0, *o.ProcessingDays, "processing runs from purchase to the carrier, not to approval")
	require.NotNil(t, o.ShippingDays)
	assert.Equal(t, 7.0, *o.ShippingDays)

	assert.Equal(t, 2017, o.Year)
	assert.Equal(t, 11, o.Month)
	assert.Equal(t, 4, o.Quarter)
	assert.Equal(t, 4, o.DayOfWeek)
	assert.Equal(t, "Friday", o.DayName)
	assert.Equal(t, 22, o.Hour)
	assert.Equal(t, 47, o.WeekOfYear)
	assert.False(t, o.IsWeekend)
	assert.True(t, o.IsHolidaySeason)
	assert.False(t, o.IsCarnivalSeason)

	// Saturday, never delivered
	c := got[1]
	assert.True(t, c.IsWeekend)
	assert.Nil(t, c.DeliveryDays)
	assert.Nil(t, c.OnTimeDelivery)
	assert.Empty(t, c.DeliverySpeedCategory)
}

func TestSegment(t *testing.T) {
	tests := []struct {
		r, f, m int
		want    string
	}{
		{5, 5, 5, domain.SegmentChampions},
		{4, 4, 4, domain.SegmentChampions},
		{3, 3, 3, domain.SegmentLoyal},
		{5, 1, 1, domain.SegmentNew},
		{4, 2, 5, domain.SegmentNew},
		{3, 3, 1, domain.SegmentPotentialLoyalists},
		{1, 3, 3, domain.SegmentAtRisk},
		{1, 1, 5, domain.SegmentCannotLose},
		{3, 1, 1, domain.SegmentPromising},
		{1, 1, 1, domain.SegmentLost},
		{2, 3, 1, domain.SegmentOthers},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Segment(tt.r, tt.f, tt.m), "rfm=%d%d%d", tt.r, tt.f, tt.m)
	}
}

func TestCustomerStatus(t *testing.T) {
	cfg := config.Default().Features
	assert.Equal(t, domain.StatusActive, CustomerStatus(0, cfg))
	assert.Equal(t, domain.StatusActive, CustomerStatus(90, cfg))
	assert.Equal(t, domain.StatusInactive, CustomerStatus(91, cfg))
	assert.Equal(t, domain.StatusInactive, CustomerStatus(180, cfg))
	assert.Equal(t, domain.StatusChurned, CustomerStatus(181, cfg))
}

func TestEstimateCLV(t *testing.T) {
	// lifetime under a month counts as one month
	assert.InDelta(t, 200.0, EstimateCLV(100, 2, 0, 30.44), 1e-9)
	assert.InDelta(t, 200.0, EstimateCLV(100, 2, 15, 30.44), 1e-9)
	assert.InDelta(t, 100*0.5*(91/30.44), EstimateCLV(100, 0.5, 91, 30.44), 1e-9)
}

func TestCustomerMetrics_SingleCustomer(t *testing.T) {
	start := time.Date(2018, 1, 1, 9, 0, 0, 0, time.UTC)
	orders := enhanceOrders([]dataset.Order{
		{OrderID: "a", CustomerID: "c1", PurchaseTimestamp: start},
		{OrderID: "b", CustomerID: "c1", PurchaseTimestamp: start.AddDate(0, 0, 61)},
		{OrderID: "c", CustomerID: "c2", PurchaseTimestamp: start.AddDate(0, 0, 100)},
	})
	values := orderValues([]dataset.OrderItem{
		{OrderID: "a", Price: 90, FreightValue: 10},
		{OrderID: "b", Price: 45.5, FreightValue: 4.5},
		{OrderID: "c", Price: 20, FreightValue: 0},
	})

	cs, analysisDate := customerMetrics(orders, values, config.Default().Features)
	require.Len(t, cs, 2)
	assert.Equal(t, start.AddDate(0, 0, 100), analysisDate)

	c := cs[0]
	assert.Equal(t, "c1", c.CustomerID)
	assert.Equal(t, 2, c.TotalOrders)
	assert.InDelta(t, 150.0, c.TotalRevenue, 1e-9)
	assert.InDelta(t, 75.0, c.AvgOrderValue, 1e-9)
	assert.Equal(t, 39, c.DaysSinceLastOrder)
	assert.Equal(t, 61, c.CustomerLifetimeDays)
	assert.InDelta(t, 2/(61/30.44), c.OrderFrequencyPerMonth, 1e-9)
	assert.Equal(t, domain.StatusActive, c.Status)
	assert.True(t, c.IsRepeatCustomer)

	// first order only: frequency falls back to the order count
	assert.Equal(t, 1.0, cs[1].OrderFrequencyPerMonth)
	assert.Equal(t, 0, cs[1].DaysSinceLastOrder)
	assert.Equal(t, 5, cs[1].RecencyScore)
}

func TestPopularity(t *testing.T) {
	assert.InDelta(t, 1.0, Popularity(10, 10, 5, 5, 5), 1e-9)
	assert.InDelta(t, 0.3+0.1+0.16, Popularity(5, 10, 5, 10, 4), 1e-9)
	assert.Zero(t, Popularity(5, 0, 1, 1, 5))
	assert.Zero(t, Popularity(5, 10, 0, 0, 5))
}

func TestLifecycle(t *testing.T) {
	assert.Equal(t, domain.LifecycleNoSales, Lifecycle(0, 0, 0))
	assert.Equal(t, domain.LifecycleIntroduction, Lifecycle(9, 5, 0.9))
	assert.Equal(t, domain.LifecycleGrowth, Lifecycle(30, 20, 0.7))
	assert.Equal(t, domain.LifecycleMaturity, Lifecycle(30, 20, 0.3))
	assert.Equal(t, domain.LifecycleDecline, Lifecycle(30, 20, 0.29))
}

func TestOpportunityScore(t *testing.T) {
	assert.InDelta(t, 0.8, OpportunityScore(0, 10, 50, 100), 1e-9)
	assert.InDelta(t, 0.4, OpportunityScore(10, 10, 100, 100), 1e-9)
	assert.Zero(t, OpportunityScore(10, 0, 100, 100))
	assert.Zero(t, OpportunityScore(10, 10, 0, 0))
}

func TestCustomerToSellerRatio(t *testing.T) {
	assert.Equal(t, 2.5, customerToSellerRatio(5, 2))
	assert.Equal(t, 5.0, customerToSellerRatio(5, 0))
}

func TestSeasonalityLevel(t *testing.T) {
	assert.Equal(t, domain.SeasonalityLow, SeasonalityLevel(0))
	assert.Equal(t, domain.SeasonalityLow, SeasonalityLevel(0.29))
	assert.Equal(t, domain.SeasonalityModerate, SeasonalityLevel(0.3))
	assert.Equal(t, domain.SeasonalityHigh, SeasonalityLevel(0.6))
	assert.Equal(t, domain.SeasonalityVeryHigh, SeasonalityLevel(1.0))
}

func TestCategoryVarianceOf(t *testing.T) {
	v := CategoryVarianceOf("toys", []float64{100, 200, 300})
	assert.Equal(t, "toys", v.Category)
	assert.InDelta(t, 200.0, v.AvgMonthlyRevenue, 1e-9)
	assert.InDelta(t, 100.0, v.RevenueStd, 1e-9)
	assert.InDelta(t, 0.5, v.SeasonalVariance, 1e-9)
	assert.Equal(t, domain.SeasonalityModerate, v.SeasonalityLevel)
	assert.InDelta(t, 3.0, v.PeakToTrough, 1e-9)
	assert.Equal(t, 3, v.MonthsActive)

	// a zero month leaves the ratio at zero instead of dividing by it
	z := CategoryVarianceOf("toys", []float64{0, 50})
	assert.Zero(t, z.PeakToTrough)
}

func TestPctChange(t *testing.T) {
	assert.Nil(t, pctChange(0, 10))
	got := pctChange(100, 150)
	require.NotNil(t, got)
	assert.InDelta(t, 50.0, *got, 1e-9)
}

func TestMoney_ExactSums(t *testing.T) {
	var m money
	m.addFloat(0.1)
	m.addFloat(0.2)
	assert.Equal(t, 0.3, m.Sum())
	assert.Equal(t, 0.15, m.Mean())

	var empty money
	assert.Zero(t, empty.Mean())

	v := orderValues([]dataset.OrderItem{
		{OrderID: "x", Price: 10.1, FreightValue: 1.2},
		{OrderID: "x", Price: 5.05, FreightValue: 0.3},
	})["x"]
	assert.Equal(t, 2, v.items)
	assert.True(t, v.total().Equal(decimal.RequireFromString("16.65")))
}

func TestDictionary(t *testing.T) {
	var d Dictionary
	d.Set("total_revenue", "customer revenue")
	d.Set("avg_price", "price")
	d.Set("total_revenue", "product revenue")

	assert.Equal(t, 2, d.Len())
	assert.Equal(t, []string{"total_revenue", "avg_price"}, d.Names())
	desc, ok := d.Description("total_revenue")
	assert.True(t, ok)
	assert.Equal(t, "product revenue", desc)

	var buf bytes.Buffer
	require.NoError(t, d.WriteText(&buf, fixedNow))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "# Feature Dictionary", lines[0])
	assert.Equal(t, "total_revenue: product revenue", lines[3])
}

func TestWriteInventory(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteInventory(&buf, []string{"payment_operations.csv", "customer_analytics.csv"}, fixedNow))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "# Feature-Engineered Datasets Inventory\n"))
	assert.Less(t, strings.Index(out, "- customer_analytics.csv"), strings.Index(out, "- payment_operations.csv"))
	assert.Contains(t, out, "## Dataset Descriptions:")
}
