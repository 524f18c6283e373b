package features

import (
	"math"
	"sort"
	"time"

	"olistcli/internal/config"
	"olistcli/internal/dataset"
	"olistcli/internal/stats"
	"olistcli/pkg/contracts/domain"
)

// segmentRule is one row of the RFM segment decision table
type segmentRule struct {
	segment string
	match   func(r, f, m int) bool
}

// segmentRules are evaluated in order; the first match wins
var segmentRules = []segmentRule{
	{domain.SegmentChampions, func(r, f, m int) bool { return r >= 4 && f >= 4 && m >= 4 }},
	{domain.SegmentLoyal, func(r, f, m int) bool { return r >= 3 && f >= 3 && m >= 3 }},
	{domain.SegmentNew, func(r, f, m int) bool { return r >= 4 && f <= 2 }},
	{domain.SegmentPotentialLoyalists, func(r, f, m int) bool { return r >= 3 && f >= 3 && m <= 2 }},
	{domain.SegmentAtRisk, func(r, f, m int) bool { return r <= 2 && f >= 3 && m >= 3 }},
	{domain.SegmentCannotLose, func(r, f, m int) bool { return r <= 2 && f <= 2 && m >= 3 }},
	{domain.SegmentPromising, func(r, f, m int) bool { return r >= 3 && f <= 2 && m <= 2 }},
	{domain.SegmentLost, func(r, f, m int) bool { return r <= 2 && f <= 2 && m <= 2 }},
}

// Segment maps R, F and M scores (1-5) to a customer segment
func Segment(r, f, m int) string {
	for _, rule := range segmentRules {
		if rule.match(r, f, m) {
			return rule.segment
		}
	}
	return domain.SegmentOthers
}

// CustomerStatus classifies recency against the active and inactive windows
func CustomerStatus(daysSinceLast int, cfg config.FeaturesConfig) string {
	switch {
	case daysSinceLast <= cfg.ActiveDays:
		return domain.StatusActive
	case daysSinceLast <= cfg.InactiveDays:
		return domain.StatusInactive
	default:
		return domain.StatusChurned
	}
}

// EstimateCLV is average order value times monthly frequency times the
// lifetime in months, counting at least one month
func EstimateCLV(avgOrderValue, frequencyPerMonth float64, lifetimeDays int, daysPerMonth float64) float64 {
	months := math.Max(float64(lifetimeDays)/daysPerMonth, 1)
	return avgOrderValue * frequencyPerMonth * months
}

type customerAgg struct {
	id       string
	orders   int
	revenue  money
	first    time.Time
	last     time.Time
	delivery []float64
	onTime   []float64
}

// customerMetrics scores every customer_id. The analysis date is the
// latest purchase in orders.
func customerMetrics(orders []domain.EnhancedOrder, values map[string]orderValue, cfg config.FeaturesConfig) ([]domain.CustomerMetrics, time.Time) {
	if len(orders) == 0 {
		return nil, time.Time{}
	}

	var analysisDate time.Time
	byID := make(map[string]*customerAgg)
	for _, o := range orders {
		if o.PurchaseTimestamp.After(analysisDate) {
			analysisDate = o.PurchaseTimestamp
		}
		a, ok := byID[o.CustomerID]
		if !ok {
			a = &customerAgg{id: o.CustomerID, first: o.PurchaseTimestamp, last: o.PurchaseTimestamp}
			byID[o.CustomerID] = a
		}
		a.orders++
		if v, ok := values[o.OrderID]; ok {
			a.revenue.add(v.total())
		}
		if o.PurchaseTimestamp.Before(a.first) {
			a.first = o.PurchaseTimestamp
		}
		if o.PurchaseTimestamp.After(a.last) {
			a.last = o.PurchaseTimestamp
		}
		if o.DeliveryDays != nil {
			a.delivery = append(a.delivery, *o.DeliveryDays)
		}
		if o.OnTimeDelivery != nil {
			a.onTime = append(a.onTime, boolFloat(*o.OnTimeDelivery))
		}
	}

	aggs := make([]*customerAgg, 0, len(byID))
	for _, a := range byID {
		aggs = append(aggs, a)
	}
	sort.Slice(aggs, func(i, j int) bool { return aggs[i].id < aggs[j].id })

	out := make([]domain.CustomerMetrics, len(aggs))
	recency := make([]float64, len(aggs))
	frequency := make([]float64, len(aggs))
	monetary := make([]float64, len(aggs))
	for i, a := range aggs {
		c := domain.CustomerMetrics{
			CustomerID:           a.id,
			TotalOrders:          a.orders,
			TotalRevenue:         a.revenue.Sum(),
			AvgOrderValue:        a.revenue.Mean(),
			LastOrderDate:        a.last,
			FirstOrderDate:       a.first,
			DaysSinceLastOrder:   int(dataset.FloorDays(analysisDate.Sub(a.last))),
			CustomerLifetimeDays: int(dataset.FloorDays(a.last.Sub(a.first))),
			TotalOrdersCheck:     a.orders,
		}
		c.OrderFrequencyPerMonth = float64(c.TotalOrders)
		if c.CustomerLifetimeDays > 0 {
			c.OrderFrequencyPerMonth = float64(c.TotalOrders) / (float64(c.CustomerLifetimeDays) / cfg.DaysPerMonth)
		}
		c.EstimatedCLV = EstimateCLV(c.AvgOrderValue, c.OrderFrequencyPerMonth, c.CustomerLifetimeDays, cfg.DaysPerMonth)
		c.Status = CustomerStatus(c.DaysSinceLastOrder, cfg)
		c.IsRepeatCustomer = c.TotalOrders > 1
		if len(a.delivery) > 0 {
			c.AvgDeliveryExperience = dataset.Float(stats.Mean(a.delivery))
		}
		if len(a.onTime) > 0 {
			c.DeliveryReliability = dataset.Float(stats.Mean(a.onTime))
		}

		recency[i] = float64(c.DaysSinceLastOrder)
		frequency[i] = float64(c.TotalOrders)
		monetary[i] = c.TotalRevenue
		out[i] = c
	}

	scoreRFM(out, recency, frequency, monetary)
	return out, analysisDate
}

// scoreRFM fills the R, F and M scores, the segment and the CLV category.
// Recency is binned on raw days with inverted labels, the others on
// first-order ranks.
func scoreRFM(cs []domain.CustomerMetrics, recency, frequency, monetary []float64) {
	rBins := stats.QCutRanked(recency, 5)
	fBins := stats.QCutRanked(stats.RankFirst(frequency), 5)
	mBins := stats.QCutRanked(stats.RankFirst(monetary), 5)

	clv := make([]float64, len(cs))
	for i := range cs {
		clv[i] = cs[i].EstimatedCLV
	}
	clvBins := stats.QCutRanked(stats.RankFirst(clv), len(domain.CLVCategories))

	for i := range cs {
		c := &cs[i]
		c.RecencyScore = 5 - rBins[i]
		c.FrequencyScore = fBins[i] + 1
		c.MonetaryScore = mBins[i] + 1
		c.RFMScore = c.RecencyScore*100 + c.FrequencyScore*10 + c.MonetaryScore
		c.Segment = Segment(c.RecencyScore, c.FrequencyScore, c.MonetaryScore)
		c.CLVCategory = domain.CLVCategories[clvBins[i]]
	}
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
