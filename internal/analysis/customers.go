package analysis

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"olistcli/internal/dataset"
	"olistcli/internal/stats"
	"olistcli/pkg/contracts/domain"
)

var (
	experienceEdges  = []float64{0, 7, 14, 21, 30, math.Inf(1)}
	experienceLabels = []string{domain.SpeedVeryFast, domain.SpeedFast, domain.SpeedNormal, domain.SpeedSlow, domain.SpeedVerySlow}
)

// SegmentStats rolls up the customers of one RFM segment
type SegmentStats struct {
	Segment             string   `json:"customer_segment"`
	Customers           int      `json:"customer_count"`
	Percentage          float64  `json:"percentage"`
	AvgRevenue          float64  `json:"avg_revenue"`
	TotalRevenue        float64  `json:"total_revenue"`
	RevenueStd          float64  `json:"revenue_std"`
	RevenueShare        float64  `json:"revenue_share"`
	AvgDaysSinceLast    float64  `json:"avg_days_since_last_order"`
	AvgRecency          float64  `json:"avg_recency_score"`
	AvgFrequency        float64  `json:"avg_frequency_score"`
	AvgMonetary         float64  `json:"avg_monetary_score"`
	AvgDeliveryDays     *float64 `json:"avg_delivery_days,omitempty"`
	DeliveryReliability *float64 `json:"delivery_reliability,omitempty"`
}

// CLVGroup rolls up estimated lifetime value for one CLV category or
// segment
type CLVGroup struct {
	Group           string   `json:"group"`
	Customers       int      `json:"customer_count"`
	AvgCLV          float64  `json:"avg_clv"`
	TotalCLV        float64  `json:"total_clv"`
	AvgDeliveryDays *float64 `json:"avg_delivery_days,omitempty"`
	AvgReliability  *float64 `json:"avg_delivery_reliability,omitempty"`
	Percentage      float64  `json:"percentage"`
}

// DeliveryImpact relates average delivery experience to customer value
type DeliveryImpact struct {
	SpeedCategory  string   `json:"delivery_speed_category"`
	Customers      int      `json:"customer_count"`
	AvgRevenue     float64  `json:"avg_revenue"`
	TotalRevenue   float64  `json:"total_revenue"`
	AvgReliability *float64 `json:"avg_reliability,omitempty"`
	Percentage     float64  `json:"percentage"`
}

// ReliabilityImpact compares customers whose orders all arrived on time
// with the rest
type ReliabilityImpact struct {
	ReliableCustomers    int     `json:"reliable_customers"`
	ReliableShare        float64 `json:"reliable_share"`
	ReliableAvgRevenue   float64 `json:"reliable_avg_revenue"`
	UnreliableCustomers  int     `json:"unreliable_customers"`
	UnreliableShare      float64 `json:"unreliable_share"`
	UnreliableAvgRevenue float64 `json:"unreliable_avg_revenue"`
}

// Acquisition is the customers first seen in one month
type Acquisition struct {
	Month        string  `json:"month"`
	NewCustomers int     `json:"new_customers"`
	TotalRevenue float64 `json:"total_revenue"`
	AvgRevenue   float64 `json:"avg_revenue"`
}

// CustomerSummary holds the headline customer metrics. The repeat
// customer rate counts order scoped customer ids, so it understates true
// repeat behaviour.
type CustomerSummary struct {
	TotalCustomers     int      `json:"total_customers"`
	TotalRevenue       float64  `json:"total_revenue"`
	AverageOrderValue  float64  `json:"average_order_value"`
	HighValueRate      float64  `json:"high_value_customer_rate"`
	AvgDeliveryDays    *float64 `json:"avg_delivery_days,omitempty"`
	ReliabilityRate    float64  `json:"delivery_reliability_rate"`
	RepeatCustomerRate float64  `json:"repeat_customer_rate"`
}

// CustomerReport is the customer analytics result
type CustomerReport struct {
	Segments          []SegmentStats    `json:"segments"`
	CLVByCategory     []CLVGroup        `json:"clv_by_category"`
	CLVBySegment      []CLVGroup        `json:"clv_by_segment"`
	CLVDistribution   Distribution      `json:"clv_distribution"`
	ScoreDistribution [3]Distribution   `json:"rfm_score_distribution"`
	DeliveryImpact    []DeliveryImpact  `json:"delivery_impact"`
	Reliability       ReliabilityImpact `json:"reliability_impact"`
	Acquisition       []Acquisition     `json:"acquisition"`
	Summary           CustomerSummary   `json:"summary"`
	insights          []Insight
}

// CustomerAnalyzer summarizes RFM segments, lifetime value and the effect
// of delivery experience on customer value
type CustomerAnalyzer struct{}

// NewCustomerAnalyzer creates a customer analyzer
func NewCustomerAnalyzer() *CustomerAnalyzer { return &CustomerAnalyzer{} }

// Name implements Analyzer
func (a *CustomerAnalyzer) Name() string { return "customer_analytics" }

// Analyze implements Analyzer. It needs the customer analytics master.
func (a *CustomerAnalyzer) Analyze(ctx context.Context, in Input) (Report, error) {
	cs := in.Features.Customers
	if len(cs) == 0 {
		return nil, fmt.Errorf("%w: customer analytics dataset", ErrMissingData)
	}
	rep := &CustomerReport{}
	rep.Segments = segmentStats(cs)
	rep.ScoreDistribution = rfmDistribution(cs)
	rep.CLVByCategory, rep.CLVBySegment, rep.CLVDistribution = clvAnalysis(cs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rep.DeliveryImpact, rep.Reliability = deliveryImpact(cs)
	rep.Acquisition = acquisition(cs)
	rep.Summary = customerSummary(cs)
	rep.buildInsights()
	return rep, nil
}

func segmentStats(cs []domain.CustomerMetrics) []SegmentStats {
	groups := make(map[string][]domain.CustomerMetrics)
	total := 0.0
	for _, c := range cs {
		groups[c.Segment] = append(groups[c.Segment], c)
		total += c.TotalRevenue
	}

	out := make([]SegmentStats, 0, len(groups))
	for seg, members := range groups {
		var revenue, days, r, f, m []float64
		var delivery, reliability []*float64
		for _, c := range members {
			revenue = append(revenue, c.TotalRevenue)
			days = append(days, float64(c.DaysSinceLastOrder))
			r = append(r, float64(c.RecencyScore))
			f = append(f, float64(c.FrequencyScore))
			m = append(m, float64(c.MonetaryScore))
			delivery = append(delivery, c.AvgDeliveryExperience)
			reliability = append(reliability, c.DeliveryReliability)
		}
		s := SegmentStats{
			Segment:             seg,
			Customers:           len(members),
			Percentage:          stats.Round(float64(len(members))/float64(len(cs))*100, 2),
			AvgRevenue:          stats.Mean(revenue),
			TotalRevenue:        stats.Sum(revenue),
			RevenueStd:          stats.StdDev(revenue),
			AvgDaysSinceLast:    stats.Mean(days),
			AvgRecency:          stats.Mean(r),
			AvgFrequency:        stats.Mean(f),
			AvgMonetary:         stats.Mean(m),
			AvgDeliveryDays:     optMean(delivery),
			DeliveryReliability: optMean(reliability),
		}
		s.RevenueShare = stats.Round(stats.SafeDiv(s.TotalRevenue, total)*100, 2)
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Customers != out[j].Customers {
			return out[i].Customers > out[j].Customers
		}
		return out[i].Segment < out[j].Segment
	})
	return out
}

func rfmDistribution(cs []domain.CustomerMetrics) [3]Distribution {
	var r, f, m []float64
	for _, c := range cs {
		r = append(r, float64(c.RecencyScore))
		f = append(f, float64(c.FrequencyScore))
		m = append(m, float64(c.MonetaryScore))
	}
	return [3]Distribution{describe(r), describe(f), describe(m)}
}

// clvAnalysis groups estimated CLV by category, in category order, and by
// segment, highest average first
func clvAnalysis(cs []domain.CustomerMetrics) (byCategory, bySegment []CLVGroup, dist Distribution) {
	group := func(key func(domain.CustomerMetrics) string) map[string]*clvAcc {
		out := make(map[string]*clvAcc)
		for _, c := range cs {
			k := key(c)
			a, ok := out[k]
			if !ok {
				a = &clvAcc{}
				out[k] = a
			}
			a.add(c)
		}
		return out
	}

	cats := group(func(c domain.CustomerMetrics) string { return c.CLVCategory })
	for _, name := range domain.CLVCategories {
		if a, ok := cats[name]; ok {
			byCategory = append(byCategory, a.group(name, len(cs)))
		}
	}

	for name, a := range group(func(c domain.CustomerMetrics) string { return c.Segment }) {
		bySegment = append(bySegment, a.group(name, len(cs)))
	}
	sort.Slice(bySegment, func(i, j int) bool {
		if bySegment[i].AvgCLV != bySegment[j].AvgCLV {
			return bySegment[i].AvgCLV > bySegment[j].AvgCLV
		}
		return bySegment[i].Group < bySegment[j].Group
	})

	clv := make([]float64, len(cs))
	for i, c := range cs {
		clv[i] = c.EstimatedCLV
	}
	return byCategory, bySegment, describe(clv)
}

type clvAcc struct {
	clv         []float64
	delivery    []*float64
	reliability []*float64
}

func (a *clvAcc) add(c domain.CustomerMetrics) {
	a.clv = append(a.clv, c.EstimatedCLV)
	a.delivery = append(a.delivery, c.AvgDeliveryExperience)
	a.reliability = append(a.reliability, c.DeliveryReliability)
}

func (a *clvAcc) group(name string, total int) CLVGroup {
	return CLVGroup{
		Group:           name,
		Customers:       len(a.clv),
		AvgCLV:          stats.Mean(a.clv),
		TotalCLV:        stats.Sum(a.clv),
		AvgDeliveryDays: optMean(a.delivery),
		AvgReliability:  optMean(a.reliability),
		Percentage:      stats.Round(float64(len(a.clv))/float64(total)*100, 2),
	}
}

// deliveryImpact bins customers by their average delivery experience.
// Customers without a delivered order fall in no bin.
func deliveryImpact(cs []domain.CustomerMetrics) ([]DeliveryImpact, ReliabilityImpact) {
	type acc struct {
		revenue     []float64
		reliability []*float64
	}
	bins := make([]acc, len(experienceLabels))
	var reliable, unreliable []float64
	for _, c := range cs {
		if c.AvgDeliveryExperience != nil {
			if b := stats.Cut(*c.AvgDeliveryExperience, experienceEdges); b >= 0 {
				bins[b].revenue = append(bins[b].revenue, c.TotalRevenue)
				bins[b].reliability = append(bins[b].reliability, c.DeliveryReliability)
			}
		}
		if c.DeliveryReliability != nil {
			if *c.DeliveryReliability == 1 {
				reliable = append(reliable, c.TotalRevenue)
			} else {
				unreliable = append(unreliable, c.TotalRevenue)
			}
		}
	}

	var impact []DeliveryImpact
	for i, b := range bins {
		if len(b.revenue) == 0 {
			continue
		}
		impact = append(impact, DeliveryImpact{
			SpeedCategory:  experienceLabels[i],
			Customers:      len(b.revenue),
			AvgRevenue:     stats.Mean(b.revenue),
			TotalRevenue:   stats.Sum(b.revenue),
			AvgReliability: optMean(b.reliability),
			Percentage:     stats.Round(float64(len(b.revenue))/float64(len(cs))*100, 2),
		})
	}

	n := float64(len(cs))
	rel := ReliabilityImpact{
		ReliableCustomers:    len(reliable),
		ReliableShare:        float64(len(reliable)) / n * 100,
		ReliableAvgRevenue:   stats.Mean(reliable),
		UnreliableCustomers:  len(unreliable),
		UnreliableShare:      float64(len(unreliable)) / n * 100,
		UnreliableAvgRevenue: stats.Mean(unreliable),
	}
	return impact, rel
}

// acquisition counts customers by the month of their first order
func acquisition(cs []domain.CustomerMetrics) []Acquisition {
	months := make(map[string][]float64)
	for _, c := range cs {
		k := c.FirstOrderDate.Format("2006-01")
		months[k] = append(months[k], c.TotalRevenue)
	}
	out := make([]Acquisition, 0, len(months))
	for k, rev := range months {
		out = append(out, Acquisition{
			Month:        k,
			NewCustomers: len(rev),
			TotalRevenue: stats.Sum(rev),
			AvgRevenue:   stats.Mean(rev),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

func customerSummary(cs []domain.CustomerMetrics) CustomerSummary {
	var revenue []float64
	var delivery []*float64
	highValue, reliable, repeat := 0, 0, 0
	for _, c := range cs {
		revenue = append(revenue, c.TotalRevenue)
		delivery = append(delivery, c.AvgDeliveryExperience)
		if c.CLVCategory == "High Value" || c.CLVCategory == "VIP" {
			highValue++
		}
		if c.DeliveryReliability != nil && *c.DeliveryReliability == 1 {
			reliable++
		}
		if c.IsRepeatCustomer {
			repeat++
		}
	}
	n := float64(len(cs))
	return CustomerSummary{
		TotalCustomers:     len(cs),
		TotalRevenue:       stats.Sum(revenue),
		AverageOrderValue:  stats.Mean(revenue),
		HighValueRate:      float64(highValue) / n * 100,
		AvgDeliveryDays:    optMean(delivery),
		ReliabilityRate:    float64(reliable) / n * 100,
		RepeatCustomerRate: float64(repeat) / n * 100,
	}
}

func (r *CustomerReport) buildInsights() {
	if len(r.Segments) > 0 {
		s := r.Segments[0]
		r.add("Customer Segments", "Largest segment is %s with %s customers (%.1f%%)", s.Segment, count(s.Customers), s.Percentage)
		top := r.Segments[0]
		for _, seg := range r.Segments[1:] {
			if seg.RevenueShare > top.RevenueShare {
				top = seg
			}
		}
		r.add("Customer Segments", "%s contribute the largest revenue share: %.1f%%", top.Segment, top.RevenueShare)
	}
	r.add("Customer Value", "High-value customers (High Value + VIP): %.1f%% of the base", r.Summary.HighValueRate)
	r.add("Customer Value", "Average estimated CLV: %s (median %s)", brl(r.CLVDistribution.Mean), brl(r.CLVDistribution.Median))

	if len(r.DeliveryImpact) >= 2 {
		fast, slow := r.DeliveryImpact[0], r.DeliveryImpact[len(r.DeliveryImpact)-1]
		r.add("Delivery Experience", "%s deliveries average %s per customer vs %s for %s",
			fast.SpeedCategory, brl(fast.AvgRevenue), brl(slow.AvgRevenue), slow.SpeedCategory)
	}
	r.add("Delivery Experience", "%.1f%% of customers received every order on time", r.Summary.ReliabilityRate)
	r.add("Retention", "Repeat customer rate: %.1f%% (customer ids are scoped to one order, so true repeat buyers are undercounted)",
		r.Summary.RepeatCustomerRate)
}

func (r *CustomerReport) add(category, format string, args ...any) {
	r.insights = append(r.insights, Insight{Category: category, Text: fmt.Sprintf(format, args...)})
}

// Name implements Report
func (r *CustomerReport) Name() string { return "customer_analytics" }

// Title implements Report
func (r *CustomerReport) Title() string { return "Customer Analytics" }

// Insights implements Report
func (r *CustomerReport) Insights() []Insight { return r.insights }

// Charts implements Report
func (r *CustomerReport) Charts() []Chart {
	var segNames []string
	var segCounts, segRevenue []float64
	for _, s := range r.Segments {
		segNames = append(segNames, s.Segment)
		segCounts = append(segCounts, float64(s.Customers))
		segRevenue = append(segRevenue, s.AvgRevenue)
	}
	var catNames []string
	var catCLV []float64
	for _, c := range r.CLVByCategory {
		catNames = append(catNames, c.Group)
		catCLV = append(catCLV, c.AvgCLV)
	}
	var speedNames []string
	var speedRevenue []float64
	for _, d := range r.DeliveryImpact {
		speedNames = append(speedNames, d.SpeedCategory)
		speedRevenue = append(speedRevenue, d.AvgRevenue)
	}
	var months []string
	var newCustomers []float64
	for _, a := range r.Acquisition {
		months = append(months, a.Month)
		newCustomers = append(newCustomers, float64(a.NewCustomers))
	}
	return []Chart{
		{Title: "Customer Segment Distribution", Kind: ChartPie, Categories: segNames,
			Series: []Series{{Name: "Customers", Values: segCounts}}},
		{Title: "Average Revenue by Segment", Kind: ChartBar, Categories: segNames,
			Series: []Series{{Name: "Average revenue", Values: segRevenue}}},
		{Title: "Average CLV by Category", Kind: ChartBar, Categories: catNames,
			Series: []Series{{Name: "Average CLV", Values: catCLV}}},
		{Title: "Revenue by Delivery Speed", Kind: ChartBar, Categories: speedNames,
			Series: []Series{{Name: "Average revenue", Values: speedRevenue}}},
		{Title: "New Customers by Month", Kind: ChartLine, Categories: months,
			Series: []Series{{Name: "New customers", Values: newCustomers}}},
	}
}

// WriteMarkdown implements Report
func (r *CustomerReport) WriteMarkdown(w io.Writer, generated time.Time) error {
	md := newMarkdown(w)
	md.heading(1, "Customer Analytics Report")
	md.line("Generated on: " + generated.Format(dataset.TimeLayout))
	md.blank()

	s := r.Summary
	md.heading(2, "Summary Metrics")
	md.bullet("Total customers: %s", count(s.TotalCustomers))
	md.bullet("Total revenue: %s", brl(s.TotalRevenue))
	md.bullet("Average order value: %s", brl(s.AverageOrderValue))
	md.bullet("High-value customer rate: %s", pct(s.HighValueRate))
	md.bullet("Average delivery days: %s", optFmt(s.AvgDeliveryDays, f1))
	md.bullet("Delivery reliability rate: %s", pct(s.ReliabilityRate))
	md.bullet("Repeat customer rate: %s", pct(s.RepeatCustomerRate))
	md.blank()
	md.line("> Customer ids in this dataset identify a single order, so the repeat")
	md.line("> customer rate and frequency scores understate real repeat purchasing.")
	md.blank()

	md.heading(2, "Key Insights")
	for _, in := range r.insights {
		md.printf("**%s:** %s\n\n", in.Category, in.Text)
	}

	md.heading(2, "RFM Segments")
	var rows [][]string
	for _, seg := range r.Segments {
		rows = append(rows, []string{
			seg.Segment, count(seg.Customers), pct(seg.Percentage), brl(seg.AvgRevenue), brl(seg.TotalRevenue),
			f1(seg.AvgDaysSinceLast), f2(seg.AvgRecency), f2(seg.AvgFrequency), f2(seg.AvgMonetary),
		})
	}
	md.table([]string{"Segment", "Customers", "Share", "Avg Revenue", "Total Revenue",
		"Avg Days Since Last", "Avg R", "Avg F", "Avg M"}, rows)

	md.heading(3, "Segments by Revenue Share")
	byShare := append([]SegmentStats(nil), r.Segments...)
	sort.SliceStable(byShare, func(i, j int) bool { return byShare[i].RevenueShare > byShare[j].RevenueShare })
	rows = nil
	for _, seg := range byShare {
		rows = append(rows, []string{
			seg.Segment, pct(seg.RevenueShare), brl(seg.RevenueStd),
			optFmt(seg.AvgDeliveryDays, f1), optFmt(seg.DeliveryReliability, f2),
		})
	}
	md.table([]string{"Segment", "Revenue Share", "Revenue Std", "Avg Delivery Days", "Delivery Reliability"}, rows)

	md.heading(2, "Customer Lifetime Value")
	d := r.CLVDistribution
	md.bullet("Mean %s, median %s, std %s", brl(d.Mean), brl(d.Median), brl(d.Std))
	md.bullet("Range %s to %s (interquartile %s to %s)", brl(d.Min), brl(d.Max), brl(d.Q25), brl(d.Q75))
	md.blank()
	md.table([]string{"CLV Category", "Customers", "Share", "Avg CLV", "Total CLV", "Avg Delivery Days", "Avg Reliability"},
		clvRows(r.CLVByCategory))
	md.heading(3, "CLV by Segment")
	md.table([]string{"Segment", "Customers", "Share", "Avg CLV", "Total CLV", "Avg Delivery Days", "Avg Reliability"},
		clvRows(r.CLVBySegment))

	md.heading(2, "Delivery Experience Impact")
	rows = nil
	for _, di := range r.DeliveryImpact {
		rows = append(rows, []string{
			di.SpeedCategory, count(di.Customers), pct(di.Percentage), brl(di.AvgRevenue),
			brl(di.TotalRevenue), optFmt(di.AvgReliability, f2),
		})
	}
	md.table([]string{"Delivery Speed", "Customers", "Share", "Avg Revenue", "Total Revenue", "Avg Reliability"}, rows)
	rel := r.Reliability
	md.bullet("Reliable delivery: %s customers (%s), average revenue %s",
		count(rel.ReliableCustomers), pct(rel.ReliableShare), brl(rel.ReliableAvgRevenue))
	md.bullet("Unreliable delivery: %s customers (%s), average revenue %s",
		count(rel.UnreliableCustomers), pct(rel.UnreliableShare), brl(rel.UnreliableAvgRevenue))
	md.blank()

	md.heading(2, "Customer Acquisition")
	rows = nil
	for _, a := range r.Acquisition {
		rows = append(rows, []string{a.Month, count(a.NewCustomers), brl(a.TotalRevenue), brl(a.AvgRevenue)})
	}
	md.table([]string{"Month", "New Customers", "Revenue", "Avg Revenue"}, rows)
	return md.err
}

func clvRows(groups []CLVGroup) [][]string {
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, []string{
			g.Group, count(g.Customers), pct(g.Percentage), brl(g.AvgCLV), brl(g.TotalCLV),
			optFmt(g.AvgDeliveryDays, f1), optFmt(g.AvgReliability, f2),
		})
	}
	return rows
}
