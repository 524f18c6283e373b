package analysis

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"olistcli/internal/dataset"
	"olistcli/internal/stats"
	"olistcli/pkg/contracts/domain"
)

var (
	installmentEdges  = []float64{-0.001, 1, 3, 6, 12, math.Inf(1)}
	installmentLabels = []string{"Single Payment", "2-3 Installments", "4-6 Installments", "7-12 Installments", "12+ Installments"}
	economicSegments  = []string{"Lower Economic Segment", "Middle Economic Segment", "Higher Economic Segment"}
)

// Installment usage labels
const (
	HighInstallmentUsage = "High Installment Usage"
	LowInstallmentUsage  = "Low Installment Usage"
)

// PaymentMix is the share and installment profile of one payment type
type PaymentMix struct {
	Type               string  `json:"payment_type"`
	Orders             int     `json:"order_count"`
	Share              float64 `json:"share"`
	AvgInstallments    float64 `json:"avg_installments"`
	MedianInstallments float64 `json:"median_installments"`
	StdInstallments    float64 `json:"std_installments"`
	AvgValue           float64 `json:"avg_payment_value"`
	MedianValue        float64 `json:"median_payment_value"`
}

// Satisfaction summarises the review scores of a group of orders
type Satisfaction struct {
	Group           string   `json:"group"`
	Reviews         int      `json:"review_count"`
	AvgSatisfaction float64  `json:"avg_satisfaction"`
	SatisfactionStd float64  `json:"satisfaction_std"`
	AvgInstallments float64  `json:"avg_installments"`
	AvgValue        float64  `json:"avg_payment_value"`
	AvgDeliveryDays *float64 `json:"avg_delivery_days,omitempty"`
	OnTimeRate      float64  `json:"on_time_delivery_rate"`
}

// OperationalMetrics is the overall fulfilment performance
type OperationalMetrics struct {
	TotalOrders        int      `json:"total_orders"`
	DeliveredOrders    int      `json:"delivered_orders"`
	DeliveryRate       float64  `json:"delivery_rate"`
	AvgDeliveryDays    *float64 `json:"avg_delivery_days,omitempty"`
	MedianDeliveryDays *float64 `json:"median_delivery_days,omitempty"`
	OnTimeRate         float64  `json:"on_time_delivery_rate"`
	AvgProcessingDays  *float64 `json:"avg_processing_days,omitempty"`
	AvgShippingDays    *float64 `json:"avg_shipping_days,omitempty"`
	AvgSatisfaction    *float64 `json:"avg_satisfaction,omitempty"`
}

// StatePerformance joins delivery performance with the payment behaviour
// of one state
type StatePerformance struct {
	State                 string   `json:"state"`
	Orders                int      `json:"order_count"`
	AvgDeliveryDays       *float64 `json:"avg_delivery_days,omitempty"`
	MedianDeliveryDays    *float64 `json:"median_delivery_days,omitempty"`
	OnTimeRate            float64  `json:"on_time_rate"`
	AvgSatisfaction       *float64 `json:"avg_satisfaction,omitempty"`
	AvgPaymentValue       float64  `json:"avg_payment_value"`
	AvgInstallments       float64  `json:"avg_installments"`
	PaymentDiversity      float64  `json:"payment_diversity"`
	InstallmentPreference string   `json:"installment_preference"`
	EconomicSegment       string   `json:"economic_segment"`
}

// DelayImpact is the satisfaction of one delivery accuracy class
type DelayImpact struct {
	Accuracy           string  `json:"delivery_accuracy"`
	Orders             int     `json:"order_count"`
	AvgSatisfaction    float64 `json:"avg_satisfaction"`
	SatisfactionImpact float64 `json:"satisfaction_impact"`
}

// ReviewRate is the share of orders of a payment type that got a review
type ReviewRate struct {
	Type    string  `json:"payment_type"`
	Orders  int     `json:"order_count"`
	Reviews int     `json:"review_count"`
	Rate    float64 `json:"review_rate"`
}

// Recommendation is one operational action item
type Recommendation struct {
	Category       string `json:"category"`
	Priority       string `json:"priority"`
	Recommendation string `json:"recommendation"`
	Impact         string `json:"impact"`
	Implementation string `json:"implementation"`
}

// PaymentReport is the payment and operations result
type PaymentReport struct {
	Mix               []PaymentMix       `json:"payment_distribution"`
	Installments      []Satisfaction     `json:"installment_satisfaction"`
	ByType            []Satisfaction     `json:"payment_satisfaction"`
	Operations        OperationalMetrics `json:"delivery_metrics"`
	States            []StatePerformance `json:"state_performance"`
	Delays            []DelayImpact      `json:"delay_impact"`
	ReviewRates       []ReviewRate       `json:"review_rates"`
	Recommendations   []Recommendation   `json:"recommendations"`
	UnmatchedPayments int                `json:"unmatched_orders"`
	insights          []Insight
}

// PaymentAnalyzer relates payment behaviour to fulfilment and satisfaction
// per payment type and state
type PaymentAnalyzer struct{}

// NewPaymentAnalyzer creates a payment analyzer
func NewPaymentAnalyzer() *PaymentAnalyzer { return &PaymentAnalyzer{} }

// Name implements Analyzer
func (a *PaymentAnalyzer) Name() string { return "payment_operations" }

// paymentRow is a payment operation joined with the customer's state
type paymentRow struct {
	domain.PaymentOperation
	State string
}

// Analyze implements Analyzer
func (a *PaymentAnalyzer) Analyze(ctx context.Context, in Input) (Report, error) {
	if len(in.Features.Payments) == 0 {
		return nil, fmt.Errorf("%w: payment operations dataset", ErrMissingData)
	}
	if err := requireTables(in.Tables, dataset.Customers); err != nil {
		return nil, err
	}

	states := make(map[string]string, len(in.Tables.Customers))
	for _, c := range in.Tables.Customers {
		states[c.CustomerID] = c.State
	}
	rows := make([]paymentRow, len(in.Features.Payments))
	rep := &PaymentReport{}
	for i, p := range in.Features.Payments {
		rows[i] = paymentRow{PaymentOperation: p, State: states[p.CustomerID]}
		if p.PaymentType == "" {
			rep.UnmatchedPayments++
		}
	}

	rep.Mix = paymentMix(rows)
	rep.Installments, rep.ByType = satisfactionBreakdown(rows)
	rep.Operations = operationalMetrics(rows)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rep.States = statePerformance(rows)
	rep.Delays = delayImpact(rows, rep.Operations.AvgSatisfaction)
	rep.ReviewRates = reviewRates(rows)
	rep.Recommendations = rep.recommend()
	rep.buildInsights()
	return rep, nil
}

// byType groups rows with a payment, in first-seen order
func byType(rows []paymentRow) (map[string][]paymentRow, []string) {
	groups := make(map[string][]paymentRow)
	var order []string
	for _, r := range rows {
		if r.PaymentType == "" {
			continue
		}
		if _, ok := groups[r.PaymentType]; !ok {
			order = append(order, r.PaymentType)
		}
		groups[r.PaymentType] = append(groups[r.PaymentType], r)
	}
	return groups, order
}

func paymentMix(rows []paymentRow) []PaymentMix {
	groups, order := byType(rows)
	total := 0
	for _, g := range groups {
		total += len(g)
	}
	out := make([]PaymentMix, 0, len(order))
	for _, t := range order {
		g := groups[t]
		inst, values := installmentsOf(g), valuesOf(g)
		m := PaymentMix{
			Type:            t,
			Orders:          len(g),
			Share:           stats.SafeDiv(float64(len(g)), float64(total)) * 100,
			AvgInstallments: stats.Mean(inst),
			StdInstallments: stats.StdDev(inst),
			AvgValue:        stats.Mean(values),
		}
		m.MedianInstallments, _ = stats.Median(inst)
		m.MedianValue, _ = stats.Median(values)
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Orders > out[j].Orders })
	return out
}

// satisfactionBreakdown scores reviewed orders by installment bucket and by
// payment type
func satisfactionBreakdown(rows []paymentRow) (buckets, types []Satisfaction) {
	var reviewed []paymentRow
	for _, r := range rows {
		if r.ReviewScore != nil && r.PaymentType != "" {
			reviewed = append(reviewed, r)
		}
	}

	bucketRows := make([][]paymentRow, len(installmentLabels))
	for _, r := range reviewed {
		if r.PaymentInstallments == nil {
			continue
		}
		if b := stats.Cut(float64(*r.PaymentInstallments), installmentEdges); b >= 0 {
			bucketRows[b] = append(bucketRows[b], r)
		}
	}
	for i, g := range bucketRows {
		if len(g) > 0 {
			buckets = append(buckets, satisfactionOf(installmentLabels[i], g))
		}
	}

	groups, order := byType(reviewed)
	for _, t := range order {
		types = append(types, satisfactionOf(t, groups[t]))
	}
	sort.SliceStable(types, func(i, j int) bool { return types[i].AvgSatisfaction > types[j].AvgSatisfaction })
	return buckets, types
}

func satisfactionOf(group string, rows []paymentRow) Satisfaction {
	var scores []float64
	var days []*float64
	for _, r := range rows {
		scores = append(scores, float64(*r.ReviewScore))
		days = append(days, r.DeliveryDays)
	}
	return Satisfaction{
		Group:           group,
		Reviews:         len(rows),
		AvgSatisfaction: stats.Mean(scores),
		SatisfactionStd: stats.StdDev(scores),
		AvgInstallments: stats.Mean(installmentsOf(rows)),
		AvgValue:        stats.Mean(valuesOf(rows)),
		AvgDeliveryDays: optMean(days),
		OnTimeRate:      onTimeShare(rows),
	}
}

func operationalMetrics(rows []paymentRow) OperationalMetrics {
	m := OperationalMetrics{TotalOrders: len(rows)}
	var delivery, processing, shipping []*float64
	var scores []*float64
	onTime, known := 0, 0
	for _, r := range rows {
		if r.Status == "delivered" {
			m.DeliveredOrders++
		}
		delivery = append(delivery, r.DeliveryDays)
		processing = append(processing, r.ProcessingDays)
		shipping = append(shipping, r.ShippingDays)
		if r.ReviewScore != nil {
			s := float64(*r.ReviewScore)
			scores = append(scores, &s)
		}
		if r.OnTimeDelivery != nil {
			known++
			if *r.OnTimeDelivery {
				onTime++
			}
		}
	}
	m.DeliveryRate = stats.SafeDiv(float64(m.DeliveredOrders), float64(m.TotalOrders)) * 100
	m.AvgDeliveryDays = optMean(delivery)
	m.MedianDeliveryDays = optMedian(delivery)
	m.OnTimeRate = stats.SafeDiv(float64(onTime), float64(known)) * 100
	m.AvgProcessingDays = optMean(processing)
	m.AvgShippingDays = optMean(shipping)
	m.AvgSatisfaction = optMean(scores)
	return m
}

// statePerformance ranks states by on-time rate and classifies their
// payment behaviour against the other states
func statePerformance(rows []paymentRow) []StatePerformance {
	groups := make(map[string][]paymentRow)
	for _, r := range rows {
		if r.State != "" {
			groups[r.State] = append(groups[r.State], r)
		}
	}
	out := make([]StatePerformance, 0, len(groups))
	for state, g := range groups {
		var days, scores []*float64
		for _, r := range g {
			days = append(days, r.DeliveryDays)
			if r.ReviewScore != nil {
				s := float64(*r.ReviewScore)
				scores = append(scores, &s)
			}
		}
		out = append(out, StatePerformance{
			State:              state,
			Orders:             len(g),
			AvgDeliveryDays:    optMean(days),
			MedianDeliveryDays: optMedian(days),
			OnTimeRate:         onTimeShare(g),
			AvgSatisfaction:    optMean(scores),
			AvgPaymentValue:    stats.Mean(valuesOf(g)),
			AvgInstallments:    stats.Mean(installmentsOf(g)),
			PaymentDiversity:   paymentDiversity(g),
		})
	}
	if len(out) == 0 {
		return out
	}

	var installments, values []float64
	for _, s := range out {
		installments = append(installments, s.AvgInstallments)
		values = append(values, s.AvgPaymentValue)
	}
	median, _ := stats.Median(installments)
	edges := stats.EqualWidthEdges(values, len(economicSegments))
	for i := range out {
		out[i].InstallmentPreference = LowInstallmentUsage
		if out[i].AvgInstallments > median {
			out[i].InstallmentPreference = HighInstallmentUsage
		}
		if b := stats.Cut(out[i].AvgPaymentValue, edges); b >= 0 {
			out[i].EconomicSegment = economicSegments[b]
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OnTimeRate != out[j].OnTimeRate {
			return out[i].OnTimeRate > out[j].OnTimeRate
		}
		return out[i].State < out[j].State
	})
	return out
}

// paymentDiversity is one minus the Herfindahl index of the payment type
// shares
func paymentDiversity(rows []paymentRow) float64 {
	groups, _ := byType(rows)
	total := 0
	for _, g := range groups {
		total += len(g)
	}
	if total == 0 {
		return 0
	}
	hhi := 0.0
	for _, g := range groups {
		share := float64(len(g)) / float64(total)
		hhi += share * share
	}
	return 1 - hhi
}

// delayImpact compares the satisfaction of each delivery accuracy class
// with the overall average
func delayImpact(rows []paymentRow, overall *float64) []DelayImpact {
	groups := make(map[string][]float64)
	orders := make(map[string]int)
	for _, r := range rows {
		if r.DeliveryAccuracy == "" {
			continue
		}
		orders[r.DeliveryAccuracy]++
		if r.ReviewScore != nil {
			groups[r.DeliveryAccuracy] = append(groups[r.DeliveryAccuracy], float64(*r.ReviewScore))
		}
	}
	var out []DelayImpact
	for _, acc := range []string{domain.AccuracyMuchEarlier, domain.AccuracyEarlier, domain.AccuracyOnTime, domain.AccuracyLate, domain.AccuracyVeryLate} {
		if orders[acc] == 0 {
			continue
		}
		d := DelayImpact{Accuracy: acc, Orders: orders[acc], AvgSatisfaction: stats.Mean(groups[acc])}
		if overall != nil && len(groups[acc]) > 0 {
			d.SatisfactionImpact = d.AvgSatisfaction - *overall
		}
		out = append(out, d)
	}
	return out
}

func reviewRates(rows []paymentRow) []ReviewRate {
	groups, order := byType(rows)
	out := make([]ReviewRate, 0, len(order))
	for _, t := range order {
		r := ReviewRate{Type: t, Orders: len(groups[t])}
		for _, row := range groups[t] {
			if row.ReviewScore != nil {
				r.Reviews++
			}
		}
		r.Rate = stats.SafeDiv(float64(r.Reviews), float64(r.Orders)) * 100
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

func (r *PaymentReport) recommend() []Recommendation {
	var out []Recommendation
	if n := len(r.ByType); n > 0 {
		best, worst := r.ByType[0], r.ByType[n-1]
		out = append(out, Recommendation{
			Category:       "Payment Method Optimization",
			Priority:       "High",
			Recommendation: fmt.Sprintf("Promote %s payments as they show highest satisfaction (%.2f/5.0)", best.Group, best.AvgSatisfaction),
			Impact:         "Customer Satisfaction",
			Implementation: fmt.Sprintf("Offer incentives for %s usage, improve %s experience", best.Group, worst.Group),
		})
	}
	if n := len(r.States); n > 0 {
		var worst []string
		for _, s := range r.States[max(0, n-3):] {
			worst = append(worst, s.State)
		}
		out = append(out, Recommendation{
			Category:       "Regional Operations",
			Priority:       "High",
			Recommendation: fmt.Sprintf("Focus delivery improvements in %s - lowest on-time delivery rates", strings.Join(worst, ", ")),
			Impact:         "Operational Efficiency",
			Implementation: "Increase local fulfillment centers, optimize logistics partnerships",
		})
	}
	if best, ok := bestSatisfaction(r.Installments); ok {
		out = append(out, Recommendation{
			Category:       "Payment Terms",
			Priority:       "Medium",
			Recommendation: fmt.Sprintf("Optimize installment offerings - %s show highest satisfaction", best.Group),
			Impact:         "Customer Experience",
			Implementation: "Adjust installment options, provide clear payment terms",
		})
	}
	if r.Operations.OnTimeRate < 80 {
		out = append(out, Recommendation{
			Category:       "Delivery Operations",
			Priority:       "Critical",
			Recommendation: fmt.Sprintf("Improve on-time delivery rate from %.1f%% to 85%%+", r.Operations.OnTimeRate),
			Impact:         "Customer Retention",
			Implementation: "Review logistics processes, set realistic delivery estimates",
		})
	}
	var lowReview []string
	for _, rr := range r.ReviewRates {
		if rr.Rate < 50 {
			lowReview = append(lowReview, rr.Type)
		}
	}
	if len(lowReview) > 0 {
		out = append(out, Recommendation{
			Category:       "Customer Engagement",
			Priority:       "Medium",
			Recommendation: fmt.Sprintf("Increase review rates for %s payments", strings.Join(lowReview, ", ")),
			Impact:         "Data Quality & Insights",
			Implementation: "Implement review incentives, simplify review process",
		})
	}
	return out
}

func bestSatisfaction(groups []Satisfaction) (Satisfaction, bool) {
	if len(groups) == 0 {
		return Satisfaction{}, false
	}
	best := groups[0]
	for _, g := range groups[1:] {
		if g.AvgSatisfaction > best.AvgSatisfaction {
			best = g
		}
	}
	return best, true
}

func (r *PaymentReport) buildInsights() {
	if len(r.Mix) > 0 {
		r.add("Payment Behavior", "%s is the dominant payment method, accounting for %.1f%% of all transactions", r.Mix[0].Type, r.Mix[0].Share)
	}
	if len(r.ByType) > 0 {
		r.add("Customer Satisfaction", "%s payments show highest satisfaction (%.2f/5.0)", r.ByType[0].Group, r.ByType[0].AvgSatisfaction)
	}
	if best, ok := bestSatisfaction(r.Installments); ok {
		r.add("Customer Satisfaction", "Customers using %s show highest satisfaction", best.Group)
	}
	r.add("Operations", "On-time delivery rate: %.1f%%, delivery rate: %.1f%%", r.Operations.OnTimeRate, r.Operations.DeliveryRate)
	if n := len(r.States); n > 0 {
		r.add("Operations", "Best performing state: %s with %.1f%% on-time delivery", r.States[0].State, r.States[0].OnTimeRate)
		r.add("Operations", "Improvement opportunity: %s with %.1f%% on-time delivery", r.States[n-1].State, r.States[n-1].OnTimeRate)

		top := r.States[0]
		var high []string
		for _, s := range r.States {
			if s.AvgPaymentValue > top.AvgPaymentValue {
				top = s
			}
			if s.InstallmentPreference == HighInstallmentUsage && len(high) < 3 {
				high = append(high, s.State)
			}
		}
		r.add("Regional Patterns", "Highest average payment value: %s (%s)", top.State, brl(top.AvgPaymentValue))
		if len(high) > 0 {
			r.add("Regional Patterns", "States with high installment usage: %s", strings.Join(high, ", "))
		}
	}
}

func (r *PaymentReport) add(category, format string, args ...any) {
	r.insights = append(r.insights, Insight{Category: category, Text: fmt.Sprintf(format, args...)})
}

// Name implements Report
func (r *PaymentReport) Name() string { return "payment_operations" }

// Title implements Report
func (r *PaymentReport) Title() string { return "Payment Behavior & Operations" }

// Insights implements Report
func (r *PaymentReport) Insights() []Insight { return r.insights }

// Charts implements Report
func (r *PaymentReport) Charts() []Chart {
	mix := Chart{Title: "Payment Method Distribution (%)", Kind: ChartPie}
	var share []float64
	for _, m := range r.Mix {
		mix.Categories = append(mix.Categories, m.Type)
		share = append(share, m.Share)
	}
	mix.Series = []Series{{Name: "Share", Values: share}}

	satisfaction := func(title string, groups []Satisfaction) Chart {
		c := Chart{Title: title, Kind: ChartBar}
		var avg, onTime []float64
		for _, g := range groups {
			c.Categories = append(c.Categories, g.Group)
			avg = append(avg, g.AvgSatisfaction)
			onTime = append(onTime, g.OnTimeRate/20)
		}
		c.Series = []Series{{Name: "Avg satisfaction", Values: avg}, {Name: "On-time rate (/20)", Values: onTime}}
		return c
	}

	states := Chart{Title: "On-Time Delivery Rate by State (Top 15)", Kind: ChartBar}
	var onTime []float64
	for _, s := range r.States[:min(15, len(r.States))] {
		states.Categories = append(states.Categories, s.State)
		onTime = append(onTime, s.OnTimeRate)
	}
	states.Series = []Series{{Name: "On-time %", Values: onTime}}

	delays := Chart{Title: "Satisfaction by Delivery Accuracy", Kind: ChartBar}
	var delaySat []float64
	for _, d := range r.Delays {
		delays.Categories = append(delays.Categories, d.Accuracy)
		delaySat = append(delaySat, d.AvgSatisfaction)
	}
	delays.Series = []Series{{Name: "Avg satisfaction", Values: delaySat}}

	regional := Chart{Title: "Payment Value vs Installments by State", Kind: ChartScatter}
	var values, installments []float64
	for _, s := range r.States {
		regional.Categories = append(regional.Categories, s.State)
		values = append(values, s.AvgPaymentValue)
		installments = append(installments, s.AvgInstallments)
	}
	regional.Series = []Series{{Name: "Avg payment value", Values: values}, {Name: "Avg installments", Values: installments}}

	return []Chart{
		mix,
		satisfaction("Satisfaction by Payment Method", r.ByType),
		satisfaction("Satisfaction by Installment Plan", r.Installments),
		states,
		delays,
		regional,
	}
}

// WriteMarkdown implements Report
func (r *PaymentReport) WriteMarkdown(w io.Writer, generated time.Time) error {
	md := newMarkdown(w)
	md.heading(1, "Payment Behavior & Operations Report")
	md.line("Generated on: " + generated.Format(dataset.TimeLayout))
	md.blank()

	md.heading(2, "Executive Summary")
	for _, in := range r.insights {
		md.bullet("%s", in.Text)
	}
	md.blank()

	md.heading(2, "Payment Method Analysis")
	var rows [][]string
	for _, m := range r.Mix {
		rows = append(rows, []string{m.Type, count(m.Orders), pct(m.Share), f2(m.AvgInstallments),
			f1(m.MedianInstallments), brl(m.AvgValue), brl(m.MedianValue)})
	}
	md.table([]string{"Payment Type", "Orders", "Share", "Avg Installments", "Median Installments", "Avg Value", "Median Value"}, rows)
	if r.UnmatchedPayments > 0 {
		md.line(fmt.Sprintf("%s orders have no payment record and are excluded from payment breakdowns.", count(r.UnmatchedPayments)))
		md.blank()
	}

	satisfactionTable := func(title, group string, groups []Satisfaction) {
		md.heading(3, title)
		rows := make([][]string, 0, len(groups))
		for _, g := range groups {
			rows = append(rows, []string{g.Group, count(g.Reviews), f2(g.AvgSatisfaction), f2(g.SatisfactionStd),
				f2(g.AvgInstallments), brl(g.AvgValue), optFmt(g.AvgDeliveryDays, f1), pct(g.OnTimeRate)})
		}
		md.table([]string{group, "Reviews", "Avg Score", "Std", "Avg Installments", "Avg Value", "Avg Delivery Days", "On-Time"}, rows)
	}
	md.heading(2, "Customer Satisfaction")
	satisfactionTable("By Payment Method", "Payment Type", r.ByType)
	satisfactionTable("By Installment Plan", "Installments", r.Installments)

	o := r.Operations
	md.heading(2, "Operational Performance")
	md.bullet("Total orders: %s", count(o.TotalOrders))
	md.bullet("Delivered orders: %s (%s)", count(o.DeliveredOrders), pct(o.DeliveryRate))
	md.bullet("Average delivery time: %s days (median %s)", optFmt(o.AvgDeliveryDays, f1), optFmt(o.MedianDeliveryDays, f1))
	md.bullet("On-time delivery rate: %s", pct(o.OnTimeRate))
	md.bullet("Average processing time: %s days", optFmt(o.AvgProcessingDays, f1))
	md.bullet("Average shipping time: %s days", optFmt(o.AvgShippingDays, f1))
	md.blank()

	md.heading(3, "Delivery Accuracy Impact")
	rows = nil
	for _, d := range r.Delays {
		rows = append(rows, []string{d.Accuracy, count(d.Orders), f2(d.AvgSatisfaction), fmt.Sprintf("%+.2f", d.SatisfactionImpact)})
	}
	md.table([]string{"Accuracy", "Orders", "Avg Score", "Impact vs Average"}, rows)

	md.heading(3, "Review Rates")
	rows = nil
	for _, rr := range r.ReviewRates {
		rows = append(rows, []string{rr.Type, count(rr.Orders), count(rr.Reviews), pct(rr.Rate)})
	}
	md.table([]string{"Payment Type", "Orders", "Reviews", "Review Rate"}, rows)

	md.heading(2, "Regional Performance")
	rows = nil
	for _, s := range r.States {
		rows = append(rows, []string{s.State, count(s.Orders), pct(s.OnTimeRate), optFmt(s.AvgDeliveryDays, f1),
			optFmt(s.AvgSatisfaction, f2), brl(s.AvgPaymentValue), f2(s.AvgInstallments), f3(s.PaymentDiversity),
			s.InstallmentPreference, s.EconomicSegment})
	}
	md.table([]string{"State", "Orders", "On-Time", "Avg Delivery Days", "Avg Score", "Avg Payment", "Avg Installments",
		"Payment Diversity", "Installment Usage", "Economic Segment"}, rows)

	md.heading(2, "Recommendations")
	for i, rec := range r.Recommendations {
		md.numbered(i+1, "**[%s] %s:** %s", rec.Priority, rec.Category, rec.Recommendation)
		md.printf("   - Impact: %s\n   - Implementation: %s\n", rec.Impact, rec.Implementation)
	}
	return md.err
}

func installmentsOf(rows []paymentRow) []float64 {
	out := make([]float64, 0, len(rows))
	for _, r := range rows {
		if r.PaymentInstallments != nil {
			out = append(out, float64(*r.PaymentInstallments))
		}
	}
	return out
}

func valuesOf(rows []paymentRow) []float64 {
	out := make([]float64, 0, len(rows))
	for _, r := range rows {
		if r.PaymentValue != nil {
			out = append(out, *r.PaymentValue)
		}
	}
	return out
}

// onTimeShare is the percentage of rows delivered on time. Rows without a
// delivery count against the rate.
func onTimeShare(rows []paymentRow) float64 {
	n := 0
	for _, r := range rows {
		if r.OnTimeDelivery != nil && *r.OnTimeDelivery {
			n++
		}
	}
	return stats.SafeDiv(float64(n), float64(len(rows))) * 100
}
