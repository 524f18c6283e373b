package analysis

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"sort"
	"time"

	"olistcli/internal/calendar"
	"olistcli/internal/dataset"
	"olistcli/internal/features"
	"olistcli/internal/forecast"
	"olistcli/internal/stats"
	"olistcli/pkg/contracts/domain"
)

// MonthProfile is one calendar month averaged over all years
type MonthProfile struct {
	Month          int     `json:"month"`
	AvgRevenue     float64 `json:"avg_monthly_revenue"`
	AvgOrders      float64 `json:"avg_monthly_orders"`
	AvgOrderValue  float64 `json:"avg_order_value"`
	YearsObserved  int     `json:"years_observed"`
	EventName      string  `json:"event_name"`
	ExpectedImpact string  `json:"expected_impact"`
}

// QuarterPattern is the order activity of one calendar quarter over all
// years
type QuarterPattern struct {
	Quarter       int     `json:"quarter"`
	Season        string  `json:"season_name"`
	Orders        int     `json:"quarterly_orders"`
	Revenue       float64 `json:"quarterly_revenue"`
	AvgOrderValue float64 `json:"avg_order_value"`
	Customers     int     `json:"quarterly_customers"`
}

// HolidayImpact compares one calendar month with the average month
type HolidayImpact struct {
	Month            int     `json:"month"`
	EventName        string  `json:"event_name"`
	EventType        string  `json:"event_type"`
	ExpectedImpact   string  `json:"expected_impact"`
	Revenue          float64 `json:"monthly_total_revenue"`
	Orders           int     `json:"order_count"`
	AvgOrderValue    float64 `json:"avg_order_value"`
	UniqueCustomers  int     `json:"unique_customers"`
	RevenueVsAverage float64 `json:"revenue_vs_average"`
	OrdersVsAverage  float64 `json:"orders_vs_average"`
}

// CategoryHolidayShare is the part of a category's revenue earned in high
// impact event months
type CategoryHolidayShare struct {
	Category       string  `json:"category"`
	HolidayRevenue float64 `json:"holiday_revenue"`
	HolidayOrders  int     `json:"holiday_orders"`
	TotalRevenue   float64 `json:"total_category_revenue"`
	Share          float64 `json:"holiday_revenue_share"`
}

// PeakTrough names the extreme months of a metric
type PeakTrough struct {
	Month int     `json:"month"`
	Event string  `json:"event"`
	Value float64 `json:"value"`
}

// OverallVariance measures how much activity moves between calendar
// months
type OverallVariance struct {
	RevenueMean   float64    `json:"revenue_mean"`
	RevenueStd    float64    `json:"revenue_std"`
	RevenueCV     float64    `json:"revenue_cv"`
	OrdersMean    float64    `json:"orders_mean"`
	OrdersStd     float64    `json:"orders_std"`
	OrdersCV      float64    `json:"orders_cv"`
	PeakRevenue   PeakTrough `json:"peak_revenue"`
	TroughRevenue PeakTrough `json:"trough_revenue"`
	PeakOrders    PeakTrough `json:"peak_orders"`
	TroughOrders  PeakTrough `json:"trough_orders"`
}

// SeasonMonth is a month flagged by the overall inventory strategy
type SeasonMonth struct {
	Month          int     `json:"month"`
	Event          string  `json:"event"`
	RelatedEvent   string  `json:"related_event,omitempty"`
	Multiplier     float64 `json:"revenue_multiplier,omitempty"`
	Recommendation string  `json:"recommendation"`
}

// InventoryStrategy groups months by the stock action they call for
type InventoryStrategy struct {
	HighSeason  []SeasonMonth `json:"high_season_months"`
	LowSeason   []SeasonMonth `json:"low_season_months"`
	Preparation []SeasonMonth `json:"preparation_months"`
	Clearance   []SeasonMonth `json:"clearance_months"`
}

// CategoryStrategy is the inventory plan for one category
type CategoryStrategy struct {
	Category          string  `json:"category"`
	SeasonalityLevel  string  `json:"seasonality_level"`
	SeasonalityScore  float64 `json:"seasonality_score"`
	PeakToTrough      float64 `json:"peak_to_trough_ratio"`
	Strategy          string  `json:"inventory_strategy"`
	RiskLevel         string  `json:"risk_level"`
	BufferStock       string  `json:"buffer_stock_recommendation"`
	AvgMonthlyRevenue float64 `json:"avg_monthly_revenue"`
}

// ForecastAdjustment turns one forecast month into a stock adjustment
type ForecastAdjustment struct {
	domain.ForecastPoint
	InventoryAdjustment string `json:"inventory_adjustment"`
	PreparationTiming   string `json:"preparation_timing"`
}

// SeasonalReport is the seasonal intelligence result
type SeasonalReport struct {
	Months             []MonthProfile            `json:"month_profiles"`
	Quarters           []QuarterPattern          `json:"seasonal_patterns"`
	Holidays           []HolidayImpact           `json:"holiday_impact"`
	HighImpactEvents   []HolidayImpact           `json:"high_impact_events"`
	CategoryHolidays   []CategoryHolidayShare    `json:"category_holiday_performance"`
	Overall            OverallVariance           `json:"overall_variance"`
	CategoryVariance   []domain.CategoryVariance `json:"category_variance"`
	Strategy           InventoryStrategy         `json:"overall_strategy"`
	CategoryStrategies []CategoryStrategy        `json:"category_recommendations"`
	Adjustments        []ForecastAdjustment      `json:"forecast_based_recommendations"`
	HighRisk           []CategoryStrategy        `json:"high_risk_categories"`
	Stable             []CategoryStrategy        `json:"stable_categories"`
	Forecast           *forecast.Result          `json:"forecast,omitempty"`
	Trends             []domain.MonthlyTrend     `json:"monthly_trends"`
	KeyInsights        []string                  `json:"key_insights"`
	insights           []Insight
}

// seasonalityPlans maps a seasonality level to strategy, risk and buffer
var seasonalityPlans = map[string][3]string{
	domain.SeasonalityVeryHigh: {"Dynamic inventory with 60-80% seasonal adjustment", "High", "Low (10-15%)"},
	domain.SeasonalityHigh:     {"Seasonal inventory with 40-60% adjustment", "Medium-High", "Medium (15-20%)"},
	domain.SeasonalityModerate: {"Moderate seasonal adjustment (20-40%)", "Medium", "Medium (20-25%)"},
	domain.SeasonalityLow:      {"Stable inventory with minimal adjustment", "Low", "High (25-30%)"},
}

// impactPlans maps an event impact to stock adjustment and lead time
var impactPlans = map[string][2]string{
	calendar.ImpactVeryHigh: {"+50-70%", "6-8 weeks before"},
	calendar.ImpactHigh:     {"+30-50%", "4-6 weeks before"},
	calendar.ImpactMedium:   {"+10-30%", "2-4 weeks before"},
}

// SeasonalAnalyzer studies monthly and holiday patterns and turns them
// into inventory recommendations
type SeasonalAnalyzer struct{}

// NewSeasonalAnalyzer creates a seasonal analyzer
func NewSeasonalAnalyzer() *SeasonalAnalyzer { return &SeasonalAnalyzer{} }

// Name implements Analyzer
func (a *SeasonalAnalyzer) Name() string { return "seasonal_intelligence" }

// Analyze implements Analyzer. It needs the seasonal masters and the
// order items table.
func (a *SeasonalAnalyzer) Analyze(ctx context.Context, in Input) (Report, error) {
	f := in.Features
	if len(f.MonthlyTrends) == 0 || len(f.CulturalEvents) == 0 {
		return nil, fmt.Errorf("%w: seasonal intelligence datasets", ErrMissingData)
	}
	if err := requireTables(in.Tables, dataset.OrderItems); err != nil {
		return nil, err
	}

	rep := &SeasonalReport{Trends: f.MonthlyTrends, Forecast: in.Forecast}
	rep.Months = monthProfiles(f.MonthlyTrends)
	rep.Quarters = quarterPatterns(f.Orders, features.OrderRevenue(in.Tables.OrderItems))
	rep.Holidays, rep.HighImpactEvents = holidayImpact(f.CulturalEvents)
	rep.CategoryHolidays = categoryHolidayShare(f.CategoryPatterns)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rep.Overall = overallVariance(f.CulturalEvents)
	rep.CategoryVariance = categoryVarianceByMonth(f.CategoryPatterns)
	rep.Strategy = inventoryStrategy(f.CulturalEvents)
	rep.CategoryStrategies = categoryStrategies(rep.CategoryVariance)
	rep.Adjustments = forecastAdjustments(forecastPoints(in))
	for _, c := range rep.CategoryStrategies {
		switch c.SeasonalityLevel {
		case domain.SeasonalityVeryHigh, domain.SeasonalityHigh:
			if len(rep.HighRisk) < 10 {
				rep.HighRisk = append(rep.HighRisk, c)
			}
		case domain.SeasonalityLow:
			if len(rep.Stable) < 10 {
				rep.Stable = append(rep.Stable, c)
			}
		}
	}
	rep.KeyInsights = []string{
		fmt.Sprintf("Peak season requires %d months of increased inventory", len(rep.Strategy.HighSeason)),
		"Most seasonal categories need 40-80% inventory adjustments",
		"Preparation should begin 4-8 weeks before major events",
		"Risk can be mitigated by balancing seasonal and stable categories",
	}
	rep.buildInsights()
	return rep, nil
}

// forecastPoints prefers the live forecaster output and falls back to the
// forecast master
func forecastPoints(in Input) []domain.ForecastPoint {
	if in.Forecast != nil && len(in.Forecast.Points) > 0 {
		return in.Forecast.Points
	}
	return in.Features.Forecast
}

func monthProfiles(trends []domain.MonthlyTrend) []MonthProfile {
	type acc struct{ revenue, orders []float64 }
	months := make(map[int]*acc)
	for _, t := range trends {
		a, ok := months[t.Month]
		if !ok {
			a = &acc{}
			months[t.Month] = a
		}
		a.revenue = append(a.revenue, t.MonthlyRevenue)
		a.orders = append(a.orders, float64(t.MonthlyOrders))
	}
	var out []MonthProfile
	for m := 1; m <= 12; m++ {
		a, ok := months[m]
		if !ok {
			continue
		}
		ev := calendar.Events[m]
		out = append(out, MonthProfile{
			Month:          m,
			AvgRevenue:     stats.Mean(a.revenue),
			AvgOrders:      stats.Mean(a.orders),
			AvgOrderValue:  stats.SafeDiv(stats.Sum(a.revenue), stats.Sum(a.orders)),
			YearsObserved:  len(a.revenue),
			EventName:      ev.Name,
			ExpectedImpact: ev.Impact,
		})
	}
	return out
}

// quarterPatterns aggregates orders with items by calendar quarter
func quarterPatterns(orders []domain.EnhancedOrder, revenue map[string]float64) []QuarterPattern {
	type acc struct {
		values    []float64
		customers map[string]struct{}
	}
	var quarters [4]acc
	for _, o := range orders {
		v, ok := revenue[o.OrderID]
		if !ok {
			continue
		}
		q := &quarters[calendar.Quarter(o.Month)-1]
		if q.customers == nil {
			q.customers = make(map[string]struct{})
		}
		q.values = append(q.values, v)
		q.customers[o.CustomerID] = struct{}{}
	}
	var out []QuarterPattern
	for i, q := range quarters {
		if len(q.values) == 0 {
			continue
		}
		out = append(out, QuarterPattern{
			Quarter:       i + 1,
			Season:        calendar.Season(i + 1),
			Orders:        len(q.values),
			Revenue:       stats.Sum(q.values),
			AvgOrderValue: stats.Mean(q.values),
			Customers:     len(q.customers),
		})
	}
	return out
}

// holidayImpact ranks calendar months by revenue relative to the average
// month and extracts the high impact events
func holidayImpact(events []domain.CulturalEvent) (all, high []HolidayImpact) {
	var revenue, orders []float64
	for _, e := range events {
		revenue = append(revenue, e.MonthlyTotalRevenue)
		orders = append(orders, float64(e.OrderCount))
	}
	avgRevenue, avgOrders := stats.Mean(revenue), stats.Mean(orders)

	for _, e := range events {
		ev := calendar.Events[e.Month]
		all = append(all, HolidayImpact{
			Month:            e.Month,
			EventName:        ev.Name,
			EventType:        ev.Type,
			ExpectedImpact:   ev.Impact,
			Revenue:          e.MonthlyTotalRevenue,
			Orders:           e.OrderCount,
			AvgOrderValue:    e.AvgOrderValue,
			UniqueCustomers:  e.UniqueCustomers,
			RevenueVsAverage: stats.Round((stats.SafeDiv(e.MonthlyTotalRevenue, avgRevenue)-1)*100, 2),
			OrdersVsAverage:  stats.Round((stats.SafeDiv(float64(e.OrderCount), avgOrders)-1)*100, 2),
		})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].RevenueVsAverage > all[j].RevenueVsAverage })
	for _, h := range all {
		if calendar.HighImpact(calendar.Events[h.Month]) {
			high = append(high, h)
		}
	}
	return all, high
}

// categoryHolidayShare divides each category's revenue in high impact
// months by its revenue across all months
func categoryHolidayShare(patterns []domain.CategoryMonth) []CategoryHolidayShare {
	byCat := make(map[string]*CategoryHolidayShare)
	var order []string
	for _, p := range patterns {
		c, ok := byCat[p.Category]
		if !ok {
			c = &CategoryHolidayShare{Category: p.Category}
			byCat[p.Category] = c
			order = append(order, p.Category)
		}
		c.TotalRevenue += p.CategoryRevenue
		if calendar.HighImpact(calendar.Events[p.Month]) {
			c.HolidayRevenue += p.CategoryRevenue
			c.HolidayOrders += p.CategoryOrders
		}
	}
	out := make([]CategoryHolidayShare, 0, len(order))
	for _, cat := range order {
		c := byCat[cat]
		if c.HolidayOrders == 0 {
			continue
		}
		c.Share = stats.Round(stats.SafeDiv(c.HolidayRevenue, c.TotalRevenue)*100, 2)
		out = append(out, *c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Share > out[j].Share })
	return out
}

func overallVariance(events []domain.CulturalEvent) OverallVariance {
	var revenue, orders []float64
	for _, e := range events {
		revenue = append(revenue, e.MonthlyTotalRevenue)
		orders = append(orders, float64(e.OrderCount))
	}
	v := OverallVariance{
		RevenueMean: stats.Mean(revenue),
		RevenueStd:  stats.StdDev(revenue),
		OrdersMean:  stats.Mean(orders),
		OrdersStd:   stats.StdDev(orders),
	}
	v.RevenueCV = stats.SafeDiv(v.RevenueStd, v.RevenueMean)
	v.OrdersCV = stats.SafeDiv(v.OrdersStd, v.OrdersMean)

	extreme := func(values []float64, better func(a, b float64) bool) PeakTrough {
		best := 0
		for i := range values {
			if better(values[i], values[best]) {
				best = i
			}
		}
		m := events[best].Month
		return PeakTrough{Month: m, Event: calendar.Events[m].Name, Value: values[best]}
	}
	gt := func(a, b float64) bool { return a > b }
	lt := func(a, b float64) bool { return a < b }
	v.PeakRevenue, v.TroughRevenue = extreme(revenue, gt), extreme(revenue, lt)
	v.PeakOrders, v.TroughOrders = extreme(orders, gt), extreme(orders, lt)
	return v
}

// categoryVarianceByMonth folds category revenue across years into
// calendar months before measuring variance, most seasonal first
func categoryVarianceByMonth(patterns []domain.CategoryMonth) []domain.CategoryVariance {
	type months struct {
		revenue [13]float64
		seen    [13]bool
	}
	byCat := make(map[string]*months)
	for _, p := range patterns {
		m, ok := byCat[p.Category]
		if !ok {
			m = &months{}
			byCat[p.Category] = m
		}
		m.revenue[p.Month] += p.CategoryRevenue
		m.seen[p.Month] = true
	}

	out := make([]domain.CategoryVariance, 0, len(byCat))
	for _, c := range slices.Sorted(maps.Keys(byCat)) {
		var monthly []float64
		for i := 1; i <= 12; i++ {
			if byCat[c].seen[i] {
				monthly = append(monthly, byCat[c].revenue[i])
			}
		}
		out = append(out, features.CategoryVarianceOf(c, monthly))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SeasonalVariance > out[j].SeasonalVariance })
	return out
}

// inventoryStrategy flags months 20% above or below the average month and
// the months around each high season
func inventoryStrategy(events []domain.CulturalEvent) InventoryStrategy {
	var revenue []float64
	for _, e := range events {
		revenue = append(revenue, e.MonthlyTotalRevenue)
	}
	avg := stats.Mean(revenue)

	var s InventoryStrategy
	for _, e := range events {
		name := calendar.Events[e.Month].Name
		mult := stats.SafeDiv(e.MonthlyTotalRevenue, avg)
		switch {
		case e.MonthlyTotalRevenue > avg*1.2:
			s.HighSeason = append(s.HighSeason, SeasonMonth{
				Month: e.Month, Event: name, Multiplier: mult, Recommendation: "Increase inventory by 30-50%",
			})
		case e.MonthlyTotalRevenue < avg*0.8:
			s.LowSeason = append(s.LowSeason, SeasonMonth{
				Month: e.Month, Event: name, Multiplier: mult, Recommendation: "Reduce inventory by 20-30%",
			})
		}
	}
	for _, h := range s.HighSeason {
		_, prep := calendar.AddMonths(2000, h.Month, -1)
		s.Preparation = append(s.Preparation, SeasonMonth{
			Month: prep, Event: calendar.Events[prep].Name, RelatedEvent: h.Event,
			Recommendation: "Build inventory for " + h.Event,
		})
	}
	for _, h := range s.HighSeason {
		_, next := calendar.AddMonths(2000, h.Month, 1)
		s.Clearance = append(s.Clearance, SeasonMonth{
			Month: next, Event: calendar.Events[next].Name, RelatedEvent: h.Event,
			Recommendation: "Clear excess inventory from " + h.Event,
		})
	}
	return s
}

// categoryStrategies assigns a stock plan per category, highest revenue
// first
func categoryStrategies(variance []domain.CategoryVariance) []CategoryStrategy {
	out := make([]CategoryStrategy, 0, len(variance))
	for _, v := range variance {
		plan, ok := seasonalityPlans[v.SeasonalityLevel]
		if !ok {
			plan = seasonalityPlans[domain.SeasonalityLow]
		}
		out = append(out, CategoryStrategy{
			Category:          v.Category,
			SeasonalityLevel:  v.SeasonalityLevel,
			SeasonalityScore:  stats.Round(v.SeasonalVariance, 3),
			PeakToTrough:      stats.Round(v.PeakToTrough, 2),
			Strategy:          plan[0],
			RiskLevel:         plan[1],
			BufferStock:       plan[2],
			AvgMonthlyRevenue: v.AvgMonthlyRevenue,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AvgMonthlyRevenue > out[j].AvgMonthlyRevenue })
	return out
}

func forecastAdjustments(points []domain.ForecastPoint) []ForecastAdjustment {
	out := make([]ForecastAdjustment, 0, len(points))
	for _, p := range points {
		plan, ok := impactPlans[p.ExpectedImpact]
		if !ok {
			plan = [2]string{"±10%", "1-2 weeks before"}
		}
		out = append(out, ForecastAdjustment{ForecastPoint: p, InventoryAdjustment: plan[0], PreparationTiming: plan[1]})
	}
	return out
}

func (r *SeasonalReport) buildInsights() {
	o := r.Overall
	r.add("Seasonal Variance", "Revenue CV across calendar months: %.3f, orders CV: %.3f", o.RevenueCV, o.OrdersCV)
	r.add("Peak Performance", "Peak revenue month: %s (%s), trough: %s (%s)",
		calendar.MonthName(o.PeakRevenue.Month), brl0(o.PeakRevenue.Value),
		calendar.MonthName(o.TroughRevenue.Month), brl0(o.TroughRevenue.Value))
	if len(r.Holidays) > 0 {
		best := r.Holidays[0]
		r.add("Holiday Impact", "%s (month %d) leads at %+.1f%% revenue vs the average month", best.EventName, best.Month, best.RevenueVsAverage)
	}
	for _, h := range r.HighImpactEvents {
		r.add("Holiday Impact", "%s (month %d): %+.1f%% revenue, %+.1f%% orders", h.EventName, h.Month, h.RevenueVsAverage, h.OrdersVsAverage)
	}
	r.add("Inventory", "%d high season and %d low season months", len(r.Strategy.HighSeason), len(r.Strategy.LowSeason))
	for _, a := range r.Adjustments {
		r.add("Forecast", "%s %d (%s): predicted %s, adjust inventory %s %s",
			a.MonthName, a.Year, a.EventName, brl0(a.PredictedRevenue), a.InventoryAdjustment, a.PreparationTiming)
	}
}

func (r *SeasonalReport) add(category, format string, args ...any) {
	r.insights = append(r.insights, Insight{Category: category, Text: fmt.Sprintf(format, args...)})
}

// Name implements Report
func (r *SeasonalReport) Name() string { return "seasonal_intelligence" }

// Title implements Report
func (r *SeasonalReport) Title() string { return "Seasonal Intelligence" }

// Insights implements Report
func (r *SeasonalReport) Insights() []Insight { return r.insights }

// Charts implements Report
func (r *SeasonalReport) Charts() []Chart {
	var months []string
	var revenue, orders []float64
	for _, t := range r.Trends {
		months = append(months, t.YearMonth)
		revenue = append(revenue, t.MonthlyRevenue)
		orders = append(orders, float64(t.MonthlyOrders))
	}
	var holidayNames []string
	var holidayImpact []float64
	byMonth := append([]HolidayImpact(nil), r.Holidays...)
	sort.Slice(byMonth, func(i, j int) bool { return byMonth[i].Month < byMonth[j].Month })
	for _, h := range byMonth {
		holidayNames = append(holidayNames, calendar.MonthName(h.Month))
		holidayImpact = append(holidayImpact, h.RevenueVsAverage)
	}
	var qNames []string
	var qRevenue []float64
	for _, q := range r.Quarters {
		qNames = append(qNames, fmt.Sprintf("Q%d %s", q.Quarter, q.Season))
		qRevenue = append(qRevenue, q.Revenue)
	}
	var catNames []string
	var catCV []float64
	for _, c := range r.CategoryVariance[:min(15, len(r.CategoryVariance))] {
		catNames = append(catNames, c.Category)
		catCV = append(catCV, c.SeasonalVariance)
	}
	charts := []Chart{
		{Title: "Monthly Revenue Trend", Kind: ChartLine, Categories: months,
			Series: []Series{{Name: "Revenue", Values: revenue}}},
		{Title: "Monthly Orders Trend", Kind: ChartLine, Categories: months,
			Series: []Series{{Name: "Orders", Values: orders}}},
		{Title: "Revenue vs Average Month (%)", Kind: ChartBar, Categories: holidayNames,
			Series: []Series{{Name: "Revenue vs average", Values: holidayImpact}}},
		{Title: "Revenue by Season", Kind: ChartPie, Categories: qNames,
			Series: []Series{{Name: "Revenue", Values: qRevenue}}},
		{Title: "Most Seasonal Categories (CV)", Kind: ChartBar, Categories: catNames,
			Series: []Series{{Name: "Coefficient of variation", Values: catCV}}},
	}
	if len(r.Adjustments) > 0 {
		c := Chart{Title: "Revenue Forecast", Kind: ChartLine}
		var pred, lo, hi []float64
		for _, a := range r.Adjustments {
			c.Categories = append(c.Categories, fmt.Sprintf("%04d-%02d", a.Year, a.Month))
			pred = append(pred, a.PredictedRevenue)
			lo = append(lo, a.RevenueLowerCI)
			hi = append(hi, a.RevenueUpperCI)
		}
		c.Series = []Series{{"Predicted", pred}, {"Lower 95%", lo}, {"Upper 95%", hi}}
		charts = append(charts, c)
	}
	return charts
}

// WriteMarkdown implements Report
func (r *SeasonalReport) WriteMarkdown(w io.Writer, generated time.Time) error {
	md := newMarkdown(w)
	md.heading(1, "Seasonal Intelligence Report")
	md.line("Generated on: " + generated.Format(dataset.TimeLayout))
	md.blank()

	md.heading(2, "Executive Summary")
	for _, in := range r.insights {
		md.printf("**%s:** %s\n\n", in.Category, in.Text)
	}

	md.heading(2, "Monthly Patterns")
	var rows [][]string
	for _, m := range r.Months {
		rows = append(rows, []string{
			calendar.MonthName(m.Month), m.EventName, m.ExpectedImpact, brl(m.AvgRevenue),
			f1(m.AvgOrders), brl(m.AvgOrderValue), itoa(m.YearsObserved),
		})
	}
	md.table([]string{"Month", "Event", "Impact", "Avg Revenue", "Avg Orders", "Avg Order Value", "Years"}, rows)

	md.heading(2, "Seasonal Patterns")
	rows = nil
	for _, q := range r.Quarters {
		rows = append(rows, []string{fmt.Sprintf("Q%d", q.Quarter), q.Season, brl(q.Revenue),
			count(q.Orders), brl(q.AvgOrderValue), count(q.Customers)})
	}
	md.table([]string{"Quarter", "Season", "Revenue", "Orders", "Avg Order Value", "Customers"}, rows)

	md.heading(2, "Brazilian Holiday Impact")
	rows = nil
	for _, h := range r.Holidays {
		rows = append(rows, []string{itoa(h.Month), h.EventName, h.ExpectedImpact,
			fmt.Sprintf("%+.1f%%", h.RevenueVsAverage), fmt.Sprintf("%+.1f%%", h.OrdersVsAverage)})
	}
	md.table([]string{"Month", "Event", "Expected Impact", "Revenue vs Avg", "Orders vs Avg"}, rows)
	md.line("> Months at the edges of the dataset may be partially covered, which")
	md.line("> understates their events.")
	md.blank()

	md.heading(3, "Categories Benefiting from Holidays")
	rows = nil
	for _, c := range r.CategoryHolidays[:min(10, len(r.CategoryHolidays))] {
		rows = append(rows, []string{c.Category, pct(c.Share), brl(c.HolidayRevenue), count(c.HolidayOrders)})
	}
	md.table([]string{"Category", "Holiday Revenue Share", "Holiday Revenue", "Holiday Orders"}, rows)

	o := r.Overall
	md.heading(2, "Seasonal Variance")
	md.bullet("Revenue: mean %s, std %s, CV %.3f", brl0(o.RevenueMean), brl0(o.RevenueStd), o.RevenueCV)
	md.bullet("Orders: mean %.1f, std %.1f, CV %.3f", o.OrdersMean, o.OrdersStd, o.OrdersCV)
	md.bullet("Peak revenue: %s (%s), trough: %s (%s)", o.PeakRevenue.Event, brl0(o.PeakRevenue.Value),
		o.TroughRevenue.Event, brl0(o.TroughRevenue.Value))
	md.bullet("Peak orders: %s (%.0f), trough: %s (%.0f)", o.PeakOrders.Event, o.PeakOrders.Value,
		o.TroughOrders.Event, o.TroughOrders.Value)
	md.blank()
	rows = nil
	for _, c := range r.CategoryVariance[:min(10, len(r.CategoryVariance))] {
		rows = append(rows, []string{c.Category, c.SeasonalityLevel, f3(c.SeasonalVariance), f2(c.PeakToTrough), brl(c.AvgMonthlyRevenue)})
	}
	md.table([]string{"Category", "Seasonality", "CV", "Peak/Trough", "Avg Monthly Revenue"}, rows)

	md.heading(2, "Demand Forecast")
	switch {
	case len(r.Adjustments) == 0:
		md.line("No forecast available: the monthly history is too short for a reliable model.")
		md.blank()
	default:
		if r.Forecast != nil && r.Forecast.Status == forecast.StatusOK {
			md.bullet("Revenue model: MAE %s, RMSE %s, R² %.3f",
				brl0(r.Forecast.Revenue.MAE), brl0(r.Forecast.Revenue.RMSE), r.Forecast.Revenue.R2)
			md.bullet("Orders model: MAE %.1f, RMSE %.1f, R² %.3f",
				r.Forecast.Orders.MAE, r.Forecast.Orders.RMSE, r.Forecast.Orders.R2)
			md.blank()
		}
		rows = nil
		for _, a := range r.Adjustments {
			rows = append(rows, []string{
				fmt.Sprintf("%s %d", a.MonthName, a.Year), a.EventName, brl0(a.PredictedRevenue),
				fmt.Sprintf("%s - %s", brl0(a.RevenueLowerCI), brl0(a.RevenueUpperCI)),
				count(a.PredictedOrders), a.InventoryAdjustment, a.PreparationTiming,
			})
		}
		md.table([]string{"Month", "Event", "Predicted Revenue", "95% Interval", "Predicted Orders", "Inventory", "Timing"}, rows)
		if r.Forecast != nil && len(r.Forecast.Importances) > 0 {
			md.heading(3, "Revenue Drivers")
			for _, imp := range r.Forecast.Importances[:min(5, len(r.Forecast.Importances))] {
				md.bullet("%s: %.3f", imp.Feature, imp.Importance)
			}
			md.blank()
		}
	}

	md.heading(2, "Inventory Optimization")
	md.heading(3, "Overall Strategy")
	for _, group := range []struct {
		title  string
		months []SeasonMonth
	}{
		{"High season", r.Strategy.HighSeason},
		{"Low season", r.Strategy.LowSeason},
		{"Preparation", r.Strategy.Preparation},
		{"Clearance", r.Strategy.Clearance},
	} {
		for _, m := range group.months {
			md.bullet("%s: %s (%s) - %s", group.title, calendar.MonthName(m.Month), m.Event, m.Recommendation)
		}
	}
	md.blank()

	md.heading(3, "Category Strategies")
	rows = nil
	for _, c := range r.CategoryStrategies[:min(15, len(r.CategoryStrategies))] {
		rows = append(rows, []string{c.Category, c.SeasonalityLevel, c.Strategy, c.RiskLevel, c.BufferStock})
	}
	md.table([]string{"Category", "Seasonality", "Strategy", "Risk", "Buffer Stock"}, rows)

	md.heading(3, "Risk Management")
	md.bullet("High-risk categories: %d", len(r.HighRisk))
	md.bullet("Stable categories: %d", len(r.Stable))
	md.bullet("Focus on stable categories during high-risk periods")
	md.bullet("Balance seasonal and non-seasonal product mix")
	md.bullet("Consider counter-seasonal categories for risk mitigation")
	md.blank()

	md.heading(2, "Key Insights")
	for i, k := range r.KeyInsights {
		md.numbered(i+1, "%s", k)
	}
	return md.err
}
