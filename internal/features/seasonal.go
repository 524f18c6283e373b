package features

import (
	"fmt"
	"sort"

	"olistcli/internal/calendar"
	"olistcli/internal/dataset"
	"olistcli/internal/stats"
	"olistcli/pkg/contracts/domain"
)

// SeasonalityLevel classifies a coefficient of variation
func SeasonalityLevel(cv float64) string {
	switch {
	case cv < 0.3:
		return domain.SeasonalityLow
	case cv < 0.6:
		return domain.SeasonalityModerate
	case cv < 1.0:
		return domain.SeasonalityHigh
	default:
		return domain.SeasonalityVeryHigh
	}
}

type yearMonth struct {
	year  int
	month int
}

func (ym yearMonth) less(o yearMonth) bool {
	if ym.year != o.year {
		return ym.year < o.year
	}
	return ym.month < o.month
}

type periodAgg struct {
	orders    int
	revenue   money
	customers map[string]struct{}
	items     int
}

func newPeriodAgg() *periodAgg {
	return &periodAgg{customers: make(map[string]struct{})}
}

func (p *periodAgg) addOrder(o domain.EnhancedOrder, values map[string]orderValue) {
	p.orders++
	p.customers[o.CustomerID] = struct{}{}
	if v, ok := values[o.OrderID]; ok {
		p.revenue.add(v.total())
		p.items += v.items
	}
}

// monthlyTrends aggregates every order by purchase year and month, oldest
// first, with month over month growth in percent
func monthlyTrends(orders []domain.EnhancedOrder, values map[string]orderValue) []domain.MonthlyTrend {
	months := make(map[yearMonth]*periodAgg)
	for _, o := range orders {
		k := yearMonth{o.Year, o.Month}
		p, ok := months[k]
		if !ok {
			p = newPeriodAgg()
			months[k] = p
		}
		p.addOrder(o, values)
	}

	keys := make([]yearMonth, 0, len(months))
	for k := range months {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })

	out := make([]domain.MonthlyTrend, len(keys))
	for i, k := range keys {
		p := months[k]
		out[i] = domain.MonthlyTrend{
			Year:             k.year,
			Month:            k.month,
			MonthlyOrders:    p.orders,
			MonthlyRevenue:   p.revenue.Sum(),
			AvgOrderValue:    p.revenue.Mean(),
			MonthlyCustomers: len(p.customers),
			MonthlyItems:     p.items,
			YearMonth:        fmt.Sprintf("%04d-%02d", k.year, k.month),
		}
		if i > 0 {
			prev := out[i-1]
			out[i].RevenueGrowth = pctChange(prev.MonthlyRevenue, out[i].MonthlyRevenue)
			out[i].OrderGrowth = pctChange(float64(prev.MonthlyOrders), float64(out[i].MonthlyOrders))
		}
	}
	return out
}

// pctChange returns the percent change from prev to cur, nil when prev is 0
func pctChange(prev, cur float64) *float64 {
	if prev == 0 {
		return nil
	}
	return dataset.Float((cur/prev - 1) * 100)
}

type categoryMonthKey struct {
	category string
	yearMonth
}

type categoryMonthAgg struct {
	orders  map[string]struct{}
	revenue money
	items   int
}

// categoryPatterns aggregates item price revenue per category and month.
// Items of products without an English category are skipped.
func categoryPatterns(ts dataset.TableSet, orders []domain.EnhancedOrder) []domain.CategoryMonth {
	category := make(map[string]string, len(ts.Products))
	for _, p := range ts.Products {
		category[p.ProductID] = p.CategoryNameEnglish
	}
	when := make(map[string]yearMonth, len(orders))
	for _, o := range orders {
		when[o.OrderID] = yearMonth{o.Year, o.Month}
	}

	groups := make(map[categoryMonthKey]*categoryMonthAgg)
	for _, it := range ts.OrderItems {
		cat := category[it.ProductID]
		ym, ok := when[it.OrderID]
		if cat == "" || !ok {
			continue
		}
		k := categoryMonthKey{cat, ym}
		g, ok := groups[k]
		if !ok {
			g = &categoryMonthAgg{orders: make(map[string]struct{})}
			groups[k] = g
		}
		g.orders[it.OrderID] = struct{}{}
		g.revenue.addFloat(it.Price)
		g.items++
	}

	keys := make([]categoryMonthKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].category != keys[j].category {
			return keys[i].category < keys[j].category
		}
		return keys[i].less(keys[j].yearMonth)
	})

	out := make([]domain.CategoryMonth, len(keys))
	for i, k := range keys {
		g := groups[k]
		out[i] = domain.CategoryMonth{
			Category:        k.category,
			Year:            k.year,
			Month:           k.month,
			CategoryOrders:  len(g.orders),
			CategoryRevenue: g.revenue.Sum(),
			CategoryItems:   g.items,
		}
	}
	return out
}

// seasonalVariance summarizes the monthly revenue of each category. The
// input must be sorted by category, as categoryPatterns returns it.
func seasonalVariance(patterns []domain.CategoryMonth) []domain.CategoryVariance {
	var out []domain.CategoryVariance
	for start := 0; start < len(patterns); {
		end := start
		for end < len(patterns) && patterns[end].Category == patterns[start].Category {
			end++
		}
		revenue := make([]float64, 0, end-start)
		for _, p := range patterns[start:end] {
			revenue = append(revenue, p.CategoryRevenue)
		}
		out = append(out, CategoryVarianceOf(patterns[start].Category, revenue))
		start = end
	}
	return out
}

// CategoryVarianceOf computes the variance summary of one category's
// monthly revenue series
func CategoryVarianceOf(category string, monthly []float64) domain.CategoryVariance {
	v := domain.CategoryVariance{
		Category:          category,
		AvgMonthlyRevenue: stats.Mean(monthly),
		RevenueStd:        stats.StdDev(monthly),
		MinMonthlyRevenue: stats.Min(monthly),
		MaxMonthlyRevenue: stats.Max(monthly),
		MonthsActive:      len(monthly),
	}
	v.SeasonalVariance = stats.SafeDiv(v.RevenueStd, v.AvgMonthlyRevenue)
	v.SeasonalityLevel = SeasonalityLevel(v.SeasonalVariance)
	v.PeakToTrough = stats.SafeDiv(v.MaxMonthlyRevenue, v.MinMonthlyRevenue)
	return v
}

// culturalEvents aggregates all years per calendar month. Order count and
// average value cover orders that have items.
func culturalEvents(orders []domain.EnhancedOrder, values map[string]orderValue) []domain.CulturalEvent {
	months := make(map[int]*periodAgg)
	for _, o := range orders {
		p, ok := months[o.Month]
		if !ok {
			p = newPeriodAgg()
			months[o.Month] = p
		}
		p.customers[o.CustomerID] = struct{}{}
		if v, ok := values[o.OrderID]; ok {
			p.orders++
			p.revenue.add(v.total())
		}
	}

	var out []domain.CulturalEvent
	for m := 1; m <= 12; m++ {
		p, ok := months[m]
		if !ok {
			continue
		}
		out = append(out, domain.CulturalEvent{
			Month:               m,
			MonthlyTotalRevenue: p.revenue.Sum(),
			AvgOrderValue:       p.revenue.Mean(),
			OrderCount:          p.orders,
			UniqueCustomers:     len(p.customers),
			EventType:           calendar.EventType(m),
		})
	}
	return out
}
