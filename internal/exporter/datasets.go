package exporter

import (
	"olistcli/internal/features"
	"olistcli/pkg/contracts/domain"
)

// Master dataset names, also the CSV file stems
const (
	MarketExpansion    = "market_expansion"
	CustomerAnalytics  = "customer_analytics"
	MonthlyTrends      = "seasonal_intelligence_monthly_trends"
	CategoryPatterns   = "seasonal_intelligence_category_patterns"
	SeasonalVariance   = "seasonal_intelligence_seasonal_variance"
	CulturalEvents     = "seasonal_intelligence_cultural_events"
	PaymentOperations  = "payment_operations"
	ProductPerformance = "product_performance"
	SeasonalForecast   = "seasonal_forecast"
)

// DatasetNames lists every master dataset in write order
var DatasetNames = []string{
	MarketExpansion, CustomerAnalytics, MonthlyTrends, CategoryPatterns,
	SeasonalVariance, CulturalEvents, PaymentOperations, ProductPerformance,
	SeasonalForecast,
}

// Dataset is one serialized master dataset
type Dataset struct {
	Name    string
	Header  []string
	Records [][]string
}

// MasterDatasets serializes the non-empty master datasets of r in
// DatasetNames order
func MasterDatasets(r *features.Result) []Dataset {
	all := []Dataset{
		{MarketExpansion, domain.LocationMetricsHeader, domain.Records(r.Locations)},
		{CustomerAnalytics, domain.CustomerMetricsHeader, domain.Records(r.Customers)},
		{MonthlyTrends, domain.MonthlyTrendHeader, domain.Records(r.MonthlyTrends)},
		{CategoryPatterns, domain.CategoryMonthHeader, domain.Records(r.CategoryPatterns)},
		{SeasonalVariance, domain.CategoryVarianceHeader, domain.Records(r.SeasonalVariance)},
		{CulturalEvents, domain.CulturalEventHeader, domain.Records(r.CulturalEvents)},
		{PaymentOperations, domain.PaymentOperationHeader, domain.Records(r.Payments)},
		{ProductPerformance, domain.ProductPerformanceHeader, domain.Records(r.Products)},
		{SeasonalForecast, domain.ForecastPointHeader, domain.Records(r.Forecast)},
	}
	out := make([]Dataset, 0, len(all))
	for _, d := range all {
		if len(d.Records) > 0 {
			out = append(out, d)
		}
	}
	return out
}
