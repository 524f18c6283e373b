package domain

// Seasonality levels by coefficient of variation
const (
	SeasonalityLow      = "Low Seasonality"
	SeasonalityModerate = "Moderate Seasonality"
	SeasonalityHigh     = "High Seasonality"
	SeasonalityVeryHigh = "Very High Seasonality"
)

// MonthlyTrend is one calendar month of order activity. Growth fields are
// nil for the first month.
type MonthlyTrend struct {
	Year             int      `json:"year" csv:"year" validate:"min=1900"`
	Month            int      `json:"month" csv:"month" validate:"min=1,max=12"`
	MonthlyOrders    int      `json:"monthly_orders" csv:"monthly_orders" validate:"min=0"`
	MonthlyRevenue   float64  `json:"monthly_revenue" csv:"monthly_revenue" validate:"gte=0"`
	AvgOrderValue    float64  `json:"avg_order_value" csv:"avg_order_value" validate:"gte=0"`
	MonthlyCustomers int      `json:"monthly_customers" csv:"monthly_customers" validate:"min=0"`
	MonthlyItems     int      `json:"monthly_items" csv:"monthly_items" validate:"min=0"`
	YearMonth        string   `json:"year_month" csv:"year_month" validate:"required,len=7"`
	RevenueGrowth    *float64 `json:"revenue_growth,omitempty" csv:"revenue_growth"`
	OrderGrowth      *float64 `json:"order_growth,omitempty" csv:"order_growth"`
}

// MonthlyTrendHeader lists the MonthlyTrend columns
var MonthlyTrendHeader = []string{
	"year", "month", "monthly_orders", "monthly_revenue", "avg_order_value", "monthly_customers",
	"monthly_items", "year_month", "revenue_growth", "order_growth",
}

// Record implements Row
func (m MonthlyTrend) Record() []string {
	return []string{
		fmtInt(m.Year), fmtInt(m.Month), fmtInt(m.MonthlyOrders), fmtFloat(m.MonthlyRevenue),
		fmtFloat(m.AvgOrderValue), fmtInt(m.MonthlyCustomers), fmtInt(m.MonthlyItems), m.YearMonth,
		fmtOptFloat(m.RevenueGrowth), fmtOptFloat(m.OrderGrowth),
	}
}

// CategoryMonth is the item activity of one category in one month
type CategoryMonth struct {
	Category        string  `json:"category" csv:"category" validate:"required"`
	Year            int     `json:"year" csv:"year" validate:"min=1900"`
	Month           int     `json:"month" csv:"month" validate:"min=1,max=12"`
	CategoryOrders  int     `json:"category_orders" csv:"category_orders" validate:"min=0"`
	CategoryRevenue float64 `json:"category_revenue" csv:"category_revenue" validate:"gte=0"`
	CategoryItems   int     `json:"category_items" csv:"category_items" validate:"min=0"`
}

// CategoryMonthHeader lists the CategoryMonth columns
var CategoryMonthHeader = []string{"category", "year", "month", "category_orders", "category_revenue", "category_items"}

// Record implements Row
func (c CategoryMonth) Record() []string {
	return []string{
		c.Category, fmtInt(c.Year), fmtInt(c.Month), fmtInt(c.CategoryOrders),
		fmtFloat(c.CategoryRevenue), fmtInt(c.CategoryItems),
	}
}

// CategoryVariance summarizes how much a category's monthly revenue moves
type CategoryVariance struct {
	Category          string  `json:"category" csv:"category" validate:"required"`
	AvgMonthlyRevenue float64 `json:"avg_monthly_revenue" csv:"avg_monthly_revenue" validate:"gte=0"`
	RevenueStd        float64 `json:"revenue_std" csv:"revenue_std" validate:"gte=0"`
	MinMonthlyRevenue float64 `json:"min_monthly_revenue" csv:"min_monthly_revenue" validate:"gte=0"`
	MaxMonthlyRevenue float64 `json:"max_monthly_revenue" csv:"max_monthly_revenue" validate:"gte=0"`
	MonthsActive      int     `json:"months_active" csv:"months_active" validate:"min=1"`
	SeasonalVariance  float64 `json:"seasonal_variance" csv:"seasonal_variance" validate:"gte=0"`
	SeasonalityLevel  string  `json:"seasonality_level" csv:"seasonality_level" validate:"required"`
	PeakToTrough      float64 `json:"peak_to_trough_ratio" csv:"peak_to_trough_ratio" validate:"gte=0"`
}

// CategoryVarianceHeader lists the CategoryVariance columns
var CategoryVarianceHeader = []string{
	"category", "avg_monthly_revenue", "revenue_std", "min_monthly_revenue", "max_monthly_revenue",
	"months_active", "seasonal_variance", "seasonality_level", "peak_to_trough_ratio",
}

// Record implements Row
func (c CategoryVariance) Record() []string {
	return []string{
		c.Category, fmtFloat(c.AvgMonthlyRevenue), fmtFloat(c.RevenueStd), fmtFloat(c.MinMonthlyRevenue),
		fmtFloat(c.MaxMonthlyRevenue), fmtInt(c.MonthsActive), fmtFloat(c.SeasonalVariance),
		c.SeasonalityLevel, fmtFloat(c.PeakToTrough),
	}
}

// CulturalEvent aggregates all years of one calendar month and tags it
// with the Brazilian event it hosts
type CulturalEvent struct {
	Month               int     `json:"month" csv:"month" validate:"min=1,max=12"`
	MonthlyTotalRevenue float64 `json:"monthly_total_revenue" csv:"monthly_total_revenue" validate:"gte=0"`
	AvgOrderValue       float64 `json:"avg_order_value" csv:"avg_order_value" validate:"gte=0"`
	OrderCount          int     `json:"order_count" csv:"order_count" validate:"min=0"`
	UniqueCustomers     int     `json:"unique_customers" csv:"unique_customers" validate:"min=0"`
	EventType           string  `json:"event_type" csv:"event_type" validate:"required"`
}

// CulturalEventHeader lists the CulturalEvent columns
var CulturalEventHeader = []string{
	"month", "monthly_total_revenue", "avg_order_value", "order_count", "unique_customers", "event_type",
}

// Record implements Row
func (c CulturalEvent) Record() []string {
	return []string{
		fmtInt(c.Month), fmtFloat(c.MonthlyTotalRevenue), fmtFloat(c.AvgOrderValue),
		fmtInt(c.OrderCount), fmtInt(c.UniqueCustomers), c.EventType,
	}
}
