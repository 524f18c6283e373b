package domain

// ForecastPoint is one predicted month of demand
type ForecastPoint struct {
	Year             int     `json:"year" csv:"year" validate:"min=1900"`
	Month            int     `json:"month" csv:"month" validate:"min=1,max=12"`
	MonthName        string  `json:"month_name" csv:"month_name" validate:"required"`
	PredictedRevenue float64 `json:"predicted_revenue" csv:"predicted_revenue"`
	PredictedOrders  int     `json:"predicted_orders" csv:"predicted_orders"`
	RevenueLowerCI   float64 `json:"revenue_lower_ci" csv:"revenue_lower_ci" validate:"ltefield=RevenueUpperCI"`
	RevenueUpperCI   float64 `json:"revenue_upper_ci" csv:"revenue_upper_ci"`
	OrdersLowerCI    int     `json:"orders_lower_ci" csv:"orders_lower_ci" validate:"min=0,ltefield=OrdersUpperCI"`
	OrdersUpperCI    int     `json:"orders_upper_ci" csv:"orders_upper_ci"`
	EventName        string  `json:"event_name" csv:"event_name"`
	ExpectedImpact   string  `json:"expected_impact" csv:"expected_impact"`
}

// ForecastPointHeader lists the ForecastPoint columns
var ForecastPointHeader = []string{
	"year", "month", "month_name", "predicted_revenue", "predicted_orders",
	"revenue_lower_ci", "revenue_upper_ci", "orders_lower_ci", "orders_upper_ci",
	"event_name", "expected_impact",
}

// Record implements Row
func (f ForecastPoint) Record() []string {
	return []string{
		fmtInt(f.Year), fmtInt(f.Month), f.MonthName, fmtFloat(f.PredictedRevenue), fmtInt(f.PredictedOrders),
		fmtFloat(f.RevenueLowerCI), fmtFloat(f.RevenueUpperCI), fmtInt(f.OrdersLowerCI), fmtInt(f.OrdersUpperCI),
		f.EventName, f.ExpectedImpact,
	}
}
