package domain

// UnknownSpeed is the typical delivery speed of a location without
// delivered orders
const UnknownSpeed = "Unknown"

// LocationMetrics is one row of the market_expansion master: a customer or
// seller city with its state aggregates and delivery performance
type LocationMetrics struct {
	State string `json:"state" csv:"state"`
	City  string `json:"city" csv:"city"`

	CustomerCount         int     `json:"customer_count" csv:"customer_count" validate:"min=0"`
	SellerCount           int     `json:"seller_count" csv:"seller_count" validate:"min=0"`
	TotalOrders           int     `json:"total_orders" csv:"total_orders" validate:"min=0"`
	OrdersPerCustomer     float64 `json:"orders_per_customer" csv:"orders_per_customer" validate:"gte=0"`
	TotalRevenue          float64 `json:"total_revenue" csv:"total_revenue" validate:"gte=0"`
	AvgOrderValue         float64 `json:"avg_order_value" csv:"avg_order_value" validate:"gte=0"`
	CustomerToSellerRatio float64 `json:"customer_to_seller_ratio" csv:"customer_to_seller_ratio" validate:"gte=0"`
	RevenuePerCustomer    float64 `json:"revenue_per_customer" csv:"revenue_per_customer" validate:"gte=0"`

	StateOpportunity

	AvgDeliveryDays      *float64 `json:"avg_delivery_days,omitempty" csv:"avg_delivery_days"`
	OnTimeRate           *float64 `json:"on_time_rate,omitempty" csv:"on_time_rate" validate:"omitnil,gte=0,lte=1"`
	TypicalDeliverySpeed string   `json:"typical_delivery_speed" csv:"typical_delivery_speed"`
}

// StateOpportunity holds the state level aggregates repeated on every
// city row of the state
type StateOpportunity struct {
	StateCustomers             int     `json:"state_customers" csv:"state_customers" validate:"min=0"`
	StateSellers               int     `json:"state_sellers" csv:"state_sellers" validate:"min=0"`
	StateOrders                int     `json:"state_orders" csv:"state_orders" validate:"min=0"`
	StateRevenue               float64 `json:"state_revenue" csv:"state_revenue" validate:"gte=0"`
	CitiesCount                int     `json:"cities_count" csv:"cities_count" validate:"min=0"`
	StateRevenuePerCustomer    float64 `json:"state_revenue_per_customer" csv:"state_revenue_per_customer" validate:"gte=0"`
	StateOrdersPerCustomer     float64 `json:"state_orders_per_customer" csv:"state_orders_per_customer" validate:"gte=0"`
	StateCustomerToSellerRatio float64 `json:"state_customer_to_seller_ratio" csv:"state_customer_to_seller_ratio" validate:"gte=0"`
	MarketOpportunityScore     float64 `json:"market_opportunity_score" csv:"market_opportunity_score" validate:"gte=0,lte=1"`
}

// LocationMetricsHeader lists the LocationMetrics columns
var LocationMetricsHeader = []string{
	"state", "city", "customer_count", "seller_count", "total_orders", "orders_per_customer",
	"total_revenue", "avg_order_value", "customer_to_seller_ratio", "revenue_per_customer",
	"state_customers", "state_sellers", "state_orders", "state_revenue", "cities_count",
	"state_revenue_per_customer", "state_orders_per_customer", "state_customer_to_seller_ratio",
	"market_opportunity_score", "avg_delivery_days", "on_time_rate", "typical_delivery_speed",
}

// Record implements Row
func (l LocationMetrics) Record() []string {
	s := l.StateOpportunity
	return []string{
		l.State, l.City, fmtInt(l.CustomerCount), fmtInt(l.SellerCount), fmtInt(l.TotalOrders),
		fmtFloat(l.OrdersPerCustomer), fmtFloat(l.TotalRevenue), fmtFloat(l.AvgOrderValue),
		fmtFloat(l.CustomerToSellerRatio), fmtFloat(l.RevenuePerCustomer),
		fmtInt(s.StateCustomers), fmtInt(s.StateSellers), fmtInt(s.StateOrders), fmtFloat(s.StateRevenue),
		fmtInt(s.CitiesCount), fmtFloat(s.StateRevenuePerCustomer), fmtFloat(s.StateOrdersPerCustomer),
		fmtFloat(s.StateCustomerToSellerRatio), fmtFloat(s.MarketOpportunityScore),
		fmtOptFloat(l.AvgDeliveryDays), fmtOptFloat(l.OnTimeRate), l.TypicalDeliverySpeed,
	}
}
