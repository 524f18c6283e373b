package domain

import (
	"time"
)

// Customer segments, in decision order
const (
	SegmentChampions          = "Champions"
	SegmentLoyal              = "Loyal Customers"
	SegmentNew                = "New Customers"
	SegmentPotentialLoyalists = "Potential Loyalists"
	SegmentAtRisk             = "At Risk"
	SegmentCannotLose         = "Cannot Lose Them"
	SegmentPromising          = "Promising"
	SegmentLost               = "Lost"
	SegmentOthers             = "Others"
)

// Segments lists every customer segment
var Segments = []string{
	SegmentChampions, SegmentLoyal, SegmentNew, SegmentPotentialLoyalists, SegmentAtRisk,
	SegmentCannotLose, SegmentPromising, SegmentLost, SegmentOthers,
}

// CLV categories from lowest to highest
var CLVCategories = []string{"Low Value", "Medium Value", "High Value", "VIP"}

// Customer activity status
const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"
	StatusChurned  = "Churned"
)

// CustomerMetrics is one row of the customer_analytics master. The key is
// the order scoped customer_id, so total_orders is almost always 1 on the
// public dataset.
type CustomerMetrics struct {
	CustomerID             string    `json:"customer_id" csv:"customer_id" validate:"required"`
	TotalOrders            int       `json:"total_orders" csv:"total_orders" validate:"min=1"`
	TotalRevenue           float64   `json:"total_revenue" csv:"total_revenue" validate:"gte=0"`
	AvgOrderValue          float64   `json:"avg_order_value" csv:"avg_order_value" validate:"gte=0"`
	LastOrderDate          time.Time `json:"last_order_date" csv:"last_order_date"`
	FirstOrderDate         time.Time `json:"first_order_date" csv:"first_order_date"`
	DaysSinceLastOrder     int       `json:"days_since_last_order" csv:"days_since_last_order" validate:"min=0"`
	CustomerLifetimeDays   int       `json:"customer_lifetime_days" csv:"customer_lifetime_days" validate:"min=0"`
	OrderFrequencyPerMonth float64   `json:"order_frequency_per_month" csv:"order_frequency_per_month" validate:"gte=0"`
	RecencyScore           int       `json:"recency_score" csv:"recency_score" validate:"min=1,max=5"`
	FrequencyScore         int       `json:"frequency_score" csv:"frequency_score" validate:"min=1,max=5"`
	MonetaryScore          int       `json:"monetary_score" csv:"monetary_score" validate:"min=1,max=5"`
	RFMScore               int       `json:"rfm_score" csv:"rfm_score" validate:"min=111,max=555"`
	Segment                string    `json:"customer_segment" csv:"customer_segment" validate:"required"`
	EstimatedCLV           float64   `json:"estimated_clv" csv:"estimated_clv" validate:"gte=0"`
	CLVCategory            string    `json:"clv_category" csv:"clv_category" validate:"oneof='Low Value' 'Medium Value' 'High Value' 'VIP'"`
	Status                 string    `json:"customer_status" csv:"customer_status" validate:"oneof=Active Inactive Churned"`
	IsRepeatCustomer       bool      `json:"is_repeat_customer" csv:"is_repeat_customer"`

	AvgDeliveryExperience *float64 `json:"avg_delivery_experience,omitempty" csv:"avg_delivery_experience"`
	DeliveryReliability   *float64 `json:"delivery_reliability,omitempty" csv:"delivery_reliability" validate:"omitnil,gte=0,lte=1"`
	TotalOrdersCheck      int      `json:"total_orders_check" csv:"total_orders_check"`
}

// CustomerMetricsHeader lists the CustomerMetrics columns
var CustomerMetricsHeader = []string{
	"customer_id", "total_orders", "total_revenue", "avg_order_value", "last_order_date", "first_order_date",
	"days_since_last_order", "customer_lifetime_days", "order_frequency_per_month",
	"recency_score", "frequency_score", "monetary_score", "rfm_score", "customer_segment",
	"estimated_clv", "clv_category", "customer_status", "is_repeat_customer",
	"avg_delivery_experience", "delivery_reliability", "total_orders_check",
}

// Record implements Row
func (c CustomerMetrics) Record() []string {
	return []string{
		c.CustomerID, fmtInt(c.TotalOrders), fmtFloat(c.TotalRevenue), fmtFloat(c.AvgOrderValue),
		fmtTime(c.LastOrderDate), fmtTime(c.FirstOrderDate),
		fmtInt(c.DaysSinceLastOrder), fmtInt(c.CustomerLifetimeDays), fmtFloat(c.OrderFrequencyPerMonth),
		fmtInt(c.RecencyScore), fmtInt(c.FrequencyScore), fmtInt(c.MonetaryScore), fmtInt(c.RFMScore), c.Segment,
		fmtFloat(c.EstimatedCLV), c.CLVCategory, c.Status, fmtBool(c.IsRepeatCustomer),
		fmtOptFloat(c.AvgDeliveryExperience), fmtOptFloat(c.DeliveryReliability), fmtInt(c.TotalOrdersCheck),
	}
}
