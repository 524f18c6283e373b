package domain

import (
	"time"
)

// Delivery speed categories by delivery days
const (
	SpeedVeryFast = "Very Fast (≤7d)"
	SpeedFast     = "Fast (8-14d)"
	SpeedNormal   = "Normal (15-21d)"
	SpeedSlow     = "Slow (22-30d)"
	SpeedVerySlow = "Very Slow (>30d)"
)

// Delivery accuracy categories by days relative to the estimate
const (
	AccuracyMuchEarlier = "Much Earlier"
	AccuracyEarlier     = "Earlier"
	AccuracyOnTime      = "On Time"
	AccuracyLate        = "Late"
	AccuracyVeryLate    = "Very Late"
)

// EnhancedOrder is an order with delivery performance and calendar
// features. Delivery fields are nil when the order was never delivered.
type EnhancedOrder struct {
	OrderID               string     `json:"order_id" csv:"order_id" validate:"required"`
	CustomerID            string     `json:"customer_id" csv:"customer_id" validate:"required"`
	Status                string     `json:"order_status" csv:"order_status"`
	PurchaseTimestamp     time.Time  `json:"order_purchase_timestamp" csv:"order_purchase_timestamp" validate:"required"`
	ApprovedAt            *time.Time `json:"order_approved_at,omitempty" csv:"order_approved_at"`
	DeliveredCarrierDate  *time.Time `json:"order_delivered_carrier_date,omitempty" csv:"order_delivered_carrier_date"`
	DeliveredCustomerDate *time.Time `json:"order_delivered_customer_date,omitempty" csv:"order_delivered_customer_date"`
	EstimatedDeliveryDate *time.Time `json:"order_estimated_delivery_date,omitempty" csv:"order_estimated_delivery_date"`

	DeliveryDays           *float64 `json:"delivery_days,omitempty" csv:"delivery_days" validate:"omitnil,gte=0"`
	DeliverySpeedCategory  string   `json:"delivery_speed_category,omitempty" csv:"delivery_speed_category"`
	DeliveryVsEstimateDays *float64 `json:"delivery_vs_estimate_days,omitempty" csv:"delivery_vs_estimate_days"`
	OnTimeDelivery         *bool    `json:"on_time_delivery,omitempty" csv:"on_time_delivery"`
	DeliveryAccuracy       string   `json:"delivery_accuracy,omitempty" csv:"delivery_accuracy"`
	ProcessingDays         *float64 `json:"processing_days,omitempty" csv:"processing_days"`
	ShippingDays           *float64 `json:"shipping_days,omitempty" csv:"shipping_days"`

	Year       int    `json:"order_year" csv:"order_year" validate:"min=1900"`
	Month      int    `json:"order_month" csv:"order_month" validate:"min=1,max=12"`
	Quarter    int    `json:"order_quarter" csv:"order_quarter" validate:"min=1,max=4"`
	DayOfWeek  int    `json:"order_day_of_week" csv:"order_day_of_week" validate:"min=0,max=6"`
	DayName    string `json:"order_day_name" csv:"order_day_name"`
	Hour       int    `json:"order_hour" csv:"order_hour" validate:"min=0,max=23"`
	WeekOfYear int    `json:"order_week_of_year" csv:"order_week_of_year" validate:"min=1,max=53"`

	IsWeekend          bool `json:"is_weekend" csv:"is_weekend"`
	IsHolidaySeason    bool `json:"is_holiday_season" csv:"is_holiday_season"`
	IsCarnivalSeason   bool `json:"is_carnival_season" csv:"is_carnival_season"`
	IsMothersDaySeason bool `json:"is_mothers_day_season" csv:"is_mothers_day_season"`
	IsValentinesSeason bool `json:"is_valentines_season" csv:"is_valentines_season"`
}

// EnhancedOrderHeader lists the EnhancedOrder columns
var EnhancedOrderHeader = []string{
	"order_id", "customer_id", "order_status", "order_purchase_timestamp", "order_approved_at",
	"order_delivered_carrier_date", "order_delivered_customer_date", "order_estimated_delivery_date",
	"delivery_days", "delivery_speed_category", "delivery_vs_estimate_days", "on_time_delivery",
	"delivery_accuracy", "processing_days", "shipping_days",
	"order_year", "order_month", "order_quarter", "order_day_of_week", "order_day_name",
	"order_hour", "order_week_of_year",
	"is_weekend", "is_holiday_season", "is_carnival_season", "is_mothers_day_season", "is_valentines_season",
}

// Delivered reports whether the order has a delivery duration
func (o EnhancedOrder) Delivered() bool {
	return o.DeliveryDays != nil
}

// Record implements Row
func (o EnhancedOrder) Record() []string {
	return []string{
		o.OrderID, o.CustomerID, o.Status, fmtTime(o.PurchaseTimestamp), fmtOptTime(o.ApprovedAt),
		fmtOptTime(o.DeliveredCarrierDate), fmtOptTime(o.DeliveredCustomerDate), fmtOptTime(o.EstimatedDeliveryDate),
		fmtOptFloat(o.DeliveryDays), o.DeliverySpeedCategory, fmtOptFloat(o.DeliveryVsEstimateDays),
		fmtOptBool(o.OnTimeDelivery), o.DeliveryAccuracy, fmtOptFloat(o.ProcessingDays), fmtOptFloat(o.ShippingDays),
		fmtInt(o.Year), fmtInt(o.Month), fmtInt(o.Quarter), fmtInt(o.DayOfWeek), o.DayName,
		fmtInt(o.Hour), fmtInt(o.WeekOfYear),
		fmtBool(o.IsWeekend), fmtBool(o.IsHolidaySeason), fmtBool(o.IsCarnivalSeason),
		fmtBool(o.IsMothersDaySeason), fmtBool(o.IsValentinesSeason),
	}
}

// PaymentOperation is one row of the payment_operations master: an
// enhanced order with its payment summary and review score. Payment and
// review fields are empty when the order has none.
type PaymentOperation struct {
	EnhancedOrder
	PaymentType         string   `json:"payment_type,omitempty" csv:"payment_type"`
	PaymentInstallments *int     `json:"payment_installments,omitempty" csv:"payment_installments" validate:"omitnil,min=0"`
	PaymentValue        *float64 `json:"payment_value,omitempty" csv:"payment_value" validate:"omitnil,gte=0"`
	ReviewScore         *int     `json:"review_score,omitempty" csv:"review_score" validate:"omitnil,min=1,max=5"`
}

// PaymentOperationHeader lists the PaymentOperation columns
var PaymentOperationHeader = append(append([]string(nil), EnhancedOrderHeader...),
	"payment_type", "payment_installments", "payment_value", "review_score")

// Record implements Row
func (p PaymentOperation) Record() []string {
	return append(p.EnhancedOrder.Record(),
		p.PaymentType, fmtOptInt(p.PaymentInstallments), fmtOptFloat(p.PaymentValue), fmtOptInt(p.ReviewScore))
}
