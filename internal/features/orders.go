package features

import (
	"math"
	"time"

	"olistcli/internal/calendar"
	"olistcli/internal/dataset"
	"olistcli/internal/stats"
	"olistcli/pkg/contracts/domain"
)

var (
	speedEdges  = []float64{math.Inf(-1), 7, 14, 21, 30, math.Inf(1)}
	speedLabels = []string{
		domain.SpeedVeryFast, domain.SpeedFast, domain.SpeedNormal, domain.SpeedSlow, domain.SpeedVerySlow,
	}

	accuracyEdges  = []float64{math.Inf(-1), -7, 0, 7, 14, math.Inf(1)}
	accuracyLabels = []string{
		domain.AccuracyMuchEarlier, domain.AccuracyEarlier, domain.AccuracyOnTime,
		domain.AccuracyLate, domain.AccuracyVeryLate,
	}
)

// SpeedCategory bins delivery days into the five delivery speed classes
func SpeedCategory(days float64) string {
	return label(stats.Cut(days, speedEdges), speedLabels)
}

// AccuracyCategory bins days relative to the estimate into accuracy classes
func AccuracyCategory(vsEstimate float64) string {
	return label(stats.Cut(vsEstimate, accuracyEdges), accuracyLabels)
}

func label(bin int, labels []string) string {
	if bin < 0 || bin >= len(labels) {
		return ""
	}
	return labels[bin]
}

// enhanceOrders adds delivery performance and calendar features to every
// order. Values already derived by the cleaner are reused.
func enhanceOrders(orders []dataset.Order) []domain.EnhancedOrder {
	out := make([]domain.EnhancedOrder, 0, len(orders))
	for _, o := range orders {
		e := domain.EnhancedOrder{
			OrderID:               o.OrderID,
			CustomerID:            o.CustomerID,
			Status:                o.Status,
			PurchaseTimestamp:     o.PurchaseTimestamp,
			ApprovedAt:            o.ApprovedAt,
			DeliveredCarrierDate:  o.DeliveredCarrierDate,
			DeliveredCustomerDate: o.DeliveredCustomerDate,
			EstimatedDeliveryDate: o.EstimatedDeliveryDate,
		}

		if o.DeliveredCustomerDate != nil {
			e.DeliveryDays = o.DeliveryDays
			if e.DeliveryDays == nil {
				e.DeliveryDays = daysBetween(o.PurchaseTimestamp, *o.DeliveredCustomerDate)
			}
			e.DeliverySpeedCategory = SpeedCategory(*e.DeliveryDays)

			if o.EstimatedDeliveryDate != nil {
				e.DeliveryVsEstimateDays = o.DeliveryVsEstimateDays
				if e.DeliveryVsEstimateDays == nil {
					e.DeliveryVsEstimateDays = daysBetween(*o.EstimatedDeliveryDate, *o.DeliveredCustomerDate)
				}
				e.OnTimeDelivery = o.OnTimeDelivery
				if e.OnTimeDelivery == nil {
					e.OnTimeDelivery = dataset.Bool(*e.DeliveryVsEstimateDays <= 0)
				}
				e.DeliveryAccuracy = AccuracyCategory(*e.DeliveryVsEstimateDays)
			}

			if o.DeliveredCarrierDate != nil {
				e.ShippingDays = daysBetween(*o.DeliveredCarrierDate, *o.DeliveredCustomerDate)
			}
		}
		if o.DeliveredCarrierDate != nil {
			e.ProcessingDays = daysBetween(o.PurchaseTimestamp, *o.DeliveredCarrierDate)
		}

		setCalendar(&e, o.PurchaseTimestamp)
		out = append(out, e)
	}
	return out
}

func setCalendar(e *domain.EnhancedOrder, t time.Time) {
	e.Year = t.Year()
	e.Month = int(t.Month())
	e.Quarter = calendar.Quarter(e.Month)
	e.DayOfWeek = (int(t.Weekday()) + 6) % 7
	e.DayName = t.Weekday().String()
	e.Hour = t.Hour()
	_, e.WeekOfYear = t.ISOWeek()

	e.IsWeekend = e.DayOfWeek >= 5
	e.IsHolidaySeason = e.Month == 11 || e.Month == 12
	e.IsCarnivalSeason = e.Month == 2 || e.Month == 3
	e.IsMothersDaySeason = e.Month == 5
	e.IsValentinesSeason = e.Month == 6
}

func daysBetween(from, to time.Time) *float64 {
	return dataset.Float(dataset.FloorDays(to.Sub(from)))
}
