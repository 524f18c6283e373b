// Package calendar holds the Brazilian retail calendar used by the seasonal
// features, the forecaster and the seasonal analyzer.
package calendar

import (
	"time"
)

// Impact levels of a calendar event
const (
	ImpactLow      = "low"
	ImpactMedium   = "medium"
	ImpactHigh     = "high"
	ImpactVeryHigh = "very_high"
)

// Event is the dominant retail event of a calendar month
type Event struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Impact string `json:"impact"`
}

// Events maps a month (1-12) to its event
var Events = map[int]Event{
	1:  {"New Year", "holiday", ImpactMedium},
	2:  {"Carnival", "cultural", ImpactHigh},
	3:  {"Carnival (extended)", "cultural", ImpactMedium},
	4:  {"Easter", "holiday", ImpactLow},
	5:  {"Mothers Day", "commercial", ImpactHigh},
	6:  {"Valentines Day (Brazil)", "commercial", ImpactMedium},
	7:  {"Winter Vacation", "seasonal", ImpactMedium},
	8:  {"Fathers Day", "commercial", ImpactMedium},
	9:  {"Independence Day", "holiday", ImpactLow},
	10: {"Childrens Day", "commercial", ImpactMedium},
	11: {"Black Friday", "commercial", ImpactVeryHigh},
	12: {"Christmas", "holiday", ImpactVeryHigh},
}

var impactScores = map[string]int{
	ImpactLow:      1,
	ImpactMedium:   2,
	ImpactHigh:     3,
	ImpactVeryHigh: 4,
}

// ImpactScore converts an impact level to 1..4. Unknown levels score as
// medium.
func ImpactScore(impact string) int {
	if s, ok := impactScores[impact]; ok {
		return s
	}
	return impactScores[ImpactMedium]
}

// MonthImpact returns the impact score of the event in month
func MonthImpact(month int) int {
	return ImpactScore(Events[month].Impact)
}

// HighImpact reports whether an event is high or very high impact
func HighImpact(e Event) bool {
	return e.Impact == ImpactHigh || e.Impact == ImpactVeryHigh
}

// EventType is the coarse event label attached to cultural event rows
func EventType(month int) string {
	switch month {
	case 2, 3:
		return "Carnival"
	case 5:
		return "Mothers Day"
	case 6:
		return "Valentines Day"
	case 11:
		return "Black Friday"
	case 12:
		return "Christmas"
	}
	return "Regular"
}

// Season returns the southern hemisphere season of a quarter
func Season(quarter int) string {
	switch quarter {
	case 1:
		return "Summer"
	case 2:
		return "Autumn"
	case 3:
		return "Winter"
	case 4:
		return "Spring"
	}
	return ""
}

// Quarter returns the calendar quarter (1-4) of month
func Quarter(month int) int {
	return (month-1)/3 + 1
}

// MonthName returns the English name of month
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return time.Month(month).String()
}

// AddMonths steps (year, month) by n months, wrapping December into
// January of the next year. Negative n steps backwards.
func AddMonths(year, month, n int) (int, int) {
	idx := year*12 + month - 1 + n
	return idx / 12, idx%12 + 1
}
