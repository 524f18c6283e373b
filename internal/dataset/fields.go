package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// TimeLayout is the timestamp layout used by every Olist file
const TimeLayout = "2006-01-02 15:04:05"

var timeLayouts = []string{
	TimeLayout,
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC3339,
}

// header maps column names to their index in a record
type header map[string]int

func newHeader(cols []string) header {
	h := make(header, len(cols))
	for i, c := range cols {
		h[strings.TrimSpace(strings.ToLower(c))] = i
	}
	return h
}

func (h header) str(rec []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func (h header) float(rec []string, col string) *float64 {
	return ParseFloat(h.str(rec, col))
}

func (h header) floatOrZero(rec []string, col string) float64 {
	if f := h.float(rec, col); f != nil {
		return *f
	}
	return 0
}

func (h header) int(rec []string, col string) int {
	f := h.float(rec, col)
	if f == nil {
		return 0
	}
	return int(*f)
}

func (h header) time(rec []string, col string) *time.Time {
	return ParseTime(h.str(rec, col))
}

func (h header) boolean(rec []string, col string) *bool {
	switch strings.ToLower(h.str(rec, col)) {
	case "true", "1":
		b := true
		return &b
	case "false", "0":
		b := false
		return &b
	}
	return nil
}

// ParseFloat parses s, returning nil for empty, NaN or malformed input
func ParseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// ParseTime parses s with the known layouts, returning nil when missing
func ParseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}

// Time returns a pointer to t
func Time(t time.Time) *time.Time {
	return &t
}

// Bool returns a pointer to b
func Bool(b bool) *bool {
	return &b
}

// FloorDays converts a duration to whole days rounding toward negative
// infinity, so -1h counts as -1 day
func FloorDays(d time.Duration) float64 {
	return math.Floor(d.Hours() / 24)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(TimeLayout)
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func formatBool(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}

func itoa(i int) string {
	return strconv.Itoa(i)
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
