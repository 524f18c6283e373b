// Package domain defines the rows of the master analytical datasets.
//
// Every row type carries json, csv and validate tags. The csv tag is the
// column name written by the pipeline; Record returns the values in the
// same order as the matching header variable so exporters can stream rows
// without reflection.
package domain

import (
	"strconv"
	"time"
)

// TimeLayout is the timestamp format used in every written dataset
const TimeLayout = "2006-01-02 15:04:05"

// Row is a master dataset row that serializes itself as a CSV record
type Row interface {
	Record() []string
}

// Records serializes rows in order
func Records[T Row](rows []T) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = r.Record()
	}
	return out
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func fmtOptFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return fmtFloat(*f)
}

func fmtInt(i int) string {
	return strconv.Itoa(i)
}

func fmtOptInt(i *int) string {
	if i == nil {
		return ""
	}
	return strconv.Itoa(*i)
}

func fmtBool(b bool) string {
	return strconv.FormatBool(b)
}

func fmtOptBool(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimeLayout)
}

func fmtOptTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(TimeLayout)
}
