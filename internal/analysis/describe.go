package analysis

import (
	"sort"

	"olistcli/internal/stats"
)

// Distribution is the summary of a numeric column
type Distribution struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
}

func describe(xs []float64) Distribution {
	if len(xs) == 0 {
		return Distribution{}
	}
	asc := append([]float64(nil), xs...)
	sort.Float64s(asc)
	return Distribution{
		Count:  len(xs),
		Mean:   stats.Mean(xs),
		Std:    stats.StdDev(xs),
		Min:    asc[0],
		Q25:    stats.Quantile(asc, 0.25),
		Median: stats.Quantile(asc, 0.5),
		Q75:    stats.Quantile(asc, 0.75),
		Max:    asc[len(asc)-1],
	}
}

// optMean averages the non-nil values, nil when there are none
func optMean(xs []*float64) *float64 {
	var vals []float64
	for _, x := range xs {
		if x != nil {
			vals = append(vals, *x)
		}
	}
	if len(vals) == 0 {
		return nil
	}
	m := stats.Mean(vals)
	return &m
}

func optFmt(f *float64, format func(float64) string) string {
	if f == nil {
		return "n/a"
	}
	return format(*f)
}

func optMedian(xs []*float64) *float64 {
	var vals []float64
	for _, x := range xs {
		if x != nil {
			vals = append(vals, *x)
		}
	}
	m, ok := stats.Median(vals)
	if !ok {
		return nil
	}
	return &m
}
