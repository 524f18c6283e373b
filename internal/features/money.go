package features

import (
	"github.com/shopspring/decimal"

	"olistcli/internal/dataset"
)

// orderValue is the item total of one order. Sums are kept as decimals so
// revenue totals do not drift with float accumulation.
type orderValue struct {
	price   decimal.Decimal
	freight decimal.Decimal
	items   int
}

func (v orderValue) total() decimal.Decimal {
	return v.price.Add(v.freight)
}

// orderValues sums price and freight per order. Orders without items are
// absent from the map.
func orderValues(items []dataset.OrderItem) map[string]orderValue {
	out := make(map[string]orderValue)
	for _, it := range items {
		v := out[it.OrderID]
		v.price = v.price.Add(decimal.NewFromFloat(it.Price))
		v.freight = v.freight.Add(decimal.NewFromFloat(it.FreightValue))
		v.items++
		out[it.OrderID] = v
	}
	return out
}

// money is a running decimal sum with a count, used for sum and mean
// aggregations over currency values
type money struct {
	sum decimal.Decimal
	n   int
}

func (m *money) add(d decimal.Decimal) {
	m.sum = m.sum.Add(d)
	m.n++
}

func (m *money) addFloat(f float64) {
	m.add(decimal.NewFromFloat(f))
}

// Sum returns the total as a float64
func (m money) Sum() float64 {
	return toFloat(m.sum)
}

// Mean returns the average, 0 when nothing was added
func (m money) Mean() float64 {
	if m.n == 0 {
		return 0
	}
	return toFloat(m.sum.Div(decimal.NewFromInt(int64(m.n))))
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// OrderRevenue returns price plus freight per order id
func OrderRevenue(items []dataset.OrderItem) map[string]float64 {
	values := orderValues(items)
	out := make(map[string]float64, len(values))
	for id, v := range values {
		out[id] = toFloat(v.total())
	}
	return out
}
