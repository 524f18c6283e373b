package dataset

import (
	"math"
)

// TableSummary describes the shape and completeness of one table
type TableSummary struct {
	Table         Table   `json:"dataset"`
	File          string  `json:"filename"`
	Rows          int     `json:"rows"`
	Columns       int     `json:"columns"`
	MissingValues int     `json:"missing_values"`
	MissingPct    float64 `json:"missing_percentage"`
}

// Summarize returns one summary per loaded table in canonical order
func Summarize(ts TableSet) []TableSummary {
	var out []TableSummary
	for _, t := range ts.Loaded() {
		cols := Header(t, ts.Derived && len(derivedHeaders[t]) > 0)
		missing := 0
		for _, rec := range ts.Records(t) {
			for _, v := range rec {
				if v == "" {
					missing++
				}
			}
		}
		rows := ts.Len(t)
		pct := 0.0
		if cells := rows * len(cols); cells > 0 {
			pct = math.Round(float64(missing)/float64(cells)*10000) / 100
		}
		out = append(out, TableSummary{
			Table:         t,
			File:          SourceFiles[t],
			Rows:          rows,
			Columns:       len(cols),
			MissingValues: missing,
			MissingPct:    pct,
		})
	}
	return out
}

// KeyMatch compares the distinct key sets of two tables
type KeyMatch struct {
	Name      string `json:"name"`
	Matched   int    `json:"matched"`
	LeftOnly  int    `json:"left_only"`
	RightOnly int    `json:"right_only"`
}

// CheckRelationships compares the primary key sets against the keys used
// by dependent tables. Pairs whose tables are not loaded are omitted.
func CheckRelationships(ts TableSet) []KeyMatch {
	var out []KeyMatch

	if ts.Has(Customers) && ts.Has(Orders) {
		left := keySet(len(ts.Customers), func(i int) string { return ts.Customers[i].CustomerID })
		right := keySet(len(ts.Orders), func(i int) string { return ts.Orders[i].CustomerID })
		out = append(out, compareKeys("customer_orders_match", left, right))
	}
	if ts.Has(Orders) && ts.Has(OrderItems) {
		left := keySet(len(ts.Orders), func(i int) string { return ts.Orders[i].OrderID })
		right := keySet(len(ts.OrderItems), func(i int) string { return ts.OrderItems[i].OrderID })
		out = append(out, compareKeys("order_items_match", left, right))
	}
	if ts.Has(Products) && ts.Has(OrderItems) {
		left := keySet(len(ts.Products), func(i int) string { return ts.Products[i].ProductID })
		right := keySet(len(ts.OrderItems), func(i int) string { return ts.OrderItems[i].ProductID })
		out = append(out, compareKeys("product_items_match", left, right))
	}

	return out
}

// keySet builds the distinct set of n keys
func keySet(n int, key func(int) string) map[string]struct{} {
	m := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		m[key(i)] = struct{}{}
	}
	return m
}

func compareKeys(name string, left, right map[string]struct{}) KeyMatch {
	km := KeyMatch{Name: name}
	for k := range left {
		if _, ok := right[k]; ok {
			km.Matched++
		} else {
			km.LeftOnly++
		}
	}
	for k := range right {
		if _, ok := left[k]; !ok {
			km.RightOnly++
		}
	}
	return km
}

// Relationship is a parent/child key pair between two tables
type Relationship struct {
	Parent    Table  `json:"parent_table"`
	ParentKey string `json:"parent_key"`
	Child     Table  `json:"child_table"`
	ChildKey  string `json:"child_key"`
}

// Name returns the "parent_child" identifier of the relationship
func (r Relationship) Name() string {
	return string(r.Parent) + "_" + string(r.Child)
}

// Relationships are the foreign keys checked after cleaning and during
// validation
var Relationships = []Relationship{
	{Customers, "customer_id", Orders, "customer_id"},
	{Orders, "order_id", OrderItems, "order_id"},
	{Orders, "order_id", Payments, "order_id"},
	{Orders, "order_id", Reviews, "order_id"},
	{Products, "product_id", OrderItems, "product_id"},
	{Sellers, "seller_id", OrderItems, "seller_id"},
}

// ForeignKeyCheck counts distinct child keys with no parent row
type ForeignKeyCheck struct {
	Relationship
	ParentUnique int     `json:"parent_unique_keys"`
	ChildUnique  int     `json:"child_unique_keys"`
	Orphaned     int     `json:"orphaned_records"`
	OrphanedPct  float64 `json:"orphaned_percentage"`
}

// OK reports whether every child key has a parent
func (c ForeignKeyCheck) OK() bool {
	return c.Orphaned == 0
}

// CheckForeignKeys evaluates every relationship whose two tables are loaded.
// Empty keys are ignored.
func CheckForeignKeys(ts TableSet) []ForeignKeyCheck {
	var out []ForeignKeyCheck
	for _, r := range Relationships {
		if !ts.Has(r.Parent) || !ts.Has(r.Child) {
			continue
		}
		parent := ts.keys(r.Parent, r.ParentKey)
		child := ts.keys(r.Child, r.ChildKey)

		c := ForeignKeyCheck{
			Relationship: r,
			ParentUnique: len(parent),
			ChildUnique:  len(child),
		}
		for k := range child {
			if _, ok := parent[k]; !ok {
				c.Orphaned++
			}
		}
		if c.ChildUnique > 0 {
			c.OrphanedPct = float64(c.Orphaned) / float64(c.ChildUnique) * 100
		}
		out = append(out, c)
	}
	return out
}

// keys returns the distinct non-empty values of an id column
func (ts TableSet) keys(t Table, col string) map[string]struct{} {
	var (
		n   int
		key func(int) string
	)
	switch {
	case t == Customers && col == "customer_id":
		n, key = len(ts.Customers), func(i int) string { return ts.Customers[i].CustomerID }
	case t == Orders && col == "customer_id":
		n, key = len(ts.Orders), func(i int) string { return ts.Orders[i].CustomerID }
	case t == Orders && col == "order_id":
		n, key = len(ts.Orders), func(i int) string { return ts.Orders[i].OrderID }
	case t == OrderItems && col == "order_id":
		n, key = len(ts.OrderItems), func(i int) string { return ts.OrderItems[i].OrderID }
	case t == OrderItems && col == "product_id":
		n, key = len(ts.OrderItems), func(i int) string { return ts.OrderItems[i].ProductID }
	case t == OrderItems && col == "seller_id":
		n, key = len(ts.OrderItems), func(i int) string { return ts.OrderItems[i].SellerID }
	case t == Payments && col == "order_id":
		n, key = len(ts.Payments), func(i int) string { return ts.Payments[i].OrderID }
	case t == Reviews && col == "order_id":
		n, key = len(ts.Reviews), func(i int) string { return ts.Reviews[i].OrderID }
	case t == Products && col == "product_id":
		n, key = len(ts.Products), func(i int) string { return ts.Products[i].ProductID }
	case t == Sellers && col == "seller_id":
		n, key = len(ts.Sellers), func(i int) string { return ts.Sellers[i].SellerID }
	default:
		return nil
	}
	set := keySet(n, key)
	delete(set, "")
	return set
}
