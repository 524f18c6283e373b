package validation

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"olistcli/internal/dataset"
)

// Status is the outcome of a single check
type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
	StatusWarn Status = "WARN"
)

// Category groups related checks in the report
type Category string

const (
	CategoryCompleteness  Category = "completeness"
	CategoryDataTypes     Category = "data_types"
	CategoryBusinessRules Category = "business_rules"
	CategoryReferential   Category = "referential_integrity"
	CategoryRanges        Category = "data_ranges"
)

// Categories lists the check categories in report order
var Categories = []Category{
	CategoryCompleteness,
	CategoryDataTypes,
	CategoryBusinessRules,
	CategoryReferential,
	CategoryRanges,
}

// MaxMissingPct is the share of missing values a critical column may have
const MaxMissingPct = 1.0

// Check is one validated column, rule or relationship
type Check struct {
	Category Category `json:"category"`
	Dataset  string   `json:"dataset"`
	Name     string   `json:"name"`
	Status   Status   `json:"status"`
	Invalid  int      `json:"invalid_count"`
	Total    int      `json:"total_checked"`
	Detail   string   `json:"detail,omitempty"`
}

// Result is the outcome of validating a table set
type Result struct {
	Passed bool                   `json:"passed"`
	Checks []Check                `json:"checks"`
	Tables []dataset.TableSummary `json:"tables"`
}

// ByCategory returns the checks of one category in the order they ran
func (r Result) ByCategory(c Category) []Check {
	var out []Check
	for _, ch := range r.Checks {
		if ch.Category == c {
			out = append(out, ch)
		}
	}
	return out
}

// Failed returns every check with status FAIL
func (r Result) Failed() []Check {
	var out []Check
	for _, ch := range r.Checks {
		if ch.Status == StatusFail {
			out = append(out, ch)
		}
	}
	return out
}

// DataValidator checks a cleaned table set before feature engineering
type DataValidator struct {
	logger *slog.Logger
}

// NewDataValidator creates a data validator. A nil logger uses
// slog.Default().
func NewDataValidator(logger *slog.Logger) *DataValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &DataValidator{logger: logger}
}

// Validate runs every check category. Range checks only warn; any other
// violation fails the result.
func (v *DataValidator) Validate(ctx context.Context, ts dataset.TableSet) Result {
	v.logger.InfoContext(ctx, "Starting comprehensive data validation")

	res := Result{Passed: true, Tables: dataset.Summarize(ts)}
	add := func(c Check) {
		res.Checks = append(res.Checks, c)
		switch c.Status {
		case StatusFail:
			res.Passed = false
			v.logger.WarnContext(ctx, "Validation check failed",
				slog.String("category", string(c.Category)),
				slog.String("dataset", c.Dataset),
				slog.String("check", c.Name),
				slog.Int("invalid", c.Invalid))
		case StatusWarn:
			v.logger.WarnContext(ctx, "Values outside expected range",
				slog.String("dataset", c.Dataset),
				slog.String("column", c.Name),
				slog.Int("out_of_range", c.Invalid))
		}
	}

	for _, c := range completenessChecks(ts) {
		add(c)
	}
	for _, c := range typeChecks(ts) {
		add(c)
	}
	for _, c := range businessRuleChecks(ts) {
		add(c)
	}
	for _, fk := range dataset.CheckForeignKeys(ts) {
		c := Check{
			Category: CategoryReferential,
			Dataset:  fk.Name(),
			Name:     fmt.Sprintf("%s.%s -> %s.%s", fk.Parent, fk.ParentKey, fk.Child, fk.ChildKey),
			Status:   StatusPass,
			Invalid:  fk.Orphaned,
			Total:    fk.ChildUnique,
		}
		if !fk.OK() {
			c.Status = StatusFail
		}
		add(c)
	}
	for _, c := range rangeChecks(ts) {
		add(c)
	}

	status := "PASSED"
	if !res.Passed {
		status = "FAILED"
	}
	v.logger.InfoContext(ctx, "Data validation completed",
		slog.String("status", status),
		slog.Int("checks", len(res.Checks)),
		slog.Int("failed", len(res.Failed())))
	return res
}

// column describes one value per row of a table
type column struct {
	table dataset.Table
	name  string
	rows  func(ts dataset.TableSet) int
}

type stringColumn struct {
	column
	value func(ts dataset.TableSet, i int) string
}

func criticalColumns() []stringColumn {
	orders := func(ts dataset.TableSet) int { return len(ts.Orders) }
	customers := func(ts dataset.TableSet) int { return len(ts.Customers) }
	products := func(ts dataset.TableSet) int { return len(ts.Products) }
	items := func(ts dataset.TableSet) int { return len(ts.OrderItems) }
	payments := func(ts dataset.TableSet) int { return len(ts.Payments) }

	return []stringColumn{
		{column{dataset.Orders, "order_id", orders}, func(ts dataset.TableSet, i int) string { return ts.Orders[i].OrderID }},
		{column{dataset.Orders, "customer_id", orders}, func(ts dataset.TableSet, i int) string { return ts.Orders[i].CustomerID }},
		{column{dataset.Orders, "order_status", orders}, func(ts dataset.TableSet, i int) string { return ts.Orders[i].Status }},
		{column{dataset.Customers, "customer_id", customers}, func(ts dataset.TableSet, i int) string { return ts.Customers[i].CustomerID }},
		{column{dataset.Customers, "customer_state", customers}, func(ts dataset.TableSet, i int) string { return ts.Customers[i].State }},
		{column{dataset.Products, "product_id", products}, func(ts dataset.TableSet, i int) string { return ts.Products[i].ProductID }},
		{column{dataset.Products, "product_category_name", products}, func(ts dataset.TableSet, i int) string { return ts.Products[i].CategoryName }},
		{column{dataset.OrderItems, "order_id", items}, func(ts dataset.TableSet, i int) string { return ts.OrderItems[i].OrderID }},
		{column{dataset.OrderItems, "product_id", items}, func(ts dataset.TableSet, i int) string { return ts.OrderItems[i].ProductID }},
		{column{dataset.OrderItems, "seller_id", items}, func(ts dataset.TableSet, i int) string { return ts.OrderItems[i].SellerID }},
		{column{dataset.Payments, "order_id", payments}, func(ts dataset.TableSet, i int) string { return ts.Payments[i].OrderID }},
		{column{dataset.Payments, "payment_type", payments}, func(ts dataset.TableSet, i int) string { return ts.Payments[i].Type }},
	}
}

func completenessChecks(ts dataset.TableSet) []Check {
	var out []Check
	for _, col := range criticalColumns() {
		if !ts.Has(col.table) {
			continue
		}
		n := col.rows(ts)
		missing := 0
		for i := 0; i < n; i++ {
			if col.value(ts, i) == "" {
				missing++
			}
		}
		pct := 0.0
		if n > 0 {
			pct = float64(missing) / float64(n) * 100
		}
		c := Check{
			Category: CategoryCompleteness,
			Dataset:  string(col.table),
			Name:     col.name,
			Status:   StatusPass,
			Invalid:  missing,
			Total:    n,
			Detail:   fmt.Sprintf("%.2f%% missing", pct),
		}
		if pct >= MaxMissingPct {
			c.Status = StatusFail
		}
		out = append(out, c)
	}
	return out
}

type numericColumn struct {
	column
	// value returns the row value and whether it is present
	value func(ts dataset.TableSet, i int) (float64, bool)
}

func ptr(f *float64) (float64, bool) {
	if f == nil {
		return 0, false
	}
	return *f, true
}

func numericColumns() map[string]numericColumn {
	orders := func(ts dataset.TableSet) int { return len(ts.Orders) }
	products := func(ts dataset.TableSet) int { return len(ts.Products) }
	payments := func(ts dataset.TableSet) int { return len(ts.Payments) }
	reviews := func(ts dataset.TableSet) int { return len(ts.Reviews) }

	return map[string]numericColumn{
		"delivery_days": {column{dataset.Orders, "delivery_days", orders},
			func(ts dataset.TableSet, i int) (float64, bool) { return ptr(ts.Orders[i].DeliveryDays) }},
		"order_year": {column{dataset.Orders, "order_year", orders},
			func(ts dataset.TableSet, i int) (float64, bool) { return float64(ts.Orders[i].Year), ts.Derived }},
		"order_month": {column{dataset.Orders, "order_month", orders},
			func(ts dataset.TableSet, i int) (float64, bool) { return float64(ts.Orders[i].Month), ts.Derived }},
		"product_weight_g": {column{dataset.Products, "product_weight_g", products},
			func(ts dataset.TableSet, i int) (float64, bool) { return ptr(ts.Products[i].WeightG) }},
		"product_length_cm": {column{dataset.Products, "product_length_cm", products},
			func(ts dataset.TableSet, i int) (float64, bool) { return ptr(ts.Products[i].LengthCM) }},
		"product_height_cm": {column{dataset.Products, "product_height_cm", products},
			func(ts dataset.TableSet, i int) (float64, bool) { return ptr(ts.Products[i].HeightCM) }},
		"product_width_cm": {column{dataset.Products, "product_width_cm", products},
			func(ts dataset.TableSet, i int) (float64, bool) { return ptr(ts.Products[i].WidthCM) }},
		"product_volume_cm3": {column{dataset.Products, "product_volume_cm3", products},
			func(ts dataset.TableSet, i int) (float64, bool) { return ptr(ts.Products[i].VolumeCM3) }},
		"payment_value": {column{dataset.Payments, "payment_value", payments},
			func(ts dataset.TableSet, i int) (float64, bool) { return ts.Payments[i].Value, true }},
		"payment_installments": {column{dataset.Payments, "payment_installments", payments},
			func(ts dataset.TableSet, i int) (float64, bool) { return float64(ts.Payments[i].Installments), true }},
		"review_score": {column{dataset.Reviews, "review_score", reviews},
			func(ts dataset.TableSet, i int) (float64, bool) { return float64(ts.Reviews[i].Score), true }},
	}
}

// values returns the present values of col
func (col numericColumn) values(ts dataset.TableSet) []float64 {
	n := col.rows(ts)
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if v, ok := col.value(ts, i); ok {
			out = append(out, v)
		}
	}
	return out
}

// typeChecks verifies derived columns exist and numeric values are finite
func typeChecks(ts dataset.TableSet) []Check {
	cols := numericColumns()
	expected := []struct {
		name    string
		derived bool
	}{
		{"delivery_days", true},
		{"order_year", true},
		{"order_month", true},
		{"product_weight_g", false},
		{"product_length_cm", false},
		{"product_height_cm", false},
		{"product_width_cm", false},
		{"product_volume_cm3", true},
		{"payment_value", false},
	}

	var out []Check
	for _, e := range expected {
		col := cols[e.name]
		if !ts.Has(col.table) {
			continue
		}
		c := Check{
			Category: CategoryDataTypes,
			Dataset:  string(col.table),
			Name:     col.name,
			Status:   StatusPass,
			Total:    col.rows(ts),
			Detail:   "numeric",
		}
		if e.derived && !ts.Derived {
			c.Status = StatusFail
			c.Detail = "derived column missing"
			out = append(out, c)
			continue
		}
		for _, v := range col.values(ts) {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				c.Invalid++
			}
		}
		if c.Invalid > 0 {
			c.Status = StatusFail
			c.Detail = "non-finite values"
		}
		out = append(out, c)
	}
	return out
}

func businessRuleChecks(ts dataset.TableSet) []Check {
	var out []Check
	rule := func(table dataset.Table, name string, invalid, total int) {
		c := Check{
			Category: CategoryBusinessRules,
			Dataset:  string(table),
			Name:     name,
			Status:   StatusPass,
			Invalid:  invalid,
			Total:    total,
		}
		if invalid > 0 {
			c.Status = StatusFail
		}
		out = append(out, c)
	}

	if ts.Has(dataset.Orders) {
		checked, invalid := 0, 0
		negative := 0
		for _, o := range ts.Orders {
			if o.DeliveredCustomerDate != nil {
				checked++
				if o.DeliveredCustomerDate.Before(o.PurchaseTimestamp) {
					invalid++
				}
			}
			if o.DeliveryDays != nil && *o.DeliveryDays < 0 {
				negative++
			}
		}
		if checked > 0 {
			rule(dataset.Orders, "delivery_after_purchase", invalid, checked)
		}
		if ts.Derived {
			rule(dataset.Orders, "positive_delivery_days", negative, len(ts.Orders))
		}
	}

	cols := numericColumns()
	if ts.Has(dataset.Products) {
		for _, name := range []string{"product_weight_g", "product_length_cm", "product_height_cm", "product_width_cm"} {
			invalid := 0
			for _, v := range cols[name].values(ts) {
				if v <= 0 {
					invalid++
				}
			}
			rule(dataset.Products, "positive_"+name, invalid, len(ts.Products))
		}
	}

	if ts.Has(dataset.Payments) {
		invalid := 0
		for _, p := range ts.Payments {
			if p.Value <= 0 {
				invalid++
			}
		}
		rule(dataset.Payments, "positive_payment_value", invalid, len(ts.Payments))
	}
	return out
}

// expectedRanges are plausibility bounds. Values outside only warn.
var expectedRanges = []struct {
	column   string
	min, max float64
}{
	{"delivery_days", 0, 365},
	{"order_year", 2016, 2019},
	{"order_month", 1, 12},
	{"product_weight_g", 0, 50000},
	{"product_length_cm", 0, 200},
	{"product_height_cm", 0, 200},
	{"product_width_cm", 0, 200},
	{"payment_value", 0, 10000},
	{"payment_installments", 1, 24},
	{"review_score", 1, 5},
}

func rangeChecks(ts dataset.TableSet) []Check {
	cols := numericColumns()
	var out []Check
	for _, r := range expectedRanges {
		col := cols[r.column]
		if !ts.Has(col.table) {
			continue
		}
		values := col.values(ts)
		if len(values) == 0 {
			continue
		}
		lo, hi := values[0], values[0]
		outside := 0
		for _, v := range values {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
			if v < r.min || v > r.max {
				outside++
			}
		}
		c := Check{
			Category: CategoryRanges,
			Dataset:  string(col.table),
			Name:     col.name,
			Status:   StatusPass,
			Invalid:  outside,
			Total:    len(values),
			Detail:   fmt.Sprintf("expected [%g, %g], actual [%g, %g]", r.min, r.max, lo, hi),
		}
		if outside > 0 {
			c.Status = StatusWarn
		}
		out = append(out, c)
	}
	return out
}
