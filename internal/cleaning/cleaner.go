package cleaning

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"olistcli/internal/dataset"
	"olistcli/internal/stats"
)

// UnknownCategory replaces a missing product category
const UnknownCategory = "unknown"

// dimension gives access to one numeric product column
type dimension struct {
	column string
	field  func(p *dataset.Product) **float64
}

var productDimensions = []dimension{
	{"product_weight_g", func(p *dataset.Product) **float64 { return &p.WeightG }},
	{"product_length_cm", func(p *dataset.Product) **float64 { return &p.LengthCM }},
	{"product_height_cm", func(p *dataset.Product) **float64 { return &p.HeightCM }},
	{"product_width_cm", func(p *dataset.Product) **float64 { return &p.WidthCM }},
}

// Cleaner applies the cleaning rules to a table set
type Cleaner struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewCleaner creates a cleaner. A nil logger uses slog.Default().
func NewCleaner(logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{logger: logger, now: time.Now}
}

// run holds the state of one Clean call
type run struct {
	c   *Cleaner
	ctx context.Context
	ts  dataset.TableSet
	log AuditLog
}

func (r *run) record(action Action, ds, details string) {
	r.log.record(r.c.now(), action, ds, details)
	r.c.logger.InfoContext(r.ctx, "Cleaning action",
		slog.String("action", string(action)),
		slog.String("dataset", ds),
		slog.String("details", details))
}

// Clean returns a cleaned copy of ts and the audit log of every change.
// The input set is not modified. Tables that are not loaded are skipped.
func (c *Cleaner) Clean(ctx context.Context, ts dataset.TableSet) (dataset.TableSet, AuditLog) {
	c.logger.InfoContext(ctx, "Starting comprehensive data cleaning",
		slog.Int("tables", len(ts.Loaded())))

	r := &run{c: c, ctx: ctx, ts: ts.Clone()}

	before := make(map[dataset.Table]int, len(dataset.AllTables))
	for _, t := range ts.Loaded() {
		before[t] = ts.Len(t)
	}

	r.missingValues()
	r.removeDuplicates()
	r.convertTypes()
	r.mergeCategories()
	r.derivedFeatures()
	r.validateForeignKeys()

	for _, t := range r.ts.Loaded() {
		r.log.SizeChanges = append(r.log.SizeChanges, SizeChange{
			Table:   t,
			Before:  before[t],
			After:   r.ts.Len(t),
			Columns: len(dataset.Header(t, true)),
		})
	}

	c.logger.InfoContext(ctx, "Data cleaning completed",
		slog.Int("actions", len(r.log.Entries)),
		slog.Int("changes", r.log.Changes))

	return r.ts, r.log
}

func (r *run) missingValues() {
	if r.ts.Has(dataset.Orders) {
		r.fillOrderDates()
	}
	if r.ts.Has(dataset.Products) {
		r.fillProducts()
	}
	if r.ts.Has(dataset.Reviews) {
		titles, messages := 0, 0
		for _, rv := range r.ts.Reviews {
			if rv.CommentTitle == "" {
				titles++
			}
			if rv.CommentMessage == "" {
				messages++
			}
		}
		r.record(ActionPreserveReviews, string(dataset.Reviews),
			fmt.Sprintf("Preserved %d missing review titles and %d missing review messages as valid business case",
				titles, messages))
	}
	if r.ts.Has(dataset.Payments) {
		r.fixPayments()
	}
}

// fillOrderDates uses the estimate for delivered orders without a customer
// date, then places a missing carrier date one day before delivery
func (r *run) fillOrderDates() {
	delivered := 0
	for i := range r.ts.Orders {
		o := &r.ts.Orders[i]
		if o.Status == dataset.StatusDelivered && o.DeliveredCustomerDate == nil && o.EstimatedDeliveryDate != nil {
			o.DeliveredCustomerDate = dataset.Time(*o.EstimatedDeliveryDate)
			delivered++
		}
	}
	if delivered > 0 {
		r.log.Changes += delivered
		r.record(ActionImputeDeliveryDate, string(dataset.Orders),
			fmt.Sprintf("Filled %d missing delivery dates with estimated dates for delivered orders", delivered))
	}

	carrier := 0
	for i := range r.ts.Orders {
		o := &r.ts.Orders[i]
		if o.DeliveredCarrierDate == nil && o.DeliveredCustomerDate != nil {
			o.DeliveredCarrierDate = dataset.Time(o.DeliveredCustomerDate.AddDate(0, 0, -1))
			carrier++
		}
	}
	if carrier > 0 {
		r.log.Changes += carrier
		r.record(ActionImputeCarrierDate, string(dataset.Orders),
			fmt.Sprintf("Estimated %d missing carrier delivery dates", carrier))
	}
}

func (r *run) fillProducts() {
	products := r.ts.Products

	missing := 0
	for i := range products {
		if strings.TrimSpace(products[i].CategoryName) == "" {
			products[i].CategoryName = UnknownCategory
			missing++
		}
	}
	if missing > 0 {
		r.log.Changes += missing
		r.record(ActionFillCategory, string(dataset.Products),
			fmt.Sprintf("Filled %d missing product categories with '%s'", missing, UnknownCategory))
	}

	for _, dim := range productDimensions {
		if n := imputeMissing(products, dim); n > 0 {
			r.log.Changes += n
			r.record(ActionImputeDimensions, string(dataset.Products),
				fmt.Sprintf("Imputed %d missing values in %s using category medians", n, dim.column))
		}
		if n := fixNonPositive(products, dim); n > 0 {
			r.log.Changes += n
			r.record(ActionFixDimensions, string(dataset.Products),
				fmt.Sprintf("Fixed %d invalid (<=0) values in %s", n, dim.column))
		}
	}
}

// imputeMissing fills nil values with the category median, then the
// overall median. It returns how many values were filled; a column with
// no values at all is left as is.
func imputeMissing(products []dataset.Product, dim dimension) int {
	byCategory := make(map[string][]float64)
	var all []float64
	missing := 0
	for i := range products {
		v := *dim.field(&products[i])
		if v == nil {
			missing++
			continue
		}
		byCategory[products[i].CategoryName] = append(byCategory[products[i].CategoryName], *v)
		all = append(all, *v)
	}
	if missing == 0 {
		return 0
	}

	overall, hasOverall := stats.Median(all)
	filled := 0
	for i := range products {
		f := dim.field(&products[i])
		if *f != nil {
			continue
		}
		if m, ok := stats.Median(byCategory[products[i].CategoryName]); ok {
			*f = dataset.Float(m)
		} else if hasOverall {
			*f = dataset.Float(overall)
		} else {
			continue
		}
		filled++
	}
	return filled
}

// fixNonPositive replaces values <= 0 with the category median of positive
// values, then the overall positive median. It returns how many values
// were replaced.
func fixNonPositive(products []dataset.Product, dim dimension) int {
	byCategory := make(map[string][]float64)
	var all []float64
	invalid := 0
	for i := range products {
		v := *dim.field(&products[i])
		switch {
		case v == nil:
		case *v <= 0:
			invalid++
		default:
			byCategory[products[i].CategoryName] = append(byCategory[products[i].CategoryName], *v)
			all = append(all, *v)
		}
	}
	if invalid == 0 {
		return 0
	}

	overall, hasOverall := stats.Median(all)
	fixed := 0
	for i := range products {
		f := dim.field(&products[i])
		if *f == nil || **f > 0 {
			continue
		}
		if m, ok := stats.Median(byCategory[products[i].CategoryName]); ok {
			*f = dataset.Float(m)
		} else if hasOverall {
			*f = dataset.Float(overall)
		} else {
			continue
		}
		fixed++
	}
	return fixed
}

// fixPayments replaces values <= 0 with the payment type median of
// positive values, then the overall positive median. Without any positive
// payment nothing is changed or recorded.
func (r *run) fixPayments() {
	byType := make(map[string][]float64)
	var all []float64
	invalid := 0
	for _, p := range r.ts.Payments {
		if p.Value <= 0 {
			invalid++
			continue
		}
		byType[p.Type] = append(byType[p.Type], p.Value)
		all = append(all, p.Value)
	}
	if invalid == 0 {
		return
	}

	overall, hasOverall := stats.Median(all)
	fixed := 0
	for i := range r.ts.Payments {
		p := &r.ts.Payments[i]
		if p.Value > 0 {
			continue
		}
		if m, ok := stats.Median(byType[p.Type]); ok {
			p.Value = m
		} else if hasOverall {
			p.Value = overall
		} else {
			continue
		}
		fixed++
	}
	if fixed == 0 {
		return
	}
	r.log.Changes += fixed
	r.record(ActionFixPayments, string(dataset.Payments),
		fmt.Sprintf("Fixed %d invalid (<=0) payment values", fixed))
}

func (r *run) removeDuplicates() {
	if r.ts.Has(dataset.Geolocation) {
		original := len(r.ts.Geolocation)
		exact := dedupe(r.ts.Geolocation, func(g dataset.GeoPoint) dataset.GeoPoint { return g })
		r.ts.Geolocation = dedupe(exact, func(g dataset.GeoPoint) string { return g.ZipCodePrefix })

		removed := original - len(r.ts.Geolocation)
		r.log.Changes += removed
		r.record(ActionRemoveDuplicates, string(dataset.Geolocation),
			fmt.Sprintf("Removed %s duplicate records (%.1f%%)",
				thousands(removed), stats.SafeDiv(float64(removed), float64(original))*100))
	}

	removeExact(r, dataset.Customers, &r.ts.Customers)
	removeExact(r, dataset.OrderItems, &r.ts.OrderItems)
	removeExact(r, dataset.Payments, &r.ts.Payments)
	removeExact(r, dataset.Reviews, &r.ts.Reviews)
	removeExact(r, dataset.Orders, &r.ts.Orders)
	removeExact(r, dataset.Products, &r.ts.Products)
	removeExact(r, dataset.Sellers, &r.ts.Sellers)
	removeExact(r, dataset.Categories, &r.ts.Categories)
}

// removeExact drops rows whose serialized form repeats an earlier row
func removeExact[T any](r *run, t dataset.Table, rows *[]T) {
	if !r.ts.Has(t) {
		return
	}
	records := r.ts.Records(t)
	seen := make(map[string]struct{}, len(records))
	kept := (*rows)[:0:0]
	for i, rec := range records {
		key := strings.Join(rec, "\x1f")
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, (*rows)[i])
	}
	removed := len(*rows) - len(kept)
	if removed == 0 {
		return
	}
	*rows = kept
	r.log.Changes += removed
	r.record(ActionRemoveDuplicates, string(t), fmt.Sprintf("Removed %d duplicate records", removed))
}

// dedupe keeps the first row for each key
func dedupe[T any, K comparable](rows []T, key func(T) K) []T {
	seen := make(map[K]struct{}, len(rows))
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		k := key(row)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, row)
	}
	return out
}

// convertTypes records the timestamp columns. Values were parsed when the
// tables were loaded; anything unparseable is already missing.
func (r *run) convertTypes() {
	columns := []struct {
		table dataset.Table
		cols  []string
	}{
		{dataset.Orders, []string{"order_purchase_timestamp", "order_approved_at", "order_delivered_carrier_date",
			"order_delivered_customer_date", "order_estimated_delivery_date"}},
		{dataset.OrderItems, []string{"shipping_limit_date"}},
		{dataset.Reviews, []string{"review_creation_date", "review_answer_timestamp"}},
	}
	for _, c := range columns {
		if !r.ts.Has(c.table) {
			continue
		}
		for _, col := range c.cols {
			r.record(ActionConvertDatetime, string(c.table),
				fmt.Sprintf("Converted %s from text to datetime", col))
		}
	}
}

// mergeCategories attaches the English category name. Categories without
// a translation keep their Portuguese name.
func (r *run) mergeCategories() {
	if !r.ts.Has(dataset.Products) || !r.ts.Has(dataset.Categories) {
		return
	}
	english := make(map[string]string, len(r.ts.Categories))
	for _, c := range r.ts.Categories {
		if _, ok := english[c.CategoryName]; !ok {
			english[c.CategoryName] = c.CategoryNameEnglish
		}
	}

	untranslated := 0
	for i := range r.ts.Products {
		p := &r.ts.Products[i]
		name, ok := english[p.CategoryName]
		if !ok || name == "" {
			name = p.CategoryName
			untranslated++
		}
		p.CategoryNameEnglish = name
	}
	if untranslated > 0 {
		r.record(ActionMissingTranslations, string(dataset.Products),
			fmt.Sprintf("Used Portuguese names as English translations for %d products", untranslated))
	}
	r.record(ActionMergeCategories, string(dataset.Products),
		fmt.Sprintf("Successfully merged category translations for %d products", len(r.ts.Products)))
}

func (r *run) derivedFeatures() {
	if r.ts.Has(dataset.Orders) {
		delivered := 0
		for i := range r.ts.Orders {
			o := &r.ts.Orders[i]
			o.DeliveryDays, o.DeliveryVsEstimateDays, o.OnTimeDelivery = nil, nil, nil
			if o.DeliveredCustomerDate != nil {
				o.DeliveryDays = dataset.Float(dataset.FloorDays(o.DeliveredCustomerDate.Sub(o.PurchaseTimestamp)))
				delivered++
				if o.EstimatedDeliveryDate != nil {
					vs := dataset.FloorDays(o.DeliveredCustomerDate.Sub(*o.EstimatedDeliveryDate))
					o.DeliveryVsEstimateDays = dataset.Float(vs)
					o.OnTimeDelivery = dataset.Bool(vs <= 0)
				}
			}

			at := o.PurchaseTimestamp
			o.Year = at.Year()
			o.Month = int(at.Month())
			o.DayOfWeek = (int(at.Weekday()) + 6) % 7
			o.Hour = at.Hour()
		}
		r.record(ActionDeliveryMetrics, string(dataset.Orders),
			fmt.Sprintf("Created delivery metrics for %d delivered orders", delivered))
		r.record(ActionTimeFeatures, string(dataset.Orders),
			"Created time-based features: year, month, day_of_week, hour")
	}

	if r.ts.Has(dataset.Products) {
		withDensity := 0
		for i := range r.ts.Products {
			p := &r.ts.Products[i]
			p.VolumeCM3, p.WeightVolumeRatio = nil, nil
			if p.LengthCM == nil || p.HeightCM == nil || p.WidthCM == nil {
				continue
			}
			vol := *p.LengthCM * *p.HeightCM * *p.WidthCM
			p.VolumeCM3 = dataset.Float(vol)
			if vol > 0 && p.WeightG != nil && *p.WeightG > 0 {
				p.WeightVolumeRatio = dataset.Float(*p.WeightG / vol)
				withDensity++
			}
		}
		r.record(ActionProductMetrics, string(dataset.Products),
			fmt.Sprintf("Created volume and density metrics for %d products", withDensity))
	}

	r.ts.Derived = true
}

func (r *run) validateForeignKeys() {
	r.log.ForeignKeys = dataset.CheckForeignKeys(r.ts)
	for _, fk := range r.log.ForeignKeys {
		details := "No child records"
		if fk.ChildUnique > 0 {
			details = fmt.Sprintf("Orphaned records: %d (%.2f%%)", fk.Orphaned, fk.OrphanedPct)
		}
		r.record(ActionValidateForeignKeys, string(fk.Parent)+"->"+string(fk.Child), details)
		if !fk.OK() {
			r.c.logger.WarnContext(r.ctx, "Foreign key violations found",
				slog.String("relationship", fk.Name()),
				slog.Int("orphaned", fk.Orphaned))
		}
	}
}

// thousands formats n with comma separators
func thousands(n int) string {
	if n < 0 {
		return "-" + thousands(-n)
	}
	s := fmt.Sprintf("%d", n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}
