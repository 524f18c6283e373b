package features

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"olistcli/internal/config"
	"olistcli/internal/dataset"
	"olistcli/pkg/contracts/domain"
)

// ErrNoOrders is returned when the orders table is missing or empty; no
// feature group can be built without it
var ErrNoOrders = errors.New("orders dataset not found")

// LogEntry is one line of the feature engineering log
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Dataset   string    `json:"dataset"`
	Details   string    `json:"details"`
}

// Result holds every master dataset built from one table set. A group
// whose source tables were not loaded is left empty.
type Result struct {
	AnalysisDate time.Time

	Orders           []domain.EnhancedOrder
	Customers        []domain.CustomerMetrics
	Products         []domain.ProductPerformance
	Locations        []domain.LocationMetrics
	MonthlyTrends    []domain.MonthlyTrend
	CategoryPatterns []domain.CategoryMonth
	SeasonalVariance []domain.CategoryVariance
	CulturalEvents   []domain.CulturalEvent
	Payments         []domain.PaymentOperation
	Forecast         []domain.ForecastPoint

	Dictionary Dictionary
	Log        []LogEntry
	Skipped    []string
}

// SetForecast attaches forecast rows and documents their columns
func (r *Result) SetForecast(points []domain.ForecastPoint) {
	r.Forecast = points
	if len(points) > 0 {
		r.Dictionary.setAll(forecastFeatures)
	}
}

// Engineer derives the master analytical datasets from a cleaned table set
type Engineer struct {
	cfg    config.FeaturesConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewEngineer creates a feature engineer. A nil logger uses slog.Default().
func NewEngineer(cfg config.FeaturesConfig, logger *slog.Logger) *Engineer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engineer{cfg: cfg, logger: logger, now: time.Now}
}

// Build creates every feature group the loaded tables allow. Missing
// optional tables skip the groups that need them.
func (e *Engineer) Build(ctx context.Context, ts dataset.TableSet) (*Result, error) {
	if !ts.Has(dataset.Orders) || len(ts.Orders) == 0 {
		return nil, ErrNoOrders
	}

	r := &Result{}
	e.logger.InfoContext(ctx, "Creating delivery performance features")
	r.Orders = enhanceOrders(ts.Orders)
	r.Dictionary.setAll(deliveryFeatures)
	e.record(ctx, r, "CREATE_DELIVERY_FEATURES", "orders",
		fmt.Sprintf("Created delivery performance and temporal features for %d orders", len(r.Orders)))

	values := orderValues(ts.OrderItems)

	steps := []struct {
		name  string
		needs []dataset.Table
		run   func()
	}{
		{"customer", []dataset.Table{dataset.OrderItems}, func() {
			r.Customers, r.AnalysisDate = customerMetrics(r.Orders, values, e.cfg)
			r.Dictionary.setAll(customerFeatures)
			e.record(ctx, r, "CREATE_CUSTOMER_FEATURES", "customer_metrics",
				fmt.Sprintf("Created customer behavior features for %d customers", len(r.Customers)))
		}},
		{"product", []dataset.Table{dataset.Products, dataset.OrderItems, dataset.Reviews}, func() {
			r.Products = productPerformance(ts)
			r.Dictionary.setAll(productFeatures)
			e.record(ctx, r, "CREATE_PRODUCT_FEATURES", "product_metrics",
				fmt.Sprintf("Created product performance features for %d products", len(r.Products)))
		}},
		{"geographic", []dataset.Table{dataset.Customers, dataset.Sellers, dataset.OrderItems}, func() {
			r.Locations = locationMetrics(ts, r.Orders, values)
			r.Dictionary.setAll(geographicFeatures)
			e.record(ctx, r, "CREATE_GEOGRAPHIC_FEATURES", "geographic_metrics",
				fmt.Sprintf("Created geographic features for %d locations", len(r.Locations)))
		}},
		{"seasonal", []dataset.Table{dataset.OrderItems, dataset.Products}, func() {
			r.MonthlyTrends = monthlyTrends(r.Orders, values)
			r.CategoryPatterns = categoryPatterns(ts, r.Orders)
			r.SeasonalVariance = seasonalVariance(r.CategoryPatterns)
			r.CulturalEvents = culturalEvents(r.Orders, values)
			r.Dictionary.setAll(seasonalFeatures)
			e.record(ctx, r, "CREATE_SEASONAL_FEATURES", "seasonal_metrics",
				fmt.Sprintf("Created seasonal features for %d months and %d categories",
					len(r.MonthlyTrends), len(r.SeasonalVariance)))
		}},
		{"payment", []dataset.Table{dataset.Payments}, func() {
			r.Payments = paymentOperations(ts, r.Orders)
			e.record(ctx, r, "CREATE_PAYMENT_FEATURES", "payment_operations",
				fmt.Sprintf("Joined payments and reviews onto %d orders", len(r.Payments)))
		}},
	}

	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if missing := missingTables(ts, s.needs); len(missing) > 0 {
			r.Skipped = append(r.Skipped, s.name)
			e.logger.WarnContext(ctx, "Skipping feature group",
				slog.String("group", s.name),
				slog.String("missing", strings.Join(missing, ",")))
			continue
		}
		s.run()
	}

	e.record(ctx, r, "CREATE_MASTER_DATASETS", "all_datasets",
		fmt.Sprintf("Created master analytical datasets with %d features", r.Dictionary.Len()))
	return r, nil
}

func (e *Engineer) record(ctx context.Context, r *Result, action, ds, details string) {
	r.Log = append(r.Log, LogEntry{Timestamp: e.now(), Action: action, Dataset: ds, Details: details})
	e.logger.InfoContext(ctx, "Feature action",
		slog.String("action", action),
		slog.String("dataset", ds),
		slog.String("details", details))
}

func missingTables(ts dataset.TableSet, needs []dataset.Table) []string {
	var out []string
	for _, t := range needs {
		if !ts.Has(t) {
			out = append(out, string(t))
		}
	}
	return out
}

// WriteReport renders the feature engineering summary
func (r *Result) WriteReport(w io.Writer, savedFiles []string, processed []dataset.Table, generated time.Time) error {
	names := make([]string, len(processed))
	for i, t := range processed {
		names[i] = string(t)
	}

	var b strings.Builder
	b.WriteString("# Feature Engineering Summary Report\n")
	fmt.Fprintf(&b, "Generated on: %s\n\n", generated.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Total features created: %d\n", r.Dictionary.Len())
	fmt.Fprintf(&b, "Master datasets created: %d\n", len(savedFiles))
	fmt.Fprintf(&b, "Datasets processed: %s\n", strings.Join(names, ", "))
	fmt.Fprintf(&b, "Files saved: %d\n\n", len(savedFiles))

	if len(r.Skipped) > 0 {
		fmt.Fprintf(&b, "Skipped feature groups: %s\n\n", strings.Join(r.Skipped, ", "))
	}

	b.WriteString("## Saved Dataset Files:\n")
	for _, f := range savedFiles {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	b.WriteString("\n## Feature Engineering Log:\n")
	for _, e := range r.Log {
		fmt.Fprintf(&b, "[%s] %s - %s: %s\n", e.Timestamp.Format(time.RFC3339), e.Action, e.Dataset, e.Details)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
