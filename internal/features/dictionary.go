package features

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// Dictionary maps feature names to descriptions. Redefining a feature
// replaces its description but keeps its original position.
type Dictionary struct {
	names []string
	desc  map[string]string
}

// Set adds or replaces a feature description
func (d *Dictionary) Set(name, description string) {
	if d.desc == nil {
		d.desc = make(map[string]string)
	}
	if _, ok := d.desc[name]; !ok {
		d.names = append(d.names, name)
	}
	d.desc[name] = description
}

// Len returns the number of distinct features
func (d Dictionary) Len() int {
	return len(d.names)
}

// Description returns the description of name
func (d Dictionary) Description(name string) (string, bool) {
	s, ok := d.desc[name]
	return s, ok
}

// Names returns the feature names in definition order
func (d Dictionary) Names() []string {
	return append([]string(nil), d.names...)
}

// WriteText renders the dictionary as "name: description" lines
func (d Dictionary) WriteText(w io.Writer, generated time.Time) error {
	var b strings.Builder
	b.WriteString("# Feature Dictionary\n")
	fmt.Fprintf(&b, "# Generated on: %s\n\n", generated.Format("2006-01-02 15:04:05"))
	for _, n := range d.names {
		fmt.Fprintf(&b, "%s: %s\n", n, d.desc[n])
	}
	_, err := io.WriteString(w, b.String())
	return err
}

var (
	deliveryFeatures = [][2]string{
		{"delivery_days", "Number of days from purchase to delivery"},
		{"delivery_speed_category", "Categorical delivery speed classification"},
		{"delivery_vs_estimate_days", "Days difference between actual and estimated delivery"},
		{"on_time_delivery", "Boolean flag for on-time delivery performance"},
		{"delivery_accuracy", "Categorical delivery accuracy vs estimate"},
		{"processing_days", "Days from purchase to carrier pickup"},
		{"shipping_days", "Days from carrier pickup to customer delivery"},
		{"order_quarter", "Quarter of the year when order was placed"},
		{"order_day_name", "Day of the week name when order was placed"},
		{"order_week_of_year", "Week number of the year when order was placed"},
		{"is_weekend", "Boolean flag for weekend orders"},
		{"is_holiday_season", "Boolean flag for holiday season orders (Nov-Dec)"},
		{"is_carnival_season", "Boolean flag for carnival season orders (Feb-Mar)"},
		{"is_mothers_day_season", "Boolean flag for Mother's Day season orders (May)"},
		{"is_valentines_season", "Boolean flag for Valentine's Day season orders (June)"},
	}

	customerFeatures = [][2]string{
		{"total_orders", "Total number of orders placed by customer"},
		{"total_revenue", "Total monetary value of all customer orders"},
		{"avg_order_value", "Average monetary value per order"},
		{"days_since_last_order", "Number of days since customer's last order (Recency)"},
		{"customer_lifetime_days", "Number of days between first and last order"},
		{"order_frequency_per_month", "Average number of orders per month"},
		{"recency_score", "RFM Recency score (1-5, 5 being most recent)"},
		{"frequency_score", "RFM Frequency score (1-5, 5 being most frequent)"},
		{"monetary_score", "RFM Monetary score (1-5, 5 being highest value)"},
		{"rfm_score", "Combined RFM score (111-555)"},
		{"customer_segment", "Customer segment based on RFM analysis"},
		{"estimated_clv", "Estimated Customer Lifetime Value"},
		{"clv_category", "Customer value category (Low/Medium/High/VIP)"},
		{"customer_status", "Customer activity status (Active/Inactive/Churned)"},
		{"is_repeat_customer", "Boolean flag for customers with multiple orders"},
		{"avg_delivery_experience", "Average delivery days across the customer's orders"},
		{"delivery_reliability", "Share of the customer's orders delivered on time"},
	}

	productFeatures = [][2]string{
		{"unique_orders", "Number of unique orders containing this product"},
		{"total_quantity_sold", "Total quantity of product sold"},
		{"total_revenue", "Total revenue generated by product"},
		{"avg_price", "Average selling price of product"},
		{"revenue_per_order", "Average revenue per order containing this product"},
		{"avg_quantity_per_order", "Average quantity sold per order"},
		{"price_coefficient_variation", "Price variability indicator (std/mean)"},
		{"total_reviews", "Total number of reviews for product"},
		{"avg_review_score", "Average review score (1-5)"},
		{"review_comment_rate", "Percentage of reviews with written comments"},
		{"review_category", "Review quality category"},
		{"sales_performance", "Sales performance quartile"},
		{"revenue_performance", "Revenue performance quartile"},
		{"popularity_score", "Combined popularity score (0-1)"},
		{"product_lifecycle", "Product lifecycle stage"},
		{"category_sales_share", "Product's share of category sales"},
		{"category_revenue_share", "Product's share of category revenue"},
	}

	geographicFeatures = [][2]string{
		{"customer_count", "Number of customers in location"},
		{"seller_count", "Number of sellers in location"},
		{"total_orders", "Total orders from location"},
		{"orders_per_customer", "Average orders per customer in location"},
		{"total_revenue", "Total revenue from location"},
		{"avg_order_value", "Average order value in location"},
		{"customer_to_seller_ratio", "Ratio of customers to sellers"},
		{"revenue_per_customer", "Average revenue per customer"},
		{"market_opportunity_score", "Market expansion opportunity score (0-1)"},
		{"state_customers", "Total customers in state"},
		{"state_revenue_per_customer", "Average revenue per customer in state"},
		{"typical_delivery_speed", "Most common delivery speed category in location"},
	}

	seasonalFeatures = [][2]string{
		{"monthly_orders", "Number of orders per month"},
		{"monthly_revenue", "Total revenue per month"},
		{"monthly_customers", "Unique customers per month"},
		{"seasonal_variance", "Revenue variability coefficient for category"},
		{"seasonality_level", "Seasonality class of the category (Low to Very High)"},
		{"peak_to_trough_ratio", "Highest over lowest monthly category revenue"},
		{"category_orders", "Orders per category per month"},
		{"category_revenue", "Revenue per category per month"},
		{"event_type", "Brazilian cultural event type for month"},
	}

	forecastFeatures = [][2]string{
		{"predicted_revenue", "Random forest revenue forecast for the month"},
		{"predicted_orders", "Random forest order count forecast for the month"},
		{"revenue_lower_ci", "Lower bound of the 95% revenue interval"},
		{"revenue_upper_ci", "Upper bound of the 95% revenue interval"},
	}
)

func (d *Dictionary) setAll(entries [][2]string) {
	for _, e := range entries {
		d.Set(e[0], e[1])
	}
}

// datasetDescriptions is the trailing section of the inventory file
var datasetDescriptions = []string{
	"market_expansion.csv: Geographic analysis data for market expansion decisions",
	"customer_analytics.csv: Customer behavior and RFM analysis data",
	"seasonal_intelligence_*.csv: Seasonal patterns and demand forecasting data",
	"seasonal_forecast.csv: Three month revenue and order forecast",
	"payment_operations.csv: Payment behavior and operational metrics",
	"product_performance.csv: Product sales and performance analytics",
}

// WriteInventory renders the dataset inventory listing the saved files
func WriteInventory(w io.Writer, files []string, generated time.Time) error {
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	var b strings.Builder
	b.WriteString("# Feature-Engineered Datasets Inventory\n")
	fmt.Fprintf(&b, "# Generated on: %s\n\n", generated.Format("2006-01-02 15:04:05"))
	b.WriteString("## Available Datasets:\n\n")
	for _, f := range sorted {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	b.WriteString("\n## Dataset Descriptions:\n\n")
	for _, d := range datasetDescriptions {
		fmt.Fprintf(&b, "- %s\n", d)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
