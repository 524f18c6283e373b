package dataset

import (
	"time"
)

// Table names a source table of the Olist dataset
type Table string

const (
	Customers   Table = "customers"
	Geolocation Table = "geolocation"
	OrderItems  Table = "order_items"
	Payments    Table = "order_payments"
	Reviews     Table = "order_reviews"
	Orders      Table = "orders"
	Products    Table = "products"
	Sellers     Table = "sellers"
	Categories  Table = "product_categories"
)

// AllTables lists every table in load order
var AllTables = []Table{
	Customers, Geolocation, OrderItems, Payments, Reviews,
	Orders, Products, Sellers, Categories,
}

// SourceFiles maps each table to its raw CSV file name
var SourceFiles = map[Table]string{
	Customers:   "olist_customers_dataset.csv",
	Geolocation: "olist_geolocation_dataset.csv",
	OrderItems:  "olist_order_items_dataset.csv",
	Payments:    "olist_order_payments_dataset.csv",
	Reviews:     "olist_order_reviews_dataset.csv",
	Orders:      "olist_orders_dataset.csv",
	Products:    "olist_products_dataset.csv",
	Sellers:     "olist_sellers_dataset.csv",
	Categories:  "product_category_name_translation.csv",
}

// CleanedFiles maps each table to the file name written by the cleaner
func CleanedFiles() map[Table]string {
	m := make(map[Table]string, len(AllTables))
	for _, t := range AllTables {
		m[t] = "cleaned_" + string(t) + ".csv"
	}
	return m
}

// Order status values
const (
	StatusDelivered   = "delivered"
	StatusShipped     = "shipped"
	StatusCanceled    = "canceled"
	StatusUnavailable = "unavailable"
	StatusInvoiced    = "invoiced"
	StatusProcessing  = "processing"
	StatusCreated     = "created"
	StatusApproved    = "approved"
)

// Order is one row of the orders table. Optional timestamps are nil when
// missing. The derived block is filled by the cleaner.
type Order struct {
	OrderID               string
	CustomerID            string
	Status                string
	PurchaseTimestamp     time.Time
	ApprovedAt            *time.Time
	DeliveredCarrierDate  *time.Time
	DeliveredCustomerDate *time.Time
	EstimatedDeliveryDate *time.Time

	DeliveryDays           *float64
	DeliveryVsEstimateDays *float64
	OnTimeDelivery         *bool
	Year                   int
	Month                  int
	DayOfWeek              int // Monday=0 .. Sunday=6
	Hour                   int
}

// Customer is one row of the customers table. CustomerID is scoped to a
// single order; CustomerUniqueID identifies the person.
type Customer struct {
	CustomerID       string
	CustomerUniqueID string
	ZipCodePrefix    string
	City             string
	State            string
}

// OrderItem is one line of an order
type OrderItem struct {
	OrderID           string
	OrderItemID       int
	ProductID         string
	SellerID          string
	ShippingLimitDate *time.Time
	Price             float64
	FreightValue      float64
}

// Product is one row of the products table
type Product struct {
	ProductID           string
	CategoryName        string
	CategoryNameEnglish string
	NameLength          *float64
	DescriptionLength   *float64
	PhotosQty           *float64
	WeightG             *float64
	LengthCM            *float64
	HeightCM            *float64
	WidthCM             *float64

	VolumeCM3         *float64
	WeightVolumeRatio *float64
}

// Payment is one payment installment plan of an order
type Payment struct {
	OrderID      string
	Sequential   int
	Type         string
	Installments int
	Value        float64
}

// Review is one customer review. Empty comment strings mean no comment.
type Review struct {
	ReviewID        string
	OrderID         string
	Score           int
	CommentTitle    string
	CommentMessage  string
	CreationDate    *time.Time
	AnswerTimestamp *time.Time
}

// Seller is one row of the sellers table
type Seller struct {
	SellerID      string
	ZipCodePrefix string
	City          string
	State         string
}

// GeoPoint is one row of the geolocation table
type GeoPoint struct {
	ZipCodePrefix string
	Lat           float64
	Lng           float64
	City          string
	State         string
}

// CategoryTranslation maps a Portuguese category name to English
type CategoryTranslation struct {
	CategoryName        string
	CategoryNameEnglish string
}

// TableSet holds every loaded table. It is treated as immutable: stages
// receive a set and return a new one built with Clone. Pointer fields are
// never written through, only replaced, so sharing them between clones is
// safe.
type TableSet struct {
	Customers   []Customer
	Geolocation []GeoPoint
	OrderItems  []OrderItem
	Payments    []Payment
	Reviews     []Review
	Orders      []Order
	Products    []Product
	Sellers     []Seller
	Categories  []CategoryTranslation

	// Derived is set once the cleaner has filled the derived columns
	Derived bool

	loaded map[Table]bool
}

// NewTableSet returns an empty set with no tables marked as loaded
func NewTableSet() TableSet {
	return TableSet{loaded: make(map[Table]bool)}
}

// Has reports whether table t was loaded
func (ts TableSet) Has(t Table) bool {
	return ts.loaded[t]
}

// MarkLoaded flags table t as present
func (ts *TableSet) MarkLoaded(tables ...Table) {
	if ts.loaded == nil {
		ts.loaded = make(map[Table]bool)
	}
	for _, t := range tables {
		ts.loaded[t] = true
	}
}

// Loaded returns the loaded tables in canonical order
func (ts TableSet) Loaded() []Table {
	var out []Table
	for _, t := range AllTables {
		if ts.loaded[t] {
			out = append(out, t)
		}
	}
	return out
}

// Len returns the row count of table t
func (ts TableSet) Len(t Table) int {
	switch t {
	case Customers:
		return len(ts.Customers)
	case Geolocation:
		return len(ts.Geolocation)
	case OrderItems:
		return len(ts.OrderItems)
	case Payments:
		return len(ts.Payments)
	case Reviews:
		return len(ts.Reviews)
	case Orders:
		return len(ts.Orders)
	case Products:
		return len(ts.Products)
	case Sellers:
		return len(ts.Sellers)
	case Categories:
		return len(ts.Categories)
	}
	return 0
}

// Clone returns a copy whose slices can be modified without touching ts
func (ts TableSet) Clone() TableSet {
	out := TableSet{
		Customers:   append([]Customer(nil), ts.Customers...),
		Geolocation: append([]GeoPoint(nil), ts.Geolocation...),
		OrderItems:  append([]OrderItem(nil), ts.OrderItems...),
		Payments:    append([]Payment(nil), ts.Payments...),
		Reviews:     append([]Review(nil), ts.Reviews...),
		Orders:      append([]Order(nil), ts.Orders...),
		Products:    append([]Product(nil), ts.Products...),
		Sellers:     append([]Seller(nil), ts.Sellers...),
		Categories:  append([]CategoryTranslation(nil), ts.Categories...),
		Derived:     ts.Derived,
		loaded:      make(map[Table]bool, len(ts.loaded)),
	}
	for t, ok := range ts.loaded {
		out.loaded[t] = ok
	}
	return out
}
