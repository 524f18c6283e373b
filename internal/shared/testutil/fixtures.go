package testutil

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"olistcli/internal/dataset"
)

// SampleOrderCount is the number of orders in SampleTables
const SampleOrderCount = 120

var sampleLocations = []struct {
	state, city, zip string
}{
	{"SP", "sao paulo", "01001"},
	{"RJ", "rio de janeiro", "20010"},
	{"MG", "belo horizonte", "30110"},
	{"BA", "salvador", "40010"},
	{"RS", "porto alegre", "90010"},
	{"PR", "curitiba", "80010"},
}

var sampleCategories = []dataset.CategoryTranslation{
	{CategoryName: "beleza_saude", CategoryNameEnglish: "health_beauty"},
	{CategoryName: "informatica_acessorios", CategoryNameEnglish: "computers_accessories"},
	{CategoryName: "moveis_decoracao", CategoryNameEnglish: "furniture_decor"},
	{CategoryName: "esporte_lazer", CategoryNameEnglish: "sports_leisure"},
}

var samplePaymentTypes = []string{"credit_card", "boleto", "voucher", "debit_card"}

// SampleStart is the purchase timestamp of the first sample order
var SampleStart = time.Date(2017, 1, 5, 10, 30, 0, 0, time.UTC)

// SampleTables returns a small deterministic Olist dataset: 120 orders
// spread over twenty months, six states, four categories and four sellers.
// Every tenth order reuses the customer of the previous order so repeat
// customers exist. Some values are deliberately missing or invalid so the
// cleaner has work to do.
func SampleTables() dataset.TableSet {
	ts := dataset.NewTableSet()

	for i, loc := range sampleLocations[:4] {
		ts.Sellers = append(ts.Sellers, dataset.Seller{
			SellerID:      fmt.Sprintf("seller-%02d", i),
			ZipCodePrefix: loc.zip,
			City:          loc.city,
			State:         loc.state,
		})
	}

	for i := 0; i < 12; i++ {
		cat := sampleCategories[i%len(sampleCategories)]
		p := dataset.Product{
			ProductID:         fmt.Sprintf("prod-%02d", i),
			CategoryName:      cat.CategoryName,
			NameLength:        dataset.Float(float64(40 + i)),
			DescriptionLength: dataset.Float(float64(300 + 10*i)),
			PhotosQty:         dataset.Float(float64(1 + i%4)),
			WeightG:           dataset.Float(float64(200 + 100*i)),
			LengthCM:          dataset.Float(float64(16 + i)),
			HeightCM:          dataset.Float(float64(10 + i%5)),
			WidthCM:           dataset.Float(float64(11 + i%7)),
		}
		switch i {
		case 5:
			p.WeightG = nil
		case 7:
			p.HeightCM = dataset.Float(0)
		case 11:
			p.CategoryName = ""
		}
		ts.Products = append(ts.Products, p)
	}

	ts.Categories = append(ts.Categories, sampleCategories...)

	for i := 0; i < SampleOrderCount; i++ {
		loc := sampleLocations[i%len(sampleLocations)]
		customerID := fmt.Sprintf("cust-%03d", i)
		if i%10 == 9 {
			customerID = fmt.Sprintf("cust-%03d", i-1)
		} else {
			ts.Customers = append(ts.Customers, dataset.Customer{
				CustomerID:       customerID,
				CustomerUniqueID: fmt.Sprintf("uniq-%03d", i%80),
				ZipCodePrefix:    loc.zip,
				City:             loc.city,
				State:            loc.state,
			})
		}

		orderID := fmt.Sprintf("order-%03d", i)
		purchase := SampleStart.AddDate(0, 0, 5*i).Add(time.Duration(i%9) * time.Hour)
		estimated := purchase.AddDate(0, 0, 20)
		o := dataset.Order{
			OrderID:               orderID,
			CustomerID:            customerID,
			Status:                dataset.StatusDelivered,
			PurchaseTimestamp:     purchase,
			ApprovedAt:            dataset.Time(purchase.Add(2 * time.Hour)),
			DeliveredCarrierDate:  dataset.Time(purchase.AddDate(0, 0, 2)),
			DeliveredCustomerDate: dataset.Time(purchase.AddDate(0, 0, 3+(i*7)%30)),
			EstimatedDeliveryDate: dataset.Time(estimated),
		}
		switch {
		case i%15 == 14:
			o.Status = dataset.StatusCanceled
			o.DeliveredCarrierDate = nil
			o.DeliveredCustomerDate = nil
		case i%13 == 12:
			// delivered but the customer date was never recorded
			o.DeliveredCustomerDate = nil
		case i%11 == 10:
			o.DeliveredCarrierDate = nil
		}
		ts.Orders = append(ts.Orders, o)

		items := 1 + i%2
		total := 0.0
		for k := 0; k < items; k++ {
			price := float64(50+(i*13+k*29)%200) + 0.9
			freight := float64(10+(i+k)%15) + 0.5
			total += price + freight
			ts.OrderItems = append(ts.OrderItems, dataset.OrderItem{
				OrderID:           orderID,
				OrderItemID:       k + 1,
				ProductID:         fmt.Sprintf("prod-%02d", (i+k*5)%12),
				SellerID:          fmt.Sprintf("seller-%02d", (i+k)%4),
				ShippingLimitDate: dataset.Time(purchase.AddDate(0, 0, 6)),
				Price:             price,
				FreightValue:      freight,
			})
		}

		ptype := samplePaymentTypes[i%len(samplePaymentTypes)]
		installments := 1
		if ptype == "credit_card" {
			installments = 1 + i%10
		}
		value := total
		if i == 17 {
			value = 0
		}
		ts.Payments = append(ts.Payments, dataset.Payment{
			OrderID:      orderID,
			Sequential:   1,
			Type:         ptype,
			Installments: installments,
			Value:        value,
		})

		r := dataset.Review{
			ReviewID:     fmt.Sprintf("review-%03d", i),
			OrderID:      orderID,
			Score:        1 + (i*3+2)%5,
			CreationDate: dataset.Time(purchase.AddDate(0, 0, 10)),
		}
		if i%3 == 0 {
			r.CommentMessage = "chegou antes do prazo"
		}
		ts.Reviews = append(ts.Reviews, r)
	}

	for i, loc := range sampleLocations {
		for k := 0; k < 3; k++ {
			ts.Geolocation = append(ts.Geolocation, dataset.GeoPoint{
				ZipCodePrefix: loc.zip,
				Lat:           -23.5 + float64(i) + 0.01*float64(k),
				Lng:           -46.6 + float64(i),
				City:          loc.city,
				State:         loc.state,
			})
		}
		// exact duplicate of the first point
		ts.Geolocation = append(ts.Geolocation, ts.Geolocation[len(ts.Geolocation)-3])
	}

	ts.MarkLoaded(dataset.AllTables...)
	return ts
}

// WriteRawCSV writes every loaded table of ts to dir using the raw file names
func WriteRawCSV(t testing.TB, dir string, ts dataset.TableSet) {
	t.Helper()
	for _, table := range ts.Loaded() {
		WriteCSV(t, filepath.Join(dir, dataset.SourceFiles[table]),
			dataset.Header(table, false), ts.Records(table))
	}
}

// WriteCSV writes a header and rows to path, creating its directory
func WriteCSV(t testing.TB, path string, header []string, rows [][]string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("create dir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write rows: %v", err)
	}
}
