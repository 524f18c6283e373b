package cleaning

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"olistcli/internal/dataset"
	"olistcli/internal/shared/testutil"
	"olistcli/internal/stats"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestCleaner(t *testing.T) (*Cleaner, *testutil.LogCapture) {
	t.Helper()
	logger, capture := testutil.NewCaptureLogger()
	c := NewCleaner(logger)
	c.now = func() time.Time { return fixedNow }
	return c, capture
}

func findOrder(t *testing.T, ts dataset.TableSet, id string) dataset.Order {
	t.Helper()
	for _, o := range ts.Orders {
		if o.OrderID == id {
			return o
		}
	}
	t.Fatalf("order %s not found", id)
	return dataset.Order{}
}

func findProduct(t *testing.T, ts dataset.TableSet, id string) dataset.Product {
	t.Helper()
	for _, p := range ts.Products {
		if p.ProductID == id {
			return p
		}
	}
	t.Fatalf("product %s not found", id)
	return dataset.Product{}
}

func TestClean_MissingValues(t *testing.T) {
	c, _ := newTestCleaner(t)
	raw := testutil.SampleTables()

	cleaned, audit := c.Clean(context.Background(), raw)

	t.Run("delivered orders take the estimate", func(t *testing.T) {
		o := findOrder(t, cleaned, "order-012")
		require.NotNil(t, o.DeliveredCustomerDate)
		assert.Equal(t, *o.EstimatedDeliveryDate, *o.DeliveredCustomerDate)
		assert.True(t, audit.Has(ActionImputeDeliveryDate, "orders"))
	})

	t.Run("carrier date one day before delivery", func(t *testing.T) {
		o := findOrder(t, cleaned, "order-010")
		require.NotNil(t, o.DeliveredCarrierDate)
		assert.Equal(t, o.DeliveredCustomerDate.AddDate(0, 0, -1), *o.DeliveredCarrierDate)
	})

	t.Run("canceled orders keep missing dates", func(t *testing.T) {
		o := findOrder(t, cleaned, "order-014")
		assert.Nil(t, o.DeliveredCustomerDate)
		assert.Nil(t, o.DeliveredCarrierDate)
		assert.Nil(t, o.DeliveryDays)
	})

	t.Run("missing category becomes unknown", func(t *testing.T) {
		p := findProduct(t, cleaned, "prod-11")
		assert.Equal(t, UnknownCategory, p.CategoryName)
		assert.Equal(t, UnknownCategory, p.CategoryNameEnglish)
	})

	t.Run("missing weight takes category median", func(t *testing.T) {
		p := findProduct(t, cleaned, "prod-05")
		require.NotNil(t, p.WeightG)
		assert.Equal(t, 700.0, *p.WeightG)
	})

	t.Run("zero height takes positive category median", func(t *testing.T) {
		p := findProduct(t, cleaned, "prod-07")
		require.NotNil(t, p.HeightCM)
		assert.Equal(t, 13.0, *p.HeightCM)
	})

	t.Run("zero payment takes payment type median", func(t *testing.T) {
		var boleto []float64
		for _, p := range raw.Payments {
			if p.Type == "boleto" && p.Value > 0 {
				boleto = append(boleto, p.Value)
			}
		}
		want, ok := stats.Median(boleto)
		require.True(t, ok)
		assert.Equal(t, want, cleaned.Payments[17].Value)
	})

	t.Run("review comments are preserved", func(t *testing.T) {
		assert.True(t, audit.Has(ActionPreserveReviews, "order_reviews"))
		assert.Equal(t, raw.Reviews, cleaned.Reviews)
	})

	// 9 delivery dates, 10 carrier dates, 1 category, 1 weight, 1 height,
	// 1 payment and 18 geolocation rows
	assert.Equal(t, 41, audit.Changes)
}

func TestClean_DoesNotModifyInput(t *testing.T) {
	c, _ := newTestCleaner(t)
	raw := testutil.SampleTables()

	_, _ = c.Clean(context.Background(), raw)

	assert.Nil(t, findOrder(t, raw, "order-012").DeliveredCustomerDate)
	assert.Equal(t, "", findProduct(t, raw, "prod-11").CategoryName)
	assert.Nil(t, findProduct(t, raw, "prod-05").WeightG)
	assert.Zero(t, raw.Payments[17].Value)
	assert.Len(t, raw.Geolocation, 24)
	assert.False(t, raw.Derived)
}

func TestClean_DerivedFeatures(t *testing.T) {
	c, _ := newTestCleaner(t)
	cleaned, audit := c.Clean(context.Background(), testutil.SampleTables())
	require.True(t, cleaned.Derived)

	first := findOrder(t, cleaned, "order-000")
	require.NotNil(t, first.DeliveryDays)
	assert.Equal(t, 3.0, *first.DeliveryDays)
	require.NotNil(t, first.DeliveryVsEstimateDays)
	assert.Equal(t, -17.0, *first.DeliveryVsEstimateDays)
	require.NotNil(t, first.OnTimeDelivery)
	assert.True(t, *first.OnTimeDelivery)
	assert.Equal(t, 2017, first.Year)
	assert.Equal(t, 1, first.Month)
	assert.Equal(t, 3, first.DayOfWeek, "2017-01-05 is a Thursday")
	assert.Equal(t, 10, first.Hour)

	imputed := findOrder(t, cleaned, "order-012")
	require.NotNil(t, imputed.DeliveryVsEstimateDays)
	assert.Equal(t, 0.0, *imputed.DeliveryVsEstimateDays)
	assert.True(t, *imputed.OnTimeDelivery)

	p := findProduct(t, cleaned, "prod-00")
	require.NotNil(t, p.VolumeCM3)
	assert.Equal(t, 16.0*10.0*11.0, *p.VolumeCM3)
	require.NotNil(t, p.WeightVolumeRatio)
	assert.InDelta(t, 200.0/1760.0, *p.WeightVolumeRatio, 1e-12)
	assert.Equal(t, "health_beauty", p.CategoryNameEnglish)

	for _, a := range []Action{ActionDeliveryMetrics, ActionTimeFeatures, ActionProductMetrics, ActionMergeCategories} {
		assert.True(t, hasAction(audit, a), a)
	}
}

func hasAction(a AuditLog, action Action) bool {
	for _, e := range a.Entries {
		if e.Action == action {
			return true
		}
	}
	return false
}

func TestClean_IsIdempotent(t *testing.T) {
	c, _ := newTestCleaner(t)
	once, first := c.Clean(context.Background(), testutil.SampleTables())
	require.Greater(t, first.Changes, 0)

	twice, second := c.Clean(context.Background(), once)

	assert.Zero(t, second.Changes)
	for _, a := range []Action{ActionImputeDeliveryDate, ActionImputeCarrierDate, ActionFillCategory,
		ActionImputeDimensions, ActionFixDimensions, ActionFixPayments} {
		assert.False(t, hasAction(second, a), "second pass logged %s", a)
	}
	assert.Equal(t, once.Orders, twice.Orders)
	assert.Equal(t, once.Products, twice.Products)
	assert.Equal(t, once.Payments, twice.Payments)
	assert.Equal(t, once.Geolocation, twice.Geolocation)
}

func TestClean_UnfillableColumnsAreNotCounted(t *testing.T) {
	ts := dataset.NewTableSet()
	for _, id := range []string{"prod-a", "prod-b"} {
		ts.Products = append(ts.Products, dataset.Product{
			ProductID:         id,
			CategoryName:      "cama_mesa_banho",
			NameLength:        dataset.Float(40),
			DescriptionLength: dataset.Float(300),
			PhotosQty:         dataset.Float(2),
			LengthCM:          dataset.Float(20),
			HeightCM:          dataset.Float(0),
			WidthCM:           dataset.Float(15),
		})
	}
	ts.Payments = []dataset.Payment{
		{OrderID: "order-a", Sequential: 1, Type: "voucher", Installments: 1, Value: 0},
		{OrderID: "order-b", Sequential: 1, Type: "boleto", Installments: 1, Value: -3},
	}
	ts.MarkLoaded(dataset.Products, dataset.Payments)

	c, _ := newTestCleaner(t)
	once, first := c.Clean(context.Background(), ts)
	twice, second := c.Clean(context.Background(), once)

	for _, audit := range []AuditLog{first, second} {
		assert.Zero(t, audit.Changes)
		assert.False(t, hasAction(audit, ActionImputeDimensions))
		assert.False(t, hasAction(audit, ActionFixDimensions))
		assert.False(t, hasAction(audit, ActionFixPayments))
	}
	for _, p := range twice.Products {
		assert.Nil(t, p.WeightG, "no weight to take a median from")
		require.NotNil(t, p.HeightCM)
		assert.Zero(t, *p.HeightCM)
	}
	assert.Equal(t, ts.Payments, twice.Payments)
}

func TestClean_GeolocationDuplicates(t *testing.T) {
	ts := dataset.NewTableSet()
	for i := 0; i < 740; i++ {
		ts.Geolocation = append(ts.Geolocation, dataset.GeoPoint{
			ZipCodePrefix: fmt.Sprintf("%05d", 1000+i%50),
			Lat:           -20 - float64(i)*0.001,
			Lng:           -45 - float64(i)*0.001,
			City:          "cidade",
			State:         "SP",
		})
	}
	for i := 0; i < 260; i++ {
		ts.Geolocation = append(ts.Geolocation, ts.Geolocation[i%740])
	}
	ts.MarkLoaded(dataset.Geolocation)
	require.Len(t, ts.Geolocation, 1000)

	c, _ := newTestCleaner(t)
	cleaned, audit := c.Clean(context.Background(), ts)

	assert.LessOrEqual(t, len(cleaned.Geolocation), 50)
	assert.Len(t, cleaned.Geolocation, 50)
	assert.Equal(t, ts.Geolocation[0], cleaned.Geolocation[0], "first occurrence per zip is kept")
	assert.Equal(t, 950, audit.Changes)

	require.True(t, audit.Has(ActionRemoveDuplicates, "geolocation"))
	for _, e := range audit.Entries {
		if e.Action == ActionRemoveDuplicates {
			assert.Equal(t, "Removed 950 duplicate records (95.0%)", e.Details)
		}
	}
}

func TestClean_ExactDuplicatesInOtherTables(t *testing.T) {
	ts := testutil.SampleTables()
	ts.Sellers = append(ts.Sellers, ts.Sellers[0], ts.Sellers[1])

	c, _ := newTestCleaner(t)
	cleaned, audit := c.Clean(context.Background(), ts)

	assert.Len(t, cleaned.Sellers, 4)
	assert.True(t, audit.Has(ActionRemoveDuplicates, "sellers"))
	assert.False(t, audit.Has(ActionRemoveDuplicates, "customers"))
}

func TestClean_SkipsAbsentTables(t *testing.T) {
	full := testutil.SampleTables()
	ts := dataset.NewTableSet()
	ts.Orders = full.Orders
	ts.MarkLoaded(dataset.Orders)

	c, _ := newTestCleaner(t)
	cleaned, audit := c.Clean(context.Background(), ts)

	assert.Equal(t, []dataset.Table{dataset.Orders}, cleaned.Loaded())
	assert.Empty(t, audit.ForeignKeys)
	assert.False(t, hasAction(audit, ActionMergeCategories))
	assert.Len(t, audit.SizeChanges, 1)
}

func TestClean_ForeignKeyReport(t *testing.T) {
	ts := testutil.SampleTables()
	ts.Reviews = append(ts.Reviews, dataset.Review{ReviewID: "r-ghost", OrderID: "ghost-order", Score: 3})

	c, capture := newTestCleaner(t)
	_, audit := c.Clean(context.Background(), ts)

	require.Len(t, audit.ForeignKeys, len(dataset.Relationships))
	var bad []string
	for _, fk := range audit.ForeignKeys {
		if !fk.OK() {
			bad = append(bad, fk.Name())
		}
	}
	assert.Equal(t, []string{"orders_order_reviews"}, bad)
	assert.True(t, audit.Has(ActionValidateForeignKeys, "orders->order_reviews"))
	assert.True(t, capture.Contains(slog.LevelWarn, "Foreign key violations"))
}

func TestAuditLog_Report(t *testing.T) {
	c, _ := newTestCleaner(t)
	_, audit := c.Clean(context.Background(), testutil.SampleTables())

	report := audit.Report(fixedNow)

	assert.True(t, strings.HasPrefix(report, reportRule+"\nDATA CLEANING REPORT\n"))
	assert.Contains(t, report, "Generated on: 2024-03-01 12:00:00")
	assert.Contains(t, report, "CLEANING ACTIONS SUMMARY:")
	assert.Contains(t, report, "   - VALIDATE_FOREIGN_KEYS: 6 operations")
	assert.Contains(t, report, "   - geolocation: 24 -> 6 rows")
	assert.Contains(t, report, "   - orders_order_payments: GOOD (0 orphaned records)")
	assert.Contains(t, report, "DETAILED ACTION LOG:")
	assert.Contains(t, report, "Removed 18 duplicate records (75.0%)")
}

func TestThousands(t *testing.T) {
	assert.Equal(t, "0", thousands(0))
	assert.Equal(t, "999", thousands(999))
	assert.Equal(t, "1,000", thousands(1000))
	assert.Equal(t, "261,831", thousands(261831))
	assert.Equal(t, "-1,234,567", thousands(-1234567))
}
