package dataset

import (
	"fmt"
)

var baseHeaders = map[Table][]string{
	Customers:   {"customer_id", "customer_unique_id", "customer_zip_code_prefix", "customer_city", "customer_state"},
	Geolocation: {"geolocation_zip_code_prefix", "geolocation_lat", "geolocation_lng", "geolocation_city", "geolocation_state"},
	OrderItems:  {"order_id", "order_item_id", "product_id", "seller_id", "shipping_limit_date", "price", "freight_value"},
	Payments:    {"order_id", "payment_sequential", "payment_type", "payment_installments", "payment_value"},
	Reviews: {"review_id", "order_id", "review_score", "review_comment_title", "review_comment_message",
		"review_creation_date", "review_answer_timestamp"},
	Orders: {"order_id", "customer_id", "order_status", "order_purchase_timestamp", "order_approved_at",
		"order_delivered_carrier_date", "order_delivered_customer_date", "order_estimated_delivery_date"},
	Products: {"product_id", "product_category_name", "product_name_lenght", "product_description_lenght",
		"product_photos_qty", "product_weight_g", "product_length_cm", "product_height_cm", "product_width_cm"},
	Sellers:    {"seller_id", "seller_zip_code_prefix", "seller_city", "seller_state"},
	Categories: {"product_category_name", "product_category_name_english"},
}

var derivedHeaders = map[Table][]string{
	Orders: {"delivery_days", "delivery_vs_estimate_days", "on_time_delivery",
		"order_year", "order_month", "order_day_of_week", "order_hour"},
	Products: {"product_category_name_english", "product_volume_cm3", "weight_volume_ratio"},
}

// Header returns the column names of table t. Derived columns are appended
// when derived is true.
func Header(t Table, derived bool) []string {
	cols := append([]string(nil), baseHeaders[t]...)
	if derived {
		cols = append(cols, derivedHeaders[t]...)
	}
	return cols
}

// Records serializes table t in Header order. Missing values are empty
// strings.
func (ts TableSet) Records(t Table) [][]string {
	var out [][]string
	switch t {
	case Customers:
		out = make([][]string, 0, len(ts.Customers))
		for _, c := range ts.Customers {
			out = append(out, []string{c.CustomerID, c.CustomerUniqueID, c.ZipCodePrefix, c.City, c.State})
		}
	case Geolocation:
		out = make([][]string, 0, len(ts.Geolocation))
		for _, g := range ts.Geolocation {
			out = append(out, []string{g.ZipCodePrefix, ftoa(g.Lat), ftoa(g.Lng), g.City, g.State})
		}
	case OrderItems:
		out = make([][]string, 0, len(ts.OrderItems))
		for _, it := range ts.OrderItems {
			out = append(out, []string{it.OrderID, itoa(it.OrderItemID), it.ProductID, it.SellerID,
				formatTime(it.ShippingLimitDate), ftoa(it.Price), ftoa(it.FreightValue)})
		}
	case Payments:
		out = make([][]string, 0, len(ts.Payments))
		for _, p := range ts.Payments {
			out = append(out, []string{p.OrderID, itoa(p.Sequential), p.Type, itoa(p.Installments), ftoa(p.Value)})
		}
	case Reviews:
		out = make([][]string, 0, len(ts.Reviews))
		for _, r := range ts.Reviews {
			out = append(out, []string{r.ReviewID, r.OrderID, itoa(r.Score), r.CommentTitle, r.CommentMessage,
				formatTime(r.CreationDate), formatTime(r.AnswerTimestamp)})
		}
	case Orders:
		out = make([][]string, 0, len(ts.Orders))
		for _, o := range ts.Orders {
			rec := []string{o.OrderID, o.CustomerID, o.Status, o.PurchaseTimestamp.Format(TimeLayout),
				formatTime(o.ApprovedAt), formatTime(o.DeliveredCarrierDate),
				formatTime(o.DeliveredCustomerDate), formatTime(o.EstimatedDeliveryDate)}
			if ts.Derived {
				rec = append(rec, formatFloat(o.DeliveryDays), formatFloat(o.DeliveryVsEstimateDays),
					formatBool(o.OnTimeDelivery), itoa(o.Year), itoa(o.Month), itoa(o.DayOfWeek), itoa(o.Hour))
			}
			out = append(out, rec)
		}
	case Products:
		out = make([][]string, 0, len(ts.Products))
		for _, p := range ts.Products {
			rec := []string{p.ProductID, p.CategoryName, formatFloat(p.NameLength), formatFloat(p.DescriptionLength),
				formatFloat(p.PhotosQty), formatFloat(p.WeightG), formatFloat(p.LengthCM),
				formatFloat(p.HeightCM), formatFloat(p.WidthCM)}
			if ts.Derived {
				rec = append(rec, p.CategoryNameEnglish, formatFloat(p.VolumeCM3), formatFloat(p.WeightVolumeRatio))
			}
			out = append(out, rec)
		}
	case Sellers:
		out = make([][]string, 0, len(ts.Sellers))
		for _, s := range ts.Sellers {
			out = append(out, []string{s.SellerID, s.ZipCodePrefix, s.City, s.State})
		}
	case Categories:
		out = make([][]string, 0, len(ts.Categories))
		for _, c := range ts.Categories {
			out = append(out, []string{c.CategoryName, c.CategoryNameEnglish})
		}
	}
	return out
}

// appendRows parses records into table t of ts using the column positions
// in h. Orders with an unparseable purchase timestamp are rejected and
// counted.
func (ts *TableSet) appendRows(t Table, h header, rows [][]string) (rejected int, err error) {
	switch t {
	case Customers:
		for _, r := range rows {
			ts.Customers = append(ts.Customers, Customer{
				CustomerID:       h.str(r, "customer_id"),
				CustomerUniqueID: h.str(r, "customer_unique_id"),
				ZipCodePrefix:    h.str(r, "customer_zip_code_prefix"),
				City:             h.str(r, "customer_city"),
				State:            h.str(r, "customer_state"),
			})
		}
	case Geolocation:
		for _, r := range rows {
			ts.Geolocation = append(ts.Geolocation, GeoPoint{
				ZipCodePrefix: h.str(r, "geolocation_zip_code_prefix"),
				Lat:           h.floatOrZero(r, "geolocation_lat"),
				Lng:           h.floatOrZero(r, "geolocation_lng"),
				City:          h.str(r, "geolocation_city"),
				State:         h.str(r, "geolocation_state"),
			})
		}
	case OrderItems:
		for _, r := range rows {
			ts.OrderItems = append(ts.OrderItems, OrderItem{
				OrderID:           h.str(r, "order_id"),
				OrderItemID:       h.int(r, "order_item_id"),
				ProductID:         h.str(r, "product_id"),
				SellerID:          h.str(r, "seller_id"),
				ShippingLimitDate: h.time(r, "shipping_limit_date"),
				Price:             h.floatOrZero(r, "price"),
				FreightValue:      h.floatOrZero(r, "freight_value"),
			})
		}
	case Payments:
		for _, r := range rows {
			ts.Payments = append(ts.Payments, Payment{
				OrderID:      h.str(r, "order_id"),
				Sequential:   h.int(r, "payment_sequential"),
				Type:         h.str(r, "payment_type"),
				Installments: h.int(r, "payment_installments"),
				Value:        h.floatOrZero(r, "payment_value"),
			})
		}
	case Reviews:
		for _, r := range rows {
			ts.Reviews = append(ts.Reviews, Review{
				ReviewID:        h.str(r, "review_id"),
				OrderID:         h.str(r, "order_id"),
				Score:           h.int(r, "review_score"),
				CommentTitle:    h.str(r, "review_comment_title"),
				CommentMessage:  h.str(r, "review_comment_message"),
				CreationDate:    h.time(r, "review_creation_date"),
				AnswerTimestamp: h.time(r, "review_answer_timestamp"),
			})
		}
	case Orders:
		_, derived := h["delivery_days"]
		for _, r := range rows {
			purchase := h.time(r, "order_purchase_timestamp")
			if purchase == nil {
				rejected++
				continue
			}
			o := Order{
				OrderID:               h.str(r, "order_id"),
				CustomerID:            h.str(r, "customer_id"),
				Status:                h.str(r, "order_status"),
				PurchaseTimestamp:     *purchase,
				ApprovedAt:            h.time(r, "order_approved_at"),
				DeliveredCarrierDate:  h.time(r, "order_delivered_carrier_date"),
				DeliveredCustomerDate: h.time(r, "order_delivered_customer_date"),
				EstimatedDeliveryDate: h.time(r, "order_estimated_delivery_date"),
			}
			if derived {
				o.DeliveryDays = h.float(r, "delivery_days")
				o.DeliveryVsEstimateDays = h.float(r, "delivery_vs_estimate_days")
				o.OnTimeDelivery = h.boolean(r, "on_time_delivery")
				o.Year = h.int(r, "order_year")
				o.Month = h.int(r, "order_month")
				o.DayOfWeek = h.int(r, "order_day_of_week")
				o.Hour = h.int(r, "order_hour")
			}
			ts.Orders = append(ts.Orders, o)
		}
		if derived {
			ts.Derived = true
		}
	case Products:
		for _, r := range rows {
			ts.Products = append(ts.Products, Product{
				ProductID:           h.str(r, "product_id"),
				CategoryName:        h.str(r, "product_category_name"),
				CategoryNameEnglish: h.str(r, "product_category_name_english"),
				NameLength:          h.float(r, "product_name_lenght"),
				DescriptionLength:   h.float(r, "product_description_lenght"),
				PhotosQty:           h.float(r, "product_photos_qty"),
				WeightG:             h.float(r, "product_weight_g"),
				LengthCM:            h.float(r, "product_length_cm"),
				HeightCM:            h.float(r, "product_height_cm"),
				WidthCM:             h.float(r, "product_width_cm"),
				VolumeCM3:           h.float(r, "product_volume_cm3"),
				WeightVolumeRatio:   h.float(r, "weight_volume_ratio"),
			})
		}
	case Sellers:
		for _, r := range rows {
			ts.Sellers = append(ts.Sellers, Seller{
				SellerID:      h.str(r, "seller_id"),
				ZipCodePrefix: h.str(r, "seller_zip_code_prefix"),
				City:          h.str(r, "seller_city"),
				State:         h.str(r, "seller_state"),
			})
		}
	case Categories:
		for _, r := range rows {
			ts.Categories = append(ts.Categories, CategoryTranslation{
				CategoryName:        h.str(r, "product_category_name"),
				CategoryNameEnglish: h.str(r, "product_category_name_english"),
			})
		}
	default:
		return 0, fmt.Errorf("unknown table %q", t)
	}
	return rejected, nil
}
