package domain

// Product lifecycle stages
const (
	LifecycleNoSales      = "No Sales"
	LifecycleIntroduction = "Introduction"
	LifecycleGrowth       = "Growth"
	LifecycleMaturity     = "Maturity"
	LifecycleDecline      = "Decline"
)

// Quartile labels for product performance
var (
	SalesPerformanceLabels   = []string{"Low Sales", "Medium Sales", "High Sales", "Top Seller"}
	RevenuePerformanceLabels = []string{"Low Revenue", "Medium Revenue", "High Revenue", "Top Revenue"}
	ReviewCategoryLabels     = []string{"Poor (1-2)", "Fair (2-3)", "Good (3-4)", "Excellent (4-5)"}
)

// ProductPerformance is one row of the product_performance master
type ProductPerformance struct {
	ProductID           string   `json:"product_id" csv:"product_id" validate:"required"`
	CategoryName        string   `json:"product_category_name" csv:"product_category_name"`
	CategoryNameEnglish string   `json:"product_category_name_english" csv:"product_category_name_english"`
	WeightG             *float64 `json:"product_weight_g,omitempty" csv:"product_weight_g"`
	VolumeCM3           *float64 `json:"product_volume_cm3,omitempty" csv:"product_volume_cm3"`

	UniqueOrders              int     `json:"unique_orders" csv:"unique_orders" validate:"min=0"`
	TotalQuantitySold         int     `json:"total_quantity_sold" csv:"total_quantity_sold" validate:"min=0"`
	TotalRevenue              float64 `json:"total_revenue" csv:"total_revenue" validate:"gte=0"`
	AvgPrice                  float64 `json:"avg_price" csv:"avg_price" validate:"gte=0"`
	PriceStd                  float64 `json:"price_std" csv:"price_std" validate:"gte=0"`
	TotalFreight              float64 `json:"total_freight" csv:"total_freight" validate:"gte=0"`
	AvgFreight                float64 `json:"avg_freight" csv:"avg_freight" validate:"gte=0"`
	RevenuePerOrder           float64 `json:"revenue_per_order" csv:"revenue_per_order" validate:"gte=0"`
	AvgQuantityPerOrder       float64 `json:"avg_quantity_per_order" csv:"avg_quantity_per_order" validate:"gte=0"`
	PriceCoefficientVariation float64 `json:"price_coefficient_variation" csv:"price_coefficient_variation" validate:"gte=0"`

	TotalReviews        int     `json:"total_reviews" csv:"total_reviews" validate:"min=0"`
	AvgReviewScore      float64 `json:"avg_review_score" csv:"avg_review_score" validate:"gte=0,lte=5"`
	ReviewScoreStd      float64 `json:"review_score_std" csv:"review_score_std" validate:"gte=0"`
	ReviewsWithComments int     `json:"reviews_with_comments" csv:"reviews_with_comments" validate:"min=0"`
	ReviewCommentRate   float64 `json:"review_comment_rate" csv:"review_comment_rate" validate:"gte=0,lte=1"`
	ReviewCategory      string  `json:"review_category,omitempty" csv:"review_category"`

	SalesPerformance   string  `json:"sales_performance" csv:"sales_performance" validate:"required"`
	RevenuePerformance string  `json:"revenue_performance" csv:"revenue_performance" validate:"required"`
	PopularityScore    float64 `json:"popularity_score" csv:"popularity_score" validate:"gte=0,lte=1"`
	Lifecycle          string  `json:"product_lifecycle" csv:"product_lifecycle" validate:"oneof='No Sales' Introduction Growth Maturity Decline"`

	CategoryTotalSales   int     `json:"category_total_sales" csv:"category_total_sales" validate:"min=0"`
	CategoryTotalRevenue float64 `json:"category_total_revenue" csv:"category_total_revenue" validate:"gte=0"`
	CategoryAvgReview    float64 `json:"category_avg_review" csv:"category_avg_review" validate:"gte=0,lte=5"`
	CategoryProductCount int     `json:"category_product_count" csv:"category_product_count" validate:"min=0"`
	CategorySalesShare   float64 `json:"category_sales_share" csv:"category_sales_share" validate:"gte=0,lte=1"`
	CategoryRevenueShare float64 `json:"category_revenue_share" csv:"category_revenue_share" validate:"gte=0,lte=1"`
}

// ProductPerformanceHeader lists the ProductPerformance columns
var ProductPerformanceHeader = []string{
	"product_id", "product_category_name", "product_category_name_english", "product_weight_g", "product_volume_cm3",
	"unique_orders", "total_quantity_sold", "total_revenue", "avg_price", "price_std", "total_freight", "avg_freight",
	"revenue_per_order", "avg_quantity_per_order", "price_coefficient_variation",
	"total_reviews", "avg_review_score", "review_score_std", "reviews_with_comments", "review_comment_rate",
	"review_category", "sales_performance", "revenue_performance", "popularity_score", "product_lifecycle",
	"category_total_sales", "category_total_revenue", "category_avg_review", "category_product_count",
	"category_sales_share", "category_revenue_share",
}

// Record implements Row
func (p ProductPerformance) Record() []string {
	return []string{
		p.ProductID, p.CategoryName, p.CategoryNameEnglish, fmtOptFloat(p.WeightG), fmtOptFloat(p.VolumeCM3),
		fmtInt(p.UniqueOrders), fmtInt(p.TotalQuantitySold), fmtFloat(p.TotalRevenue), fmtFloat(p.AvgPrice),
		fmtFloat(p.PriceStd), fmtFloat(p.TotalFreight), fmtFloat(p.AvgFreight),
		fmtFloat(p.RevenuePerOrder), fmtFloat(p.AvgQuantityPerOrder), fmtFloat(p.PriceCoefficientVariation),
		fmtInt(p.TotalReviews), fmtFloat(p.AvgReviewScore), fmtFloat(p.ReviewScoreStd), fmtInt(p.ReviewsWithComments),
		fmtFloat(p.ReviewCommentRate), p.ReviewCategory, p.SalesPerformance, p.RevenuePerformance,
		fmtFloat(p.PopularityScore), p.Lifecycle,
		fmtInt(p.CategoryTotalSales), fmtFloat(p.CategoryTotalRevenue), fmtFloat(p.CategoryAvgReview),
		fmtInt(p.CategoryProductCount), fmtFloat(p.CategorySalesShare), fmtFloat(p.CategoryRevenueShare),
	}
}
