package features

import (
	"olistcli/internal/dataset"
	"olistcli/internal/stats"
	"olistcli/pkg/contracts/domain"
)

var reviewEdges = []float64{0, 2, 3, 4, 5}

// Popularity weights sales volume, review volume and review quality.
// It is 0 when no product has sold or no product has been reviewed.
func Popularity(qty, maxQty, reviews, maxReviews, avgScore float64) float64 {
	if maxQty <= 0 || maxReviews <= 0 {
		return 0
	}
	return qty/maxQty*0.6 + reviews/maxReviews*0.2 + avgScore/5*0.2
}

// Lifecycle classifies a product by its sales and popularity
func Lifecycle(quantity, uniqueOrders int, popularity float64) string {
	switch {
	case quantity == 0:
		return domain.LifecycleNoSales
	case uniqueOrders <= 5:
		return domain.LifecycleIntroduction
	case popularity >= 0.7:
		return domain.LifecycleGrowth
	case popularity >= 0.3:
		return domain.LifecycleMaturity
	default:
		return domain.LifecycleDecline
	}
}

type productSales struct {
	orders  map[string]struct{}
	qty     int
	prices  []float64
	revenue money
	freight money
}

type productReviews struct {
	scores   []float64
	comments int
}

type categoryTotals struct {
	sales    int
	revenue  money
	reviews  []float64
	products int
}

// productPerformance builds one row per product in table order
func productPerformance(ts dataset.TableSet) []domain.ProductPerformance {
	sales := make(map[string]*productSales)
	orderProducts := make(map[string][]string)
	seenPair := make(map[[2]string]bool)
	for _, it := range ts.OrderItems {
		s, ok := sales[it.ProductID]
		if !ok {
			s = &productSales{orders: make(map[string]struct{})}
			sales[it.ProductID] = s
		}
		s.orders[it.OrderID] = struct{}{}
		s.qty++
		s.prices = append(s.prices, it.Price)
		s.revenue.addFloat(it.Price)
		s.freight.addFloat(it.FreightValue)

		pair := [2]string{it.OrderID, it.ProductID}
		if !seenPair[pair] {
			seenPair[pair] = true
			orderProducts[it.OrderID] = append(orderProducts[it.OrderID], it.ProductID)
		}
	}

	reviews := make(map[string]*productReviews)
	for _, rv := range ts.Reviews {
		for _, pid := range orderProducts[rv.OrderID] {
			r, ok := reviews[pid]
			if !ok {
				r = &productReviews{}
				reviews[pid] = r
			}
			r.scores = append(r.scores, float64(rv.Score))
			if rv.CommentMessage != "" {
				r.comments++
			}
		}
	}

	out := make([]domain.ProductPerformance, 0, len(ts.Products))
	for _, p := range ts.Products {
		row := domain.ProductPerformance{
			ProductID:           p.ProductID,
			CategoryName:        p.CategoryName,
			CategoryNameEnglish: p.CategoryNameEnglish,
			WeightG:             p.WeightG,
			VolumeCM3:           p.VolumeCM3,
		}
		if s, ok := sales[p.ProductID]; ok {
			row.UniqueOrders = len(s.orders)
			row.TotalQuantitySold = s.qty
			row.TotalRevenue = s.revenue.Sum()
			row.AvgPrice = s.revenue.Mean()
			row.PriceStd = stats.StdDev(s.prices)
			row.TotalFreight = s.freight.Sum()
			row.AvgFreight = s.freight.Mean()
			row.RevenuePerOrder = stats.SafeDiv(row.TotalRevenue, float64(row.UniqueOrders))
			row.AvgQuantityPerOrder = stats.SafeDiv(float64(row.TotalQuantitySold), float64(row.UniqueOrders))
			row.PriceCoefficientVariation = stats.SafeDiv(row.PriceStd, row.AvgPrice)
		}
		if r, ok := reviews[p.ProductID]; ok {
			row.TotalReviews = len(r.scores)
			row.AvgReviewScore = stats.Mean(r.scores)
			row.ReviewScoreStd = stats.StdDev(r.scores)
			row.ReviewsWithComments = r.comments
			row.ReviewCommentRate = stats.SafeDiv(float64(r.comments), float64(row.TotalReviews))
			row.ReviewCategory = label(stats.Cut(row.AvgReviewScore, reviewEdges), domain.ReviewCategoryLabels)
		}
		out = append(out, row)
	}

	scoreProducts(out)
	return out
}

// scoreProducts fills the quartile labels, popularity, lifecycle and the
// category shares
func scoreProducts(rows []domain.ProductPerformance) {
	if len(rows) == 0 {
		return
	}

	qty := make([]float64, len(rows))
	revenue := make([]float64, len(rows))
	reviews := make([]float64, len(rows))
	for i, r := range rows {
		qty[i] = float64(r.TotalQuantitySold)
		revenue[i] = r.TotalRevenue
		reviews[i] = float64(r.TotalReviews)
	}
	salesBins := stats.QCutRanked(stats.RankFirst(qty), 4)
	revenueBins := stats.QCutRanked(stats.RankFirst(revenue), 4)
	maxQty, maxReviews := stats.Max(qty), stats.Max(reviews)

	categories := make(map[string]*categoryTotals)
	for i := range rows {
		r := &rows[i]
		r.SalesPerformance = domain.SalesPerformanceLabels[salesBins[i]]
		r.RevenuePerformance = domain.RevenuePerformanceLabels[revenueBins[i]]
		r.PopularityScore = Popularity(qty[i], maxQty, reviews[i], maxReviews, r.AvgReviewScore)
		r.Lifecycle = Lifecycle(r.TotalQuantitySold, r.UniqueOrders, r.PopularityScore)

		if r.CategoryNameEnglish == "" {
			continue
		}
		c, ok := categories[r.CategoryNameEnglish]
		if !ok {
			c = &categoryTotals{}
			categories[r.CategoryNameEnglish] = c
		}
		c.sales += r.TotalQuantitySold
		c.revenue.addFloat(r.TotalRevenue)
		c.reviews = append(c.reviews, r.AvgReviewScore)
		c.products++
	}

	for i := range rows {
		r := &rows[i]
		c, ok := categories[r.CategoryNameEnglish]
		if !ok {
			continue
		}
		r.CategoryTotalSales = c.sales
		r.CategoryTotalRevenue = c.revenue.Sum()
		r.CategoryAvgReview = stats.Mean(c.reviews)
		r.CategoryProductCount = c.products
		r.CategorySalesShare = stats.SafeDiv(float64(r.TotalQuantitySold), float64(c.sales))
		r.CategoryRevenueShare = stats.SafeDiv(r.TotalRevenue, r.CategoryTotalRevenue)
	}
}
