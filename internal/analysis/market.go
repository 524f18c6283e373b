package analysis

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"olistcli/internal/config"
	"olistcli/internal/dataset"
	"olistcli/internal/stats"
	"olistcli/pkg/contracts/domain"
)

var (
	penetrationEdges  = []float64{0, 100, 1000, 5000, math.Inf(1)}
	penetrationLabels = []string{"Very Low", "Low", "Medium", "High"}

	deliveryEdges  = []float64{0, 10, 15, 20, 25, math.Inf(1)}
	deliveryLabels = []string{"Excellent (<10d)", "Good (10-15d)", "Average (15-20d)", "Poor (20-25d)", "Very Poor (>25d)"}
)

// seller shortage threshold in customers per seller
const shortageRatio = 50

// StateMarket is the expansion profile of one state
type StateMarket struct {
	State                  string   `json:"state"`
	Customers              int      `json:"customer_count"`
	Sellers                int      `json:"seller_count"`
	Orders                 int      `json:"total_orders"`
	Revenue                float64  `json:"total_revenue"`
	CitiesCount            int      `json:"cities_count"`
	MarketOpportunityScore float64  `json:"market_opportunity_score"`
	AvgDeliveryDays        *float64 `json:"avg_delivery_days,omitempty"`
	MedianDeliveryDays     *float64 `json:"median_delivery_days,omitempty"`
	DeliveryDaysStd        *float64 `json:"delivery_days_std,omitempty"`
	DeliveryCount          int      `json:"delivery_count"`
	OnTimeRate             *float64 `json:"on_time_rate,omitempty"`
	DeliveryCategory       string   `json:"delivery_performance_category,omitempty"`

	RevenuePerCustomer    float64 `json:"revenue_per_customer"`
	OrdersPerCustomer     float64 `json:"orders_per_customer"`
	CustomerToSellerRatio float64 `json:"customer_to_seller_ratio"`
	PenetrationLevel      string  `json:"penetration_level,omitempty"`

	StateProfile
	UrbanPopulation       float64 `json:"urban_population"`
	PenetrationRate       float64 `json:"penetration_rate"`
	BenchmarkPenetration  float64 `json:"benchmark_penetration"`
	UntappedCustomers     float64 `json:"untapped_customers"`
	EconomicFactor        float64 `json:"economic_factor"`
	AdjustedUntapped      float64 `json:"adjusted_untapped_customers"`
	UntappedRevenue       float64 `json:"untapped_revenue_potential"`
	MarketPotentialScore  float64 `json:"market_potential_score"`
	SellerShortage        bool    `json:"seller_shortage"`
	OptimalSellers        int     `json:"optimal_seller_count"`
	SellerGap             int     `json:"seller_gap"`
	SellerEfficiency      float64 `json:"seller_efficiency_score"`
	SellerOversupply      int     `json:"seller_oversupply"`
	DeliveryEfficiency    float64 `json:"delivery_efficiency_score"`
	MarketSizeScore       float64 `json:"market_size_score"`
	GrowthPotentialScore  float64 `json:"growth_potential_score"`
	OperationalScore      float64 `json:"operational_feasibility_score"`
	CompetitiveScore      float64 `json:"competitive_score"`
	CombinedScore         float64 `json:"combined_opportunity_score"`
	Priority              string  `json:"expansion_priority"`
	profileKnown          bool
	deliveryDaysFromTrips bool
}

// StateRecommendation is the action plan for one top opportunity state
type StateRecommendation struct {
	State             string   `json:"state"`
	Priority          string   `json:"priority"`
	OpportunityScore  float64  `json:"opportunity_score"`
	Customers         int      `json:"customers"`
	Sellers           int      `json:"sellers"`
	UntappedCustomers int      `json:"untapped_customers"`
	SellerGap         int      `json:"seller_gap"`
	AvgDeliveryDays   float64  `json:"avg_delivery_days"`
	Actions           []string `json:"recommendations"`
}

// LabelCount is one row of a value count
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// MarketReport is the market expansion analysis
type MarketReport struct {
	States               []StateMarket         `json:"states"`
	Recommendations      []StateRecommendation `json:"recommendations"`
	PriorityDistribution []LabelCount          `json:"priority_distribution"`
	NationalRPC          float64               `json:"national_revenue_per_customer"`
	PeriodStart          time.Time             `json:"period_start"`
	PeriodEnd            time.Time             `json:"period_end"`
	LocationRows         int                   `json:"location_rows"`
	insights             []Insight
}

// MarketAnalyzer scores Brazilian states for geographic expansion
type MarketAnalyzer struct {
	customersPerSeller int
}

// NewMarketAnalyzer creates a market analyzer. Optimal seller counts use
// cfg.CustomersPerSeller.
func NewMarketAnalyzer(cfg config.FeaturesConfig) *MarketAnalyzer {
	n := cfg.CustomersPerSeller
	if n <= 0 {
		n = 30
	}
	return &MarketAnalyzer{customersPerSeller: n}
}

// Name implements Analyzer
func (a *MarketAnalyzer) Name() string { return "market_expansion" }

// Analyze implements Analyzer. It needs the location master and the
// customers table.
func (a *MarketAnalyzer) Analyze(ctx context.Context, in Input) (Report, error) {
	if len(in.Features.Locations) == 0 {
		return nil, fmt.Errorf("%w: market expansion dataset", ErrMissingData)
	}
	if err := requireTables(in.Tables, dataset.Customers); err != nil {
		return nil, err
	}

	rep := &MarketReport{LocationRows: len(in.Features.Locations)}
	rep.PeriodStart, rep.PeriodEnd = purchaseRange(in.Features.Orders)

	states := summarizeStates(in.Features.Locations)
	rep.penetration(states)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rep.NationalRPC = untappedPotential(states)
	rep.untappedInsights(states)
	rep.sellerDistribution(states, a.customersPerSeller)
	applyDeliveryByState(states, in.Features.Orders, in.Tables.Customers)
	rep.deliveryInsights(states)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	scoreOpportunities(states)

	sort.SliceStable(states, func(i, j int) bool {
		if states[i].CombinedScore != states[j].CombinedScore {
			return states[i].CombinedScore > states[j].CombinedScore
		}
		return states[i].State < states[j].State
	})
	rep.States = states

	for _, s := range states[:min(10, len(states))] {
		rep.Recommendations = append(rep.Recommendations, StateRecommendation{
			State:             s.State,
			Priority:          s.Priority,
			OpportunityScore:  s.CombinedScore,
			Customers:         s.Customers,
			Sellers:           s.Sellers,
			UntappedCustomers: int(s.UntappedCustomers),
			SellerGap:         s.SellerGap,
			AvgDeliveryDays:   deref(s.AvgDeliveryDays),
			Actions:           StateActions(s),
		})
	}
	rep.PriorityDistribution = valueCounts(states, func(s StateMarket) string { return s.Priority })

	var top []string
	for _, r := range rep.Recommendations[:min(5, len(rep.Recommendations))] {
		top = append(top, r.State)
	}
	rep.add("Expansion Opportunities", "Top 5 expansion priority states: %s", strings.Join(top, ", "))
	var dist []string
	for _, p := range rep.PriorityDistribution {
		dist = append(dist, fmt.Sprintf("%s: %d", p.Label, p.Count))
	}
	rep.add("Expansion Opportunities", "Expansion priority distribution: %s", strings.Join(dist, ", "))
	return rep, nil
}

// summarizeStates rolls city rows up to one row per state. Input rows are
// sorted by state, so cities_count comes from the state's first row.
func summarizeStates(rows []domain.LocationMetrics) []StateMarket {
	type acc struct {
		s          StateMarket
		scores     []float64
		days, rate []float64
	}
	byState := make(map[string]*acc)
	var order []string
	for _, r := range rows {
		a, ok := byState[r.State]
		if !ok {
			a = &acc{s: StateMarket{State: r.State, CitiesCount: r.CitiesCount}}
			byState[r.State] = a
			order = append(order, r.State)
		}
		a.s.Customers += r.CustomerCount
		a.s.Sellers += r.SellerCount
		a.s.Orders += r.TotalOrders
		a.s.Revenue += r.TotalRevenue
		a.scores = append(a.scores, r.MarketOpportunityScore)
		if r.AvgDeliveryDays != nil {
			a.days = append(a.days, *r.AvgDeliveryDays)
		}
		if r.OnTimeRate != nil {
			a.rate = append(a.rate, *r.OnTimeRate)
		}
	}

	out := make([]StateMarket, 0, len(order))
	for _, st := range order {
		a := byState[st]
		s := a.s
		s.MarketOpportunityScore = stats.Mean(a.scores)
		if len(a.days) > 0 {
			s.AvgDeliveryDays = dataset.Float(stats.Mean(a.days))
		}
		if len(a.rate) > 0 {
			s.OnTimeRate = dataset.Float(stats.Mean(a.rate))
		}
		s.RevenuePerCustomer = stats.SafeDiv(s.Revenue, float64(s.Customers))
		s.OrdersPerCustomer = stats.SafeDiv(float64(s.Orders), float64(s.Customers))
		s.CustomerToSellerRatio = float64(s.Customers)
		if s.Sellers > 0 {
			s.CustomerToSellerRatio = float64(s.Customers) / float64(s.Sellers)
		}
		s.PenetrationLevel = label(stats.Cut(float64(s.Customers), penetrationEdges), penetrationLabels)
		out = append(out, s)
	}
	return out
}

func (r *MarketReport) penetration(states []StateMarket) {
	sort.SliceStable(states, func(i, j int) bool {
		return states[i].MarketOpportunityScore > states[j].MarketOpportunityScore
	})
	var top, low []string
	for i, s := range states {
		if i < 5 {
			top = append(top, s.State)
		}
		if s.PenetrationLevel == penetrationLabels[0] {
			low = append(low, s.State)
		}
	}
	r.add("Market Penetration", "Top 5 expansion opportunity states: %s", strings.Join(top, ", "))
	more := ""
	shown := low
	if len(low) > 10 {
		shown, more = low[:10], "..."
	}
	r.add("Market Penetration", "States with very low penetration (%d total): %s%s",
		len(low), strings.Join(shown, ", "), more)
}

// untappedPotential attaches census data and estimates the customers and
// revenue a state would gain by reaching its tier's penetration. It
// returns the national revenue per customer.
func untappedPotential(states []StateMarket) float64 {
	type tierSum struct{ customers, urban float64 }
	tiers := make(map[int]*tierSum)
	var gdps []float64
	var revenue, customers float64
	for i := range states {
		s := &states[i]
		revenue += s.Revenue
		customers += float64(s.Customers)
		p, ok := StateProfiles[s.State]
		if !ok {
			continue
		}
		s.StateProfile = p
		s.profileKnown = true
		s.UrbanPopulation = float64(p.Population) * p.UrbanRate
		s.PenetrationRate = stats.SafeDiv(float64(s.Customers), s.UrbanPopulation) * 1000
		t, ok := tiers[p.Tier]
		if !ok {
			t = &tierSum{}
			tiers[p.Tier] = t
		}
		t.customers += float64(s.Customers)
		t.urban += s.UrbanPopulation
		gdps = append(gdps, p.GDPPerCapita)
	}

	meanGDP := stats.Mean(gdps)
	rpc := stats.SafeDiv(revenue, customers)
	maxRevenue := 0.0
	for i := range states {
		s := &states[i]
		if !s.profileKnown {
			continue
		}
		t := tiers[s.Tier]
		s.BenchmarkPenetration = stats.SafeDiv(t.customers, t.urban) * 1000
		s.UntappedCustomers = math.Max(0, s.BenchmarkPenetration*s.UrbanPopulation/1000-float64(s.Customers))
		s.EconomicFactor = math.Min(2, stats.SafeDiv(s.GDPPerCapita, meanGDP))
		s.AdjustedUntapped = s.UntappedCustomers * s.EconomicFactor
		s.UntappedRevenue = s.AdjustedUntapped * rpc * s.EconomicFactor
		maxRevenue = math.Max(maxRevenue, s.UntappedRevenue)
	}
	for i := range states {
		states[i].MarketPotentialScore = stats.SafeDiv(states[i].UntappedRevenue, maxRevenue)
	}
	return rpc
}

func (r *MarketReport) untappedInsights(states []StateMarket) {
	total := 0.0
	for _, s := range states {
		total += s.UntappedRevenue
	}
	r.add("Untapped Potential", "Total untapped revenue potential: %s", brl(total))

	byUntapped := append([]StateMarket(nil), states...)
	sort.SliceStable(byUntapped, func(i, j int) bool {
		return byUntapped[i].UntappedCustomers > byUntapped[j].UntappedCustomers
	})
	r.add("Untapped Potential", "States with highest untapped customer potential: %s",
		strings.Join(stateNames(byUntapped, 5), ", "))
}

// sellerDistribution compares each state's sellers with the number its
// customer base supports
func (r *MarketReport) sellerDistribution(states []StateMarket, customersPerSeller int) {
	totalGap := 0
	for i := range states {
		s := &states[i]
		s.SellerShortage = s.CustomerToSellerRatio > shortageRatio
		s.OptimalSellers = int(math.Ceil(float64(s.Customers) / float64(customersPerSeller)))
		s.SellerGap = max(0, s.OptimalSellers-s.Sellers)
		s.SellerOversupply = max(0, s.Sellers-s.OptimalSellers)
		s.SellerEfficiency = 1
		if s.OptimalSellers > 0 {
			s.SellerEfficiency = math.Min(1, float64(s.Sellers)/float64(s.OptimalSellers))
		}
		totalGap += s.SellerGap
	}
	r.add("Seller Distribution", "Total seller gap across all states: %s additional sellers needed", count(totalGap))

	var shortage, oversupply []StateMarket
	for _, s := range states {
		if s.SellerShortage {
			shortage = append(shortage, s)
		}
		if s.SellerOversupply > 0 {
			oversupply = append(oversupply, s)
		}
	}
	if len(shortage) > 0 {
		sort.SliceStable(shortage, func(i, j int) bool {
			return shortage[i].CustomerToSellerRatio > shortage[j].CustomerToSellerRatio
		})
		r.add("Seller Distribution", "States with severe seller shortage (>%d:1 ratio): %s",
			shortageRatio, strings.Join(stateNames(shortage, 5), ", "))
	}
	if len(oversupply) > 0 {
		sort.SliceStable(oversupply, func(i, j int) bool {
			return oversupply[i].SellerOversupply > oversupply[j].SellerOversupply
		})
		r.add("Seller Distribution", "States with seller oversupply: %s", strings.Join(stateNames(oversupply, 3), ", "))
	}
}

// applyDeliveryByState measures delivery days per customer state from the
// order level data. Measured values replace the city averages where the
// state has deliveries.
func applyDeliveryByState(states []StateMarket, orders []domain.EnhancedOrder, customers []dataset.Customer) {
	stateOf := make(map[string]string, len(customers))
	for _, c := range customers {
		stateOf[c.CustomerID] = c.State
	}
	days := make(map[string][]float64)
	onTime := make(map[string][]float64)
	for _, o := range orders {
		st, ok := stateOf[o.CustomerID]
		if !ok {
			continue
		}
		if o.DeliveryDays != nil {
			days[st] = append(days[st], *o.DeliveryDays)
		}
		if o.OnTimeDelivery != nil {
			onTime[st] = append(onTime[st], boolToFloat(*o.OnTimeDelivery))
		}
	}

	maxDays := 0.0
	for i := range states {
		s := &states[i]
		if d := days[s.State]; len(d) > 0 {
			mean := stats.Mean(d)
			median, _ := stats.Median(d)
			s.AvgDeliveryDays = dataset.Float(mean)
			s.MedianDeliveryDays = dataset.Float(median)
			s.DeliveryDaysStd = dataset.Float(stats.StdDev(d))
			s.DeliveryCount = len(d)
			s.deliveryDaysFromTrips = true
		}
		if r := onTime[s.State]; len(r) > 0 {
			s.OnTimeRate = dataset.Float(stats.Mean(r))
		}
		if s.AvgDeliveryDays != nil {
			s.DeliveryCategory = label(stats.Cut(*s.AvgDeliveryDays, deliveryEdges), deliveryLabels)
			maxDays = math.Max(maxDays, *s.AvgDeliveryDays)
		}
	}
	for i := range states {
		s := &states[i]
		switch {
		case maxDays <= 0:
			s.DeliveryEfficiency = 1
		case s.AvgDeliveryDays != nil:
			s.DeliveryEfficiency = 1 - *s.AvgDeliveryDays/maxDays
		}
	}
}

func (r *MarketReport) deliveryInsights(states []StateMarket) {
	var withDays []StateMarket
	var days, rates []float64
	for _, s := range states {
		if s.AvgDeliveryDays != nil {
			withDays = append(withDays, s)
			days = append(days, *s.AvgDeliveryDays)
		}
		if s.OnTimeRate != nil {
			rates = append(rates, *s.OnTimeRate)
		}
	}
	if len(withDays) == 0 {
		return
	}
	r.add("Delivery Performance", "National average delivery time: %.1f days, on-time rate: %.1f%%",
		stats.Mean(days), stats.Mean(rates)*100)

	sort.SliceStable(withDays, func(i, j int) bool { return *withDays[i].AvgDeliveryDays < *withDays[j].AvgDeliveryDays })
	r.add("Delivery Performance", "Best delivery performance states: %s", strings.Join(stateNames(withDays, 5), ", "))

	worst := make([]StateMarket, len(withDays))
	for i, s := range withDays {
		worst[len(withDays)-1-i] = s
	}
	r.add("Delivery Performance", "States needing delivery improvement: %s", strings.Join(stateNames(worst, 5), ", "))
}

// scoreOpportunities computes the four sub-scores, the weighted combined
// score and the expansion priority of every state
func scoreOpportunities(states []StateMarket) {
	var maxPop, maxGDP, maxUntapped, maxPen, maxDays float64
	for _, s := range states {
		maxPop = math.Max(maxPop, float64(s.Population))
		maxGDP = math.Max(maxGDP, s.GDPPerCapita)
		maxUntapped = math.Max(maxUntapped, s.UntappedRevenue)
		maxPen = math.Max(maxPen, s.PenetrationRate)
		if s.AvgDeliveryDays != nil {
			maxDays = math.Max(maxDays, *s.AvgDeliveryDays)
		}
	}

	for i := range states {
		s := &states[i]
		s.MarketSizeScore = 0.6*stats.SafeDiv(float64(s.Population), maxPop) + 0.4*stats.SafeDiv(s.GDPPerCapita, maxGDP)

		growth := 0.0
		if maxPen > 0 {
			growth = 1 - s.PenetrationRate/maxPen
		}
		s.GrowthPotentialScore = 0.7*stats.SafeDiv(s.UntappedRevenue, maxUntapped) + 0.3*growth

		switch {
		case maxDays <= 0:
			s.OperationalScore = 0.6 + 0.4*s.UrbanRate
		case s.AvgDeliveryDays != nil:
			s.OperationalScore = 0.6*(1-*s.AvgDeliveryDays/maxDays) + 0.4*s.UrbanRate
		}

		s.CompetitiveScore = s.SellerEfficiency
		combined := 0.35*s.MarketSizeScore + 0.30*s.GrowthPotentialScore +
			0.20*s.OperationalScore + 0.15*s.CompetitiveScore
		s.CombinedScore = math.Min(1, math.Max(0, combined))

		s.Priority = PriorityUnknown
		if s.profileKnown {
			s.Priority = ExpansionPriority(s.Tier, s.CombinedScore, s.Population)
		}
	}
}

// StateActions returns the recommended actions for a state based on its
// tier, gaps, delivery times and income level
func StateActions(s StateMarket) []string {
	var out []string
	days := deref(s.AvgDeliveryDays)
	switch s.Tier {
	case 1:
		out = append(out, "Focus on market share optimization and premium services")
		if s.SellerGap > 50 {
			out = append(out, fmt.Sprintf("Scale seller network - recruit %d additional premium sellers", s.SellerGap))
		}
		if days > 10 {
			out = append(out, "Invest in same-day/next-day delivery infrastructure")
		}
	case 2:
		if s.UntappedRevenue > 5_000_000 {
			out = append(out, "HIGH PRIORITY: Launch comprehensive market entry strategy")
			out = append(out, fmt.Sprintf("Target market size: %.1fM people, GDP per capita: %s",
				float64(s.Population)/1e6, brl0(s.GDPPerCapita)))
		}
		if s.SellerGap > 20 {
			out = append(out, fmt.Sprintf("Recruit %d sellers through regional partnerships", s.SellerGap))
		}
		if s.PenetrationRate < 3 {
			out = append(out, "Launch aggressive customer acquisition campaign")
		}
	default:
		switch {
		case s.Population > 2_000_000 && s.UntappedRevenue > 2_000_000:
			out = append(out, "Consider selective market entry with local partnerships")
		case s.Population < 1_000_000:
			return append(out, "NOT RECOMMENDED: Market too small for profitable expansion")
		}
	}

	switch {
	case days > 25:
		out = append(out, "CRITICAL: Establish regional distribution center")
	case days > 15:
		out = append(out, "Improve logistics partnerships for faster delivery")
	}
	switch {
	case s.GDPPerCapita < 20000:
		out = append(out, "Focus on value-oriented products and flexible payment options")
	case s.GDPPerCapita > 40000:
		out = append(out, "Opportunity for premium products and services")
	}
	return out
}

func (r *MarketReport) add(category, format string, args ...any) {
	r.insights = append(r.insights, Insight{Category: category, Text: fmt.Sprintf(format, args...)})
}

// Name implements Report
func (r *MarketReport) Name() string { return "market_expansion" }

// Title implements Report
func (r *MarketReport) Title() string { return "Market Expansion Analysis" }

// Insights implements Report
func (r *MarketReport) Insights() []Insight { return r.insights }

// Charts implements Report
func (r *MarketReport) Charts() []Chart {
	byCustomers := append([]StateMarket(nil), r.States...)
	sort.SliceStable(byCustomers, func(i, j int) bool { return byCustomers[i].Customers > byCustomers[j].Customers })
	byUntapped := append([]StateMarket(nil), r.States...)
	sort.SliceStable(byUntapped, func(i, j int) bool { return byUntapped[i].UntappedRevenue > byUntapped[j].UntappedRevenue })
	byGap := append([]StateMarket(nil), r.States...)
	sort.SliceStable(byGap, func(i, j int) bool { return byGap[i].SellerGap > byGap[j].SellerGap })
	byRPC := append([]StateMarket(nil), r.States...)
	sort.SliceStable(byRPC, func(i, j int) bool { return byRPC[i].RevenuePerCustomer > byRPC[j].RevenuePerCustomer })

	var prioNames []string
	var prioCounts []float64
	for _, p := range r.PriorityDistribution {
		prioNames = append(prioNames, p.Label)
		prioCounts = append(prioCounts, float64(p.Count))
	}

	return []Chart{
		stateChart("Customer Count by State (Top 15)", ChartBar, byCustomers, 15, "Customers",
			func(s StateMarket) float64 { return float64(s.Customers) }),
		stateChart("Expansion Opportunity Score (Top 15)", ChartBar, r.States, 15, "Combined score",
			func(s StateMarket) float64 { return s.CombinedScore }),
		stateChart("Untapped Revenue Potential (Top 10)", ChartBar, byUntapped, 10, "Untapped revenue",
			func(s StateMarket) float64 { return s.UntappedRevenue }),
		{Title: "Expansion Priority Distribution", Kind: ChartPie, Categories: prioNames,
			Series: []Series{{Name: "States", Values: prioCounts}}},
		stateChart("Seller Gap by State (Top 10)", ChartBar, byGap, 10, "Seller gap",
			func(s StateMarket) float64 { return float64(s.SellerGap) }),
		stateChart("Revenue per Customer by State (Top 15)", ChartBar, byRPC, 15, "Revenue per customer",
			func(s StateMarket) float64 { return s.RevenuePerCustomer }),
	}
}

func stateChart(title string, kind ChartKind, states []StateMarket, n int, series string, v func(StateMarket) float64) Chart {
	c := Chart{Title: title, Kind: kind}
	values := make([]float64, 0, n)
	for _, s := range states[:min(n, len(states))] {
		c.Categories = append(c.Categories, s.State)
		values = append(values, v(s))
	}
	c.Series = []Series{{Name: series, Values: values}}
	return c
}

// WriteMarkdown implements Report
func (r *MarketReport) WriteMarkdown(w io.Writer, generated time.Time) error {
	md := newMarkdown(w)
	md.heading(1, "Market Expansion Analysis Report")
	md.line("Generated on: " + generated.Format(dataset.TimeLayout))
	md.blank()
	md.heading(2, "Executive Summary")
	md.line("Expansion opportunities across Brazilian states: underserved markets, seller")
	md.line("distribution efficiency and delivery performance, combined into a single")
	md.line("opportunity score per state.")
	md.blank()
	md.heading(3, "Key Findings")
	for _, in := range r.insights {
		md.printf("**%s:** %s\n\n", in.Category, in.Text)
	}

	high, medium := 0, 0
	for _, s := range r.States {
		switch s.Priority {
		case PriorityHigh:
			high++
		case PriorityMedium:
			medium++
		}
	}
	md.heading(2, "Detailed Analysis Results")
	md.heading(3, "Market Penetration Summary")
	md.bullet("Total states analyzed: %d", len(r.States))
	md.bullet("States with high expansion priority: %d", high)
	md.bullet("States with medium expansion priority: %d", medium)
	md.bullet("National revenue per customer: %s", brl(r.NationalRPC))
	md.blank()

	md.heading(3, "Top 10 Expansion Opportunities")
	var rows [][]string
	for i, s := range r.States[:min(10, len(r.States))] {
		rows = append(rows, []string{
			itoa(i + 1), s.State, f3(s.CombinedScore), s.Priority,
			count(s.Customers), count(s.Sellers), count(int(s.UntappedCustomers)),
		})
	}
	md.table([]string{"Rank", "State", "Opportunity Score", "Priority", "Customers", "Sellers", "Untapped Potential"}, rows)

	md.heading(3, "State Recommendations")
	for _, rec := range r.Recommendations {
		md.printf("**%s** (%s, score %.3f)\n\n", rec.State, rec.Priority, rec.OpportunityScore)
		for _, a := range rec.Actions {
			md.bullet("%s", a)
		}
		md.blank()
	}

	var withDays []StateMarket
	var days []float64
	for _, s := range r.States {
		if s.AvgDeliveryDays != nil {
			withDays = append(withDays, s)
			days = append(days, *s.AvgDeliveryDays)
		}
	}
	md.heading(3, "Delivery Performance Analysis")
	if len(withDays) > 0 {
		sort.SliceStable(withDays, func(i, j int) bool { return *withDays[i].AvgDeliveryDays < *withDays[j].AvgDeliveryDays })
		best, worst := withDays[0], withDays[len(withDays)-1]
		md.bullet("National average delivery time: %.1f days", stats.Mean(days))
		md.bullet("Best performing state: %s (%.1f days)", best.State, *best.AvgDeliveryDays)
		md.bullet("Worst performing state: %s (%.1f days)", worst.State, *worst.AvgDeliveryDays)
	} else {
		md.line("No delivered orders with delivery times were found.")
	}
	md.blank()

	md.heading(3, "Seller Distribution Analysis")
	totalGap := 0
	byGap := append([]StateMarket(nil), r.States...)
	for _, s := range r.States {
		totalGap += s.SellerGap
	}
	sort.SliceStable(byGap, func(i, j int) bool { return byGap[i].SellerGap > byGap[j].SellerGap })
	md.bullet("Total seller gap across all states: %s additional sellers needed", count(totalGap))
	md.bullet("States with largest seller gaps: %s", strings.Join(stateNames(byGap, 5), ", "))
	md.blank()

	md.heading(2, "Strategic Recommendations")
	md.heading(3, "Immediate Actions (Next 3 months)")
	md.numbered(1, "**Priority Market Entry**: Focus on the top 3 opportunity states with immediate market entry strategies")
	md.numbered(2, "**Seller Recruitment**: Launch targeted seller recruitment campaigns in underserved high-potential markets")
	md.numbered(3, "**Logistics Optimization**: Improve delivery infrastructure in states with poor delivery performance but high opportunity scores")
	md.blank()
	md.heading(3, "Medium-term Strategy (3-12 months)")
	md.numbered(1, "**Market Development**: Develop market entry strategies for medium-priority states")
	md.numbered(2, "**Partnership Development**: Establish local partnerships to improve penetration and delivery performance")
	md.numbered(3, "**Customer Acquisition**: Run targeted marketing campaigns in states with low penetration rates")
	md.blank()

	md.heading(2, "Methodology")
	if !r.PeriodStart.IsZero() {
		md.bullet("Analysis period: %s to %s", r.PeriodStart.Format("2006-01-02"), r.PeriodEnd.Format("2006-01-02"))
	}
	md.bullet("Penetration is customers per 1,000 urban inhabitants, benchmarked against the state's tier")
	md.bullet("Untapped revenue is scaled twice by the state's GDP per capita relative to the national mean (capped at 2x)")
	md.bullet("Optimal seller count assumes a fixed number of customers per seller")
	md.bullet("Population data are 2020 census estimates")
	md.blank()
	md.heading(2, "Data Quality Notes")
	md.bullet("Location rows analyzed: %s", count(r.LocationRows))
	measured := 0
	for _, s := range r.States {
		if s.deliveryDaysFromTrips {
			measured++
		}
	}
	md.bullet("States with measured delivery times: %d of %d", measured, len(r.States))
	return md.err
}

func stateNames(states []StateMarket, n int) []string {
	out := make([]string, 0, n)
	for _, s := range states[:min(n, len(states))] {
		out = append(out, s.State)
	}
	return out
}

// valueCounts counts labels, most frequent first and ties by label
func valueCounts[T any](rows []T, key func(T) string) []LabelCount {
	counts := make(map[string]int)
	for _, r := range rows {
		counts[key(r)]++
	}
	out := make([]LabelCount, 0, len(counts))
	for l, n := range counts {
		out = append(out, LabelCount{Label: l, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func purchaseRange(orders []domain.EnhancedOrder) (first, last time.Time) {
	for i, o := range orders {
		if i == 0 || o.PurchaseTimestamp.Before(first) {
			first = o.PurchaseTimestamp
		}
		if o.PurchaseTimestamp.After(last) {
			last = o.PurchaseTimestamp
		}
	}
	return first, last
}

func label(bin int, labels []string) string {
	if bin < 0 || bin >= len(labels) {
		return ""
	}
	return labels[bin]
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
