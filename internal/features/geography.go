package features

import (
	"sort"

	"olistcli/internal/dataset"
	"olistcli/internal/stats"
	"olistcli/pkg/contracts/domain"
)

type cityKey struct {
	state string
	city  string
}

type cityAgg struct {
	customers      int
	sellers        int
	orders         int
	orderCustomers map[string]struct{}
	revenue        money
	delivery       []float64
	onTime         []float64
	speeds         []string
}

// OpportunityScore rewards low current penetration (60%) and high revenue
// per customer (40%). Either maximum being zero yields 0.
func OpportunityScore(customers, maxCustomers, revenuePerCustomer, maxRevenuePerCustomer float64) float64 {
	if maxCustomers <= 0 || maxRevenuePerCustomer <= 0 {
		return 0
	}
	return (1-customers/maxCustomers)*0.6 + revenuePerCustomer/maxRevenuePerCustomer*0.4
}

// customerToSellerRatio falls back to the customer count when a location
// has no sellers
func customerToSellerRatio(customers, sellers int) float64 {
	if sellers > 0 {
		return float64(customers) / float64(sellers)
	}
	return float64(customers)
}

// locationMetrics builds the market_expansion rows: one per (state, city)
// seen among customers or sellers, sorted by state then city
func locationMetrics(ts dataset.TableSet, orders []domain.EnhancedOrder, values map[string]orderValue) []domain.LocationMetrics {
	cities := make(map[cityKey]*cityAgg)
	get := func(k cityKey) *cityAgg {
		a, ok := cities[k]
		if !ok {
			a = &cityAgg{orderCustomers: make(map[string]struct{})}
			cities[k] = a
		}
		return a
	}

	customerCity := make(map[string]cityKey, len(ts.Customers))
	for _, c := range ts.Customers {
		k := cityKey{c.State, c.City}
		customerCity[c.CustomerID] = k
		get(k).customers++
	}
	for _, s := range ts.Sellers {
		get(cityKey{s.State, s.City}).sellers++
	}

	for _, o := range orders {
		k, ok := customerCity[o.CustomerID]
		if !ok {
			continue
		}
		a := get(k)
		a.orders++
		a.orderCustomers[o.CustomerID] = struct{}{}
		if v, ok := values[o.OrderID]; ok {
			a.revenue.add(v.total())
		}
		if o.DeliveryDays != nil {
			a.delivery = append(a.delivery, *o.DeliveryDays)
		}
		if o.OnTimeDelivery != nil {
			a.onTime = append(a.onTime, boolFloat(*o.OnTimeDelivery))
		}
		if o.DeliverySpeedCategory != "" {
			a.speeds = append(a.speeds, o.DeliverySpeedCategory)
		}
	}

	keys := make([]cityKey, 0, len(cities))
	for k := range cities {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].state != keys[j].state {
			return keys[i].state < keys[j].state
		}
		return keys[i].city < keys[j].city
	})

	rows := make([]domain.LocationMetrics, len(keys))
	for i, k := range keys {
		a := cities[k]
		row := domain.LocationMetrics{
			State:                 k.state,
			City:                  k.city,
			CustomerCount:         a.customers,
			SellerCount:           a.sellers,
			TotalOrders:           a.orders,
			OrdersPerCustomer:     stats.SafeDiv(float64(a.orders), float64(len(a.orderCustomers))),
			TotalRevenue:          a.revenue.Sum(),
			AvgOrderValue:         a.revenue.Mean(),
			CustomerToSellerRatio: customerToSellerRatio(a.customers, a.sellers),
			TypicalDeliverySpeed:  domain.UnknownSpeed,
		}
		row.RevenuePerCustomer = stats.SafeDiv(row.TotalRevenue, float64(row.CustomerCount))
		if len(a.delivery) > 0 {
			row.AvgDeliveryDays = dataset.Float(stats.Mean(a.delivery))
		}
		if len(a.onTime) > 0 {
			row.OnTimeRate = dataset.Float(stats.Mean(a.onTime))
		}
		if len(a.speeds) > 0 {
			row.TypicalDeliverySpeed = stats.Mode(a.speeds)
		}
		rows[i] = row
	}

	scoreStates(rows)
	return rows
}

// scoreStates rolls the city rows up to states and copies the state
// aggregates back onto every city of the state
func scoreStates(rows []domain.LocationMetrics) {
	states := make(map[string]*domain.StateOpportunity)
	revenue := make(map[string]*money)
	var order []string
	for _, r := range rows {
		s, ok := states[r.State]
		if !ok {
			s = &domain.StateOpportunity{}
			states[r.State] = s
			revenue[r.State] = &money{}
			order = append(order, r.State)
		}
		s.StateCustomers += r.CustomerCount
		s.StateSellers += r.SellerCount
		s.StateOrders += r.TotalOrders
		revenue[r.State].addFloat(r.TotalRevenue)
		s.CitiesCount++
	}

	var maxCustomers, maxRPC float64
	for _, st := range order {
		s := states[st]
		s.StateRevenue = revenue[st].Sum()
		s.StateRevenuePerCustomer = stats.SafeDiv(s.StateRevenue, float64(s.StateCustomers))
		s.StateOrdersPerCustomer = stats.SafeDiv(float64(s.StateOrders), float64(s.StateCustomers))
		s.StateCustomerToSellerRatio = customerToSellerRatio(s.StateCustomers, s.StateSellers)
		if c := float64(s.StateCustomers); c > maxCustomers {
			maxCustomers = c
		}
		if s.StateRevenuePerCustomer > maxRPC {
			maxRPC = s.StateRevenuePerCustomer
		}
	}
	for _, st := range order {
		s := states[st]
		s.MarketOpportunityScore = OpportunityScore(float64(s.StateCustomers), maxCustomers,
			s.StateRevenuePerCustomer, maxRPC)
	}

	for i := range rows {
		rows[i].StateOpportunity = *states[rows[i].State]
	}
}
