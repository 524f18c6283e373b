package analysis

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"olistcli/internal/config"
)

func TestExpansionPriority(t *testing.T) {
	tests := []struct {
		name       string
		tier       int
		score      float64
		population int
		want       string
	}{
		{"tier 1 strong", 1, 0.6, 40_000_000, PriorityOptimization},
		{"tier 1 weak", 1, 0.59, 40_000_000, PriorityMaintain},
		{"tier 2 high", 2, 0.7, 10_000_000, PriorityHigh},
		{"tier 2 medium", 2, 0.5, 10_000_000, PriorityMedium},
		{"tier 2 low", 2, 0.49, 10_000_000, PriorityLow},
		{"tier 3 large", 3, 0.6, 2_500_000, PriorityMedium},
		{"tier 3 large but weak", 3, 0.45, 2_500_000, PriorityLow},
		{"tier 3 population boundary", 3, 0.6, 2_000_000, PriorityLow},
		{"tier 3 small", 3, 0.9, 900_000, PriorityNotRecommended},
		{"tier 3 small but weak", 3, 0.2, 900_000, PriorityNotRecommended},
		{"tier 3 mid-size", 3, 0.4, 1_000_001, PriorityLow},
		{"tier 2 zero score", 2, 0, 10_000_000, PriorityLow},
		{"unknown tier", 0, 0.9, 0, PriorityUnknown},
		{"tier out of range", 4, 0.9, 50_000_000, PriorityUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpansionPriority(tt.tier, tt.score, tt.population))
		})
	}
}

func TestPriorityRules(t *testing.T) {
	lastByTier := make(map[int]priorityRule)
	prevScore := make(map[int]float64)
	for i, r := range priorityRules {
		if prev, ok := prevScore[r.tier]; ok {
			assert.LessOrEqual(t, r.minScore, prev, "rule %d: thresholds descend within a tier", i)
		}
		prevScore[r.tier] = r.minScore
		lastByTier[r.tier] = r
	}

	assert.Len(t, lastByTier, 3)
	for tier, r := range lastByTier {
		assert.True(t, math.IsInf(r.minScore, -1), "tier %d ends with a catch-all", tier)
		assert.Equal(t, -1, r.popAbove, "tier %d catch-all ignores population", tier)
	}

	reachable := make(map[string]bool)
	for _, r := range priorityRules {
		reachable[r.priority] = true
	}
	for _, p := range []string{PriorityOptimization, PriorityMaintain, PriorityHigh, PriorityMedium,
		PriorityLow, PriorityNotRecommended} {
		assert.True(t, reachable[p], p)
	}
}

func TestStateProfiles(t *testing.T) {
	assert.Len(t, StateProfiles, 27)
	for state, p := range StateProfiles {
		assert.Contains(t, []int{1, 2, 3}, p.Tier, state)
		assert.Positive(t, p.Population, state)
		assert.True(t, p.UrbanRate > 0 && p.UrbanRate <= 1, state)
	}
}

func TestStateActions(t *testing.T) {
	days := 28.0
	tier1 := StateMarket{State: "SP", SellerGap: 80, AvgDeliveryDays: &days,
		StateProfile: StateProfile{Tier: 1, Population: 46_000_000, GDPPerCapita: 56956}}
	assert.Equal(t, []string{
		"Focus on market share optimization and premium services",
		"Scale seller network - recruit 80 additional premium sellers",
		"Invest in same-day/next-day delivery infrastructure",
		"CRITICAL: Establish regional distribution center",
		"Opportunity for premium products and services",
	}, StateActions(tier1))

	small := StateMarket{State: "RR", StateProfile: StateProfile{Tier: 3, Population: 650_000, GDPPerCapita: 15000}}
	assert.Equal(t, []string{"NOT RECOMMENDED: Market too small for profitable expansion"}, StateActions(small))

	tier2 := StateMarket{State: "BA", PenetrationRate: 1, SellerGap: 25,
		StateProfile: StateProfile{Tier: 2, Population: 15_000_000, GDPPerCapita: 22045}}
	assert.Equal(t, []string{
		"Recruit 25 sellers through regional partnerships",
		"Launch aggressive customer acquisition campaign",
	}, StateActions(tier2))
}

func TestValueCounts(t *testing.T) {
	got := valueCounts([]string{"b", "a", "b", "c", "a", "b"}, func(s string) string { return s })
	assert.Equal(t, []LabelCount{{"b", 3}, {"a", 2}, {"c", 1}}, got)
	assert.Empty(t, valueCounts([]int(nil), func(int) string { return "" }))
}

func TestMarketAnalyzer(t *testing.T) {
	rep, err := NewMarketAnalyzer(config.Default().Features).Analyze(context.Background(), sampleInput(t))
	require.NoError(t, err)
	m := rep.(*MarketReport)

	require.Len(t, m.States, 6)
	for i, s := range m.States {
		assert.GreaterOrEqual(t, s.CombinedScore, 0.0, s.State)
		assert.LessOrEqual(t, s.CombinedScore, 1.0, s.State)
		assert.NotEmpty(t, s.Priority, s.State)
		if i > 0 {
			assert.GreaterOrEqual(t, m.States[i-1].CombinedScore, s.CombinedScore)
		}
	}
	assert.LessOrEqual(t, len(m.Recommendations), 10)
	assert.Equal(t, m.States[0].State, m.Recommendations[0].State)

	total := 0
	for _, p := range m.PriorityDistribution {
		total += p.Count
	}
	assert.Equal(t, len(m.States), total)
	assert.Positive(t, m.NationalRPC)
	assert.True(t, m.PeriodStart.Before(m.PeriodEnd))

	md := renderMarkdown(t, m)
	assert.Contains(t, md, "# Market Expansion")
	assert.Contains(t, md, "SP")
}
