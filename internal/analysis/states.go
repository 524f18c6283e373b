package analysis

import "math"

// StateProfile is the census and economic context of a Brazilian state
// (2020 estimates). Tier 1 states are the major economic centers, tier 2
// the regional capitals and tier 3 the smaller markets.
type StateProfile struct {
	Population   int     `json:"population"`
	GDPPerCapita float64 `json:"gdp_per_capita"`
	Tier         int     `json:"tier"`
	UrbanRate    float64 `json:"urban_rate"`
}

// StateProfiles covers all 27 federative units
var StateProfiles = map[string]StateProfile{
	"SP": {46649132, 56956, 1, 0.96},
	"RJ": {17463349, 51929, 1, 0.97},
	"MG": {21411923, 35219, 1, 0.85},
	"BA": {15203934, 22045, 2, 0.73},
	"PR": {11597484, 42791, 2, 0.85},
	"RS": {11466630, 45180, 2, 0.85},
	"PE": {9674793, 21077, 2, 0.80},
	"CE": {9240580, 18320, 2, 0.75},
	"PA": {8777124, 17179, 3, 0.68},
	"SC": {7338473, 46016, 2, 0.84},
	"GO": {7206589, 30544, 2, 0.90},
	"MA": {7153262, 14748, 3, 0.64},
	"PB": {4059905, 17687, 3, 0.75},
	"AM": {4269995, 23894, 3, 0.79},
	"ES": {4108508, 38177, 2, 0.83},
	"MT": {3567234, 49265, 2, 0.82},
	"AL": {3365351, 16463, 3, 0.73},
	"PI": {3289290, 14454, 3, 0.66},
	"DF": {3094325, 85830, 1, 0.97},
	"MS": {2839188, 39265, 2, 0.86},
	"RN": {3560903, 18690, 3, 0.77},
	"RO": {1815278, 26157, 3, 0.74},
	"AC": {906876, 18327, 3, 0.73},
	"AP": {877613, 19952, 3, 0.90},
	"SE": {2338474, 22942, 3, 0.74},
	"TO": {1607363, 22555, 3, 0.79},
	"RR": {652713, 22896, 3, 0.76},
}

// Expansion priorities
const (
	PriorityOptimization   = "Optimization Priority"
	PriorityMaintain       = "Maintain & Optimize"
	PriorityHigh           = "High Priority"
	PriorityMedium         = "Medium Priority"
	PriorityLow            = "Low Priority"
	PriorityNotRecommended = "Not Recommended"
	PriorityUnknown        = "Insufficient Data"
)

// priorityRule is one row of the expansion priority decision table. A rule
// matches when the tier is equal, the score is at least minScore and the
// population exceeds popAbove.
type priorityRule struct {
	tier     int
	minScore float64
	popAbove int
	priority string
}

var anyScore = math.Inf(-1)

// priorityRules are evaluated in order; the first match wins. Tier 1
// states are optimized rather than entered, tier 2 states are the main
// expansion targets and tier 3 states qualify only when large enough.
var priorityRules = []priorityRule{
	{1, 0.6, -1, PriorityOptimization},
	{1, anyScore, -1, PriorityMaintain},
	{2, 0.7, -1, PriorityHigh},
	{2, 0.5, -1, PriorityMedium},
	{2, anyScore, -1, PriorityLow},
	{3, 0.6, 2_000_000, PriorityMedium},
	{3, 0.4, 1_000_000, PriorityLow},
	{3, anyScore, -1, PriorityNotRecommended},
}

// ExpansionPriority maps a combined opportunity score to a priority. States
// without a known tier have insufficient data.
func ExpansionPriority(tier int, score float64, population int) string {
	for _, r := range priorityRules {
		if r.tier == tier && score >= r.minScore && population > r.popAbove {
			return r.priority
		}
	}
	return PriorityUnknown
}
