package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventsCoverEveryMonth(t *testing.T) {
	for m := 1; m <= 12; m++ {
		e, ok := Events[m]
		assert.True(t, ok, "month %d", m)
		assert.NotEmpty(t, e.Name)
		assert.Contains(t, []string{ImpactLow, ImpactMedium, ImpactHigh, ImpactVeryHigh}, e.Impact)
	}
}

func TestImpactScore(t *testing.T) {
	assert.Equal(t, 1, ImpactScore(ImpactLow))
	assert.Equal(t, 4, ImpactScore(ImpactVeryHigh))
	assert.Equal(t, 2, ImpactScore("unheard of"))
	assert.Equal(t, 4, MonthImpact(11))
	assert.Equal(t, 1, MonthImpact(4))
}

func TestEventType(t *testing.T) {
	tests := map[int]string{
		1: "Regular", 2: "Carnival", 3: "Carnival", 5: "Mothers Day",
		6: "Valentines Day", 8: "Regular", 11: "Black Friday", 12: "Christmas",
	}
	for month, want := range tests {
		assert.Equal(t, want, EventType(month), "month %d", month)
	}
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name        string
		year, month int
		n           int
		wantYear    int
		wantMonth   int
	}{
		{"same year", 2018, 5, 1, 2018, 6},
		{"december wraps", 2017, 12, 1, 2018, 1},
		{"crosses year", 2017, 11, 3, 2018, 2},
		{"zero", 2018, 3, 0, 2018, 3},
		{"backwards across year", 2018, 2, -3, 2017, 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y, m := AddMonths(tt.year, tt.month, tt.n)
			assert.Equal(t, tt.wantYear, y)
			assert.Equal(t, tt.wantMonth, m)
		})
	}
}

func TestSeasonAndQuarter(t *testing.T) {
	assert.Equal(t, 1, Quarter(3))
	assert.Equal(t, 4, Quarter(10))
	assert.Equal(t, "Summer", Season(1))
	assert.Equal(t, "Spring", Season(4))
	assert.Equal(t, "January", MonthName(1))
	assert.Empty(t, MonthName(13))
	assert.True(t, HighImpact(Events[2]))
	assert.False(t, HighImpact(Events[1]))
}
