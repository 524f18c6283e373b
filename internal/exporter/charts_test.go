package exporter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"olistcli/internal/analysis"
	"olistcli/internal/config"
)

func sampleCharts() []analysis.Chart {
	return []analysis.Chart{
		{
			Title:      "Revenue by State",
			Kind:       analysis.ChartBar,
			Categories: []string{"SP", "RJ", "MG"},
			Series:     []analysis.Series{{Name: "Revenue", Values: []float64{500, 200, 150}}},
		},
		{
			Title:      "Monthly Orders",
			Kind:       analysis.ChartLine,
			Categories: []string{"Jan", "Feb"},
			Series: []analysis.Series{
				{Name: "2017", Values: []float64{10, 12}},
				{Name: "2018", Values: []float64{20, 25}},
			},
		},
		{
			Title:      "Penetration vs Opportunity",
			Kind:       analysis.ChartScatter,
			Categories: []string{"SP", "RJ"},
			Series: []analysis.Series{
				{Name: "Penetration", Values: []float64{1.2, 0.8}},
				{Name: "Opportunity", Values: []float64{0.4, 0.6}},
			},
		},
		{Title: "Empty", Kind: analysis.ChartPie},
	}
}

func TestChartWriter_WriteCharts(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	w := NewChartWriter(paths, nil)

	path, err := w.WriteCharts("market_expansion", sampleCharts())
	require.NoError(t, err)
	assert.Equal(t, paths.GetReportPath("market_expansion_charts.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Revenue by State", "Monthly Orders", "Penetration vs Opportunity"}, f.GetSheetList(),
		"charts without data get no sheet")

	rows, err := f.GetRows("Revenue by State")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Category", "Revenue"}, rows[0])
	assert.Equal(t, []string{"SP", "500"}, rows[1])

	rows, err = f.GetRows("Monthly Orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"Category", "2017", "2018"}, rows[0])
	assert.Equal(t, []string{"Feb", "12", "25"}, rows[2])
}

func TestChartWriter_NothingToWrite(t *testing.T) {
	w := NewChartWriter(config.NewPaths(t.TempDir()), nil)
	path, err := w.WriteCharts("empty", []analysis.Chart{{Title: "No data"}})
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestChartSeries(t *testing.T) {
	charts := sampleCharts()

	bar, err := chartSeries("S", charts[0])
	require.NoError(t, err)
	require.Len(t, bar, 1)
	assert.Equal(t, "'S'!$A$2:$A$4", bar[0].Categories)
	assert.Equal(t, "'S'!$B$2:$B$4", bar[0].Values)
	assert.Equal(t, "'S'!$B$1", bar[0].Name)

	line, err := chartSeries("S", charts[1])
	require.NoError(t, err)
	require.Len(t, line, 2)
	assert.Equal(t, "'S'!$C$2:$C$3", line[1].Values)

	scatter, err := chartSeries("S", charts[2])
	require.NoError(t, err)
	require.Len(t, scatter, 1)
	assert.Equal(t, "'S'!$B$2:$B$3", scatter[0].Categories, "x values")
	assert.Equal(t, "'S'!$C$2:$C$3", scatter[0].Values, "y values")

	_, err = chartSeries("S", analysis.Chart{Kind: analysis.ChartScatter, Categories: []string{"a"},
		Series: []analysis.Series{{Name: "x", Values: []float64{1}}}})
	assert.Error(t, err)

	pie, err := chartSeries("S", analysis.Chart{Kind: analysis.ChartPie, Categories: []string{"a"},
		Series: []analysis.Series{{Name: "x", Values: []float64{1}}, {Name: "y", Values: []float64{2}}}})
	require.NoError(t, err)
	assert.Len(t, pie, 1, "a pie plots only its first series")
}

func TestSheetName(t *testing.T) {
	used := map[string]bool{}

	assert.Equal(t, "Revenue - Orders", sheetName("Revenue / Orders", 0, used))
	assert.Equal(t, "Chart 2", sheetName("  ", 1, used))

	long := strings.Repeat("x", 40)
	first := sheetName(long, 2, used)
	assert.Len(t, first, maxSheetName)
	second := sheetName(long, 3, used)
	assert.Len(t, second, maxSheetName)
	assert.True(t, strings.HasSuffix(second, " (2)"))
	assert.NotEqual(t, first, second)
}
