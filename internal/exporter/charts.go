package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"olistcli/internal/analysis"
	"olistcli/internal/config"
)

const maxSheetName = 31

var chartTypes = map[analysis.ChartKind]excelize.ChartType{
	analysis.ChartBar:     excelize.Col,
	analysis.ChartLine:    excelize.Line,
	analysis.ChartPie:     excelize.Pie,
	analysis.ChartScatter: excelize.Scatter,
}

// ChartWriter renders analyzer charts into xlsx workbooks with native
// charts, one sheet per chart
type ChartWriter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewChartWriter creates a chart writer. A nil logger uses slog.Default().
func NewChartWriter(paths *config.Paths, logger *slog.Logger) *ChartWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChartWriter{paths: paths, logger: logger}
}

// WriteCharts writes reports/<name>_charts.xlsx and returns its path. Charts
// without series are skipped; an empty list writes nothing and returns "".
func (w *ChartWriter) WriteCharts(name string, charts []analysis.Chart) (string, error) {
	var usable []analysis.Chart
	for _, c := range charts {
		if len(c.Series) > 0 && len(c.Categories) > 0 {
			usable = append(usable, c)
		}
	}
	if len(usable) == 0 {
		return "", nil
	}

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return "", fmt.Errorf("failed to create header style: %w", err)
	}

	used := make(map[string]bool)
	for i, c := range usable {
		sheet := sheetName(c.Title, i, used)
		if i == 0 {
			err = f.SetSheetName("Sheet1", sheet)
		} else {
			_, err = f.NewSheet(sheet)
		}
		if err != nil {
			return "", fmt.Errorf("chart %q: %w", c.Title, err)
		}
		if err := writeChartSheet(f, sheet, c, bold); err != nil {
			return "", fmt.Errorf("chart %q: %w", c.Title, err)
		}
	}

	path := w.paths.GetReportPath(name + "_charts.xlsx")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}
	w.logger.Info("Saved chart workbook",
		slog.String("report", name),
		slog.Int("charts", len(usable)),
		slog.String("path", path))
	return path, nil
}

// writeChartSheet lays the data out as a table starting at A1 (categories in
// column A, one column per series) and anchors the chart to its right
func writeChartSheet(f *excelize.File, sheet string, c analysis.Chart, headerStyle int) error {
	header := []any{"Category"}
	for _, s := range c.Series {
		header = append(header, s.Name)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return err
	}
	for r, cat := range c.Categories {
		row := []any{cat}
		for _, s := range c.Series {
			if r < len(s.Values) {
				row = append(row, s.Values[r])
			} else {
				row = append(row, nil)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheet, "A", "A", 28); err != nil {
		return err
	}

	anchor, err := excelize.CoordinatesToCellName(len(c.Series)+3, 2)
	if err != nil {
		return err
	}
	series, err := chartSeries(sheet, c)
	if err != nil {
		return err
	}
	return f.AddChart(sheet, anchor, &excelize.Chart{
		Type:      chartTypes[c.Kind],
		Series:    series,
		Title:     []excelize.RichTextRun{{Text: c.Title}},
		Legend:    excelize.ChartLegend{Position: "bottom"},
		Dimension: excelize.ChartDimension{Width: 640, Height: 360},
	})
}

// chartSeries builds the sheet references for each plotted series. A scatter
// chart plots the second column against the first.
func chartSeries(sheet string, c analysis.Chart) ([]excelize.ChartSeries, error) {
	last := len(c.Categories) + 1
	ref := func(col int) (string, error) {
		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("'%s'!$%s$2:$%s$%d", sheet, name, name, last), nil
	}
	headerRef := func(col int) string {
		name, _ := excelize.ColumnNumberToName(col)
		return fmt.Sprintf("'%s'!$%s$1", sheet, name)
	}

	if c.Kind == analysis.ChartScatter {
		if len(c.Series) < 2 {
			return nil, fmt.Errorf("scatter chart needs two series, got %d", len(c.Series))
		}
		x, err := ref(2)
		if err != nil {
			return nil, err
		}
		y, err := ref(3)
		if err != nil {
			return nil, err
		}
		return []excelize.ChartSeries{{Name: headerRef(3), Categories: x, Values: y}}, nil
	}

	cats, err := ref(1)
	if err != nil {
		return nil, err
	}
	out := make([]excelize.ChartSeries, 0, len(c.Series))
	for i := range c.Series {
		vals, err := ref(i + 2)
		if err != nil {
			return nil, err
		}
		out = append(out, excelize.ChartSeries{Name: headerRef(i + 2), Categories: cats, Values: vals})
		if c.Kind == analysis.ChartPie {
			break
		}
	}
	return out, nil
}

// sheetName derives a unique worksheet name from a chart title within the
// 31 character limit
func sheetName(title string, index int, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\', '\'':
			return '-'
		}
		return r
	}, strings.TrimSpace(title))
	if name == "" {
		name = fmt.Sprintf("Chart %d", index+1)
	}
	if r := []rune(name); len(r) > maxSheetName {
		name = strings.TrimSpace(string(r[:maxSheetName]))
	}
	base := name
	for n := 2; used[name]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		r := []rune(base)
		if len(r)+len(suffix) > maxSheetName {
			r = r[:maxSheetName-len(suffix)]
		}
		name = string(r) + suffix
	}
	used[name] = true
	return name
}
