package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	mconfig "github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"olistcli/internal/analysis"
)

const summaryTitle = "Olist E-commerce Analytics: Executive Summary"

// about 100 characters of 9pt text fit one line of a full-width column
const charsPerLine = 100

// ExecutiveSummary renders the headline insights of every analyzer outcome
// into a PDF document. Failed analyzers are listed with their error.
func ExecutiveSummary(outcomes []analysis.Outcome, generated time.Time) ([]byte, error) {
	cfg := mconfig.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(14,
		text.NewCol(12, summaryTitle, props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)
	m.AddRow(8,
		col.New(6).Add(
			text.New("Generated: "+generated.Format("2006-01-02 15:04:05"), props.Text{Size: 9}),
		),
		col.New(6).Add(
			text.New(fmt.Sprintf("Analyses: %d", len(outcomes)), props.Text{Size: 9, Align: align.Right}),
		),
	)

	for _, o := range outcomes {
		if o.Err != nil || o.Report == nil {
			m.AddRow(12,
				text.NewCol(12, o.Analyzer, props.Text{Size: 12, Style: fontstyle.Bold, Top: 4}),
			)
			m.AddRow(lineHeight(errText(o.Err)),
				text.NewCol(12, "Not available: "+errText(o.Err), props.Text{Size: 9, Style: fontstyle.Italic}),
			)
			continue
		}

		m.AddRow(12,
			text.NewCol(12, o.Report.Title(), props.Text{Size: 12, Style: fontstyle.Bold, Top: 4}),
		)
		insights := o.Report.Insights()
		if len(insights) == 0 {
			m.AddRow(6, text.NewCol(12, "No headline findings.", props.Text{Size: 9}))
			continue
		}
		for _, in := range insights {
			m.AddRow(lineHeight(in.Text),
				text.NewCol(3, in.Category, props.Text{Size: 9, Style: fontstyle.Bold}),
				text.NewCol(9, in.Text, props.Text{Size: 9}),
			)
		}
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate executive summary: %w", err)
	}
	return doc.GetBytes(), nil
}

// WriteExecutiveSummary renders the summary to path
func WriteExecutiveSummary(path string, outcomes []analysis.Outcome, generated time.Time) error {
	b, err := ExecutiveSummary(outcomes, generated)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.WriteFile(path, b, 0644)
}

func lineHeight(s string) float64 {
	// the insight column is three quarters of the page
	lines := len(s)/(charsPerLine*3/4) + 1
	return float64(lines)*4.5 + 2
}

func errText(err error) string {
	if err == nil {
		return "no report produced"
	}
	return err.Error()
}
