package cleaning

import (
	"fmt"
	"io"
	"strings"
	"time"
)

const reportRule = "================================================================================"

// WriteReport renders the audit log as the plain-text cleaning report
func (a AuditLog) WriteReport(w io.Writer, generated time.Time) error {
	var b strings.Builder

	b.WriteString(reportRule + "\n")
	b.WriteString("DATA CLEANING REPORT\n")
	b.WriteString(reportRule + "\n")
	fmt.Fprintf(&b, "Generated on: %s\n\n", generated.Format("2006-01-02 15:04:05"))

	b.WriteString("CLEANING ACTIONS SUMMARY:\n")
	order, counts := a.Counts()
	for _, action := range order {
		fmt.Fprintf(&b, "   - %s: %d operations\n", action, counts[action])
	}
	b.WriteString("\n")

	b.WriteString("DATASET SIZE CHANGES:\n")
	for _, sc := range a.SizeChanges {
		fmt.Fprintf(&b, "   - %s: %s -> %s rows, %d columns\n",
			sc.Table, thousands(sc.Before), thousands(sc.After), sc.Columns)
	}
	b.WriteString("\n")

	if len(a.ForeignKeys) > 0 {
		b.WriteString("FOREIGN KEY VALIDATION:\n")
		for _, fk := range a.ForeignKeys {
			status := "GOOD"
			if !fk.OK() {
				status = "ISSUES"
			}
			fmt.Fprintf(&b, "   - %s: %s (%d orphaned records)\n", fk.Name(), status, fk.Orphaned)
		}
		b.WriteString("\n")
	}

	b.WriteString("DETAILED ACTION LOG:\n")
	for _, e := range a.Entries {
		fmt.Fprintf(&b, "   [%s] %s - %s\n", e.Timestamp.Format(time.RFC3339), e.Action, e.Dataset)
		fmt.Fprintf(&b, "      %s\n", e.Details)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Report returns the cleaning report as a string
func (a AuditLog) Report(generated time.Time) string {
	var b strings.Builder
	_ = a.WriteReport(&b, generated)
	return b.String()
}
