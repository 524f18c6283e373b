package validation

import (
	"fmt"
	"io"
	"strings"
	"time"
)

var categoryTitles = map[Category]string{
	CategoryCompleteness:  "DATA COMPLETENESS",
	CategoryDataTypes:     "DATA TYPES",
	CategoryBusinessRules: "BUSINESS RULES",
	CategoryReferential:   "REFERENTIAL INTEGRITY",
	CategoryRanges:        "DATA RANGES",
}

// WriteReport renders the validation result as plain text
func (r Result) WriteReport(w io.Writer, generated time.Time) error {
	var b strings.Builder
	rule := strings.Repeat("=", 80)

	b.WriteString(rule + "\nDATA VALIDATION REPORT\n" + rule + "\n")
	fmt.Fprintf(&b, "Generated on: %s\n\n", generated.Format("2006-01-02 15:04:05"))

	status := "PASSED"
	if !r.Passed {
		status = "FAILED"
	}
	fmt.Fprintf(&b, "OVERALL VALIDATION STATUS: %s\n\n", status)

	b.WriteString("DATASET OVERVIEW:\n")
	for _, t := range r.Tables {
		fmt.Fprintf(&b, "   - %s: %d rows, %d columns\n", t.Table, t.Rows, t.Columns)
	}
	b.WriteString("\n")

	for _, cat := range Categories {
		checks := r.ByCategory(cat)
		if len(checks) == 0 {
			continue
		}
		b.WriteString(categoryTitles[cat] + ":\n")
		if cat == CategoryReferential {
			failed := countStatus(checks, StatusFail)
			if failed > 0 {
				fmt.Fprintf(&b, "   [FAIL] %d relationships with integrity issues\n", failed)
			} else {
				fmt.Fprintf(&b, "   [PASS] All %d relationships maintain integrity\n", len(checks))
			}
			b.WriteString("\n")
			continue
		}
		for _, ds := range datasetsOf(checks) {
			var group []Check
			for _, c := range checks {
				if c.Dataset == ds {
					group = append(group, c)
				}
			}
			b.WriteString("   " + summaryLine(cat, ds, group) + "\n")
		}
		b.WriteString("\n")
	}

	if failed := r.Failed(); len(failed) > 0 {
		b.WriteString("FAILED CHECKS:\n")
		for _, c := range failed {
			fmt.Fprintf(&b, "   - %s.%s (%s): %d of %d invalid\n", c.Dataset, c.Name, c.Category, c.Invalid, c.Total)
		}
		b.WriteString("\n")
	}

	b.WriteString("RECOMMENDATIONS:\n")
	if r.Passed {
		b.WriteString("   - Data quality is excellent and ready for analysis\n")
		b.WriteString("   - Proceed with confidence to the feature engineering phase\n")
	} else {
		b.WriteString("   - Review and address validation failures before proceeding\n")
		b.WriteString("   - Check data cleaning logic for failed validations\n")
		b.WriteString("   - Consider additional data quality measures\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func summaryLine(cat Category, ds string, checks []Check) string {
	if cat == CategoryRanges {
		if n := countStatus(checks, StatusWarn); n > 0 {
			return fmt.Sprintf("[WARN] %s: %d columns with values outside expected ranges", ds, n)
		}
		return fmt.Sprintf("[PASS] %s: All values within expected ranges", ds)
	}

	failed := countStatus(checks, StatusFail)
	switch cat {
	case CategoryCompleteness:
		if failed > 0 {
			return fmt.Sprintf("[FAIL] %s: %d critical columns with high missing values", ds, failed)
		}
		return fmt.Sprintf("[PASS] %s: All critical columns complete", ds)
	case CategoryDataTypes:
		if failed > 0 {
			return fmt.Sprintf("[FAIL] %s: %d columns with incorrect types", ds, failed)
		}
		return fmt.Sprintf("[PASS] %s: All data types correct", ds)
	default:
		if failed > 0 {
			return fmt.Sprintf("[FAIL] %s: %d business rule violations", ds, failed)
		}
		return fmt.Sprintf("[PASS] %s: All business rules satisfied", ds)
	}
}

func countStatus(checks []Check, s Status) int {
	n := 0
	for _, c := range checks {
		if c.Status == s {
			n++
		}
	}
	return n
}

// datasetsOf returns the distinct datasets of checks in first-seen order
func datasetsOf(checks []Check) []string {
	var out []string
	seen := map[string]bool{}
	for _, c := range checks {
		if !seen[c.Dataset] {
			seen[c.Dataset] = true
			out = append(out, c.Dataset)
		}
	}
	return out
}
