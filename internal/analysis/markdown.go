package analysis

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// markdown writes report text and remembers the first write error so
// callers can check once at the end
type markdown struct {
	w   io.Writer
	err error
}

func newMarkdown(w io.Writer) *markdown {
	return &markdown{w: w}
}

func (m *markdown) printf(format string, args ...any) {
	if m.err != nil {
		return
	}
	_, m.err = fmt.Fprintf(m.w, format, args...)
}

func (m *markdown) line(s string) {
	m.printf("%s\n", s)
}

func (m *markdown) blank() {
	m.printf("\n")
}

func (m *markdown) heading(level int, title string) {
	m.printf("%s %s\n\n", strings.Repeat("#", level), title)
}

func (m *markdown) bullet(format string, args ...any) {
	m.printf("- "+format+"\n", args...)
}

func (m *markdown) numbered(i int, format string, args ...any) {
	m.printf("%d. "+format+"\n", append([]any{i}, args...)...)
}

// table writes a pipe table followed by a blank line. Empty tables are
// written as a single note.
func (m *markdown) table(header []string, rows [][]string) {
	if len(rows) == 0 {
		m.line("_No data available._")
		m.blank()
		return
	}
	m.line("| " + strings.Join(header, " | ") + " |")
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	m.line("|" + strings.Join(sep, "|") + "|")
	for _, r := range rows {
		cells := make([]string, len(r))
		for i, c := range r {
			cells[i] = strings.ReplaceAll(c, "|", `\|`)
		}
		m.line("| " + strings.Join(cells, " | ") + " |")
	}
	m.blank()
}

// printer formats numbers with English thousands separators
func printer() *message.Printer {
	return message.NewPrinter(language.English)
}

// brl formats a Brazilian real amount
func brl(v float64) string {
	return printer().Sprintf("R$ %.2f", v)
}

// brl0 formats a Brazilian real amount without cents
func brl0(v float64) string {
	return printer().Sprintf("R$ %.0f", v)
}

func count(n int) string {
	return printer().Sprintf("%d", n)
}

// pct formats a value that is already a percentage
func pct(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

func f1(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

func f2(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func f3(v float64) string {
	return fmt.Sprintf("%.3f", v)
}

func itoa(n int) string {
	return fmt.Sprintf("%d", n)
}
