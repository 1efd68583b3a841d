package chart

import (
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// num formats with two decimals and thousands grouping.
func num(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return printer.Sprintf("%.2f", v)
}

// count formats an integer with thousands grouping.
func count(n int) string {
	return printer.Sprintf("%d", n)
}

func pct(part, whole float64) string {
	if whole == 0 {
		return "0.0%"
	}
	return printer.Sprintf("%.1f%%", 100*part/whole)
}

// analysis accumulates lines of commentary.
type analysis struct {
	lines []string
}

func (a *analysis) add(format string, args ...any) {
	a.lines = append(a.lines, printer.Sprintf(format, args...))
}

func (a *analysis) blank() { a.lines = append(a.lines, "") }

func (a *analysis) String() string { return strings.Join(a.lines, "\n") }
