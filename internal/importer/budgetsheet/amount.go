package budgetsheet

import (
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/grantledger/internal/budget"
)

var (
	hundred   = decimal.NewFromInt(100)
	maxAmount = decimal.NewFromInt(math.MaxInt64)
)

// ParseAmount parses a spreadsheet amount cell into minor units (kobo, cents).
// Grouping commas and spaces are stripped: "1,200,000" -> 120000000, "45.5" -> 4550.
// Empty, non-numeric, negative-looking ("-10", "(10)") and out-of-range input
// report false.
func ParseAmount(raw string) (int64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "(") {
		return 0, false
	}

	s = strings.ReplaceAll(s, ",", "")
	s = strings.Join(strings.Fields(s), "")

	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return 0, false
	}

	minor := d.Mul(hundred).Round(0)
	if minor.GreaterThan(maxAmount) {
		return 0, false
	}

	return minor.IntPart(), true
}

// FormatAmount renders minor units in a form ParseAmount reads back unchanged.
func FormatAmount(minor int64) string {
	return budget.FormatAmount(minor)
}

var lineBreakRun = regexp.MustCompile(`\s*[\r\n]+\s*`)

// NormalizeDescription collapses embedded line breaks to single spaces and trims.
func NormalizeDescription(raw string) string {
	return strings.TrimSpace(lineBreakRun.ReplaceAllString(raw, " "))
}
