package budgetsheet

import (
	"unicode/utf8"

	"github.com/MrJamesThe3rd/grantledger/internal/budget"
)

const (
	minHeaderLen = 3 // Section headers need more than 2 characters
	minItemLen   = 4 // Line items need more than 3 characters
)

// Segment walks classified rows once. A row without an amount opens a new section
// whose description becomes the raw category of every following line item, until
// the next section header. Items before any header are budget.Uncategorized.
func Segment(rows []Row) []budget.ParsedRow {
	var (
		out     []budget.ParsedRow
		current = budget.Uncategorized
	)

	for _, r := range rows {
		n := utf8.RuneCountInString(r.Description)

		switch {
		case !r.HasAmount && n >= minHeaderLen:
			current = r.Description
		case r.HasAmount && n >= minItemLen:
			out = append(out, budget.ParsedRow{
				Description: r.Description,
				Category:    current,
				Total:       r.Amount,
				SourceRow:   r.Index + 1,
			})
		}
	}

	return out
}
