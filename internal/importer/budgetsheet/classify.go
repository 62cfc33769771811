package budgetsheet

import (
	"strings"
)

// Row is a spreadsheet row that survived noise filtering.
type Row struct {
	Index       int // 0-based position in the sheet
	Cells       []string
	Description string
	Amount      int64
	// HasAmount is set when the amount cell parsed to a strictly positive value.
	HasAmount bool
}

// Classify filters DefaultProfile rows. See Profile.Classify.
func Classify(raw [][]string) []Row {
	return DefaultProfile.Classify(raw)
}

// Classify drops blank rows, structural totals, template boilerplate and column
// header rows. Surviving rows keep their sheet order.
func (p Profile) Classify(raw [][]string) []Row {
	var rows []Row

	for i, cells := range raw {
		desc := NormalizeDescription(cellValue(cells, p.DescriptionCol))
		if desc == "" || isStructuralTotal(desc) {
			continue
		}

		amount, hasAmount := p.amount(cells)
		text := strings.ToLower(strings.Join(cells, " "))

		if !hasAmount && containsAny(text, documentKeywords) {
			continue
		}

		if containsAny(text, headerDescriptionKeywords) && containsAny(text, headerTotalKeywords) {
			continue
		}

		rows = append(rows, Row{
			Index:       i,
			Cells:       cells,
			Description: desc,
			Amount:      amount,
			HasAmount:   hasAmount,
		})
	}

	return rows
}

// amount returns the first positive amount found in the profile's amount columns.
func (p Profile) amount(cells []string) (int64, bool) {
	for _, idx := range p.AmountCols {
		if v, ok := ParseAmount(cellValue(cells, idx)); ok && v > 0 {
			return v, true
		}
	}

	return 0, false
}

func isStructuralTotal(desc string) bool {
	for _, re := range structuralTotals {
		if re.MatchString(desc) {
			return true
		}
	}

	return false
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}

	return false
}

// cellValue safely gets a trimmed cell value from a row.
func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
