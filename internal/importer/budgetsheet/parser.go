// Package budgetsheet turns rows of a human-authored budget spreadsheet into
// parsed budget rows ready for review and import.
package budgetsheet

import "github.com/MrJamesThe3rd/grantledger/internal/budget"

// Parser runs the classify and segment passes for one template profile.
type Parser struct {
	profile Profile
}

func NewParser() *Parser {
	return &Parser{profile: DefaultProfile}
}

func NewParserWithProfile(p Profile) *Parser {
	return &Parser{profile: p}
}

// Parse returns the line items found in raw sheet rows. It never fails; rows that
// cannot be interpreted are dropped.
func (p *Parser) Parse(raw [][]string) []budget.ParsedRow {
	return Segment(p.profile.Classify(raw))
}

// Parse runs DefaultProfile over raw.
func Parse(raw [][]string) []budget.ParsedRow {
	return Segment(Classify(raw))
}
