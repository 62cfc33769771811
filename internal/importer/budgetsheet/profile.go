package budgetsheet

import "regexp"

// Profile describes the column layout of a budget template.
type Profile struct {
	Name           string
	DescriptionCol int
	// AmountCols are tried in order; the first with a positive amount wins.
	AmountCols []int
}

// DefaultProfile matches the grant budget template: description in column A,
// line total in column F, with unit cost in column C used when F is blank.
var DefaultProfile = Profile{
	Name:           "grant budget template",
	DescriptionCol: 0,
	AmountCols:     []int{5, 2},
}

// structuralTotals match the whole trimmed description of subtotal and total lines.
var structuralTotals = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(grand\s+)?totals?\s*:?$`),
	regexp.MustCompile(`(?i)^sub[\s-]?totals?\s*:?$`),
	regexp.MustCompile(`(?i)^total\s+direct\s+costs?\s*:?$`),
	regexp.MustCompile(`(?i)^(total\s+)?indirect\s+costs?\b.*$`),
	regexp.MustCompile(`(?i)^sub[\s-]?total\s*\(\s*not\b.*$`),
}

// documentKeywords mark template boilerplate. Rows containing one are dropped
// only when they carry no amount.
var documentKeywords = []string{
	"budget template",
	"name of institution",
	"principal investigator",
	"project title",
	"grant reference",
	"budget summary",
	"budget justification",
	"in naira",
}

// A column header row names both a description column and a total column.
var (
	headerDescriptionKeywords = []string{"description", "particulars", "budget line"}
	headerTotalKeywords       = []string{"total", "amount"}
)
