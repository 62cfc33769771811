package category

import (
	"strings"
)

// Rule maps a keyword group to a category. Any keyword that appears as a
// substring of the lower-cased input selects the rule.
type Rule struct {
	Category Category
	Keywords []string
}

// Matcher resolves free text to a canonical category using an ordered rule table.
// Rules are checked in order, so earlier entries take priority.
type Matcher struct {
	rules    []Rule
	fallback Category
}

// NewMatcher builds a matcher. Keywords are lower-cased once here.
func NewMatcher(rules []Rule, fallback Category) *Matcher {
	normalized := make([]Rule, len(rules))

	for i, r := range rules {
		keywords := make([]string, 0, len(r.Keywords))

		for _, kw := range r.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				keywords = append(keywords, kw)
			}
		}

		normalized[i] = Rule{Category: r.Category, Keywords: keywords}
	}

	return &Matcher{rules: normalized, fallback: fallback}
}

// Default returns a matcher over DefaultRules with Miscellaneous as the fallback.
func Default() *Matcher {
	return NewMatcher(DefaultRules(), Miscellaneous)
}

// Match returns the category of the first rule with a keyword hit, or the fallback.
// It never fails: every string, including the empty one, maps to exactly one category.
func (m *Matcher) Match(raw string) Category {
	text := strings.ToLower(raw)

	for _, r := range m.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(text, kw) {
				return r.Category
			}
		}
	}

	return m.fallback
}

// Rules returns a copy of the matcher's ordered rule table.
func (m *Matcher) Rules() []Rule {
	out := make([]Rule, len(m.rules))
	for i, r := range m.rules {
		out[i] = Rule{Category: r.Category, Keywords: append([]string(nil), r.Keywords...)}
	}

	return out
}

// Fallback returns the category used when no rule matches.
func (m *Matcher) Fallback() Category {
	return m.fallback
}

var defaultMatcher = Default()

// Match resolves raw text with the built-in rule table.
func Match(raw string) Category {
	return defaultMatcher.Match(raw)
}

// DefaultRules returns the built-in priority table: personnel terms first, then
// equipment, supplies, data/analysis, travel/logistics and dissemination.
func DefaultRules() []Rule {
	return []Rule{
		{
			Category: Personnel,
			Keywords: []string{
				"personnel", "salary", "salaries", "stipend", "honorarium", "staff", "assistant",
				"consultant", "wage", "researcher", "enumerator", "casual labour", "casual labor",
				"labour cost", "labor cost",
			},
		},
		{
			Category: Equipment,
			Keywords: []string{
				"equipment", "laptop", "computer", "hardware", "device", "printer", "camera",
				"instrument", "machine", "recorder", "projector",
			},
		},
		{
			Category: Supplies,
			Keywords: []string{
				"supplies", "supply", "consumable", "reagent", "stationery", "chemical", "raw material",
				"lab material", "toner", "cartridge",
			},
		},
		{
			Category: Data,
			Keywords: []string{
				"data", "analysis", "software", "survey", "transcription", "statistic",
				"questionnaire", "interview", "internet", "licence", "license",
			},
		},
		{
			Category: Travels,
			Keywords: []string{
				"travel", "transport", "flight", "airfare", "accommodation", "hotel", "lodging",
				"per diem", "fuel", "logistics", "vehicle", "fieldwork", "trip",
			},
		},
		{
			Category: Dissemination,
			Keywords: []string{
				"dissemination", "publication", "publish", "conference", "workshop", "seminar",
				"journal", "printing", "report", "open access", "stakeholder",
			},
		},
	}
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
