package category

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrEmptyRules = errors.New("category rules: no rules defined")

// ruleFile is the on-disk layout of a category rule table:
//
//	default: Miscellaneous
//	rules:
//	  - category: Personnel
//	    keywords: [salary, stipend]
type ruleFile struct {
	Default string `yaml:"default"`
	Rules   []struct {
		Category string   `yaml:"category"`
		Keywords []string `yaml:"keywords"`
	} `yaml:"rules"`
}

// LoadRules reads an ordered rule table from a YAML file and builds a Matcher.
// An empty path yields the built-in table.
func LoadRules(path string) (*Matcher, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading category rules: %w", err)
	}

	return ParseRules(data)
}

// ParseRules builds a Matcher from YAML rule table bytes.
func ParseRules(data []byte) (*Matcher, error) {
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding category rules: %w", err)
	}

	if len(f.Rules) == 0 {
		return nil, ErrEmptyRules
	}

	fallback := Miscellaneous

	if f.Default != "" {
		c, ok := Parse(f.Default)
		if !ok {
			return nil, fmt.Errorf("category rules: unknown default category %q", f.Default)
		}

		fallback = c
	}

	rules := make([]Rule, 0, len(f.Rules))

	for i, r := range f.Rules {
		c, ok := Parse(r.Category)
		if !ok {
			return nil, fmt.Errorf("category rules: rule %d: unknown category %q", i+1, r.Category)
		}

		if len(r.Keywords) == 0 {
			return nil, fmt.Errorf("category rules: rule %d (%s): no keywords", i+1, c)
		}

		rules = append(rules, Rule{Category: c, Keywords: r.Keywords})
	}

	return NewMatcher(rules, fallback), nil
}
