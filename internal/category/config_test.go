package category_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/grantledger/internal/category"
)

func TestParseRules(t *testing.T) {
	data := []byte(`
default: supplies
rules:
  - category: Travels
    keywords: [Travel, flight]
  - category: Data
    keywords: [data]
`)

	m, err := category.ParseRules(data)
	require.NoError(t, err)

	assert.Equal(t, category.Travels, m.Match("Travel for data collection"))
	assert.Equal(t, category.Data, m.Match("Data cleaning"))
	assert.Equal(t, category.Supplies, m.Match("Pens"))
}

func TestParseRules_Errors(t *testing.T) {
	type testCase struct {
		name string
		yaml string
	}

	tests := []testCase{
		{name: "Empty", yaml: "rules: []"},
		{name: "UnknownCategory", yaml: "rules:\n  - category: Food\n    keywords: [pizza]"},
		{name: "UnknownDefault", yaml: "default: Food\nrules:\n  - category: Data\n    keywords: [data]"},
		{name: "NoKeywords", yaml: "rules:\n  - category: Data\n    keywords: []"},
		{name: "Malformed", yaml: "rules: [::"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := category.ParseRules([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadRules(t *testing.T) {
	m, err := category.LoadRules("")
	require.NoError(t, err)
	assert.Equal(t, category.Equipment, m.Match("laptop"))

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - category: Equipment\n    keywords: [pens]\n"), 0o600))

	m, err = category.LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, category.Equipment, m.Match("Pens"))
	assert.Equal(t, category.Miscellaneous, m.Match("laptop"))

	_, err = category.LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
