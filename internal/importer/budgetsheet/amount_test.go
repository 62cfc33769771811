package budgetsheet_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/grantledger/internal/importer/budgetsheet"
)

func TestParseAmount(t *testing.T) {
	type args struct {
		raw string
	}

	type testCase struct {
		name   string
		args   args
		want   int64
		wantOK bool
	}

	tests := []testCase{
		{name: "Grouped", args: args{raw: "1,200,000"}, want: 120_000_000, wantOK: true},
		{name: "Decimals", args: args{raw: "45.5"}, want: 4550, wantOK: true},
		{name: "Padded", args: args{raw: "  300000  "}, want: 30_000_000, wantOK: true},
		{name: "SpaceGrouped", args: args{raw: "1 500 000.75"}, want: 150_000_075, wantOK: true},
		{name: "Rounded", args: args{raw: "0.005"}, want: 1, wantOK: true},
		{name: "Zero", args: args{raw: "0"}, want: 0, wantOK: true},
		{name: "Empty", args: args{raw: ""}, wantOK: false},
		{name: "Blank", args: args{raw: "   "}, wantOK: false},
		{name: "Text", args: args{raw: "N/A"}, wantOK: false},
		{name: "Negative", args: args{raw: "-500"}, wantOK: false},
		{name: "Parenthesised", args: args{raw: "(500)"}, wantOK: false},
		{name: "Currency", args: args{raw: "NGN 500"}, wantOK: false},
		{name: "LargestMinor", args: args{raw: "92233720368547758.07"}, want: math.MaxInt64, wantOK: true},
		{name: "JustPastRange", args: args{raw: "92233720368547758.08"}, wantOK: false},
		{name: "TwentyDigits", args: args{raw: "99999999999999999999"}, wantOK: false},
		{name: "Exponent", args: args{raw: "1e30"}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := budgetsheet.ParseAmount(tt.args.raw)

			assert.Equal(t, tt.wantOK, ok)

			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseAmount_Idempotent(t *testing.T) {
	inputs := []string{"1,200,000", "45.5", "0", "0.01", "999,999,999.99", " 12 ", "3.14159"}

	for _, in := range inputs {
		first, ok := budgetsheet.ParseAmount(in)
		assert.True(t, ok, in)

		again, ok := budgetsheet.ParseAmount(budgetsheet.FormatAmount(first))
		assert.True(t, ok, in)
		assert.Equal(t, first, again, in)
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1200000.00", budgetsheet.FormatAmount(120_000_000))
	assert.Equal(t, "0.05", budgetsheet.FormatAmount(5))
	assert.Equal(t, "0.00", budgetsheet.FormatAmount(0))
}

func TestNormalizeDescription(t *testing.T) {
	assert.Equal(t, "Research Assistant Stipend", budgetsheet.NormalizeDescription("  Research Assistant\nStipend "))
	assert.Equal(t, "Field trip to Kano", budgetsheet.NormalizeDescription("Field trip\r\n   to Kano"))
	assert.Equal(t, "Two  spaces kept", budgetsheet.NormalizeDescription("Two  spaces kept"))
	assert.Equal(t, "", budgetsheet.NormalizeDescription(" \n "))
}
