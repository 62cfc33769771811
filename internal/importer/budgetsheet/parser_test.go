package budgetsheet_test

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/grantledger/internal/budget"
	"github.com/MrJamesThe3rd/grantledger/internal/importer/budgetsheet"
)

func TestClassify(t *testing.T) {
	type args struct {
		row []string
	}

	type testCase struct {
		name     string
		args     args
		wantKept bool
	}

	tests := []testCase{
		{name: "TotalDirectCostWithAmount", args: args{row: []string{"Total Direct Cost", "", "", "", "", "1,000,000"}}},
		{name: "GrandTotal", args: args{row: []string{"GRAND TOTAL", "", "", "", "", "5,000,000"}}},
		{name: "SubTotal", args: args{row: []string{"Sub-total", "", "", "", "", "200"}}},
		{name: "SubtotalNotIncluding", args: args{row: []string{"Sub-total (not including overheads)", "", "", "", "", "200"}}},
		{name: "IndirectCost", args: args{row: []string{"Indirect cost (10%)", "", "", "", "", "100,000"}}},
		{name: "Blank", args: args{row: []string{"", "", "", "", "", "100"}}},
		{name: "BoilerplateWithoutAmount", args: args{row: []string{"Name of Institution: University of Ibadan"}}},
		{name: "ColumnHeader", args: args{row: []string{"Description", "Qty", "Unit cost", "", "", "Total"}}},
		{
			name:     "TotalInsideLineItem",
			args:     args{row: []string{"Total station survey equipment", "", "", "", "", "80,000"}},
			wantKept: true,
		},
		{
			name:     "BoilerplateWithAmount",
			args:     args{row: []string{"Budget justification workshop", "", "", "", "", "50,000"}},
			wantKept: true,
		},
		{
			name:     "SectionHeader",
			args:     args{row: []string{"Equipment"}},
			wantKept: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := budgetsheet.Classify([][]string{tt.args.row})

			if tt.wantKept {
				assert.Len(t, got, 1)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestClassify_AmountColumnPreference(t *testing.T) {
	rows := budgetsheet.Classify([][]string{
		{"Laptop", "2", "150,000", "", "", "300,000"},
		{"Printer", "1", "80,000"},
		{"Projector", "1", "60,000", "", "", "0"},
		{"Camera", "1", "", "", "", ""},
	})

	require.Len(t, rows, 4)

	assert.Equal(t, int64(30_000_000), rows[0].Amount)
	assert.Equal(t, int64(8_000_000), rows[1].Amount)
	assert.Equal(t, int64(6_000_000), rows[2].Amount)
	assert.False(t, rows[3].HasAmount)

	for i, r := range rows {
		assert.Equal(t, i, r.Index)
	}
}

func TestParse_SectionHeader(t *testing.T) {
	got := budgetsheet.Parse([][]string{
		{"Personnel Costs", "", "", "", "", ""},
		{"Research Assistant Stipend", "", "1,200,000"},
	})

	require.Len(t, got, 1)
	assert.Equal(t, budget.ParsedRow{
		Description: "Research Assistant Stipend",
		Category:    "Personnel Costs",
		Total:       120_000_000,
		SourceRow:   2,
	}, got[0])
}

func TestParse_OutOfRangeAmountIsNotAnItem(t *testing.T) {
	got := budgetsheet.Parse([][]string{
		{"Equipment", "", "", "", "", ""},
		{"Big laptop", "", "", "", "", "184467440737095516.17"},
		{"Laptop", "", "", "", "", "1,500"},
	})

	require.Len(t, got, 1)
	assert.Equal(t, "Laptop", got[0].Description)
	assert.Equal(t, int64(150_000), got[0].Total)
}

func TestParse_Template(t *testing.T) {
	raw := [][]string{
		{"RESEARCH GRANT BUDGET TEMPLATE"},
		{"Project Title: Groundwater quality in peri-urban Lagos"},
		{"Description", "Quantity", "Unit Cost", "Units", "Duration", "Total"},
		{"Laptop for field team", "2", "450,000", "", "", "900,000"},
		{"1. Personnel"},
		{"Research Assistant\nStipend", "2", "100,000", "month", "6", "1,200,000"},
		{"Sub-total", "", "", "", "", "1,200,000"},
		{"2. Travel"},
		{"Logistics"},
		{"Fuel", "", "", "", "", "150,000"},
		{"Hire", "", "", "", "", "95,000"},
		{"Bus", "", "", "", "", "40,000"},
		{"Ok"},
		{"Per diem", "", "", "", "", "300,000"},
		{"Total Direct Cost", "", "", "", "", "2,645,000"},
		{"Indirect Cost (10%)", "", "", "", "", "264,500"},
		{"Grand Total", "", "", "", "", "2,909,500"},
	}

	got := budgetsheet.NewParser().Parse(raw)

	want := []budget.ParsedRow{
		{Description: "Laptop for field team", Category: budget.Uncategorized, Total: 90_000_000, SourceRow: 4},
		{Description: "Research Assistant Stipend", Category: "1. Personnel", Total: 120_000_000, SourceRow: 6},
		{Description: "Fuel", Category: "Logistics", Total: 15_000_000, SourceRow: 10},
		{Description: "Hire", Category: "Logistics", Total: 9_500_000, SourceRow: 11},
		{Description: "Per diem", Category: "Logistics", Total: 30_000_000, SourceRow: 14},
	}

	assert.Equal(t, want, got)
}

func TestParse_Empty(t *testing.T) {
	assert.Empty(t, budgetsheet.Parse(nil))
	assert.Empty(t, budgetsheet.Parse([][]string{{}, {"", ""}}))
}

func TestParser_CustomProfile(t *testing.T) {
	p := budgetsheet.NewParserWithProfile(budgetsheet.Profile{
		Name:           "two column",
		DescriptionCol: 1,
		AmountCols:     []int{2},
	})

	got := p.Parse([][]string{
		{"A", "Supplies"},
		{"1", "Reagents", "12,500"},
	})

	require.Len(t, got, 1)
	assert.Equal(t, "Supplies", got[0].Category)
	assert.Equal(t, int64(1_250_000), got[0].Total)
}

// Every emitted row takes the nearest preceding header, never a later one.
func TestSegment_NearestPrecedingHeader(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for iter := range 200 {
		var (
			rows    []budgetsheet.Row
			headers = map[int]string{}
		)

		for i := range 30 {
			if rng.IntN(3) == 0 {
				desc := fmt.Sprintf("Section %d-%d", iter, i)
				rows = append(rows, budgetsheet.Row{Index: i, Description: desc})
				headers[i] = desc

				continue
			}

			rows = append(rows, budgetsheet.Row{
				Index:       i,
				Description: fmt.Sprintf("Item %d", i),
				Amount:      int64(rng.IntN(1000) + 1),
				HasAmount:   true,
			})
		}

		for _, pr := range budgetsheet.Segment(rows) {
			want := budget.Uncategorized

			for j := pr.SourceRow - 2; j >= 0; j-- {
				if h, ok := headers[j]; ok {
					want = h
					break
				}
			}

			assert.Equal(t, want, pr.Category, "row %d", pr.SourceRow)
		}
	}
}

func TestParse_Deterministic(t *testing.T) {
	raw := [][]string{
		{"Equipment"},
		{"Laptop", "", "", "", "", "900,000"},
		{"Dissemination"},
		{"Conference fees", "", "", "", "", "250,000"},
		{"Total", "", "", "", "", "1,150,000"},
	}

	first := budgetsheet.Parse(raw)

	for range 20 {
		assert.Equal(t, first, budgetsheet.Parse(raw))
	}
}
