package view

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/grantledger/internal/budget"
	"github.com/MrJamesThe3rd/grantledger/internal/importer/budgetsheet"
)

const dbTimeout = 5 * time.Second

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

// FormatAmount renders minor units with two decimals.
func FormatAmount(minor int64) string {
	return budget.FormatAmount(minor)
}

// ParseAmountInput reads a user-typed amount such as "1,200.50" into minor units.
func ParseAmountInput(s string) (int64, error) {
	v, ok := budgetsheet.ParseAmount(s)
	if !ok || v <= 0 {
		return 0, fmt.Errorf("enter a positive amount, e.g. 1200.50")
	}

	return v, nil
}

func validateAmount(s string) error {
	_, err := ParseAmountInput(s)
	return err
}

func validateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", field)
		}

		return nil
	}
}

func statusStyle(s budget.Status) string {
	color := map[budget.Status]string{
		budget.StatusPlanned:  "244",
		budget.StatusPartial:  "39",
		budget.StatusComplete: "46",
		budget.StatusExceeded: "196",
	}[s]

	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(string(s))
}

// DbCtx returns a context with a standard timeout for storage operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}
