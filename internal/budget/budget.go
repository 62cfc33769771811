package budget

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/grantledger/internal/category"
)

// Status is the spend state of a budget item, derived from its transactions.
type Status string

const (
	StatusPlanned  Status = "planned"
	StatusPartial  Status = "partial"
	StatusComplete Status = "complete"
	StatusExceeded Status = "exceeded"
)

// Statuses returns every status in lifecycle order.
func Statuses() []Status {
	return []Status{StatusPlanned, StatusPartial, StatusComplete, StatusExceeded}
}

// Uncategorized is the section label given to rows that appear before any section header.
const Uncategorized = "Uncategorized"

// Item is a planned allocation of funds for a grant.
type Item struct {
	ID          uuid.UUID
	GrantID     uuid.UUID
	Description string
	Category    category.Category
	Price       int64 // Allocated amount in minor units
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// Remaining returns how much of the allocation is left after spent; negative when overspent.
func (i *Item) Remaining(spent int64) int64 {
	return i.Price - spent
}

// Transaction is one unit of executed spend against a budget item. Transactions are
// never modified after creation.
type Transaction struct {
	ID           uuid.UUID
	BudgetItemID uuid.UUID
	GrantID      uuid.UUID
	Amount       int64 // Minor units, always positive
	Description  string
	ProofRef     string // Attachment reference, empty when no proof was uploaded
	SubmittedBy  string
	CreatedAt    time.Time
}

// ParsedRow is a spreadsheet line item awaiting review. Category holds the raw
// section header text; it is only mapped to a canonical category on commit.
type ParsedRow struct {
	Description string
	Category    string
	Total       int64 // Minor units
	SourceRow   int   // 1-based row number in the source sheet
}

type ItemFilter struct {
	GrantID  *uuid.UUID
	Category *category.Category
	Status   *Status
}

type TransactionFilter struct {
	GrantID      *uuid.UUID
	BudgetItemID *uuid.UUID
}

// FormatAmount renders minor units with two decimals, e.g. 120000050 -> "1200000.50".
func FormatAmount(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}
