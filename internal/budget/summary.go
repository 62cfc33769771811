package budget

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/grantledger/internal/category"
)

// ItemBalance pairs an item with the spend recorded against it.
type ItemBalance struct {
	Item      *Item
	Spent     int64
	Remaining int64
}

// CategorySummary aggregates planned allocation against actual spend for one category.
type CategorySummary struct {
	Category  category.Category
	Planned   int64
	Spent     int64
	Remaining int64
	Items     int
}

// GrantSummary is the planned-versus-actual view of a grant's budget.
type GrantSummary struct {
	GrantID    uuid.UUID
	Planned    int64
	Spent      int64
	Remaining  int64
	Categories []CategorySummary // Canonical order, only categories with items
	Items      []ItemBalance
	ByStatus   map[Status]int
}

// Summary recomputes the grant's budget position from the ledger. Spend is never
// read from a stored aggregate.
func (s *Service) Summary(ctx context.Context, grantID uuid.UUID) (*GrantSummary, error) {
	items, err := s.repo.ListItems(ctx, ItemFilter{GrantID: &grantID})
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	spentByItem, err := s.repo.SpentByItem(ctx, grantID)
	if err != nil {
		return nil, fmt.Errorf("sum ledger: %w", err)
	}

	sum := &GrantSummary{
		GrantID:  grantID,
		Items:    make([]ItemBalance, 0, len(items)),
		ByStatus: make(map[Status]int, len(Statuses())),
	}

	perCategory := make(map[category.Category]*CategorySummary)

	for _, item := range items {
		spent := spentByItem[item.ID]

		sum.Items = append(sum.Items, ItemBalance{
			Item:      item,
			Spent:     spent,
			Remaining: item.Remaining(spent),
		})

		sum.Planned += item.Price
		sum.Spent += spent
		sum.ByStatus[DeriveStatus(item.Price, spent)]++

		cs, ok := perCategory[item.Category]
		if !ok {
			cs = &CategorySummary{Category: item.Category}
			perCategory[item.Category] = cs
		}

		cs.Planned += item.Price
		cs.Spent += spent
		cs.Items++
	}

	sum.Remaining = sum.Planned - sum.Spent

	for _, c := range category.All() {
		cs, ok := perCategory[c]
		if !ok {
			continue
		}

		cs.Remaining = cs.Planned - cs.Spent
		sum.Categories = append(sum.Categories, *cs)
	}

	return sum, nil
}
