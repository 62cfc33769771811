// Package memstore is an in-process implementation of budget.Repository, used by
// the TUI's offline mode and by workflow tests.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/grantledger/internal/budget"
)

type Store struct {
	mu           sync.RWMutex
	items        map[uuid.UUID]budget.Item
	itemOrder    []uuid.UUID
	transactions []budget.Transaction

	// ledger is a one-slot semaphore serialising BeginLedger scopes; the slot is
	// held until Commit or Rollback.
	ledger chan struct{}
}

func New() *Store {
	return &Store{
		items:  make(map[uuid.UUID]budget.Item),
		ledger: make(chan struct{}, 1),
	}
}

func (s *Store) CreateItem(_ context.Context, item *budget.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item.ID = uuid.New()
	item.CreatedAt = time.Now()

	s.items[item.ID] = *item
	s.itemOrder = append(s.itemOrder, item.ID)

	return nil
}

func (s *Store) GetItem(_ context.Context, id uuid.UUID) (*budget.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, budget.ErrNotFound
	}

	return &item, nil
}

func (s *Store) ListItems(_ context.Context, filter budget.ItemFilter) ([]*budget.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*budget.Item

	for _, id := range s.itemOrder {
		item, ok := s.items[id]
		if !ok {
			continue
		}

		if filter.GrantID != nil && item.GrantID != *filter.GrantID {
			continue
		}

		if filter.Category != nil && item.Category != *filter.Category {
			continue
		}

		if filter.Status != nil && item.Status != *filter.Status {
			continue
		}

		out = append(out, &item)
	}

	return out, nil
}

func (s *Store) DeleteItem(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deleteItems(func(item budget.Item) bool { return item.ID == id }) == 0 {
		return budget.ErrNotFound
	}

	return nil
}

func (s *Store) DeleteGrant(_ context.Context, grantID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteItems(func(item budget.Item) bool { return item.GrantID == grantID })

	return nil
}

// deleteItems removes matching items and their transactions and reports how many
// items went. Caller holds mu.
func (s *Store) deleteItems(match func(budget.Item) bool) int {
	removed := make(map[uuid.UUID]struct{})

	for id, item := range s.items {
		if match(item) {
			removed[id] = struct{}{}
			delete(s.items, id)
		}
	}

	order := s.itemOrder[:0]
	for _, id := range s.itemOrder {
		if _, gone := removed[id]; !gone {
			order = append(order, id)
		}
	}

	s.itemOrder = order

	kept := s.transactions[:0]
	for _, tx := range s.transactions {
		if _, gone := removed[tx.BudgetItemID]; !gone {
			kept = append(kept, tx)
		}
	}

	s.transactions = kept

	return len(removed)
}

func (s *Store) GetTransaction(_ context.Context, id uuid.UUID) (*budget.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, tx := range s.transactions {
		if tx.ID == id {
			return &tx, nil
		}
	}

	return nil, budget.ErrNotFound
}

func (s *Store) ListTransactions(_ context.Context, filter budget.TransactionFilter) ([]*budget.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*budget.Transaction

	for _, tx := range s.transactions {
		if filter.GrantID != nil && tx.GrantID != *filter.GrantID {
			continue
		}

		if filter.BudgetItemID != nil && tx.BudgetItemID != *filter.BudgetItemID {
			continue
		}

		out = append(out, &tx)
	}

	return out, nil
}

func (s *Store) ItemSpent(_ context.Context, itemID uuid.UUID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.spent(itemID), nil
}

func (s *Store) SpentByItem(_ context.Context, grantID uuid.UUID) (map[uuid.UUID]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[uuid.UUID]int64)

	for _, tx := range s.transactions {
		if tx.GrantID == grantID {
			out[tx.BudgetItemID] += tx.Amount
		}
	}

	return out, nil
}

// spent sums an item's ledger. Caller holds mu.
func (s *Store) spent(itemID uuid.UUID) int64 {
	var total int64

	for _, tx := range s.transactions {
		if tx.BudgetItemID == itemID {
			total += tx.Amount
		}
	}

	return total
}

// BeginLedger waits for the ledger slot, giving up when ctx ends first.
func (s *Store) BeginLedger(ctx context.Context, itemID uuid.UUID) (budget.LedgerTx, error) {
	select {
	case s.ledger <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	item, err := s.GetItem(ctx, itemID)
	if err != nil {
		<-s.ledger
		return nil, err
	}

	return &ledgerTx{store: s, item: item}, nil
}

// ledgerTx buffers writes and applies them on Commit.
type ledgerTx struct {
	store   *Store
	item    *budget.Item
	pending []budget.Transaction
	update  *budget.Item
	closed  bool
}

func (l *ledgerTx) Item() *budget.Item {
	return l.item
}

func (l *ledgerTx) Spent(_ context.Context) (int64, error) {
	l.store.mu.RLock()
	defer l.store.mu.RUnlock()

	total := l.store.spent(l.item.ID)
	for _, tx := range l.pending {
		total += tx.Amount
	}

	return total, nil
}

func (l *ledgerTx) AppendTransaction(_ context.Context, tx *budget.Transaction) error {
	tx.ID = uuid.New()
	tx.CreatedAt = time.Now()
	l.pending = append(l.pending, *tx)

	return nil
}

func (l *ledgerTx) UpdateItem(_ context.Context, item *budget.Item) error {
	updated := *item
	now := time.Now()
	updated.UpdatedAt = &now
	l.update = &updated
	item.UpdatedAt = &now

	return nil
}

func (l *ledgerTx) Commit() error {
	if l.closed {
		return nil
	}

	defer l.close()

	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	if _, ok := l.store.items[l.item.ID]; !ok {
		return budget.ErrNotFound
	}

	l.store.transactions = append(l.store.transactions, l.pending...)

	if l.update != nil {
		l.store.items[l.item.ID] = *l.update
	}

	return nil
}

func (l *ledgerTx) Rollback() error {
	if l.closed {
		return nil
	}

	l.close()

	return nil
}

func (l *ledgerTx) close() {
	l.closed = true
	l.pending = nil
	l.update = nil
	<-l.store.ledger
}
