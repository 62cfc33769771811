package budget

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/grantledger/internal/category"
	"github.com/MrJamesThe3rd/grantledger/internal/logger"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=budget
type Repository interface {
	CreateItem(ctx context.Context, item *Item) error
	GetItem(ctx context.Context, id uuid.UUID) (*Item, error)
	ListItems(ctx context.Context, filter ItemFilter) ([]*Item, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
	DeleteGrant(ctx context.Context, grantID uuid.UUID) error

	GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]*Transaction, error)
	ItemSpent(ctx context.Context, itemID uuid.UUID) (int64, error)
	SpentByItem(ctx context.Context, grantID uuid.UUID) (map[uuid.UUID]int64, error)

	// BeginLedger opens a write scope that holds an exclusive lock on the item
	// until Commit or Rollback. Returns ErrNotFound if the item does not exist.
	BeginLedger(ctx context.Context, itemID uuid.UUID) (LedgerTx, error)
}

// LedgerTx serialises read-sum-write cycles on a single budget item.
type LedgerTx interface {
	Item() *Item
	Spent(ctx context.Context) (int64, error)
	AppendTransaction(ctx context.Context, tx *Transaction) error
	UpdateItem(ctx context.Context, item *Item) error
	Commit() error
	Rollback() error
}

// AttachmentStore keeps proof documents. The ledger only stores the returned reference.
type AttachmentStore interface {
	Store(ctx context.Context, name, contentType string, data []byte) (string, error)
	ViewURL(ctx context.Context, ref string) (string, error)
}

type Service struct {
	repo        Repository
	matcher     *category.Matcher
	attachments AttachmentStore
}

// NewService wires the ledger. attachments may be nil, in which case proof uploads are rejected.
func NewService(repo Repository, matcher *category.Matcher, attachments AttachmentStore) *Service {
	if matcher == nil {
		matcher = category.Default()
	}

	return &Service{repo: repo, matcher: matcher, attachments: attachments}
}

// Matcher exposes the category matcher used for manual entry and imports.
func (s *Service) Matcher() *category.Matcher {
	return s.matcher
}

type CreateItemParams struct {
	GrantID     uuid.UUID
	Description string
	Category    string // Free text, resolved through the category matcher
	Price       int64
}

func (s *Service) CreateItem(ctx context.Context, params CreateItemParams) (*Item, error) {
	desc := strings.TrimSpace(params.Description)
	if desc == "" {
		return nil, ErrEmptyDescription
	}

	if params.Price < 0 {
		return nil, ErrInvalidPrice
	}

	item := &Item{
		GrantID:     params.GrantID,
		Description: desc,
		Category:    s.matcher.Match(params.Category),
		Price:       params.Price,
		Status:      DeriveStatus(params.Price, 0),
	}

	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}

	return item, nil
}

func (s *Service) GetItem(ctx context.Context, id uuid.UUID) (*Item, error) {
	return s.repo.GetItem(ctx, id)
}

func (s *Service) ListItems(ctx context.Context, filter ItemFilter) ([]*Item, error) {
	return s.repo.ListItems(ctx, filter)
}

type UpdateItemParams struct {
	Description *string
	Category    *string // Free text, resolved through the category matcher
	Price       *int64
}

// UpdateItem edits an item and re-derives its status from the ledger under the item lock.
func (s *Service) UpdateItem(ctx context.Context, id uuid.UUID, params UpdateItemParams) (*Item, error) {
	if params.Price != nil && *params.Price < 0 {
		return nil, ErrInvalidPrice
	}

	if params.Description != nil && strings.TrimSpace(*params.Description) == "" {
		return nil, ErrEmptyDescription
	}

	ltx, err := s.repo.BeginLedger(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("begin ledger: %w", err)
	}
	defer ltx.Rollback()

	item := ltx.Item()

	if params.Description != nil {
		item.Description = strings.TrimSpace(*params.Description)
	}

	if params.Category != nil {
		item.Category = s.matcher.Match(*params.Category)
	}

	if params.Price != nil {
		item.Price = *params.Price
	}

	spent, err := ltx.Spent(ctx)
	if err != nil {
		return nil, fmt.Errorf("sum ledger: %w", err)
	}

	item.Status = DeriveStatus(item.Price, spent)

	if err := ltx.UpdateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}

	if err := ltx.Commit(); err != nil {
		return nil, fmt.Errorf("commit item update: %w", err)
	}

	return item, nil
}

func (s *Service) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteItem(ctx, id)
}

// DeleteGrant removes every item of a grant together with its transactions.
func (s *Service) DeleteGrant(ctx context.Context, grantID uuid.UUID) error {
	return s.repo.DeleteGrant(ctx, grantID)
}

// OverspendWarning is raised when a transaction pushes an item past its allocation.
// It never blocks the transaction.
type OverspendWarning struct {
	ItemID    uuid.UUID
	Allocated int64
	Spent     int64 // Including the candidate transaction
}

// Over returns the amount by which the allocation is exceeded.
func (w *OverspendWarning) Over() int64 {
	return w.Spent - w.Allocated
}

func (w *OverspendWarning) String() string {
	return fmt.Sprintf("spend of %d exceeds allocation of %d by %d", w.Spent, w.Allocated, w.Over())
}

func overspend(item *Item, spent int64) *OverspendWarning {
	if DeriveStatus(item.Price, spent) != StatusExceeded {
		return nil
	}

	return &OverspendWarning{ItemID: item.ID, Allocated: item.Price, Spent: spent}
}

// CheckTransaction previews whether adding amount to the item would exceed its
// allocation. It does not write anything.
func (s *Service) CheckTransaction(ctx context.Context, itemID uuid.UUID, amount int64) (*OverspendWarning, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	spent, err := s.repo.ItemSpent(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("sum ledger: %w", err)
	}

	total, err := addSpend(spent, amount)
	if err != nil {
		return nil, err
	}

	return overspend(item, total), nil
}

// addSpend extends a running ledger total, refusing totals int64 cannot hold.
func addSpend(spent, amount int64) (int64, error) {
	if amount > math.MaxInt64-spent {
		return 0, ErrAmountOverflow
	}

	return spent + amount, nil
}

// Proof is an optional document uploaded alongside a transaction.
type Proof struct {
	Name        string
	ContentType string
	Data        []byte
}

type RecordParams struct {
	ItemID      uuid.UUID
	Amount      int64
	Description string
	SubmittedBy string
	Proof       *Proof
}

type RecordResult struct {
	Transaction *Transaction
	Item        *Item
	Warning     *OverspendWarning
}

// RecordTransaction appends spend to an item's ledger and re-derives the item's
// status from the new running total in the same locked scope.
func (s *Service) RecordTransaction(ctx context.Context, params RecordParams) (_ *RecordResult, err error) {
	if params.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	log := logger.FromContext(ctx)

	var proofRef string

	if params.Proof != nil {
		if s.attachments == nil {
			return nil, ErrAttachmentsDisabled
		}

		ref, storeErr := s.attachments.Store(ctx, params.Proof.Name, params.Proof.ContentType, params.Proof.Data)
		if storeErr != nil {
			return nil, fmt.Errorf("store proof: %w", storeErr)
		}

		proofRef = ref

		defer func() {
			if err != nil {
				log.Warn().Err(err).Str("proof_ref", proofRef).Msg("ledger write failed after proof upload, attachment is orphaned")
			}
		}()
	}

	ltx, err := s.repo.BeginLedger(ctx, params.ItemID)
	if err != nil {
		return nil, fmt.Errorf("begin ledger: %w", err)
	}
	defer ltx.Rollback()

	item := ltx.Item()

	spent, err := ltx.Spent(ctx)
	if err != nil {
		return nil, fmt.Errorf("sum ledger: %w", err)
	}

	spent, err = addSpend(spent, params.Amount)
	if err != nil {
		return nil, err
	}

	tx := &Transaction{
		BudgetItemID: item.ID,
		GrantID:      item.GrantID,
		Amount:       params.Amount,
		Description:  strings.TrimSpace(params.Description),
		ProofRef:     proofRef,
		SubmittedBy:  params.SubmittedBy,
	}

	if err := ltx.AppendTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("append transaction: %w", err)
	}

	item.Status = DeriveStatus(item.Price, spent)

	if err := ltx.UpdateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("update item status: %w", err)
	}

	if err := ltx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	warning := overspend(item, spent)
	if warning != nil {
		log.Warn().
			Str("item_id", item.ID.String()).
			Int64("allocated", warning.Allocated).
			Int64("spent", warning.Spent).
			Msg("budget item overspent")
	}

	return &RecordResult{Transaction: tx, Item: item, Warning: warning}, nil
}

func (s *Service) GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

func (s *Service) ListTransactions(ctx context.Context, filter TransactionFilter) ([]*Transaction, error) {
	return s.repo.ListTransactions(ctx, filter)
}

// ProofURL resolves a viewable URL for a transaction's proof document.
// Returns ErrNotFound when the transaction has no proof.
func (s *Service) ProofURL(ctx context.Context, transactionID uuid.UUID) (string, error) {
	tx, err := s.repo.GetTransaction(ctx, transactionID)
	if err != nil {
		return "", err
	}

	if tx.ProofRef == "" {
		return "", ErrNotFound
	}

	if s.attachments == nil {
		return "", ErrAttachmentsDisabled
	}

	return s.attachments.ViewURL(ctx, tx.ProofRef)
}

// Reconcile recomputes an item's status from its ledger and persists it if it drifted.
func (s *Service) Reconcile(ctx context.Context, itemID uuid.UUID) (*Item, bool, error) {
	ltx, err := s.repo.BeginLedger(ctx, itemID)
	if err != nil {
		return nil, false, fmt.Errorf("begin ledger: %w", err)
	}
	defer ltx.Rollback()

	item := ltx.Item()

	spent, err := ltx.Spent(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("sum ledger: %w", err)
	}

	want := DeriveStatus(item.Price, spent)
	if want == item.Status {
		return item, false, nil
	}

	logger.FromContext(ctx).Info().
		Str("item_id", item.ID.String()).
		Str("from", string(item.Status)).
		Str("to", string(want)).
		Msg("reconciled item status")

	item.Status = want

	if err := ltx.UpdateItem(ctx, item); err != nil {
		return nil, false, fmt.Errorf("update item status: %w", err)
	}

	if err := ltx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit reconcile: %w", err)
	}

	return item, true, nil
}
