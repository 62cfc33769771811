package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/grantledger/internal/budget"
	"github.com/MrJamesThe3rd/grantledger/internal/category"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectItemColumns = `id, grant_id, description, category, price, status, created_at, updated_at`

func scanItem(s scanner) (*budget.Item, error) {
	var (
		item              budget.Item
		categoryStr, stat string
	)

	if err := s.Scan(
		&item.ID, &item.GrantID, &item.Description, &categoryStr, &item.Price, &stat,
		&item.CreatedAt, &item.UpdatedAt,
	); err != nil {
		return nil, err
	}

	item.Category = category.Category(categoryStr)
	item.Status = budget.Status(stat)

	return &item, nil
}

const selectTransactionColumns = `id, budget_item_id, grant_id, amount, description, proof_ref, submitted_by, created_at`

func scanTransaction(s scanner) (*budget.Transaction, error) {
	var (
		tx                    budget.Transaction
		proofRef, submittedBy sql.NullString
	)

	if err := s.Scan(
		&tx.ID, &tx.BudgetItemID, &tx.GrantID, &tx.Amount, &tx.Description,
		&proofRef, &submittedBy, &tx.CreatedAt,
	); err != nil {
		return nil, err
	}

	tx.ProofRef = proofRef.String
	tx.SubmittedBy = submittedBy.String

	return &tx, nil
}

func (s *Store) CreateItem(ctx context.Context, item *budget.Item) error {
	query := `
		INSERT INTO budget_items (grant_id, description, category, price, status, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		item.GrantID,
		item.Description,
		item.Category,
		item.Price,
		item.Status,
	).Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating budget item: %w", err)
	}

	return nil
}

func (s *Store) GetItem(ctx context.Context, id uuid.UUID) (*budget.Item, error) {
	query := `SELECT ` + selectItemColumns + ` FROM budget_items WHERE id = $1`

	item, err := scanItem(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, budget.ErrNotFound
		}

		return nil, fmt.Errorf("getting budget item: %w", err)
	}

	return item, nil
}

func (s *Store) ListItems(ctx context.Context, filter budget.ItemFilter) ([]*budget.Item, error) {
	query := `SELECT ` + selectItemColumns + ` FROM budget_items WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.GrantID != nil {
		query += fmt.Sprintf(" AND grant_id = $%d", argIdx)

		args = append(args, *filter.GrantID)
		argIdx++
	}

	if filter.Category != nil {
		query += fmt.Sprintf(" AND category = $%d", argIdx)

		args = append(args, *filter.Category)
		argIdx++
	}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)

		args = append(args, *filter.Status)
	}

	query += " ORDER BY created_at ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing budget items: %w", err)
	}
	defer rows.Close()

	var items []*budget.Item

	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning budget item: %w", err)
		}

		items = append(items, item)
	}

	return items, rows.Err()
}

func (s *Store) DeleteItem(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM budget_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting budget item: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting budget item: %w", err)
	}

	if n == 0 {
		return budget.ErrNotFound
	}

	return nil
}

// DeleteGrant removes the grant's items; their transactions go with them through
// the ON DELETE CASCADE foreign key.
func (s *Store) DeleteGrant(ctx context.Context, grantID uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM budget_items WHERE grant_id = $1`, grantID); err != nil {
		return fmt.Errorf("deleting grant budget: %w", err)
	}

	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (*budget.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + ` FROM budget_transactions WHERE id = $1`

	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, budget.ErrNotFound
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	return tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, filter budget.TransactionFilter) ([]*budget.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + ` FROM budget_transactions WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.GrantID != nil {
		query += fmt.Sprintf(" AND grant_id = $%d", argIdx)

		args = append(args, *filter.GrantID)
		argIdx++
	}

	if filter.BudgetItemID != nil {
		query += fmt.Sprintf(" AND budget_item_id = $%d", argIdx)

		args = append(args, *filter.BudgetItemID)
	}

	query += " ORDER BY created_at ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var txs []*budget.Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	return txs, rows.Err()
}

func (s *Store) ItemSpent(ctx context.Context, itemID uuid.UUID) (int64, error) {
	return sumSpent(ctx, s.db, itemID)
}

func (s *Store) SpentByItem(ctx context.Context, grantID uuid.UUID) (map[uuid.UUID]int64, error) {
	query := `
		SELECT budget_item_id, SUM(amount)
		FROM budget_transactions
		WHERE grant_id = $1
		GROUP BY budget_item_id
	`

	rows, err := s.db.QueryContext(ctx, query, grantID)
	if err != nil {
		return nil, fmt.Errorf("summing grant ledger: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]int64)

	for rows.Next() {
		var (
			id    uuid.UUID
			spent int64
		)

		if err := rows.Scan(&id, &spent); err != nil {
			return nil, fmt.Errorf("scanning ledger sum: %w", err)
		}

		out[id] = spent
	}

	return out, rows.Err()
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func sumSpent(ctx context.Context, q querier, itemID uuid.UUID) (int64, error) {
	var spent int64

	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM budget_transactions WHERE budget_item_id = $1`,
		itemID,
	).Scan(&spent)
	if err != nil {
		return 0, fmt.Errorf("summing item ledger: %w", err)
	}

	return spent, nil
}

type ledgerTx struct {
	tx   *sql.Tx
	item *budget.Item
}

// BeginLedger opens a database transaction and takes a row lock on the item, so
// concurrent writers against the same item queue behind each other.
func (s *Store) BeginLedger(ctx context.Context, itemID uuid.UUID) (budget.LedgerTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning ledger tx: %w", err)
	}

	query := `SELECT ` + selectItemColumns + ` FROM budget_items WHERE id = $1 FOR UPDATE`

	item, err := scanItem(dbTx.QueryRowContext(ctx, query, itemID))
	if err != nil {
		dbTx.Rollback()

		if errors.Is(err, sql.ErrNoRows) {
			return nil, budget.ErrNotFound
		}

		return nil, fmt.Errorf("locking budget item: %w", err)
	}

	return &ledgerTx{tx: dbTx, item: item}, nil
}

func (l *ledgerTx) Item() *budget.Item { return l.item }
func (l *ledgerTx) Commit() error      { return l.tx.Commit() }
func (l *ledgerTx) Rollback() error    { return l.tx.Rollback() }

func (l *ledgerTx) Spent(ctx context.Context) (int64, error) {
	return sumSpent(ctx, l.tx, l.item.ID)
}

func (l *ledgerTx) AppendTransaction(ctx context.Context, tx *budget.Transaction) error {
	query := `
		INSERT INTO budget_transactions (budget_item_id, grant_id, amount, description, proof_ref, submitted_by, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NOW())
		RETURNING id, created_at
	`

	err := l.tx.QueryRowContext(ctx, query,
		tx.BudgetItemID,
		tx.GrantID,
		tx.Amount,
		tx.Description,
		tx.ProofRef,
		tx.SubmittedBy,
	).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("appending transaction: %w", err)
	}

	return nil
}

func (l *ledgerTx) UpdateItem(ctx context.Context, item *budget.Item) error {
	query := `
		UPDATE budget_items
		SET description = $1, category = $2, price = $3, status = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`

	err := l.tx.QueryRowContext(ctx, query,
		item.Description,
		item.Category,
		item.Price,
		item.Status,
		item.ID,
	).Scan(&item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating budget item: %w", err)
	}

	return nil
}
