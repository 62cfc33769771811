package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/grantledger/internal/matching"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) FindMatch(ctx context.Context, raw string) (*matching.Mapping, error) {
	query := `
		SELECT raw_pattern, preferred_description, COALESCE(preferred_category, '')
		FROM item_description_mappings
		WHERE $1 ILIKE '%' || raw_pattern || '%'
		ORDER BY LENGTH(raw_pattern) DESC, created_at DESC
		LIMIT 1
	`

	var m matching.Mapping

	err := s.db.QueryRowContext(ctx, query, raw).Scan(&m.Pattern, &m.Description, &m.Category)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("finding match: %w", err)
	}

	return &m, nil
}

func (s *Store) CreateMapping(ctx context.Context, m matching.Mapping) error {
	query := `
		INSERT INTO item_description_mappings (raw_pattern, preferred_description, preferred_category, created_at)
		VALUES ($1, $2, NULLIF($3, ''), NOW())
	`

	_, err := s.db.ExecContext(ctx, query, m.Pattern, m.Description, m.Category)
	if err != nil {
		return fmt.Errorf("creating mapping: %w", err)
	}

	return nil
}

func (s *Store) ListMappings(ctx context.Context) ([]matching.Mapping, error) {
	query := `
		SELECT raw_pattern, preferred_description, COALESCE(preferred_category, '')
		FROM item_description_mappings
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing mappings: %w", err)
	}
	defer rows.Close()

	var out []matching.Mapping

	for rows.Next() {
		var m matching.Mapping
		if err := rows.Scan(&m.Pattern, &m.Description, &m.Category); err != nil {
			return nil, fmt.Errorf("scanning mapping: %w", err)
		}

		out = append(out, m)
	}

	return out, rows.Err()
}
