package matching

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrJamesThe3rd/grantledger/internal/budget"
)

var ErrEmptyPattern = errors.New("mapping pattern and description are required")

// Mapping rewrites spreadsheet line-item text that contains Pattern.
type Mapping struct {
	Pattern     string
	Description string
	// Category is optional raw category text; it still goes through the category
	// matcher at import time.
	Category string
}

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=matching
type Repository interface {
	// FindMatch returns the longest mapping whose pattern occurs in raw, or nil.
	FindMatch(ctx context.Context, raw string) (*Mapping, error)
	CreateMapping(ctx context.Context, m Mapping) error
	ListMappings(ctx context.Context) ([]Mapping, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Suggest returns the learned mapping for a raw line-item description, or nil.
func (s *Service) Suggest(ctx context.Context, raw string) (*Mapping, error) {
	return s.repo.FindMatch(ctx, raw)
}

// Learn remembers a new mapping from a raw pattern to a preferred description.
func (s *Service) Learn(ctx context.Context, m Mapping) error {
	m.Pattern = strings.TrimSpace(m.Pattern)
	m.Description = strings.TrimSpace(m.Description)
	m.Category = strings.TrimSpace(m.Category)

	if m.Pattern == "" || m.Description == "" {
		return ErrEmptyPattern
	}

	return s.repo.CreateMapping(ctx, m)
}

func (s *Service) List(ctx context.Context) ([]Mapping, error) {
	return s.repo.ListMappings(ctx)
}

// Apply rewrites parsed rows with learned mappings before review. It returns a new
// slice and the number of rows that changed; the input is left untouched.
func (s *Service) Apply(ctx context.Context, rows []budget.ParsedRow) ([]budget.ParsedRow, int, error) {
	out := make([]budget.ParsedRow, len(rows))
	changed := 0

	for i, row := range rows {
		out[i] = row

		m, err := s.repo.FindMatch(ctx, row.Description)
		if err != nil {
			return nil, 0, fmt.Errorf("row %d: %w", row.SourceRow, err)
		}

		if m == nil {
			continue
		}

		out[i].Description = m.Description
		if m.Category != "" {
			out[i].Category = m.Category
		}

		if out[i] != row {
			changed++
		}
	}

	return out, changed, nil
}
