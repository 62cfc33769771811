// Package memstore keeps learned description mappings in process memory.
package memstore

import (
	"context"
	"strings"
	"sync"

	"github.com/MrJamesThe3rd/grantledger/internal/matching"
)

type Store struct {
	mu       sync.RWMutex
	mappings []matching.Mapping // Oldest first
}

func New() *Store {
	return &Store{}
}

// FindMatch returns the longest pattern contained in raw, case-insensitively.
// Among equally long patterns the most recently learned one wins.
func (s *Store) FindMatch(_ context.Context, raw string) (*matching.Mapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lower := strings.ToLower(raw)

	var best *matching.Mapping

	for i := len(s.mappings) - 1; i >= 0; i-- {
		m := s.mappings[i]
		if !strings.Contains(lower, strings.ToLower(m.Pattern)) {
			continue
		}

		if best == nil || len(m.Pattern) > len(best.Pattern) {
			best = &m
		}
	}

	return best, nil
}

func (s *Store) CreateMapping(_ context.Context, m matching.Mapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mappings = append(s.mappings, m)

	return nil
}

// ListMappings returns the newest mappings first.
func (s *Store) ListMappings(_ context.Context) ([]matching.Mapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]matching.Mapping, 0, len(s.mappings))
	for i := len(s.mappings) - 1; i >= 0; i-- {
		out = append(out, s.mappings[i])
	}

	return out, nil
}
