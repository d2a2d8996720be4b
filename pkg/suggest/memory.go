package suggest

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-process Store used in tests and single-node
// deployments without redis.
type MemoryStore struct {
	mu   sync.RWMutex
	sets map[string]map[string]struct{} // tenant:set -> terms
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sets: make(map[string]map[string]struct{})}
}

func (s *MemoryStore) key(tenantID, set string) string {
	return tenantID + ":" + set
}

func (s *MemoryStore) Add(ctx context.Context, tenantID, set string, terms ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.key(tenantID, set)
	if s.sets[key] == nil {
		s.sets[key] = make(map[string]struct{})
	}
	for _, t := range terms {
		if t != "" {
			s.sets[key][t] = struct{}{}
		}
	}
	return nil
}

func (s *MemoryStore) RangeByLex(ctx context.Context, tenantID, set, prefix string, limit int) ([]string, error) {
	if prefix == "" {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []string
	for term := range s.sets[s.key(tenantID, set)] {
		if strings.HasPrefix(term, prefix) {
			matches = append(matches, term)
		}
	}
	sort.Strings(matches)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (s *MemoryStore) Remove(ctx context.Context, tenantID, set string, terms ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.key(tenantID, set)
	for _, t := range terms {
		delete(s.sets[key], t)
	}
	return nil
}

func (s *MemoryStore) DeleteTenant(ctx context.Context, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sp := range setPriorities {
		delete(s.sets, s.key(tenantID, sp.Set))
	}
	return nil
}
