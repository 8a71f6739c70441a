// Package memory keeps fixed costs in process memory. It backs the
// "memory" data backend and the tests of the packages above storage.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"costeapp/internal/core"
	"costeapp/internal/storage"
)

// Store is a mutex-guarded, in-process repository.
type Store struct {
	mu     sync.RWMutex
	costs  map[int64]core.FixedCost
	nextID int64
	now    func() time.Time
}

var _ storage.FixedCostRepository = (*Store)(nil)

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		costs:  make(map[int64]core.FixedCost),
		nextID: 1,
		now:    time.Now,
	}
}

// WithClock replaces the timestamp source, for deterministic tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

// Seed inserts records as-is, keeping their ids. Missing timestamps are set
// to the store clock.
func (s *Store) Seed(costs ...core.FixedCost) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range costs {
		if c.UpdatedAt.IsZero() {
			c.UpdatedAt = s.now().UTC()
		}
		s.costs[c.ID] = c
		if c.ID >= s.nextID {
			s.nextID = c.ID + 1
		}
	}
	return s
}

func (s *Store) ListFixedCosts(_ context.Context) ([]core.FixedCost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked(), nil
}

func (s *Store) TotalMonthly(_ context.Context) (core.Money, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.Total(s.sortedLocked()), nil
}

func (s *Store) GetFixedCost(_ context.Context, id int64) (core.FixedCost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.costs[id]
	if !ok {
		return core.FixedCost{}, fmt.Errorf("get fixed cost %d: %w", id, core.ErrNotFound)
	}
	return c, nil
}

func (s *Store) CreateFixedCost(_ context.Context, in core.NewFixedCost) (core.FixedCost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := core.FixedCost{
		ID:          s.nextID,
		CostName:    in.CostName,
		MonthlyCost: in.MonthlyCost,
		UpdatedAt:   s.now().UTC(),
	}
	s.costs[c.ID] = c
	s.nextID++
	return c, nil
}

func (s *Store) BulkUpdateFixedCosts(_ context.Context, updates []core.FixedCostUpdate) ([]core.FixedCost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range updates {
		if _, ok := s.costs[u.ID]; !ok {
			return nil, fmt.Errorf("update fixed cost %d: %w", u.ID, core.ErrNotFound)
		}
	}

	updated := make([]core.FixedCost, 0, len(updates))
	for _, u := range updates {
		c := core.FixedCost{
			ID:          u.ID,
			CostName:    u.CostName,
			MonthlyCost: u.MonthlyCost,
			UpdatedAt:   s.now().UTC(),
		}
		s.costs[u.ID] = c
		updated = append(updated, c)
	}
	return updated, nil
}

func (s *Store) DeleteFixedCost(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.costs[id]; !ok {
		return fmt.Errorf("delete fixed cost %d: %w", id, core.ErrNotFound)
	}
	delete(s.costs, id)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) sortedLocked() []core.FixedCost {
	out := make([]core.FixedCost, 0, len(s.costs))
	for _, c := range s.costs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
