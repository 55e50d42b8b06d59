package storage

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/matzehuels/domsplit/pkg/errors"
	"github.com/matzehuels/domsplit/pkg/graph"
)

// MemoryStore keeps plans in process memory. Used by the CLI and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	plans map[string]*graph.Plan
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{plans: make(map[string]*graph.Plan)}
}

// SavePlan implements Store. The plan is stored by value; later changes to
// p are not visible through the store.
func (s *MemoryStore) SavePlan(_ context.Context, p *graph.Plan) error {
	stamp(p)
	cp := *p
	s.mu.Lock()
	s.plans[p.ID] = &cp
	s.mu.Unlock()
	return nil
}

// GetPlan implements Store.
func (s *MemoryStore) GetPlan(_ context.Context, id string) (*graph.Plan, error) {
	s.mu.RLock()
	p, ok := s.plans[id]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.New(errors.ErrCodePlanNotFound, "plan %s not found", id)
	}
	cp := *p
	return &cp, nil
}

// ListPlans implements Store.
func (s *MemoryStore) ListPlans(_ context.Context, opts ListOptions) ([]Summary, error) {
	s.mu.RLock()
	out := make([]Summary, 0, len(s.plans))
	for _, p := range s.plans {
		if opts.Source != "" && p.Source != opts.Source {
			continue
		}
		out = append(out, Summarize(p))
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b Summary) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if n := opts.limit(); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// DeletePlan implements Store.
func (s *MemoryStore) DeletePlan(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[id]; !ok {
		return errors.New(errors.ErrCodePlanNotFound, "plan %s not found", id)
	}
	delete(s.plans, id)
	return nil
}

// Close does nothing.
func (s *MemoryStore) Close(context.Context) error { return nil }

var _ Store = (*MemoryStore)(nil)
