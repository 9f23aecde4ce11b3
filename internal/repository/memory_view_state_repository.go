package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"pdf-viewer-plus/internal/domain"
)

// MemoryViewStateRepository keeps view states for the lifetime of the process.
// It is used when Supabase is not configured and by the terminal viewer.
type MemoryViewStateRepository struct {
	mu     sync.RWMutex
	states map[string]domain.SavedViewState
	now    func() time.Time
}

// NewMemoryViewStateRepository creates an empty repository
func NewMemoryViewStateRepository() *MemoryViewStateRepository {
	return &MemoryViewStateRepository{
		states: make(map[string]domain.SavedViewState),
		now:    time.Now,
	}
}

// Get returns a copy of the saved state
func (r *MemoryViewStateRepository) Get(ctx context.Context, instanceKey string) (*domain.SavedViewState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.states[instanceKey]
	if !ok {
		return nil, domain.ErrViewStateNotFound
	}
	return cloneSavedState(st), nil
}

// Save inserts or replaces the state for its instance key
func (r *MemoryViewStateRepository) Save(ctx context.Context, state *domain.SavedViewState) error {
	if state == nil || state.InstanceKey == "" {
		return &domain.ValidationError{Field: "instance_key", Message: "instance key is required"}
	}

	st := *cloneSavedState(*state)
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = r.now().UTC()
	}

	r.mu.Lock()
	r.states[st.InstanceKey] = st
	r.mu.Unlock()
	return nil
}

// Delete removes the state for the instance key
func (r *MemoryViewStateRepository) Delete(ctx context.Context, instanceKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.states[instanceKey]; !ok {
		return domain.ErrViewStateNotFound
	}
	delete(r.states, instanceKey)
	return nil
}

// List returns all states, most recently updated first
func (r *MemoryViewStateRepository) List(ctx context.Context) ([]*domain.SavedViewState, error) {
	r.mu.RLock()
	out := make([]*domain.SavedViewState, 0, len(r.states))
	for _, st := range r.states {
		out = append(out, cloneSavedState(st))
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].InstanceKey < out[j].InstanceKey
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func cloneSavedState(st domain.SavedViewState) *domain.SavedViewState {
	if st.Width != nil {
		w := *st.Width
		st.Width = &w
	}
	if st.Height != nil {
		h := *st.Height
		st.Height = &h
	}
	return &st
}
