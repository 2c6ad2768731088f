// Package store persists draft snapshots.
package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/draft/state"
)

// MemoryStore keeps snapshots in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[uuid.UUID]*state.DraftState
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[uuid.UUID]*state.DraftState)}
}

// LoadDraftState returns a copy of the stored snapshot or state.ErrDraftNotFound.
func (m *MemoryStore) LoadDraftState(_ context.Context, draftID uuid.UUID) (*state.DraftState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.states[draftID]
	if !ok {
		return nil, state.ErrDraftNotFound
	}
	return s.Clone(), nil
}

// SaveDraftState stores a copy of s unless a newer version is already stored.
func (m *MemoryStore) SaveDraftState(_ context.Context, s *state.DraftState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.states[s.DraftID]; ok && cur.Version > s.Version {
		return nil
	}
	m.states[s.DraftID] = s.Clone()
	return nil
}
