package progression

import (
	"context"
	"sync"

	"github.com/Khim-khaos/CraftMastery-sub001/internal/domain"
)

// Store persists player progression state. Load returns ErrPlayerNotFound
// for players it has never seen; the service lazily creates state for them.
type Store interface {
	Load(ctx context.Context, player domain.PlayerID) (*domain.PlayerState, error)
	Save(ctx context.Context, state *domain.PlayerState) error
	Delete(ctx context.Context, player domain.PlayerID) error
}

// MemoryStore is the default in-process store. Safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[domain.PlayerID]*domain.PlayerState
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[domain.PlayerID]*domain.PlayerState)}
}

// Load returns a deep copy of the stored state.
func (m *MemoryStore) Load(_ context.Context, player domain.PlayerID) (*domain.PlayerState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.states[player]
	if !ok {
		return nil, domain.ErrPlayerNotFound
	}
	return state.Clone(), nil
}

// Save stores a deep copy of the state.
func (m *MemoryStore) Save(_ context.Context, state *domain.PlayerState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state.Player] = state.Clone()
	return nil
}

// Delete removes the player's state. Deleting an unknown player is a no-op.
func (m *MemoryStore) Delete(_ context.Context, player domain.PlayerID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, player)
	return nil
}
