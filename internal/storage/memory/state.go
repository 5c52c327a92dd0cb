package memory

import (
	"context"
	"log"  // For logging state saves
	"sync" // For RWMutex to handle concurrent access

	"github.com/Vasu1712/worship-sync/internal/models"
	"github.com/Vasu1712/worship-sync/internal/storage"
)

// StateStore keeps the persisted presentation state in memory. It lives as
// long as the process; STATE_BACKEND=memory selects it for rehearsals that
// should not touch disk.
type StateStore struct {
	mu    sync.RWMutex           // Guards state and saves
	state *models.PersistedState // Last saved state, nil until the first Save
	saves int                    // Number of successful saves
}

// NewStateStore creates an empty in-memory state store.
func NewStateStore() *StateStore {
	return &StateStore{}
}

// Load returns a copy of the last saved state, or storage.ErrNoState.
func (s *StateStore) Load(ctx context.Context) (*models.PersistedState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state == nil {
		return nil, storage.ErrNoState
	}
	c := s.state.Clone()
	return &c, nil
}

// Save replaces the stored state with a copy of state.
func (s *StateStore) Save(ctx context.Context, state *models.PersistedState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := state.Clone()
	s.state = &c
	s.saves++
	log.Printf("[Storage] Saved state in memory: plans=%d", len(c.ServicePlans))
	return nil
}

// Saves reports how many times Save succeeded.
func (s *StateStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
