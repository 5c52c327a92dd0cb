// Package file persists presentation state as a JSON document on disk.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/Vasu1712/worship-sync/internal/models"
	"github.com/Vasu1712/worship-sync/internal/storage"
)

// StateStore reads and writes a single JSON state file.
type StateStore struct {
	mu   sync.Mutex
	path string
}

// NewStateStore creates a store backed by path. The parent directory is
// created on the first Save.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// Load reads the state file. A missing file yields storage.ErrNoState.
func (s *StateStore) Load(ctx context.Context) (*models.PersistedState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, storage.ErrNoState
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var state models.PersistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state file %s: %w", s.path, err)
	}
	log.Printf("[Storage] Loaded %d plans from %s", len(state.ServicePlans), s.path)
	return &state, nil
}

// Save atomically writes the state file (temp file, fsync, rename).
func (s *StateStore) Save(ctx context.Context, state *models.PersistedState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tempPath := s.path + ".tmp"
	f, err := os.OpenFile(tempPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	log.Printf("[Storage] Saved state to %s", s.path)
	return nil
}

var _ storage.StateStore = (*StateStore)(nil)
