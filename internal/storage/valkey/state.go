// Package valkey persists presentation state as a JSON value in Valkey.
package valkey

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/Vasu1712/worship-sync/internal/models"
	"github.com/Vasu1712/worship-sync/internal/storage"
	"github.com/valkey-io/valkey-go"
)

// StateStore keeps the state document under a single key.
type StateStore struct {
	client valkey.Client
	key    string
}

// NewStateStore connects to the Valkey server at addr.
func NewStateStore(addr, key string) (*StateStore, error) {
	client, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to valkey at %s: %w", addr, err)
	}
	log.Printf("Successfully connected to Valkey at %s for presentation state.", addr)
	return &StateStore{client: client, key: key}, nil
}

// Load fetches and decodes the state. A missing key yields storage.ErrNoState.
func (s *StateStore) Load(ctx context.Context) (*models.PersistedState, error) {
	data, err := s.client.Do(ctx, s.client.B().Get().Key(s.key).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		return nil, storage.ErrNoState
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", s.key, err)
	}

	var state models.PersistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode state at %s: %w", s.key, err)
	}
	return &state, nil
}

// Save encodes the state and overwrites the key.
func (s *StateStore) Save(ctx context.Context, state *models.PersistedState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	cmd := s.client.B().Set().Key(s.key).Value(valkey.BinaryString(data)).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to set %s: %w", s.key, err)
	}
	log.Printf("[Storage] Saved state to valkey key %s", s.key)
	return nil
}

// Close closes the client connection.
func (s *StateStore) Close() error {
	s.client.Close()
	return nil
}

var _ storage.StateStore = (*StateStore)(nil)
