// Package storage defines the persistence collaborator for presentation state.
package storage

import (
	"context"
	"errors"

	"github.com/Vasu1712/worship-sync/internal/models"
)

// ErrNoState is returned by Load when nothing has been saved yet.
var ErrNoState = errors.New("no saved presentation state")

// StateStore loads and saves the persisted subset of presentation state.
type StateStore interface {
	Load(ctx context.Context) (*models.PersistedState, error)
	Save(ctx context.Context, state *models.PersistedState) error
}
