package storage

import (
	"context"
	"fmt"

	"github.com/ogulcanaydogan/balchk/pkg/model"
)

// StateStore persists the single last-notified observation.
type StateStore interface {
	// LoadState returns the persisted state, or nil if there is none.
	LoadState(ctx context.Context) (*model.CheckState, error)

	// SaveState replaces the persisted state.
	SaveState(ctx context.Context, state model.CheckState) error

	// ResetState removes the persisted state so the next check notifies.
	ResetState(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendProperties = "properties"
	BackendSQLite     = "sqlite"
)

// Open creates the state store for the named backend.
func Open(backend, path string) (StateStore, error) {
	switch backend {
	case "", BackendProperties:
		return NewProperties(path), nil
	case BackendSQLite:
		s, err := NewSQLite(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown state backend %q", backend)
	}
}
