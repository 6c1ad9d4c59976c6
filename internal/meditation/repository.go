package meditation

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a meditation cannot be found.
var ErrNotFound = errors.New("meditation not found")

// Repository defines the interface for meditation persistence.
type Repository interface {
	// Save persists a meditation. Existing records (matched by session
	// id) are updated; new records get their ID assigned.
	Save(ctx context.Context, m *Meditation) error

	// FindByID retrieves a meditation by database id.
	// Returns ErrNotFound if no record exists.
	FindByID(ctx context.Context, id int64) (*Meditation, error)

	// FindBySessionID retrieves a meditation by session id.
	// Returns ErrNotFound if no record exists.
	FindBySessionID(ctx context.Context, sessionID string) (*Meditation, error)

	// List returns meditations ordered by creation time descending.
	List(ctx context.Context, limit, offset int) ([]*Meditation, error)

	// Delete removes a meditation by database id.
	// Returns ErrNotFound if no record exists.
	Delete(ctx context.Context, id int64) error
}
