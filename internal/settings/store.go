package settings

import "context"

// Store defines the interface for settings persistence.
type Store interface {
	// Get retrieves the authoritative settings row.
	// Returns ErrNotFound if no row exists.
	Get(ctx context.Context) (*Settings, error)

	// Update applies a partial patch and returns the resulting settings.
	// If no row exists yet, one is created.
	Update(ctx context.Context, patch Patch) (*Settings, error)
}
