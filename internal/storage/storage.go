// Package storage provides object storage for finished meditation
// audio. The final file always stays on local disk for serving; object
// storage, when configured, additionally holds a public copy.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotConfigured is returned when object storage operations are
// attempted without configuration. The pipeline treats it as "keep the
// artifact local only", not as a failure.
var ErrNotConfigured = errors.New("object storage is not configured")

// Storage defines the interface for persistent audio storage.
type Storage interface {
	// Upload stores data under key and returns the public URL.
	Upload(ctx context.Context, key string, data io.Reader) (url string, err error)

	// Delete removes the object stored under key.
	Delete(ctx context.Context, key string) error
}

// Disabled is the Storage implementation used when no bucket is
// configured.
type Disabled struct{}

// Upload returns ErrNotConfigured.
func (Disabled) Upload(_ context.Context, _ string, _ io.Reader) (string, error) {
	return "", ErrNotConfigured
}

// Delete returns ErrNotConfigured.
func (Disabled) Delete(_ context.Context, _ string) error {
	return ErrNotConfigured
}

// Verify interface implementation at compile time.
var _ Storage = Disabled{}
