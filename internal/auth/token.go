package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"
)

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = 24 * time.Hour

// sweepInterval is how often expired tokens are purged.
const sweepInterval = time.Hour

// ErrTokenInvalid is returned for unknown or expired tokens.
var ErrTokenInvalid = errors.New("invalid or expired token")

// session is one issued token.
type session struct {
	role      Role
	expiresAt time.Time
}

// TokenManager issues and validates bearer tokens in memory.
// Tokens do not survive a restart; clients re-authenticate.
type TokenManager struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]session
	now      func() time.Time
}

// TokenManagerOption is a function that configures a TokenManager.
type TokenManagerOption func(*TokenManager)

// WithTokenTTL overrides the default token lifetime.
func WithTokenTTL(ttl time.Duration) TokenManagerOption {
	return func(m *TokenManager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) TokenManagerOption {
	return func(m *TokenManager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewTokenManager creates a TokenManager.
func NewTokenManager(opts ...TokenManagerOption) *TokenManager {
	m := &TokenManager{
		ttl:      DefaultTokenTTL,
		sessions: make(map[string]session),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TTL returns the configured token lifetime.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue creates a fresh token for the given role.
func (m *TokenManager) Issue(role Role) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)

	m.mu.Lock()
	m.sessions[token] = session{
		role:      role,
		expiresAt: m.now().Add(m.ttl),
	}
	m.mu.Unlock()
	return token, nil
}

// Validate returns the role bound to the token, or ErrTokenInvalid.
func (m *TokenManager) Validate(token string) (Role, error) {
	m.mu.RLock()
	s, ok := m.sessions[token]
	m.mu.RUnlock()
	if !ok || m.now().After(s.expiresAt) {
		return "", ErrTokenInvalid
	}
	return s.role, nil
}

// Revoke invalidates a token immediately.
func (m *TokenManager) Revoke(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

// Sweep removes expired tokens and returns how many were purged.
func (m *TokenManager) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	purged := 0
	for token, s := range m.sessions {
		if now.After(s.expiresAt) {
			delete(m.sessions, token)
			purged++
		}
	}
	return purged
}

// Run sweeps expired tokens periodically until ctx is cancelled.
func (m *TokenManager) Run(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
