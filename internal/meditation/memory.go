package meditation

import (
	"context"
	"sort"
	"sync"
)

// Compile-time check that MemoryRepository implements Repository.
var _ Repository = (*MemoryRepository)(nil)

// MemoryRepository is an in-memory implementation of Repository.
// It is used when no database is configured; records are lost on restart.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*Meditation
}

// NewMemoryRepository creates a new in-memory meditation repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nextID: 1,
		byID:   make(map[int64]*Meditation),
	}
}

// Save persists a meditation, assigning an ID on first save.
// Stores a clone to avoid external mutations.
func (r *MemoryRepository) Save(_ context.Context, m *Meditation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == 0 {
		m.ID = r.nextID
		r.nextID++
	}
	r.byID[m.ID] = m.Clone()
	return nil
}

// FindByID retrieves a meditation by database id.
func (r *MemoryRepository) FindByID(_ context.Context, id int64) (*Meditation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m.Clone(), nil
}

// FindBySessionID retrieves a meditation by session id.
func (r *MemoryRepository) FindBySessionID(_ context.Context, sessionID string) (*Meditation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.byID {
		if m.SessionID == sessionID {
			return m.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

// List returns meditations ordered by creation time descending.
func (r *MemoryRepository) List(_ context.Context, limit, offset int) ([]*Meditation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*Meditation, 0, len(r.byID))
	for _, m := range r.byID {
		all = append(all, m.Clone())
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return []*Meditation{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// Delete removes a meditation by database id.
func (r *MemoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}
