package meditation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_SaveAssignsID(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	m := New("anxiety", "racing heart", "")
	require.NoError(t, repo.Save(ctx, m))
	assert.Equal(t, int64(1), m.ID)

	m2 := New("insomnia", "restlessness", "")
	require.NoError(t, repo.Save(ctx, m2))
	assert.Equal(t, int64(2), m2.ID)
}

func TestMemoryRepository_SaveStoresClone(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	m := New("anxiety", "racing heart", "")
	m.Text = "original"
	require.NoError(t, repo.Save(ctx, m))

	m.Text = "mutated after save"

	got, err := repo.FindByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", got.Text)
}

func TestMemoryRepository_FindBySessionID(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	m := New("anxiety", "racing heart", "")
	require.NoError(t, repo.Save(ctx, m))

	got, err := repo.FindBySessionID(ctx, m.SessionID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)

	_, err = repo.FindBySessionID(ctx, "unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepository_ListOrderingAndPaging(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 5; i++ {
		m := New("anxiety", fmt.Sprintf("symptom %d", i), "")
		m.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Save(ctx, m))
	}

	all, err := repo.List(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "symptom 4", all[0].Symptom)
	assert.Equal(t, "symptom 0", all[4].Symptom)

	page, err := repo.List(ctx, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "symptom 3", page[0].Symptom)
	assert.Equal(t, "symptom 2", page[1].Symptom)

	empty, err := repo.List(ctx, 10, 100)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryRepository_Delete(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	m := New("anxiety", "racing heart", "")
	require.NoError(t, repo.Save(ctx, m))
	require.NoError(t, repo.Delete(ctx, m.ID))

	_, err := repo.FindByID(ctx, m.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, m.ID), ErrNotFound)
}
