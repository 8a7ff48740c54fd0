package localstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamsonukr/storefront/internal/domain"
	apperrors "github.com/iamsonukr/storefront/pkg/errors"
)

func setupTestStore(t *testing.T) *CartStore {
	t.Helper()
	store, err := NewCartStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func sampleCart() *domain.Cart {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.Cart{
		ID:      "cart-001",
		OwnerID: "session-001",
		Items: []domain.CartItem{
			{ProductID: "prod-1", Name: "Widget", Price: 1990, Quantity: 2, AddedAt: now},
		},
		Currency:  "USD",
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(24 * time.Hour),
	}
}

func TestCartStore_SaveAndGet(t *testing.T) {
	store := setupTestStore(t)
	cart := sampleCart()

	ok, err := store.SaveIfVersion(context.Background(), cart, 0)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := store.Get(context.Background(), cart.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, got.ID)
	assert.Equal(t, 1, got.Version)
	require.Len(t, got.Items, 1)
	assert.Equal(t, int64(1990), got.Items[0].Price)
}

func TestCartStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewCartStore(dir)
	require.NoError(t, err)

	cart := sampleCart()
	ok, err := store.SaveIfVersion(context.Background(), cart, 0)
	require.NoError(t, err)
	require.True(t, ok)

	// A fresh store over the same directory sees the saved cart, version
	// counter included.
	reopened, err := NewCartStore(dir)
	require.NoError(t, err)

	got, err := reopened.Get(context.Background(), cart.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, got.ID)
	assert.Equal(t, 1, got.Version)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "prod-1", got.Items[0].ProductID)

	// The version check still holds across the reopen.
	stale := sampleCart()
	ok, err = reopened.SaveIfVersion(context.Background(), stale, 0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCartStore_Get_NotFound(t *testing.T) {
	store := setupTestStore(t)

	got, err := store.Get(context.Background(), "nonexistent-owner")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartStore_Get_Expired(t *testing.T) {
	store := setupTestStore(t)
	cart := sampleCart()
	cart.ExpiresAt = time.Now().UTC().Add(-time.Minute)

	ok, err := store.SaveIfVersion(context.Background(), cart, 0)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := store.Get(context.Background(), cart.OwnerID)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartStore_SaveIfVersion_VersionMismatch(t *testing.T) {
	store := setupTestStore(t)
	cart := sampleCart()

	ok, err := store.SaveIfVersion(context.Background(), cart, 0)
	require.NoError(t, err)
	require.True(t, ok)

	stale := sampleCart()
	ok, err = store.SaveIfVersion(context.Background(), stale, 0)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := store.Get(context.Background(), cart.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version)
}

func TestCartStore_SaveIfVersion_Sequence(t *testing.T) {
	store := setupTestStore(t)
	cart := sampleCart()

	for expected := 0; expected < 3; expected++ {
		ok, err := store.SaveIfVersion(context.Background(), cart, expected)
		require.NoError(t, err)
		require.True(t, ok)
	}

	got, err := store.Get(context.Background(), cart.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Version)
}

func TestCartStore_Delete(t *testing.T) {
	store := setupTestStore(t)
	cart := sampleCart()

	ok, err := store.SaveIfVersion(context.Background(), cart, 0)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, store.Delete(context.Background(), cart.OwnerID))

	_, err = store.Get(context.Background(), cart.OwnerID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartStore_Delete_NonExistent(t *testing.T) {
	store := setupTestStore(t)
	assert.NoError(t, store.Delete(context.Background(), "nonexistent-owner"))
}

func TestCartStore_PathSanitized(t *testing.T) {
	dir := t.TempDir()
	store, err := NewCartStore(dir)
	require.NoError(t, err)

	cart := sampleCart()
	cart.OwnerID = "../escape"

	ok, err := store.SaveIfVersion(context.Background(), cart, 0)
	require.NoError(t, err)
	require.True(t, ok)

	// The file stays inside the store directory.
	_, err = os.Stat(filepath.Join(dir, "___escape.json"))
	assert.NoError(t, err)
}
