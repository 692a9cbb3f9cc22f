package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cafecart/internal/domain"
)

func setupTestCatalog(t *testing.T) *SQLiteCatalog {
	dbPath := filepath.Join(t.TempDir(), "catalog.db")

	cat, err := NewSQLiteCatalog(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })

	migrationsPath, err := filepath.Abs("../../migrations/catalog")
	require.NoError(t, err)
	require.NoError(t, cat.RunMigrations(migrationsPath))

	return cat
}

func TestLookup(t *testing.T) {
	cat := setupTestCatalog(t)
	ctx := context.Background()

	item, err := cat.Lookup(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), item.ID)
	assert.NotEmpty(t, item.Name)
	assert.NotEmpty(t, item.Category)
	assert.GreaterOrEqual(t, item.Price, 0.0)
}

func TestLookup_NotFound(t *testing.T) {
	cat := setupTestCatalog(t)

	_, err := cat.Lookup(context.Background(), 999999)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestListItems(t *testing.T) {
	cat := setupTestCatalog(t)

	items, err := cat.ListItems(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, items)

	// Sorted by category, then name.
	for i := 1; i < len(items); i++ {
		prev, cur := items[i-1], items[i]
		if prev.Category == cur.Category {
			assert.LessOrEqual(t, prev.Name, cur.Name)
		} else {
			assert.Less(t, prev.Category, cur.Category)
		}
	}
}

type failingCatalog struct{}

func (failingCatalog) Lookup(context.Context, int64) (*domain.Item, error) {
	return nil, errors.New("boom")
}

func (failingCatalog) ListItems(context.Context) ([]*domain.Item, error) {
	return nil, errors.New("boom")
}

func TestBreakerCatalog_OpensAfterConsecutiveFailures(t *testing.T) {
	cat := NewBreakerCatalog(failingCatalog{})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := cat.Lookup(ctx, 1)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnavailable)
	}

	// Breaker is open now; callers get the unavailable sentinel without
	// the underlying store being hit.
	_, err := cat.Lookup(ctx, 1)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestBreakerCatalog_NotFoundDoesNotTrip(t *testing.T) {
	real := setupTestCatalog(t)
	cat := NewBreakerCatalog(real)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := cat.Lookup(ctx, 999999)
		assert.ErrorIs(t, err, ErrItemNotFound)
	}

	item, err := cat.Lookup(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), item.ID)
}
