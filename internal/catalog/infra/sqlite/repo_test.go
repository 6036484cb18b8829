package sqlite

import (
	"context"
	"testing"

	"github.com/dwikikusuma/storefront/internal/catalog/app"
	"github.com/dwikikusuma/storefront/internal/catalog/domain"
	"github.com/dwikikusuma/storefront/pkg/docstore"
	"github.com/dwikikusuma/storefront/pkg/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *docstore.Store {
	t.Helper()
	db, err := sqlite.Open(sqlite.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := docstore.New(db)
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestProductRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepo(openTestStore(t))

	created, err := repo.Create(ctx, domain.Product{
		Name:        "Keyboard",
		Description: "Mechanical",
		Price:       decimal.RequireFromString("49.90"),
		Images:      []string{"a.png", "b.png"},
		Category:    "Accessories",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Keyboard", got.Name)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("49.9")))
	assert.Equal(t, []string{"a.png", "b.png"}, got.Images)

	got.Name = "Keyboard v2"
	updated, err := repo.Update(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, "Keyboard v2", updated.Name)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.Get(ctx, created.ID)
	assert.ErrorIs(t, err, app.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, created.ID), app.ErrNotFound)
}

func TestCategoryRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewCategoryRepo(openTestStore(t))

	c, err := repo.Create(ctx, domain.Category{Name: "Shoes", ImageURL: "/images/shoes.png"})
	require.NoError(t, err)

	c.ImageURL = "/images/shoes-2.png"
	_, err = repo.Update(ctx, c)
	require.NoError(t, err)

	got, err := repo.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "/images/shoes-2.png", got.ImageURL)

	_, err = repo.Update(ctx, domain.Category{ID: "ghost", Name: "x", ImageURL: "y"})
	assert.ErrorIs(t, err, app.ErrNotFound)
}
