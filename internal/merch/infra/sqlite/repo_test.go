package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/dwikikusuma/storefront/internal/merch/app"
	"github.com/dwikikusuma/storefront/internal/merch/domain"
	"github.com/dwikikusuma/storefront/pkg/docstore"
	"github.com/dwikikusuma/storefront/pkg/sqlite"
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

func activeIDs(t *testing.T, repo *BannerRepo) []string {
	t.Helper()
	all, err := repo.List(context.Background())
	require.NoError(t, err)
	var ids []string
	for _, b := range all {
		if b.IsActive {
			ids = append(ids, b.ID)
		}
	}
	return ids
}

func TestBannerExclusivity(t *testing.T) {
	ctx := context.Background()
	repo := NewBannerRepo(openTestStore(t))

	first, err := repo.Create(ctx, domain.HeroBanner{Title: "Summer", Subtitle: "keep me", IsActive: true})
	require.NoError(t, err)
	second, err := repo.Create(ctx, domain.HeroBanner{Title: "Autumn", IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID}, activeIDs(t, repo))

	got, err := repo.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "keep me", got.Subtitle, "deactivation keeps other fields")

	_, err = repo.Create(ctx, domain.HeroBanner{Title: "Draft"})
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID}, activeIDs(t, repo), "inactive writes leave the active banner alone")

	first.IsActive = true
	_, err = repo.Update(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID}, activeIDs(t, repo))

	_, err = repo.Update(ctx, domain.HeroBanner{ID: "ghost", Title: "x", IsActive: true})
	assert.ErrorIs(t, err, app.ErrNotFound)
	assert.Equal(t, []string{first.ID}, activeIDs(t, repo), "failed update rolls back")
}

func TestTimerRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewTimerRepo(openTestStore(t))
	start := time.Date(2025, 11, 28, 0, 0, 0, 0, time.UTC)

	a, err := repo.Create(ctx, domain.CountdownTimer{Title: "Black Friday", StartDate: start, EndDate: start.Add(72 * time.Hour), IsActive: true})
	require.NoError(t, err)
	b, err := repo.Create(ctx, domain.CountdownTimer{Title: "Cyber Monday", StartDate: start, EndDate: start.Add(96 * time.Hour), IsActive: true})
	require.NoError(t, err)

	got, err := repo.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.True(t, got.StartDate.Equal(start))

	require.NoError(t, repo.Delete(ctx, b.ID))
	assert.ErrorIs(t, repo.Delete(ctx, b.ID), app.ErrNotFound)
}

func TestNavRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewNavRepo(openTestStore(t))

	require.NoError(t, repo.CreateMany(ctx, domain.DefaultNav()))
	items, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 5)

	item := items[0]
	item.Enabled = false
	updated, err := repo.Update(ctx, item)
	require.NoError(t, err)
	assert.False(t, updated.Enabled)
	assert.Equal(t, domain.NavCategory, updated.Type)
}
