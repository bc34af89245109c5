package datastore_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleister1102/sitewatch/internal/datastore"
	"github.com/aleister1102/sitewatch/internal/models"
)

func newTestDB(t *testing.T) *datastore.DB {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "sitewatch-store-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	db, err := datastore.NewDB(filepath.Join(tempDir, "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func newSite(url string) *models.Site {
	return &models.Site{
		URL:          url,
		IntervalSecs: 5,
		Style:        models.CheckStyleRandom,
		Status:       models.SiteStatusPending,
	}
}

func TestSiteStore_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	store := datastore.NewSiteStore(db, zerolog.Nop())
	ctx := context.Background()

	site := newSite("https://example.com/news")
	id, err := store.CreateSite(ctx, site)
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	loaded, err := store.GetSite(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, loaded.ID)
	assert.Equal(t, "https://example.com/news", loaded.URL)
	assert.Equal(t, 5, loaded.IntervalSecs)
	assert.Equal(t, models.CheckStyleRandom, loaded.Style)
	assert.Equal(t, models.SiteStatusPending, loaded.Status)
	assert.Nil(t, loaded.LastChecked)
	assert.Nil(t, loaded.LastUpdated)

	byURL, err := store.GetSiteByURL(ctx, "https://example.com/news")
	require.NoError(t, err)
	assert.Equal(t, id, byURL.ID)
}

func TestSiteStore_DuplicateURL(t *testing.T) {
	db := newTestDB(t)
	store := datastore.NewSiteStore(db, zerolog.Nop())
	ctx := context.Background()

	_, err := store.CreateSite(ctx, newSite("https://example.com"))
	require.NoError(t, err)

	_, err = store.CreateSite(ctx, newSite("https://example.com"))
	assert.ErrorIs(t, err, models.ErrDuplicateURL)
}

func TestSiteStore_GetMissing(t *testing.T) {
	db := newTestDB(t)
	store := datastore.NewSiteStore(db, zerolog.Nop())
	ctx := context.Background()

	_, err := store.GetSite(ctx, 9999)
	assert.ErrorIs(t, err, models.ErrSiteNotFound)

	_, err = store.GetSiteByURL(ctx, "https://nowhere.example.com")
	assert.ErrorIs(t, err, models.ErrSiteNotFound)
}

func TestSiteStore_ListSitesOrderedByID(t *testing.T) {
	db := newTestDB(t)
	store := datastore.NewSiteStore(db, zerolog.Nop())
	ctx := context.Background()

	urls := []string{
		"https://example.com/a",
		"https://example.com/b",
		"https://example.com/c",
	}
	for _, url := range urls {
		_, err := store.CreateSite(ctx, newSite(url))
		require.NoError(t, err)
	}

	sites, err := store.ListSites(ctx)
	require.NoError(t, err)
	require.Len(t, sites, 3)
	for i, site := range sites {
		assert.Equal(t, urls[i], site.URL)
	}
}

func TestSiteStore_ListSitesEmpty(t *testing.T) {
	db := newTestDB(t)
	store := datastore.NewSiteStore(db, zerolog.Nop())

	sites, err := store.ListSites(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sites)
}

func TestSiteStore_RecordCheck(t *testing.T) {
	db := newTestDB(t)
	store := datastore.NewSiteStore(db, zerolog.Nop())
	ctx := context.Background()

	id, err := store.CreateSite(ctx, newSite("https://example.com"))
	require.NoError(t, err)

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordCheck(ctx, id, models.SiteStatusError, ts))

	loaded, err := store.GetSite(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.SiteStatusError, loaded.Status)
	require.NotNil(t, loaded.LastChecked)
	assert.WithinDuration(t, ts, *loaded.LastChecked, time.Second)
	assert.Nil(t, loaded.LastUpdated, "a failed check must not move last_updated")
}

func TestSiteStore_RecordChange(t *testing.T) {
	db := newTestDB(t)
	store := datastore.NewSiteStore(db, zerolog.Nop())
	ctx := context.Background()

	id, err := store.CreateSite(ctx, newSite("https://example.com"))
	require.NoError(t, err)

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordChange(ctx, id, ts))

	loaded, err := store.GetSite(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.SiteStatusOK, loaded.Status)
	require.NotNil(t, loaded.LastChecked)
	require.NotNil(t, loaded.LastUpdated)
	assert.Equal(t, *loaded.LastChecked, *loaded.LastUpdated)
}

func TestSiteStore_RecordCheckDeletedSite(t *testing.T) {
	db := newTestDB(t)
	store := datastore.NewSiteStore(db, zerolog.Nop())
	ctx := context.Background()

	err := store.RecordCheck(ctx, 1234, models.SiteStatusOK, time.Now().UTC())
	assert.NoError(t, err)
}

func TestSiteStore_DeleteCascadesToUpdates(t *testing.T) {
	db := newTestDB(t)
	siteStore := datastore.NewSiteStore(db, zerolog.Nop())
	updateStore := datastore.NewUpdateStore(db, 5, nil, zerolog.Nop())
	ctx := context.Background()

	site := newSite("https://example.com")
	id, err := siteStore.CreateSite(ctx, site)
	require.NoError(t, err)
	site.ID = id

	for i := 0; i < 2; i++ {
		_, err := updateStore.AppendUpdate(ctx, site, &models.Update{
			SiteID:      id,
			Timestamp:   time.Now().UTC(),
			ContentHash: "hash",
			Content:     "body",
		})
		require.NoError(t, err)
	}

	count, err := updateStore.CountUpdates(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	require.NoError(t, siteStore.DeleteSite(ctx, id))

	_, err = siteStore.GetSite(ctx, id)
	assert.ErrorIs(t, err, models.ErrSiteNotFound)

	count, err = updateStore.CountUpdates(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "deleting a site must remove its updates")

	// Deleting an already removed site is a no-op.
	assert.NoError(t, siteStore.DeleteSite(ctx, id))
}

func TestDB_ResetAll(t *testing.T) {
	db := newTestDB(t)
	siteStore := datastore.NewSiteStore(db, zerolog.Nop())
	updateStore := datastore.NewUpdateStore(db, 5, nil, zerolog.Nop())
	ctx := context.Background()

	site := newSite("https://example.com")
	id, err := siteStore.CreateSite(ctx, site)
	require.NoError(t, err)
	site.ID = id

	_, err = updateStore.AppendUpdate(ctx, site, &models.Update{
		SiteID:      id,
		Timestamp:   time.Now().UTC(),
		ContentHash: "hash",
		Content:     "body",
	})
	require.NoError(t, err)

	require.NoError(t, db.ResetAll(ctx))

	sites, err := siteStore.ListSites(ctx)
	require.NoError(t, err)
	assert.Empty(t, sites)

	count, err := updateStore.CountUpdates(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// The store remains usable after a reset.
	_, err = siteStore.CreateSite(ctx, newSite("https://example.com/again"))
	assert.NoError(t, err)
}

func TestNewDB_CreatesParentDirectory(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "sitewatch-db-dir-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	nested := filepath.Join(tempDir, "data", "nested", "sitewatch.db")
	db, err := datastore.NewDB(nested, zerolog.Nop())
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(filepath.Dir(nested))
	assert.False(t, errors.Is(err, os.ErrNotExist))
}
