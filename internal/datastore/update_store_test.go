package datastore_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleister1102/sitewatch/internal/common"
	"github.com/aleister1102/sitewatch/internal/datastore"
	"github.com/aleister1102/sitewatch/internal/models"
)

// recordingSink captures eviction batches handed to the archive.
type recordingSink struct {
	mu      sync.Mutex
	batches [][]models.Update
}

func (r *recordingSink) ArchiveEvicted(_ context.Context, _ *models.Site, evicted []models.Update) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	batch := make([]models.Update, len(evicted))
	copy(batch, evicted)
	r.batches = append(r.batches, batch)
	return nil
}

func createTestSite(t *testing.T, db *datastore.DB, url string) *models.Site {
	t.Helper()

	store := datastore.NewSiteStore(db, zerolog.Nop())
	site := newSite(url)
	id, err := store.CreateSite(context.Background(), site)
	require.NoError(t, err)
	site.ID = id
	return site
}

func appendTestUpdate(t *testing.T, store *datastore.UpdateStore, site *models.Site, n int) int64 {
	t.Helper()

	id, err := store.AppendUpdate(context.Background(), site, &models.Update{
		SiteID:      site.ID,
		Timestamp:   time.Date(2025, 6, 1, 12, 0, n, 0, time.UTC),
		ContentHash: fmt.Sprintf("hash-%d", n),
		Content:     fmt.Sprintf("content revision %d", n),
		LinesAdded:  n,
	})
	require.NoError(t, err)
	return id
}

func TestUpdateStore_AppendAndLatest(t *testing.T) {
	db := newTestDB(t)
	store := datastore.NewUpdateStore(db, 5, nil, zerolog.Nop())
	site := createTestSite(t, db, "https://example.com")
	ctx := context.Background()

	appendTestUpdate(t, store, site, 1)
	appendTestUpdate(t, store, site, 2)

	latest, err := store.LatestUpdate(ctx, site.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash-2", latest.ContentHash)
	assert.Equal(t, "content revision 2", latest.Content)
	assert.Equal(t, 2, latest.LinesAdded)
}

func TestUpdateStore_LatestMissing(t *testing.T) {
	db := newTestDB(t)
	store := datastore.NewUpdateStore(db, 5, nil, zerolog.Nop())
	site := createTestSite(t, db, "https://example.com")

	_, err := store.LatestUpdate(context.Background(), site.ID)
	assert.ErrorIs(t, err, models.ErrUpdateNotFound)
}

func TestUpdateStore_EvictsBeyondCacheSize(t *testing.T) {
	db := newTestDB(t)
	store := datastore.NewUpdateStore(db, 5, nil, zerolog.Nop())
	site := createTestSite(t, db, "https://example.com")
	ctx := context.Background()

	for n := 1; n <= 7; n++ {
		appendTestUpdate(t, store, site, n)
	}

	count, err := store.CountUpdates(ctx, site.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	summaries, err := store.ListUpdates(ctx, site.ID, 0)
	require.NoError(t, err)
	require.Len(t, summaries, 5)

	// Newest first, oldest two evicted.
	for i, sum := range summaries {
		assert.Equal(t, fmt.Sprintf("hash-%d", 7-i), sum.ContentHash)
	}
}

func TestUpdateStore_ArchiveReceivesEvicted(t *testing.T) {
	db := newTestDB(t)
	sink := &recordingSink{}
	store := datastore.NewUpdateStore(db, 2, sink, zerolog.Nop())
	site := createTestSite(t, db, "https://example.com")

	appendTestUpdate(t, store, site, 1)
	appendTestUpdate(t, store, site, 2)
	require.Empty(t, sink.batches)

	appendTestUpdate(t, store, site, 3)
	require.Len(t, sink.batches, 1)
	require.Len(t, sink.batches[0], 1)
	assert.Equal(t, "hash-1", sink.batches[0][0].ContentHash)
	assert.Equal(t, "content revision 1", sink.batches[0][0].Content)
}

func TestUpdateStore_GetUpdateByRef(t *testing.T) {
	db := newTestDB(t)
	store := datastore.NewUpdateStore(db, 5, nil, zerolog.Nop())
	site := createTestSite(t, db, "https://example.com")
	ctx := context.Background()

	updateID := appendTestUpdate(t, store, site, 1)

	t.Run("numeric id ref", func(t *testing.T) {
		update, err := store.GetUpdate(ctx, site.ID, fmt.Sprintf("%d", updateID))
		require.NoError(t, err)
		assert.Equal(t, updateID, update.ID)
		assert.Equal(t, "content revision 1", update.Content)
	})

	t.Run("rfc3339 ref", func(t *testing.T) {
		ref := time.Date(2025, 6, 1, 12, 0, 1, 0, time.UTC).Format(time.RFC3339)
		update, err := store.GetUpdate(ctx, site.ID, ref)
		require.NoError(t, err)
		assert.Equal(t, updateID, update.ID)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := store.GetUpdate(ctx, site.ID, "99999")
		assert.ErrorIs(t, err, models.ErrUpdateNotFound)
	})

	t.Run("malformed ref", func(t *testing.T) {
		_, err := store.GetUpdate(ctx, site.ID, "not-a-ref")
		var vErr *common.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("wrong site", func(t *testing.T) {
		other := createTestSite(t, db, "https://example.com/other")
		_, err := store.GetUpdate(ctx, other.ID, fmt.Sprintf("%d", updateID))
		assert.ErrorIs(t, err, models.ErrUpdateNotFound)
	})
}

func TestUpdateStore_ListUpdatesLimit(t *testing.T) {
	db := newTestDB(t)
	store := datastore.NewUpdateStore(db, 10, nil, zerolog.Nop())
	site := createTestSite(t, db, "https://example.com")
	ctx := context.Background()

	for n := 1; n <= 6; n++ {
		appendTestUpdate(t, store, site, n)
	}

	summaries, err := store.ListUpdates(ctx, site.ID, 3)
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.Equal(t, "hash-6", summaries[0].ContentHash)

	// Summaries carry sizes, not bodies.
	assert.Equal(t, len("content revision 6"), summaries[0].ContentSize)
}

func TestUpdateStore_ConcurrentAppendsRespectCap(t *testing.T) {
	db := newTestDB(t)
	store := datastore.NewUpdateStore(db, 5, nil, zerolog.Nop())
	site := createTestSite(t, db, "https://example.com")
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for n := 0; n < 5; n++ {
				_, err := store.AppendUpdate(ctx, site, &models.Update{
					SiteID:      site.ID,
					Timestamp:   time.Now().UTC(),
					ContentHash: fmt.Sprintf("hash-%d-%d", g, n),
					Content:     "body",
				})
				assert.NoError(t, err)
			}
		}(g)
	}
	wg.Wait()

	count, err := store.CountUpdates(ctx, site.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, count, "cap holds under concurrent appends")
}
