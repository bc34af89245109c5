package datastore

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/aleister1102/sitewatch/internal/common"
	"github.com/aleister1102/sitewatch/internal/models"

	"github.com/rs/zerolog"
)

// ArchiveSink receives updates evicted from the bounded per-site history.
type ArchiveSink interface {
	ArchiveEvicted(ctx context.Context, site *models.Site, evicted []models.Update) error
}

// UpdateStore provides persistence for the bounded per-site update history.
// Appends evict the oldest rows beyond the configured cache size within the
// same operation, serialized per site.
type UpdateStore struct {
	db        *DB
	cacheSize int
	mutexes   *SiteMutexManager
	archive   ArchiveSink
	logger    zerolog.Logger
}

// NewUpdateStore creates a new UpdateStore. cacheSize is the maximum number
// of retained updates per site; archive may be nil to discard evicted rows.
func NewUpdateStore(db *DB, cacheSize int, archive ArchiveSink, logger zerolog.Logger) *UpdateStore {
	if cacheSize < 1 {
		cacheSize = 1
	}
	return &UpdateStore{
		db:        db,
		cacheSize: cacheSize,
		mutexes:   NewSiteMutexManager(logger),
		archive:   archive,
		logger:    logger.With().Str("component", "UpdateStore").Logger(),
	}
}

// AppendUpdate inserts the update and evicts the oldest rows for the site
// beyond the cache size in one transaction. Concurrent appends for the same
// site are serialized so the cap can never be bypassed.
func (s *UpdateStore) AppendUpdate(ctx context.Context, site *models.Site, update *models.Update) (int64, error) {
	mu := s.mutexes.GetMutex(site.ID)
	mu.Lock()
	defer mu.Unlock()

	tx, err := s.db.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, common.NewStorageError("begin append tx", err)
	}
	defer tx.Rollback()

	insert := `INSERT INTO updates (site_id, timestamp, content_hash, content, lines_added, lines_removed) VALUES (?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, insert,
		site.ID, update.Timestamp.UTC(), update.ContentHash, update.Content, update.LinesAdded, update.LinesRemoved)
	if err != nil {
		return 0, common.NewStorageError("insert update", err)
	}

	updateID, err := result.LastInsertId()
	if err != nil {
		return 0, common.NewStorageError("insert update id", err)
	}

	evicted, err := s.collectEvictable(ctx, tx, site.ID)
	if err != nil {
		return 0, err
	}

	if len(evicted) > 0 {
		if err := s.deleteUpdates(ctx, tx, evicted); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, common.NewStorageError("commit append tx", err)
	}

	s.logger.Debug().
		Int64("site_id", site.ID).
		Int64("update_id", updateID).
		Int("evicted", len(evicted)).
		Msg("Update appended")

	if len(evicted) > 0 && s.archive != nil {
		if err := s.archive.ArchiveEvicted(ctx, site, evicted); err != nil {
			s.logger.Warn().Err(err).Int64("site_id", site.ID).Msg("Failed to archive evicted updates")
		}
	}

	return updateID, nil
}

// collectEvictable returns the rows that fall outside the newest cacheSize
// updates for the site, oldest first.
func (s *UpdateStore) collectEvictable(ctx context.Context, tx *sql.Tx, siteID int64) ([]models.Update, error) {
	query := `SELECT id, site_id, timestamp, content_hash, content, lines_added, lines_removed
		FROM updates WHERE site_id = ? ORDER BY id DESC LIMIT -1 OFFSET ?`
	rows, err := tx.QueryContext(ctx, query, siteID, s.cacheSize)
	if err != nil {
		return nil, common.NewStorageError("select evictable updates", err)
	}
	defer rows.Close()

	var evicted []models.Update
	for rows.Next() {
		var u models.Update
		if err := rows.Scan(&u.ID, &u.SiteID, &u.Timestamp, &u.ContentHash, &u.Content, &u.LinesAdded, &u.LinesRemoved); err != nil {
			return nil, common.NewStorageError("scan evictable update", err)
		}
		evicted = append(evicted, u)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewStorageError("iterate evictable updates", err)
	}

	// Oldest first for the archive.
	for i, j := 0, len(evicted)-1; i < j; i, j = i+1, j-1 {
		evicted[i], evicted[j] = evicted[j], evicted[i]
	}
	return evicted, nil
}

// deleteUpdates removes the given rows by explicit id list.
func (s *UpdateStore) deleteUpdates(ctx context.Context, tx *sql.Tx, updates []models.Update) error {
	placeholders := make([]string, len(updates))
	args := make([]any, len(updates))
	for i, u := range updates {
		placeholders[i] = "?"
		args[i] = u.ID
	}

	query := "DELETE FROM updates WHERE id IN (" + strings.Join(placeholders, ",") + ")"
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return common.NewStorageError("evict updates", err)
	}
	return nil
}

// LatestUpdate returns the newest stored update for a site, including its
// content. Sites with no stored updates yield models.ErrUpdateNotFound.
func (s *UpdateStore) LatestUpdate(ctx context.Context, siteID int64) (*models.Update, error) {
	query := `SELECT id, site_id, timestamp, content_hash, content, lines_added, lines_removed
		FROM updates WHERE site_id = ? ORDER BY id DESC LIMIT 1`
	return s.scanUpdate(s.db.db.QueryRowContext(ctx, query, siteID))
}

// GetUpdateByID retrieves one update by site and update id.
func (s *UpdateStore) GetUpdateByID(ctx context.Context, siteID, updateID int64) (*models.Update, error) {
	query := `SELECT id, site_id, timestamp, content_hash, content, lines_added, lines_removed
		FROM updates WHERE site_id = ? AND id = ?`
	return s.scanUpdate(s.db.db.QueryRowContext(ctx, query, siteID, updateID))
}

// GetUpdateByTimestamp retrieves one update by site id and exact timestamp.
func (s *UpdateStore) GetUpdateByTimestamp(ctx context.Context, siteID int64, ts time.Time) (*models.Update, error) {
	query := `SELECT id, site_id, timestamp, content_hash, content, lines_added, lines_removed
		FROM updates WHERE site_id = ? AND timestamp = ?`
	return s.scanUpdate(s.db.db.QueryRowContext(ctx, query, siteID, ts.UTC()))
}

// GetUpdate retrieves a previously summarized update's full form. The ref is
// either a numeric update id or an RFC3339 timestamp.
func (s *UpdateStore) GetUpdate(ctx context.Context, siteID int64, ref string) (*models.Update, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return s.GetUpdateByID(ctx, siteID, id)
	}
	if ts, err := time.Parse(time.RFC3339, ref); err == nil {
		return s.GetUpdateByTimestamp(ctx, siteID, ts)
	}
	return nil, common.NewValidationError("ref", ref, "must be an update id or RFC3339 timestamp")
}

// ListUpdates returns content-free summaries of a site's stored updates,
// newest first.
func (s *UpdateStore) ListUpdates(ctx context.Context, siteID int64, limit int) ([]models.UpdateSummary, error) {
	if limit <= 0 {
		limit = s.cacheSize
	}

	query := `SELECT id, site_id, timestamp, content_hash, LENGTH(content), lines_added, lines_removed
		FROM updates WHERE site_id = ? ORDER BY id DESC LIMIT ?`
	rows, err := s.db.db.QueryContext(ctx, query, siteID, limit)
	if err != nil {
		return nil, common.NewStorageError("list updates", err)
	}
	defer rows.Close()

	summaries := make([]models.UpdateSummary, 0)
	for rows.Next() {
		var sum models.UpdateSummary
		if err := rows.Scan(&sum.ID, &sum.SiteID, &sum.Timestamp, &sum.ContentHash, &sum.ContentSize, &sum.LinesAdded, &sum.LinesRemoved); err != nil {
			return nil, common.NewStorageError("scan update summary", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewStorageError("iterate updates", err)
	}
	return summaries, nil
}

// CountUpdates returns the number of stored updates for a site.
func (s *UpdateStore) CountUpdates(ctx context.Context, siteID int64) (int, error) {
	var count int
	err := s.db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM updates WHERE site_id = ?`, siteID).Scan(&count)
	if err != nil {
		return 0, common.NewStorageError("count updates", err)
	}
	return count, nil
}

// ReleaseSite drops per-site locking state after a site is deleted.
func (s *UpdateStore) ReleaseSite(siteID int64) {
	s.mutexes.Remove(siteID)
}

func (s *UpdateStore) scanUpdate(row rowScanner) (*models.Update, error) {
	var u models.Update
	err := row.Scan(&u.ID, &u.SiteID, &u.Timestamp, &u.ContentHash, &u.Content, &u.LinesAdded, &u.LinesRemoved)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrUpdateNotFound
		}
		return nil, common.NewStorageError("scan update", err)
	}
	u.Timestamp = u.Timestamp.UTC()
	return &u, nil
}
