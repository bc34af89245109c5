package datastore

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/aleister1102/sitewatch/internal/common"
	"github.com/aleister1102/sitewatch/internal/models"

	"github.com/rs/zerolog"
)

// SiteStore provides persistence for monitored site records.
type SiteStore struct {
	db     *DB
	logger zerolog.Logger
}

// NewSiteStore creates a new SiteStore backed by the given database.
func NewSiteStore(db *DB, logger zerolog.Logger) *SiteStore {
	return &SiteStore{
		db:     db,
		logger: logger.With().Str("component", "SiteStore").Logger(),
	}
}

// CreateSite inserts a new site and returns its assigned id.
// A URL already present in the store yields models.ErrDuplicateURL.
func (s *SiteStore) CreateSite(ctx context.Context, site *models.Site) (int64, error) {
	existing, err := s.GetSiteByURL(ctx, site.URL)
	if err == nil && existing != nil {
		return 0, models.ErrDuplicateURL
	}

	query := `INSERT INTO sites (url, interval_secs, style, status) VALUES (?, ?, ?, ?)`
	result, err := s.db.db.ExecContext(ctx, query, site.URL, site.IntervalSecs, string(site.Style), string(site.Status))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, models.ErrDuplicateURL
		}
		s.logger.Error().Err(err).Str("url", site.URL).Msg("Failed to insert site")
		return 0, common.NewStorageError("create site", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, common.NewStorageError("create site id", err)
	}

	s.logger.Info().Int64("site_id", id).Str("url", site.URL).Msg("Site created")
	return id, nil
}

// GetSite retrieves a site by id. Missing ids yield models.ErrSiteNotFound.
func (s *SiteStore) GetSite(ctx context.Context, id int64) (*models.Site, error) {
	query := `SELECT id, url, interval_secs, style, status, last_checked, last_updated FROM sites WHERE id = ?`
	return s.scanSite(s.db.db.QueryRowContext(ctx, query, id))
}

// GetSiteByURL retrieves a site by its unique URL.
func (s *SiteStore) GetSiteByURL(ctx context.Context, url string) (*models.Site, error) {
	query := `SELECT id, url, interval_secs, style, status, last_checked, last_updated FROM sites WHERE url = ?`
	return s.scanSite(s.db.db.QueryRowContext(ctx, query, url))
}

// ListSites returns all monitored sites ordered by id.
func (s *SiteStore) ListSites(ctx context.Context) ([]models.Site, error) {
	query := `SELECT id, url, interval_secs, style, status, last_checked, last_updated FROM sites ORDER BY id`
	rows, err := s.db.db.QueryContext(ctx, query)
	if err != nil {
		return nil, common.NewStorageError("list sites", err)
	}
	defer rows.Close()

	sites := make([]models.Site, 0)
	for rows.Next() {
		site, err := scanSiteRow(rows)
		if err != nil {
			return nil, common.NewStorageError("scan site row", err)
		}
		sites = append(sites, *site)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewStorageError("iterate sites", err)
	}
	return sites, nil
}

// RecordCheck updates a site's status and last_checked timestamp after a
// fetch attempt. Recording against a deleted site is a no-op.
func (s *SiteStore) RecordCheck(ctx context.Context, id int64, status models.SiteStatus, ts time.Time) error {
	query := `UPDATE sites SET status = ?, last_checked = ? WHERE id = ?`
	if _, err := s.db.db.ExecContext(ctx, query, string(status), ts.UTC(), id); err != nil {
		return common.NewStorageError("record check", err)
	}
	return nil
}

// RecordChange marks a detected change: status ok, last_checked and
// last_updated move together in a single statement so readers never observe
// last_updated ahead of last_checked.
func (s *SiteStore) RecordChange(ctx context.Context, id int64, ts time.Time) error {
	query := `UPDATE sites SET status = ?, last_checked = ?, last_updated = ? WHERE id = ?`
	if _, err := s.db.db.ExecContext(ctx, query, string(models.SiteStatusOK), ts.UTC(), ts.UTC(), id); err != nil {
		return common.NewStorageError("record change", err)
	}
	return nil
}

// DeleteSite removes a site and, through the FK cascade, its stored updates.
// Deleting a nonexistent id is a no-op, not an error.
func (s *SiteStore) DeleteSite(ctx context.Context, id int64) error {
	result, err := s.db.db.ExecContext(ctx, `DELETE FROM sites WHERE id = ?`, id)
	if err != nil {
		return common.NewStorageError("delete site", err)
	}

	affected, _ := result.RowsAffected()
	if affected > 0 {
		s.logger.Info().Int64("site_id", id).Msg("Site deleted")
	}
	return nil
}

// rowScanner lets scanSite work with both QueryRow and Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SiteStore) scanSite(row rowScanner) (*models.Site, error) {
	site, err := scanSiteRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrSiteNotFound
		}
		return nil, common.NewStorageError("scan site", err)
	}
	return site, nil
}

func scanSiteRow(row rowScanner) (*models.Site, error) {
	var site models.Site
	var style, status string
	var lastChecked, lastUpdated sql.NullTime

	if err := row.Scan(&site.ID, &site.URL, &site.IntervalSecs, &style, &status, &lastChecked, &lastUpdated); err != nil {
		return nil, err
	}

	site.Style = models.CheckStyle(style)
	site.Status = models.SiteStatus(status)
	if lastChecked.Valid {
		t := lastChecked.Time.UTC()
		site.LastChecked = &t
	}
	if lastUpdated.Valid {
		t := lastUpdated.Time.UTC()
		site.LastUpdated = &t
	}
	return &site, nil
}
