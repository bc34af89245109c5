package models

import (
	"errors"
	"time"
)

// ErrUpdateNotFound is returned when an update lookup matches no stored record.
var ErrUpdateNotFound = errors.New("update not found")

// Update is one detected content change for a site. Updates are immutable
// after creation; they disappear only through eviction or site deletion.
type Update struct {
	ID           int64     `json:"id"`
	SiteID       int64     `json:"site_id"`
	Timestamp    time.Time `json:"timestamp"`
	ContentHash  string    `json:"content_hash"`
	Content      string    `json:"content,omitempty"`
	LinesAdded   int       `json:"lines_added"`
	LinesRemoved int       `json:"lines_removed"`
}

// Summary returns a copy of the update without the content body, for list
// endpoints where full snapshots would bloat the payload.
func (u Update) Summary() UpdateSummary {
	return UpdateSummary{
		ID:           u.ID,
		SiteID:       u.SiteID,
		Timestamp:    u.Timestamp,
		ContentHash:  u.ContentHash,
		ContentSize:  len(u.Content),
		LinesAdded:   u.LinesAdded,
		LinesRemoved: u.LinesRemoved,
	}
}

// UpdateSummary is the content-free projection of an Update.
type UpdateSummary struct {
	ID           int64     `json:"id"`
	SiteID       int64     `json:"site_id"`
	Timestamp    time.Time `json:"timestamp"`
	ContentHash  string    `json:"content_hash"`
	ContentSize  int       `json:"content_size"`
	LinesAdded   int       `json:"lines_added"`
	LinesRemoved int       `json:"lines_removed"`
}

// UpdateEvent is the broadcast payload published when a change is detected.
// Full content is retrievable separately by site id and update id/timestamp;
// the event carries only a bounded preview to keep fan-out cheap.
type UpdateEvent struct {
	SiteID         int64     `json:"site_id"`
	URL            string    `json:"url"`
	Timestamp      time.Time `json:"timestamp"`
	ContentHash    string    `json:"content_hash"`
	ContentPreview string    `json:"content_preview"`
	LinesAdded     int       `json:"lines_added"`
	LinesRemoved   int       `json:"lines_removed"`
	HasFullContent bool      `json:"has_full_content"`
}

// ArchivedUpdate is the parquet row layout for updates moved to the cold
// archive on eviction.
type ArchivedUpdate struct {
	SiteID       int64     `parquet:"site_id,zstd"`
	URL          string    `parquet:"url,zstd"`
	UpdateID     int64     `parquet:"update_id,zstd"`
	Timestamp    time.Time `parquet:"timestamp,zstd"`
	ContentHash  string    `parquet:"content_hash,zstd"`
	Content      string    `parquet:"content,zstd,optional"`
	LinesAdded   int32     `parquet:"lines_added,zstd,optional"`
	LinesRemoved int32     `parquet:"lines_removed,zstd,optional"`
}
