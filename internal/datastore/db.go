package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// DB wraps the SQL database connection and owns the sites/updates schema.
type DB struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewDB initializes a new DB connection and ensures the schema is set up.
func NewDB(databasePath string, logger zerolog.Logger) (*DB, error) {
	log := logger.With().Str("component", "DB").Logger()
	log.Info().Str("db_path", databasePath).Msg("Initializing database connection")

	dbDir := filepath.Dir(databasePath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		log.Error().Err(err).Str("directory", dbDir).Msg("Failed to create database directory")
		return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)&_pragma=foreign_keys(1)", databasePath)
	dbInstance, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Error().Err(err).Str("db_path", databasePath).Msg("Failed to open database")
		return nil, fmt.Errorf("sql.Open failed for %s: %w", databasePath, err)
	}

	db := &DB{
		db:     dbInstance,
		logger: log,
	}

	if err := db.InitSchema(); err != nil {
		db.Close()
		log.Error().Err(err).Msg("Failed to initialize database schema")
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Info().Str("path", databasePath).Msg("Database initialized and schema verified")
	return db, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// InitSchema creates the sites and updates tables if they don't already exist.
func (d *DB) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS sites (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE,
		interval_secs INTEGER NOT NULL DEFAULT 1,
		style TEXT NOT NULL DEFAULT 'random',
		status TEXT NOT NULL DEFAULT 'pending',
		last_checked DATETIME,
		last_updated DATETIME
	);
	CREATE TABLE IF NOT EXISTS updates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		site_id INTEGER NOT NULL,
		timestamp DATETIME NOT NULL,
		content_hash TEXT NOT NULL,
		content TEXT NOT NULL,
		lines_added INTEGER NOT NULL DEFAULT 0,
		lines_removed INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (site_id) REFERENCES sites(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_updates_site_id ON updates(site_id);
	`
	if _, err := d.db.Exec(query); err != nil {
		d.logger.Error().Err(err).Msg("Failed to initialize schema")
		return err
	}
	return nil
}

// ResetAll destructively wipes all sites and updates and recreates the schema.
// Operator recovery only.
func (d *DB) ResetAll(ctx context.Context) error {
	d.logger.Warn().Msg("Resetting database: dropping all sites and updates")

	if _, err := d.db.ExecContext(ctx, `DROP TABLE IF EXISTS updates; DROP TABLE IF EXISTS sites;`); err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}

	if err := d.InitSchema(); err != nil {
		return fmt.Errorf("failed to recreate schema after reset: %w", err)
	}

	d.logger.Info().Msg("Database reset complete")
	return nil
}
