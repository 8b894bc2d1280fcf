package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// FileName is the database file created inside the data directory.
const FileName = "policycrawl.db"

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ResultStore provides SQLite-based storage for crawl results and
// language classifications.
type ResultStore struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures ResultStore behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a ResultStore in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*ResultStore, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run a crawl or classify first): %w", dbPath, ErrNotFound)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	store := &ResultStore{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := db.ExecContext(context.Background(), "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := store.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return store, nil
}

// Path returns the database file path.
func (s *ResultStore) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *ResultStore) Close() error {
	return s.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (s *ResultStore) createTables() error {
	schema := `
	-- One row per processed domain. A domain may appear more than once
	-- when it is crawled again in a later run.
	CREATE TABLE IF NOT EXISTS policy_links (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL DEFAULT '',
		domain TEXT NOT NULL,
		country TEXT NOT NULL,
		scheme TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		home_links TEXT NOT NULL,
		all_links TEXT NOT NULL,
		policy_links TEXT NOT NULL,
		pages_fetched INTEGER NOT NULL DEFAULT 0,
		budget_exceeded INTEGER NOT NULL DEFAULT 0,
		processed_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_policy_links_domain ON policy_links(domain);
	CREATE INDEX IF NOT EXISTS idx_policy_links_country ON policy_links(country);

	-- Language classification of candidate domains.
	CREATE TABLE IF NOT EXISTS websites (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		language TEXT NOT NULL,
		confidence REAL NOT NULL DEFAULT 0,
		detected_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_websites_url ON websites(url);
	CREATE INDEX IF NOT EXISTS idx_websites_language ON websites(language);

	-- Domains whose classification failed.
	CREATE TABLE IF NOT EXISTS classify_errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		reason TEXT NOT NULL,
		occurred_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_classify_errors_url ON classify_errors(url);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// formatTimestamp is the inverse of parseTimestamp for values we write.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,          // Written by formatTimestamp
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
