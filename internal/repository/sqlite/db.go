// Package sqlite provides the SQLite implementation of repository interfaces
package sqlite

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// DB wraps sqlx.DB with SQLite-specific setup
type DB struct {
	*sqlx.DB
}

// New creates a new SQLite database connection tuned for a small
// single-binary deployment
func New(dbPath string) (*DB, error) {
	// Validate and clean the path to prevent path traversal
	cleanPath := filepath.Clean(dbPath)
	if !filepath.IsLocal(cleanPath) && !filepath.IsAbs(cleanPath) {
		return nil, fmt.Errorf("invalid database path: potential path traversal detected")
	}

	if cleanPath != ":memory:" {
		dir := filepath.Dir(cleanPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// WAL for concurrent reads, busy_timeout to ride out lock contention
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", cleanPath)

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One writer connection keeps SQLite happy under load
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &DB{db}, nil
}

// Migrate runs database migrations
func (db *DB) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			name TEXT NOT NULL,
			role TEXT DEFAULT 'member',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS qr_codes (
			id TEXT PRIMARY KEY,
			user_id TEXT REFERENCES users(id) ON DELETE CASCADE,
			url TEXT NOT NULL DEFAULT '',
			ad_space_id TEXT,
			scans INTEGER DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS ad_spaces (
			id TEXT PRIMARY KEY,
			user_id TEXT REFERENCES users(id) ON DELETE CASCADE,
			title TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			content_json TEXT NOT NULL DEFAULT '{}',
			theme_json TEXT NOT NULL DEFAULT '{}',
			views INTEGER DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// ad_space_id is intentionally NOT a foreign key: the builder
		// writes the space and the design in two steps, and historical
		// rows conflated design id with space id. Resolution compensates.
		`CREATE TABLE IF NOT EXISTS ad_designs (
			id TEXT PRIMARY KEY,
			user_id TEXT REFERENCES users(id) ON DELETE CASCADE,
			ad_space_id TEXT,
			image_url TEXT NOT NULL DEFAULT '',
			video_url TEXT NOT NULL DEFAULT '',
			content_json TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS scan_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			qr_code_id TEXT REFERENCES qr_codes(id) ON DELETE CASCADE,
			ad_space_id TEXT,
			ip TEXT NOT NULL DEFAULT '',
			user_agent TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Indexes for performance
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		`CREATE INDEX IF NOT EXISTS idx_qr_codes_user ON qr_codes(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_ad_spaces_user ON ad_spaces(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_ad_designs_space ON ad_designs(ad_space_id)`,
		`CREATE INDEX IF NOT EXISTS idx_ad_designs_user ON ad_designs(user_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_events_qr ON scan_events(qr_code_id)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, migration)
		}
	}

	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
