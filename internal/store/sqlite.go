package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a Store backed by a local sqlite file. Used when the
// analysis cache should survive restarts; schema is a single key/value
// table with expiry timestamps.
type SQLiteStore struct {
	db       *sql.DB
	ttl      time.Duration
	stopChan chan struct{}
}

const schema = `
CREATE TABLE IF NOT EXISTS analysis_cache (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analysis_cache_expires ON analysis_cache(expires_at);
`

// NewSQLiteStore opens (creating if needed) the cache database at
// path. A non-positive ttl gets DefaultTTL.
func NewSQLiteStore(path string, ttl time.Duration) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite store path is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store: %w", err)
	}
	// Single writer; sqlite serializes anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}

	s := &SQLiteStore{db: db, ttl: ttl, stopChan: make(chan struct{})}
	go s.cleanup()
	return s, nil
}

// Get retrieves a value if it exists and hasn't expired.
func (s *SQLiteStore) Get(key string) (string, bool) {
	var value string
	err := s.db.QueryRow(
		`SELECT value FROM analysis_cache WHERE key = ? AND expires_at > ?`,
		key, time.Now().Unix(),
	).Scan(&value)
	if err != nil {
		return "", false
	}
	return value, true
}

// Set stores a value with the configured TTL, replacing any previous
// entry for the key.
func (s *SQLiteStore) Set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO analysis_cache (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, time.Now().Add(s.ttl).Unix(),
	)
	return err
}

// Delete removes a value.
func (s *SQLiteStore) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM analysis_cache WHERE key = ?`, key)
	return err
}

// Close stops the cleanup goroutine and closes the database.
func (s *SQLiteStore) Close() error {
	close(s.stopChan)
	return s.db.Close()
}

// cleanup periodically removes expired rows.
func (s *SQLiteStore) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			_, _ = s.db.Exec(`DELETE FROM analysis_cache WHERE expires_at <= ?`, time.Now().Unix())
		}
	}
}

var _ Store = (*SQLiteStore)(nil)
