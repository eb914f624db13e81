package metacache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lepinkainen/entity-forge/pkg/filesystem"
)

// SQLiteStore persists cache entries in a local sqlite database. Metadata
// is stored as a JSON blob since its keys are opaque to the cache.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ Store = (*SQLiteStore)(nil)
var _ StatsProvider = (*SQLiteStore)(nil)
var _ CleanupProvider = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the store at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := filesystem.EnsureDirectoryExists(dbPath); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL and a busy timeout keep concurrent readers and the writer from
	// tripping over each other.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=memory",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db, path: dbPath}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	slog.Info("metadata cache store initialized", "path", dbPath)
	return store, nil
}

func (s *SQLiteStore) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS metadata_cache (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		fetched_at INTEGER NOT NULL,
		ttl_ns INTEGER NOT NULL,
		failure_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_metadata_expiry ON metadata_cache(fetched_at, ttl_ns);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Read implements Store. Undecodable rows surface as ErrCorrupt so the
// cache can fail open.
func (s *SQLiteStore) Read(key string) (*Entry, error) {
	query := `
	SELECT key, value, fetched_at, ttl_ns, failure_count
	FROM metadata_cache
	WHERE key = ?
	`

	var (
		entry     Entry
		valueJSON string
		fetchedNS int64
		ttlNS     int64
	)
	err := s.db.QueryRow(query, key).Scan(&entry.Key, &valueJSON, &fetchedNS, &ttlNS, &entry.FailureCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cache entry: %w", err)
	}

	if err := json.Unmarshal([]byte(valueJSON), &entry.Value); err != nil {
		return nil, fmt.Errorf("%w: key %s: %v", ErrCorrupt, key, err)
	}
	entry.FetchedAt = time.Unix(0, fetchedNS)
	entry.TTL = time.Duration(ttlNS)

	return &entry, nil
}

// Write implements Store.
func (s *SQLiteStore) Write(entry *Entry) error {
	valueJSON, err := json.Marshal(entry.Value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	query := `
	INSERT OR REPLACE INTO metadata_cache (key, value, fetched_at, ttl_ns, failure_count)
	VALUES (?, ?, ?, ?, ?)
	`
	_, err = s.db.Exec(query,
		entry.Key,
		string(valueJSON),
		entry.FetchedAt.UnixNano(),
		int64(entry.TTL),
		entry.FailureCount,
	)
	if err != nil {
		return fmt.Errorf("failed to save cache entry: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM metadata_cache WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CleanupExpired removes entries whose TTL has fully elapsed.
func (s *SQLiteStore) CleanupExpired() error {
	now := time.Now().UnixNano()
	result, err := s.db.Exec(`DELETE FROM metadata_cache WHERE fetched_at + ttl_ns < ?`, now)
	if err != nil {
		return fmt.Errorf("failed to cleanup expired entries: %w", err)
	}

	if affected, _ := result.RowsAffected(); affected > 0 {
		slog.Debug("cleaned up expired cache entries", "count", affected)
	}
	return nil
}

// Stats returns entry counts for the cache subcommands.
func (s *SQLiteStore) Stats() (map[string]any, error) {
	stats := make(map[string]any)

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM metadata_cache`).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to get total entries: %w", err)
	}
	stats["total_entries"] = total

	var failed int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM metadata_cache WHERE failure_count > 0`).Scan(&failed)
	if err != nil {
		return nil, fmt.Errorf("failed to get failed entries: %w", err)
	}
	stats["failed_entries"] = failed

	var expired int
	now := time.Now().UnixNano()
	err = s.db.QueryRow(`SELECT COUNT(*) FROM metadata_cache WHERE fetched_at + ttl_ns < ?`, now).Scan(&expired)
	if err != nil {
		return nil, fmt.Errorf("failed to get expired entries: %w", err)
	}
	stats["expired_entries"] = expired

	return stats, nil
}
