// Package cache provides a SQLite-backed response cache for bibliographic
// provider lookups. Values are stored as JSON under SHA-256 hashed keys and
// expire lazily on read.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultTTL is how long cached provider responses stay valid.
const DefaultTTL = 7 * 24 * time.Hour

// Cache is a namespaced key/value store with per-entry expiry.
type Cache struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the cache database at path.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return &Cache{db: db, now: time.Now}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS cache_entries (
			namespace  TEXT NOT NULL,
			key_hash   TEXT NOT NULL,
			value_json TEXT NOT NULL,
			expires_at INTEGER NOT NULL,
			PRIMARY KEY (namespace, key_hash)
		);

		CREATE INDEX IF NOT EXISTS idx_cache_expires ON cache_entries(expires_at);
	`
	_, err := db.Exec(schema)
	return err
}

// hashKey derives the storage key. Raw keys can be long titles or URLs, so
// only the digest is persisted.
func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Get looks up key in namespace and unmarshals the cached JSON into dest.
// Returns false on a miss. Expired entries are deleted on read and reported
// as misses.
func (c *Cache) Get(namespace, key string, dest any) (bool, error) {
	hashed := hashKey(key)

	var valueJSON string
	var expiresAt int64
	err := c.db.QueryRow(`
		SELECT value_json, expires_at
		FROM cache_entries
		WHERE namespace = ? AND key_hash = ?
	`, namespace, hashed).Scan(&valueJSON, &expiresAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading cache entry: %w", err)
	}

	if c.now().Unix() >= expiresAt {
		if _, err := c.db.Exec(`DELETE FROM cache_entries WHERE namespace = ? AND key_hash = ?`, namespace, hashed); err != nil {
			return false, fmt.Errorf("evicting expired entry: %w", err)
		}
		return false, nil
	}

	if err := json.Unmarshal([]byte(valueJSON), dest); err != nil {
		return false, fmt.Errorf("decoding cached value: %w", err)
	}
	return true, nil
}

// Set stores value under key in namespace. A non-positive ttl falls back to
// DefaultTTL.
func (c *Cache) Set(namespace, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	valueJSON, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding cache value: %w", err)
	}

	_, err = c.db.Exec(`
		INSERT OR REPLACE INTO cache_entries (namespace, key_hash, value_json, expires_at)
		VALUES (?, ?, ?, ?)
	`, namespace, hashKey(key), string(valueJSON), c.now().Add(ttl).Unix())
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Delete removes a single entry. Missing entries are not an error.
func (c *Cache) Delete(namespace, key string) error {
	_, err := c.db.Exec(`DELETE FROM cache_entries WHERE namespace = ? AND key_hash = ?`, namespace, hashKey(key))
	return err
}

// Clear removes every entry in every namespace.
func (c *Cache) Clear() error {
	_, err := c.db.Exec(`DELETE FROM cache_entries`)
	return err
}

// ClearNamespace removes every entry under one namespace.
func (c *Cache) ClearNamespace(namespace string) error {
	_, err := c.db.Exec(`DELETE FROM cache_entries WHERE namespace = ?`, namespace)
	return err
}

// Purge deletes all expired entries and returns how many were removed.
func (c *Cache) Purge() (int, error) {
	res, err := c.db.Exec(`DELETE FROM cache_entries WHERE expires_at <= ?`, c.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("purging cache: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Count returns the number of stored entries, expired ones included.
func (c *Cache) Count() (int, error) {
	var count int
	err := c.db.QueryRow(`SELECT COUNT(*) FROM cache_entries`).Scan(&count)
	return count, err
}
