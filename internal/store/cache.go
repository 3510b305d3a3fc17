// Package store provides a SQLite-backed cache for public API responses.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Cache stores raw response bodies keyed by request URL.
type Cache struct {
	db  *sql.DB
	now func() time.Time
}

// Entry is one cached response.
type Entry struct {
	URL       string
	Body      []byte
	FetchedAt time.Time
}

// Stats summarizes the cache contents.
type Stats struct {
	Entries int
	Bytes   int64
	Oldest  time.Time
	Newest  time.Time
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db, now: time.Now}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached body for url. Entries older than maxAge are treated
// as missing; maxAge <= 0 accepts any age.
func (c *Cache) Get(url string, maxAge time.Duration) (Entry, bool, error) {
	var (
		e         Entry
		fetchedAt string
	)
	err := c.db.QueryRow(
		"SELECT url, body, fetched_at FROM http_cache WHERE url = ?", url,
	).Scan(&e.URL, &e.Body, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("reading cache: %w", err)
	}

	e.FetchedAt, err = time.Parse(time.RFC3339, fetchedAt)
	if err != nil {
		return Entry{}, false, nil //nolint:nilerr // unreadable timestamp counts as a miss
	}
	if maxAge > 0 && c.now().Sub(e.FetchedAt) > maxAge {
		return Entry{}, false, nil
	}
	return e, true, nil
}

// Put stores body for url, replacing any previous entry.
func (c *Cache) Put(url string, body []byte) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`INSERT OR REPLACE INTO http_cache (url, body, status, fetched_at)
		VALUES (?, ?, 200, ?)`,
		url, body, c.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return tx.Commit()
}

// Delete removes the entry for url.
func (c *Cache) Delete(url string) error {
	_, err := c.db.Exec("DELETE FROM http_cache WHERE url = ?", url)
	return err
}

// Clear removes every entry.
func (c *Cache) Clear() error {
	_, err := c.db.Exec("DELETE FROM http_cache")
	return err
}

// Stats reports entry count, total body size and age range.
func (c *Cache) Stats() (Stats, error) {
	var (
		s              Stats
		oldest, newest sql.NullString
		size           sql.NullInt64
	)
	err := c.db.QueryRow(
		"SELECT COUNT(*), SUM(LENGTH(body)), MIN(fetched_at), MAX(fetched_at) FROM http_cache",
	).Scan(&s.Entries, &size, &oldest, &newest)
	if err != nil {
		return Stats{}, fmt.Errorf("reading cache stats: %w", err)
	}
	s.Bytes = size.Int64
	if oldest.Valid {
		s.Oldest, _ = time.Parse(time.RFC3339, oldest.String)
	}
	if newest.Valid {
		s.Newest, _ = time.Parse(time.RFC3339, newest.String)
	}
	return s, nil
}
