// Package cache stores perceptual image hashes between scans so unchanged
// images do not have to be decoded again.
package cache

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Key identifies the hashing configuration an entry was computed with
type Key struct {
	HashSize uint8
	HashAlg  string
	Filter   string
}

// Entry is one cached image hash
type Entry struct {
	Path         string `json:"path"`
	Size         uint64 `json:"size"`
	ModifiedDate uint64 `json:"modified_date"`
	Width        uint32 `json:"width"`
	Height       uint32 `json:"height"`
	Hash         []byte `json:"hash"`
}

// Store is a SQLite backed hash cache
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (and migrates) the cache database at path, creating the parent directory.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging cache: %w", err)
	}

	// Single writer connection for SQLite
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, path: path}, nil
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running cache migrations: %w", err)
	}

	return nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns all entries stored for key, indexed by path
func (s *Store) Load(ctx context.Context, key Key) (map[string]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, size, modified_date, width, height, hash
		FROM image_hashes
		WHERE hash_size = ? AND hash_alg = ? AND image_filter = ?`,
		int(key.HashSize), key.HashAlg, key.Filter)
	if err != nil {
		return nil, fmt.Errorf("loading cache: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]Entry)
	for rows.Next() {
		var (
			e              Entry
			size, modified int64
			width, height  int64
		)
		if err := rows.Scan(&e.Path, &size, &modified, &width, &height, &e.Hash); err != nil {
			return nil, fmt.Errorf("scanning cache row: %w", err)
		}
		e.Size = uint64(size)
		e.ModifiedDate = uint64(modified)
		e.Width = uint32(width)
		e.Height = uint32(height)
		entries[e.Path] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cache rows: %w", err)
	}
	return entries, nil
}

// Save upserts entries for key in a single transaction
func (s *Store) Save(ctx context.Context, key Key, entries []Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning cache transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO image_hashes (path, hash_size, hash_alg, image_filter, size, modified_date, width, height, hash, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT (path, hash_size, hash_alg, image_filter) DO UPDATE SET
			size = excluded.size,
			modified_date = excluded.modified_date,
			width = excluded.width,
			height = excluded.height,
			hash = excluded.hash,
			updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("preparing cache insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Path, int(key.HashSize), key.HashAlg, key.Filter,
			int64(e.Size), int64(e.ModifiedDate), int64(e.Width), int64(e.Height), e.Hash); err != nil {
			return fmt.Errorf("saving cache entry %s: %w", e.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing cache: %w", err)
	}
	return nil
}

// Prune removes entries for key whose file no longer exists and returns how many were removed
func (s *Store) Prune(ctx context.Context, key Key) (int, error) {
	entries, err := s.Load(ctx, key)
	if err != nil {
		return 0, err
	}

	removed := 0
	for path := range entries {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			continue
		}
		if _, err := s.db.ExecContext(ctx, `
			DELETE FROM image_hashes
			WHERE path = ? AND hash_size = ? AND hash_alg = ? AND image_filter = ?`,
			path, int(key.HashSize), key.HashAlg, key.Filter); err != nil {
			return removed, fmt.Errorf("pruning cache entry %s: %w", path, err)
		}
		removed++
	}
	return removed, nil
}

// JSONPath returns where ExportJSON writes the entries for key
func (s *Store) JSONPath(key Key) string {
	name := fmt.Sprintf("cache_similar_images_%d_%s_%s.json", key.HashSize, key.HashAlg, key.Filter)
	return filepath.Join(filepath.Dir(s.path), name)
}

// ExportJSON writes the entries for key as a JSON file next to the database
func (s *Store) ExportJSON(ctx context.Context, key Key) (string, error) {
	entries, err := s.Load(ctx, key)
	if err != nil {
		return "", err
	}

	list := make([]Entry, 0, len(entries))
	for _, e := range entries {
		list = append(list, e)
	}
	sortEntries(list)

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding cache json: %w", err)
	}

	path := s.JSONPath(key)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing cache json: %w", err)
	}
	return path, nil
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
}
