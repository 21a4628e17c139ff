package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store persists the normalized catalog to SQLite so the index build is
// idempotent given unchanged raw input, and so other tools can inspect the
// catalog without re-running normalization.
type Store struct {
	db *sql.DB
}

const storeSchema = `
CREATE TABLE IF NOT EXISTS assessments (
	id               INTEGER PRIMARY KEY,
	name             TEXT NOT NULL,
	url              TEXT NOT NULL DEFAULT '',
	description      TEXT NOT NULL,
	tags             TEXT NOT NULL DEFAULT '[]',
	duration         INTEGER NOT NULL DEFAULT 0,
	test_type        TEXT NOT NULL DEFAULT '',
	remote_support   TEXT NOT NULL DEFAULT '',
	adaptive_support TEXT NOT NULL DEFAULT ''
);
`

// OpenStore opens (creating if needed) the catalog database at path.
func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("cannot create data directory %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cannot open catalog db %s: %w", path, err)
	}
	if _, err := db.Exec(storeSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cannot initialize catalog db %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the stored catalog with entries inside one transaction.
func (s *Store) Save(ctx context.Context, entries []Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM assessments`); err != nil {
		return fmt.Errorf("cannot clear catalog: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO assessments (id, name, url, description, tags, duration, test_type, remote_support, adaptive_support)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("cannot prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		tags, err := json.Marshal(e.Tags)
		if err != nil {
			return fmt.Errorf("cannot marshal tags for %q: %w", e.Name, err)
		}
		if e.Tags == nil {
			tags = []byte("[]")
		}
		if _, err := stmt.ExecContext(ctx,
			e.ID, e.Name, e.URL, e.Description, string(tags),
			e.Duration, e.TestType, e.RemoteSupport, e.AdaptiveSupport,
		); err != nil {
			return fmt.Errorf("cannot insert %q: %w", e.Name, err)
		}
	}
	return tx.Commit()
}

// Load returns all stored entries ordered by id.
func (s *Store) Load(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, url, description, tags, duration, test_type, remote_support, adaptive_support
		FROM assessments ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("cannot query catalog: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var tags string
		if err := rows.Scan(&e.ID, &e.Name, &e.URL, &e.Description, &tags,
			&e.Duration, &e.TestType, &e.RemoteSupport, &e.AdaptiveSupport); err != nil {
			return nil, fmt.Errorf("cannot scan catalog row: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &e.Tags); err != nil {
			return nil, fmt.Errorf("invalid tags for %q: %w", e.Name, err)
		}
		if len(e.Tags) == 0 {
			e.Tags = nil
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cannot read catalog rows: %w", err)
	}
	return out, nil
}
