// Package sqlitestore persists permission records in a local SQLite
// database. It is the single-node system of record; deployments that
// share records across hosts use the DynamoDB backend instead.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/astaXmjy/s3BucMg/internal/access"
	"github.com/astaXmjy/s3BucMg/internal/store"
)

type Store struct {
	sql *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path and applies
// pending migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("db path is required")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, err
		}
	}

	// modernc SQLite uses a URI-like DSN; plain file paths are ok.
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)", path)
	s, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	s.SetMaxOpenConns(1)
	s.SetMaxIdleConns(1)
	s.SetConnMaxLifetime(0)

	st := &Store{sql: s}
	if err := st.ping(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	if err := st.setPragmas(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	if err := migrate(ctx, s); err != nil {
		_ = s.Close()
		return nil, err
	}

	return st, nil
}

func (s *Store) Close() error {
	return s.sql.Close()
}

func (s *Store) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return s.sql.PingContext(ctx)
}

func (s *Store) setPragmas(ctx context.Context) error {
	// WAL keeps reads cheap while the admin API writes.
	_, err := s.sql.ExecContext(ctx, "PRAGMA journal_mode = WAL;")
	if err != nil {
		return err
	}
	_, err = s.sql.ExecContext(ctx, "PRAGMA foreign_keys = ON;")
	return err
}

// GetRecord looks up a record by username.
func (s *Store) GetRecord(ctx context.Context, username string) (*access.Record, error) {
	row := s.sql.QueryRowContext(ctx, `
SELECT id, username, password_hash, level, folders, disabled, created_at, updated_at
FROM records WHERE username = ?
`, username)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// PutRecord inserts or replaces the whole record in one statement, so
// a concurrent reader sees either the old or the new folder set.
func (s *Store) PutRecord(ctx context.Context, rec *access.Record) error {
	if rec == nil {
		return access.ErrNoRecord
	}
	if rec.Username == "" {
		return errors.New("username is required")
	}
	folders, err := json.Marshal(rec.Folders)
	if err != nil {
		return err
	}
	_, err = s.sql.ExecContext(ctx, `
INSERT INTO records(id, username, password_hash, level, folders, disabled, created_at, updated_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(username) DO UPDATE SET
  password_hash=excluded.password_hash,
  level=excluded.level,
  folders=excluded.folders,
  disabled=excluded.disabled,
  updated_at=excluded.updated_at
`, rec.ID, rec.Username, rec.PasswordHash, rec.Level.String(), string(folders),
		boolToInt(rec.Disabled), rec.Created.Unix(), rec.Updated.Unix())
	return err
}

// DeleteRecord removes a record by username.
func (s *Store) DeleteRecord(ctx context.Context, username string) error {
	res, err := s.sql.ExecContext(ctx, `DELETE FROM records WHERE username = ?`, username)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListRecords returns all records sorted by username.
func (s *Store) ListRecords(ctx context.Context) ([]*access.Record, error) {
	rows, err := s.sql.QueryContext(ctx, `
SELECT id, username, password_hash, level, folders, disabled, created_at, updated_at
FROM records ORDER BY username ASC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*access.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*access.Record, error) {
	var rec access.Record
	var level, folders string
	var disabled int
	var created, updated int64
	err := sc.Scan(&rec.ID, &rec.Username, &rec.PasswordHash, &level, &folders, &disabled, &created, &updated)
	if err != nil {
		return nil, err
	}
	rec.Level, err = access.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", rec.Username, err)
	}
	if err := json.Unmarshal([]byte(folders), &rec.Folders); err != nil {
		return nil, fmt.Errorf("record %s: folders column: %w", rec.Username, err)
	}
	rec.Disabled = disabled != 0
	rec.Created = time.Unix(created, 0).UTC()
	rec.Updated = time.Unix(updated, 0).UTC()
	return &rec, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
