package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mcoot/mindgym/internal/model"
	"github.com/mcoot/mindgym/internal/storage"
)

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS session_values (
	token      TEXT NOT NULL,
	name       TEXT NOT NULL,
	value      BLOB NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (token, name)
)`

// Storage is a SQLite-backed implementation of the storage interface.
// Each session value is one row keyed by (token, name).
type Storage struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens the database at path, creating the schema if needed
func Open(path string) (*Storage, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := MemoryPath
	if path != MemoryPath {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Every connection to :memory: is a separate database
	if path == MemoryPath {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Storage{db: db, now: time.Now}, nil
}

// Close releases the underlying database
func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) put(ctx context.Context, token model.SessionToken, name string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_values (token, name, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(token, name) DO UPDATE SET
		    value = excluded.value,
		    updated_at = excluded.updated_at`,
		string(token), name, value, s.now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put %s: %w", name, err)
	}
	return nil
}

func (s *Storage) get(ctx context.Context, token model.SessionToken, name string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM session_values WHERE token = ? AND name = ?`,
		string(token), name,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", name, err)
	}
	return value, true, nil
}

func (s *Storage) remove(ctx context.Context, token model.SessionToken, names ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, name := range names {
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM session_values WHERE token = ? AND name = ?`,
			string(token), name,
		); err != nil {
			return fmt.Errorf("delete %s: %w", name, err)
		}
	}
	return nil
}

// Profile operations

func (s *Storage) SaveProfile(ctx context.Context, token model.SessionToken, data []byte) error {
	return s.put(ctx, token, storage.KeyProfile, data)
}

func (s *Storage) GetProfile(ctx context.Context, token model.SessionToken) ([]byte, error) {
	data, ok, err := s.get(ctx, token, storage.KeyProfile)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrProfileNotFound
	}
	return data, nil
}

func (s *Storage) DeleteProfile(ctx context.Context, token model.SessionToken) error {
	return s.remove(ctx, token, storage.KeyProfile)
}

// Authentication marker operations

func (s *Storage) SetAuthenticated(ctx context.Context, token model.SessionToken) error {
	return s.put(ctx, token, storage.KeyAuthenticated, []byte("true"))
}

func (s *Storage) IsAuthenticated(ctx context.Context, token model.SessionToken) (bool, error) {
	data, ok, err := s.get(ctx, token, storage.KeyAuthenticated)
	if err != nil {
		return false, err
	}
	return ok && string(data) == "true", nil
}

func (s *Storage) ClearAuthenticated(ctx context.Context, token model.SessionToken) error {
	return s.remove(ctx, token, storage.KeyAuthenticated)
}

// Touch records activity on every row of the session
func (s *Storage) Touch(ctx context.Context, token model.SessionToken) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE session_values SET updated_at = ? WHERE token = ?`,
		s.now().UTC().UnixMilli(), string(token),
	); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

func (s *Storage) DeleteSession(ctx context.Context, token model.SessionToken) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM session_values WHERE token = ?`, string(token),
	); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
