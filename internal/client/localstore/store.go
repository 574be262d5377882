// Package localstore persists the CLI's offline state: the last vault
// snapshot pulled from the server and the current login session.
package localstore

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"path/filepath"

	"github.com/pressly/goose/v3"

	"github.com/vaultmerge/vaultmerge/internal/client/migrations"
	"github.com/vaultmerge/vaultmerge/internal/filex"
)

// Store wraps the local SQLite cache database.
type Store struct {
	db *sql.DB
}

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		log.Fatal("failed to set goose dialect:", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the SQLite database at dsn and applies
// pending migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dir := filepath.Dir(dsn); dir != "." && !filepath.IsAbs(dir) {
		if _, err := filex.EnsureSubdDir(dir); err != nil {
			return nil, fmt.Errorf("preparing local vault cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening local vault cache: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrating local vault cache: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSnapshot persists the JSON-encoded vault snapshot, replacing any
// previously cached copy.
func (s *Store) SaveSnapshot(ctx context.Context, snapshotJSON []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vault_cache (id, snapshot) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET snapshot = excluded.snapshot
	`, string(snapshotJSON))
	if err != nil {
		return fmt.Errorf("saving vault snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the cached JSON snapshot, or nil if none has been
// saved yet.
func (s *Store) LoadSnapshot(ctx context.Context) ([]byte, error) {
	var snapshot string
	err := s.db.QueryRowContext(ctx, `SELECT snapshot FROM vault_cache WHERE id = 1`).Scan(&snapshot)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading vault snapshot: %w", err)
	}
	return []byte(snapshot), nil
}

// Session is the CLI's persisted login state.
type Session struct {
	Username     string
	AccessToken  string
	RefreshToken string
}

// SaveSession persists the current login session, replacing any previous one.
func (s *Store) SaveSession(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session (id, username, access_token, refresh_token) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET username = excluded.username,
			access_token = excluded.access_token, refresh_token = excluded.refresh_token
	`, sess.Username, sess.AccessToken, sess.RefreshToken)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// LoadSession returns the persisted session, or (Session{}, false) if none
// has been saved.
func (s *Store) LoadSession(ctx context.Context) (Session, bool, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx, `SELECT username, access_token, refresh_token FROM session WHERE id = 1`).
		Scan(&sess.Username, &sess.AccessToken, &sess.RefreshToken)
	if err == sql.ErrNoRows {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("loading session: %w", err)
	}
	return sess, true, nil
}

// ClearSession removes any persisted session, logging the user out locally.
func (s *Store) ClearSession(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session WHERE id = 1`)
	if err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}
