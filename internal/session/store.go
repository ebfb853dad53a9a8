package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNoCredential is returned when no token is persisted.
var ErrNoCredential = errors.New("no credential stored")

// Store persists the single client credential in a local sqlite database.
type Store struct {
	db *sqlx.DB
}

// Open initializes the state database and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS credentials (
            id INTEGER PRIMARY KEY CHECK (id = 1),
            token TEXT NOT NULL,
            saved_at TIMESTAMP NOT NULL
        );`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// SaveToken stores the bearer token, replacing any previous one. The client
// is single-session: exactly one credential row exists.
func (s *Store) SaveToken(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO credentials (id, token, saved_at) VALUES (1, $1, $2)
         ON CONFLICT (id) DO UPDATE SET token = excluded.token, saved_at = excluded.saved_at`,
		token, time.Now().UTC())
	return err
}

// LoadToken returns the stored bearer token, or ErrNoCredential.
func (s *Store) LoadToken(ctx context.Context) (string, error) {
	var token string
	err := s.db.GetContext(ctx, &token, `SELECT token FROM credentials WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoCredential
	}
	return token, err
}

// ClearToken removes the stored credential. Clearing an empty store is a no-op.
func (s *Store) ClearToken(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE id = 1`)
	return err
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
