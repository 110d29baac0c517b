// Package sqlite stores accounts in a SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/lox/blackjack/internal/store"
	"github.com/lox/blackjack/internal/store/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists accounts in SQLite.
type Store struct {
	db *sql.DB
}

func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(v int64) time.Time { return time.UnixMilli(v).UTC() }

// Open opens the database at path and applies the embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

const selectAccount = `SELECT id, client_id, tokens, state, idempotency_key, last_activity FROM accounts`

func (s *Store) Account(ctx context.Context, id string) (*store.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.scan(s.db.QueryRowContext(ctx, selectAccount+` WHERE id = ?`, id))
}

func (s *Store) AccountByClientID(ctx context.Context, clientID string) (*store.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.scan(s.db.QueryRowContext(ctx, selectAccount+` WHERE client_id = ?`, clientID))
}

func (s *Store) scan(row *sql.Row) (*store.Account, error) {
	var (
		a     store.Account
		state string
		stamp int64
	)
	err := row.Scan(&a.ID, &a.ClientID, &a.Tokens, &state, &a.IdempotencyKey, &stamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read account: %w", err)
	}
	a.State = []byte(state)
	a.LastActivity = fromMillis(stamp)
	return &a, nil
}

func (s *Store) CreateAccount(ctx context.Context, a *store.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, client_id, tokens, state, idempotency_key, last_activity)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.ClientID, a.Tokens, string(a.State), a.IdempotencyKey, toMillis(a.LastActivity),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (s *Store) SaveAccount(ctx context.Context, a *store.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts
		    SET tokens = ?, state = ?, idempotency_key = ?, last_activity = ?
		  WHERE id = ?`,
		a.Tokens, string(a.State), a.IdempotencyKey, toMillis(a.LastActivity), a.ID,
	)
	if err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ store.Store = (*Store)(nil)
