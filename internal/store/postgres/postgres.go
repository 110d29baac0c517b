// Package postgres stores accounts in PostgreSQL, keeping each round as a
// JSONB document.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lox/blackjack/internal/store"
)

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

// Store is a pgx connection pool holding the accounts table.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to dsn and applies the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s := &Store{pool: pool}
	if err := s.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the accounts table when it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate postgres: %w", err)
	}
	return nil
}

const selectAccount = `SELECT id, client_id, tokens, state, idempotency_key, last_activity FROM accounts`

func (s *Store) Account(ctx context.Context, id string) (*store.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.scan(s.pool.QueryRow(ctx, selectAccount+` WHERE id = $1`, id))
}

func (s *Store) AccountByClientID(ctx context.Context, clientID string) (*store.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.scan(s.pool.QueryRow(ctx, selectAccount+` WHERE client_id = $1`, clientID))
}

func (s *Store) scan(row pgx.Row) (*store.Account, error) {
	var a store.Account
	err := row.Scan(&a.ID, &a.ClientID, &a.Tokens, &a.State, &a.IdempotencyKey, &a.LastActivity)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read account: %w", err)
	}
	return &a, nil
}

// state maps an empty blob to SQL NULL; JSONB rejects empty input.
func state(a *store.Account) any {
	if len(a.State) == 0 {
		return nil
	}
	return string(a.State)
}

func (s *Store) CreateAccount(ctx context.Context, a *store.Account) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO accounts (id, client_id, tokens, state, idempotency_key, last_activity)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, a.ID, a.ClientID, a.Tokens, state(a), a.IdempotencyKey, a.LastActivity)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return store.ErrConflict
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (s *Store) SaveAccount(ctx context.Context, a *store.Account) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE accounts
		   SET tokens = $2, state = $3, idempotency_key = $4, last_activity = $5
		 WHERE id = $1
	`, a.ID, a.Tokens, state(a), a.IdempotencyKey, a.LastActivity)
	if err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

var _ store.Store = (*Store)(nil)
