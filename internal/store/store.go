// Package store defines account persistence for the table service. Each
// account owns one serialized round, its token balance and the idempotency
// key of its last successful request.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no account matches the lookup.
	ErrNotFound = errors.New("account not found")
	// ErrConflict is returned when an account id or client id is already taken.
	ErrConflict = errors.New("account already exists")
)

// Account is one player's persisted table.
type Account struct {
	ID             string
	ClientID       string
	Tokens         int
	State          []byte
	IdempotencyKey string
	LastActivity   time.Time
}

// Clone returns a deep copy of a.
func (a *Account) Clone() *Account {
	c := *a
	if a.State != nil {
		c.State = append([]byte(nil), a.State...)
	}
	return &c
}

// Store persists accounts. Implementations must be safe for concurrent use.
type Store interface {
	Account(ctx context.Context, id string) (*Account, error)
	AccountByClientID(ctx context.Context, clientID string) (*Account, error)
	CreateAccount(ctx context.Context, a *Account) error
	SaveAccount(ctx context.Context, a *Account) error
	Ping(ctx context.Context) error
	Close() error
}
