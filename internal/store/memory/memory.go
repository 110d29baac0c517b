// Package memory is an in-process account store. With a file path it keeps
// a JSON copy of every account on disk so a local table survives restarts.
package memory

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/lox/blackjack/internal/fileutil"
	"github.com/lox/blackjack/internal/store"
)

// Store keeps accounts in a map. Reads and writes copy, so callers never
// share an *Account with the store.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*store.Account
	path     string
}

type record struct {
	ID             string          `json:"id"`
	ClientID       string          `json:"client_id"`
	Tokens         int             `json:"tokens"`
	State          json.RawMessage `json:"state,omitempty"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
	LastActivity   time.Time       `json:"last_activity"`
}

// New returns an empty store that lives only in memory.
func New() *Store {
	return &Store{accounts: make(map[string]*store.Account)}
}

// Open returns a store backed by the JSON file at path, loading it when it
// exists.
func Open(path string) (*Store, error) {
	s := New()
	s.path = path

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read accounts file: %w", err)
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode accounts file: %w", err)
	}
	for _, r := range records {
		s.accounts[r.ID] = &store.Account{
			ID:             r.ID,
			ClientID:       r.ClientID,
			Tokens:         r.Tokens,
			State:          []byte(r.State),
			IdempotencyKey: r.IdempotencyKey,
			LastActivity:   r.LastActivity,
		}
	}
	return s, nil
}

func (s *Store) Account(ctx context.Context, id string) (*store.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return a.Clone(), nil
}

func (s *Store) AccountByClientID(ctx context.Context, clientID string) (*store.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.accounts {
		if a.ClientID == clientID {
			return a.Clone(), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CreateAccount(ctx context.Context, a *store.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[a.ID]; ok {
		return store.ErrConflict
	}
	for _, existing := range s.accounts {
		if a.ClientID != "" && existing.ClientID == a.ClientID {
			return store.ErrConflict
		}
	}
	s.accounts[a.ID] = a.Clone()
	return s.flush()
}

func (s *Store) SaveAccount(ctx context.Context, a *store.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[a.ID]; !ok {
		return store.ErrNotFound
	}
	s.accounts[a.ID] = a.Clone()
	return s.flush()
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Close() error { return nil }

// flush writes every account to the backing file. Callers hold the lock.
func (s *Store) flush() error {
	if s.path == "" {
		return nil
	}
	records := make([]record, 0, len(s.accounts))
	for _, a := range s.accounts {
		records = append(records, record{
			ID:             a.ID,
			ClientID:       a.ClientID,
			Tokens:         a.Tokens,
			State:          json.RawMessage(a.State),
			IdempotencyKey: a.IdempotencyKey,
			LastActivity:   a.LastActivity,
		})
	}
	slices.SortFunc(records, func(a, b record) int { return cmp.Compare(a.ID, b.ID) })
	if err := fileutil.WriteJSONAtomic(s.path, records, 0o600); err != nil {
		return fmt.Errorf("write accounts file: %w", err)
	}
	return nil
}

var _ store.Store = (*Store)(nil)
