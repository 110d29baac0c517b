// Package storetest is a conformance suite shared by every store.Store
// implementation.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/lox/blackjack/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store. The suite closes it.
type Factory func(t *testing.T) store.Store

// Run exercises the store contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	stamp := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	account := func() *store.Account {
		return &store.Account{
			ID:           "0190a4b2-7c3e-7d41-8f2a-1b2c3d4e5f60",
			ClientID:     "0190a4b2-7c3e-7d41-8f2a-000000000001",
			Tokens:       1000,
			State:        []byte(`{"bet": 10, "bet_list": [10]}`),
			LastActivity: stamp,
		}
	}

	open := func(t *testing.T) store.Store {
		s := newStore(t)
		t.Cleanup(func() { _ = s.Close() })
		return s
	}

	t.Run("create and read", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)
		want := account()
		require.NoError(t, s.CreateAccount(ctx, want))

		got, err := s.Account(ctx, want.ID)
		require.NoError(t, err)
		assertAccount(t, want, got)

		got, err = s.AccountByClientID(ctx, want.ClientID)
		require.NoError(t, err)
		assertAccount(t, want, got)
	})

	t.Run("missing", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)
		_, err := s.Account(ctx, "nope")
		assert.ErrorIs(t, err, store.ErrNotFound)
		_, err = s.AccountByClientID(ctx, "nope")
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.ErrorIs(t, s.SaveAccount(ctx, account()), store.ErrNotFound)
	})

	t.Run("conflicts", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)
		require.NoError(t, s.CreateAccount(ctx, account()))

		sameID := account()
		sameID.ClientID = "0190a4b2-7c3e-7d41-8f2a-000000000002"
		assert.ErrorIs(t, s.CreateAccount(ctx, sameID), store.ErrConflict)

		sameClient := account()
		sameClient.ID = "0190a4b2-7c3e-7d41-8f2a-000000000003"
		assert.ErrorIs(t, s.CreateAccount(ctx, sameClient), store.ErrConflict)
	})

	t.Run("save", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)
		a := account()
		require.NoError(t, s.CreateAccount(ctx, a))

		a.Tokens = 990
		a.State = []byte(`{"bet": 0, "bet_list": []}`)
		a.IdempotencyKey = "k-1"
		a.LastActivity = stamp.Add(time.Minute)
		require.NoError(t, s.SaveAccount(ctx, a))

		got, err := s.Account(ctx, a.ID)
		require.NoError(t, err)
		assertAccount(t, a, got)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, open(t).Ping(context.Background()))
	})

	t.Run("cancelled context", func(t *testing.T) {
		s := open(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := s.Account(ctx, account().ID)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func assertAccount(t *testing.T, want, got *store.Account) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.ClientID, got.ClientID)
	assert.Equal(t, want.Tokens, got.Tokens)
	assert.JSONEq(t, string(want.State), string(got.State))
	assert.Equal(t, want.IdempotencyKey, got.IdempotencyKey)
	assert.True(t, want.LastActivity.Equal(got.LastActivity), "last activity %s != %s", got.LastActivity, want.LastActivity)
}
