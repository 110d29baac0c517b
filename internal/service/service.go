// Package service runs table operations for player accounts. Every request
// loads the account's round, applies one operation, settles tokens and saves
// the result, serialized per account.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	rand "math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/id"
	"github.com/lox/blackjack/internal/protocol"
	"github.com/lox/blackjack/internal/randutil"
	"github.com/lox/blackjack/internal/store"
)

// Rules are the table limits applied on top of the engine.
type Rules struct {
	MinimumBet     int
	StartingTokens int
}

// DefaultRules returns a one-token minimum and a 1000-token bankroll.
func DefaultRules() Rules {
	return Rules{MinimumBet: 1, StartingTokens: 1000}
}

// Service executes operations against stored accounts.
type Service struct {
	store     store.Store
	clock     quartz.Clock
	rules     Rules
	ids       *id.Generator
	roundOpts func() []game.Option
	logger    *log.Logger
	locks     keyedMutex
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used for activity stamps and identifiers.
func WithClock(clock quartz.Clock) Option {
	return func(s *Service) { s.clock = clock }
}

// WithRules overrides DefaultRules.
func WithRules(rules Rules) Option {
	return func(s *Service) { s.rules = rules }
}

// WithLogger sets the logger. The service logs under the "service" prefix.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithRandFactory sets the source of shuffle generators. It is called once
// per request.
func WithRandFactory(fn func() *rand.Rand) Option {
	return func(s *Service) {
		s.roundOpts = func() []game.Option { return []game.Option{game.WithRand(fn())} }
	}
}

// WithRoundOptions sets the options every loaded or created round receives.
func WithRoundOptions(fn func() []game.Option) Option {
	return func(s *Service) { s.roundOpts = fn }
}

// New creates a service over st.
func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store: st,
		clock: quartz.NewReal(),
		rules: DefaultRules(),
		roundOpts: func() []game.Option {
			return []game.Option{game.WithRand(randutil.NewFromEntropy())}
		},
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ids = id.NewGenerator(s.clock, nil)
	s.logger = s.logger.WithPrefix("service")
	return s
}

// Rules returns the table limits in force.
func (s *Service) Rules() Rules { return s.rules }

// Ping checks the backing store.
func (s *Service) Ping(ctx context.Context) error { return s.store.Ping(ctx) }

// InitializeSession resolves the caller's account, creating one when
// neither the session account nor the client id is known, and refunds any
// bet stranded outside a live round. It returns the account id to bind to
// the session.
func (s *Service) InitializeSession(ctx context.Context, accountID, clientID string) (string, *protocol.Response, error) {
	if id.Absent(clientID) {
		clientID = s.ids.New()
	}

	acct, err := s.resolve(ctx, accountID, clientID)
	if err != nil {
		return "", nil, err
	}

	unlock := s.locks.Lock(acct.ID)
	defer unlock()

	acct, err = s.store.Account(ctx, acct.ID)
	if err != nil {
		return "", nil, fmt.Errorf("reload account: %w", err)
	}

	var round *game.Round
	if len(acct.State) == 0 {
		round = game.New(s.roundOpts()...)
	} else if round, err = game.Restore(acct.State, s.roundOpts()...); err != nil {
		return "", nil, fmt.Errorf("restore round for %s: %w", acct.ID, err)
	}

	if refund := round.ReleaseBet(); refund > 0 {
		acct.Tokens += refund
		s.logger.Info("Refunded orphaned bet", "account", acct.ID, "amount", refund)
	}

	if err := s.save(ctx, acct, round); err != nil {
		return "", nil, err
	}

	return acct.ID, &protocol.Response{
		Status:   protocol.StatusSuccess,
		Message:  "User and game session initialized.",
		Hint:     protocol.HintSessionInitialized,
		ClientID: acct.ClientID,
		Tokens:   acct.Tokens,
		State:    round.View(game.OpInitializeSession),
	}, nil
}

func (s *Service) resolve(ctx context.Context, accountID, clientID string) (*store.Account, error) {
	if accountID != "" {
		acct, err := s.store.Account(ctx, accountID)
		if err == nil {
			return acct, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("load session account: %w", err)
		}
	}

	acct, err := s.store.AccountByClientID(ctx, clientID)
	if err == nil {
		return acct, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load client account: %w", err)
	}

	state, err := json.Marshal(game.New(s.roundOpts()...))
	if err != nil {
		return nil, fmt.Errorf("encode new round: %w", err)
	}
	acct = &store.Account{
		ID:           s.ids.New(),
		ClientID:     clientID,
		Tokens:       s.rules.StartingTokens,
		State:        state,
		LastActivity: s.clock.Now(),
	}
	err = s.store.CreateAccount(ctx, acct)
	if errors.Is(err, store.ErrConflict) {
		// Another request created the same client concurrently.
		return s.store.AccountByClientID(ctx, clientID)
	}
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	s.logger.Info("Created account", "account", acct.ID, "client", clientID)
	return acct, nil
}

// Do runs one operation for the account. On a client error it returns both
// the error and a response carrying the round as it was before the request.
func (s *Service) Do(ctx context.Context, accountID string, req protocol.Request) (*protocol.Response, error) {
	h, ok := handlers[req.Op]
	if !ok && req.Op != game.OpForceRestart {
		return protocol.Error(protocol.HintClientError, ErrUnknownOperation.Message), ErrUnknownOperation
	}
	if accountID == "" {
		return nil, ErrNoSession
	}

	unlock := s.locks.Lock(accountID)
	defer unlock()

	acct, err := s.store.Account(ctx, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}

	logger := s.logger.With("account", accountID, "op", req.Op)

	if req.Op == game.OpForceRestart {
		return s.forceRestart(ctx, acct)
	}
	if len(acct.State) == 0 {
		resp := protocol.Error(protocol.HintMissingState, ErrMissingState.Message)
		resp.Tokens = acct.Tokens
		return resp, ErrMissingState
	}

	round, err := game.Restore(acct.State, s.roundOpts()...)
	if err != nil {
		return nil, fmt.Errorf("restore round for %s: %w", accountID, err)
	}

	if req.IdempotencyKey != "" && req.IdempotencyKey == acct.IdempotencyKey {
		logger.Debug("Replayed request", "key", req.IdempotencyKey)
		return &protocol.Response{
			Status:     protocol.StatusSuccess,
			Idempotent: true,
			Tokens:     acct.Tokens,
			State:      round.View(req.Op),
		}, nil
	}

	before := acct.Tokens
	t := &turn{round: round, account: acct, req: req, rules: s.rules}
	result, err := h(t)
	if err != nil {
		if !IsClientError(err) {
			return nil, fmt.Errorf("%s: %w", req.Op, err)
		}
		logger.Debug("Rejected operation", "reason", err)
		// The projection shows the stored round, not the partly applied one.
		unchanged, rerr := game.Restore(acct.State, s.roundOpts()...)
		if rerr != nil {
			return nil, fmt.Errorf("restore round for %s: %w", accountID, rerr)
		}
		return &protocol.Response{
			Status:  protocol.StatusError,
			Message: err.Error(),
			Hint:    protocol.HintClientError,
			Tokens:  before,
			State:   unchanged.View(req.Op),
		}, err
	}

	switch {
	case req.Op == game.OpClear:
		acct.IdempotencyKey = ""
	case req.IdempotencyKey != "":
		acct.IdempotencyKey = req.IdempotencyKey
	}
	// Some projections record that they were sent, so build it before saving.
	view := round.View(req.Op)
	if err := s.save(ctx, acct, round); err != nil {
		return nil, err
	}
	logger.Debug("Applied operation", "tokens", acct.Tokens, "phase", round.Phase())

	return &protocol.Response{
		Status:       protocol.StatusSuccess,
		Message:      result.message,
		Hint:         result.hint,
		Tokens:       acct.Tokens,
		DoubleAmount: t.double,
		State:        view,
	}, nil
}

// forceRestart replaces the stored round without reading it, so an account
// whose state cannot be restored can still be recovered.
func (s *Service) forceRestart(ctx context.Context, acct *store.Account) (*protocol.Response, error) {
	round := game.New(s.roundOpts()...)
	round.Restart()
	acct.IdempotencyKey = ""
	if err := s.save(ctx, acct, round); err != nil {
		return nil, err
	}
	s.logger.Info("Force restarted round", "account", acct.ID)
	return &protocol.Response{
		Status: protocol.StatusSuccess,
		Hint:   protocol.HintForceRestart,
		Tokens: acct.Tokens,
		State:  round.View(game.OpForceRestart),
	}, nil
}

func (s *Service) save(ctx context.Context, acct *store.Account, round *game.Round) error {
	state, err := json.Marshal(round)
	if err != nil {
		return fmt.Errorf("encode round: %w", err)
	}
	acct.State = state
	acct.LastActivity = s.clock.Now()
	if err := s.store.SaveAccount(ctx, acct); err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}
