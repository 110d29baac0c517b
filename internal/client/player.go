package client

import (
	"context"

	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/id"
	"github.com/lox/blackjack/internal/protocol"
)

// Player turns table decisions into operation sequences: it reshuffles
// when the shoe runs low, settles finished hands and walks split hands
// through resolution.
type Player struct {
	table     Table
	last      *protocol.Response
	splitting bool
}

// NewPlayer returns a player seated at table.
func NewPlayer(table Table) *Player {
	return &Player{table: table}
}

// Last returns the most recent successful response.
func (p *Player) Last() *protocol.Response { return p.last }

// Tokens returns the balance reported by the last response.
func (p *Player) Tokens() int {
	if p.last == nil {
		return 0
	}
	return p.last.Tokens
}

// State returns the projection carried by the last response.
func (p *Player) State() *game.View {
	if p.last == nil {
		return nil
	}
	return p.last.State
}

// Splitting reports whether the current round has split hands.
func (p *Player) Splitting() bool { return p.splitting }

// Start initializes the session and, when a round is already live,
// recovers its full projection.
func (p *Player) Start(ctx context.Context) (*protocol.Response, error) {
	resp, err := p.table.InitializeSession(ctx)
	if err != nil {
		return nil, err
	}
	p.last = resp
	if resp.State == nil || !resp.State.IsRoundActive {
		return resp, nil
	}
	resp, err = p.do(ctx, game.OpRecover, 0)
	if err != nil {
		return nil, err
	}
	p.splitting = len(resp.State.Players) > 0 || (resp.State.SplitReq != nil && *resp.State.SplitReq > 0)
	return resp, nil
}

func (p *Player) do(ctx context.Context, op game.Operation, bet int) (*protocol.Response, error) {
	resp, err := p.table.Do(ctx, protocol.Request{Op: op, Bet: bet, IdempotencyKey: id.New()})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return resp, &RejectedError{Response: resp}
	}
	p.last = resp
	return resp, nil
}

func (p *Player) phase() game.Phase {
	if s := p.State(); s != nil {
		return s.Phase
	}
	return game.PhaseNone
}

func (p *Player) live() bool {
	s := p.State()
	return s != nil && s.IsRoundActive
}

// Bet adds amount to the bet on the table.
func (p *Player) Bet(ctx context.Context, amount int) (*protocol.Response, error) {
	return p.do(ctx, game.OpBet, amount)
}

// Retake takes back the most recent bet increment.
func (p *Player) Retake(ctx context.Context) (*protocol.Response, error) {
	return p.do(ctx, game.OpRetakeBet, 0)
}

// Deal starts a round, building a fresh shoe first when the current one is
// below the reshuffle threshold. A natural that leaves the player nothing
// to decide is settled at once.
func (p *Player) Deal(ctx context.Context) (*protocol.Response, error) {
	p.splitting = false
	resp, err := p.do(ctx, game.OpHandleStart, 0)
	if err != nil {
		return resp, err
	}
	if resp.State.Phase == game.PhaseShuffling {
		if _, err := p.do(ctx, game.OpCreateDeck, 0); err != nil {
			return nil, err
		}
		if resp, err = p.do(ctx, game.OpStartGame, 0); err != nil {
			return resp, err
		}
	}
	if resp.State.Phase == game.PhaseMainStand && !p.CanInsure() {
		return p.do(ctx, game.OpRewards, 0)
	}
	return resp, nil
}

// CanInsure reports whether the dealer shows an ace in a live round.
func (p *Player) CanInsure() bool {
	s := p.State()
	return s != nil && s.IsRoundActive && !p.splitting &&
		s.DealerMasked != nil && s.DealerMasked.CanInsure
}

// Insure buys insurance against a dealer natural.
func (p *Player) Insure(ctx context.Context) (*protocol.Response, error) {
	resp, err := p.do(ctx, game.OpInsurance, 0)
	if err != nil {
		return resp, err
	}
	if resp.State.IsRoundActive && resp.State.Phase == game.PhaseMainStand {
		return p.do(ctx, game.OpRewards, 0)
	}
	return resp, nil
}

// Hit draws a card to the active hand and settles it once it reaches 21.
func (p *Player) Hit(ctx context.Context) (*protocol.Response, error) {
	op := game.OpHit
	if p.splitting {
		op = game.OpSplitHit
	}
	resp, err := p.do(ctx, op, 0)
	if err != nil {
		return resp, err
	}
	if resp.State.Phase == game.PhaseMainStandRewardsTransit {
		return p.finish(ctx)
	}
	return resp, nil
}

// Double doubles the active hand's bet, draws one card and settles it.
func (p *Player) Double(ctx context.Context) (*protocol.Response, error) {
	op := game.OpDouble
	if p.splitting {
		op = game.OpSplitDouble
	}
	if _, err := p.do(ctx, op, 0); err != nil {
		return p.last, err
	}
	return p.finish(ctx)
}

// Stand ends the active hand.
func (p *Player) Stand(ctx context.Context) (*protocol.Response, error) {
	return p.finish(ctx)
}

// Split splits the active pair.
func (p *Player) Split(ctx context.Context) (*protocol.Response, error) {
	resp, err := p.do(ctx, game.OpSplit, 0)
	if err != nil {
		return resp, err
	}
	p.splitting = true
	return resp, nil
}

// finish settles the active hand. Split hands are filed while others still
// wait to act; once none wait, every hand is settled against the dealer.
func (p *Player) finish(ctx context.Context) (*protocol.Response, error) {
	if !p.splitting {
		if p.phase() == game.PhaseMainStand {
			return p.do(ctx, game.OpRewards, 0)
		}
		return p.do(ctx, game.OpStandAndRewards, 0)
	}

	resp, err := p.do(ctx, game.OpMarkResolved, 0)
	if err != nil {
		return resp, err
	}
	if resp.State.Phase != game.PhaseSplitFinish {
		return p.do(ctx, game.OpActivateNext, 0)
	}

	resp, err = p.do(ctx, game.OpSplitStandAndRewards, 0)
	for err == nil && resp.State.IsRoundActive {
		if _, err = p.do(ctx, game.OpDrainPending, 0); err != nil {
			break
		}
		resp, err = p.do(ctx, game.OpSplitStandAndRewards, 0)
	}
	if err == nil {
		p.splitting = false
	}
	return resp, err
}

// Clear abandons the round, returning any bet still on the table.
func (p *Player) Clear(ctx context.Context) (*protocol.Response, error) {
	p.splitting = false
	return p.do(ctx, game.OpClear, 0)
}

// Restart resets the bankroll and discards the round.
func (p *Player) Restart(ctx context.Context) (*protocol.Response, error) {
	p.splitting = false
	return p.do(ctx, game.OpSetRestart, 0)
}

// ForceRestart replaces the stored round without reading it.
func (p *Player) ForceRestart(ctx context.Context) (*protocol.Response, error) {
	p.splitting = false
	return p.do(ctx, game.OpForceRestart, 0)
}

// Live reports whether a round is in progress.
func (p *Player) Live() bool { return p.live() }
