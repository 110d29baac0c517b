package game

import "github.com/lox/blackjack/internal/deck"

// MaskedDealer is the dealer's hand with the hole card face down. Its total
// counts the up-card only.
type MaskedDealer struct {
	Cards     []deck.Card `json:"cards"`
	Total     int         `json:"total"`
	State     HandState   `json:"state"`
	CanInsure bool        `json:"can_insure"`
	Natural   Natural     `json:"natural"`
}

// Dealer is the dealer's full hand.
type Dealer struct {
	Cards   []deck.Card `json:"cards"`
	Total   int         `json:"total"`
	State   HandState   `json:"state"`
	Natural Natural     `json:"natural"`
}

// DealerMasked derives the masked dealer view. The natural is exposed only
// when it already ended the player's turn.
func (r *Round) DealerMasked() MaskedDealer {
	v := MaskedDealer{Cards: []deck.Card{}}
	up, ok := r.DealerUpcard()
	if !ok {
		return v
	}
	v.Cards = []deck.Card{deck.Hidden, up}
	v.Total = Value([]deck.Card{up})
	v.State = Classify(v.Total, DealerSide, NaturalNone, 1)
	v.CanInsure = up.IsAce()
	if r.natural.EndsTurn() {
		v.Natural = r.natural
	}
	return v
}

// DealerUnmasked derives the full dealer view.
func (r *Round) DealerUnmasked() Dealer {
	total := Value(r.dealer)
	return Dealer{
		Cards:   append([]deck.Card{}, r.dealer...),
		Total:   total,
		State:   Classify(total, DealerSide, r.natural, len(r.dealer)),
		Natural: r.natural,
	}
}

// View is a client projection. Fields outside the projection chosen for an
// operation are nil and left out of the JSON.
type View struct {
	Player         *Hand         `json:"player,omitzero"`
	DealerMasked   *MaskedDealer `json:"dealer_masked,omitzero"`
	DealerUnmasked *Dealer       `json:"dealer_unmasked,omitzero"`
	Natural        *Natural      `json:"natural,omitzero"`
	Winner         *Winner       `json:"winner,omitzero"`
	Aces           *bool         `json:"aces,omitzero"`
	Players        []Hand        `json:"players,omitzero"`
	SplitReq       *int          `json:"split_req,omitzero"`
	DeckLen        int           `json:"deck_len"`
	Bet            *int          `json:"bet,omitzero"`
	BetList        []int         `json:"bet_list,omitzero"`
	IsRoundActive  bool          `json:"is_round_active"`
	HasRewards     *bool         `json:"has_rewards,omitzero"`
	Phase          Phase         `json:"target_phase"`
	PrePhase       *Phase        `json:"pre_phase,omitzero"`
}

func ptr[T any](v T) *T { return &v }

// dealerRevealed reports whether insurance exposed a dealer natural.
func (r *Round) dealerRevealed() bool {
	return r.natural == NaturalDealerBlackjack && !r.active && len(r.dealer) > 0
}

// dealerSettled reports whether the hole card may be sent: the round is over,
// the active hand stood, or every split hand has finished acting.
func (r *Round) dealerSettled() bool {
	return !r.active || r.phase == PhaseMainStand || r.phase == PhaseSplitFinish
}

func (r *Round) hasSplitState() bool {
	return r.arena.pooledCount() > 0 || r.splitReq > 0
}

// View returns the projection that belongs to op. Projections that carry
// the full dealer hand fall back to the masked hand while the round is
// undecided. The projection for OpMarkResolved reports the dealer total as 0
// the first time it unmasks the dealer, and records that it has done so, so
// callers persisting the round must build the view first.
func (r *Round) View(op Operation) *View {
	v := r.project(op)
	if v.DealerUnmasked != nil && !r.dealerSettled() {
		v.DealerUnmasked = nil
		v.DealerMasked = ptr(r.DealerMasked())
	}
	return v
}

func (r *Round) project(op Operation) *View {
	switch op {
	case OpBet, OpRetakeBet, OpSetRestart, OpForceRestart:
		return r.betsView()
	case OpHandleStart:
		if r.phase == PhaseShuffling {
			return r.betsView()
		}
		return r.dealView()
	case OpCreateDeck:
		v := r.baseView()
		v.Bet = ptr(r.bet)
		return v
	case OpStartGame:
		v := r.dealView()
		v.PrePhase = ptr(r.PrePhase())
		return v
	case OpHit:
		return r.dealView()
	case OpRecover:
		if r.hasSplitState() {
			return r.splitView()
		}
		return r.dealView()
	case OpInsurance:
		v := r.baseView()
		v.Player = ptr(r.Player())
		v.Natural = ptr(r.natural)
		v.Bet = ptr(r.bet)
		if r.dealerRevealed() {
			v.DealerUnmasked = ptr(r.DealerUnmasked())
		} else {
			v.DealerMasked = ptr(r.DealerMasked())
		}
		return v
	case OpDouble:
		v := r.baseView()
		v.Player = ptr(r.Player())
		return v
	case OpRewards, OpStandAndRewards:
		v := r.baseView()
		v.Player = ptr(r.Player())
		v.DealerUnmasked = ptr(r.DealerUnmasked())
		v.Bet = ptr(r.bet)
		v.Winner = ptr(r.winner)
		return v
	case OpSplit, OpActivateNext, OpSplitHit, OpSplitDouble:
		return r.splitView()
	case OpMarkResolved:
		return r.markResolvedView()
	case OpDrainPending:
		v := r.poolView()
		v.DealerUnmasked = ptr(r.DealerUnmasked())
		v.Aces = ptr(r.aces)
		return v
	case OpSplitStandAndRewards:
		v := r.poolView()
		v.DealerUnmasked = ptr(r.DealerUnmasked())
		v.Winner = ptr(r.winner)
		return v
	case OpClear:
		v := r.baseView()
		v.Bet = ptr(r.bet)
		v.BetList = r.BetList()
		v.PrePhase = ptr(PhaseNone)
		return v
	default:
		v := r.baseView()
		v.PrePhase = ptr(PhaseNone)
		return v
	}
}

func (r *Round) baseView() *View {
	return &View{
		DeckLen:       r.DeckLen(),
		IsRoundActive: r.active,
		Phase:         r.Phase(),
	}
}

func (r *Round) betsView() *View {
	v := r.baseView()
	v.Bet = ptr(r.bet)
	v.BetList = r.BetList()
	v.PrePhase = ptr(r.PrePhase())
	return v
}

func (r *Round) dealView() *View {
	v := r.baseView()
	v.Player = ptr(r.Player())
	v.DealerMasked = ptr(r.DealerMasked())
	v.Bet = ptr(r.bet)
	return v
}

// poolView carries the fields every split projection shares.
func (r *Round) poolView() *View {
	v := r.baseView()
	v.Player = ptr(r.Player())
	v.Players = r.Pending()
	v.SplitReq = ptr(r.splitReq)
	v.Bet = ptr(r.bet)
	return v
}

func (r *Round) splitView() *View {
	v := r.poolView()
	v.DealerMasked = ptr(r.DealerMasked())
	v.Aces = ptr(r.aces)
	v.HasRewards = ptr(r.rewarded)
	return v
}

func (r *Round) markResolvedView() *View {
	v := r.poolView()
	v.Aces = ptr(r.aces)
	if r.handCounter < 2 || r.phase != PhaseSplitFinish {
		v.DealerMasked = ptr(r.DealerMasked())
		return v
	}
	dealer := r.DealerUnmasked()
	if !r.unmaskedTotalSent {
		dealer.Total = 0
		r.unmaskedTotalSent = true
	}
	v.DealerUnmasked = &dealer
	return v
}
