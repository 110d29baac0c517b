package game

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/lox/blackjack/internal/deck"
)

// persisted is the full-fidelity stored form of a Round.
type persisted struct {
	Deck              []deck.Card     `json:"deck"`
	Player            Hand            `json:"player"`
	DealerMasked      MaskedDealer    `json:"dealer_masked"`
	DealerUnmasked    Dealer          `json:"dealer_unmasked"`
	SplitPlayer       *Hand           `json:"split_player"`
	Aces              bool            `json:"aces"`
	Natural           Natural         `json:"natural"`
	Winner            Winner          `json:"winner"`
	HandCounter       int             `json:"hand_counter"`
	Players           []Hand          `json:"players"`
	PlayersIndex      map[string]bool `json:"players_index"`
	SplitReq          int             `json:"split_req"`
	UnmaskedTotalSent bool            `json:"unmasked_total_sent"`
	DeckLen           int             `json:"deck_len"`
	Bet               int             `json:"bet"`
	BetList           []int           `json:"bet_list"`
	IsRoundActive     bool            `json:"is_round_active"`
	HasRewards        bool            `json:"has_rewards"`
	Phase             Phase           `json:"phase"`
	PrePhase          Phase           `json:"pre_phase"`
}

var requiredKeys = []string{
	"deck", "player", "dealer_masked", "dealer_unmasked", "split_player",
	"aces", "natural", "winner", "hand_counter", "players", "players_index",
	"split_req", "unmasked_total_sent", "deck_len", "bet", "bet_list",
	"is_round_active", "has_rewards", "phase", "pre_phase",
}

// MarshalJSON encodes the complete round, hole card and shoe order included.
// The result is for storage only and must never reach a client.
func (r *Round) MarshalJSON() ([]byte, error) {
	p := persisted{
		Deck:              r.shoe.Cards(),
		Player:            r.player.clone(),
		DealerMasked:      r.DealerMasked(),
		DealerUnmasked:    r.DealerUnmasked(),
		Aces:              r.aces,
		Natural:           r.natural,
		Winner:            r.winner,
		HandCounter:       r.handCounter,
		Players:           r.Pending(),
		PlayersIndex:      r.arena.index(),
		SplitReq:          r.splitReq,
		UnmaskedTotalSent: r.unmaskedTotalSent,
		DeckLen:           r.DeckLen(),
		Bet:               r.bet,
		BetList:           r.BetList(),
		IsRoundActive:     r.active,
		HasRewards:        r.rewarded,
		Phase:             r.phase,
		PrePhase:          r.prePhase,
	}
	if p.Deck == nil {
		p.Deck = []deck.Card{}
	}
	if r.snapshot != nil {
		p.SplitPlayer = ptr(r.snapshot.clone())
	}
	return json.Marshal(p)
}

// Restore rebuilds a round from MarshalJSON output. Any missing key or
// inconsistency is reported as ErrCorruptState; nothing is repaired.
func Restore(data []byte, opts ...Option) (*Round, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	for _, k := range requiredKeys {
		if _, ok := keys[k]; !ok {
			return nil, fmt.Errorf("%w: missing %q", ErrCorruptState, k)
		}
	}

	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}

	r := &Round{}
	r.apply(opts)
	r.shoe = deck.NewShoe(p.Deck)
	r.player = normalizeHand(p.Player)
	r.dealer = append([]deck.Card{}, p.DealerUnmasked.Cards...)
	r.aces = p.Aces
	r.natural = p.Natural
	r.winner = p.Winner
	r.handCounter = p.HandCounter
	r.splitReq = p.SplitReq
	r.unmaskedTotalSent = p.UnmaskedTotalSent
	r.bet = p.Bet
	r.betList = append([]int{}, p.BetList...)
	r.active = p.IsRoundActive
	r.rewarded = p.HasRewards
	r.phase = p.Phase
	r.prePhase = p.PrePhase
	if p.SplitPlayer != nil {
		r.snapshot = ptr(normalizeHand(*p.SplitPlayer))
	}

	r.arena = newArena()
	for id, resolved := range p.PlayersIndex {
		r.arena.setResolved(id, resolved)
	}
	for _, h := range p.Players {
		resolved, ok := p.PlayersIndex[h.ID]
		if !ok || resolved != h.Resolved {
			return nil, fmt.Errorf("%w: pooled hand %s out of step with index", ErrCorruptState, h.ID)
		}
		r.arena.file(normalizeHand(h))
	}

	if err := r.verify(p); err != nil {
		return nil, err
	}
	return r, nil
}

func normalizeHand(h Hand) Hand {
	if h.Cards == nil {
		h.Cards = []deck.Card{}
	}
	return h
}

func (r *Round) verify(p persisted) error {
	corrupt := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{ErrCorruptState}, args...)...)
	}

	hands := append([]Hand{r.player}, p.Players...)
	if r.snapshot != nil {
		hands = append(hands, *r.snapshot)
	}
	for _, h := range hands {
		if h.Total != Value(h.Cards) {
			return corrupt("hand %q total %d does not match its cards", h.ID, h.Total)
		}
	}

	sum := 0
	for _, b := range r.betList {
		sum += b
	}
	if sum != r.bet {
		return corrupt("bet %d does not match bet list total %d", r.bet, sum)
	}
	if r.splitReq < 0 || r.handCounter < 0 {
		return corrupt("negative counters")
	}
	if len(p.PlayersIndex) > r.handCounter {
		return corrupt("index holds %d ids but only %d were issued", len(p.PlayersIndex), r.handCounter)
	}
	if p.DeckLen != r.DeckLen() {
		return corrupt("deck_len %d does not match deck", p.DeckLen)
	}
	if !reflect.DeepEqual(p.DealerMasked, r.DealerMasked()) {
		return corrupt("masked dealer view out of step with dealer cards")
	}
	if !reflect.DeepEqual(p.DealerUnmasked, r.DealerUnmasked()) {
		return corrupt("dealer view out of step with dealer cards")
	}
	return nil
}
