package simulator

import (
	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
)

// Action is a player decision on the active hand.
type Action int

const (
	Stand Action = iota
	Hit
	Double
	Split
)

func (a Action) String() string {
	switch a {
	case Hit:
		return "hit"
	case Double:
		return "double"
	case Split:
		return "split"
	default:
		return "stand"
	}
}

// Policy decides how to play a hand against the dealer's up-card.
type Policy interface {
	Decide(hand game.Hand, up deck.Card, canSplit bool) Action
}

// BasicStrategy is the standard multi-deck strategy for a dealer standing
// on all 17s with doubling after splits allowed. It never takes insurance.
type BasicStrategy struct{}

// Decide implements Policy.
func (BasicStrategy) Decide(hand game.Hand, up deck.Card, canSplit bool) Action {
	dealer := upValue(up)
	canDouble := len(hand.Cards) == 2

	if canSplit && len(hand.Cards) == 2 && splitPair(hand.Cards[0].Rank, dealer) {
		return Split
	}

	total := hand.Total
	var action Action
	if soft(hand.Cards) {
		action = softTotal(total, dealer)
	} else {
		action = hardTotal(total, dealer)
	}
	if action == Double && !canDouble {
		// Soft 18 and above stand when doubling is not allowed.
		if soft(hand.Cards) && total >= 18 {
			return Stand
		}
		return Hit
	}
	return action
}

// upValue counts an ace as 11.
func upValue(c deck.Card) int {
	if c.IsAce() {
		return 11
	}
	return c.Rank.Points()
}

// soft reports whether an ace in cards is counted as 11.
func soft(cards []deck.Card) bool {
	hard, aces := 0, false
	for _, c := range cards {
		hard += c.Rank.Points()
		if c.IsAce() {
			aces = true
		}
	}
	return aces && hard+10 <= game.Blackjack
}

func between(v, lo, hi int) bool { return v >= lo && v <= hi }

func splitPair(rank deck.Rank, dealer int) bool {
	switch {
	case rank == deck.Ace, rank == deck.Eight:
		return true
	case rank.IsTenValue(), rank == deck.Five:
		return false
	case rank == deck.Nine:
		return between(dealer, 2, 9) && dealer != 7
	case rank == deck.Seven, rank == deck.Three, rank == deck.Two:
		return between(dealer, 2, 7)
	case rank == deck.Six:
		return between(dealer, 2, 6)
	case rank == deck.Four:
		return between(dealer, 5, 6)
	}
	return false
}

func softTotal(total, dealer int) Action {
	switch {
	case total >= 20:
		return Stand
	case total == 19:
		if dealer == 6 {
			return Double
		}
		return Stand
	case total == 18:
		switch {
		case between(dealer, 2, 6):
			return Double
		case between(dealer, 7, 8):
			return Stand
		}
		return Hit
	case total == 17:
		if between(dealer, 3, 6) {
			return Double
		}
	case total >= 15:
		if between(dealer, 4, 6) {
			return Double
		}
	default:
		if between(dealer, 5, 6) {
			return Double
		}
	}
	return Hit
}

func hardTotal(total, dealer int) Action {
	switch {
	case total >= 17:
		return Stand
	case total >= 13:
		if between(dealer, 2, 6) {
			return Stand
		}
	case total == 12:
		if between(dealer, 4, 6) {
			return Stand
		}
	case total == 11:
		if dealer != 11 {
			return Double
		}
	case total == 10:
		if between(dealer, 2, 9) {
			return Double
		}
	case total == 9:
		if between(dealer, 3, 6) {
			return Double
		}
	}
	return Hit
}
