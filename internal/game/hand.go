package game

import (
	"fmt"

	"github.com/lox/blackjack/internal/deck"
)

const (
	// Blackjack is the best possible total.
	Blackjack = 21
	// DealerStandsOn is the total at which the dealer stops drawing.
	DealerStandsOn = 17
)

// Hand is one player hand. The active hand and every split-off hand share it.
type Hand struct {
	ID       string      `json:"id"`
	Cards    []deck.Card `json:"cards"`
	Total    int         `json:"total"`
	State    HandState   `json:"state"`
	CanSplit bool        `json:"can_split"`
	Resolved bool        `json:"resolved"`
	Bet      int         `json:"bet"`
	HitCount int         `json:"hit_count"`
}

func newHand() Hand {
	return Hand{Cards: []deck.Card{}}
}

func (h Hand) clone() Hand {
	h.Cards = append([]deck.Card{}, h.Cards...)
	return h
}

// Value totals cards with non-aces first, then each ace counted as 11 when
// that keeps the running total at or below 21 and as 1 otherwise.
func Value(cards []deck.Card) int {
	total, aces := 0, 0
	for _, c := range cards {
		if c.IsHidden() {
			continue
		}
		if c.IsAce() {
			aces++
			continue
		}
		total += c.Rank.Points()
	}
	for range aces {
		if total+11 <= Blackjack {
			total += 11
		} else {
			total++
		}
	}
	return total
}

// Classify maps a total to a hand state. A two-card hand on the side the
// frozen natural favours is a blackjack.
func Classify(total int, side Side, natural Natural, cardCount int) HandState {
	if cardCount == 0 {
		return HandNone
	}
	if cardCount == 2 && natural.favours(side) {
		return HandBlackjack
	}
	switch {
	case total > Blackjack:
		return HandBust
	case total == Blackjack:
		return HandTwentyOne
	default:
		return HandUnder21
	}
}

func isNatural(cards []deck.Card) bool {
	return len(cards) == 2 && Value(cards) == Blackjack
}

// NaturalOutcome compares the opening two-card hands.
func NaturalOutcome(player, dealer []deck.Card) Natural {
	p, d := isNatural(player), isNatural(dealer)
	switch {
	case p && d:
		return NaturalPush
	case p:
		return NaturalPlayerBlackjack
	case d:
		return NaturalDealerBlackjack
	default:
		return NaturalNone
	}
}

// CanSplit reports whether two cards form a splittable pair: same rank, or
// two ten-value cards.
func CanSplit(cards []deck.Card) bool {
	if len(cards) != 2 {
		return false
	}
	a, b := cards[0].Rank, cards[1].Rank
	return a == b || (a.IsTenValue() && b.IsTenValue())
}

// DecideWinner settles a standing player total against the dealer's.
func DecideWinner(player, dealer int) Winner {
	switch {
	case player > Blackjack:
		return WinnerPlayerLost
	case dealer > Blackjack:
		return WinnerPlayerWon
	case player == dealer:
		return WinnerPush
	case player > dealer:
		return WinnerPlayerWon
	default:
		return WinnerDealerWon
	}
}

func handID(n int) string {
	return fmt.Sprintf("H-%03d", n)
}
