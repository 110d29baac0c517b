package game

import (
	"testing"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/randutil"
	"github.com/stretchr/testify/require"
)

// stackedShoe puts cards (compact notation, draw order) at the front of a
// full-size shoe. The deal order is player, hole, player, up-card.
func stackedShoe(cards string) *deck.Shoe {
	front := deck.MustParseCards(cards)
	filler := deck.BuildShoe(randutil.New(1), deck.DecksPerShoe).Cards()
	all := append(front, filler...)
	return deck.NewShoe(all[:max(len(front), deck.ShoeSize)])
}

// newStacked returns a round holding a stacked shoe and no bet.
func newStacked(t *testing.T, cards string) *Round {
	t.Helper()
	r := New(WithShoeBuilder(func() *deck.Shoe { return stackedShoe(cards) }))
	require.NoError(t, r.BuildShoe())
	return r
}

// dealStacked bets and deals from a stacked shoe.
func dealStacked(t *testing.T, cards string, bet int) *Round {
	t.Helper()
	r := newStacked(t, cards)
	require.NoError(t, r.PlaceBet(bet))
	require.NoError(t, r.StartRound())
	return r
}

func cards(s string) []deck.Card {
	return deck.MustParseCards(s)
}
