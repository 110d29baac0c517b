package tui

import (
	"fmt"
	"strings"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
)

// tableView accumulates the projections returned by successive operations,
// since each one carries only the fields its operation touched.
type tableView struct {
	player       *game.Hand
	dealer       []deck.Card
	dealerTotal  int
	dealerMasked bool
	pool         []game.Hand
	bet          int
	winner       *game.Winner
	phase        game.Phase
	deckLen      int
	active       bool
}

func (t *tableView) apply(v *game.View) {
	if v == nil {
		return
	}
	if !v.IsRoundActive && (v.Phase == game.PhaseBetting || v.Phase == game.PhaseRestartGame) {
		*t = tableView{}
	}
	if v.Player != nil {
		h := *v.Player
		t.player = &h
	}
	switch {
	case v.DealerUnmasked != nil:
		t.dealer = v.DealerUnmasked.Cards
		t.dealerTotal = v.DealerUnmasked.Total
		t.dealerMasked = false
	case v.DealerMasked != nil:
		t.dealer = v.DealerMasked.Cards
		t.dealerTotal = v.DealerMasked.Total
		t.dealerMasked = true
	}
	if v.Players != nil || v.SplitReq != nil {
		t.pool = v.Players
	}
	if v.Bet != nil {
		t.bet = *v.Bet
	}
	if v.Winner != nil {
		w := *v.Winner
		t.winner = &w
	} else if v.Phase == game.PhaseMainTurn {
		t.winner = nil
	}
	t.phase = v.Phase
	t.deckLen = v.DeckLen
	t.active = v.IsRoundActive
}

func formatCards(cards []deck.Card) string {
	if len(cards) == 0 {
		return "[]"
	}
	formatted := make([]string, 0, len(cards))
	for _, c := range cards {
		switch {
		case c.IsHidden():
			formatted = append(formatted, HiddenCardStyle.Render(c.String()))
		case c.IsRed():
			formatted = append(formatted, RedCardStyle.Render(c.String()))
		default:
			formatted = append(formatted, BlackCardStyle.Render(c.String()))
		}
	}
	return "[" + strings.Join(formatted, " ") + "]"
}

func formatHand(h game.Hand) string {
	line := fmt.Sprintf("%s %s  %d (%s)", h.ID, formatCards(h.Cards), h.Total, h.State)
	if h.Bet > 0 {
		line += fmt.Sprintf("  bet %d", h.Bet)
	}
	if h.Resolved {
		line += "  done"
	}
	return line
}
