package client

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/randutil"
	"github.com/lox/blackjack/internal/service"
	"github.com/lox/blackjack/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stackedService(cards string) *service.Service {
	return service.New(memory.New(),
		service.WithLogger(log.New(io.Discard)),
		service.WithRoundOptions(func() []game.Option {
			return []game.Option{game.WithShoeBuilder(func() *deck.Shoe {
				front := deck.MustParseCards(cards)
				filler := deck.BuildShoe(randutil.New(1), deck.DecksPerShoe).Cards()
				return deck.NewShoe(append(front, filler...)[:deck.ShoeSize])
			})}
		}),
	)
}

func seat(t *testing.T, cards string) (*Player, *Local) {
	t.Helper()
	table := NewLocal(stackedService(cards), "")
	p := NewPlayer(table)
	resp, err := p.Start(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1000, resp.Tokens)
	return p, table
}

func TestPlayerPlainRound(t *testing.T) {
	ctx := context.Background()
	p, _ := seat(t, "ThTcQd7s")

	_, err := p.Bet(ctx, 10)
	require.NoError(t, err)
	resp, err := p.Deal(ctx)
	require.NoError(t, err)
	assert.True(t, p.Live())
	assert.Equal(t, game.PhaseMainTurn, resp.State.Phase)
	assert.Equal(t, 20, resp.State.Player.Total)

	resp, err = p.Stand(ctx)
	require.NoError(t, err)
	assert.False(t, p.Live())
	assert.Equal(t, 1010, p.Tokens())
	require.NotNil(t, resp.State.Winner)
	assert.Equal(t, game.WinnerPlayerWon, *resp.State.Winner)

	// The shoe still holds enough cards, so the next deal skips the rebuild.
	_, err = p.Bet(ctx, 10)
	require.NoError(t, err)
	resp, err = p.Deal(ctx)
	require.NoError(t, err)
	assert.Equal(t, 96, resp.State.DeckLen)
}

func TestPlayerNaturalSettlesAtDeal(t *testing.T) {
	ctx := context.Background()
	p, _ := seat(t, "AhTcKd7s")

	_, err := p.Bet(ctx, 10)
	require.NoError(t, err)
	_, err = p.Deal(ctx)
	require.NoError(t, err)
	assert.False(t, p.Live())
	assert.Equal(t, 1015, p.Tokens())
}

func TestPlayerBustSettles(t *testing.T) {
	ctx := context.Background()
	p, _ := seat(t, "Th9cQd7s5h")

	_, err := p.Bet(ctx, 10)
	require.NoError(t, err)
	_, err = p.Deal(ctx)
	require.NoError(t, err)
	_, err = p.Hit(ctx)
	require.NoError(t, err)
	assert.False(t, p.Live())
	assert.Equal(t, 990, p.Tokens())
}

func TestPlayerDouble(t *testing.T) {
	ctx := context.Background()
	p, _ := seat(t, "Kh9c5d7s6cTh")

	_, err := p.Bet(ctx, 10)
	require.NoError(t, err)
	_, err = p.Deal(ctx)
	require.NoError(t, err)
	_, err = p.Double(ctx)
	require.NoError(t, err)
	assert.False(t, p.Live())
	// 21 against a dealer bust pays the doubled stake.
	assert.Equal(t, 1020, p.Tokens())
}

func TestPlayerSplitRound(t *testing.T) {
	ctx := context.Background()
	p, _ := seat(t, "8h9c8d7s3cKdTc")

	_, err := p.Bet(ctx, 10)
	require.NoError(t, err)
	_, err = p.Deal(ctx)
	require.NoError(t, err)

	resp, err := p.Split(ctx)
	require.NoError(t, err)
	assert.True(t, p.Splitting())
	assert.Equal(t, 980, resp.Tokens)
	assert.Equal(t, 11, resp.State.Player.Total)

	resp, err = p.Stand(ctx)
	require.NoError(t, err)
	assert.True(t, p.Live())
	assert.Equal(t, "H-002", resp.State.Player.ID)
	assert.Equal(t, 18, resp.State.Player.Total)

	resp, err = p.Stand(ctx)
	require.NoError(t, err)
	assert.False(t, p.Live())
	assert.False(t, p.Splitting())
	assert.Equal(t, 1020, resp.Tokens)
}

func TestPlayerInsurance(t *testing.T) {
	tests := []struct {
		name   string
		cards  string
		insure bool
		live   bool
		tokens int
	}{
		{"insured dealer natural", "9hKc8dAs", true, false, 1000},
		{"uninsured dealer natural", "9hKc8dAs", false, false, 990},
		{"insured without natural", "9h5c8dAs", true, true, 985},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			p, _ := seat(t, tt.cards)
			_, err := p.Bet(ctx, 10)
			require.NoError(t, err)
			_, err = p.Deal(ctx)
			require.NoError(t, err)
			require.True(t, p.CanInsure())

			if tt.insure {
				_, err = p.Insure(ctx)
			} else {
				_, err = p.Stand(ctx)
			}
			require.NoError(t, err)
			assert.Equal(t, tt.live, p.Live())
			assert.Equal(t, tt.tokens, p.Tokens())
		})
	}
}

func TestPlayerRejection(t *testing.T) {
	ctx := context.Background()
	p, _ := seat(t, "ThTcQd7s")

	resp, err := p.Bet(ctx, 5000)
	var rejected *RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, service.ErrInsufficientTokens.Message, rejected.Error())
	assert.False(t, resp.OK())
	assert.Equal(t, 1000, p.Tokens())
}

func TestPlayerStartRecoversLiveRound(t *testing.T) {
	ctx := context.Background()
	p, table := seat(t, "8h9c8d7s3cKdTc")
	_, err := p.Bet(ctx, 10)
	require.NoError(t, err)
	_, err = p.Deal(ctx)
	require.NoError(t, err)
	_, err = p.Split(ctx)
	require.NoError(t, err)

	again := NewPlayer(table)
	resp, err := again.Start(ctx)
	require.NoError(t, err)
	assert.True(t, again.Live())
	assert.True(t, again.Splitting())
	assert.Equal(t, 980, resp.Tokens)
	assert.Len(t, resp.State.Players, 1)
}

func TestPlayerClearAndRestart(t *testing.T) {
	ctx := context.Background()
	p, _ := seat(t, "ThTcQd7s")

	_, err := p.Bet(ctx, 50)
	require.NoError(t, err)
	_, err = p.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1000, p.Tokens())

	_, err = p.Bet(ctx, 50)
	require.NoError(t, err)
	_, err = p.Retake(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1000, p.Tokens())

	resp, err := p.Restart(ctx)
	require.NoError(t, err)
	assert.Equal(t, game.PhaseRestartGame, resp.State.Phase)

	resp, err = p.ForceRestart(ctx)
	require.NoError(t, err)
	assert.Equal(t, game.PhaseRestartGame, resp.State.Phase)
}
