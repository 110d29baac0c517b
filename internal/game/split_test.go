package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	r := dealStacked(t, "8h9c8d7s3cKd", 10)
	require.NoError(t, r.Split())

	p := r.Player()
	assert.Equal(t, "H-001", p.ID)
	assert.Equal(t, cards("8h3c"), p.Cards)
	assert.Equal(t, 11, p.Total)
	assert.Equal(t, 10, p.Bet)
	assert.False(t, p.Resolved)

	pending := r.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "H-002", pending[0].ID)
	assert.Equal(t, cards("8d"), pending[0].Cards)
	assert.Equal(t, 10, pending[0].Bet)
	assert.False(t, pending[0].Resolved)

	assert.Equal(t, 1, r.SplitRequests())
	assert.Equal(t, PhaseMainTurn, r.Phase())
	assert.Equal(t, map[string]bool{"H-001": false, "H-002": false}, r.arena.index())
}

func TestSplitNotEligible(t *testing.T) {
	r := dealStacked(t, "Kh9c8d7s", 10)
	before := r.CardsRemaining()

	assert.ErrorIs(t, r.Split(), ErrNotSplittable)
	assert.Equal(t, before, r.CardsRemaining())
	assert.Empty(t, r.Pending())
	assert.Equal(t, 0, r.SplitRequests())
}

func TestSplitAcesCannotResplit(t *testing.T) {
	r := dealStacked(t, "Ah9cAd7sAc", 10)
	require.True(t, r.Aces())
	require.True(t, r.Player().CanSplit)

	require.NoError(t, r.Split())
	p := r.Player()
	assert.Equal(t, cards("AhAc"), p.Cards)
	assert.False(t, p.CanSplit)
	assert.ErrorIs(t, r.Split(), ErrNotSplittable)
}

func TestSplitPoolLimit(t *testing.T) {
	r := dealStacked(t, "8h9c8d7s8c8s8h8d", 10)
	for range 4 {
		require.NoError(t, r.Split())
	}
	assert.Len(t, r.Pending(), 4)
	assert.Equal(t, 4, r.SplitRequests())
	before := r.CardsRemaining()

	assert.ErrorIs(t, r.Split(), ErrSplitPoolFull)
	assert.Equal(t, before, r.CardsRemaining())
	assert.Len(t, r.Pending(), 4)
}

func TestSplitIDsAreSequential(t *testing.T) {
	r := dealStacked(t, "8h9c8d7s8c8s", 10)
	require.NoError(t, r.Split())
	require.NoError(t, r.Split())

	pending := r.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, "H-002", pending[0].ID)
	assert.Equal(t, "H-003", pending[1].ID)
}

func TestActivateNextIsIdempotent(t *testing.T) {
	r := dealStacked(t, "8h9c8d7s3cKd", 10)
	require.NoError(t, r.Split())

	filed, err := r.MarkActiveResolved()
	require.NoError(t, err)
	assert.True(t, filed)

	id, ok := r.NextUnresolvedID()
	require.True(t, ok)
	assert.Equal(t, "H-002", id)

	before := r.CardsRemaining()
	h, err := r.ActivateNext()
	require.NoError(t, err)
	assert.Equal(t, "H-002", h.ID)
	assert.Equal(t, cards("8dKd"), h.Cards)
	assert.Equal(t, 18, h.Total)
	assert.Equal(t, 0, r.SplitRequests())
	assert.Equal(t, before-1, r.CardsRemaining())

	again, err := r.ActivateNext()
	require.NoError(t, err)
	assert.Equal(t, h, again)
	assert.Equal(t, 0, r.SplitRequests())
	assert.Equal(t, before-1, r.CardsRemaining())
}

func TestActivateNextKeepsHitCards(t *testing.T) {
	r := dealStacked(t, "8h9c8d7s8cKd2h", 10)
	require.NoError(t, r.Split())
	require.NoError(t, r.Split())
	_, err := r.MarkActiveResolved()
	require.NoError(t, err)
	activated, err := r.ActivateNext()
	require.NoError(t, err)
	require.Equal(t, "H-002", activated.ID)
	require.NoError(t, r.Hit())

	before := r.CardsRemaining()
	again, err := r.ActivateNext()
	require.NoError(t, err)
	assert.Equal(t, "H-002", again.ID)
	assert.Len(t, again.Cards, 3)
	assert.Equal(t, before, r.CardsRemaining())
}

func TestSplitHandsMustFinishBeforeSettling(t *testing.T) {
	r := dealStacked(t, "8h9c8d7s8cKd", 10)
	require.NoError(t, r.Split())

	assert.ErrorIs(t, r.Stand(), ErrHandsWaiting)
	_, err := r.Rewards()
	assert.ErrorIs(t, err, ErrHandsWaiting)

	_, err = r.MarkActiveResolved()
	require.NoError(t, err)
	_, err = r.DrainFirstPending()
	assert.ErrorIs(t, err, ErrHandsWaiting)

	_, err = r.ActivateNext()
	require.NoError(t, err)
	_, err = r.DrainFirstPending()
	assert.ErrorIs(t, err, ErrHandsWaiting)
	assert.Equal(t, "H-002", r.Player().ID)
	assert.Equal(t, PhaseMainTurn, r.Phase())
}

func TestFinishedSplitHandCannotAct(t *testing.T) {
	r := dealStacked(t, "8h9c8d7sTh9s", 10)
	require.NoError(t, r.Split())
	_, err := r.MarkActiveResolved()
	require.NoError(t, err)
	_, err = r.ActivateNext()
	require.NoError(t, err)
	filed, err := r.MarkActiveResolved()
	require.NoError(t, err)
	require.False(t, filed)

	before := r.Player()
	assert.ErrorIs(t, r.Hit(), ErrHandFinished)
	_, err = r.RequestDouble()
	assert.ErrorIs(t, err, ErrHandFinished)
	assert.Equal(t, before, r.Player())

	_, err = r.ActivateNext()
	assert.ErrorIs(t, err, ErrNoPendingHands)
	_, err = r.DrainFirstPending()
	assert.ErrorIs(t, err, ErrHandUnsettled)
}

func TestDrainedHandSettlesOnItsOwnResult(t *testing.T) {
	r := dealStacked(t, "8hTc8d9sKhKd3hTh", 10)
	require.NoError(t, r.Split())
	require.NoError(t, r.Hit())
	require.Equal(t, 28, r.Player().Total)
	_, err := r.MarkActiveResolved()
	require.NoError(t, err)

	_, err = r.ActivateNext()
	require.NoError(t, err)
	require.NoError(t, r.Hit())
	require.Equal(t, 21, r.Player().Total)
	_, err = r.MarkActiveResolved()
	require.NoError(t, err)
	require.NoError(t, r.Stand())
	require.Equal(t, WinnerPlayerWon, r.Winner())
	paid, err := r.Rewards()
	require.NoError(t, err)
	assert.Equal(t, 20, paid)

	drained, err := r.DrainFirstPending()
	require.NoError(t, err)
	assert.Equal(t, "H-001", drained.ID)
	assert.Equal(t, WinnerNone, r.Winner())

	paid, err = r.Rewards()
	require.NoError(t, err)
	assert.Zero(t, paid)
	assert.False(t, r.IsActive())
}

func TestMarkActiveResolvedSortsPool(t *testing.T) {
	r := dealStacked(t, "8h9c8d7s8cKd", 10)
	require.NoError(t, r.Split())
	require.NoError(t, r.Split())

	filed, err := r.MarkActiveResolved()
	require.NoError(t, err)
	require.True(t, filed)

	pending := r.Pending()
	require.Len(t, pending, 3)
	assert.Equal(t, []string{"H-002", "H-003", "H-001"}, []string{pending[0].ID, pending[1].ID, pending[2].ID})
	assert.True(t, pending[2].Resolved)
}

func TestMarkActiveResolvedWithNothingWaiting(t *testing.T) {
	r := dealStacked(t, "Kh9cQd7s", 10)
	filed, err := r.MarkActiveResolved()
	require.NoError(t, err)
	assert.False(t, filed)
	assert.Equal(t, PhaseMainTurn, r.Phase())
	assert.Empty(t, r.Pending())
}

func TestActivateAndDrainWithEmptyPool(t *testing.T) {
	r := dealStacked(t, "Kh9cQd7s", 10)
	_, err := r.ActivateNext()
	assert.ErrorIs(t, err, ErrNoPendingHands)
	_, err = r.DrainFirstPending()
	assert.ErrorIs(t, err, ErrNoPendingHands)
	assert.Equal(t, "H-001", r.Player().ID)
}

func TestSplitRoundPlaysEveryHand(t *testing.T) {
	r := dealStacked(t, "8h9c8d7sTh9s6c", 10)
	require.NoError(t, r.Split())
	assert.Equal(t, 18, r.Player().Total)

	filed, err := r.MarkActiveResolved()
	require.NoError(t, err)
	require.True(t, filed)

	second, err := r.ActivateNext()
	require.NoError(t, err)
	assert.Equal(t, 17, second.Total)

	filed, err = r.MarkActiveResolved()
	require.NoError(t, err)
	assert.False(t, filed)
	assert.Equal(t, PhaseSplitFinish, r.Phase())

	first := r.View(OpMarkResolved)
	require.NotNil(t, first.DealerUnmasked)
	assert.Equal(t, 0, first.DealerUnmasked.Total)
	assert.Equal(t, 16, r.View(OpMarkResolved).DealerUnmasked.Total)

	require.NoError(t, r.Stand())
	assert.Equal(t, 22, r.DealerUnmasked().Total)
	assert.Equal(t, WinnerPlayerWon, r.Winner())
	paid, err := r.Rewards()
	require.NoError(t, err)
	assert.Equal(t, 20, paid)
	assert.True(t, r.IsActive())
	assert.Equal(t, PhaseSplitFinish, r.Phase())

	last, err := r.DrainFirstPending()
	require.NoError(t, err)
	assert.Equal(t, "H-001", last.ID)
	assert.Equal(t, 10, last.Bet)

	before := r.CardsRemaining()
	require.NoError(t, r.Stand())
	assert.Equal(t, before, r.CardsRemaining())
	paid, err = r.Rewards()
	require.NoError(t, err)
	assert.Equal(t, 20, paid)
	assert.False(t, r.IsActive())
	assert.Empty(t, r.Pending())
}
