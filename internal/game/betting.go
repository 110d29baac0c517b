package game

// Payout multipliers, in halves of the stake.
const (
	blackjackPayoutHalves = 5 // stake plus 3:2
	winPayoutHalves       = 4 // stake plus 1:1
	pushPayoutHalves      = 2 // stake back
)

// PlaceBet adds amount to the round bet and the active hand's bet.
// Balance and minimum checks belong to the caller.
func (r *Round) PlaceBet(amount int) error {
	if amount <= 0 {
		return ErrInvalidBet
	}
	if r.active {
		return ErrRoundActive
	}
	r.bet += amount
	r.player.Bet += amount
	r.betList = append(r.betList, amount)
	r.phase = PhaseBetting
	return nil
}

// RetakeLastBet removes the most recent bet increment and returns it.
func (r *Round) RetakeLastBet() (int, error) {
	if r.active {
		return 0, ErrRoundActive
	}
	if len(r.betList) == 0 {
		return 0, ErrEmptyBetStack
	}
	last := r.betList[len(r.betList)-1]
	r.betList = r.betList[:len(r.betList)-1]
	r.bet -= last
	r.player.Bet = max(0, r.player.Bet-last)
	r.phase = PhaseBetting
	return last, nil
}

// ReleaseBet returns a bet stranded outside a live round, clearing it.
// It reports zero when there is nothing to release.
func (r *Round) ReleaseBet() int {
	if r.active || r.bet <= 0 {
		return 0
	}
	amount := r.bet
	r.clearBet()
	return amount
}

func (r *Round) clearBet() {
	r.bet = 0
	r.betList = []int{}
	r.player.Bet = 0
}

// Bet returns the round bet.
func (r *Round) Bet() int { return r.bet }

// BetList returns the stack of bet increments, oldest first.
func (r *Round) BetList() []int { return append([]int{}, r.betList...) }

// InsuranceCost is half the round bet, rounded up.
func (r *Round) InsuranceCost() int {
	return (r.bet + 1) / 2
}

// RequestInsurance settles the insurance side bet. Against a dealer natural
// the original bet comes back and the round ends; otherwise the result is
// the negative insurance cost and play continues.
func (r *Round) RequestInsurance() (int, error) {
	if !r.active {
		return 0, ErrRoundInactive
	}
	if !r.CanInsure() {
		return 0, ErrInsuranceUnavailable
	}
	if r.natural == NaturalDealerBlackjack {
		refund := r.bet
		r.clearBet()
		r.active = false
		r.recompute(&r.player)
		r.phase = PhaseMainStand
		return refund, nil
	}
	r.phase = PhaseMainTurn
	return -r.InsuranceCost(), nil
}

// DoubleCost is the amount a double adds: the active hand's current bet.
func (r *Round) DoubleCost() int {
	return r.player.Bet
}

// RequestDouble doubles the active hand's bet and forces a final hit. It
// returns the increment the caller must collect.
func (r *Round) RequestDouble() (int, error) {
	if !r.active {
		return 0, ErrRoundInactive
	}
	if err := r.require(1); err != nil {
		return 0, err
	}
	increment := r.DoubleCost()
	r.player.Bet += increment
	if err := r.hit(true); err != nil {
		r.player.Bet -= increment
		return 0, err
	}
	return increment, nil
}

// Rewards pays out the active hand and returns the amount owed to the
// player, stake included. The round stays live while split hands remain.
func (r *Round) Rewards() (int, error) {
	if !r.active {
		return 0, ErrRoundInactive
	}
	if r.arena.hasUnresolvedPooled() {
		return 0, ErrHandsWaiting
	}
	payout := Payout(r.player.Bet, r.natural, r.winner)

	r.clearBet()
	r.rewarded = true
	r.active = r.arena.pooledCount() > 0
	if r.active {
		r.phase = PhaseSplitFinish
	}
	return payout, nil
}

// Payout computes the amount returned for a settled hand.
func Payout(bet int, natural Natural, winner Winner) int {
	switch {
	case natural == NaturalPlayerBlackjack:
		return bet * blackjackPayoutHalves / 2
	case winner == WinnerPlayerWon && !natural.dealerHolds():
		return bet * winPayoutHalves / 2
	case winner == WinnerPush && !natural.dealerHolds(), natural == NaturalPush:
		return bet * pushPayoutHalves / 2
	default:
		return 0
	}
}
