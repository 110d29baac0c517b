package service

import (
	"fmt"

	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/protocol"
	"github.com/lox/blackjack/internal/store"
)

// turn is the working set of one request.
type turn struct {
	round   *game.Round
	account *store.Account
	req     protocol.Request
	rules   Rules
	double  *int
}

type result struct {
	hint    protocol.Hint
	message string
}

type handler func(t *turn) (result, error)

var handlers = map[game.Operation]handler{
	game.OpBet:                  (*turn).bet,
	game.OpRetakeBet:            (*turn).retakeBet,
	game.OpHandleStart:          (*turn).handleStart,
	game.OpCreateDeck:           (*turn).createDeck,
	game.OpStartGame:            (*turn).startGame,
	game.OpInsurance:            (*turn).insurance,
	game.OpHit:                  (*turn).hit,
	game.OpSplitHit:             (*turn).hit,
	game.OpDouble:               (*turn).doubleDown,
	game.OpSplitDouble:          (*turn).doubleDown,
	game.OpRewards:              (*turn).rewards,
	game.OpStandAndRewards:      (*turn).standAndRewards,
	game.OpSplitStandAndRewards: (*turn).standAndRewards,
	game.OpSplit:                (*turn).split,
	game.OpMarkResolved:         (*turn).markResolved,
	game.OpActivateNext:         (*turn).activateNext,
	game.OpDrainPending:         (*turn).drainPending,
	game.OpSetRestart:           (*turn).setRestart,
	game.OpRecover:              (*turn).recover,
	game.OpClear:                (*turn).clear,
}

// afford refuses a stake the balance cannot cover.
func (t *turn) afford(amount int) error {
	if t.account.Tokens < amount {
		return ErrInsufficientTokens
	}
	return nil
}

func (t *turn) bet() (result, error) {
	amount := t.req.Bet
	if amount < t.rules.MinimumBet {
		return result{}, fmt.Errorf("%w Minimum is %d.", ErrBetBelowMinimum, t.rules.MinimumBet)
	}
	if err := t.afford(amount); err != nil {
		return result{}, err
	}
	if err := t.round.PlaceBet(amount); err != nil {
		return result{}, err
	}
	t.account.Tokens -= amount
	return result{hint: protocol.HintBetPlaced}, nil
}

func (t *turn) retakeBet() (result, error) {
	amount, err := t.round.RetakeLastBet()
	if err != nil {
		return result{}, err
	}
	t.account.Tokens += amount
	return result{hint: protocol.HintBetRetaken}, nil
}

func (t *turn) requireBet() error {
	if t.round.Bet() <= 0 && !t.round.IsActive() {
		return ErrNoBet
	}
	return nil
}

func (t *turn) handleStart() (result, error) {
	if err := t.requireBet(); err != nil {
		return result{}, err
	}
	if _, err := t.round.HandleStart(); err != nil {
		return result{}, err
	}
	return result{hint: protocol.HintRoundInitialized, message: "New round initialized."}, nil
}

func (t *turn) createDeck() (result, error) {
	if err := t.round.BuildShoe(); err != nil {
		return result{}, err
	}
	return result{hint: protocol.HintDeckCreated}, nil
}

func (t *turn) startGame() (result, error) {
	if err := t.requireBet(); err != nil {
		return result{}, err
	}
	if err := t.round.StartRound(); err != nil {
		return result{}, err
	}
	return result{hint: protocol.HintRoundInitialized, message: "New round initialized."}, nil
}

func (t *turn) insurance() (result, error) {
	if err := t.afford(t.round.InsuranceCost()); err != nil {
		return result{}, err
	}
	settled, err := t.round.RequestInsurance()
	if err != nil {
		return result{}, err
	}
	t.account.Tokens += settled
	return result{hint: protocol.HintInsuranceProcessed, message: "Insurance placed successfully."}, nil
}

func (t *turn) hit() (result, error) {
	if err := t.round.Hit(); err != nil {
		return result{}, err
	}
	return result{hint: protocol.HintHitReceived}, nil
}

func (t *turn) doubleDown() (result, error) {
	if err := t.afford(t.round.DoubleCost()); err != nil {
		return result{}, err
	}
	increment, err := t.round.RequestDouble()
	if err != nil {
		return result{}, err
	}
	t.account.Tokens -= increment
	t.double = &increment
	return result{hint: protocol.HintDoubleReceived, message: "Double placed successfully."}, nil
}

func (t *turn) rewards() (result, error) {
	paid, err := t.round.Rewards()
	if err != nil {
		return result{}, err
	}
	t.account.Tokens += paid
	return result{hint: protocol.HintRewardsProcessed, message: "Rewards processed and tokens updated."}, nil
}

func (t *turn) standAndRewards() (result, error) {
	if err := t.round.Stand(); err != nil {
		return result{}, err
	}
	return t.rewards()
}

func (t *turn) split() (result, error) {
	cost := t.round.Bet()
	if err := t.afford(cost); err != nil {
		return result{}, err
	}
	if err := t.round.Split(); err != nil {
		return result{}, err
	}
	t.account.Tokens -= cost
	return result{hint: protocol.HintSplitSuccess, message: "Split hand placed successfully."}, nil
}

func (t *turn) markResolved() (result, error) {
	if _, err := t.round.MarkActiveResolved(); err != nil {
		return result{}, err
	}
	return result{hint: protocol.HintNextSplitHand}, nil
}

func (t *turn) activateNext() (result, error) {
	if _, err := t.round.ActivateNext(); err != nil {
		return result{}, err
	}
	return result{hint: protocol.HintNextSplitHand}, nil
}

func (t *turn) drainPending() (result, error) {
	if _, err := t.round.DrainFirstPending(); err != nil {
		return result{}, err
	}
	return result{hint: protocol.HintNextSplitHand}, nil
}

func (t *turn) setRestart() (result, error) {
	t.round.Restart()
	t.account.Tokens = t.rules.StartingTokens
	return result{hint: protocol.HintRestart}, nil
}

func (t *turn) recover() (result, error) {
	return result{hint: protocol.HintRecovered, message: "Game state recovered."}, nil
}

// clear returns a bet still waiting on the table before discarding the round.
func (t *turn) clear() (result, error) {
	t.account.Tokens += t.round.ReleaseBet()
	t.round.Clear()
	return result{hint: protocol.HintStateCleared, message: "Game state cleared."}, nil
}
