package game

import "errors"

// RuleError is a business-rule violation. The round is left exactly as it
// was before the rejected call.
type RuleError struct {
	Reason string
}

func (e *RuleError) Error() string { return e.Reason }

var (
	ErrRoundActive          = &RuleError{Reason: "a round is already in progress"}
	ErrRoundInactive        = &RuleError{Reason: "no round in progress"}
	ErrInvalidBet           = &RuleError{Reason: "bet must be a positive amount"}
	ErrEmptyBetStack        = &RuleError{Reason: "no bet to retake"}
	ErrShuffleRequired      = &RuleError{Reason: "shoe is below the reshuffle threshold"}
	ErrDeckExhausted        = &RuleError{Reason: "not enough cards left in the shoe"}
	ErrNotSplittable        = &RuleError{Reason: "split not possible"}
	ErrSplitPoolFull        = &RuleError{Reason: "split limit reached"}
	ErrNoPendingHands       = &RuleError{Reason: "no more split hands"}
	ErrInsuranceUnavailable = &RuleError{Reason: "insurance is only offered against a dealer ace"}
	ErrHandsWaiting         = &RuleError{Reason: "split hands are still waiting to act"}
	ErrHandFinished         = &RuleError{Reason: "hand is waiting to be settled"}
	ErrHandUnsettled        = &RuleError{Reason: "settle the active hand first"}
)

// ErrCorruptState marks a persisted round that cannot be restored.
var ErrCorruptState = errors.New("corrupt round state")

// IsRuleViolation reports whether err is, or wraps, a *RuleError.
func IsRuleViolation(err error) bool {
	var re *RuleError
	return errors.As(err, &re)
}
