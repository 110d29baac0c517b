package service

import (
	"errors"

	"github.com/lox/blackjack/internal/game"
)

// Error is a request the table refuses for business reasons, such as a
// balance that cannot cover the stake.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrInsufficientTokens = &Error{Message: "Insufficient tokens."}
	ErrBetBelowMinimum    = &Error{Message: "Bet is below the table minimum."}
	ErrNoBet              = &Error{Message: "Place a bet before starting a round."}
	ErrUnknownOperation   = &Error{Message: "Unknown operation."}
	ErrMissingState       = &Error{Message: "Game state not initialized."}
)

// ErrNoSession means the session names no known account.
var ErrNoSession = errors.New("invalid user session")

// IsClientError reports whether err was caused by the request rather than
// the server: an engine rule violation or a service business error.
func IsClientError(err error) bool {
	var se *Error
	return errors.As(err, &se) || game.IsRuleViolation(err)
}
