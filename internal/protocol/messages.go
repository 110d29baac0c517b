// Package protocol defines the JSON envelopes exchanged between table clients
// and the server, over HTTP and over the WebSocket transport.
package protocol

import (
	"encoding/json"

	"github.com/lox/blackjack/internal/game"
)

// Status values carried by every response.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Hint tells the client which state transition the response reflects.
type Hint string

const (
	HintSessionInitialized   Hint = "USER_SESSION_INITIALIZED"
	HintInvalidSession       Hint = "INVALID_USER_SESSION"
	HintMissingState         Hint = "MISSING_GAME_STATE"
	HintBetPlaced            Hint = "BET_SUCCESSFULLY_PLACED"
	HintBetRetaken           Hint = "BET_SUCCESSFULLY_RETRAKEN"
	HintRoundInitialized     Hint = "NEW_ROUND_INITIALIZED"
	HintDeckCreated          Hint = "DECK_CREATED"
	HintInsuranceProcessed   Hint = "INSURANCE_PROCESSED"
	HintHitReceived          Hint = "HIT_RECIEVED"
	HintDoubleReceived       Hint = "DOUBLE_RECIEVED"
	HintRewardsProcessed     Hint = "REWARDS_PROCESSED"
	HintSplitSuccess         Hint = "SPLIT_SUCCESS"
	HintNextSplitHand        Hint = "NEXT_SPLIT_HAND_ACTIVATED"
	HintRestart              Hint = "HIT_RESTART"
	HintForceRestart         Hint = "FORCE_RESTART_SUCCESSFUL"
	HintRecovered            Hint = "RECOVERY_DATA_LOADED"
	HintStateCleared         Hint = "GAME STATE CLEARED"
	HintClientError          Hint = "CLIENT_ERROR_SPECIFIC"
	HintServerError          Hint = "SERVER_ERROR_GENERIC"
)

// ServerErrorMessage is the only detail a client sees for an internal failure.
const ServerErrorMessage = "CRITICAL SERVER ERROR"

// Request is one table operation. Over HTTP the operation comes from the
// path; WebSocket frames carry it in Op.
type Request struct {
	Op             game.Operation `json:"op,omitempty"`
	IdempotencyKey string         `json:"idempotency_key,omitempty"`
	Bet            int            `json:"bet,omitempty"`
	ClientID       string         `json:"client_id,omitempty"`
}

// Response is the envelope returned for every request.
type Response struct {
	Status       string     `json:"status"`
	Message      string     `json:"message,omitempty"`
	Hint         Hint       `json:"game_state_hint"`
	ClientID     string     `json:"client_id,omitempty"`
	Tokens       int        `json:"current_tokens"`
	DoubleAmount *int       `json:"double_amount,omitempty"`
	Idempotent   bool       `json:"idempotent,omitempty"`
	State        *game.View `json:"game_state,omitempty"`
}

// OK reports whether the response carries a success status.
func (r *Response) OK() bool { return r.Status == StatusSuccess }

// Error is a transport-level failure with no game state attached.
func Error(hint Hint, message string) *Response {
	return &Response{Status: StatusError, Hint: hint, Message: message}
}

// DecodeRequest parses a request body. An empty body is an empty request.
func DecodeRequest(data []byte) (Request, error) {
	var req Request
	if len(data) == 0 {
		return req, nil
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, err
	}
	return req, nil
}
