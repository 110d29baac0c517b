// Package client plays a blackjack table, either in-process against a
// service or remotely against a table server.
package client

import (
	"context"
	"fmt"

	"github.com/lox/blackjack/internal/protocol"
)

// Table executes operations for one player. Rejected requests come back as
// responses with an error status and a nil error; the error return is
// reserved for failures the request did not cause.
type Table interface {
	InitializeSession(ctx context.Context) (*protocol.Response, error)
	Do(ctx context.Context, req protocol.Request) (*protocol.Response, error)
}

// ResponseError is a failed response that the player cannot fix by changing
// the request, such as an expired session or a server fault.
type ResponseError struct {
	Response *protocol.Response
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Response.Hint, e.Response.Message)
}

// RejectedError is a request the table refused, such as a bet beyond the
// balance. The table state is unchanged.
type RejectedError struct {
	Response *protocol.Response
}

func (e *RejectedError) Error() string {
	return e.Response.Message
}

// classify splits failed responses into fatal errors and rejections.
func classify(resp *protocol.Response) error {
	if resp.OK() {
		return nil
	}
	switch resp.Hint {
	case protocol.HintInvalidSession, protocol.HintServerError:
		return &ResponseError{Response: resp}
	default:
		return nil
	}
}
