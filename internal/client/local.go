package client

import (
	"context"

	"github.com/lox/blackjack/internal/protocol"
	"github.com/lox/blackjack/internal/service"
)

// Local plays against an in-process service.
type Local struct {
	svc       *service.Service
	accountID string
	clientID  string
}

// NewLocal returns a table backed by svc. clientID may be empty.
func NewLocal(svc *service.Service, clientID string) *Local {
	return &Local{svc: svc, clientID: clientID}
}

// InitializeSession implements Table.
func (l *Local) InitializeSession(ctx context.Context) (*protocol.Response, error) {
	accountID, resp, err := l.svc.InitializeSession(ctx, l.accountID, l.clientID)
	if err != nil {
		return nil, err
	}
	l.accountID = accountID
	l.clientID = resp.ClientID
	return resp, nil
}

// Do implements Table.
func (l *Local) Do(ctx context.Context, req protocol.Request) (*protocol.Response, error) {
	resp, err := l.svc.Do(ctx, l.accountID, req)
	if err != nil && !service.IsClientError(err) {
		return nil, err
	}
	return resp, nil
}

// ClientID returns the client id bound by the last session.
func (l *Local) ClientID() string { return l.clientID }
