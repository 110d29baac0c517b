package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/protocol"
)

// Remote plays against a table server. Requests go over HTTP until Connect
// opens a WebSocket, after which they travel over the socket.
type Remote struct {
	baseURL  *url.URL
	http     *http.Client
	logger   *log.Logger
	clientID string

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewRemote creates a client for the server at serverURL. clientID may be
// empty, in which case the server assigns one.
func NewRemote(serverURL, clientID string, logger *log.Logger) (*Remote, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server URL scheme %q", u.Scheme)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Remote{
		baseURL:  u,
		http:     &http.Client{Jar: jar, Timeout: 30 * time.Second},
		logger:   logger.WithPrefix("client"),
		clientID: clientID,
	}, nil
}

// ClientID returns the client id the server bound to this player.
func (c *Remote) ClientID() string { return c.clientID }

// InitializeSession implements Table.
func (c *Remote) InitializeSession(ctx context.Context) (*protocol.Response, error) {
	resp, err := c.post(ctx, game.OpInitializeSession, protocol.Request{ClientID: c.clientID})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &ResponseError{Response: resp}
	}
	c.clientID = resp.ClientID
	c.logger.Debug("Session initialized", "client", c.clientID, "tokens", resp.Tokens)
	return resp, nil
}

// Do implements Table.
func (c *Remote) Do(ctx context.Context, req protocol.Request) (*protocol.Response, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	var (
		resp *protocol.Response
		err  error
	)
	if conn != nil {
		resp, err = c.exchange(ctx, conn, req)
	} else {
		resp, err = c.post(ctx, req.Op, req)
	}
	if err != nil {
		return nil, err
	}
	if err := classify(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Remote) post(ctx context.Context, op game.Operation, req protocol.Request) (*protocol.Response, error) {
	req.Op = ""
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	endpoint := c.baseURL.JoinPath("api", string(op))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer httpResp.Body.Close()

	var resp protocol.Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("%s: decode response (status %d): %w", op, httpResp.StatusCode, err)
	}
	return &resp, nil
}

// Connect opens a WebSocket for subsequent requests. The session must be
// initialized first.
func (c *Remote) Connect(ctx context.Context) error {
	u := *c.baseURL
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws"

	dialer := websocket.Dialer{
		Jar:              c.http.Jar,
		HandshakeTimeout: 10 * time.Second,
	}
	conn, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return &ResponseError{Response: protocol.Error(protocol.HintInvalidSession, "Invalid user session.")}
		}
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.logger.Info("Connected to server", "url", u.String())
	return nil
}

func (c *Remote) exchange(ctx context.Context, conn *websocket.Conn, req protocol.Request) (*protocol.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(30 * time.Second)
	}
	_ = conn.SetWriteDeadline(deadline)
	_ = conn.SetReadDeadline(deadline)

	if err := conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("%s: %w", req.Op, err)
	}
	var resp protocol.Response
	if err := conn.ReadJSON(&resp); err != nil {
		return nil, fmt.Errorf("%s: %w", req.Op, err)
	}
	return &resp, nil
}

// Close closes the WebSocket, if open.
func (c *Remote) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	err := c.conn.Close()
	c.conn = nil
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
