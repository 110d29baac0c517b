package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/protocol"
	"github.com/lox/blackjack/internal/randutil"
	"github.com/lox/blackjack/internal/service"
	"github.com/lox/blackjack/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	*httptest.Server
	srv    *Server
	store  *memory.Store
	clock  *quartz.Mock
	client *http.Client
}

func newTestServer(t *testing.T, cards string) *testServer {
	t.Helper()
	clock := quartz.NewMock(t)
	st := memory.New()
	logger := log.New(io.Discard)
	svc := service.New(st,
		service.WithClock(clock),
		service.WithLogger(logger),
		service.WithRoundOptions(func() []game.Option {
			return []game.Option{game.WithShoeBuilder(func() *deck.Shoe {
				front := deck.MustParseCards(cards)
				filler := deck.BuildShoe(randutil.New(1), deck.DecksPerShoe).Cards()
				return deck.NewShoe(append(front, filler...)[:deck.ShoeSize])
			})}
		}),
	)
	sessions := newTestSessions(t, clock)
	srv := New(svc, sessions, logger)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testServer{Server: ts, srv: srv, store: st, clock: clock, client: &http.Client{Jar: jar}}
}

func (ts *testServer) post(t *testing.T, path string, body any) (int, *protocol.Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	resp, err := ts.client.Post(ts.URL+path, "application/json", &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var out protocol.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, &out
}

func (ts *testServer) initialize(t *testing.T) *protocol.Response {
	t.Helper()
	status, resp := ts.post(t, "/api/initialize_session", nil)
	require.Equal(t, http.StatusOK, status)
	return resp
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, "ThTcQd7s")
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestInitializeSessionSetsCookie(t *testing.T) {
	ts := newTestServer(t, "ThTcQd7s")
	resp := ts.initialize(t)
	assert.Equal(t, protocol.StatusSuccess, resp.Status)
	assert.Equal(t, protocol.HintSessionInitialized, resp.Hint)
	assert.Equal(t, 1000, resp.Tokens)
	assert.NotEmpty(t, resp.ClientID)

	u, err := url.Parse(ts.URL)
	require.NoError(t, err)
	require.Len(t, ts.client.Jar.Cookies(u), 1)

	again := ts.initialize(t)
	assert.Equal(t, resp.ClientID, again.ClientID)
}

func TestInitializeSessionByClientID(t *testing.T) {
	ts := newTestServer(t, "ThTcQd7s")
	first := ts.initialize(t)
	ts.post(t, "/api/bet", protocol.Request{Bet: 100})

	// A new browser with the same client id reaches the same account.
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	ts.client = &http.Client{Jar: jar}
	status, resp := ts.post(t, "/api/initialize_session", protocol.Request{ClientID: first.ClientID})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, first.ClientID, resp.ClientID)
	assert.Equal(t, 1000, resp.Tokens, "orphaned bet refunded")
}

func TestPlayRoundOverHTTP(t *testing.T) {
	ts := newTestServer(t, "ThTcQd7s")
	ts.initialize(t)

	steps := []struct {
		path   string
		body   any
		hint   protocol.Hint
		tokens int
	}{
		{"/api/bet", protocol.Request{Bet: 10}, protocol.HintBetPlaced, 990},
		{"/api/create_deck", nil, protocol.HintDeckCreated, 990},
		{"/api/start_game", nil, protocol.HintRoundInitialized, 990},
		{"/api/stand_and_rewards", nil, protocol.HintRewardsProcessed, 1010},
	}
	for _, step := range steps {
		status, resp := ts.post(t, step.path, step.body)
		require.Equal(t, http.StatusOK, status, step.path)
		assert.Equal(t, step.hint, resp.Hint, step.path)
		assert.Equal(t, step.tokens, resp.Tokens, step.path)
		require.NotNil(t, resp.State, step.path)
	}
}

func TestOperationErrors(t *testing.T) {
	ts := newTestServer(t, "ThTcQd7s")

	status, resp := ts.post(t, "/api/bet", protocol.Request{Bet: 10})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, protocol.HintInvalidSession, resp.Hint)

	ts.initialize(t)

	status, resp = ts.post(t, "/api/bet", protocol.Request{Bet: 5000})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, protocol.HintClientError, resp.Hint)
	assert.Equal(t, service.ErrInsufficientTokens.Message, resp.Message)
	assert.Equal(t, 1000, resp.Tokens)
	assert.NotNil(t, resp.State)

	status, resp = ts.post(t, "/api/juggle", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, protocol.HintClientError, resp.Hint)

	resp2, err := ts.client.Post(ts.URL+"/api/bet", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestServerErrorIsOpaque(t *testing.T) {
	ts := newTestServer(t, "ThTcQd7s")
	ts.initialize(t)

	ctx := context.Background()
	acct, err := ts.store.AccountByClientID(ctx, ts.initialize(t).ClientID)
	require.NoError(t, err)
	acct.State = []byte(`{"phase":"BETTING"}`)
	require.NoError(t, ts.store.SaveAccount(ctx, acct))

	status, resp := ts.post(t, "/api/hit", nil)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, protocol.HintServerError, resp.Hint)
	assert.Equal(t, protocol.ServerErrorMessage, resp.Message)
	assert.Nil(t, resp.State)

	status, resp = ts.post(t, "/api/force_restart", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, protocol.HintForceRestart, resp.Hint)
}

func TestExpiredSession(t *testing.T) {
	ts := newTestServer(t, "ThTcQd7s")
	ts.initialize(t)
	ts.clock.Advance(2 * time.Hour)

	// The jar still sends the cookie; the token inside has expired.
	status, resp := ts.post(t, "/api/recover_game_state", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, protocol.HintInvalidSession, resp.Hint)
}

func dialWebSocket(t *testing.T, ts *testServer) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	u, err := url.Parse(ts.URL)
	require.NoError(t, err)
	header := http.Header{}
	for _, c := range ts.client.Jar.Cookies(u) {
		header.Add("Cookie", c.String())
	}
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	return websocket.DefaultDialer.Dial(wsURL, header)
}

func TestWebSocket(t *testing.T) {
	ts := newTestServer(t, "ThTcQd7s")

	_, resp, err := dialWebSocket(t, ts)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	ts.initialize(t)
	conn, _, err := dialWebSocket(t, ts)
	require.NoError(t, err)
	defer conn.Close()

	frames := []struct {
		req    protocol.Request
		status string
		tokens int
	}{
		{protocol.Request{Op: game.OpBet, Bet: 10, IdempotencyKey: "a"}, protocol.StatusSuccess, 990},
		{protocol.Request{Op: game.OpBet, Bet: 10, IdempotencyKey: "a"}, protocol.StatusSuccess, 990},
		{protocol.Request{Op: game.OpHit}, protocol.StatusError, 990},
		{protocol.Request{Op: game.OpRetakeBet}, protocol.StatusSuccess, 1000},
	}
	for _, f := range frames {
		require.NoError(t, conn.WriteJSON(f.req))
		var got protocol.Response
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, f.status, got.Status, f.req.Op)
		assert.Equal(t, f.tokens, got.Tokens, f.req.Op)
	}

	assert.Eventually(t, func() bool { return ts.srv.ConnectionCount() == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return ts.srv.ConnectionCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ts := newTestServer(t, "ThTcQd7s")
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ts.srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestWaitForHealthy(t *testing.T) {
	ts := newTestServer(t, "ThTcQd7s")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, WaitForHealthy(ctx, ts.URL+"/"))

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	short, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, WaitForHealthy(short, down.URL), context.DeadlineExceeded)
}
