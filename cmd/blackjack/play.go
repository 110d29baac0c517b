package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjack/internal/client"
	"github.com/lox/blackjack/internal/server"
	"github.com/lox/blackjack/internal/service"
	"github.com/lox/blackjack/internal/store/memory"
	"github.com/lox/blackjack/internal/tui"
)

// PlayCmd runs the terminal client
type PlayCmd struct {
	Server    string        `help:"Table server URL, e.g. http://localhost:8080 (plays locally when empty)"`
	WebSocket bool          `name:"websocket" help:"Send requests over a WebSocket instead of HTTP"`
	State     string        `help:"File that keeps the local table between runs (local play only)"`
	Identity  string        `help:"File that remembers this client's id" default:"${identity}"`
	NoColor   bool          `help:"Disable colored output"`
	LogFile   string        `help:"Write debug logs to this file"`
	Wait      time.Duration `default:"5s" help:"How long to wait for the server to become healthy"`
}

// seat is a table that knows which client id it was seated under.
type seat interface {
	client.Table
	ClientID() string
}

func (c *PlayCmd) Run() error {
	if c.NoColor {
		tui.DisableColor()
	}

	out, closeLog, err := logOutput(c.LogFile, io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()
	logger, err := setupLogger(out, "debug")
	if err != nil {
		return err
	}

	ident, err := client.LoadIdentity(c.Identity)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	table, cleanup, err := c.openTable(ctx, ident.ClientID, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	runErr := tui.Run(ctx, client.NewPlayer(table), logger)

	if id := table.ClientID(); id != "" && id != ident.ClientID && c.Identity != "" {
		if err := client.SaveIdentity(c.Identity, client.Identity{ClientID: id}); err != nil {
			logger.Error("Failed to save identity", "error", err)
		}
	}
	return runErr
}

func (c *PlayCmd) openTable(ctx context.Context, clientID string, logger *log.Logger) (seat, func(), error) {
	if strings.TrimSpace(c.Server) == "" {
		st, err := c.localStore()
		if err != nil {
			return nil, nil, err
		}
		svc := service.New(st, service.WithLogger(logger))
		return client.NewLocal(svc, clientID), func() { _ = st.Close() }, nil
	}

	serverURL := strings.TrimSpace(c.Server)
	remote, err := client.NewRemote(serverURL, clientID, logger)
	if err != nil {
		return nil, nil, err
	}
	waitCtx, cancel := context.WithTimeout(ctx, c.Wait)
	defer cancel()
	if err := server.WaitForHealthy(waitCtx, serverURL); err != nil {
		return nil, nil, fmt.Errorf("server %s not healthy: %w", serverURL, err)
	}
	if c.WebSocket {
		// The WebSocket handshake needs the session cookie.
		if _, err := remote.InitializeSession(ctx); err != nil {
			return nil, nil, fmt.Errorf("initialize session: %w", err)
		}
		if err := remote.Connect(ctx); err != nil {
			return nil, nil, err
		}
	}
	return remote, func() { _ = remote.Close() }, nil
}

func (c *PlayCmd) localStore() (*memory.Store, error) {
	if c.State == "" {
		return memory.New(), nil
	}
	return memory.Open(c.State)
}
