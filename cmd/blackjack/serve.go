package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/lox/blackjack/internal/config"
	"github.com/lox/blackjack/internal/server"
	"github.com/lox/blackjack/internal/service"
	"github.com/lox/blackjack/internal/store"
	"github.com/lox/blackjack/internal/store/memory"
	"github.com/lox/blackjack/internal/store/postgres"
	"github.com/lox/blackjack/internal/store/sqlite"
	"golang.org/x/sync/errgroup"
)

// ServeCmd runs the HTTP and WebSocket table server
type ServeCmd struct {
	Config   string   `short:"c" default:"blackjack.hcl" help:"Path to HCL configuration file"`
	Env      []string `help:"Dotenv files to read before the process environment" default:".env"`
	Addr     string   `short:"a" help:"Server address to bind to (overrides config)"`
	LogLevel string   `short:"l" help:"Log level (overrides config)"`
	Driver   string   `enum:",memory,sqlite,postgres" default:"" help:"Storage driver (overrides config)"`
}

func (c *ServeCmd) Run() error {
	cfg, err := config.LoadFile(c.Config)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(c.Env...); err != nil {
		return err
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if c.Driver != "" {
		cfg.Storage.Driver = c.Driver
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	addr := cfg.ServerAddress()
	if c.Addr != "" {
		addr = c.Addr
	}

	out, closeLog, err := logOutput(cfg.Server.LogFile, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()
	logger, err := setupLogger(out, cfg.Server.LogLevel)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	st, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("Failed to close store", "error", err)
		}
	}()

	secret := []byte(cfg.Session.Secret)
	if len(secret) == 0 {
		secret, err = ephemeralSecret()
		if err != nil {
			return err
		}
		logger.Warn("No session secret configured; sessions will not survive a restart")
	}
	sessions, err := server.NewSessions(server.SessionOptions{
		Secret:     secret,
		TTL:        cfg.Session.TTL,
		Secure:     cfg.Session.Secure,
		CookieName: cfg.Session.CookieName,
	})
	if err != nil {
		return err
	}

	svc := service.New(st,
		service.WithLogger(logger),
		service.WithRules(service.Rules{
			MinimumBet:     cfg.Rules.MinimumBet,
			StartingTokens: cfg.Rules.StartingTokens,
		}),
	)
	srv := server.New(svc, sessions, logger)

	logger.Info("Starting blackjack server",
		"addr", addr,
		"storage", cfg.Storage.Driver,
		"minimum_bet", cfg.Rules.MinimumBet,
		"starting_tokens", cfg.Rules.StartingTokens)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx, addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")
		return nil
	})
	return g.Wait()
}

// openStore opens the account store named by settings.
func openStore(ctx context.Context, settings config.StorageSettings) (store.Store, error) {
	switch settings.Driver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverSQLite:
		return sqlite.Open(ctx, settings.Path)
	case config.DriverPostgres:
		return postgres.Open(ctx, settings.DSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", settings.Driver)
	}
}

func ephemeralSecret() ([]byte, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generate session secret: %w", err)
	}
	return []byte(hex.EncodeToString(b)), nil
}
