package main

import (
	"os"
	"time"

	"github.com/lox/blackjack/internal/randutil"
	"github.com/lox/blackjack/internal/simulator"
)

// SimulateCmd plays basic strategy for many rounds and prints the results
type SimulateCmd struct {
	Rounds  int   `default:"100000" help:"Number of rounds to simulate"`
	Bet     int   `default:"10" help:"Flat bet per round"`
	Seed    int64 `default:"0" help:"RNG seed (0 for random)"`
	Verbose bool  `short:"V" help:"Verbose logging"`
}

func (c *SimulateCmd) Run() error {
	level := "info"
	if c.Verbose {
		level = "debug"
	}
	logger, err := setupLogger(os.Stderr, level)
	if err != nil {
		return err
	}

	seed := c.Seed
	if seed == 0 {
		seed = randutil.Seed()
	}

	ctx, stop := signalContext()
	defer stop()

	logger.Info("Starting simulation", "rounds", c.Rounds, "bet", c.Bet, "seed", seed)
	start := time.Now()

	stats, err := simulator.New(simulator.Config{
		Rounds: c.Rounds,
		Bet:    c.Bet,
		Seed:   seed,
		Logger: logger,
	}).Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("Simulation complete", "duration", time.Since(start).Round(time.Millisecond))
	simulator.PrintSummary(os.Stdout, stats)
	return nil
}
