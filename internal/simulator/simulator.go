// Package simulator plays many rounds of blackjack against the round engine
// with a fixed policy and reports the results.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/randutil"
	"github.com/lox/blackjack/internal/statistics"
)

// Config holds configuration for running simulations
type Config struct {
	Rounds int
	Bet    int
	Seed   int64
	Policy Policy
	Logger *log.Logger
}

// Simulator runs blackjack round simulations
type Simulator struct {
	config Config
}

// New creates a new simulator with the given configuration
func New(config Config) *Simulator {
	if config.Bet <= 0 {
		config.Bet = 1
	}
	if config.Policy == nil {
		config.Policy = BasicStrategy{}
	}
	if config.Logger == nil {
		config.Logger = log.New(io.Discard)
	}
	return &Simulator{config: config}
}

// Run plays the configured number of rounds on a single seeded table.
func (s *Simulator) Run(ctx context.Context) (*statistics.Statistics, error) {
	stats := &statistics.Statistics{}
	round := game.New(game.WithRand(randutil.New(s.config.Seed)))

	for i := 0; i < s.config.Rounds; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := s.playRound(round, i)
		if errors.Is(err, game.ErrDeckExhausted) {
			// The shoe ran dry mid-round; stakes go back and the next
			// round starts on a fresh shoe.
			s.config.Logger.Warn("Voided round", "round", i+1, "error", err)
			round.Clear()
			stats.Add(statistics.RoundResult{Round: i, Voided: true})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("round %d: %w", i+1, err)
		}
		stats.Add(result)
	}

	if err := stats.Validate(); err != nil {
		return nil, fmt.Errorf("statistics validation failed: %w", err)
	}
	return stats, nil
}

// table tracks one round's stakes and payouts.
type table struct {
	round     *game.Round
	policy    Policy
	staked    int
	paid      int
	splitting bool
	splits    int
	doubles   int
	hands     int
}

func (s *Simulator) playRound(round *game.Round, index int) (statistics.RoundResult, error) {
	t := &table{round: round, policy: s.config.Policy, hands: 1}

	if err := round.PlaceBet(s.config.Bet); err != nil {
		return statistics.RoundResult{}, err
	}
	t.staked = s.config.Bet

	started, err := round.HandleStart()
	if err != nil {
		return statistics.RoundResult{}, err
	}
	if !started {
		if err := round.BuildShoe(); err != nil {
			return statistics.RoundResult{}, err
		}
		if err := round.StartRound(); err != nil {
			return statistics.RoundResult{}, err
		}
	}

	natural := round.Natural()
	switch {
	case natural.EndsTurn():
		if err := t.settle(); err != nil {
			return statistics.RoundResult{}, err
		}
	case natural == game.NaturalDealerBlackjack:
		if err := t.finish(); err != nil {
			return statistics.RoundResult{}, err
		}
	default:
		if err := t.play(); err != nil {
			return statistics.RoundResult{}, err
		}
	}

	net := t.paid - t.staked
	result := statistics.RoundResult{
		Net:       float64(net) / float64(s.config.Bet),
		Round:     index,
		Blackjack: natural == game.NaturalPlayerBlackjack,
		Hands:     t.hands,
		Splits:    t.splits,
		Doubles:   t.doubles,
	}
	switch {
	case net > 0:
		result.Outcome = statistics.Win
	case net < 0:
		result.Outcome = statistics.Loss
	default:
		result.Outcome = statistics.Push
	}
	s.config.Logger.Debug("Round complete", "round", index+1, "net", net, "hands", t.hands)
	return result, nil
}

// play acts on the active hand until the round is over.
func (t *table) play() error {
	for t.round.IsActive() {
		hand := t.round.Player()
		up, _ := t.round.DealerUpcard()

		action := t.policy.Decide(hand, up, hand.CanSplit)
		if action != Split {
			if err := t.act(action); err != nil {
				return err
			}
			continue
		}

		cost := t.round.Bet()
		err := t.round.Split()
		if errors.Is(err, game.ErrSplitPoolFull) {
			if err := t.act(t.policy.Decide(hand, up, false)); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
		t.staked += cost
		t.splits++
		t.hands++
		t.splitting = true
	}
	return nil
}

func (t *table) act(action Action) error {
	switch action {
	case Hit:
		if err := t.round.Hit(); err != nil {
			return err
		}
		if t.round.Phase() == game.PhaseMainStandRewardsTransit {
			return t.finish()
		}
		return nil
	case Double:
		increment, err := t.round.RequestDouble()
		if err != nil {
			return err
		}
		t.staked += increment
		t.doubles++
		return t.finish()
	default:
		return t.finish()
	}
}

// finish ends the active hand. Split hands are filed while others still wait
// to act; once none wait, every hand is settled against the dealer.
func (t *table) finish() error {
	if !t.splitting {
		return t.standAndSettle()
	}

	if _, err := t.round.MarkActiveResolved(); err != nil {
		return err
	}
	if t.round.Phase() != game.PhaseSplitFinish {
		_, err := t.round.ActivateNext()
		return err
	}

	if err := t.standAndSettle(); err != nil {
		return err
	}
	for t.round.IsActive() {
		if _, err := t.round.DrainFirstPending(); err != nil {
			return err
		}
		if err := t.standAndSettle(); err != nil {
			return err
		}
	}
	t.splitting = false
	return nil
}

func (t *table) standAndSettle() error {
	if err := t.round.Stand(); err != nil {
		return err
	}
	return t.settle()
}

func (t *table) settle() error {
	paid, err := t.round.Rewards()
	if err != nil {
		return err
	}
	t.paid += paid
	return nil
}

// RunSimulation is a convenience function for running a simulation with basic parameters
func RunSimulation(ctx context.Context, rounds, bet int, seed int64, logger *log.Logger) (*statistics.Statistics, error) {
	return New(Config{Rounds: rounds, Bet: bet, Seed: seed, Logger: logger}).Run(ctx)
}

// PrintSummary writes a summary of simulation results
func PrintSummary(w io.Writer, stats *statistics.Statistics) {
	low, high := stats.ConfidenceInterval95()

	fmt.Fprintf(w, "\n=== FINAL RESULTS ===\n")
	fmt.Fprintf(w, "Rounds played: %d (%d voided)\n", stats.Rounds, stats.Voided)
	fmt.Fprintf(w, "Hands played: %d\n", stats.Hands)

	fmt.Fprintf(w, "\n=== STATISTICAL RESULTS ===\n")
	fmt.Fprintf(w, "Mean: %.4f units/round\n", stats.Mean())
	fmt.Fprintf(w, "Median: %.4f units/round\n", stats.Median())
	fmt.Fprintf(w, "Std Dev: %.4f units\n", stats.StdDev())
	fmt.Fprintf(w, "Std Error: %.4f units\n", stats.StdError())
	fmt.Fprintf(w, "95%% CI: [%.4f, %.4f] units/round\n", low, high)
	fmt.Fprintf(w, "Percentiles: P5=%.3f, P25=%.3f, P75=%.3f, P95=%.3f\n",
		stats.Percentile(0.05), stats.Percentile(0.25), stats.Percentile(0.75), stats.Percentile(0.95))

	fmt.Fprintf(w, "\n=== OUTCOMES ===\n")
	fmt.Fprintf(w, "Wins: %d (%.1f%%)\n", stats.Wins, stats.Rate(stats.Wins)*100)
	fmt.Fprintf(w, "Losses: %d (%.1f%%)\n", stats.Losses, stats.Rate(stats.Losses)*100)
	fmt.Fprintf(w, "Pushes: %d (%.1f%%)\n", stats.Pushes, stats.Rate(stats.Pushes)*100)
	fmt.Fprintf(w, "Blackjacks: %d (%.1f%%)\n", stats.Blackjacks, stats.Rate(stats.Blackjacks)*100)

	fmt.Fprintf(w, "\n=== PROFIT SOURCE ANALYSIS ===\n")
	fmt.Fprintf(w, "Naturals: %.2f units\n", stats.BlackjackNet)
	fmt.Fprintf(w, "Split rounds: %d splits, %.2f units\n", stats.Splits, stats.SplitNet)
	fmt.Fprintf(w, "Doubled rounds: %d doubles, %.2f units\n", stats.Doubles, stats.DoubleNet)
	fmt.Fprintf(w, "Plain rounds: %.2f units\n", stats.PlainNet)
}
