// Package statistics accumulates per-round results from strategy simulations.
package statistics

import (
	"fmt"
	"math"
	"sort"
)

// Outcome is the net result of a round across all of its hands.
type Outcome int

const (
	Loss Outcome = iota
	Push
	Win
)

// RoundResult represents the outcome of a single round
type RoundResult struct {
	Net       float64 // Net units won/lost, one unit being the flat bet
	Round     int     // Round index within the run
	Outcome   Outcome
	Blackjack bool // Player was dealt a natural
	Hands     int  // Hands played, counting split-off hands
	Splits    int
	Doubles   int
	Voided    bool // Round abandoned with stakes returned
}

// Statistics tracks blackjack simulation statistics
type Statistics struct {
	Rounds  int
	SumNet  float64
	SumNet2 float64   // Sum of squares for variance calculation
	Values  []float64 // Store all values for median/percentile calculation

	Wins       int
	Losses     int
	Pushes     int
	Blackjacks int
	Hands      int
	Splits     int
	Doubles    int
	Voided     int

	// Units by source, for the ledger check
	BlackjackNet float64
	SplitNet     float64 // Rounds with at least one split
	DoubleNet    float64 // Rounds with at least one double and no split
	PlainNet     float64
}

// Mean returns the arithmetic mean of all results in units per round
func (s *Statistics) Mean() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.SumNet / float64(s.Rounds)
}

// Variance returns the sample variance of all results
func (s *Statistics) Variance() float64 {
	if s.Rounds < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumNet2 - float64(s.Rounds)*mean*mean) / float64(s.Rounds-1)
}

// StdDev returns the sample standard deviation of all results
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean
func (s *Statistics) StdError() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Rounds))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// Add incorporates a round result into the statistics. Voided rounds are
// counted but contribute no result.
func (s *Statistics) Add(result RoundResult) {
	if result.Voided {
		s.Voided++
		return
	}

	net := result.Net
	s.Rounds++
	s.SumNet += net
	s.SumNet2 += net * net
	s.Values = append(s.Values, net)

	switch result.Outcome {
	case Win:
		s.Wins++
	case Push:
		s.Pushes++
	default:
		s.Losses++
	}

	s.Hands += result.Hands
	s.Splits += result.Splits
	s.Doubles += result.Doubles

	switch {
	case result.Blackjack:
		s.Blackjacks++
		s.BlackjackNet += net
	case result.Splits > 0:
		s.SplitNet += net
	case result.Doubles > 0:
		s.DoubleNet += net
	default:
		s.PlainNet += net
	}
}

// Median returns the median value of all results
func (s *Statistics) Median() float64 {
	return s.Percentile(0.5)
}

// Percentile returns the value at the given percentile (0.0 to 1.0)
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Rate returns n as a fraction of rounds played.
func (s *Statistics) Rate(n int) float64 {
	if s.Rounds == 0 {
		return 0
	}
	return float64(n) / float64(s.Rounds)
}

// IsLedgerBalanced checks that the per-source totals add up to the overall net
func (s *Statistics) IsLedgerBalanced() bool {
	return math.Abs(s.SumNet-s.BlackjackNet-s.SplitNet-s.DoubleNet-s.PlainNet) <= 1e-6
}

// Validate checks the counters against each other
func (s *Statistics) Validate() error {
	if !s.IsLedgerBalanced() {
		return fmt.Errorf("ledger mismatch: net=%.6f, blackjack=%.6f, split=%.6f, double=%.6f, plain=%.6f",
			s.SumNet, s.BlackjackNet, s.SplitNet, s.DoubleNet, s.PlainNet)
	}

	if s.Rounds <= 0 {
		return fmt.Errorf("invalid rounds count: %d", s.Rounds)
	}

	if len(s.Values) != s.Rounds {
		return fmt.Errorf("values array length (%d) does not match rounds count (%d)",
			len(s.Values), s.Rounds)
	}

	if total := s.Wins + s.Losses + s.Pushes; total != s.Rounds {
		return fmt.Errorf("outcomes total (%d) does not match rounds count (%d)", total, s.Rounds)
	}

	if s.Blackjacks > s.Rounds {
		return fmt.Errorf("blackjacks (%d) exceed rounds (%d)", s.Blackjacks, s.Rounds)
	}

	if s.Hands < s.Rounds+s.Splits {
		return fmt.Errorf("hands (%d) fewer than rounds plus splits (%d)", s.Hands, s.Rounds+s.Splits)
	}

	return nil
}
