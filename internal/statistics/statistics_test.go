package statistics

import (
	"math"
	"strings"
	"testing"
)

func TestStatistics_Empty(t *testing.T) {
	stats := &Statistics{}

	if stats.Mean() != 0 {
		t.Errorf("Expected mean of 0 for empty stats, got %f", stats.Mean())
	}
	if stats.Variance() != 0 {
		t.Errorf("Expected variance of 0 for empty stats, got %f", stats.Variance())
	}
	if stats.StdError() != 0 {
		t.Errorf("Expected stderr of 0 for empty stats, got %f", stats.StdError())
	}
	if stats.Median() != 0 {
		t.Errorf("Expected median of 0 for empty stats, got %f", stats.Median())
	}
	if stats.Rate(3) != 0 {
		t.Errorf("Expected rate of 0 for empty stats, got %f", stats.Rate(3))
	}
	if err := stats.Validate(); err == nil {
		t.Error("Expected empty stats to fail validation")
	}
}

func TestStatistics_SingleValue(t *testing.T) {
	stats := &Statistics{}
	stats.Add(RoundResult{Net: 1.5, Outcome: Win, Blackjack: true, Hands: 1})

	if stats.Rounds != 1 {
		t.Errorf("Expected 1 round, got %d", stats.Rounds)
	}
	if stats.Mean() != 1.5 {
		t.Errorf("Expected mean of 1.5, got %f", stats.Mean())
	}
	if stats.Variance() != 0 {
		t.Errorf("Expected variance of 0 for single value, got %f", stats.Variance())
	}
	if stats.Median() != 1.5 {
		t.Errorf("Expected median of 1.5, got %f", stats.Median())
	}
	if stats.Wins != 1 || stats.Blackjacks != 1 {
		t.Errorf("Expected 1 win and 1 blackjack, got %d and %d", stats.Wins, stats.Blackjacks)
	}
	if stats.BlackjackNet != 1.5 {
		t.Errorf("Expected blackjack net of 1.5, got %f", stats.BlackjackNet)
	}
	if err := stats.Validate(); err != nil {
		t.Errorf("Unexpected validation error: %v", err)
	}
}

func TestStatistics_MultipleValues(t *testing.T) {
	stats := &Statistics{}
	results := []RoundResult{
		{Net: 1, Outcome: Win, Hands: 1},
		{Net: -1, Outcome: Loss, Hands: 1},
		{Net: 0, Outcome: Push, Hands: 1},
		{Net: 2, Outcome: Win, Hands: 1, Doubles: 1},
		{Net: -2, Outcome: Loss, Hands: 2, Splits: 1},
	}
	for _, r := range results {
		stats.Add(r)
	}

	if stats.Rounds != 5 {
		t.Errorf("Expected 5 rounds, got %d", stats.Rounds)
	}
	if stats.Mean() != 0 {
		t.Errorf("Expected mean of 0, got %f", stats.Mean())
	}
	// Squares sum to 10 over 4 degrees of freedom.
	if math.Abs(stats.Variance()-2.5) > 1e-9 {
		t.Errorf("Expected variance of 2.5, got %f", stats.Variance())
	}
	if math.Abs(stats.StdDev()-math.Sqrt(2.5)) > 1e-9 {
		t.Errorf("Expected stddev of sqrt(2.5), got %f", stats.StdDev())
	}
	if stats.Median() != 0 {
		t.Errorf("Expected median of 0, got %f", stats.Median())
	}
	if stats.Wins != 2 || stats.Losses != 2 || stats.Pushes != 1 {
		t.Errorf("Unexpected outcome counts: %d/%d/%d", stats.Wins, stats.Losses, stats.Pushes)
	}
	if stats.Hands != 6 || stats.Splits != 1 || stats.Doubles != 1 {
		t.Errorf("Unexpected hand counts: hands=%d splits=%d doubles=%d", stats.Hands, stats.Splits, stats.Doubles)
	}
	if stats.SplitNet != -2 || stats.DoubleNet != 2 || stats.PlainNet != 0 {
		t.Errorf("Unexpected source nets: split=%f double=%f plain=%f", stats.SplitNet, stats.DoubleNet, stats.PlainNet)
	}
	if stats.Rate(stats.Wins) != 0.4 {
		t.Errorf("Expected win rate 0.4, got %f", stats.Rate(stats.Wins))
	}
	if err := stats.Validate(); err != nil {
		t.Errorf("Unexpected validation error: %v", err)
	}
}

func TestStatistics_ConfidenceInterval(t *testing.T) {
	stats := &Statistics{}
	for i := range 100 {
		if i%2 == 0 {
			stats.Add(RoundResult{Net: 1, Outcome: Win, Hands: 1})
		} else {
			stats.Add(RoundResult{Net: -1, Outcome: Loss, Hands: 1})
		}
	}

	low, high := stats.ConfidenceInterval95()
	if low >= 0 || high <= 0 {
		t.Errorf("Expected interval to straddle zero, got [%f, %f]", low, high)
	}
	if math.Abs(high-low-2*1.96*stats.StdError()) > 1e-9 {
		t.Errorf("Interval width does not match standard error")
	}
}

func TestStatistics_Percentile(t *testing.T) {
	stats := &Statistics{}
	for _, v := range []float64{-1, 0, 1, 2, 3} {
		stats.Add(RoundResult{Net: v, Outcome: Win, Hands: 1})
	}

	tests := []struct {
		p    float64
		want float64
	}{
		{0, -1},
		{0.25, 0},
		{0.5, 1},
		{0.875, 2.5},
		{1, 3},
	}
	for _, tt := range tests {
		if got := stats.Percentile(tt.p); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Percentile(%v) = %f, want %f", tt.p, got, tt.want)
		}
	}
}

func TestStatistics_Voided(t *testing.T) {
	stats := &Statistics{}
	stats.Add(RoundResult{Net: 1, Outcome: Win, Hands: 1})
	stats.Add(RoundResult{Voided: true, Net: 5})

	if stats.Rounds != 1 || stats.Voided != 1 {
		t.Errorf("Expected 1 round and 1 voided, got %d and %d", stats.Rounds, stats.Voided)
	}
	if stats.SumNet != 1 {
		t.Errorf("Voided round leaked into net: %f", stats.SumNet)
	}
}

func TestStatistics_Validate(t *testing.T) {
	valid := func() *Statistics {
		s := &Statistics{}
		s.Add(RoundResult{Net: 1, Outcome: Win, Hands: 1})
		s.Add(RoundResult{Net: -1, Outcome: Loss, Hands: 2, Splits: 1})
		return s
	}

	tests := []struct {
		name    string
		mutate  func(s *Statistics)
		wantErr string
	}{
		{"ledger", func(s *Statistics) { s.PlainNet += 3 }, "ledger mismatch"},
		{"values", func(s *Statistics) { s.Values = s.Values[:1] }, "values array length"},
		{"outcomes", func(s *Statistics) { s.Pushes++ }, "outcomes total"},
		{"blackjacks", func(s *Statistics) { s.Blackjacks = 3 }, "blackjacks"},
		{"hands", func(s *Statistics) { s.Hands = 2 }, "hands"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			if err := s.Validate(); err != nil {
				t.Fatalf("Baseline failed validation: %v", err)
			}
			tt.mutate(s)
			err := s.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
