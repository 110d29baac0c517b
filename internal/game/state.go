package game

import "fmt"

// Phase is the client-facing stage of a round.
type Phase uint8

const (
	PhaseNone Phase = iota
	PhaseLoading
	PhaseBetting
	PhaseShuffling
	PhaseInitGame
	PhaseMainTurn
	PhaseMainStandRewardsTransit
	PhaseMainStand
	PhaseSplitFinish
	PhaseRestartGame
)

var phaseNames = []string{
	"NONE",
	"LOADING",
	"BETTING",
	"SHUFFLING",
	"INIT_GAME",
	"MAIN_TURN",
	"MAIN_STAND_REWARDS_TRANSIT",
	"MAIN_STAND",
	"SPLIT_FINISH",
	"RESTART_GAME",
}

func (p Phase) String() string { return enumString("Phase", int(p), phaseNames) }

func (p Phase) MarshalText() ([]byte, error) { return enumMarshal("phase", int(p), phaseNames) }

func (p *Phase) UnmarshalText(text []byte) error {
	v, err := enumParse("phase", string(text), phaseNames)
	*p = Phase(v)
	return err
}

// HandState classifies a hand's total.
type HandState uint8

const (
	HandNone HandState = iota
	HandUnder21
	HandTwentyOne
	HandBust
	HandBlackjack
)

var handStateNames = []string{"NONE", "UNDER_21", "TWENTY_ONE", "BUST", "BLACKJACK"}

func (s HandState) String() string { return enumString("HandState", int(s), handStateNames) }

func (s HandState) MarshalText() ([]byte, error) {
	return enumMarshal("hand state", int(s), handStateNames)
}

func (s *HandState) UnmarshalText(text []byte) error {
	v, err := enumParse("hand state", string(text), handStateNames)
	*s = HandState(v)
	return err
}

// Natural is the natural-blackjack outcome frozen when a round is dealt.
type Natural uint8

const (
	NaturalNone Natural = iota
	NaturalPlayerBlackjack
	NaturalDealerBlackjack
	NaturalPush
)

var naturalNames = []string{"NONE", "PLAYER_BLACKJACK", "DEALER_BLACKJACK", "PUSH"}

func (n Natural) String() string { return enumString("Natural", int(n), naturalNames) }

func (n Natural) MarshalText() ([]byte, error) { return enumMarshal("natural", int(n), naturalNames) }

func (n *Natural) UnmarshalText(text []byte) error {
	v, err := enumParse("natural", string(text), naturalNames)
	*n = Natural(v)
	return err
}

// EndsTurn reports whether the natural leaves the player nothing to decide.
func (n Natural) EndsTurn() bool {
	return n == NaturalPlayerBlackjack || n == NaturalPush
}

// favours reports whether the natural makes side's two-card 21 a blackjack.
func (n Natural) favours(side Side) bool {
	if n == NaturalPush {
		return true
	}
	if side == PlayerSide {
		return n == NaturalPlayerBlackjack
	}
	return n == NaturalDealerBlackjack
}

// dealerHolds reports whether the dealer was dealt a natural.
func (n Natural) dealerHolds() bool {
	return n == NaturalDealerBlackjack || n == NaturalPush
}

// Winner is the showdown result of the active hand against the dealer.
type Winner uint8

const (
	WinnerNone Winner = iota
	WinnerPush
	WinnerPlayerLost
	WinnerPlayerWon
	WinnerDealerWon
)

var winnerNames = []string{"NONE", "PUSH", "PLAYER_LOST", "PLAYER_WON", "DEALER_WON"}

func (w Winner) String() string { return enumString("Winner", int(w), winnerNames) }

func (w Winner) MarshalText() ([]byte, error) { return enumMarshal("winner", int(w), winnerNames) }

func (w *Winner) UnmarshalText(text []byte) error {
	v, err := enumParse("winner", string(text), winnerNames)
	*w = Winner(v)
	return err
}

// Side identifies whose hand is being classified.
type Side uint8

const (
	PlayerSide Side = iota
	DealerSide
)

func enumString(kind string, v int, names []string) string {
	if v >= 0 && v < len(names) {
		return names[v]
	}
	return fmt.Sprintf("%s(%d)", kind, v)
}

func enumMarshal(kind string, v int, names []string) ([]byte, error) {
	if v < 0 || v >= len(names) {
		return nil, fmt.Errorf("invalid %s %d", kind, v)
	}
	return []byte(names[v]), nil
}

func enumParse(kind, s string, names []string) (int, error) {
	for i, name := range names {
		if name == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown %s %q", ErrCorruptState, kind, s)
}
