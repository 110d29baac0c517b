package game

import (
	rand "math/rand/v2"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/randutil"
)

// Round is the complete state of one player's table: shoe, hands, bets and
// outcome tags. It is not safe for concurrent use.
type Round struct {
	rng     *rand.Rand
	builder func() *deck.Shoe

	shoe   *deck.Shoe
	player Hand
	dealer []deck.Card

	// snapshot is the split hand as it stood right after its activation.
	snapshot    *Hand
	arena       arena
	handCounter int
	splitReq    int

	phase    Phase
	prePhase Phase

	bet     int
	betList []int

	natural           Natural
	winner            Winner
	aces              bool
	active            bool
	rewarded          bool
	unmaskedTotalSent bool
}

// Option configures a Round.
type Option func(*Round)

// WithRand sets the generator used to shuffle new shoes.
func WithRand(rng *rand.Rand) Option {
	return func(r *Round) { r.rng = rng }
}

// WithShoeBuilder replaces shoe construction entirely. Tests use it to stack
// the shoe.
func WithShoeBuilder(fn func() *deck.Shoe) Option {
	return func(r *Round) { r.builder = fn }
}

// New returns an empty round with no shoe, in the LOADING phase.
func New(opts ...Option) *Round {
	r := &Round{}
	r.apply(opts)
	r.reset()
	r.phase = PhaseLoading
	return r
}

func (r *Round) apply(opts []Option) {
	for _, opt := range opts {
		opt(r)
	}
	if r.rng == nil {
		r.rng = randutil.NewFromEntropy()
	}
	if r.builder == nil {
		r.builder = func() *deck.Shoe {
			return deck.BuildShoe(r.rng, deck.DecksPerShoe)
		}
	}
}

// reset discards everything, including the shoe and the bet.
func (r *Round) reset() {
	r.shoe = deck.NewShoe(nil)
	r.bet = 0
	r.betList = []int{}
	r.prePhase = PhaseNone
	r.resetHands()
}

// resetHands clears per-round fields but keeps the shoe and the bet.
func (r *Round) resetHands() {
	r.player = newHand()
	r.dealer = []deck.Card{}
	r.snapshot = nil
	r.arena = newArena()
	r.handCounter = 0
	r.splitReq = 0
	r.natural = NaturalNone
	r.winner = WinnerNone
	r.aces = false
	r.active = false
	r.rewarded = false
	r.unmaskedTotalSent = false
}

func (r *Round) nextHandID() string {
	r.handCounter++
	return handID(r.handCounter)
}

func (r *Round) require(cards int) error {
	if r.shoe.Len() < cards {
		return ErrDeckExhausted
	}
	return nil
}

// draw pops the front card. Callers check require first.
func (r *Round) draw() deck.Card {
	c, ok := r.shoe.Draw()
	if !ok {
		panic("game: draw from an exhausted shoe")
	}
	return c
}

func (r *Round) splitAllowed(cards []deck.Card) bool {
	if r.aces && r.handCounter > 1 {
		return false
	}
	return CanSplit(cards)
}

func (r *Round) recompute(h *Hand) {
	h.Total = Value(h.Cards)
	h.State = Classify(h.Total, PlayerSide, r.natural, len(h.Cards))
	h.CanSplit = r.splitAllowed(h.Cards)
}

// BuildShoe installs a freshly shuffled shoe.
func (r *Round) BuildShoe() error {
	if r.active {
		return ErrRoundActive
	}
	r.shoe = r.builder()
	r.phase = PhaseInitGame
	r.prePhase = PhaseInitGame
	return nil
}

// HandleStart deals a round when the shoe allows it. When the shoe is below
// the reshuffle threshold it moves to SHUFFLING and reports false; the caller
// must build a shoe and start the round.
func (r *Round) HandleStart() (bool, error) {
	if r.active {
		return false, ErrRoundActive
	}
	if r.shoe.Len() < deck.ReshuffleThreshold {
		r.phase = PhaseShuffling
		return false, nil
	}
	if err := r.StartRound(); err != nil {
		return false, err
	}
	return true, nil
}

// StartRound deals player, dealer hole, player, dealer up-card and freezes
// the natural outcome.
func (r *Round) StartRound() error {
	if r.active {
		return ErrRoundActive
	}
	if r.shoe.Len() < deck.ReshuffleThreshold {
		return ErrShuffleRequired
	}

	r.resetHands()
	p1, hole, p2, up := r.draw(), r.draw(), r.draw(), r.draw()
	r.dealer = []deck.Card{hole, up}
	r.natural = NaturalOutcome([]deck.Card{p1, p2}, r.dealer)
	r.aces = p1.IsAce() && p2.IsAce()

	r.player = Hand{ID: r.nextHandID(), Cards: []deck.Card{p1, p2}, Bet: r.bet}
	r.recompute(&r.player)
	r.arena.track(r.player.ID)

	r.active = true
	r.prePhase = PhaseNone
	if r.natural.EndsTurn() {
		r.phase = PhaseMainStand
	} else {
		r.phase = PhaseMainTurn
	}
	return nil
}

// Hit draws one card to the active hand.
func (r *Round) Hit() error {
	return r.hit(false)
}

func (r *Round) hit(double bool) error {
	if !r.active {
		return ErrRoundInactive
	}
	if r.phase == PhaseSplitFinish {
		return ErrHandFinished
	}
	if err := r.require(1); err != nil {
		return err
	}
	r.player.Cards = append(r.player.Cards, r.draw())
	r.player.HitCount++
	r.recompute(&r.player)

	if r.player.Total >= Blackjack || double {
		r.phase = PhaseMainStandRewardsTransit
	} else {
		r.phase = PhaseMainTurn
	}
	return nil
}

// dealerDraws counts the cards the dealer takes to reach 17, or -1 when the
// shoe runs out first.
func (r *Round) dealerDraws() int {
	cards := append([]deck.Card{}, r.dealer...)
	upcoming := r.shoe.Cards()
	n := 0
	for Value(cards) < DealerStandsOn {
		if n >= len(upcoming) {
			return -1
		}
		cards = append(cards, upcoming[n])
		n++
	}
	return n
}

// Stand plays out the dealer and settles the active hand. The dealer only
// draws while the player has not bust, and never while split hands still
// wait to act.
func (r *Round) Stand() error {
	if !r.active {
		return ErrRoundInactive
	}
	if r.arena.hasUnresolvedPooled() {
		return ErrHandsWaiting
	}
	draws := 0
	if r.player.Total <= Blackjack {
		draws = r.dealerDraws()
		if draws < 0 {
			return ErrDeckExhausted
		}
	}
	for range draws {
		r.dealer = append(r.dealer, r.draw())
	}
	r.recompute(&r.player)
	r.winner = DecideWinner(r.player.Total, Value(r.dealer))
	r.phase = PhaseMainStand
	return nil
}

// Clear discards the round, bet and shoe and returns to BETTING.
func (r *Round) Clear() {
	r.reset()
	r.phase = PhaseBetting
}

// Restart discards the round, bet and shoe and enters RESTART_GAME.
func (r *Round) Restart() {
	r.reset()
	r.phase = PhaseRestartGame
}

// Phase reports the current phase. An unset or LOADING phase reads as
// BETTING while no round is live.
func (r *Round) Phase() Phase {
	if r.phase != PhaseNone && r.phase != PhaseLoading {
		return r.phase
	}
	if !r.active {
		return PhaseBetting
	}
	return r.phase
}

// PrePhase reports where the client lands once the pending start decision
// resolves.
func (r *Round) PrePhase() Phase {
	if r.prePhase != PhaseNone {
		return r.prePhase
	}
	if r.active {
		return PhaseInitGame
	}
	n := r.shoe.Len()
	if n == 0 || n == deck.ShoeSize || n < deck.ReshuffleThreshold {
		return PhaseShuffling
	}
	return PhaseInitGame
}

// DeckLen is the shoe size reported to clients: a full shoe when empty.
func (r *Round) DeckLen() int {
	if n := r.shoe.Len(); n > 0 {
		return n
	}
	return deck.ShoeSize
}

// CardsRemaining is the literal number of undealt cards.
func (r *Round) CardsRemaining() int { return r.shoe.Len() }

// IsActive reports whether a round is live.
func (r *Round) IsActive() bool { return r.active }

// HasRewards reports whether the active hand has been paid out.
func (r *Round) HasRewards() bool { return r.rewarded }

// Player returns a copy of the active hand.
func (r *Round) Player() Hand { return r.player.clone() }

// Natural returns the natural outcome frozen at deal.
func (r *Round) Natural() Natural { return r.natural }

// Winner returns the last settled result.
func (r *Round) Winner() Winner { return r.winner }

// Aces reports whether the round opened with a pair of aces.
func (r *Round) Aces() bool { return r.aces }

// SplitRequests is the number of split-off hands not yet activated.
func (r *Round) SplitRequests() int { return r.splitReq }

// DealerUpcard returns the dealer's face-up card.
func (r *Round) DealerUpcard() (deck.Card, bool) {
	if len(r.dealer) < 2 {
		return deck.Card{}, false
	}
	return r.dealer[1], true
}

// CanInsure reports whether the dealer shows an ace.
func (r *Round) CanInsure() bool {
	up, ok := r.DealerUpcard()
	return ok && up.IsAce()
}
