package game

import (
	"cmp"
	"slices"

	"github.com/lox/blackjack/internal/deck"
)

// MaxPooledHands is the largest pool that still accepts another split.
const MaxPooledHands = 3

// slot is one hand id known to the round. pooled slots hold the hand while
// it waits in the split pool.
type slot struct {
	hand     Hand
	resolved bool
	pooled   bool
	seq      int
}

// arena unifies the split pool and the resolution index, keyed by hand id,
// with ids kept sorted for next-unresolved lookups.
type arena struct {
	slots map[string]*slot
	ids   []string
	seq   int
}

func newArena() arena {
	return arena{slots: make(map[string]*slot)}
}

func (a *arena) track(id string) *slot {
	if s, ok := a.slots[id]; ok {
		return s
	}
	s := &slot{}
	a.slots[id] = s
	i, _ := slices.BinarySearch(a.ids, id)
	a.ids = slices.Insert(a.ids, i, id)
	return s
}

func (a *arena) setResolved(id string, resolved bool) {
	a.track(id).resolved = resolved
}

// file puts h into the pool, carrying its resolved flag into the index.
func (a *arena) file(h Hand) {
	s := a.track(h.ID)
	s.hand = h.clone()
	s.resolved = h.Resolved
	s.pooled = true
	a.seq++
	s.seq = a.seq
}

func (a *arena) take(id string) (Hand, bool) {
	s, ok := a.slots[id]
	if !ok || !s.pooled {
		return Hand{}, false
	}
	s.pooled = false
	h := s.hand
	s.hand = Hand{}
	return h, true
}

func (a *arena) pooled() []*slot {
	var out []*slot
	for _, id := range a.ids {
		if s := a.slots[id]; s.pooled {
			out = append(out, s)
		}
	}
	return out
}

func (a *arena) pooledCount() int {
	return len(a.pooled())
}

func (a *arena) hasUnresolvedPooled() bool {
	for _, s := range a.pooled() {
		if !s.resolved {
			return true
		}
	}
	return false
}

func (a *arena) nextUnresolved() (string, bool) {
	for _, id := range a.ids {
		if !a.slots[id].resolved {
			return id, true
		}
	}
	return "", false
}

// first returns the earliest-filed pooled hand id.
func (a *arena) first() (string, bool) {
	var best *slot
	var bestID string
	for _, id := range a.ids {
		s := a.slots[id]
		if s.pooled && (best == nil || s.seq < best.seq) {
			best, bestID = s, id
		}
	}
	return bestID, best != nil
}

// pool returns copies of the pooled hands, unresolved first, then by id.
func (a *arena) pool() []Hand {
	hands := []Hand{}
	for _, s := range a.pooled() {
		h := s.hand.clone()
		h.Resolved = s.resolved
		hands = append(hands, h)
	}
	slices.SortStableFunc(hands, func(x, y Hand) int {
		if x.Resolved != y.Resolved {
			if x.Resolved {
				return 1
			}
			return -1
		}
		return cmp.Compare(x.ID, y.ID)
	})
	return hands
}

func (a *arena) index() map[string]bool {
	idx := make(map[string]bool, len(a.slots))
	for id, s := range a.slots {
		idx[id] = s.resolved
	}
	return idx
}

// Split breaks the active pair into two hands. The active hand keeps its id
// and first card and draws a second; the other card waits in the pool under
// a new id.
func (r *Round) Split() error {
	if !r.active {
		return ErrRoundInactive
	}
	if r.phase == PhaseSplitFinish {
		return ErrHandFinished
	}
	if !r.splitAllowed(r.player.Cards) {
		return ErrNotSplittable
	}
	if r.arena.pooledCount() > MaxPooledHands {
		return ErrSplitPoolFull
	}
	if err := r.require(1); err != nil {
		return err
	}

	first, second := r.player.Cards[0], r.player.Cards[1]
	keptID := r.player.ID
	pooledID := r.nextHandID()

	kept := Hand{ID: keptID, Cards: []deck.Card{first, r.draw()}, Bet: r.bet}
	other := Hand{ID: pooledID, Cards: []deck.Card{second}, Bet: r.bet}
	r.recompute(&kept)
	r.recompute(&other)

	r.player = kept
	r.arena.setResolved(keptID, false)
	r.arena.file(other)
	r.splitReq++
	r.phase = PhaseMainTurn
	return nil
}

// MarkActiveResolved files the finished active hand into the pool while
// other split hands still wait to act. It reports whether the hand was
// filed; when nothing is waiting the split sequence is finished and the
// active hand is the last to act.
func (r *Round) MarkActiveResolved() (bool, error) {
	if !r.active {
		return false, ErrRoundInactive
	}
	if !r.arena.hasUnresolvedPooled() {
		if r.handCounter > 1 {
			r.phase = PhaseSplitFinish
			r.arena.setResolved(r.player.ID, true)
			r.snapshot = nil
		}
		return false, nil
	}
	r.player.Resolved = true
	r.arena.file(r.player)
	return true, nil
}

// NextUnresolvedID returns the smallest hand id that has not finished acting.
func (r *Round) NextUnresolvedID() (string, bool) {
	return r.arena.nextUnresolved()
}

// ActivateNext makes the smallest unresolved split hand active, dealing its
// second card. Repeating the call before that hand resolves returns the same
// hand without drawing again.
func (r *Round) ActivateNext() (Hand, error) {
	if !r.active {
		return Hand{}, ErrRoundInactive
	}
	id, ok := r.arena.nextUnresolved()
	if !ok {
		return Hand{}, ErrNoPendingHands
	}
	if r.arena.pooledCount() == 0 && (r.snapshot == nil || r.snapshot.ID != id) {
		return Hand{}, ErrNoPendingHands
	}

	switch {
	case r.player.ID == id:
	case r.snapshot != nil && r.snapshot.ID == id:
		r.player = r.snapshot.clone()
		r.winner = WinnerNone
		r.phase = PhaseMainTurn
	default:
		s, ok := r.arena.slots[id]
		if !ok || !s.pooled {
			return Hand{}, ErrNoPendingHands
		}
		if len(s.hand.Cards) < 2 {
			if err := r.require(1); err != nil {
				return Hand{}, err
			}
		}
		h, _ := r.arena.take(id)
		r.splitReq--
		if len(h.Cards) < 2 {
			h.Cards = append(h.Cards, r.draw())
		}
		r.recompute(&h)
		r.player = h
		r.winner = WinnerNone
		snap := h.clone()
		r.snapshot = &snap
		r.phase = PhaseMainTurn
	}
	return r.player.clone(), nil
}

// DrainFirstPending makes the earliest-filed pooled hand active so it can be
// settled. Every hand must have finished acting and the active hand must
// already be paid.
func (r *Round) DrainFirstPending() (Hand, error) {
	if !r.active {
		return Hand{}, ErrRoundInactive
	}
	id, ok := r.arena.first()
	if !ok {
		return Hand{}, ErrNoPendingHands
	}
	if _, waiting := r.arena.nextUnresolved(); waiting {
		return Hand{}, ErrHandsWaiting
	}
	if !r.rewarded || r.player.Bet > 0 {
		return Hand{}, ErrHandUnsettled
	}
	h, _ := r.arena.take(id)
	r.player = h
	r.winner = WinnerNone
	r.phase = PhaseSplitFinish
	return r.player.clone(), nil
}

// Pending returns the split pool, unresolved hands first, then by id.
func (r *Round) Pending() []Hand {
	return r.arena.pool()
}
