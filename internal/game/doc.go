// Package game implements the server-authoritative blackjack round engine.
//
// The main type is Round, which holds the whole truth of one player's table:
// the shoe, the active hand, the dealer's hand, split hands waiting to act,
// bets and the outcome tags. Every operation either applies completely or
// returns a *RuleError and leaves the round untouched.
//
// # Basic Usage
//
//	r := game.New(game.WithRand(randutil.New(42)))
//	_ = r.PlaceBet(10)
//	_ = r.BuildShoe()
//	_ = r.StartRound()
//	_ = r.Hit()
//	_ = r.Stand()
//	payout, _ := r.Rewards()
//
// # Projections
//
// Clients never see the Round directly. After an operation the caller asks
// for the projection that belongs to it:
//
//	view := r.View(game.OpHit)
//
// Projections show the dealer's hole card only once the hand is settled or
// insurance has exposed a dealer natural.
//
// # Persistence
//
// Round implements json.Marshaler with a full-fidelity encoding, shoe order
// and hole card included, for storage only. Restore reverses it and rejects
// any blob that is missing a field or contradicts itself with
// ErrCorruptState. Restoring and re-encoding yields identical bytes.
//
// # Split Hands
//
// Splitting moves the second card into a pool under a new sequential id
// (H-002, H-003, ...). The client finishes the active hand with
// MarkActiveResolved, brings the next unresolved hand in with ActivateNext,
// and after settling it collects the earlier hands one by one with
// DrainFirstPending. The dealer does not play, and no hand is paid or
// drained, while any split hand is still waiting to act.
package game
