package deck

import rand "math/rand/v2"

const (
	// CardsPerDeck is the size of a single standard deck.
	CardsPerDeck = 52
	// DecksPerShoe is the number of decks shuffled together for play.
	DecksPerShoe = 2
	// ShoeSize is the number of cards in a freshly built shoe.
	ShoeSize = CardsPerDeck * DecksPerShoe
	// ReshuffleThreshold is the shoe size below which a new shoe is required.
	ReshuffleThreshold = 60
)

// Shoe is an ordered stack of cards drawn from the front.
type Shoe struct {
	cards []Card
}

// NewShoe wraps cards in draw order. Tests use it to stack the shoe.
func NewShoe(cards []Card) *Shoe {
	return &Shoe{cards: append([]Card(nil), cards...)}
}

// BuildShoe returns decks standard decks shuffled together with rng.
func BuildShoe(rng *rand.Rand, decks int) *Shoe {
	cards := make([]Card, 0, decks*CardsPerDeck)
	for range decks {
		for _, suit := range Suits {
			for rank := Ace; rank <= King; rank++ {
				cards = append(cards, NewCard(suit, rank))
			}
		}
	}
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return &Shoe{cards: cards}
}

// Draw removes and returns the front card.
func (s *Shoe) Draw() (Card, bool) {
	if s == nil || len(s.cards) == 0 {
		return Card{}, false
	}
	card := s.cards[0]
	s.cards = s.cards[1:]
	return card, true
}

// Len returns the number of cards left.
func (s *Shoe) Len() int {
	if s == nil {
		return 0
	}
	return len(s.cards)
}

// Cards returns a copy of the remaining cards in draw order.
func (s *Shoe) Cards() []Card {
	if s == nil {
		return nil
	}
	return append([]Card(nil), s.cards...)
}
