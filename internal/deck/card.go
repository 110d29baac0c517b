package deck

import (
	"fmt"
	"strings"
)

// Suit represents a card suit
type Suit int

const (
	Hearts Suit = iota + 1
	Diamonds
	Clubs
	Spades
)

// Suits lists the suits in shoe construction order.
var Suits = []Suit{Hearts, Diamonds, Clubs, Spades}

// String returns the string representation of a suit
func (s Suit) String() string {
	switch s {
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	case Spades:
		return "♠"
	default:
		return "?"
	}
}

// IsRed returns true if the suit is red (Hearts or Diamonds)
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// Rank represents a card rank. Aces are low; blackjack scoring decides
// whether they count as 1 or 11.
type Rank int

const (
	Ace Rank = iota + 1
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

// String returns the string representation of a rank
func (r Rank) String() string {
	switch r {
	case Ace:
		return "A"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	}
	if r >= Two && r <= Ten {
		return fmt.Sprintf("%d", int(r))
	}
	return "?"
}

// Points returns the blackjack value of the rank with aces counted as 1.
func (r Rank) Points() int {
	if r >= Ten {
		return 10
	}
	return int(r)
}

// IsTenValue reports whether the rank is a ten or a face card.
func (r Rank) IsTenValue() bool {
	return r >= Ten && r <= King
}

// HiddenToken is the wire form of a face-down card.
const HiddenToken = "✪"

// Card represents a playing card. The zero Card is the face-down
// placeholder shown in place of the dealer's hole card.
type Card struct {
	Suit Suit
	Rank Rank
}

// Hidden is the face-down placeholder card.
var Hidden = Card{}

// NewCard creates a new card
func NewCard(suit Suit, rank Rank) Card {
	return Card{Suit: suit, Rank: rank}
}

// IsHidden reports whether c is the face-down placeholder.
func (c Card) IsHidden() bool {
	return c == Hidden
}

// String returns the wire token of a card, suit first (e.g. "♥K", "♣10").
func (c Card) String() string {
	if c.IsHidden() {
		return HiddenToken
	}
	return c.Suit.String() + c.Rank.String()
}

// IsRed returns true if the card is red
func (c Card) IsRed() bool {
	return c.Suit.IsRed()
}

// IsAce returns true if the card is an Ace
func (c Card) IsAce() bool {
	return c.Rank == Ace
}

// MarshalText encodes the card as its wire token.
func (c Card) MarshalText() ([]byte, error) {
	if !c.IsHidden() && (c.Suit < Hearts || c.Suit > Spades || c.Rank < Ace || c.Rank > King) {
		return nil, fmt.Errorf("invalid card: suit=%d rank=%d", c.Suit, c.Rank)
	}
	return []byte(c.String()), nil
}

// UnmarshalText decodes a wire token such as "♠A" or "♦10".
func (c *Card) UnmarshalText(text []byte) error {
	card, err := ParseToken(string(text))
	if err != nil {
		return err
	}
	*c = card
	return nil
}

// ParseToken parses a single suit-first wire token.
func ParseToken(token string) (Card, error) {
	if token == HiddenToken {
		return Hidden, nil
	}
	for _, suit := range Suits {
		sym := suit.String()
		if !strings.HasPrefix(token, sym) {
			continue
		}
		rank, err := parseRank(strings.TrimPrefix(token, sym))
		if err != nil {
			return Card{}, fmt.Errorf("card %q: %w", token, err)
		}
		return NewCard(suit, rank), nil
	}
	return Card{}, fmt.Errorf("card %q: unknown suit", token)
}

func parseRank(s string) (Rank, error) {
	switch strings.ToUpper(s) {
	case "A":
		return Ace, nil
	case "J":
		return Jack, nil
	case "Q":
		return Queen, nil
	case "K":
		return King, nil
	case "T", "10":
		return Ten, nil
	}
	if len(s) == 1 && s[0] >= '2' && s[0] <= '9' {
		return Rank(s[0] - '0'), nil
	}
	return 0, fmt.Errorf("unknown rank %q", s)
}

func parseSuit(b byte) (Suit, error) {
	switch b {
	case 'h', 'H':
		return Hearts, nil
	case 'd', 'D':
		return Diamonds, nil
	case 'c', 'C':
		return Clubs, nil
	case 's', 'S':
		return Spades, nil
	}
	return 0, fmt.Errorf("unknown suit %q", b)
}

// ParseCards parses compact rank-suit notation ("AhKdTc") into cards.
// Ten is written as T.
func ParseCards(s string) ([]Card, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("invalid card string length %d", len(s))
	}
	cards := make([]Card, 0, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		rank, err := parseRank(s[i : i+1])
		if err != nil {
			return nil, fmt.Errorf("position %d: %w", i, err)
		}
		suit, err := parseSuit(s[i+1])
		if err != nil {
			return nil, fmt.Errorf("position %d: %w", i+1, err)
		}
		cards = append(cards, NewCard(suit, rank))
	}
	return cards, nil
}

// MustParseCards is ParseCards for tests and fixtures; it panics on error.
func MustParseCards(s string) []Card {
	cards, err := ParseCards(s)
	if err != nil {
		panic(err)
	}
	return cards
}
