package deck

import (
	"testing"

	"github.com/lox/blackjack/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCards(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Card
		wantErr  bool
	}{
		{
			name:  "blackjack",
			input: "AsKh",
			expected: []Card{
				{Suit: Spades, Rank: Ace},
				{Suit: Hearts, Rank: King},
			},
		},
		{
			name:  "tens and pips",
			input: "Td9c2D",
			expected: []Card{
				{Suit: Diamonds, Rank: Ten},
				{Suit: Clubs, Rank: Nine},
				{Suit: Diamonds, Rank: Two},
			},
		},
		{name: "invalid rank", input: "XsKs", wantErr: true},
		{name: "invalid suit", input: "AsKx", wantErr: true},
		{name: "odd length", input: "AsK", wantErr: true},
		{name: "empty string", input: "", expected: []Card{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCards(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestMustParseCardsPanics(t *testing.T) {
	assert.Panics(t, func() { MustParseCards("invalid") })
}

func TestCardTokens(t *testing.T) {
	tests := []struct {
		card  Card
		token string
	}{
		{NewCard(Hearts, King), "♥K"},
		{NewCard(Clubs, Ten), "♣10"},
		{NewCard(Spades, Ace), "♠A"},
		{NewCard(Diamonds, Seven), "♦7"},
		{Hidden, "✪"},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			text, err := tt.card.MarshalText()
			require.NoError(t, err)
			assert.Equal(t, tt.token, string(text))

			var got Card
			require.NoError(t, got.UnmarshalText(text))
			assert.Equal(t, tt.card, got)
		})
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	for _, token := range []string{"", "K♥", "♥", "♥11", "♥1", "xx"} {
		_, err := ParseToken(token)
		assert.Error(t, err, token)
	}
}

func TestMarshalInvalidCard(t *testing.T) {
	_, err := Card{Suit: Hearts, Rank: 14}.MarshalText()
	assert.Error(t, err)
}

func TestRankPoints(t *testing.T) {
	assert.Equal(t, 1, Ace.Points())
	assert.Equal(t, 9, Nine.Points())
	for _, r := range []Rank{Ten, Jack, Queen, King} {
		assert.Equal(t, 10, r.Points())
		assert.True(t, r.IsTenValue())
	}
	assert.False(t, Nine.IsTenValue())
}

func TestBuildShoe(t *testing.T) {
	shoe := BuildShoe(randutil.New(7), DecksPerShoe)
	require.Equal(t, ShoeSize, shoe.Len())

	counts := make(map[Card]int)
	for _, c := range shoe.Cards() {
		counts[c]++
	}
	assert.Len(t, counts, CardsPerDeck)
	for c, n := range counts {
		assert.Equal(t, DecksPerShoe, n, c.String())
	}
}

func TestBuildShoeDeterministic(t *testing.T) {
	a := BuildShoe(randutil.New(42), DecksPerShoe)
	b := BuildShoe(randutil.New(42), DecksPerShoe)
	c := BuildShoe(randutil.New(43), DecksPerShoe)
	assert.Equal(t, a.Cards(), b.Cards())
	assert.NotEqual(t, a.Cards(), c.Cards())
}

func TestShoeDraw(t *testing.T) {
	shoe := NewShoe(MustParseCards("AhKd"))

	c, ok := shoe.Draw()
	require.True(t, ok)
	assert.Equal(t, NewCard(Hearts, Ace), c)
	assert.Equal(t, 1, shoe.Len())

	_, ok = shoe.Draw()
	require.True(t, ok)
	_, ok = shoe.Draw()
	assert.False(t, ok)

	var empty *Shoe
	assert.Equal(t, 0, empty.Len())
	_, ok = empty.Draw()
	assert.False(t, ok)
}
