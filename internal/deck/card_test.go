package deck

import "testing"

func TestCardEncoding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		card Card
		rank Rank
		suit Suit
		text string
	}{
		{"lowest card", Card(1), Two, Spades, "2s"},
		{"two of clubs", Card(4), Two, Clubs, "2c"},
		{"three of spades", Card(5), Three, Spades, "3s"},
		{"ten of diamonds", Card(35), Ten, Diamonds, "Td"},
		{"ace of spades", Card(49), Ace, Spades, "As"},
		{"highest card", Card(52), Ace, Clubs, "Ac"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.card.Valid() {
				t.Fatalf("card %d should be valid", byte(tt.card))
			}
			if got := tt.card.Rank(); got != tt.rank {
				t.Errorf("Rank() = %v, want %v", got, tt.rank)
			}
			if got := tt.card.Suit(); got != tt.suit {
				t.Errorf("Suit() = %v, want %v", got, tt.suit)
			}
			if got := tt.card.Text(); string(got[:]) != tt.text {
				t.Errorf("Text() = %q, want %q", got, tt.text)
			}
		})
	}
}

func TestCardRoundTrip(t *testing.T) {
	t.Parallel()

	for c := Card(1); c <= 52; c++ {
		if got := New(c.Rank(), c.Suit()); got != c {
			t.Fatalf("New(%v, %v) = %d, want %d", c.Rank(), c.Suit(), byte(got), byte(c))
		}
	}
}

func TestCardValidity(t *testing.T) {
	t.Parallel()

	if Card(0).Valid() {
		t.Error("card 0 should be invalid")
	}
	if Card(53).Valid() {
		t.Error("card 53 should be invalid")
	}
}

func TestStandardDeck(t *testing.T) {
	t.Parallel()

	cards := Standard()
	if len(cards) != 52 {
		t.Fatalf("Standard() has %d cards, want 52", len(cards))
	}

	seen := make(map[Card]bool)
	for i, c := range cards {
		if c != Card(i+1) {
			t.Errorf("card at %d is %d, want %d", i, byte(c), i+1)
		}
		if seen[c] {
			t.Errorf("duplicate card %v", c)
		}
		seen[c] = true
	}
}

func TestAlphabets(t *testing.T) {
	t.Parallel()

	ranks := ""
	for r := Two; r <= Ace; r++ {
		ranks += string(r.Char())
	}
	if ranks != "23456789TJQKA" {
		t.Errorf("rank alphabet = %q", ranks)
	}

	suits := ""
	for s := Spades; s <= Clubs; s++ {
		suits += string(s.Char())
	}
	if suits != "shdc" {
		t.Errorf("suit alphabet = %q", suits)
	}
}
