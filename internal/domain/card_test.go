package domain

import (
	"math/rand"
	"testing"
)

func TestNewDeckHas52DistinctCards(t *testing.T) {
	deck := NewDeck()
	if len(deck) != DeckSize {
		t.Fatalf("deck size = %d, want %d", len(deck), DeckSize)
	}
	seen := make(map[Card]bool, DeckSize)
	for _, c := range deck {
		if seen[c] {
			t.Fatalf("duplicate card %v in deck", c)
		}
		seen[c] = true
	}
	if deck[0] != SeedingCard {
		t.Fatalf("lowest deck card = %v, want %v", deck[0], SeedingCard)
	}
}

func TestShufflePreservesDeck(t *testing.T) {
	deck := NewDeck()
	Shuffle(deck, rand.New(rand.NewSource(7)))
	if len(deck) != DeckSize {
		t.Fatalf("shuffled deck size = %d, want %d", len(deck), DeckSize)
	}
	seen := make(map[Card]bool, DeckSize)
	for _, c := range deck {
		seen[c] = true
	}
	if len(seen) != DeckSize {
		t.Fatalf("shuffle lost cards: %d distinct, want %d", len(seen), DeckSize)
	}
}

func TestRankWeight(t *testing.T) {
	tests := []struct {
		rank int
		want int
	}{
		{RankAce, 14},
		{RankTwo, 15},
		{3, 3},
		{13, 13},
	}
	for _, tt := range tests {
		if got := RankWeight(tt.rank); got != tt.want {
			t.Errorf("RankWeight(%d) = %d, want %d", tt.rank, got, tt.want)
		}
	}
}

func TestSortHandCanonicalOrder(t *testing.T) {
	hand := []Card{
		{Rank: RankTwo, Suit: 0},
		{Rank: 3, Suit: 3},
		{Rank: RankAce, Suit: 1},
		{Rank: 3, Suit: 0},
	}
	SortHand(hand)
	want := []Card{
		{Rank: 3, Suit: 0},
		{Rank: 3, Suit: 3},
		{Rank: RankAce, Suit: 1},
		{Rank: RankTwo, Suit: 0},
	}
	for i, c := range want {
		if hand[i] != c {
			t.Fatalf("hand[%d] = %v, want %v", i, hand[i], c)
		}
	}
}

func TestOwnsCards(t *testing.T) {
	hand := []Card{{Rank: 3, Suit: 0}, {Rank: 3, Suit: 1}}

	tests := []struct {
		name     string
		proposed []Card
		want     bool
	}{
		{
			name:     "BothOwned",
			proposed: []Card{{Rank: 3, Suit: 0}, {Rank: 3, Suit: 1}},
			want:     true,
		},
		{
			name:     "SamePhysicalCardTwice",
			proposed: []Card{{Rank: 3, Suit: 0}, {Rank: 3, Suit: 0}},
			want:     false,
		},
		{
			name:     "NotInHand",
			proposed: []Card{{Rank: 4, Suit: 0}},
			want:     false,
		},
		{
			name:     "EmptyProposal",
			proposed: nil,
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OwnsCards(hand, tt.proposed); got != tt.want {
				t.Errorf("OwnsCards() = %t, want %t", got, tt.want)
			}
		})
	}
}

func TestRemoveCards(t *testing.T) {
	hand := []Card{{Rank: 3, Suit: 0}, {Rank: 5, Suit: 1}, {Rank: 9, Suit: 2}}
	got := RemoveCards(hand, []Card{{Rank: 5, Suit: 1}})
	if len(got) != 2 {
		t.Fatalf("hand size after removal = %d, want 2", len(got))
	}
	for _, c := range got {
		if c == (Card{Rank: 5, Suit: 1}) {
			t.Fatalf("removed card still present")
		}
	}
}
