package domain

import (
	"fmt"
	"math/rand"
	"sort"
)

// Card is a single playing card. Identity is (Rank, Suit); exactly 52
// distinct cards exist.
type Card struct {
	Rank int `json:"rank"` // 1..13 (1=Ace, 2=Two, 3..13 face value)
	Suit int `json:"suit"` // 0=Diamonds, 1=Clubs, 2=Hearts, 3=Spades
}

const (
	RankAce = 1
	RankTwo = 2
)

const (
	SuitDiamonds = 0
	SuitClubs    = 1
	SuitHearts   = 2
	SuitSpades   = 3
)

// DeckSize is the number of cards in a full deck.
const DeckSize = 52

// SeedingCard is the lowest card in the deck ordering. The seat holding it
// opens the game and must include it in the first play.
var SeedingCard = Card{Rank: 3, Suit: SuitDiamonds}

var rankNames = map[int]string{
	1: "A", 2: "2", 3: "3", 4: "4", 5: "5", 6: "6", 7: "7",
	8: "8", 9: "9", 10: "10", 11: "J", 12: "Q", 13: "K",
}

var suitNames = [4]string{"♦", "♣", "♥", "♠"}

// String renders the card for logs and rejection reasons, e.g. "3♦".
func (c Card) String() string {
	if c.Rank < 1 || c.Rank > 13 || c.Suit < 0 || c.Suit > 3 {
		return fmt.Sprintf("?{%d,%d}", c.Rank, c.Suit)
	}
	return rankNames[c.Rank] + suitNames[c.Suit]
}

// RankWeight maps a rank onto the comparison order used everywhere: ranks
// 3..13 keep their face value, Ace counts 14 and Two counts 15, the single
// highest card.
func RankWeight(rank int) int {
	switch rank {
	case RankAce:
		return 14
	case RankTwo:
		return 15
	default:
		return rank
	}
}

// Weight is the card's position in the canonical ordering: rank weight
// first, suit breaks ties.
func (c Card) Weight() int {
	return RankWeight(c.Rank)*4 + c.Suit
}

// NewDeck returns the full 52-card deck in canonical order.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for w := 3; w <= 15; w++ {
		rank := w
		switch w {
		case 14:
			rank = RankAce
		case 15:
			rank = RankTwo
		}
		for s := 0; s <= 3; s++ {
			deck = append(deck, Card{Rank: rank, Suit: s})
		}
	}
	return deck
}

// Shuffle permutes the deck in place using the provided rng.
func Shuffle(deck []Card, rng *rand.Rand) {
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
}

// SortHand orders cards ascending by the canonical ordering.
func SortHand(cards []Card) {
	sort.Slice(cards, func(i, j int) bool {
		return cards[i].Weight() < cards[j].Weight()
	})
}

// OwnsCards reports whether every proposed card can be matched against the
// hand with sufficient multiplicity. Proposing the same physical card twice
// fails even when the (rank, suit) pair is nominally owned once.
func OwnsCards(hand, proposed []Card) bool {
	mult := make(map[Card]int, len(hand))
	for _, c := range hand {
		mult[c]++
	}
	for _, c := range proposed {
		if mult[c] <= 0 {
			return false
		}
		mult[c]--
	}
	return true
}

// RemoveCards removes the specified cards from a hand and returns the
// updated hand. Multiplicity-aware: each played card consumes one match.
func RemoveCards(hand, toRemove []Card) []Card {
	if len(toRemove) == 0 || len(hand) == 0 {
		return hand
	}

	removeCounts := make(map[Card]int, len(toRemove))
	for _, card := range toRemove {
		removeCounts[card]++
	}

	updated := make([]Card, 0, len(hand))
	for _, card := range hand {
		if count, ok := removeCounts[card]; ok && count > 0 {
			removeCounts[card] = count - 1
			continue
		}
		updated = append(updated, card)
	}

	return updated
}
