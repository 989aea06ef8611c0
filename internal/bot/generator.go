package bot

import (
	"sort"

	"bigtwo/internal/domain"
)

// Candidate is one legal play with its classification attached so policies
// can rank candidates without reclassifying.
type Candidate struct {
	Cards []domain.Card
	Class domain.HandClass
}

// LegalMoves enumerates every play the rules engine would accept for the
// given seat: valid combinations from the hand that beat the open target
// hand, honoring the opening-card requirement on the game's first move.
// An empty result means the seat can only pass.
func LegalMoves(game *domain.Game, seat int) []Candidate {
	hand := append([]domain.Card(nil), game.Seats[seat].Hand...)
	domain.SortHand(hand)

	target := domain.Classify(game.LastValidHand)

	var out []Candidate
	collect := func(cards []domain.Card) {
		class := domain.Classify(cards)
		if class.Type == domain.Invalid {
			return
		}
		if !domain.Beats(class, target) {
			return
		}
		if game.FirstMove && !containsSeed(cards) {
			return
		}
		out = append(out, Candidate{Cards: cards, Class: class})
	}

	for _, single := range subsetsOfSize(hand, 1) {
		collect(single)
	}
	for _, pair := range subsetsOfSize(hand, 2) {
		collect(pair)
	}
	for _, triple := range subsetsOfSize(hand, 3) {
		collect(triple)
	}
	for _, five := range subsetsOfSize(hand, 5) {
		collect(five)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return weightSum(out[i].Cards) < weightSum(out[j].Cards)
	})
	return out
}

// subsetsOfSize enumerates card subsets of exactly size k, preserving the
// hand's sorted order inside each subset. A full hand yields at most
// C(13,5) = 1287 five-card subsets.
func subsetsOfSize(hand []domain.Card, k int) [][]domain.Card {
	if k > len(hand) {
		return nil
	}
	var out [][]domain.Card
	subset := make([]domain.Card, 0, k)

	var walk func(start int)
	walk = func(start int) {
		if len(subset) == k {
			out = append(out, append([]domain.Card(nil), subset...))
			return
		}
		// Not enough cards left to complete the subset.
		if len(hand)-start < k-len(subset) {
			return
		}
		for i := start; i < len(hand); i++ {
			subset = append(subset, hand[i])
			walk(i + 1)
			subset = subset[:len(subset)-1]
		}
	}
	walk(0)
	return out
}

func weightSum(cards []domain.Card) int {
	sum := 0
	for _, c := range cards {
		sum += c.Weight()
	}
	return sum
}

func containsSeed(cards []domain.Card) bool {
	for _, c := range cards {
		if c == domain.SeedingCard {
			return true
		}
	}
	return false
}
