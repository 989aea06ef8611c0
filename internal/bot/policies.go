package bot

import (
	"bigtwo/internal/domain"
)

// GreedyPolicy plays the weakest legal candidate every turn and never passes
// while a legal move exists.
type GreedyPolicy struct{}

func (p *GreedyPolicy) SelectMove(game *domain.Game, seat int) Move {
	moves := LegalMoves(game, seat)
	if len(moves) == 0 {
		return Move{Pass: true}
	}
	return Move{Cards: moves[0].Cards}
}

// HoldbackPolicy plays like GreedyPolicy but keeps its Twos in reserve while
// any other legal move exists.
type HoldbackPolicy struct{}

func (p *HoldbackPolicy) SelectMove(game *domain.Game, seat int) Move {
	moves := LegalMoves(game, seat)
	if len(moves) == 0 {
		return Move{Pass: true}
	}
	for _, cand := range moves {
		if !containsTwo(cand.Cards) {
			return Move{Cards: cand.Cards}
		}
	}
	return Move{Cards: moves[0].Cards}
}

// ShedPolicy maximizes cards shed per turn: it prefers the largest legal
// candidate and breaks size ties with the weakest one. LegalMoves already
// orders candidates weakest first, so the first candidate of the largest
// size wins.
type ShedPolicy struct{}

func (p *ShedPolicy) SelectMove(game *domain.Game, seat int) Move {
	moves := LegalMoves(game, seat)
	if len(moves) == 0 {
		return Move{Pass: true}
	}
	best := moves[0]
	for _, cand := range moves[1:] {
		if len(cand.Cards) > len(best.Cards) {
			best = cand
		}
	}
	return Move{Cards: best.Cards}
}

func containsTwo(cards []domain.Card) bool {
	for _, c := range cards {
		if c.Rank == domain.RankTwo {
			return true
		}
	}
	return false
}
