package bot

import (
	"testing"

	"bigtwo/internal/domain"
)

func TestGreedyPolicyPlaysWeakest(t *testing.T) {
	hands := [domain.NumSeats][]domain.Card{
		{card(4, domain.SuitDiamonds), card(10, domain.SuitSpades), card(2, domain.SuitDiamonds)},
		{card(5, domain.SuitClubs)},
		{card(6, domain.SuitClubs)},
		{card(7, domain.SuitClubs)},
	}
	g := newGame(hands)
	g.LastValidHand = []domain.Card{card(9, domain.SuitHearts)}

	move := (&GreedyPolicy{}).SelectMove(g, 0)
	if move.Pass {
		t.Fatal("passed with legal moves available")
	}
	if len(move.Cards) != 1 || move.Cards[0] != card(10, domain.SuitSpades) {
		t.Fatalf("move = %v, want the ten of spades", move.Cards)
	}
}

func TestGreedyPolicyPassesWithoutLegalMove(t *testing.T) {
	hands := [domain.NumSeats][]domain.Card{
		{card(4, domain.SuitDiamonds)},
		{card(5, domain.SuitClubs)},
		{card(6, domain.SuitClubs)},
		{card(7, domain.SuitClubs)},
	}
	g := newGame(hands)
	g.LastValidHand = []domain.Card{card(2, domain.SuitSpades)}

	move := (&GreedyPolicy{}).SelectMove(g, 0)
	if !move.Pass {
		t.Fatalf("move = %v, want pass", move.Cards)
	}
}

func TestHoldbackPolicyKeepsTwos(t *testing.T) {
	hands := [domain.NumSeats][]domain.Card{
		{card(2, domain.SuitDiamonds), card(13, domain.SuitSpades)},
		{card(5, domain.SuitClubs)},
		{card(6, domain.SuitClubs)},
		{card(7, domain.SuitClubs)},
	}
	g := newGame(hands)
	g.LastValidHand = []domain.Card{card(12, domain.SuitHearts)}

	move := (&HoldbackPolicy{}).SelectMove(g, 0)
	if move.Pass {
		t.Fatal("passed with legal moves available")
	}
	if move.Cards[0] != card(13, domain.SuitSpades) {
		t.Fatalf("move = %v, want the king over the two", move.Cards)
	}
}

func TestHoldbackPolicySpendsTwoWhenForced(t *testing.T) {
	hands := [domain.NumSeats][]domain.Card{
		{card(2, domain.SuitDiamonds), card(4, domain.SuitClubs)},
		{card(5, domain.SuitClubs)},
		{card(6, domain.SuitClubs)},
		{card(7, domain.SuitClubs)},
	}
	g := newGame(hands)
	g.LastValidHand = []domain.Card{card(1, domain.SuitSpades)}

	move := (&HoldbackPolicy{}).SelectMove(g, 0)
	if move.Pass {
		t.Fatal("passed while holding the only beating card")
	}
	if move.Cards[0] != card(2, domain.SuitDiamonds) {
		t.Fatalf("move = %v, want the two of diamonds", move.Cards)
	}
}

func TestShedPolicyPrefersLargerCombos(t *testing.T) {
	hands := [domain.NumSeats][]domain.Card{
		{card(4, domain.SuitDiamonds), card(4, domain.SuitClubs), card(9, domain.SuitHearts)},
		{card(5, domain.SuitClubs)},
		{card(6, domain.SuitClubs)},
		{card(7, domain.SuitClubs)},
	}
	g := newGame(hands)

	move := (&ShedPolicy{}).SelectMove(g, 0)
	if move.Pass {
		t.Fatal("passed on a free lead")
	}
	if len(move.Cards) != 2 {
		t.Fatalf("move = %v, want the pair of fours", move.Cards)
	}
}

func TestNewPolicyLevels(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelEasy, "*bot.GreedyPolicy"},
		{LevelMedium, "*bot.HoldbackPolicy"},
		{LevelHard, "*bot.ShedPolicy"},
	}
	for _, tc := range tests {
		p, err := NewPolicy(tc.level)
		if err != nil {
			t.Fatalf("NewPolicy(%d): %v", tc.level, err)
		}
		if got := typeName(p); got != tc.want {
			t.Errorf("NewPolicy(%d) = %s, want %s", tc.level, got, tc.want)
		}
	}

	if _, err := NewPolicy(Level(99)); err == nil {
		t.Error("expected error for unknown level")
	}
}

func typeName(v interface{}) string {
	switch v.(type) {
	case *GreedyPolicy:
		return "*bot.GreedyPolicy"
	case *HoldbackPolicy:
		return "*bot.HoldbackPolicy"
	case *ShedPolicy:
		return "*bot.ShedPolicy"
	default:
		return "unknown"
	}
}
