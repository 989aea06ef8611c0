package bot

import (
	"bigtwo/internal/domain"
)

// Move is a decision produced by a policy: either a pass or a set of cards
// from the seat's hand.
type Move struct {
	Pass  bool
	Cards []domain.Card
}

// Policy selects moves for a bot-controlled seat. Implementations must only
// return moves that the rules engine would accept.
type Policy interface {
	SelectMove(game *domain.Game, seat int) Move
}

// Level picks how strong a policy the factory hands out.
type Level int

const (
	LevelEasy Level = iota
	LevelMedium
	LevelHard
)

// ParseLevel maps the difficulty strings used in bot identity profiles.
func ParseLevel(s string) Level {
	switch s {
	case "hard":
		return LevelHard
	case "medium":
		return LevelMedium
	default:
		return LevelEasy
	}
}
