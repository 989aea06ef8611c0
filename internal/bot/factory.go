package bot

import (
	"fmt"
)

// NewPolicy hands out a move policy for the requested difficulty.
func NewPolicy(level Level) (Policy, error) {
	switch level {
	case LevelEasy:
		return &GreedyPolicy{}, nil
	case LevelMedium:
		return &HoldbackPolicy{}, nil
	case LevelHard:
		return &ShedPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown bot level: %d", level)
	}
}
