package ports

import "context"

// StandingRecord is one player's result for a completed game: 3 points for
// first out, 2 for second, 1 for third, 0 for the loser.
type StandingRecord struct {
	UserID   string
	Username string
	Points   int64
}

// LeaderboardPort records finished-game standings onto a persistent board.
type LeaderboardPort interface {
	// RecordStandings writes one record per player. Failures on individual
	// records are reported but must not abort the remaining writes.
	RecordStandings(ctx context.Context, records []StandingRecord) error
}
