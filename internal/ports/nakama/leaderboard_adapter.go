package nakama

import (
	"context"
	"fmt"

	"bigtwo/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// LeaderboardID is the season-less standings board written after every game.
const LeaderboardID = "bigtwo_standings"

// NakamaLeaderboardAdapter implements ports.LeaderboardPort on Nakama's
// leaderboard API.
type NakamaLeaderboardAdapter struct {
	nk runtime.NakamaModule
}

// NewNakamaLeaderboardAdapter creates a new leaderboard adapter.
func NewNakamaLeaderboardAdapter(nk runtime.NakamaModule) *NakamaLeaderboardAdapter {
	return &NakamaLeaderboardAdapter{nk: nk}
}

// EnsureLeaderboard creates the standings board if it does not exist yet.
// Incremental operator: each game's points add onto the running total.
func EnsureLeaderboard(ctx context.Context, nk runtime.NakamaModule) error {
	return nk.LeaderboardCreate(ctx, LeaderboardID, true, "desc", "incr", "", nil, true)
}

// RecordStandings writes one record per player. A failed write is collected
// but does not stop the remaining players from being recorded.
func (a *NakamaLeaderboardAdapter) RecordStandings(ctx context.Context, records []ports.StandingRecord) error {
	var firstErr error
	for _, rec := range records {
		_, err := a.nk.LeaderboardRecordWrite(ctx, LeaderboardID, rec.UserID, rec.Username, rec.Points, 0, nil, nil)
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to record standing for user %s: %w", rec.UserID, err)
		}
	}
	return firstErr
}

var _ ports.LeaderboardPort = (*NakamaLeaderboardAdapter)(nil)
