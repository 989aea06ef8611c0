package app

import "bigtwo/internal/domain"

// EventKind identifies emitted game events for transport dispatch.
type EventKind string

const (
	EventGameStarted    EventKind = "game_started"
	EventHandDealt      EventKind = "hand_dealt"
	EventCardsPlayed    EventKind = "cards_played"
	EventTurnPassed     EventKind = "turn_passed"
	EventRoundWon       EventKind = "round_won"
	EventPlayerFinished EventKind = "player_finished"
	EventNoOneFinished  EventKind = "no_one_finished"
	EventGameUnfinished EventKind = "game_unfinished"
	EventGameFinished   EventKind = "game_finished"
)

// Event is a game event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast to the room
}

// SeatSummary is the public view of one seat, safe to broadcast.
type SeatSummary struct {
	Seat           int    `json:"seat"`
	UserID         string `json:"user_id"`
	CardsRemaining int    `json:"cards_remaining"`
	Passed         bool   `json:"passed"`
	Finished       bool   `json:"finished"`
}

type GameStartedPayload struct {
	FirstTurnSeat int         `json:"first_turn_seat"`
	FirstTurnUser string      `json:"first_turn_user"`
	SeedingCard   domain.Card `json:"seeding_card"`
}

type HandDealtPayload struct {
	Seat   int           `json:"seat"`
	UserID string        `json:"user_id"`
	Hand   []domain.Card `json:"hand"`
}

type CardsPlayedPayload struct {
	Verdict       string        `json:"verdict"`
	Seat          int           `json:"seat"`
	UserID        string        `json:"user_id"`
	Cards         []domain.Card `json:"cards"`
	Positions     []int         `json:"positions,omitempty"`
	NextTurnSeat  int           `json:"next_turn_seat"`
	LastValidHand []domain.Card `json:"last_valid_hand"`
	Players       []SeatSummary `json:"players"`
}

type TurnPassedPayload struct {
	Seat          int           `json:"seat"`
	UserID        string        `json:"user_id"`
	NextTurnSeat  int           `json:"next_turn_seat"`
	LastValidHand []domain.Card `json:"last_valid_hand"`
}

type RoundWonPayload struct {
	Seat          int           `json:"seat"`
	UserID        string        `json:"user_id"`
	Players       []SeatSummary `json:"players"`
	LastValidHand []domain.Card `json:"last_valid_hand"`
}

type PlayerFinishedPayload struct {
	Seat            int    `json:"seat"`
	UserID          string `json:"user_id"`
	PlayersFinished []int  `json:"players_finished"`
}

type GameUnfinishedPayload struct {
	PlayersFinished []int `json:"players_finished"`
}

type GameFinishedPayload struct {
	FinishedOrder []int  `json:"finished_order"`
	LoserSeat     int    `json:"loser_seat"`
	LoserUserID   string `json:"loser_user_id"`
}

// seatSummaries builds the public seat view of a game.
func seatSummaries(g *domain.Game) []SeatSummary {
	out := make([]SeatSummary, 0, domain.NumSeats)
	for _, s := range g.Seats {
		out = append(out, SeatSummary{
			Seat:           s.Index,
			UserID:         s.UserID,
			CardsRemaining: len(s.Hand),
			Passed:         s.Passed,
			Finished:       s.Finished,
		})
	}
	return out
}
