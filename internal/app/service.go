package app

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"bigtwo/internal/domain"
)

// RoomCapacity is the fixed number of occupied seats required to start a
// game. Centralized so tests can reference the rule without magic numbers.
const RoomCapacity = domain.NumSeats

// Rejection is a structured rule or protocol violation surfaced only to the
// acting client. It never mutates game state.
type Rejection struct {
	Reason string
}

func (r *Rejection) Error() string { return r.Reason }

func reject(format string, args ...any) *Rejection {
	return &Rejection{Reason: fmt.Sprintf(format, args...)}
}

// AsRejection unwraps a Rejection from an error, if present.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

var (
	ErrGameInProgress = errors.New("game already in progress")
	ErrRoomNotFull    = errors.New("need exactly four seated players to start")
	ErrNoGame         = errors.New("no game in progress")
	// ErrHandMismatch signals an internal consistency bug: validation
	// accepted cards the hand turned out not to contain.
	ErrHandMismatch = errors.New("hand does not contain accepted cards")
)

// Service contains the turn/trick use-cases operating on game state. All
// methods are synchronous; the transport layer serializes calls per room.
type Service struct {
	rng *rand.Rand
}

// NewService constructs a Service with the provided rng or a time-seeded
// default.
func NewService(rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{rng: rng}
}

// StartGame shuffles a fresh deck, deals thirteen cards to each of the four
// seats round-robin and hands the opening turn to the holder of the seeding
// card. userIDs must list the four occupants in seat order.
func (s *Service) StartGame(userIDs [domain.NumSeats]string) (*domain.Game, []Event, error) {
	for _, id := range userIDs {
		if id == "" {
			return nil, nil, ErrRoomNotFull
		}
	}

	deck := domain.NewDeck()
	domain.Shuffle(deck, s.rng)

	game := &domain.Game{
		Phase:          domain.PhaseDealing,
		FirstMove:      true,
		LastWinnerSeat: -1,
	}
	for i := 0; i < domain.NumSeats; i++ {
		game.Seats[i] = &domain.Seat{Index: i, UserID: userIDs[i]}
	}
	for i, card := range deck {
		seat := game.Seats[i%domain.NumSeats]
		seat.Hand = append(seat.Hand, card)
	}
	for _, seat := range game.Seats {
		domain.SortHand(seat.Hand)
	}
	game.RebuildPassTracker()

	opener := game.SeatHolding(domain.SeedingCard)
	game.TurnSeat = opener

	events := make([]Event, 0, domain.NumSeats+1)
	for _, seat := range game.Seats {
		events = append(events, Event{
			Kind: EventHandDealt,
			Payload: HandDealtPayload{
				Seat:   seat.Index,
				UserID: seat.UserID,
				Hand:   seat.Hand,
			},
			Recipients: []string{seat.UserID},
		})
	}
	events = append(events, Event{
		Kind: EventGameStarted,
		Payload: GameStartedPayload{
			FirstTurnSeat: opener,
			FirstTurnUser: game.Seats[opener].UserID,
			SeedingCard:   domain.SeedingCard,
		},
	})

	return game, events, nil
}

// PlayCards validates and applies a play action for the given seat.
// Validation runs strictly before any mutation, in order: turn ownership,
// card ownership, classification, opening-card requirement, beating the
// table. Any failure returns a Rejection and leaves the game untouched.
func (s *Service) PlayCards(game *domain.Game, seat int, cards []domain.Card, positions []int) ([]Event, error) {
	if game == nil || game.Phase == domain.PhaseFinished {
		return nil, ErrNoGame
	}
	if seat != game.TurnSeat {
		return nil, reject("not your turn")
	}
	acting := game.Seats[seat]
	if !domain.OwnsCards(acting.Hand, cards) {
		return nil, reject("cards not in hand")
	}
	class := domain.Classify(cards)
	if class.Type == domain.Invalid {
		return nil, reject("not a valid hand")
	}
	if game.FirstMove && !containsCard(cards, domain.SeedingCard) {
		return nil, reject("first move must include %v", domain.SeedingCard)
	}
	if !domain.Beats(class, domain.Classify(game.LastValidHand)) {
		return nil, reject("%v does not beat %v", class.Type, domain.Classify(game.LastValidHand).Type)
	}

	remaining := domain.RemoveCards(acting.Hand, cards)
	if len(remaining) != len(acting.Hand)-len(cards) {
		// Ownership was checked above; reaching this is a bug, not a user error.
		return nil, ErrHandMismatch
	}
	acting.Hand = remaining

	game.Phase = domain.PhasePlaying
	game.TrickPile = append(game.TrickPile, cards...)
	game.LastValidHand = cards
	game.LastWinnerSeat = seat
	game.FirstMove = false
	for _, st := range game.Seats {
		st.Passed = false
		st.WonRound = false
	}
	game.RebuildPassTracker()
	game.TurnSeat = game.NextSeatWithCards(seat)

	events := []Event{{
		Kind: EventCardsPlayed,
		Payload: CardsPlayedPayload{
			Verdict:       "accepted",
			Seat:          seat,
			UserID:        acting.UserID,
			Cards:         cards,
			Positions:     positions,
			NextTurnSeat:  game.TurnSeat,
			LastValidHand: game.LastValidHand,
			Players:       seatSummaries(game),
		},
	}}

	if len(acting.Hand) == 0 {
		acting.Finished = true
		game.FinishingOrder = append(game.FinishingOrder, seat)
		events = append(events, Event{
			Kind: EventPlayerFinished,
			Payload: PlayerFinishedPayload{
				Seat:            seat,
				UserID:          acting.UserID,
				PlayersFinished: append([]int(nil), game.FinishingOrder...),
			},
		})
	}

	events = append(events, s.completionEvent(game))
	return events, nil
}

// completionEvent recomputes the game completion status after a valid play.
// Three finished seats end the game: the fourth is deduced as the loser
// without requiring any action from it.
func (s *Service) completionEvent(game *domain.Game) Event {
	switch len(game.FinishingOrder) {
	case 0:
		return Event{Kind: EventNoOneFinished, Payload: struct{}{}}
	case 1, 2:
		return Event{
			Kind:    EventGameUnfinished,
			Payload: GameUnfinishedPayload{PlayersFinished: append([]int(nil), game.FinishingOrder...)},
		}
	default:
		loser := game.DeduceLoser()
		game.FinishingOrder = append(game.FinishingOrder, loser)
		game.Phase = domain.PhaseFinished
		return Event{
			Kind: EventGameFinished,
			Payload: GameFinishedPayload{
				FinishedOrder: append([]int(nil), game.FinishingOrder...),
				LoserSeat:     loser,
				LoserUserID:   game.Seats[loser].UserID,
			},
		}
	}
}

// PassTurn marks a pass for the given seat, clearing the trick when every
// other seat holding cards has passed on the open target hand.
func (s *Service) PassTurn(game *domain.Game, seat int) ([]Event, error) {
	if game == nil || game.Phase == domain.PhaseFinished {
		return nil, ErrNoGame
	}
	if seat != game.TurnSeat {
		return nil, reject("not your turn")
	}
	if game.FirstMove {
		return nil, reject("first move must include %v", domain.SeedingCard)
	}

	acting := game.Seats[seat]
	acting.Passed = true
	game.PassTracker[seat] = struct{}{}

	if game.TrickCleared() {
		winningHand := game.LastValidHand
		game.FinishedPile = append(game.FinishedPile, game.TrickPile...)
		game.TrickPile = nil
		game.LastValidHand = nil
		for _, st := range game.Seats {
			st.Passed = false
		}
		game.RebuildPassTracker()

		winner := game.LastWinnerSeat
		if len(game.Seats[winner].Hand) == 0 {
			winner = game.NextSeatWithCards(winner)
		}
		game.TurnSeat = winner
		game.Seats[winner].WonRound = true

		return []Event{{
			Kind: EventRoundWon,
			Payload: RoundWonPayload{
				Seat:          winner,
				UserID:        game.Seats[winner].UserID,
				Players:       seatSummaries(game),
				LastValidHand: winningHand,
			},
		}}, nil
	}

	game.TurnSeat = game.NextSeatWithCards(seat)

	return []Event{{
		Kind: EventTurnPassed,
		Payload: TurnPassedPayload{
			Seat:          seat,
			UserID:        acting.UserID,
			NextTurnSeat:  game.TurnSeat,
			LastValidHand: game.LastValidHand,
		},
	}}, nil
}

func containsCard(cards []domain.Card, want domain.Card) bool {
	for _, c := range cards {
		if c == want {
			return true
		}
	}
	return false
}
