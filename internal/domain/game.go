package domain

// Phase represents the lifecycle stage of a room.
type Phase string

const (
	// PhaseLobby is the pre-game state where members join and toggle ready.
	PhaseLobby Phase = "lobby"
	// PhaseDealing covers the deal until every seat acknowledges its hand.
	PhaseDealing Phase = "dealing"
	// PhasePlaying is the active game state where cards are played.
	PhasePlaying Phase = "playing"
	// PhaseFinished is the state after three seats have emptied their hands.
	PhaseFinished Phase = "finished"
)

// NumSeats is the fixed number of player slots in a game.
const NumSeats = 4

// HandSize is the number of cards dealt to each seat.
const HandSize = DeckSize / NumSeats

// Seat holds per-seat mutable state inside an active game. Only the game
// service mutates hands.
type Seat struct {
	Index    int    `json:"index"`
	UserID   string `json:"user_id"`
	Hand     []Card `json:"-"`
	Passed   bool   `json:"passed"`
	Finished bool   `json:"finished"`
	WonRound bool   `json:"won_round"`
}

// Game is the authoritative state of one round, created on start and
// destroyed on reset to lobby.
type Game struct {
	Phase Phase

	Seats [NumSeats]*Seat

	TurnSeat       int
	LastWinnerSeat int

	// LastValidHand is the hand the active seat must beat; empty means a
	// free lead. TrickPile accumulates every play of the open trick and
	// FinishedPile archives cleared tricks, so that across all seats
	// hands + TrickPile + FinishedPile always account for the full deck.
	LastValidHand []Card
	TrickPile     []Card
	FinishedPile  []Card

	FinishingOrder []int

	// FirstMove is true only before the game's first valid play, which must
	// contain the seeding card.
	FirstMove bool

	// PassTracker is rebuilt on every valid play, pre-seeded with any seat
	// holding zero cards so finished seats never block a trick clear.
	PassTracker map[int]struct{}
}

// SeatOf returns the seat occupied by the given user, or nil.
func (g *Game) SeatOf(userID string) *Seat {
	for _, s := range g.Seats {
		if s != nil && s.UserID == userID {
			return s
		}
	}
	return nil
}

// SeatsWithCards counts seats still holding at least one card.
func (g *Game) SeatsWithCards() int {
	n := 0
	for _, s := range g.Seats {
		if s != nil && len(s.Hand) > 0 {
			n++
		}
	}
	return n
}

// NextSeatWithCards returns the next seat after from, in fixed seat order,
// that still holds at least one card. Returns from itself when no other seat
// has cards left.
func (g *Game) NextSeatWithCards(from int) int {
	for i := 1; i <= NumSeats; i++ {
		seat := (from + i) % NumSeats
		if len(g.Seats[seat].Hand) > 0 {
			return seat
		}
	}
	return from
}

// SeatHolding locates the seat whose hand contains the given card, or -1.
func (g *Game) SeatHolding(card Card) int {
	for i, s := range g.Seats {
		for _, c := range s.Hand {
			if c == card {
				return i
			}
		}
	}
	return -1
}

// RebuildPassTracker resets the tracker after a valid play, pre-seeding it
// with every seat that holds zero cards.
func (g *Game) RebuildPassTracker() {
	g.PassTracker = make(map[int]struct{}, NumSeats)
	for i, s := range g.Seats {
		if len(s.Hand) == 0 {
			g.PassTracker[i] = struct{}{}
		}
	}
}

// TrickCleared reports whether enough distinct seats have passed for the
// open trick to clear: every seat but one is in the tracker and a target
// hand is actually on the table. A free lead never clears by passes alone.
func (g *Game) TrickCleared() bool {
	return len(g.LastValidHand) > 0 && len(g.PassTracker) >= NumSeats-1
}

// DeduceLoser returns the one seat absent from FinishingOrder. Only
// meaningful once three seats have finished.
func (g *Game) DeduceLoser() int {
	finished := [NumSeats]bool{}
	for _, seat := range g.FinishingOrder {
		finished[seat] = true
	}
	for i, done := range finished {
		if !done {
			return i
		}
	}
	return -1
}
