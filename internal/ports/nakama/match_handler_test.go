package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"testing"

	"bigtwo/internal/app"
	"bigtwo/internal/bot"
	"bigtwo/internal/domain"
	"bigtwo/internal/ports"
	"bigtwo/internal/rooms"

	"github.com/heroiclabs/nakama-common/runtime"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	broadcastCount int
	labelUpdates   int
	lastOpCode     int64
	lastData       []byte
	lastLabel      string
	opCodes        []int64
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	md.broadcastCount++
	md.lastOpCode = opCode
	md.lastData = append([]byte(nil), data...)
	md.opCodes = append(md.opCodes, opCode)
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return nil
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.labelUpdates++
	md.lastLabel = label
	return nil
}

type mockEconomy struct {
	balances map[string]int64
	calls    map[string]int
	updates  []ports.WalletUpdate
}

func (me *mockEconomy) GetBalance(ctx context.Context, userID string) (int64, error) {
	if me.calls == nil {
		me.calls = make(map[string]int)
	}
	me.calls[userID]++
	if balance, ok := me.balances[userID]; ok {
		return balance, nil
	}
	return 0, errors.New("balance not found")
}

func (me *mockEconomy) UpdateBalances(ctx context.Context, updates []ports.WalletUpdate) error {
	me.updates = append(me.updates, updates...)
	return nil
}

type mockLeaderboard struct {
	records []ports.StandingRecord
}

func (ml *mockLeaderboard) RecordStandings(ctx context.Context, records []ports.StandingRecord) error {
	ml.records = append(ml.records, records...)
	return nil
}

type testPresence struct {
	userID   string
	username string
}

func (tp testPresence) GetUserId() string                 { return tp.userID }
func (tp testPresence) GetSessionId() string              { return "session-" + tp.userID }
func (tp testPresence) GetNodeId() string                 { return "node" }
func (tp testPresence) GetHidden() bool                   { return false }
func (tp testPresence) GetPersistence() bool              { return true }
func (tp testPresence) GetUsername() string               { return tp.username }
func (tp testPresence) GetStatus() string                 { return "" }
func (tp testPresence) GetReason() runtime.PresenceReason { return runtime.PresenceReasonLeave }

func newTestState() *MatchState {
	return &MatchState{
		HostSeat:         -1,
		Presences:        make(map[string]runtime.Presence),
		Ready:            make(map[string]bool),
		App:              app.NewService(rand.New(rand.NewSource(1))),
		Bots:             make(map[string]bot.Policy),
		BotsEnabled:      true,
		BotMinDelay:      1,
		BotMaxDelay:      1,
		BotAutoFillDelay: 2,
	}
}

func decodeWire(t *testing.T, data []byte) wireMessage {
	t.Helper()
	var msg wireMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode wire message: %v", err)
	}
	return msg
}

func TestFindFirstHumanSeat(t *testing.T) {
	bot1 := bot.IdentityAt(0).UserID
	bot2 := bot.IdentityAt(1).UserID

	tests := []struct {
		name  string
		seats []string
		want  int
	}{
		{
			name:  "FirstHumanAfterBot",
			seats: []string{bot1, "user-1", "", ""},
			want:  1,
		},
		{
			name:  "AllBots",
			seats: []string{bot1, bot2, "", ""},
			want:  -1,
		},
		{
			name:  "AllEmpty",
			seats: []string{"", "", "", ""},
			want:  -1,
		},
		{
			name:  "FirstHumanIsSeatZero",
			seats: []string{"user-1", bot1, "user-2", ""},
			want:  0,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			if got := findFirstHumanSeat(test.seats); got != test.want {
				t.Fatalf("findFirstHumanSeat() = %d, want %d", got, test.want)
			}
		})
	}
}

func TestShouldTerminateNoHumans(t *testing.T) {
	bot1 := bot.IdentityAt(0).UserID
	bot2 := bot.IdentityAt(1).UserID

	tests := []struct {
		name  string
		seats []string
		want  bool
	}{
		{
			name:  "BotsOnly",
			seats: []string{bot1, bot2, "", ""},
			want:  true,
		},
		{
			name:  "HumansPresent",
			seats: []string{bot1, "user-1", "", ""},
			want:  false,
		},
		{
			name:  "AllEmpty",
			seats: []string{"", "", "", ""},
			want:  true,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			if got := shouldTerminateNoHumans(test.seats); got != test.want {
				t.Fatalf("shouldTerminateNoHumans() = %t, want %t", got, test.want)
			}
		})
	}
}

func TestMatchLabelEncode(t *testing.T) {
	tests := []struct {
		name     string
		label    matchLabel
		expected string
	}{
		{
			name:     "LobbyState",
			label:    matchLabel{Open: 3, Game: "bigtwo", Phase: "lobby"},
			expected: `{"open":3,"game":"bigtwo","phase":"lobby"}`,
		},
		{
			name:     "PlayingState",
			label:    matchLabel{Open: 0, Game: "bigtwo", Phase: "playing"},
			expected: `{"open":0,"game":"bigtwo","phase":"playing"}`,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := test.label.encode()
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if got != test.expected {
				t.Errorf("Got %s, want %s", got, test.expected)
			}
		})
	}
}

func TestProcessBotsAutoFillsOpenSeats(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState()
	state.Seats = [domain.NumSeats]string{"user-1", "", "", ""}
	state.HostSeat = 0
	state.LastShortHandedTick = 8
	state.Tick = 10

	handler.processBots(context.Background(), state, dispatcher, noopLogger{})

	botCount := 0
	for _, seat := range state.Seats {
		if isBotUserId(seat) {
			botCount++
		}
	}

	if botCount != 3 {
		t.Fatalf("Expected 3 bots, got %d", botCount)
	}
	if state.GetOpenSeatsCount() != 0 {
		t.Fatalf("Expected no open seats after auto-fill, got %d", state.GetOpenSeatsCount())
	}
	if state.LastShortHandedTick != 0 {
		t.Fatalf("Expected auto-fill timer reset, got %d", state.LastShortHandedTick)
	}
	if dispatcher.broadcastCount == 0 || dispatcher.labelUpdates == 0 {
		t.Fatalf("Expected snapshot broadcast and label update after auto-fill")
	}
}

func TestProcessBotsAutoFillWaitsForDelay(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState()
	state.Seats = [domain.NumSeats]string{"user-1", "", "", ""}
	state.Tick = 10

	handler.processBots(context.Background(), state, dispatcher, noopLogger{})

	if state.LastShortHandedTick != 10 {
		t.Fatalf("Expected timer started at tick 10, got %d", state.LastShortHandedTick)
	}
	for _, seat := range state.Seats[1:] {
		if seat != "" {
			t.Fatalf("Bot seated before the auto-fill delay elapsed")
		}
	}
}

func TestMaybeStartGameFiresOnceWhenTableReady(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState()
	state.Seats = [domain.NumSeats]string{"user-1", bot.IdentityAt(1).UserID, bot.IdentityAt(2).UserID, bot.IdentityAt(3).UserID}
	state.HostSeat = 0
	state.Ready["user-1"] = true
	state.Bots[state.Seats[1]] = &bot.GreedyPolicy{}
	state.Bots[state.Seats[2]] = &bot.GreedyPolicy{}
	state.Bots[state.Seats[3]] = &bot.GreedyPolicy{}

	handler.maybeStartGame(context.Background(), state, dispatcher, noopLogger{})

	if state.Game == nil {
		t.Fatal("Game did not start with a full, ready table")
	}
	if state.Barriers[BarrierDeal] == nil {
		t.Fatal("Deal barrier not armed for the human player")
	}
	if dispatcher.lastOpCode != OpGameStarted {
		t.Fatalf("Last opcode = %d, want %d", dispatcher.lastOpCode, OpGameStarted)
	}

	msg := decodeWire(t, dispatcher.lastData)
	if msg.Type != "game_started" {
		t.Fatalf("Wire type = %s, want game_started", msg.Type)
	}

	started := dispatcher.broadcastCount
	handler.maybeStartGame(context.Background(), state, dispatcher, noopLogger{})
	if dispatcher.broadcastCount != started {
		t.Fatal("Second start attempt emitted events")
	}
}

func TestMaybeStartGameRequiresAllHumansReady(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState()
	state.Seats = [domain.NumSeats]string{"user-1", "user-2", bot.IdentityAt(2).UserID, bot.IdentityAt(3).UserID}
	state.Ready["user-1"] = true
	// user-2 has not readied up.

	handler.maybeStartGame(context.Background(), state, dispatcher, noopLogger{})

	if state.Game != nil {
		t.Fatal("Game started without all humans ready")
	}
}

func TestHandleBarrierAckReleasesDealBarrier(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState()
	state.Seats = [domain.NumSeats]string{"user-1", "user-2", bot.IdentityAt(2).UserID, bot.IdentityAt(3).UserID}
	state.armBarrier(BarrierDeal, 2)

	handler.handleBarrierAck(state, dispatcher, noopLogger{}, BarrierDeal, "user-1")
	if state.Barriers[BarrierDeal] == nil {
		t.Fatal("Barrier released after a single ack")
	}

	handler.handleBarrierAck(state, dispatcher, noopLogger{}, BarrierDeal, "user-2")
	if state.Barriers[BarrierDeal] != nil {
		t.Fatal("Barrier not released after all human acks")
	}
	if dispatcher.lastOpCode != OpDealBarrierReleased {
		t.Fatalf("Last opcode = %d, want %d", dispatcher.lastOpCode, OpDealBarrierReleased)
	}
	if state.Barriers[BarrierSort] == nil {
		t.Fatal("Sort barrier not armed after the deal barrier released")
	}
}

func TestDrainBarrierAcksReleasesOnLeave(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState()
	state.Seats = [domain.NumSeats]string{"user-1", "user-2", bot.IdentityAt(2).UserID, bot.IdentityAt(3).UserID}
	state.armBarrier(BarrierPlay, 2)

	handler.handleBarrierAck(state, dispatcher, noopLogger{}, BarrierPlay, "user-1")
	handler.drainBarrierAcks(state, dispatcher, noopLogger{}, "user-2")

	if state.Barriers[BarrierPlay] != nil {
		t.Fatal("Play barrier still armed after the last pending user left")
	}
	if dispatcher.lastOpCode != OpPlayBarrierReleased {
		t.Fatalf("Last opcode = %d, want %d", dispatcher.lastOpCode, OpPlayBarrierReleased)
	}
}

func TestProcessBotsPlaysBotTurn(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState()
	botID := bot.IdentityAt(1).UserID
	state.Seats = [domain.NumSeats]string{"user-1", botID, bot.IdentityAt(2).UserID, bot.IdentityAt(3).UserID}
	state.Bots[botID] = &bot.GreedyPolicy{}

	game, _, err := state.App.StartGame(state.Seats)
	if err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	state.Game = game
	// Force the bot's seat to act next regardless of who drew the opener.
	game.FirstMove = false
	game.TurnSeat = 1
	state.Tick = 100

	handler.processBots(context.Background(), state, dispatcher, noopLogger{})
	if state.BotWaitUntil == 0 {
		t.Fatal("Bot delay not scheduled")
	}
	if dispatcher.broadcastCount != 0 {
		t.Fatal("Bot acted before its delay elapsed")
	}

	state.Tick = state.BotWaitUntil
	handler.processBots(context.Background(), state, dispatcher, noopLogger{})

	if dispatcher.broadcastCount == 0 {
		t.Fatal("Bot turn produced no events")
	}
	if game.TurnSeat == 1 {
		t.Fatal("Turn did not advance after the bot acted")
	}
}

func TestMatchInitClampsBotDelayWindow(t *testing.T) {
	handler := &matchHandler{}
	ctx := context.WithValue(context.Background(), runtime.RUNTIME_CTX_ENV, map[string]string{
		"bigtwo_bot_min_delay_sec": "5",
		"bigtwo_bot_max_delay_sec": "2",
	})

	raw, _, _ := handler.MatchInit(ctx, noopLogger{}, nil, nil, map[string]interface{}{})
	state, ok := raw.(*MatchState)
	if !ok {
		t.Fatal("MatchInit did not return match state")
	}
	if state.BotMinDelay != 5 {
		t.Fatalf("BotMinDelay = %d, want 5", state.BotMinDelay)
	}
	if state.BotMaxDelay < state.BotMinDelay {
		t.Fatalf("BotMaxDelay = %d, below BotMinDelay %d", state.BotMaxDelay, state.BotMinDelay)
	}
}

func TestMidGameLeaverReplacementBotActsWithAutoFillDisabled(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState()
	state.BotsEnabled = false
	state.Seats = [domain.NumSeats]string{"user-1", "user-2", "user-3", "user-4"}
	state.HostSeat = 0
	for _, id := range state.Seats {
		state.Presences[id] = testPresence{userID: id, username: id}
	}

	game, _, err := state.App.StartGame(state.Seats)
	if err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	state.Game = game
	// Force the leaver's seat to hold the turn so a stalled replacement
	// would freeze the whole table.
	game.FirstMove = false
	game.TurnSeat = 3

	next := handler.MatchLeave(context.Background(), noopLogger{}, nil, nil, dispatcher, 50, state, []runtime.Presence{testPresence{userID: "user-4", username: "user-4"}})
	if next == nil {
		t.Fatal("Match terminated with three humans still seated")
	}
	if !isBotUserId(state.Seats[3]) {
		t.Fatalf("Seat 3 = %s, want a replacement bot", state.Seats[3])
	}

	handler.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, 100, state, nil)
	if state.BotWaitUntil == 0 {
		t.Fatal("Replacement bot turn not scheduled while auto-fill is disabled")
	}

	before := dispatcher.broadcastCount
	handler.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, state.BotWaitUntil, state, nil)
	if dispatcher.broadcastCount == before {
		t.Fatal("Replacement bot produced no events")
	}
	if game.TurnSeat == 3 {
		t.Fatal("Turn did not advance after the replacement bot acted")
	}
}

func TestBroadcastSnapshotIncludesBalances(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	botID := bot.IdentityAt(1).UserID
	economy := &mockEconomy{
		balances: map[string]int64{
			"user-1": 1200,
			botID:    5000,
		},
	}
	state := newTestState()
	state.Seats = [domain.NumSeats]string{"user-1", botID, "", ""}
	state.HostSeat = 0
	state.Economy = economy

	handler.broadcastSnapshot(context.Background(), state, dispatcher, noopLogger{}, nil)

	if dispatcher.lastOpCode != OpPlayersSnapshot {
		t.Fatalf("Expected opcode %d, got %d", OpPlayersSnapshot, dispatcher.lastOpCode)
	}

	msg := decodeWire(t, dispatcher.lastData)
	if msg.Type != "room_snapshot" {
		t.Fatalf("Wire type = %s, want room_snapshot", msg.Type)
	}

	var snapshot roomSnapshotPayload
	if err := json.Unmarshal(msg.Payload, &snapshot); err != nil {
		t.Fatalf("Failed to unmarshal snapshot: %v", err)
	}

	balances := make(map[string]int64)
	for _, player := range snapshot.Players {
		balances[player.UserID] = player.Balance
	}

	if got := balances["user-1"]; got != 1200 {
		t.Fatalf("Expected human balance 1200, got %d", got)
	}
	if got := balances[botID]; got != 5000 {
		t.Fatalf("Expected bot balance 5000, got %d", got)
	}
	if snapshot.Players[0].IsHost != true {
		t.Fatal("Expected seat 0 to be marked host")
	}
}

func TestSettleGameSkipsBots(t *testing.T) {
	handler := &matchHandler{}
	economy := &mockEconomy{balances: map[string]int64{}}
	board := &mockLeaderboard{}
	state := newTestState()
	botID := bot.IdentityAt(3).UserID
	state.Seats = [domain.NumSeats]string{"user-1", "user-2", "user-3", botID}
	state.Economy = economy
	state.Leaderboard = board

	handler.settleGame(context.Background(), state, noopLogger{}, app.GameFinishedPayload{
		FinishedOrder: []int{0, 1, 2, 3},
		LoserSeat:     3,
		LoserUserID:   botID,
	})

	if len(economy.updates) != 3 {
		t.Fatalf("Expected 3 wallet updates, got %d", len(economy.updates))
	}
	if len(board.records) != 3 {
		t.Fatalf("Expected 3 standings records, got %d", len(board.records))
	}

	var sum int64
	for _, u := range economy.updates {
		sum += u.Amount
	}
	// The bot absorbs the loser's share, so human deltas are the first
	// three multipliers times the base bet.
	wantSum := (settlementMultipliers[0] + settlementMultipliers[1] + settlementMultipliers[2]) * 100
	if sum != wantSum {
		t.Fatalf("Sum of wallet deltas = %d, want %d", sum, wantSum)
	}

	if board.records[0].Points != 3 || board.records[1].Points != 2 || board.records[2].Points != 1 {
		t.Fatalf("Standings points = %+v, want 3/2/1", board.records)
	}
}

func TestRegistryRemoveOnTerminate(t *testing.T) {
	registry := rooms.NewRegistry(rand.New(rand.NewSource(1)))
	code, err := registry.Create("match-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	handler := &matchHandler{registry: registry}
	state := newTestState()
	state.RoomCode = code

	handler.MatchTerminate(context.Background(), noopLogger{}, nil, nil, &mockDispatcher{}, 1, state, 0)

	if _, err := registry.Resolve(code); err != rooms.ErrRoomNotFound {
		t.Fatalf("Room still resolvable after terminate: %v", err)
	}
}
