package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"math/rand"
	"strconv"
	"time"

	"bigtwo/internal/app"
	"bigtwo/internal/bot"
	"bigtwo/internal/config"
	"bigtwo/internal/domain"
	"bigtwo/internal/ports"
	"bigtwo/internal/rooms"

	"github.com/heroiclabs/nakama-common/runtime"
)

// settlementMultipliers scale the base bet by finishing position so payouts
// stay zero-sum across the four seats.
var settlementMultipliers = [domain.NumSeats]int64{2, 1, -1, -2}

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	Seats    [domain.NumSeats]string `json:"seats"` // User IDs, empty string means the seat is open
	HostSeat int                     `json:"host_seat"`
	RoomCode string                  `json:"room_code"`
	Tick     int64                   `json:"tick"`

	Presences map[string]runtime.Presence `json:"-"`
	Ready     map[string]bool             `json:"-"`

	App  *app.Service `json:"-"`
	Game *domain.Game `json:"-"` // nil while in the lobby

	// StartInFlight guards against a double start when several ready
	// messages land in one loop batch.
	StartInFlight bool `json:"-"`

	// Barriers holds the armed animation rendezvous points, keyed by kind.
	// A barrier is deleted the moment it releases.
	Barriers map[string]*app.Barrier `json:"-"`

	BotsEnabled         bool                  `json:"bots_enabled"`
	BotMinDelay         int                   `json:"bot_min_delay"`
	BotMaxDelay         int                   `json:"bot_max_delay"`
	BotAutoFillDelay    int                   `json:"bot_auto_fill_delay"`
	BotWaitUntil        int64                 `json:"bot_wait_until"`
	LastShortHandedTick int64                 `json:"last_short_handed_tick"`
	Bots                map[string]bot.Policy `json:"-"`

	Economy     ports.EconomyPort     `json:"-"`
	Leaderboard ports.LeaderboardPort `json:"-"`
}

func (ms *MatchState) GetOpenSeatsCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat == "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) GetOccupiedSeatCount() int {
	return domain.NumSeats - ms.GetOpenSeatsCount()
}

func (ms *MatchState) GetHumanPlayerCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat != "" && !isBotUserId(seat) {
			count++
		}
	}
	return count
}

// armBarrier registers an animation rendezvous of the given kind. A zero
// expected count means no humans are seated, so there is nothing to wait for.
func (ms *MatchState) armBarrier(kind string, expected int) {
	if expected <= 0 {
		return
	}
	if ms.Barriers == nil {
		ms.Barriers = make(map[string]*app.Barrier)
	}
	ms.Barriers[kind] = app.NewBarrier(expected)
}

// animationPending reports whether any barrier gating gameplay is still
// waiting on acks. The finish barrier gates the lobby reset, not play.
func (ms *MatchState) animationPending() bool {
	for kind := range ms.Barriers {
		if kind != BarrierFinish {
			return true
		}
	}
	return false
}

func (ms *MatchState) seatOf(userID string) int {
	for i, seat := range ms.Seats {
		if seat == userID {
			return i
		}
	}
	return -1
}

func (ms *MatchState) usernameFor(userID string) string {
	if p, ok := ms.Presences[userID]; ok {
		return p.GetUsername()
	}
	if id, ok := bot.IdentityFor(userID); ok {
		return id.DisplayName
	}
	return userID
}

// isBotUserId reports whether the given user id represents a bot seat.
func isBotUserId(userId string) bool {
	return bot.IsBot(userId)
}

// isHumanSeat reports whether the seat index belongs to a human player.
func isHumanSeat(seats []string, seatIndex int) bool {
	if seatIndex < 0 || seatIndex >= len(seats) {
		return false
	}
	userId := seats[seatIndex]
	return userId != "" && !isBotUserId(userId)
}

// findFirstHumanSeat returns the first seat index with a human occupant or -1 if none exist.
func findFirstHumanSeat(seats []string) int {
	for i, userId := range seats {
		if userId != "" && !isBotUserId(userId) {
			return i
		}
	}
	return -1
}

// shouldTerminateNoHumans returns true when there are no humans in the match.
func shouldTerminateNoHumans(seats []string) bool {
	return findFirstHumanSeat(seats) == -1
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(registry *rooms.Registry) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
		return &matchHandler{registry: registry}, nil
	}
}

type matchHandler struct {
	registry *rooms.Registry
}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	if err := bot.LoadIdentities("data/bot_identities.json"); err != nil {
		logger.Warn("MatchInit: Could not load bot identities: %v", err)
	}
	if err := config.LoadGameConfig("data/game_config.json"); err != nil {
		logger.Warn("MatchInit: Could not load game config: %v", err)
	}

	state := &MatchState{
		Tick:        time.Now().Unix(),
		HostSeat:    -1,
		Presences:   make(map[string]runtime.Presence),
		Ready:       make(map[string]bool),
		App:         app.NewService(nil),
		Bots:        make(map[string]bot.Policy),
		Economy:     NewNakamaEconomyAdapter(nk),
		Leaderboard: NewNakamaLeaderboardAdapter(nk),
	}

	if code, ok := params["room_code"].(string); ok {
		state.RoomCode = code
	}

	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	if val, ok := env["bigtwo_bots_enabled"]; ok {
		state.BotsEnabled = val == "true"
	}
	if val, ok := env["bigtwo_bot_min_delay_sec"]; ok {
		if i, err := strconv.Atoi(val); err == nil {
			state.BotMinDelay = i
		}
	}
	if val, ok := env["bigtwo_bot_max_delay_sec"]; ok {
		if i, err := strconv.Atoi(val); err == nil {
			state.BotMaxDelay = i
		}
	}
	if val, ok := env["bigtwo_bot_auto_fill_delay_sec"]; ok {
		if i, err := strconv.Atoi(val); err == nil {
			state.BotAutoFillDelay = i
		}
	}
	if state.BotMinDelay < 1 {
		state.BotMinDelay = 1
	}
	if state.BotMaxDelay < 1 {
		state.BotMaxDelay = 3
	}
	if state.BotMaxDelay < state.BotMinDelay {
		state.BotMaxDelay = state.BotMinDelay
	}
	if state.BotAutoFillDelay == 0 {
		if cfg := config.GetGameConfig(); cfg != nil && cfg.BotAutoFillDelaySeconds > 0 {
			state.BotAutoFillDelay = cfg.BotAutoFillDelaySeconds
		} else {
			state.BotAutoFillDelay = 5
		}
	}

	label, err := matchLabel{Open: state.GetOpenSeatsCount(), Game: "bigtwo", Phase: "lobby"}.encode()
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	tickRate := 1
	return state, tickRate, label
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	// Allow join if there is an empty seat or, while still in the lobby,
	// a bot seat to reclaim.
	if matchState.GetOpenSeatsCount() <= 0 {
		hasBot := false
		if matchState.Game == nil {
			for _, seat := range matchState.Seats {
				if isBotUserId(seat) {
					hasBot = true
					break
				}
			}
		}
		if !hasBot {
			return state, false, "room full"
		}
	}

	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	// A finished game left behind by a departed table is stale once new
	// players arrive.
	if matchState.Game != nil && matchState.Game.Phase == domain.PhaseFinished {
		mh.resetToLobby(matchState, dispatcher, logger)
	}

	for _, p := range presences {
		matchState.Presences[p.GetUserId()] = p

		assigned := -1
		for i, seatUserId := range matchState.Seats {
			if seatUserId == "" {
				matchState.Seats[i] = p.GetUserId()
				assigned = i
				break
			}
		}

		if assigned < 0 && matchState.Game == nil {
			for i, seatUserId := range matchState.Seats {
				if isBotUserId(seatUserId) {
					logger.Info("MatchJoin: Replacing bot %s with human %s in seat %d", seatUserId, p.GetUserId(), i)
					delete(matchState.Bots, seatUserId)
					delete(matchState.Ready, seatUserId)
					matchState.Seats[i] = p.GetUserId()
					assigned = i
					break
				}
			}
		}

		if assigned < 0 {
			logger.Warn("MatchJoin: User %s joined but no seat was available.", p.GetUserId())
			continue
		}

		mh.sendToUser(matchState, dispatcher, logger, p.GetUserId(), OpJoinedRoom, "joined_room", joinedRoomPayload{
			Seat:     assigned,
			UserID:   p.GetUserId(),
			Username: p.GetUsername(),
			HostSeat: matchState.HostSeat,
		})
	}

	// The host seat must always hold a human.
	if !isHumanSeat(matchState.Seats[:], matchState.HostSeat) {
		matchState.HostSeat = findFirstHumanSeat(matchState.Seats[:])
		if matchState.HostSeat >= 0 {
			mh.broadcastHost(matchState, dispatcher, logger)
		}
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastSnapshot(ctx, matchState, dispatcher, logger, nil)

	return matchState
}

// MatchLeave is called when one or more players leave the match.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		delete(matchState.Presences, p.GetUserId())
		delete(matchState.Ready, p.GetUserId())

		seat := matchState.seatOf(p.GetUserId())
		if seat < 0 {
			continue
		}

		if matchState.Game != nil && matchState.Game.Phase != domain.PhaseFinished {
			// Mid-game leavers are replaced by a bot so the table can
			// finish the game.
			identity := bot.IdentityAt(seat)
			policy, err := bot.NewPolicy(identity.Level())
			if err == nil {
				matchState.Seats[seat] = identity.UserID
				matchState.Bots[identity.UserID] = policy
				matchState.Game.Seats[seat].UserID = identity.UserID
				logger.Info("MatchLeave: Seat %d handed to bot %s after %s left mid-game.", seat, identity.UserID, p.GetUserId())
				continue
			}
			logger.Error("MatchLeave: Could not seat replacement bot: %v", err)
		}

		matchState.Seats[seat] = ""
		logger.Debug("MatchLeave: User %s left, seat %d freed.", p.GetUserId(), seat)
	}

	// A leaver can never ack, so their pending barrier slots are filled on
	// the way out to keep the rest of the room from stalling.
	for _, p := range presences {
		mh.drainBarrierAcks(matchState, dispatcher, logger, p.GetUserId())
	}

	newHostSeat := findFirstHumanSeat(matchState.Seats[:])
	if newHostSeat != matchState.HostSeat {
		matchState.HostSeat = newHostSeat
		if newHostSeat >= 0 {
			mh.broadcastHost(matchState, dispatcher, logger)
		}
	}

	if shouldTerminateNoHumans(matchState.Seats[:]) {
		logger.Info("MatchLeave: Terminating match with no humans.")
		if mh.registry != nil && matchState.RoomCode != "" {
			mh.registry.Remove(matchState.RoomCode)
		}
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastSnapshot(ctx, matchState, dispatcher, logger, nil)

	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpToggleReady:
			mh.handleToggleReady(ctx, matchState, dispatcher, logger, msg)
		case OpPlayCards:
			mh.handlePlayCards(ctx, matchState, dispatcher, logger, msg)
		case OpPassTurn:
			mh.handlePassTurn(ctx, matchState, dispatcher, logger, msg)
		case OpGetClientList:
			mh.broadcastSnapshot(ctx, matchState, dispatcher, logger, []string{msg.GetUserId()})
		case OpAckDealBarrier, OpAckSortBarrier, OpAckPlayBarrier, OpAckFinishBarrier:
			mh.handleBarrierAck(matchState, dispatcher, logger, barrierAckKinds[msg.GetOpCode()], msg.GetUserId())
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	mh.processBots(ctx, matchState, dispatcher, logger)

	return matchState
}

func (mh *matchHandler) handleToggleReady(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	if state.Game != nil {
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), 400, "game already in progress")
		return
	}

	senderID := msg.GetUserId()
	seat := state.seatOf(senderID)
	if seat < 0 {
		return
	}

	var req toggleReadyRequest
	if len(msg.GetData()) > 0 {
		if err := json.Unmarshal(msg.GetData(), &req); err != nil {
			logger.Warn("handleToggleReady: Invalid payload from %s: %v", senderID, err)
			return
		}
	} else {
		req.Ready = !state.Ready[senderID]
	}
	state.Ready[senderID] = req.Ready

	mh.broadcast(state, dispatcher, logger, OpUpdateReadyState, "ready_state", readyStatePayload{
		Seat:   seat,
		UserID: senderID,
		Ready:  req.Ready,
	})

	mh.maybeStartGame(ctx, state, dispatcher, logger)
}

// maybeStartGame fires exactly once when all four seats are occupied and
// every human occupant is ready. Bot seats count as ready.
func (mh *matchHandler) maybeStartGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.Game != nil || state.StartInFlight {
		return
	}
	if state.GetOccupiedSeatCount() != domain.NumSeats {
		return
	}
	for _, userID := range state.Seats {
		if !isBotUserId(userID) && !state.Ready[userID] {
			return
		}
	}

	state.StartInFlight = true
	defer func() { state.StartInFlight = false }()

	game, events, err := state.App.StartGame(state.Seats)
	if err != nil {
		logger.Error("maybeStartGame: Failed to start game: %v", err)
		return
	}
	state.Game = game

	state.armBarrier(BarrierDeal, state.GetHumanPlayerCount())
	state.BotWaitUntil = 0

	mh.updateLabel(state, dispatcher, logger)
	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}

	logger.Info("maybeStartGame: Game started, seat %d leads.", game.TurnSeat)
}

func (mh *matchHandler) handlePlayCards(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	senderSeat := state.seatOf(senderID)

	if state.Game == nil {
		mh.sendError(state, dispatcher, logger, senderID, 400, "game not started")
		return
	}

	var req playCardsRequest
	if err := json.Unmarshal(msg.GetData(), &req); err != nil {
		logger.Warn("handlePlayCards: Invalid payload from %s: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, "invalid payload")
		return
	}

	events, err := state.App.PlayCards(state.Game, senderSeat, req.Cards, req.Positions)
	if err != nil {
		if rej, ok := app.AsRejection(err); ok {
			mh.sendToUser(state, dispatcher, logger, senderID, OpPlayRejected, "play_rejected", errorPayload{Code: 400, Message: rej.Reason})
			return
		}
		logger.Warn("handlePlayCards: User %s (seat %d) failed to play: %v", senderID, senderSeat, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}

	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}
}

func (mh *matchHandler) handlePassTurn(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	senderSeat := state.seatOf(senderID)

	if state.Game == nil {
		mh.sendError(state, dispatcher, logger, senderID, 400, "game not started")
		return
	}

	events, err := state.App.PassTurn(state.Game, senderSeat)
	if err != nil {
		if rej, ok := app.AsRejection(err); ok {
			mh.sendToUser(state, dispatcher, logger, senderID, OpPlayRejected, "play_rejected", errorPayload{Code: 400, Message: rej.Reason})
			return
		}
		logger.Warn("handlePassTurn: User %s (seat %d) failed to pass: %v", senderID, senderSeat, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}

	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}
}

// handleBarrierAck feeds one client acknowledgment into the barrier of the
// given kind. Seated users only.
func (mh *matchHandler) handleBarrierAck(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, kind, userID string) {
	if state.seatOf(userID) < 0 {
		return
	}
	mh.ackBarrier(state, dispatcher, logger, kind, userID)
}

// ackBarrier records an acknowledgment and, on release, broadcasts it and
// runs the kind's follow-up: a released deal barrier arms the sort barrier,
// a released finish barrier returns the room to the lobby.
func (mh *matchHandler) ackBarrier(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, kind, userID string) {
	barrier := state.Barriers[kind]
	if barrier == nil || !barrier.Ack(userID) {
		return
	}
	delete(state.Barriers, kind)
	mh.broadcast(state, dispatcher, logger, barrierReleaseOps[kind], "barrier_released", barrierReleasedPayload{Barrier: kind})

	switch kind {
	case BarrierDeal:
		state.armBarrier(BarrierSort, state.GetHumanPlayerCount())
	case BarrierFinish:
		mh.resetToLobby(state, dispatcher, logger)
	}
}

// drainBarrierAcks counts a departed user as having acknowledged every armed
// barrier, releasing any that were waiting only on them.
func (mh *matchHandler) drainBarrierAcks(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string) {
	kinds := make([]string, 0, len(state.Barriers))
	for kind := range state.Barriers {
		kinds = append(kinds, kind)
	}
	for _, kind := range kinds {
		mh.ackBarrier(state, dispatcher, logger, kind, userID)
	}
}

// resetToLobby clears the finished game and returns the room to the ready
// phase.
func (mh *matchHandler) resetToLobby(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	state.Game = nil
	state.Ready = make(map[string]bool)
	state.StartInFlight = false
	state.Barriers = nil
	state.BotWaitUntil = 0
	mh.updateLabel(state, dispatcher, logger)
}

// processBots runs every tick. Lobby auto-fill honors BotsEnabled; in-game
// bot turns always run, since a mid-game leaver's seat is handed to a bot
// that must keep acting regardless of the auto-fill setting.
func (mh *matchHandler) processBots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	// Auto-fill open lobby seats after a short wait so humans can trickle in
	// first.
	if state.Game == nil && state.BotsEnabled {
		humanCount := state.GetHumanPlayerCount()
		if humanCount >= 1 && state.GetOpenSeatsCount() > 0 {
			if state.LastShortHandedTick == 0 {
				state.LastShortHandedTick = state.Tick
				logger.Debug("processBots: Short-handed lobby detected, starting auto-fill timer.")
			}

			if state.Tick-state.LastShortHandedTick >= int64(state.BotAutoFillDelay) {
				added := false
				for i, seat := range state.Seats {
					if seat != "" {
						continue
					}
					identity := bot.IdentityAt(i)
					policy, err := bot.NewPolicy(identity.Level())
					if err != nil {
						logger.Error("processBots: Failed to create policy for %s: %v", identity.UserID, err)
						continue
					}
					state.Seats[i] = identity.UserID
					state.Bots[identity.UserID] = policy
					logger.Info("processBots: Added bot %s (%s) to seat %d", identity.Username, identity.UserID, i)
					added = true
				}
				if added {
					mh.updateLabel(state, dispatcher, logger)
					mh.broadcastSnapshot(ctx, state, dispatcher, logger, nil)
					mh.maybeStartGame(ctx, state, dispatcher, logger)
				}
				state.LastShortHandedTick = 0
			}
		} else {
			state.LastShortHandedTick = 0
		}
	}

	// Bot turns wait out the deal, sort, and play barriers so humans see
	// each animation complete before the next move lands.
	if state.Game == nil || state.Game.Phase == domain.PhaseFinished || state.animationPending() {
		return
	}

	currentTurn := state.Game.TurnSeat
	currentUserID := state.Seats[currentTurn]
	if !isBotUserId(currentUserID) {
		state.BotWaitUntil = 0
		return
	}

	if state.BotWaitUntil == 0 {
		delay := rand.Intn(state.BotMaxDelay-state.BotMinDelay+1) + state.BotMinDelay
		state.BotWaitUntil = state.Tick + int64(delay)
		logger.Debug("processBots: Bot %s (seat %d) will act at tick %d (current %d)", currentUserID, currentTurn, state.BotWaitUntil, state.Tick)
		return
	}
	if state.Tick < state.BotWaitUntil {
		return
	}
	state.BotWaitUntil = 0

	policy, exists := state.Bots[currentUserID]
	if !exists {
		var err error
		policy, err = bot.NewPolicy(bot.LevelEasy)
		if err != nil {
			logger.Error("processBots: Failed to create fallback policy: %v", err)
			return
		}
		state.Bots[currentUserID] = policy
	}

	move := policy.SelectMove(state.Game, currentTurn)

	var events []app.Event
	var err error
	if move.Pass {
		events, err = state.App.PassTurn(state.Game, currentTurn)
	} else {
		events, err = state.App.PlayCards(state.Game, currentTurn, move.Cards, nil)
	}
	if err != nil {
		logger.Error("processBots: Bot %s move failed: %v", currentUserID, err)
		return
	}
	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}
}

// broadcastSnapshot sends the public room view, to everyone or to the given
// user IDs only.
func (mh *matchHandler) broadcastSnapshot(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userIDs []string) {
	players := make([]playerSnapshot, 0, domain.NumSeats)
	for i, userID := range state.Seats {
		if userID == "" {
			continue
		}

		cardsRemaining := 0
		if state.Game != nil {
			cardsRemaining = len(state.Game.Seats[i].Hand)
		}

		var balance int64
		if state.Economy != nil {
			if b, err := state.Economy.GetBalance(ctx, userID); err == nil {
				balance = b
			}
		}

		players = append(players, playerSnapshot{
			Seat:           i,
			UserID:         userID,
			Username:       state.usernameFor(userID),
			IsHost:         i == state.HostSeat,
			IsBot:          isBotUserId(userID),
			Ready:          state.Ready[userID] || isBotUserId(userID),
			CardsRemaining: cardsRemaining,
			Balance:        balance,
		})
	}

	phase := "lobby"
	if state.Game != nil {
		phase = "playing"
	}
	payload := roomSnapshotPayload{
		RoomCode: state.RoomCode,
		HostSeat: state.HostSeat,
		Phase:    phase,
		Players:  players,
	}

	if len(userIDs) == 0 {
		mh.broadcast(state, dispatcher, logger, OpPlayersSnapshot, "room_snapshot", payload)
		return
	}
	for _, uid := range userIDs {
		mh.sendToUser(state, dispatcher, logger, uid, OpPlayersSnapshot, "room_snapshot", payload)
	}
}

func (mh *matchHandler) broadcastHost(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	hostUser := ""
	if state.HostSeat >= 0 {
		hostUser = state.Seats[state.HostSeat]
	}
	mh.broadcast(state, dispatcher, logger, OpHostChanged, "host_changed", hostChangedPayload{
		HostSeat: state.HostSeat,
		HostUser: hostUser,
	})
}

// broadcastEvent converts an app event into a wire message and dispatches it.
func (mh *matchHandler) broadcastEvent(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	var opCode int64
	var msgType string

	switch ev.Kind {
	case app.EventGameStarted:
		opCode, msgType = OpGameStarted, "game_started"
	case app.EventHandDealt:
		opCode, msgType = OpHandDealt, "hand_dealt"
	case app.EventCardsPlayed:
		opCode, msgType = OpCardsPlayed, "cards_played"
	case app.EventTurnPassed:
		opCode, msgType = OpTurnPassed, "turn_passed"
	case app.EventRoundWon:
		opCode, msgType = OpRoundWon, "round_won"
	case app.EventPlayerFinished:
		opCode, msgType = OpPlayerFinished, "player_finished"
	case app.EventNoOneFinished:
		opCode, msgType = OpNoOneFinished, "no_one_finished"
	case app.EventGameUnfinished:
		opCode, msgType = OpGameUnfinished, "game_unfinished"
	case app.EventGameFinished:
		opCode, msgType = OpGameFinished, "game_finished"
	default:
		logger.Warn("Unknown event kind: %v", ev.Kind)
		return
	}

	data, err := encodeWire(msgType, ev.Payload)
	if err != nil {
		logger.Error("Failed to marshal event %s: %v", ev.Kind, err)
		return
	}

	// Targeted events must never fall back to a broadcast when none of the
	// intended recipients are connected.
	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}
		if len(recipients) == 0 {
			return
		}
	}

	dispatcher.BroadcastMessage(opCode, data, recipients, nil, true)

	switch ev.Kind {
	case app.EventCardsPlayed:
		if state.Game != nil && state.Game.Phase != domain.PhaseFinished {
			state.armBarrier(BarrierPlay, state.GetHumanPlayerCount())
		}
	case app.EventGameFinished:
		if payload, ok := ev.Payload.(app.GameFinishedPayload); ok {
			mh.settleGame(ctx, state, logger, payload)
		}
		if humans := state.GetHumanPlayerCount(); humans > 0 {
			state.armBarrier(BarrierFinish, humans)
		} else {
			mh.resetToLobby(state, dispatcher, logger)
		}
	}
}

// settleGame applies wallet deltas and leaderboard standings for a finished
// game. Bots carry no wallets or board records.
func (mh *matchHandler) settleGame(ctx context.Context, state *MatchState, logger runtime.Logger, payload app.GameFinishedPayload) {
	baseBet := config.GetBaseBet("")
	points := config.GetStandingPoints()

	updates := make([]ports.WalletUpdate, 0, domain.NumSeats)
	records := make([]ports.StandingRecord, 0, domain.NumSeats)

	for position, seat := range payload.FinishedOrder {
		if position >= domain.NumSeats || seat < 0 || seat >= domain.NumSeats {
			continue
		}
		userID := state.Seats[seat]
		if userID == "" || isBotUserId(userID) {
			continue
		}

		updates = append(updates, ports.WalletUpdate{
			UserID: userID,
			Amount: baseBet * settlementMultipliers[position],
			Metadata: map[string]interface{}{
				"match_id": ctx.Value(runtime.RUNTIME_CTX_MATCH_ID),
				"reason":   "game_settlement",
			},
		})
		records = append(records, ports.StandingRecord{
			UserID:   userID,
			Username: state.usernameFor(userID),
			Points:   points[position],
		})
	}

	if state.Economy != nil && len(updates) > 0 {
		if err := state.Economy.UpdateBalances(ctx, updates); err != nil {
			logger.Error("settleGame: Failed to update balances: %v", err)
		}
	}
	if state.Leaderboard != nil && len(records) > 0 {
		if err := state.Leaderboard.RecordStandings(ctx, records); err != nil {
			logger.Error("settleGame: Failed to record standings: %v", err)
		}
	}
}

func (mh *matchHandler) broadcast(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, opCode int64, msgType string, payload any) {
	data, err := encodeWire(msgType, payload)
	if err != nil {
		logger.Error("Failed to marshal %s: %v", msgType, err)
		return
	}
	dispatcher.BroadcastMessage(opCode, data, nil, nil, true)
}

func (mh *matchHandler) sendToUser(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, opCode int64, msgType string, payload any) {
	presence, ok := state.Presences[userID]
	if !ok {
		return
	}
	data, err := encodeWire(msgType, payload)
	if err != nil {
		logger.Error("Failed to marshal %s: %v", msgType, err)
		return
	}
	dispatcher.BroadcastMessage(opCode, data, []runtime.Presence{presence}, nil, true)
}

// sendError sends an error message to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, message string) {
	mh.sendToUser(state, dispatcher, logger, userID, OpErrorMessage, "error", errorPayload{Code: code, Message: message})
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	phase := "lobby"
	if state.Game != nil {
		phase = "playing"
	}

	label, err := matchLabel{Open: state.GetOpenSeatsCount(), Game: "bigtwo", Phase: phase}.encode()
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, reason int) interface{} {
	logger.Debug("MatchTerminate: Match terminated for reason %d", reason)
	if matchState, ok := state.(*MatchState); ok && mh.registry != nil && matchState.RoomCode != "" {
		mh.registry.Remove(matchState.RoomCode)
	}
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
