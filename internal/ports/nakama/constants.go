package nakama

const (
	// RpcCreateRoom creates a private room and returns its join code.
	RpcCreateRoom = "create_room"
	// RpcJoinRoom resolves a join code to a match ID.
	RpcJoinRoom = "join_room"
	// RpcListRooms lists joinable rooms.
	RpcListRooms = "list_rooms"
	// RpcQuickMatch finds or creates a public lobby with an open seat.
	RpcQuickMatch = "quick_match"
	// RpcRoomVoiceToken issues a signed token for the room's voice channel.
	RpcRoomVoiceToken = "room_voice_token"

	// MatchNameBigTwo is the authoritative match handler name registered with Nakama.
	MatchNameBigTwo = "bigtwo_match"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpToggleReady      int64 = 1
	OpPlayCards        int64 = 2
	OpPassTurn         int64 = 3
	OpGetClientList    int64 = 4
	OpAckDealBarrier   int64 = 5
	OpAckFinishBarrier int64 = 6
	OpAckSortBarrier   int64 = 7
	OpAckPlayBarrier   int64 = 8

	// Server -> Client events
	OpJoinedRoom            int64 = 101
	OpErrorMessage          int64 = 102
	OpUpdateReadyState      int64 = 103
	OpHostChanged           int64 = 104
	OpPlayersSnapshot       int64 = 105
	OpGameStarted           int64 = 106
	OpHandDealt             int64 = 107 // send privately
	OpCardsPlayed           int64 = 108
	OpPlayRejected          int64 = 109 // send privately
	OpTurnPassed            int64 = 110
	OpRoundWon              int64 = 111
	OpPlayerFinished        int64 = 112
	OpNoOneFinished         int64 = 113
	OpGameUnfinished        int64 = 114
	OpGameFinished          int64 = 115
	OpDealBarrierReleased   int64 = 116
	OpFinishBarrierReleased int64 = 117
	OpSortBarrierReleased   int64 = 118
	OpPlayBarrierReleased   int64 = 119
)

// Animation barrier kinds. Each inbound ack opcode feeds the barrier of the
// matching kind; the release broadcast uses the matching outbound opcode.
const (
	BarrierDeal   = "deal"
	BarrierSort   = "sort"
	BarrierPlay   = "play"
	BarrierFinish = "finish"
)

var barrierAckKinds = map[int64]string{
	OpAckDealBarrier:   BarrierDeal,
	OpAckSortBarrier:   BarrierSort,
	OpAckPlayBarrier:   BarrierPlay,
	OpAckFinishBarrier: BarrierFinish,
}

var barrierReleaseOps = map[string]int64{
	BarrierDeal:   OpDealBarrierReleased,
	BarrierSort:   OpSortBarrierReleased,
	BarrierPlay:   OpPlayBarrierReleased,
	BarrierFinish: OpFinishBarrierReleased,
}
