package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"bigtwo/internal/rooms"

	"github.com/heroiclabs/nakama-common/runtime"
)

type createRoomResponse struct {
	RoomCode string `json:"room_code"`
	MatchID  string `json:"match_id"`
}

type joinRoomRequest struct {
	RoomCode string `json:"room_code"`
}

type joinRoomResponse struct {
	MatchID string `json:"match_id"`
}

type listRoomsResponse struct {
	Rooms []rooms.Room `json:"rooms"`
}

// RegisterRoomRPCs wires the room lifecycle RPCs against the shared code
// registry.
func RegisterRoomRPCs(initializer runtime.Initializer, registry *rooms.Registry) error {
	if err := initializer.RegisterRpc(RpcCreateRoom, rpcCreateRoom(registry)); err != nil {
		return err
	}
	if err := initializer.RegisterRpc(RpcJoinRoom, rpcJoinRoom(registry)); err != nil {
		return err
	}
	return initializer.RegisterRpc(RpcListRooms, rpcListRooms(registry))
}

func rpcCreateRoom(registry *rooms.Registry) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

		// The code has to exist before the match so MatchInit can carry it
		// in its params; on failure the placeholder is removed again.
		code, err := registry.Create("")
		if err != nil {
			logger.Error("rpcCreateRoom [User:%s]: Failed to allocate code: %v", userID, err)
			return "", runtime.NewError("could not allocate room code", 13)
		}

		matchID, err := nk.MatchCreate(ctx, MatchNameBigTwo, map[string]interface{}{"room_code": code})
		if err != nil {
			registry.Remove(code)
			logger.Error("rpcCreateRoom [User:%s]: Failed to create match: %v", userID, err)
			return "", runtime.NewError("could not create match", 13)
		}

		if err := registry.Bind(code, matchID); err != nil {
			logger.Error("rpcCreateRoom [User:%s]: Failed to register match: %v", userID, err)
			return "", runtime.NewError("could not register room", 13)
		}

		logger.Info("rpcCreateRoom [User:%s]: Created room %s -> %s", userID, code, matchID)
		resp, _ := json.Marshal(createRoomResponse{RoomCode: code, MatchID: matchID})
		return string(resp), nil
	}
}

func rpcJoinRoom(registry *rooms.Registry) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		var req joinRoomRequest
		if err := json.Unmarshal([]byte(payload), &req); err != nil || req.RoomCode == "" {
			return "", runtime.NewError("room_code required", 3)
		}

		matchID, err := registry.Resolve(req.RoomCode)
		if err != nil {
			return "", runtime.NewError("room not found", 5)
		}

		resp, _ := json.Marshal(joinRoomResponse{MatchID: matchID})
		return string(resp), nil
	}
}

func rpcListRooms(registry *rooms.Registry) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		resp, _ := json.Marshal(listRoomsResponse{Rooms: registry.List()})
		return string(resp), nil
	}
}
