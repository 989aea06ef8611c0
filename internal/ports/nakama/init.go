package nakama

import (
	"context"
	"database/sql"
	"math/rand"
	"time"

	"bigtwo/internal/bot"
	"bigtwo/internal/config"
	"bigtwo/internal/rooms"

	"github.com/heroiclabs/nakama-common/runtime"
)

// InitModule wires RPCs, hooks and the match handler for the Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	registry := rooms.NewRegistry(rand.New(rand.NewSource(time.Now().UnixNano())))

	if err := config.LoadGameConfig("data/game_config.json"); err != nil {
		logger.Warn("InitModule: Could not load game config: %v", err)
	}
	if err := bot.LoadIdentities("data/bot_identities.json"); err != nil {
		logger.Warn("InitModule: Could not load bot identities: %v", err)
	}
	if err := bot.ProvisionBots(ctx, nk, logger); err != nil {
		logger.Warn("InitModule: Could not provision bots: %v", err)
	}
	if err := EnsureLeaderboard(ctx, nk); err != nil {
		logger.Warn("InitModule: Could not create standings leaderboard: %v", err)
	}

	if err := RegisterRoomRPCs(initializer, registry); err != nil {
		return err
	}
	if err := initializer.RegisterRpc(RpcQuickMatch, rpcQuickMatch); err != nil {
		return err
	}
	if err := initializer.RegisterRpc(RpcRoomVoiceToken, rpcRoomVoiceToken); err != nil {
		return err
	}

	if err := initializer.RegisterBeforeAuthenticateCustom(BeforeAuthenticateCustom); err != nil {
		return err
	}
	if err := initializer.RegisterAfterAuthenticateDevice(AfterAuthenticateDevice); err != nil {
		return err
	}
	if err := initializer.RegisterAfterAuthenticateCustom(AfterAuthenticateCustom); err != nil {
		return err
	}

	if err := initializer.RegisterMatch(MatchNameBigTwo, NewMatch(registry)); err != nil {
		return err
	}

	logger.Info("Big Two Go module loaded.")
	return nil
}
