package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"bigtwo/internal/app"
	"bigtwo/internal/config"

	"github.com/heroiclabs/nakama-common/runtime"
)

type voiceTokenRequest struct {
	Action  string `json:"action"`  // "login" or "join"
	Channel string `json:"channel"` // room code, required for join
}

type voiceTokenResponse struct {
	Token string `json:"token"`
}

// rpcRoomVoiceToken signs a voice channel access token for the calling user.
// Credentials come from the runtime environment.
func rpcRoomVoiceToken(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", runtime.NewError("authentication required", 16)
	}

	var req voiceTokenRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", runtime.NewError("invalid payload", 3)
	}

	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	secret := env["voice_secret"]
	issuer := env["voice_issuer"]
	domain := env["voice_domain"]
	if secret == "" || issuer == "" || domain == "" {
		logger.Warn("rpcRoomVoiceToken: Voice credentials missing from env.")
		return "", runtime.NewError("voice not configured", 13)
	}

	ttl := time.Hour
	if cfg := config.GetGameConfig(); cfg != nil && cfg.VoiceTokenTTLSeconds > 0 {
		ttl = time.Duration(cfg.VoiceTokenTTLSeconds) * time.Second
	}

	svc := app.NewVoiceService(secret, issuer, domain, ttl)
	token, err := svc.GenerateToken(userID, req.Action, req.Channel)
	if err != nil {
		logger.Error("rpcRoomVoiceToken: Failed to generate token: %v", err)
		return "", runtime.NewError("could not generate token", 3)
	}

	resp, _ := json.Marshal(voiceTokenResponse{Token: token})
	return string(resp), nil
}
