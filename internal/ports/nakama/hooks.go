package nakama

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"bigtwo/internal/app/onboarding"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	customIDMinLength = 8
	customIDMaxLength = 64
)

// BeforeAuthenticateCustom gates custom-ID logins on a credential format
// check so arbitrary short strings cannot mint accounts.
func BeforeAuthenticateCustom(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, in *api.AuthenticateCustomRequest) (*api.AuthenticateCustomRequest, error) {
	if in == nil || in.Account == nil {
		return nil, runtime.NewError("account required", 3)
	}

	id := in.Account.Id
	if len(id) < customIDMinLength || len(id) > customIDMaxLength {
		logger.Warn("BeforeAuthenticateCustom: Rejected custom ID of length %d", len(id))
		return nil, runtime.NewError("invalid credentials", 16)
	}
	for _, r := range id {
		valid := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_'
		if !valid {
			logger.Warn("BeforeAuthenticateCustom: Rejected custom ID with invalid character.")
			return nil, runtime.NewError("invalid credentials", 16)
		}
	}

	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	if pairs := loadCredentials(env["bigtwo_credentials_file"]); !credentialAllowed(pairs, id, in.Account.Vars["secret"]) {
		logger.Warn("BeforeAuthenticateCustom: Rejected unknown identity.")
		return nil, runtime.NewError("invalid credentials", 16)
	}

	return in, nil
}

// AfterAuthenticateDevice onboards freshly created device accounts.
func AfterAuthenticateDevice(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, out *api.Session, in *api.AuthenticateDeviceRequest) error {
	if !out.Created {
		return nil
	}
	return onboardFromSession(ctx, logger, nk, out)
}

// AfterAuthenticateCustom onboards freshly created custom accounts.
func AfterAuthenticateCustom(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, out *api.Session, in *api.AuthenticateCustomRequest) error {
	if !out.Created {
		return nil
	}
	return onboardFromSession(ctx, logger, nk, out)
}

func onboardFromSession(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, out *api.Session) error {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		// Resolve the user ID from the session token when the hook context
		// does not carry it.
		resolvedID, err := extractUserIDFromToken(out.Token)
		if err != nil {
			logger.Error("onboardFromSession: Failed to extract user ID from token: %v", err)
			return err
		}
		userID = resolvedID
	}

	logger.Info("Onboarding new user %s", userID)

	service := onboarding.NewService(NewNakamaAccountAdapter(nk), NewNakamaWelcomeBonusAdapter(nk), nil)
	result, err := service.OnboardNewUser(ctx, userID)
	if result.ProfileUpdateErr != nil {
		logger.Warn("onboardFromSession: Failed to update profile for user %s: %v", userID, result.ProfileUpdateErr)
	}
	if !result.WelcomeBonusGranted {
		logger.Info("onboardFromSession: Welcome bonus already granted for user %s", userID)
	}
	if err != nil {
		logger.Error("onboardFromSession: Onboarding failed for user %s: %v", userID, err)
		return err
	}
	return nil
}

func extractUserIDFromToken(token string) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", fmt.Errorf("invalid token format")
	}

	payload := parts[1]
	// JWT base64 is RawUrlEncoding (no padding)
	data, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("failed to decode token payload: %w", err)
	}

	var claims map[string]interface{}
	if err := json.Unmarshal(data, &claims); err != nil {
		return "", fmt.Errorf("failed to unmarshal token claims: %w", err)
	}

	uid, ok := claims["uid"].(string)
	if !ok {
		return "", fmt.Errorf("token claims missing uid")
	}

	return uid, nil
}
