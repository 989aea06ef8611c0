package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/heroiclabs/nakama-common/runtime"
)

// Identity is one entry of the bot profile pool used to fill empty seats.
type Identity struct {
	DeviceID    string `json:"device_id"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Difficulty  string `json:"difficulty"` // "easy", "medium", "hard"
	AvatarIndex int    `json:"avatar_index"`
}

// Level returns the policy difficulty configured for this identity.
func (i Identity) Level() Level { return ParseLevel(i.Difficulty) }

var (
	identities    []Identity
	identityByID  map[string]Identity
	loadOnce      sync.Once
	provisionOnce sync.Once
	loadErr       error
)

// LoadIdentities reads the bot profile pool from a JSON file. Subsequent
// calls are no-ops.
func LoadIdentities(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("read bot identities: %w", err)
			return
		}
		if err := json.Unmarshal(data, &identities); err != nil {
			loadErr = fmt.Errorf("unmarshal bot identities: %w", err)
			return
		}

		identityByID = make(map[string]Identity, len(identities))
		for _, id := range identities {
			if id.UserID != "" {
				identityByID[id.UserID] = id
			}
		}
	})
	return loadErr
}

// ProvisionBots authenticates each configured identity against Nakama so the
// bot accounts exist with is_bot metadata before any room tries to seat one.
func ProvisionBots(ctx context.Context, nk runtime.NakamaModule, logger runtime.Logger) error {
	provisionOnce.Do(func() {
		if identityByID == nil {
			identityByID = make(map[string]Identity)
		}
		for i := range identities {
			identity := &identities[i]
			if identity.DeviceID == "" {
				continue
			}

			userID, username, _, err := nk.AuthenticateDevice(ctx, identity.DeviceID, identity.Username, true)
			if err != nil {
				logger.Error("provision bot %s: %v", identity.Username, err)
				continue
			}
			identity.UserID = userID
			identity.Username = username

			metadata := map[string]interface{}{
				"is_bot":       true,
				"difficulty":   identity.Difficulty,
				"avatar_index": identity.AvatarIndex,
			}
			if err := nk.AccountUpdateId(ctx, userID, identity.Username, metadata, identity.DisplayName, "", "", "", ""); err != nil {
				logger.Warn("update bot account %s: %v", userID, err)
			}

			identityByID[identity.UserID] = *identity
		}
	})
	return nil
}

// IdentityFor returns the identity registered for a bot user ID.
func IdentityFor(userID string) (Identity, bool) {
	id, ok := identityByID[userID]
	return id, ok
}

// IdentityAt returns a pool identity by index, wrapping around the pool.
// With no pool loaded it synthesizes a local identity so offline rooms can
// still seat bots.
func IdentityAt(index int) Identity {
	if len(identities) == 0 {
		return Identity{
			UserID:      fmt.Sprintf("bot-%d", index),
			Username:    fmt.Sprintf("bot_%d", index),
			DisplayName: fmt.Sprintf("AI Player %d", index+1),
		}
	}
	return identities[index%len(identities)]
}

// IsBot reports whether a user ID belongs to the bot pool. Synthesized
// identities from IdentityAt carry the bot- prefix.
func IsBot(userID string) bool {
	if _, ok := identityByID[userID]; ok {
		return true
	}
	return strings.HasPrefix(userID, "bot-")
}
