package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

type BetTier struct {
	ID      string `json:"id"`
	BaseBet int64  `json:"base_bet"`
}

type GameConfig struct {
	TaxRate     float64   `json:"tax_rate"`
	DefaultTier string    `json:"default_tier"`
	Tiers       []BetTier `json:"tiers"`
	// StandingPoints awards leaderboard points by finishing position,
	// first out to last.
	StandingPoints [4]int64 `json:"standing_points"`
	// BotAutoFillDelaySeconds configures how many seconds to wait before adding a bot to a lobby short of players.
	BotAutoFillDelaySeconds int `json:"bot_auto_fill_delay_seconds"`
	// BotMoveDelayTicks spaces out bot turns so moves remain readable in the client.
	BotMoveDelayTicks int `json:"bot_move_delay_ticks"`
	// VoiceTokenTTLSeconds bounds the lifetime of issued voice channel tokens.
	VoiceTokenTTLSeconds int `json:"voice_token_ttl_seconds"`
}

var defaultStandingPoints = [4]int64{3, 2, 1, 0}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}

		var c GameConfig
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal game config: %w", err)
			return
		}
		cfg = &c
	})
	return loadErr
}

// GetGameConfig returns the global game configuration.
func GetGameConfig() *GameConfig {
	return cfg
}

// GetStandingPoints returns the per-position leaderboard points.
func GetStandingPoints() [4]int64 {
	if cfg == nil || cfg.StandingPoints == ([4]int64{}) {
		return defaultStandingPoints
	}
	return cfg.StandingPoints
}

// GetBotMoveDelayTicks returns the configured bot turn spacing in match ticks.
func GetBotMoveDelayTicks() int {
	if cfg == nil || cfg.BotMoveDelayTicks <= 0 {
		return 3
	}
	return cfg.BotMoveDelayTicks
}

// GetBaseBet returns the base bet for a given tier ID, or the default if not found.
func GetBaseBet(tierID string) int64 {
	if cfg == nil {
		return 100 // Safe default
	}

	target := tierID
	if target == "" {
		target = cfg.DefaultTier
	}

	for _, tier := range cfg.Tiers {
		if tier.ID == target {
			return tier.BaseBet
		}
	}

	// Fallback to default tier if specific ID not found
	for _, tier := range cfg.Tiers {
		if tier.ID == cfg.DefaultTier {
			return tier.BaseBet
		}
	}

	return 100
}
