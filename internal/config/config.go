package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// GameConfig carries the tunables for match pacing and bot behavior. Delays
// are expressed in match-loop ticks so the handler never sleeps.
type GameConfig struct {
	// BotActDelayTicks is how long a bot waits before playing its card.
	BotActDelayTicks int64 `json:"bot_act_delay_ticks"`
	// TrickDisplayTicks is the hold between a trick's closing card and its
	// resolution, so observers can see the full trick.
	TrickDisplayTicks int64 `json:"trick_display_ticks"`
	// ResultDisplayTicks is the hold before the resolved trick display is
	// cleared.
	ResultDisplayTicks int64 `json:"result_display_ticks"`
	// BotForfeitHandSize is the hand size at which a bot gives up; a bot
	// buried that deep cannot win and would only stall the room.
	BotForfeitHandSize int `json:"bot_forfeit_hand_size"`
	// BotAutoFillDelayTicks configures how long to wait before adding bots to
	// a solo-human lobby.
	BotAutoFillDelayTicks int64 `json:"bot_auto_fill_delay_ticks"`
	// BotsEnabled controls whether computer players are allowed at all.
	BotsEnabled bool `json:"bots_enabled"`
}

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

// GetGameConfig returns the loaded configuration, or defaults when no file
// was loaded.
func GetGameConfig() GameConfig {
	if cfg != nil {
		return *cfg
	}
	return Defaults()
}

// Defaults returns the production pacing: 0.5s bot delay and 1s display
// holds at a 2Hz tick rate.
func Defaults() GameConfig {
	return GameConfig{
		BotActDelayTicks:      1,
		TrickDisplayTicks:     2,
		ResultDisplayTicks:    2,
		BotForfeitHandSize:    35,
		BotAutoFillDelayTicks: 10,
		BotsEnabled:           true,
	}
}
