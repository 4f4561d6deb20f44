package bot

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
)

// BotIDPrefix marks user ids that belong to computer players. Bot ids never
// collide with Nakama account ids, which are UUIDs.
const BotIDPrefix = "bot_"

// Identity describes one entry in the bot roster.
type Identity struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// defaultNames is the built-in roster used when no identity file is present.
var defaultNames = []string{"Anmol", "Simran", "Sehaj", "Jaggu", "Jaggi", "Jassi", "Munna"}

var (
	identities []Identity
	loadOnce   sync.Once
	loadErr    error
)

// LoadIdentities loads the bot roster from the given path. Missing or broken
// files fall back to the built-in roster.
func LoadIdentities(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read bot identities: %w", err)
			return
		}
		var loaded []Identity
		if err := json.Unmarshal(data, &loaded); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal bot identities: %w", err)
			return
		}
		for _, id := range loaded {
			if id.UserID != "" && strings.HasPrefix(id.UserID, BotIDPrefix) {
				identities = append(identities, id)
			}
		}
	})
	return loadErr
}

// GetBotIdentity returns an identity for a bot by seat index (mod pool size).
func GetBotIdentity(index int) Identity {
	if len(identities) > 0 {
		return identities[index%len(identities)]
	}
	return Identity{
		UserID:   fmt.Sprintf("%s%d", BotIDPrefix, index+1),
		Username: defaultNames[index%len(defaultNames)],
	}
}

// MaxBots is the number of distinct bot identities available.
func MaxBots() int {
	if len(identities) > 0 {
		return len(identities)
	}
	return len(defaultNames)
}

// IsBot reports whether the given user id belongs to a computer player.
func IsBot(userID string) bool {
	return strings.HasPrefix(userID, BotIDPrefix)
}
