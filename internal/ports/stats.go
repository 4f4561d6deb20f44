package ports

import "context"

// PlayerStats is the per-user lifetime record.
type PlayerStats struct {
	GamesPlayed int64 `json:"games_played"`
	GamesWon    int64 `json:"games_won"`
}

// StatsPort defines the interface for the user gameplay counters. Callers
// are expected to skip bot ids; implementations may treat them as no-ops.
type StatsPort interface {
	// GetStats retrieves the current counters for a user, zero-valued when
	// the user has no record yet.
	GetStats(ctx context.Context, userID string) (PlayerStats, error)

	// RecordResult increments games-played for the user and, when won is
	// true, games-won as well.
	RecordResult(ctx context.Context, userID string, won bool) error

	// EnsureStats creates a zeroed record for the user if none exists yet.
	// Existing counters are left untouched.
	EnsureStats(ctx context.Context, userID string) error
}
