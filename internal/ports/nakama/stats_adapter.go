package nakama

import (
	"context"
	"encoding/json"
	"fmt"

	"bhabhi/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

const statsCollection = "player_stats"
const statsKey = "lifetime"

// NakamaStatsAdapter implements ports.StatsPort on per-user storage objects.
type NakamaStatsAdapter struct {
	nk runtime.NakamaModule
}

// NewNakamaStatsAdapter creates a new stats adapter.
func NewNakamaStatsAdapter(nk runtime.NakamaModule) *NakamaStatsAdapter {
	return &NakamaStatsAdapter{nk: nk}
}

// GetStats retrieves the current counters for a user. Users without a record
// get zero values.
func (a *NakamaStatsAdapter) GetStats(ctx context.Context, userID string) (ports.PlayerStats, error) {
	stats, _, err := a.read(ctx, userID)
	return stats, err
}

// RecordResult increments games-played and, on a win, games-won. The write
// uses the object version for optimistic concurrency; a conflicting write
// from another match surfaces as an error rather than a lost update.
func (a *NakamaStatsAdapter) RecordResult(ctx context.Context, userID string, won bool) error {
	stats, version, err := a.read(ctx, userID)
	if err != nil {
		return err
	}

	stats.GamesPlayed++
	if won {
		stats.GamesWon++
	}
	return a.write(ctx, userID, stats, version)
}

// EnsureStats creates a zeroed record when none exists.
func (a *NakamaStatsAdapter) EnsureStats(ctx context.Context, userID string) error {
	_, version, err := a.read(ctx, userID)
	if err != nil {
		return err
	}
	if version != "" {
		return nil
	}
	// "*" requires that no object exists yet.
	return a.write(ctx, userID, ports.PlayerStats{}, "*")
}

func (a *NakamaStatsAdapter) read(ctx context.Context, userID string) (ports.PlayerStats, string, error) {
	objects, err := a.nk.StorageRead(ctx, []*runtime.StorageRead{{
		Collection: statsCollection,
		Key:        statsKey,
		UserID:     userID,
	}})
	if err != nil {
		return ports.PlayerStats{}, "", fmt.Errorf("failed to read stats for %s: %w", userID, err)
	}
	if len(objects) == 0 {
		return ports.PlayerStats{}, "", nil
	}

	var stats ports.PlayerStats
	if err := json.Unmarshal([]byte(objects[0].Value), &stats); err != nil {
		return ports.PlayerStats{}, "", fmt.Errorf("failed to unmarshal stats for %s: %w", userID, err)
	}
	return stats, objects[0].Version, nil
}

func (a *NakamaStatsAdapter) write(ctx context.Context, userID string, stats ports.PlayerStats, version string) error {
	value, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	write := &runtime.StorageWrite{
		Collection:      statsCollection,
		Key:             statsKey,
		UserID:          userID,
		Value:           string(value),
		Version:         version,
		PermissionRead:  2, // stats are public profile data
		PermissionWrite: 0,
	}
	if _, err := a.nk.StorageWrite(ctx, []*runtime.StorageWrite{write}); err != nil {
		return fmt.Errorf("failed to write stats for %s: %w", userID, err)
	}
	return nil
}

var _ ports.StatsPort = (*NakamaStatsAdapter)(nil)
