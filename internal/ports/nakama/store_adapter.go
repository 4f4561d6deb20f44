package nakama

import (
	"context"
	"encoding/json"
	"fmt"

	"bhabhi/internal/domain"
	"bhabhi/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	gameStoreCollection = "games"
	// gameStoreOwner is Nakama's system user; game records belong to the
	// room, not any player.
	gameStoreOwner = ""
)

// NakamaGameStoreAdapter implements ports.GameStorePort on Nakama's storage engine.
type NakamaGameStoreAdapter struct {
	nk runtime.NakamaModule
}

// NewNakamaGameStoreAdapter creates a new game store adapter.
func NewNakamaGameStoreAdapter(nk runtime.NakamaModule) *NakamaGameStoreAdapter {
	return &NakamaGameStoreAdapter{nk: nk}
}

// SaveGame writes the full game snapshot under the room code.
func (a *NakamaGameStoreAdapter) SaveGame(ctx context.Context, g *domain.Game) error {
	value, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("failed to marshal game: %w", err)
	}

	write := &runtime.StorageWrite{
		Collection:      gameStoreCollection,
		Key:             g.RoomCode,
		UserID:          gameStoreOwner,
		Value:           string(value),
		PermissionRead:  2, // public read: the snapshot hides nothing clients cannot already request
		PermissionWrite: 0, // server-only writes
	}
	if _, err := a.nk.StorageWrite(ctx, []*runtime.StorageWrite{write}); err != nil {
		return fmt.Errorf("failed to write game %s: %w", g.RoomCode, err)
	}
	return nil
}

// LoadGame reads the snapshot for a room; missing records return (nil, nil).
func (a *NakamaGameStoreAdapter) LoadGame(ctx context.Context, roomCode string) (*domain.Game, error) {
	read := &runtime.StorageRead{
		Collection: gameStoreCollection,
		Key:        roomCode,
		UserID:     gameStoreOwner,
	}
	objects, err := a.nk.StorageRead(ctx, []*runtime.StorageRead{read})
	if err != nil {
		return nil, fmt.Errorf("failed to read game %s: %w", roomCode, err)
	}
	if len(objects) == 0 {
		return nil, nil
	}

	var g domain.Game
	if err := json.Unmarshal([]byte(objects[0].Value), &g); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game %s: %w", roomCode, err)
	}
	return &g, nil
}

// DeleteGame removes the snapshot for a room.
func (a *NakamaGameStoreAdapter) DeleteGame(ctx context.Context, roomCode string) error {
	del := &runtime.StorageDelete{
		Collection: gameStoreCollection,
		Key:        roomCode,
		UserID:     gameStoreOwner,
	}
	if err := a.nk.StorageDelete(ctx, []*runtime.StorageDelete{del}); err != nil {
		return fmt.Errorf("failed to delete game %s: %w", roomCode, err)
	}
	return nil
}

var _ ports.GameStorePort = (*NakamaGameStoreAdapter)(nil)
