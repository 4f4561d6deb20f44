package ports

import (
	"context"

	"bhabhi/internal/domain"
)

// GameStorePort defines the interface for persisting game records keyed by
// room code. The match handler saves after every mutation so a crashed match
// can be inspected and so read-side RPCs see current state.
type GameStorePort interface {
	// SaveGame writes the full game record, replacing any previous snapshot
	// for the same room.
	SaveGame(ctx context.Context, g *domain.Game) error

	// LoadGame reads the game record for a room. A missing record returns
	// (nil, nil).
	LoadGame(ctx context.Context, roomCode string) (*domain.Game, error)

	// DeleteGame removes the record for a room. Deleting a missing record is
	// not an error.
	DeleteGame(ctx context.Context, roomCode string) error
}
