package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/heroiclabs/nakama-common/runtime"
)

// GameStateRequest asks for the stored snapshot of a room's game.
type GameStateRequest struct {
	RoomCode string `json:"room_code"`
}

// rpcGameState returns the persisted game snapshot for a room, with hands
// redacted to counts. The live per-player view travels over the match
// socket; this endpoint serves out-of-match observers and post-game review.
func rpcGameState(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var req GameStateRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil || req.RoomCode == "" {
		return "", runtime.NewError("room code required", 3) // INVALID_ARGUMENT
	}

	store := NewNakamaGameStoreAdapter(nk)
	g, err := store.LoadGame(ctx, req.RoomCode)
	if err != nil {
		logger.Error("rpcGameState: Failed to load game %s: %v", req.RoomCode, err)
		return "", runtime.NewError("internal error", 13) // INTERNAL
	}
	if g == nil {
		return "", runtime.NewError("game not found", 5) // NOT_FOUND
	}

	players := make([]PlayerView, 0, len(g.Players))
	for _, p := range g.Players {
		players = append(players, PlayerView{
			ID:        p.ID,
			Username:  p.Username,
			IsBot:     p.IsBot,
			CardCount: len(g.Hands[p.ID]),
			Finished:  g.IsFinished(p.ID),
		})
	}

	update := GameUpdate{
		GameID:          g.ID,
		RoomCode:        g.RoomCode,
		Players:         players,
		CurrentPlayer:   g.CurrentPlayerID(),
		CurrentTrick:    g.CurrentTrick,
		CompletedTrick:  g.CompletedTrick,
		LeadSuit:        g.LeadSuit,
		WasteCount:      len(g.WastePile),
		FinishedPlayers: g.FinishedPlayers,
		Loser:           g.Loser,
		Status:          g.Status,
		IsFirstTrick:    g.IsFirstTrick,
		TrickNumber:     g.TrickNumber,
		LastTrickResult: g.LastTrickResult,
	}

	b, err := json.Marshal(update)
	if err != nil {
		return "", runtime.NewError("internal error", 13)
	}
	return string(b), nil
}
