package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/heroiclabs/nakama-common/runtime"
)

// QuickMatchResponse is the payload returned to clients when requesting a lobby-capable match.
type QuickMatchResponse struct {
	MatchID  string `json:"match_id"`
	RoomCode string `json:"room_code,omitempty"`
	IsNew    bool   `json:"is_new"`
}

// rpcQuickMatch finds an open lobby or creates a fresh match.
func rpcQuickMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	query := fmt.Sprintf("+label.game:bhabhi +label.state:lobby +label.%s:>=1", MatchLabelKey_OpenSeats)

	limit := 10
	authoritative := true
	minSize := 1
	maxSize := 7 // leave room for the joiner

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, query)
	if err != nil {
		logger.Error("MatchList error: %v", err)
		return "", err
	}

	if len(matches) > 0 {
		resp := QuickMatchResponse{MatchID: matches[0].MatchId, IsNew: false}
		b, _ := json.Marshal(resp)
		return string(b), nil
	}

	// Create new match; seat/owner assignment happens in MatchJoin (server-authoritative).
	matchID, err := nk.MatchCreate(ctx, MatchNameBhabhi, map[string]interface{}{})
	if err != nil {
		logger.Error("MatchCreate error: %v", err)
		return "", err
	}

	resp := QuickMatchResponse{MatchID: matchID, IsNew: true}
	b, _ := json.Marshal(resp)
	return string(b), nil
}

// JoinByCodeRequest asks for the match advertising the given room code.
type JoinByCodeRequest struct {
	Code string `json:"code"`
}

// rpcJoinByCode resolves a room code to its match id so friends can join a
// specific table.
func rpcJoinByCode(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var req JoinByCodeRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil || req.Code == "" {
		return "", runtime.NewError("room code required", 3) // INVALID_ARGUMENT
	}

	query := fmt.Sprintf("+label.game:bhabhi +label.code:%s", req.Code)
	limit := 1
	authoritative := true

	matches, err := nk.MatchList(ctx, limit, authoritative, "", nil, nil, query)
	if err != nil {
		logger.Error("MatchList error: %v", err)
		return "", err
	}
	if len(matches) == 0 {
		return "", runtime.NewError("room not found", 5) // NOT_FOUND
	}

	resp := QuickMatchResponse{MatchID: matches[0].MatchId, RoomCode: req.Code, IsNew: false}
	b, _ := json.Marshal(resp)
	return string(b), nil
}
