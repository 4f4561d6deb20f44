package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create a lobby-capable match.
	RpcQuickMatch = "quick_match"

	// RpcJoinByCode resolves a human-friendly room code to a match id.
	RpcJoinByCode = "join_by_code"

	// RpcGameState returns the stored game snapshot for a room.
	RpcGameState = "game_state"

	// RpcVoiceToken signs a voice-channel access token for the caller.
	RpcVoiceToken = "voice_token"

	// MatchNameBhabhi is the authoritative match handler name registered with Nakama.
	MatchNameBhabhi = "bhabhi_match"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartGame          int64 = 1
	OpPlayCard           int64 = 2
	OpTakeCards          int64 = 3
	OpRequestCards       int64 = 4
	OpRespondCardRequest int64 = 5
	OpOfferCards         int64 = 6
	OpForfeit            int64 = 7
	OpRestartGame        int64 = 8
	OpAddBot             int64 = 9
	OpRemoveBot          int64 = 10
	OpChat               int64 = 11
	OpVoiceSignal        int64 = 12
	OpVoiceStatus        int64 = 13
	OpReaction           int64 = 14

	// Server -> Client events
	OpLobbyState          int64 = 101
	OpGameStarted         int64 = 102
	OpGameUpdate          int64 = 103
	OpCardsTaken          int64 = 104
	OpCardsGiven          int64 = 105
	OpCardsOffered        int64 = 106
	OpCardRequest         int64 = 107
	OpCardRequestDeclined int64 = 108
	OpGameEnded           int64 = 109
	OpGameRestarted       int64 = 110
	OpGameError           int64 = 111
	OpChatMessage         int64 = 112
	OpVoiceSignalRelay    int64 = 113
	OpVoiceStatusRelay    int64 = 114
	OpReactionRelay       int64 = 115
)
