package nakama

import (
	"encoding/json"

	"bhabhi/internal/domain"
)

// Client request payloads. Everything on the wire is JSON.

type PlayCardRequest struct {
	Card domain.Card `json:"card"`
}

// TargetRequest carries the other party of an exchange (take, request, offer).
type TargetRequest struct {
	TargetID string `json:"target_id"`
}

type RespondCardRequest struct {
	RequesterID string `json:"requester_id"`
	Accept      bool   `json:"accept"`
}

type RemoveBotRequest struct {
	BotID string `json:"bot_id"`
}

type ChatRequest struct {
	Text string `json:"text"`
}

// VoiceSignalRequest relays a WebRTC negotiation blob to one peer. The
// server does not interpret Data.
type VoiceSignalRequest struct {
	TargetID string          `json:"target_id"`
	Data     json.RawMessage `json:"data"`
}

type VoiceStatusRequest struct {
	Muted bool `json:"muted"`
}

type ReactionRequest struct {
	Emoji string `json:"emoji"`
}

// Server event payloads.

// LobbyPlayer is one roster entry in the lobby snapshot.
type LobbyPlayer struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	IsBot    bool   `json:"is_bot"`
	IsOwner  bool   `json:"is_owner"`
}

// LobbyState is broadcast whenever seating changes outside a game.
type LobbyState struct {
	RoomCode string        `json:"room_code"`
	Players  []LobbyPlayer `json:"players"`
	OwnerID  string        `json:"owner_id"`
}

// PlayerView is the public per-player projection inside a game update.
// Hands stay concealed; only the count is public.
type PlayerView struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	IsBot     bool   `json:"is_bot"`
	CardCount int    `json:"card_count"`
	Finished  bool   `json:"finished"`
}

// GameUpdate is the per-recipient game snapshot sent after every mutation.
// YourHand is the recipient's own cards; AllHands is populated only for
// recipients who have already escaped and therefore hold no stake.
type GameUpdate struct {
	GameID          string                   `json:"game_id"`
	RoomCode        string                   `json:"room_code"`
	Players         []PlayerView             `json:"players"`
	YourHand        []domain.Card            `json:"your_hand,omitempty"`
	AllHands        map[string][]domain.Card `json:"all_hands,omitempty"`
	CurrentPlayer   string                   `json:"current_player"`
	CurrentTrick    []domain.TrickCard       `json:"current_trick"`
	CompletedTrick  []domain.TrickCard       `json:"completed_trick,omitempty"`
	LeadSuit        domain.Suit              `json:"lead_suit,omitempty"`
	WasteCount      int                      `json:"waste_count"`
	FinishedPlayers []string                 `json:"finished_players"`
	Loser           string                   `json:"loser,omitempty"`
	Status          domain.Status            `json:"status"`
	IsFirstTrick    bool                     `json:"is_first_trick"`
	TrickNumber     int                      `json:"trick_number"`
	LastTrickResult *domain.TrickResult      `json:"last_trick_result,omitempty"`
}

type GameStartedMessage struct {
	GameID    string `json:"game_id"`
	StarterID string `json:"starter_id"`
}

type CardsTakenMessage struct {
	TakerID  string `json:"taker_id"`
	TargetID string `json:"target_id"`
	Count    int    `json:"count"`
}

type CardsGivenMessage struct {
	GiverID    string `json:"giver_id"`
	ReceiverID string `json:"receiver_id"`
	Count      int    `json:"count"`
}

type CardsOfferedMessage struct {
	OffererID string `json:"offerer_id"`
	TakerID   string `json:"taker_id"`
	Count     int    `json:"count"`
}

type CardRequestMessage struct {
	RequesterID   string `json:"requester_id"`
	RequesterName string `json:"requester_name"`
	TargetCards   int    `json:"target_cards"`
}

type CardRequestDeclinedMessage struct {
	DeclinerID   string `json:"decliner_id"`
	DeclinerName string `json:"decliner_name"`
}

type GameEndedMessage struct {
	LoserID         string   `json:"loser_id"`
	FinishedPlayers []string `json:"finished_players"`
}

type GameErrorMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type ChatMessage struct {
	SenderID   string `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Text       string `json:"text"`
}

type VoiceSignalRelay struct {
	SenderID string          `json:"sender_id"`
	Data     json.RawMessage `json:"data"`
}

type VoiceStatusRelay struct {
	SenderID string `json:"sender_id"`
	Muted    bool   `json:"muted"`
}

type ReactionRelay struct {
	SenderID   string `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Emoji      string `json:"emoji"`
}

// MatchLabel is the JSON label Nakama indexes for match listing queries.
type MatchLabel struct {
	Game  string `json:"game"`
	Open  int    `json:"open"`
	State string `json:"state"`
	Code  string `json:"code"`
}
