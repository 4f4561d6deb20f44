package app

import "bhabhi/internal/domain"

// EventKind identifies emitted game events for adapter dispatch.
type EventKind string

const (
	EventGameStarted         EventKind = "game_started"
	EventCardPlayed          EventKind = "card_played"
	EventTrickResolved       EventKind = "trick_resolved"
	EventCardsTaken          EventKind = "cards_taken"
	EventCardsGiven          EventKind = "cards_given"
	EventCardsOffered        EventKind = "cards_offered"
	EventCardRequest         EventKind = "card_request"
	EventCardRequestDeclined EventKind = "card_request_declined"
	EventGameEnded           EventKind = "game_ended"
)

// Event is a game event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

type GameStartedPayload struct {
	StarterID string
}

type CardPlayedPayload struct {
	PlayerID      string
	Card          domain.Card
	TrickComplete bool
}

type TrickResolvedPayload struct {
	Result *domain.TrickResult
}

type CardsTakenPayload struct {
	TakerID  string
	TargetID string
	Count    int
}

type CardsGivenPayload struct {
	GiverID    string
	ReceiverID string
	Count      int
}

type CardsOfferedPayload struct {
	OffererID string
	TakerID   string
	Count     int
}

type CardRequestPayload struct {
	RequesterID   string
	RequesterName string
	TargetID      string
	TargetCards   int
}

type CardRequestDeclinedPayload struct {
	DeclinerID   string
	DeclinerName string
	RequesterID  string
}

type GameEndedPayload struct {
	LoserID         string
	FinishedPlayers []string
}
