package app

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"bhabhi/internal/domain"

	"github.com/google/uuid"
)

// Service contains Bhabhi use-cases operating on the game record. All
// mutation of a domain.Game flows through here; callers are responsible for
// persisting and broadcasting after each call.
type Service struct {
	rng *rand.Rand
}

// NewService constructs a Service with provided rng or a time-seeded default.
func NewService(rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{rng: rng}
}

var (
	ErrGameNotInProgress   = errors.New("game is not in progress")
	ErrNotYourTurn         = errors.New("not your turn")
	ErrTooFewPlayers       = errors.New("need at least 2 players")
	ErrUnknownPlayer       = errors.New("player not found")
	ErrSelfTarget          = errors.New("cannot target yourself")
	ErrTargetEscaped       = errors.New("target player has already escaped")
	ErrTargetNoCards       = errors.New("target has no cards")
	ErrTargetTooManyCards  = errors.New("target holds too many cards")
	ErrNoCardsToOffer      = errors.New("you have no cards to offer")
	ErrTooManyCardsToOffer = errors.New("can only offer with 3 or fewer cards")
	ErrAlreadyEscaped      = errors.New("you have already escaped")
)

// StartGame deals a fresh game for the given roster. Seating order is join
// order; the spades-Ace holder opens.
func (s *Service) StartGame(roomCode string, roster []domain.PlayerInfo) (*domain.Game, []Event, error) {
	if len(roster) < MinPlayersToStartGame {
		return nil, nil, ErrTooFewPlayers
	}

	deck := domain.ShuffleDeck(domain.NewDeck(), s.rng)
	dealt := domain.Deal(deck, len(roster))

	starter := domain.FindStarter(dealt)
	if starter < 0 {
		return nil, nil, fmt.Errorf("%w: no hand holds the ace of spades", domain.ErrInvariant)
	}

	game := &domain.Game{
		ID:                 uuid.NewString(),
		RoomCode:           roomCode,
		Players:            roster,
		CurrentPlayerIndex: starter,
		Hands:              make(map[string][]domain.Card, len(roster)),
		Status:             domain.StatusPlaying,
		IsFirstTrick:       true,
		TrickNumber:        1,
		TochooHistory:      make(map[string][]domain.Suit),
	}
	for i, p := range roster {
		game.PlayerOrder = append(game.PlayerOrder, p.ID)
		game.Hands[p.ID] = dealt[i]
	}

	events := []Event{{
		Kind:    EventGameStarted,
		Payload: GameStartedPayload{StarterID: roster[starter].ID},
	}}
	return game, events, nil
}

// PlayCard validates and applies one card from the current player. When the
// play completes the trick the caller must schedule ResolveTrick after the
// display hold; until then further plays are rejected.
func (s *Service) PlayCard(g *domain.Game, playerID string, card domain.Card) ([]Event, error) {
	if g.Status != domain.StatusPlaying {
		return nil, ErrGameNotInProgress
	}
	if g.CurrentPlayerID() != playerID {
		return nil, ErrNotYourTurn
	}
	if err := domain.ValidatePlay(g, playerID, card); err != nil {
		return nil, err
	}

	if len(g.CurrentTrick) == 0 {
		g.LeadSuit = card.Suit
	}
	g.Hands[playerID] = domain.RemoveCard(g.Hands[playerID], card)
	g.CurrentTrick = append(g.CurrentTrick, domain.TrickCard{Card: card, PlayerID: playerID})

	complete := domain.TrickComplete(g)
	if !complete {
		if err := domain.AdvanceTurn(g); err != nil {
			return nil, err
		}
	}

	return []Event{{
		Kind:    EventCardPlayed,
		Payload: CardPlayedPayload{PlayerID: playerID, Card: card, TrickComplete: complete},
	}}, nil
}

// ResolveTrick applies the resolution outcome of a complete trick: waste
// routing on the first trick or a suit-followed trick, pickup by the power
// player on a tochoo, escape detection, the empty-hand-with-power draw, and
// the turn handoff to the power player.
func (s *Service) ResolveTrick(g *domain.Game) ([]Event, error) {
	if g.Status != domain.StatusPlaying {
		return nil, ErrGameNotInProgress
	}
	if len(g.CurrentTrick) == 0 {
		return nil, fmt.Errorf("%w: resolving an empty trick", domain.ErrInvariant)
	}

	trick := g.CurrentTrick
	leadSuit := g.LeadSuit
	completed := append([]domain.TrickCard(nil), trick...)

	highest := domain.HighestOfSuit(trick, leadSuit)
	if highest < 0 {
		return nil, fmt.Errorf("%w: no card of lead suit %s in trick", domain.ErrInvariant, leadSuit)
	}
	powerPlayer := trick[highest].PlayerID
	hasTochoo := domain.TrickHasTochoo(trick, leadSuit)

	var result *domain.TrickResult
	switch {
	case g.IsFirstTrick:
		// First trick cards always discard, tochoo or not.
		g.WastePile = append(g.WastePile, domain.StripOwners(trick)...)
		result = &domain.TrickResult{
			Type:           "discarded",
			PowerPlayer:    powerPlayer,
			CompletedTrick: completed,
			LeadSuit:       leadSuit,
		}
	case hasTochoo:
		cards := domain.StripOwners(trick)
		g.Hands[powerPlayer] = append(g.Hands[powerPlayer], cards...)
		g.RecordTochoo(powerPlayer, leadSuit)
		result = &domain.TrickResult{
			Type:           "pickup",
			Picker:         powerPlayer,
			TochooBy:       domain.TochooGiver(trick, leadSuit),
			Cards:          len(cards),
			CompletedTrick: completed,
			LeadSuit:       leadSuit,
		}
	default:
		g.WastePile = append(g.WastePile, domain.StripOwners(trick)...)
		result = &domain.TrickResult{
			Type:           "discarded",
			PowerPlayer:    powerPlayer,
			CompletedTrick: completed,
			LeadSuit:       leadSuit,
		}
	}

	g.CompletedTrick = completed
	g.LastTrickResult = result
	g.CurrentTrick = nil
	g.LeadSuit = ""
	g.IsFirstTrick = false
	g.TrickNumber++

	// Escape detection: empty-handed players leave play unless they are the
	// one picking up.
	for _, pid := range g.ActivePlayers() {
		if len(g.Hands[pid]) == 0 && pid != powerPlayer {
			g.MarkFinished(pid)
		}
	}

	events := []Event{{Kind: EventTrickResolved, Payload: TrickResolvedPayload{Result: result}}}

	active := g.ActivePlayers()
	switch len(active) {
	case 0:
		return nil, fmt.Errorf("%w: trick resolution left no active players", domain.ErrInvariant)
	case 1:
		events = append(events, s.finish(g, active[0])...)
		return events, nil
	}

	// Power cannot be held by an empty hand: draw a random waste card so the
	// power player can lead.
	if len(g.Hands[powerPlayer]) == 0 && len(g.WastePile) > 0 {
		i := s.rng.Intn(len(g.WastePile))
		drawn := g.WastePile[i]
		g.WastePile = append(g.WastePile[:i], g.WastePile[i+1:]...)
		g.Hands[powerPlayer] = []domain.Card{drawn}
	}

	if err := domain.SetTurn(g, powerPlayer); err != nil {
		return nil, err
	}
	return events, nil
}

// ClearTrickDisplay drops the completed-trick display state after its hold
// window has elapsed.
func (s *Service) ClearTrickDisplay(g *domain.Game) {
	g.CompletedTrick = nil
	g.LastTrickResult = nil
}

// TakeCards unconditionally pulls every card from the target's hand into the
// taker's. The target escapes.
func (s *Service) TakeCards(g *domain.Game, takerID, targetID string) ([]Event, error) {
	if g.Status != domain.StatusPlaying {
		return nil, ErrGameNotInProgress
	}
	if takerID == targetID {
		return nil, ErrSelfTarget
	}
	if _, ok := g.PlayerInfoByID(takerID); !ok {
		return nil, ErrUnknownPlayer
	}
	if g.IsFinished(takerID) {
		return nil, ErrAlreadyEscaped
	}
	targetHand := g.Hands[targetID]
	if len(targetHand) == 0 {
		return nil, ErrTargetNoCards
	}

	g.Hands[takerID] = append(g.Hands[takerID], targetHand...)
	g.Hands[targetID] = nil
	g.MarkFinished(targetID)

	events := []Event{{
		Kind:    EventCardsTaken,
		Payload: CardsTakenPayload{TakerID: takerID, TargetID: targetID, Count: len(targetHand)},
	}}
	return s.afterExchange(g, events)
}

// RequestCards asks a short-handed target to hand over their cards. Bots
// auto-accept; humans receive a prompt and answer via RespondToRequest.
func (s *Service) RequestCards(g *domain.Game, requesterID, targetID string) ([]Event, error) {
	if g.Status != domain.StatusPlaying {
		return nil, ErrGameNotInProgress
	}
	if requesterID == targetID {
		return nil, ErrSelfTarget
	}
	if _, ok := g.PlayerInfoByID(requesterID); !ok {
		return nil, ErrUnknownPlayer
	}
	if g.IsFinished(requesterID) {
		return nil, ErrAlreadyEscaped
	}
	if g.IsFinished(targetID) {
		return nil, ErrTargetEscaped
	}
	targetHand := g.Hands[targetID]
	if len(targetHand) == 0 {
		return nil, ErrTargetNoCards
	}
	if len(targetHand) > ExchangeHandLimit {
		return nil, ErrTargetTooManyCards
	}

	target, ok := g.PlayerInfoByID(targetID)
	if !ok {
		return nil, ErrUnknownPlayer
	}

	if target.IsBot {
		// Bots always accept: escaping beats holding cards.
		return s.transferHand(g, targetID, requesterID)
	}

	requesterName := requesterID
	if requester, ok := g.PlayerInfoByID(requesterID); ok {
		requesterName = requester.Username
	}
	return []Event{{
		Kind: EventCardRequest,
		Payload: CardRequestPayload{
			RequesterID:   requesterID,
			RequesterName: requesterName,
			TargetID:      targetID,
			TargetCards:   len(targetHand),
		},
		Recipients: []string{targetID},
	}}, nil
}

// RespondToRequest applies a human target's answer to a pending card
// request. Eligibility is re-checked at accept time: an interleaved exchange
// may have changed the responder's hand since the request was issued.
func (s *Service) RespondToRequest(g *domain.Game, responderID, requesterID string, accept bool) ([]Event, error) {
	if g.Status != domain.StatusPlaying {
		return nil, ErrGameNotInProgress
	}

	if !accept {
		declinerName := responderID
		if decliner, ok := g.PlayerInfoByID(responderID); ok {
			declinerName = decliner.Username
		}
		return []Event{{
			Kind: EventCardRequestDeclined,
			Payload: CardRequestDeclinedPayload{
				DeclinerID:   responderID,
				DeclinerName: declinerName,
				RequesterID:  requesterID,
			},
			Recipients: []string{requesterID},
		}}, nil
	}

	if g.IsFinished(responderID) {
		return nil, ErrAlreadyEscaped
	}
	if g.IsFinished(requesterID) {
		return nil, ErrTargetEscaped
	}
	hand := g.Hands[responderID]
	if len(hand) == 0 {
		return nil, ErrNoCardsToOffer
	}
	if len(hand) > ExchangeHandLimit {
		return nil, ErrTooManyCardsToOffer
	}

	return s.transferHand(g, responderID, requesterID)
}

// OfferCards hands the offerer's short hand to a target, who cannot refuse.
// The offerer escapes.
func (s *Service) OfferCards(g *domain.Game, offererID, targetID string) ([]Event, error) {
	if g.Status != domain.StatusPlaying {
		return nil, ErrGameNotInProgress
	}
	if offererID == targetID {
		return nil, ErrSelfTarget
	}
	hand := g.Hands[offererID]
	if len(hand) == 0 {
		return nil, ErrNoCardsToOffer
	}
	if len(hand) > ExchangeHandLimit {
		return nil, ErrTooManyCardsToOffer
	}
	if g.IsFinished(targetID) {
		return nil, ErrTargetEscaped
	}
	if _, ok := g.PlayerInfoByID(targetID); !ok {
		return nil, ErrUnknownPlayer
	}

	count := len(hand)
	g.Hands[targetID] = append(g.Hands[targetID], hand...)
	g.Hands[offererID] = nil
	g.MarkFinished(offererID)

	events := []Event{{
		Kind:    EventCardsOffered,
		Payload: CardsOfferedPayload{OffererID: offererID, TakerID: targetID, Count: count},
	}}
	return s.afterExchange(g, events)
}

// Forfeit ends the game immediately with playerID as the loser; every other
// still-active player escapes in the same step.
func (s *Service) Forfeit(g *domain.Game, playerID string) ([]Event, error) {
	if g.Status != domain.StatusPlaying {
		return nil, ErrGameNotInProgress
	}
	if _, ok := g.PlayerInfoByID(playerID); !ok {
		return nil, ErrUnknownPlayer
	}
	if g.IsFinished(playerID) {
		return nil, ErrAlreadyEscaped
	}

	for _, pid := range g.ActivePlayers() {
		if pid != playerID {
			g.MarkFinished(pid)
		}
	}
	return s.finish(g, playerID), nil
}

// transferHand moves a full hand from giver to receiver; the giver escapes.
func (s *Service) transferHand(g *domain.Game, giverID, receiverID string) ([]Event, error) {
	hand := g.Hands[giverID]
	count := len(hand)
	g.Hands[receiverID] = append(g.Hands[receiverID], hand...)
	g.Hands[giverID] = nil
	g.MarkFinished(giverID)

	events := []Event{{
		Kind:    EventCardsGiven,
		Payload: CardsGivenPayload{GiverID: giverID, ReceiverID: receiverID, Count: count},
	}}
	return s.afterExchange(g, events)
}

// afterExchange re-evaluates termination and re-normalizes the turn pointer
// after a side-channel mutation. An exchange can remove the current seat
// from play; the turn must land on a living player.
func (s *Service) afterExchange(g *domain.Game, events []Event) ([]Event, error) {
	active := g.ActivePlayers()
	if len(active) == 1 {
		return append(events, s.finish(g, active[0])...), nil
	}

	if g.IsFinished(g.CurrentPlayerID()) {
		if err := domain.AdvanceTurn(g); err != nil {
			return nil, err
		}
	}
	return events, nil
}

// finish performs the shared game-ending sequence. It is a no-op when the
// game is already finished, keeping terminal transitions idempotent.
func (s *Service) finish(g *domain.Game, loserID string) []Event {
	if g.Status == domain.StatusFinished {
		return nil
	}
	g.Loser = loserID
	g.Status = domain.StatusFinished
	return []Event{{
		Kind: EventGameEnded,
		Payload: GameEndedPayload{
			LoserID:         loserID,
			FinishedPlayers: append([]string(nil), g.FinishedPlayers...),
		},
	}}
}
