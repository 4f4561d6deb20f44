package app

import (
	"errors"
	"testing"

	"bhabhi/internal/domain"
)

func TestTakeCardsTargetEscapes(t *testing.T) {
	svc := newService()
	g := fixedGame(map[string][]domain.Card{
		"p1": {card(domain.SuitSpades, "5")},
		"p2": {card(domain.SuitHearts, "2"), card(domain.SuitClubs, "9")},
		"p3": {card(domain.SuitSpades, "J")},
	}, "p1", "p2", "p3")

	evs, err := svc.TakeCards(g, "p1", "p2")
	if err != nil {
		t.Fatalf("take error: %v", err)
	}
	if len(g.Hands["p1"]) != 3 {
		t.Fatalf("p1 hand = %d cards, want 3", len(g.Hands["p1"]))
	}
	if len(g.Hands["p2"]) != 0 || !g.IsFinished("p2") {
		t.Fatal("target must be emptied and escaped")
	}

	if len(evs) != 1 || evs[0].Kind != EventCardsTaken {
		t.Fatalf("events = %+v, want cards_taken", evs)
	}
	p := evs[0].Payload.(CardsTakenPayload)
	if p.TakerID != "p1" || p.TargetID != "p2" || p.Count != 2 {
		t.Fatalf("payload = %+v", p)
	}
}

func TestTakeCardsValidation(t *testing.T) {
	svc := newService()
	g := fixedGame(map[string][]domain.Card{
		"p1": {card(domain.SuitSpades, "5")},
		"p2": {},
		"p3": {card(domain.SuitSpades, "J")},
	}, "p1", "p2", "p3")

	if _, err := svc.TakeCards(g, "p1", "p1"); !errors.Is(err, ErrSelfTarget) {
		t.Fatalf("self target err = %v, want ErrSelfTarget", err)
	}
	if _, err := svc.TakeCards(g, "p1", "p2"); !errors.Is(err, ErrTargetNoCards) {
		t.Fatalf("empty target err = %v, want ErrTargetNoCards", err)
	}
}

func TestExchangeRejectsNonParticipants(t *testing.T) {
	svc := newService()
	g := fixedGame(map[string][]domain.Card{
		"p1": {card(domain.SuitSpades, "5")},
		"p2": {card(domain.SuitSpades, "K")},
		"p3": {card(domain.SuitSpades, "J")},
	}, "p1", "p2", "p3")

	if _, err := svc.TakeCards(g, "ghost", "p2"); !errors.Is(err, ErrUnknownPlayer) {
		t.Fatalf("take err = %v, want ErrUnknownPlayer", err)
	}
	if _, err := svc.RequestCards(g, "ghost", "p2"); !errors.Is(err, ErrUnknownPlayer) {
		t.Fatalf("request err = %v, want ErrUnknownPlayer", err)
	}
	if _, ok := g.Hands["ghost"]; ok {
		t.Fatal("no hand may be created for an unseated id")
	}
	if len(g.Hands["p2"]) != 1 {
		t.Fatal("target hand must be untouched")
	}
}

func TestRequestCardsRejectsEscapedRequester(t *testing.T) {
	svc := newService()
	g := fixedGame(map[string][]domain.Card{
		"p1":   nil,
		"bot1": {card(domain.SuitHearts, "2"), card(domain.SuitClubs, "9")},
		"p3":   {card(domain.SuitSpades, "J")},
	}, "p1", "bot1", "p3")
	g.Players[1].IsBot = true
	g.MarkFinished("p1")

	if _, err := svc.RequestCards(g, "p1", "bot1"); !errors.Is(err, ErrAlreadyEscaped) {
		t.Fatalf("err = %v, want ErrAlreadyEscaped", err)
	}
	if len(g.Hands["p1"]) != 0 {
		t.Fatal("an escaped player must not re-acquire cards")
	}
	if g.IsFinished("bot1") {
		t.Fatal("bot must keep its hand after a rejected request")
	}
}

func TestTakeCardsEndsGameWhenOneRemains(t *testing.T) {
	svc := newService()
	g := fixedGame(map[string][]domain.Card{
		"p1": {card(domain.SuitSpades, "5")},
		"p2": {card(domain.SuitHearts, "2")},
	}, "p1", "p2")

	evs, err := svc.TakeCards(g, "p1", "p2")
	if err != nil {
		t.Fatalf("take error: %v", err)
	}
	if g.Status != domain.StatusFinished || g.Loser != "p1" {
		t.Fatalf("status = %s loser = %s, want finished/p1", g.Status, g.Loser)
	}

	foundEnd := false
	for _, ev := range evs {
		if ev.Kind == EventGameEnded {
			foundEnd = true
		}
	}
	if !foundEnd {
		t.Fatal("expected game ended event")
	}
}

func TestRequestCardsBotAutoAccepts(t *testing.T) {
	svc := newService()
	g := fixedGame(map[string][]domain.Card{
		"p1":   {card(domain.SuitSpades, "5")},
		"bot1": {card(domain.SuitHearts, "2"), card(domain.SuitClubs, "9")},
		"p3":   {card(domain.SuitSpades, "J")},
	}, "p1", "bot1", "p3")
	g.Players[1].IsBot = true

	evs, err := svc.RequestCards(g, "p1", "bot1")
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if !g.IsFinished("bot1") {
		t.Fatal("bot must hand over its cards and escape")
	}
	if len(g.Hands["p1"]) != 3 {
		t.Fatalf("p1 hand = %d cards, want 3", len(g.Hands["p1"]))
	}
	if len(evs) != 1 || evs[0].Kind != EventCardsGiven {
		t.Fatalf("events = %+v, want cards_given", evs)
	}
}

func TestRequestCardsHumanGetsPrompt(t *testing.T) {
	svc := newService()
	g := fixedGame(map[string][]domain.Card{
		"p1": {card(domain.SuitSpades, "5")},
		"p2": {card(domain.SuitHearts, "2"), card(domain.SuitClubs, "9")},
		"p3": {card(domain.SuitSpades, "J")},
	}, "p1", "p2", "p3")

	evs, err := svc.RequestCards(g, "p1", "p2")
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	// Nothing moves until the human answers.
	if len(g.Hands["p2"]) != 2 || g.IsFinished("p2") {
		t.Fatal("request must not move cards before the response")
	}

	if len(evs) != 1 || evs[0].Kind != EventCardRequest {
		t.Fatalf("events = %+v, want card_request", evs)
	}
	if got := evs[0].Recipients; len(got) != 1 || got[0] != "p2" {
		t.Fatalf("recipients = %v, want [p2]", got)
	}
	p := evs[0].Payload.(CardRequestPayload)
	if p.RequesterID != "p1" || p.TargetCards != 2 {
		t.Fatalf("payload = %+v", p)
	}
}

func TestRequestCardsLimits(t *testing.T) {
	svc := newService()
	g := fixedGame(map[string][]domain.Card{
		"p1": {card(domain.SuitSpades, "5")},
		"p2": {card(domain.SuitHearts, "2"), card(domain.SuitHearts, "3"), card(domain.SuitHearts, "4"), card(domain.SuitHearts, "5")},
	}, "p1", "p2")

	if _, err := svc.RequestCards(g, "p1", "p2"); !errors.Is(err, ErrTargetTooManyCards) {
		t.Fatalf("err = %v, want ErrTargetTooManyCards", err)
	}
}

func TestRespondToRequestDecline(t *testing.T) {
	svc := newService()
	g := fixedGame(map[string][]domain.Card{
		"p1": {card(domain.SuitSpades, "5")},
		"p2": {card(domain.SuitHearts, "2")},
		"p3": {card(domain.SuitSpades, "J")},
	}, "p1", "p2", "p3")

	evs, err := svc.RespondToRequest(g, "p2", "p1", false)
	if err != nil {
		t.Fatalf("respond error: %v", err)
	}
	if len(g.Hands["p2"]) != 1 || g.IsFinished("p2") {
		t.Fatal("a decline must not move cards")
	}
	if len(evs) != 1 || evs[0].Kind != EventCardRequestDeclined {
		t.Fatalf("events = %+v, want card_request_declined", evs)
	}
	if got := evs[0].Recipients; len(got) != 1 || got[0] != "p1" {
		t.Fatalf("recipients = %v, want [p1]", got)
	}
}

func TestRespondToRequestAcceptTransfersHand(t *testing.T) {
	svc := newService()
	g := fixedGame(map[string][]domain.Card{
		"p1": {card(domain.SuitSpades, "5")},
		"p2": {card(domain.SuitHearts, "2"), card(domain.SuitClubs, "9")},
		"p3": {card(domain.SuitSpades, "J")},
	}, "p1", "p2", "p3")

	evs, err := svc.RespondToRequest(g, "p2", "p1", true)
	if err != nil {
		t.Fatalf("respond error: %v", err)
	}
	if !g.IsFinished("p2") || len(g.Hands["p1"]) != 3 {
		t.Fatal("accept must transfer the hand and escape the responder")
	}
	if len(evs) != 1 || evs[0].Kind != EventCardsGiven {
		t.Fatalf("events = %+v, want cards_given", evs)
	}
}

func TestRespondToRequestAcceptRevalidates(t *testing.T) {
	svc := newService()
	g := fixedGame(map[string][]domain.Card{
		"p1": {card(domain.SuitSpades, "5")},
		"p2": {
			card(domain.SuitHearts, "2"), card(domain.SuitHearts, "3"),
			card(domain.SuitHearts, "4"), card(domain.SuitHearts, "5"),
		},
		"p3": {card(domain.SuitSpades, "J")},
	}, "p1", "p2", "p3")

	// The responder's hand grew past the limit between request and answer.
	if _, err := svc.RespondToRequest(g, "p2", "p1", true); !errors.Is(err, ErrTooManyCardsToOffer) {
		t.Fatalf("err = %v, want ErrTooManyCardsToOffer", err)
	}
}

func TestOfferCardsTargetCannotRefuse(t *testing.T) {
	svc := newService()
	g := fixedGame(map[string][]domain.Card{
		"p1": {card(domain.SuitSpades, "5"), card(domain.SuitHearts, "2")},
		"p2": {card(domain.SuitClubs, "9")},
		"p3": {card(domain.SuitSpades, "J")},
	}, "p1", "p2", "p3")

	evs, err := svc.OfferCards(g, "p1", "p2")
	if err != nil {
		t.Fatalf("offer error: %v", err)
	}
	if !g.IsFinished("p1") || len(g.Hands["p2"]) != 3 {
		t.Fatal("offer must transfer the hand and escape the offerer")
	}
	if len(evs) != 1 || evs[0].Kind != EventCardsOffered {
		t.Fatalf("events = %+v, want cards_offered", evs)
	}
	p := evs[0].Payload.(CardsOfferedPayload)
	if p.OffererID != "p1" || p.TakerID != "p2" || p.Count != 2 {
		t.Fatalf("payload = %+v", p)
	}
}

func TestOfferCardsLimits(t *testing.T) {
	svc := newService()
	g := fixedGame(map[string][]domain.Card{
		"p1": {
			card(domain.SuitHearts, "2"), card(domain.SuitHearts, "3"),
			card(domain.SuitHearts, "4"), card(domain.SuitHearts, "5"),
		},
		"p2": {card(domain.SuitClubs, "9")},
	}, "p1", "p2")

	if _, err := svc.OfferCards(g, "p1", "p2"); !errors.Is(err, ErrTooManyCardsToOffer) {
		t.Fatalf("err = %v, want ErrTooManyCardsToOffer", err)
	}
}

func TestExchangeRenormalizesTurnOffEscapedSeat(t *testing.T) {
	svc := newService()
	g := fixedGame(map[string][]domain.Card{
		"p1": {card(domain.SuitSpades, "5")},
		"p2": {card(domain.SuitHearts, "2")},
		"p3": {card(domain.SuitSpades, "J")},
	}, "p1", "p2", "p3")
	g.CurrentPlayerIndex = 1 // p2's turn

	if _, err := svc.TakeCards(g, "p1", "p2"); err != nil {
		t.Fatalf("take error: %v", err)
	}
	// p2 escaped while holding the turn; it must move to a living seat.
	if got := g.CurrentPlayerID(); got != "p3" {
		t.Fatalf("turn = %s, want p3", got)
	}
}
