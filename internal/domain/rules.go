package domain

import "fmt"

// HasSuit reports whether the hand holds at least one card of suit.
func HasSuit(hand []Card, suit Suit) bool {
	for _, c := range hand {
		if c.Suit == suit {
			return true
		}
	}
	return false
}

// HasCard reports whether the hand holds the exact (suit, rank).
func HasCard(hand []Card, card Card) bool {
	for _, c := range hand {
		if c.Suit == card.Suit && c.Rank == card.Rank {
			return true
		}
	}
	return false
}

// RemoveCard returns hand with one copy of card removed.
func RemoveCard(hand []Card, card Card) []Card {
	out := make([]Card, 0, len(hand))
	removed := false
	for _, c := range hand {
		if !removed && c.Suit == card.Suit && c.Rank == card.Rank {
			removed = true
			continue
		}
		out = append(out, c)
	}
	return out
}

// IsTochoo reports whether card breaks the lead suit.
func IsTochoo(card Card, leadSuit Suit) bool {
	return card.Suit != leadSuit
}

// HighestOfSuit returns the index within trick of the highest card of suit,
// or -1 when no card of that suit was played. Values are unique per suit, so
// there are no ties.
func HighestOfSuit(trick []TrickCard, suit Suit) int {
	highest := -1
	highestValue := -1
	for i, tc := range trick {
		if tc.Suit == suit && tc.Value > highestValue {
			highestValue = tc.Value
			highest = i
		}
	}
	return highest
}

// TrickHasTochoo reports whether any card in the trick is off the lead suit.
func TrickHasTochoo(trick []TrickCard, leadSuit Suit) bool {
	for _, tc := range trick {
		if IsTochoo(tc.Card, leadSuit) {
			return true
		}
	}
	return false
}

// TochooGiver returns the player who played the first off-suit card of the
// trick, or "" when everyone followed.
func TochooGiver(trick []TrickCard, leadSuit Suit) string {
	for _, tc := range trick {
		if IsTochoo(tc.Card, leadSuit) {
			return tc.PlayerID
		}
	}
	return ""
}

// ValidatePlay checks a proposed card against the trick state machine:
// ownership, the first-trick spades-Ace lead, and the follow-suit rule.
// It performs no mutation.
func ValidatePlay(g *Game, playerID string, card Card) error {
	hand := g.Hands[playerID]
	if !HasCard(hand, card) {
		return ErrCardNotInHand
	}

	if TrickComplete(g) {
		// The display hold between the closing card and resolution; no seat
		// may act until the trick resolves.
		return ErrTrickResolving
	}

	if len(g.CurrentTrick) == 0 {
		// Leading. The holder of the spades ace must open the game with it.
		if g.IsFirstTrick && HasCard(hand, AceOfSpades) {
			if card.Suit != SuitSpades || card.Rank != "A" {
				return ErrMustLeadSpadeAce
			}
		}
		return nil
	}

	if HasSuit(hand, g.LeadSuit) && card.Suit != g.LeadSuit {
		return ErrMustFollowSuit
	}
	return nil
}

// TrickComplete reports whether the in-flight trick is ready to resolve:
// a tochoo landed on a non-first trick, or every active player has played.
func TrickComplete(g *Game) bool {
	if len(g.CurrentTrick) == 0 {
		return false
	}
	if !g.IsFirstTrick && TrickHasTochoo(g.CurrentTrick, g.LeadSuit) {
		return true
	}
	// >= rather than ==: a mid-trick exchange can escape players who already
	// played, shrinking the active set below the trick size.
	return len(g.CurrentTrick) >= len(g.ActivePlayers())
}

// AdvanceTurn moves CurrentPlayerIndex to the next living seat. It returns
// an ErrInvariant when every seat has escaped, which the termination rule
// makes unreachable.
func AdvanceTurn(g *Game) error {
	return advanceFrom(g, (g.CurrentPlayerIndex+1)%len(g.PlayerOrder))
}

// SetTurn points the turn at playerID, then skips forward if that seat has
// already escaped.
func SetTurn(g *Game, playerID string) error {
	for i, id := range g.PlayerOrder {
		if id == playerID {
			return advanceFrom(g, i)
		}
	}
	return fmt.Errorf("%w: unknown seat %s", ErrInvariant, playerID)
}

func advanceFrom(g *Game, index int) error {
	for range g.PlayerOrder {
		if !g.IsFinished(g.PlayerOrder[index]) {
			g.CurrentPlayerIndex = index
			return nil
		}
		index = (index + 1) % len(g.PlayerOrder)
	}
	return fmt.Errorf("%w: all seats escaped", ErrInvariant)
}

// SuitIndex returns the canonical position of a suit, used as a stable
// tie-break when card values are equal across suits.
func SuitIndex(s Suit) int {
	for i, suit := range Suits {
		if suit == s {
			return i
		}
	}
	return len(Suits)
}

// CardLess orders cards by value, then by canonical suit order. The bot
// policy depends on this order being total and stable.
func CardLess(a, b Card) bool {
	if a.Value != b.Value {
		return a.Value < b.Value
	}
	return SuitIndex(a.Suit) < SuitIndex(b.Suit)
}

// StripOwners returns the bare cards of a trick, dropping who played them.
func StripOwners(trick []TrickCard) []Card {
	out := make([]Card, len(trick))
	for i, tc := range trick {
		out[i] = tc.Card
	}
	return out
}
