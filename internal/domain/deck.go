package domain

import "math/rand"

// DeckSize is the number of cards in a full deck.
const DeckSize = 52

// NewDeck returns an ordered 52-card deck, one card per (suit, rank).
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, s := range Suits {
		for i, r := range Ranks {
			deck = append(deck, Card{Suit: s, Rank: r, Value: i + 2})
		}
	}
	return deck
}

// ShuffleDeck returns a shuffled copy of the given deck using rng.
func ShuffleDeck(deck []Card, rng *rand.Rand) []Card {
	out := make([]Card, len(deck))
	copy(out, deck)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Deal partitions the deck round-robin across n seats: card i goes to seat
// i mod n, so hand sizes differ by at most one.
func Deal(deck []Card, n int) [][]Card {
	hands := make([][]Card, n)
	for i, c := range deck {
		seat := i % n
		hands[seat] = append(hands[seat], c)
	}
	return hands
}

// AceOfSpades is the mandatory opening card of every game.
var AceOfSpades = Card{Suit: SuitSpades, Rank: "A", Value: 14}

// FindStarter returns the seat index holding the ace of spades. A full,
// correctly dealt deck always contains it; -1 signals a broken deal.
func FindStarter(hands [][]Card) int {
	for i, hand := range hands {
		for _, c := range hand {
			if c.Suit == SuitSpades && c.Rank == "A" {
				return i
			}
		}
	}
	return -1
}
