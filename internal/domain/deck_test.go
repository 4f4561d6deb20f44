package domain

import (
	"math/rand"
	"testing"
)

func TestNewDeckHas52UniqueCards(t *testing.T) {
	deck := NewDeck()
	if len(deck) != DeckSize {
		t.Fatalf("deck size = %d, want %d", len(deck), DeckSize)
	}

	seen := make(map[Card]bool, DeckSize)
	for _, c := range deck {
		if seen[c] {
			t.Fatalf("duplicate card %v", c)
		}
		seen[c] = true
		if c.Value < 2 || c.Value > 14 {
			t.Fatalf("card %v has value outside 2..14", c)
		}
	}
}

func TestShuffleDeckPreservesCards(t *testing.T) {
	deck := NewDeck()
	shuffled := ShuffleDeck(deck, rand.New(rand.NewSource(7)))

	if len(shuffled) != len(deck) {
		t.Fatalf("shuffled size = %d, want %d", len(shuffled), len(deck))
	}
	seen := make(map[Card]bool, DeckSize)
	for _, c := range shuffled {
		seen[c] = true
	}
	if len(seen) != DeckSize {
		t.Fatalf("shuffle lost cards: %d unique", len(seen))
	}
}

func TestDealRoundRobin(t *testing.T) {
	tests := []struct {
		players   int
		wantSizes []int
	}{
		{players: 2, wantSizes: []int{26, 26}},
		{players: 3, wantSizes: []int{18, 17, 17}},
		{players: 4, wantSizes: []int{13, 13, 13, 13}},
		{players: 5, wantSizes: []int{11, 11, 10, 10, 10}},
		{players: 8, wantSizes: []int{7, 7, 7, 7, 6, 6, 6, 6}},
	}

	for _, test := range tests {
		hands := Deal(NewDeck(), test.players)
		if len(hands) != test.players {
			t.Fatalf("hands = %d, want %d", len(hands), test.players)
		}
		total := 0
		for i, hand := range hands {
			if len(hand) != test.wantSizes[i] {
				t.Fatalf("%d players: hand %d size = %d, want %d", test.players, i, len(hand), test.wantSizes[i])
			}
			total += len(hand)
		}
		if total != DeckSize {
			t.Fatalf("%d players: dealt %d cards, want %d", test.players, total, DeckSize)
		}
	}
}

func TestFindStarter(t *testing.T) {
	hands := Deal(NewDeck(), 4)
	starter := FindStarter(hands)
	if starter < 0 {
		t.Fatal("full deal must contain the ace of spades")
	}
	if !HasCard(hands[starter], AceOfSpades) {
		t.Fatalf("seat %d does not hold the ace of spades", starter)
	}

	if got := FindStarter([][]Card{{card(SuitHearts, "2")}}); got != -1 {
		t.Fatalf("FindStarter without ace = %d, want -1", got)
	}
}
