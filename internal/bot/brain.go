package bot

import "bhabhi/internal/domain"

// StandardBrain implements the house computer-player policy: lead suits that
// have not burned you, stay under the current high card, shed dangerous
// singletons on a tochoo.
type StandardBrain struct{}

// ChooseCard selects the bot's play given the public trick context and its
// own hand and tochoo memory.
func (b *StandardBrain) ChooseCard(g *domain.Game, playerID string) (domain.Card, error) {
	hand := g.Hands[playerID]
	if len(hand) == 0 {
		return domain.Card{}, ErrNoCards
	}

	if len(g.CurrentTrick) == 0 {
		return b.lead(g, playerID, hand), nil
	}
	return b.follow(g, hand), nil
}

func (b *StandardBrain) lead(g *domain.Game, playerID string, hand []domain.Card) domain.Card {
	// The game's opening lead is forced.
	if g.IsFirstTrick && domain.HasCard(hand, domain.AceOfSpades) {
		return domain.AceOfSpades
	}

	counts := suitCounts(hand)
	burned := make(map[domain.Suit]bool)
	for _, s := range g.TochooHistory[playerID] {
		burned[s] = true
	}

	var safe []domain.Suit
	for _, s := range domain.Suits {
		if counts[s] > 0 && !burned[s] {
			safe = append(safe, s)
		}
	}

	var best domain.Suit
	if len(safe) > 0 {
		// Prefer a moderate holding: long enough to outlast opponents,
		// short enough that they can still follow.
		var moderate []domain.Suit
		for _, s := range safe {
			if counts[s] >= 2 && counts[s] <= 5 {
				moderate = append(moderate, s)
			}
		}
		pool := moderate
		if len(pool) == 0 {
			pool = safe
		}
		best = pool[0]
		for _, s := range pool[1:] {
			if counts[s] > counts[best] {
				best = s
			}
		}
	} else {
		// Every suit has burned us already; lose from the shortest one.
		for _, s := range domain.Suits {
			if counts[s] == 0 {
				continue
			}
			if best == "" || counts[s] < counts[best] {
				best = s
			}
		}
	}

	return lowestOfSuit(hand, best)
}

func (b *StandardBrain) follow(g *domain.Game, hand []domain.Card) domain.Card {
	suitCards := cardsOfSuit(hand, g.LeadSuit)
	if len(suitCards) == 0 {
		return b.tochoo(hand)
	}

	if g.IsFirstTrick {
		// First-trick cards discard regardless of power; waste the biggest.
		return maxCard(suitCards)
	}

	highestPlayed := 0
	for _, tc := range g.CurrentTrick {
		if tc.Suit == g.LeadSuit && tc.Value > highestPlayed {
			highestPlayed = tc.Value
		}
	}

	var winning, losing []domain.Card
	for _, c := range suitCards {
		if c.Value > highestPlayed {
			winning = append(winning, c)
		} else {
			losing = append(losing, c)
		}
	}

	if domain.TrickHasTochoo(g.CurrentTrick, g.LeadSuit) {
		// A pickup is guaranteed; stay under the high card if we can,
		// otherwise take it with the cheapest winner.
		if len(losing) > 0 {
			return maxCard(losing)
		}
		return minCard(winning)
	}

	if len(losing) > 0 {
		return maxCard(losing)
	}
	// Forced to take power; minimize next trick's lead value.
	return minCard(suitCards)
}

// tochoo picks the discard when the bot cannot follow suit: highest singleton
// first, then highest doubleton, then the biggest card overall.
func (b *StandardBrain) tochoo(hand []domain.Card) domain.Card {
	counts := suitCounts(hand)

	for _, width := range []int{1, 2} {
		var pool []domain.Card
		for _, c := range hand {
			if counts[c.Suit] == width {
				pool = append(pool, c)
			}
		}
		if len(pool) > 0 {
			return maxCard(pool)
		}
	}
	return maxCard(hand)
}

func suitCounts(hand []domain.Card) map[domain.Suit]int {
	counts := make(map[domain.Suit]int, len(domain.Suits))
	for _, c := range hand {
		counts[c.Suit]++
	}
	return counts
}

func cardsOfSuit(hand []domain.Card, suit domain.Suit) []domain.Card {
	var out []domain.Card
	for _, c := range hand {
		if c.Suit == suit {
			out = append(out, c)
		}
	}
	return out
}

func lowestOfSuit(hand []domain.Card, suit domain.Suit) domain.Card {
	return minCard(cardsOfSuit(hand, suit))
}

func minCard(cards []domain.Card) domain.Card {
	best := cards[0]
	for _, c := range cards[1:] {
		if domain.CardLess(c, best) {
			best = c
		}
	}
	return best
}

func maxCard(cards []domain.Card) domain.Card {
	best := cards[0]
	for _, c := range cards[1:] {
		if domain.CardLess(best, c) {
			best = c
		}
	}
	return best
}
