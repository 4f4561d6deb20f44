package bot

import (
	"errors"

	"bhabhi/internal/domain"
)

// ErrNoCards is returned when a bot has an empty hand on its turn, which the
// scheduler should make unreachable.
var ErrNoCards = errors.New("bot has no cards to play")

// Brain is the interface all bot strategies implement. Implementations must
// be pure: identical inputs always produce the same card.
type Brain interface {
	ChooseCard(g *domain.Game, playerID string) (domain.Card, error)
}
