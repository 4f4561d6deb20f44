package app

const (
	// MinPlayersToStartGame defines the minimum number of seated players
	// required to deal a game.
	MinPlayersToStartGame = 2

	// MaxPlayers caps the number of seats in a room.
	MaxPlayers = 8

	// ExchangeHandLimit is the largest hand a player may hold and still be
	// the subject of a request-cards or offer-cards flow.
	ExchangeHandLimit = 3
)
