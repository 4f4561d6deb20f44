package domain

// Status represents the lifecycle stage of a Bhabhi game.
type Status string

const (
	// StatusPlaying is the active game state where cards are played.
	StatusPlaying Status = "playing"
	// StatusFinished is the terminal state after a loser is determined.
	StatusFinished Status = "finished"
)

// Suit is one of the four standard French suits, lowercase on the wire.
type Suit string

const (
	SuitHearts   Suit = "hearts"
	SuitDiamonds Suit = "diamonds"
	SuitClubs    Suit = "clubs"
	SuitSpades   Suit = "spades"
)

// Suits lists all suits in canonical order. The order doubles as the
// deterministic tie-break for the bot policy.
var Suits = []Suit{SuitHearts, SuitDiamonds, SuitClubs, SuitSpades}

// Ranks lists card ranks from lowest to highest value.
var Ranks = []string{"2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A"}

// Card is a single playing card. Value is the rank's position in the total
// order, 2 for "2" through 14 for "A".
type Card struct {
	Suit  Suit   `json:"suit"`
	Rank  string `json:"rank"`
	Value int    `json:"value"`
}

// TrickCard is a card on the table together with who played it.
type TrickCard struct {
	Card
	PlayerID string `json:"player_id"`
}

// PlayerInfo is the read-only roster entry for a seated participant.
// The roster is fixed at deal time and defines player order.
type PlayerInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	IsBot    bool   `json:"is_bot"`
}

// TrickResult reports the outcome of the last resolved trick for display.
type TrickResult struct {
	// Type is "pickup" when a tochoo forced the power player to take the
	// trick, "discarded" when the cards went to the waste pile.
	Type           string      `json:"type"`
	PowerPlayer    string      `json:"power_player,omitempty"`
	Picker         string      `json:"picker,omitempty"`
	TochooBy       string      `json:"tochoo_by,omitempty"`
	Cards          int         `json:"cards,omitempty"`
	CompletedTrick []TrickCard `json:"completed_trick"`
	LeadSuit       Suit        `json:"lead_suit"`
}

// Game is the single authoritative record for one room's game in progress.
type Game struct {
	ID       string `json:"id"`
	RoomCode string `json:"room_code"`

	// Players is the seating roster in join order; PlayerOrder mirrors its
	// ids and never changes after the deal.
	Players     []PlayerInfo `json:"players"`
	PlayerOrder []string     `json:"player_order"`

	CurrentPlayerIndex int               `json:"current_player_index"`
	Hands              map[string][]Card `json:"player_hands"`
	CurrentTrick       []TrickCard       `json:"current_trick"`
	CompletedTrick     []TrickCard       `json:"completed_trick"`
	LeadSuit           Suit              `json:"lead_suit"`
	WastePile          []Card            `json:"waste_pile"`
	FinishedPlayers    []string          `json:"finished_players"`
	Loser              string            `json:"loser"`
	Status             Status            `json:"status"`
	IsFirstTrick       bool              `json:"is_first_trick"`
	TrickNumber        int               `json:"trick_number"`
	TochooHistory      map[string][]Suit `json:"tochoo_history"`
	LastTrickResult    *TrickResult      `json:"last_trick_result"`
}

// PlayerInfoByID returns the roster entry for the given player id.
func (g *Game) PlayerInfoByID(playerID string) (PlayerInfo, bool) {
	for _, p := range g.Players {
		if p.ID == playerID {
			return p, true
		}
	}
	return PlayerInfo{}, false
}

// IsFinished reports whether the given player has escaped.
func (g *Game) IsFinished(playerID string) bool {
	for _, id := range g.FinishedPlayers {
		if id == playerID {
			return true
		}
	}
	return false
}

// CurrentPlayerID returns the id of the seat whose turn it is.
func (g *Game) CurrentPlayerID() string {
	if len(g.PlayerOrder) == 0 {
		return ""
	}
	return g.PlayerOrder[g.CurrentPlayerIndex]
}

// ActivePlayers returns the ids of players still holding a stake in the
// game, in seating order.
func (g *Game) ActivePlayers() []string {
	active := make([]string, 0, len(g.PlayerOrder))
	for _, id := range g.PlayerOrder {
		if !g.IsFinished(id) {
			active = append(active, id)
		}
	}
	return active
}

// MarkFinished adds a player to the escaped set. FinishedPlayers only grows.
func (g *Game) MarkFinished(playerID string) {
	if !g.IsFinished(playerID) {
		g.FinishedPlayers = append(g.FinishedPlayers, playerID)
	}
}

// RecordTochoo notes that leadSuit burned playerID with a pickup. Bots avoid
// leading suits recorded here.
func (g *Game) RecordTochoo(playerID string, leadSuit Suit) {
	if g.TochooHistory == nil {
		g.TochooHistory = make(map[string][]Suit)
	}
	for _, s := range g.TochooHistory[playerID] {
		if s == leadSuit {
			return
		}
	}
	g.TochooHistory[playerID] = append(g.TochooHistory[playerID], leadSuit)
}

// CardCount returns the number of cards accounted for across hands, the
// waste pile and the in-flight trick. It must equal 52 in every reachable
// state of a dealt game.
func (g *Game) CardCount() int {
	n := len(g.WastePile) + len(g.CurrentTrick)
	for _, hand := range g.Hands {
		n += len(hand)
	}
	return n
}
