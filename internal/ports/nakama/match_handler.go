package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"math/rand"
	"time"

	"bhabhi/internal/app"
	"bhabhi/internal/bot"
	"bhabhi/internal/config"
	"bhabhi/internal/domain"
	"bhabhi/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	// MatchLabelKey_OpenSeats is the label key match listing queries filter on.
	MatchLabelKey_OpenSeats = "open"

	// matchTickRate is ticks per second. Display holds and bot delays in
	// config.GameConfig are expressed in these ticks.
	matchTickRate = 2

	// botAutoFillTargetSeats caps how many seats a solo-human lobby is
	// topped up to.
	botAutoFillTargetSeats = 4
)

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	Seats     [app.MaxPlayers]string      `json:"seats"`      // User IDs, empty string means seat is empty
	OwnerSeat int                         `json:"owner_seat"` // Seat index of the match owner
	RoomCode  string                      `json:"room_code"`  // Human-friendly code identifying this room
	Tick      int64                       `json:"tick"`       // Current tick of the match for turn-based logic
	Presences map[string]runtime.Presence `json:"-"`          // Map UserId -> Presence for targeted messaging
	App       *app.Service                `json:"-"`          // Bhabhi app service with game logic
	Game      *domain.Game                `json:"-"`          // Current game state (nil before the first deal)
	Bots      map[string]*bot.Agent       `json:"-"`          // Active bot agents keyed by bot user id
	Stats     ports.StatsPort             `json:"-"`          // Lifetime win/loss counters
	Store     ports.GameStorePort         `json:"-"`          // Game snapshot persistence
	Cfg       config.GameConfig           `json:"-"`          // Pacing and bot tunables

	// Tick deadlines, 0 when unarmed. The loop never sleeps; pacing is
	// expressed as "act no earlier than this tick".
	BotActAtTick         int64 `json:"bot_act_at_tick"`         // When the current bot plays its card
	ResolveAtTick        int64 `json:"resolve_at_tick"`         // When a complete trick resolves
	ClearAtTick          int64 `json:"clear_at_tick"`           // When the resolved-trick display clears
	LastSinglePlayerTick int64 `json:"last_single_player_tick"` // When a single human started waiting
}

func (ms *MatchState) GetOpenSeatsCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat == "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) GetOccupiedSeatCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat != "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) GetHumanPlayerCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat != "" && !bot.IsBot(seat) {
			count++
		}
	}
	return count
}

// seatOf returns the seat index occupied by userID or -1.
func (ms *MatchState) seatOf(userID string) int {
	for i, seat := range ms.Seats {
		if seat == userID {
			return i
		}
	}
	return -1
}

// gameInProgress reports whether cards are currently in play.
func (ms *MatchState) gameInProgress() bool {
	return ms.Game != nil && ms.Game.Status == domain.StatusPlaying
}

// usernameFor resolves a display name for a seat occupant.
func (ms *MatchState) usernameFor(userID string) string {
	if p, ok := ms.Presences[userID]; ok {
		return p.GetUsername()
	}
	if agent, ok := ms.Bots[userID]; ok {
		return agent.Name
	}
	return userID
}

// isHumanSeat reports whether the seat index belongs to a human player.
func isHumanSeat(seats []string, seatIndex int) bool {
	if seatIndex < 0 || seatIndex >= len(seats) {
		return false
	}
	userID := seats[seatIndex]
	return userID != "" && !bot.IsBot(userID)
}

// findFirstHumanSeat returns the first seat index with a human occupant or -1 if none exist.
func findFirstHumanSeat(seats []string) int {
	for i, userID := range seats {
		if userID != "" && !bot.IsBot(userID) {
			return i
		}
	}
	return -1
}

// roomCodeAlphabet excludes nothing; codes are short and collisions are
// tolerated because the match id stays the real address.
const roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

func generateRoomCode(rng *rand.Rand) string {
	code := make([]byte, 4)
	for i := range code {
		code[i] = roomCodeAlphabet[rng.Intn(len(roomCodeAlphabet))]
	}
	return string(code)
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return &matchHandler{}, nil
}

type matchHandler struct{}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	if err := bot.LoadIdentities("data/bot_identities.json"); err != nil {
		logger.Warn("MatchInit: Could not load bot identities: %v", err)
	}
	if err := config.LoadGameConfig("data/game_config.json"); err != nil {
		logger.Warn("MatchInit: Could not load game config: %v", err)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	state := &MatchState{
		Tick:      0,
		RoomCode:  generateRoomCode(rng),
		Presences: make(map[string]runtime.Presence),
		App:       app.NewService(rng),
		OwnerSeat: -1,
		Bots:      make(map[string]*bot.Agent),
		Stats:     NewNakamaStatsAdapter(nk),
		Store:     NewNakamaGameStoreAdapter(nk),
		Cfg:       config.GetGameConfig(),
	}

	// Environment overrides for bot behavior.
	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok {
		if val, ok := env["bhabhi_bots_enabled"]; ok {
			state.Cfg.BotsEnabled = val == "true"
		}
	}

	labelBytes, err := json.Marshal(&MatchLabel{
		Game:  "bhabhi",
		Open:  state.GetOpenSeatsCount(),
		State: "lobby",
		Code:  state.RoomCode,
	})
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	return state, matchTickRate, string(labelBytes)
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	// During a game only participants may (re)connect.
	if matchState.gameInProgress() {
		if _, isPlayer := matchState.Game.PlayerInfoByID(presence.GetUserId()); !isPlayer {
			return state, false, "Game in progress"
		}
		return state, true, ""
	}

	// Lobby: allow join if there is an empty seat or a bot to replace.
	if matchState.GetOpenSeatsCount() <= 0 {
		hasBot := false
		for _, seat := range matchState.Seats {
			if bot.IsBot(seat) {
				hasBot = true
				break
			}
		}
		if !hasBot {
			return state, false, "Match full"
		}
	}

	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		matchState.Presences[p.GetUserId()] = p

		// Reconnect: the seat is still held, just resend state below.
		if matchState.seatOf(p.GetUserId()) >= 0 {
			logger.Info("MatchJoin: User %s reconnected.", p.GetUserId())
			continue
		}

		// Assign seat: empty seats first, then bots (lobby only).
		assigned := false
		for i, seatUserID := range matchState.Seats {
			if seatUserID == "" {
				matchState.Seats[i] = p.GetUserId()
				assigned = true
				break
			}
		}

		if !assigned && !matchState.gameInProgress() {
			for i, seatUserID := range matchState.Seats {
				if bot.IsBot(seatUserID) {
					logger.Info("MatchJoin: Replacing bot %s with human %s in seat %d", seatUserID, p.GetUserId(), i)
					delete(matchState.Bots, seatUserID)
					matchState.Seats[i] = p.GetUserId()
					assigned = true
					break
				}
			}
		}

		if !assigned {
			logger.Warn("MatchJoin: User %s joined but no seat was available.", p.GetUserId())
			continue
		}
	}

	// Ensure owner seat is assigned to a human player only.
	if !isHumanSeat(matchState.Seats[:], matchState.OwnerSeat) {
		matchState.OwnerSeat = findFirstHumanSeat(matchState.Seats[:])
		if matchState.OwnerSeat >= 0 {
			logger.Debug("MatchJoin: Owner set to human seat %d.", matchState.OwnerSeat)
		}
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastLobbyState(matchState, dispatcher, logger)

	// Resend the game snapshot so reconnecting players can resume.
	if matchState.Game != nil {
		mh.broadcastGameUpdate(matchState, dispatcher, logger)
	}

	return matchState
}

// MatchLeave is called when one or more players leave the match.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		delete(matchState.Presences, p.GetUserId())

		// Seats are only freed outside an active game; a mid-game leaver
		// keeps their seat so they can reconnect.
		if matchState.gameInProgress() {
			logger.Debug("MatchLeave: User %s disconnected mid-game, seat retained.", p.GetUserId())
			continue
		}

		if i := matchState.seatOf(p.GetUserId()); i >= 0 {
			matchState.Seats[i] = ""
			logger.Debug("MatchLeave: User %s left, seat %d freed.", p.GetUserId(), i)
		}
	}

	// No connected humans left: tear the match down.
	humansConnected := 0
	for uid := range matchState.Presences {
		if !bot.IsBot(uid) {
			humansConnected++
		}
	}
	if humansConnected == 0 {
		logger.Info("MatchLeave: Terminating match with no humans.")
		if matchState.Game != nil {
			if err := matchState.Store.DeleteGame(ctx, matchState.RoomCode); err != nil {
				logger.Warn("MatchLeave: Failed to delete stored game: %v", err)
			}
		}
		return nil
	}

	newOwnerSeat := findFirstHumanSeat(matchState.Seats[:])
	if newOwnerSeat != matchState.OwnerSeat {
		matchState.OwnerSeat = newOwnerSeat
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastLobbyState(matchState, dispatcher, logger)

	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpStartGame:
			mh.handleStartGame(ctx, matchState, dispatcher, logger, msg)
		case OpPlayCard:
			mh.handlePlayCard(ctx, matchState, dispatcher, logger, msg)
		case OpTakeCards:
			mh.handleTakeCards(ctx, matchState, dispatcher, logger, msg)
		case OpRequestCards:
			mh.handleRequestCards(ctx, matchState, dispatcher, logger, msg)
		case OpRespondCardRequest:
			mh.handleRespondCardRequest(ctx, matchState, dispatcher, logger, msg)
		case OpOfferCards:
			mh.handleOfferCards(ctx, matchState, dispatcher, logger, msg)
		case OpForfeit:
			mh.handleForfeit(ctx, matchState, dispatcher, logger, msg)
		case OpRestartGame:
			mh.handleRestartGame(ctx, matchState, dispatcher, logger, msg)
		case OpAddBot:
			mh.handleAddBot(ctx, matchState, dispatcher, logger, msg)
		case OpRemoveBot:
			mh.handleRemoveBot(ctx, matchState, dispatcher, logger, msg)
		case OpChat:
			mh.handleChat(matchState, dispatcher, logger, msg)
		case OpVoiceSignal:
			mh.handleVoiceSignal(matchState, dispatcher, logger, msg)
		case OpVoiceStatus:
			mh.handleVoiceStatus(matchState, dispatcher, logger, msg)
		case OpReaction:
			mh.handleReaction(matchState, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	mh.processTimers(ctx, matchState, dispatcher, logger)

	if matchState.Cfg.BotsEnabled {
		mh.processBots(ctx, matchState, dispatcher, logger)
	}

	return matchState
}

// processTimers fires due tick deadlines: trick resolution first, then the
// display clear. Both run at most once per tick.
func (mh *matchHandler) processTimers(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.ResolveAtTick > 0 && state.Tick >= state.ResolveAtTick {
		state.ResolveAtTick = 0
		if state.gameInProgress() {
			events, err := state.App.ResolveTrick(state.Game)
			if err != nil {
				logger.Error("processTimers: Trick resolution failed: %v", err)
			} else {
				mh.handleEvents(ctx, state, dispatcher, logger, events)
				mh.saveAndBroadcast(ctx, state, dispatcher, logger)
				state.ClearAtTick = state.Tick + state.Cfg.ResultDisplayTicks
			}
		}
	}

	if state.ClearAtTick > 0 && state.Tick >= state.ClearAtTick {
		state.ClearAtTick = 0
		if state.Game != nil {
			state.App.ClearTrickDisplay(state.Game)
			mh.saveAndBroadcast(ctx, state, dispatcher, logger)
		}
	}
}

func (mh *matchHandler) processBots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	// 1. Auto-fill the lobby with bots when a single human has been waiting.
	if state.Game == nil {
		if state.GetHumanPlayerCount() == 1 {
			if state.LastSinglePlayerTick == 0 {
				state.LastSinglePlayerTick = state.Tick
				logger.Debug("processBots: Single player detected, starting auto-fill timer.")
			}

			if state.Tick-state.LastSinglePlayerTick >= state.Cfg.BotAutoFillDelayTicks {
				added := false
				for i, seat := range state.Seats {
					if state.GetOccupiedSeatCount() >= botAutoFillTargetSeats {
						break
					}
					if seat != "" {
						continue
					}
					identity := bot.GetBotIdentity(i)
					state.Seats[i] = identity.UserID
					state.Bots[identity.UserID] = bot.NewAgent(identity)
					logger.Info("processBots: Added bot %s (%s) to seat %d", identity.Username, identity.UserID, i)
					added = true
				}
				if added {
					mh.updateLabel(state, dispatcher, logger)
					mh.broadcastLobbyState(state, dispatcher, logger)
				}
				state.LastSinglePlayerTick = 0
			}
		} else {
			state.LastSinglePlayerTick = 0
		}
	}

	// 2. Handle bot turns in-game. Bots never act while a trick resolution
	// or display hold is pending.
	if !state.gameInProgress() || state.ResolveAtTick > 0 || state.ClearAtTick > 0 {
		state.BotActAtTick = 0
		return
	}

	currentUserID := state.Game.CurrentPlayerID()
	if !bot.IsBot(currentUserID) {
		state.BotActAtTick = 0
		return
	}

	if state.BotActAtTick == 0 {
		state.BotActAtTick = state.Tick + state.Cfg.BotActDelayTicks
		return
	}
	if state.Tick < state.BotActAtTick {
		return
	}
	state.BotActAtTick = 0

	agent, exists := state.Bots[currentUserID]
	if !exists {
		// Missing agent means the roster got out of sync with the bot map.
		agent = bot.NewAgent(bot.Identity{UserID: currentUserID, Username: state.usernameFor(currentUserID)})
		state.Bots[currentUserID] = agent
	}

	// A buried bot concedes rather than stalling the room.
	if handSize := len(state.Game.Hands[currentUserID]); handSize >= state.Cfg.BotForfeitHandSize {
		events, err := state.App.Forfeit(state.Game, currentUserID)
		if err != nil {
			logger.Error("processBots: Bot %s failed to forfeit: %v", currentUserID, err)
			return
		}
		logger.Info("processBots: Bot %s forfeited with %d cards.", currentUserID, handSize)
		mh.handleEvents(ctx, state, dispatcher, logger, events)
		mh.saveAndBroadcast(ctx, state, dispatcher, logger)
		return
	}

	card, err := agent.Play(state.Game)
	if err != nil {
		logger.Error("processBots: Bot %s failed to choose a card: %v", currentUserID, err)
		return
	}

	events, err := state.App.PlayCard(state.Game, currentUserID, card)
	if err != nil {
		logger.Error("processBots: Bot %s failed to play %v: %v", currentUserID, card, err)
		return
	}
	mh.handleEvents(ctx, state, dispatcher, logger, events)
	mh.saveAndBroadcast(ctx, state, dispatcher, logger)
}

func (mh *matchHandler) handleStartGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	senderSeat := state.seatOf(senderID)

	logger.Info("StartGame: Request received from %s (seat=%d, owner_seat=%d, occupied=%d)", senderID, senderSeat, state.OwnerSeat, state.GetOccupiedSeatCount())

	if senderSeat != state.OwnerSeat {
		logger.Warn("StartGame: User %s tried to start game but is not owner (owner_seat=%d)", senderID, state.OwnerSeat)
		return
	}
	if state.gameInProgress() {
		logger.Warn("StartGame: Game already in progress.")
		return
	}
	if state.GetOccupiedSeatCount() < app.MinPlayersToStartGame {
		logger.Warn("StartGame: Cannot start with %d players. Need at least %d.", state.GetOccupiedSeatCount(), app.MinPlayersToStartGame)
		return
	}

	mh.startGame(ctx, state, dispatcher, logger, OpGameStarted)
}

// startGame deals a fresh game from the current seating and broadcasts it.
// announceOp distinguishes a first deal from a restart.
func (mh *matchHandler) startGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, announceOp int64) {
	roster := make([]domain.PlayerInfo, 0, state.GetOccupiedSeatCount())
	for _, seat := range state.Seats {
		if seat == "" {
			continue
		}
		roster = append(roster, domain.PlayerInfo{
			ID:       seat,
			Username: state.usernameFor(seat),
			IsBot:    bot.IsBot(seat),
		})
	}

	game, events, err := state.App.StartGame(state.RoomCode, roster)
	if err != nil {
		logger.Error("StartGame: Failed to start game: %v", err)
		return
	}

	state.Game = game
	state.BotActAtTick = 0
	state.ResolveAtTick = 0
	state.ClearAtTick = 0

	mh.updateLabel(state, dispatcher, logger)
	for _, ev := range events {
		if ev.Kind == app.EventGameStarted {
			p := ev.Payload.(app.GameStartedPayload)
			mh.broadcast(state, dispatcher, logger, announceOp, GameStartedMessage{
				GameID:    game.ID,
				StarterID: p.StarterID,
			}, nil)
		}
	}
	mh.saveAndBroadcast(ctx, state, dispatcher, logger)

	logger.Info("StartGame: Game %s started with %d players, %s opens.", game.ID, len(roster), game.CurrentPlayerID())
}

func (mh *matchHandler) handlePlayCard(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if !state.gameInProgress() {
		mh.sendError(state, dispatcher, logger, senderID, 400, "game is not in progress")
		return
	}

	var request PlayCardRequest
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		logger.Error("handlePlayCard: Failed to unmarshal request: %v", err)
		return
	}

	events, err := state.App.PlayCard(state.Game, senderID, request.Card)
	if err != nil {
		logger.Warn("handlePlayCard: User %s failed to play %v: %v", senderID, request.Card, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}

	mh.handleEvents(ctx, state, dispatcher, logger, events)
	mh.saveAndBroadcast(ctx, state, dispatcher, logger)
}

func (mh *matchHandler) handleTakeCards(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if !state.gameInProgress() {
		mh.sendError(state, dispatcher, logger, senderID, 400, "game is not in progress")
		return
	}

	var request TargetRequest
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		logger.Error("handleTakeCards: Failed to unmarshal request: %v", err)
		return
	}

	events, err := state.App.TakeCards(state.Game, senderID, request.TargetID)
	if err != nil {
		logger.Warn("handleTakeCards: User %s failed to take from %s: %v", senderID, request.TargetID, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}

	mh.handleEvents(ctx, state, dispatcher, logger, events)
	mh.saveAndBroadcast(ctx, state, dispatcher, logger)
}

func (mh *matchHandler) handleRequestCards(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if !state.gameInProgress() {
		mh.sendError(state, dispatcher, logger, senderID, 400, "game is not in progress")
		return
	}

	var request TargetRequest
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		logger.Error("handleRequestCards: Failed to unmarshal request: %v", err)
		return
	}

	events, err := state.App.RequestCards(state.Game, senderID, request.TargetID)
	if err != nil {
		logger.Warn("handleRequestCards: User %s failed to request from %s: %v", senderID, request.TargetID, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}

	mh.handleEvents(ctx, state, dispatcher, logger, events)
	mh.saveAndBroadcast(ctx, state, dispatcher, logger)
}

func (mh *matchHandler) handleRespondCardRequest(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if !state.gameInProgress() {
		mh.sendError(state, dispatcher, logger, senderID, 400, "game is not in progress")
		return
	}

	var request RespondCardRequest
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		logger.Error("handleRespondCardRequest: Failed to unmarshal request: %v", err)
		return
	}

	events, err := state.App.RespondToRequest(state.Game, senderID, request.RequesterID, request.Accept)
	if err != nil {
		logger.Warn("handleRespondCardRequest: User %s failed to respond to %s: %v", senderID, request.RequesterID, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}

	mh.handleEvents(ctx, state, dispatcher, logger, events)
	mh.saveAndBroadcast(ctx, state, dispatcher, logger)
}

func (mh *matchHandler) handleOfferCards(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if !state.gameInProgress() {
		mh.sendError(state, dispatcher, logger, senderID, 400, "game is not in progress")
		return
	}

	var request TargetRequest
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		logger.Error("handleOfferCards: Failed to unmarshal request: %v", err)
		return
	}

	events, err := state.App.OfferCards(state.Game, senderID, request.TargetID)
	if err != nil {
		logger.Warn("handleOfferCards: User %s failed to offer to %s: %v", senderID, request.TargetID, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}

	mh.handleEvents(ctx, state, dispatcher, logger, events)
	mh.saveAndBroadcast(ctx, state, dispatcher, logger)
}

func (mh *matchHandler) handleForfeit(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if !state.gameInProgress() {
		mh.sendError(state, dispatcher, logger, senderID, 400, "game is not in progress")
		return
	}

	events, err := state.App.Forfeit(state.Game, senderID)
	if err != nil {
		logger.Warn("handleForfeit: User %s failed to forfeit: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}

	mh.handleEvents(ctx, state, dispatcher, logger, events)
	mh.saveAndBroadcast(ctx, state, dispatcher, logger)
}

func (mh *matchHandler) handleRestartGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if state.seatOf(senderID) != state.OwnerSeat {
		logger.Warn("RestartGame: User %s is not the owner.", senderID)
		return
	}
	if state.Game == nil || state.Game.Status != domain.StatusFinished {
		logger.Warn("RestartGame: No finished game to restart.")
		return
	}
	if state.GetOccupiedSeatCount() < app.MinPlayersToStartGame {
		logger.Warn("RestartGame: Not enough players to restart.")
		return
	}

	mh.startGame(ctx, state, dispatcher, logger, OpGameRestarted)
}

func (mh *matchHandler) handleAddBot(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if state.seatOf(senderID) != state.OwnerSeat {
		logger.Warn("AddBot: User %s is not the owner.", senderID)
		return
	}
	if state.gameInProgress() {
		logger.Warn("AddBot: Cannot add bots mid-game.")
		return
	}

	for i, seat := range state.Seats {
		if seat != "" {
			continue
		}
		identity := bot.GetBotIdentity(i)
		if state.seatOf(identity.UserID) >= 0 {
			continue // identity already seated under this id
		}
		state.Seats[i] = identity.UserID
		state.Bots[identity.UserID] = bot.NewAgent(identity)
		logger.Info("AddBot: Added bot %s (%s) to seat %d", identity.Username, identity.UserID, i)
		mh.updateLabel(state, dispatcher, logger)
		mh.broadcastLobbyState(state, dispatcher, logger)
		return
	}

	logger.Warn("AddBot: No free seat or bot identity available.")
}

func (mh *matchHandler) handleRemoveBot(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if state.seatOf(senderID) != state.OwnerSeat {
		logger.Warn("RemoveBot: User %s is not the owner.", senderID)
		return
	}
	if state.gameInProgress() {
		logger.Warn("RemoveBot: Cannot remove bots mid-game.")
		return
	}

	var request RemoveBotRequest
	if len(msg.GetData()) > 0 {
		if err := json.Unmarshal(msg.GetData(), &request); err != nil {
			logger.Error("RemoveBot: Failed to unmarshal request: %v", err)
			return
		}
	}

	// Remove the named bot, or the last seated bot when unnamed.
	removeSeat := -1
	for i := len(state.Seats) - 1; i >= 0; i-- {
		if !bot.IsBot(state.Seats[i]) {
			continue
		}
		if request.BotID == "" || state.Seats[i] == request.BotID {
			removeSeat = i
			break
		}
	}
	if removeSeat < 0 {
		logger.Warn("RemoveBot: No matching bot to remove.")
		return
	}

	botID := state.Seats[removeSeat]
	state.Seats[removeSeat] = ""
	delete(state.Bots, botID)
	logger.Info("RemoveBot: Removed bot %s from seat %d", botID, removeSeat)

	mh.updateLabel(state, dispatcher, logger)
	mh.broadcastLobbyState(state, dispatcher, logger)
}

func (mh *matchHandler) handleChat(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	var request ChatRequest
	if err := json.Unmarshal(msg.GetData(), &request); err != nil || request.Text == "" {
		return
	}

	mh.broadcast(state, dispatcher, logger, OpChatMessage, ChatMessage{
		SenderID:   msg.GetUserId(),
		SenderName: state.usernameFor(msg.GetUserId()),
		Text:       request.Text,
	}, nil)
}

func (mh *matchHandler) handleVoiceSignal(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	var request VoiceSignalRequest
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		return
	}

	// Signals are peer-to-peer: relay only to the named target.
	mh.broadcast(state, dispatcher, logger, OpVoiceSignalRelay, VoiceSignalRelay{
		SenderID: msg.GetUserId(),
		Data:     request.Data,
	}, []string{request.TargetID})
}

func (mh *matchHandler) handleVoiceStatus(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	var request VoiceStatusRequest
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		return
	}

	mh.broadcast(state, dispatcher, logger, OpVoiceStatusRelay, VoiceStatusRelay{
		SenderID: msg.GetUserId(),
		Muted:    request.Muted,
	}, nil)
}

func (mh *matchHandler) handleReaction(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	var request ReactionRequest
	if err := json.Unmarshal(msg.GetData(), &request); err != nil || request.Emoji == "" {
		return
	}

	mh.broadcast(state, dispatcher, logger, OpReactionRelay, ReactionRelay{
		SenderID:   msg.GetUserId(),
		SenderName: state.usernameFor(msg.GetUserId()),
		Emoji:      request.Emoji,
	}, nil)
}

// handleEvents dispatches app events to clients and arms follow-up tick
// deadlines: the resolution hold after a closing card and the display clear
// after a resolution.
func (mh *matchHandler) handleEvents(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	for _, ev := range events {
		switch ev.Kind {
		case app.EventCardPlayed:
			p := ev.Payload.(app.CardPlayedPayload)
			if p.TrickComplete {
				state.ResolveAtTick = state.Tick + state.Cfg.TrickDisplayTicks
				state.BotActAtTick = 0
			}
		case app.EventTrickResolved:
			// Display clear is armed by the resolve timer path.
		case app.EventCardsTaken:
			p := ev.Payload.(app.CardsTakenPayload)
			mh.broadcast(state, dispatcher, logger, OpCardsTaken, CardsTakenMessage{
				TakerID:  p.TakerID,
				TargetID: p.TargetID,
				Count:    p.Count,
			}, ev.Recipients)
		case app.EventCardsGiven:
			p := ev.Payload.(app.CardsGivenPayload)
			mh.broadcast(state, dispatcher, logger, OpCardsGiven, CardsGivenMessage{
				GiverID:    p.GiverID,
				ReceiverID: p.ReceiverID,
				Count:      p.Count,
			}, ev.Recipients)
		case app.EventCardsOffered:
			p := ev.Payload.(app.CardsOfferedPayload)
			mh.broadcast(state, dispatcher, logger, OpCardsOffered, CardsOfferedMessage{
				OffererID: p.OffererID,
				TakerID:   p.TakerID,
				Count:     p.Count,
			}, ev.Recipients)
		case app.EventCardRequest:
			p := ev.Payload.(app.CardRequestPayload)
			mh.broadcast(state, dispatcher, logger, OpCardRequest, CardRequestMessage{
				RequesterID:   p.RequesterID,
				RequesterName: p.RequesterName,
				TargetCards:   p.TargetCards,
			}, ev.Recipients)
		case app.EventCardRequestDeclined:
			p := ev.Payload.(app.CardRequestDeclinedPayload)
			mh.broadcast(state, dispatcher, logger, OpCardRequestDeclined, CardRequestDeclinedMessage{
				DeclinerID:   p.DeclinerID,
				DeclinerName: p.DeclinerName,
			}, ev.Recipients)
		case app.EventGameEnded:
			p := ev.Payload.(app.GameEndedPayload)
			mh.broadcast(state, dispatcher, logger, OpGameEnded, GameEndedMessage{
				LoserID:         p.LoserID,
				FinishedPlayers: p.FinishedPlayers,
			}, ev.Recipients)
			mh.recordResults(ctx, state, logger, p.LoserID)
			state.BotActAtTick = 0
			mh.updateLabel(state, dispatcher, logger)
		case app.EventGameStarted:
			// Announced by startGame.
		default:
			logger.Warn("Unknown event kind: %v", ev.Kind)
		}
	}
}

// recordResults updates lifetime counters for every human in the finished
// game. Everyone who escaped counts a win; the loser counts a loss.
func (mh *matchHandler) recordResults(ctx context.Context, state *MatchState, logger runtime.Logger, loserID string) {
	if state.Game == nil || state.Stats == nil {
		return
	}
	for _, p := range state.Game.Players {
		if p.IsBot {
			continue
		}
		if err := state.Stats.RecordResult(ctx, p.ID, p.ID != loserID); err != nil {
			logger.Warn("recordResults: Failed to record result for %s: %v", p.ID, err)
		}
	}
}

// saveAndBroadcast persists the game snapshot and sends every connected
// player their personalized view. Call after every successful mutation.
func (mh *matchHandler) saveAndBroadcast(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.Game == nil {
		return
	}
	if err := state.Store.SaveGame(ctx, state.Game); err != nil {
		logger.Warn("saveAndBroadcast: Failed to persist game: %v", err)
	}
	mh.broadcastGameUpdate(state, dispatcher, logger)
}

// broadcastGameUpdate sends per-recipient projections of the game. Hands
// stay concealed: each player sees their own cards, and players who escaped
// additionally see every remaining hand.
func (mh *matchHandler) broadcastGameUpdate(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	g := state.Game
	if g == nil {
		return
	}

	players := make([]PlayerView, 0, len(g.Players))
	for _, p := range g.Players {
		players = append(players, PlayerView{
			ID:        p.ID,
			Username:  p.Username,
			IsBot:     p.IsBot,
			CardCount: len(g.Hands[p.ID]),
			Finished:  g.IsFinished(p.ID),
		})
	}

	base := GameUpdate{
		GameID:          g.ID,
		RoomCode:        g.RoomCode,
		Players:         players,
		CurrentPlayer:   g.CurrentPlayerID(),
		CurrentTrick:    g.CurrentTrick,
		CompletedTrick:  g.CompletedTrick,
		LeadSuit:        g.LeadSuit,
		WasteCount:      len(g.WastePile),
		FinishedPlayers: g.FinishedPlayers,
		Loser:           g.Loser,
		Status:          g.Status,
		IsFirstTrick:    g.IsFirstTrick,
		TrickNumber:     g.TrickNumber,
		LastTrickResult: g.LastTrickResult,
	}

	for uid, presence := range state.Presences {
		update := base
		update.YourHand = g.Hands[uid]
		if g.IsFinished(uid) {
			update.AllHands = g.Hands
		}

		bytes, err := json.Marshal(update)
		if err != nil {
			logger.Error("broadcastGameUpdate: Failed to marshal update: %v", err)
			return
		}
		dispatcher.BroadcastMessage(OpGameUpdate, bytes, []runtime.Presence{presence}, nil, true)
	}
}

// broadcastLobbyState sends the current seating roster to everyone.
func (mh *matchHandler) broadcastLobbyState(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	players := make([]LobbyPlayer, 0, app.MaxPlayers)
	ownerID := ""
	if state.OwnerSeat >= 0 {
		ownerID = state.Seats[state.OwnerSeat]
	}
	for i, seat := range state.Seats {
		if seat == "" {
			continue
		}
		players = append(players, LobbyPlayer{
			ID:       seat,
			Username: state.usernameFor(seat),
			IsBot:    bot.IsBot(seat),
			IsOwner:  i == state.OwnerSeat,
		})
	}

	mh.broadcast(state, dispatcher, logger, OpLobbyState, LobbyState{
		RoomCode: state.RoomCode,
		Players:  players,
		OwnerID:  ownerID,
	}, nil)
}

// broadcast marshals payload and dispatches it. Empty recipients means
// everyone; targeted messages whose recipients are all offline (bots) are
// dropped rather than leaked to the room.
func (mh *matchHandler) broadcast(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, opCode int64, payload interface{}, recipientIDs []string) {
	bytes, err := json.Marshal(payload)
	if err != nil {
		logger.Error("broadcast: Failed to marshal payload for op %d: %v", opCode, err)
		return
	}

	var recipients []runtime.Presence
	if len(recipientIDs) > 0 {
		for _, uid := range recipientIDs {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}
		if len(recipients) == 0 {
			return
		}
	}

	dispatcher.BroadcastMessage(opCode, bytes, recipients, nil, true)
}

// sendError sends a GameErrorMessage to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, message string) {
	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}

	bytes, err := json.Marshal(GameErrorMessage{Code: code, Message: message})
	if err != nil {
		logger.Error("Failed to marshal GameErrorMessage: %v", err)
		return
	}

	dispatcher.BroadcastMessage(OpGameError, bytes, []runtime.Presence{presence}, nil, true)
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	matchPhase := "lobby"
	if state.Game != nil {
		if state.Game.Status == domain.StatusPlaying {
			matchPhase = "playing"
		} else {
			matchPhase = "finished"
		}
	}

	labelBytes, err := json.Marshal(&MatchLabel{
		Game:  "bhabhi",
		Open:  state.GetOpenSeatsCount(),
		State: matchPhase,
		Code:  state.RoomCode,
	})
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(string(labelBytes)); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, reason int) interface{} {
	logger.Debug("MatchTerminate: Match terminated for reason %d", reason)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
