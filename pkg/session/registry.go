// Package session owns the three process-local registries a running
// server needs: pre-game lobbies, active games, and live player
// connections. Each registry is a plain map guarded by its own lock;
// locks are never interleaved, matching the single-process concurrency
// model this server targets (no cross-process sharing, no persistence).
package session

import (
	"math/rand"
	"sync"

	"github.com/blackwidow/heartsd/pkg/apperrors"
	"github.com/blackwidow/heartsd/pkg/game"
	"github.com/davecgh/go-spew/spew"
	"github.com/decred/slog"
	"github.com/google/uuid"
)

// Lobby is a pre-game waiting room: a seating list capped at MaxPlayers,
// promoted to a Game once full.
type Lobby struct {
	ID         uuid.UUID
	MaxPlayers int
	MaxScore   int
	Players    []string
}

func (l *Lobby) clone() Lobby {
	players := make([]string, len(l.Players))
	copy(players, l.Players)
	return Lobby{ID: l.ID, MaxPlayers: l.MaxPlayers, MaxScore: l.MaxScore, Players: players}
}

// GameSession wraps an active Game with the bookkeeping a registry needs
// that the Game itself has no business tracking: which seated players
// have quit, so a roster that empties out can be torn down.
type GameSession struct {
	Game    *game.Game
	Quit    map[string]bool
}

// Sink is whatever can receive an outbound text frame for one connection.
// pkg/transport implements it; defining it here instead of importing
// pkg/transport keeps the dependency pointed the natural way (transport
// depends on session, not the reverse).
type Sink interface {
	Send(data []byte) error
}

// Hooks lets pkg/timeout observe lifecycle events without the registry
// importing it back: every field is optional and called synchronously.
// The lobby hooks, GameCreated and GameDeleted run after the registry has
// released the lock the event occurred under. GameMoved and GameFinished
// run from NotifyGameMoved/NotifyGameFinished under whatever lock their
// caller holds; pkg/dispatch calls those inside WithGame, so the games
// lock is held while they run.
type Hooks struct {
	LobbyCreated func(id uuid.UUID)
	LobbyFilled  func(id uuid.UUID)
	LobbyEmptied func(id uuid.UUID)
	GameCreated  func(id uuid.UUID)
	GameMoved    func(id uuid.UUID)
	GameFinished func(id uuid.UUID)
	GameDeleted  func(id uuid.UUID)
}

// Registry is the server's complete in-memory state. Zero value is not
// usable; construct with New.
type Registry struct {
	lobbiesMu sync.RWMutex
	lobbies   map[uuid.UUID]*Lobby

	gamesMu sync.Mutex
	games   map[uuid.UUID]*GameSession

	connMu sync.RWMutex
	conns  map[string]Sink

	rngMu sync.Mutex
	rng   *rand.Rand

	// Hooks is set once, before the registry is handed to dispatch/
	// transport; it is read without a lock on the assumption that
	// callers wire it during startup and never mutate it concurrently
	// with traffic.
	Hooks Hooks

	log slog.Logger
}

// New builds an empty registry. rng seeds every game dealt when a lobby
// fills; callers that need determinism (tests, a -seed flag) supply a
// seeded source, production code a process-global one. log receives an
// Error-level dump (via go-spew, since a plain %v flattens the nested
// player/card maps involved) whenever the registry's own bookkeeping
// disagrees with an invariant a well-behaved caller should never be able
// to violate; these are logged and the request fails cleanly rather than
// panicking.
func New(rng *rand.Rand, log slog.Logger) *Registry {
	return &Registry{
		lobbies: make(map[uuid.UUID]*Lobby),
		games:   make(map[uuid.UUID]*GameSession),
		conns:   make(map[string]Sink),
		rng:     rng,
		log:     log,
	}
}

// CreateLobby adds a new lobby seeded with its creator.
func (r *Registry) CreateLobby(creator string, maxPlayers, maxScore int) (Lobby, error) {
	if maxPlayers != 3 && maxPlayers != 4 {
		return Lobby{}, apperrors.InvalidPayload("maxPlayers must be 3 or 4, got %d", maxPlayers)
	}
	if maxScore <= 0 {
		return Lobby{}, apperrors.InvalidPayload("maxScore must be positive, got %d", maxScore)
	}

	lobby := &Lobby{
		ID:         uuid.New(),
		MaxPlayers: maxPlayers,
		MaxScore:   maxScore,
		Players:    []string{creator},
	}

	r.lobbiesMu.Lock()
	r.lobbies[lobby.ID] = lobby
	r.lobbiesMu.Unlock()

	if r.Hooks.LobbyCreated != nil {
		r.Hooks.LobbyCreated(lobby.ID)
	}
	return lobby.clone(), nil
}

// ExpireLobby unconditionally removes a lobby, for the timeout
// scheduler's 20-minute expiry; ok reports whether it was still present.
func (r *Registry) ExpireLobby(id uuid.UUID) (lobby Lobby, ok bool) {
	r.lobbiesMu.Lock()
	l, present := r.lobbies[id]
	if present {
		lobby = l.clone()
		delete(r.lobbies, id)
	}
	r.lobbiesMu.Unlock()
	return lobby, present
}

// ExpireGame unconditionally removes a game, for the timeout scheduler's
// post-finish expiry; ok reports whether it was still present.
func (r *Registry) ExpireGame(id uuid.UUID) (ok bool) {
	r.gamesMu.Lock()
	_, present := r.games[id]
	if present {
		delete(r.games, id)
	}
	r.gamesMu.Unlock()
	return present
}

// NotifyGameMoved tells Hooks a move was successfully applied to id,
// e.g. to reset a per-move inactivity timer. Called by pkg/dispatch
// after a successful move that did not finish the game.
func (r *Registry) NotifyGameMoved(id uuid.UUID) {
	if r.Hooks.GameMoved != nil {
		r.Hooks.GameMoved(id)
	}
}

// NotifyGameFinished tells Hooks that id's game just transitioned to
// finished. Called by pkg/dispatch after a move that did finish the game.
func (r *Registry) NotifyGameFinished(id uuid.UUID) {
	if r.Hooks.GameFinished != nil {
		r.Hooks.GameFinished(id)
	}
}

// GetLobbyDetails returns a snapshot of one lobby.
func (r *Registry) GetLobbyDetails(id uuid.UUID) (Lobby, error) {
	r.lobbiesMu.RLock()
	defer r.lobbiesMu.RUnlock()
	lobby, ok := r.lobbies[id]
	if !ok {
		return Lobby{}, apperrors.InvalidAction("lobby %s not found", id)
	}
	return lobby.clone(), nil
}

// ListLobbies returns a snapshot of every lobby.
func (r *Registry) ListLobbies() []Lobby {
	r.lobbiesMu.RLock()
	defer r.lobbiesMu.RUnlock()
	out := make([]Lobby, 0, len(r.lobbies))
	for _, lobby := range r.lobbies {
		out = append(out, lobby.clone())
	}
	return out
}

// JoinResult reports what JoinLobby did: either the lobby gained a
// player and survives, or it just filled and was promoted to a game.
type JoinResult struct {
	Lobby    *Lobby
	Filled   bool
	GameID   uuid.UUID
	Game     *game.Game
}

// JoinLobby adds player to the lobby's seating list. If this fills the
// lobby, it is removed in the same locked section that seated the player,
// so no other caller can observe a lobby that is simultaneously full and
// still listed; the Game is then created from its roster after the lobby
// lock is released.
func (r *Registry) JoinLobby(id uuid.UUID, player string) (*JoinResult, error) {
	r.lobbiesMu.Lock()

	lobby, ok := r.lobbies[id]
	if !ok {
		r.lobbiesMu.Unlock()
		return nil, apperrors.InvalidAction("lobby %s not found", id)
	}
	for _, p := range lobby.Players {
		if p == player {
			r.lobbiesMu.Unlock()
			return nil, apperrors.InvalidAction("player %s already in lobby", player)
		}
	}
	lobby.Players = append(lobby.Players, player)

	if len(lobby.Players) < lobby.MaxPlayers {
		clone := lobby.clone()
		r.lobbiesMu.Unlock()
		return &JoinResult{Lobby: &clone}, nil
	}

	delete(r.lobbies, id)
	r.lobbiesMu.Unlock()

	if r.Hooks.LobbyFilled != nil {
		r.Hooks.LobbyFilled(id)
	}

	r.rngMu.Lock()
	g, err := game.New(lobby.Players, game.Settings{MaxScore: lobby.MaxScore}, r.rng)
	r.rngMu.Unlock()
	if err != nil {
		// The roster was already validated against MaxPlayers on every
		// JoinLobby call that reached here; game.New rejecting it anyway
		// means the registry's own bookkeeping disagrees with the game
		// engine's invariants.
		r.log.Errorf("lobby %s filled but game.New rejected its roster: %v\n%s", id, err, spew.Sdump(lobby))
		return nil, err
	}

	gameID := uuid.New()
	r.gamesMu.Lock()
	r.games[gameID] = &GameSession{Game: g, Quit: make(map[string]bool)}
	r.gamesMu.Unlock()

	if r.Hooks.GameCreated != nil {
		r.Hooks.GameCreated(gameID)
	}

	return &JoinResult{Filled: true, GameID: gameID, Game: g}, nil
}

// QuitResult reports what QuitLobby did.
type QuitResult struct {
	Lobby   *Lobby
	Deleted bool
}

// QuitLobby removes player from the lobby's seating list, deleting the
// lobby if that empties it.
func (r *Registry) QuitLobby(id uuid.UUID, player string) (*QuitResult, error) {
	r.lobbiesMu.Lock()

	lobby, ok := r.lobbies[id]
	if !ok {
		r.lobbiesMu.Unlock()
		return nil, apperrors.InvalidAction("lobby %s not found", id)
	}
	remaining := lobby.Players[:0:0]
	for _, p := range lobby.Players {
		if p != player {
			remaining = append(remaining, p)
		}
	}
	lobby.Players = remaining

	if len(lobby.Players) == 0 {
		delete(r.lobbies, id)
		r.lobbiesMu.Unlock()
		if r.Hooks.LobbyEmptied != nil {
			r.Hooks.LobbyEmptied(id)
		}
		return &QuitResult{Deleted: true}, nil
	}
	clone := lobby.clone()
	r.lobbiesMu.Unlock()
	return &QuitResult{Lobby: &clone}, nil
}

// ListGames returns the (id, players) pairs for every active game, with
// no game state beyond the roster.
func (r *Registry) ListGames() map[uuid.UUID][]string {
	r.gamesMu.Lock()
	defer r.gamesMu.Unlock()
	out := make(map[uuid.UUID][]string, len(r.games))
	for id, gs := range r.games {
		players := make([]string, len(gs.Game.Step.Players))
		copy(players, gs.Game.Step.Players)
		out[id] = players
	}
	return out
}

// WithGame runs fn against the game session for id with the games
// registry's lock held for fn's entire duration, so a lookup, a move,
// and the broadcast built from its result are all one atomic step from
// every other caller's perspective.
func (r *Registry) WithGame(id uuid.UUID, fn func(*GameSession) error) error {
	r.gamesMu.Lock()
	defer r.gamesMu.Unlock()
	gs, ok := r.games[id]
	if !ok {
		return apperrors.InvalidAction("game %s not found", id)
	}
	return fn(gs)
}

// QuitGame force-finishes the game and marks player as having left. If
// every seated player has now quit, the game is deleted; deleted reports
// that case so the caller knows to broadcast game-deleted instead of a
// per-player snapshot round.
func (r *Registry) QuitGame(id uuid.UUID, player string) (deleted bool, err error) {
	err = r.WithGame(id, func(gs *GameSession) error {
		if !hasPlayer(gs.Game.Step.Players, player) {
			return apperrors.InvalidAction("player %s is not seated in game %s", player, id)
		}
		gs.Game.ForceFinish()
		gs.Quit[player] = true
		if len(gs.Quit) > len(gs.Game.Step.Players) {
			r.log.Errorf("game %s has more quit markers than seated players:\n%s", id, spew.Sdump(gs))
			return apperrors.InvalidAction("game %s quit bookkeeping is inconsistent", id)
		}
		if len(gs.Quit) == len(gs.Game.Step.Players) {
			delete(r.games, id)
			deleted = true
		}
		return nil
	})
	if err == nil && deleted && r.Hooks.GameDeleted != nil {
		r.Hooks.GameDeleted(id)
	}
	return deleted, err
}

func hasPlayer(players []string, player string) bool {
	for _, p := range players {
		if p == player {
			return true
		}
	}
	return false
}

// Connect registers player's sink, rejecting a second simultaneous
// connection for the same identity.
func (r *Registry) Connect(player string, sink Sink) error {
	r.connMu.Lock()
	defer r.connMu.Unlock()
	if _, exists := r.conns[player]; exists {
		return apperrors.InvalidAction("player %s is already connected", player)
	}
	r.conns[player] = sink
	return nil
}

// Disconnect removes player's sink, if present.
func (r *Registry) Disconnect(player string) {
	r.connMu.Lock()
	defer r.connMu.Unlock()
	delete(r.conns, player)
}

// SendTo delivers data to a single connected player's sink.
func (r *Registry) SendTo(player string, data []byte) error {
	r.connMu.RLock()
	sink, ok := r.conns[player]
	r.connMu.RUnlock()
	if !ok {
		return apperrors.InvalidAction("player %s is not connected", player)
	}
	return sink.Send(data)
}

// Broadcast delivers data to every connected player. Send failures are
// returned keyed by player so the caller can log and move on; one
// failing sink never blocks delivery to the rest.
func (r *Registry) Broadcast(data []byte) map[string]error {
	r.connMu.RLock()
	sinks := make(map[string]Sink, len(r.conns))
	for player, sink := range r.conns {
		sinks[player] = sink
	}
	r.connMu.RUnlock()

	var failures map[string]error
	for player, sink := range sinks {
		if err := sink.Send(data); err != nil {
			if failures == nil {
				failures = make(map[string]error)
			}
			failures[player] = err
		}
	}
	return failures
}
