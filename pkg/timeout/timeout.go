// Package timeout schedules the three deferred actions a running game
// needs without a player driving them: an idle lobby expires, a
// finished game is swept away, and — optionally — an idle actor has a
// legal move played on their behalf. Cancellation handles are kept in
// maps guarded by a mutex, generalizing a single-timer arm/cancel pair
// to many concurrent timers keyed by id.
package timeout

import (
	"math/rand"
	"sync"
	"time"

	"github.com/blackwidow/heartsd/pkg/cards"
	"github.com/blackwidow/heartsd/pkg/dispatch"
	"github.com/blackwidow/heartsd/pkg/game"
	"github.com/blackwidow/heartsd/pkg/protocol"
	"github.com/blackwidow/heartsd/pkg/session"
	"github.com/decred/slog"
	"github.com/google/uuid"
)

// Timeouts are package vars, not consts, so tests can shrink them rather
// than waiting out the real durations.
var (
	lobbyTimeout        = 20 * time.Minute
	gameFinishedTimeout = 3 * time.Minute
	moveTimeout         = 90 * time.Second
)

// Scheduler owns every pending lobby/game/move timer. Zero value is not
// usable; construct with NewScheduler.
type Scheduler struct {
	registry   *session.Registry
	dispatcher *dispatch.Dispatcher
	log        slog.Logger
	rng        *rand.Rand

	mu          sync.Mutex
	lobbyTimers map[uuid.UUID]*time.Timer
	gameTimers  map[uuid.UUID]*time.Timer
	moveTimers  map[uuid.UUID]*time.Timer

	moveTimeoutEnabled bool
}

// NewScheduler builds a Scheduler over registry/dispatcher. Wire its
// Hooks() into registry.Hooks before traffic starts.
func NewScheduler(registry *session.Registry, dispatcher *dispatch.Dispatcher, log slog.Logger) *Scheduler {
	return &Scheduler{
		registry:    registry,
		dispatcher:  dispatcher,
		log:         log,
		rng:         rand.New(rand.NewSource(1)),
		lobbyTimers: make(map[uuid.UUID]*time.Timer),
		gameTimers:  make(map[uuid.UUID]*time.Timer),
		moveTimers:  make(map[uuid.UUID]*time.Timer),
	}
}

// EnableMoveTimeout turns on the optional 90s per-move auto-play.
func (s *Scheduler) EnableMoveTimeout() {
	s.moveTimeoutEnabled = true
}

// Hooks returns the session.Hooks bound to this Scheduler, for wiring
// into a Registry at startup.
func (s *Scheduler) Hooks() session.Hooks {
	return session.Hooks{
		LobbyCreated: s.scheduleLobbyExpiry,
		LobbyFilled:  s.cancelLobbyExpiry,
		LobbyEmptied: s.cancelLobbyExpiry,
		GameCreated:  s.scheduleMoveTimeout,
		GameMoved:    s.scheduleMoveTimeout,
		GameFinished: s.onGameFinished,
		GameDeleted:  s.cancelAll,
	}
}

func (s *Scheduler) scheduleLobbyExpiry(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.lobbyTimers[id]; ok {
		t.Stop()
	}
	s.lobbyTimers[id] = time.AfterFunc(lobbyTimeout, func() { s.expireLobby(id) })
}

func (s *Scheduler) cancelLobbyExpiry(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.lobbyTimers[id]
	if !ok {
		s.log.Debugf("timeout: no lobby expiry handle for %s, nothing to cancel", id)
		return
	}
	t.Stop()
	delete(s.lobbyTimers, id)
}

func (s *Scheduler) expireLobby(id uuid.UUID) {
	s.mu.Lock()
	delete(s.lobbyTimers, id)
	s.mu.Unlock()

	lobby, existed := s.registry.ExpireLobby(id)
	if !existed {
		s.log.Debugf("timeout: lobby %s already gone at expiry", id)
		return
	}
	s.log.Debugf("timeout: lobby %s expired after %s idle", id, lobbyTimeout)
	s.broadcast(protocol.NewLobbyDeleted(lobby.ID))
}

func (s *Scheduler) onGameFinished(id uuid.UUID) {
	s.mu.Lock()
	if t, ok := s.moveTimers[id]; ok {
		t.Stop()
		delete(s.moveTimers, id)
	}
	s.gameTimers[id] = time.AfterFunc(gameFinishedTimeout, func() { s.expireGame(id) })
	s.mu.Unlock()
}

func (s *Scheduler) expireGame(id uuid.UUID) {
	s.mu.Lock()
	delete(s.gameTimers, id)
	s.mu.Unlock()

	if !s.registry.ExpireGame(id) {
		s.log.Debugf("timeout: game %s already gone at expiry", id)
		return
	}
	s.log.Debugf("timeout: game %s expired after %s finished", id, gameFinishedTimeout)
	s.broadcast(protocol.NewGameDeleted(id))
}

// cancelAll stops every timer associated with id: used when a game is
// deleted via quitGame before its finished-timeout or move-timeout fired.
func (s *Scheduler) cancelAll(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.gameTimers[id]; ok {
		t.Stop()
		delete(s.gameTimers, id)
	}
	if t, ok := s.moveTimers[id]; ok {
		t.Stop()
		delete(s.moveTimers, id)
	}
}

func (s *Scheduler) scheduleMoveTimeout(id uuid.UUID) {
	if !s.moveTimeoutEnabled {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.moveTimers[id]; ok {
		t.Stop()
	}
	s.moveTimers[id] = time.AfterFunc(moveTimeout, func() { s.synthesizeMove(id) })
}

// synthesizeMove plays a legal move on behalf of whichever actor(s) are
// holding up id's game, then reschedules itself the same way a real
// move would via the GameMoved hook.
func (s *Scheduler) synthesizeMove(id uuid.UUID) {
	s.mu.Lock()
	delete(s.moveTimers, id)
	s.mu.Unlock()

	var reqs []struct {
		player string
		req    *protocol.Request
	}

	err := s.registry.WithGame(id, func(gs *session.GameSession) error {
		step := gs.Game.Step
		switch step.Phase {
		case game.PhaseCardExchange:
			for _, p := range step.Players {
				if len(step.Exchange.CardsToExchange[p]) > 0 {
					continue
				}
				hand := step.Hands[p]
				if len(hand) < 3 {
					continue
				}
				idx := s.rng.Perm(len(hand))[:3]
				picks := []cards.Card{hand[idx[0]], hand[idx[1]], hand[idx[2]]}
				reqs = append(reqs, struct {
					player string
					req    *protocol.Request
				}{p, &protocol.Request{Action: protocol.ActionCardExchangeMove, ID: id, CardsToExchange: picks}})
			}
		case game.PhaseRoundInProgress:
			rip := step.RoundInProgress
			card, ok := s.legalCard(step.Hands[rip.CurrentPlayer], rip.TableSuit)
			if ok {
				reqs = append(reqs, struct {
					player string
					req    *protocol.Request
				}{rip.CurrentPlayer, &protocol.Request{Action: protocol.ActionPlaceCardMove, ID: id, Card: &card}})
			}
		case game.PhaseRoundFinished:
			ready := true
			for _, p := range step.Players {
				if !step.RoundFinished.PlayersReady[p] {
					reqs = append(reqs, struct {
						player string
						req    *protocol.Request
					}{p, &protocol.Request{Action: protocol.ActionClaimReadinessMove, ID: id, Ready: &ready}})
				}
			}
		}
		return nil
	})
	if err != nil {
		s.log.Debugf("timeout: move synthesis for %s skipped: %v", id, err)
		return
	}

	for _, r := range reqs {
		s.log.Infof("timeout: synthesizing %s for idle player %s in game %s", r.req.Action, r.player, id)
		if dispatchErr := s.dispatcher.Dispatch(r.player, r.req); dispatchErr != nil {
			s.log.Debugf("timeout: synthesized move for %s rejected: %v", r.player, dispatchErr)
		}
	}
}

// legalCard picks a random card from hand that is a legal lead/follow
// given tableSuit, the same rule PlaceCard itself enforces: follow suit
// if possible, else any non-heart when leading while holding non-hearts,
// else any.
func (s *Scheduler) legalCard(hand cards.Hand, tableSuit *cards.Suit) (cards.Card, bool) {
	if len(hand) == 0 {
		return cards.Card{}, false
	}
	var eligible cards.Hand
	if tableSuit != nil {
		for _, c := range hand {
			if c.Suit == *tableSuit {
				eligible = append(eligible, c)
			}
		}
	} else if !hand.OnlySuit(cards.Heart) {
		for _, c := range hand {
			if c.Suit != cards.Heart {
				eligible = append(eligible, c)
			}
		}
	}
	if len(eligible) == 0 {
		eligible = hand
	}
	return eligible[s.rng.Intn(len(eligible))], true
}

func (s *Scheduler) broadcast(v interface{}) {
	data, err := protocol.Marshal(v)
	if err != nil {
		s.log.Errorf("timeout: failed to encode broadcast: %v", err)
		return
	}
	if failures := s.registry.Broadcast(data); failures != nil {
		for p, sendErr := range failures {
			s.log.Debugf("timeout: broadcast to %s failed: %v", p, sendErr)
		}
	}
}
