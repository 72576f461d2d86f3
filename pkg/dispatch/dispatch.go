// Package dispatch maps an incoming protocol.Request to its effect on
// the session registry, and pushes the resulting responses and
// broadcasts to the right sinks.
package dispatch

import (
	"github.com/blackwidow/heartsd/pkg/apperrors"
	"github.com/blackwidow/heartsd/pkg/cards"
	"github.com/blackwidow/heartsd/pkg/protocol"
	"github.com/blackwidow/heartsd/pkg/session"
	"github.com/decred/slog"
	"github.com/google/uuid"
)

// Dispatcher routes one action at a time for one caller.
type Dispatcher struct {
	registry *session.Registry
	log      slog.Logger
}

// New builds a Dispatcher over registry, logging routine tracing and
// rejected input at log.
func New(registry *session.Registry, log slog.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, log: log}
}

// Dispatch executes req on behalf of player and sends every response it
// produces to the right sinks: the caller's own point-to-point answer,
// plus whatever broadcast the action's effect requires. The returned
// error is the same one sent to the caller as a wire-level error
// envelope; Dispatch itself never returns the response body, since every
// send already went to its destination.
func (d *Dispatcher) Dispatch(player string, req *protocol.Request) error {
	d.log.Debugf("dispatch: player=%s action=%s", player, req.Action)

	var err error
	switch req.Action {
	case protocol.ActionListLobbies:
		err = d.listLobbies(player)
	case protocol.ActionGetLobbyDetails:
		err = d.getLobbyDetails(player, req.ID)
	case protocol.ActionCreateLobby:
		err = d.createLobby(player, req.MaxPlayers, req.MaxScore)
	case protocol.ActionJoinLobby:
		err = d.joinLobby(player, req.ID)
	case protocol.ActionQuitLobby:
		err = d.quitLobby(player, req.ID)
	case protocol.ActionListGames:
		err = d.listGames(player)
	case protocol.ActionGetGameDetails:
		err = d.getGameDetails(player, req.ID)
	case protocol.ActionCardExchangeMove:
		err = d.cardExchangeMove(player, req.ID, req.CardsToExchange)
	case protocol.ActionPlaceCardMove:
		err = d.placeCardMove(player, req.ID, req.Card)
	case protocol.ActionClaimReadinessMove:
		err = d.claimReadinessMove(player, req.ID, req.Ready)
	case protocol.ActionQuitGame:
		err = d.quitGame(player, req.ID)
	default:
		err = apperrors.InvalidPayload("unknown action %q", req.Action)
	}

	if err != nil {
		d.log.Warnf("dispatch: player=%s action=%s rejected: %v", player, req.Action, err)
		d.sendError(player, err)
	}
	return err
}

func (d *Dispatcher) sendError(player string, err error) {
	d.send(player, protocol.NewError(err))
}

// send marshals v and delivers it to player's own sink, logging (rather
// than propagating) a transport failure: send/receive failures terminate
// the offending connection but never alter game or lobby state.
func (d *Dispatcher) send(player string, v interface{}) {
	data, err := protocol.Marshal(v)
	if err != nil {
		d.log.Errorf("dispatch: failed to encode response for %s: %v", player, err)
		return
	}
	if err := d.registry.SendTo(player, data); err != nil {
		d.log.Debugf("dispatch: send to %s failed: %v", player, err)
	}
}

func (d *Dispatcher) broadcast(v interface{}) {
	data, err := protocol.Marshal(v)
	if err != nil {
		d.log.Errorf("dispatch: failed to encode broadcast: %v", err)
		return
	}
	if failures := d.registry.Broadcast(data); failures != nil {
		for p, sendErr := range failures {
			d.log.Debugf("dispatch: broadcast to %s failed: %v", p, sendErr)
		}
	}
}

func (d *Dispatcher) listLobbies(player string) error {
	lobbies := d.registry.ListLobbies()
	out := make([]protocol.Lobby, 0, len(lobbies))
	for _, l := range lobbies {
		out = append(out, toWireLobby(l))
	}
	d.send(player, protocol.NewLobbyList(out))
	return nil
}

func (d *Dispatcher) getLobbyDetails(player string, id uuid.UUID) error {
	lobby, err := d.registry.GetLobbyDetails(id)
	if err != nil {
		return err
	}
	if !memberOf(lobby.Players, player) {
		return apperrors.InvalidAction("you don't participate in lobby with id %s", id)
	}
	d.send(player, protocol.NewLobbyDetails(toWireLobby(lobby)))
	return nil
}

func (d *Dispatcher) createLobby(player string, maxPlayers, maxScore int) error {
	lobby, err := d.registry.CreateLobby(player, maxPlayers, maxScore)
	if err != nil {
		return err
	}
	d.broadcast(protocol.NewLobbyDetails(toWireLobby(lobby)))
	return nil
}

func (d *Dispatcher) joinLobby(player string, id uuid.UUID) error {
	res, err := d.registry.JoinLobby(id, player)
	if err != nil {
		return err
	}
	if !res.Filled {
		d.broadcast(protocol.NewLobbyDetails(toWireLobby(*res.Lobby)))
		return nil
	}

	d.broadcast(protocol.NewLobbyDeleted(id))
	d.broadcastGameListed(res.GameID, res.Game.Step.Players)
	for _, p := range res.Game.Step.Players {
		details, err := protocol.BuildGameDetails(res.GameID, res.Game, p)
		if err != nil {
			d.log.Errorf("dispatch: build game details for %s failed: %v", p, err)
			continue
		}
		d.send(p, details)
	}
	return nil
}

func (d *Dispatcher) broadcastGameListed(id uuid.UUID, players []string) {
	d.broadcast(protocol.NewGameList([]protocol.ListedGame{{ID: id, Players: players}}))
}

func (d *Dispatcher) quitLobby(player string, id uuid.UUID) error {
	res, err := d.registry.QuitLobby(id, player)
	if err != nil {
		return err
	}
	if res.Deleted {
		d.broadcast(protocol.NewLobbyDeleted(id))
		return nil
	}
	d.broadcast(protocol.NewLobbyDetails(toWireLobby(*res.Lobby)))
	return nil
}

func (d *Dispatcher) listGames(player string) error {
	games := d.registry.ListGames()
	out := make([]protocol.ListedGame, 0, len(games))
	for id, players := range games {
		out = append(out, protocol.ListedGame{ID: id, Players: players})
	}
	d.send(player, protocol.NewGameList(out))
	return nil
}

func (d *Dispatcher) getGameDetails(player string, id uuid.UUID) error {
	return d.registry.WithGame(id, func(gs *session.GameSession) error {
		if !memberOf(gs.Game.Step.Players, player) {
			return apperrors.InvalidAction("you don't participate in game with id %s", id)
		}
		details, err := protocol.BuildGameDetails(id, gs.Game, player)
		if err != nil {
			return err
		}
		d.send(player, details)
		return nil
	})
}

func (d *Dispatcher) cardExchangeMove(player string, id uuid.UUID, cardsToExchange []cards.Card) error {
	return d.applyMove(id, player, func(g *session.GameSession) error {
		return g.Game.SubmitExchangeMove(player, cardsToExchange)
	})
}

func (d *Dispatcher) placeCardMove(player string, id uuid.UUID, card *cards.Card) error {
	if card == nil {
		return apperrors.InvalidPayload("placeCardMove requires a card")
	}
	return d.applyMove(id, player, func(g *session.GameSession) error {
		return g.Game.PlaceCardMove(player, *card)
	})
}

func (d *Dispatcher) claimReadinessMove(player string, id uuid.UUID, ready *bool) error {
	if ready == nil {
		return apperrors.InvalidPayload("claimReadinessMove requires ready")
	}
	return d.applyMove(id, player, func(g *session.GameSession) error {
		return g.Game.ClaimReadinessMove(player, *ready)
	})
}

// applyMove runs mutate against the game's session under the registry's
// games-lock, then — only if the move succeeded — broadcasts a fresh
// per-player snapshot to every seated player while that same lock is
// still held, so every participant's view of the game stays totally
// ordered.
func (d *Dispatcher) applyMove(id uuid.UUID, player string, mutate func(*session.GameSession) error) error {
	return d.registry.WithGame(id, func(gs *session.GameSession) error {
		if !memberOf(gs.Game.Step.Players, player) {
			return apperrors.InvalidAction("you don't participate in game with id %s", id)
		}
		if err := mutate(gs); err != nil {
			return err
		}
		if gs.Game.Finished {
			d.registry.NotifyGameFinished(id)
		} else {
			d.registry.NotifyGameMoved(id)
		}
		for _, p := range gs.Game.Step.Players {
			details, err := protocol.BuildGameDetails(id, gs.Game, p)
			if err != nil {
				d.log.Errorf("dispatch: build game details for %s failed: %v", p, err)
				continue
			}
			d.send(p, details)
		}
		return nil
	})
}

func (d *Dispatcher) quitGame(player string, id uuid.UUID) error {
	deleted, err := d.registry.QuitGame(id, player)
	if err != nil {
		return err
	}
	if deleted {
		d.broadcast(protocol.NewGameDeleted(id))
		return nil
	}
	return d.registry.WithGame(id, func(gs *session.GameSession) error {
		for _, p := range gs.Game.Step.Players {
			if gs.Quit[p] {
				continue
			}
			details, err := protocol.BuildGameDetails(id, gs.Game, p)
			if err != nil {
				d.log.Errorf("dispatch: build game details for %s failed: %v", p, err)
				continue
			}
			d.send(p, details)
		}
		return nil
	})
}

func toWireLobby(l session.Lobby) protocol.Lobby {
	return protocol.Lobby{ID: l.ID, MaxPlayers: l.MaxPlayers, MaxScore: l.MaxScore, Players: l.Players}
}

func memberOf(players []string, player string) bool {
	for _, p := range players {
		if p == player {
			return true
		}
	}
	return false
}
