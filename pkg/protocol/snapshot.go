package protocol

import (
	"github.com/blackwidow/heartsd/pkg/apperrors"
	"github.com/blackwidow/heartsd/pkg/cards"
	"github.com/blackwidow/heartsd/pkg/game"
	"github.com/google/uuid"
)

// Snapshot is the per-player obfuscated view of a game. Only the fields
// relevant to the current phase are populated; which ones those are is
// carried by the enclosing GameDetailsResponse's Type.
type Snapshot struct {
	MaxScore int             `json:"maxScore"`
	Players  []string        `json:"players"`
	Scores   map[string]int  `json:"scores"`
	Finished bool            `json:"isFinished"`

	// PlayerDecks holds every other player's card count, never their
	// actual cards. The viewing player is omitted here and revealed in
	// full via YourCards instead.
	PlayerDecks map[string]int `json:"playerDecks"`
	YourCards   []cards.Card   `json:"yourCards"`

	// CardExchange phase only.
	PlayerExchangeCards map[string]bool `json:"playerExchangeCards,omitempty"`
	YourExchangeCards   []cards.Card    `json:"yourExchangeCards,omitempty"`

	// RoundInProgress phase only.
	CurrentPlayer string                  `json:"currentPlayer,omitempty"`
	TableSuit     *cards.Suit             `json:"tableSuit,omitempty"`
	CardsOnTable  map[string]cards.Card   `json:"cardsOnTable,omitempty"`

	// RoundFinished phase only.
	PlayersReady map[string]bool `json:"playersReady,omitempty"`
}

// GameDetailsResponse carries a game's obfuscated snapshot for one
// player. Type tells the client which of Snapshot's phase-specific
// fields to expect populated.
type GameDetailsResponse struct {
	Type ResponseType `json:"type"`
	ID   uuid.UUID    `json:"id"`
	Game Snapshot     `json:"game"`
}

// BuildGameDetails renders g's state as the view player is allowed to
// see. The player must be seated in the game; callers are expected to
// have already checked that (the session/dispatch layer owns that
// precondition), but BuildGameDetails re-derives PlayerDecks/YourCards
// directly from g.Step.Hands so an unseated caller would simply get an
// empty YourCards rather than a panic.
func BuildGameDetails(id uuid.UUID, g *game.Game, player string) (*GameDetailsResponse, error) {
	step := g.Step

	playerDecks := make(map[string]int, len(step.Players))
	for _, p := range step.Players {
		if p == player {
			continue
		}
		playerDecks[p] = len(step.Hands[p])
	}

	snapshot := Snapshot{
		MaxScore:    g.Settings.MaxScore,
		Players:     step.Players,
		Scores:      step.Scores,
		Finished:    g.Finished,
		PlayerDecks: playerDecks,
		YourCards:   []cards.Card(step.Hands[player]),
	}

	switch step.Phase {
	case game.PhaseCardExchange:
		exchange := step.Exchange
		playerExchangeCards := make(map[string]bool, len(step.Players))
		for _, p := range step.Players {
			if p == player {
				continue
			}
			_, submitted := exchange.CardsToExchange[p]
			playerExchangeCards[p] = submitted
		}
		snapshot.PlayerExchangeCards = playerExchangeCards
		snapshot.YourExchangeCards = exchange.CardsToExchange[player]
		return &GameDetailsResponse{Type: TypeGameDetailsCardExchange, ID: id, Game: snapshot}, nil

	case game.PhaseRoundInProgress:
		rip := step.RoundInProgress
		snapshot.CurrentPlayer = rip.CurrentPlayer
		snapshot.TableSuit = rip.TableSuit
		snapshot.CardsOnTable = rip.CardsOnTable
		return &GameDetailsResponse{Type: TypeGameDetailsRoundInProgress, ID: id, Game: snapshot}, nil

	case game.PhaseRoundFinished:
		snapshot.PlayersReady = step.RoundFinished.PlayersReady
		return &GameDetailsResponse{Type: TypeGameDetailsRoundFinished, ID: id, Game: snapshot}, nil

	default:
		return nil, apperrors.InvalidAction("unknown game phase %s", step.Phase)
	}
}
