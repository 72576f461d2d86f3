// Package protocol defines the JSON message envelopes exchanged over a
// connection, and the per-player obfuscated snapshot builder that turns
// authoritative game state into the view a given player is allowed to see.
package protocol

import (
	"encoding/json"

	"github.com/blackwidow/heartsd/pkg/apperrors"
	"github.com/blackwidow/heartsd/pkg/cards"
	"github.com/google/uuid"
)

// Action discriminates an incoming request's shape.
type Action string

const (
	ActionListLobbies       Action = "listLobbies"
	ActionGetLobbyDetails   Action = "getLobbyDetails"
	ActionCreateLobby       Action = "createLobby"
	ActionJoinLobby         Action = "joinLobby"
	ActionQuitLobby         Action = "quitLobby"
	ActionListGames         Action = "listGames"
	ActionGetGameDetails    Action = "getGameDetails"
	ActionCardExchangeMove  Action = "cardExchangeMove"
	ActionPlaceCardMove     Action = "placeCardMove"
	ActionClaimReadinessMove Action = "claimReadinessMove"
	ActionQuitGame          Action = "quitGame"
)

// Request is the single envelope shape for every inbound message: the
// fields relevant to Action are populated, the rest left zero. This
// mirrors every variant carrying its payload at the top level of the
// envelope rather than nested under a per-action key.
type Request struct {
	Action Action `json:"action"`

	ID uuid.UUID `json:"id,omitempty"`

	MaxPlayers int `json:"maxPlayers,omitempty"`
	MaxScore   int `json:"maxScore,omitempty"`

	CardsToExchange []cards.Card `json:"cardsToExchange,omitempty"`
	Card            *cards.Card  `json:"card,omitempty"`
	Ready           *bool        `json:"ready,omitempty"`
}

// Decode parses a single inbound text frame into a Request. Any failure —
// malformed JSON, or a card value rejected by cards.Card's own
// UnmarshalJSON — surfaces as an InvalidPayload error.
func Decode(raw []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, apperrors.InvalidPayload("malformed request: %v", err)
	}
	return &req, nil
}
