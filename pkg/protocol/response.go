package protocol

import (
	"encoding/json"

	"github.com/blackwidow/heartsd/pkg/apperrors"
	"github.com/google/uuid"
)

// ResponseType discriminates an outbound message's shape.
type ResponseType string

const (
	TypeLobbyList                 ResponseType = "lobbyList"
	TypeLobbyDetails              ResponseType = "lobbyDetails"
	TypeLobbyDeleted              ResponseType = "lobbyDeleted"
	TypeGameList                  ResponseType = "gameList"
	TypeGameDetailsCardExchange   ResponseType = "gameDetailsCardExchange"
	TypeGameDetailsRoundInProgress ResponseType = "gameDetailsRoundInProgress"
	TypeGameDetailsRoundFinished  ResponseType = "gameDetailsRoundFinished"
	TypeGameDeleted               ResponseType = "gameDeleted"
	TypeError                     ResponseType = "error"
)

// Lobby is the public shape of a pre-game lobby.
type Lobby struct {
	ID         uuid.UUID `json:"id"`
	MaxPlayers int       `json:"maxPlayers"`
	MaxScore   int       `json:"maxScore"`
	Players    []string  `json:"players"`
}

// LobbyListResponse answers listLobbies.
type LobbyListResponse struct {
	Type    ResponseType `json:"type"`
	Lobbies []Lobby      `json:"lobbies"`
}

func NewLobbyList(lobbies []Lobby) *LobbyListResponse {
	return &LobbyListResponse{Type: TypeLobbyList, Lobbies: lobbies}
}

// LobbyDetailsResponse answers getLobbyDetails, and is also broadcast
// after createLobby/joinLobby/quitLobby when the lobby survives the move.
type LobbyDetailsResponse struct {
	Type  ResponseType `json:"type"`
	Lobby Lobby        `json:"lobby"`
}

func NewLobbyDetails(lobby Lobby) *LobbyDetailsResponse {
	return &LobbyDetailsResponse{Type: TypeLobbyDetails, Lobby: lobby}
}

// LobbyDeletedResponse is broadcast when a lobby is removed: because it
// filled into a game, because its last occupant quit, or because it
// expired idle (pkg/timeout).
type LobbyDeletedResponse struct {
	Type ResponseType `json:"type"`
	ID   uuid.UUID    `json:"id"`
}

func NewLobbyDeleted(id uuid.UUID) *LobbyDeletedResponse {
	return &LobbyDeletedResponse{Type: TypeLobbyDeleted, ID: id}
}

// ListedGame is the minimal public shape of a game for listGames: id and
// roster only, no game state.
type ListedGame struct {
	ID      uuid.UUID `json:"id"`
	Players []string  `json:"players"`
}

// GameListResponse answers listGames.
type GameListResponse struct {
	Type  ResponseType `json:"type"`
	Games []ListedGame `json:"games"`
}

func NewGameList(games []ListedGame) *GameListResponse {
	return &GameListResponse{Type: TypeGameList, Games: games}
}

// GameDeletedResponse is broadcast when quitGame empties a game's roster,
// or when a finished game's display timeout expires (pkg/timeout).
type GameDeletedResponse struct {
	Type ResponseType `json:"type"`
	ID   uuid.UUID    `json:"id"`
}

func NewGameDeleted(id uuid.UUID) *GameDeletedResponse {
	return &GameDeletedResponse{Type: TypeGameDeleted, ID: id}
}

// ErrorResponse is sent only to the originating connection; it never
// reaches other players in a shared lobby or game.
type ErrorResponse struct {
	Type   ResponseType `json:"type"`
	Detail string       `json:"detail"`
}

// NewError builds the wire-level error envelope from any error. A typed
// *apperrors.Error contributes only its formatted detail: the client does
// not need to distinguish InvalidAction from InvalidPayload on the wire,
// since both are terminal for the one request that produced them.
func NewError(err error) *ErrorResponse {
	return &ErrorResponse{Type: TypeError, Detail: err.Error()}
}

// Marshal is a small convenience wrapper so callers in pkg/dispatch and
// pkg/transport don't each import encoding/json for the common case of
// "turn this response into a text frame."
func Marshal(v interface{}) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, apperrors.InvalidPayload("failed to encode response: %v", err)
	}
	return b, nil
}
