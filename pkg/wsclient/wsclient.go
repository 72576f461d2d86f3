// Package wsclient is the client side of the WebSocket protocol in
// pkg/protocol/pkg/transport: it dials the server, authenticates via the
// same identity header/cookie convention the server expects, and turns
// every inbound frame into a tea.Msg so a bubbletea UI can react to it
// the same way it reacts to keystrokes.
package wsclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/blackwidow/heartsd/pkg/cards"
	"github.com/blackwidow/heartsd/pkg/protocol"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 54 * time.Second
)

// UpdateMsg wraps a single decoded server frame for delivery through
// bubbletea's Update loop. Kind is the response's "type" discriminator;
// callers switch on Kind to find out which of the pointer fields is
// populated.
type UpdateMsg struct {
	Kind ResponseKind

	LobbyList    *protocol.LobbyListResponse
	LobbyDetails *protocol.LobbyDetailsResponse
	LobbyDeleted *protocol.LobbyDeletedResponse
	GameList     *protocol.GameListResponse
	GameDetails  *protocol.GameDetailsResponse
	GameDeleted  *protocol.GameDeletedResponse
	Error        *protocol.ErrorResponse
}

// ResponseKind mirrors protocol.ResponseType for the client side of the
// wire, so callers don't need to import protocol just to switch on it.
type ResponseKind = protocol.ResponseType

// DisconnectedMsg is delivered once, when the read loop ends for any
// reason (server closed the socket, a slow-receiver eviction, a network
// error, an undecodable frame). No further UpdateMsg values follow it.
type DisconnectedMsg struct {
	Err error
}

// Client is a live connection to a heartsd server. The zero value is not
// usable; build one with Dial.
type Client struct {
	player string
	conn   *websocket.Conn

	writeMu sync.Mutex

	Updates chan tea.Msg

	cancel context.CancelFunc
	once   sync.Once
}

// Dial connects to addr (e.g. "ws://localhost:6379/ws") as player,
// carrying the identity in the "user" header the same way the server's
// transport package reads it. The returned Client's read pump is already
// running; its decoded frames arrive on Updates.
func Dial(addr, player string) (*Client, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("wsclient: invalid address %q: %w", addr, err)
	}
	header := http.Header{}
	header.Set("user", player)

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), header)
	if err != nil {
		return nil, fmt.Errorf("wsclient: dial %s: %w", addr, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		player:  player,
		conn:    conn,
		Updates: make(chan tea.Msg, 64),
		cancel:  cancel,
	}

	go c.readPump(ctx)
	go c.pingPump(ctx)

	return c, nil
}

// Close terminates the connection and its pump goroutines. Safe to call
// more than once.
func (c *Client) Close() {
	c.once.Do(func() {
		c.cancel()
		_ = c.conn.Close()
	})
}

func (c *Client) readPump(ctx context.Context) {
	defer c.Close()
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.Updates <- DisconnectedMsg{Err: err}
			return
		}
		msg, err := decode(data)
		if err != nil {
			c.Updates <- DisconnectedMsg{Err: err}
			return
		}
		c.Updates <- msg
	}
}

func (c *Client) pingPump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.writeMu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func decode(data []byte) (UpdateMsg, error) {
	var head struct {
		Type protocol.ResponseType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return UpdateMsg{}, fmt.Errorf("wsclient: malformed frame: %w", err)
	}

	out := UpdateMsg{Kind: head.Type}
	var err error
	switch head.Type {
	case protocol.TypeLobbyList:
		out.LobbyList = new(protocol.LobbyListResponse)
		err = json.Unmarshal(data, out.LobbyList)
	case protocol.TypeLobbyDetails:
		out.LobbyDetails = new(protocol.LobbyDetailsResponse)
		err = json.Unmarshal(data, out.LobbyDetails)
	case protocol.TypeLobbyDeleted:
		out.LobbyDeleted = new(protocol.LobbyDeletedResponse)
		err = json.Unmarshal(data, out.LobbyDeleted)
	case protocol.TypeGameList:
		out.GameList = new(protocol.GameListResponse)
		err = json.Unmarshal(data, out.GameList)
	case protocol.TypeGameDetailsCardExchange, protocol.TypeGameDetailsRoundInProgress, protocol.TypeGameDetailsRoundFinished:
		out.GameDetails = new(protocol.GameDetailsResponse)
		err = json.Unmarshal(data, out.GameDetails)
	case protocol.TypeGameDeleted:
		out.GameDeleted = new(protocol.GameDeletedResponse)
		err = json.Unmarshal(data, out.GameDeleted)
	case protocol.TypeError:
		out.Error = new(protocol.ErrorResponse)
		err = json.Unmarshal(data, out.Error)
	default:
		err = fmt.Errorf("wsclient: unknown response type %q", head.Type)
	}
	if err != nil {
		return UpdateMsg{}, err
	}
	return out, nil
}

func (c *Client) send(req *protocol.Request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("wsclient: encode request: %w", err)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// ListLobbies requests the current lobby roster.
func (c *Client) ListLobbies() error {
	return c.send(&protocol.Request{Action: protocol.ActionListLobbies})
}

// GetLobbyDetails requests the current state of a lobby the caller is
// seated in.
func (c *Client) GetLobbyDetails(id uuid.UUID) error {
	return c.send(&protocol.Request{Action: protocol.ActionGetLobbyDetails, ID: id})
}

// CreateLobby requests a new lobby seating the caller first.
func (c *Client) CreateLobby(maxPlayers, maxScore int) error {
	return c.send(&protocol.Request{Action: protocol.ActionCreateLobby, MaxPlayers: maxPlayers, MaxScore: maxScore})
}

// JoinLobby requests a seat in an existing lobby.
func (c *Client) JoinLobby(id uuid.UUID) error {
	return c.send(&protocol.Request{Action: protocol.ActionJoinLobby, ID: id})
}

// QuitLobby leaves a lobby the caller has not yet been seated out of.
func (c *Client) QuitLobby(id uuid.UUID) error {
	return c.send(&protocol.Request{Action: protocol.ActionQuitLobby, ID: id})
}

// ListGames requests the current in-progress game roster.
func (c *Client) ListGames() error {
	return c.send(&protocol.Request{Action: protocol.ActionListGames})
}

// GetGameDetails requests the caller's own obfuscated view of a game.
func (c *Client) GetGameDetails(id uuid.UUID) error {
	return c.send(&protocol.Request{Action: protocol.ActionGetGameDetails, ID: id})
}

// SubmitExchange offers three cards during the card-exchange phase.
func (c *Client) SubmitExchange(id uuid.UUID, chosen []cards.Card) error {
	return c.send(&protocol.Request{Action: protocol.ActionCardExchangeMove, ID: id, CardsToExchange: chosen})
}

// PlaceCard plays a single card during the round-in-progress phase.
func (c *Client) PlaceCard(id uuid.UUID, card cards.Card) error {
	return c.send(&protocol.Request{Action: protocol.ActionPlaceCardMove, ID: id, Card: &card})
}

// ClaimReadiness marks the caller ready (or not) to start the next round.
func (c *Client) ClaimReadiness(id uuid.UUID, ready bool) error {
	return c.send(&protocol.Request{Action: protocol.ActionClaimReadinessMove, ID: id, Ready: &ready})
}

// QuitGame leaves an in-progress game.
func (c *Client) QuitGame(id uuid.UUID) error {
	return c.send(&protocol.Request{Action: protocol.ActionQuitGame, ID: id})
}

// Listen returns a tea.Cmd that waits for the next update and re-arms
// itself; wire it as the result of Init and every branch of Update that
// receives an UpdateMsg.
func (c *Client) Listen() tea.Cmd {
	return func() tea.Msg {
		return <-c.Updates
	}
}
