// Package transport turns an http.Handler's WebSocket upgrade into a
// live connection registered in pkg/session, and runs the
// reader/writer goroutine pair that keeps it fed.
package transport

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/blackwidow/heartsd/pkg/dispatch"
	"github.com/blackwidow/heartsd/pkg/protocol"
	"github.com/blackwidow/heartsd/pkg/session"
	"github.com/decred/slog"
	"github.com/gorilla/websocket"
)

const (
	// sendBuffer bounds the per-connection outbound queue. A receiver
	// that cannot keep up this far behind is detached rather than
	// allowed to stall the sender.
	sendBuffer = 128

	readLimit      = 1 << 16
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = 54 * time.Second
	minIdentityLen = 6
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Conn is one connected player's WebSocket, wired as a session.Sink.
type Conn struct {
	player string
	ws     *websocket.Conn
	send   chan []byte
	cancel context.CancelFunc

	closeOnce sync.Once
}

// Send implements session.Sink with a non-blocking enqueue: a receiver
// that is sendBuffer frames behind is treated as slow and disconnected,
// rather than letting one stalled player back up every broadcast.
func (c *Conn) Send(data []byte) error {
	select {
	case c.send <- data:
		return nil
	default:
		c.abort()
		return errSlowReceiver
	}
}

// abort cancels the connection's shared context and closes the
// underlying socket, which is what actually unblocks a reader goroutine
// parked in a blocking ReadMessage call — ctx cancellation alone only
// reaches code that polls ctx.Done().
func (c *Conn) abort() {
	c.closeOnce.Do(func() {
		c.cancel()
		_ = c.ws.Close()
	})
}

var errSlowReceiver = slowReceiverError{}

type slowReceiverError struct{}

func (slowReceiverError) Error() string { return "receiver too slow, disconnecting" }

// Handler builds the /ws upgrade endpoint. Every accepted connection is
// identified, registered with registry, and driven by a reader/writer
// goroutine pair sharing cancellation: when either stops the other is
// aborted and the player is removed from the connections registry. The
// player's lobby or game membership survives a closed connection —
// leaving one is always an explicit quitLobby/quitGame action.
func Handler(registry *session.Registry, dispatcher *dispatch.Dispatcher, log slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player, ok := identity(r)
		if !ok {
			http.Error(w, "missing or too short user identity", http.StatusBadRequest)
			return
		}

		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warnf("transport: upgrade from %s failed: %v", r.RemoteAddr, err)
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		conn := &Conn{player: player, ws: ws, cancel: cancel, send: make(chan []byte, sendBuffer)}

		if err := registry.Connect(player, conn); err != nil {
			cancel()
			log.Debugf("transport: rejecting duplicate identity %s from %s", player, r.RemoteAddr)
			_ = ws.WriteJSON(protocol.NewError(err))
			_ = ws.Close()
			return
		}

		log.Debugf("transport: %s connected from %s", player, r.RemoteAddr)

		done := make(chan struct{}, 2)
		go readPump(ctx, conn, dispatcher, log, done)
		go writePump(ctx, conn, log, done)

		<-done
		conn.abort()
		<-done

		registry.Disconnect(player)
		log.Debugf("transport: %s disconnected", player)
	}
}

// identity extracts the player id from the "user" cookie, falling back
// to a "user" request header, and enforces the minimum trimmed length.
func identity(r *http.Request) (string, bool) {
	raw := ""
	if c, err := r.Cookie("user"); err == nil {
		raw = c.Value
	}
	if raw == "" {
		raw = r.Header.Get("user")
	}
	raw = strings.TrimSpace(raw)
	if len(raw) < minIdentityLen {
		return "", false
	}
	return raw, true
}

func readPump(ctx context.Context, conn *Conn, dispatcher *dispatch.Dispatcher, log slog.Logger, done chan<- struct{}) {
	defer func() { done <- struct{}{} }()

	conn.ws.SetReadLimit(readLimit)
	_ = conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	conn.ws.SetPongHandler(func(string) error {
		return conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if ctx.Err() != nil {
			return
		}
		_, raw, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debugf("transport: %s read error: %v", conn.player, err)
			}
			return
		}

		req, err := protocol.Decode(raw)
		if err != nil {
			conn.Send(mustMarshalError(err))
			continue
		}
		// Dispatch sends its own responses/broadcasts through the
		// registry; a returned error has already been delivered to
		// this connection as a wire-level error envelope.
		_ = dispatcher.Dispatch(conn.player, req)
	}
}

func writePump(ctx context.Context, conn *Conn, log slog.Logger, done chan<- struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		done <- struct{}{}
	}()

	for {
		select {
		case <-ctx.Done():
			_ = conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case data := <-conn.send:
			_ = conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debugf("transport: %s write error: %v", conn.player, err)
				return
			}
		case <-ticker.C:
			_ = conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func mustMarshalError(err error) []byte {
	data, marshalErr := protocol.Marshal(protocol.NewError(err))
	if marshalErr != nil {
		return []byte(`{"type":"error","detail":"internal encoding failure"}`)
	}
	return data
}
