package dispatch

import (
	"encoding/json"
	"math/rand"
	"os"
	"testing"

	"github.com/blackwidow/heartsd/pkg/cards"
	"github.com/blackwidow/heartsd/pkg/protocol"
	"github.com/blackwidow/heartsd/pkg/session"
	"github.com/decred/slog"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() slog.Logger {
	backend := slog.NewBackend(os.Stderr)
	log := backend.Logger("test")
	log.SetLevel(slog.LevelError)
	return log
}

type recordingSink struct {
	messages []map[string]interface{}
}

func (r *recordingSink) Send(data []byte) error {
	var v map[string]interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	r.messages = append(r.messages, v)
	return nil
}

func (r *recordingSink) last() map[string]interface{} {
	if len(r.messages) == 0 {
		return nil
	}
	return r.messages[len(r.messages)-1]
}

func newTestDispatcher() (*Dispatcher, *session.Registry) {
	reg := session.New(rand.New(rand.NewSource(11)), testLogger())
	return New(reg, testLogger()), reg
}

func connect(t *testing.T, reg *session.Registry, player string) *recordingSink {
	t.Helper()
	sink := &recordingSink{}
	require.NoError(t, reg.Connect(player, sink))
	return sink
}

func TestCreateAndJoinLobbyBroadcastsToAll(t *testing.T) {
	d, reg := newTestDispatcher()
	alice := connect(t, reg, "alice1")
	bob := connect(t, reg, "bob222")

	require.NoError(t, d.Dispatch("alice1", &protocol.Request{
		Action: protocol.ActionCreateLobby, MaxPlayers: 3, MaxScore: 100,
	}))

	require.Len(t, alice.messages, 1)
	require.Len(t, bob.messages, 1)
	assert.Equal(t, "lobbyDetails", alice.last()["type"])

	lobbyIDStr, _ := alice.last()["lobby"].(map[string]interface{})["id"].(string)
	lobbyID, err := uuid.Parse(lobbyIDStr)
	require.NoError(t, err)

	require.NoError(t, d.Dispatch("bob222", &protocol.Request{
		Action: protocol.ActionJoinLobby, ID: lobbyID,
	}))
	assert.Equal(t, "lobbyDetails", alice.last()["type"])
}

// TestThreeClientFlowMirrorsFullGameStartup grounds the scenario where
// three clients fill a lobby and each receives their own obfuscated
// card-exchange snapshot once it converts to a game.
func TestThreeClientFlowMirrorsFullGameStartup(t *testing.T) {
	d, reg := newTestDispatcher()
	alice := connect(t, reg, "alice1")
	bob := connect(t, reg, "bob222")
	carol := connect(t, reg, "carol3")

	require.NoError(t, d.Dispatch("alice1", &protocol.Request{
		Action: protocol.ActionCreateLobby, MaxPlayers: 3, MaxScore: 100,
	}))
	lobbyIDStr, _ := alice.last()["lobby"].(map[string]interface{})["id"].(string)
	lobbyID, err := uuid.Parse(lobbyIDStr)
	require.NoError(t, err)

	require.NoError(t, d.Dispatch("bob222", &protocol.Request{
		Action: protocol.ActionJoinLobby, ID: lobbyID,
	}))
	require.NoError(t, d.Dispatch("carol3", &protocol.Request{
		Action: protocol.ActionJoinLobby, ID: lobbyID,
	}))

	assert.Equal(t, "gameDetailsCardExchange", alice.last()["type"])
	assert.Equal(t, "gameDetailsCardExchange", bob.last()["type"])
	assert.Equal(t, "gameDetailsCardExchange", carol.last()["type"])

	aliceGame := alice.last()["game"].(map[string]interface{})
	assert.NotEmpty(t, aliceGame["yourCards"])
	playerDecks := aliceGame["playerDecks"].(map[string]interface{})
	assert.NotContains(t, playerDecks, "alice1")
	assert.Contains(t, playerDecks, "bob222")
	assert.Contains(t, playerDecks, "carol3")
}

func TestGetGameDetailsRejectsNonParticipant(t *testing.T) {
	d, reg := newTestDispatcher()
	alice := connect(t, reg, "alice1")
	bob := connect(t, reg, "bob222")
	carol := connect(t, reg, "carol3")
	dave := connect(t, reg, "dave444")
	_ = bob
	_ = carol

	require.NoError(t, d.Dispatch("alice1", &protocol.Request{
		Action: protocol.ActionCreateLobby, MaxPlayers: 3, MaxScore: 100,
	}))
	lobbyIDStr, _ := alice.last()["lobby"].(map[string]interface{})["id"].(string)
	lobbyID, _ := uuid.Parse(lobbyIDStr)
	require.NoError(t, d.Dispatch("bob222", &protocol.Request{Action: protocol.ActionJoinLobby, ID: lobbyID}))
	require.NoError(t, d.Dispatch("carol3", &protocol.Request{Action: protocol.ActionJoinLobby, ID: lobbyID}))

	gameIDStr, _ := alice.last()["id"].(string)
	gameID, err := uuid.Parse(gameIDStr)
	require.NoError(t, err)

	err = d.Dispatch("dave444", &protocol.Request{Action: protocol.ActionGetGameDetails, ID: gameID})
	require.Error(t, err)
	assert.Equal(t, "error", dave.last()["type"])
	assert.Contains(t, dave.last()["detail"], "don't participate")
}

func TestCardExchangeMoveBroadcastsUpdatedSnapshotsToParticipantsOnly(t *testing.T) {
	d, reg := newTestDispatcher()
	alice := connect(t, reg, "alice1")
	bob := connect(t, reg, "bob222")
	carol := connect(t, reg, "carol3")
	dave := connect(t, reg, "dave444")

	require.NoError(t, d.Dispatch("alice1", &protocol.Request{
		Action: protocol.ActionCreateLobby, MaxPlayers: 3, MaxScore: 100,
	}))
	lobbyIDStr, _ := alice.last()["lobby"].(map[string]interface{})["id"].(string)
	lobbyID, _ := uuid.Parse(lobbyIDStr)
	require.NoError(t, d.Dispatch("bob222", &protocol.Request{Action: protocol.ActionJoinLobby, ID: lobbyID}))
	require.NoError(t, d.Dispatch("carol3", &protocol.Request{Action: protocol.ActionJoinLobby, ID: lobbyID}))

	gameIDStr, _ := alice.last()["id"].(string)
	gameID, err := uuid.Parse(gameIDStr)
	require.NoError(t, err)
	daveCount := len(dave.messages)

	var hand []cards.Card
	err = reg.WithGame(gameID, func(gs *session.GameSession) error {
		h := gs.Game.Step.Hands["alice1"]
		hand = []cards.Card{h[0], h[1], h[2]}
		return nil
	})
	require.NoError(t, err)

	preCount := len(alice.messages)
	err = d.Dispatch("alice1", &protocol.Request{
		Action: protocol.ActionCardExchangeMove, ID: gameID, CardsToExchange: hand,
	})
	require.NoError(t, err)

	assert.Greater(t, len(alice.messages), preCount)
	assert.Equal(t, "gameDetailsCardExchange", alice.last()["type"])
	assert.Equal(t, "gameDetailsCardExchange", bob.last()["type"])
	assert.Equal(t, "gameDetailsCardExchange", carol.last()["type"])
	assert.Len(t, dave.messages, daveCount, "a non-participant receives no game snapshot")
}
