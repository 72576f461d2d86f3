package main

import (
	"github.com/google/uuid"

	"github.com/blackwidow/heartsd/pkg/cards"
	"github.com/blackwidow/heartsd/pkg/protocol"
	"github.com/blackwidow/heartsd/pkg/wsclient"
)

// screenState is the terminal's current screen.
type screenState int

const (
	stateMainMenu screenState = iota
	stateLobbyList
	stateCreateLobby
	stateJoinLobbyID
	stateInLobby
	stateGame
)

type menuOption string

const (
	optionListLobbies menuOption = "List Lobbies"
	optionCreateLobby menuOption = "Create Lobby"
	optionJoinLobby   menuOption = "Join Lobby by ID"
	optionListGames   menuOption = "List Games"
	optionQuit        menuOption = "Quit"
)

var mainMenuOptions = []menuOption{
	optionListLobbies,
	optionCreateLobby,
	optionJoinLobby,
	optionListGames,
	optionQuit,
}

// model holds every screen's state; only the fields relevant to the
// current screenState are meaningful.
type model struct {
	client *wsclient.Client
	player string

	state        screenState
	selectedItem int
	err          error

	lobbies       []protocol.Lobby
	selectedLobby int

	createMaxPlayers string
	createMaxScore   string
	formField        int

	joinIDInput string

	currentLobby *protocol.Lobby

	games []protocol.ListedGame

	gameID   uuid.UUID
	snapshot protocol.Snapshot
	kind     protocol.ResponseType

	// exchange selection, indices into snapshot.YourCards
	exchangeSelected map[int]bool

	quitting bool
}

func newModel(client *wsclient.Client, player string) model {
	return model{
		client:           client,
		player:           player,
		state:            stateMainMenu,
		createMaxPlayers: "4",
		createMaxScore:   "100",
		exchangeSelected: make(map[int]bool),
	}
}

func (m *model) resetToMainMenu() {
	m.state = stateMainMenu
	m.selectedItem = 0
	m.err = nil
}

func (m *model) legalExchangeCount() int {
	return 3
}

func selectedExchangeCards(snapshot protocol.Snapshot, selected map[int]bool) []cards.Card {
	out := make([]cards.Card, 0, len(selected))
	for idx := range selected {
		if idx < len(snapshot.YourCards) {
			out = append(out, snapshot.YourCards[idx])
		}
	}
	return out
}

func parseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}
