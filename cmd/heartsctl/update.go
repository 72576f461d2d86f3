package main

import (
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/blackwidow/heartsd/pkg/protocol"
	"github.com/blackwidow/heartsd/pkg/wsclient"
)

func (m model) Init() tea.Cmd {
	return m.client.Listen()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case wsclient.DisconnectedMsg:
		m.quitting = true
		m.err = msg.Err
		return m, tea.Quit
	case wsclient.UpdateMsg:
		m.applyUpdate(msg)
		return m, m.client.Listen()
	}
	return m, nil
}

func (m *model) applyUpdate(msg wsclient.UpdateMsg) {
	switch msg.Kind {
	case protocol.TypeLobbyList:
		m.lobbies = msg.LobbyList.Lobbies
		m.err = nil
	case protocol.TypeLobbyDetails:
		lobby := msg.LobbyDetails.Lobby
		m.currentLobby = &lobby
		if m.state == stateCreateLobby || m.state == stateJoinLobbyID {
			m.state = stateInLobby
		}
	case protocol.TypeLobbyDeleted:
		if m.currentLobby != nil && m.currentLobby.ID == msg.LobbyDeleted.ID {
			m.currentLobby = nil
		}
	case protocol.TypeGameList:
		m.games = msg.GameList.Games
	case protocol.TypeGameDetailsCardExchange, protocol.TypeGameDetailsRoundInProgress, protocol.TypeGameDetailsRoundFinished:
		m.gameID = msg.GameDetails.ID
		m.snapshot = msg.GameDetails.Game
		m.kind = msg.Kind
		m.state = stateGame
		m.exchangeSelected = make(map[int]bool)
		m.currentLobby = nil
	case protocol.TypeGameDeleted:
		if m.gameID == msg.GameDeleted.ID {
			m.resetToMainMenu()
		}
	case protocol.TypeError:
		m.err = errString(msg.Error.Detail)
	}
}

type errString string

func (e errString) Error() string { return string(e) }

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "esc":
		if m.state != stateMainMenu {
			m.resetToMainMenu()
		}
		return m, nil
	}

	switch m.state {
	case stateMainMenu:
		return m.handleMainMenuKey(msg)
	case stateLobbyList:
		return m.handleLobbyListKey(msg)
	case stateCreateLobby:
		return m.handleCreateLobbyKey(msg)
	case stateJoinLobbyID:
		return m.handleJoinLobbyIDKey(msg)
	case stateInLobby:
		return m.handleInLobbyKey(msg)
	case stateGame:
		return m.handleGameKey(msg)
	}
	return m, nil
}

func (m model) handleMainMenuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.selectedItem = max(0, m.selectedItem-1)
	case "down", "j":
		m.selectedItem = min(len(mainMenuOptions)-1, m.selectedItem+1)
	case "enter":
		switch mainMenuOptions[m.selectedItem] {
		case optionListLobbies:
			m.state = stateLobbyList
			return m, reportErr(m.client.ListLobbies())
		case optionCreateLobby:
			m.state = stateCreateLobby
			m.formField = 0
		case optionJoinLobby:
			m.state = stateJoinLobbyID
			m.joinIDInput = ""
		case optionListGames:
			return m, reportErr(m.client.ListGames())
		case optionQuit:
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) handleLobbyListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.selectedLobby = max(0, m.selectedLobby-1)
	case "down", "j":
		m.selectedLobby = min(len(m.lobbies)-1, m.selectedLobby+1)
	case "enter":
		if m.selectedLobby < len(m.lobbies) {
			id := m.lobbies[m.selectedLobby].ID
			return m, reportErr(m.client.JoinLobby(id))
		}
	case "r":
		return m, reportErr(m.client.ListLobbies())
	}
	return m, nil
}

func (m model) handleCreateLobbyKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		m.formField = (m.formField + 1) % 2
	case "shift+tab", "up":
		m.formField = (m.formField + 1) % 2 // only two fields: cycling either direction lands on the other one
	case "enter":
		maxPlayers, err := strconv.Atoi(m.createMaxPlayers)
		if err != nil {
			m.err = err
			return m, nil
		}
		maxScore, err := strconv.Atoi(m.createMaxScore)
		if err != nil {
			m.err = err
			return m, nil
		}
		return m, reportErr(m.client.CreateLobby(maxPlayers, maxScore))
	case "backspace":
		m.editField(func(s string) string {
			if len(s) == 0 {
				return s
			}
			return s[:len(s)-1]
		})
	default:
		if len(msg.String()) == 1 {
			m.editField(func(s string) string { return s + msg.String() })
		}
	}
	return m, nil
}

func (m *model) editField(f func(string) string) {
	if m.formField == 0 {
		m.createMaxPlayers = f(m.createMaxPlayers)
	} else {
		m.createMaxScore = f(m.createMaxScore)
	}
}

func (m model) handleJoinLobbyIDKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		id, err := parseUUID(m.joinIDInput)
		if err != nil {
			m.err = err
			return m, nil
		}
		return m, reportErr(m.client.JoinLobby(id))
	case "backspace":
		if len(m.joinIDInput) > 0 {
			m.joinIDInput = m.joinIDInput[:len(m.joinIDInput)-1]
		}
	default:
		if len(msg.String()) == 1 {
			m.joinIDInput += msg.String()
		}
	}
	return m, nil
}

func (m model) handleInLobbyKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		if m.currentLobby != nil {
			id := m.currentLobby.ID
			m.resetToMainMenu()
			return m, reportErr(m.client.QuitLobby(id))
		}
	}
	return m, nil
}

func (m model) handleGameKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.kind {
	case protocol.TypeGameDetailsCardExchange:
		return m.handleExchangeKey(msg)
	case protocol.TypeGameDetailsRoundInProgress:
		return m.handlePlaceCardKey(msg)
	case protocol.TypeGameDetailsRoundFinished:
		return m.handleReadyKey(msg)
	}
	return m, nil
}

func (m model) handleExchangeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.snapshot.YourCards)
	switch msg.String() {
	case "left", "h":
		m.selectedItem = ((m.selectedItem-1)%n + n) % n
	case "right", "l":
		m.selectedItem = (m.selectedItem + 1) % n
	case " ":
		if m.exchangeSelected[m.selectedItem] {
			delete(m.exchangeSelected, m.selectedItem)
		} else if len(m.exchangeSelected) < m.legalExchangeCount() {
			m.exchangeSelected[m.selectedItem] = true
		}
	case "enter":
		if len(m.exchangeSelected) != m.legalExchangeCount() {
			return m, nil
		}
		chosen := selectedExchangeCards(m.snapshot, m.exchangeSelected)
		return m, reportErr(m.client.SubmitExchange(m.gameID, chosen))
	case "q":
		id := m.gameID
		m.resetToMainMenu()
		return m, reportErr(m.client.QuitGame(id))
	}
	return m, nil
}

func (m model) handlePlaceCardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.snapshot.YourCards)
	if n == 0 {
		return m, nil
	}
	switch msg.String() {
	case "left", "h":
		m.selectedItem = ((m.selectedItem-1)%n + n) % n
	case "right", "l":
		m.selectedItem = (m.selectedItem + 1) % n
	case "enter":
		if m.snapshot.CurrentPlayer != m.player {
			return m, nil
		}
		card := m.snapshot.YourCards[m.selectedItem]
		return m, reportErr(m.client.PlaceCard(m.gameID, card))
	case "q":
		id := m.gameID
		m.resetToMainMenu()
		return m, reportErr(m.client.QuitGame(id))
	}
	return m, nil
}

func (m model) handleReadyKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "y":
		return m, reportErr(m.client.ClaimReadiness(m.gameID, true))
	case "q":
		id := m.gameID
		m.resetToMainMenu()
		return m, reportErr(m.client.QuitGame(id))
	}
	return m, nil
}

// reportErr turns a local send error into a tea.Cmd so it surfaces via
// the same Update loop as a server-side error would, instead of being
// silently dropped or panicking the UI goroutine.
func reportErr(err error) tea.Cmd {
	if err == nil {
		return nil
	}
	return func() tea.Msg {
		return wsclient.DisconnectedMsg{Err: err}
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
