package main

import (
	"fmt"
	"strings"

	"github.com/blackwidow/heartsd/pkg/cards"
	"github.com/blackwidow/heartsd/pkg/protocol"
)

func (m model) View() string {
	if m.quitting {
		return "goodbye.\n"
	}

	var body string
	switch m.state {
	case stateMainMenu:
		body = m.viewMainMenu()
	case stateLobbyList:
		body = m.viewLobbyList()
	case stateCreateLobby:
		body = m.viewCreateLobby()
	case stateJoinLobbyID:
		body = m.viewJoinLobbyID()
	case stateInLobby:
		body = m.viewInLobby()
	case stateGame:
		body = m.viewGame()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("heartsctl — %s", m.player)))
	b.WriteString("\n\n")
	b.WriteString(body)
	if m.err != nil {
		b.WriteString("\n\n")
		b.WriteString(errorStyle.Render(m.err.Error()))
	}
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("esc: back  ctrl+c: quit"))
	return b.String()
}

func (m model) viewMainMenu() string {
	var b strings.Builder
	for i, opt := range mainMenuOptions {
		cursor := "  "
		style := blurredStyle
		if i == m.selectedItem {
			cursor = "> "
			style = focusedStyle
		}
		b.WriteString(cursor + style.Render(string(opt)) + "\n")
	}
	if len(m.games) > 0 {
		b.WriteString("\nin-progress games:\n")
		for _, g := range m.games {
			b.WriteString(fmt.Sprintf("  %s  %s\n", g.ID, strings.Join(g.Players, ", ")))
		}
	}
	return b.String()
}

func (m model) viewLobbyList() string {
	if len(m.lobbies) == 0 {
		return "no open lobbies. press r to refresh."
	}
	var b strings.Builder
	for i, l := range m.lobbies {
		cursor := "  "
		if i == m.selectedLobby {
			cursor = "> "
		}
		b.WriteString(fmt.Sprintf("%s%s  %d/%d players  maxScore=%d\n",
			cursor, l.ID, len(l.Players), l.MaxPlayers, l.MaxScore))
	}
	b.WriteString(helpStyle.Render("\nenter: join  r: refresh"))
	return b.String()
}

func (m model) viewCreateLobby() string {
	fields := []struct {
		label string
		value string
	}{
		{"Max players", m.createMaxPlayers},
		{"Max score", m.createMaxScore},
	}
	var b strings.Builder
	for i, f := range fields {
		style := blurredStyle
		if i == m.formField {
			style = focusedStyle
		}
		b.WriteString(style.Render(fmt.Sprintf("%s: %s", f.label, f.value)) + "\n")
	}
	b.WriteString(helpStyle.Render("\ntab: next field  enter: create"))
	return b.String()
}

func (m model) viewJoinLobbyID() string {
	return fmt.Sprintf("lobby id: %s\n\n%s", m.joinIDInput, helpStyle.Render("enter: join"))
}

func (m model) viewInLobby() string {
	if m.currentLobby == nil {
		return "waiting for lobby details..."
	}
	l := m.currentLobby
	return fmt.Sprintf("lobby %s\nplayers: %s (%d/%d)\n\n%s",
		l.ID, strings.Join(l.Players, ", "), len(l.Players), l.MaxPlayers,
		helpStyle.Render("q: leave lobby"))
}

func (m model) viewGame() string {
	switch m.kind {
	case protocol.TypeGameDetailsCardExchange:
		return m.viewExchange()
	case protocol.TypeGameDetailsRoundInProgress:
		return m.viewRoundInProgress()
	case protocol.TypeGameDetailsRoundFinished:
		return m.viewRoundFinished()
	}
	return ""
}

func renderCard(c cards.Card, selected bool) string {
	style := cardStyle
	if c.Suit == cards.Heart || c.Suit == cards.Diamond {
		style = redCardStyle
	}
	if selected {
		style = selectedCardStyle
	}
	return style.Render(fmt.Sprintf("%s %d", c.Suit, c.Value))
}

func (m model) viewHandRow(highlightSelectable bool) string {
	var row []string
	for i, c := range m.snapshot.YourCards {
		selected := highlightSelectable && i == m.selectedItem
		if m.exchangeSelected[i] {
			selected = true
		}
		row = append(row, renderCard(c, selected))
	}
	return strings.Join(row, "")
}

func (m model) viewScores() string {
	var lines []string
	for _, p := range m.snapshot.Players {
		lines = append(lines, fmt.Sprintf("%s: %d", p, m.snapshot.Scores[p]))
	}
	return scoreBoxStyle.Render(strings.Join(lines, "\n"))
}

func (m model) viewExchange() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("card exchange — choose %d cards to pass\n\n", m.legalExchangeCount()))
	b.WriteString(m.viewHandRow(true))
	b.WriteString("\n\n")
	for _, p := range m.snapshot.Players {
		if p == m.player {
			continue
		}
		status := "waiting"
		if m.snapshot.PlayerExchangeCards[p] {
			status = "ready"
		}
		b.WriteString(fmt.Sprintf("%s: %s\n", p, status))
	}
	b.WriteString(helpStyle.Render(fmt.Sprintf("\nleft/right: move  space: toggle (%d/%d selected)  enter: submit  q: quit game",
		len(m.exchangeSelected), m.legalExchangeCount())))
	return b.String()
}

func (m model) viewRoundInProgress() string {
	var b strings.Builder
	turn := m.snapshot.CurrentPlayer
	if turn == m.player {
		b.WriteString(currentPlayerStyle.Render("your turn") + "\n\n")
	} else {
		b.WriteString(fmt.Sprintf("waiting on %s\n\n", turn))
	}

	b.WriteString("table:\n")
	for _, p := range m.snapshot.Players {
		if c, ok := m.snapshot.CardsOnTable[p]; ok {
			b.WriteString(fmt.Sprintf("  %s: %s\n", p, renderCard(c, false)))
		}
	}
	b.WriteString("\nyour hand:\n")
	b.WriteString(m.viewHandRow(turn == m.player))
	b.WriteString("\n\n")
	b.WriteString(m.viewScores())
	b.WriteString(helpStyle.Render("\nleft/right: move  enter: play  q: quit game"))
	return b.String()
}

func (m model) viewRoundFinished() string {
	var b strings.Builder
	b.WriteString("round finished\n\n")
	b.WriteString(m.viewScores())
	b.WriteString("\n")
	for _, p := range m.snapshot.Players {
		status := "not ready"
		if m.snapshot.PlayersReady[p] {
			status = "ready"
		}
		b.WriteString(fmt.Sprintf("%s: %s\n", p, status))
	}
	if m.snapshot.Finished {
		b.WriteString("\ngame over.\n")
	}
	b.WriteString(helpStyle.Render("\nenter: ready for next round  q: quit game"))
	return b.String()
}
