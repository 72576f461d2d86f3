// Command heartsctl is a terminal client for a heartsd server: it dials
// the WebSocket endpoint, authenticates with a chosen display name, and
// drives lobby creation, joining, and gameplay through a bubbletea UI.
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/blackwidow/heartsd/pkg/wsclient"
)

func main() {
	var (
		addr   string
		player string
	)
	flag.StringVar(&addr, "addr", "ws://localhost:6379/ws", "heartsd WebSocket address")
	flag.StringVar(&player, "player", "", "display name (minimum 6 characters)")
	flag.Parse()

	if player == "" {
		fmt.Fprintln(os.Stderr, "heartsctl: -player is required")
		os.Exit(1)
	}

	client, err := wsclient.Dial(addr, player)
	if err != nil {
		fmt.Fprintf(os.Stderr, "heartsctl: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	m := newModel(client, player)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "heartsctl: %v\n", err)
		os.Exit(1)
	}
}
