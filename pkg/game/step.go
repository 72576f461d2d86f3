// Package game implements the phase state machine that drives a single
// game of the Hearts-family trick-taking card game: card-exchange,
// round-in-progress and round-finished, plus the Game wrapper that routes
// moves to whichever phase is currently live.
package game

import (
	"math/rand"

	"github.com/blackwidow/heartsd/pkg/apperrors"
	"github.com/blackwidow/heartsd/pkg/cards"
)

// PhaseKind discriminates which of the three phase variants is live. Only
// one of a Step's phase-specific state pointers is non-nil at a time: a
// discriminator plus a lookup, rather than an inheritance hierarchy, since
// each phase has disjoint operations.
type PhaseKind int

const (
	PhaseCardExchange PhaseKind = iota
	PhaseRoundInProgress
	PhaseRoundFinished
)

func (k PhaseKind) String() string {
	switch k {
	case PhaseCardExchange:
		return "CardExchange"
	case PhaseRoundInProgress:
		return "RoundInProgress"
	case PhaseRoundFinished:
		return "RoundFinished"
	default:
		return "Unknown"
	}
}

// Settings configures a game's end condition.
type Settings struct {
	MaxScore int
}

// CardExchangeState holds each player's private exchange submission until
// every player has submitted.
type CardExchangeState struct {
	CardsToExchange map[string][]cards.Card
}

// RoundInProgressState holds the state of the trick currently on the
// table.
type RoundInProgressState struct {
	CurrentPlayer string
	TableSuit     *cards.Suit
	CardsOnTable  map[string]cards.Card
	RoundScore    map[string]int
}

// RoundFinishedState holds each player's readiness flag for starting the
// next round.
type RoundFinishedState struct {
	PlayersReady map[string]bool
}

// Step is the generic envelope shared by all three phases: seating order,
// rotation, cumulative scores, private hands, and whichever phase-specific
// state is currently live.
type Step struct {
	Players []string
	Hands   map[string]cards.Hand
	Scores  map[string]int
	Phase   PhaseKind

	Exchange        *CardExchangeState
	RoundInProgress *RoundInProgressState
	RoundFinished   *RoundFinishedState
}

// rotation returns the circular successor map for the step's seating
// order. It is derived on demand rather than stored, since it never
// changes for the life of a game and storing it would just be another
// thing to keep in sync with Players.
func (s *Step) rotation() map[string]string {
	return cards.Rotation(s.Players)
}

// newExchangeStep deals a fresh hand to every player and opens the
// card-exchange phase. It is used both at game creation and at the
// round-finished -> card-exchange transition, preserving players and
// scores across the re-deal.
func newExchangeStep(players []string, scores map[string]int, rng *rand.Rand) (*Step, error) {
	hands, err := cards.Deal(players, rng)
	if err != nil {
		return nil, err
	}
	return &Step{
		Players: players,
		Hands:   hands,
		Scores:  scores,
		Phase:   PhaseCardExchange,
		Exchange: &CardExchangeState{
			CardsToExchange: make(map[string][]cards.Card),
		},
	}, nil
}

func hasPlayer(players []string, player string) bool {
	for _, p := range players {
		if p == player {
			return true
		}
	}
	return false
}

func requirePlayer(players []string, player string) error {
	if !hasPlayer(players, player) {
		return apperrors.InvalidAction("player %s is not seated in this game", player)
	}
	return nil
}
