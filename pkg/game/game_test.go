package game

import (
	"math/rand"
	"testing"

	"github.com/blackwidow/heartsd/pkg/cards"
	"github.com/blackwidow/heartsd/pkg/statemachine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDealsAFreshCardExchangeGame(t *testing.T) {
	players := []string{"alice", "bob", "carol", "dave"}
	g, err := New(players, Settings{MaxScore: 100}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	assert.Equal(t, PhaseCardExchange, g.Step.Phase)
	assert.False(t, g.Finished)

	total := 0
	for _, p := range players {
		total += len(g.Step.Hands[p])
	}
	assert.Equal(t, 52, total)
}

func TestNewRejectsBadPlayerCount(t *testing.T) {
	_, err := New([]string{"alice", "bob"}, Settings{MaxScore: 100}, rand.New(rand.NewSource(1)))
	require.Error(t, err)
}

func TestMovesAreRejectedOncePhaseMismatches(t *testing.T) {
	g, err := New([]string{"alice", "bob", "carol"}, Settings{MaxScore: 100}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	err = g.PlaceCardMove("alice", g.Step.Hands["alice"][0])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid in phase")
}

func TestForceFinishLatchesGameRegardlessOfPhase(t *testing.T) {
	g, err := New([]string{"alice", "bob", "carol"}, Settings{MaxScore: 100}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	g.ForceFinish()
	assert.True(t, g.Finished)

	err = g.SubmitExchangeMove("alice", []cards.Card{g.Step.Hands["alice"][0]})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "game is finished")
}

// TestGameDispatchDrivesExchangeIntoRoundInProgress exercises the public
// Game API end to end through one full exchange, confirming the state
// machine swaps in a round-in-progress Step exactly when the last
// submission lands.
func TestGameDispatchDrivesExchangeIntoRoundInProgress(t *testing.T) {
	players := []string{"alice", "bob", "carol"}
	g, err := New(players, Settings{MaxScore: 100}, rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	for _, p := range players {
		hand := g.Step.Hands[p]
		require.NoError(t, g.SubmitExchangeMove(p, []cards.Card{hand[0], hand[1], hand[2]}))
	}

	require.Equal(t, PhaseRoundInProgress, g.Step.Phase)
	require.NotNil(t, g.Step.RoundInProgress)
	assert.NotEmpty(t, g.Step.RoundInProgress.CardsOnTable)
}

// TestGameDispatchRunsATrivialRoundToCompletion grounds a minimal
// play-out: alice's lead is already on the table and her hand is empty,
// bob and carol each hold a single card, and the final play resolves the
// trick and flips the phase straight to round-finished.
func TestGameDispatchRunsATrivialRoundToCompletion(t *testing.T) {
	players := []string{"alice", "bob", "carol"}
	g := &Game{
		Settings: Settings{MaxScore: 100},
		Step: &Step{
			Players: players,
			Hands: map[string]cards.Hand{
				"alice": {},
				"bob":   {mustCard(t, cards.Club, 6)},
				"carol": {mustCard(t, cards.Heart, 14)},
			},
			Scores: map[string]int{"alice": 0, "bob": 0, "carol": 0},
			Phase:  PhaseRoundInProgress,
			RoundInProgress: &RoundInProgressState{
				CurrentPlayer: "bob",
				TableSuit:     suitPtr(cards.Club),
				CardsOnTable:  map[string]cards.Card{"alice": mustCard(t, cards.Club, 9)},
				RoundScore:    map[string]int{"alice": 0, "bob": 0, "carol": 0},
			},
		},
		rng: rand.New(rand.NewSource(1)),
	}
	g.sm = statemachine.NewStateMachine(g, roundInProgressState)

	require.NoError(t, g.PlaceCardMove("bob", mustCard(t, cards.Club, 6)))
	require.NoError(t, g.PlaceCardMove("carol", mustCard(t, cards.Heart, 14)))

	assert.Equal(t, PhaseRoundFinished, g.Step.Phase)
	assert.Nil(t, g.Step.RoundInProgress)
	assert.NotNil(t, g.Step.RoundFinished)
	assert.Equal(t, 1, g.Step.Scores["alice"])
}
