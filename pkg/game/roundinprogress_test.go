package game

import (
	"testing"

	"github.com/blackwidow/heartsd/pkg/apperrors"
	"github.com/blackwidow/heartsd/pkg/cards"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func suitPtr(s cards.Suit) *cards.Suit { return &s }

func threePlayerRoundStep(t *testing.T) *Step {
	t.Helper()
	players := []string{"alice", "bob", "carol"}
	return &Step{
		Players: players,
		Hands: map[string]cards.Hand{
			"alice": {mustCard(t, cards.Club, 9), mustCard(t, cards.Heart, 4)},
			"bob":   {mustCard(t, cards.Club, 6)},
			"carol": {mustCard(t, cards.Heart, 14)},
		},
		Scores: map[string]int{"alice": 0, "bob": 0, "carol": 0},
		Phase:  PhaseRoundInProgress,
		RoundInProgress: &RoundInProgressState{
			CurrentPlayer: "alice",
			TableSuit:     nil,
			CardsOnTable:  map[string]cards.Card{},
			RoundScore:    map[string]int{"alice": 0, "bob": 0, "carol": 0},
		},
	}
}

func TestPlaceCardRejectsOutOfTurn(t *testing.T) {
	step := threePlayerRoundStep(t)
	err := PlaceCard(step, "bob", mustCard(t, cards.Club, 6))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not your turn")
}

func TestPlaceCardRejectsCardNotHeld(t *testing.T) {
	step := threePlayerRoundStep(t)
	err := PlaceCard(step, "alice", mustCard(t, cards.Spade, 9))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not hold")
}

// TestPlaceCardEnforcesFollowSuit grounds the scenario where a player
// holding the table suit tries to discard a different suit instead.
func TestPlaceCardEnforcesFollowSuit(t *testing.T) {
	step := threePlayerRoundStep(t)
	step.RoundInProgress.TableSuit = suitPtr(cards.Club)
	step.RoundInProgress.CurrentPlayer = "alice"

	err := PlaceCard(step, "alice", mustCard(t, cards.Heart, 4))
	require.Error(t, err)
	ae, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindInvalidAction, ae.Kind)
	assert.Equal(t, "Player alice tried to place HEART, despite having CLUB in deck", err.Error())
}

// TestPlaceCardEnforcesLeadHeartsRestriction grounds the scenario where a
// player leading a trick tries to open with a heart while still holding
// other suits.
func TestPlaceCardEnforcesLeadHeartsRestriction(t *testing.T) {
	step := threePlayerRoundStep(t)
	step.Hands["alice"] = cards.Hand{mustCard(t, cards.Heart, 4), mustCard(t, cards.Club, 9)}

	err := PlaceCard(step, "alice", mustCard(t, cards.Heart, 4))
	require.Error(t, err)
	assert.Equal(t, "Player alice tried to place Heart suit on the table, despite having other suits left", err.Error())
}

func TestPlaceCardAllowsLeadHeartsWhenOnlyHeartsLeft(t *testing.T) {
	step := threePlayerRoundStep(t)
	step.Hands["alice"] = cards.Hand{mustCard(t, cards.Heart, 4)}

	err := PlaceCard(step, "alice", mustCard(t, cards.Heart, 4))
	require.NoError(t, err)
	assert.Equal(t, cards.Heart, *step.RoundInProgress.TableSuit)
}

func TestPlaceCardAdvancesTurnUntilTrickComplete(t *testing.T) {
	step := threePlayerRoundStep(t)

	require.NoError(t, PlaceCard(step, "alice", mustCard(t, cards.Club, 9)))
	assert.Equal(t, "bob", step.RoundInProgress.CurrentPlayer)
	assert.Len(t, step.RoundInProgress.CardsOnTable, 1)

	require.NoError(t, PlaceCard(step, "bob", mustCard(t, cards.Club, 6)))
	assert.Equal(t, "carol", step.RoundInProgress.CurrentPlayer)

	// Carol has no club, so she may discard the heart she holds.
	require.NoError(t, PlaceCard(step, "carol", mustCard(t, cards.Heart, 14)))

	// Trick resolves: alice's club-9 beats bob's club-6, table suit is
	// club so carol's heart-ace still counts toward the trick's score.
	assert.Equal(t, "alice", step.RoundInProgress.CurrentPlayer)
	assert.Equal(t, 1, step.Scores["alice"])
	assert.Equal(t, 1, step.RoundInProgress.RoundScore["alice"])
	assert.Empty(t, step.RoundInProgress.CardsOnTable)
	assert.Nil(t, step.RoundInProgress.TableSuit)
}

func TestShouldSwitchFromRoundInProgressWhenAllHandsEmpty(t *testing.T) {
	step := threePlayerRoundStep(t)
	assert.False(t, shouldSwitchFromRoundInProgress(step))
	step.Hands = map[string]cards.Hand{"alice": {}, "bob": {}, "carol": {}}
	assert.True(t, shouldSwitchFromRoundInProgress(step))
}

// TestTransitionToRoundFinishedAppliesShootTheMoon grounds the scenario
// where one player takes every point-bearing card in the round: their
// cumulative score drops by 43 and every other player's rises by 43.
func TestTransitionToRoundFinishedAppliesShootTheMoon(t *testing.T) {
	step := threePlayerRoundStep(t)
	step.Scores = map[string]int{"alice": 10, "bob": 5, "carol": 0}
	step.RoundInProgress.RoundScore = map[string]int{"alice": 43, "bob": 0, "carol": 0}

	rf := transitionToRoundFinished(step)

	assert.Equal(t, 10-43, step.Scores["alice"])
	assert.Equal(t, 5+43, step.Scores["bob"])
	assert.Equal(t, 0+43, step.Scores["carol"])
	assert.Len(t, rf.PlayersReady, 0)
}

func TestTransitionToRoundFinishedWithoutShootTheMoonLeavesScores(t *testing.T) {
	step := threePlayerRoundStep(t)
	step.Scores = map[string]int{"alice": 10, "bob": 5, "carol": 2}
	step.RoundInProgress.RoundScore = map[string]int{"alice": 3, "bob": 2, "carol": 1}

	transitionToRoundFinished(step)

	assert.Equal(t, 10, step.Scores["alice"])
	assert.Equal(t, 5, step.Scores["bob"])
	assert.Equal(t, 2, step.Scores["carol"])
}
