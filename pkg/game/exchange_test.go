package game

import (
	"testing"

	"github.com/blackwidow/heartsd/pkg/apperrors"
	"github.com/blackwidow/heartsd/pkg/cards"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCard(t *testing.T, suit cards.Suit, value cards.Value) cards.Card {
	t.Helper()
	c, err := cards.New(suit, value)
	require.NoError(t, err)
	return c
}

// threePlayerExchangeStep builds a controlled card-exchange step for
// Alice, Bob and Carol where Bob holds the club-3 that must open the
// first trick in a 3-player game.
func threePlayerExchangeStep(t *testing.T) *Step {
	t.Helper()
	players := []string{"alice", "bob", "carol"}
	hands := map[string]cards.Hand{
		"alice": {
			mustCard(t, cards.Heart, 4), mustCard(t, cards.Heart, 5), mustCard(t, cards.Heart, 6),
			mustCard(t, cards.Spade, 10),
		},
		"bob": {
			mustCard(t, cards.Club, 3), mustCard(t, cards.Club, 4), mustCard(t, cards.Club, 5),
			mustCard(t, cards.Diamond, 9),
		},
		"carol": {
			mustCard(t, cards.Spade, 2), mustCard(t, cards.Spade, 3), mustCard(t, cards.Spade, 4),
			mustCard(t, cards.Heart, 2),
		},
	}
	return &Step{
		Players: players,
		Hands:   hands,
		Scores:  map[string]int{"alice": 0, "bob": 0, "carol": 0},
		Phase:   PhaseCardExchange,
		Exchange: &CardExchangeState{
			CardsToExchange: make(map[string][]cards.Card),
		},
	}
}

func TestSubmitExchangeRejectsWrongCount(t *testing.T) {
	step := threePlayerExchangeStep(t)
	err := SubmitExchange(step, "alice", []cards.Card{mustCard(t, cards.Heart, 4), mustCard(t, cards.Heart, 5)})
	require.Error(t, err)
	ae, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindInvalidPayload, ae.Kind)
}

func TestSubmitExchangeRejectsCardsNotInHand(t *testing.T) {
	step := threePlayerExchangeStep(t)
	foreign := mustCard(t, cards.Diamond, 14)
	err := SubmitExchange(step, "alice", []cards.Card{
		mustCard(t, cards.Heart, 4), mustCard(t, cards.Heart, 5), foreign,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in their hand")
}

func TestSubmitExchangeRejectsDuplicateSubmission(t *testing.T) {
	step := threePlayerExchangeStep(t)
	choice := []cards.Card{mustCard(t, cards.Heart, 4), mustCard(t, cards.Heart, 5), mustCard(t, cards.Heart, 6)}
	require.NoError(t, SubmitExchange(step, "alice", choice))
	err := SubmitExchange(step, "alice", choice)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already submitted")
}

// TestThreePlayerExchangeOpensWithClubThree grounds the scenario where a
// full three-player card-exchange round transitions into round-in-progress
// with the club-3 holder's card already seated on the table.
func TestThreePlayerExchangeOpensWithClubThree(t *testing.T) {
	step := threePlayerExchangeStep(t)

	require.NoError(t, SubmitExchange(step, "alice", []cards.Card{
		mustCard(t, cards.Heart, 4), mustCard(t, cards.Heart, 5), mustCard(t, cards.Heart, 6),
	}))
	assert.False(t, shouldSwitchFromExchange(step))

	require.NoError(t, SubmitExchange(step, "bob", []cards.Card{
		mustCard(t, cards.Club, 4), mustCard(t, cards.Club, 5), mustCard(t, cards.Diamond, 9),
	}))
	assert.False(t, shouldSwitchFromExchange(step))

	require.NoError(t, SubmitExchange(step, "carol", []cards.Card{
		mustCard(t, cards.Spade, 2), mustCard(t, cards.Spade, 3), mustCard(t, cards.Spade, 4),
	}))
	require.True(t, shouldSwitchFromExchange(step))

	rip, err := transitionToRoundInProgress(step)
	require.NoError(t, err)

	clubThree := mustCard(t, cards.Club, 3)
	assert.Equal(t, clubThree, rip.CardsOnTable["bob"])
	assert.Equal(t, cards.Club, *rip.TableSuit)
	assert.Equal(t, "carol", rip.CurrentPlayer)
	assert.False(t, step.Hands["bob"].Contains(clubThree))

	for p, score := range rip.RoundScore {
		assert.Zero(t, score, "player %s should start the round at zero", p)
	}
}
