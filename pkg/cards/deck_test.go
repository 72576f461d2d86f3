package cards

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFullDeckSizesByPlayerCount(t *testing.T) {
	deck4, err := FullDeck(4)
	require.NoError(t, err)
	assert.Len(t, deck4, 52)

	deck3, err := FullDeck(3)
	require.NoError(t, err)
	assert.Len(t, deck3, 51)
	assert.False(t, deck3.Contains(Card{Club, 2}))

	_, err = FullDeck(5)
	require.Error(t, err)
}

func TestShuffleDeterministicWithSameSeed(t *testing.T) {
	deck, _ := FullDeck(4)
	a := Shuffle(deck, rand.New(rand.NewSource(42)))
	b := Shuffle(deck, rand.New(rand.NewSource(42)))
	assert.Equal(t, a, b)
}

func TestDealDistributesEvenly(t *testing.T) {
	players := []string{"a", "b", "c"}
	hands, err := Deal(players, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	total := 0
	seen := make(map[Card]bool)
	for _, p := range players {
		assert.Len(t, hands[p], 17)
		total += len(hands[p])
		for _, c := range hands[p] {
			assert.False(t, seen[c], "card %v dealt twice", c)
			seen[c] = true
		}
	}
	assert.Equal(t, 51, total)
}

func TestRotationIsSingleCycle(t *testing.T) {
	players := []string{"a", "b", "c", "d"}
	rotation := Rotation(players)
	assert.Equal(t, "b", rotation["a"])
	assert.Equal(t, "c", rotation["b"])
	assert.Equal(t, "d", rotation["c"])
	assert.Equal(t, "a", rotation["d"])

	visited := map[string]bool{}
	cur := players[0]
	for i := 0; i < len(players); i++ {
		visited[cur] = true
		cur = rotation[cur]
	}
	assert.Len(t, visited, len(players))
	assert.Equal(t, players[0], cur)
}

func TestStartingCardThreePlayers(t *testing.T) {
	hands := map[string]Hand{
		"a": {{Club, 3}, {Heart, 5}},
		"b": {{Spade, 9}},
		"c": {{Diamond, 4}},
	}
	player, card, err := StartingCard(hands, 3)
	require.NoError(t, err)
	assert.Equal(t, "a", player)
	assert.Equal(t, Card{Club, 3}, card)
}

func TestStartingCardFourPlayers(t *testing.T) {
	hands := map[string]Hand{
		"a": {{Club, 3}},
		"b": {{Club, 2}},
	}
	player, card, err := StartingCard(hands, 4)
	require.NoError(t, err)
	assert.Equal(t, "b", player)
	assert.Equal(t, Card{Club, 2}, card)
}

func TestHandWithoutRemovesOnlyMatchedCount(t *testing.T) {
	h := Hand{{Heart, 2}, {Heart, 2}, {Spade, 5}}
	out := h.Without([]Card{{Heart, 2}})
	assert.Len(t, out, 2)
	assert.Contains(t, out, Card{Heart, 2})
	assert.Contains(t, out, Card{Spade, 5})
}
