package cards

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCardBoundary(t *testing.T) {
	_, err := New(Spade, 14)
	require.NoError(t, err)

	_, err = New(Spade, 15)
	require.Error(t, err)
}

func TestCardScore(t *testing.T) {
	cases := []struct {
		card  Card
		score int
	}{
		{Card{Heart, 2}, 1},
		{Card{Heart, 14}, 1},
		{Card{Spade, 12}, 13},
		{Card{Spade, 13}, 10},
		{Card{Spade, 14}, 7},
		{Card{Spade, 11}, 0},
		{Card{Club, 14}, 0},
		{Card{Diamond, 14}, 0},
	}
	for _, c := range cases {
		assert.Equal(t, c.score, c.card.Score(), "card %v", c.card)
	}
}

func TestCardJSONRoundTrip(t *testing.T) {
	card := Card{Suit: Heart, Value: 11}
	data, err := json.Marshal(card)
	require.NoError(t, err)
	assert.JSONEq(t, `{"suit":"HEART","value":11}`, string(data))

	var decoded Card
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, card, decoded)
}

func TestCardUnmarshalRejectsOutOfRangeValue(t *testing.T) {
	var c Card
	err := json.Unmarshal([]byte(`{"suit":"SPADE","value":15}`), &c)
	require.Error(t, err)
}

func TestCardUnmarshalRejectsUnknownSuit(t *testing.T) {
	var c Card
	err := json.Unmarshal([]byte(`{"suit":"WAND","value":5}`), &c)
	require.Error(t, err)
}
