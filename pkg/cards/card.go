// Package cards implements the card model and deck dealing rules shared by
// every phase of the game: suits, values, intrinsic scoring, and the
// deterministic-but-injectable-RNG deal.
package cards

import (
	"encoding/json"
	"fmt"

	"github.com/blackwidow/heartsd/pkg/apperrors"
)

// Suit is one of the four standard card suits.
type Suit string

const (
	Spade   Suit = "SPADE"
	Club    Suit = "CLUB"
	Heart   Suit = "HEART"
	Diamond Suit = "DIAMOND"
)

// Value is a card's rank, 2 through 14 (14 = Ace).
type Value int

const (
	MinValue Value = 2
	MaxValue Value = 14
)

// Card is a single playing card. Its score is not stored: Score derives
// it from Suit and Value on every call, since it is intrinsic to the card.
type Card struct {
	Suit  Suit  `json:"suit"`
	Value Value `json:"value"`
}

// New validates value and returns a Card, or apperrors.InvalidPayload if
// value is out of the 2..14 range.
func New(suit Suit, value Value) (Card, error) {
	if value < MinValue || value > MaxValue {
		return Card{}, apperrors.InvalidPayload("card value %d out of range [%d,%d]", value, MinValue, MaxValue)
	}
	return Card{Suit: suit, Value: value}, nil
}

// Score returns the card's intrinsic scoring value: every heart is 1,
// spade-queen (12) is 13, spade-king (13) is 10, spade-ace (14) is 7, and
// everything else is 0.
func (c Card) Score() int {
	switch {
	case c.Suit == Heart:
		return 1
	case c.Suit == Spade && c.Value == 12:
		return 13
	case c.Suit == Spade && c.Value == 13:
		return 10
	case c.Suit == Spade && c.Value == 14:
		return 7
	default:
		return 0
	}
}

// Less orders two cards by value only; suits never break ties because the
// rules never need to rank cards of different suits against each other.
func (c Card) Less(other Card) bool {
	return c.Value < other.Value
}

func (c Card) String() string {
	return fmt.Sprintf("%s-%d", c.Suit, c.Value)
}

type cardWire struct {
	Suit  Suit  `json:"suit"`
	Value Value `json:"value"`
}

// MarshalJSON renders the card as {"suit": "...", "value": N}.
func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(cardWire{Suit: c.Suit, Value: c.Value})
}

// UnmarshalJSON parses the wire shape and validates the value range and
// suit, surfacing apperrors.InvalidPayload on a bad value so the
// dispatcher can classify it as such.
func (c *Card) UnmarshalJSON(data []byte) error {
	var w cardWire
	if err := json.Unmarshal(data, &w); err != nil {
		return apperrors.InvalidPayload("malformed card: %v", err)
	}
	switch w.Suit {
	case Spade, Club, Heart, Diamond:
	default:
		return apperrors.InvalidPayload("invalid suit %q", w.Suit)
	}
	card, err := New(w.Suit, w.Value)
	if err != nil {
		return err
	}
	*c = card
	return nil
}
