package cards

import (
	"math/rand"

	"github.com/blackwidow/heartsd/pkg/apperrors"
)

// Hand is a player's set of cards. Order carries no meaning; callers that
// want a stable display order sort by Value via sort.Slice and Card.Less.
type Hand []Card

// Contains reports whether h holds card.
func (h Hand) Contains(card Card) bool {
	for _, c := range h {
		if c == card {
			return true
		}
	}
	return false
}

// HasSuit reports whether h holds any card of the given suit.
func (h Hand) HasSuit(suit Suit) bool {
	for _, c := range h {
		if c.Suit == suit {
			return true
		}
	}
	return false
}

// OnlySuit reports whether every card in h is of the given suit. An empty
// hand vacuously satisfies this.
func (h Hand) OnlySuit(suit Suit) bool {
	for _, c := range h {
		if c.Suit != suit {
			return false
		}
	}
	return true
}

// Without returns a copy of h with the cards in remove removed, each
// removed at most once (so duplicate entries in remove only account for
// one card each, matching a set).
func (h Hand) Without(remove []Card) Hand {
	out := make(Hand, 0, len(h))
	used := make([]bool, len(remove))
	for _, c := range h {
		skip := false
		for i, r := range remove {
			if !used[i] && r == c {
				used[i] = true
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, c)
		}
	}
	return out
}

// With returns a copy of h with the given cards appended.
func (h Hand) With(add []Card) Hand {
	out := make(Hand, len(h), len(h)+len(add))
	copy(out, h)
	return append(out, add...)
}

// FullDeck builds the configured deck for the given player count: 52 cards
// for 4 players, or 52 minus club-2 for 3 players (so 51 cards, 17 each).
func FullDeck(playerCount int) (Hand, error) {
	if playerCount != 3 && playerCount != 4 {
		return nil, apperrors.InvalidAction("unsupported player count %d", playerCount)
	}
	deck := make(Hand, 0, 52)
	for _, suit := range []Suit{Spade, Club, Heart, Diamond} {
		for v := MinValue; v <= MaxValue; v++ {
			if playerCount == 3 && suit == Club && v == 2 {
				continue
			}
			deck = append(deck, Card{Suit: suit, Value: v})
		}
	}
	return deck, nil
}

// Shuffle returns a shuffled copy of deck using rng. Callers supply rng so
// dealing is deterministic under a seeded *rand.Rand for tests and replay,
// and non-deterministic in production via a process-global source.
func Shuffle(deck Hand, rng *rand.Rand) Hand {
	out := make(Hand, len(deck))
	copy(out, deck)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Deal shuffles the full deck for len(players) players and dispenses it
// round-robin over players in seating order, returning each player's hand.
func Deal(players []string, rng *rand.Rand) (map[string]Hand, error) {
	deck, err := FullDeck(len(players))
	if err != nil {
		return nil, err
	}
	deck = Shuffle(deck, rng)

	hands := make(map[string]Hand, len(players))
	for _, p := range players {
		hands[p] = make(Hand, 0, len(deck)/len(players)+1)
	}
	for i, card := range deck {
		p := players[i%len(players)]
		hands[p] = append(hands[p], card)
	}
	return hands, nil
}

// Rotation builds the circular successor map players[i] -> players[(i+1)%n].
func Rotation(players []string) map[string]string {
	rotation := make(map[string]string, len(players))
	for i, p := range players {
		rotation[p] = players[(i+1)%len(players)]
	}
	return rotation
}

// StartingCard returns the player and card that must open the first trick:
// whoever holds the club-3 in a 3-player game, or the club-2 in a
// 4-player game. Its absence after a valid deal is a programming error,
// not a user-facing one, since that card always exists in the configured
// deck and is always dealt to exactly one player.
func StartingCard(hands map[string]Hand, playerCount int) (player string, card Card, err error) {
	var want Value
	if playerCount == 3 {
		want = 3
	} else {
		want = 2
	}
	for p, hand := range hands {
		for _, c := range hand {
			if c.Suit == Club && c.Value == want {
				return p, c, nil
			}
		}
	}
	return "", Card{}, apperrors.InvalidAction("starting card CLUB-%d not found in any hand: invariant violated", want)
}
