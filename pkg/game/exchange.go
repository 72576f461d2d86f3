package game

import (
	"github.com/blackwidow/heartsd/pkg/apperrors"
	"github.com/blackwidow/heartsd/pkg/cards"
)

// SubmitExchange validates and records player's three-card exchange
// submission. Validation order matters: size, then already-submitted,
// then ownership. The size check is InvalidPayload (malformed request
// shape); the rest are InvalidAction (well-formed request, wrong moment
// or ownership).
func SubmitExchange(step *Step, player string, chosen []cards.Card) error {
	if step.Phase != PhaseCardExchange {
		return apperrors.InvalidAction("not in card-exchange phase")
	}
	if err := requirePlayer(step.Players, player); err != nil {
		return err
	}

	unique := dedupeCards(chosen)
	if len(unique) != 3 {
		return apperrors.InvalidPayload("must choose exactly 3 distinct cards to exchange, got %d", len(unique))
	}

	if _, already := step.Exchange.CardsToExchange[player]; already {
		return apperrors.InvalidAction("player %s already submitted their exchange", player)
	}

	hand := step.Hands[player]
	for _, c := range unique {
		if !hand.Contains(c) {
			return apperrors.InvalidAction("player %s tried to exchange %s, which is not in their hand", player, c)
		}
	}

	step.Exchange.CardsToExchange[player] = unique
	return nil
}

func dedupeCards(in []cards.Card) []cards.Card {
	seen := make(map[cards.Card]bool, len(in))
	out := make([]cards.Card, 0, len(in))
	for _, c := range in {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// shouldSwitchFromExchange reports whether every player has submitted
// their exchange.
func shouldSwitchFromExchange(step *Step) bool {
	for _, p := range step.Players {
		if _, ok := step.Exchange.CardsToExchange[p]; !ok {
			return false
		}
	}
	return true
}

// transitionToRoundInProgress hands each player's submission to the
// player the rotation points to, seats the starting-card holder's card on
// the table as the opening lead of the first trick, and returns the new
// round-in-progress state.
func transitionToRoundInProgress(step *Step) (*RoundInProgressState, error) {
	rotation := step.rotation()

	newHands := make(map[string]cards.Hand, len(step.Hands))
	for p, hand := range step.Hands {
		newHands[p] = hand
	}
	for p, submitted := range step.Exchange.CardsToExchange {
		newHands[p] = newHands[p].Without(submitted)
		receiver := rotation[p]
		newHands[receiver] = newHands[receiver].With(submitted)
	}
	step.Hands = newHands

	starter, startingCard, err := cards.StartingCard(step.Hands, len(step.Players))
	if err != nil {
		return nil, err
	}
	step.Hands[starter] = step.Hands[starter].Without([]cards.Card{startingCard})

	tableSuit := cards.Club
	roundScore := make(map[string]int, len(step.Players))
	for _, p := range step.Players {
		roundScore[p] = 0
	}

	return &RoundInProgressState{
		CurrentPlayer: rotation[starter],
		TableSuit:     &tableSuit,
		CardsOnTable:  map[string]cards.Card{starter: startingCard},
		RoundScore:    roundScore,
	}, nil
}
