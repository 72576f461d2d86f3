package game

import (
	"github.com/blackwidow/heartsd/pkg/apperrors"
	"github.com/blackwidow/heartsd/pkg/cards"
)

// maxRoundScore is the maximum total score obtainable in a single round:
// 13 hearts (1 each) + spade-queen (13) + spade-king (10) + spade-ace (7).
const maxRoundScore = 43

// PlaceCard validates and applies a single card play within the current
// trick.
func PlaceCard(step *Step, player string, card cards.Card) error {
	if step.Phase != PhaseRoundInProgress {
		return apperrors.InvalidAction("not in round-in-progress phase")
	}
	if err := requirePlayer(step.Players, player); err != nil {
		return err
	}
	rip := step.RoundInProgress

	if player != rip.CurrentPlayer {
		return apperrors.InvalidAction("not your turn")
	}
	hand := step.Hands[player]
	if !hand.Contains(card) {
		return apperrors.InvalidAction("player %s does not hold %s", player, card)
	}

	if rip.TableSuit != nil {
		if card.Suit != *rip.TableSuit && hand.HasSuit(*rip.TableSuit) {
			return apperrors.InvalidAction("Player %s tried to place %s, despite having %s in deck", player, card.Suit, *rip.TableSuit)
		}
	} else {
		if card.Suit == cards.Heart && !hand.OnlySuit(cards.Heart) {
			return apperrors.InvalidAction("Player %s tried to place Heart suit on the table, despite having other suits left", player)
		}
	}

	step.Hands[player] = hand.Without([]cards.Card{card})
	rip.CardsOnTable[player] = card
	if rip.TableSuit == nil {
		suit := card.Suit
		rip.TableSuit = &suit
	}

	if len(rip.CardsOnTable) < len(step.Players) {
		rotation := step.rotation()
		rip.CurrentPlayer = rotation[player]
		return nil
	}

	resolveTrick(step, rip)
	return nil
}

// resolveTrick settles a completed trick: determines the winner among the
// cards matching the table suit, sums the score of every card on the
// table (heart leaks under follow-suit count regardless of suit), credits
// the winner, and resets the table for the next trick.
func resolveTrick(step *Step, rip *RoundInProgressState) {
	var winner string
	var winningCard cards.Card
	first := true
	total := 0

	for player, card := range rip.CardsOnTable {
		total += card.Score()
		if card.Suit != *rip.TableSuit {
			continue
		}
		if first || winningCard.Less(card) {
			winner = player
			winningCard = card
			first = false
		}
	}

	step.Scores[winner] += total
	rip.RoundScore[winner] += total

	rip.CardsOnTable = make(map[string]cards.Card)
	rip.TableSuit = nil
	rip.CurrentPlayer = winner
}

// shouldSwitchFromRoundInProgress reports whether every player's hand is
// empty: the round has been fully played out.
func shouldSwitchFromRoundInProgress(step *Step) bool {
	for _, p := range step.Players {
		if len(step.Hands[p]) > 0 {
			return false
		}
	}
	return true
}

// transitionToRoundFinished applies the shoot-the-moon inversion if
// exactly one player ran the table for the full 43, then returns a fresh
// round-finished state with nobody marked ready yet.
func transitionToRoundFinished(step *Step) *RoundFinishedState {
	rip := step.RoundInProgress
	for _, p := range step.Players {
		if rip.RoundScore[p] == maxRoundScore {
			step.Scores[p] -= maxRoundScore
			for _, other := range step.Players {
				if other != p {
					step.Scores[other] += maxRoundScore
				}
			}
			break
		}
	}

	ready := make(map[string]bool, len(step.Players))
	return &RoundFinishedState{PlayersReady: ready}
}
