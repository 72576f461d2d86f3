package game

import (
	"math/rand"

	"github.com/blackwidow/heartsd/pkg/apperrors"
)

// ClaimReadiness records player's readiness flag. A claim is always
// accepted and overwrites any prior value: readiness is a flag, not a
// monotonic latch, so a player can retract an earlier "ready".
func ClaimReadiness(step *Step, player string, ready bool) error {
	if step.Phase != PhaseRoundFinished {
		return apperrors.InvalidAction("not in round-finished phase")
	}
	if err := requirePlayer(step.Players, player); err != nil {
		return err
	}
	step.RoundFinished.PlayersReady[player] = ready
	return nil
}

// shouldSwitchFromRoundFinished reports whether every player has set
// their readiness flag to true. This counts only true flags, not merely
// present entries, so an explicit "not ready" still blocks the deal.
func shouldSwitchFromRoundFinished(step *Step) bool {
	for _, p := range step.Players {
		if !step.RoundFinished.PlayersReady[p] {
			return false
		}
	}
	return true
}

// gameFinished reports whether any player's cumulative score has reached
// maxScore, the outer Game's cue to latch Finished instead of dealing
// another round.
func gameFinished(step *Step, maxScore int) bool {
	for _, p := range step.Players {
		if step.Scores[p] >= maxScore {
			return true
		}
	}
	return false
}

// transitionToCardExchange re-deals from the full deck, preserving
// players and cumulative scores, and opens a fresh card-exchange phase.
func transitionToCardExchange(step *Step, rng *rand.Rand) (*Step, error) {
	return newExchangeStep(step.Players, step.Scores, rng)
}
