package game

import (
	"math/rand"

	"github.com/blackwidow/heartsd/pkg/apperrors"
	"github.com/blackwidow/heartsd/pkg/cards"
	"github.com/blackwidow/heartsd/pkg/statemachine"
)

// GameStateFn is the Rob Pike-style state function for a Game's phase
// loop: each phase is one state function that inspects the current Step,
// decides whether should_switch holds, and either stays (returning
// itself) or performs the transition and returns the next phase's state
// function. Unlike a single hand's linear run through betting rounds to
// showdown, this phase loop cycles back to card-exchange after every
// round, except when the game ends.
type GameStateFn = statemachine.StateFn[Game]

// Game owns the current phase of a single game and routes incoming moves
// to it. Finished is a terminal latch: once true, no further moves are
// accepted. Mutation of a Game is not safe for concurrent use by design —
// the session registry (pkg/session) serializes access to a Game behind
// its own lock for the full duration of a move, so Game itself carries no
// internal mutex.
type Game struct {
	Settings Settings
	Step     *Step
	Finished bool

	rng *rand.Rand
	sm  *statemachine.StateMachine[Game]
}

// New deals the first round and opens the card-exchange phase for the
// given seating order.
func New(players []string, settings Settings, rng *rand.Rand) (*Game, error) {
	if len(players) != 3 && len(players) != 4 {
		return nil, apperrors.InvalidAction("a game requires 3 or 4 players, got %d", len(players))
	}
	step, err := newExchangeStep(players, zeroScores(players), rng)
	if err != nil {
		return nil, err
	}
	g := &Game{
		Settings: settings,
		Step:     step,
		rng:      rng,
	}
	g.sm = statemachine.NewStateMachine(g, cardExchangeState)
	return g, nil
}

func zeroScores(players []string) map[string]int {
	scores := make(map[string]int, len(players))
	for _, p := range players {
		scores[p] = 0
	}
	return scores
}

// SubmitExchangeMove applies a card-exchange submission and advances the
// phase if every player has now submitted.
func (g *Game) SubmitExchangeMove(player string, chosen []cards.Card) error {
	if g.Finished {
		return apperrors.InvalidAction("game is finished")
	}
	if g.Step.Phase != PhaseCardExchange {
		return apperrors.InvalidAction("cardExchangeMove is not valid in phase %s", g.Step.Phase)
	}
	if err := SubmitExchange(g.Step, player, chosen); err != nil {
		return err
	}
	g.sm.Dispatch(nil)
	return nil
}

// PlaceCardMove applies a single card play and advances the phase if the
// round has just emptied every hand.
func (g *Game) PlaceCardMove(player string, card cards.Card) error {
	if g.Finished {
		return apperrors.InvalidAction("game is finished")
	}
	if g.Step.Phase != PhaseRoundInProgress {
		return apperrors.InvalidAction("placeCardMove is not valid in phase %s", g.Step.Phase)
	}
	if err := PlaceCard(g.Step, player, card); err != nil {
		return err
	}
	g.sm.Dispatch(nil)
	return nil
}

// ClaimReadinessMove applies a readiness claim, then checks game-over and
// advances the phase: game-over is evaluated before should_switch on
// every dispatch, so a claim made after the target score is already
// reached ends the game immediately, regardless of who else is ready.
func (g *Game) ClaimReadinessMove(player string, ready bool) error {
	if g.Finished {
		return apperrors.InvalidAction("game is finished")
	}
	if g.Step.Phase != PhaseRoundFinished {
		return apperrors.InvalidAction("claimReadinessMove is not valid in phase %s", g.Step.Phase)
	}
	if err := ClaimReadiness(g.Step, player, ready); err != nil {
		return err
	}
	g.sm.Dispatch(nil)
	return nil
}

func cardExchangeState(g *Game, _ func(string, statemachine.StateEvent)) GameStateFn {
	if !shouldSwitchFromExchange(g.Step) {
		return cardExchangeState
	}
	rip, err := transitionToRoundInProgress(g.Step)
	if err != nil {
		// Invariant violation: hold position rather than panic or
		// corrupt state. Every subsequent exchange move still routes
		// here until an operator investigates.
		return cardExchangeState
	}
	g.Step.Phase = PhaseRoundInProgress
	g.Step.Exchange = nil
	g.Step.RoundInProgress = rip
	return roundInProgressState
}

func roundInProgressState(g *Game, _ func(string, statemachine.StateEvent)) GameStateFn {
	if !shouldSwitchFromRoundInProgress(g.Step) {
		return roundInProgressState
	}
	rf := transitionToRoundFinished(g.Step)
	g.Step.Phase = PhaseRoundFinished
	g.Step.RoundInProgress = nil
	g.Step.RoundFinished = rf
	return roundFinishedState
}

func roundFinishedState(g *Game, _ func(string, statemachine.StateEvent)) GameStateFn {
	if gameFinished(g.Step, g.Settings.MaxScore) {
		g.Finished = true
		return nil
	}
	if !shouldSwitchFromRoundFinished(g.Step) {
		return roundFinishedState
	}
	next, err := transitionToCardExchange(g.Step, g.rng)
	if err != nil {
		return roundFinishedState
	}
	g.Step = next
	return cardExchangeState
}

// ForceFinish latches the game as finished without routing through the
// normal round-finished transition, used when a player quits mid-game.
func (g *Game) ForceFinish() {
	g.Finished = true
}
