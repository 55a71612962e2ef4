package repro

import (
	"time"

	"github.com/mamadbah2/herdbook/internal/domain/dates"
	"github.com/mamadbah2/herdbook/internal/domain/models"
)

// State is the reproductive cycle state of a cow.
type State string

const (
	StateOpen     State = "open"
	StatePending  State = "pending"
	StatePregnant State = "pregnant"
)

// Action is a breeding operation that may be applied to a cow's cycle.
type Action string

const (
	ActionInseminate Action = "inseminate"
	ActionConfirm    Action = "confirm"
	ActionFail       Action = "fail"
	ActionUnconfirm  Action = "unconfirm"
)

var allowed = map[State][]Action{
	StateOpen:     {ActionInseminate},
	StatePending:  {ActionConfirm, ActionFail},
	StatePregnant: {ActionUnconfirm},
}

// Allows reports whether action is admitted from state.
func Allows(state State, action Action) bool {
	for _, a := range allowed[state] {
		if a == action {
			return true
		}
	}
	return false
}

// AllowsOn reports whether action may be applied to latest, the cow's most
// recent attempt. A failed attempt derives Open like a cow with no attempt, so
// it is checked on its flags: unconfirm returns it to pending unless a later
// calving closed the cycle.
func AllowsOn(latest models.BreedingEvent, lastCalving *time.Time, action Action) bool {
	if latest.Failed && !latest.ConfirmedPregnant {
		return action == ActionUnconfirm && !Reopened(latest.Date, lastCalving)
	}
	return Allows(Transition(StateOpen, &latest, lastCalving), action)
}

// Transition returns the state reached from `from` once latest is the most
// recent breeding event. A nil event leaves the state unchanged. A confirmed
// pregnancy followed by a recorded calving resolves to Open.
func Transition(from State, latest *models.BreedingEvent, lastCalving *time.Time) State {
	if latest == nil {
		return from
	}
	switch {
	case latest.ConfirmedPregnant:
		if Reopened(latest.Date, lastCalving) {
			return StateOpen
		}
		return StatePregnant
	case latest.Failed:
		return StateOpen
	default:
		return StatePending
	}
}

// Replay folds events in chronological order starting from Open. The result
// always equals Transition(StateOpen, Latest(events), lastCalving).
func Replay(events []models.BreedingEvent, lastCalving *time.Time) State {
	ordered := sortEvents(validEvents(events, ""))
	state := StateOpen
	for i := len(ordered) - 1; i >= 0; i-- {
		state = Transition(state, &ordered[i], lastCalving)
	}
	return state
}

// Reopened reports whether a calving recorded strictly after the conception
// date shows the pregnancy already completed.
func Reopened(conception time.Time, lastCalving *time.Time) bool {
	if lastCalving == nil || lastCalving.IsZero() {
		return false
	}
	return dates.Day(*lastCalving).After(dates.Day(conception))
}
