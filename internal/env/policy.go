package env

import "github.com/san-kum/dynenv/internal/dynamo"

// Policy maps an observed state and the current time index to an action.
// Return dynamo.NoControl to let the system evolve on its own.
type Policy interface {
	Act(observed dynamo.State, t int) (dynamo.Action, error)
}

type PolicyFunc func(observed dynamo.State, t int) (dynamo.Action, error)

func (f PolicyFunc) Act(observed dynamo.State, t int) (dynamo.Action, error) {
	return f(observed, t)
}

// Observer is notified after every successful Initialize and ApplyControl.
type Observer interface {
	OnReset(s0 dynamo.State)
	OnStep(e Entry, t int)
}
