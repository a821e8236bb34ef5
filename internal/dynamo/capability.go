package dynamo

// StateAccess reads and writes the backend state.
//
// CurrentState is the true configuration of the system; ObservedState is what
// a policy is allowed to see. Backends with full observability return the same
// value from both.
type StateAccess interface {
	SetState(s State) error
	CurrentState() (State, error)
	ObservedState() (State, error)
}

// Stepper advances the backend by exactly one time-step.
type Stepper interface {
	DynamicStep(a Action) (State, error)
}

// Backend is the capability set a control loop is written against.
type Backend interface {
	StateAccess
	Stepper
}

// Plotter refreshes an attached visualization.
type Plotter interface {
	UpdatePlot() error
}

// Unimplemented can be embedded by a variant that only supplies part of
// Backend and Plotter. Every method returns ErrNotImplemented.
type Unimplemented struct{}

func (Unimplemented) SetState(State) error { return ErrNotImplemented }

func (Unimplemented) CurrentState() (State, error) { return State{}, ErrNotImplemented }

func (Unimplemented) ObservedState() (State, error) { return State{}, ErrNotImplemented }

func (Unimplemented) DynamicStep(Action) (State, error) { return State{}, ErrNotImplemented }

func (Unimplemented) UpdatePlot() error { return ErrNotImplemented }

var (
	_ Backend = Unimplemented{}
	_ Plotter = Unimplemented{}
)
