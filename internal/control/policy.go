package control

import (
	"math/rand"
	"sync"

	"github.com/san-kum/dynenv/internal/dynamo"
	"github.com/san-kum/dynenv/internal/env"
)

// Autonomous never actuates.
func Autonomous() env.Policy {
	return env.PolicyFunc(func(dynamo.State, int) (dynamo.Action, error) {
		return dynamo.NoControl, nil
	})
}

// Zero returns an explicit zero action of width nu at every step.
func Zero(nu int) env.Policy {
	return env.PolicyFunc(func(dynamo.State, int) (dynamo.Action, error) {
		return make(dynamo.Action, nu), nil
	})
}

// RandomPolicy draws each action component uniformly from [-Scale/2, Scale/2).
type RandomPolicy struct {
	Scale float64
	nu    int
	seed  int64

	mu  sync.Mutex
	rng *rand.Rand
}

func Random(nu int, scale float64, seed int64) *RandomPolicy {
	return &RandomPolicy{
		Scale: scale,
		nu:    nu,
		seed:  seed,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

func (r *RandomPolicy) Act(dynamo.State, int) (dynamo.Action, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a := make(dynamo.Action, r.nu)
	for i := range a {
		a[i] = r.Scale * (r.rng.Float64() - 0.5)
	}
	return a, nil
}

// Reset rewinds the generator to its seed.
func (r *RandomPolicy) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rng = rand.New(rand.NewSource(r.seed))
}

// ReplayPolicy plays back recorded actions. Past the end of the recording,
// and for recorded NoControl entries, it returns NoControl.
type ReplayPolicy struct {
	actions []dynamo.Action
	next    int
}

// Replay plays actions in order, one per call.
func Replay(actions []dynamo.Action) *ReplayPolicy {
	out := make([]dynamo.Action, len(actions))
	for i, a := range actions {
		out[i] = a.Clone()
	}
	return &ReplayPolicy{actions: out}
}

func (r *ReplayPolicy) Act(dynamo.State, int) (dynamo.Action, error) {
	if r.next >= len(r.actions) {
		return dynamo.NoControl, nil
	}
	a := r.actions[r.next].Clone()
	r.next++
	return a, nil
}

func (r *ReplayPolicy) Remaining() int { return len(r.actions) - r.next }

func (r *ReplayPolicy) Reset() { r.next = 0 }
