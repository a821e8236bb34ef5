package env

import (
	"iter"

	"github.com/san-kum/dynenv/internal/dynamo"
)

// Entry pairs an observed state with the action chosen after observing it.
// The first entry of a trajectory carries dynamo.NoControl.
type Entry struct {
	State  dynamo.State
	Action dynamo.Action
}

func (e Entry) Clone() Entry {
	return Entry{State: e.State.Clone(), Action: e.Action.Clone()}
}

// Trajectory is a read-only snapshot of recorded entries. Every accessor
// returns copies.
type Trajectory struct {
	entries []Entry
}

// NewTrajectory builds a trajectory from recorded entries, e.g. ones loaded
// from storage. The entries are copied.
func NewTrajectory(entries []Entry) Trajectory {
	c := make([]Entry, len(entries))
	for i, e := range entries {
		c[i] = e.Clone()
	}
	return Trajectory{entries: c}
}

func (tr Trajectory) Len() int { return len(tr.entries) }

// At returns entry i. It panics if i is out of range.
func (tr Trajectory) At(i int) Entry { return tr.entries[i].Clone() }

// Dim is the flattened state dimension, or 0 for an empty trajectory.
func (tr Trajectory) Dim() int {
	if len(tr.entries) == 0 {
		return 0
	}
	return tr.entries[0].State.Dim()
}

func (tr Trajectory) All() iter.Seq2[int, Entry] {
	return func(yield func(int, Entry) bool) {
		for i, e := range tr.entries {
			if !yield(i, e.Clone()) {
				return
			}
		}
	}
}

func (tr Trajectory) States() []dynamo.State {
	out := make([]dynamo.State, len(tr.entries))
	for i, e := range tr.entries {
		out[i] = e.State.Clone()
	}
	return out
}

func (tr Trajectory) Actions() []dynamo.Action {
	out := make([]dynamo.Action, len(tr.entries))
	for i, e := range tr.entries {
		out[i] = e.Action.Clone()
	}
	return out
}
