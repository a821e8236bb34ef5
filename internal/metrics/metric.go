package metrics

import (
	"github.com/san-kum/dynenv/internal/dynamo"
	"github.com/san-kum/dynenv/internal/env"
)

// Metric is a trajectory observer that reduces an episode to one number.
// OnReset starts a new episode.
type Metric interface {
	env.Observer
	Name() string
	Value() float64
}

// Set fans observations out to several metrics.
type Set struct {
	metrics []Metric
}

func NewSet(ms ...Metric) *Set {
	return &Set{metrics: ms}
}

func (s *Set) Add(m Metric) { s.metrics = append(s.metrics, m) }

func (s *Set) OnReset(s0 dynamo.State) {
	for _, m := range s.metrics {
		m.OnReset(s0)
	}
}

func (s *Set) OnStep(e env.Entry, t int) {
	for _, m := range s.metrics {
		m.OnStep(e, t)
	}
}

// Values returns the current value of every metric keyed by name.
func (s *Set) Values() map[string]float64 {
	out := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}
