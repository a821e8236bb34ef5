package metrics

import (
	"math"

	"github.com/san-kum/dynenv/internal/dynamo"
	"github.com/san-kum/dynenv/internal/env"
)

// Stability is the fraction of recorded states whose positions all stay
// within threshold of the origin.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) OnReset(s0 dynamo.State) {
	s.violations = 0
	s.samples = 0
	s.observe(s0)
}

func (s *Stability) OnStep(e env.Entry, t int) {
	s.observe(e.State)
}

func (s *Stability) observe(x dynamo.State) {
	s.samples++
	for _, val := range x.Pos {
		if math.Abs(val) > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}
