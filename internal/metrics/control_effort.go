package metrics

import (
	"math"

	"github.com/san-kum/dynenv/internal/dynamo"
	"github.com/san-kum/dynenv/internal/env"
)

// ControlEffort is the mean L1 norm of the applied actions over all steps.
// A NoControl step is a sample with zero effort.
type ControlEffort struct {
	name    string
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{
		name: "control_effort",
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) OnReset(dynamo.State) {
	c.sum = 0
	c.samples = 0
}

func (c *ControlEffort) OnStep(e env.Entry, t int) {
	for _, val := range e.Action {
		c.sum += math.Abs(val)
	}
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}
