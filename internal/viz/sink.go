package viz

import (
	"github.com/san-kum/dynenv/internal/dynamo"
)

type JointInfo struct {
	Name   string
	Type   string
	Length float64
}

// ModelInfo describes the model a sink is bound to.
type ModelInfo struct {
	Name      string
	Joints    []JointInfo
	Actuators []string
	Timestep  float64
}

// Frame is one snapshot of the backend.
type Frame struct {
	Index int
	Time  float64
	State dynamo.State
	Ctrl  dynamo.Vector
}

type Sink interface {
	Start() error
	Bind(info ModelInfo) error
	RenderFrame(f Frame) error
}

// Recorder keeps every frame it receives.
type Recorder struct {
	Started bool
	Info    ModelInfo
	Frames  []Frame
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Start() error {
	r.Started = true
	return nil
}

func (r *Recorder) Bind(info ModelInfo) error {
	r.Info = info
	return nil
}

func (r *Recorder) RenderFrame(f Frame) error {
	r.Frames = append(r.Frames, Frame{Index: f.Index, Time: f.Time, State: f.State.Clone(), Ctrl: f.Ctrl.Clone()})
	return nil
}
