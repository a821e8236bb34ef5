package viz

import (
	"errors"
	"fmt"
	"io"
	"time"
)

const (
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// Terminal writes rendered frames to an io.Writer, at most FrameRate per
// second. A FrameRate of zero renders every frame.
type Terminal struct {
	out       io.Writer
	frameRate int
	theme     Theme
	ansi      bool

	info      ModelInfo
	canvas    *Canvas
	hist      history
	lastFrame time.Time
	now       func() time.Time
	started   bool
	rendered  int
}

type TerminalOption func(*Terminal)

func WithFrameRate(fps int) TerminalOption {
	return func(t *Terminal) { t.frameRate = fps }
}

func WithTheme(name string) TerminalOption {
	return func(t *Terminal) { t.theme = GetTheme(name) }
}

// WithANSI toggles screen clearing between frames.
func WithANSI(on bool) TerminalOption {
	return func(t *Terminal) { t.ansi = on }
}

func NewTerminal(out io.Writer, opts ...TerminalOption) *Terminal {
	t := &Terminal{
		out:       out,
		frameRate: 30,
		theme:     ThemeCyberpunk,
		ansi:      true,
		canvas:    NewCanvas(defaultCanvasWidth, defaultCanvasHeight),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Terminal) Start() error {
	if t.out == nil {
		return errors.New("viz: terminal sink has no output")
	}
	t.started = true
	if t.ansi {
		_, err := io.WriteString(t.out, hideCursor)
		return err
	}
	return nil
}

func (t *Terminal) Bind(info ModelInfo) error {
	t.info = info
	t.hist = history{}
	return nil
}

func (t *Terminal) RenderFrame(f Frame) error {
	if !t.started {
		return errors.New("viz: terminal sink not started")
	}
	if len(f.State.Pos) > 0 {
		t.hist.push(f.State.Pos[0])
	}

	now := t.now()
	if t.frameRate > 0 && !t.lastFrame.IsZero() && now.Sub(t.lastFrame) < time.Second/time.Duration(t.frameRate) {
		return nil
	}
	t.lastFrame = now

	prefix := ""
	if t.ansi {
		prefix = clearScreen
	}
	_, err := fmt.Fprint(t.out, prefix+renderFrame(t.info, f, t.hist.values, t.theme, t.canvas))
	if err == nil {
		t.rendered++
	}
	return err
}

// Rendered is the number of frames actually written.
func (t *Terminal) Rendered() int { return t.rendered }

// Snapshot returns the canvas of the last rendered frame.
func (t *Terminal) Snapshot() *Canvas { return t.canvas }

func (t *Terminal) Close() error {
	if !t.started || !t.ansi {
		return nil
	}
	t.started = false
	_, err := io.WriteString(t.out, showCursor)
	return err
}
