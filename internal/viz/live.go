package viz

import (
	"errors"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

type frameMsg Frame

type bindMsg ModelInfo

type liveModel struct {
	info   ModelInfo
	frame  Frame
	hist   history
	theme  Theme
	canvas *Canvas
	frames int
}

func newLiveModel() liveModel {
	return liveModel{
		theme:  ThemeCyberpunk,
		canvas: NewCanvas(defaultCanvasWidth, defaultCanvasHeight),
	}
}

func (m liveModel) Init() tea.Cmd { return nil }

func (m liveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "t":
			m.theme = m.theme.next()
		}
	case bindMsg:
		m.info = ModelInfo(msg)
		m.hist = history{}
	case frameMsg:
		m.frame = Frame(msg)
		m.frames++
		if len(m.frame.State.Pos) > 0 {
			m.hist.push(m.frame.State.Pos[0])
		}
	}
	return m, nil
}

func (m liveModel) View() string {
	if m.frames == 0 {
		return m.theme.label().Render("waiting for frames...") + "\n"
	}
	return renderFrame(m.info, m.frame, m.hist.values, m.theme, m.canvas) +
		m.theme.label().Render("t: theme  q: quit viewer") + "\n"
}

// Live runs a Bubble Tea program and forwards frames to it. Closing the
// viewer from the keyboard does not stop the simulation; later frames are
// dropped.
type Live struct {
	opts    []tea.ProgramOption
	program *tea.Program
	done    chan struct{}
	runErr  error
	mu      sync.Mutex
}

// NewLive builds a viewer. With a nil output the program renders to the
// terminal in the alternate screen.
func NewLive(in io.Reader, out io.Writer) *Live {
	var opts []tea.ProgramOption
	if out == nil {
		opts = append(opts, tea.WithAltScreen())
	} else {
		opts = append(opts, tea.WithOutput(out))
	}
	if in != nil {
		opts = append(opts, tea.WithInput(in))
	}
	return &Live{opts: opts}
}

func (l *Live) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.program != nil {
		return errors.New("viz: live viewer already started")
	}

	l.program = tea.NewProgram(newLiveModel(), l.opts...)
	l.done = make(chan struct{})
	go func() {
		defer close(l.done)
		_, err := l.program.Run()
		l.mu.Lock()
		l.runErr = err
		l.mu.Unlock()
	}()
	return nil
}

func (l *Live) Bind(info ModelInfo) error {
	if l.program == nil {
		return errors.New("viz: live viewer not started")
	}
	l.program.Send(bindMsg(info))
	return nil
}

func (l *Live) RenderFrame(f Frame) error {
	if l.program == nil {
		return errors.New("viz: live viewer not started")
	}
	select {
	case <-l.done:
		return nil
	default:
	}
	l.program.Send(frameMsg{Index: f.Index, Time: f.Time, State: f.State.Clone(), Ctrl: f.Ctrl.Clone()})
	return nil
}

// Wait blocks until the viewer exits.
func (l *Live) Wait() error {
	if l.done == nil {
		return nil
	}
	<-l.done
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.runErr
}

func (l *Live) Close() error {
	if l.program == nil {
		return nil
	}
	l.program.Quit()
	return l.Wait()
}
