package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

const (
	defaultCanvasWidth  = 40
	defaultCanvasHeight = 12
	historyLen          = 60
)

// history is a fixed-size ring of one scalar per frame.
type history struct {
	values []float64
}

func (h *history) push(v float64) {
	h.values = append(h.values, v)
	if len(h.values) > historyLen {
		h.values = h.values[len(h.values)-historyLen:]
	}
}

// renderFrame lays out the chain drawing, the joint table and the history
// chart of the first coordinate.
func renderFrame(info ModelInfo, f Frame, hist []float64, theme Theme, canvas *Canvas) string {
	canvas.Clear()
	canvas.DrawChain(info.Joints, f.State.Pos)

	var b strings.Builder
	b.WriteString(theme.title().Render(info.Name))
	b.WriteString(theme.label().Render(fmt.Sprintf("  frame %d  t=%.3fs", f.Index, f.Time)))
	b.WriteString("\n")

	var rows []string
	for i, j := range info.Joints {
		if i >= len(f.State.Pos) {
			break
		}
		vel := 0.0
		if i < len(f.State.Vel) {
			vel = f.State.Vel[i]
		}
		rows = append(rows, theme.label().Render(fmt.Sprintf("%-8s", j.Name))+
			theme.value().Render(fmt.Sprintf("q=%+.3f v=%+.3f", f.State.Pos[i], vel)))
	}
	if len(f.Ctrl) > 0 {
		rows = append(rows, theme.label().Render("ctrl    ")+theme.value().Render(fmt.Sprintf("%.3v", []float64(f.Ctrl))))
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, canvas.String(), "  ", strings.Join(rows, "\n"))
	b.WriteString(theme.panel().Render(body))

	if len(hist) > 1 {
		b.WriteString("\n")
		b.WriteString(asciigraph.Plot(hist,
			asciigraph.Height(4),
			asciigraph.Width(historyLen),
			asciigraph.Caption(firstJointName(info)),
		))
	}
	b.WriteString("\n")
	return b.String()
}

func firstJointName(info ModelInfo) string {
	if len(info.Joints) == 0 {
		return "q0"
	}
	return info.Joints[0].Name + " position"
}
