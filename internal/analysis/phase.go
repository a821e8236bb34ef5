package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/dynenv/internal/env"
)

// Point is one sample of a 2D projection.
type Point struct{ X, Y float64 }

// PhasePortrait2D holds data for a 2D phase space plot
type PhasePortrait2D struct {
	XIndex, YIndex int
	Points         []Point
}

// PhasePortrait projects every entry onto two coordinates of the flattened
// state [pos, vel, acc].
func PhasePortrait(traj env.Trajectory, xIdx, yIdx int) (*PhasePortrait2D, error) {
	m, err := StateMatrix(traj)
	if err != nil {
		return nil, err
	}
	if xIdx < 0 || yIdx < 0 || xIdx >= len(m[0]) || yIdx >= len(m[0]) {
		return nil, fmt.Errorf("analysis: phase indices (%d, %d) out of range [0, %d)", xIdx, yIdx, len(m[0]))
	}

	portrait := &PhasePortrait2D{
		XIndex: xIdx,
		YIndex: yIdx,
		Points: make([]Point, len(m)),
	}
	for i, row := range m {
		portrait.Points[i] = Point{X: row[xIdx], Y: row[yIdx]}
	}
	return portrait, nil
}

// PhasePortraitToASCII scatters the portrait on a width x height grid with
// 10% margins. Axes through the origin are drawn where visible.
func PhasePortraitToASCII(portrait *PhasePortrait2D, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width < 2 || height < 2 {
		return ""
	}
	return scatter(portrait.Points, width, height)
}

type bounds struct{ lo, span float64 }

func padded(vals []float64) bounds {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		lo, hi = min(lo, v), max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	return bounds{lo: lo - 0.1*span, span: 1.2 * span}
}

// cell maps v to [0, n).
func (b bounds) cell(v float64, n int) int {
	return int((v - b.lo) / b.span * float64(n-1))
}

func scatter(points []Point, width, height int) string {
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i] = p.X, p.Y
	}
	bx, by := padded(xs), padded(ys)

	grid := make([][]rune, height)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", width))
	}
	inside := func(r, c int) bool { return r >= 0 && r < height && c >= 0 && c < width }

	for _, p := range points {
		r, c := height-1-by.cell(p.Y, height), bx.cell(p.X, width)
		if inside(r, c) {
			grid[r][c] = '•'
		}
	}

	if c := bx.cell(0, width); bx.lo <= 0 && bx.lo+bx.span >= 0 {
		for r := 0; r < height; r++ {
			if inside(r, c) && grid[r][c] == ' ' {
				grid[r][c] = '│'
			}
		}
	}
	if r := height - 1 - by.cell(0, height); by.lo <= 0 && by.lo+by.span >= 0 {
		for c := 0; c < width; c++ {
			if inside(r, c) && grid[r][c] == ' ' {
				grid[r][c] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range grid {
		sb.WriteString(string(row))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// PoincareSection records points when a trajectory crosses a plane
type PoincareSection struct {
	Points []Point
}

// GeneratePoincareSection records coordinates (recordX, recordY) of the
// flattened state at every positive-going crossing of threshold by
// coordinate crossIdx. The recorded point is linearly interpolated between
// the two entries around the crossing.
func GeneratePoincareSection(traj env.Trajectory, crossIdx int, threshold float64, recordX, recordY int) (*PoincareSection, error) {
	m, err := StateMatrix(traj)
	if err != nil {
		return nil, err
	}
	dim := len(m[0])
	if crossIdx >= dim || recordX >= dim || recordY >= dim || crossIdx < 0 || recordX < 0 || recordY < 0 {
		return nil, fmt.Errorf("analysis: section indices out of range [0, %d)", dim)
	}

	section := &PoincareSection{}
	for i := 1; i < len(m); i++ {
		prev, curr := m[i-1], m[i]
		if prev[crossIdx] < threshold && curr[crossIdx] >= threshold {
			frac := (threshold - prev[crossIdx]) / (curr[crossIdx] - prev[crossIdx])
			if math.IsNaN(frac) || math.IsInf(frac, 0) {
				frac = 0.5
			}
			section.Points = append(section.Points, Point{
				X: prev[recordX] + frac*(curr[recordX]-prev[recordX]),
				Y: prev[recordY] + frac*(curr[recordY]-prev[recordY]),
			})
		}
	}
	return section, nil
}

func PoincareSectionToASCII(section *PoincareSection, width, height int) string {
	if section == nil || len(section.Points) == 0 {
		return "no crossings detected"
	}
	return PhasePortraitToASCII(&PhasePortrait2D{Points: section.Points}, width, height)
}
