package analysis

import (
	"errors"
	"fmt"

	"github.com/san-kum/dynenv/internal/dynamo"
	"github.com/san-kum/dynenv/internal/env"
)

var ErrEmpty = errors.New("analysis: empty trajectory")

// StateMatrix stacks the flattened state [pos, vel, acc] of every entry.
func StateMatrix(traj env.Trajectory) ([][]float64, error) {
	return stack(traj, func(s dynamo.State) []float64 { return s.Flatten() })
}

// PositionMatrix stacks the positions of every entry.
func PositionMatrix(traj env.Trajectory) ([][]float64, error) {
	return stack(traj, func(s dynamo.State) []float64 { return s.Pos.Clone() })
}

func stack(traj env.Trajectory, row func(dynamo.State) []float64) ([][]float64, error) {
	if traj.Len() == 0 {
		return nil, ErrEmpty
	}

	out := make([][]float64, 0, traj.Len())
	width := -1
	for i, e := range traj.All() {
		r := row(e.State)
		if width < 0 {
			width = len(r)
		}
		if len(r) != width {
			return nil, fmt.Errorf("%w: entry %d has %d values, entry 0 has %d",
				dynamo.ErrDimensionMismatch, i, len(r), width)
		}
		out = append(out, r)
	}
	return out, nil
}

// Column extracts column j of m.
func Column(m [][]float64, j int) ([]float64, error) {
	out := make([]float64, len(m))
	for i, row := range m {
		if j < 0 || j >= len(row) {
			return nil, fmt.Errorf("analysis: column %d out of range [0, %d)", j, len(row))
		}
		out[i] = row[j]
	}
	return out, nil
}

// AddNoise returns a copy of m with noise(i, j) added to every cell. It
// builds perturbed demonstrations from one recording.
func AddNoise(m [][]float64, noise func(i, j int) float64) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = v + noise(i, j)
		}
	}
	return out
}
