package analysis

import (
	"errors"
	"math"

	"github.com/san-kum/dynenv/internal/env"
)

// LyapunovExponent estimates the largest Lyapunov exponent from two episodes
// started a small distance apart. A positive value indicates chaos.
//
// Algorithm:
// 1. Measure the state separation d(t) at every shared entry
// 2. Fit ln d(t) = λ t + c by least squares
//
// Entries where the trajectories coincide are skipped.
func LyapunovExponent(a, b env.Trajectory, dt float64) (float64, error) {
	ma, err := StateMatrix(a)
	if err != nil {
		return 0, err
	}
	mb, err := StateMatrix(b)
	if err != nil {
		return 0, err
	}
	if len(ma[0]) != len(mb[0]) {
		return 0, errors.New("analysis: trajectories have different state dimensions")
	}

	n := min(len(ma), len(mb))
	var sumT, sumL, sumTT, sumTL float64
	count := 0
	for i := 0; i < n; i++ {
		sep := 0.0
		for j := range ma[i] {
			diff := mb[i][j] - ma[i][j]
			sep += diff * diff
		}
		sep = math.Sqrt(sep)
		if sep == 0 {
			continue
		}

		t := float64(i) * dt
		l := math.Log(sep)
		sumT += t
		sumL += l
		sumTT += t * t
		sumTL += t * l
		count++
	}

	if count < 2 {
		return 0, errors.New("analysis: not enough separated entries")
	}
	c := float64(count)
	denom := c*sumTT - sumT*sumT
	if denom == 0 {
		return 0, errors.New("analysis: degenerate time axis")
	}
	return (c*sumTL - sumT*sumL) / denom, nil
}
