package analysis

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/dynenv/internal/dynamo"
	"github.com/san-kum/dynenv/internal/env"
)

// sineTrajectory records q = amp sin(2 pi f t) for n entries at step dt.
func sineTrajectory(n int, f, amp, dt float64) env.Trajectory {
	entries := make([]env.Entry, n)
	for i := range entries {
		t := float64(i) * dt
		s := dynamo.NewState(1, 1)
		s.Pos[0] = amp * math.Sin(2*math.Pi*f*t)
		s.Vel[0] = amp * 2 * math.Pi * f * math.Cos(2*math.Pi*f*t)
		entries[i] = env.Entry{State: s}
		if i > 0 {
			entries[i].Action = dynamo.Action{0}
		}
	}
	return env.NewTrajectory(entries)
}

func TestStateMatrix(t *testing.T) {
	traj := sineTrajectory(10, 1, 1, 0.1)

	m, err := StateMatrix(traj)
	if err != nil {
		t.Fatal(err)
	}
	if len(m) != 10 || len(m[0]) != 3 {
		t.Fatalf("expected 10x3, got %dx%d", len(m), len(m[0]))
	}

	pm, err := PositionMatrix(traj)
	if err != nil {
		t.Fatal(err)
	}
	if len(pm[0]) != 1 || pm[3][0] != m[3][0] {
		t.Error("position matrix does not match state matrix")
	}
}

func TestStateMatrixRejectsRaggedStates(t *testing.T) {
	traj := env.NewTrajectory([]env.Entry{
		{State: dynamo.NewState(2, 2)},
		{State: dynamo.NewState(3, 3), Action: dynamo.Action{0}},
	})
	if _, err := StateMatrix(traj); !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
	if _, err := StateMatrix(env.NewTrajectory(nil)); !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
}

func TestColumnAndNoise(t *testing.T) {
	m := [][]float64{{1, 2}, {3, 4}}
	col, err := Column(m, 1)
	if err != nil {
		t.Fatal(err)
	}
	if col[0] != 2 || col[1] != 4 {
		t.Errorf("unexpected column %v", col)
	}
	if _, err := Column(m, 2); err == nil {
		t.Error("expected out of range error")
	}

	noisy := AddNoise(m, func(i, j int) float64 { return 0.5 })
	if noisy[1][1] != 4.5 || m[1][1] != 4 {
		t.Error("noise must be added to a copy")
	}
}

func TestDominantFrequency(t *testing.T) {
	dt := 0.01
	traj := sineTrajectory(1000, 2.0, 1.0, dt)
	m, _ := PositionMatrix(traj)
	col, _ := Column(m, 0)

	freq, mag := DominantFrequency(col, dt)
	if math.Abs(freq-2.0) > 0.11 {
		t.Errorf("expected ~2 Hz, got %f", freq)
	}
	if mag <= 0 {
		t.Error("expected positive magnitude")
	}

	if f, _ := DominantFrequency([]float64{1}, dt); f != 0 {
		t.Error("single sample has no frequency")
	}
}

func TestSpectrumRemovesMean(t *testing.T) {
	ps := Spectrum([]float64{5, 5, 5, 5, 5, 5})
	for i, v := range ps {
		if v > 1e-9 {
			t.Errorf("bin %d of a constant signal should be zero, got %f", i, v)
		}
	}
}

func TestLyapunovExponentGrowth(t *testing.T) {
	dt := 0.1
	rate := 0.7
	build := func(offset func(t float64) float64) env.Trajectory {
		entries := make([]env.Entry, 50)
		for i := range entries {
			s := dynamo.NewState(1, 1)
			s.Pos[0] = offset(float64(i) * dt)
			entries[i] = env.Entry{State: s}
		}
		return env.NewTrajectory(entries)
	}

	a := build(func(float64) float64 { return 0 })
	b := build(func(t float64) float64 { return 1e-6 * math.Exp(rate*t) })

	lambda, err := LyapunovExponent(a, b, dt)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(lambda-rate) > 1e-6 {
		t.Errorf("expected %f, got %f", rate, lambda)
	}

	if _, err := LyapunovExponent(a, a, dt); err == nil {
		t.Error("identical trajectories should not yield an exponent")
	}
}

func TestPhasePortrait(t *testing.T) {
	traj := sineTrajectory(200, 1, 1, 0.01)
	p, err := PhasePortrait(traj, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Points) != 200 {
		t.Fatalf("expected 200 points, got %d", len(p.Points))
	}
	art := PhasePortraitToASCII(p, 40, 20)
	if strings.Count(art, "\n") != 20 || !strings.Contains(art, "•") {
		t.Errorf("unexpected portrait:\n%s", art)
	}

	if _, err := PhasePortrait(traj, 0, 3); err == nil {
		t.Error("expected index error")
	}
}

func TestPoincareSection(t *testing.T) {
	// q rises through 0.5 once per period
	traj := sineTrajectory(200, 1, 1, 0.01)
	section, err := GeneratePoincareSection(traj, 0, 0.5, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(section.Points) != 2 {
		t.Fatalf("expected 2 crossings, got %d", len(section.Points))
	}
	for _, p := range section.Points {
		if math.Abs(p.X-0.5) > 1e-3 {
			t.Errorf("interpolated crossing should sit on the threshold, got %f", p.X)
		}
		if p.Y <= 0 {
			t.Error("upward crossing should have positive velocity")
		}
	}
}
