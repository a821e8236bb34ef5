package control

import (
	"math"
	"testing"

	"github.com/san-kum/dynenv/internal/dynamo"
)

func obs(pos, vel float64) dynamo.State {
	return dynamo.State{Pos: dynamo.Vector{pos}, Vel: dynamo.Vector{vel}, Acc: dynamo.Vector{0}}
}

func TestAutonomous(t *testing.T) {
	a, err := Autonomous().Act(obs(1, 0), 1)
	if err != nil {
		t.Fatal(err)
	}
	if !a.IsNoControl() {
		t.Errorf("expected NoControl, got %v", a)
	}
}

func TestZero(t *testing.T) {
	a, err := Zero(3).Act(obs(1, 2), 1)
	if err != nil {
		t.Fatal(err)
	}
	if a.IsNoControl() || len(a) != 3 {
		t.Fatalf("expected 3 explicit zeros, got %v", a)
	}
	for i, v := range a {
		if v != 0 {
			t.Errorf("control[%d] should be 0, got %f", i, v)
		}
	}
}

func TestRandomRangeAndSeed(t *testing.T) {
	p := Random(7, 1.0, 42)
	q := Random(7, 1.0, 42)

	for step := 1; step <= 200; step++ {
		a, _ := p.Act(dynamo.State{}, step)
		b, _ := q.Act(dynamo.State{}, step)
		if !a.Equal(b) {
			t.Fatalf("same seed diverged at step %d", step)
		}
		for _, v := range a {
			if v < -0.5 || v >= 0.5 {
				t.Fatalf("value %f outside [-0.5, 0.5)", v)
			}
		}
	}

	first, _ := Random(7, 1.0, 42).Act(dynamo.State{}, 1)
	p.Reset()
	again, _ := p.Act(dynamo.State{}, 1)
	if !first.Equal(again) {
		t.Error("reset should rewind to the seed")
	}
}

func TestReplay(t *testing.T) {
	r := Replay([]dynamo.Action{{1}, dynamo.NoControl, {3}})

	want := []dynamo.Action{{1}, dynamo.NoControl, {3}, dynamo.NoControl}
	for i, w := range want {
		got, err := r.Act(dynamo.State{}, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if !got.Equal(w) {
			t.Errorf("step %d: expected %v, got %v", i, w, got)
		}
	}
	if r.Remaining() != 0 {
		t.Errorf("expected nothing remaining, got %d", r.Remaining())
	}
	r.Reset()
	if r.Remaining() != 3 {
		t.Error("reset should rewind")
	}
}

func TestPID(t *testing.T) {
	ctrl := NewPID(10.0, 0.1, 5.0, 0.0, 1)
	u := ctrl.Compute(dynamo.Vector{1.0, 0.0}, 0.0)
	if len(u) != 1 {
		t.Fatalf("expected 1 control, got %d", len(u))
	}
	if u[0] >= 0 {
		t.Error("PID should output negative control for positive error")
	}

	u = ctrl.Compute(dynamo.Vector{0.5, 0.0}, 0.1)
	// error shrank from -1 to -0.5 so the derivative term pushes back up
	if u[0] <= 10*-0.5 {
		t.Errorf("derivative term missing, got %f", u[0])
	}
}

func TestPIDPerJoint(t *testing.T) {
	ctrl := NewPID(1, 0, 0, 0, 3)
	u := ctrl.Compute(dynamo.Vector{1, -2, 0, 0}, 0)
	if len(u) != 3 {
		t.Fatalf("expected 3 controls, got %d", len(u))
	}
	if u[0] != -1 || u[1] != 2 || u[2] != 0 {
		t.Errorf("unexpected controls %v", u)
	}
}

func TestPIDTuning(t *testing.T) {
	var c Tunable = NewPID(1, 0, 0, 0, 1)
	c.SetParam("Kp", 3)
	if c.GetParams()["Kp"] != 3 {
		t.Error("SetParam had no effect")
	}
}

func TestLQR(t *testing.T) {
	k := [][]float64{{1.0, 2.0}}
	ctrl := NewLQR(k, dynamo.Vector{0.0, 0.0})

	u := ctrl.Compute(dynamo.Vector{0.0, 0.0}, 0.0)
	if u[0] != 0 {
		t.Errorf("expected zero control at target, got %f", u[0])
	}

	u = ctrl.Compute(dynamo.Vector{1.0, 0.0}, 0.0)
	if u[0] == 0 {
		t.Error("expected non-zero control away from target")
	}
}

func TestPendulumLQR(t *testing.T) {
	ctrl := NewPendulumLQR()
	u := ctrl.Compute(dynamo.Vector{0.1, 0.0}, 0.0)

	if len(u) != 1 {
		t.Fatalf("expected 1 control, got %d", len(u))
	}
	if u[0] == 0 {
		t.Error("pendulum LQR should output non-zero control for non-zero angle")
	}
}

func TestDiagonalLQR(t *testing.T) {
	ctrl := NewDiagonalLQR(2, 4, 1)
	u := ctrl.Compute(dynamo.Vector{1, 0, 0, 2}, 0)
	if u[0] != -4 || u[1] != -2 {
		t.Errorf("unexpected controls %v", u)
	}
}

func TestFromController(t *testing.T) {
	var seenX dynamo.Vector
	var seenT float64
	c := controllerFunc(func(x dynamo.Vector, t float64) dynamo.Vector {
		seenX, seenT = x, t
		return dynamo.Vector{7}
	})

	a, err := FromController(c, 0.01).Act(obs(1, 2), 5)
	if err != nil {
		t.Fatal(err)
	}
	if !a.Equal(dynamo.Action{7}) {
		t.Errorf("unexpected action %v", a)
	}
	if !seenX.Equal(dynamo.Vector{1, 2}) {
		t.Errorf("controller should see [q, v], got %v", seenX)
	}
	if math.Abs(seenT-0.05) > 1e-12 {
		t.Errorf("expected t=0.05, got %f", seenT)
	}
}

type controllerFunc func(x dynamo.Vector, t float64) dynamo.Vector

func (f controllerFunc) Compute(x dynamo.Vector, t float64) dynamo.Vector { return f(x, t) }
