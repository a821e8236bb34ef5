package metrics

import (
	"io"
	"math"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/san-kum/dynenv/internal/dynamo"
	"github.com/san-kum/dynenv/internal/env"
)

func state(pos, vel float64) dynamo.State {
	return dynamo.State{Pos: dynamo.Vector{pos}, Vel: dynamo.Vector{vel}, Acc: dynamo.Vector{0}}
}

func TestControlEffort(t *testing.T) {
	m := NewControlEffort()
	m.OnReset(state(0, 0))
	m.OnStep(env.Entry{State: state(0, 0), Action: dynamo.Action{1, -1}}, 1)
	m.OnStep(env.Entry{State: state(0, 0), Action: dynamo.NoControl}, 2)

	if m.Value() != 1.0 {
		t.Errorf("expected effort 1.0, got %f", m.Value())
	}

	m.OnReset(state(0, 0))
	if m.Value() != 0 {
		t.Error("expected zero effort after reset")
	}
}

func TestControlEffortCountsNoControlSteps(t *testing.T) {
	m := NewControlEffort()
	m.OnReset(state(0, 0))
	for i := 1; i <= 3; i++ {
		m.OnStep(env.Entry{State: state(0, 0), Action: dynamo.NoControl}, i)
	}
	if m.Value() != 0 {
		t.Errorf("expected zero effort, got %f", m.Value())
	}

	m.OnStep(env.Entry{State: state(0, 0), Action: dynamo.Action{2}}, 4)
	if m.Value() != 0.5 {
		t.Errorf("expected 2/4 = 0.5, got %f", m.Value())
	}
}

func TestStability(t *testing.T) {
	m := NewStability(1.0)
	if m.Value() != 1.0 {
		t.Error("empty episode should be stable")
	}

	m.OnReset(state(0.5, 0))
	m.OnStep(env.Entry{State: state(2.0, 0)}, 1)
	m.OnStep(env.Entry{State: state(-0.5, 10)}, 2)
	m.OnStep(env.Entry{State: state(-3, 0)}, 3)

	if m.Value() != 0.5 {
		t.Errorf("expected stability 0.5, got %f", m.Value())
	}
}

func TestKineticDrift(t *testing.T) {
	m := NewKineticDrift(PointMasses([]float64{2.0}))

	m.OnReset(state(0, 1))
	m.OnStep(env.Entry{State: state(0, 1)}, 1)
	if m.Value() != 0 {
		t.Errorf("expected no drift, got %f", m.Value())
	}

	m.OnStep(env.Entry{State: state(0, 2)}, 2)
	// energy 1.0 -> 4.0
	if math.Abs(m.Value()-3.0) > 1e-12 {
		t.Errorf("expected relative drift 3.0, got %f", m.Value())
	}
	if m.Current() != 4.0 {
		t.Errorf("expected current energy 4.0, got %f", m.Current())
	}

	m.OnReset(state(0, 0))
	m.OnStep(env.Entry{State: state(0, 1)}, 1)
	if m.Value() != 1.0 {
		t.Errorf("expected absolute drift from rest, got %f", m.Value())
	}
}

func TestSetValues(t *testing.T) {
	set := NewSet(NewControlEffort(), NewStability(1.0))
	set.Add(NewKineticDrift(PointMasses([]float64{1})))

	var obs env.Observer = set
	obs.OnReset(state(0, 0))
	obs.OnStep(env.Entry{State: state(0, 0), Action: dynamo.Action{0.5}}, 1)

	values := set.Values()
	if len(values) != 3 {
		t.Fatalf("expected 3 metrics, got %v", values)
	}
	if values["control_effort"] != 0.5 {
		t.Errorf("unexpected control effort %f", values["control_effort"])
	}
	if values["stability"] != 1.0 {
		t.Errorf("unexpected stability %f", values["stability"])
	}
}

func TestProm(t *testing.T) {
	p := NewProm("dynenv", "arm5")
	p.OnReset(state(0, 0))
	p.OnStep(env.Entry{State: state(0, 0), Action: dynamo.Action{1}}, 1)
	p.OnStep(env.Entry{State: state(0, 0), Action: dynamo.NoControl}, 2)

	if got := testutil.ToFloat64(p.Steps.WithLabelValues("arm5")); got != 2 {
		t.Errorf("expected 2 steps, got %f", got)
	}
	if got := testutil.ToFloat64(p.Resets.WithLabelValues("arm5")); got != 1 {
		t.Errorf("expected 1 reset, got %f", got)
	}
	if got := testutil.ToFloat64(p.TrajectoryLength.WithLabelValues("arm5")); got != 3 {
		t.Errorf("expected length 3, got %f", got)
	}

	srv := httptest.NewServer(p.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "dynenv_steps_total") {
		t.Errorf("steps counter not exported:\n%s", body)
	}
}
