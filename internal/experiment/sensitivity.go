package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/dynenv/internal/analysis"
	"github.com/san-kum/dynenv/internal/config"
)

// Sensitivity is the divergence between an episode and a copy started with
// its first position offset by Epsilon.
type Sensitivity struct {
	Epsilon  float64
	Exponent float64
	Base     *Result
	Shifted  *Result
}

// MeasureSensitivity runs cfg twice, once as given and once with Init.Pos[0]
// shifted by eps, and fits the Lyapunov exponent of the pair. Both runs use
// the same seed so stochastic policies draw identical actions.
func MeasureSensitivity(ctx context.Context, cfg *config.Config, eps float64, opts ...Option) (*Sensitivity, error) {
	if eps == 0 {
		return nil, fmt.Errorf("experiment: sensitivity needs a non-zero offset")
	}

	base := cfg.Clone()
	base.Episodes = 1
	shifted := base.Clone()
	if len(shifted.Init.Pos) == 0 {
		shifted.Init.Pos = []float64{0}
	}
	shifted.Init.Pos[0] += eps

	opts = append(append([]Option(nil), opts...), WithSink(nil), WithStore(nil))

	a, err := New(base, opts...).Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("base run: %w", err)
	}
	b, err := New(shifted, opts...).Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("shifted run: %w", err)
	}

	lambda, err := analysis.LyapunovExponent(a.Episodes[0].Trajectory, b.Episodes[0].Trajectory, a.Dt)
	if err != nil {
		return nil, err
	}
	return &Sensitivity{Epsilon: eps, Exponent: lambda, Base: a, Shifted: b}, nil
}
