package experiment

import (
	"fmt"
	"math/rand"

	"github.com/san-kum/dynenv/internal/analysis"
	"github.com/san-kum/dynenv/internal/env"
)

// Demonstrations turns one recording into count position matrices for a
// segmentation learner. The first is the clean recording; the others add
// Gaussian noise with standard deviation noise to every cell.
func Demonstrations(traj env.Trajectory, count int, noise float64, seed int64) ([][][]float64, error) {
	if count < 1 {
		return nil, fmt.Errorf("experiment: need at least one demonstration, got %d", count)
	}

	clean, err := analysis.PositionMatrix(traj)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(seed))
	gauss := func(int, int) float64 { return noise * rng.NormFloat64() }

	demos := make([][][]float64, 0, count)
	demos = append(demos, clean)
	for i := 1; i < count; i++ {
		demos = append(demos, analysis.AddNoise(clean, gauss))
	}
	return demos, nil
}
