// Package analysis turns recorded trajectories into data for downstream
// tools.
//
//   - [PositionMatrix], [StateMatrix]: one row per entry, the input format
//     of trajectory segmentation
//   - [Spectrum], [DominantFrequency]: power spectrum of one coordinate
//   - [LyapunovExponent]: divergence rate of two nearby episodes
//   - [PhasePortrait], [PoincareSection]: 2D projections of state space
//
// # Segmentation input
//
// A segmentation algorithm receives one matrix per demonstration:
//
//	demo, err := analysis.StateMatrix(e.Trajectory())
//	if err != nil {
//	    return err
//	}
//	segmenter.AddDemonstration(demo)
//
// Every row of one matrix has the same length; a trajectory whose states
// change shape is rejected.
package analysis
