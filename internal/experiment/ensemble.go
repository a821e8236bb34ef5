package experiment

import (
	"context"
	"errors"
	"sync"

	"github.com/san-kum/dynenv/internal/config"
)

// Ensemble runs the same config numRuns times in parallel, one environment
// per run, with seeds seedStart, seedStart+1, ...
type Ensemble struct {
	cfg       *config.Config
	numRuns   int
	seedStart int64
	opts      []Option
}

// NewEnsemble builds an ensemble. Sinks and observers passed in opts are
// ignored since runs execute concurrently and each owns its environment.
func NewEnsemble(cfg *config.Config, numRuns int, seedStart int64, opts ...Option) *Ensemble {
	return &Ensemble{cfg: cfg, numRuns: numRuns, seedStart: seedStart, opts: opts}
}

func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	if e.numRuns <= 0 {
		return nil, errors.New("experiment: ensemble needs at least one run")
	}

	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			cfgCopy := e.cfg.Clone()
			cfgCopy.Seed = e.seedStart + int64(idx)
			cfgCopy.Episodes = 1

			opts := append([]Option(nil), e.opts...)
			opts = append(opts, WithSink(nil), withoutObservers())
			results[idx], errs[idx] = New(cfgCopy, opts...).Run(ctx)
		}(i)
	}

	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return results, nil
}

func withoutObservers() Option {
	return func(e *Experiment) { e.observers = nil }
}

// Summary averages every metric over the results.
func Summary(results []*Result) map[string]float64 {
	sum := make(map[string]float64)
	count := 0
	for _, r := range results {
		for _, ep := range r.Episodes {
			for k, v := range ep.Metrics {
				sum[k] += v
			}
			count++
		}
	}
	if count == 0 {
		return sum
	}
	for k := range sum {
		sum[k] /= float64(count)
	}
	return sum
}
