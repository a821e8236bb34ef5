package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/san-kum/dynenv/internal/dynamo"
	"github.com/san-kum/dynenv/internal/env"
)

// Prom exports step counters on its own registry.
type Prom struct {
	registry *prometheus.Registry

	Steps            *prometheus.CounterVec
	Resets           *prometheus.CounterVec
	TrajectoryLength *prometheus.GaugeVec
	ControlNorm      *prometheus.HistogramVec

	model string
}

func NewProm(namespace, model string) *Prom {
	registry := prometheus.NewRegistry()

	steps := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Total number of control steps applied",
		},
		[]string{"model"},
	)

	resets := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resets_total",
			Help:      "Total number of environment initializations",
		},
		[]string{"model"},
	)

	length := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "trajectory_length",
			Help:      "Number of entries in the current trajectory",
		},
		[]string{"model"},
	)

	norm := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "control_l1_norm",
			Help:      "L1 norm of applied actions",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"model"},
	)

	registry.MustRegister(steps, resets, length, norm)

	return &Prom{
		registry:         registry,
		Steps:            steps,
		Resets:           resets,
		TrajectoryLength: length,
		ControlNorm:      norm,
		model:            model,
	}
}

func (p *Prom) OnReset(dynamo.State) {
	p.Resets.WithLabelValues(p.model).Inc()
	p.TrajectoryLength.WithLabelValues(p.model).Set(1)
}

func (p *Prom) OnStep(e env.Entry, t int) {
	p.Steps.WithLabelValues(p.model).Inc()
	p.TrajectoryLength.WithLabelValues(p.model).Set(float64(t + 1))
	if !e.Action.IsNoControl() {
		sum := 0.0
		for _, v := range e.Action {
			if v < 0 {
				v = -v
			}
			sum += v
		}
		p.ControlNorm.WithLabelValues(p.model).Observe(sum)
	}
}

func (p *Prom) Registry() *prometheus.Registry { return p.registry }

// Handler serves the registry in the Prometheus text format.
func (p *Prom) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
