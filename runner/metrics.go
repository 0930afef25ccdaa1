// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runner

import "github.com/prometheus/client_golang/prometheus"

// Metrics wraps the runner's prometheus collectors, following
// metrics/metrics.go's Registry-holding wrapper shape.
type Metrics struct {
	registry prometheus.Registerer

	Iterations      prometheus.Counter
	Rounds          prometheus.Counter
	WardsFired      prometheus.Counter
	DecidedFraction prometheus.Gauge
}

// NewMetrics registers and returns the runner's collectors against reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		registry: reg,
		Iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "snowsim",
			Name:      "iterations_total",
			Help:      "Total simulation iterations executed.",
		}),
		Rounds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "snowsim",
			Name:      "rounds_total",
			Help:      "Total simulation rounds completed.",
		}),
		WardsFired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "snowsim",
			Name:      "wards_fired_total",
			Help:      "Total number of times a termination ward fired.",
		}),
		DecidedFraction: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "snowsim",
			Name:      "decided_fraction",
			Help:      "Fraction of nodes currently Decided.",
		}),
	}
	for _, c := range []prometheus.Collector{m.Iterations, m.Rounds, m.WardsFired, m.DecidedFraction} {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
