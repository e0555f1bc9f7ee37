// Copyright (C) 2025, dag-gossip contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics provides the prometheus-backed implementation of
// dag.Recorder, the peer's window into extend/merge activity and DAG size.
// Grounded on the teacher's metrics.Metrics (metrics/metrics.go) — a thin
// wrapper that registers collectors against a caller-supplied registry —
// and poll/default.go's "construct with a fresh prometheus.NewRegistry()"
// wiring idiom used by cmd/daggossipsim.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry implements dag.Recorder. It satisfies that interface
// structurally; dag does not import this package.
type Registry struct {
	extendTotal prometheus.Counter
	mergeTotal  prometheus.Counter
	unitCount   prometheus.Gauge
	stableCount prometheus.Gauge
}

// New constructs a Registry and registers its collectors against reg.
// namespace is typically the process or peer name, so multiple peers in
// one process don't collide on metric names.
func New(reg prometheus.Registerer, namespace string) (*Registry, error) {
	r := &Registry{
		extendTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dag_extend_total",
			Help:      "Number of Dag.Extend calls.",
		}),
		mergeTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dag_merge_total",
			Help:      "Number of Dag.Merge calls.",
		}),
		unitCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dag_unit_count",
			Help:      "Current number of units known to the Dag.",
		}),
		stableCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dag_stable_unit_count",
			Help:      "Current number of units observed by a majority of peers.",
		}),
	}
	for _, c := range []prometheus.Collector{r.extendTotal, r.mergeTotal, r.unitCount, r.stableCount} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ObserveExtend records one Dag.Extend call.
func (r *Registry) ObserveExtend() { r.extendTotal.Inc() }

// ObserveMerge records one Dag.Merge call.
func (r *Registry) ObserveMerge() { r.mergeTotal.Inc() }

// SetUnitCount updates the current unit-count gauge.
func (r *Registry) SetUnitCount(n int) { r.unitCount.Set(float64(n)) }

// SetStableCount updates the current stable-unit-count gauge.
func (r *Registry) SetStableCount(n int) { r.stableCount.Set(float64(n)) }
