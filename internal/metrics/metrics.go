// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package metrics exposes Prometheus counters for page generations and
// cache outcomes. Observer plugs into the page server.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rulecmsdemo/internal/engine"
	"rulecmsdemo/internal/policy"
)

const namespace = "rulecms_demo"

// Observer records page server activity.
type Observer struct {
	renders  *prometheus.CounterVec
	failures *prometheus.CounterVec
	results  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New registers the collectors with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Observer {
	factory := promauto.With(reg)
	return &Observer{
		renders: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Page generations by path, rendering mode and trigger.",
		}, []string{"path", "mode", "trigger"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_failures_total",
			Help:      "Failed page generations by path and trigger.",
		}, []string{"path", "trigger"}),
		results: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_results_total",
			Help:      "Served pages by path and cache outcome.",
		}, []string{"path", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time spent generating a page.",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"path"}),
	}
}

// Rendered implements engine.Observer.
func (o *Observer) Rendered(_ context.Context, ev engine.Event) {
	if ev.Err != nil {
		o.failures.WithLabelValues(ev.Route.Path, string(ev.Trigger)).Inc()
		return
	}
	o.renders.WithLabelValues(ev.Route.Path, ev.Route.Mode, string(ev.Trigger)).Inc()
	o.duration.WithLabelValues(ev.Route.Path).Observe(ev.Duration.Seconds())
}

// Served implements engine.Observer.
func (o *Observer) Served(route policy.Route, outcome engine.Outcome) {
	o.results.WithLabelValues(route.Path, string(outcome)).Inc()
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
