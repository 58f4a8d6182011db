// Package metrics exposes Prometheus counters and gauges for the grabber's
// section-ingestion pipeline, updated under the same global lock that
// guards carousel and partial-event state.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles every counter/gauge the grabber updates. Construct one
// per process with New and register it with a dedicated registry so test
// processes never collide on the default global registry.
type Metrics struct {
	SectionsRouted   *prometheus.CounterVec // labels: provider, component
	Revolutions      *prometheus.CounterVec // labels: provider
	PendingPartials  *prometheus.GaugeVec    // labels: provider
	DecodeFailures   *prometheus.CounterVec // labels: provider, field
	EPGUpserts       *prometheus.CounterVec // labels: provider, entity

	registry *prometheus.Registry
}

// New constructs and registers the grabber's metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		SectionsRouted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opentvgrab",
			Name:      "sections_routed_total",
			Help:      "Sections dispatched by the section router, by provider and destination component.",
		}, []string{"provider", "component"}),
		Revolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opentvgrab",
			Name:      "carousel_revolutions_total",
			Help:      "Completed carousel revolutions, by provider.",
		}, []string{"provider"}),
		PendingPartials: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "opentvgrab",
			Name:      "pending_partial_events",
			Help:      "Partial events currently awaiting title/summary join, by provider.",
		}, []string{"provider"}),
		DecodeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opentvgrab",
			Name:      "decode_failures_total",
			Help:      "Decode failures by provider and field.",
		}, []string{"provider", "field"}),
		EPGUpserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opentvgrab",
			Name:      "epg_upserts_total",
			Help:      "EPG store upserts, by provider and entity kind.",
		}, []string{"provider", "entity"}),
		registry: reg,
	}
	reg.MustRegister(m.SectionsRouted, m.Revolutions, m.PendingPartials, m.DecodeFailures, m.EPGUpserts)
	return m
}

// Handler returns an http.Handler serving this Metrics instance's
// registry in the Prometheus text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
