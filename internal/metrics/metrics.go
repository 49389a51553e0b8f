// Package metrics - Prometheus metrics for the planning pipeline
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PipelineDuration tracks full planning pipeline duration
	PipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cargoplan_pipeline_duration_seconds",
		Help:    "Duration of a full planning pipeline run",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 0.1s to 51.2s
	})

	// GAGenerations records how many generations the last optimization ran
	GAGenerations = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cargoplan_ga_generations",
		Help: "Generations executed by the last genetic optimization",
	})

	// GABestFitness records the winning fitness of the last optimization
	GABestFitness = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cargoplan_ga_best_fitness",
		Help: "Best fitness (total margin minus complexity penalty) of the last optimization",
	})

	// AlertsEmitted counts alerts by kind and severity
	AlertsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cargoplan_alerts_emitted_total",
		Help: "Total alerts emitted by kind and severity",
	}, []string{"kind", "severity"})

	// DisruptionEventsApplied counts disruption events by kind
	DisruptionEventsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cargoplan_disruption_events_applied_total",
		Help: "Total disruption events applied by kind",
	}, []string{"kind"})

	// CacheHitsTotal counts plan cache hits
	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cargoplan_cache_hits_total",
		Help: "Total plan cache hits",
	})

	// CacheMissesTotal counts plan cache misses
	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cargoplan_cache_misses_total",
		Help: "Total plan cache misses",
	})

	// HTTPRequestsTotal counts API requests by route and status code
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cargoplan_http_requests_total",
		Help: "Total HTTP requests by route and status code",
	}, []string{"route", "status_code"})
)
