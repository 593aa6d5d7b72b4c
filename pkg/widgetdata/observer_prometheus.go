package widgetdata

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusObserver implements Observer using Prometheus metrics.
//
// Example:
//
//	observer := widgetdata.NewPrometheusObserver("my_app", prometheus.DefaultRegisterer)
//	// Creates metrics like: my_app_widgets_resolve_outcomes_total
type PrometheusObserver struct {
	outcomes          *prometheus.CounterVec
	resolveDuration   *prometheus.HistogramVec
	cacheHits         *prometheus.CounterVec
	cacheMisses       *prometheus.CounterVec
	cacheErrors       *prometheus.CounterVec
	cacheCheckLatency *prometheus.HistogramVec
}

// NewPrometheusObserver creates a Prometheus observer with the given namespace
// and registers its collectors with registerer.
func NewPrometheusObserver(namespace string, registerer prometheus.Registerer) *PrometheusObserver {
	if namespace == "" {
		namespace = "sitewidgets"
	}

	outcomes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "widgets",
			Name:      "resolve_outcomes_total",
			Help:      "Widget data resolutions by outcome",
		},
		[]string{"widget", "kind", "outcome"},
	)

	resolveDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "widgets",
			Name:      "resolve_duration_seconds",
			Help:      "Duration of widget data resolution in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"widget", "kind"},
	)

	cacheHits := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "widgets",
			Name:      "cache_hits_total",
			Help:      "Total number of payload cache hits",
		},
		[]string{"kind"},
	)

	cacheMisses := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "widgets",
			Name:      "cache_misses_total",
			Help:      "Total number of payload cache misses",
		},
		[]string{"kind"},
	)

	cacheErrors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "widgets",
			Name:      "cache_errors_total",
			Help:      "Total number of failed payload cache lookups",
		},
		[]string{"kind"},
	)

	cacheCheckLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "widgets",
			Name:      "cache_check_latency_seconds",
			Help:      "Latency of payload cache lookups in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"kind"},
	)

	registerer.MustRegister(
		outcomes,
		resolveDuration,
		cacheHits,
		cacheMisses,
		cacheErrors,
		cacheCheckLatency,
	)

	return &PrometheusObserver{
		outcomes:          outcomes,
		resolveDuration:   resolveDuration,
		cacheHits:         cacheHits,
		cacheMisses:       cacheMisses,
		cacheErrors:       cacheErrors,
		cacheCheckLatency: cacheCheckLatency,
	}
}

func (o *PrometheusObserver) OnResolve(ctx context.Context, event *ResolveEvent) {
	o.outcomes.WithLabelValues(event.Widget, string(event.Kind), event.Outcome.String()).Inc()
	o.resolveDuration.WithLabelValues(event.Widget, string(event.Kind)).Observe(event.Duration.Seconds())
}

func (o *PrometheusObserver) OnCacheCheck(ctx context.Context, event *CacheCheckEvent) {
	kind := string(event.Kind)
	switch {
	case event.Error != nil:
		o.cacheErrors.WithLabelValues(kind).Inc()
	case event.Hit:
		o.cacheHits.WithLabelValues(kind).Inc()
	default:
		o.cacheMisses.WithLabelValues(kind).Inc()
	}
	o.cacheCheckLatency.WithLabelValues(kind).Observe(event.Latency.Seconds())
}
