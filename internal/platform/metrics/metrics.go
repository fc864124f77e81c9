// Package metrics exposes the Prometheus instruments of the service on a
// private registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Option func(*Manager)

func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.buckets = buckets
		}
	}
}

// WithRuntimeCollectors adds the Go runtime and process collectors.
func WithRuntimeCollectors() Option {
	return func(m *Manager) {
		m.runtime = true
	}
}

type Manager struct {
	namespace string
	buckets   []float64
	runtime   bool
	registry  *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rankingBuilds       *prometheus.CounterVec
	rankingDuration     prometheus.Histogram
	rankingEntries      prometheus.Gauge
	awardResolutions    *prometheus.CounterVec
	awardWinners        prometheus.Counter
	transitions         *prometheus.CounterVec
	evaluationsRecorded *prometheus.CounterVec
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "perfboard",
		buckets:   prometheus.DefBuckets,
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initialize()
	return m
}

func (m *Manager) initialize() {
	auto := promauto.With(m.registry)
	if m.runtime {
		m.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status code",
	}, []string{"route", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   m.buckets,
	}, []string{"route", "method"})

	m.rankingBuilds = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "ranking",
		Name:      "builds_total",
		Help:      "Leaderboards built, by tie-breaker",
	}, []string{"tie_breaker"})

	m.rankingDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "ranking",
		Name:      "build_duration_seconds",
		Help:      "Time spent scoring and ordering a leaderboard",
		Buckets:   m.buckets,
	})

	m.rankingEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "ranking",
		Name:      "last_entries",
		Help:      "Entries in the most recently built leaderboard",
	})

	m.awardResolutions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "awards",
		Name:      "resolutions_total",
		Help:      "Award resolutions by outcome",
	}, []string{"outcome"})

	m.awardWinners = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "awards",
		Name:      "winners_total",
		Help:      "Winners recorded across all award resolutions",
	})

	m.transitions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "challenges",
		Name:      "transitions_total",
		Help:      "Challenge and participation status transitions",
	}, []string{"entity", "from", "to"})

	m.evaluationsRecorded = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "evaluations",
		Name:      "recorded_total",
		Help:      "Evaluations written, by kind",
	}, []string{"kind"})
}

func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Manager) ObserveHTTP(route, method string, status int, took time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(took.Seconds())
}

func (m *Manager) ObserveRankingBuild(tieBreaker string, entries int, took time.Duration) {
	m.rankingBuilds.WithLabelValues(tieBreaker).Inc()
	m.rankingDuration.Observe(took.Seconds())
	m.rankingEntries.Set(float64(entries))
}

func (m *Manager) ObserveAwardResolution(outcome string, winners int) {
	m.awardResolutions.WithLabelValues(outcome).Inc()
	m.awardWinners.Add(float64(winners))
}

func (m *Manager) ObserveTransition(entity, from, to string) {
	m.transitions.WithLabelValues(entity, from, to).Inc()
}

func (m *Manager) ObserveEvaluation(kind string) {
	m.evaluationsRecorded.WithLabelValues(kind).Inc()
}
