// Package metrics records crawl activity as Prometheus metrics.
//
// The crawler runs once and exits, so instead of serving /metrics the
// collected values are written to a node_exporter textfile at the end of a run.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tftcrawler"

// Metrics bundles the collectors used by the gateway, limiter and crawler.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Requests       *prometheus.CounterVec
	RequestSeconds *prometheus.HistogramVec
	LimiterSleeps  *prometheus.CounterVec
	LimiterSeconds *prometheus.CounterVec
	RecordsAdded   *prometheus.CounterVec
	CollectionSize *prometheus.GaugeVec
}

// New creates the collectors on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "API requests by endpoint and outcome (ok or the error type)",
			},
			[]string{"endpoint", "outcome"},
		),
		RequestSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "API request latency, excluding limiter sleeps",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		LimiterSleeps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ratelimit_sleeps_total",
				Help:      "Sleeps issued by the rate limiter by cap",
			},
			[]string{"limit"},
		),
		LimiterSeconds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ratelimit_sleep_seconds_total",
				Help:      "Time spent sleeping in the rate limiter by cap",
			},
			[]string{"limit"},
		),
		RecordsAdded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_added_total",
				Help:      "Records appended to a collection during this run",
			},
			[]string{"collection"},
		),
		CollectionSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "collection_records",
				Help:      "Records in a collection at its last save",
			},
			[]string{"collection"},
		),
	}

	m.registry.MustRegister(
		m.Requests,
		m.RequestSeconds,
		m.LimiterSleeps,
		m.LimiterSeconds,
		m.RecordsAdded,
		m.CollectionSize,
	)
	return m
}

// ObserveRequest records one API call
func (m *Metrics) ObserveRequest(endpoint, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(endpoint, outcome).Inc()
	m.RequestSeconds.WithLabelValues(endpoint).Observe(d.Seconds())
}

// ObserveSleep records one limiter sleep
func (m *Metrics) ObserveSleep(limit string, d time.Duration) {
	if m == nil {
		return
	}
	m.LimiterSleeps.WithLabelValues(limit).Inc()
	m.LimiterSeconds.WithLabelValues(limit).Add(d.Seconds())
}

// RecordAdded counts one appended record
func (m *Metrics) RecordAdded(collection string) {
	if m == nil {
		return
	}
	m.RecordsAdded.WithLabelValues(collection).Inc()
}

// SetCollectionSize records the size of a collection
func (m *Metrics) SetCollectionSize(collection string, n int) {
	if m == nil {
		return
	}
	m.CollectionSize.WithLabelValues(collection).Set(float64(n))
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes all metrics in the text exposition format
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
