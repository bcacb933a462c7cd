// Package metrics collects per-run counters for the two tools and optionally
// pushes them to a Prometheus Pushgateway when the run ends.
package metrics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Record stages counted by AddRecords.
const (
	StageFetched   = "fetched"
	StageFiltered  = "filtered"
	StageSubmitted = "submitted"
	StageFailed    = "failed"
	StageSkipped   = "skipped"
)

// Recorder owns a private registry so each invocation reports only its own run.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	job      string
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	records  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	lastRun  prometheus.Gauge
}

// New creates a Recorder for the given job name.
func New(job string) *Recorder {
	r := &Recorder{
		job:      job,
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bpchanges_api_requests_total",
				Help: "Requests issued to the changes API by endpoint and status code",
			},
			[]string{"endpoint", "code"},
		),
		records: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bpchanges_records_total",
				Help: "Change records handled, by pipeline stage",
			},
			[]string{"stage"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bpchanges_api_request_duration_seconds",
				Help:    "Duration of changes API requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		lastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "bpchanges_last_run_timestamp_seconds",
				Help: "Unix time the run finished",
			},
		),
	}
	r.registry.MustRegister(r.requests, r.records, r.duration, r.lastRun)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveRequest counts one API call. A zero status means the request never
// got a response.
func (r *Recorder) ObserveRequest(endpoint string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	r.requests.WithLabelValues(endpoint, code).Inc()
	r.duration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// AddRecords adds n records to the counter for stage.
func (r *Recorder) AddRecords(stage string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.records.WithLabelValues(stage).Add(float64(n))
}

// Push sends the collected metrics to a Pushgateway, replacing the previous
// push for this job.
func (r *Recorder) Push(ctx context.Context, gatewayURL string) error {
	if r == nil || gatewayURL == "" {
		return nil
	}
	r.lastRun.SetToCurrentTime()
	if err := push.New(gatewayURL, r.job).Gatherer(r.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
