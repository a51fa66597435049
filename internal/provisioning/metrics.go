package provisioning

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/imamik/spotcluster/internal/platform/awscloud"
)

// Result label values.
const (
	ResultSuccess  = "success"
	ResultError    = "error"
	ResultNotFound = "not_found"
)

// Metrics records provisioning metrics. A nil *Metrics records nothing.
type Metrics struct {
	phaseDuration   *prometheus.HistogramVec
	apiCallsTotal   *prometheus.CounterVec
	apiLatency      *prometheus.HistogramVec
	teardownResults *prometheus.CounterVec
}

var _ awscloud.CallObserver = (*Metrics)(nil)

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		phaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "spotcluster",
				Subsystem: "provisioning",
				Name:      "phase_duration_seconds",
				Help:      "Duration of provisioning phases in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~3.4min
			},
			[]string{"phase", "result"},
		),
		apiCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "spotcluster",
				Subsystem: "ec2",
				Name:      "api_calls_total",
				Help:      "Total number of EC2 API calls by operation and result",
			},
			[]string{"operation", "result"},
		),
		apiLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "spotcluster",
				Subsystem: "ec2",
				Name:      "api_latency_seconds",
				Help:      "Latency of EC2 API calls in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 8), // 50ms to ~6s
			},
			[]string{"operation"},
		),
		teardownResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "spotcluster",
				Subsystem: "teardown",
				Name:      "steps_total",
				Help:      "Teardown steps by step and outcome (removed, missing, failed)",
			},
			[]string{"step", "outcome"},
		),
	}
	reg.MustRegister(m.phaseDuration, m.apiCallsTotal, m.apiLatency, m.teardownResults)
	return m
}

// ObserveCall records one provider call.
func (m *Metrics) ObserveCall(op string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.apiCallsTotal.WithLabelValues(op, resultOf(err)).Inc()
	m.apiLatency.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObservePhase records one phase run.
func (m *Metrics) ObservePhase(phase string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	m.phaseDuration.WithLabelValues(phase, result).Observe(elapsed.Seconds())
}

// ObserveTeardownStep records the outcome of one teardown step.
func (m *Metrics) ObserveTeardownStep(step, outcome string) {
	if m == nil {
		return
	}
	m.teardownResults.WithLabelValues(step, outcome).Inc()
}

// WriteTextfile writes a snapshot of g in the node exporter textfile format.
func WriteTextfile(g prometheus.Gatherer, path string) error {
	return prometheus.WriteToTextfile(path, g)
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case awscloud.IsNotFound(err):
		return ResultNotFound
	default:
		return ResultError
	}
}
