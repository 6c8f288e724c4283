package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	tasksCreated       *prometheus.CounterVec
	tasksArchived      *prometheus.CounterVec
	allocationFailures prometheus.Counter
	liveTasks          prometheus.Gauge
	requestDuration    prometheus.Histogram
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.CounterVec, prometheus.Counter, prometheus.Gauge, prometheus.Histogram) {
	created := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transport_tasks_created_total",
			Help: "Number of transport tasks created",
		},
		[]string{"task_type"},
	)
	archived := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transport_tasks_archived_total",
			Help: "Number of transport tasks archived",
		},
		[]string{"outcome"},
	)
	allocFail := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "allocation_failures_total",
			Help: "Number of requests for which no slot could be allocated",
		},
	)
	live := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "transport_tasks_live",
			Help: "Number of transport tasks not yet archived",
		},
	)
	dur := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "request_handling_duration_seconds",
			Help:    "Latency of movement request handling from validation to send",
			Buckets: prometheus.DefBuckets,
		},
	)
	return created, archived, allocFail, live, dur
}

func init() {
	tasksCreated, tasksArchived, allocationFailures, liveTasks, requestDuration = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers orchestrator metrics on the provided
// registry. If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(tasksCreated, tasksArchived, allocationFailures, liveTasks, requestDuration)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	tasksCreated, tasksArchived, allocationFailures, liveTasks, requestDuration = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
