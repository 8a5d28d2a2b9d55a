package dispatch

import "github.com/prometheus/client_golang/prometheus"

// Outcome labels for requestsTotal.
const (
	outcomeCompleted = "completed"
	outcomeTimeout   = "timeout"
)

var (
	queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "switchboard_queue_depth",
			Help: "Number of requests waiting in the dispatch queue.",
		},
	)

	workersBusy = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "switchboard_workers_busy",
			Help: "Number of workers currently running a handler.",
		},
	)

	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "switchboard_requests_total",
			Help: "Total number of submitted requests by outcome.",
		},
		[]string{"outcome"},
	)

	waitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "switchboard_wait_duration_seconds",
			Help:    "Time callers spent waiting for a response.",
			Buckets: prometheus.DefBuckets,
		},
	)

	handlerPanics = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "switchboard_handler_panics_total",
			Help: "Handler panics; each one permanently stops a worker loop.",
		},
	)

	unmatchedCompletions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "switchboard_completions_unmatched_total",
			Help: "Completions dropped because no registration was pending for the key.",
		},
	)
)

func init() {
	prometheus.MustRegister(queueDepth)
	prometheus.MustRegister(workersBusy)
	prometheus.MustRegister(requestsTotal)
	prometheus.MustRegister(waitDuration)
	prometheus.MustRegister(handlerPanics)
	prometheus.MustRegister(unmatchedCompletions)
}
