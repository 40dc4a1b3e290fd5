package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	transmitCycles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pulsectl",
			Subsystem: "transmit",
			Name:      "cycles_total",
			Help:      "Completed transmission cycles.",
		},
	)
	cycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pulsectl",
			Subsystem: "transmit",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of one assert/transmit/verify/deassert cycle.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)
	verificationFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pulsectl",
			Subsystem: "transmit",
			Name:      "verification_failures_total",
			Help:      "Cycles whose readback decoded to a different timestamp.",
		},
	)
	cycleErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pulsectl",
			Subsystem: "transmit",
			Name:      "cycle_errors_total",
			Help:      "Cycles aborted by codec or hardware-task errors.",
		},
	)
	coalescedTimestamps = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pulsectl",
			Subsystem: "relay",
			Name:      "coalesced_timestamps",
			Help:      "Published timestamps that were overwritten before transmission.",
		},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pulsectl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pulsectl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			transmitCycles, cycleDuration, verificationFailures, cycleErrors,
			coalescedTimestamps, httpRequests, httpDuration,
		)
	})
}

func RecordCycle(duration time.Duration) {
	RegisterMetrics()
	transmitCycles.Inc()
	cycleDuration.Observe(duration.Seconds())
}

func RecordVerificationFailure() {
	RegisterMetrics()
	verificationFailures.Inc()
}

func RecordCycleError() {
	RegisterMetrics()
	cycleErrors.Inc()
}

func SetCoalescedTimestamps(n uint64) {
	RegisterMetrics()
	coalescedTimestamps.Set(float64(n))
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}
