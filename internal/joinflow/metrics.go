package joinflow

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors that report lifecycle activity.
type Metrics struct {
	opDuration   *prometheus.HistogramVec
	opFailures   *prometheus.CounterVec
	syncFailures *prometheus.CounterVec
	inFlight     prometheus.Gauge
}

var (
	defaultMetricsOnce sync.Once
	sharedMetrics      *Metrics
)

// defaultMetrics returns the package-level metrics instance registered with
// the global Prometheus registry. The collectors are created only once to
// avoid duplicate registration panics when several orchestrators exist (one
// per screen is normal).
func defaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		sharedMetrics = MustNewMetrics(prometheus.DefaultRegisterer)
	})
	return sharedMetrics
}

// MustNewMetrics constructs a Metrics instance using the provided registerer.
// Pass a fresh registry when unique metric names are required (tests). Any
// registration error panics, mirroring promauto semantics.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	opDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "teamup",
			Subsystem: "joinflow",
			Name:      "operation_duration_seconds",
			Help:      "Duration of each lifecycle operation.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation", "status"},
	)
	opFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "teamup",
			Subsystem: "joinflow",
			Name:      "operation_failures_total",
			Help:      "Lifecycle operations that failed authoritatively.",
		},
		[]string{"operation", "reason"},
	)
	syncFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "teamup",
			Subsystem: "joinflow",
			Name:      "projection_sync_failures_total",
			Help:      "Alert-store sync failures after a successful membership mutation.",
		},
		[]string{"stage"},
	)
	inFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "teamup",
			Subsystem: "joinflow",
			Name:      "operations_in_flight",
			Help:      "Lifecycle operations currently executing.",
		},
	)

	collectors := []prometheus.Collector{opDuration, opFailures, syncFailures, inFlight}
	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
				// Reuse the existing collector when it matches the expected type.
				switch target := collector.(type) {
				case *prometheus.HistogramVec:
					opDuration = already.ExistingCollector.(*prometheus.HistogramVec)
				case *prometheus.CounterVec:
					switch target {
					case opFailures:
						opFailures = already.ExistingCollector.(*prometheus.CounterVec)
					case syncFailures:
						syncFailures = already.ExistingCollector.(*prometheus.CounterVec)
					}
				case prometheus.Gauge:
					inFlight = already.ExistingCollector.(prometheus.Gauge)
				}
				continue
			}
			panic(err)
		}
	}

	return &Metrics{
		opDuration:   opDuration,
		opFailures:   opFailures,
		syncFailures: syncFailures,
		inFlight:     inFlight,
	}
}

func (m *Metrics) observeOperation(operation, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.opDuration.WithLabelValues(operation, status).Observe(elapsed.Seconds())
}

func (m *Metrics) recordFailure(operation, reason string) {
	if m == nil {
		return
	}
	m.opFailures.WithLabelValues(operation, reason).Inc()
}

func (m *Metrics) recordSyncFailure(stage string) {
	if m == nil {
		return
	}
	m.syncFailures.WithLabelValues(stage).Inc()
}

func (m *Metrics) operationStarted() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

func (m *Metrics) operationFinished() {
	if m == nil {
		return
	}
	m.inFlight.Dec()
}
