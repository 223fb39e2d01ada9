package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// SynthMetrics tracks engine activity: operation outcomes, liquidation
// throughput, and solvency gate rejections.
type SynthMetrics struct {
	operations          *prometheus.CounterVec
	liquidations        prometheus.Counter
	healthCheckFailures prometheus.Counter
	stalePriceRejects   *prometheus.CounterVec
}

var (
	synthOnce     sync.Once
	synthRegistry *SynthMetrics
)

// Synth returns the lazily-initialised engine metrics registry.
func Synth() *SynthMetrics {
	synthOnce.Do(func() {
		synthRegistry = &SynthMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "synth",
				Subsystem: "engine",
				Name:      "operations_total",
				Help:      "Count of engine operations by operation and outcome.",
			}, []string{"op", "outcome"}),
			liquidations: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "synth",
				Subsystem: "engine",
				Name:      "liquidations_total",
				Help:      "Count of completed liquidations.",
			}),
			healthCheckFailures: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "synth",
				Subsystem: "engine",
				Name:      "health_check_failures_total",
				Help:      "Count of operations rejected by the minimum health factor gate.",
			}),
			stalePriceRejects: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "synth",
				Subsystem: "oracle",
				Name:      "stale_price_rejections_total",
				Help:      "Count of operations aborted on a stale price round by feed.",
			}, []string{"feed"}),
		}
		prometheus.MustRegister(
			synthRegistry.operations,
			synthRegistry.liquidations,
			synthRegistry.healthCheckFailures,
			synthRegistry.stalePriceRejects,
		)
	})
	return synthRegistry
}

// ObserveOperation records one engine operation and its outcome.
func (m *SynthMetrics) ObserveOperation(op, outcome string) {
	if m == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.operations.WithLabelValues(op, outcome).Inc()
}

// ObserveLiquidation records one completed liquidation.
func (m *SynthMetrics) ObserveLiquidation() {
	if m == nil {
		return
	}
	m.liquidations.Inc()
}

// ObserveHealthCheckFailure records one solvency gate rejection.
func (m *SynthMetrics) ObserveHealthCheckFailure() {
	if m == nil {
		return
	}
	m.healthCheckFailures.Inc()
}

// ObserveStalePrice records one stale-round rejection for a feed.
func (m *SynthMetrics) ObserveStalePrice(feed string) {
	if m == nil {
		return
	}
	feed = strings.TrimSpace(strings.ToLower(feed))
	if feed == "" {
		feed = "unknown"
	}
	m.stalePriceRejects.WithLabelValues(feed).Inc()
}
