// Package observability exposes reconciliation metrics via Prometheus.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects reconciliation counters and timings.
type Metrics struct {
	runsTotal       prometheus.Counter
	matchedPairs    prometheus.Counter
	unmatchedOut    prometheus.Gauge
	unmatchedIn     prometheus.Gauge
	runDuration     prometheus.Histogram
	transactionsRun prometheus.Histogram
}

// NewMetrics creates the reconciliation metrics under the given namespace.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		runsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_runs_total",
			Help:      "Total number of reconciliation runs",
		}),
		matchedPairs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_matched_pairs_total",
			Help:      "Total number of transfer pairs matched across runs",
		}),
		unmatchedOut: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reconcile_unmatched_outbound",
			Help:      "Unmatched outbound transfer legs after the latest run",
		}),
		unmatchedIn: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reconcile_unmatched_inbound",
			Help:      "Unmatched inbound transfer legs after the latest run",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconcile_run_duration_seconds",
			Help:      "Wall time of reconciliation runs",
			Buckets:   prometheus.DefBuckets,
		}),
		transactionsRun: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconcile_batch_size",
			Help:      "Rows per reconciliation batch",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
		}),
	}
}

// Register registers all collectors with the given registerer.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.runsTotal, m.matchedPairs, m.unmatchedOut, m.unmatchedIn,
		m.runDuration, m.transactionsRun,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveRun records the outcome of one reconciliation run.
func (m *Metrics) ObserveRun(batchSize, matchedPairs, unmatchedOut, unmatchedIn int, elapsed time.Duration) {
	m.runsTotal.Inc()
	m.matchedPairs.Add(float64(matchedPairs))
	m.unmatchedOut.Set(float64(unmatchedOut))
	m.unmatchedIn.Set(float64(unmatchedIn))
	m.runDuration.Observe(elapsed.Seconds())
	m.transactionsRun.Observe(float64(batchSize))
}
