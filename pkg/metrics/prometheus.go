package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the dispatch service collectors.
type Metrics struct {
	UploadsProcessed   prometheus.Counter
	RecordsLoaded      prometheus.Gauge
	MessagesDispatched *prometheus.CounterVec
	ErrorsCount        *prometheus.CounterVec
	RemoteSyncFailures *prometheus.CounterVec
	BulkRunDuration    prometheus.Histogram
}

// NewMetrics registers the collectors on reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		UploadsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_processed_total",
			Help:      "The total number of report spreadsheets processed",
		}),
		RecordsLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_loaded",
			Help:      "Pending check-in records in the current session",
		}),
		MessagesDispatched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_dispatched_total",
			Help:      "The total number of check-in messages dispatched",
		}, []string{"mode"}),
		ErrorsCount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "The total number of errors",
		}, []string{"operation"}),
		RemoteSyncFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_sync_failures_total",
			Help:      "Failed reads and writes against the remote history store",
		}, []string{"operation"}),
		BulkRunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bulk_run_duration_seconds",
			Help:      "Time taken by paced bulk dispatch runs",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
	}
}

// The methods below are nil-safe so collaborators can run without metrics.

func (m *Metrics) UploadProcessed(records int) {
	if m == nil {
		return
	}
	m.UploadsProcessed.Inc()
	m.RecordsLoaded.Set(float64(records))
}

func (m *Metrics) MessageDispatched(mode string) {
	if m == nil {
		return
	}
	m.MessagesDispatched.WithLabelValues(mode).Inc()
}

func (m *Metrics) Error(operation string) {
	if m == nil {
		return
	}
	m.ErrorsCount.WithLabelValues(operation).Inc()
}

func (m *Metrics) RemoteSyncFailed(operation string) {
	if m == nil {
		return
	}
	m.RemoteSyncFailures.WithLabelValues(operation).Inc()
}

func (m *Metrics) BulkRunFinished(d time.Duration) {
	if m == nil {
		return
	}
	m.BulkRunDuration.Observe(d.Seconds())
}
