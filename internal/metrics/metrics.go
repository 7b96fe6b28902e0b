// Package metrics defines the Prometheus metrics exported by the
// worker process: pool session rebuilds, posts downloaded, blog status
// tags, and retry exhaustion.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jonesrussell/blogvault/internal/domain"
)

const (
	namespace = "blogvault"
	subsystem = "worker"
)

// WorkerMetrics holds every Prometheus collector registered by one
// worker process.
type WorkerMetrics struct {
	SessionRebuilds  prometheus.Counter
	PostsDownloaded  prometheus.Counter
	PausesTriggered  prometheus.Counter
	BlogsByStatus    *prometheus.CounterVec
	RetriesExhausted prometheus.Counter
	BatchesCompleted *prometheus.CounterVec
}

// New creates and registers every collector against reg. A nil reg
// registers against prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *WorkerMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	m := &WorkerMetrics{}

	m.initPoolMetrics(factory)
	m.initClassificationMetrics(factory)
	m.initBatchMetrics(factory)

	return m
}

func (m *WorkerMetrics) initPoolMetrics(factory promauto.Factory) {
	m.SessionRebuilds = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "session_rebuilds_total",
		Help:      "Number of times a PostPool rebuilt its HTTP session after a suspected soft block.",
	})

	m.PostsDownloaded = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "posts_downloaded_total",
		Help:      "Number of posts whose comment tree was successfully fetched and stored. Diagnostic only.",
	})

	m.PausesTriggered = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "pauses_triggered_total",
		Help:      "Number of times a PostPool entered its pause-and-rebuild state.",
	})
}

func (m *WorkerMetrics) initClassificationMetrics(factory promauto.Factory) {
	m.BlogsByStatus = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "blogs_classified_total",
			Help:      "Number of blogs classified, labeled by the resulting status tag.",
		},
		[]string{"status"},
	)

	m.RetriesExhausted = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "retry_exhausted_total",
		Help:      "Number of RetryClient calls that exhausted their cumulative sleep budget before the process crashed.",
	})
}

func (m *WorkerMetrics) initBatchMetrics(factory promauto.Factory) {
	m.BatchesCompleted = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "batches_completed_total",
			Help:      "Number of batches finalized, labeled by reported terminal status (c or f).",
		},
		[]string{"status"},
	)
}

// RecordSessionRebuild implements pool.MetricsRecorder.
func (m *WorkerMetrics) RecordSessionRebuild() { m.SessionRebuilds.Inc() }

// RecordPostDownloaded implements pool.MetricsRecorder.
func (m *WorkerMetrics) RecordPostDownloaded() { m.PostsDownloaded.Inc() }

// RecordPause implements pool.MetricsRecorder.
func (m *WorkerMetrics) RecordPause() { m.PausesTriggered.Inc() }

// RecordBlogStatus implements classifier.StatusRecorder.
func (m *WorkerMetrics) RecordBlogStatus(tag domain.BlogStatusTag) {
	m.BlogsByStatus.WithLabelValues(string(tag)).Inc()
}

// RecordRetryExhausted increments the retry-exhaustion counter. Call
// this from a RetryClient.OnExhausted hook just before the process
// crashes; the Fatal log that follows exits the process right away, so
// the new value is only seen by a scrape that lands in between.
func (m *WorkerMetrics) RecordRetryExhausted() { m.RetriesExhausted.Inc() }

// RecordBatchCompleted increments the completed-batches counter for
// the given terminal status.
func (m *WorkerMetrics) RecordBatchCompleted(status domain.BatchStatus) {
	m.BatchesCompleted.WithLabelValues(string(status)).Inc()
}
