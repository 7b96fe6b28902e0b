package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/blogvault/internal/domain"
	"github.com/jonesrussell/blogvault/internal/metrics"
)

func TestWorkerMetrics_RecordsIncrementCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.RecordSessionRebuild()
	m.RecordSessionRebuild()
	m.RecordPostDownloaded()
	m.RecordPause()
	m.RecordBlogStatus(domain.BlogStatusAccessible)
	m.RecordBlogStatus(domain.BlogStatusDeleted)
	m.RecordBlogStatus(domain.BlogStatusDeleted)
	m.RecordBatchCompleted(domain.BatchStatusComplete)
	m.RecordRetryExhausted()

	assert.InDelta(t, 2, testutil.ToFloat64(m.SessionRebuilds), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.PostsDownloaded), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.PausesTriggered), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RetriesExhausted), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.BlogsByStatus.WithLabelValues("d")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.BlogsByStatus.WithLabelValues("a")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.BatchesCompleted.WithLabelValues("c")), 0)
}
