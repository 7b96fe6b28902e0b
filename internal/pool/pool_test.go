package pool_test

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jonesrussell/blogvault/internal/comments"
	"github.com/jonesrussell/blogvault/internal/domain"
	"github.com/jonesrussell/blogvault/internal/logger"
	"github.com/jonesrussell/blogvault/internal/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu         sync.Mutex
	posts      []string
	firstPosts int
}

func (w *fakeWriter) StartBlog(int, string, string, domain.BlogStatusTag, bool) error { return nil }
func (w *fakeWriter) EndBlog() error                                                 { return nil }
func (w *fakeWriter) EndBatch() error                                                { return nil }
func (w *fakeWriter) Directory() string                                             { return "" }
func (w *fakeWriter) FileName() string                                              { return "" }

func (w *fakeWriter) AddBlogPost(url string, comments json.RawMessage, isFirstPost bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.posts = append(w.posts, url)
	if isFirstPost {
		w.firstPosts++
	}
	return nil
}

type fakeFetcher struct {
	mu       sync.Mutex
	softOnce map[string]bool
}

func (f *fakeFetcher) FetchComments(ctx context.Context, session *http.Client, url string, opts comments.FetchOptions) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.softOnce != nil && !f.softOnce[url] {
		f.softOnce[url] = true
		return nil, comments.ErrSoftBlock
	}
	return json.RawMessage(`[]`), nil
}

type countingMetrics struct {
	rebuilds *int32
}

func (m *countingMetrics) RecordSessionRebuild() { atomic.AddInt32(m.rebuilds, 1) }
func (m *countingMetrics) RecordPostDownloaded() {}
func (m *countingMetrics) RecordPause()          {}

func TestPool_AllPostsStoredExactlyOnce(t *testing.T) {
	w := &fakeWriter{}
	f := &fakeFetcher{}

	p := pool.New(pool.Config{
		BlogName:    "foo",
		Posts:       []string{"https://foo.blogspot.com/1", "https://foo.blogspot.com/2", "https://foo.blogspot.com/3"},
		WorkerCount: 3,
		Writer:      w,
		Fetcher:     f,
		Log:         logger.NewNop(),
	})

	p.Run(context.Background())

	w.mu.Lock()
	defer w.mu.Unlock()
	assert.Len(t, w.posts, 3)
	assert.Equal(t, 1, w.firstPosts)
}

func TestPool_SoftBlockRequeuesAndRecovers(t *testing.T) {
	w := &fakeWriter{}
	f := &fakeFetcher{softOnce: map[string]bool{}}

	var rebuilds int32
	metrics := &countingMetrics{rebuilds: &rebuilds}

	p := pool.New(pool.Config{
		BlogName:    "foo",
		Posts:       []string{"https://foo.blogspot.com/1"},
		WorkerCount: 1,
		Writer:      w,
		Fetcher:     f,
		Log:         logger.NewNop(),
		Metrics:     metrics,
	})

	p.Run(context.Background())

	w.mu.Lock()
	defer w.mu.Unlock()
	require.Len(t, w.posts, 1)
	assert.Equal(t, "https://foo.blogspot.com/1", w.posts[0])
}
