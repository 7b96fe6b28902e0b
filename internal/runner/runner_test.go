package runner_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jonesrussell/blogvault/internal/batch"
	"github.com/jonesrussell/blogvault/internal/classifier"
	"github.com/jonesrussell/blogvault/internal/comments"
	"github.com/jonesrussell/blogvault/internal/coordinator"
	"github.com/jonesrussell/blogvault/internal/domain"
	"github.com/jonesrussell/blogvault/internal/feed"
	"github.com/jonesrussell/blogvault/internal/logger"
	"github.com/jonesrussell/blogvault/internal/runner"
	"github.com/jonesrussell/blogvault/internal/uploader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type redirectTransport struct{ target *url.URL }

func (t *redirectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.URL.Scheme = t.target.Scheme
	clone.URL.Host = t.target.Host
	clone.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(clone)
}

func redirectedClient(t *testing.T, server *httptest.Server) *http.Client {
	t.Helper()
	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	return &http.Client{Transport: &redirectTransport{target: u}}
}

type noKill struct{}

func (noKill) Killed() bool { return false }

type fakeFetcher struct{}

func (fakeFetcher) FetchComments(context.Context, *http.Client, string, comments.FetchOptions) (json.RawMessage, error) {
	return json.RawMessage(`[]`), nil
}

func TestRunner_ProcessesListBatchEndToEnd(t *testing.T) {
	dir := t.TempDir()
	domainsPath := filepath.Join(dir, "domains.txt")
	require.NoError(t, os.WriteFile(domainsPath, []byte("onlyblog\n"), 0o644))

	var mu sync.Mutex
	var statusReported string
	var uploaded bool

	mux := http.NewServeMux()
	mux.HandleFunc("/feeds/posts/default", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"feed":{"entry":[{"link":[{"href":"https://onlyblog.blogspot.com/post1"}]}]}}`)
	})
	mux.HandleFunc("/worker/updateStatus", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		statusReported = r.URL.Query().Get("status")
		mu.Unlock()
		fmt.Fprint(w, "OK")
	})
	mux.HandleFunc("/submitBatchUnit", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		uploaded = true
		mu.Unlock()
		fmt.Fprint(w, "OK")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	hc := redirectedClient(t, server)
	log := logger.NewNop()

	coord := coordinator.NewClient("https://coordinator.invalid", hc, log)
	up := uploader.New("https://upload.invalid", hc, log)
	cls := &classifier.Classifier{
		Feed:        feed.New(hc, log),
		Coordinator: coord,
		Fetcher:     fakeFetcher{},
		Log:         log,
	}

	r := &runner.Runner{
		WorkerID:      "worker-1",
		Coordinator:   coord,
		Uploader:      up,
		Classifier:    cls,
		MasterDomains: domainsPath,
		OutputDir:     dir,
		NewWriter: func(outputDir string, batchID int64) (batch.Writer, error) {
			return batch.NewGzipWriter(outputDir, batchID)
		},
		Kill: noKill{},
		Log:  log,
	}

	b := &domain.BatchDescriptor{
		BatchID:    42,
		RandomKey:  7,
		BatchType:  domain.BatchTypeList,
		BatchSize:  1,
		FileOffset: 0,
	}

	err := r.RunBatch(context.Background(), b)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "c", statusReported)
	assert.True(t, uploaded)

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".ndjson.gz", "batch artifact should be deleted after upload")
	}
}
