package coordinator_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jonesrussell/blogvault/internal/coordinator"
	"github.com/jonesrussell/blogvault/internal/domain"
	"github.com/jonesrussell/blogvault/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/worker/getID", r.URL.Path)
		fmt.Fprint(w, "worker-123")
	}))
	defer server.Close()

	c := coordinator.NewClient(server.URL, server.Client(), logger.NewNop())
	id, err := c.GetID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "worker-123", id)
}

func TestGetBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "worker-123", r.URL.Query().Get("id"))
		fmt.Fprint(w, `{"batchID":1,"randomKey":2,"offset":0,"limit":100,"assignmentType":"list","content":"","batchSize":5,"worker_version":3}`)
	}))
	defer server.Close()

	c := coordinator.NewClient(server.URL, server.Client(), logger.NewNop())
	b, err := c.GetBatch(context.Background(), "worker-123")
	require.NoError(t, err)
	assert.Equal(t, int64(1), b.BatchID)
	assert.Equal(t, domain.BatchTypeList, b.BatchType)
	assert.Equal(t, 5, b.BatchSize)
}

func TestUpdateStatus(t *testing.T) {
	var gotStatus string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotStatus = r.URL.Query().Get("status")
		fmt.Fprint(w, "OK")
	}))
	defer server.Close()

	c := coordinator.NewClient(server.URL, server.Client(), logger.NewNop())
	b := &domain.BatchDescriptor{BatchID: 1, RandomKey: 2}
	err := c.UpdateStatus(context.Background(), "worker-123", b, domain.BatchStatusComplete)
	require.NoError(t, err)
	assert.Equal(t, "c", gotStatus)
}

func TestSubmitDomain(t *testing.T) {
	var gotBlog, gotDomain string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/worker/submitDomain", r.URL.Path)
		gotBlog = r.URL.Query().Get("blog")
		gotDomain = r.URL.Query().Get("domain")
		fmt.Fprint(w, "Success")
	}))
	defer server.Close()

	c := coordinator.NewClient(server.URL, server.Client(), logger.NewNop())
	b := &domain.BatchDescriptor{BatchID: 1, RandomKey: 2}
	err := c.SubmitDomain(context.Background(), "worker-123", b, "someblog", "custom.example.com")
	require.NoError(t, err)
	assert.Equal(t, "someblog", gotBlog)
	assert.Equal(t, "custom.example.com", gotDomain)
}
