package supervisor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/blogvault/internal/comments"
	"github.com/jonesrussell/blogvault/internal/config"
	"github.com/jonesrussell/blogvault/internal/coordination"
	"github.com/jonesrussell/blogvault/internal/logger"
)

type nopFetcher struct{}

func (nopFetcher) FetchComments(ctx context.Context, session *http.Client, url string, opts comments.FetchOptions) (json.RawMessage, error) {
	return nil, nil
}

func testConfig() config.Config {
	return config.Config{
		CoordinatorBaseURL:   "http://127.0.0.1:0",
		UploadBaseURL:        "http://127.0.0.1:0",
		AdminAddr:            "",
		RedisAddr:            "",
		BatchDownloaderCount: 1,
		WorkerCount:          1,
	}
}

func TestNew_WiresDependenciesWithoutRedis(t *testing.T) {
	s := New(testConfig(), logger.NewNop(), nopFetcher{})
	require.NotNil(t, s)
	assert.IsType(t, coordination.NoopLock{}, s.lock)
}

func TestRun_ReturnsPromptlyWhenContextAlreadyCancelled(t *testing.T) {
	s := New(testConfig(), logger.NewNop(), nopFetcher{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
