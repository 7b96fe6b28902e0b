package commentsclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/blogvault/internal/comments"
	"github.com/jonesrussell/blogvault/internal/commentsclient"
)

func TestFetchComments_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	c := commentsclient.New()
	body, err := c.FetchComments(context.Background(), server.Client(), server.URL, comments.DefaultOptions)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestFetchComments_NonOKStatusIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	c := commentsclient.New()
	_, err := c.FetchComments(context.Background(), server.Client(), server.URL, comments.DefaultOptions)
	assert.ErrorIs(t, err, comments.ErrTransport)
}

func TestFetchComments_NonJSONBodyIsSoftBlock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>captcha required</html>"))
	}))
	defer server.Close()

	c := commentsclient.New()
	_, err := c.FetchComments(context.Background(), server.Client(), server.URL, comments.DefaultOptions)
	assert.ErrorIs(t, err, comments.ErrSoftBlock)
}
