// Package commentsclient provides a minimal, reference CommentFetcher
// implementation. The exact comment/reply JSON shape is explicitly out
// of scope for this repo's core; this client only fetches whatever
// document the post URL serves and classifies the result into the
// soft-block/transport/success taxonomy PostPool expects. A real
// deployment with access to the platform's actual comment-feed API is
// expected to supply its own comments.Fetcher instead.
package commentsclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jonesrussell/blogvault/internal/comments"
	"github.com/jonesrussell/blogvault/internal/httpclient"
)

// Client is the default comments.Fetcher.
type Client struct{}

// New builds a Client.
func New() *Client { return &Client{} }

// FetchComments implements comments.Fetcher.
func (c *Client) FetchComments(ctx context.Context, session *http.Client, url string, opts comments.FetchOptions) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build comment fetch request: %w", err)
	}
	req.Header.Set("User-Agent", httpclient.DefaultUserAgent)

	resp, err := session.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", comments.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", comments.ErrTransport, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", comments.ErrTransport, resp.StatusCode)
	}

	if !json.Valid(body) {
		return nil, errors.Join(comments.ErrSoftBlock, fmt.Errorf("non-JSON response from %s", url))
	}

	return json.RawMessage(body), nil
}

var _ comments.Fetcher = (*Client)(nil)
