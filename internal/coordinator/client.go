// Package coordinator provides typed bindings over the coordinator's
// query-parameter GET endpoints, each routed through retryclient with
// the classification mode the protocol requires for that endpoint.
package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jonesrussell/blogvault/internal/domain"
	"github.com/jonesrussell/blogvault/internal/logger"
	"github.com/jonesrussell/blogvault/internal/retryclient"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.retry.HTTP = hc }
}

// WithOnExhausted overrides the retry-exhaustion handler invoked when
// a call's cumulative sleep budget runs out without success.
func WithOnExhausted(fn func(ctx context.Context, lastErr error)) Option {
	return func(c *Client) { c.retry.OnExhausted = fn }
}

// Client is the typed coordinator API binding.
type Client struct {
	baseURL string
	retry   *retryclient.Client
	log     logger.Logger
}

// NewClient builds a Client against baseURL.
func NewClient(baseURL string, httpClient *http.Client, log logger.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		retry:   retryclient.New(httpClient, log),
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (*http.Request, error) {
	u := fmt.Sprintf("%s%s", c.baseURL, path)
	if len(query) > 0 {
		u = u + "?" + query.Encode()
	}
	return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
}

// GetID requests a worker identifier from the coordinator.
func (c *Client) GetID(ctx context.Context) (string, error) {
	req, err := c.get(ctx, "/worker/getID", nil)
	if err != nil {
		return "", err
	}
	body, err := c.retry.Do(ctx, req, retryclient.StatusOnly)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

type getBatchResponse struct {
	BatchID        int64  `json:"batchID"`
	RandomKey      int64  `json:"randomKey"`
	Offset         int64  `json:"offset"`
	Limit          int    `json:"limit"`
	AssignmentType string `json:"assignmentType"`
	Content        string `json:"content"`
	BatchSize      int    `json:"batchSize"`
	WorkerVersion  int    `json:"worker_version"`
}

// GetBatch requests the next batch assignment for workerID. It never
// returns a nil descriptor with a nil error: a "Fail" body is classified
// by BATCH_GUARD and retried internally, so this call only returns once
// a real batch is assigned, ctx is cancelled, or the process crashes on
// exhaustion.
func (c *Client) GetBatch(ctx context.Context, workerID string) (*domain.BatchDescriptor, error) {
	req, err := c.get(ctx, "/worker/getBatch", url.Values{"id": {workerID}})
	if err != nil {
		return nil, err
	}
	body, err := c.retry.Do(ctx, req, retryclient.BatchGuard)
	if err != nil {
		return nil, err
	}

	var resp getBatchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode getBatch response: %w", err)
	}

	batchType := domain.BatchTypeList
	if resp.AssignmentType == string(domain.BatchTypeDomain) {
		batchType = domain.BatchTypeDomain
	}

	return &domain.BatchDescriptor{
		BatchID:        resp.BatchID,
		RandomKey:      resp.RandomKey,
		BatchType:      batchType,
		Content:        resp.Content,
		BatchSize:      resp.BatchSize,
		FileOffset:     resp.Offset,
		ExclusionLimit: resp.Limit,
		WorkerVersion:  resp.WorkerVersion,
	}, nil
}

// UpdateStatus reports the terminal status of a batch.
func (c *Client) UpdateStatus(ctx context.Context, workerID string, batch *domain.BatchDescriptor, status domain.BatchStatus) error {
	req, err := c.get(ctx, "/worker/updateStatus", url.Values{
		"id":        {workerID},
		"batchID":   {strconv.FormatInt(batch.BatchID, 10)},
		"randomKey": {strconv.FormatInt(batch.RandomKey, 10)},
		"status":    {string(status)},
	})
	if err != nil {
		return err
	}
	_, err = c.retry.Do(ctx, req, retryclient.TextGuard)
	return err
}

func (c *Client) submit(ctx context.Context, workerID string, batch *domain.BatchDescriptor, extra url.Values) error {
	query := url.Values{
		"id":        {workerID},
		"batchID":   {strconv.FormatInt(batch.BatchID, 10)},
		"randomKey": {strconv.FormatInt(batch.RandomKey, 10)},
	}
	for k, v := range extra {
		query[k] = v
	}
	req, err := c.get(ctx, "/worker/submit"+endpointSuffix(extra), query)
	if err != nil {
		return err
	}
	_, err = c.retry.Do(ctx, req, retryclient.TextGuard)
	return err
}

func endpointSuffix(extra url.Values) string {
	switch {
	case extra.Has("exclusion"):
		return "Exclusion"
	case extra.Has("private"):
		return "Private"
	case extra.Has("deleted"):
		return "Deleted"
	case extra.Has("domain"):
		return "Domain"
	default:
		return ""
	}
}

// SubmitExclusion reports blogName as exceeding the exclusion limit or
// otherwise unparseable.
func (c *Client) SubmitExclusion(ctx context.Context, workerID string, batch *domain.BatchDescriptor, blogName string) error {
	return c.submit(ctx, workerID, batch, url.Values{"exclusion": {blogName}})
}

// SubmitPrivate reports blogName as private (401 on its feed).
func (c *Client) SubmitPrivate(ctx context.Context, workerID string, batch *domain.BatchDescriptor, blogName string) error {
	return c.submit(ctx, workerID, batch, url.Values{"private": {blogName}})
}

// SubmitDeleted reports blogName as not found (404 on its feed).
func (c *Client) SubmitDeleted(ctx context.Context, workerID string, batch *domain.BatchDescriptor, blogName string) error {
	return c.submit(ctx, workerID, batch, url.Values{"deleted": {blogName}})
}

// SubmitDomain reports a custom-domain mapping discovered for blogName.
func (c *Client) SubmitDomain(ctx context.Context, workerID string, batch *domain.BatchDescriptor, blogName, canonicalDomain string) error {
	return c.submit(ctx, workerID, batch, url.Values{
		"blog":   {blogName},
		"domain": {canonicalDomain},
	})
}
