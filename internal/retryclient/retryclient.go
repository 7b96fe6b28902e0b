// Package retryclient implements the coordinator's bounded
// exponential-backoff retry wrapper with three response-classification
// modes. Unlike a generic retry helper, its schedule and exhaustion
// policy are fixed: the coordinator protocol requires crash-only
// exhaustion after a specific cumulative-sleep budget, not a
// configurable attempt count.
package retryclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/jonesrussell/blogvault/internal/logger"
)

// Mode selects how a response is classified as success or failure.
type Mode int

const (
	// StatusOnly succeeds iff the response status is 200.
	StatusOnly Mode = iota
	// TextGuard succeeds iff status is 200 and the body is not the
	// literal "Fail". "Dupe" is treated as success.
	TextGuard
	// BatchGuard succeeds iff status is 200, the body parses as a JSON
	// object, and that object's batchID field is present and not "Fail".
	BatchGuard
)

const (
	startDelay  = 30 * time.Second
	delayStep   = 30 * time.Second
	maxDelay    = 180 * time.Second
	maxTotalSleep = 18 * time.Hour
)

// Client performs GET requests with classification-driven retry.
type Client struct {
	HTTP *http.Client
	Log  logger.Logger

	// OnExhausted is invoked when the cumulative sleep budget is
	// exceeded without a successful response. The zero value calls
	// Log.Fatal, which terminates the process — this is the
	// intentional crash-only policy described in the spec. Tests
	// override this field to observe exhaustion without exiting.
	OnExhausted func(ctx context.Context, lastErr error)
}

// New builds a Client with the crash-only default exhaustion handler.
func New(httpClient *http.Client, log logger.Logger) *Client {
	return &Client{HTTP: httpClient, Log: log}
}

// Do issues req repeatedly (cloning it for each attempt) until the
// response satisfies mode's classification, the cumulative sleep
// budget is exhausted, or ctx is cancelled. It returns the final
// response body on success.
func (c *Client) Do(ctx context.Context, req *http.Request, mode Mode) ([]byte, error) {
	var totalSlept time.Duration
	delay := startDelay
	attempt := 0

	for {
		attempt++
		body, ok, err := c.attempt(ctx, req, mode)
		if ok {
			return body, nil
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		c.Log.Warn("retry classification failed",
			logger.Int("attempt", attempt),
			logger.Duration("next_delay", delay),
			logger.Error(err),
		)

		if totalSlept+delay > maxTotalSleep {
			c.exhausted(ctx, err)
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}

		totalSlept += delay
		delay += delayStep
		if delay > maxDelay {
			delay = maxDelay
		}
	}
}

func (c *Client) exhausted(ctx context.Context, err error) {
	if c.OnExhausted != nil {
		c.OnExhausted(ctx, err)
		return
	}
	c.Log.Fatal("retry budget exhausted, crashing per coordinator protocol", logger.Error(err))
}

// attempt performs one HTTP round trip and classifies the result.
// ok=false means "retry"; err carries the reason for logging only.
func (c *Client) attempt(ctx context.Context, req *http.Request, mode Mode) ([]byte, bool, error) {
	clone := req.Clone(ctx)

	resp, err := c.HTTP.Do(clone)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, err
	}

	switch mode {
	case StatusOnly:
		if resp.StatusCode == http.StatusOK {
			return body, true, nil
		}
		return nil, false, statusError(resp.StatusCode)

	case TextGuard:
		if resp.StatusCode != http.StatusOK {
			return nil, false, statusError(resp.StatusCode)
		}
		text := bytes.TrimSpace(body)
		if string(text) == "Fail" {
			return nil, false, errFailBody
		}
		return body, true, nil

	case BatchGuard:
		if resp.StatusCode != http.StatusOK {
			return nil, false, statusError(resp.StatusCode)
		}
		var payload map[string]any
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, false, err
		}
		batchID, ok := payload["batchID"]
		if !ok {
			return nil, false, errNoBatchID
		}
		if s, ok := batchID.(string); ok && s == "Fail" {
			return nil, false, errFailBody
		}
		return body, true, nil

	default:
		return nil, false, errUnknownMode
	}
}
