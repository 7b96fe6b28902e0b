// Package feed implements FeedFetcher: pagination and status
// classification over a blog's post feed.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jonesrussell/blogvault/internal/domain"
	"github.com/jonesrussell/blogvault/internal/logger"
)

const (
	pageSize          = 150
	maxPageAttempts   = 3
	pageRetryDelay    = 2 * time.Second
)

// Fetcher paginates a blog's post feed and classifies its status.
type Fetcher struct {
	HTTP *http.Client
	Log  logger.Logger
}

// New builds a Fetcher.
func New(httpClient *http.Client, log logger.Logger) *Fetcher {
	return &Fetcher{HTTP: httpClient, Log: log}
}

type feedResponse struct {
	Feed struct {
		Entry []struct {
			Link []struct {
				Href string `json:"href"`
			} `json:"link"`
		} `json:"entry"`
		HasEntry bool `json:"-"`
	} `json:"feed"`
}

// Fetch runs the full pagination loop for blogURL and returns the
// classified result.
func (f *Fetcher) Fetch(ctx context.Context, blogURL string, exclusionLimit int) domain.BlogResult {
	var posts []string
	page := 0

	for {
		startIndex := page*pageSize + 1
		if exclusionLimit > 0 && startIndex > exclusionLimit {
			return domain.BlogResult{Kind: domain.BlogTooManyPosts}
		}

		resp, rawHasEntry, entries, classify, err := f.fetchPage(ctx, blogURL, startIndex)
		_ = err // transport errors already folded into classify by fetchPage
		if classify != nil {
			return *classify
		}
		_ = resp

		if page == 0 && !rawHasEntry {
			return domain.BlogResult{Kind: domain.BlogNoEntries}
		}
		if !rawHasEntry {
			// Later page missing "entry": accessible with what we have.
			return domain.BlogResult{Kind: domain.BlogAccessible, Posts: posts}
		}

		posts = append(posts, entries...)

		if len(entries) < pageSize {
			return domain.BlogResult{Kind: domain.BlogAccessible, Posts: posts}
		}
		page++
	}
}

// fetchPage performs the up-to-3-attempt fetch of one feed page and
// classifies the final response. classify is non-nil when the page
// resolves to a terminal BlogResult (NotFound/Private/OtherError/
// TooManyPosts via JSON parse failure); otherwise entries/hasEntry
// describe the parsed page.
func (f *Fetcher) fetchPage(ctx context.Context, blogURL string, startIndex int) (status int, hasEntry bool, entries []string, classify *domain.BlogResult, err error) {
	pageURL := fmt.Sprintf("%s/feeds/posts/default?max-results=%d&alt=json&start-index=%d", blogURL, pageSize, startIndex)

	var lastStatus int
	var lastBody []byte
	var gotResponse bool

	for attempt := 1; attempt <= maxPageAttempts; attempt++ {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if reqErr != nil {
			err = reqErr
			return
		}

		resp, doErr := f.HTTP.Do(req)
		if doErr != nil {
			f.Log.Debug("feed page attempt failed", logger.Int("attempt", attempt), logger.Error(doErr))
			if attempt < maxPageAttempts {
				if !sleepOrCancel(ctx, pageRetryDelay) {
					classify = &domain.BlogResult{Kind: domain.BlogOtherError}
					return
				}
				continue
			}
			break
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			f.Log.Debug("feed page read failed", logger.Int("attempt", attempt), logger.Error(readErr))
			if attempt < maxPageAttempts {
				if !sleepOrCancel(ctx, pageRetryDelay) {
					classify = &domain.BlogResult{Kind: domain.BlogOtherError}
					return
				}
				continue
			}
			break
		}

		gotResponse = true
		lastStatus = resp.StatusCode
		lastBody = body

		if resp.StatusCode == http.StatusOK {
			break
		}
		if attempt < maxPageAttempts {
			if !sleepOrCancel(ctx, pageRetryDelay) {
				break
			}
			continue
		}
	}

	switch {
	case !gotResponse:
		classify = &domain.BlogResult{Kind: domain.BlogNotFound}
		return
	case lastStatus == http.StatusNotFound:
		classify = &domain.BlogResult{Kind: domain.BlogNotFound}
		return
	case lastStatus == http.StatusUnauthorized:
		classify = &domain.BlogResult{Kind: domain.BlogPrivate}
		return
	case lastStatus != http.StatusOK:
		classify = &domain.BlogResult{Kind: domain.BlogOtherError}
		return
	}

	var parsed feedResponse
	if jsonErr := json.Unmarshal(lastBody, &parsed); jsonErr != nil {
		classify = &domain.BlogResult{Kind: domain.BlogTooManyPosts}
		return
	}

	var raw map[string]json.RawMessage
	_ = json.Unmarshal(lastBody, &raw)
	var feedRaw map[string]json.RawMessage
	if feedBytes, ok := raw["feed"]; ok {
		_ = json.Unmarshal(feedBytes, &feedRaw)
		_, hasEntry = feedRaw["entry"]
	}

	entries = make([]string, 0, len(parsed.Feed.Entry))
	for _, entry := range parsed.Feed.Entry {
		if len(entry.Link) == 0 {
			continue
		}
		entries = append(entries, entry.Link[len(entry.Link)-1].Href)
	}

	status = lastStatus
	return
}

func sleepOrCancel(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
