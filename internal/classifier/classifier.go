// Package classifier implements BlogClassifier: the per-blog dispatcher
// that runs the feed fetch, interprets its result, drives a PostPool
// for accessible blogs, and emits the blog's batch record.
package classifier

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jonesrussell/blogvault/internal/batch"
	"github.com/jonesrussell/blogvault/internal/comments"
	"github.com/jonesrussell/blogvault/internal/coordinator"
	"github.com/jonesrussell/blogvault/internal/domain"
	"github.com/jonesrussell/blogvault/internal/errorsx"
	"github.com/jonesrussell/blogvault/internal/feed"
	"github.com/jonesrussell/blogvault/internal/logger"
	"github.com/jonesrussell/blogvault/internal/pool"
)

// StatusRecorder receives a classification outcome per blog, keyed by
// status tag, for operational visibility.
type StatusRecorder interface {
	RecordBlogStatus(tag domain.BlogStatusTag)
}

// Classifier dispatches one blog at a time.
type Classifier struct {
	Feed        *feed.Fetcher
	Coordinator *coordinator.Client
	Fetcher     comments.Fetcher
	Log         logger.Logger
	Metrics     StatusRecorder
	PoolMetrics pool.MetricsRecorder

	PoolWorkerCount int
}

// blogURL synthesizes the default feed base URL for blogName.
func blogURL(blogName string) string {
	return fmt.Sprintf("https://%s.blogspot.com", blogName)
}

// fixEmptyHostURLs substitutes the synthesized blog host for any post
// URL the feed returned with the literal empty-host prefix "https:///"
// — a data quirk of the hosting platform.
func fixEmptyHostURLs(posts []string, blogName string) []string {
	fixed := make([]string, len(posts))
	synth := blogURL(blogName)
	for i, p := range posts {
		if strings.HasPrefix(p, "https:///") {
			fixed[i] = synth + strings.TrimPrefix(p, "https://")
		} else {
			fixed[i] = p
		}
	}
	return fixed
}

// canonicalDomain returns the host of the first post URL.
func canonicalDomain(posts []string) (string, error) {
	u, err := url.Parse(posts[0])
	if err != nil {
		return "", fmt.Errorf("parse first post URL %q: %w", posts[0], err)
	}
	return u.Host, nil
}

// ClassifyBlog runs the full per-blog algorithm from the spec: feed
// fetch, status dispatch, coordinator submission, and (for accessible
// blogs) a PostPool run over the post URLs.
func (c *Classifier) ClassifyBlog(ctx context.Context, workerID string, b *domain.BatchDescriptor, writer batch.Writer, blogName string, isFirstBlog bool) error {
	result := c.Feed.Fetch(ctx, blogURL(blogName), b.ExclusionLimit)
	if c.Metrics != nil {
		c.Metrics.RecordBlogStatus(statusTagFor(result.Kind, b.BatchType))
	}

	switch result.Kind {
	case domain.BlogNotFound:
		if err := c.Coordinator.SubmitDeleted(ctx, workerID, b, blogName); err != nil {
			return errorsx.Wrapf(err, "submit deleted for %q", blogName)
		}
		return emptyRecord(writer, blogName, domain.BlogStatusDeleted, isFirstBlog)

	case domain.BlogPrivate:
		if err := c.Coordinator.SubmitPrivate(ctx, workerID, b, blogName); err != nil {
			return errorsx.Wrapf(err, "submit private for %q", blogName)
		}
		return emptyRecord(writer, blogName, domain.BlogStatusPrivate, isFirstBlog)

	case domain.BlogOtherError, domain.BlogTooManyPosts:
		if b.BatchType == domain.BatchTypeList {
			if err := c.Coordinator.SubmitExclusion(ctx, workerID, b, blogName); err != nil {
				return errorsx.Wrapf(err, "submit exclusion for %q", blogName)
			}
			return emptyRecord(writer, blogName, domain.BlogStatusExclusion, isFirstBlog)
		}
		return emptyRecord(writer, blogName, domain.BlogStatusInvestigate, isFirstBlog)

	case domain.BlogNoEntries:
		return emptyRecord(writer, blogName, domain.BlogStatusAccessible, isFirstBlog)

	case domain.BlogAccessible:
		return c.classifyAccessible(ctx, workerID, b, writer, blogName, isFirstBlog, result.Posts)

	default:
		return fmt.Errorf("unhandled blog result kind %v for %q", result.Kind, blogName)
	}
}

func (c *Classifier) classifyAccessible(ctx context.Context, workerID string, b *domain.BatchDescriptor, writer batch.Writer, blogName string, isFirstBlog bool, posts []string) error {
	if len(posts) == 0 {
		return emptyRecord(writer, blogName, domain.BlogStatusAccessible, isFirstBlog)
	}

	canonical, err := canonicalDomain(posts)
	if err != nil {
		return err
	}

	synthesized := blogName + ".blogspot.com"
	if canonical != synthesized {
		if err := c.Coordinator.SubmitDomain(ctx, workerID, b, blogName, canonical); err != nil {
			return errorsx.Wrapf(err, "submit domain for %q", blogName)
		}
	}

	if err := writer.StartBlog(domain.WorkerVersion, blogName, canonical, domain.BlogStatusAccessible, isFirstBlog); err != nil {
		return errorsx.Wrapf(err, "start blog %q", blogName)
	}

	p := pool.New(pool.Config{
		BlogName:    blogName,
		Posts:       fixEmptyHostURLs(posts, blogName),
		WorkerCount: c.PoolWorkerCount,
		Writer:      writer,
		Fetcher:     c.Fetcher,
		Log:         c.Log,
		Metrics:     c.PoolMetrics,
	})
	p.Run(ctx)

	if err := writer.EndBlog(); err != nil {
		return errorsx.Wrapf(err, "end blog %q", blogName)
	}
	return nil
}

func emptyRecord(writer batch.Writer, blogName string, status domain.BlogStatusTag, isFirstBlog bool) error {
	if err := writer.StartBlog(domain.WorkerVersion, blogName, "", status, isFirstBlog); err != nil {
		return errorsx.Wrapf(err, "start blog %q", blogName)
	}
	return writer.EndBlog()
}

func statusTagFor(kind domain.BlogResultKind, batchType domain.BatchType) domain.BlogStatusTag {
	switch kind {
	case domain.BlogNotFound:
		return domain.BlogStatusDeleted
	case domain.BlogPrivate:
		return domain.BlogStatusPrivate
	case domain.BlogOtherError, domain.BlogTooManyPosts:
		if batchType == domain.BatchTypeList {
			return domain.BlogStatusExclusion
		}
		return domain.BlogStatusInvestigate
	default:
		return domain.BlogStatusAccessible
	}
}
