// Package batch declares the append-only BatchWriter collaborator and
// provides a reference gzip/NDJSON implementation. The exact byte
// layout of the artifact is not part of the core's contract — only the
// call sequence (StartBlog/AddBlogPost/EndBlog/EndBatch) is.
package batch

import (
	"encoding/json"

	"github.com/jonesrussell/blogvault/internal/domain"
)

// Writer is the opaque, append-only batch artifact writer. Exactly one
// StartBlog/EndBlog pair per blog; AddBlogPost only legal between them;
// EndBatch exactly once.
type Writer interface {
	StartBlog(workerVersion int, blogName, canonicalDomain string, status domain.BlogStatusTag, isFirstBlog bool) error
	AddBlogPost(url string, comments json.RawMessage, isFirstPost bool) error
	EndBlog() error
	EndBatch() error
	Directory() string
	FileName() string
}
