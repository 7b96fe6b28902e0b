// Package comments declares the CommentFetcher collaborator. Its
// implementation (feed/JSON parsing of an individual post's comment
// and reply tree) is out of scope for this core: PostPool only needs
// to call it and classify the errors it returns.
package comments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

// ErrSoftBlock is returned by a Fetcher implementation when the
// platform returned a non-JSON or otherwise unparseable body where
// JSON was expected — interpreted by PostPool as a soft rate-limit
// signal rather than a download failure.
var ErrSoftBlock = errors.New("comment fetch: soft block (unparseable response)")

// ErrTransport is returned for connection resets, timeouts,
// disconnects, and similarly transient transport-level failures.
var ErrTransport = errors.New("comment fetch: transport error")

// FetchOptions mirrors the fixed call-site options PostPool always
// passes: every page, with replies, with plus-ones on both comments
// and replies.
type FetchOptions struct {
	AllPages                    bool
	IncludeReplies              bool
	IncludePlusOnesForComments  bool
	IncludePlusOnesForReplies   bool
}

// DefaultOptions is the fixed option set PostPool uses for every call.
var DefaultOptions = FetchOptions{
	AllPages:                   true,
	IncludeReplies:             true,
	IncludePlusOnesForComments: true,
	IncludePlusOnesForReplies:  true,
}

// Fetcher fetches the comment and reply tree for a single post URL.
// The returned payload is opaque to PostPool; it is handed directly to
// BatchWriter.AddBlogPost.
type Fetcher interface {
	FetchComments(ctx context.Context, session *http.Client, url string, opts FetchOptions) (json.RawMessage, error)
}
