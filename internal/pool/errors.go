package pool

import (
	"errors"

	"github.com/jonesrussell/blogvault/internal/comments"
)

type postErrorClass int

const (
	errClassFatal postErrorClass = iota
	errClassSoftBlock
	errClassTransport
)

// classifyPostError maps a CommentFetcher error onto the failure
// taxonomy from the spec: soft block (requeue + pause), transport
// error (requeue + 5s delay), or anything else (fatal).
func classifyPostError(err error) postErrorClass {
	switch {
	case errors.Is(err, comments.ErrSoftBlock):
		return errClassSoftBlock
	case errors.Is(err, comments.ErrTransport):
		return errClassTransport
	default:
		return errClassFatal
	}
}
