// Package domain holds the shared value types passed between worker
// components: batch descriptors and blog classification results.
package domain

// WorkerVersion is the authoritative worker protocol version written
// into every blog record and sent with every batch upload. The original
// source assigned this constant twice (1, then 3); the later value is
// the one actually shipped.
const WorkerVersion = 3

// BatchType distinguishes the two ways a coordinator can describe a
// batch's contents.
type BatchType string

const (
	BatchTypeList   BatchType = "list"
	BatchTypeDomain BatchType = "domain"
)

// BatchStatus is the terminal status reported via UpdateStatus.
type BatchStatus string

const (
	BatchStatusComplete BatchStatus = "c"
	BatchStatusFailed   BatchStatus = "f"
)

// BlogStatusTag is the single-letter (or __i) tag written to the batch
// artifact for each blog processed.
type BlogStatusTag string

const (
	BlogStatusAccessible  BlogStatusTag = "a"
	BlogStatusDeleted     BlogStatusTag = "d"
	BlogStatusPrivate     BlogStatusTag = "p"
	BlogStatusExclusion   BlogStatusTag = "e"
	BlogStatusInvestigate BlogStatusTag = "__i"
)

// BatchDescriptor is the immutable assignment handed out by the
// coordinator for one batch.
type BatchDescriptor struct {
	BatchID        int64
	RandomKey      int64
	BatchType      BatchType
	Content        string // single blog name, BatchTypeDomain only
	BatchSize      int    // number of blog names to consume, BatchTypeList only
	FileOffset     int64  // byte offset into the master domains file
	ExclusionLimit int    // 0 disables the limit
	WorkerVersion  int
}

// BlogResultKind tags the variant carried by BlogResult.
type BlogResultKind int

const (
	BlogAccessible BlogResultKind = iota
	BlogNotFound
	BlogPrivate
	BlogOtherError
	BlogTooManyPosts
	BlogNoEntries
)

func (k BlogResultKind) String() string {
	switch k {
	case BlogAccessible:
		return "accessible"
	case BlogNotFound:
		return "not_found"
	case BlogPrivate:
		return "private"
	case BlogOtherError:
		return "other_error"
	case BlogTooManyPosts:
		return "too_many_posts"
	case BlogNoEntries:
		return "no_entries"
	default:
		return "unknown"
	}
}

// BlogResult is the outcome of a FeedFetcher run for one blog. Posts is
// only meaningful when Kind == BlogAccessible.
type BlogResult struct {
	Kind  BlogResultKind
	Posts []string
}
