package batch

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/jonesrussell/blogvault/internal/domain"
)

type postRecord struct {
	URL         string          `json:"url"`
	Comments    json.RawMessage `json:"comments"`
	IsFirstPost bool            `json:"is_first_post"`
}

type blogRecord struct {
	WorkerVersion   int                  `json:"worker_version"`
	BlogName        string               `json:"blog_name"`
	CanonicalDomain string               `json:"canonical_domain"`
	Status          domain.BlogStatusTag `json:"status"`
	IsFirstBlog     bool                 `json:"is_first_blog"`
	Posts           []postRecord         `json:"posts"`
}

// GzipWriter is the reference Writer implementation: one
// newline-delimited JSON record per blog, gzip-compressed on disk,
// matching the upload endpoint's application/x-gzip expectation.
type GzipWriter struct {
	dir      string
	fileName string

	mu      sync.Mutex
	f       *os.File
	gz      *gzip.Writer
	current *blogRecord
	ended   bool
}

// NewGzipWriter creates the batch artifact file for batchID under dir.
// A short random suffix disambiguates retried attempts for the same
// batch that each open a fresh writer.
func NewGzipWriter(dir string, batchID int64) (*GzipWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create batch output directory %q: %w", dir, err)
	}

	fileName := fmt.Sprintf("batch_%d_%s.ndjson.gz", batchID, uuid.New().String()[:8])
	f, err := os.Create(filepath.Join(dir, fileName))
	if err != nil {
		return nil, fmt.Errorf("create batch file %q: %w", fileName, err)
	}

	return &GzipWriter{
		dir:      dir,
		fileName: fileName,
		f:        f,
		gz:       gzip.NewWriter(f),
	}, nil
}

func (w *GzipWriter) Directory() string { return w.dir }
func (w *GzipWriter) FileName() string  { return w.fileName }

// Path returns the full path to the artifact file.
func (w *GzipWriter) Path() string { return filepath.Join(w.dir, w.fileName) }

func (w *GzipWriter) StartBlog(workerVersion int, blogName, canonicalDomain string, status domain.BlogStatusTag, isFirstBlog bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.current != nil {
		return fmt.Errorf("start_blog called while blog %q is still open", w.current.BlogName)
	}
	w.current = &blogRecord{
		WorkerVersion:   workerVersion,
		BlogName:        blogName,
		CanonicalDomain: canonicalDomain,
		Status:          status,
		IsFirstBlog:     isFirstBlog,
	}
	return nil
}

func (w *GzipWriter) AddBlogPost(url string, comments json.RawMessage, isFirstPost bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.current == nil {
		return fmt.Errorf("add_blog_post called with no open blog")
	}
	w.current.Posts = append(w.current.Posts, postRecord{
		URL:         url,
		Comments:    comments,
		IsFirstPost: isFirstPost,
	})
	return nil
}

func (w *GzipWriter) EndBlog() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.current == nil {
		return fmt.Errorf("end_blog called with no open blog")
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if err := enc.Encode(w.current); err != nil {
		return fmt.Errorf("encode blog record for %q: %w", w.current.BlogName, err)
	}
	if _, err := w.gz.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write blog record for %q: %w", w.current.BlogName, err)
	}

	w.current = nil
	return nil
}

func (w *GzipWriter) EndBatch() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.ended {
		return fmt.Errorf("end_batch called more than once")
	}
	w.ended = true

	if err := w.gz.Close(); err != nil {
		return fmt.Errorf("close gzip writer: %w", err)
	}
	if err := w.f.Close(); err != nil {
		return fmt.Errorf("close batch file: %w", err)
	}
	return nil
}
