// Package pool implements PostPool: an N-worker pool that drains a
// LIFO queue of post URLs, cooperatively pauses on a suspected
// rate-limit signal, and rebuilds its HTTP session exactly once per
// pause episode while keeping the same underlying transport.
//
// This is a direct, careful port of original_source/src/downloader.py's
// downloader() coroutine onto goroutines: where the Python original
// relies on single-threaded cooperative scheduling to avoid races, this
// version guards the same shared state with one mutex, and paused
// workers poll on a fixed interval rather than blocking on a signal —
// mirroring the original's own asyncio.sleep(5) poll loop.
package pool

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/jonesrussell/blogvault/internal/batch"
	"github.com/jonesrussell/blogvault/internal/comments"
	"github.com/jonesrussell/blogvault/internal/domain"
	"github.com/jonesrussell/blogvault/internal/httpclient"
	"github.com/jonesrussell/blogvault/internal/logger"
)

const (
	defaultWorkerCount = 10
	pauseCheckDelay    = 5 * time.Second
	sessionRebuildDelay = 1 * time.Second
	transportErrorDelay = 5 * time.Second
	progressEvery       = 20
)

// MetricsRecorder receives diagnostic counters from the pool. All
// methods must be safe for concurrent use. A nil MetricsRecorder is
// valid; Pool treats every call as a no-op in that case.
type MetricsRecorder interface {
	RecordSessionRebuild()
	RecordPostDownloaded()
	RecordPause()
}

// Config configures one PostPool run, scoped to a single accessible blog.
type Config struct {
	BlogName     string
	Posts        []string
	WorkerCount  int
	StartingPost int

	Writer  batch.Writer
	Fetcher comments.Fetcher
	Log     logger.Logger
	Metrics MetricsRecorder
}

// Pool is a transient set of N cooperating download workers bound to
// one accessible blog.
type Pool struct {
	cfg Config
	log logger.Logger

	mu sync.Mutex

	queue []string
	total int

	postsFinished     int
	firstPostClaimed  bool
	workersFinished   int
	workersPaused     int
	shouldPause       bool
	restartingSession bool

	transport *http.Transport
	session   *http.Client

	startedAt time.Time
}

// New builds a Pool ready to Run.
func New(cfg Config) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = defaultWorkerCount
	}
	if cfg.Log == nil {
		cfg.Log = logger.NewNop()
	}

	queue := make([]string, len(cfg.Posts)-cfg.StartingPost)
	copy(queue, cfg.Posts[cfg.StartingPost:])

	transport := httpclient.NewTransport()

	p := &Pool{
		cfg:       cfg,
		log:       cfg.Log.With(logger.String("blog", cfg.BlogName)),
		queue:     queue,
		total:     len(cfg.Posts),
		transport: transport,
		session:   httpclient.NewSession(transport),
	}
	return p
}

// Run blocks until every post is stored or permanently abandoned (by
// fatal process exit, which never returns here), or until ctx is
// cancelled, in which case posts still queued are left unstored. It is
// safe to call exactly once per Pool.
func (p *Pool) Run(ctx context.Context) {
	p.startedAt = time.Now()

	var wg sync.WaitGroup
	for i := 0; i < p.cfg.WorkerCount; i++ {
		wg.Add(1)
		name := fmt.Sprintf("downloader-%02d", i)
		go func() {
			defer wg.Done()
			p.workerLoop(ctx, name)
		}()
	}
	wg.Wait()
}

func (p *Pool) workerLoop(ctx context.Context, name string) {
	paused := false

	for {
		p.mu.Lock()

		if len(p.queue) == 0 || ctx.Err() != nil {
			p.workersFinished++
			p.mu.Unlock()
			return
		}

		if p.shouldPause || (p.cfg.StartingPost+p.postsFinished >= p.total) {
			if !paused {
				paused = true
				p.workersPaused++
			}
			p.maybeStartRebuildLocked(ctx, name)
			p.mu.Unlock()

			if !sleepCtx(ctx, pauseCheckDelay) {
				p.mu.Lock()
				p.workersFinished++
				p.mu.Unlock()
				return
			}
			continue
		}

		if paused {
			paused = false
			p.workersPaused--
		}

		url := p.queue[len(p.queue)-1]
		p.queue = p.queue[:len(p.queue)-1]
		session := p.session
		p.mu.Unlock()

		p.downloadPost(ctx, name, url, session)
	}
}

// maybeStartRebuildLocked checks the barrier condition and, if this
// worker is the last to pause, performs the session rebuild. Must be
// called with p.mu held; it releases and reacquires the lock around
// the blocking rebuild work.
func (p *Pool) maybeStartRebuildLocked(ctx context.Context, name string) {
	if !(p.shouldPause && !p.restartingSession && p.workersPaused >= p.cfg.WorkerCount-p.workersFinished) {
		return
	}
	p.restartingSession = true
	p.mu.Unlock()

	p.log.Warn("rate limit suspected, rebuilding session", logger.String("worker", name))
	sleepCtx(ctx, sessionRebuildDelay)
	newSession := httpclient.NewSession(p.transport)

	p.mu.Lock()
	p.session = newSession
	p.shouldPause = false
	p.restartingSession = false
	if p.cfg.Metrics != nil {
		p.cfg.Metrics.RecordSessionRebuild()
	}
}

func (p *Pool) downloadPost(ctx context.Context, name, url string, session *http.Client) {
	payload, err := p.cfg.Fetcher.FetchComments(ctx, session, url, comments.DefaultOptions)
	if err != nil {
		switch classifyPostError(err) {
		case errClassSoftBlock:
			p.log.Warn("soft block detected, requeueing and pausing", logger.String("url", url))
			p.mu.Lock()
			p.queue = append(p.queue, url)
			p.shouldPause = true
			p.mu.Unlock()
			if p.cfg.Metrics != nil {
				p.cfg.Metrics.RecordPause()
			}
			return

		case errClassTransport:
			p.log.Warn("transport error, requeueing", logger.String("url", url), logger.Error(err))
			sleepCtx(ctx, transportErrorDelay)
			p.mu.Lock()
			p.queue = append(p.queue, url)
			p.mu.Unlock()
			return

		default:
			p.log.Fatal("unrecoverable error downloading post, crashing per pool protocol",
				logger.String("url", url), logger.Error(err))
			return
		}
	}

	p.mu.Lock()
	isFirstPost := !p.firstPostClaimed
	if isFirstPost {
		p.firstPostClaimed = true
	}
	p.postsFinished++
	finished := p.postsFinished
	shouldLog := finished%progressEvery == 0 || p.shouldPause || p.restartingSession
	p.mu.Unlock()

	if err := p.cfg.Writer.AddBlogPost(url, payload, isFirstPost); err != nil {
		p.log.Fatal("failed writing post to batch artifact", logger.String("url", url), logger.Error(err))
		return
	}

	if p.cfg.Metrics != nil {
		p.cfg.Metrics.RecordPostDownloaded()
	}

	if shouldLog {
		p.log.Info("download progress",
			logger.String("worker", name),
			logger.String("batch_file", p.cfg.Writer.FileName()),
			logger.Int("post_index", finished),
			logger.Int("total", p.total),
			logger.Duration("elapsed", time.Since(p.startedAt)),
		)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
