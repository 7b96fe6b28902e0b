// Package supervisor wires together one worker process: it optionally
// takes a distributed lock, starts the admin HTTP server, and fans out
// BatchDownloaderCount BatchRunner goroutines, each with its own worker
// identity from the coordinator. The lock uses one fixed Redis key, not
// a per-identity key, so only one Supervisor per Redis instance runs at
// a time.
package supervisor

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/blogvault/internal/adminserver"
	"github.com/jonesrussell/blogvault/internal/batch"
	"github.com/jonesrussell/blogvault/internal/classifier"
	"github.com/jonesrussell/blogvault/internal/config"
	"github.com/jonesrussell/blogvault/internal/comments"
	"github.com/jonesrussell/blogvault/internal/coordination"
	"github.com/jonesrussell/blogvault/internal/coordinator"
	"github.com/jonesrussell/blogvault/internal/feed"
	"github.com/jonesrussell/blogvault/internal/httpclient"
	"github.com/jonesrussell/blogvault/internal/logger"
	"github.com/jonesrussell/blogvault/internal/metrics"
	"github.com/jonesrussell/blogvault/internal/runner"
	"github.com/jonesrussell/blogvault/internal/uploader"
)

// killSwitch is the runner.KillSwitch implementation backed by a
// context: the worker is "killed" the moment ctx is cancelled, so kill
// checks at blog boundaries observe the same signal as the outer
// select loops.
type killSwitch struct {
	ctx context.Context
}

func (k killSwitch) Killed() bool { return k.ctx.Err() != nil }

// lockExtendInterval is how often Run refreshes the worker identity
// lock's TTL while the process is alive. It must be comfortably
// shorter than coordination.DefaultLockTTL so a missed tick or two
// never lets the lock expire out from under a still-running worker.
const lockExtendInterval = 10 * time.Second

// Supervisor owns process-level dependencies shared by every
// BatchRunner: the coordinator client, metrics registry, admin server,
// and (optionally) the Redis lock guarding the worker identity.
type Supervisor struct {
	cfg         config.Config
	log         logger.Logger
	fetcher     comments.Fetcher
	metrics     *metrics.WorkerMetrics
	admin       *adminserver.Server
	lock        coordination.Locker
	coordinator *coordinator.Client
	uploader    *uploader.Client
	session     *http.Client
}

// New builds a Supervisor. fetcher is the CommentFetcher implementation
// PostPool instances use; it is out of scope for this repo (see
// internal/comments) so callers must supply one.
func New(cfg config.Config, log logger.Logger, fetcher comments.Fetcher) *Supervisor {
	m := metrics.New(nil)

	session := httpclient.NewDefaultClient(cfg.RequestTimeout)

	up := uploader.New(cfg.UploadBaseURL, session, log)

	var lock coordination.Locker = coordination.NoopLock{}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		lock = coordination.NewDistributedLock(client, "blogvault:worker-identity", coordination.DefaultLockConfig())
	}

	coord := coordinator.NewClient(cfg.CoordinatorBaseURL, session, log, coordinator.WithOnExhausted(func(ctx context.Context, lastErr error) {
		m.RecordRetryExhausted()
		log.Fatal("retry budget exhausted, crashing per coordinator protocol", logger.Error(lastErr))
	}))

	return &Supervisor{
		cfg:         cfg,
		log:         log,
		fetcher:     fetcher,
		metrics:     m,
		admin:       adminserver.New(cfg.AdminAddr, log),
		lock:        lock,
		coordinator: coord,
		uploader:    up,
		session:     session,
	}
}

// Run starts the admin server and BatchDownloaderCount BatchRunners,
// blocking until ctx is cancelled and every runner has exited, and then
// returns ctx.Err().
func (s *Supervisor) Run(ctx context.Context) error {
	if err := s.lock.Lock(ctx); err != nil {
		return fmt.Errorf("acquire worker identity lock: %w", err)
	}
	defer func() {
		unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.lock.Unlock(unlockCtx); err != nil {
			s.log.Warn("failed releasing worker identity lock", logger.Error(err))
		}
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.admin.Start(ctx); err != nil {
			s.log.Error("admin server exited with error", logger.Error(err))
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.extendLockPeriodically(ctx)
	}()

	for i := 0; i < s.cfg.BatchDownloaderCount; i++ {
		workerID, err := s.coordinator.GetID(ctx)
		if err != nil {
			return fmt.Errorf("get worker id: %w", err)
		}
		s.log.Info("acquired worker identity", logger.String("worker_id", workerID))

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runBatchRunner(ctx, workerID)
		}()
	}

	wg.Wait()
	return ctx.Err()
}

// extendLockPeriodically keeps the worker identity lock's TTL pushed
// forward for as long as the process runs, so a long-lived worker
// never loses its lock to a competing Supervisor mid-run.
func (s *Supervisor) extendLockPeriodically(ctx context.Context) {
	ticker := time.NewTicker(lockExtendInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.lock.Extend(ctx, coordination.DefaultLockTTL); err != nil {
				s.log.Warn("failed extending worker identity lock", logger.Error(err))
			}
		}
	}
}

func (s *Supervisor) runBatchRunner(ctx context.Context, workerID string) {
	log := s.log.With(logger.String("worker_id", workerID))

	feedFetcher := feed.New(s.session, log)

	cls := &classifier.Classifier{
		Feed:            feedFetcher,
		Coordinator:     s.coordinator,
		Fetcher:         s.fetcher,
		Log:             log,
		Metrics:         s.metrics,
		PoolMetrics:     s.metrics,
		PoolWorkerCount: s.cfg.WorkerCount,
	}

	r := &runner.Runner{
		WorkerID:      workerID,
		Coordinator:   s.coordinator,
		Uploader:      s.uploader,
		Classifier:    cls,
		MasterDomains: s.cfg.MasterDomainsFilePath,
		OutputDir:     s.cfg.OutputDir,
		NewWriter: func(outputDir string, batchID int64) (batch.Writer, error) {
			return batch.NewGzipWriter(outputDir, batchID)
		},
		Kill:    killSwitch{ctx: ctx},
		Metrics: s.metrics,
		Log:     log,
	}

	if err := r.Run(ctx); err != nil {
		log.Error("batch runner exited with error", logger.Error(err))
	}
}

