// Package runner implements BatchRunner: the outer per-worker loop
// that requests a batch, drives the classifier over its blogs, and
// finalizes, uploads, and reports the result.
package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jonesrussell/blogvault/internal/batch"
	"github.com/jonesrussell/blogvault/internal/classifier"
	"github.com/jonesrussell/blogvault/internal/coordinator"
	"github.com/jonesrussell/blogvault/internal/domain"
	"github.com/jonesrussell/blogvault/internal/domainsource"
	"github.com/jonesrussell/blogvault/internal/errorsx"
	"github.com/jonesrussell/blogvault/internal/logger"
	"github.com/jonesrussell/blogvault/internal/uploader"
)

const (
	betweenBatchesDelay = 10 * time.Second
	maxBatchAttempts    = 3
)

// WriterFactory builds a fresh batch.Writer for one batch, named by
// batchID, rooted at outputDir.
type WriterFactory func(outputDir string, batchID int64) (batch.Writer, error)

// KillSwitch reports whether a graceful shutdown has been requested.
// Checked at blog boundaries, never mid-download.
type KillSwitch interface {
	Killed() bool
}

// BatchMetricsRecorder receives the terminal status of each finalized
// batch, for operational visibility.
type BatchMetricsRecorder interface {
	RecordBatchCompleted(status domain.BatchStatus)
}

// Runner drives one worker identity through a continuous sequence of
// batches until its context is cancelled.
type Runner struct {
	WorkerID      string
	Coordinator   *coordinator.Client
	Uploader      *uploader.Client
	Classifier    *classifier.Classifier
	MasterDomains string
	OutputDir     string
	NewWriter     WriterFactory
	Kill          KillSwitch
	Metrics       BatchMetricsRecorder
	Log           logger.Logger
}

// Run blocks, processing batches back to back, until ctx is cancelled.
// It never returns on its own in production; it returns nil only when
// ctx.Err() != nil, so callers treat any other return path as a bug.
func (r *Runner) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		b, err := r.Coordinator.GetBatch(ctx, r.WorkerID)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errorsx.Wrap(err, "get batch")
		}

		for attempt := 1; attempt <= maxBatchAttempts; attempt++ {
			err := r.RunBatch(ctx, b)
			if err == nil {
				break
			}
			r.Log.Error("batch failed", logger.Int64("batch_id", b.BatchID), logger.Int("attempt", attempt), logger.Error(err))
			if !sleepCtx(ctx, betweenBatchesDelay) {
				return nil
			}
		}

		if !sleepCtx(ctx, betweenBatchesDelay) {
			return nil
		}
	}
}

// RunBatch executes one full batch: classify every blog it names,
// finalize and upload the artifact, and report terminal status.
func (r *Runner) RunBatch(ctx context.Context, b *domain.BatchDescriptor) error {
	log := r.Log.With(logger.Int64("batch_id", b.BatchID), logger.String("worker_id", r.WorkerID))

	writer, err := r.NewWriter(r.OutputDir, b.BatchID)
	if err != nil {
		return errorsx.Wrap(err, "create batch writer")
	}

	if r.Kill != nil && r.Kill.Killed() {
		log.Warn("graceful kill requested before batch started, reporting failure")
		if r.Metrics != nil {
			r.Metrics.RecordBatchCompleted(domain.BatchStatusFailed)
		}
		return r.Coordinator.UpdateStatus(context.WithoutCancel(ctx), r.WorkerID, b, domain.BatchStatusFailed)
	}

	switch b.BatchType {
	case domain.BatchTypeList:
		if err := r.runListBatch(ctx, b, writer, log); err != nil {
			return err
		}
	case domain.BatchTypeDomain:
		if b.Content == "" {
			return fmt.Errorf("domain batch %d has empty content", b.BatchID)
		}
		if err := r.Classifier.ClassifyBlog(ctx, r.WorkerID, b, writer, b.Content, true); err != nil {
			return errorsx.Wrapf(err, "classify %q", b.Content)
		}
	default:
		return fmt.Errorf("unknown batch type %q", b.BatchType)
	}

	if err := writer.EndBatch(); err != nil {
		return errorsx.Wrap(err, "end batch")
	}

	filePath := filepath.Join(writer.Directory(), writer.FileName())
	success, uploadErr := r.Uploader.SubmitBatchUnit(ctx, r.WorkerID, b.BatchID, b.RandomKey, domain.WorkerVersion, filePath, writer.FileName())
	if uploadErr != nil {
		log.Error("batch upload failed", logger.Error(uploadErr))
		success = false
	}

	status := domain.BatchStatusComplete
	if !success {
		status = domain.BatchStatusFailed
	}
	if err := r.Coordinator.UpdateStatus(ctx, r.WorkerID, b, status); err != nil {
		log.Error("failed reporting batch status", logger.Error(err))
	}
	if r.Metrics != nil {
		r.Metrics.RecordBatchCompleted(status)
	}

	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		log.Warn("failed deleting local batch artifact", logger.String("path", filePath), logger.Error(err))
	}
	return nil
}

func (r *Runner) runListBatch(ctx context.Context, b *domain.BatchDescriptor, writer batch.Writer, log logger.Logger) error {
	src, err := domainsource.Open(r.MasterDomains)
	if err != nil {
		return errorsx.Wrap(err, "open master domains file")
	}
	defer src.Close()

	names, err := src.ReadNames(b.FileOffset, b.BatchSize)
	if err != nil {
		return errorsx.Wrap(err, "read domain names")
	}

	for i, name := range names {
		if r.Kill != nil && r.Kill.Killed() {
			log.Warn("graceful kill requested mid-batch, reporting failure")
			if err := r.Coordinator.UpdateStatus(context.WithoutCancel(ctx), r.WorkerID, b, domain.BatchStatusFailed); err != nil {
				return err
			}
			return fmt.Errorf("batch %d stopped by graceful kill", b.BatchID)
		}
		if err := r.Classifier.ClassifyBlog(ctx, r.WorkerID, b, writer, name, i == 0); err != nil {
			return errorsx.Wrapf(err, "classify %q", name)
		}
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
