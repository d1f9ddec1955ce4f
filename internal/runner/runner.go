package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"vaultmig/internal/config"
	"vaultmig/internal/logging"
	"vaultmig/internal/pipeline"
	"vaultmig/internal/processor"
	"vaultmig/internal/records"
	"vaultmig/internal/refdata"
	"vaultmig/internal/tracker"
)

// ErrRunInProgress reports that another migration run holds the lock.
var ErrRunInProgress = errors.New("another migration run is already in progress")

// Summary describes the outcome of one batch run.
type Summary struct {
	RunID          string
	ReferenceItems int
	RecordingItems int
	Groups         []pipeline.MigratedItemGroup
	Tracker        tracker.Summary
	Elapsed        time.Duration
}

// Runner executes batches against a processor.
type Runner struct {
	cfg     *config.Config
	proc    *processor.Processor
	tracker *tracker.Tracker
	logger  *slog.Logger
}

// New constructs a batch runner.
func New(cfg *config.Config, proc *processor.Processor, trk *tracker.Tracker, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:     cfg,
		proc:    proc,
		tracker: trk,
		logger:  logging.NewComponentLogger(logger, "runner"),
	}
}

// Run processes every item of the batch. Reference-data items are drained
// first so the lookup tables are complete before any recording item runs;
// recording items then fan out across the worker pool. The returned
// summary is valid even when ctx is cancelled mid-batch.
func (r *Runner) Run(ctx context.Context, items []any) (*Summary, error) {
	lock := flock.New(filepath.Join(r.cfg.Paths.DataDir, "run.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return nil, ErrRunInProgress
	}
	defer func() { _ = lock.Unlock() }()

	runID := uuid.NewString()
	logger := r.logger.With(logging.String(logging.FieldRunID, runID))
	started := time.Now()

	referenceItems, recordingItems := partition(items)
	logger.Info("starting migration run",
		logging.Int("reference_items", len(referenceItems)),
		logging.Int("recording_items", len(recordingItems)),
		logging.Int("workers", r.cfg.Migration.Workers))

	for _, item := range referenceItems {
		r.proc.Process(ctx, item)
	}

	groups := r.processRecordings(ctx, recordingItems)

	summary := &Summary{
		RunID:          runID,
		ReferenceItems: len(referenceItems),
		RecordingItems: len(recordingItems),
		Groups:         groups,
		Tracker:        r.tracker.Summarize(),
		Elapsed:        time.Since(started),
	}

	logger.Info("migration run finished",
		logging.Int("migrated", len(groups)),
		logging.Int("failed", summary.Tracker.Failed),
		logging.Int("tests", summary.Tracker.Tests),
		logging.Int("notifies", summary.Tracker.Notifies),
		logging.Duration("elapsed", summary.Elapsed))

	return summary, ctx.Err()
}

func (r *Runner) processRecordings(ctx context.Context, recs []*records.Record) []pipeline.MigratedItemGroup {
	workers := r.cfg.Migration.Workers
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan *records.Record)
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		groups []pipeline.MigratedItemGroup
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				itemCtx := logging.WithRequestID(
					logging.WithArchiveID(ctx, rec.ArchiveID),
					uuid.NewString(),
				)
				if group := r.proc.Process(itemCtx, rec); group != nil {
					mu.Lock()
					groups = append(groups, *group)
					mu.Unlock()
				}
			}
		}()
	}

feed:
	for _, rec := range recs {
		if ctx.Err() != nil {
			r.logger.Warn("run cancelled; no further items will start")
			break
		}
		select {
		case <-ctx.Done():
			r.logger.Warn("run cancelled; no further items will start")
			break feed
		case jobs <- rec:
		}
	}
	close(jobs)
	wg.Wait()

	return groups
}

func partition(items []any) (reference []any, recordings []*records.Record) {
	for _, item := range items {
		switch v := item.(type) {
		case *records.Record:
			recordings = append(recordings, v)
		case refdata.SiteRow, refdata.ChannelRow:
			reference = append(reference, v)
		default:
			// Unsupported types still flow to the processor once so the
			// skip is logged in one place.
			reference = append(reference, item)
		}
	}
	return reference, recordings
}
