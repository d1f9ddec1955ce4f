package runner_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"

	"vaultmig/internal/config"
	"vaultmig/internal/extraction"
	"vaultmig/internal/logging"
	"vaultmig/internal/processor"
	"vaultmig/internal/records"
	"vaultmig/internal/refcache"
	"vaultmig/internal/refdata"
	"vaultmig/internal/runner"
	"vaultmig/internal/testsupport"
	"vaultmig/internal/tracker"
	"vaultmig/internal/transform"
	"vaultmig/internal/validation"
)

type fixture struct {
	cfg     *config.Config
	runner  *runner.Runner
	store   *records.Store
	tracker *tracker.Tracker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	logger := logging.NewNop()

	store, err := records.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	cache, err := refcache.Open(cfg.Paths.CacheFile, logger)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}

	ingestor := refdata.NewIngestor(logger)
	trk := tracker.New(logger)
	proc := processor.New(
		store,
		cache,
		ingestor,
		extraction.NewService(cfg, ingestor, logger),
		transform.NewService(cfg, cache, logger),
		validation.NewService(logger),
		trk,
		logger,
	)

	return &fixture{
		cfg:     cfg,
		runner:  runner.New(cfg, proc, trk, logger),
		store:   store,
		tracker: trk,
	}
}

func (f *fixture) seedRecording(t *testing.T, id, name string) *records.Record {
	t.Helper()
	rec, err := f.store.Ensure(context.Background(), &records.Record{
		ArchiveID:       id,
		ArchiveName:     name,
		FileName:        "recording.mp4",
		DurationSeconds: 1800,
		FileSizeMB:      512,
	})
	if err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
	return rec
}

func TestRunProcessesBatch(t *testing.T) {
	f := newFixture(t)

	items := []any{
		refdata.SiteRow{SiteReference: "ABC", CourtName: "Crown Court A", CourtID: "court-1"},
		refdata.ChannelRow{ChannelName: "court-a", ChannelUser: "Clerk"},
	}
	for i := 0; i < 6; i++ {
		id := fmt.Sprintf("arc-%d", i)
		name := fmt.Sprintf("ABC-CD1234567%d-EXH001_John Smith_Jane Doe_ORIG_2", i)
		items = append(items, f.seedRecording(t, id, name))
	}

	summary, err := f.runner.Run(context.Background(), items)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.ReferenceItems != 2 || summary.RecordingItems != 6 {
		t.Fatalf("unexpected partition: %+v", summary)
	}
	if summary.RunID == "" {
		t.Fatal("expected a run id")
	}
	if len(summary.Groups) != 6 {
		t.Fatalf("expected 6 migrated groups, got %d", len(summary.Groups))
	}
	if summary.Tracker.Succeeded != 6 || summary.Tracker.Failed != 0 {
		t.Fatalf("unexpected tracker summary: %+v", summary.Tracker)
	}
}

func TestRunReferenceDataPrecedesRecordings(t *testing.T) {
	f := newFixture(t)

	// The recording item is listed before the site row; ordering in the
	// batch must not matter because reference data drains first.
	rec := f.seedRecording(t, "arc-1", "ABC-CD12345678-EXH001_John Smith_Jane Doe_ORIG_2")
	items := []any{
		rec,
		refdata.SiteRow{SiteReference: "ABC", CourtName: "Crown Court A", CourtID: "court-1"},
	}

	summary, err := f.runner.Run(context.Background(), items)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Tracker.Succeeded != 1 {
		t.Fatalf("expected the recording to resolve its site, got %+v", summary.Tracker)
	}
}

func TestRunMixedOutcomes(t *testing.T) {
	f := newFixture(t)

	items := []any{
		refdata.SiteRow{SiteReference: "ABC", CourtName: "Crown Court A", CourtID: "court-1"},
		f.seedRecording(t, "arc-ok", "ABC-CD12345678-EXH001_John Smith_Jane Doe_ORIG_2"),
		f.seedRecording(t, "arc-bad", "no layout here"),
		f.seedRecording(t, "arc-test", "ABC-CD12345679-EXH001_John Smith_Jane Doe_ORIG_2 TEST"),
	}

	summary, err := f.runner.Run(context.Background(), items)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Tracker.Succeeded != 1 || summary.Tracker.Failed != 1 || summary.Tracker.Tests != 1 {
		t.Fatalf("unexpected outcomes: %+v", summary.Tracker)
	}
}

func TestRunRejectsConcurrentRuns(t *testing.T) {
	f := newFixture(t)

	lock := flock.New(filepath.Join(f.cfg.Paths.DataDir, "run.lock"))
	locked, err := lock.TryLock()
	if err != nil || !locked {
		t.Fatalf("could not take run lock: locked=%v err=%v", locked, err)
	}
	defer func() { _ = lock.Unlock() }()

	if _, err := f.runner.Run(context.Background(), nil); !errors.Is(err, runner.ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}
}

func TestRunCancelledContext(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := []any{
		f.seedRecording(t, "arc-1", "CD12345678_EXH001_John Smith_Jane Doe_ORIG_2"),
	}
	summary, err := f.runner.Run(ctx, items)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if summary == nil {
		t.Fatal("expected a summary for the partial run")
	}
	if summary.Tracker.Succeeded != 0 {
		t.Fatalf("cancelled run must not start new items, got %+v", summary.Tracker)
	}
}
