package tracker_test

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"vaultmig/internal/logging"
	"vaultmig/internal/pipeline"
	"vaultmig/internal/tracker"
)

func TestSummarizeCountsOutcomes(t *testing.T) {
	trk := tracker.New(logging.NewNop())

	trk.IncrementSucceeded()
	trk.IncrementSucceeded()
	trk.AddFailed(pipeline.FailedItem{ArchiveID: "arc-1", Category: pipeline.CategoryRawFiles})
	trk.AddFailed(pipeline.FailedItem{ArchiveID: "arc-2", Category: pipeline.CategoryRawFiles})
	trk.AddFailed(pipeline.FailedItem{ArchiveID: "arc-3", Category: pipeline.CategoryValidationFailed})
	trk.AddTest(pipeline.TestItem{ArchiveID: "arc-4", Keyword: "test"})
	trk.AddNotify(pipeline.NotifyItem{Reason: "Double-barrelled name"})

	summary := trk.Summarize()
	if summary.Succeeded != 2 || summary.Failed != 3 || summary.Tests != 1 || summary.Notifies != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.FailuresByCategory[pipeline.CategoryRawFiles] != 2 {
		t.Fatalf("unexpected category counts: %v", summary.FailuresByCategory)
	}
	if len(summary.FailureCategoryKeys) != 2 {
		t.Fatalf("expected 2 category keys, got %v", summary.FailureCategoryKeys)
	}
	// Keys come back sorted for stable report output.
	if summary.FailureCategoryKeys[0] != pipeline.CategoryRawFiles {
		t.Fatalf("unexpected key order: %v", summary.FailureCategoryKeys)
	}
}

func TestConcurrentAppends(t *testing.T) {
	trk := tracker.New(logging.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				trk.IncrementSucceeded()
				trk.AddFailed(pipeline.FailedItem{ArchiveID: "arc", Category: pipeline.CategoryGeneralError})
				trk.AddNotify(pipeline.NotifyItem{Reason: "review"})
			}
		}()
	}
	wg.Wait()

	summary := trk.Summarize()
	if summary.Succeeded != 400 || summary.Failed != 400 || summary.Notifies != 400 {
		t.Fatalf("lost updates under concurrency: %+v", summary)
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	trk := tracker.New(logging.NewNop())
	trk.AddFailed(pipeline.FailedItem{ArchiveID: "arc-1", Category: pipeline.CategoryTest})

	failed := trk.Failed()
	failed[0].ArchiveID = "mutated"
	if trk.Failed()[0].ArchiveID != "arc-1" {
		t.Fatal("expected Failed to return a copy")
	}
}

func TestWriteReports(t *testing.T) {
	trk := tracker.New(logging.NewNop())
	trk.AddFailed(pipeline.FailedItem{
		ArchiveID:   "arc-1",
		ArchiveName: "broken archive",
		Category:    pipeline.CategoryInvalidFormat,
		Message:     "no layout matched",
	})
	trk.AddTest(pipeline.TestItem{
		ArchiveID:   "arc-2",
		ArchiveName: "test archive",
		Reason:      "archive name matched a test keyword",
		Keyword:     "test",
	})
	trk.AddNotify(pipeline.NotifyItem{
		Reason: "Invalid case reference length",
		Recording: pipeline.ProcessedRecording{
			ArchiveID:     "arc-3",
			CaseReference: "SHORT",
			IsPreferred:   true,
		},
	})

	dir := filepath.Join(t.TempDir(), "reports")
	if err := trk.WriteReports(dir); err != nil {
		t.Fatalf("WriteReports returned error: %v", err)
	}

	rows := readCSV(t, filepath.Join(dir, "failed_items.csv"))
	if len(rows) != 2 {
		t.Fatalf("expected header plus one failed row, got %d rows", len(rows))
	}
	if rows[1][0] != "arc-1" || rows[1][2] != "Invalid_Format" {
		t.Fatalf("unexpected failed row: %v", rows[1])
	}

	rows = readCSV(t, filepath.Join(dir, "test_items.csv"))
	if len(rows) != 2 || rows[1][3] != "test" {
		t.Fatalf("unexpected test rows: %v", rows)
	}

	rows = readCSV(t, filepath.Join(dir, "notify_items.csv"))
	if len(rows) != 2 || rows[1][2] != "Invalid case reference length" || rows[1][5] != "true" {
		t.Fatalf("unexpected notify rows: %v", rows)
	}
}

func TestWriteReportsEmptyRunStillWritesHeaders(t *testing.T) {
	trk := tracker.New(logging.NewNop())

	dir := t.TempDir()
	if err := trk.WriteReports(dir); err != nil {
		t.Fatalf("WriteReports returned error: %v", err)
	}
	for _, name := range []string{"failed_items.csv", "test_items.csv", "notify_items.csv"} {
		rows := readCSV(t, filepath.Join(dir, name))
		if len(rows) != 1 {
			t.Fatalf("expected header-only %s, got %d rows", name, len(rows))
		}
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}
