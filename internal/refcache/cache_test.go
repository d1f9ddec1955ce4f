package refcache_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"vaultmig/internal/logging"
	"vaultmig/internal/refcache"
)

func openCache(t *testing.T, path string) *refcache.Cache {
	t.Helper()
	cache, err := refcache.Open(path, logging.NewNop())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	return cache
}

func TestOpenMissingSnapshotStartsEmpty(t *testing.T) {
	cache := openCache(t, filepath.Join(t.TempDir(), "cache.json"))
	if cache.Count() != 0 {
		t.Fatalf("expected empty cache, got %d cases", cache.Count())
	}
}

func TestCaseLookupIsCaseInsensitive(t *testing.T) {
	cache := openCache(t, filepath.Join(t.TempDir(), "cache.json"))

	cache.PutCase(refcache.CachedCase{
		CaseReference: "  cd12345678 ",
		State:         refcache.CaseStateOpen,
	})

	entry, found := cache.GetCase("CD12345678")
	if !found {
		t.Fatal("expected case to be found by normalized reference")
	}
	if entry.CaseReference != "CD12345678" {
		t.Fatalf("expected stored reference to be normalized, got %q", entry.CaseReference)
	}
	if !entry.IsOpen() {
		t.Fatal("expected case to be open")
	}
	if entry.CachedAt.IsZero() {
		t.Fatal("expected CachedAt to be stamped")
	}
}

func TestIsOpenPerState(t *testing.T) {
	states := map[refcache.CaseState]bool{
		refcache.CaseStateOpen:           true,
		refcache.CaseStatePendingClosure: false,
		refcache.CaseStateClosed:         false,
	}
	for state, want := range states {
		entry := refcache.CachedCase{CaseReference: "X", State: state}
		if entry.IsOpen() != want {
			t.Fatalf("IsOpen for %s: got %v want %v", state, entry.IsOpen(), want)
		}
	}
}

func TestVersionObservationKeepsMaximum(t *testing.T) {
	cache := openCache(t, filepath.Join(t.TempDir(), "cache.json"))

	if _, ok := cache.LatestVersion("CASE|EXH"); ok {
		t.Fatal("expected no version for unknown group")
	}

	cache.ObserveVersion("CASE|EXH", 2)
	cache.ObserveVersion("CASE|EXH", 5)
	cache.ObserveVersion("CASE|EXH", 3)

	latest, ok := cache.LatestVersion("CASE|EXH")
	if !ok || latest != 5 {
		t.Fatalf("expected latest version 5, got %d ok=%v", latest, ok)
	}
}

func TestMarkMigrated(t *testing.T) {
	cache := openCache(t, filepath.Join(t.TempDir(), "cache.json"))

	if cache.IsMigrated("CASE|EXH|ORIG") {
		t.Fatal("expected group to be unmigrated initially")
	}
	cache.MarkMigrated("CASE|EXH|ORIG")
	if !cache.IsMigrated("CASE|EXH|ORIG") {
		t.Fatal("expected group to be migrated")
	}
}

func TestCheckpointAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.json")
	cache := openCache(t, path)

	cache.MergeCases([]refcache.CachedCase{
		{CaseReference: "CD12345678", CourtReference: "Crown Court A", State: refcache.CaseStateOpen},
		{CaseReference: "CD99999999", State: refcache.CaseStateClosed},
	})
	cache.ObserveVersion("CD12345678|EXH001", 3)
	cache.MarkMigrated("CD12345678|EXH001|ORIG")

	if err := cache.Checkpoint(); err != nil {
		t.Fatalf("Checkpoint returned error: %v", err)
	}

	reloaded := openCache(t, path)
	if reloaded.Count() != 2 {
		t.Fatalf("expected 2 cases after reload, got %d", reloaded.Count())
	}
	entry, found := reloaded.GetCase("CD99999999")
	if !found || entry.IsOpen() {
		t.Fatalf("expected closed case to survive reload, got %+v found=%v", entry, found)
	}
	if latest, ok := reloaded.LatestVersion("CD12345678|EXH001"); !ok || latest != 3 {
		t.Fatalf("expected version 3 after reload, got %d ok=%v", latest, ok)
	}
	if !reloaded.IsMigrated("CD12345678|EXH001|ORIG") {
		t.Fatal("expected migrated marker to survive reload")
	}
}

func TestCheckpointLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")
	cache := openCache(t, path)

	cache.PutCase(refcache.CachedCase{CaseReference: "A1", State: refcache.CaseStateOpen, CachedAt: time.Now()})
	if err := cache.Checkpoint(); err != nil {
		t.Fatalf("Checkpoint returned error: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "cache.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("expected only the snapshot file, got %v", names)
	}
}

func TestOpenRejectsCorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt snapshot: %v", err)
	}
	if _, err := refcache.Open(path, logging.NewNop()); err == nil {
		t.Fatal("expected error for corrupt snapshot")
	}
}

func TestClearRemovesStateAndSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	cache := openCache(t, path)

	cache.PutCase(refcache.CachedCase{CaseReference: "A1", State: refcache.CaseStateOpen})
	cache.MarkMigrated("A1|X|ORIG")
	if err := cache.Checkpoint(); err != nil {
		t.Fatalf("Checkpoint returned error: %v", err)
	}

	if err := cache.Clear(); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if cache.Count() != 0 || cache.IsMigrated("A1|X|ORIG") {
		t.Fatal("expected cache state to be dropped")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected snapshot file to be removed, stat err=%v", err)
	}
}

func TestCasesReturnsSortedCopies(t *testing.T) {
	cache := openCache(t, filepath.Join(t.TempDir(), "cache.json"))
	cache.MergeCases([]refcache.CachedCase{
		{CaseReference: "B2", State: refcache.CaseStateOpen},
		{CaseReference: "A1", State: refcache.CaseStateOpen},
	})

	cases := cache.Cases()
	if len(cases) != 2 || cases[0].CaseReference != "A1" || cases[1].CaseReference != "B2" {
		t.Fatalf("expected sorted cases, got %+v", cases)
	}
}
