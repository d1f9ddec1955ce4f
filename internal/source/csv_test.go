package source_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"vaultmig/internal/logging"
	"vaultmig/internal/records"
	"vaultmig/internal/refcache"
	"vaultmig/internal/source"
)

func writeFeed(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write feed: %v", err)
	}
	return path
}

func TestReadArchives(t *testing.T) {
	path := writeFeed(t, "archives.csv", `archive_id,archive_name,file_name,created_at,duration_seconds,file_size_mb
arc-1,ABC-CD12345678-EXH001_John Smith_Jane Doe_ORIG_2,recording.mp4,2021-06-01T10:30:00Z,1800,512.5
arc-2,plain archive,clip.wmv,2021-06-02,,
,orphan row,x.mp4,,,
arc-3,bad timestamp,x.mp4,yesterday,,
arc-4,bad duration,x.mp4,,ninety,
`)

	recs, err := source.ReadArchives(path, logging.NewNop())
	if err != nil {
		t.Fatalf("ReadArchives returned error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 usable rows, got %d", len(recs))
	}

	first := recs[0]
	if first.ArchiveID != "arc-1" || first.Status != records.StatusPending {
		t.Fatalf("unexpected first record: %+v", first)
	}
	want := time.Date(2021, 6, 1, 10, 30, 0, 0, time.UTC)
	if first.CreateTime == nil || !first.CreateTime.Equal(want) {
		t.Fatalf("unexpected create time: %v", first.CreateTime)
	}
	if first.DurationSeconds != 1800 || first.FileSizeMB != 512.5 {
		t.Fatalf("unexpected numeric fields: %+v", first)
	}

	second := recs[1]
	if second.ArchiveID != "arc-2" || second.CreateTime == nil {
		t.Fatalf("plain-date row not parsed: %+v", second)
	}
}

func TestReadArchivesEmptyFeed(t *testing.T) {
	path := writeFeed(t, "archives.csv", "")
	recs, err := source.ReadArchives(path, logging.NewNop())
	if err != nil {
		t.Fatalf("ReadArchives returned error: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected no records, got %d", len(recs))
	}
}

func TestReadArchivesMissingFile(t *testing.T) {
	if _, err := source.ReadArchives(filepath.Join(t.TempDir(), "absent.csv"), logging.NewNop()); err == nil {
		t.Fatal("expected error for missing feed")
	}
}

func TestReadSites(t *testing.T) {
	path := writeFeed(t, "sites.csv", `site_reference,court_name,court_id
ABC,Crown Court A,court-1
DEF,Crown Court B,court-2
`)
	sites, err := source.ReadSites(path)
	if err != nil {
		t.Fatalf("ReadSites returned error: %v", err)
	}
	if len(sites) != 2 || sites[0].SiteReference != "ABC" || sites[1].CourtID != "court-2" {
		t.Fatalf("unexpected sites: %+v", sites)
	}
}

func TestReadChannels(t *testing.T) {
	path := writeFeed(t, "channels.csv", `channel_name,channel_user,channel_user_email
court-a,Clerk One,one@example.org
`)
	channels, err := source.ReadChannels(path)
	if err != nil {
		t.Fatalf("ReadChannels returned error: %v", err)
	}
	if len(channels) != 1 || channels[0].ChannelUserEmail != "one@example.org" {
		t.Fatalf("unexpected channels: %+v", channels)
	}
}

func TestReadCases(t *testing.T) {
	path := writeFeed(t, "cases.csv", `case_reference,court_reference,state
CD12345678,Crown Court A,OPEN
CD99999999,,closed
CD88888888,,
CD77777777,,ARCHIVED
,,OPEN
`)
	cases, err := source.ReadCases(path, logging.NewNop())
	if err != nil {
		t.Fatalf("ReadCases returned error: %v", err)
	}
	if len(cases) != 3 {
		t.Fatalf("expected 3 usable rows, got %d", len(cases))
	}
	if cases[0].State != refcache.CaseStateOpen || cases[0].CourtReference != "Crown Court A" {
		t.Fatalf("unexpected first case: %+v", cases[0])
	}
	if cases[1].State != refcache.CaseStateClosed {
		t.Fatalf("lowercase state not normalized: %+v", cases[1])
	}
	if cases[2].State != refcache.CaseStateOpen {
		t.Fatalf("blank state should default to open: %+v", cases[2])
	}
	for _, entry := range cases {
		if entry.CachedAt.IsZero() {
			t.Fatalf("expected CachedAt to be stamped: %+v", entry)
		}
	}
}

func TestReadRowsToleratesRaggedRows(t *testing.T) {
	path := writeFeed(t, "archives.csv", `archive_id,archive_name,file_name,created_at,duration_seconds,file_size_mb
arc-1,short row
`)
	recs, err := source.ReadArchives(path, logging.NewNop())
	if err != nil {
		t.Fatalf("ReadArchives returned error: %v", err)
	}
	if len(recs) != 1 || recs[0].ArchiveName != "short row" {
		t.Fatalf("unexpected records: %+v", recs)
	}
}
