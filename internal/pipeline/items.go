package pipeline

import "time"

// FailedItem records one failed archive for end-of-run reporting.
type FailedItem struct {
	ArchiveID   string
	ArchiveName string
	Category    Category
	Message     string
	At          time.Time
}

// TestItem records one test-recording detection for end-of-run reporting.
type TestItem struct {
	ArchiveID   string
	ArchiveName string
	Reason      string
	Keyword     string
}

// NotifyItem flags a successfully processed recording for manual review.
type NotifyItem struct {
	Reason    string
	Recording ProcessedRecording
}
