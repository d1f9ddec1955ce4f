package records

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a migration record.
type Status string

const (
	// StatusPending marks a fresh archive awaiting its first pipeline pass.
	StatusPending Status = "pending"
	// StatusSubmitted marks a previously failed archive resubmitted for
	// re-validation after manual resolution.
	StatusSubmitted Status = "submitted"
	// StatusSuccess is terminal; a successful record is never reprocessed.
	StatusSuccess Status = "success"
	// StatusFailed records a categorized failure; a later run may resubmit.
	StatusFailed Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusSubmitted,
	StatusSuccess,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// ValidTransition reports whether a status change is allowed. Success is
// terminal; pending and submitted may only resolve to success or failed.
func ValidTransition(from, to Status) bool {
	switch from {
	case StatusPending, StatusSubmitted:
		return to == StatusSuccess || to == StatusFailed
	default:
		return false
	}
}

// IsTerminal reports whether no pipeline run may change the status again
// within the same lifecycle.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess
}

// Record is one archived source item persisted in SQLite.
type Record struct {
	ID          int64
	ArchiveID   string
	ArchiveName string

	CourtReference string
	CourtID        string
	URN            string

	ExhibitReference string
	DefendantName    string
	WitnessName      string

	RecordingVersion       string
	RecordingVersionNumber string

	FileName        string
	CreateTime      *time.Time
	DurationSeconds int64
	FileSizeMB      float64

	Status          Status
	FailureCategory string
	ErrorMessage    string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Duration returns the stored duration as a time.Duration.
func (r *Record) Duration() time.Duration {
	return time.Duration(r.DurationSeconds) * time.Second
}
