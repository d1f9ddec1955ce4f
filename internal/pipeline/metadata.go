package pipeline

import "time"

// ExtractedMetadata is the extraction stage output: the descriptive fields
// of one archived recording, parsed fresh from the source row or rebuilt
// from a stored migration record when a submitted item is re-run.
type ExtractedMetadata struct {
	ArchiveID     string
	ArchiveName   string
	SanitizedName string

	CourtReference string
	CourtID        string
	URN            string

	ExhibitReference string
	DefendantName    string
	WitnessName      string

	RecordingVersion       string
	RecordingVersionNumber string

	FileName      string
	FileExtension string
	CreatedAt     time.Time
	Duration      time.Duration
	FileSizeMB    float64
}

// ProcessedRecording is the transformation stage output: the cleansed,
// canonical view of a recording consumed by validation and group assembly.
type ProcessedRecording struct {
	ArchiveID   string
	ArchiveName string

	CaseReference    string
	ExhibitReference string
	CourtReference   string

	DefendantFirstName string
	DefendantLastName  string
	WitnessFirstName   string
	WitnessLastName    string

	RecordingVersion string
	VersionNumber    int
	IsPreferred      bool

	// Group context snapshotted from the reference cache so validation
	// stays a pure function of the recording.
	LatestKnownVersion int
	GroupHasPreferred  bool

	FileName   string
	Duration   time.Duration
	FileSizeMB float64
	CreatedAt  time.Time
}

// GroupKey identifies the case/exhibit/version combination this recording
// belongs to; used for pre-existing and most-recent bookkeeping.
func (r ProcessedRecording) GroupKey() string {
	return r.CaseReference + "|" + r.ExhibitReference + "|" + r.RecordingVersion
}

// VersionGroupKey identifies the case/exhibit combination across versions.
func (r ProcessedRecording) VersionGroupKey() string {
	return r.CaseReference + "|" + r.ExhibitReference
}

// MigratedItemGroup is the pipeline's terminal success artifact, handed to
// downstream persistence.
type MigratedItemGroup struct {
	Metadata  ExtractedMetadata
	Recording ProcessedRecording
}
