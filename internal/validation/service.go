package validation

import (
	"log/slog"
	"strings"

	"vaultmig/internal/logging"
	"vaultmig/internal/pipeline"
)

// Service validates processed recordings.
type Service struct {
	logger *slog.Logger
}

// NewService constructs the validation stage.
func NewService(logger *slog.Logger) *Service {
	return &Service{logger: logging.NewComponentLogger(logger, "validation")}
}

// ValidateRecording applies the first-pass rule set to a freshly
// transformed recording.
func (s *Service) ValidateRecording(rec pipeline.ProcessedRecording) pipeline.Result[pipeline.ProcessedRecording] {
	if strings.TrimSpace(rec.CaseReference) == "" {
		return pipeline.Fail[pipeline.ProcessedRecording](pipeline.CategoryValidationFailed,
			"case reference is missing for archive %s", rec.ArchiveID)
	}
	if rec.DefendantLastName == "" {
		return pipeline.Fail[pipeline.ProcessedRecording](pipeline.CategoryIncompleteData,
			"defendant last name is missing for archive %s", rec.ArchiveID)
	}
	if rec.WitnessLastName == "" {
		return pipeline.Fail[pipeline.ProcessedRecording](pipeline.CategoryIncompleteData,
			"witness last name is missing for archive %s", rec.ArchiveID)
	}

	if rec.IsPreferred {
		if rec.Duration <= 0 {
			return pipeline.Fail[pipeline.ProcessedRecording](pipeline.CategoryIncompleteData,
				"preferred recording for archive %s has no duration", rec.ArchiveID)
		}
		if rec.FileSizeMB <= 0 {
			return pipeline.Fail[pipeline.ProcessedRecording](pipeline.CategoryIncompleteData,
				"preferred recording for archive %s has no file size", rec.ArchiveID)
		}
	} else {
		// A superseded copy never migrates; the category depends on
		// whether a canonical version already made it across.
		if rec.GroupHasPreferred {
			return pipeline.Fail[pipeline.ProcessedRecording](pipeline.CategoryAlternativeAvailable,
				"a preferred version of case %s exhibit %s is already migrated",
				rec.CaseReference, rec.ExhibitReference)
		}
		return pipeline.Fail[pipeline.ProcessedRecording](pipeline.CategoryNotMostRecent,
			"version %d of case %s exhibit %s is superseded by version %d",
			rec.VersionNumber, rec.CaseReference, rec.ExhibitReference, rec.LatestKnownVersion)
	}

	s.logger.Debug("first-pass validation passed",
		logging.String(logging.FieldArchiveID, rec.ArchiveID))
	return pipeline.Success(rec)
}

// ValidateResolvedRecording applies the reduced rule set for resubmitted
// items. The archive name gives operators context in error messages; the
// version gating is skipped because resubmission implies a person already
// chose this recording.
func (s *Service) ValidateResolvedRecording(rec pipeline.ProcessedRecording, archiveName string) pipeline.Result[pipeline.ProcessedRecording] {
	archiveName = strings.TrimSpace(archiveName)
	if archiveName == "" {
		archiveName = rec.ArchiveName
	}

	if strings.TrimSpace(rec.CaseReference) == "" {
		return pipeline.Fail[pipeline.ProcessedRecording](pipeline.CategoryValidationFailed,
			"case reference is missing for resubmitted archive %q", archiveName)
	}
	if rec.DefendantLastName == "" {
		return pipeline.Fail[pipeline.ProcessedRecording](pipeline.CategoryIncompleteData,
			"defendant last name is missing for resubmitted archive %q", archiveName)
	}
	if rec.WitnessLastName == "" {
		return pipeline.Fail[pipeline.ProcessedRecording](pipeline.CategoryIncompleteData,
			"witness last name is missing for resubmitted archive %q", archiveName)
	}

	s.logger.Debug("resolved validation passed",
		logging.String(logging.FieldArchiveID, rec.ArchiveID),
		logging.String("archive_name", archiveName))
	return pipeline.Success(rec)
}
