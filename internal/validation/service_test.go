package validation_test

import (
	"testing"
	"time"

	"vaultmig/internal/logging"
	"vaultmig/internal/pipeline"
	"vaultmig/internal/validation"
)

func validRecording() pipeline.ProcessedRecording {
	return pipeline.ProcessedRecording{
		ArchiveID:          "arc-1",
		ArchiveName:        "ABC-CD12345678-EXH001_John Smith_Jane Doe_ORIG_2",
		CaseReference:      "CD12345678",
		ExhibitReference:   "EXH001",
		DefendantFirstName: "John",
		DefendantLastName:  "Smith",
		WitnessFirstName:   "Jane",
		WitnessLastName:    "Doe",
		RecordingVersion:   "ORIG",
		VersionNumber:      2,
		IsPreferred:        true,
		Duration:           30 * time.Minute,
		FileSizeMB:         512,
	}
}

func TestValidateRecordingAccepts(t *testing.T) {
	svc := validation.NewService(logging.NewNop())
	if result := svc.ValidateRecording(validRecording()); !result.IsSuccess() {
		t.Fatalf("expected success, got %+v", result)
	}
}

func TestValidateRecordingBlankCaseReference(t *testing.T) {
	svc := validation.NewService(logging.NewNop())
	rec := validRecording()
	rec.CaseReference = "  "

	result := svc.ValidateRecording(rec)
	if !result.IsFailure() || result.Failure().Category != pipeline.CategoryValidationFailed {
		t.Fatalf("expected Validation_Failed, got %+v", result)
	}
}

func TestValidateRecordingMissingLastNames(t *testing.T) {
	svc := validation.NewService(logging.NewNop())

	rec := validRecording()
	rec.DefendantLastName = ""
	result := svc.ValidateRecording(rec)
	if !result.IsFailure() || result.Failure().Category != pipeline.CategoryIncompleteData {
		t.Fatalf("expected Incomplete_Data for defendant, got %+v", result)
	}

	rec = validRecording()
	rec.WitnessLastName = ""
	result = svc.ValidateRecording(rec)
	if !result.IsFailure() || result.Failure().Category != pipeline.CategoryIncompleteData {
		t.Fatalf("expected Incomplete_Data for witness, got %+v", result)
	}
}

func TestValidateRecordingPreferredNeedsDurationAndSize(t *testing.T) {
	svc := validation.NewService(logging.NewNop())

	rec := validRecording()
	rec.Duration = 0
	result := svc.ValidateRecording(rec)
	if !result.IsFailure() || result.Failure().Category != pipeline.CategoryIncompleteData {
		t.Fatalf("expected Incomplete_Data for zero duration, got %+v", result)
	}

	rec = validRecording()
	rec.FileSizeMB = 0
	result = svc.ValidateRecording(rec)
	if !result.IsFailure() || result.Failure().Category != pipeline.CategoryIncompleteData {
		t.Fatalf("expected Incomplete_Data for zero file size, got %+v", result)
	}
}

func TestValidateRecordingNonPreferred(t *testing.T) {
	svc := validation.NewService(logging.NewNop())

	rec := validRecording()
	rec.IsPreferred = false
	rec.GroupHasPreferred = true
	result := svc.ValidateRecording(rec)
	if !result.IsFailure() || result.Failure().Category != pipeline.CategoryAlternativeAvailable {
		t.Fatalf("expected Alternative_Available, got %+v", result)
	}

	rec.GroupHasPreferred = false
	rec.LatestKnownVersion = 5
	result = svc.ValidateRecording(rec)
	if !result.IsFailure() || result.Failure().Category != pipeline.CategoryNotMostRecent {
		t.Fatalf("expected Not_Most_Recent, got %+v", result)
	}
}

func TestValidateResolvedRecordingSkipsVersionGating(t *testing.T) {
	svc := validation.NewService(logging.NewNop())

	// A superseded copy that a person chose to resubmit still passes.
	rec := validRecording()
	rec.IsPreferred = false
	rec.GroupHasPreferred = true
	rec.Duration = 0
	rec.FileSizeMB = 0
	if result := svc.ValidateResolvedRecording(rec, rec.ArchiveName); !result.IsSuccess() {
		t.Fatalf("expected success, got %+v", result)
	}
}

func TestValidateResolvedRecordingStillRequiresIdentity(t *testing.T) {
	svc := validation.NewService(logging.NewNop())

	rec := validRecording()
	rec.CaseReference = ""
	result := svc.ValidateResolvedRecording(rec, "legacy entry #42")
	if !result.IsFailure() || result.Failure().Category != pipeline.CategoryValidationFailed {
		t.Fatalf("expected Validation_Failed, got %+v", result)
	}

	rec = validRecording()
	rec.WitnessLastName = ""
	result = svc.ValidateResolvedRecording(rec, "")
	if !result.IsFailure() || result.Failure().Category != pipeline.CategoryIncompleteData {
		t.Fatalf("expected Incomplete_Data, got %+v", result)
	}
}
