package processor

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"vaultmig/internal/extraction"
	"vaultmig/internal/logging"
	"vaultmig/internal/pipeline"
	"vaultmig/internal/records"
	"vaultmig/internal/refcache"
	"vaultmig/internal/refdata"
	"vaultmig/internal/tracker"
	"vaultmig/internal/transform"
	"vaultmig/internal/validation"
)

// Processor orchestrates the migration pipeline for single items.
type Processor struct {
	store       *records.Store
	cache       *refcache.Cache
	ingestor    *refdata.Ingestor
	extractor   *extraction.Service
	transformer *transform.Service
	validator   *validation.Service
	tracker     *tracker.Tracker
	logger      *slog.Logger
}

// New constructs a processor from its collaborators.
func New(
	store *records.Store,
	cache *refcache.Cache,
	ingestor *refdata.Ingestor,
	extractor *extraction.Service,
	transformer *transform.Service,
	validator *validation.Service,
	trk *tracker.Tracker,
	logger *slog.Logger,
) *Processor {
	return &Processor{
		store:       store,
		cache:       cache,
		ingestor:    ingestor,
		extractor:   extractor,
		transformer: transformer,
		validator:   validator,
		tracker:     trk,
		logger:      logging.NewComponentLogger(logger, "processor"),
	}
}

// Process routes one item through the pipeline. Recording items yield a
// migrated item group on success and nil on any recorded failure;
// reference-data items feed the lookup tables and always yield nil.
// Panics anywhere below are caught here, logged, and recorded as a
// General_Error failure so a single bad item can never end the batch.
func (p *Processor) Process(ctx context.Context, item any) (group *pipeline.MigratedItemGroup) {
	var current *records.Record

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		p.logger.Error("recovered from item processing panic", logging.Any("panic", r))
		group = nil
		if current != nil {
			message := fmt.Sprintf("unexpected processing error: %v", r)
			p.failItem(ctx, current.ArchiveID, current.ArchiveName,
				pipeline.CategoryGeneralError, message)
		}
	}()

	switch v := item.(type) {
	case nil:
		p.logger.Warn("received nil item, skipping")
		return nil
	case *records.Record:
		current = v
		return p.processRecording(ctx, v)
	case refdata.SiteRow:
		p.ingestor.IngestSite(v)
		return nil
	case refdata.ChannelRow:
		p.ingestor.IngestChannel(v)
		return nil
	default:
		p.logger.Error("unsupported item type", logging.String("type", fmt.Sprintf("%T", item)))
		return nil
	}
}

func (p *Processor) processRecording(ctx context.Context, rec *records.Record) *pipeline.MigratedItemGroup {
	logger := logging.WithContext(ctx, p.logger)
	logger.Debug("processing recording",
		logging.String(logging.FieldArchiveID, rec.ArchiveID),
		logging.String("archive_name", rec.ArchiveName),
		logging.String("status", string(rec.Status)))

	switch rec.Status {
	case records.StatusPending:
		return p.processPending(ctx, rec)
	case records.StatusSubmitted:
		return p.processSubmitted(ctx, rec)
	case records.StatusSuccess:
		p.isAlreadyMigrated(ctx, rec)
		return nil
	case records.StatusFailed:
		logger.Debug("record previously failed, awaiting resubmission",
			logging.String(logging.FieldArchiveID, rec.ArchiveID),
			logging.String("category", rec.FailureCategory))
		return nil
	default:
		logger.Warn("record has unexpected status, skipping",
			logging.String(logging.FieldArchiveID, rec.ArchiveID),
			logging.String("status", string(rec.Status)))
		return nil
	}
}

func (p *Processor) processPending(ctx context.Context, rec *records.Record) *pipeline.MigratedItemGroup {
	meta, ok := p.extract(ctx, rec)
	if !ok {
		return nil
	}

	// The extracted fields are persisted before any later stage can
	// fail, so the stored record always carries the best-known metadata.
	if err := p.store.UpdateMetadataFields(ctx, rec.ArchiveID, meta); err != nil {
		p.logger.Error("failed to persist extracted metadata", logging.Error(err),
			logging.String(logging.FieldArchiveID, rec.ArchiveID))
	}

	cleansed, ok := p.transform(ctx, meta)
	if !ok {
		return nil
	}

	if p.isAlreadyMigrated(ctx, rec) {
		return nil
	}

	if p.isPreExisting(ctx, rec, cleansed) {
		return nil
	}

	// Review flags are raised from the transformed view even when a
	// validation rule later rejects the item, so operators see every
	// suspect preferred recording exactly once.
	p.checkAndCreateNotifyItems(cleansed)

	if !p.validate(ctx, rec, cleansed) {
		return nil
	}

	if !p.isCaseOpen(ctx, rec.ArchiveID, rec.ArchiveName, cleansed) {
		return nil
	}

	return p.completeItem(ctx, rec, meta, cleansed)
}

func (p *Processor) processSubmitted(ctx context.Context, rec *records.Record) *pipeline.MigratedItemGroup {
	meta := reconstructMetadata(rec)

	cleansed, ok := p.transform(ctx, meta)
	if !ok {
		return nil
	}

	if !p.validateResolved(ctx, rec, cleansed) {
		return nil
	}

	if !p.isCaseOpen(ctx, rec.ArchiveID, rec.ArchiveName, cleansed) {
		return nil
	}

	return p.completeItem(ctx, rec, meta, cleansed)
}

func (p *Processor) completeItem(ctx context.Context, rec *records.Record, meta pipeline.ExtractedMetadata, cleansed pipeline.ProcessedRecording) *pipeline.MigratedItemGroup {
	if err := p.store.MarkSuccess(ctx, rec.ArchiveID); err != nil {
		p.failItem(ctx, rec.ArchiveID, rec.ArchiveName, pipeline.CategoryGeneralError,
			fmt.Sprintf("failed to mark record successful: %v", err))
		return nil
	}

	p.cache.MarkMigrated(cleansed.GroupKey())
	p.cache.ObserveVersion(cleansed.VersionGroupKey(), cleansed.VersionNumber)
	p.tracker.IncrementSucceeded()

	if err := p.cache.Checkpoint(); err != nil {
		p.logger.Error("reference cache checkpoint failed", logging.Error(err))
	}

	return &pipeline.MigratedItemGroup{Metadata: meta, Recording: cleansed}
}

// extract runs the extraction stage and converts test or failure outcomes
// into their recorded forms.
func (p *Processor) extract(ctx context.Context, rec *records.Record) (pipeline.ExtractedMetadata, bool) {
	result := p.extractor.Process(rec)

	if result.IsTest() {
		detection := result.Test()
		message := "Test: " + detection.Reason
		if detection.Keyword != "" {
			message += " (keyword: " + detection.Keyword + ")"
		}
		if err := p.store.UpdateToFailed(ctx, rec.ArchiveID, pipeline.CategoryTest, message); err != nil {
			p.logger.Error("failed to record test outcome", logging.Error(err))
		}
		p.tracker.AddTest(pipeline.TestItem{
			ArchiveID:   rec.ArchiveID,
			ArchiveName: rec.ArchiveName,
			Reason:      detection.Reason,
			Keyword:     detection.Keyword,
		})
		return pipeline.ExtractedMetadata{}, false
	}

	if result.IsFailure() {
		failure := result.Failure()
		p.failItem(ctx, rec.ArchiveID, rec.ArchiveName, failure.Category, failure.Message)
		return pipeline.ExtractedMetadata{}, false
	}

	return result.Value(), true
}

func (p *Processor) transform(ctx context.Context, meta pipeline.ExtractedMetadata) (pipeline.ProcessedRecording, bool) {
	result := p.transformer.Transform(meta)
	if result.IsFailure() {
		failure := result.Failure()
		p.failItem(ctx, meta.ArchiveID, meta.ArchiveName, failure.Category, failure.Message)
		return pipeline.ProcessedRecording{}, false
	}
	return result.Value(), true
}

func (p *Processor) validate(ctx context.Context, rec *records.Record, cleansed pipeline.ProcessedRecording) bool {
	result := p.validator.ValidateRecording(cleansed)
	if result.IsFailure() {
		failure := result.Failure()
		p.failItem(ctx, rec.ArchiveID, rec.ArchiveName, failure.Category, failure.Message)
		return false
	}
	return true
}

func (p *Processor) validateResolved(ctx context.Context, rec *records.Record, cleansed pipeline.ProcessedRecording) bool {
	result := p.validator.ValidateResolvedRecording(cleansed, rec.ArchiveName)
	if result.IsFailure() {
		failure := result.Failure()
		p.failItem(ctx, rec.ArchiveID, rec.ArchiveName, failure.Category, failure.Message)
		return false
	}
	return true
}

// isAlreadyMigrated guards idempotency: a record that already reached
// success must never produce a second migrated item group.
func (p *Processor) isAlreadyMigrated(ctx context.Context, rec *records.Record) bool {
	existing, err := p.store.FindByArchiveID(ctx, rec.ArchiveID)
	if err != nil {
		p.logger.Error("duplicate lookup failed", logging.Error(err),
			logging.String(logging.FieldArchiveID, rec.ArchiveID))
		return false
	}
	if existing == nil || existing.Status != records.StatusSuccess {
		return false
	}

	p.logger.Debug("recording already migrated",
		logging.String(logging.FieldArchiveID, rec.ArchiveID))
	p.tracker.AddFailed(pipeline.FailedItem{
		ArchiveID:   rec.ArchiveID,
		ArchiveName: rec.ArchiveName,
		Category:    pipeline.CategoryDuplicate,
		Message:     "archive id already migrated",
	})
	return true
}

// isPreExisting rejects a recording whose exact case/exhibit/version group
// already produced a migrated item under a different archive id.
func (p *Processor) isPreExisting(ctx context.Context, rec *records.Record, cleansed pipeline.ProcessedRecording) bool {
	if !p.cache.IsMigrated(cleansed.GroupKey()) {
		return false
	}
	message := fmt.Sprintf("recording for case %s exhibit %s version %s already migrated",
		cleansed.CaseReference, cleansed.ExhibitReference, cleansed.RecordingVersion)
	p.failItem(ctx, rec.ArchiveID, rec.ArchiveName, pipeline.CategoryPreExisting, message)
	return true
}

// isCaseOpen gates migration on the case state known to the reference
// cache. Unknown cases pass; a known non-open case fails the item.
func (p *Processor) isCaseOpen(ctx context.Context, archiveID, archiveName string, cleansed pipeline.ProcessedRecording) bool {
	caseRef := cleansed.CaseReference
	cached, found := p.cache.GetCase(caseRef)
	if !found || cached.IsOpen() {
		return true
	}

	message := fmt.Sprintf("case %s is closed; cannot create bookings, capture sessions, or recordings", caseRef)
	if err := p.store.UpdateToFailed(ctx, archiveID, pipeline.CategoryCaseClosed, message); err != nil {
		p.logger.Error("failed to record case-closed outcome", logging.Error(err))
	}
	p.tracker.AddFailed(pipeline.FailedItem{
		ArchiveID:   archiveID,
		ArchiveName: archiveName,
		Category:    pipeline.CategoryValidationFailed,
		Message:     message,
	})
	p.logger.Error("skipping item", logging.String("reason", message))
	return false
}

func (p *Processor) failItem(ctx context.Context, archiveID, archiveName string, category pipeline.Category, message string) {
	if err := p.store.UpdateToFailed(ctx, archiveID, category, message); err != nil {
		p.logger.Error("failed to persist failure outcome", logging.Error(err),
			logging.String(logging.FieldArchiveID, archiveID))
	}
	p.tracker.AddFailed(pipeline.FailedItem{
		ArchiveID:   archiveID,
		ArchiveName: archiveName,
		Category:    category,
		Message:     message,
	})
}

// reconstructMetadata rebuilds extracted metadata from a stored record so
// resubmitted items skip extraction. The file extension is derived from
// the stored file name; names without a dot leave it empty.
func reconstructMetadata(rec *records.Record) pipeline.ExtractedMetadata {
	fileName := rec.FileName
	extension := ""
	if strings.Contains(fileName, ".") {
		extension = strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	}

	meta := pipeline.ExtractedMetadata{
		ArchiveID:              rec.ArchiveID,
		ArchiveName:            rec.ArchiveName,
		SanitizedName:          strings.TrimSpace(rec.ArchiveName),
		CourtReference:         rec.CourtReference,
		CourtID:                rec.CourtID,
		URN:                    rec.URN,
		ExhibitReference:       rec.ExhibitReference,
		DefendantName:          rec.DefendantName,
		WitnessName:            rec.WitnessName,
		RecordingVersion:       rec.RecordingVersion,
		RecordingVersionNumber: rec.RecordingVersionNumber,
		FileName:               fileName,
		FileExtension:          extension,
		Duration:               rec.Duration(),
		FileSizeMB:             rec.FileSizeMB,
	}
	if rec.CreateTime != nil {
		meta.CreatedAt = *rec.CreateTime
	}
	return meta
}
