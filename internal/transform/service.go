package transform

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"vaultmig/internal/config"
	"vaultmig/internal/logging"
	"vaultmig/internal/pipeline"
	"vaultmig/internal/refcache"
)

const (
	// URN-derived case references must land in this inclusive length band
	// to be accepted without falling back to the exhibit reference.
	urnMinLength = 9
	urnMaxLength = 20
)

var urnPattern = regexp.MustCompile(`^[A-Z0-9]+$`)

// Service cleanses extracted metadata into processed recordings.
type Service struct {
	logger    *slog.Logger
	cache     *refcache.Cache
	preferred []string
}

// NewService constructs the transformation stage.
func NewService(cfg *config.Config, cache *refcache.Cache, logger *slog.Logger) *Service {
	return &Service{
		logger:    logging.NewComponentLogger(logger, "transform"),
		cache:     cache,
		preferred: cfg.Rules.PreferredVersions,
	}
}

// Transform cleanses one extracted item. Reads the reference cache for
// version-group context but never writes to it.
func (s *Service) Transform(meta pipeline.ExtractedMetadata) pipeline.Result[pipeline.ProcessedRecording] {
	titler := cases.Title(language.English)

	defendant := cleanseName(titler, meta.DefendantName)
	witness := cleanseName(titler, meta.WitnessName)
	if defendant == "" {
		return pipeline.Fail[pipeline.ProcessedRecording](pipeline.CategoryIncompleteData,
			"defendant name missing for archive %s", meta.ArchiveID)
	}
	if witness == "" {
		return pipeline.Fail[pipeline.ProcessedRecording](pipeline.CategoryIncompleteData,
			"witness name missing for archive %s", meta.ArchiveID)
	}

	if meta.Duration < 0 {
		return pipeline.Fail[pipeline.ProcessedRecording](pipeline.CategoryInvalidFormat,
			"negative duration %s for archive %s", meta.Duration, meta.ArchiveID)
	}

	caseReference := deriveCaseReference(meta.URN, meta.ExhibitReference)
	versionNumber := parseVersionNumber(meta.RecordingVersionNumber)

	defendantFirst, defendantLast := splitName(defendant)
	witnessFirst, witnessLast := splitName(witness)

	rec := pipeline.ProcessedRecording{
		ArchiveID:          meta.ArchiveID,
		ArchiveName:        meta.ArchiveName,
		CaseReference:      caseReference,
		ExhibitReference:   strings.ToUpper(strings.TrimSpace(meta.ExhibitReference)),
		CourtReference:     strings.TrimSpace(meta.CourtReference),
		DefendantFirstName: defendantFirst,
		DefendantLastName:  defendantLast,
		WitnessFirstName:   witnessFirst,
		WitnessLastName:    witnessLast,
		RecordingVersion:   strings.ToUpper(strings.TrimSpace(meta.RecordingVersion)),
		VersionNumber:      versionNumber,
		FileName:           meta.FileName,
		Duration:           meta.Duration,
		FileSizeMB:         meta.FileSizeMB,
		CreatedAt:          meta.CreatedAt,
	}

	groupKey := rec.VersionGroupKey()
	if latest, ok := s.cache.LatestVersion(groupKey); ok {
		rec.LatestKnownVersion = latest
	}
	rec.GroupHasPreferred = s.groupHasPreferred(groupKey)
	rec.IsPreferred = s.isPreferred(rec)

	s.logger.Debug("transformed archive metadata",
		logging.String(logging.FieldArchiveID, meta.ArchiveID),
		logging.String("case_reference", rec.CaseReference),
		logging.Bool("preferred", rec.IsPreferred))

	return pipeline.Success(rec)
}

// isPreferred implements the preferred-version rule: a recording whose
// version label is in the preferred set is canonical; a copy is canonical
// only while no higher version number is known for its group.
func (s *Service) isPreferred(rec pipeline.ProcessedRecording) bool {
	for _, label := range s.preferred {
		if strings.EqualFold(rec.RecordingVersion, label) {
			return true
		}
	}
	if rec.LatestKnownVersion == 0 {
		return true
	}
	return rec.VersionNumber >= rec.LatestKnownVersion
}

// groupHasPreferred reports whether any preferred-label version of the
// case/exhibit group has already been migrated.
func (s *Service) groupHasPreferred(groupKey string) bool {
	for _, label := range s.preferred {
		if s.cache.IsMigrated(groupKey + "|" + strings.ToUpper(label)) {
			return true
		}
	}
	return false
}

// deriveCaseReference prefers the URN when it meets the format rules and
// falls back to the exhibit reference otherwise. Both may be absent; the
// blank result is validation's concern, not a transformation failure.
func deriveCaseReference(urn, exhibitReference string) string {
	candidate := strings.ToUpper(strings.TrimSpace(urn))
	if isValidURN(candidate) {
		return candidate
	}
	return strings.ToUpper(strings.TrimSpace(exhibitReference))
}

func isValidURN(urn string) bool {
	if len(urn) < urnMinLength || len(urn) > urnMaxLength {
		return false
	}
	return urnPattern.MatchString(urn)
}

// splitName divides a cleansed full name into first and last parts. A
// single token is a last name so double-barrelled surname checks still
// apply to mononymous entries.
func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

func cleanseName(titler cases.Caser, name string) string {
	collapsed := strings.Join(strings.Fields(name), " ")
	if collapsed == "" {
		return ""
	}
	return titler.String(strings.ToLower(collapsed))
}

func parseVersionNumber(value string) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if major, _, found := strings.Cut(value, "."); found {
		value = major
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return 0
	}
	return parsed
}
