package extraction

import (
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"vaultmig/internal/config"
	"vaultmig/internal/logging"
	"vaultmig/internal/pipeline"
	"vaultmig/internal/records"
	"vaultmig/internal/refdata"
)

// archivePattern is one known archive name layout. Patterns are tried in
// order; the first match wins.
type archivePattern struct {
	name string
	re   *regexp.Regexp
}

var archivePatterns = []archivePattern{
	{
		// SITE-URN-EXHIBIT_Defendant Name_Witness Name_VERSION[_N]
		name: "site-prefixed",
		re: regexp.MustCompile(`^(?P<site>[A-Z0-9]{2,6})-(?P<urn>[A-Za-z0-9]{5,20})-(?P<exhibit>[A-Za-z0-9]{3,20})` +
			`_(?P<defendant>[^_]+)_(?P<witness>[^_]+)_(?P<version>[A-Za-z]+)(?:_(?P<vernum>\d+(?:\.\d+)?))?$`),
	},
	{
		// URN_EXHIBIT_Defendant Name_Witness Name_VERSION[_N]
		name: "plain",
		re: regexp.MustCompile(`^(?P<urn>[A-Za-z0-9]{5,20})_(?P<exhibit>[A-Za-z0-9]{3,20})` +
			`_(?P<defendant>[^_]+)_(?P<witness>[^_]+)_(?P<version>[A-Za-z]+)(?:_(?P<vernum>\d+(?:\.\d+)?))?$`),
	},
}

// Service extracts structured metadata from archived source rows.
type Service struct {
	logger   *slog.Logger
	refdata  *refdata.Ingestor
	keywords []string
	allowed  map[string]struct{}
	goLive   timeGate
}

type timeGate struct {
	enabled bool
	cutoff  int64
}

// NewService constructs the extraction stage.
func NewService(cfg *config.Config, ref *refdata.Ingestor, logger *slog.Logger) *Service {
	allowed := make(map[string]struct{}, len(cfg.Rules.AllowedExtensions))
	for _, ext := range cfg.Rules.AllowedExtensions {
		allowed[ext] = struct{}{}
	}
	gate := timeGate{}
	if goLive := cfg.GoLive(); !goLive.IsZero() {
		gate = timeGate{enabled: true, cutoff: goLive.Unix()}
	}
	return &Service{
		logger:   logging.NewComponentLogger(logger, "extraction"),
		refdata:  ref,
		keywords: cfg.Rules.TestKeywords,
		allowed:  allowed,
		goLive:   gate,
	}
}

// Process extracts metadata from one record. Pure apart from site lookups:
// no shared state is mutated.
func (s *Service) Process(rec *records.Record) pipeline.Result[pipeline.ExtractedMetadata] {
	if rec == nil {
		return pipeline.Fail[pipeline.ExtractedMetadata](pipeline.CategoryIncompleteData, "no record supplied")
	}

	archiveName := strings.TrimSpace(rec.ArchiveName)
	if archiveName == "" {
		return pipeline.Fail[pipeline.ExtractedMetadata](pipeline.CategoryIncompleteData,
			"archive %s has no archive name", rec.ArchiveID)
	}

	if keyword := s.matchTestKeyword(archiveName); keyword != "" {
		return pipeline.TestDetected[pipeline.ExtractedMetadata](
			"archive name matched a test keyword", keyword)
	}

	fileName := strings.TrimSpace(rec.FileName)
	if fileName == "" {
		fileName = archiveName
	}
	extension := normalizeExtension(fileName)
	if extension == "" {
		return pipeline.Fail[pipeline.ExtractedMetadata](pipeline.CategoryRawFiles,
			"file %q has no playable extension", fileName)
	}
	if _, ok := s.allowed[extension]; !ok {
		return pipeline.Fail[pipeline.ExtractedMetadata](pipeline.CategoryRawFiles,
			"extension %q is not a playable format", extension)
	}

	if s.goLive.enabled && rec.CreateTime != nil && rec.CreateTime.Unix() < s.goLive.cutoff {
		return pipeline.Fail[pipeline.ExtractedMetadata](pipeline.CategoryPreGoLive,
			"archive created %s, before the go-live date", rec.CreateTime.Format("2006-01-02"))
	}

	sanitized := s.stripExtension(archiveName)
	groups, patternName := matchArchiveName(sanitized)
	if groups == nil {
		return pipeline.Fail[pipeline.ExtractedMetadata](pipeline.CategoryInvalidFormat,
			"archive name %q does not match any known layout", sanitized)
	}

	meta := pipeline.ExtractedMetadata{
		ArchiveID:              rec.ArchiveID,
		ArchiveName:            archiveName,
		SanitizedName:          sanitized,
		URN:                    groups["urn"],
		ExhibitReference:       groups["exhibit"],
		DefendantName:          groups["defendant"],
		WitnessName:            groups["witness"],
		RecordingVersion:       groups["version"],
		RecordingVersionNumber: groups["vernum"],
		FileName:               fileName,
		FileExtension:          extension,
		Duration:               rec.Duration(),
		FileSizeMB:             rec.FileSizeMB,
	}
	if rec.CreateTime != nil {
		meta.CreatedAt = *rec.CreateTime
	}

	if site := groups["site"]; site != "" {
		court, ok := s.refdata.CourtForSite(site)
		if !ok {
			return pipeline.Fail[pipeline.ExtractedMetadata](pipeline.CategoryIncompleteData,
				"no court mapping for site code %q", site)
		}
		meta.CourtReference = court.CourtName
		meta.CourtID = court.CourtID
	}

	s.logger.Debug("extracted archive metadata",
		logging.String(logging.FieldArchiveID, rec.ArchiveID),
		logging.String("pattern", patternName),
		logging.String("urn", meta.URN))

	return pipeline.Success(meta)
}

func (s *Service) matchTestKeyword(archiveName string) string {
	lowered := strings.ToLower(archiveName)
	for _, keyword := range s.keywords {
		if keyword != "" && strings.Contains(lowered, strings.ToLower(keyword)) {
			return keyword
		}
	}
	return ""
}

func matchArchiveName(sanitized string) (map[string]string, string) {
	for _, pattern := range archivePatterns {
		match := pattern.re.FindStringSubmatch(sanitized)
		if match == nil {
			continue
		}
		groups := make(map[string]string)
		for i, name := range pattern.re.SubexpNames() {
			if name != "" {
				groups[name] = strings.TrimSpace(match[i])
			}
		}
		return groups, pattern.name
	}
	return nil, ""
}

func normalizeExtension(fileName string) string {
	ext := filepath.Ext(fileName)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// stripExtension removes a trailing playable extension from the archive
// name. Only known extensions are stripped; dots inside version numbers
// stay untouched.
func (s *Service) stripExtension(name string) string {
	ext := filepath.Ext(name)
	if ext == "" {
		return name
	}
	if _, ok := s.allowed[strings.ToLower(strings.TrimPrefix(ext, "."))]; ok {
		return strings.TrimSuffix(name, ext)
	}
	return name
}
