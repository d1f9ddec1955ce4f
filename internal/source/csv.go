package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"vaultmig/internal/logging"
	"vaultmig/internal/records"
	"vaultmig/internal/refcache"
	"vaultmig/internal/refdata"
)

// ReadArchives loads the archive index feed. Expected header:
// archive_id,archive_name,file_name,created_at,duration_seconds,file_size_mb
// created_at accepts RFC 3339 or a plain date; status defaults to pending.
func ReadArchives(path string, logger *slog.Logger) ([]*records.Record, error) {
	logger = logging.NewComponentLogger(logger, "source")

	var out []*records.Record
	err := readRows(path, func(line int, fields map[string]string) {
		archiveID := strings.TrimSpace(fields["archive_id"])
		if archiveID == "" {
			logger.Warn("skipping archive row without an archive id",
				logging.String("file", path), logging.Int("line", line))
			return
		}

		rec := &records.Record{
			ArchiveID:   archiveID,
			ArchiveName: strings.TrimSpace(fields["archive_name"]),
			FileName:    strings.TrimSpace(fields["file_name"]),
			Status:      records.StatusPending,
		}

		if raw := strings.TrimSpace(fields["created_at"]); raw != "" {
			created, err := parseTimestamp(raw)
			if err != nil {
				logger.Warn("skipping archive row with a bad timestamp",
					logging.String("file", path), logging.Int("line", line),
					logging.String("created_at", raw))
				return
			}
			rec.CreateTime = &created
		}
		if raw := strings.TrimSpace(fields["duration_seconds"]); raw != "" {
			seconds, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				logger.Warn("skipping archive row with a bad duration",
					logging.String("file", path), logging.Int("line", line))
				return
			}
			rec.DurationSeconds = seconds
		}
		if raw := strings.TrimSpace(fields["file_size_mb"]); raw != "" {
			size, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				logger.Warn("skipping archive row with a bad file size",
					logging.String("file", path), logging.Int("line", line))
				return
			}
			rec.FileSizeMB = size
		}

		out = append(out, rec)
	})
	return out, err
}

// ReadSites loads the site reference feed. Expected header:
// site_reference,court_name,court_id
func ReadSites(path string) ([]refdata.SiteRow, error) {
	var out []refdata.SiteRow
	err := readRows(path, func(line int, fields map[string]string) {
		out = append(out, refdata.SiteRow{
			SiteReference: fields["site_reference"],
			CourtName:     fields["court_name"],
			CourtID:       fields["court_id"],
		})
	})
	return out, err
}

// ReadChannels loads the channel reference feed. Expected header:
// channel_name,channel_user,channel_user_email
func ReadChannels(path string) ([]refdata.ChannelRow, error) {
	var out []refdata.ChannelRow
	err := readRows(path, func(line int, fields map[string]string) {
		out = append(out, refdata.ChannelRow{
			ChannelName:      fields["channel_name"],
			ChannelUser:      fields["channel_user"],
			ChannelUserEmail: fields["channel_user_email"],
		})
	})
	return out, err
}

// ReadCases loads the case reference feed. Expected header:
// case_reference,court_reference,state
func ReadCases(path string, logger *slog.Logger) ([]refcache.CachedCase, error) {
	logger = logging.NewComponentLogger(logger, "source")

	now := time.Now().UTC()
	var out []refcache.CachedCase
	err := readRows(path, func(line int, fields map[string]string) {
		reference := strings.TrimSpace(fields["case_reference"])
		if reference == "" {
			logger.Warn("skipping case row without a case reference",
				logging.String("file", path), logging.Int("line", line))
			return
		}

		state := refcache.CaseState(strings.ToUpper(strings.TrimSpace(fields["state"])))
		switch state {
		case refcache.CaseStateOpen, refcache.CaseStatePendingClosure, refcache.CaseStateClosed:
		case "":
			state = refcache.CaseStateOpen
		default:
			logger.Warn("skipping case row with an unknown state",
				logging.String("file", path), logging.Int("line", line),
				logging.String("state", string(state)))
			return
		}

		out = append(out, refcache.CachedCase{
			CaseReference:  reference,
			CourtReference: strings.TrimSpace(fields["court_reference"]),
			State:          state,
			CachedAt:       now,
		})
	})
	return out, err
}

func parseTimestamp(raw string) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed, nil
	}
	return time.Parse("2006-01-02", raw)
}

// readRows streams a headered CSV file, calling handle with a header-keyed
// field map per row. Ragged rows are tolerated; the handler sees whatever
// columns the row had.
func readRows(path string, handle func(line int, fields map[string]string)) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open feed %q: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read feed header %q: %w", path, err)
	}
	for i, name := range header {
		header[i] = strings.ToLower(strings.TrimSpace(name))
	}

	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read feed %q line %d: %w", path, line+1, err)
		}
		line++

		fields := make(map[string]string, len(header))
		for i, value := range row {
			if i < len(header) {
				fields[header[i]] = value
			}
		}
		handle(line, fields)
	}
}
