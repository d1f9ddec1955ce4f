package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"vaultmig/internal/pipeline"
)

const recordColumns = `id, archive_id, archive_name, court_reference, court_id, urn,
    exhibit_reference, defendant_name, witness_name, recording_version,
    recording_version_number, file_name, create_time, duration_seconds,
    file_size_mb, status, failure_category, error_message, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(scanner rowScanner) (*Record, error) {
	var (
		rec        Record
		createTime sql.NullString
		status     string
		createdAt  string
		updatedAt  string
	)
	if err := scanner.Scan(
		&rec.ID,
		&rec.ArchiveID,
		&rec.ArchiveName,
		&rec.CourtReference,
		&rec.CourtID,
		&rec.URN,
		&rec.ExhibitReference,
		&rec.DefendantName,
		&rec.WitnessName,
		&rec.RecordingVersion,
		&rec.RecordingVersionNumber,
		&rec.FileName,
		&createTime,
		&rec.DurationSeconds,
		&rec.FileSizeMB,
		&status,
		&rec.FailureCategory,
		&rec.ErrorMessage,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	parsed, ok := ParseStatus(status)
	if !ok {
		return nil, fmt.Errorf("unknown status %q for archive %q", status, rec.ArchiveID)
	}
	rec.Status = parsed

	if createTime.Valid && strings.TrimSpace(createTime.String) != "" {
		ts, err := time.Parse(time.RFC3339Nano, createTime.String)
		if err != nil {
			return nil, fmt.Errorf("parse create_time: %w", err)
		}
		rec.CreateTime = &ts
	}
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		rec.CreatedAt = ts
	}
	if ts, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		rec.UpdatedAt = ts
	}

	return &rec, nil
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

// Ensure inserts the record if its archive id is unknown and returns the
// stored row either way. Existing rows win: a re-run never clobbers the
// persisted status or metadata of an earlier run.
func (s *Store) Ensure(ctx context.Context, rec *Record) (*Record, error) {
	if rec == nil {
		return nil, errors.New("record is nil")
	}
	archiveID := strings.TrimSpace(rec.ArchiveID)
	if archiveID == "" {
		return nil, errors.New("archive id is required")
	}

	existing, err := s.FindByArchiveID(ctx, archiveID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	status := rec.Status
	if status == "" {
		status = StatusPending
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	_, err = s.execWithRetry(
		ctx,
		`INSERT INTO migration_records (
            archive_id, archive_name, court_reference, court_id, urn,
            exhibit_reference, defendant_name, witness_name, recording_version,
            recording_version_number, file_name, create_time, duration_seconds,
            file_size_mb, status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		archiveID,
		rec.ArchiveName,
		rec.CourtReference,
		rec.CourtID,
		rec.URN,
		rec.ExhibitReference,
		rec.DefendantName,
		rec.WitnessName,
		rec.RecordingVersion,
		rec.RecordingVersionNumber,
		rec.FileName,
		nullableTime(rec.CreateTime),
		rec.DurationSeconds,
		rec.FileSizeMB,
		status,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}

	return s.FindByArchiveID(ctx, archiveID)
}

// FindByArchiveID fetches a record by archive identifier. Returns nil when
// no record exists.
func (s *Store) FindByArchiveID(ctx context.Context, archiveID string) (*Record, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+recordColumns+` FROM migration_records WHERE archive_id = ?`,
		strings.TrimSpace(archiveID),
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by archive id: %w", err)
	}
	return rec, nil
}

// UpdateMetadataFields persists freshly extracted metadata onto the record
// without touching its status. Called after every extraction, even when a
// later stage fails, so the stored record reflects the best known fields.
func (s *Store) UpdateMetadataFields(ctx context.Context, archiveID string, meta pipeline.ExtractedMetadata) error {
	var createTime any
	if !meta.CreatedAt.IsZero() {
		createTime = meta.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE migration_records
         SET archive_name = ?, court_reference = ?, court_id = ?, urn = ?,
             exhibit_reference = ?, defendant_name = ?, witness_name = ?,
             recording_version = ?, recording_version_number = ?, file_name = ?,
             create_time = ?, duration_seconds = ?, file_size_mb = ?, updated_at = ?
         WHERE archive_id = ?`,
		meta.ArchiveName,
		meta.CourtReference,
		meta.CourtID,
		meta.URN,
		meta.ExhibitReference,
		meta.DefendantName,
		meta.WitnessName,
		meta.RecordingVersion,
		meta.RecordingVersionNumber,
		meta.FileName,
		createTime,
		int64(meta.Duration/time.Second),
		meta.FileSizeMB,
		time.Now().UTC().Format(time.RFC3339Nano),
		strings.TrimSpace(archiveID),
	)
	if err != nil {
		return fmt.Errorf("update metadata fields: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("no record for archive id %q", archiveID)
	}
	return nil
}

// UpdateToFailed marks the record failed with a category and message. Safe
// to call repeatedly for the same archive id; a terminal success row is
// never downgraded.
func (s *Store) UpdateToFailed(ctx context.Context, archiveID string, category pipeline.Category, message string) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE migration_records
         SET status = ?, failure_category = ?, error_message = ?, updated_at = ?
         WHERE archive_id = ? AND status != ?`,
		StatusFailed,
		category.String(),
		message,
		time.Now().UTC().Format(time.RFC3339Nano),
		strings.TrimSpace(archiveID),
		StatusSuccess,
	)
	if err != nil {
		return fmt.Errorf("update to failed: %w", err)
	}
	return nil
}

// MarkSuccess transitions a pending or submitted record to success and
// clears any previous failure detail.
func (s *Store) MarkSuccess(ctx context.Context, archiveID string) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE migration_records
         SET status = ?, failure_category = '', error_message = '', updated_at = ?
         WHERE archive_id = ? AND status IN (?, ?)`,
		StatusSuccess,
		time.Now().UTC().Format(time.RFC3339Nano),
		strings.TrimSpace(archiveID),
		StatusPending,
		StatusSubmitted,
	)
	if err != nil {
		return fmt.Errorf("mark success: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("no pending or submitted record for archive id %q", archiveID)
	}
	return nil
}

// Resubmit moves a failed record back to submitted so a later run can
// re-validate it. Administrative operation, not part of a pipeline pass.
func (s *Store) Resubmit(ctx context.Context, archiveID string) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE migration_records
         SET status = ?, updated_at = ?
         WHERE archive_id = ? AND status = ?`,
		StatusSubmitted,
		time.Now().UTC().Format(time.RFC3339Nano),
		strings.TrimSpace(archiveID),
		StatusFailed,
	)
	if err != nil {
		return fmt.Errorf("resubmit: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("no failed record for archive id %q", archiveID)
	}
	return nil
}

// List returns every record ordered by archive id.
func (s *Store) List(ctx context.Context) ([]*Record, error) {
	return s.queryRecords(ctx, `SELECT `+recordColumns+` FROM migration_records ORDER BY archive_id`)
}

// ListByStatus returns the records currently in the given status.
func (s *Store) ListByStatus(ctx context.Context, status Status) ([]*Record, error) {
	return s.queryRecords(
		ctx,
		`SELECT `+recordColumns+` FROM migration_records WHERE status = ? ORDER BY archive_id`,
		status,
	)
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]*Record, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

// CountByStatus aggregates record counts per status.
func (s *Store) CountByStatus(ctx context.Context) (map[Status]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM migration_records GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		if parsed, ok := ParseStatus(status); ok {
			counts[parsed] = count
		}
	}
	return counts, rows.Err()
}

// CountFailuresByCategory aggregates failed record counts per category.
func (s *Store) CountFailuresByCategory(ctx context.Context) (map[string]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT failure_category, COUNT(*) FROM migration_records WHERE status = ? GROUP BY failure_category`,
		StatusFailed,
	)
	if err != nil {
		return nil, fmt.Errorf("count failures: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			category string
			count    int
		)
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("scan failure count: %w", err)
		}
		counts[category] = count
	}
	return counts, rows.Err()
}
