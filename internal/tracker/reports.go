package tracker

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// WriteReports exports the run outcomes as CSV files under dir. Written
// once at the end of a run; existing reports are replaced.
func (t *Tracker) WriteReports(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	failed := t.Failed()
	failedRows := make([][]string, 0, len(failed))
	for _, item := range failed {
		failedRows = append(failedRows, []string{
			item.ArchiveID,
			item.ArchiveName,
			item.Category.String(),
			item.Message,
			item.At.Format(time.RFC3339),
		})
	}
	if err := writeCSV(
		filepath.Join(dir, "failed_items.csv"),
		[]string{"archive_id", "archive_name", "category", "message", "failed_at"},
		failedRows,
	); err != nil {
		return err
	}

	tests := t.Tests()
	testRows := make([][]string, 0, len(tests))
	for _, item := range tests {
		testRows = append(testRows, []string{
			item.ArchiveID,
			item.ArchiveName,
			item.Reason,
			item.Keyword,
		})
	}
	if err := writeCSV(
		filepath.Join(dir, "test_items.csv"),
		[]string{"archive_id", "archive_name", "reason", "keyword"},
		testRows,
	); err != nil {
		return err
	}

	notifies := t.Notifies()
	notifyRows := make([][]string, 0, len(notifies))
	for _, item := range notifies {
		notifyRows = append(notifyRows, []string{
			item.Recording.ArchiveID,
			item.Recording.ArchiveName,
			item.Reason,
			item.Recording.CaseReference,
			item.Recording.ExhibitReference,
			strconv.FormatBool(item.Recording.IsPreferred),
		})
	}
	return writeCSV(
		filepath.Join(dir, "notify_items.csv"),
		[]string{"archive_id", "archive_name", "reason", "case_reference", "exhibit_reference", "preferred"},
		notifyRows,
	)
}

func writeCSV(path string, header []string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report %q: %w", path, err)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		_ = file.Close()
		return fmt.Errorf("write report header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			_ = file.Close()
			return fmt.Errorf("write report row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		_ = file.Close()
		return fmt.Errorf("flush report %q: %w", path, err)
	}
	return file.Close()
}
