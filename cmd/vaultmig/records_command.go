package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"vaultmig/internal/records"
)

func newRecordsCommand(ctx *commandContext) *cobra.Command {
	recordsCmd := &cobra.Command{
		Use:   "records",
		Short: "Inspect and manage stored migration records",
	}

	recordsCmd.AddCommand(newRecordsListCommand(ctx))
	recordsCmd.AddCommand(newRecordsShowCommand(ctx))
	recordsCmd.AddCommand(newRecordsResubmitCommand(ctx))

	return recordsCmd
}

func newRecordsListCommand(ctx *commandContext) *cobra.Command {
	var statusFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List migration records",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			var recs []*records.Record
			if trimmed := strings.TrimSpace(statusFlag); trimmed != "" {
				status, ok := records.ParseStatus(trimmed)
				if !ok {
					return fmt.Errorf("unknown status %q (expected one of %s)", trimmed, statusNames())
				}
				recs, err = store.ListByStatus(cmd.Context(), status)
			} else {
				recs, err = store.List(cmd.Context())
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(recs) == 0 {
				fmt.Fprintln(out, "No records found")
				return nil
			}

			rows := make([][]string, 0, len(recs))
			for _, rec := range recs {
				rows = append(rows, []string{
					rec.ArchiveID,
					rec.ArchiveName,
					string(rec.Status),
					rec.FailureCategory,
					rec.UpdatedAt.Format(time.DateTime),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Archive ID", "Archive Name", "Status", "Failure Category", "Updated"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			fmt.Fprintf(out, "%d record(s)\n", len(recs))
			return nil
		},
	}

	cmd.Flags().StringVarP(&statusFlag, "status", "s", "", "Only show records with this status")
	return cmd
}

func newRecordsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <archive-id>",
		Short: "Show one migration record in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			rec, err := store.FindByArchiveID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if rec == nil {
				return fmt.Errorf("no record with archive id %q", args[0])
			}

			created := ""
			if rec.CreateTime != nil {
				created = rec.CreateTime.Format(time.RFC3339)
			}
			rows := [][]string{
				{"Archive ID", rec.ArchiveID},
				{"Archive Name", rec.ArchiveName},
				{"Status", string(rec.Status)},
				{"Court Reference", rec.CourtReference},
				{"URN", rec.URN},
				{"Exhibit Reference", rec.ExhibitReference},
				{"Defendant", rec.DefendantName},
				{"Witness", rec.WitnessName},
				{"Version", rec.RecordingVersion},
				{"Version Number", rec.RecordingVersionNumber},
				{"File Name", rec.FileName},
				{"Created", created},
				{"Duration (s)", strconv.FormatInt(rec.DurationSeconds, 10)},
				{"Size (MB)", strconv.FormatFloat(rec.FileSizeMB, 'f', 2, 64)},
				{"Failure Category", rec.FailureCategory},
				{"Error", rec.ErrorMessage},
				{"Updated", rec.UpdatedAt.Format(time.RFC3339)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Field", "Value"},
				rows,
				[]columnAlignment{alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newRecordsResubmitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resubmit <archive-id>",
		Short: "Queue a failed record for another migration attempt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Resubmit(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Record %s queued for resubmission\n", args[0])
			return nil
		},
	}
}

func statusNames() string {
	statuses := records.AllStatuses()
	names := make([]string, 0, len(statuses))
	for _, status := range statuses {
		names = append(names, string(status))
	}
	return strings.Join(names, ", ")
}
