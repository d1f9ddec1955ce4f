package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"vaultmig/internal/records"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Summarize stored migration outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			byStatus, err := store.CountByStatus(cmd.Context())
			if err != nil {
				return err
			}
			byCategory, err := store.CountFailuresByCategory(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			total := 0
			statusRows := make([][]string, 0, len(records.AllStatuses()))
			for _, status := range records.AllStatuses() {
				count := byStatus[status]
				total += count
				statusRows = append(statusRows, []string{string(status), strconv.Itoa(count)})
			}
			statusRows = append(statusRows, []string{"total", strconv.Itoa(total)})

			fmt.Fprintln(out, colorLine(ansiBlue, "Records by status:", colorize))
			fmt.Fprintln(out, renderTable(
				[]string{"Status", "Count"},
				statusRows,
				[]columnAlignment{alignLeft, alignRight},
			))

			if len(byCategory) == 0 {
				fmt.Fprintln(out, colorLine(ansiGreen, "No stored failures", colorize))
				return nil
			}

			categories := make([]string, 0, len(byCategory))
			for category := range byCategory {
				categories = append(categories, category)
			}
			sort.Strings(categories)

			categoryRows := make([][]string, 0, len(categories))
			for _, category := range categories {
				categoryRows = append(categoryRows, []string{category, strconv.Itoa(byCategory[category])})
			}

			fmt.Fprintln(out, colorLine(ansiYellow, "Failures by category:", colorize))
			fmt.Fprintln(out, renderTable(
				[]string{"Category", "Count"},
				categoryRows,
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}
}
