package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"vaultmig/internal/logging"
	"vaultmig/internal/source"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the reference cache",
	}

	cacheCmd.AddCommand(newCacheShowCommand(ctx))
	cacheCmd.AddCommand(newCacheLoadCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show cached case references",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := ctx.openCache(logging.NewNop())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			cases := cache.Cases()
			if len(cases) == 0 {
				fmt.Fprintln(out, "Reference cache is empty")
				return nil
			}

			rows := make([][]string, 0, len(cases))
			for _, entry := range cases {
				rows = append(rows, []string{
					entry.CaseReference,
					entry.CourtReference,
					string(entry.State),
					yesNo(entry.IsOpen()),
					entry.CachedAt.Format(time.DateTime),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Case Reference", "Court", "State", "Open", "Cached"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			fmt.Fprintf(out, "%d cached case(s)\n", len(cases))
			return nil
		},
	}
}

func newCacheLoadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "load <cases.csv>",
		Short: "Load case references from a CSV feed into the cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.newLogger("")
			if err != nil {
				return err
			}
			cache, err := ctx.openCache(logger)
			if err != nil {
				return err
			}

			entries, err := source.ReadCases(args[0], logger)
			if err != nil {
				return fmt.Errorf("read cases feed: %w", err)
			}
			cache.MergeCases(entries)
			if err := cache.Checkpoint(); err != nil {
				return fmt.Errorf("checkpoint cache: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %s case(s); cache now holds %s\n",
				strconv.Itoa(len(entries)), strconv.Itoa(cache.Count()))
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Discard the reference cache checkpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return fmt.Errorf("refusing to clear the reference cache without --yes")
			}
			cache, err := ctx.openCache(logging.NewNop())
			if err != nil {
				return err
			}
			if err := cache.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Reference cache cleared")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&confirm, "yes", "y", false, "Confirm clearing the cache")
	return cmd
}
