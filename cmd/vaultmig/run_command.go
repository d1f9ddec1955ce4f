package main

import (
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"vaultmig/internal/extraction"
	"vaultmig/internal/processor"
	"vaultmig/internal/refdata"
	"vaultmig/internal/runner"
	"vaultmig/internal/source"
	"vaultmig/internal/tracker"
	"vaultmig/internal/transform"
	"vaultmig/internal/validation"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var archivesPath string
	var sitesPath string
	var channelsPath string
	var skipReports bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process a batch of archive and reference-data feeds",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cfg.Paths.LogDir)
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			cache, err := ctx.openCache(logger)
			if err != nil {
				return err
			}

			var items []any

			if sitesPath != "" {
				sites, err := source.ReadSites(sitesPath)
				if err != nil {
					return fmt.Errorf("read sites feed: %w", err)
				}
				for _, site := range sites {
					items = append(items, site)
				}
			}
			if channelsPath != "" {
				channels, err := source.ReadChannels(channelsPath)
				if err != nil {
					return fmt.Errorf("read channels feed: %w", err)
				}
				for _, channel := range channels {
					items = append(items, channel)
				}
			}

			archives, err := source.ReadArchives(archivesPath, logger)
			if err != nil {
				return fmt.Errorf("read archives feed: %w", err)
			}
			for _, archive := range archives {
				// Existing rows win so resubmitted and already-settled
				// records keep their stored status.
				stored, err := store.Ensure(signalCtx, archive)
				if err != nil {
					return fmt.Errorf("register archive %s: %w", archive.ArchiveID, err)
				}
				items = append(items, stored)
			}

			ingestor := refdata.NewIngestor(logger)
			trk := tracker.New(logger)
			proc := processor.New(
				store,
				cache,
				ingestor,
				extraction.NewService(cfg, ingestor, logger),
				transform.NewService(cfg, cache, logger),
				validation.NewService(logger),
				trk,
				logger,
			)

			summary, runErr := runner.New(cfg, proc, trk, logger).Run(signalCtx, items)
			if runErr != nil && summary == nil {
				if errors.Is(runErr, runner.ErrRunInProgress) {
					return runErr
				}
				return fmt.Errorf("run batch: %w", runErr)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			printRunSummary(out, summary, colorize)

			if !skipReports {
				if err := trk.WriteReports(cfg.Paths.ReportDir); err != nil {
					return fmt.Errorf("write reports: %w", err)
				}
				fmt.Fprintf(out, "Reports written to %s\n", cfg.Paths.ReportDir)
			}

			if runErr != nil {
				return fmt.Errorf("run interrupted: %w", runErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&archivesPath, "archives", "", "Path to the archive index CSV feed")
	cmd.Flags().StringVar(&sitesPath, "sites", "", "Path to the site reference CSV feed")
	cmd.Flags().StringVar(&channelsPath, "channels", "", "Path to the channel contact CSV feed")
	cmd.Flags().BoolVar(&skipReports, "no-reports", false, "Skip writing the end-of-run CSV reports")
	_ = cmd.MarkFlagRequired("archives")
	return cmd
}

const summaryElapsedPrecision = 10 * time.Millisecond

func printRunSummary(out io.Writer, summary *runner.Summary, colorize bool) {
	fmt.Fprintln(out, colorLine(ansiBlue, fmt.Sprintf("Run %s finished in %s", summary.RunID, summary.Elapsed.Round(summaryElapsedPrecision)), colorize))

	rows := [][]string{
		{"Reference items", strconv.Itoa(summary.ReferenceItems)},
		{"Recording items", strconv.Itoa(summary.RecordingItems)},
		{"Succeeded", strconv.Itoa(summary.Tracker.Succeeded)},
		{"Failed", strconv.Itoa(summary.Tracker.Failed)},
		{"Test recordings", strconv.Itoa(summary.Tracker.Tests)},
		{"Review flags", strconv.Itoa(summary.Tracker.Notifies)},
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Outcome", "Count"},
		rows,
		[]columnAlignment{alignLeft, alignRight},
	))

	if len(summary.Tracker.FailureCategoryKeys) > 0 {
		fmt.Fprintln(out, colorLine(ansiYellow, "Failures by category:", colorize))
		categoryRows := make([][]string, 0, len(summary.Tracker.FailureCategoryKeys))
		for _, category := range summary.Tracker.FailureCategoryKeys {
			categoryRows = append(categoryRows, []string{
				string(category),
				strconv.Itoa(summary.Tracker.FailuresByCategory[category]),
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Category", "Count"},
			categoryRows,
			[]columnAlignment{alignLeft, alignRight},
		))
	} else if summary.Tracker.Succeeded > 0 {
		fmt.Fprintln(out, colorLine(ansiGreen, "No failures recorded", colorize))
	}
}
