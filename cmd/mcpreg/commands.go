package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mcpreg/internal/app"
	"mcpreg/internal/infra/telemetry"
	"mcpreg/internal/infra/watch"
)

func newListCmd(opts *cliOptions) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tools and their status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, cleanup, err := openRegistry(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			entries, err := registry.List(cmd.Context(), status)
			if err != nil {
				return err
			}
			return printEntries(cmd.OutOrStdout(), opts.output, entries)
		},
	}
	cmd.Flags().StringVar(&status, "status", "all", "filter: all, active, broken, unconfigured or archived")
	return cmd
}

func newInfoCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info <tool>",
		Short: "Show details for one tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, cleanup, err := openRegistry(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			detail, err := registry.Info(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printDetail(cmd.OutOrStdout(), opts.output, detail)
		},
	}
}

func newSnippetCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "snippet <tool>",
		Short: "Print the client config entry for a tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, cleanup, err := openRegistry(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			snippet, err := registry.ConfigSnippet(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), snippet)
			return err
		},
	}
}

func newBuildCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "build <tool>",
		Short: "Install dependencies and build a tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			registry, cleanup, err := openRegistry(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			message, err := registry.Build(ctx, args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), message)
			return err
		},
	}
}

func newSummaryCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Count tools by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, cleanup, err := openRegistry(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			summary, err := registry.Summary(cmd.Context())
			if err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), opts.output, summary)
		},
	}
}

func newHistoryCmd(opts *cliOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [tool]",
		Short: "Show recorded build attempts, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, cleanup, err := openRegistry(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			tool := ""
			if len(args) == 1 {
				tool = args[0]
			}
			records, err := registry.History(tool, limit)
			if err != nil {
				return err
			}
			return printHistory(cmd.OutOrStdout(), opts.output, records)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum records to show (0 for all)")
	return cmd
}

func newWatchCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print status changes as tool directories and the client config change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			registry, cleanup, err := openRegistry(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			rescanner := app.NewRescanner(registry, opts.logger)
			if _, err := rescanner.Rescan(ctx, telemetry.EventWatchTrigger); err != nil {
				return err
			}

			cfg := registry.Config()
			watcher := watch.New(watch.Options{
				Roots:      []string{cfg.CandidateRoot, cfg.ArchiveRoot},
				ConfigPath: cfg.ConfigDocumentPath,
				ToolPrefix: cfg.ToolPrefix,
				Logger:     opts.logger,
			})
			out := cmd.OutOrStdout()
			return watcher.Run(ctx, func(ctx context.Context, _ watch.Trigger) {
				changes, err := rescanner.Rescan(ctx, telemetry.EventWatchTrigger)
				if err != nil {
					opts.logger.Warn("rescan failed", zap.Error(err))
					return
				}
				if err := printChanges(out, opts.output, changes); err != nil {
					opts.logger.Warn("print changes failed", zap.Error(err))
				}
			})
		},
	}
}

func newValidateCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check settings, roots and the client config document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := app.ValidateSettings(cmd.Context(), opts.settings, opts.logger)
			if printErr := printValidateReport(cmd.OutOrStdout(), opts.output, report); printErr != nil {
				return printErr
			}
			if err != nil {
				return exitSilent(1)
			}
			return nil
		},
	}
}
