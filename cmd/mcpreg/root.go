package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"mcpreg/internal/app"
	"mcpreg/internal/infra/telemetry"
)

type cliOptions struct {
	configPath string
	logLevel   string
	output     string
	settings   app.Settings
	logger     *zap.Logger
}

// settingsFlagKeys maps command-line flags onto settings keys.
var settingsFlagKeys = map[string]string{
	"candidate-root": "candidateRoot",
	"archive-root":   "archiveRoot",
	"claude-config":  "configDocumentPath",
	"config-format":  "configFormat",
	"build-log":      "buildLog.path",
	"listen":         "observability.listenAddress",
	"rescan":         "rescanSchedule",
}

func newRootCommand() *cobra.Command {
	opts := cliOptions{
		logLevel: "warn",
		output:   outputTable,
		logger:   zap.NewNop(),
	}

	root := &cobra.Command{
		Use:           "mcpreg",
		Short:         "Registry of locally developed MCP tool servers",
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutputFlag(opts.output); err != nil {
				return err
			}
			logger, err := app.NewStderrLogger(opts.logLevel)
			if err != nil {
				return err
			}
			opts.logger = logger
			settings, err := app.LoadSettings(app.SettingsOptions{
				File:   opts.configPath,
				DotEnv: true,
				Flags:  settingsFlagBindings(cmd),
			})
			if err != nil {
				return err
			}
			opts.settings = settings
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = opts.logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to settings file (default: $MCPREG_CONFIG or the user config dir)")
	root.PersistentFlags().String("candidate-root", "", "directory holding the tool directories")
	root.PersistentFlags().String("archive-root", "", "directory holding archived tools (default: <candidate-root>/archived)")
	root.PersistentFlags().String("claude-config", "", "client configuration document listing registered servers")
	root.PersistentFlags().String("config-format", "", "client configuration format: auto, json or toml")
	root.PersistentFlags().String("build-log", "", "path to the build history database")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", opts.logLevel, "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", opts.output, "output format: table, json or yaml")

	root.AddCommand(
		newServeCmd(&opts),
		newListCmd(&opts),
		newInfoCmd(&opts),
		newSnippetCmd(&opts),
		newBuildCmd(&opts),
		newSummaryCmd(&opts),
		newHistoryCmd(&opts),
		newWatchCmd(&opts),
		newValidateCmd(&opts),
	)

	return root
}

// settingsFlagBindings returns the settings flags visible to cmd, keyed by
// settings key. Unchanged flags are bound too; viper only lets them win over
// defaults.
func settingsFlagBindings(cmd *cobra.Command) map[string]*pflag.Flag {
	bindings := make(map[string]*pflag.Flag, len(settingsFlagKeys))
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := settingsFlagKeys[f.Name]; ok {
			bindings[key] = f
		}
	})
	return bindings
}

func openRegistry(opts *cliOptions) (*app.Registry, func(), error) {
	return app.InitializeRegistry(opts.settings, app.LoggingConfig{
		Logger: opts.logger,
		Source: telemetry.LogSourceCLI,
	})
}

func signalAwareContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
