package main

import (
	"github.com/spf13/cobra"

	"mcpreg/internal/app"
	"mcpreg/internal/infra/telemetry"
)

type serveArgs struct {
	watch   bool
	metrics bool
	healthz bool
}

func newServeCmd(opts *cliOptions) *cobra.Command {
	args := &serveArgs{
		metrics: true,
		healthz: true,
	}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the registry as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			cfg := app.ServeConfig{
				Settings:      opts.settings,
				Watch:         args.watch,
				Observability: &app.ObservabilityOptions{},
			}
			if cmd.Flags().Changed("metrics") {
				cfg.Observability.MetricsEnabled = &args.metrics
			}
			if cmd.Flags().Changed("healthz") {
				cfg.Observability.HealthzEnabled = &args.healthz
			}

			application, cleanup, err := app.InitializeApplication(ctx, cfg, app.LoggingConfig{
				Logger: opts.logger,
				Source: telemetry.LogSourceMCP,
			})
			if err != nil {
				return err
			}
			defer cleanup()
			return application.Run()
		},
	}
	cmd.Flags().BoolVar(&args.watch, "watch", false, "rescan when tool directories or the client config change")
	cmd.Flags().BoolVar(&args.metrics, "metrics", args.metrics, "serve /metrics on the observability listener")
	cmd.Flags().BoolVar(&args.healthz, "healthz", args.healthz, "serve /healthz on the observability listener")
	cmd.Flags().String("listen", "", "observability listen address (empty string disables)")
	cmd.Flags().String("rescan", "", "cron schedule for background rescans, e.g. \"@every 5m\"")
	return cmd
}
