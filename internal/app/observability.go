package app

// ObservabilityOptions overrides which endpoints the observability listener
// serves. Nil fields fall back to MCPREG_METRICS_ENABLED and
// MCPREG_HEALTHZ_ENABLED, both on by default.
type ObservabilityOptions struct {
	MetricsEnabled *bool
	HealthzEnabled *bool
}

func resolveObservabilityDefaults(opts *ObservabilityOptions) (bool, bool) {
	metricsEnabled := envBoolDefault(envPrefix+"_METRICS_ENABLED", true)
	healthzEnabled := envBoolDefault(envPrefix+"_HEALTHZ_ENABLED", true)
	if opts != nil {
		if opts.MetricsEnabled != nil {
			metricsEnabled = *opts.MetricsEnabled
		}
		if opts.HealthzEnabled != nil {
			healthzEnabled = *opts.HealthzEnabled
		}
	}
	return metricsEnabled, healthzEnabled
}
