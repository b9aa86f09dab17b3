package domain

import "context"

// CapabilityDiscoverer lists the capabilities a tool exposes without running it.
// Implementations are best-effort: failures yield an empty list, never an error.
type CapabilityDiscoverer interface {
	Discover(ctx context.Context, toolPath string) []string
}

// CapabilityDiscovererFunc adapts a function to CapabilityDiscoverer.
type CapabilityDiscovererFunc func(ctx context.Context, toolPath string) []string

func (f CapabilityDiscovererFunc) Discover(ctx context.Context, toolPath string) []string {
	return f(ctx, toolPath)
}

// NoopCapabilityDiscoverer never reports capabilities.
type NoopCapabilityDiscoverer struct{}

func (NoopCapabilityDiscoverer) Discover(context.Context, string) []string { return nil }
