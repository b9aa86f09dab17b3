package telemetry

import (
	"context"

	"github.com/google/uuid"
)

type scanIDKey struct{}

// NewScanID returns a fresh identifier for correlating one scan's log lines.
func NewScanID() string {
	return uuid.NewString()
}

// NewBuildID returns a fresh identifier for a build attempt.
func NewBuildID() string {
	return uuid.NewString()
}

// WithScanID attaches a scan id to ctx.
func WithScanID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, scanIDKey{}, id)
}

// ScanIDFromContext returns the scan id stored in ctx.
func ScanIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(scanIDKey{}).(string)
	return id, ok && id != ""
}
