package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mcpreg/internal/domain"
	"mcpreg/internal/infra/telemetry"
)

func TestParseRescanSchedule(t *testing.T) {
	tests := []struct {
		spec    string
		period  time.Duration
		wantErr bool
	}{
		{spec: "@every 5m", period: 5 * time.Minute},
		{spec: "@hourly", period: time.Hour},
		{spec: "*/15 * * * *", period: 15 * time.Minute},
		{spec: "", wantErr: true},
		{spec: "every five minutes", wantErr: true},
		{spec: "0 */15 * * * *", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			schedule, err := ParseRescanSchedule(tt.spec)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
			require.Equal(t, tt.period, schedulePeriod(schedule, now))
		})
	}
}

func TestNewRescanSchedulerEmptySpecIsDisabled(t *testing.T) {
	scheduler, err := NewRescanScheduler("  ", nil, nil, zap.NewNop())
	require.NoError(t, err)
	require.Nil(t, scheduler)

	scheduler.Start(context.Background())
	scheduler.Stop()
}

func TestNewRescanSchedulerRejectsInvalidSpec(t *testing.T) {
	_, err := NewRescanScheduler("nope", nil, nil, zap.NewNop())
	require.ErrorContains(t, err, "invalid rescan schedule")
}

func TestRescanReportsStatusChanges(t *testing.T) {
	f := newRegistryFixture(t)
	notes := writeTool(t, f.root, "mcp-notes", `{"main":"dist/index.js"}`)
	registry := f.newRegistry(t, RegistryOptions{})
	rescanner := NewRescanner(registry, zap.NewNop())

	changes, err := rescanner.Rescan(context.Background(), telemetry.EventWatchTrigger)
	require.NoError(t, err)
	require.Nil(t, changes)

	f.writeConfig(t, `{"mcpServers":{"notes":{}}}`)
	todo := writeTool(t, f.root, "mcp-todo", `{}`)

	changes, err = rescanner.Rescan(context.Background(), telemetry.EventWatchTrigger)
	require.NoError(t, err)
	require.Equal(t, []domain.StatusChange{
		{Path: notes, Name: "mcp-notes", From: domain.StatusUnconfigured, To: domain.StatusBroken},
		{Path: todo, Name: "mcp-todo", To: domain.StatusUnconfigured},
	}, changes)
}

func TestRescanBaselineIgnoresInteractiveScans(t *testing.T) {
	f := newRegistryFixture(t)
	notes := writeTool(t, f.root, "mcp-notes", `{"main":"dist/index.js"}`)
	registry := f.newRegistry(t, RegistryOptions{})
	rescanner := NewRescanner(registry, zap.NewNop())

	_, err := rescanner.Rescan(context.Background(), telemetry.EventWatchTrigger)
	require.NoError(t, err)

	f.writeConfig(t, `{"mcpServers":{"notes":{}}}`)
	entries, err := registry.List(context.Background(), "all")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	changes, err := rescanner.Rescan(context.Background(), telemetry.EventWatchTrigger)
	require.NoError(t, err)
	require.Equal(t, []domain.StatusChange{
		{Path: notes, Name: "mcp-notes", From: domain.StatusUnconfigured, To: domain.StatusBroken},
	}, changes)
}

func TestRescanSchedulerStartRegistersHeartbeat(t *testing.T) {
	f := newRegistryFixture(t)
	registry := f.newRegistry(t, RegistryOptions{})
	health := telemetry.NewHealthTracker()

	scheduler, err := NewRescanScheduler("@every 1h", NewRescanner(registry, nil), health, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	scheduler.Start(ctx)
	t.Cleanup(func() {
		cancel()
		scheduler.Stop()
	})

	report := health.Report()
	require.Equal(t, "ok", report.Status)
	require.Len(t, report.Checks, 1)
	require.Equal(t, "rescan", report.Checks[0].Name)
	require.Equal(t, "ok", report.Checks[0].Status)
}
