package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestValidateSettingsReportsCounts(t *testing.T) {
	f := newRegistryFixture(t)
	f.writeConfig(t, `{"mcpServers":{"notes":{},"todo":{}}}`)
	writeTool(t, f.root, "mcp-notes", `{}`)
	writeTool(t, f.archive, "mcp-old", `{}`)

	report, err := ValidateSettings(context.Background(), Settings{
		Registry:       f.registryConfig(),
		RescanSchedule: "@every 5m",
	}, zap.NewNop())
	require.NoError(t, err)
	require.Empty(t, report.Problems)
	require.Equal(t, 2, report.ConfiguredEntries)
	require.Equal(t, 1, report.CandidateTools)
	require.Equal(t, 1, report.ArchivedTools)
}

func TestValidateSettingsCollectsProblems(t *testing.T) {
	f := newRegistryFixture(t)
	f.writeConfig(t, `{"mcpServers":`)
	cfg := f.registryConfig()
	cfg.CandidateRoot = f.root + "-missing"

	report, err := ValidateSettings(context.Background(), Settings{
		Registry:       cfg,
		RescanSchedule: "whenever",
	}, zap.NewNop())
	require.ErrorIs(t, err, ErrInvalidSettings)
	require.Len(t, report.Problems, 3)
	require.Contains(t, report.Problems[0], "candidate root")
	require.Contains(t, report.Problems[1], "config document")
	require.Contains(t, report.Problems[2], "invalid rescan schedule")
}
