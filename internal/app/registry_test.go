package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mcpreg/internal/domain"
	"mcpreg/internal/infra/buildlog"
	"mcpreg/internal/infra/membership"
)

type registryFixture struct {
	root    string
	archive string
	config  string
}

func newRegistryFixture(t *testing.T) registryFixture {
	t.Helper()
	base := t.TempDir()
	root := filepath.Join(base, "Code")
	archive := filepath.Join(root, "archived")
	require.NoError(t, os.MkdirAll(archive, 0o755))
	return registryFixture{
		root:    root,
		archive: archive,
		config:  filepath.Join(base, "claude_desktop_config.json"),
	}
}

func (f registryFixture) registryConfig() domain.RegistryConfig {
	return domain.RegistryConfig{
		CandidateRoot:      f.root,
		ArchiveRoot:        f.archive,
		ConfigDocumentPath: f.config,
	}.WithDefaults()
}

func (f registryFixture) writeConfig(t *testing.T, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(f.config, []byte(content), 0o600))
}

func (f registryFixture) newRegistry(t *testing.T, opts RegistryOptions) *Registry {
	t.Helper()
	cfg := f.registryConfig()
	opts.Config = cfg
	if opts.Membership == nil {
		opts.Membership = membership.NewReader(membership.Options{
			Path:       cfg.ConfigDocumentPath,
			Format:     cfg.ConfigFormat,
			ServersKey: cfg.ServersKey,
			Logger:     zap.NewNop(),
		})
	}
	opts.Logger = zap.NewNop()
	return NewRegistry(opts)
}

func writeTool(t *testing.T, parent, name, manifest string, files ...string) string {
	t.Helper()
	dir := filepath.Join(parent, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	if manifest != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(manifest), 0o600))
	}
	for _, file := range files {
		path := filepath.Join(dir, file)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("// built"), 0o600))
	}
	return dir
}

func recordByName(t *testing.T, records []domain.ToolRecord, name string) domain.ToolRecord {
	t.Helper()
	for _, record := range records {
		if record.Name == name {
			return record
		}
	}
	t.Fatalf("record %s not found", name)
	return domain.ToolRecord{}
}

type recordingMetrics struct {
	mu     sync.Mutex
	scans  []domain.ScanMetric
	builds []domain.BuildResult
}

func (m *recordingMetrics) ObserveScan(metric domain.ScanMetric) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scans = append(m.scans, metric)
}

func (m *recordingMetrics) ObserveBuild(_ string, result domain.BuildResult, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.builds = append(m.builds, result)
}

func TestScanConfiguredButNotBuiltIsBroken(t *testing.T) {
	f := newRegistryFixture(t)
	f.writeConfig(t, `{"mcpServers":{"runner":{"command":"node"}}}`)
	writeTool(t, f.root, "mcp-runner", `{"main": "build/run.js"}`)

	report, err := f.newRegistry(t, RegistryOptions{}).Scan(context.Background())
	require.NoError(t, err)

	record := recordByName(t, report.Records, "mcp-runner")
	require.Equal(t, domain.StatusBroken, record.Status)
	require.Equal(t, "Not built (missing build/run.js)", record.Error)
	require.True(t, record.Configured)
}

func TestScanConfiguredWithoutManifestIsBroken(t *testing.T) {
	f := newRegistryFixture(t)
	f.writeConfig(t, `{"mcpServers":{"notes":{}}}`)
	writeTool(t, f.root, "mcp-notes", "")

	report, err := f.newRegistry(t, RegistryOptions{}).Scan(context.Background())
	require.NoError(t, err)

	record := recordByName(t, report.Records, "mcp-notes")
	require.Equal(t, domain.StatusBroken, record.Status)
	require.Equal(t, domain.DiagnosticMissingManifest, record.Error)
	require.True(t, record.Configured)
}

func TestScanMissingConfigDocumentLeavesEverythingUnconfigured(t *testing.T) {
	f := newRegistryFixture(t)
	writeTool(t, f.root, "mcp-notes", `{"main":"dist/index.js"}`, "dist/index.js")
	writeTool(t, f.root, "mcp-todo", "")
	writeTool(t, f.archive, "mcp-old", `{}`)

	report, err := f.newRegistry(t, RegistryOptions{}).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Records, 3)
	require.Zero(t, report.Configured)

	for _, record := range report.Records {
		require.False(t, record.Configured, record.Name)
	}
	require.Equal(t, domain.StatusUnconfigured, recordByName(t, report.Records, "mcp-notes").Status)
	require.Equal(t, domain.StatusArchived, recordByName(t, report.Records, "mcp-old").Status)
}

func TestScanIsIdempotent(t *testing.T) {
	f := newRegistryFixture(t)
	f.writeConfig(t, `{"mcpServers":{"notes":{},"todo":{}}}`)
	writeTool(t, f.root, "mcp-notes", `{"main":"dist/index.js","version":"1.0.0"}`, "dist/index.js")
	writeTool(t, f.root, "mcp-todo", `{}`)
	writeTool(t, f.root, "mcp-draft", `{"main":"dist/index.js"}`)
	writeTool(t, f.archive, "mcp-legacy", "")

	registry := f.newRegistry(t, RegistryOptions{})
	first, err := registry.Scan(context.Background())
	require.NoError(t, err)
	second, err := registry.Scan(context.Background())
	require.NoError(t, err)

	sortRecords := cmpopts.SortSlices(func(a, b domain.ToolRecord) bool { return a.Path < b.Path })
	if diff := cmp.Diff(first.Records, second.Records, sortRecords); diff != "" {
		t.Fatalf("scan records mismatch (-first +second):\n%s", diff)
	}
	require.NotEqual(t, first.ID, second.ID)
}

func TestScanSkipsNonPrefixedEntriesAndReportsMetrics(t *testing.T) {
	f := newRegistryFixture(t)
	writeTool(t, f.root, "notes", `{}`)
	writeTool(t, f.root, "mcp-notes", `{}`)
	require.NoError(t, os.WriteFile(filepath.Join(f.root, "mcp-file"), []byte("x"), 0o600))

	metrics := &recordingMetrics{}
	report, err := f.newRegistry(t, RegistryOptions{Metrics: metrics}).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Records, 1)
	require.Len(t, metrics.scans, 1)
	require.Equal(t, 1, metrics.scans[0].Counts[domain.StatusUnconfigured])
}

func TestScanCanceledContext(t *testing.T) {
	f := newRegistryFixture(t)
	writeTool(t, f.root, "mcp-notes", `{}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.newRegistry(t, RegistryOptions{}).Scan(ctx)
	require.Error(t, err)
	code, ok := domain.CodeFrom(err)
	require.True(t, ok)
	require.Equal(t, domain.CodeCanceled, code)
}

func TestListFiltersAndSorts(t *testing.T) {
	f := newRegistryFixture(t)
	f.writeConfig(t, `{"mcpServers":{"zeta":{},"alpha":{}}}`)
	writeTool(t, f.root, "mcp-zeta", `{"main":"dist/index.js"}`, "dist/index.js")
	writeTool(t, f.root, "mcp-alpha", `{"main":"dist/index.js"}`, "dist/index.js")
	writeTool(t, f.root, "mcp-beta", `{}`)

	registry := f.newRegistry(t, RegistryOptions{})

	active, err := registry.List(context.Background(), "active")
	require.NoError(t, err)
	require.Equal(t, []string{"mcp-alpha", "mcp-zeta"}, entryNames(active))

	all, err := registry.List(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, []string{"mcp-alpha", "mcp-beta", "mcp-zeta"}, entryNames(all))
}

func TestListRejectsUnknownStatus(t *testing.T) {
	f := newRegistryFixture(t)

	_, err := f.newRegistry(t, RegistryOptions{}).List(context.Background(), "sleeping")
	require.ErrorIs(t, err, domain.ErrInvalidStatus)
	code, _ := domain.CodeFrom(err)
	require.Equal(t, domain.CodeInvalidArgument, code)
}

func TestInfoMatchesShortAndFullName(t *testing.T) {
	f := newRegistryFixture(t)
	writeTool(t, f.root, "mcp-notes", `{"version":"1.2.0","description":"Notes"}`)

	registry := f.newRegistry(t, RegistryOptions{})
	for _, name := range []string{"notes", "mcp-notes"} {
		detail, err := registry.Info(context.Background(), name)
		require.NoError(t, err)
		require.Equal(t, "mcp-notes", detail.Name)
		require.Equal(t, "Notes", detail.Description)
		require.Equal(t, "v1.2.0", detail.CanonicalVersion)
		require.Nil(t, detail.LastBuild)
	}
}

func TestInfoPrefersCandidateRootOverArchive(t *testing.T) {
	f := newRegistryFixture(t)
	live := writeTool(t, f.root, "mcp-notes", `{}`)
	writeTool(t, f.archive, "mcp-notes", `{}`)

	detail, err := f.newRegistry(t, RegistryOptions{}).Info(context.Background(), "notes")
	require.NoError(t, err)
	require.Equal(t, live, detail.Path)
	require.Equal(t, domain.StatusUnconfigured, detail.Status)
}

func TestInfoErrors(t *testing.T) {
	f := newRegistryFixture(t)
	registry := f.newRegistry(t, RegistryOptions{})

	_, err := registry.Info(context.Background(), "ghost")
	require.ErrorIs(t, err, domain.ErrToolNotFound)
	require.EqualError(t, err, "Tool ghost not found")

	_, err = registry.Info(context.Background(), "  ")
	code, _ := domain.CodeFrom(err)
	require.Equal(t, domain.CodeInvalidArgument, code)
}

func TestConfigSnippet(t *testing.T) {
	f := newRegistryFixture(t)
	dir := writeTool(t, f.root, "mcp-notes", `{}`)

	snippet, err := f.newRegistry(t, RegistryOptions{}).ConfigSnippet(context.Background(), "notes")
	require.NoError(t, err)

	want := "{\n  \"notes\": {\n    \"command\": \"node\",\n    \"args\": [\n      \"" +
		filepath.Join(dir, "dist", "index.js") + "\"\n    ]\n  }\n}"
	require.Equal(t, want, snippet)
}

func TestBuildRecordsHistory(t *testing.T) {
	f := newRegistryFixture(t)
	dir := writeTool(t, f.root, "mcp-notes", `{}`)

	store, err := buildlog.OpenStore(filepath.Join(t.TempDir(), "builds.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	var builtPath string
	metrics := &recordingMetrics{}
	registry := f.newRegistry(t, RegistryOptions{
		Builder: domain.BuilderFunc(func(_ context.Context, rootPath string) error {
			builtPath = rootPath
			return nil
		}),
		History: store,
		Metrics: metrics,
	})

	msg, err := registry.Build(context.Background(), "notes")
	require.NoError(t, err)
	require.Equal(t, "Successfully built mcp-notes", msg)
	require.Equal(t, dir, builtPath)
	require.Equal(t, []domain.BuildResult{domain.BuildResultSuccess}, metrics.builds)

	detail, err := registry.Info(context.Background(), "notes")
	require.NoError(t, err)
	require.NotNil(t, detail.LastBuild)
	require.True(t, detail.LastBuild.Succeeded)

	history, err := registry.History("notes", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "mcp-notes", history[0].Tool)
}

func TestBuildFailureIsSurfaced(t *testing.T) {
	f := newRegistryFixture(t)
	writeTool(t, f.root, "mcp-notes", `{}`)

	store, err := buildlog.OpenStore(filepath.Join(t.TempDir(), "builds.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	boom := errors.New("npm install: exit status 1")
	registry := f.newRegistry(t, RegistryOptions{
		Builder: domain.BuilderFunc(func(context.Context, string) error { return boom }),
		History: store,
	})

	_, err = registry.Build(context.Background(), "mcp-notes")
	require.EqualError(t, err, "Failed to build mcp-notes: npm install: exit status 1")
	require.ErrorIs(t, err, domain.ErrBuildFailed)
	require.ErrorIs(t, err, boom)
	code, _ := domain.CodeFrom(err)
	require.Equal(t, domain.CodeFailedPrecond, code)

	last, ok, err := store.Last("mcp-notes")
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, last.Succeeded)
	require.Equal(t, boom.Error(), last.Error)
}

func TestBuildUnknownToolDoesNotInvokeBuilder(t *testing.T) {
	f := newRegistryFixture(t)
	called := false
	registry := f.newRegistry(t, RegistryOptions{
		Builder: domain.BuilderFunc(func(context.Context, string) error {
			called = true
			return nil
		}),
	})

	_, err := registry.Build(context.Background(), "ghost")
	require.ErrorIs(t, err, domain.ErrToolNotFound)
	require.False(t, called)
}

func TestSummaryCounts(t *testing.T) {
	f := newRegistryFixture(t)
	f.writeConfig(t, `{"mcpServers":{"notes":{},"todo":{}}}`)
	writeTool(t, f.root, "mcp-notes", `{"main":"dist/index.js"}`, "dist/index.js")
	writeTool(t, f.root, "mcp-todo", "")
	writeTool(t, f.root, "mcp-draft", `{}`)
	writeTool(t, f.archive, "mcp-old", `{}`)

	summary, err := f.newRegistry(t, RegistryOptions{}).Summary(context.Background())
	require.NoError(t, err)

	want := domain.SummaryCounts{
		Total:        4,
		Active:       1,
		Broken:       1,
		Unconfigured: 1,
		Archived:     1,
		Configured:   2,
	}
	require.Equal(t, want, summary.Summary)
	require.Equal(t, []string{"mcp-notes"}, summary.Details.Active)
	require.Equal(t, []domain.BrokenTool{{Name: "mcp-todo", Error: domain.DiagnosticMissingManifest}}, summary.Details.Broken)
}

func entryNames(entries []domain.ListEntry) []string {
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name)
	}
	return names
}
