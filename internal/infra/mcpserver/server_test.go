package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mcpreg/internal/domain"
)

type fakeRegistry struct {
	entries    []domain.ListEntry
	detail     domain.ToolDetail
	snippet    string
	summary    domain.Summary
	lastFilter string
	lastTool   string
	err        error
}

func (f *fakeRegistry) List(_ context.Context, filter string) ([]domain.ListEntry, error) {
	f.lastFilter = filter
	if _, _, err := domain.ParseStatusFilter(filter); err != nil {
		return nil, domain.E(domain.CodeInvalidArgument, "list", err.Error(), err)
	}
	return f.entries, f.err
}

func (f *fakeRegistry) Info(_ context.Context, name string) (domain.ToolDetail, error) {
	f.lastTool = name
	if name != f.detail.Name && "mcp-"+name != f.detail.Name {
		return domain.ToolDetail{}, domain.ToolNotFound("info", name)
	}
	return f.detail, nil
}

func (f *fakeRegistry) ConfigSnippet(_ context.Context, name string) (string, error) {
	f.lastTool = name
	if f.err != nil {
		return "", f.err
	}
	return f.snippet, nil
}

func (f *fakeRegistry) Build(_ context.Context, name string) (string, error) {
	f.lastTool = name
	if f.err != nil {
		return "", f.err
	}
	return "Successfully built mcp-" + name, nil
}

func (f *fakeRegistry) Summary(context.Context) (domain.Summary, error) {
	return f.summary, f.err
}

func connect(t *testing.T, registry domain.RegistryService) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	server := New(registry, Options{Logger: zap.NewNop()})

	ct, st := mcp.NewInMemoryTransports()
	_, err := server.Connect(ctx, st)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "0.1.0"}, nil)
	session, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func callText(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text, res.IsError
}

func TestServerListsRegistryTools(t *testing.T) {
	session := connect(t, &fakeRegistry{})

	res, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	require.ElementsMatch(t, []string{
		ToolList,
		ToolInfo,
		ToolConfigSnippet,
		ToolBuild,
		ToolSummary,
		ToolHelp,
	}, names)
}

func TestServerListToolPassesFilter(t *testing.T) {
	registry := &fakeRegistry{
		entries: []domain.ListEntry{
			{Name: "mcp-notes", Status: domain.StatusActive, Configured: true, Tools: 2},
		},
	}
	session := connect(t, registry)

	text, isErr := callText(t, session, ToolList, map[string]any{"status": "active"})
	require.False(t, isErr)
	require.Equal(t, "active", registry.lastFilter)

	var entries []domain.ListEntry
	require.NoError(t, json.Unmarshal([]byte(text), &entries))
	require.Equal(t, registry.entries, entries)
}

func TestServerListToolRejectsUnknownStatus(t *testing.T) {
	session := connect(t, &fakeRegistry{})

	text, isErr := callText(t, session, ToolList, map[string]any{"status": "sleeping"})
	require.True(t, isErr)
	require.True(t, strings.HasPrefix(text, "Error: "))
}

func TestServerInfoNotFound(t *testing.T) {
	session := connect(t, &fakeRegistry{detail: domain.ToolDetail{ToolRecord: domain.ToolRecord{Name: "mcp-notes"}}})

	text, isErr := callText(t, session, ToolInfo, map[string]any{"tool": "ghost"})
	require.True(t, isErr)
	require.Equal(t, "Error: Tool ghost not found", text)
}

func TestServerInfoReturnsRecord(t *testing.T) {
	registry := &fakeRegistry{detail: domain.ToolDetail{
		ToolRecord: domain.ToolRecord{
			Name:      "mcp-notes",
			ShortName: "notes",
			Status:    domain.StatusActive,
			Tools:     []string{"add_note"},
		},
		CanonicalVersion: "v1.0.0",
	}}
	session := connect(t, registry)

	text, isErr := callText(t, session, ToolInfo, map[string]any{"tool": "notes"})
	require.False(t, isErr)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &payload))
	require.Equal(t, "mcp-notes", payload["name"])
	require.Equal(t, "notes", payload["shortName"])
	require.Equal(t, "v1.0.0", payload["canonicalVersion"])
}

func TestServerConfigSnippetPreamble(t *testing.T) {
	registry := &fakeRegistry{snippet: `{"notes":{}}`}
	session := connect(t, registry)

	text, isErr := callText(t, session, ToolConfigSnippet, map[string]any{"tool": "notes"})
	require.False(t, isErr)
	require.Equal(t, "Add this to your claude_desktop_config.json under \"mcpServers\":\n\n{\"notes\":{}}", text)
	require.Equal(t, "notes", registry.lastTool)
}

func TestServerBuildFailureIsToolError(t *testing.T) {
	registry := &fakeRegistry{err: &domain.Error{
		Code:    domain.CodeFailedPrecond,
		Message: "Failed to build mcp-notes: command failed: npm install: exit status 1",
		Cause:   domain.ErrBuildFailed,
	}}
	session := connect(t, registry)

	text, isErr := callText(t, session, ToolBuild, map[string]any{"tool": "notes"})
	require.True(t, isErr)
	require.Equal(t, "Error: Failed to build mcp-notes: command failed: npm install: exit status 1", text)
}

func TestServerBuildSuccess(t *testing.T) {
	session := connect(t, &fakeRegistry{})

	text, isErr := callText(t, session, ToolBuild, map[string]any{"tool": "notes"})
	require.False(t, isErr)
	require.Equal(t, "Successfully built mcp-notes", text)
}

func TestServerSummary(t *testing.T) {
	registry := &fakeRegistry{summary: domain.Summarize([]domain.ToolRecord{
		{Name: "mcp-a", Status: domain.StatusActive, Configured: true},
		{Name: "mcp-b", Status: domain.StatusBroken, Error: "Missing or invalid package.json"},
	})}
	session := connect(t, registry)

	text, isErr := callText(t, session, ToolSummary, nil)
	require.False(t, isErr)

	var summary domain.Summary
	require.NoError(t, json.Unmarshal([]byte(text), &summary))
	require.Equal(t, 2, summary.Summary.Total)
	require.Equal(t, 1, summary.Summary.Configured)
	require.Equal(t, []string{"mcp-a"}, summary.Details.Active)
	require.Equal(t, []domain.BrokenTool{{Name: "mcp-b", Error: "Missing or invalid package.json"}}, summary.Details.Broken)
}

func TestServerHelp(t *testing.T) {
	session := connect(t, &fakeRegistry{})

	text, isErr := callText(t, session, ToolHelp, nil)
	require.False(t, isErr)
	require.True(t, strings.HasPrefix(text, "MCP Tools Registry - Help"))
	require.Contains(t, text, "registry_config_snippet")
}
