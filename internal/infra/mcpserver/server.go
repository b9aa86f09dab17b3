package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"mcpreg/internal/domain"
	"mcpreg/internal/infra/telemetry"
)

const (
	ToolList          = "registry_list"
	ToolInfo          = "registry_info"
	ToolConfigSnippet = "registry_config_snippet"
	ToolBuild         = "registry_build"
	ToolSummary       = "registry_summary"
	ToolHelp          = "registry_help"
)

const (
	defaultServerName    = "mcp-tools-registry"
	defaultServerVersion = "1.0.0"
	snippetPreamble      = "Add this to your claude_desktop_config.json under \"mcpServers\":\n\n"
)

// Options configures the MCP server identity.
type Options struct {
	Name    string
	Version string
	Logger  *zap.Logger
}

// Server exposes a registry over MCP tools.
type Server struct {
	registry domain.RegistryService
	server   *mcp.Server
	logger   *zap.Logger
}

type toolArgs struct {
	Tool   string `json:"tool"`
	Status string `json:"status"`
}

type toolFunc func(ctx context.Context, args toolArgs) (string, error)

func New(registry domain.RegistryService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	name := opts.Name
	if name == "" {
		name = defaultServerName
	}
	version := opts.Version
	if version == "" {
		version = defaultServerVersion
	}

	s := &Server{
		registry: registry,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    name,
			Version: version,
		}, &mcp.ServerOptions{
			HasTools: true,
		}),
		logger: logger.Named("mcpserver").With(zap.String(telemetry.FieldLogSource, telemetry.LogSourceMCP)),
	}
	s.registerTools()
	return s
}

// Run serves MCP over stdin/stdout until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("registry server starting (stdio transport)")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Connect attaches the server to an arbitrary transport.
func (s *Server) Connect(ctx context.Context, transport mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, transport, nil)
}

func (s *Server) registerTools() {
	s.add(&mcp.Tool{
		Name:        ToolList,
		Description: "List all MCP tools in the system",
		InputSchema: statusFilterSchema(),
	}, s.list)
	s.add(&mcp.Tool{
		Name:        ToolInfo,
		Description: "Get detailed information about a specific MCP tool",
		InputSchema: toolNameSchema("Tool name (with or without mcp- prefix)"),
	}, s.info)
	s.add(&mcp.Tool{
		Name:        ToolConfigSnippet,
		Description: "Generate Claude config snippet for a tool",
		InputSchema: toolNameSchema("Tool name to generate config for"),
	}, s.configSnippet)
	s.add(&mcp.Tool{
		Name:        ToolBuild,
		Description: "Build an MCP tool (npm install && npm run build)",
		InputSchema: toolNameSchema("Tool name to build"),
	}, s.build)
	s.add(&mcp.Tool{
		Name:        ToolSummary,
		Description: "Get a summary of MCP tools status",
		InputSchema: emptySchema(),
	}, s.summary)
	s.add(&mcp.Tool{
		Name:        ToolHelp,
		Description: "Get help on using the registry",
		InputSchema: emptySchema(),
	}, s.help)
}

func (s *Server) add(tool *mcp.Tool, fn toolFunc) {
	name := tool.Name
	s.server.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		started := time.Now()
		text, err := s.invoke(ctx, req, fn)
		fields := []zap.Field{
			telemetry.EventField(telemetry.EventToolCall),
			zap.String("mcp_tool", name),
			telemetry.DurationField(time.Since(started)),
		}
		if err != nil {
			s.logger.Info("tool call failed", append(fields, zap.Error(err))...)
			return errorResult(err), nil
		}
		s.logger.Debug("tool call", fields...)
		return textResult(text), nil
	})
}

func (s *Server) invoke(ctx context.Context, req *mcp.CallToolRequest, fn toolFunc) (string, error) {
	var args toolArgs
	if req != nil && req.Params != nil && len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
			return "", domain.E(domain.CodeInvalidArgument, "decode", fmt.Sprintf("invalid arguments: %v", err), err)
		}
	}
	return fn(ctx, args)
}

func (s *Server) list(ctx context.Context, args toolArgs) (string, error) {
	entries, err := s.registry.List(ctx, args.Status)
	if err != nil {
		return "", err
	}
	return marshalText(entries)
}

func (s *Server) info(ctx context.Context, args toolArgs) (string, error) {
	detail, err := s.registry.Info(ctx, args.Tool)
	if err != nil {
		return "", err
	}
	return marshalText(detail)
}

func (s *Server) configSnippet(ctx context.Context, args toolArgs) (string, error) {
	snippet, err := s.registry.ConfigSnippet(ctx, args.Tool)
	if err != nil {
		return "", err
	}
	return snippetPreamble + snippet, nil
}

func (s *Server) build(ctx context.Context, args toolArgs) (string, error) {
	return s.registry.Build(ctx, args.Tool)
}

func (s *Server) summary(ctx context.Context, _ toolArgs) (string, error) {
	summary, err := s.registry.Summary(ctx)
	if err != nil {
		return "", err
	}
	return marshalText(summary)
}

func (s *Server) help(context.Context, toolArgs) (string, error) {
	return helpText, nil
}

func marshalText(value any) (string, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(err error) *mcp.CallToolResult {
	msg := strings.TrimSpace(err.Error())
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: "Error: " + msg}},
		IsError: true,
	}
}
