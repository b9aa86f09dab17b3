package domain

const (
	DefaultToolPrefix                 = "mcp-"
	DefaultArchiveDirName             = "archived"
	DefaultManifestName               = "package.json"
	DefaultEntryPoint                 = "index.js"
	DefaultCapabilitySource           = "src/index.ts"
	DefaultServersKey                 = "mcpServers"
	DefaultScanConcurrency            = 8
	DefaultCapabilityCacheSize        = 256
	DefaultSnippetCommand             = "node"
	DefaultSnippetEntryPoint          = "dist/index.js"
	DefaultObservabilityListenAddress = "127.0.0.1:9464"
	DefaultClaudeConfigFileName       = "claude_desktop_config.json"
)

const (
	DiagnosticMissingManifest = "Missing or invalid package.json"
	diagnosticNotBuiltFormat  = "Not built (missing %s)"
)

// DefaultBuildSteps installs dependencies and then runs the package build script.
func DefaultBuildSteps() [][]string {
	return [][]string{
		{"npm", "install"},
		{"npm", "run", "build"},
	}
}
