package mcpserver

const helpText = `MCP Tools Registry - Help

This tool helps discover, manage, and configure MCP tools.

Available commands:

1. registry_list - List all MCP tools
   Options:
   - status: "all" | "active" | "broken" | "unconfigured" | "archived"

2. registry_info - Get detailed info about a specific tool
   - tool: Tool name (e.g., "brain-manager" or "mcp-brain-manager")

3. registry_config_snippet - Generate config for claude_desktop_config.json
   - tool: Tool name to generate config for

4. registry_build - Build a tool (npm install && npm run build)
   - tool: Tool name to build

5. registry_summary - Get summary statistics

Tool statuses:
- active: Built and configured in Claude
- unconfigured: Built but not in Claude config
- broken: Missing files or not built
- archived: Moved to archived folder

Example workflow:
1. List all tools: registry_list()
2. Find unconfigured: registry_list({ status: "unconfigured" })
3. Get config: registry_config_snippet({ tool: "reminders" })
4. Build if needed: registry_build({ tool: "reminders" })`
