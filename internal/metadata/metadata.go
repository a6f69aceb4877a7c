package metadata

// Name and Version identify this server in the MCP initialize handshake.
const (
	Name    = "autotask-mcp"
	Version = "0.1.0"
)
