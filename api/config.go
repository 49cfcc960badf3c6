// Package api provides the HTTP surface of the agent: the Telegram webhook,
// health and metrics endpoints, read-only memory inspection and MCP.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// Mode is reported by /health ("webhook" or "poll")
	Mode string
}
