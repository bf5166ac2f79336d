package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"

	"dashlayout/internal/config"
	"dashlayout/pkg/logging"
)

// Server exposes the layout engine as MCP tools over stdio.
type Server struct {
	cfg    *config.Config
	server *server.MCPServer
}

// New creates a server announcing itself as cfg.Server.Name with the given
// version, and registers every tool.
func New(cfg *config.Config, version string) *Server {
	name := cfg.Server.Name
	if name == "" {
		name = "dashlayout"
	}

	s := &Server{
		cfg: cfg,
		server: server.NewMCPServer(
			name,
			version,
			server.WithToolCapabilities(true),
		),
	}

	tools := s.tools()
	logging.Debug("MCPServer", "Registering %d tools with prefix %q", len(tools), cfg.Server.ToolPrefix)
	s.server.AddTools(tools...)
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.server
}

// ServeStdio serves MCP requests on stdin/stdout until stdin closes or the
// process is signalled.
func (s *Server) ServeStdio() error {
	s.ensureServerLogging()
	logging.Info("MCPServer", "Serving %s over stdio", s.cfg.Server.Name)
	return server.ServeStdio(s.server)
}

// ensureServerLogging moves log output off stdout when the server is started
// without the serve command having set up logging.
func (s *Server) ensureServerLogging() {
	if logging.CurrentMode() == logging.ModeServer {
		return
	}
	logging.InitForServer(logging.ParseLevel(s.cfg.LogLevel))
}
