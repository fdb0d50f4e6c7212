// Package mcp exposes a Django project's route catalogue to AI assistants
// over the Model Context Protocol.
package mcp

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/muremwa/djurls/internal/version"
	"github.com/muremwa/djurls/pkg/catalog"
	"github.com/muremwa/djurls/pkg/workspace"
)

// Server is an MCP server answering route questions about one project.
type Server struct {
	workdir    string
	configFile string
	logger     *slog.Logger
	mcpServer  *server.MCPServer

	mu        sync.Mutex
	workspace *workspace.Workspace
	result    *workspace.Result
}

// Option configures a Server.
type Option func(*Server)

// WithConfigFile names the djurls config file explicitly.
func WithConfigFile(path string) Option {
	return func(s *Server) {
		s.configFile = path
	}
}

// WithLogger sets the diagnostic logger. MCP uses stdout, so it must not
// write there.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a new MCP server for the project under workdir. The
// project is located and scanned on the first tool call.
func NewServer(workdir string, opts ...Option) *Server {
	s := &Server{
		workdir: workdir,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcpServer = server.NewMCPServer(
		"djurls",
		version.GetVersion(),
		server.WithToolCapabilities(false),
	)
	s.registerTools()
	return s
}

// Serve runs the server over stdio until the client disconnects.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	refresh := mcp.WithBoolean("refresh",
		mcp.Description("Rescan the project before answering"),
	)

	s.mcpServer.AddTool(mcp.NewTool("project_info",
		mcp.WithDescription("Show the Django project root, the settings in effect and scan counts"),
		refresh,
	), s.handleInfo)

	s.mcpServer.AddTool(mcp.NewTool("list_namespaces",
		mcp.WithDescription("List every app namespace with its URLconf file and route count"),
		refresh,
	), s.handleListNamespaces)

	s.mcpServer.AddTool(mcp.NewTool("list_routes",
		mcp.WithDescription("List reversible routes, optionally filtered by namespace or a search query"),
		mcp.WithString("namespace",
			mcp.Description("Only routes of this namespace (e.g. 'blog')"),
		),
		mcp.WithString("query",
			mcp.Description("Case-insensitive substring matched against reverse name, view and pattern"),
		),
		refresh,
	), s.handleListRoutes)

	s.mcpServer.AddTool(mcp.NewTool("find_route",
		mcp.WithDescription("Look up one route by reverse name and return its arguments and code snippets"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Reverse name, e.g. 'blog:post-detail'"),
		),
		refresh,
	), s.handleFindRoute)

	s.mcpServer.AddTool(mcp.NewTool("route_snippet",
		mcp.WithDescription("Generate Python or template code that reverses a route"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Reverse name, e.g. 'blog:post-detail'"),
		),
		mcp.WithString("kind",
			mcp.Description("Snippet kind: reverse, template or redirect (default: reverse)"),
			mcp.Enum(string(catalog.SnippetReverse), string(catalog.SnippetTemplate), string(catalog.SnippetRedirect)),
		),
		refresh,
	), s.handleRouteSnippet)

	s.mcpServer.AddTool(mcp.NewTool("list_faults",
		mcp.WithDescription("List URLconf files that were skipped and why"),
		refresh,
	), s.handleListFaults)
}

// scan returns the cached result, scanning when there is none or when
// refresh is set.
func (s *Server) scan(ctx context.Context, refresh bool) (*workspace.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.workspace == nil {
		ws, err := workspace.Open(s.workdir, s.configFile, workspace.WithLogger(s.logger))
		if err != nil {
			return nil, err
		}
		s.workspace = ws
	}

	if s.result == nil || refresh {
		res, err := s.workspace.Scan(ctx)
		if err != nil {
			return nil, err
		}
		s.result = res
		s.logger.Debug("mcp scan", "routes", res.Catalog.Len(), "faults", len(res.Faults))
	}
	return s.result, nil
}
