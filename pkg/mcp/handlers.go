package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/muremwa/djurls/pkg/catalog"
	"github.com/muremwa/djurls/pkg/config"
	"github.com/muremwa/djurls/pkg/workspace"
)

// handleInfo returns the project root, settings and scan counts.
func (s *Server) handleInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.scan(ctx, request.GetBool("refresh", false))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to scan project: %v", err)), nil
	}

	info := struct {
		Root     string            `json:"root"`
		Project  string            `json:"project"`
		Settings config.Settings   `json:"settings"`
		Config   string            `json:"config,omitempty"`
		Summary  workspace.Summary `json:"summary"`
	}{
		Root:     res.Root,
		Project:  s.workspace.Name(),
		Settings: s.workspace.Settings,
		Config:   s.workspace.Settings.File,
		Summary:  res.Summary(),
	}

	return jsonResult(info)
}

// handleListNamespaces lists every group with its route count.
func (s *Server) handleListNamespaces(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.scan(ctx, request.GetBool("refresh", false))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to scan project: %v", err)), nil
	}

	namespaces := res.Catalog.Summaries()
	return jsonResult(map[string]any{
		"namespaces": namespaces,
		"total":      len(namespaces),
	})
}

// handleListRoutes lists routes, filtered by namespace and query.
func (s *Server) handleListRoutes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.scan(ctx, request.GetBool("refresh", false))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to scan project: %v", err)), nil
	}

	namespace := request.GetString("namespace", "")
	query := request.GetString("query", "")

	cat := res.Catalog
	if namespace != "" {
		group, ok := cat.Lookup(namespace)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("namespace %q not found", namespace)), nil
		}
		cat = catalog.New()
		cat.Set(group)
	}
	cat = cat.Filter(query)

	type routeInfo struct {
		ReverseName string `json:"reverseName"`
		Namespace   string `json:"namespace"`
		Pattern     string `json:"pattern,omitempty"`
		View        string `json:"view,omitempty"`
		Arguments   int    `json:"arguments"`
		Reverse     string `json:"reverse"`
	}

	routes := make([]routeInfo, 0, cat.Len())
	for _, g := range cat.Groups {
		for _, r := range g.Routes {
			routes = append(routes, routeInfo{
				ReverseName: r.ReverseName,
				Namespace:   g.Namespace,
				Pattern:     r.Pattern,
				View:        r.ViewName,
				Arguments:   len(r.Arguments),
				Reverse:     catalog.ReverseSnippet(r),
			})
		}
	}

	return jsonResult(map[string]any{
		"routes": routes,
		"total":  len(routes),
	})
}

// handleFindRoute returns one route with every snippet.
func (s *Server) handleFindRoute(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString("name", "")
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}

	res, err := s.scan(ctx, request.GetBool("refresh", false))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to scan project: %v", err)), nil
	}

	route, group, ok := res.Catalog.Find(name)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("route %q not found", name)), nil
	}
	return jsonResult(catalog.Detail(route, group))
}

// handleRouteSnippet returns a single snippet as plain text.
func (s *Server) handleRouteSnippet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString("name", "")
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}
	kind := catalog.SnippetKind(request.GetString("kind", string(catalog.SnippetReverse)))

	res, err := s.scan(ctx, request.GetBool("refresh", false))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to scan project: %v", err)), nil
	}

	route, _, ok := res.Catalog.Find(name)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("route %q not found", name)), nil
	}
	snippet, err := catalog.Snippet(route, kind)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(snippet), nil
}

// handleListFaults lists the files skipped by the last scan.
func (s *Server) handleListFaults(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.scan(ctx, request.GetBool("refresh", false))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to scan project: %v", err)), nil
	}

	faults := res.Faults
	if faults == nil {
		faults = []catalog.Fault{}
	}
	return jsonResult(map[string]any{
		"faults": faults,
		"total":  len(faults),
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
