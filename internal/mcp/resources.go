package mcp

import (
	"context"
	"encoding/json"
	"time"

	"searchlens-mcp-server/internal/gsc"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	resourceMIMEJSON = "application/json"
)

func (s *Server) registerAllResources() {
	if s == nil || s.mcpServer == nil {
		return
	}

	s.mcpServer.AddResource(
		mcp.NewResource(
			"searchlens://about",
			"SearchLens About",
			mcp.WithMIMEType(resourceMIMEJSON),
			mcp.WithResourceDescription("High-level server info and usage notes."),
		),
		s.handleAboutResource,
	)

	s.mcpServer.AddResource(
		mcp.NewResource(
			"searchlens://sites",
			"Search Console Properties",
			mcp.WithMIMEType(resourceMIMEJSON),
			mcp.WithResourceDescription("The verified property list for the configured credentials."),
		),
		s.handleSitesResource,
	)
}

func (s *Server) handleAboutResource(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	payload := map[string]interface{}{
		"name":    s.cfg.Server.Name,
		"version": s.cfg.Server.Version,
		"notes": []string{
			"Resources are read-only context endpoints; use tools for queries.",
			"Property URLs must be used verbatim as list-sites returns them.",
			"Search Console data lags roughly two days behind the current date.",
		},
		"timestamp_ms": time.Now().UnixMilli(),
	}

	text, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: resourceMIMEJSON,
			Text:     string(text),
		},
	}, nil
}

func (s *Server) handleSitesResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	sites, err := s.provider.ListSites(ctx)
	if err != nil {
		return nil, err
	}

	text, err := json.Marshal(gsc.SiteList{Sites: sites, TotalSites: len(sites)})
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: resourceMIMEJSON,
			Text:     string(text),
		},
	}, nil
}
