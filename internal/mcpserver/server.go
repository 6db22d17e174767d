// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the conversion catalog to LLM tools via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/OSAS/mw2md/internal/apperr"
	"github.com/OSAS/mw2md/internal/catalog"
)

// FormatResourceURI is the URI of the document format resource.
const FormatResourceURI = "mw2md://document-format"

// Server wraps the MCP server with catalog tools.
type Server struct {
	mcp *server.MCPServer
	svc *catalog.Service
}

// New creates a new MCP server with all catalog tools registered.
func New(svc *catalog.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"mw2md",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("resolve_title",
		mcp.WithDescription("Find where a wiki page title now lives. Follows redirects and "+
			"returns the final title, the document path and its published URL."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Wiki title, e.g. HowTo/Setup or Main_Page")),
	), s.resolveTitle)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read the converted Markdown document of a wiki page, following redirects."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Wiki title of the page")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("list_redirects",
		mcp.WithDescription("List every redirect page and its target title."),
	), s.listRedirects)

	s.mcp.AddTool(mcp.NewTool("list_conversion_errors",
		mcp.WithDescription("List pages whose latest conversion failed, with their error report file names."),
	), s.listConversionErrors)

	s.mcp.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Full-text search through converted documents."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchDocuments)

	s.mcp.AddResource(
		mcp.NewResource(FormatResourceURI, "Document Format",
			mcp.WithResourceDescription("Front-matter fields and layout of converted documents."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func lookupError(title string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", title))
	case errors.Is(err, apperr.ErrRedirectLoop):
		return mcp.NewToolResultError(fmt.Sprintf("redirect loop: %s", title))
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func (s *Server) resolveTitle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Resolve(ctx, title)
	if err != nil {
		return lookupError(title, err), nil
	}
	return jsonResult(res), nil
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.Document(ctx, title)
	if err != nil {
		return lookupError(title, err), nil
	}
	return jsonResult(doc), nil
}

func (s *Server) listRedirects(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rows, err := s.svc.ListRedirects(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(rows), nil
}

func (s *Server) listConversionErrors(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rows, err := s.svc.ListErrors(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(rows) == 0 {
		return mcp.NewToolResultText("no conversion errors"), nil
	}
	return jsonResult(rows), nil
}

func (s *Server) searchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results), nil
}

func (s *Server) readFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      FormatResourceURI,
			MIMEType: "text/markdown",
			Text:     DocumentFormatContract,
		},
	}, nil
}
