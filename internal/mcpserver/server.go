// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes VibeNotes tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/vibenotes/internal/apperr"
	"github.com/starford/vibenotes/internal/imaging"
	"github.com/starford/vibenotes/internal/models"
	"github.com/starford/vibenotes/internal/noteservice"
)

// GuideURI addresses the markdown guide resource.
const GuideURI = "vibenotes://markdown-guide"

// Server wraps the MCP server with VibeNotes tools.
type Server struct {
	mcp     *server.MCPServer
	svc     *noteservice.Service
	fetcher *imaging.Fetcher
}

// New creates a new MCP server with all tools registered.
func New(svc *noteservice.Service, fetcher *imaging.Fetcher) *Server {
	s := &Server{svc: svc, fetcher: fetcher}

	s.mcp = server.NewMCPServer(
		"VibeNotes",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List all notes in sidebar order with id, title, excerpt and word count."),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the raw markdown content of a note."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id as returned by list_notes")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new note and make it the active one. "+
			"Content uses the markdown subset described by get_markdown_guide."),
		mcp.WithString("title", mcp.Description("Title (defaults to \"Untitled Note\")")),
		mcp.WithString("content", mcp.Description("Markdown content")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("render_note",
		mcp.WithDescription("Render a note. format=segments returns the prose/image segments as JSON; "+
			"format=html returns highlighted HTML."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("format", mcp.Description("segments (default) or html"), mcp.Enum("segments", "html")),
		mcp.WithString("theme", mcp.Description("light or dark; defaults to the stored preference"), mcp.Enum("light", "dark")),
	), s.renderNote)

	s.mcp.AddTool(mcp.NewTool("insert_image",
		mcp.WithDescription("Download an image (http/https URL or base64 data URI), downscale it to fit "+
			"700x1000, re-encode as JPEG and append it to the end of a note."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("url", mcp.Required(), mcp.Description("Image URL or data:image/...;base64,... URI")),
	), s.insertImage)

	s.mcp.AddTool(mcp.NewTool("get_markdown_guide",
		mcp.WithDescription("Returns the markdown subset VibeNotes renders, including ===highlight=== and embedded images."),
	), s.getMarkdownGuide)

	s.mcp.AddResource(
		mcp.NewResource(GuideURI, "Markdown Guide",
			mcp.WithResourceDescription("Markdown subset supported by the VibeNotes renderer."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readGuideResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// toolError turns a service error into a tool error result.
func toolError(err error) *mcp.CallToolResult {
	var ae *apperr.AppError
	if errors.As(err, &ae) {
		return mcp.NewToolResultError(ae.Error())
	}
	return mcp.NewToolResultError(err.Error())
}

func optString(req mcp.CallToolRequest, key, def string) string {
	if v, err := req.RequireString(key); err == nil {
		return v
	}
	return def
}

func jsonResult(v any) *mcp.CallToolResult {
	out, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(out))
}

func (s *Server) listNotes(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.ListNotes()), nil
}

func (s *Server) readNote(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.GetNote(id)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(note.Content), nil
}

func (s *Server) createNote(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var patch models.NotePatch
	if title := optString(req, "title", ""); title != "" {
		patch.Title = &title
	}
	if content := optString(req, "content", ""); content != "" {
		patch.Content = &content
	}
	return jsonResult(s.svc.CreateNote(patch)), nil
}

func (s *Server) renderNote(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if optString(req, "format", "segments") == "html" {
		html, err := s.svc.RenderHTML(id, optString(req, "theme", ""))
		if err != nil {
			return toolError(err), nil
		}
		return mcp.NewToolResultText(html), nil
	}
	segs, err := s.svc.Segments(id)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(segs), nil
}

func (s *Server) getMarkdownGuide(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(MarkdownGuide), nil
}

func (s *Server) readGuideResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      GuideURI,
			MIMEType: "text/markdown",
			Text:     MarkdownGuide,
		},
	}, nil
}
