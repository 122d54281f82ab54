package mcpserver

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/vibenotes/internal/imaging"
)

type insertResult struct {
	ID     string `json:"id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Bytes  int    `json:"bytes"`
}

func (s *Server) insertImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var data []byte
	var mime string
	if strings.HasPrefix(rawURL, "data:") {
		data, mime, err = imaging.DecodeDataURI(rawURL)
	} else {
		data, mime, err = s.fetcher.Fetch(ctx, rawURL)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	note, emb, err := s.svc.AppendImage(ctx, id, data, mime)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(insertResult{
		ID:     note.ID,
		Width:  emb.Width,
		Height: emb.Height,
		Bytes:  len(emb.DataURI),
	}), nil
}
