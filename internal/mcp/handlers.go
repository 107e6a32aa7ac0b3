package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// handleSubmitTurn runs one dialogue turn.
func (s *Server) handleSubmitTurn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := request.RequireString("session_key")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_key"), nil
	}
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: text"), nil
	}

	res, err := s.manager.SubmitTurn(ctx, key, text)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("turn failed: %v", err)), nil
	}

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// handleGetProgress reports a session's protocol position.
func (s *Server) handleGetProgress(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := request.RequireString("session_key")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_key"), nil
	}

	p, err := s.manager.GetProgress(ctx, key)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("progress lookup failed: %v", err)), nil
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding progress: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// handleSearchExchanges performs semantic search over the exchange corpus.
func (s *Server) handleSearchExchanges(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", 5)
	if limit <= 0 {
		limit = 5
	}
	tag := request.GetString("tag", "")

	if s.store == nil || s.store.Count() == 0 {
		return mcp.NewToolResultText("No exchanges indexed. Run `guideflow index` to build the corpus index."), nil
	}

	results, err := s.store.Query(ctx, query, limit, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	var b strings.Builder
	found := 0
	for _, res := range results {
		if tag != "" && !res.Exchange.HasTag(tag) {
			continue
		}
		found++
		fmt.Fprintf(&b, "## %s (similarity %.2f)\n", res.Exchange.ID, res.Similarity)
		fmt.Fprintf(&b, "%s\n", res.Exchange.Text)
		fmt.Fprintf(&b, "tags: %s", strings.Join(res.Exchange.Tags, ", "))
		if res.Exchange.Phase != "" {
			fmt.Fprintf(&b, " | phase: %s", res.Exchange.Phase)
		}
		b.WriteString("\n\n")
	}
	if found == 0 {
		return mcp.NewToolResultText("No matching exchanges found."), nil
	}
	return mcp.NewToolResultText(b.String()), nil
}
