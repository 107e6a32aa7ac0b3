package mcp

import "github.com/mark3labs/mcp-go/mcp"

// submitTurnTool defines the submit_turn MCP tool.
var submitTurnTool = mcp.NewTool("submit_turn",
	mcp.WithDescription("Submit one user message to a guided reflection session and get the guide's reply. Unknown session keys start a new session."),
	mcp.WithString("session_key",
		mcp.Required(),
		mcp.Description("Stable identifier of the conversation"),
	),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("The user's message for this turn"),
	),
)

// getProgressTool defines the get_progress MCP tool.
var getProgressTool = mcp.NewTool("get_progress",
	mcp.WithDescription("Get a session's protocol position: phase, completion flags, and loop counters. Unknown keys report a fresh session."),
	mcp.WithString("session_key",
		mcp.Required(),
		mcp.Description("Stable identifier of the conversation"),
	),
)

// searchExchangesTool defines the search_exchanges MCP tool.
var searchExchangesTool = mcp.NewTool("search_exchanges",
	mcp.WithDescription("Semantically search the reference exchange corpus used to ground replies."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithString("tag",
		mcp.Description("Only return exchanges carrying this tag"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 5)"),
	),
)
