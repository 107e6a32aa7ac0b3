package mcp

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/karimzakaria/guideflow/internal/db"
	"github.com/karimzakaria/guideflow/internal/decision"
	"github.com/karimzakaria/guideflow/internal/lifecycle"
	"github.com/karimzakaria/guideflow/internal/retrieval"
	"github.com/karimzakaria/guideflow/internal/session"
	"github.com/karimzakaria/guideflow/internal/synthesis"
	"github.com/karimzakaria/guideflow/internal/vectordb"
)

// mockStore serves fixed exchanges for search tests.
type mockStore struct {
	exchanges []vectordb.Exchange
}

func (m *mockStore) Add(_ context.Context, exchanges []vectordb.Exchange) error {
	m.exchanges = append(m.exchanges, exchanges...)
	return nil
}

func (m *mockStore) Query(_ context.Context, query string, limit int, where map[string]string) ([]vectordb.Result, error) {
	var results []vectordb.Result
	for _, ex := range m.exchanges {
		results = append(results, vectordb.Result{Exchange: ex, Similarity: 0.95})
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

func (m *mockStore) Persist(_ context.Context, _ string) error { return nil }
func (m *mockStore) Load(_ context.Context, _ string) error    { return nil }
func (m *mockStore) Count() int                                { return len(m.exchanges) }

func newTestMCPServer(t *testing.T, store vectordb.Store) *Server {
	t.Helper()

	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	limits := decision.DefaultLimits()
	manager := lifecycle.New(
		session.NewSQLStore(database),
		decision.NewEngine(nil, "", 0.3, time.Second, limits),
		retrieval.New(store, 3, time.Second),
		synthesis.New(nil, "", 0.7, time.Second, limits),
		nil,
		time.Hour,
	)
	return NewServer(manager, store)
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name     string
		tool     mcp.Tool
		wantName string
	}{
		{"submit_turn", submitTurnTool, "submit_turn"},
		{"get_progress", getProgressTool, "get_progress"},
		{"search_exchanges", searchExchangesTool, "search_exchanges"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	srv := newTestMCPServer(t, &mockStore{})
	if srv == nil {
		t.Fatal("NewServer returned nil")
	}
	if srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
}

func TestHandleSubmitTurn(t *testing.T) {
	srv := newTestMCPServer(t, nil)
	ctx := context.Background()

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{
		"session_key": "mcp-1",
		"text":        "I want to work on my anxiety",
	}

	result, err := srv.handleSubmitTurn(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %v", result.Content)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "acknowledge_topic") {
		t.Errorf("result missing decision code: %s", text)
	}
}

func TestHandleSubmitTurnMissingText(t *testing.T) {
	srv := newTestMCPServer(t, nil)

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"session_key": "mcp-1"}

	result, err := srv.handleSubmitTurn(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for missing text")
	}
}

func TestHandleGetProgressFreshKey(t *testing.T) {
	srv := newTestMCPServer(t, nil)

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"session_key": "nobody"}

	result, err := srv.handleGetProgress(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %v", result.Content)
	}
	if !strings.Contains(resultText(t, result), "intake") {
		t.Error("fresh session should report the first phase")
	}
}

func TestHandleSearchExchanges(t *testing.T) {
	store := &mockStore{exchanges: []vectordb.Exchange{
		{ID: "a", Text: "Where in your body do you notice that?", Tags: []string{"location"}},
		{ID: "b", Text: "How does it feel?", Tags: []string{"quality"}},
	}}
	srv := newTestMCPServer(t, store)

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"query": "body", "tag": "location"}

	result, err := srv.handleSearchExchanges(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %v", result.Content)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "Where in your body") {
		t.Errorf("tagged exchange missing: %s", text)
	}
	if strings.Contains(text, "How does it feel?") {
		t.Errorf("tag filter leaked other exchange: %s", text)
	}
}

func TestHandleSearchExchangesEmptyIndex(t *testing.T) {
	srv := newTestMCPServer(t, &mockStore{})

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"query": "anything"}

	result, err := srv.handleSearchExchanges(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatal("empty index should not be a tool error")
	}
	if !strings.Contains(resultText(t, result), "guideflow index") {
		t.Error("empty index reply should point at the index command")
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	var b strings.Builder
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}
