package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/juridigo/procpipe/store"
)

var testMCPImpl = &mcp.Implementation{Name: "procpipe-test", Version: "0.1.0"}

func mcpSession(t *testing.T) *mcp.ClientSession {
	t.Helper()
	return mcpSessionWithConfig(t, Config{})
}

func mcpSessionWithConfig(t *testing.T, cfg Config) *mcp.ClientSession {
	t.Helper()
	st := store.OpenMemory(t)
	svc := NewService(st, cfg)
	srv := mcp.NewServer(testMCPImpl, nil)
	svc.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func mcpCallTool(t *testing.T, session *mcp.ClientSession, name string, args any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if err := result.GetError(); err != nil {
		t.Fatalf("CallTool(%s) tool error: %v", name, err)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent", name)
	}
	return tc.Text
}

func TestMCP_IngestThenGet(t *testing.T) {
	session := mcpSession(t)

	text := mcpCallTool(t, session, "ingest_document", map[string]any{
		"html":   sampleDocument,
		"source": "tribunal.html",
	})
	var ingestResp struct {
		Status         string `json:"status"`
		ProcessNumber  string `json:"process_number"`
		ProcessCreated bool   `json:"process_created"`
		PartiesCreated int    `json:"parties_created"`
	}
	if err := json.Unmarshal([]byte(text), &ingestResp); err != nil {
		t.Fatalf("unmarshal ingest: %v", err)
	}
	if ingestResp.Status != "created" || !ingestResp.ProcessCreated {
		t.Fatalf("ingest = %+v, want created", ingestResp)
	}
	if ingestResp.PartiesCreated != 2 {
		t.Errorf("parties_created = %d, want 2", ingestResp.PartiesCreated)
	}

	text = mcpCallTool(t, session, "process_get", map[string]any{
		"number": ingestResp.ProcessNumber,
	})
	var getResp struct {
		Process struct {
			Class string `json:"process_class"`
		} `json:"process"`
		Parties []struct {
			Name string `json:"name"`
		} `json:"parties"`
	}
	if err := json.Unmarshal([]byte(text), &getResp); err != nil {
		t.Fatalf("unmarshal get: %v", err)
	}
	if getResp.Process.Class != "Execução Fiscal" {
		t.Errorf("class = %q", getResp.Process.Class)
	}
	if len(getResp.Parties) != 2 {
		t.Errorf("parties = %d, want 2", len(getResp.Parties))
	}
}

func TestMCP_Search(t *testing.T) {
	session := mcpSession(t)

	mcpCallTool(t, session, "ingest_document", map[string]any{"html": sampleDocument})

	text := mcpCallTool(t, session, "process_search", map[string]any{"query": "Fiscal"})
	var resp struct {
		Total   int `json:"total"`
		Results []struct {
			ProcessNumber string `json:"process_number"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Total != 1 || len(resp.Results) != 1 {
		t.Fatalf("total = %d, results = %d, want 1/1", resp.Total, len(resp.Results))
	}
	if resp.Results[0].ProcessNumber != "0001234-56.2024.8.26.0100" {
		t.Errorf("number = %q", resp.Results[0].ProcessNumber)
	}

	text = mcpCallTool(t, session, "process_search", map[string]any{"query": "inexistente"})
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Total != 0 {
		t.Errorf("total = %d, want 0", resp.Total)
	}
}

func TestMCP_GetMissingProcess(t *testing.T) {
	session := mcpSession(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "process_get",
		Arguments: map[string]any{"number": "0000000-00.2000.0.00.0000"},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for missing process")
	}
}

func TestMCP_ToolFailureLogged(t *testing.T) {
	var logs bytes.Buffer
	session := mcpSessionWithConfig(t, Config{
		Logger: slog.New(slog.NewTextHandler(&logs, nil)),
	})

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "process_get",
		Arguments: map[string]any{"number": "0000000-00.2000.0.00.0000"},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for missing process")
	}
	if !strings.Contains(logs.String(), "mcp tool failed") {
		t.Errorf("tool failure not logged, logs = %q", logs.String())
	}
	if !strings.Contains(logs.String(), "process_get") {
		t.Errorf("tool name missing from log, logs = %q", logs.String())
	}
}
