package api

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/juridigo/procpipe/kit"
	"github.com/juridigo/procpipe/store"
)

// RegisterMCP registers the process tools on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.registerSearchTool(srv)
	s.registerGetTool(srv)
	s.registerIngestTool(srv)
}

// toolLogging records every tool call with its outcome and duration.
func (s *Service) toolLogging(name string) kit.Middleware {
	return func(next kit.Endpoint) kit.Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			if err != nil {
				s.logger.Warn("mcp tool failed", "tool", name, "elapsed", time.Since(start), "error", err)
				return nil, err
			}
			s.logger.Debug("mcp tool served", "tool", name, "elapsed", time.Since(start))
			return resp, nil
		}
	}
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// --- process_search ---

type searchReq struct {
	Query    string `json:"query"`
	Class    string `json:"class"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

func (s *Service) registerSearchTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "process_search",
		Description: "Search stored legal processes by number, class, subject or judge.",
		InputSchema: inputSchema(map[string]any{
			"query":     map[string]any{"type": "string", "description": "Substring matched against number, class, subject and judge"},
			"class":     map[string]any{"type": "string", "description": "Exact process class filter"},
			"page":      map[string]any{"type": "integer", "description": "1-based result page"},
			"page_size": map[string]any{"type": "integer", "description": "Results per page, max 100"},
		}, nil),
	}

	kit.RegisterTool[searchReq](srv, tool, kit.Chain(s.toolLogging(tool.Name))(func(ctx context.Context, req any) (any, error) {
		r := req.(*searchReq)
		procs, total, err := s.store.ListProcesses(ctx, store.ProcessFilter{
			Search:   r.Query,
			Class:    r.Class,
			Page:     r.Page,
			PageSize: r.PageSize,
		})
		if err != nil {
			return nil, err
		}
		if procs == nil {
			procs = []*store.Process{}
		}
		return map[string]any{"total": total, "results": procs}, nil
	}))
}

// --- process_get ---

type getReq struct {
	Number string `json:"number"`
}

func (s *Service) registerGetTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "process_get",
		Description: "Fetch one process by its case number, with its parties.",
		InputSchema: inputSchema(map[string]any{
			"number": map[string]any{"type": "string", "description": "Case number, e.g. 0001234-56.2024.8.26.0100"},
		}, []string{"number"}),
	}

	kit.RegisterTool[getReq](srv, tool, kit.Chain(s.toolLogging(tool.Name))(func(ctx context.Context, req any) (any, error) {
		r := req.(*getReq)
		proc, err := s.store.GetProcess(ctx, r.Number)
		if err != nil {
			return nil, err
		}
		parties, err := s.store.ListParties(ctx, proc.ID)
		if err != nil {
			return nil, err
		}
		if parties == nil {
			parties = []*store.Party{}
		}
		return map[string]any{"process": proc, "parties": parties}, nil
	}))
}

// --- ingest_document ---

type ingestReq struct {
	HTML   string `json:"html"`
	Source string `json:"source"`
}

func (s *Service) registerIngestTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "ingest_document",
		Description: "Run the extraction pipeline on a raw HTML court document and persist the result.",
		InputSchema: inputSchema(map[string]any{
			"html":   map[string]any{"type": "string", "description": "Raw HTML of the court case page"},
			"source": map[string]any{"type": "string", "description": "Label recorded with the snapshot, e.g. a file name"},
		}, []string{"html"}),
	}

	kit.RegisterTool[ingestReq](srv, tool, kit.Chain(s.toolLogging(tool.Name))(func(ctx context.Context, req any) (any, error) {
		r := req.(*ingestReq)
		source := r.Source
		if source == "" {
			source = "mcp"
		}
		return s.ingester.IngestHTML(ctx, source, []byte(r.HTML))
	}))
}
