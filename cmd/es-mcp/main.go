// Command es-mcp exposes the DOJ Epstein Library search as MCP tools over
// stdio, for use from MCP-capable clients.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	mcp "github.com/mark3labs/mcp-go/mcp"
	srv "github.com/mark3labs/mcp-go/server"

	"github.com/gwbischof/epstein-search/pkg/client"
	"github.com/gwbischof/epstein-search/pkg/events"
	"github.com/gwbischof/epstein-search/pkg/extract"
	"github.com/gwbischof/epstein-search/pkg/logging"
	"github.com/gwbischof/epstein-search/pkg/search"
)

const version = "0.1.0"

type toolServer struct {
	lib *client.Client
	svc *search.Service
}

func main() {
	_ = godotenv.Load()

	// Stdout carries the MCP stdio transport; logs must stay on stderr.
	logging.Setup(logging.DefaultConfig())

	lib, err := client.New(client.DefaultConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ts := &toolServer{
		lib: lib,
		svc: search.NewService(lib, search.WithFallback(search.NewFileMirror(lib, ""))),
	}

	mcpServer := srv.NewMCPServer(
		"epstein-search",
		version,
		srv.WithToolCapabilities(true),
		srv.WithRecovery(),
	)

	mcpServer.AddTool(mcp.NewTool(
		"search",
		mcp.WithDescription("Search the DOJ Epstein Library for documents matching a query. "+
			"Returns matching document records with metadata and text highlights."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search terms. Supports exact phrases (\"flight logs\"), "+
				"wildcards (maxw*), required terms (+flight +logs), "+
				"and OR queries with | (pizza | flights)."),
		),
		mcp.WithNumber("n",
			mcp.Description("Maximum number of results to return (default: 10, 0 for all)."),
		),
		mcp.WithNumber("skip",
			mcp.Description("Number of results to skip for pagination (default: 0)."),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
	), ts.handleSearch)

	mcpServer.AddTool(mcp.NewTool(
		"count",
		mcp.WithDescription("Count the total number of documents matching a query in the "+
			"DOJ Epstein Library. Same query syntax as search, but OR queries with | are not supported."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search terms."),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
	), ts.handleCount)

	mcpServer.AddTool(mcp.NewTool(
		"extract_text",
		mcp.WithDescription("Search the DOJ Epstein Library, download the matching PDFs, and "+
			"extract the full text content from each document."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search terms (same syntax as search)."),
		),
		mcp.WithNumber("n",
			mcp.Description("Maximum number of documents to process (default: 1, 0 for all)."),
		),
		mcp.WithNumber("skip",
			mcp.Description("Number of results to skip (default: 0)."),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	), ts.handleExtractText)

	mcpServer.AddTool(mcp.NewTool(
		"extract_events",
		mcp.WithDescription("Search the DOJ Epstein Library, download PDFs, and use AI to "+
			"extract structured events (who, what, when, where) from each document. "+
			"Requires the OPENROUTER_API_KEY environment variable. Each event has summary, "+
			"timestamp, and optional location fields."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search terms (same syntax as search)."),
		),
		mcp.WithNumber("n",
			mcp.Description("Maximum number of documents to process (default: 1, 0 for all)."),
		),
		mcp.WithNumber("skip",
			mcp.Description("Number of results to skip (default: 0)."),
		),
		mcp.WithString("model",
			mcp.Description("OpenRouter model ID (default: "+events.DefaultModel+")."),
		),
		mcp.WithNumber("workers",
			mcp.Description("Number of parallel workers for AI extraction (default: 10)."),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	), ts.handleExtractEvents)

	if err := srv.ServeStdio(mcpServer); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (ts *toolServer) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	queries := search.ParseQueries(query)
	if len(queries) == 0 {
		return mcp.NewToolResultError("query cannot be empty"), nil
	}
	n := req.GetInt("n", 10)
	skip := req.GetInt("skip", 0)

	records, err := search.Collect(ctx, ts.svc.Search(queries, n, skip))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	return jsonResult(records)
}

func (ts *toolServer) handleCount(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	total, err := ts.svc.Count(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("count failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%d", total)), nil
}

func (ts *toolServer) handleExtractText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	queries := search.ParseQueries(query)
	if len(queries) == 0 {
		return mcp.NewToolResultError("query cannot be empty"), nil
	}
	n := req.GetInt("n", 1)
	skip := req.GetInt("skip", 0)

	records, err := search.Collect(ctx, ts.svc.Search(queries, n, skip))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	ex := extract.New(ts.lib, events.DefaultWorkers)
	out := make([]search.Record, 0, len(records))
	if err := ex.Run(ctx, records, func(rec search.Record) {
		out = append(out, rec)
	}); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("text extraction failed: %v", err)), nil
	}

	return jsonResult(out)
}

func (ts *toolServer) handleExtractEvents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	queries := search.ParseQueries(query)
	if len(queries) == 0 {
		return mcp.NewToolResultError("query cannot be empty"), nil
	}
	apiKey := os.Getenv("OPENROUTER_API_KEY")
	if apiKey == "" {
		return mcp.NewToolResultError("extract_events requires OPENROUTER_API_KEY"), nil
	}
	n := req.GetInt("n", 1)
	skip := req.GetInt("skip", 0)
	workers := req.GetInt("workers", events.DefaultWorkers)

	records, err := search.Collect(ctx, ts.svc.Search(queries, n, skip))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	ex := extract.New(ts.lib, workers)
	withText := make([]search.Record, 0, len(records))
	if err := ex.Run(ctx, records, func(rec search.Record) {
		withText = append(withText, rec)
	}); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("text extraction failed: %v", err)), nil
	}

	extractor, err := events.New(events.Config{
		APIKey:  apiKey,
		Model:   req.GetString("model", ""),
		Workers: workers,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	type docEvents struct {
		search.Record
		Events []events.Event `json:"events,omitempty"`
	}
	out := make([]docEvents, 0, len(withText))
	if err := extractor.Run(ctx, query, withText, func(r events.Result) {
		out = append(out, docEvents{Record: r.Record, Events: r.Events})
	}); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("event extraction failed: %v", err)), nil
	}

	return jsonResult(out)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	res, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("failed to encode result"), nil
	}
	return res, nil
}
