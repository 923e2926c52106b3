// Package server provides the MCP server implementation for the
// paper-cli service.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/localrivet/gomcp/server"

	"github.com/Maxwell0339/paper-cli/internal/batch"
	"github.com/Maxwell0339/paper-cli/internal/crawler"
	"github.com/Maxwell0339/paper-cli/internal/errortypes"
	"github.com/Maxwell0339/paper-cli/internal/summarize"
	"github.com/Maxwell0339/paper-cli/internal/tools"
)

// SummaryToolServer implements the ToolServer interface for handling
// MCP tool calls related to paper summarization and library search.
type SummaryToolServer struct {
	loader    batch.Loader
	engines   map[string]*summarize.Engine
	library   *crawler.LibraryStore
	mcpServer server.Server
}

// NewSummaryToolServer creates a new SummaryToolServer instance.
// engines maps profile names to configured summarization engines; the
// library store may be nil when no crawl has ever run.
func NewSummaryToolServer(loader batch.Loader, engines map[string]*summarize.Engine, library *crawler.LibraryStore) *SummaryToolServer {
	return &SummaryToolServer{
		loader:  loader,
		engines: engines,
		library: library,
	}
}

// Initialize initializes the server with dependencies and configurations.
func (s *SummaryToolServer) Initialize() error {
	slog.Info("Initializing MCP Summary Tool Server")

	if s.loader == nil || len(s.engines) == 0 {
		return errortypes.ConfigError(errors.New("missing dependencies"), "server initialization failed")
	}

	srv := server.NewServer("paper-cli")

	srv = srv.Tool(tools.ToolSummarizeFile, "Summarize a PDF file into structured Markdown",
		s.handleSummarizeFile)

	srv = srv.Tool(tools.ToolSummarizeText, "Summarize raw document text into structured Markdown",
		s.handleSummarizeText)

	srv = srv.Tool(tools.ToolSearchPapers, "Search the local library of downloaded papers by title",
		s.handleSearchPapers)

	s.mcpServer = srv
	slog.Info("MCP Summary Tool Server initialized successfully", "tool_count", 3)
	return nil
}

// Start starts the MCP server on the stdio transport.
func (s *SummaryToolServer) Start() error {
	if s.mcpServer == nil {
		return errortypes.ConfigError(errors.New("server not initialized"), "cannot start server")
	}

	slog.Info("Starting MCP Summary Tool Server")

	stdioServer := s.mcpServer.AsStdio()
	return stdioServer.Run()
}

// Stop gracefully shuts down the MCP server.
func (s *SummaryToolServer) Stop() error {
	slog.Info("Stopping MCP Summary Tool Server")
	// The server will exit when stdin is closed
	return nil
}

// engineFor picks the engine for the requested profile, falling back to
// the paper profile.
func (s *SummaryToolServer) engineFor(profile string) *summarize.Engine {
	if engine, ok := s.engines[profile]; ok {
		return engine
	}
	return s.engines[summarize.ProfilePaper]
}

// handleSummarizeFile handles the summarize_file MCP tool call.
func (s *SummaryToolServer) handleSummarizeFile(ctx *server.Context, req tools.SummarizeFileRequest) (tools.SummarizeFileResponse, error) {
	slog.Info("Processing summarize_file request", "path", req.Path)

	response := tools.SummarizeFileResponse{
		Status: "success",
	}

	if req.Path == "" {
		response.Status = "error"
		response.Error = "path is required"
		return response, nil
	}

	text, truncated, err := s.loader.LoadText(req.Path)
	if err != nil {
		logToolError(err, "failed to load document")
		response.Status = "error"
		response.Error = err.Error()
		return response, nil
	}

	result, err := s.engineFor(req.Profile).Summarize(context.Background(), text)
	if err != nil {
		logToolError(err, "failed to summarize document")
		response.Status = "error"
		response.Error = err.Error()
		return response, nil
	}

	response.Summary = result.Content
	response.ChunksUsed = result.ChunksUsed
	response.Truncated = truncated
	response.TotalTokens = result.TotalTokens
	slog.Info("Successfully summarized file", "path", req.Path, "chunks", result.ChunksUsed)

	return response, nil
}

// handleSummarizeText handles the summarize_text MCP tool call.
func (s *SummaryToolServer) handleSummarizeText(ctx *server.Context, req tools.SummarizeTextRequest) (tools.SummarizeTextResponse, error) {
	slog.Info("Processing summarize_text request", "text_length", len(req.Text))

	response := tools.SummarizeTextResponse{
		Status: "success",
	}

	if req.Text == "" {
		response.Status = "error"
		response.Error = "text is required"
		return response, nil
	}

	result, err := s.engineFor(req.Profile).Summarize(context.Background(), req.Text)
	if err != nil {
		logToolError(err, "failed to summarize text")
		response.Status = "error"
		response.Error = err.Error()
		return response, nil
	}

	response.Summary = result.Content
	response.ChunksUsed = result.ChunksUsed
	response.TotalTokens = result.TotalTokens
	slog.Info("Successfully summarized text", "chunks", result.ChunksUsed)

	return response, nil
}

// handleSearchPapers handles the search_papers MCP tool call.
func (s *SummaryToolServer) handleSearchPapers(ctx *server.Context, req tools.SearchPapersRequest) (tools.SearchPapersResponse, error) {
	slog.Info("Processing search_papers request", "query", req.Query, "limit", req.Limit)

	response := tools.SearchPapersResponse{
		Status:  "success",
		Results: []tools.PaperResult{},
	}

	if s.library == nil {
		response.Status = "error"
		response.Error = "no paper library available; run a crawl first"
		return response, nil
	}

	limit := req.Limit
	if limit <= 0 {
		limit = tools.DefaultSearchLimit
	}

	records, err := s.library.SearchPapers(req.Query, limit)
	if err != nil {
		logToolError(err, "failed to search paper library")
		response.Status = "error"
		response.Error = err.Error()
		return response, nil
	}

	for _, rec := range records {
		response.Results = append(response.Results, tools.PaperResult{
			ArxivID:   rec.ArxivID,
			Title:     rec.Title,
			FilePath:  rec.FilePath,
			FetchedAt: rec.FetchedAt.UTC().Format(time.RFC3339),
		})
	}

	slog.Info("Successfully searched paper library", "count", len(response.Results))
	return response, nil
}

func logToolError(err error, message string) {
	var appErr *errortypes.AppError
	if errors.As(err, &appErr) {
		slog.Error(message, "error", appErr.Error(), "type", string(appErr.Type))
		return
	}
	slog.Error(message, "error", err.Error())
}
