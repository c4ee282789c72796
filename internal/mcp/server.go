package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/a3tai/acrf-annotations/internal/config"
	"github.com/a3tai/acrf-annotations/internal/descriptions"
	"github.com/a3tai/acrf-annotations/internal/pdf"
)

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	pdfService *pdf.Service
	mcpServer  *server.MCPServer
	logger     *zap.Logger
}

// NewServer creates a new MCP server instance. A nil logger disables logging.
func NewServer(cfg *config.Config, pdfService *pdf.Service, logger *zap.Logger) (*Server, error) {
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		mcpServer:  mcpServer,
		logger:     logger,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	extractTool := mcp.NewTool(
		descriptions.ExtractAnnotationsTool,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ExtractAnnotationsTool)),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the annotated CRF, absolute or relative to the default directory"),
		),
		mcp.WithString("strategy",
			mcp.Description("Domain resolution strategy (defaults to the server setting)"),
			mcp.Enum("page", "prefix", "hybrid"),
		),
		mcp.WithString("orphan_scope",
			mcp.Description("How long unresolved variables wait for a domain declaration"),
			mcp.Enum("page", "document"),
		),
		mcp.WithBoolean("tables",
			mcp.Description("Also return the Variables, ValueLevel and Raw tables"),
		),
	)
	s.mcpServer.AddTool(extractTool, s.handleExtractAnnotations)

	validateTool := mcp.NewTool(
		descriptions.ValidateFileTool,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ValidateFileTool)),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file"),
		),
	)
	s.mcpServer.AddTool(validateTool, s.handleValidateFile)

	searchTool := mcp.NewTool(
		descriptions.SearchDirectoryTool,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.SearchDirectoryTool)),
		mcp.WithString("directory",
			mcp.Description("Directory path to search (uses default if empty)"),
		),
		mcp.WithString("query",
			mcp.Description("Optional search query for fuzzy matching"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of files to list"),
		),
	)
	s.mcpServer.AddTool(searchTool, s.handleSearchDirectory)

	serverInfoTool := mcp.NewTool(
		descriptions.ServerInfoTool,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ServerInfoTool)),
	)
	s.mcpServer.AddTool(serverInfoTool, s.handleServerInfo)
}

// Handler functions
func (s *Server) handleExtractAnnotations(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := pdf.ExtractRequest{
		Path:        path,
		Strategy:    request.GetString("strategy", ""),
		OrphanScope: request.GetString("orphan_scope", ""),
		Tables:      request.GetBool("tables", false),
	}
	result, err := s.pdfService.ExtractFile(ctx, req)
	if err != nil {
		s.logger.Warn("extraction failed", zap.String("path", path), zap.Error(err))
		return mcp.NewToolResultError(err.Error()), nil
	}

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}

	return mcp.NewToolResultText(s.formatExtractResult(result) + "\n" + string(payload)), nil
}

func (s *Server) handleValidateFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.ValidateFile(pdf.ValidateFileRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.Valid {
		responseText = fmt.Sprintf("PDF file %s is valid and readable\n", result.Path)
		responseText += fmt.Sprintf("Pages: %d\n", result.Pages)
		responseText += fmt.Sprintf("Annotated pages: %d\n", result.AnnotatedPages)
		responseText += fmt.Sprintf("Annotations: %d\n", result.Annotations)
		if result.Message != "" {
			responseText += fmt.Sprintf("\n⚠️  WARNING: %s\n", result.Message)
		}
	} else {
		responseText = fmt.Sprintf("PDF validation failed for %s: %s", result.Path, result.Message)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleSearchDirectory(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	req := pdf.SearchDirectoryRequest{
		Directory: request.GetString("directory", s.config.PDFDirectory),
		Query:     request.GetString("query", ""),
		Limit:     request.GetInt("limit", 0),
	}
	if req.Directory == "" {
		req.Directory = s.config.PDFDirectory
	}

	result, err := s.pdfService.SearchDirectory(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.TotalCount == 0 {
		responseText = fmt.Sprintf("No PDF files found in directory: %s", result.Directory)
		if result.SearchQuery != "" {
			responseText += fmt.Sprintf(" (searched for: %s)", result.SearchQuery)
		}
	} else {
		responseText = s.formatSearchDirectoryResult(result)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.pdfService.ServerInfo(ctx, s.config.ServerName, s.config.Version)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatServerInfoResult(result)), nil
}

// Formatting methods
func (s *Server) formatExtractResult(result *pdf.ExtractResult) string {
	text := fmt.Sprintf("Extracted %d record(s) from %s\n", len(result.Records), result.Path)
	text += fmt.Sprintf("Pages: %d (page 1 skipped)\n", result.Pages)
	text += fmt.Sprintf("Strategy: %s\n", result.Strategy)

	if r := result.Report; r != nil {
		text += fmt.Sprintf("Annotations: %d (main %d, supplemental %d, other %d)\n",
			r.Annotations, r.Main, r.Supplemental, r.Other)
		if r.Replayed > 0 {
			text += fmt.Sprintf("Replayed from earlier pages: %d\n", r.Replayed)
		}
		if r.Orphans > 0 {
			text += fmt.Sprintf("\n⚠️  WARNING: %d variable(s) could not be assigned a dataset\n", r.Orphans)
		}
		if r.Issues != nil {
			if errCount, warnCount := r.Issues.Count(); errCount+warnCount > 0 {
				text += fmt.Sprintf("Issues: %s\n", r.Issues.Summary())
			}
		}
	}

	datasets := make(map[string]int)
	for _, rec := range result.Records {
		datasets[rec.Domain]++
	}
	if len(datasets) > 0 {
		names := make([]string, 0, len(datasets))
		for name := range datasets {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s (%d)", name, datasets[name]))
		}
		text += "Datasets: " + strings.Join(parts, ", ") + "\n"
	}

	return text
}

func (s *Server) formatSearchDirectoryResult(result *pdf.SearchDirectoryResult) string {
	text := fmt.Sprintf("Found %d PDF file(s) in directory: %s\n", result.TotalCount, result.Directory)
	if result.SearchQuery != "" {
		text += fmt.Sprintf("Search query: %s\n", result.SearchQuery)
	}
	text += "\nFiles:\n"

	for i, file := range result.Files {
		text += fmt.Sprintf("%d. %s\n", i+1, file.Name)
		text += fmt.Sprintf("   Path: %s\n", file.Path)
		text += fmt.Sprintf("   Size: %d bytes\n", file.Size)
		text += fmt.Sprintf("   Modified: %s\n", file.ModifiedTime)
		if i < len(result.Files)-1 {
			text += "\n"
		}
	}

	return text
}

func (s *Server) formatServerInfoResult(result *pdf.ServerInfoResult) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", result.ServerName, result.Version)
	text += fmt.Sprintf("📁 Default Directory: %s\n", result.DefaultDirectory)
	text += fmt.Sprintf("📏 Max File Size: %d MB\n", result.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("🧭 Strategy: %s, Orphan Scope: %s\n\n", result.Strategy, result.OrphanScope)

	if len(result.DirectoryContents) > 0 {
		text += fmt.Sprintf("📂 Directory Contents (%d PDF files found):\n", len(result.DirectoryContents))
		for i, file := range result.DirectoryContents {
			if i >= 10 { // Limit to first 10 files for readability
				text += fmt.Sprintf("   ... and %d more files\n", len(result.DirectoryContents)-10)
				break
			}
			text += fmt.Sprintf("   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
		text += "\n"
	} else {
		text += "📂 Directory Contents: No PDF files found in default directory\n\n"
	}

	text += "🛠️  Available Tools:\n"
	for _, tool := range result.AvailableTools {
		text += fmt.Sprintf("\n• %s\n", tool.Name)
		text += fmt.Sprintf("  Parameters: %s\n", tool.Parameters)
	}

	text += "\n" + result.UsageGuidance

	return text
}

// Run serves MCP over stdio until the client disconnects
func (s *Server) Run(_ context.Context) error {
	s.logger.Info("starting MCP server in stdio mode",
		zap.String("directory", s.config.PDFDirectory),
		zap.String("strategy", s.config.Strategy),
		zap.String("orphan_scope", s.config.OrphanScope))

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
