package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/acrf-annotations/internal/annotation"
	"github.com/a3tai/acrf-annotations/internal/config"
	"github.com/a3tai/acrf-annotations/internal/pdf"
	"github.com/a3tai/acrf-annotations/internal/pdf/pdftest"
)

// newTestServer serves dir with a sample aCRF written to dir/acrf.pdf
func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "acrf.pdf"), pdftest.Build(pdftest.SamplePages()), 0o600))

	cfg := config.DefaultConfig()
	cfg.Mode = config.ModeStdio
	cfg.PDFDirectory = dir
	cfg.ServerName = "test-server"

	pdfService, err := pdf.NewService(cfg.MaxFileSize, dir, annotation.Options{}, nil)
	require.NoError(t, err)

	server, err := NewServer(cfg, pdfService, nil)
	require.NoError(t, err)
	return server, dir
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func TestNewServer(t *testing.T) {
	cfg := config.DefaultConfig()
	pdfService, err := pdf.NewService(cfg.MaxFileSize, t.TempDir(), annotation.Options{}, nil)
	require.NoError(t, err)

	server, err := NewServer(cfg, pdfService, nil)
	require.NoError(t, err)
	assert.Same(t, cfg, server.config)
	assert.Same(t, pdfService, server.pdfService)
	assert.NotNil(t, server.mcpServer)
	assert.NotNil(t, server.logger)

	_, err = NewServer(cfg, nil, nil)
	assert.Error(t, err)

	_, err = NewServer(nil, pdfService, nil)
	assert.Error(t, err)
}

func TestServer_HandleExtractAnnotations(t *testing.T) {
	server, dir := newTestServer(t)
	ctx := context.Background()

	result, err := server.handleExtractAnnotations(ctx, callRequest(map[string]interface{}{
		"path":   "acrf.pdf",
		"tables": true,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractTextFromResult(result))

	text := extractTextFromResult(result)
	assert.Contains(t, text, "from "+filepath.Join(dir, "acrf.pdf"))
	assert.Contains(t, text, "Strategy: hybrid")
	assert.Contains(t, text, "Datasets: AE (")
	assert.Contains(t, text, `"id": "AE-AESTDTC"`)
	assert.Contains(t, text, `"value_level"`)
}

func TestServer_HandleExtractAnnotations_Options(t *testing.T) {
	server, _ := newTestServer(t)

	result, err := server.handleExtractAnnotations(context.Background(), callRequest(map[string]interface{}{
		"path":         "acrf.pdf",
		"strategy":     "page",
		"orphan_scope": "document",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := extractTextFromResult(result)
	assert.Contains(t, text, "Strategy: page")
	assert.NotContains(t, text, `"value_level"`)
}

func TestServer_HandleExtractAnnotations_Errors(t *testing.T) {
	server, _ := newTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		args    map[string]interface{}
		wantMsg string
	}{
		{name: "missing path", args: map[string]interface{}{}, wantMsg: "path"},
		{name: "outside directory", args: map[string]interface{}{"path": "/etc/acrf.pdf"}, wantMsg: "outside configured directory"},
		{name: "bad strategy", args: map[string]interface{}{"path": "acrf.pdf", "strategy": "colour"}, wantMsg: "unknown domain strategy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := server.handleExtractAnnotations(ctx, callRequest(tt.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, extractTextFromResult(result), tt.wantMsg)
		})
	}
}

func TestServer_HandleValidateFile(t *testing.T) {
	server, dir := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fake.pdf"), make([]byte, 1024), 0o600))
	ctx := context.Background()

	result, err := server.handleValidateFile(ctx, callRequest(map[string]interface{}{"path": "acrf.pdf"}))
	require.NoError(t, err)
	text := extractTextFromResult(result)
	assert.Contains(t, text, "is valid and readable")
	assert.Contains(t, text, "Annotations: 9")

	result, err = server.handleValidateFile(ctx, callRequest(map[string]interface{}{"path": "fake.pdf"}))
	require.NoError(t, err)
	assert.Contains(t, extractTextFromResult(result), "PDF validation failed")

	result, err = server.handleValidateFile(ctx, callRequest(map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestServer_HandleSearchDirectory(t *testing.T) {
	server, dir := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	ctx := context.Background()

	result, err := server.handleSearchDirectory(ctx, callRequest(map[string]interface{}{}))
	require.NoError(t, err)
	text := extractTextFromResult(result)
	assert.Contains(t, text, "Found 1 PDF file(s)")
	assert.Contains(t, text, "acrf.pdf")
	assert.NotContains(t, text, "notes.txt")

	result, err = server.handleSearchDirectory(ctx, callRequest(map[string]interface{}{"query": "protocol"}))
	require.NoError(t, err)
	assert.Contains(t, extractTextFromResult(result), "No PDF files found")
	assert.Contains(t, extractTextFromResult(result), "(searched for: protocol)")

	result, err = server.handleSearchDirectory(ctx, callRequest(map[string]interface{}{"directory": t.TempDir()}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestServer_HandleServerInfo(t *testing.T) {
	server, dir := newTestServer(t)

	result, err := server.handleServerInfo(context.Background(), callRequest(nil))
	require.NoError(t, err)

	text := extractTextFromResult(result)
	assert.Contains(t, text, "test-server v1.0.0")
	assert.Contains(t, text, "Default Directory: "+dir)
	assert.Contains(t, text, "Strategy: hybrid, Orphan Scope: page")
	assert.Contains(t, text, "1. acrf.pdf")
	assert.Contains(t, text, "acrf_extract_annotations")
}

// extractTextFromResult returns the first text content of a tool result
func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}

	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			return textContent.Text
		}
		if textContentPtr, ok := content.(*mcp.TextContent); ok {
			return textContentPtr.Text
		}
	}

	return ""
}
