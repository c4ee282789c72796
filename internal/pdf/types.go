package pdf

import (
	"github.com/a3tai/acrf-annotations/internal/annotation"
	"github.com/a3tai/acrf-annotations/internal/export"
)

// FileInfo represents information about a PDF file
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// Request Types

// ExtractRequest represents a request to extract the annotation records of an aCRF
type ExtractRequest struct {
	Path string `json:"path"`
	// Strategy and OrphanScope override the service defaults when set
	Strategy    string `json:"strategy,omitempty"`
	OrphanScope string `json:"orphan_scope,omitempty"`
	// Tables also builds the Variables, ValueLevel and Raw tables
	Tables bool `json:"tables,omitempty"`
}

// ValidateFileRequest represents a request to validate a PDF file
type ValidateFileRequest struct {
	Path string `json:"path"`
}

// SearchDirectoryRequest represents a request to search for PDF files in a directory
type SearchDirectoryRequest struct {
	Directory string `json:"directory"`
	Query     string `json:"query"`
	Limit     int    `json:"limit,omitempty"`
}

// Response Types

// ExtractResult represents the outcome of one extraction run
type ExtractResult struct {
	Path     string              `json:"path"`
	Pages    int                 `json:"pages"`
	Strategy string              `json:"strategy"`
	Records  []annotation.Record `json:"records"`
	Report   *annotation.Report  `json:"report"`
	Tables   *export.Tables      `json:"tables,omitempty"`
}

// ValidateFileResult represents the result of a PDF validation operation
type ValidateFileResult struct {
	Valid   bool   `json:"valid"`
	Path    string `json:"path"`
	Message string `json:"message,omitempty"`
	// Census of the document, filled for valid files
	Pages          int `json:"pages,omitempty"`
	AnnotatedPages int `json:"annotated_pages,omitempty"`
	Annotations    int `json:"annotations,omitempty"`
}

// SearchDirectoryResult represents the result of a PDF search operation
type SearchDirectoryResult struct {
	Files       []FileInfo `json:"files"`
	TotalCount  int        `json:"total_count"`
	Directory   string     `json:"directory"`
	SearchQuery string     `json:"search_query,omitempty"`
}

// ServerInfoResult represents server information and usage guidance
type ServerInfoResult struct {
	ServerName        string     `json:"server_name"`
	Version           string     `json:"version"`
	DefaultDirectory  string     `json:"default_directory"`
	MaxFileSize       int64      `json:"max_file_size"`
	Strategy          string     `json:"strategy"`
	OrphanScope       string     `json:"orphan_scope"`
	AvailableTools    []ToolInfo `json:"available_tools"`
	DirectoryContents []FileInfo `json:"directory_contents"`
	UsageGuidance     string     `json:"usage_guidance"`
}

// ToolInfo represents information about an available tool
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  string `json:"parameters"`
}
