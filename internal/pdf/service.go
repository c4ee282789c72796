package pdf

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/a3tai/acrf-annotations/internal/annotation"
	"github.com/a3tai/acrf-annotations/internal/decoder"
	"github.com/a3tai/acrf-annotations/internal/export"
	"github.com/a3tai/acrf-annotations/internal/pdf/security"
)

// Service handles aCRF file operations by orchestrating the PDF components
// and the annotation engine
type Service struct {
	maxFileSize   int64
	options       annotation.Options
	validator     *Validator
	search        *Search
	serverInfo    *ServerInfo
	pathValidator *security.PathValidator
	logger        *zap.Logger
}

// NewService creates a new service confined to configuredDirectory. Zero
// fields of opts take the engine defaults; a nil logger disables logging.
func NewService(maxFileSize int64, configuredDirectory string, opts annotation.Options,
	logger *zap.Logger,
) (*Service, error) {
	pathValidator, err := security.NewPathValidator(configuredDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		maxFileSize:   maxFileSize,
		options:       annotation.NewEngine(nil, opts, nil).Options(),
		validator:     NewValidator(maxFileSize),
		search:        NewSearch(maxFileSize),
		pathValidator: pathValidator,
		logger:        logger,
	}
	s.serverInfo = NewServerInfo(s)
	return s, nil
}

// ExtractFile runs the annotation engine over one aCRF
func (s *Service) ExtractFile(ctx context.Context, req ExtractRequest) (*ExtractResult, error) {
	path, err := s.pathValidator.Resolve(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	if err := s.validator.validatePDFFile(path); err != nil {
		return nil, err
	}

	opts := s.options
	if req.Strategy != "" {
		if opts.Strategy, err = annotation.ParseStrategy(req.Strategy); err != nil {
			return nil, err
		}
	}
	if req.OrphanScope != "" {
		if opts.OrphanScope, err = annotation.ParseOrphanScope(req.OrphanScope); err != nil {
			return nil, err
		}
	}

	doc, err := OpenDocument(path)
	if err != nil {
		return nil, err
	}

	logger := s.logger.With(zap.String("path", path))
	engine := annotation.NewEngine(decoder.Decode, opts, logger)
	records, report, err := engine.Run(ctx, doc)
	if err != nil {
		return nil, err
	}

	result := &ExtractResult{
		Path:     path,
		Pages:    doc.PageCount(),
		Strategy: string(opts.Strategy),
		Records:  records,
		Report:   report,
	}
	if req.Tables {
		result.Tables = export.Build(records)
	}
	return result, nil
}

// ValidateFile performs validation on a PDF file
func (s *Service) ValidateFile(req ValidateFileRequest) (*ValidateFileResult, error) {
	path, err := s.pathValidator.Resolve(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	req.Path = path
	return s.validator.ValidateFile(req)
}

// SearchDirectory searches for PDF files in a directory
func (s *Service) SearchDirectory(req SearchDirectoryRequest) (*SearchDirectoryResult, error) {
	// If no directory specified, use configured directory
	if req.Directory == "" {
		req.Directory = s.pathValidator.GetConfiguredDirectory()
	}

	// Validate directory is within configured bounds
	if err := s.pathValidator.ValidateDirectory(req.Directory); err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}

	return s.search.SearchDirectory(req)
}

// ServerInfo returns server information and usage guidance
func (s *Service) ServerInfo(ctx context.Context, serverName, version string) (*ServerInfoResult, error) {
	return s.serverInfo.Get(ctx, serverName, version)
}

// Options returns the default engine options
func (s *Service) Options() annotation.Options {
	return s.options
}

// GetMaxFileSize returns the maximum file size limit
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}

// IsValidPDF performs a quick validation check on a file
func (s *Service) IsValidPDF(filePath string) bool {
	return s.validator.IsValidPDF(filePath)
}

// ValidateConfiguration validates the service configuration
func (s *Service) ValidateConfiguration() error {
	if s.maxFileSize <= 0 {
		return fmt.Errorf("maxFileSize must be greater than 0")
	}

	if s.maxFileSize > 1024*1024*1024 { // 1GB limit
		return fmt.Errorf("maxFileSize cannot exceed 1GB")
	}

	return nil
}
