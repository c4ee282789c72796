package pdf

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/a3tai/acrf-annotations/internal/descriptions"
)

const (
	directoryCacheTTL = 5 * time.Minute
	directoryScanCap  = 100
	directoryScanTime = 5 * time.Second
)

// DirectoryCache provides TTL-based caching for directory contents
type DirectoryCache struct {
	entries map[string]*CacheEntry
	ttl     time.Duration
	mu      sync.RWMutex
}

// CacheEntry represents a cached directory scan result
type CacheEntry struct {
	files      []FileInfo
	lastUpdate time.Time
}

// NewDirectoryCache creates a new directory cache with specified TTL
func NewDirectoryCache(ttl time.Duration) *DirectoryCache {
	return &DirectoryCache{
		entries: make(map[string]*CacheEntry),
		ttl:     ttl,
	}
}

// Get returns cached directory contents while they are fresh
func (c *DirectoryCache) Get(path string) ([]FileInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[path]
	if !exists || time.Since(entry.lastUpdate) > c.ttl {
		return nil, false
	}
	return entry.files, true
}

// Set stores directory contents in cache
func (c *DirectoryCache) Set(path string, files []FileInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[path] = &CacheEntry{
		files:      files,
		lastUpdate: time.Now(),
	}
}

// Clear removes expired entries from cache
func (c *DirectoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for path, entry := range c.entries {
		if now.Sub(entry.lastUpdate) > c.ttl {
			delete(c.entries, path)
		}
	}
}

// ServerInfo assembles the server description with a cached listing of the
// configured directory
type ServerInfo struct {
	cache   *DirectoryCache
	service *Service
}

// NewServerInfo creates a server info handler for service
func NewServerInfo(service *Service) *ServerInfo {
	return &ServerInfo{
		cache:   NewDirectoryCache(directoryCacheTTL),
		service: service,
	}
}

// Get returns the server description. A failed or slow directory scan
// yields an empty listing rather than an error.
func (p *ServerInfo) Get(ctx context.Context, serverName, version string) (*ServerInfoResult, error) {
	dir := p.service.pathValidator.GetConfiguredDirectory()

	files, ok := p.cache.Get(dir)
	if !ok {
		files = p.scan(ctx, dir)
		p.cache.Set(dir, files)
	}

	opts := p.service.options
	return &ServerInfoResult{
		ServerName:        serverName,
		Version:           version,
		DefaultDirectory:  dir,
		MaxFileSize:       p.service.maxFileSize,
		Strategy:          string(opts.Strategy),
		OrphanScope:       string(opts.OrphanScope),
		AvailableTools:    p.availableTools(),
		DirectoryContents: files,
		UsageGuidance:     p.usageGuidance(),
	}, nil
}

func (p *ServerInfo) scan(ctx context.Context, dir string) []FileInfo {
	scanCtx, cancel := context.WithTimeout(ctx, directoryScanTime)
	defer cancel()

	resultChan := make(chan []FileInfo, 1)
	go func() {
		result, err := p.service.search.SearchDirectory(SearchDirectoryRequest{
			Directory: dir,
			Limit:     directoryScanCap,
		})
		if err != nil {
			resultChan <- []FileInfo{}
			return
		}
		resultChan <- result.Files
	}()

	select {
	case files := <-resultChan:
		return files
	case <-scanCtx.Done():
		return []FileInfo{}
	}
}

func (p *ServerInfo) availableTools() []ToolInfo {
	return []ToolInfo{
		{
			Name:        descriptions.ExtractAnnotationsTool,
			Description: descriptions.GetToolDescription(descriptions.ExtractAnnotationsTool),
			Parameters: "path (required): aCRF path, absolute or relative to the default directory, " +
				"strategy (optional): page, prefix or hybrid, " +
				"orphan_scope (optional): page or document, " +
				"tables (optional): also build the Variables, ValueLevel and Raw tables",
		},
		{
			Name:        descriptions.ValidateFileTool,
			Description: descriptions.GetToolDescription(descriptions.ValidateFileTool),
			Parameters:  "path (required): PDF path, absolute or relative to the default directory",
		},
		{
			Name:        descriptions.SearchDirectoryTool,
			Description: descriptions.GetToolDescription(descriptions.SearchDirectoryTool),
			Parameters: "directory (optional): directory to search (uses default if empty), " +
				"query (optional): fuzzy file name query, limit (optional): maximum number of files",
		},
		{
			Name:        descriptions.ServerInfoTool,
			Description: descriptions.GetToolDescription(descriptions.ServerInfoTool),
			Parameters:  "none",
		},
	}
}

func (p *ServerInfo) usageGuidance() string {
	opts := p.service.options
	return `aCRF Annotation Server Usage Guide:

1. FIND THE aCRF:
   - Use 'acrf_search_directory' to list PDF files in the default directory

2. VALIDATE:
   - Use 'acrf_validate_file' to confirm the file is readable and carries annotations

3. EXTRACT:
   - Use 'acrf_extract_annotations' to get one record per DOMAIN-VARIABLE
   - Page 1 is treated as the cover and skipped
   - Check 'report.orphans': variables whose dataset could not be determined
   - Set 'tables' to receive the Variables, ValueLevel and Raw tables

4. TUNE RESOLUTION:
   - strategy "page": only coloured domain declarations on the page count
   - strategy "prefix": the first two letters of the variable (plus exceptions)
   - strategy "hybrid": declarations first, prefix as fallback
   - orphan_scope "document": unresolved variables wait for a later page declaring their colour

IMPORTANT NOTES:
- Default strategy is '` + string(opts.Strategy) + `', default orphan scope is '` + string(opts.OrphanScope) + `'
- The server can handle files up to ` + fmt.Sprintf("%d", p.service.maxFileSize/(1024*1024)) + `MB
- Flattened PDFs (annotations burnt into the page) carry no annotations to extract`
}

// ClearCache clears expired cache entries
func (p *ServerInfo) ClearCache() {
	p.cache.Clear()
}
