package pdf

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/acrf-annotations/internal/annotation"
	"github.com/a3tai/acrf-annotations/internal/descriptions"
	"github.com/a3tai/acrf-annotations/internal/pdf/pdftest"
)

func TestDirectoryCache(t *testing.T) {
	cache := NewDirectoryCache(time.Hour)

	_, ok := cache.Get("/docs")
	assert.False(t, ok)

	files := []FileInfo{{Path: "/docs/acrf.pdf", Name: "acrf.pdf"}}
	cache.Set("/docs", files)

	got, ok := cache.Get("/docs")
	require.True(t, ok)
	assert.Equal(t, files, got)

	cache.Clear()
	_, ok = cache.Get("/docs")
	assert.True(t, ok, "fresh entries survive Clear")
}

func TestDirectoryCache_Expiry(t *testing.T) {
	cache := NewDirectoryCache(time.Nanosecond)
	cache.Set("/docs", []FileInfo{})
	time.Sleep(time.Millisecond)

	_, ok := cache.Get("/docs")
	assert.False(t, ok)

	cache.Clear()
	assert.Empty(t, cache.entries)
}

func TestService_ServerInfo(t *testing.T) {
	path := pdftest.WriteFile(t, "acrf.pdf", pdftest.SamplePages())
	dir := filepath.Dir(path)

	service, err := NewService(10*1024*1024, dir, annotation.Options{OrphanScope: annotation.OrphanScopeDocument}, nil)
	require.NoError(t, err)

	result, err := service.ServerInfo(context.Background(), "acrf-annotations", "1.2.3")
	require.NoError(t, err)

	assert.Equal(t, "acrf-annotations", result.ServerName)
	assert.Equal(t, "1.2.3", result.Version)
	assert.Equal(t, dir, result.DefaultDirectory)
	assert.Equal(t, int64(10*1024*1024), result.MaxFileSize)
	assert.Equal(t, "hybrid", result.Strategy)
	assert.Equal(t, "document", result.OrphanScope)
	require.Len(t, result.DirectoryContents, 1)
	assert.Equal(t, "acrf.pdf", result.DirectoryContents[0].Name)
	assert.Contains(t, result.UsageGuidance, "10MB")
	assert.Contains(t, result.UsageGuidance, "default orphan scope is 'document'")

	names := make([]string, 0, len(result.AvailableTools))
	for _, tool := range result.AvailableTools {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Parameters)
	}
	assert.ElementsMatch(t, descriptions.GetAllToolNames(), names)
}

func TestService_ServerInfo_CachesListing(t *testing.T) {
	dir := t.TempDir()
	service := newTestService(t, dir)
	ctx := context.Background()

	result, err := service.ServerInfo(ctx, "s", "v")
	require.NoError(t, err)
	assert.Empty(t, result.DirectoryContents)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "later.pdf"), pdftest.Build(pdftest.SamplePages()), 0o600))
	result, err = service.ServerInfo(ctx, "s", "v")
	require.NoError(t, err)
	assert.Empty(t, result.DirectoryContents, "listing comes from the cache")
}

func TestService_ServerInfo_MissingDirectory(t *testing.T) {
	service := newTestService(t, filepath.Join(t.TempDir(), "missing"))

	result, err := service.ServerInfo(context.Background(), "s", "v")
	require.NoError(t, err)
	assert.Empty(t, result.DirectoryContents)
}
