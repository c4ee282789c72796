package pdf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/acrf-annotations/internal/pdf/pdftest"
)

func setupSearchDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	sample := pdftest.Build(pdftest.SamplePages())

	files := map[string][]byte{
		"Study-302_aCRF.pdf":         sample,
		"blank_crf.pdf":              sample,
		"notes.txt":                  []byte("not a pdf"),
		"empty.pdf":                  {},
		"nested/Study-105_aCRF.PDF":  sample,
		".hidden/Study-999_aCRF.pdf": sample,
	}
	for name, data := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, data, 0o600))
	}
	return dir
}

func TestSearch_SearchDirectory(t *testing.T) {
	dir := setupSearchDir(t)
	search := NewSearch(1024 * 1024)

	tests := []struct {
		name     string
		query    string
		limit    int
		expected []string
	}{
		{name: "all pdfs", expected: []string{"Study-302_aCRF.pdf", "blank_crf.pdf", "Study-105_aCRF.PDF"}},
		{name: "substring", query: "acrf", expected: []string{"Study-302_aCRF.pdf", "Study-105_aCRF.PDF"}},
		{name: "words in any order", query: "acrf 302", expected: []string{"Study-302_aCRF.pdf"}},
		{name: "no match", query: "define", expected: []string{}},
		{name: "limit", limit: 1, expected: []string{"Study-302_aCRF.pdf"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := search.SearchDirectory(SearchDirectoryRequest{Directory: dir, Query: tt.query, Limit: tt.limit})
			require.NoError(t, err)

			names := make([]string, 0, len(result.Files))
			for _, f := range result.Files {
				names = append(names, f.Name)
			}
			assert.ElementsMatch(t, tt.expected, names)
			assert.Equal(t, len(tt.expected), result.TotalCount)
			assert.Equal(t, tt.query, result.SearchQuery)
		})
	}
}

func TestSearch_SearchDirectory_Errors(t *testing.T) {
	search := NewSearch(1024)

	_, err := search.SearchDirectory(SearchDirectoryRequest{})
	assert.ErrorContains(t, err, "directory cannot be empty")

	_, err = search.SearchDirectory(SearchDirectoryRequest{Directory: "/non/existent/dir"})
	assert.ErrorContains(t, err, "directory does not exist")
}

func TestSearch_SkipsLinksOutsideDirectory(t *testing.T) {
	outside := pdftest.WriteFile(t, "outside.pdf", pdftest.SamplePages())
	dir := t.TempDir()
	if err := os.Symlink(outside, filepath.Join(dir, "linked.pdf")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	result, err := NewSearch(1024 * 1024).SearchDirectory(SearchDirectoryRequest{Directory: dir})
	require.NoError(t, err)
	assert.Empty(t, result.Files)
}

func TestMatchesQuery(t *testing.T) {
	assert.True(t, matchesQuery("Study-302_aCRF.pdf", "302"))
	assert.True(t, matchesQuery("Study-302_aCRF.pdf", "study acrf"))
	assert.False(t, matchesQuery("Study-302_aCRF.pdf", "study 105"))
	assert.Equal(t, []string{"study", "302", "acrf"}, splitIntoWords("study-302_acrf"))
}
