package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/a3tai/acrf-annotations/internal/config"
	"github.com/a3tai/acrf-annotations/internal/pdf/pdftest"
)

const testVersion = "1.2.3"

func TestPrintVersion(t *testing.T) {
	oldVersion, oldBuildTime, oldGitCommit := version, buildTime, gitCommit
	defer func() { version, buildTime, gitCommit = oldVersion, oldBuildTime, oldGitCommit }()

	version = testVersion
	buildTime = "2023-12-01_10:30:00"
	gitCommit = "abc123"

	var buf bytes.Buffer
	printVersion(&buf)

	output := buf.String()
	assert.Contains(t, output, "aCRF Annotations")
	assert.Contains(t, output, "Version: "+testVersion)
	assert.Contains(t, output, "Build Time: 2023-12-01_10:30:00")
	assert.Contains(t, output, "Git Commit: abc123")
	assert.Contains(t, output, "Built with: go")
}

func TestNewLogger(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LogLevel = "debug"

	logger, err := newLogger(cfg)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	cfg.LogLevel = "warn"
	logger, err = newLogger(cfg)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))

	cfg.LogLevel = "loud"
	_, err = newLogger(cfg)
	assert.Error(t, err)
}

func extractConfig(t *testing.T, format, output string) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Input = pdftest.WriteFile(t, "acrf.pdf", pdftest.SamplePages())
	cfg.Format = format
	cfg.Output = output
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestRunExtract_XLSX(t *testing.T) {
	outDir := t.TempDir()
	cfg := extractConfig(t, "xlsx", outDir)

	var out bytes.Buffer
	require.NoError(t, runExtract(context.Background(), cfg, zap.NewNop(), &out))

	path := filepath.Join(outDir, "result.xlsx")
	assert.Equal(t, path, strings.TrimSpace(out.String()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Variables")
	require.NoError(t, err)
	assert.Greater(t, len(rows), 1)
}

func TestRunExtract_JSON(t *testing.T) {
	output := filepath.Join(t.TempDir(), "records.json")
	cfg := extractConfig(t, "json", output)

	var out bytes.Buffer
	require.NoError(t, runExtract(context.Background(), cfg, zap.NewNop(), &out))

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"AE-AESTDTC"`)
	assert.Contains(t, string(data), `"report"`)
}

func TestRunExtract_Errors(t *testing.T) {
	cfg := extractConfig(t, "csv", t.TempDir())
	cfg.Input = filepath.Join(t.TempDir(), "missing.pdf")
	assert.ErrorContains(t, runExtract(context.Background(), cfg, zap.NewNop(), &bytes.Buffer{}), "file does not exist")

	cfg = extractConfig(t, "csv", t.TempDir())
	cfg.Strategy = "colour"
	assert.Error(t, runExtract(context.Background(), cfg, zap.NewNop(), &bytes.Buffer{}))
}
