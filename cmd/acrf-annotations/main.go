package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/a3tai/acrf-annotations/internal/config"
	"github.com/a3tai/acrf-annotations/internal/export"
	"github.com/a3tai/acrf-annotations/internal/mcp"
	"github.com/a3tai/acrf-annotations/internal/pdf"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// newLogger builds a stderr logger at the configured level. Extract mode
// logs in console encoding; stdio mode keeps JSON so clients can parse it.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = level
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg.IsExtractMode() {
		zcfg.Encoding = "console"
		zcfg.DisableStacktrace = true
	}
	return zcfg.Build()
}

// runExtract extracts one aCRF and writes it in the configured format,
// printing each written path to out
func runExtract(ctx context.Context, cfg *config.Config, logger *zap.Logger, out io.Writer) error {
	opts, err := cfg.EngineOptions()
	if err != nil {
		return err
	}

	format, err := export.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	input, err := filepath.Abs(cfg.Input)
	if err != nil {
		return fmt.Errorf("failed to resolve input: %w", err)
	}

	service, err := pdf.NewService(cfg.MaxFileSize, filepath.Dir(input), opts, logger)
	if err != nil {
		return err
	}

	result, err := service.ExtractFile(ctx, pdf.ExtractRequest{Path: input})
	if err != nil {
		return err
	}

	paths, err := export.Write(format, cfg.Output, result.Records, result.Report)
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	logger.Info("extraction written",
		zap.String("input", input),
		zap.String("format", string(format)),
		zap.Int("records", len(result.Records)),
		zap.Int("orphans", result.Report.Orphans))
	for _, p := range paths {
		fmt.Fprintln(out, p)
	}
	return nil
}

// runStdio serves MCP over stdio until the client disconnects
func runStdio(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	opts, err := cfg.EngineOptions()
	if err != nil {
		return err
	}

	pdfService, err := pdf.NewService(cfg.MaxFileSize, cfg.PDFDirectory, opts, logger)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mcp.NewServer(cfg, pdfService, logger)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	return server.Run(ctx)
}

func main() {
	cfg, err := config.LoadFromFlags()
	if errors.Is(err, config.ErrVersionRequested) {
		printVersion(os.Stdout)
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(2)
	}

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	logger.Debug("starting", zap.Stringer("config", cfg))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.IsStdioMode() {
		err = runStdio(ctx, cfg, logger)
	} else {
		err = runExtract(ctx, cfg, logger, os.Stdout)
	}
	if err != nil {
		logger.Error("run failed", zap.Error(err))
		stop()
		_ = logger.Sync()
		os.Exit(1)
	}
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "aCRF Annotations\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
