package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/acrf-annotations/internal/annotation"
	"github.com/a3tai/acrf-annotations/internal/export"
)

const (
	// Mode constants
	ModeExtract = "extract"
	ModeStdio   = "stdio"

	// Default values
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	DefaultFormat      = string(export.FormatXLSX)

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "ACRF"
)

// ErrVersionRequested is returned by LoadFromFlags when --version is passed
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for the aCRF annotation tool
type Config struct {
	// Mode is "extract" for a one-shot run or "stdio" for the MCP server
	Mode string

	// Extract mode
	Input  string
	Output string
	Format string

	// Server mode
	PDFDirectory string

	// Engine
	Strategy       string
	OrphanScope    string
	Workers        int
	ExceptionsFile string

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum PDF file size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		// Fallback to current directory if working directory cannot be determined
		currentDir = "."
	}

	return &Config{
		Mode:         ModeExtract,
		Format:       DefaultFormat,
		PDFDirectory: currentDir,
		Strategy:     string(annotation.StrategyHybrid),
		OrphanScope:  string(annotation.OrphanScopePage),
		Version:      "1.0.0",
		ServerName:   "acrf-annotations",
		LogLevel:     DefaultLogLevel,
		MaxFileSize:  DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	for _, p := range []*string{&cfg.PDFDirectory, &cfg.Input, &cfg.Output, &cfg.ExceptionsFile} {
		if *p == "" {
			continue
		}
		if expandedPath, err := filepath.Abs(*p); err == nil {
			*p = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	// ACRF_ORPHAN_SCOPE binds to "orphan-scope"
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("input", cfg.Input)
	viper.SetDefault("output", cfg.Output)
	viper.SetDefault("format", cfg.Format)
	viper.SetDefault("dir", cfg.PDFDirectory)
	viper.SetDefault("strategy", cfg.Strategy)
	viper.SetDefault("orphan-scope", cfg.OrphanScope)
	viper.SetDefault("workers", cfg.Workers)
	viper.SetDefault("exceptions", cfg.ExceptionsFile)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Run mode: 'extract' for a one-shot extraction, 'stdio' for the MCP server")
	pflag.StringP("input", "i", cfg.Input, "Annotated CRF to extract (extract mode)")
	pflag.StringP("output", "o", cfg.Output, "Output file or directory (extract mode)")
	pflag.String("format", cfg.Format, "Output format: xlsx, csv or json (extract mode)")
	pflag.String("dir", cfg.PDFDirectory, "Directory containing aCRF files (stdio mode)")
	pflag.String("strategy", cfg.Strategy, "Domain resolution strategy: page, prefix or hybrid")
	pflag.String("orphan-scope", cfg.OrphanScope, "How long unresolved variables wait for a domain: page or document")
	pflag.Int("workers", cfg.Workers, "Concurrent page parsers (0 uses all CPUs)")
	pflag.String("exceptions", cfg.ExceptionsFile, "YAML file of variable to dataset exceptions")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{
		"mode", "input", "output", "format", "dir", "strategy", "orphan-scope",
		"workers", "exceptions", "loglevel", "maxfilesize",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\naCRF Annotations - extract SDTM annotation records from annotated CRFs\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -i acrf.pdf                              "+
			"# writes result.xlsx in the current directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -i acrf.pdf -o out --format=csv          "+
			"# one CSV per table in out/\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -i acrf.pdf --orphan-scope=document      "+
			"# later pages may claim earlier variables\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=stdio --dir=/path/to/acrfs        # MCP server\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  ACRF_MODE           Run mode\n")
		fmt.Fprintf(os.Stderr, "  ACRF_INPUT          Input file\n")
		fmt.Fprintf(os.Stderr, "  ACRF_OUTPUT         Output path\n")
		fmt.Fprintf(os.Stderr, "  ACRF_FORMAT         Output format\n")
		fmt.Fprintf(os.Stderr, "  ACRF_DIR            aCRF directory\n")
		fmt.Fprintf(os.Stderr, "  ACRF_STRATEGY       Domain resolution strategy\n")
		fmt.Fprintf(os.Stderr, "  ACRF_ORPHAN_SCOPE   Orphan scope\n")
		fmt.Fprintf(os.Stderr, "  ACRF_WORKERS        Concurrent page parsers\n")
		fmt.Fprintf(os.Stderr, "  ACRF_EXCEPTIONS     Exceptions file\n")
		fmt.Fprintf(os.Stderr, "  ACRF_LOGLEVEL       Log level\n")
		fmt.Fprintf(os.Stderr, "  ACRF_MAXFILESIZE    Maximum file size\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return ErrVersionRequested
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Input = viper.GetString("input")
	cfg.Output = viper.GetString("output")
	cfg.Format = viper.GetString("format")
	cfg.PDFDirectory = viper.GetString("dir")
	cfg.Strategy = viper.GetString("strategy")
	cfg.OrphanScope = viper.GetString("orphan-scope")
	cfg.Workers = viper.GetInt("workers")
	cfg.ExceptionsFile = viper.GetString("exceptions")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
}

// Validate checks if the configuration is valid. An empty Output is
// replaced by the default for the format.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeExtract:
		if err := c.validateExtract(); err != nil {
			return err
		}
	case ModeStdio:
		if err := c.validateDirectory(); err != nil {
			return err
		}
	default:
		return errors.New("mode must be either 'extract' or 'stdio'")
	}

	if _, err := annotation.ParseStrategy(c.Strategy); err != nil {
		return err
	}
	if _, err := annotation.ParseOrphanScope(c.OrphanScope); err != nil {
		return err
	}
	if c.Workers < 0 {
		return errors.New("workers cannot be negative")
	}
	if c.ExceptionsFile != "" {
		if _, err := os.Stat(c.ExceptionsFile); err != nil {
			return fmt.Errorf("cannot access exceptions file %s: %w", c.ExceptionsFile, err)
		}
	}

	// Validate max file size
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

func (c *Config) validateExtract() error {
	if c.Input == "" {
		return errors.New("input file is required in extract mode")
	}

	format, err := export.ParseFormat(c.Format)
	if err != nil {
		return err
	}
	c.Format = string(format)

	if c.Output == "" {
		c.Output = defaultOutput(format)
	}
	return nil
}

func defaultOutput(format export.Format) string {
	switch format {
	case export.FormatCSV:
		return "result"
	case export.FormatJSON:
		return "result.json"
	default:
		return export.DefaultWorkbookName
	}
}

func (c *Config) validateDirectory() error {
	if c.PDFDirectory == "" {
		return errors.New("PDF directory cannot be empty")
	}

	// Check if PDF directory exists, create if it doesn't
	if _, err := os.Stat(c.PDFDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.PDFDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create PDF directory %s: %w", c.PDFDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access PDF directory %s: %w", c.PDFDirectory, err)
	}
	return nil
}

// EngineOptions converts the engine settings, loading the exceptions file
// over the built-in table when one is configured
func (c *Config) EngineOptions() (annotation.Options, error) {
	strategy, err := annotation.ParseStrategy(c.Strategy)
	if err != nil {
		return annotation.Options{}, err
	}
	scope, err := annotation.ParseOrphanScope(c.OrphanScope)
	if err != nil {
		return annotation.Options{}, err
	}

	exceptions := annotation.DefaultExceptions()
	if c.ExceptionsFile != "" {
		if exceptions, err = annotation.LoadExceptions(c.ExceptionsFile); err != nil {
			return annotation.Options{}, err
		}
	}

	return annotation.Options{
		Strategy:    strategy,
		OrphanScope: scope,
		Workers:     c.Workers,
		Exceptions:  exceptions,
	}, nil
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Input: %s, Output: %s, Format: %s, PDFDirectory: %s, "+
		"Strategy: %s, OrphanScope: %s, Workers: %d, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.Input, c.Output, c.Format, c.PDFDirectory,
		c.Strategy, c.OrphanScope, c.Workers, c.LogLevel, c.MaxFileSize)
}

// IsExtractMode returns true for a one-shot extraction run
func (c *Config) IsExtractMode() bool {
	return c.Mode == ModeExtract
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
