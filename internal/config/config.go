package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Label strategies
	StrategyKeyword = "keyword"
	StrategySpatial = "spatial"

	// Template header modes
	HeaderLabels    = "labels"
	HeaderTechnical = "technical"

	// Default values
	DefaultPort         = 8080
	DefaultHost         = "127.0.0.1"
	DefaultLogLevel     = "info"
	DefaultMaxFileSize  = 100 * 1024 * 1024 // 100MB
	DefaultPreviewLimit = 5

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "MCP_PDF_FORMS"
)

// ErrVersionRequested is returned when the arguments ask for the version
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for the PDF forms server and CLI
type Config struct {
	// Server configuration
	Mode string `mapstructure:"mode"` // "server" or "stdio"
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// PDF configuration
	PDFDirectory string `mapstructure:"dir"`
	MaxFileSize  int64  `mapstructure:"maxfilesize"` // Maximum PDF file size in bytes

	// Form pipeline configuration
	LabelStrategy string `mapstructure:"label-strategy"`
	KeywordsFile  string `mapstructure:"keywords-file"`
	HeaderMode    string `mapstructure:"header-mode"`
	IncludeInfo   bool   `mapstructure:"include-info"`
	Flatten       bool   `mapstructure:"flatten"`
	PreviewLimit  int    `mapstructure:"preview-limit"`

	// Application configuration
	Version    string `mapstructure:"-"`
	ServerName string `mapstructure:"-"`
	LogLevel   string `mapstructure:"loglevel"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:          ModeStdio, // MCP clients launch servers over stdio
		Host:          DefaultHost,
		Port:          DefaultPort,
		PDFDirectory:  currentDir,
		MaxFileSize:   DefaultMaxFileSize,
		LabelStrategy: StrategyKeyword,
		HeaderMode:    HeaderLabels,
		IncludeInfo:   true,
		PreviewLimit:  DefaultPreviewLimit,
		Version:       "1.0.0",
		ServerName:    "mcp-pdf-forms",
		LogLevel:      DefaultLogLevel,
	}
}

// LoadFromFlags parses the process arguments and returns a configuration
func LoadFromFlags() (*Config, error) {
	return LoadFromArgs(os.Args[0], os.Args[1:])
}

// LoadFromArgs resolves configuration from defaults, an optional config
// file, MCP_PDF_FORMS_* environment variables and args, in increasing priority
func LoadFromArgs(program string, args []string) (*Config, error) {
	if versionRequested(args) {
		return nil, ErrVersionRequested
	}

	fs := pflag.NewFlagSet(program, pflag.ContinueOnError)
	setupUsageMessage(fs, program)

	return Parse(fs, args)
}

// Parse registers the shared flags on fs, parses args and resolves the
// configuration. Callers may register their own flags on fs beforehand.
func Parse(fs *pflag.FlagSet, args []string) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()

	setupViperEnvironment(v, cfg)
	DefineFlags(fs, cfg)
	fs.String("config", "", "Optional YAML/JSON/TOML configuration file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := BindFlags(v, fs); err != nil {
		return nil, err
	}

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if err := populateConfigFromViper(v, cfg); err != nil {
		return nil, err
	}

	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("host", cfg.Host)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("dir", cfg.PDFDirectory)
	v.SetDefault("loglevel", cfg.LogLevel)
	v.SetDefault("maxfilesize", cfg.MaxFileSize)
	v.SetDefault("label-strategy", cfg.LabelStrategy)
	v.SetDefault("keywords-file", cfg.KeywordsFile)
	v.SetDefault("header-mode", cfg.HeaderMode)
	v.SetDefault("include-info", cfg.IncludeInfo)
	v.SetDefault("flatten", cfg.Flatten)
	v.SetDefault("preview-limit", cfg.PreviewLimit)
}

// DefineFlags registers the shared flags on fs with cfg's values as defaults
func DefineFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	fs.String("host", cfg.Host, "Server host address (server mode only)")
	fs.Int("port", cfg.Port, "Server port (server mode only)")
	fs.String("dir", cfg.PDFDirectory, "Directory containing PDF forms and templates")
	fs.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	fs.String("label-strategy", cfg.LabelStrategy, "Label suggestion: 'keyword' or 'spatial'")
	fs.String("keywords-file", cfg.KeywordsFile, "YAML/JSON keyword table replacing the built-in one")
	fs.String("header-mode", cfg.HeaderMode, "Template headers: 'labels' or 'technical'")
	fs.Bool("include-info", cfg.IncludeInfo, "Write the field information report next to the template")
	fs.Bool("flatten", cfg.Flatten, "Flatten filled forms into static content")
	fs.Int("preview-limit", cfg.PreviewLimit, "Maximum column names listed in error messages")
}

// BindFlags binds every flag registered by DefineFlags to v
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, name := range []string{
		"mode", "host", "port", "dir", "loglevel", "maxfilesize",
		"label-strategy", "keywords-file", "header-mode", "include-info", "flatten", "preview-limit",
	} {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(name, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage(fs *pflag.FlagSet, program string) {
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", program)
		fmt.Fprintf(os.Stderr, "\nMCP PDF Forms - A Model Context Protocol server for filling PDF forms from spreadsheets\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                  # stdio mode, current directory (default)\n", program)
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/forms             # stdio mode with custom directory\n", program)
		fmt.Fprintf(os.Stderr, "  %s --label-strategy=spatial         # labels from text next to each field\n", program)
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  %s_MODE, %s_DIR, %s_LOGLEVEL, %s_LABEL_STRATEGY, %s_FLATTEN, ...\n",
			envPrefix, envPrefix, envPrefix, envPrefix, envPrefix)
	}
}

func versionRequested(args []string) bool {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return true
		}
	}
	return false
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) error {
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to decode configuration: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.PDFDirectory == "" {
		return errors.New("PDF directory cannot be empty")
	}

	// Create the directory on first use so outputs have somewhere to go
	if _, err := os.Stat(c.PDFDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.PDFDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create PDF directory %s: %w", c.PDFDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access PDF directory %s: %w", c.PDFDirectory, err)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if c.LabelStrategy != StrategyKeyword && c.LabelStrategy != StrategySpatial {
		return fmt.Errorf("invalid label strategy: %s (must be one of: keyword, spatial)", c.LabelStrategy)
	}

	if c.HeaderMode != HeaderLabels && c.HeaderMode != HeaderTechnical {
		return fmt.Errorf("invalid header mode: %s (must be one of: labels, technical)", c.HeaderMode)
	}

	if c.KeywordsFile != "" {
		if _, err := os.Stat(c.KeywordsFile); err != nil {
			return fmt.Errorf("cannot access keywords file %s: %w", c.KeywordsFile, err)
		}
	}

	if c.PreviewLimit <= 0 {
		return errors.New("preview limit must be positive")
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, PDFDirectory: %s, LogLevel: %s, MaxFileSize: %d, "+
		"LabelStrategy: %s, HeaderMode: %s, IncludeInfo: %t, Flatten: %t, PreviewLimit: %d}",
		c.Mode, c.Host, c.Port, c.PDFDirectory, c.LogLevel, c.MaxFileSize,
		c.LabelStrategy, c.HeaderMode, c.IncludeInfo, c.Flatten, c.PreviewLimit)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
