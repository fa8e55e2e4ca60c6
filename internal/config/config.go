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

	// Default values
	DefaultPort            = 8080
	DefaultHost            = "127.0.0.1"
	DefaultLogLevel        = "info"
	DefaultMaxDocumentSize = 5 * 1024 * 1024 // 5MB of markup
	DefaultGeminiModel     = "gemini-2.0-flash"
	DefaultLanguage        = "english"
	DefaultConcurrency     = 4
	MaxConcurrency         = 32

	// Directory permissions
	DefaultDirPerm = 0o750

	// EnvPrefix is prepended to every environment variable name.
	EnvPrefix = "FORM_GUIDE"
)

// Config holds all configuration for the form guide MCP server
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// DataDirectory holds HTML documents, form data overrides and the
	// language preference file.
	DataDirectory string

	// Generative service
	GeminiAPIKey string
	GeminiModel  string

	// Guidance
	Language            string
	GuidanceConcurrency int

	// Application configuration
	Version         string
	ServerName      string
	LogLevel        string
	MaxDocumentSize int64 // Maximum HTML document size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:                ModeStdio,
		Host:                DefaultHost,
		Port:                DefaultPort,
		DataDirectory:       currentDir,
		GeminiModel:         DefaultGeminiModel,
		Language:            DefaultLanguage,
		GuidanceConcurrency: DefaultConcurrency,
		Version:             "1.0.0",
		ServerName:          "mcp-form-guide",
		LogLevel:            DefaultLogLevel,
		MaxDocumentSize:     DefaultMaxDocumentSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	if cfg.DataDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.DataDirectory); err == nil {
			cfg.DataDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// The bare GEMINI_API_KEY is honoured so existing setups keep working.
	_ = viper.BindEnv("gemini-api-key", EnvPrefix+"_GEMINI_API_KEY", "GEMINI_API_KEY")

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.DataDirectory)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxdocsize", cfg.MaxDocumentSize)
	viper.SetDefault("gemini-model", cfg.GeminiModel)
	viper.SetDefault("language", cfg.Language)
	viper.SetDefault("concurrency", cfg.GuidanceConcurrency)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("dir", cfg.DataDirectory, "Data directory for HTML documents, form data and preferences")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxdocsize", cfg.MaxDocumentSize, "Maximum HTML document size in bytes")
	pflag.String("gemini-api-key", "", "Gemini API key; guidance falls back to templates when empty")
	pflag.String("gemini-model", cfg.GeminiModel, "Gemini model name")
	pflag.String("language", cfg.Language, "Default guidance language (english, nepali)")
	pflag.Int("concurrency", cfg.GuidanceConcurrency, "Fields resolved in parallel when guiding a whole form")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{
		"mode", "host", "port", "dir", "loglevel", "maxdocsize",
		"gemini-api-key", "gemini-model", "language", "concurrency",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nMCP Form Guide - classifies Nepal government web forms and explains their fields\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                          "+
			"# stdio mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/pages --language=nepali   "+
			"# Nepali guidance\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --host=0.0.0.0 --port=8081 # server on all interfaces\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  FORM_GUIDE_MODE            Server mode\n")
		fmt.Fprintf(os.Stderr, "  FORM_GUIDE_HOST            Server host\n")
		fmt.Fprintf(os.Stderr, "  FORM_GUIDE_PORT            Server port\n")
		fmt.Fprintf(os.Stderr, "  FORM_GUIDE_DIR             Data directory\n")
		fmt.Fprintf(os.Stderr, "  FORM_GUIDE_LOGLEVEL        Log level\n")
		fmt.Fprintf(os.Stderr, "  FORM_GUIDE_MAXDOCSIZE      Maximum document size\n")
		fmt.Fprintf(os.Stderr, "  FORM_GUIDE_GEMINI_API_KEY  Gemini API key (GEMINI_API_KEY also works)\n")
		fmt.Fprintf(os.Stderr, "  FORM_GUIDE_GEMINI_MODEL    Gemini model\n")
		fmt.Fprintf(os.Stderr, "  FORM_GUIDE_LANGUAGE        Default guidance language\n")
		fmt.Fprintf(os.Stderr, "  FORM_GUIDE_CONCURRENCY     Parallel field resolutions\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.DataDirectory = viper.GetString("dir")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxDocumentSize = viper.GetInt64("maxdocsize")
	cfg.GeminiAPIKey = strings.TrimSpace(viper.GetString("gemini-api-key"))
	cfg.GeminiModel = viper.GetString("gemini-model")
	cfg.Language = strings.ToLower(viper.GetString("language"))
	cfg.GuidanceConcurrency = viper.GetInt("concurrency")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Port only matters in server mode
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.DataDirectory == "" {
		return errors.New("data directory cannot be empty")
	}

	if _, err := os.Stat(c.DataDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.DataDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create data directory %s: %w", c.DataDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access data directory %s: %w", c.DataDirectory, err)
	}

	if c.MaxDocumentSize <= 0 {
		return errors.New("maximum document size must be positive")
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

	if c.Language != "english" && c.Language != "nepali" {
		return fmt.Errorf("invalid language: %s (must be english or nepali)", c.Language)
	}

	if c.GuidanceConcurrency < 1 || c.GuidanceConcurrency > MaxConcurrency {
		return fmt.Errorf("concurrency must be between 1 and %d", MaxConcurrency)
	}

	if c.GeminiAPIKey != "" && c.GeminiModel == "" {
		return errors.New("gemini model cannot be empty when an API key is set")
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

// HasGemini reports whether an API key was supplied.
func (c *Config) HasGemini() bool {
	return c.GeminiAPIKey != ""
}

// String returns a string representation of the configuration. The API key
// is never printed.
func (c *Config) String() string {
	gemini := "disabled"
	if c.HasGemini() {
		gemini = c.GeminiModel
	}
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, DataDirectory: %s, LogLevel: %s, "+
		"MaxDocumentSize: %d, Language: %s, Concurrency: %d, Gemini: %s}",
		c.Mode, c.Host, c.Port, c.DataDirectory, c.LogLevel,
		c.MaxDocumentSize, c.Language, c.GuidanceConcurrency, gemini)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
