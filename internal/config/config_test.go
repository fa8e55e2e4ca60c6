package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a config that passes Validate using dir.
func validConfig(dir string) *Config {
	cfg := DefaultConfig()
	cfg.DataDirectory = dir
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ModeStdio, cfg.Mode)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "1.0.0", cfg.Version)
	assert.Equal(t, "mcp-form-guide", cfg.ServerName)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, int64(5*1024*1024), cfg.MaxDocumentSize)
	assert.Equal(t, "gemini-2.0-flash", cfg.GeminiModel)
	assert.Equal(t, "english", cfg.Language)
	assert.Equal(t, 4, cfg.GuidanceConcurrency)
	assert.Empty(t, cfg.GeminiAPIKey)
	assert.False(t, cfg.HasGemini())

	currentDir, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, currentDir, cfg.DataDirectory)
}

func TestConfigValidate(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "server mode", mutate: func(c *Config) { c.Mode = ModeServer }},
		{name: "nepali", mutate: func(c *Config) { c.Language = "nepali" }},
		{name: "gemini configured", mutate: func(c *Config) { c.GeminiAPIKey = "key" }},
		{name: "invalid mode", mutate: func(c *Config) { c.Mode = "invalid" }, wantErr: true},
		{name: "server port zero", mutate: func(c *Config) { c.Mode = ModeServer; c.Port = 0 }, wantErr: true},
		{name: "server port too high", mutate: func(c *Config) { c.Mode = ModeServer; c.Port = 70000 }, wantErr: true},
		{name: "stdio ignores port", mutate: func(c *Config) { c.Port = 0 }},
		{name: "empty directory", mutate: func(c *Config) { c.DataDirectory = "" }, wantErr: true},
		{name: "zero document size", mutate: func(c *Config) { c.MaxDocumentSize = 0 }, wantErr: true},
		{name: "unknown language", mutate: func(c *Config) { c.Language = "hindi" }, wantErr: true},
		{name: "zero concurrency", mutate: func(c *Config) { c.GuidanceConcurrency = 0 }, wantErr: true},
		{name: "too much concurrency", mutate: func(c *Config) { c.GuidanceConcurrency = MaxConcurrency + 1 }, wantErr: true},
		{
			name:    "key without model",
			mutate:  func(c *Config) { c.GeminiAPIKey = "key"; c.GeminiModel = "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(dir)
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigValidateCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "non-existent", "data")

	cfg := validConfig(dir)
	require.NoError(t, cfg.Validate())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestConfigValidateLogLevels(t *testing.T) {
	dir := t.TempDir()

	for _, level := range []string{"debug", "info", "warn", "error"} {
		t.Run("valid_"+level, func(t *testing.T) {
			cfg := validConfig(dir)
			cfg.LogLevel = level
			assert.NoError(t, cfg.Validate())
		})
	}

	for _, level := range []string{"DEBUG", "INFO", "trace", "fatal", ""} {
		t.Run("invalid_"+level, func(t *testing.T) {
			cfg := validConfig(dir)
			cfg.LogLevel = level
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfigAddress(t *testing.T) {
	cfg := &Config{Host: "192.168.1.1", Port: 9090}
	assert.Equal(t, "192.168.1.1:9090", cfg.Address())
}

func TestConfigIsDebug(t *testing.T) {
	tests := []struct {
		logLevel string
		want     bool
	}{
		{"debug", true},
		{"info", false},
		{"warn", false},
		{"error", false},
	}

	for _, tt := range tests {
		t.Run(tt.logLevel, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.logLevel}
			assert.Equal(t, tt.want, cfg.IsDebug())
		})
	}
}

func TestConfigString(t *testing.T) {
	cfg := &Config{
		Mode:                "server",
		Host:                "localhost",
		Port:                8080,
		DataDirectory:       "/srv/forms",
		LogLevel:            "debug",
		MaxDocumentSize:     1024,
		Language:            "nepali",
		GuidanceConcurrency: 2,
		GeminiAPIKey:        "secret-key",
		GeminiModel:         "gemini-2.0-flash",
	}

	result := cfg.String()

	for _, substr := range []string{
		"Mode: server",
		"Host: localhost",
		"Port: 8080",
		"DataDirectory: /srv/forms",
		"LogLevel: debug",
		"MaxDocumentSize: 1024",
		"Language: nepali",
		"Concurrency: 2",
		"Gemini: gemini-2.0-flash",
	} {
		assert.Contains(t, result, substr)
	}
	assert.NotContains(t, result, "secret-key")

	cfg.GeminiAPIKey = ""
	assert.Contains(t, cfg.String(), "Gemini: disabled")
}

func TestConfigModes(t *testing.T) {
	server := &Config{Mode: ModeServer}
	assert.True(t, server.IsServerMode())
	assert.False(t, server.IsStdioMode())

	stdio := &Config{Mode: ModeStdio}
	assert.True(t, stdio.IsStdioMode())
	assert.False(t, stdio.IsServerMode())
}
