package config

import (
	"os"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envVars = []string{
	"FORM_GUIDE_MODE",
	"FORM_GUIDE_HOST",
	"FORM_GUIDE_PORT",
	"FORM_GUIDE_DIR",
	"FORM_GUIDE_LOGLEVEL",
	"FORM_GUIDE_MAXDOCSIZE",
	"FORM_GUIDE_GEMINI_API_KEY",
	"FORM_GUIDE_GEMINI_MODEL",
	"FORM_GUIDE_LANGUAGE",
	"FORM_GUIDE_CONCURRENCY",
	"GEMINI_API_KEY",
}

// resetFlags gives each load a fresh flag set and viper instance.
func resetFlags() {
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	viper.Reset()
}

// withArgs runs a load with os.Args set and the environment cleared.
func withArgs(t *testing.T, args ...string) {
	t.Helper()

	originalArgs := os.Args
	t.Cleanup(func() {
		os.Args = originalArgs
		resetFlags()
	})

	for _, name := range envVars {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}

	os.Args = append([]string{"mcp-form-guide"}, args...)
	resetFlags()
}

func TestLoadFromFlags_Defaults(t *testing.T) {
	withArgs(t, "--dir="+t.TempDir())

	cfg, err := LoadFromFlags()
	require.NoError(t, err)

	assert.Equal(t, ModeStdio, cfg.Mode)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, int64(DefaultMaxDocumentSize), cfg.MaxDocumentSize)
	assert.Equal(t, DefaultGeminiModel, cfg.GeminiModel)
	assert.Equal(t, "english", cfg.Language)
	assert.Equal(t, DefaultConcurrency, cfg.GuidanceConcurrency)
	assert.False(t, cfg.HasGemini())
}

func TestLoadFromFlags_ValidFlags(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, cfg *Config)
	}{
		{
			name: "server mode with custom host and port",
			args: []string{"--mode=server", "--host=0.0.0.0", "--port=9090"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, ModeServer, cfg.Mode)
				assert.Equal(t, "0.0.0.0:9090", cfg.Address())
			},
		},
		{
			name: "debug logging",
			args: []string{"--loglevel=debug"},
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.IsDebug())
			},
		},
		{
			name: "nepali guidance with gemini",
			args: []string{"--language=Nepali", "--gemini-api-key=abc", "--gemini-model=gemini-1.5-pro", "--concurrency=8"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "nepali", cfg.Language)
				assert.Equal(t, "abc", cfg.GeminiAPIKey)
				assert.Equal(t, "gemini-1.5-pro", cfg.GeminiModel)
				assert.Equal(t, 8, cfg.GuidanceConcurrency)
			},
		},
		{
			name: "document size",
			args: []string{"--maxdocsize=2048"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, int64(2048), cfg.MaxDocumentSize)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withArgs(t, append(tt.args, "--dir="+dir)...)

			cfg, err := LoadFromFlags()
			require.NoError(t, err)
			assert.Equal(t, dir, cfg.DataDirectory)
			tt.check(t, cfg)
		})
	}
}

func TestLoadFromFlags_Environment(t *testing.T) {
	dir := t.TempDir()
	withArgs(t)

	t.Setenv("FORM_GUIDE_DIR", dir)
	t.Setenv("FORM_GUIDE_LANGUAGE", "nepali")
	t.Setenv("FORM_GUIDE_GEMINI_MODEL", "gemini-1.5-flash")
	t.Setenv("GEMINI_API_KEY", "from-legacy-env")

	cfg, err := LoadFromFlags()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDirectory)
	assert.Equal(t, "nepali", cfg.Language)
	assert.Equal(t, "gemini-1.5-flash", cfg.GeminiModel)
	assert.Equal(t, "from-legacy-env", cfg.GeminiAPIKey)
}

func TestLoadFromFlags_PrefixedKeyWins(t *testing.T) {
	withArgs(t, "--dir="+t.TempDir())

	t.Setenv("FORM_GUIDE_GEMINI_API_KEY", "prefixed")
	t.Setenv("GEMINI_API_KEY", "legacy")

	cfg, err := LoadFromFlags()
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.GeminiAPIKey)
}

func TestLoadFromFlags_InvalidValues(t *testing.T) {
	dir := t.TempDir()

	for _, args := range [][]string{
		{"--mode=invalid"},
		{"--mode=server", "--port=0"},
		{"--loglevel=trace"},
		{"--language=hindi"},
		{"--concurrency=0"},
		{"--maxdocsize=-1"},
	} {
		t.Run(args[0], func(t *testing.T) {
			withArgs(t, append(args, "--dir="+dir)...)

			_, err := LoadFromFlags()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
		})
	}
}

func TestLoadFromFlags_Version(t *testing.T) {
	for _, flag := range []string{"--version", "-version", "-v"} {
		t.Run(flag, func(t *testing.T) {
			withArgs(t, flag)

			_, err := LoadFromFlags()
			require.Error(t, err)
			assert.Equal(t, "version requested", err.Error())
		})
	}
}
