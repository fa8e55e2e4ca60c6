package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"go.uber.org/zap"

	"github.com/a3tai/mcp-form-guide/internal/assistant"
	"github.com/a3tai/mcp-form-guide/internal/config"
	"github.com/a3tai/mcp-form-guide/internal/formstore"
	"github.com/a3tai/mcp-form-guide/internal/guidance"
	"github.com/a3tai/mcp-form-guide/internal/llm"
	"github.com/a3tai/mcp-form-guide/internal/logging"
	"github.com/a3tai/mcp-form-guide/internal/mcp"
	"github.com/a3tai/mcp-form-guide/internal/preference"
	"github.com/a3tai/mcp-form-guide/internal/security"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// connectGenerator returns a generator that answered the startup probe, or
// nil. A failed probe is logged and the server runs on templates only.
func connectGenerator(ctx context.Context, cfg *config.Config, logger *zap.Logger) llm.Generator {
	if !cfg.HasGemini() {
		logger.Info("no gemini API key configured, using fallback templates")
		return nil
	}

	gen, err := llm.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		logger.Warn("gemini client unavailable, using fallback templates", zap.Error(err))
		return nil
	}

	if err := llm.Probe(ctx, gen); err != nil {
		logger.Warn("gemini probe failed, using fallback templates",
			zap.String("model", cfg.GeminiModel),
			zap.Error(err))
		return nil
	}

	logger.Info("gemini connected", zap.String("model", cfg.GeminiModel))
	return gen
}

// buildService wires the stores and the optional generator into a Service.
func buildService(cfg *config.Config, generator llm.Generator, logger *zap.Logger) (*assistant.Service, error) {
	forms, source, err := formstore.Load(cfg.DataDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to load form reference data: %w", err)
	}
	if source != "" {
		logger.Info("loaded form reference data", zap.String("path", source))
	}

	documents, err := security.NewDocumentRoot(cfg.DataDirectory, cfg.MaxDocumentSize)
	if err != nil {
		return nil, fmt.Errorf("failed to open data directory: %w", err)
	}

	fallback, _ := guidance.ParseLanguage(cfg.Language)
	prefs := preference.NewFileStore(cfg.DataDirectory, fallback, logger.Named("preference"))

	opts := []assistant.Option{
		assistant.WithFormStore(forms),
		assistant.WithPreferences(prefs),
		assistant.WithDocuments(documents),
		assistant.WithConcurrency(cfg.GuidanceConcurrency),
		assistant.WithVersion(cfg.Version),
		assistant.WithLogger(logger),
	}
	if generator != nil {
		opts = append(opts, assistant.WithGenerator(generator, cfg.GeminiModel))
	}
	return assistant.NewService(opts...), nil
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	service, err := buildService(cfg, connectGenerator(ctx, cfg, logger), logger)
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(cfg, service, logger.Named("mcp"))
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	if cfg.IsDebug() {
		logger.Debug("starting with configuration", zap.String("config", cfg.String()))
	}

	if err := server.Run(ctx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	logger, err := logging.New(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("MCP Form Guide\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
