package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-form-guide/internal/assistant"
	"github.com/a3tai/mcp-form-guide/internal/config"
	"github.com/a3tai/mcp-form-guide/internal/descriptions"
)

// shutdownTimeout bounds the graceful HTTP shutdown in server mode.
const shutdownTimeout = 5 * time.Second

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	service   *assistant.Service
	mcpServer *server.MCPServer
	logger    *zap.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, service *assistant.Service, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s := &Server{
		config:    cfg,
		service:   service,
		mcpServer: mcpServer,
		logger:    logger,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	documentArgs := []mcp.ToolOption{
		mcp.WithString("html",
			mcp.Description("Raw HTML of the page"),
		),
		mcp.WithString("path",
			mcp.Description("Path of a saved .html file, relative to the data directory"),
		),
	}
	languageArg := mcp.WithString("language",
		mcp.Description("english or nepali; defaults to the stored preference"),
		mcp.Enum("english", "nepali"),
	)
	formTypeArg := func(required bool) mcp.ToolOption {
		opts := []mcp.PropertyOption{
			mcp.Description("Form type: citizenship, passport, driving-license, pan, national-id, lok-sewa"),
		}
		if required {
			opts = append(opts, mcp.Required())
		}
		return mcp.WithString("form_type", opts...)
	}

	s.addTool("form_detect", s.handleFormDetect, documentArgs...)
	s.addTool("form_extract_fields", s.handleFormExtractFields, documentArgs...)
	s.addTool("form_field_guidance", s.handleFormFieldGuidance,
		mcp.WithString("field",
			mcp.Required(),
			mcp.Description("Field identifier, e.g. date_of_birth"),
		),
		formTypeArg(false),
		languageArg,
	)
	s.addTool("form_guide", s.handleFormGuide, append(documentArgs, languageArg)...)
	s.addTool("form_info", s.handleFormInfo, formTypeArg(true))
	s.addTool("form_list", s.handleFormList)
	s.addTool("form_chat", s.handleFormChat,
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("The user's question"),
		),
		formTypeArg(false),
		languageArg,
	)
	s.addTool("language_get", s.handleLanguageGet)
	s.addTool("language_set", s.handleLanguageSet,
		mcp.WithString("language",
			mcp.Required(),
			mcp.Description("english or nepali"),
		),
	)
	s.addTool("document_list", s.handleDocumentList)
	s.addTool("server_status", s.handleServerStatus)
}

func (s *Server) addTool(name string, handler server.ToolHandlerFunc, opts ...mcp.ToolOption) {
	opts = append([]mcp.ToolOption{mcp.WithDescription(descriptions.GetToolDescription(name))}, opts...)
	s.mcpServer.AddTool(mcp.NewTool(name, opts...), s.logged(name, handler))
}

// logged records the duration and outcome of every tool call.
func (s *Server) logged(name string, handler server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		result, err := handler(ctx, request)
		failed := err != nil || (result != nil && result.IsError)
		s.logger.Debug("tool call",
			zap.String("tool", name),
			zap.Bool("failed", failed),
			zap.Duration("elapsed", time.Since(start)))
		return result, err
	}
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	switch s.config.Mode {
	case config.ModeServer:
		return s.runServerMode(ctx)
	case config.ModeStdio:
		return s.runStdioMode(ctx)
	default:
		return fmt.Errorf("unsupported mode: %s", s.config.Mode)
	}
}

// runStdioMode serves MCP over stdin/stdout until ctx is done or stdin closes.
func (s *Server) runStdioMode(ctx context.Context) error {
	s.logger.Info("starting MCP server in stdio mode",
		zap.String("data_directory", s.config.DataDirectory))

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(zap.NewStdLog(s.logger))

	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves MCP over HTTP server-sent events.
func (s *Server) runServerMode(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Address(), err)
	}
	return s.serveHTTP(ctx, ln)
}

func (s *Server) serveHTTP(ctx context.Context, ln net.Listener) error {
	sse := server.NewSSEServer(s.mcpServer)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/", sse)

	httpServer := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(s.logger),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()
	s.logger.Info("starting MCP server in server mode", zap.String("address", ln.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	<-errCh
	s.logger.Info("MCP server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.service.Status()); err != nil {
		s.logger.Warn("failed to write health response", zap.Error(err))
	}
}
