package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/mcmespana/mcmAutoPDF/internal/config"
	"github.com/mcmespana/mcmAutoPDF/internal/logging"
	"github.com/mcmespana/mcmAutoPDF/internal/mcp"
	"github.com/mcmespana/mcmAutoPDF/internal/pdf"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// newServer wires the form service into an MCP server
func newServer(cfg *config.Config, logger *zap.Logger) (*mcp.Server, error) {
	pdfService, err := pdf.NewService(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF service: %w", err)
	}

	server, err := mcp.NewServer(cfg, pdfService, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP server: %w", err)
	}
	return server, nil
}

// runServerMode runs until SIGINT, SIGTERM or SIGHUP
func runServerMode(ctx context.Context, server *mcp.Server, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := server.Run(ctx); err != nil {
		return err
	}

	logger.Info("server stopped")
	return nil
}

// runStdioMode runs until the client closes stdin
func runStdioMode(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx)
}

func main() {
	cfg, err := config.LoadFromFlags()
	switch {
	case errors.Is(err, config.ErrVersionRequested):
		printVersion(os.Stdout)
		return
	case errors.Is(err, pflag.ErrHelp):
		return
	case err != nil:
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if version != "dev" {
		cfg.Version = version
	}

	logger, err := logging.New(cfg.LogLevel, cfg.IsStdioMode())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Debug("starting with configuration", zap.String("config", cfg.String()))

	server, err := newServer(cfg, logger)
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.IsServerMode() {
		err = runServerMode(ctx, server, logger)
	} else {
		err = runStdioMode(ctx, server)
	}
	if err != nil {
		logger.Error("server error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "MCP PDF Forms\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
