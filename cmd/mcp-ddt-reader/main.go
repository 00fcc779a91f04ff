package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/a3tai/mcp-ddt-reader/internal/config"
	"github.com/a3tai/mcp-ddt-reader/internal/mcp"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// newLogger builds the process logger. Logs always go to w (stderr in main)
// so stdout stays reserved for the MCP protocol in stdio mode. Server mode
// adds source locations at debug level.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     cfg.SlogLevel(),
		AddSource: cfg.IsServerMode() && cfg.IsDebug(),
	}
	return slog.New(slog.NewTextHandler(w, opts)).With("service", cfg.ServerName)
}

// run serves until the context is cancelled by a signal or the transport closes
func run(ctx context.Context, server *mcp.Server, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := server.Run(ctx); err != nil {
		return err
	}
	logger.Info("server.stopped")
	return nil
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion(os.Stdout)
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	logger := newLogger(cfg, os.Stderr)
	slog.SetDefault(logger)
	logger.Debug("config.loaded", "config", cfg.String())

	server, err := mcp.NewServer(cfg, logger)
	if err != nil {
		logger.Error("server.init_failed", "error", err)
		os.Exit(1)
	}

	if err := run(context.Background(), server, logger); err != nil {
		logger.Error("server.failed", "error", err)
		os.Exit(1)
	}
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "MCP DDT Reader\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
