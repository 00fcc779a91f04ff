package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/a3tai/mcp-ddt-reader/internal/config"
	"github.com/a3tai/mcp-ddt-reader/internal/mcp"
)

const (
	testVersion = "1.2.3"
	devVersion  = "dev"
)

func TestPrintVersion(t *testing.T) {
	oldVersion, oldBuildTime, oldGitCommit := version, buildTime, gitCommit
	defer func() {
		version, buildTime, gitCommit = oldVersion, oldBuildTime, oldGitCommit
	}()

	version = testVersion
	buildTime = "2023-12-01_10:30:00"
	gitCommit = "abc123"

	var buf bytes.Buffer
	printVersion(&buf)
	output := buf.String()

	expectedStrings := []string{
		"MCP DDT Reader",
		"Version: " + testVersion,
		"Build Time: 2023-12-01_10:30:00",
		"Git Commit: abc123",
		"Built with:",
	}
	for _, expected := range expectedStrings {
		if !strings.Contains(output, expected) {
			t.Errorf("printVersion() output missing expected string: %s\nActual output:\n%s", expected, output)
		}
	}
}

func TestPrintVersionWithDefaults(t *testing.T) {
	if version != devVersion {
		t.Skipf("version overridden at build time: %s", version)
	}
	var buf bytes.Buffer
	printVersion(&buf)
	if !strings.Contains(buf.String(), "Version: dev") {
		t.Errorf("printVersion() should report the dev version, got:\n%s", buf.String())
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		mode      string
		logLevel  string
		wantDebug bool
		wantInfo  bool
		wantSrc   bool
	}{
		{"stdio info", config.ModeStdio, "info", false, true, false},
		{"stdio debug", config.ModeStdio, "debug", true, true, false},
		{"server debug", config.ModeServer, "debug", true, true, true},
		{"server error", config.ModeServer, "error", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			cfg := &config.Config{Mode: tt.mode, LogLevel: tt.logLevel, ServerName: "mcp-ddt-reader"}
			logger := newLogger(cfg, &buf)

			logger.Debug("debug.event")
			logger.Info("info.event")
			out := buf.String()

			if got := strings.Contains(out, "debug.event"); got != tt.wantDebug {
				t.Errorf("debug logged = %v, want %v\n%s", got, tt.wantDebug, out)
			}
			if got := strings.Contains(out, "info.event"); got != tt.wantInfo {
				t.Errorf("info logged = %v, want %v\n%s", got, tt.wantInfo, out)
			}
			if got := strings.Contains(out, "source="); got != tt.wantSrc {
				t.Errorf("source logged = %v, want %v\n%s", got, tt.wantSrc, out)
			}
			if tt.wantInfo && !strings.Contains(out, "service=mcp-ddt-reader") {
				t.Errorf("logger should carry the service name\n%s", out)
			}
		})
	}
}

func TestRunStopsWithContext(t *testing.T) {
	cfg := &config.Config{
		Mode:              config.ModeServer,
		Host:              "127.0.0.1",
		Port:              0,
		DocumentDirectory: t.TempDir(),
		Threshold:         config.DefaultThreshold,
		ServerName:        "test-server",
		Version:           testVersion,
		LogLevel:          "info",
		MaxFileSize:       1024,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server, err := mcp.NewServer(cfg, logger)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := run(ctx, server, logger); err != nil {
		t.Errorf("run() error = %v", err)
	}
}
