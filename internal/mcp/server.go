package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/mcp-ddt-reader/internal/config"
	"github.com/a3tai/mcp-ddt-reader/internal/descriptions"
	"github.com/a3tai/mcp-ddt-reader/internal/document"
	"github.com/a3tai/mcp-ddt-reader/internal/export"
	"github.com/a3tai/mcp-ddt-reader/internal/layout"
	"github.com/a3tai/mcp-ddt-reader/internal/patterns"
	"github.com/a3tai/mcp-ddt-reader/internal/pdftext"
	"github.com/a3tai/mcp-ddt-reader/internal/pipeline"
)

const shutdownTimeout = 5 * time.Second

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	pipeline  atomic.Pointer[pipeline.Pipeline]
	loader    *pdftext.Loader
	guard     *pdftext.PathGuard
	exporter  *export.Exporter
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP server instance. A nil logger uses slog.Default().
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	guard, err := pdftext.NewPathGuard(cfg.DocumentDirectory)
	if err != nil {
		return nil, err
	}

	tables := patterns.Default()
	if cfg.TablesPath != "" {
		if tables, err = patterns.Load(cfg.TablesPath); err != nil {
			return nil, err
		}
	}

	// Create MCP server
	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // the tool list never changes at runtime
	)

	s := &Server{
		config:    cfg,
		loader:    pdftext.NewLoader(cfg.MaxFileSize, logger),
		guard:     guard,
		exporter:  export.New(logger),
		mcpServer: mcpServer,
		logger:    logger,
	}

	p, err := s.newPipeline(tables)
	if err != nil {
		return nil, err
	}
	s.pipeline.Store(p)

	s.registerTools()

	return s, nil
}

func (s *Server) newPipeline(tables *patterns.Tables) (*pipeline.Pipeline, error) {
	return pipeline.NewNamed(pipeline.Options{
		Tables:    tables,
		Threshold: s.config.Threshold,
		Logger:    s.logger,
	}, s.config.AddressStrategies, s.config.ClientStrategies)
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	extractTextTool := mcp.NewTool(
		"ddt_extract_text",
		mcp.WithDescription(descriptions.GetToolDescription("ddt_extract_text")),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Plain text of the document, one visual line per line"),
		),
		mcp.WithString("file_name",
			mcp.Description("Original file name, used for client code and date fallbacks"),
		),
		mcp.WithString("rows_json",
			mcp.Description(`Optional positional rows: [[{"text":"Destinatario","x":40},{"text":"Luogo di consegna","x":320}], ...]`),
		),
	)
	s.mcpServer.AddTool(extractTextTool, s.handleExtractText)

	extractFileTool := mcp.NewTool(
		"ddt_extract_file",
		mcp.WithDescription(descriptions.GetToolDescription("ddt_extract_file")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF, relative to the configured directory or absolute inside it"),
		),
	)
	s.mcpServer.AddTool(extractFileTool, s.handleExtractFile)

	extractDirectoryTool := mcp.NewTool(
		"ddt_extract_directory",
		mcp.WithDescription(descriptions.GetToolDescription("ddt_extract_directory")),
		mcp.WithString("directory",
			mcp.Description("Directory to process (uses the configured directory if empty)"),
		),
		mcp.WithString("xlsx_output",
			mcp.Description("Optional path of the XLSX report to write"),
		),
	)
	s.mcpServer.AddTool(extractDirectoryTool, s.handleExtractDirectory)

	reloadTablesTool := mcp.NewTool(
		"ddt_reload_tables",
		mcp.WithDescription(descriptions.GetToolDescription("ddt_reload_tables")),
		mcp.WithString("path",
			mcp.Description("Tables JSON file (uses --tables if empty)"),
		),
	)
	s.mcpServer.AddTool(reloadTablesTool, s.handleReloadTables)

	serverInfoTool := mcp.NewTool(
		"ddt_server_info",
		mcp.WithDescription(descriptions.GetToolDescription("ddt_server_info")),
	)
	s.mcpServer.AddTool(serverInfoTool, s.handleServerInfo)
}

// Handler functions
func (s *Server) handleExtractText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fileName := request.GetString("file_name", "")

	var rows []layout.Row
	if raw := request.GetString("rows_json", ""); strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &rows); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid rows_json: %v", err)), nil
		}
	}

	doc, err := s.pipeline.Load().Extract(text, fileName, rows)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(doc)
}

func (s *Server) handleExtractFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err = s.guard.Resolve(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text, rows, err := s.loader.LoadText(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.pipeline.Load().Extract(text, path, rows)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(doc)
}

// DirectoryResult is the ddt_extract_directory response.
type DirectoryResult struct {
	Directory  string               `json:"directory"`
	Files      int                  `json:"files"`
	Documents  []*document.Document `json:"documents"`
	Failures   []FileFailure        `json:"failures"`
	XLSXOutput string               `json:"xlsx_output,omitempty"`
}

// FileFailure describes a file that produced no document.
type FileFailure struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
	Detail string `json:"detail"`
}

func (s *Server) handleExtractDirectory(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	directory := s.config.DocumentDirectory // default
	if dir := request.GetString("directory", ""); dir != "" {
		resolved, err := s.guard.Resolve(dir)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		directory = resolved
	}

	output := request.GetString("xlsx_output", "")
	if output != "" {
		resolved, err := s.guard.Resolve(output)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !strings.EqualFold(filepath.Ext(resolved), ".xlsx") {
			return mcp.NewToolResultError("xlsx_output must end in .xlsx"), nil
		}
		output = resolved
	}

	paths, err := pdftext.FindPDFs(directory)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results, err := s.pipeline.Load().ExtractFiles(ctx, s.loader, paths, s.config.Workers)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out := DirectoryResult{
		Directory: directory,
		Files:     len(paths),
		Documents: []*document.Document{},
		Failures:  []FileFailure{},
	}
	for _, r := range results {
		if r.Err != nil {
			out.Failures = append(out.Failures, FileFailure{
				File:   r.FileName,
				Reason: export.FailureReason(r.Err),
				Detail: r.Err.Error(),
			})
			continue
		}
		out.Documents = append(out.Documents, r.Document)
	}

	if output != "" {
		if err := s.exporter.WriteFile(output, results); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		out.XLSXOutput = output
	}
	return jsonResult(out)
}

func (s *Server) handleReloadTables(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := request.GetString("path", "")
	if path == "" {
		path = s.config.TablesPath
	}
	if path == "" {
		return mcp.NewToolResultError("no tables file given and none configured"), nil
	}

	tables, err := patterns.Load(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.newPipeline(tables)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	previous := s.pipeline.Swap(p)

	s.logger.Info("tables.reloaded",
		"path", path,
		"version", tables.Version(),
		"previous_version", previous.Tables().Version(),
	)
	return jsonResult(map[string]string{
		"path":             path,
		"version":          tables.Version(),
		"previous_version": previous.Tables().Version(),
	})
}

// ServerInfo is the ddt_server_info response.
type ServerInfo struct {
	ServerName        string     `json:"server_name"`
	Version           string     `json:"version"`
	Mode              string     `json:"mode"`
	Directory         string     `json:"directory"`
	PDFFiles          []string   `json:"pdf_files"`
	TablesPath        string     `json:"tables_path,omitempty"`
	TablesVersion     string     `json:"tables_version"`
	Threshold         float64    `json:"threshold"`
	AddressStrategies []string   `json:"address_strategies"`
	ClientStrategies  []string   `json:"client_strategies"`
	MaxFileSize       int64      `json:"max_file_size"`
	Tools             []ToolInfo `json:"tools"`
}

// ToolInfo names a tool with the first line of its description.
type ToolInfo struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := s.pipeline.Load()
	address, client := p.Strategies()

	info := ServerInfo{
		ServerName:        s.config.ServerName,
		Version:           s.config.Version,
		Mode:              s.config.Mode,
		Directory:         s.config.DocumentDirectory,
		PDFFiles:          []string{},
		TablesPath:        s.config.TablesPath,
		TablesVersion:     p.Tables().Version(),
		Threshold:         p.Threshold(),
		AddressStrategies: address,
		ClientStrategies:  client,
		MaxFileSize:       s.loader.MaxFileSize(),
	}
	// a missing directory just lists nothing
	if paths, err := pdftext.FindPDFs(s.config.DocumentDirectory); err == nil {
		for _, path := range paths {
			info.PDFFiles = append(info.PDFFiles, filepath.Base(path))
		}
	}
	for _, name := range descriptions.GetAllToolNames() {
		summary, _, _ := strings.Cut(descriptions.GetToolDescription(name), "\n")
		info.Tools = append(info.Tools, ToolInfo{Name: name, Summary: summary})
	}
	return jsonResult(info)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// Run starts the MCP server in the configured mode and returns when ctx is
// done or the transport closes.
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

// runStdioMode serves MCP over stdin and stdout
func (s *Server) runStdioMode(ctx context.Context) error {
	s.logger.Info("server.start", "mode", config.ModeStdio, "directory", s.config.DocumentDirectory)
	return s.serveStdio(ctx, os.Stdin, os.Stdout)
}

func (s *Server) serveStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))

	err := stdio.Listen(ctx, in, out)
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("failed to serve stdio: %w", err)
}

// runServerMode serves MCP over HTTP with server-sent events until ctx ends
func (s *Server) runServerMode(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return nil
	}
	addr := s.config.Address()
	sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://"+addr))

	errCh := make(chan error, 1)
	go func() {
		errCh <- sse.Start(addr)
	}()
	s.logger.Info("server.start", "mode", config.ModeServer, "address", addr, "directory", s.config.DocumentDirectory)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve sse: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := sse.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down sse server: %w", err)
		}
		s.logger.Info("server.stop", "address", addr)
		return nil
	}
}
