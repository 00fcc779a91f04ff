package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/a3tai/mcp-ddt-reader/internal/config"
	"github.com/a3tai/mcp-ddt-reader/internal/document"
	"github.com/a3tai/mcp-ddt-reader/internal/export"
)

const deliveryNote = "DDT 12345 15/01/2024\nCLIENTE: PIEMONTE CARNI\nP.IVA: 01522630056\n070017 PRODOTTO TEST 10 PZ 5,00 50,00\nTOTALE: 50,00"

func testConfig(dir string) *config.Config {
	return &config.Config{
		Mode:              config.ModeStdio,
		Host:              "127.0.0.1",
		Port:              8080,
		DocumentDirectory: dir,
		Threshold:         config.DefaultThreshold,
		Workers:           2,
		Version:           "1.0.0",
		ServerName:        "test-server",
		LogLevel:          "info",
		MaxFileSize:       1024 * 1024,
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	s, err := NewServer(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return s
}

func call(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// Helper function to extract text from a CallToolResult
func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			return textContent.Text
		}
		if textContentPtr, ok := content.(*mcp.TextContent); ok {
			return textContentPtr.Text
		}
	}
	return ""
}

func decode[T any](t *testing.T, result *mcp.CallToolResult) T {
	t.Helper()
	require.NotNil(t, result)
	require.False(t, result.IsError, extractTextFromResult(result))
	var v T
	require.NoError(t, json.Unmarshal([]byte(extractTextFromResult(result)), &v))
	return v
}

func writeTables(t *testing.T, dir, version string) string {
	t.Helper()
	path := filepath.Join(dir, "tables.json")
	body := `{"version": "` + version + `", "client_aliases": {"NUOVO CLIENTE SRL": "Nuovo Cliente"}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestNewServer(t *testing.T) {
	dir := t.TempDir()

	s := newTestServer(t, testConfig(dir))
	assert.NotNil(t, s.mcpServer)
	assert.Equal(t, "builtin-1", s.pipeline.Load().Tables().Version())

	cfg := testConfig(dir)
	cfg.TablesPath = writeTables(t, dir, "2025-06")
	s = newTestServer(t, cfg)
	assert.Equal(t, "2025-06", s.pipeline.Load().Tables().Version())

	_, err := NewServer(nil, nil)
	assert.Error(t, err)

	cfg = testConfig(dir)
	cfg.AddressStrategies = []string{"guess"}
	_, err = NewServer(cfg, nil)
	assert.ErrorContains(t, err, `unknown strategy "guess"`)

	cfg = testConfig(dir)
	cfg.TablesPath = filepath.Join(dir, "missing.json")
	_, err = NewServer(cfg, nil)
	assert.Error(t, err)
}

func TestServer_HandleExtractText(t *testing.T) {
	s := newTestServer(t, testConfig(t.TempDir()))

	result, err := s.handleExtractText(context.Background(), call(map[string]interface{}{
		"text":      deliveryNote,
		"file_name": "a.pdf",
	}))
	require.NoError(t, err)
	doc := decode[document.Document](t, result)
	assert.Equal(t, document.KindDeliveryNote, doc.Kind)
	assert.Equal(t, "12345", doc.Number)
	assert.Equal(t, "2024-01-15", doc.Date)
	assert.Equal(t, "a.pdf", doc.FileName)
	require.Len(t, doc.LineItems, 1)
	assert.Equal(t, "50.00", doc.LineItems[0].LineTotal.StringFixed(2))
}

func TestServer_HandleExtractTextWithRows(t *testing.T) {
	s := newTestServer(t, testConfig(t.TempDir()))
	rows := `[
		[{"text": "DDT 4521 21/05/2025", "x": 27}],
		[{"text": "Spett.le", "x": 27}, {"text": "Luogo di consegna", "x": 294}],
		[{"text": "DONAC S.R.L.", "x": 39}, {"text": "DONAC S.R.L.", "x": 309}],
		[{"text": "VIA MARGARITA, 8 LOC. TETTO GARETTO", "x": 39}, {"text": "VIA SALUZZO, 65", "x": 309}],
		[{"text": "12100 - CUNEO CN", "x": 39}, {"text": "12038 SAVIGLIANO CN", "x": 309}],
		[{"text": "Vettore", "x": 27}, {"text": "S.A.F.I.M. SRL", "x": 161}],
		[{"text": "VIA TORINO, 10", "x": 39}],
		[{"text": "10088 VOLPIANO TO", "x": 39}]
	]`

	result, err := s.handleExtractText(context.Background(), call(map[string]interface{}{
		"text":      "",
		"file_name": "scan.pdf",
		"rows_json": rows,
	}))
	require.NoError(t, err)
	doc := decode[document.Document](t, result)
	assert.Equal(t, "4521", doc.Number)
	require.NotNil(t, doc.DeliveryAddress)
	assert.Equal(t, "VIA SALUZZO, 65", doc.DeliveryAddress.Street)
	assert.Equal(t, "two_column", doc.DeliveryAddress.SourceStrategy)
}

func TestServer_HandleExtractTextErrors(t *testing.T) {
	s := newTestServer(t, testConfig(t.TempDir()))

	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"missing text", map[string]interface{}{}, "text"},
		{"bad rows", map[string]interface{}{"text": "x", "rows_json": "{"}, "invalid rows_json"},
		{"not a document", map[string]interface{}{"text": "Lorem ipsum", "file_name": "x.pdf"}, "unrecognized_document_type"},
		{"no number", map[string]interface{}{"text": "DOCUMENTO DI TRASPORTO\nsenza numero"}, "no_document_number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.handleExtractText(context.Background(), call(tt.args))
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.True(t, result.IsError)
			assert.Contains(t, extractTextFromResult(result), tt.want)
		})
	}
}

func TestServer_HandleExtractFileErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.pdf"), nil, 0o644))
	s := newTestServer(t, testConfig(dir))

	tests := []struct {
		name string
		path interface{}
		want string
	}{
		{"outside directory", "/etc/passwd", "outside"},
		{"escaping relative path", "../x.pdf", "outside"},
		{"not a pdf", "notes.txt", "not a PDF"},
		{"empty file", "empty.pdf", "empty"},
		{"missing file", "missing.pdf", "missing.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.handleExtractFile(context.Background(), call(map[string]interface{}{"path": tt.path}))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, extractTextFromResult(result), tt.want)
		})
	}

	result, err := s.handleExtractFile(context.Background(), call(map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestServer_HandleExtractDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.pdf"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "junk.pdf"), []byte("not really a pdf"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("skip"), 0o644))
	s := newTestServer(t, testConfig(dir))

	result, err := s.handleExtractDirectory(context.Background(), call(map[string]interface{}{
		"xlsx_output": "report.xlsx",
	}))
	require.NoError(t, err)
	out := decode[DirectoryResult](t, result)

	assert.Equal(t, dir, out.Directory)
	assert.Equal(t, 2, out.Files)
	assert.Empty(t, out.Documents)
	require.Len(t, out.Failures, 2)
	for _, f := range out.Failures {
		assert.Equal(t, "load_error", f.Reason)
		assert.NotEmpty(t, f.Detail)
	}
	assert.Equal(t, filepath.Join(dir, "report.xlsx"), out.XLSXOutput)

	f, err := excelize.OpenFile(out.XLSXOutput)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetFailures)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestServer_HandleExtractDirectoryErrors(t *testing.T) {
	dir := t.TempDir()
	s := newTestServer(t, testConfig(dir))

	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"directory outside root", map[string]interface{}{"directory": "/"}, "outside"},
		{"output outside root", map[string]interface{}{"xlsx_output": "/tmp/out.xlsx"}, "outside"},
		{"output not xlsx", map[string]interface{}{"xlsx_output": "out.csv"}, ".xlsx"},
		{"missing directory", map[string]interface{}{"directory": "nope"}, "nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.handleExtractDirectory(context.Background(), call(tt.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, extractTextFromResult(result), tt.want)
		})
	}

	// an empty directory is a valid, empty batch
	result, err := s.handleExtractDirectory(context.Background(), call(map[string]interface{}{}))
	require.NoError(t, err)
	out := decode[DirectoryResult](t, result)
	assert.Zero(t, out.Files)
	assert.Empty(t, out.Failures)
}

func TestServer_HandleReloadTables(t *testing.T) {
	dir := t.TempDir()
	s := newTestServer(t, testConfig(dir))

	result, err := s.handleReloadTables(context.Background(), call(map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, result.IsError, "nothing configured to reload")

	path := writeTables(t, dir, "2025-07")
	result, err = s.handleReloadTables(context.Background(), call(map[string]interface{}{"path": path}))
	require.NoError(t, err)
	out := decode[map[string]string](t, result)
	assert.Equal(t, "2025-07", out["version"])
	assert.Equal(t, "builtin-1", out["previous_version"])
	assert.Equal(t, "2025-07", s.pipeline.Load().Tables().Version())

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"vat_rates": "many"}`), 0o644))
	result, err = s.handleReloadTables(context.Background(), call(map[string]interface{}{"path": bad}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "2025-07", s.pipeline.Load().Tables().Version(), "failed reload keeps current tables")
}

func TestServer_HandleServerInfo(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.pdf"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.PDF"), []byte("x"), 0o644))
	cfg := testConfig(dir)
	cfg.ClientStrategies = []string{"alias_table", "marker_line"}
	s := newTestServer(t, cfg)

	result, err := s.handleServerInfo(context.Background(), call(nil))
	require.NoError(t, err)
	info := decode[ServerInfo](t, result)

	assert.Equal(t, "test-server", info.ServerName)
	assert.Equal(t, "1.0.0", info.Version)
	assert.Equal(t, dir, info.Directory)
	assert.Equal(t, []string{"a.PDF", "b.pdf"}, info.PDFFiles)
	assert.Equal(t, "builtin-1", info.TablesVersion)
	assert.Equal(t, config.DefaultThreshold, info.Threshold)
	assert.Equal(t, []string{"two_column", "known_mapping", "section_marker"}, info.AddressStrategies)
	assert.Equal(t, []string{"alias_table", "marker_line"}, info.ClientStrategies)
	assert.Equal(t, int64(1024*1024), info.MaxFileSize)
	require.Len(t, info.Tools, 5)
	assert.Equal(t, "ddt_extract_directory", info.Tools[0].Name)
	assert.NotContains(t, info.Tools[0].Summary, "\n")
}
