package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/a3tai/mcp-ddt-reader/internal/export"
)

const deliveryNote = "DDT 12345 15/01/2024\nCLIENTE: PIEMONTE CARNI\nP.IVA: 01522630056\n070017 PRODOTTO TEST 10 PZ 5,00 50,00\nTOTALE: 50,00"

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRunJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "ddt.txt", deliveryNote)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{path}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	var out []fileResult
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, path, out[0].File)
	assert.Nil(t, out[0].Error)
	require.NotNil(t, out[0].Document)
	assert.Equal(t, "12345", out[0].Document.Number)
	assert.Equal(t, "Piemonte Carni", out[0].Document.Client.CanonicalName)
}

func TestRunReportsFailuresPerFile(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "ddt.txt", deliveryNote)
	bad := writeFile(t, dir, "notes.txt", "Lorem ipsum")
	empty := writeFile(t, dir, "empty.pdf", "")
	outPath := filepath.Join(dir, "out.json")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--out", outPath, good, bad, empty}, &stdout, &stderr)
	assert.Equal(t, exitPartial, code)
	assert.Empty(t, stdout.String())

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var out []fileResult
	require.NoError(t, json.Unmarshal(data, &out))
	require.Len(t, out, 3)
	assert.NotNil(t, out[0].Document)
	require.NotNil(t, out[1].Error)
	assert.Equal(t, "unrecognized_document_type", out[1].Error.Reason)
	require.NotNil(t, out[2].Error)
	assert.Equal(t, "load_error", out[2].Error.Reason)
}

func TestRunXLSXFromDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "empty.pdf", "")
	writeFile(t, dir, "ignored.txt", deliveryNote)
	outPath := filepath.Join(t.TempDir(), "report.xlsx")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--format", "xlsx", "-o", outPath, "--workers", "2", dir}, &stdout, &stderr)
	assert.Equal(t, exitPartial, code, "the empty PDF fails")

	f, err := excelize.OpenFile(outPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetFailures)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, filepath.Join(dir, "empty.pdf"), rows[1][0])
}

func TestRunWithTables(t *testing.T) {
	dir := t.TempDir()
	tables := writeFile(t, dir, "tables.json", `{"version": "2025-06"}`)
	path := writeFile(t, dir, "ddt.txt", deliveryNote)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--tables", tables, "--address-strategies", "section_marker", path}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	var out []fileResult
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "2025-06", out[0].Document.TablesVersion)
}

func TestRunUsageErrors(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "ddt.txt", deliveryNote)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"help", []string{"--help"}, exitOK},
		{"no inputs", []string{}, exitFatal},
		{"unknown format", []string{"--format", "csv", path}, exitFatal},
		{"xlsx without out", []string{"--format", "xlsx", path}, exitFatal},
		{"bad threshold", []string{"--threshold", "0", path}, exitFatal},
		{"bad log level", []string{"--loglevel", "verbose", path}, exitFatal},
		{"unknown strategy", []string{"--client-strategies", "guess", path}, exitFatal},
		{"missing tables", []string{"--tables", filepath.Join(dir, "none.json"), path}, exitFatal},
		{"unknown flag", []string{"--bogus", path}, exitFatal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, tt.want, run(context.Background(), tt.args, &stdout, &stderr))
			assert.Empty(t, stdout.String())
		})
	}
}
