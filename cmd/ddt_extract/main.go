package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/a3tai/mcp-ddt-reader/internal/config"
	"github.com/a3tai/mcp-ddt-reader/internal/document"
	"github.com/a3tai/mcp-ddt-reader/internal/export"
	"github.com/a3tai/mcp-ddt-reader/internal/layout"
	"github.com/a3tai/mcp-ddt-reader/internal/patterns"
	"github.com/a3tai/mcp-ddt-reader/internal/pdftext"
	"github.com/a3tai/mcp-ddt-reader/internal/pipeline"
)

// Exit codes
const (
	exitOK      = 0
	exitFatal   = 1
	exitPartial = 2 // some files produced no document
)

const (
	formatJSON   = "json"
	formatXLSX   = "xlsx"
	textFileExt  = ".txt"
	outputPerm   = 0o644
	defaultLevel = "warn"
)

type options struct {
	format            string
	out               string
	tables            string
	workers           int
	threshold         float64
	addressStrategies string
	clientStrategies  string
	maxFileSize       int64
	logLevel          string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func parseFlags(args []string, stderr io.Writer) (*options, []string, error) {
	opts := &options{}
	fs := pflag.NewFlagSet("ddt_extract", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.format, "format", formatJSON, "Output format: json or xlsx")
	fs.StringVarP(&opts.out, "out", "o", "", "Output file (stdout for json when empty, required for xlsx)")
	fs.StringVar(&opts.tables, "tables", "", "JSON file overlaying the built-in lookup tables")
	fs.IntVar(&opts.workers, "workers", 0, "Concurrent extractions (0 = one per CPU)")
	fs.Float64Var(&opts.threshold, "threshold", config.DefaultThreshold, "Minimum confidence for address and client name resolution (0-1]")
	fs.StringVar(&opts.addressStrategies, "address-strategies", "", "Comma-separated address strategies in priority order")
	fs.StringVar(&opts.clientStrategies, "client-strategies", "", "Comma-separated client name strategies in priority order")
	fs.Int64Var(&opts.maxFileSize, "maxfilesize", config.DefaultMaxFileSize, "Maximum PDF file size in bytes")
	fs.StringVar(&opts.logLevel, "loglevel", defaultLevel, "Log level (debug, info, warn, error)")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: ddt_extract [OPTIONS] <file|directory>...\n\n")
		fmt.Fprintf(stderr, "Extracts Italian DDT, invoices and credit notes from PDFs or .txt files.\n")
		fmt.Fprintf(stderr, "Directories contribute the PDFs directly inside them.\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  ddt_extract DDV_703446_2025_20999_4227_20250610.pdf\n")
		fmt.Fprintf(stderr, "  ddt_extract --format xlsx --out report.xlsx ./2025-06\n")
	}

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return nil, nil, fmt.Errorf("at least one file or directory is required")
	}
	switch opts.format {
	case formatJSON:
	case formatXLSX:
		if opts.out == "" {
			return nil, nil, fmt.Errorf("--out is required for xlsx output")
		}
	default:
		return nil, nil, fmt.Errorf("unknown format %q (json or xlsx)", opts.format)
	}
	if opts.threshold <= 0 || opts.threshold > 1 {
		return nil, nil, fmt.Errorf("threshold must be in (0, 1], got %v", opts.threshold)
	}
	if !config.ValidLogLevel(opts.logLevel) {
		return nil, nil, fmt.Errorf("invalid log level: %s", opts.logLevel)
	}
	return opts, fs.Args(), nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, inputs, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFatal
	}

	cfg := config.Config{LogLevel: opts.logLevel}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	tables := patterns.Default()
	if opts.tables != "" {
		if tables, err = patterns.Load(opts.tables); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitFatal
		}
	}
	p, err := pipeline.NewNamed(pipeline.Options{
		Tables:    tables,
		Threshold: opts.threshold,
		Logger:    logger,
	}, config.SplitList(opts.addressStrategies), config.SplitList(opts.clientStrategies))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFatal
	}

	paths, err := expandInputs(inputs)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFatal
	}

	loader := fileLoader{pdf: pdftext.NewLoader(opts.maxFileSize, logger)}
	results, err := p.ExtractFiles(ctx, loader, paths, opts.workers)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFatal
	}

	if err := writeResults(opts, results, stdout, logger); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFatal
	}

	for _, r := range results {
		if r.Err != nil {
			return exitPartial
		}
	}
	return exitOK
}

// expandInputs replaces directories with the PDFs they contain
func expandInputs(inputs []string) ([]string, error) {
	var paths []string
	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil || !info.IsDir() {
			// missing files are reported per file by the loader
			paths = append(paths, in)
			continue
		}
		pdfs, err := pdftext.FindPDFs(in)
		if err != nil {
			return nil, err
		}
		paths = append(paths, pdfs...)
	}
	return paths, nil
}

// fileLoader reads .txt files as plain text and everything else as PDF
type fileLoader struct {
	pdf *pdftext.Loader
}

func (l fileLoader) LoadText(path string) (string, []layout.Row, error) {
	if strings.EqualFold(filepath.Ext(path), textFileExt) {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", nil, fmt.Errorf("read %s: %w", path, err)
		}
		return string(data), nil, nil
	}
	return l.pdf.LoadText(path)
}

type fileResult struct {
	File     string             `json:"file"`
	Document *document.Document `json:"document,omitempty"`
	Error    *fileError         `json:"error,omitempty"`
}

type fileError struct {
	Reason string `json:"reason"`
	Detail string `json:"detail"`
}

func writeResults(opts *options, results []pipeline.Result, stdout io.Writer, logger *slog.Logger) error {
	if opts.format == formatXLSX {
		return export.New(logger).WriteFile(opts.out, results)
	}

	out := make([]fileResult, 0, len(results))
	for _, r := range results {
		fr := fileResult{File: r.FileName, Document: r.Document}
		if r.Err != nil {
			fr.Error = &fileError{Reason: export.FailureReason(r.Err), Detail: r.Err.Error()}
		}
		out = append(out, fr)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	data = append(data, '\n')

	if opts.out == "" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(opts.out, data, outputPerm); err != nil {
		return fmt.Errorf("write %s: %w", opts.out, err)
	}
	return nil
}
