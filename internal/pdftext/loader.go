// Package pdftext reads the text layer of PDF files into positioned rows.
// PDF parsing is left to ledongthuc/pdf and pdfcpu.
package pdftext

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/a3tai/mcp-ddt-reader/internal/layout"
)

// defaultFontSize is assumed for glyphs that report none.
const defaultFontSize = 10.0

// Result is the text layer of one file.
type Result struct {
	Path  string       `json:"path"`
	Pages int          `json:"pages"`
	Text  string       `json:"text"`
	Rows  []layout.Row `json:"rows"`
}

// Loader opens PDF files within a size limit.
type Loader struct {
	maxFileSize int64
	rowConfig   layout.RowConfig
	logger      *slog.Logger
}

// NewLoader creates a loader. A nil logger uses slog.Default().
func NewLoader(maxFileSize int64, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		maxFileSize: maxFileSize,
		rowConfig:   layout.DefaultRowConfig(),
		logger:      logger,
	}
}

// MaxFileSize returns the size limit in bytes.
func (l *Loader) MaxFileSize() int64 { return l.maxFileSize }

// Load validates the file, counts its pages with pdfcpu and reads every
// page's glyphs into rows.
func (l *Loader) Load(path string) (*Result, error) {
	if err := l.checkFile(path); err != nil {
		return nil, err
	}

	pages, err := pageCount(path)
	if err != nil {
		return nil, loadErr("validate", path, err)
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, loadErr("open", path, err)
	}
	defer f.Close()

	res := &Result{Path: path, Pages: pages}
	for n := 1; n <= r.NumPage(); n++ {
		rows, err := l.pageRows(r, n)
		if err != nil {
			return nil, loadErr(fmt.Sprintf("read_page_%d", n), path, err)
		}
		res.Rows = append(res.Rows, rows...)
	}
	if len(res.Rows) == 0 {
		return nil, loadErr("read", path, ErrNoTextLayer)
	}
	res.Text = strings.Join(layout.Lines(res.Rows), "\n")

	l.logger.Debug("pdf.loaded", "path", path, "pages", pages, "rows", len(res.Rows))
	return res, nil
}

// LoadText returns the text and rows of path.
func (l *Loader) LoadText(path string) (string, []layout.Row, error) {
	res, err := l.Load(path)
	if err != nil {
		return "", nil, err
	}
	return res.Text, res.Rows, nil
}

func (l *Loader) checkFile(path string) error {
	if path == "" {
		return loadErr("stat", path, ErrEmptyPath)
	}
	info, err := os.Stat(path)
	if err != nil {
		return loadErr("stat", path, err)
	}
	if info.IsDir() {
		return loadErr("stat", path, ErrIsDirectory)
	}
	if !strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return loadErr("stat", path, ErrNotPDF)
	}
	if info.Size() == 0 {
		return loadErr("stat", path, ErrEmptyFile)
	}
	if l.maxFileSize > 0 && info.Size() > l.maxFileSize {
		return loadErr("stat", path, fmt.Errorf("%w: %d bytes (max: %d bytes)", ErrTooLarge, info.Size(), l.maxFileSize))
	}
	return nil
}

// pageCount reads the document structure leniently, the way most producers
// of business documents need.
func pageCount(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(file, conf)
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return 0, fmt.Errorf("failed to ensure page count: %w", err)
	}
	return ctx.PageCount, nil
}

// pageRows converts one page. Malformed content streams make the glyph
// decoder panic, so that is turned into an error.
func (l *Loader) pageRows(r *pdf.Reader, n int) (rows []layout.Row, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrPageRecovery, p)
		}
	}()

	page := r.Page(n)
	if page.V.IsNull() {
		return nil, nil
	}

	content := page.Content()
	frags := make([]layout.Fragment, 0, len(content.Text))
	for _, g := range content.Text {
		size := g.FontSize
		if size == 0 {
			size = defaultFontSize
		}
		frags = append(frags, layout.Fragment{Text: g.S, X: g.X, Y: g.Y, Width: g.W, FontSize: size})
	}
	if len(frags) > 0 {
		return layout.BuildRows(frags, l.rowConfig), nil
	}

	// no positioned glyphs: keep the plain text, one row per line
	plain, err := page.GetPlainText(nil)
	if err != nil {
		return nil, err
	}
	for _, line := range strings.Split(plain, "\n") {
		if strings.TrimSpace(line) != "" {
			rows = append(rows, layout.Row{{Text: line}})
		}
	}
	return rows, nil
}
