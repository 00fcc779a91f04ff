// Package export writes extraction results to spreadsheets.
package export

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/a3tai/mcp-ddt-reader/internal/document"
	"github.com/a3tai/mcp-ddt-reader/internal/pdftext"
	"github.com/a3tai/mcp-ddt-reader/internal/pipeline"
)

// Sheet names.
const (
	SheetDocuments = "Documenti"
	SheetFailures  = "Errori"
)

var documentHeaders = []string{
	"File", "Tipo", "Numero", "Data", "Data consegna",
	"Cliente", "Cliente (canonico)", "Cod. cliente", "P.IVA", "Cod. fiscale",
	"Indirizzo consegna", "CAP", "Città", "Prov.", "Rif. ordine",
	"Codice", "Descrizione", "UM", "Quantità", "Prezzo", "Sconto %", "IVA %", "Totale riga",
	"Imponibile", "IVA", "Totale documento", "Segnalazioni",
}

var failureHeaders = []string{"File", "Motivo", "Tipo", "Dettaglio"}

// Exporter renders results as XLSX workbooks.
type Exporter struct {
	logger *slog.Logger
}

// New returns an Exporter. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{logger: logger}
}

// XLSX returns a workbook with one row per line item on the documents sheet
// and one row per failed file on the failures sheet. Documents without items
// get a single row.
func (e *Exporter) XLSX(results []pipeline.Result) ([]byte, error) {
	start := time.Now()
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetDocuments); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetFailures); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	writeRow(f, SheetDocuments, 1, headerRow(documentHeaders))
	writeRow(f, SheetFailures, 1, headerRow(failureHeaders))

	docRow, failRow := 2, 2
	docs := 0
	for _, r := range results {
		if r.Err != nil {
			writeRow(f, SheetFailures, failRow, failureRow(r))
			failRow++
			continue
		}
		docs++
		for _, row := range documentRows(r.Document) {
			writeRow(f, SheetDocuments, docRow, row)
			docRow++
		}
	}

	_ = f.SetColWidth(SheetDocuments, "A", "A", 36)
	_ = f.SetColWidth(SheetDocuments, "F", "G", 32)
	_ = f.SetColWidth(SheetDocuments, "K", "K", 32)
	_ = f.SetColWidth(SheetDocuments, "Q", "Q", 40)
	_ = f.SetColWidth(SheetDocuments, "AA", "AA", 48)
	_ = f.SetColWidth(SheetFailures, "A", "A", 36)
	_ = f.SetColWidth(SheetFailures, "D", "D", 60)
	if idx, err := f.GetSheetIndex(SheetDocuments); err == nil {
		f.SetActiveSheet(idx)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	e.logger.Info("export.xlsx.ok",
		"documents", docs,
		"failures", len(results)-docs,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// WriteFile writes the workbook to path.
func (e *Exporter) WriteFile(path string, results []pipeline.Result) error {
	data, err := e.XLSX(results)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func headerRow(h []string) []any {
	out := make([]any, len(h))
	for i, s := range h {
		out[i] = s
	}
	return out
}

func writeRow(f *excelize.File, sheet string, row int, values []any) {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	_ = f.SetSheetRow(sheet, cell, &values)
}

func documentRows(d *document.Document) [][]any {
	var addr document.Address
	if d.DeliveryAddress != nil {
		addr = *d.DeliveryAddress
	}
	flags := make([]string, 0, len(d.Flags))
	for _, fl := range d.Flags {
		flags = append(flags, fl.Code)
	}
	head := []any{
		d.FileName, string(d.Kind), d.Number, d.Date, d.DeliveryDate,
		d.Client.RawName, d.Client.CanonicalName, d.Client.Code, d.Client.VATNumber, d.Client.TaxCode,
		addr.Street, addr.PostalCode, addr.City, addr.Province, d.OrderReference,
	}
	tail := []any{
		nullable(d.Totals.Subtotal), nullable(d.Totals.VATAmount), nullable(d.Totals.GrandTotal),
		strings.Join(flags, ", "),
	}

	if len(d.LineItems) == 0 {
		row := append(append([]any{}, head...), "", "", "", "", "", "", "", "")
		return [][]any{append(row, tail...)}
	}
	rows := make([][]any, 0, len(d.LineItems))
	for _, it := range d.LineItems {
		row := append([]any{}, head...)
		row = append(row,
			it.Code, it.Description, it.Unit,
			it.Quantity.InexactFloat64(), it.UnitPrice.InexactFloat64(), it.DiscountPercent.InexactFloat64(),
			it.VATRate, it.LineTotal.InexactFloat64(),
		)
		rows = append(rows, append(row, tail...))
	}
	return rows
}

func nullable(d decimal.NullDecimal) any {
	if !d.Valid {
		return ""
	}
	return d.Decimal.InexactFloat64()
}

func failureRow(r pipeline.Result) []any {
	var failure *document.ExtractionFailure
	if errors.As(r.Err, &failure) {
		return []any{r.FileName, string(failure.Reason), string(failure.Kind), failure.Detail}
	}
	return []any{r.FileName, FailureReason(r.Err), "", r.Err.Error()}
}

// FailureReason names the cause of a failed result: the extraction failure
// reason, "load_error" for unreadable PDFs or "error".
func FailureReason(err error) string {
	var failure *document.ExtractionFailure
	if errors.As(err, &failure) {
		return string(failure.Reason)
	}
	var le *pdftext.LoadError
	if errors.As(err, &le) {
		return "load_error"
	}
	return "error"
}
