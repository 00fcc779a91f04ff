package descriptions

import "sort"

// Tool descriptions with practical examples and use cases

const (
	// Extraction tools
	DDTExtractTextDescription = `Extract structured data from the text of an Italian DDT, invoice or credit note.

**When to use:** The document text is already available, for example from OCR, an email body or another extractor.

**What you get:** A JSON document with kind, number, date, client, delivery address, line items, totals, flags and unresolved fields. Text that is not a recognizable document returns a failure with reason "unrecognized_document_type" or "no_document_number".

**Examples:**
• Paste a delivery note: "Extract the DDT in this text, file name DDV_703446_2025_20999_4227_20250610.pdf"
• Re-run with layout: pass rows_json as an array of rows, each row an array of {"text", "x"} tokens, to let two-column headers be split by position

**Best practices:** Always pass file_name when it follows the FTV/DDV/NCV naming convention, it supplies the client code and date when the text does not.`

	DDTExtractFileDescription = `Read a PDF from the configured directory and extract its DDT, invoice or credit note data.

**When to use:** A single document needs to be processed.

**What you get:** The same JSON document as ddt_extract_text. Files that are not PDFs, are empty, exceed the size limit or have no text layer return an error.

**Examples:**
• "Extract DDV_703446_2025_20999_4227_20250610.pdf"
• "What is the total of invoices/FTV_1234.pdf?"

**Best practices:** Paths are relative to the configured directory; paths outside it are rejected. Check the flags array: totals_mismatch and line_total_mismatch mark values that did not reconcile.`

	DDTExtractDirectoryDescription = `Extract every PDF in a directory concurrently and optionally write an XLSX report.

**When to use:** Processing a day's worth of delivery notes or invoices.

**What you get:** A JSON summary with one entry per extracted document and one per failed file. Failures never stop the batch. When xlsx_output is set a workbook with a "Documenti" sheet (one row per line item) and an "Errori" sheet is written there.

**Examples:**
• "Extract everything in the current directory"
• "Extract 2025-06/ and save the report as 2025-06/report.xlsx"

**Best practices:** The directory is not searched recursively. The output path must also be inside the configured directory.`

	// Administration tools
	DDTReloadTablesDescription = `Reload the lookup tables (client aliases, client codes, known delivery addresses, units, VAT rates) from a JSON file.

**When to use:** After editing the tables file, without restarting the server.

**What you get:** The new tables version. The file is validated against the tables schema and merged over the built-in tables; on error the current tables stay in place.

**Best practices:** Leave path empty to reload the file given with --tables.`

	DDTServerInfoDescription = `Get server status, configuration and available tools.

**When to use:** Starting work with the server or checking which tables version and thresholds are active.

**What you get:** Server name and version, configured directory with the PDFs it contains, tables version, resolver threshold, strategy order and the tool list.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"ddt_extract_text":      DDTExtractTextDescription,
	"ddt_extract_file":      DDTExtractFileDescription,
	"ddt_extract_directory": DDTExtractDirectoryDescription,
	"ddt_reload_tables":     DDTReloadTablesDescription,
	"ddt_server_info":       DDTServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the tool names in alphabetical order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
