package patterns

import (
	"regexp"

	"github.com/a3tai/mcp-ddt-reader/internal/document"
)

// HeaderPattern recognizes a document header and captures its number and date.
type HeaderPattern struct {
	Name        string
	Kind        document.Kind
	Re          *regexp.Regexp
	NumberGroup int
	DateGroup   int // 0 when the pattern carries no date
	CodeGroup   int // customer code, 0 when absent
	// Loose patterns carry no textual type signature and are only tried when
	// the kind is already known to be Kind or is still unknown.
	Loose bool
}

const datePart = `(\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2,4})`

// Headers lists header patterns in priority order: credit notes first since
// their text routinely references the invoice being credited.
var Headers = []HeaderPattern{
	{
		Name: "nc_header", Kind: document.KindCreditNote,
		Re:          regexp.MustCompile(`(?i)\bNOTA\s+(?:DI\s+)?CREDITO\b(?:\s+(?:N[°.R]*\.?|NUMERO))?\s*:?\s*(\d{1,8})(?:\s|$)(?:.*?` + datePart + `)?`),
		NumberGroup: 1, DateGroup: 2,
	},
	{
		Name: "ft_header", Kind: document.KindInvoice,
		Re:          regexp.MustCompile(`(?i)^\s*FATTURA(?:\s+(?:ACCOMPAGNATORIA|DIFFERITA|IMMEDIATA))?(?:\s+(?:N[°.R]*\.?|NUMERO))?\s*:?\s*(\d{1,8})(?:\s|$)(?:.*?` + datePart + `)?`),
		NumberGroup: 1, DateGroup: 2,
	},
	{
		Name: "ft_numbered", Kind: document.KindInvoice,
		Re:          regexp.MustCompile(`(?i)\bFATT(?:URA|\.)\s*N[°.R]*\.?\s*:?\s*(\d{1,8})(?:\s|$)(?:.*?` + datePart + `)?`),
		NumberGroup: 1, DateGroup: 2,
	},
	{
		Name: "ft_short", Kind: document.KindInvoice,
		Re:          regexp.MustCompile(`(?i)^\s*FT\s+(?:N[°.R]*\.?\s*)?(\d{1,8})(?:\s|$)(?:.*?` + datePart + `)?`),
		NumberGroup: 1, DateGroup: 2,
	},
	{
		Name: "ddt_header", Kind: document.KindDeliveryNote,
		Re:          regexp.MustCompile(`(?i)(?:^|\s)(?:DDT|D\.D\.T\.?)\s*(?:N[°.R]*\.?\s*)?:?\s*(\d{1,8})(?:\s|$)(?:.*?` + datePart + `)?`),
		NumberGroup: 1, DateGroup: 2,
	},
	{
		Name: "ddt_long", Kind: document.KindDeliveryNote,
		Re:          regexp.MustCompile(`(?i)DOCUMENTO\s+DI\s+TRASPORTO\s*(?:N[°.R]*\.?\s*)?:?\s*(\d{1,8})(?:\s|$)(?:.*?` + datePart + `)?`),
		NumberGroup: 1, DateGroup: 2,
	},
	{
		Name: "ddt_compact", Kind: document.KindDeliveryNote,
		Re:          regexp.MustCompile(`^\s*(\d{4})(\d{2}/\d{2}/\d{2})\s*$`),
		NumberGroup: 1, DateGroup: 2, Loose: true,
	},
	{
		Name: "ddv_row", Kind: document.KindDeliveryNote,
		Re:          regexp.MustCompile(`^\s*(\d{4,5})\s+(\d{1,2}/\d{2}/\d{2,4})\s+\d{1,3}\s+(\d{4,5})\s*$`),
		NumberGroup: 1, DateGroup: 2, CodeGroup: 3, Loose: true,
	},
	{
		Name: "numero_del", Kind: document.KindDeliveryNote,
		Re:          regexp.MustCompile(`(?i)\bNUMERO\s*:?\s*(\d{4,8})\s+DEL\s+` + datePart),
		NumberGroup: 1, DateGroup: 2, Loose: true,
	},
	// "7959 del 19/05/25" or "703723 19/05/25" opening a row
	{
		Name: "number_date_row", Kind: document.KindDeliveryNote,
		Re:          regexp.MustCompile(`(?i)^\s*(\d{4,6})\s+(?:DEL\s+)?(\d{1,2}/\d{1,2}/\d{2,4})(?:\s|$)`),
		NumberGroup: 1, DateGroup: 2, Loose: true,
	},
}

var (
	// NumericDate matches DD/MM/YY(YY) with '/', '.' or '-' separators.
	NumericDate = regexp.MustCompile(`\b(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{2,4})\b`)
	// MonthNameDate matches "15 gennaio 2024".
	MonthNameDate = regexp.MustCompile(`(?i)\b(\d{1,2})\s+(GENNAIO|FEBBRAIO|MARZO|APRILE|MAGGIO|GIUGNO|LUGLIO|AGOSTO|SETTEMBRE|OTTOBRE|NOVEMBRE|DICEMBRE)\s+(\d{4})\b`)
	// DeliveryDate matches a labeled delivery date.
	DeliveryDate = regexp.MustCompile(`(?i)\bDATA\s+(?:DI\s+)?CONSEGNA\s*:?\s*` + datePart)
)

// Months maps Italian month names to their number.
var Months = map[string]int{
	"GENNAIO": 1, "FEBBRAIO": 2, "MARZO": 3, "APRILE": 4, "MAGGIO": 5, "GIUGNO": 6,
	"LUGLIO": 7, "AGOSTO": 8, "SETTEMBRE": 9, "OTTOBRE": 10, "NOVEMBRE": 11, "DICEMBRE": 12,
}

var (
	// VATLabeled matches a labeled 11-digit VAT number.
	VATLabeled = regexp.MustCompile(`(?i)(?:P\.?\s*IVA|PARTITA\s+IVA|P\.\s*I\.|VAT(?:\s+(?:NUMBER|NO\.?))?)\s*[:.]?\s*(?:IT\s*)?(\d{11})\b`)
	// VATBare matches any standalone 11-digit number.
	VATBare = regexp.MustCompile(`(?:\bIT|\b)(\d{11})\b`)
	// TaxCode matches a personal 16-character tax code.
	TaxCode = regexp.MustCompile(`(?i)\b([A-Z]{6}\d{2}[A-Z]\d{2}[A-Z]\d{3}[A-Z])\b`)
	// TaxCodeLabeled matches a labeled tax code, personal or numeric.
	TaxCodeLabeled = regexp.MustCompile(`(?i)(?:\bC\.\s*F\.|\bCOD(?:ICE)?\.?\s+FISC(?:ALE)?\.?)\s*[:.]?\s*([A-Z]{6}\d{2}[A-Z]\d{2}[A-Z]\d{3}[A-Z]|\d{11})\b`)
)

// ClientCodes match labeled customer codes.
var ClientCodes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bCOD\.?\s*CLI(?:ENTE)?\.?\s*:?\s*(\d{4,6})\b`),
	regexp.MustCompile(`(?i)\bCODICE\s+CLIENTE\s*:?\s*(\d{4,6})\b`),
}

// FileName matches the "<TYPE>_<internal>_<year>_<customer>_<doc>_<date>" naming convention.
var FileName = regexp.MustCompile(`(?i)^(FTV|DDV|NCV|FT|DDT|NC)_(\d+)_(\d{4})_(\d+)_(\d+)_(\d+)`)

// OrderPattern captures an order reference candidate.
type OrderPattern struct {
	Name string
	Re   *regexp.Regexp
}

const orderValue = `([A-Z0-9][A-Z0-9/\-.]*)`

// OrderReferences lists order patterns from strictest to loosest.
var OrderReferences = []OrderPattern{
	{"rif_vs_ordine", regexp.MustCompile(`(?i)\bRIF\.?\s*(?:TO\s+)?VS\.?\s*ORD(?:INE)?\.?\s*(?:N[°.R]*\.?\s|NUMERO\s)?\s*:?\s*` + orderValue)},
	{"rif_ns_ordine", regexp.MustCompile(`(?i)\bRIF\.?\s*(?:TO\s+)?NS\.?\s*ORD(?:INE)?\.?\s*(?:N[°.R]*\.?\s|NUMERO\s)?\s*:?\s*` + orderValue)},
	{"odv", regexp.MustCompile(`(?i)\bODV\s*(?:N[°.R]*\.?\s*)?:?\s*` + orderValue)},
	{"rif_ordine", regexp.MustCompile(`(?i)\bRIF(?:\.|ERIMENTO)?\s+ORDINE\s*(?:N[°.R]*\.?\s|NUMERO\s)?\s*:?\s*` + orderValue)},
	{"ordine_numero", regexp.MustCompile(`(?i)\bORDINE\s+(?:N[°.R]*\.?|NUMERO)\s*:?\s*` + orderValue)},
	{"vs_ordine", regexp.MustCompile(`(?i)\b(?:VS|NS|VOSTRO|NOSTRO)\.?\s+ORDINE\s*:?\s*` + orderValue)},
	{"code_507", regexp.MustCompile(`\b(507[A-Z0-9]{6,})\b`)},
}

var (
	// BareDate matches a value that is nothing but a date.
	BareDate = regexp.MustCompile(`^\d{1,2}[/.\-]\d{1,2}(?:[/.\-]\d{2,4})?$`)
	// Operator matches the operator line whose "507 NAME" is not an order.
	Operator = regexp.MustCompile(`(?i)\bOPERATORE\b`)
)

// ItemHeader matches the column header of the item table.
var ItemHeader = regexp.MustCompile(`(?i)\bCOD(?:ICE)?\.?(?:\s*ART(?:ICOLO)?\.?)?\s+DESCRIZIONE\b|\bDESCRIZIONE\b.*\b(?:Q\.?T[AÀ]'?\.?|QUANTIT[AÀ]|PREZZO)`)

// ItemsEnd matches lines that close the item table.
var ItemsEnd = regexp.MustCompile(`(?i)^\s*(?:TOTALE|TOT\.|IMPONIBILE|RIEPILOGO|CONTRIBUTO\s+CONAI|CASTELLETTO|SCADENZ|ANNOTAZIONI|PESO\s+(?:LORDO|NETTO)|N(?:UMERO|\.)?\s*COLLI|ASPETTO\s+ESTERIORE|CAUSALE\s+(?:DEL\s+)?TRASPORTO|TRASPORTO\s+A\s+CURA|VETTORE|CODICE\s+IVA|ALIQUOTA)`)

// ProductCode matches an article code token.
var ProductCode = regexp.MustCompile(`^[A-Z]{0,4}\d{3,}[A-Z0-9]*$`)

// amountPart is an Italian or dotted amount with exactly two decimals.
const amountPart = `(-?(?:\d{1,3}(?:\.\d{3})+|\d+)[,.]\d{2})`

var (
	// GrandTotal matches the document total line.
	GrandTotal = regexp.MustCompile(`(?i)\b(?:TOTALE(?:\s+(?:DOCUMENTO|FATTURA|NOTA(?:\s+(?:DI\s+)?CREDITO)?|DA\s+PAGARE|A\s+PAGARE|EURO|GENERALE|DDT))?|TOT\.\s*DOC(?:UMENTO)?\.?|NETTO\s+A\s+PAGARE)\s*:?\s*(?:€|EUR(?:O)?)?\s*` + amountPart + `(?:\s|€|$)`)
	// Subtotal matches the taxable total line.
	Subtotal = regexp.MustCompile(`(?i)\b(?:TOTALE\s+)?(?:IMPONIBILE|MERCE|NETTO\s+MERCE)\s*:?\s*(?:€|EUR(?:O)?)?\s*` + amountPart + `(?:\s|€|$)`)
	// VATTotal matches the VAT total line.
	VATTotal = regexp.MustCompile(`(?i)(?:^|\s)(?:TOTALE\s+)?(?:IVA|I\.V\.A\.?|IMPOSTA)\s*:?\s*(?:€|EUR(?:O)?)?\s*` + amountPart + `(?:\s|€|$)`)
	// VATBreakdown matches "rate% [- label] taxable tax" rows of a VAT summary.
	VATBreakdown = regexp.MustCompile(`(?i)(?:^|\s)(\d{1,2})\s*%(?:\s*-\s*[A-Z.]+(?:\s+[A-Z.]+)*)?\s+` + amountPart + `\s+` + amountPart + `(?:\s|$)`)
)

var (
	// CityLine matches "CAP [-] CITY [PR]".
	CityLine = regexp.MustCompile(`^\s*(\d{5})\s*-?\s*([\p{L}'’. ]+?)(?:\s+\(?([A-Z]{2})\)?)?\s*$`)
	// PostalCode matches a standalone 5-digit token.
	PostalCode = regexp.MustCompile(`\b\d{5}\b`)
	// FullAddress matches "STREET CAP CITY PR" on a single line.
	FullAddress = regexp.MustCompile(`^\s*(.*?),?\s+(\d{5})\s*-?\s*(.+?)\s+\(?([A-Z]{2})\)?\s*$`)
)
