// Package document defines the record produced by the extraction pipeline.
package document

import (
	"github.com/shopspring/decimal"
)

// Kind identifies the type of business document.
type Kind string

const (
	KindUnknown      Kind = ""
	KindDeliveryNote Kind = "DDT"
	KindInvoice      Kind = "FT"
	KindCreditNote   Kind = "NC"
)

// String returns the human label of the kind.
func (k Kind) String() string {
	switch k {
	case KindDeliveryNote:
		return "DeliveryNote"
	case KindInvoice:
		return "Invoice"
	case KindCreditNote:
		return "CreditNote"
	default:
		return "Unknown"
	}
}

// Reason codes attached to fields that could not be resolved with confidence.
const (
	ReasonNoStrategyMatched = "no_strategy_matched"
	ReasonLowConfidence     = "low_confidence"
)

// Flag codes.
const (
	FlagLowConfidence        = "low_confidence"
	FlagSyntheticClient      = "synthetic_client_name"
	FlagLineTotalMismatch    = "line_total_mismatch"
	FlagTotalsMismatch       = "totals_mismatch"
	FlagItemsTotalMismatch   = "items_total_mismatch"
	FlagVATBreakdownMismatch = "vat_breakdown_mismatch"
	FlagVATRateDefaulted     = "vat_rate_defaulted"
	FlagUnitDefaulted        = "unit_defaulted"
	FlagDescriptionMissing   = "description_missing"
	FlagSubtotalComputed     = "subtotal_computed"
	FlagGrandTotalComputed   = "grand_total_computed"
	FlagUnparsableNumber     = "unparsable_number"
)

// Document is the normalized result of one extraction. It is never mutated
// after the pipeline returns it.
type Document struct {
	ID              string       `json:"id"`
	FileName        string       `json:"file_name,omitempty"`
	Kind            Kind         `json:"kind"`
	KindConfidence  float64      `json:"kind_confidence"`
	Number          string       `json:"number"`
	Date            string       `json:"date,omitempty"`
	DeliveryDate    string       `json:"delivery_date,omitempty"`
	Client          Client       `json:"client"`
	DeliveryAddress *Address     `json:"delivery_address"`
	OrderReference  string       `json:"order_reference,omitempty"`
	LineItems       []LineItem   `json:"line_items"`
	Totals          Totals       `json:"totals"`
	Unresolved      []Unresolved `json:"unresolved,omitempty"`
	Flags           []Flag       `json:"flags,omitempty"`
	TablesVersion   string       `json:"tables_version,omitempty"`
}

// Client identifies the customer the document is addressed to.
type Client struct {
	RawName        string  `json:"raw_name,omitempty"`
	CanonicalName  string  `json:"canonical_name,omitempty"`
	Code           string  `json:"code,omitempty"`
	VATNumber      string  `json:"vat_number,omitempty"`
	TaxCode        string  `json:"tax_code,omitempty"`
	NameStrategy   string  `json:"name_strategy,omitempty"`
	NameConfidence float64 `json:"name_confidence,omitempty"`
	Synthetic      bool    `json:"synthetic,omitempty"`
}

// Address is a delivery address together with the strategy that produced it.
type Address struct {
	Street           string  `json:"street,omitempty"`
	PostalCode       string  `json:"postal_code,omitempty"`
	City             string  `json:"city,omitempty"`
	Province         string  `json:"province,omitempty"`
	AdditionalInfo   string  `json:"additional_info,omitempty"`
	SourceConfidence float64 `json:"source_confidence"`
	SourceStrategy   string  `json:"source_strategy"`
	LowConfidence    bool    `json:"low_confidence,omitempty"`
}

// Complete reports whether both a street and a postal code are known.
func (a Address) Complete() bool { return a.Street != "" && a.PostalCode != "" }

// LineItem is one product row.
type LineItem struct {
	Code               string              `json:"code"`
	Description        string              `json:"description"`
	Unit               string              `json:"unit"`
	Quantity           decimal.Decimal     `json:"quantity"`
	UnitPrice          decimal.Decimal     `json:"unit_price"`
	DiscountPercent    decimal.Decimal     `json:"discount_percent"`
	VATRate            int                 `json:"vat_rate"`
	LineTotal          decimal.Decimal     `json:"line_total"`
	ExtractedLineTotal decimal.NullDecimal `json:"extracted_line_total"`
	ComputedLineTotal  decimal.Decimal     `json:"computed_line_total"`
}

// Totals holds the document-level amounts.
type Totals struct {
	Subtotal           decimal.NullDecimal `json:"subtotal"`
	VATAmount          decimal.NullDecimal `json:"vat_amount"`
	GrandTotal         decimal.NullDecimal `json:"grand_total"`
	ComputedGrandTotal decimal.NullDecimal `json:"computed_grand_total"`
	ItemsTotal         decimal.Decimal     `json:"items_total"`
	VATBreakdown       []VATLine           `json:"vat_breakdown,omitempty"`
}

// VATLine is one row of a VAT summary table.
type VATLine struct {
	Rate    int             `json:"rate"`
	Taxable decimal.Decimal `json:"taxable"`
	Tax     decimal.Decimal `json:"tax"`
}

// Unresolved records a field left absent and why.
type Unresolved struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Flag marks something a reviewer should look at.
type Flag struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message,omitempty"`
}

// HasFlag reports whether the document carries a flag with the given code.
func (d *Document) HasFlag(code string) bool {
	for _, f := range d.Flags {
		if f.Code == code {
			return true
		}
	}
	return false
}

// UnresolvedReason returns the reason a field was left absent, or "".
func (d *Document) UnresolvedReason(field string) string {
	for _, u := range d.Unresolved {
		if u.Field == field {
			return u.Reason
		}
	}
	return ""
}
