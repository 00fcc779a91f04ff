// Package normalize turns raw extracted strings into typed values and
// reconciles computed against printed amounts.
package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/a3tai/mcp-ddt-reader/internal/amount"
	"github.com/a3tai/mcp-ddt-reader/internal/document"
	"github.com/a3tai/mcp-ddt-reader/internal/extract"
	"github.com/a3tai/mcp-ddt-reader/internal/patterns"
)

// Normalizer applies table defaults and reconciliation rules. It holds no
// per-document state.
type Normalizer struct {
	tables *patterns.Tables
}

// New returns a Normalizer over t.
func New(t *patterns.Tables) *Normalizer {
	return &Normalizer{tables: t}
}

// CanonicalName maps raw through the alias table, falling back to raw.
func (n *Normalizer) CanonicalName(raw string) string {
	if raw == "" {
		return ""
	}
	if v, ok := n.tables.CanonicalClient(raw); ok {
		return v
	}
	return raw
}

// Items converts raw rows. The VAT rate comes only from the row itself;
// unreadable rates get the table default and a flag. The unit defaults only
// when the row carries none.
func (n *Normalizer) Items(raw []extract.RawItem) ([]document.LineItem, []document.Flag) {
	items := make([]document.LineItem, 0, len(raw))
	var flags []document.Flag

	for i, r := range raw {
		field := fmt.Sprintf("line_items[%d]", i)
		num := func(name, s string) decimal.Decimal {
			if s == "" {
				return decimal.Zero
			}
			d, err := amount.Parse(s)
			if err != nil {
				flags = append(flags, document.Flag{
					Code: document.FlagUnparsableNumber, Field: field + "." + name,
					Message: fmt.Sprintf("cannot read %q", s),
				})
				return decimal.Zero
			}
			return d
		}

		item := document.LineItem{
			Code:            r.Code,
			Description:     strings.TrimSpace(r.Description),
			Unit:            strings.ToUpper(strings.TrimSpace(r.Unit)),
			Quantity:        num("quantity", r.Quantity),
			UnitPrice:       num("unit_price", r.UnitPrice),
			DiscountPercent: num("discount_percent", strings.TrimSuffix(r.Discount, "%")),
		}

		if item.Description == "" {
			item.Description = "Articolo " + r.Code
			flags = append(flags, document.Flag{Code: document.FlagDescriptionMissing, Field: field + ".description"})
		}
		if item.Unit == "" || !n.tables.IsUnit(item.Unit) {
			flags = append(flags, document.Flag{
				Code: document.FlagUnitDefaulted, Field: field + ".unit",
				Message: fmt.Sprintf("unit %q replaced by %s", item.Unit, n.tables.DefaultUnit()),
			})
			item.Unit = n.tables.DefaultUnit()
		}

		rate, ok := n.vatRate(r.VAT)
		if !ok {
			flags = append(flags, document.Flag{
				Code: document.FlagVATRateDefaulted, Field: field + ".vat_rate",
				Message: fmt.Sprintf("rate %q replaced by %d", r.VAT, rate),
			})
		}
		item.VATRate = rate

		item.ComputedLineTotal = amount.LineTotal(item.Quantity, item.UnitPrice, item.DiscountPercent)
		item.LineTotal = item.ComputedLineTotal
		if r.Total != "" {
			if ext, err := amount.Parse(r.Total); err == nil {
				item.ExtractedLineTotal = decimal.NewNullDecimal(ext)
				if amount.Within(ext, item.ComputedLineTotal, amount.LineTolerance) {
					item.LineTotal = ext
				} else {
					flags = append(flags, document.Flag{
						Code: document.FlagLineTotalMismatch, Field: field + ".line_total",
						Message: fmt.Sprintf("extracted %s, computed %s", ext.StringFixed(2), item.ComputedLineTotal.StringFixed(2)),
					})
				}
			} else {
				flags = append(flags, document.Flag{
					Code: document.FlagUnparsableNumber, Field: field + ".line_total",
					Message: fmt.Sprintf("cannot read %q", r.Total),
				})
			}
		}
		items = append(items, item)
	}
	return items, flags
}

func (n *Normalizer) vatRate(s string) (int, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return n.tables.DefaultVATRate(), false
	}
	rate, err := strconv.Atoi(s)
	if err != nil || !n.tables.IsVATRate(rate) {
		return n.tables.DefaultVATRate(), false
	}
	return rate, true
}

// Totals converts the printed totals and checks them against each other and
// against the items. Mismatches are flagged; the printed grand total is kept.
// A missing VAT amount is taken from the breakdown when there is one and is
// otherwise left absent.
func (n *Normalizer) Totals(raw extract.RawTotals, items []document.LineItem) (document.Totals, []document.Flag) {
	var out document.Totals
	var flags []document.Flag

	parse := func(field, s string) decimal.NullDecimal {
		if s == "" {
			return decimal.NullDecimal{}
		}
		d, err := amount.Parse(s)
		if err != nil {
			flags = append(flags, document.Flag{
				Code: document.FlagUnparsableNumber, Field: field,
				Message: fmt.Sprintf("cannot read %q", s),
			})
			return decimal.NullDecimal{}
		}
		return decimal.NewNullDecimal(d)
	}

	out.ItemsTotal = decimal.Zero
	for _, it := range items {
		out.ItemsTotal = out.ItemsTotal.Add(it.LineTotal)
	}

	var taxableSum, taxSum decimal.Decimal
	for i, l := range raw.VATBreakdown {
		rate, rerr := strconv.Atoi(strings.TrimSpace(l.Rate))
		taxable := parse(fmt.Sprintf("totals.vat_breakdown[%d].taxable", i), l.Taxable)
		tax := parse(fmt.Sprintf("totals.vat_breakdown[%d].tax", i), l.Tax)
		if rerr != nil || !taxable.Valid || !tax.Valid {
			continue
		}
		out.VATBreakdown = append(out.VATBreakdown, document.VATLine{Rate: rate, Taxable: taxable.Decimal, Tax: tax.Decimal})
		taxableSum = taxableSum.Add(taxable.Decimal)
		taxSum = taxSum.Add(tax.Decimal)
		if !amount.Within(amount.Percentage(taxable.Decimal, rate), tax.Decimal, amount.TotalsTolerance) {
			flags = append(flags, document.Flag{
				Code: document.FlagVATBreakdownMismatch, Field: fmt.Sprintf("totals.vat_breakdown[%d]", i),
				Message: fmt.Sprintf("%d%% of %s is not %s", rate, taxable.Decimal.StringFixed(2), tax.Decimal.StringFixed(2)),
			})
		}
	}
	hasBreakdown := len(out.VATBreakdown) > 0

	out.Subtotal = parse("totals.subtotal", raw.Subtotal)
	subtotalPrinted := out.Subtotal.Valid
	if !out.Subtotal.Valid {
		switch {
		case hasBreakdown:
			out.Subtotal = decimal.NewNullDecimal(taxableSum)
		case len(items) > 0:
			out.Subtotal = decimal.NewNullDecimal(out.ItemsTotal)
		}
		if out.Subtotal.Valid {
			flags = append(flags, document.Flag{Code: document.FlagSubtotalComputed, Field: "totals.subtotal"})
		}
	}

	out.VATAmount = parse("totals.vat_amount", raw.VAT)
	switch {
	case !out.VATAmount.Valid && hasBreakdown:
		out.VATAmount = decimal.NewNullDecimal(taxSum)
	case out.VATAmount.Valid && hasBreakdown && !amount.Within(out.VATAmount.Decimal, taxSum, amount.TotalsTolerance):
		flags = append(flags, document.Flag{
			Code: document.FlagVATBreakdownMismatch, Field: "totals.vat_amount",
			Message: fmt.Sprintf("printed %s, breakdown sums to %s", out.VATAmount.Decimal.StringFixed(2), taxSum.StringFixed(2)),
		})
		if len(items) > 0 {
			expected := itemsVAT(items)
			if taxSum.Sub(expected).Abs().LessThan(out.VATAmount.Decimal.Sub(expected).Abs()) {
				out.VATAmount = decimal.NewNullDecimal(taxSum)
			}
		}
	}

	if out.Subtotal.Valid && out.VATAmount.Valid {
		out.ComputedGrandTotal = decimal.NewNullDecimal(out.Subtotal.Decimal.Add(out.VATAmount.Decimal))
	}

	out.GrandTotal = parse("totals.grand_total", raw.GrandTotal)
	switch {
	case out.GrandTotal.Valid && out.ComputedGrandTotal.Valid:
		if !amount.Within(out.GrandTotal.Decimal, out.ComputedGrandTotal.Decimal, amount.TotalsTolerance) {
			flags = append(flags, document.Flag{
				Code: document.FlagTotalsMismatch, Field: "totals.grand_total",
				Message: fmt.Sprintf("printed %s, subtotal plus VAT is %s",
					out.GrandTotal.Decimal.StringFixed(2), out.ComputedGrandTotal.Decimal.StringFixed(2)),
			})
		}
	case !out.GrandTotal.Valid && out.ComputedGrandTotal.Valid:
		out.GrandTotal = out.ComputedGrandTotal
		flags = append(flags, document.Flag{Code: document.FlagGrandTotalComputed, Field: "totals.grand_total"})
	}

	if len(items) > 0 {
		var ref decimal.NullDecimal
		var label string
		switch {
		case subtotalPrinted:
			ref, label = out.Subtotal, "subtotal"
		case !out.VATAmount.Valid && out.GrandTotal.Valid:
			ref, label = out.GrandTotal, "grand total"
		}
		if ref.Valid && !amount.Within(out.ItemsTotal, ref.Decimal, amount.TotalsTolerance) {
			flags = append(flags, document.Flag{
				Code: document.FlagItemsTotalMismatch, Field: "totals.items_total",
				Message: fmt.Sprintf("items sum to %s, %s is %s", out.ItemsTotal.StringFixed(2), label, ref.Decimal.StringFixed(2)),
			})
		}
	}

	return out, flags
}

// itemsVAT is the VAT implied by the items, computed per rate.
func itemsVAT(items []document.LineItem) decimal.Decimal {
	byRate := make(map[int]decimal.Decimal)
	var rates []int
	for _, it := range items {
		if _, seen := byRate[it.VATRate]; !seen {
			rates = append(rates, it.VATRate)
		}
		byRate[it.VATRate] = byRate[it.VATRate].Add(it.LineTotal)
	}
	total := decimal.Zero
	for _, r := range rates {
		total = total.Add(amount.Percentage(byRate[r], r))
	}
	return total
}
