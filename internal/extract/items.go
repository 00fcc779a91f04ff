package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/a3tai/mcp-ddt-reader/internal/amount"
	"github.com/a3tai/mcp-ddt-reader/internal/patterns"
)

// RawItem is an item row with its fields still in document notation.
type RawItem struct {
	Code        string
	Description string
	Unit        string
	Quantity    string
	UnitPrice   string
	Discount    string
	Total       string
	VAT         string
	Line        int
}

// tail is one interpretation of the numbers after the description.
type tail struct {
	quantity, price, discount, total, vat string
}

var vatToken = regexp.MustCompile(`^\d{1,2}%?$`)

// maxContinuation is the longest text line appended to the previous item's
// description.
const maxContinuation = 60

// FindItems locates the item table and parses its rows. The table opens at
// the item header or at the first row that parses as an item and closes at
// a totals marker; a later header reopens it. Lines without digits that
// follow an item extend its description.
func FindItems(lines []string, t *patterns.Tables) []RawItem {
	var items []RawItem
	inTable := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if patterns.ItemHeader.MatchString(trimmed) {
			inTable = true
			continue
		}
		if inTable && patterns.ItemsEnd.MatchString(trimmed) {
			inTable = false
			continue
		}
		if item, ok := ParseItemLine(trimmed, t); ok {
			item.Line = i
			items = append(items, item)
			inTable = true
			continue
		}
		if inTable && len(items) > 0 && isContinuation(trimmed) {
			last := &items[len(items)-1]
			if last.Line >= i-2 {
				last.Description = strings.TrimSpace(last.Description + " " + trimmed)
				last.Line = i
			}
		}
	}
	return items
}

func isContinuation(line string) bool {
	if len(line) > maxContinuation || strings.ContainsFunc(line, unicode.IsDigit) {
		return false
	}
	return strings.ContainsFunc(line, unicode.IsLetter)
}

// ParseItemLine parses one item row. Supported shapes:
//
//	code desc qty UNIT price [disc] total [vat]
//	code desc UNIT qty price [disc] total [vat]
//	code desc qty price [disc] total [vat]
//
// Unit-less rows are accepted only when their numbers are arithmetically
// consistent.
func ParseItemLine(line string, t *patterns.Tables) (RawItem, bool) {
	toks := strings.Fields(line)
	if len(toks) < 4 {
		return RawItem{}, false
	}
	code := strings.ToUpper(toks[0])
	if !patterns.ProductCode.MatchString(code) && !t.IsArticleCode(code) {
		return RawItem{}, false
	}

	if item, ok := parseWithUnit(code, toks, t); ok {
		return item, true
	}
	return parseUnitless(code, toks)
}

func parseWithUnit(code string, toks []string, t *patterns.Tables) (RawItem, bool) {
	for u := len(toks) - 1; u >= 2; u-- {
		if !t.IsUnit(toks[u]) {
			continue
		}
		after := toks[u+1:]
		if len(after) < 2 || !allNumbers(after) {
			continue
		}

		var options []RawItem
		var fits []bool
		// qty before the unit
		if u >= 3 && amount.IsNumber(toks[u-1]) {
			if tl, ok := resolveTail(toks[u-1], after); ok {
				options = append(options, buildItem(code, toks[1:u-1], toks[u], tl))
				fits = append(fits, consistent(tl))
			}
		}
		// qty after the unit
		if len(after) >= 3 {
			if tl, ok := resolveTail(after[0], after[1:]); ok {
				options = append(options, buildItem(code, toks[1:u], toks[u], tl))
				fits = append(fits, consistent(tl))
			}
		}
		if len(options) == 0 {
			return RawItem{}, false
		}
		for i, ok := range fits {
			if ok {
				return options[i], true
			}
		}
		return options[0], true
	}
	return RawItem{}, false
}

func parseUnitless(code string, toks []string) (RawItem, bool) {
	start := len(toks)
	for start > 2 && amount.IsNumber(toks[start-1]) {
		start--
	}
	nums := toks[start:]
	if len(nums) < 3 {
		return RawItem{}, false
	}
	// longest consistent reading first; leading numbers may belong to the description
	for n := min(len(nums), 5); n >= 3; n-- {
		run := nums[len(nums)-n:]
		tl, ok := resolveTail(run[0], run[1:])
		if !ok || !consistent(tl) {
			continue
		}
		desc := toks[1 : len(toks)-n]
		if len(desc) == 0 {
			continue
		}
		return buildItem(code, desc, "", tl), true
	}
	return RawItem{}, false
}

// resolveTail reads price, discount, total and VAT from the numbers after
// the quantity. Ambiguous three-number tails are decided by arithmetic.
func resolveTail(qty string, rest []string) (tail, bool) {
	var candidates []tail
	switch len(rest) {
	case 2:
		candidates = []tail{{quantity: qty, price: rest[0], total: rest[1]}}
	case 3:
		withVAT := tail{quantity: qty, price: rest[0], total: rest[1], vat: rest[2]}
		withDisc := tail{quantity: qty, price: rest[0], discount: rest[1], total: rest[2]}
		if vatToken.MatchString(rest[2]) {
			candidates = []tail{withVAT, withDisc}
		} else {
			candidates = []tail{withDisc}
		}
	case 4:
		if !vatToken.MatchString(rest[3]) {
			return tail{}, false
		}
		candidates = []tail{{quantity: qty, price: rest[0], discount: rest[1], total: rest[2], vat: rest[3]}}
	default:
		return tail{}, false
	}
	for _, c := range candidates {
		if consistent(c) {
			return c, true
		}
	}
	return candidates[0], true
}

// consistent reports whether qty × price × (1 − disc) matches the total.
func consistent(tl tail) bool {
	q, err := amount.Parse(tl.quantity)
	if err != nil {
		return false
	}
	p, err := amount.Parse(tl.price)
	if err != nil {
		return false
	}
	total, err := amount.Parse(tl.total)
	if err != nil {
		return false
	}
	disc := decimal.Zero
	if tl.discount != "" {
		if disc, err = amount.ParsePercent(tl.discount); err != nil {
			return false
		}
	}
	return amount.Within(amount.LineTotal(q, p, disc), total, amount.LineTolerance)
}

func allNumbers(toks []string) bool {
	for _, s := range toks {
		if !amount.IsNumber(s) {
			return false
		}
	}
	return true
}

func buildItem(code string, desc []string, unit string, tl tail) RawItem {
	return RawItem{
		Code:        code,
		Description: strings.Join(desc, " "),
		Unit:        strings.ToUpper(unit),
		Quantity:    tl.quantity,
		UnitPrice:   tl.price,
		Discount:    tl.discount,
		Total:       tl.total,
		VAT:         tl.vat,
	}
}
