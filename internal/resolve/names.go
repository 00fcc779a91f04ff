package resolve

import (
	"regexp"
	"strings"

	"github.com/a3tai/mcp-ddt-reader/internal/patterns"
)

var contactTail = regexp.MustCompile(`(?i)\s+(?:TEL\.?|FAX|CELL\.?|E-?MAIL|P\.?\s*IVA|PARTITA\s+IVA|C\.\s*F\.|COD(?:ICE)?\.?\s+FISC)(?:\s|:|$).*$`)

// CleanName trims a raw customer name. It cuts at the first street or
// locality token, drops contact tails and ends right after the first legal
// form suffix, so "AZ. AGR. LA MANDRIA S.S. DI GOIA E. E CAPRA S. S.S."
// becomes "AZ. AGR. LA MANDRIA S.S.".
func CleanName(raw string, t *patterns.Tables) string {
	s := contactTail.ReplaceAllString(strings.TrimSpace(raw), "")
	tokens := strings.Fields(s)

	for i := 1; i < len(tokens); i++ {
		if t.StartsWithStreet(strings.Join(tokens[i:], " ")) {
			tokens = tokens[:i]
			break
		}
	}

	for i := 1; i < len(tokens); i++ {
		n := t.CompanyFormAt(tokens, i)
		if n == 0 {
			continue
		}
		end := i + n
		for end < len(tokens) {
			more := t.CompanyFormAt(tokens, end)
			if more == 0 {
				break
			}
			end += more
		}
		tokens = tokens[:end]
		break
	}

	name := strings.Trim(strings.Join(tokens, " "), " ,;:-")
	if fields := strings.Fields(name); len(fields) > 0 && !endsWithForm(fields, t) {
		name = strings.TrimRight(name, " .")
	}
	return name
}

// endsWithForm reports whether the last tokens spell a legal form suffix,
// whose final dot belongs to the name.
func endsWithForm(tokens []string, t *patterns.Tables) bool {
	for i := 1; i < len(tokens); i++ {
		if t.CompanyFormAt(tokens, i) == len(tokens)-i {
			return true
		}
	}
	return false
}
