package patterns

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Data is the serializable content of the lookup tables. It is the shape of
// the JSON overlay accepted by Load.
type Data struct {
	Version               string            `json:"version,omitempty"`
	ClientAliases         map[string]string `json:"client_aliases,omitempty"`
	ClientCodes           map[string]string `json:"client_codes,omitempty"`
	InternalCodeAddresses map[string]string `json:"internal_code_addresses,omitempty"`
	OrderCodeAddresses    map[string]string `json:"order_code_addresses,omitempty"`
	ArticleCodes          []string          `json:"article_codes,omitempty"`
	ExcludedOrderWords    []string          `json:"excluded_order_words,omitempty"`
	Units                 []string          `json:"units,omitempty"`
	CompanyForms          []string          `json:"company_forms,omitempty"`
	StreetTypes           []string          `json:"street_types,omitempty"`
	LocalityQualifiers    []string          `json:"locality_qualifiers,omitempty"`
	IssuerKeywords        []string          `json:"issuer_keywords,omitempty"`
	IssuerVATNumbers      []string          `json:"issuer_vat_numbers,omitempty"`
	CarrierKeywords       []string          `json:"carrier_keywords,omitempty"`
	CarrierMarkers        []string          `json:"carrier_markers,omitempty"`
	DeliveryMarkers       []string          `json:"delivery_markers,omitempty"`
	CustomerMarkers       []string          `json:"customer_markers,omitempty"`
	AdditionalInfoMarkers []string          `json:"additional_info_markers,omitempty"`
	VATRates              []int             `json:"vat_rates,omitempty"`
	DefaultVATRate        int               `json:"default_vat_rate,omitempty"`
	DefaultUnit           string            `json:"default_unit,omitempty"`
}

// Tables is the read-only lookup registry shared by every extractor.
// All methods are safe for concurrent use; nothing mutates a Tables after New.
type Tables struct {
	data Data

	aliases     map[string]string
	aliasKeys   []string
	clientCodes map[string]string
	internal    map[string]string
	orders      map[string]string
	articles    map[string]bool
	excluded    map[string]bool
	units       map[string]bool
	vatRates    map[int]bool
	issuerVAT   map[string]bool

	singleForms map[string]bool
	multiForms  [][]string

	issuer  []string
	carrier []string

	streetRe       *regexp.Regexp
	addressStartRe *regexp.Regexp
	deliveryRe     *regexp.Regexp
	customerRe     *regexp.Regexp
	carrierRe      *regexp.Regexp
	additionalRe   *regexp.Regexp
}

// New indexes d into an immutable Tables.
func New(d Data) (*Tables, error) {
	if len(d.StreetTypes) == 0 {
		return nil, fmt.Errorf("tables: street_types cannot be empty")
	}
	if len(d.Units) == 0 {
		return nil, fmt.Errorf("tables: units cannot be empty")
	}
	if !slices.Contains(d.VATRates, d.DefaultVATRate) {
		return nil, fmt.Errorf("tables: default VAT rate %d is not one of %v", d.DefaultVATRate, d.VATRates)
	}
	if !slices.Contains(d.Units, d.DefaultUnit) {
		return nil, fmt.Errorf("tables: default unit %q is not a known unit", d.DefaultUnit)
	}

	t := &Tables{
		data:        cloneData(d),
		aliases:     foldMap(d.ClientAliases),
		clientCodes: maps.Clone(d.ClientCodes),
		internal:    maps.Clone(d.InternalCodeAddresses),
		orders:      foldMap(d.OrderCodeAddresses),
		articles:    foldSet(d.ArticleCodes),
		excluded:    foldSet(d.ExcludedOrderWords),
		units:       foldSet(d.Units),
		issuerVAT:   foldSet(d.IssuerVATNumbers),
		vatRates:    make(map[int]bool, len(d.VATRates)),
		singleForms: make(map[string]bool),
		issuer:      foldList(d.IssuerKeywords),
		carrier:     foldList(d.CarrierKeywords),
	}
	for _, r := range d.VATRates {
		t.vatRates[r] = true
	}
	for _, form := range d.CompanyForms {
		tokens := strings.Fields(stripDots(Fold(form)))
		switch len(tokens) {
		case 0:
		case 1:
			t.singleForms[tokens[0]] = true
		default:
			t.multiForms = append(t.multiForms, tokens)
		}
	}

	t.aliasKeys = slices.Collect(maps.Keys(t.aliases))
	sort.Slice(t.aliasKeys, func(i, j int) bool {
		if len(t.aliasKeys[i]) != len(t.aliasKeys[j]) {
			return len(t.aliasKeys[i]) > len(t.aliasKeys[j])
		}
		return t.aliasKeys[i] < t.aliasKeys[j]
	})

	streets := alternation(d.StreetTypes)
	localities := alternation(d.LocalityQualifiers)
	t.streetRe = regexp.MustCompile(`(?i)(?:^|\s)(` + streets + `)(?:\s|$)`)
	start := streets
	if localities != "" {
		start += "|" + localities
	}
	t.addressStartRe = regexp.MustCompile(`(?i)^\s*(?:` + start + `)(?:\s|$)`)
	t.deliveryRe = markerRegexp(d.DeliveryMarkers)
	t.customerRe = markerRegexp(d.CustomerMarkers)
	t.carrierRe = markerRegexp(d.CarrierMarkers)
	t.additionalRe = markerRegexp(d.AdditionalInfoMarkers)

	return t, nil
}

// Version returns the table set version label.
func (t *Tables) Version() string { return t.data.Version }

// Data returns a copy of the underlying table content.
func (t *Tables) Data() Data { return cloneData(t.data) }

// CanonicalClient maps a raw client name to its canonical form.
func (t *Tables) CanonicalClient(raw string) (string, bool) {
	key := strings.TrimRight(Fold(raw), " ,;:-")
	if v, ok := t.aliases[key]; ok {
		return v, true
	}
	// a lost or extra final dot still names the same client
	bare := strings.TrimRight(key, ". ")
	for _, k := range []string{bare, bare + "."} {
		if v, ok := t.aliases[k]; ok {
			return v, true
		}
	}
	return "", false
}

// FindAlias returns the longest alias key found as a whole phrase in line,
// together with its canonical value.
func (t *Tables) FindAlias(line string) (string, string, bool) {
	folded := Fold(line)
	for _, key := range t.aliasKeys {
		if containsPhrase(folded, key) {
			return key, t.aliases[key], true
		}
	}
	return "", "", false
}

// ClientByCode returns the known raw name for a customer code.
func (t *Tables) ClientByCode(code string) (string, bool) {
	v, ok := t.clientCodes[strings.TrimSpace(code)]
	return v, ok
}

// AddressForInternalCode returns the known delivery address for an internal customer code.
func (t *Tables) AddressForInternalCode(code string) (string, bool) {
	v, ok := t.internal[strings.TrimSpace(code)]
	return v, ok
}

// AddressForOrderCode returns the known delivery address for an order reference code.
func (t *Tables) AddressForOrderCode(code string) (string, bool) {
	v, ok := t.orders[Fold(code)]
	return v, ok
}

// IsArticleCode reports whether code is a known article code.
func (t *Tables) IsArticleCode(code string) bool { return t.articles[Fold(code)] }

// IsExcludedOrderWord reports whether s, or its first word, is a known
// non-reference keyword.
func (t *Tables) IsExcludedOrderWord(s string) bool {
	folded := strings.Trim(Fold(s), " .:,;")
	if t.excluded[folded] {
		return true
	}
	if fields := strings.Fields(folded); len(fields) > 0 {
		return t.excluded[strings.Trim(fields[0], ".:,;")]
	}
	return false
}

// IsUnit reports whether s is a recognized unit of measure.
func (t *Tables) IsUnit(s string) bool { return t.units[Fold(s)] }

// Units returns the recognized units in table order.
func (t *Tables) Units() []string { return slices.Clone(t.data.Units) }

// DefaultUnit is the unit applied when a row carries none.
func (t *Tables) DefaultUnit() string { return t.data.DefaultUnit }

// IsVATRate reports whether rate is an admissible VAT rate.
func (t *Tables) IsVATRate(rate int) bool { return t.vatRates[rate] }

// DefaultVATRate is the rate applied when a row's rate is unreadable.
func (t *Tables) DefaultVATRate() int { return t.data.DefaultVATRate }

// IsIssuerVAT reports whether vat belongs to the issuing company.
func (t *Tables) IsIssuerVAT(vat string) bool { return t.issuerVAT[strings.TrimSpace(vat)] }

// HasIssuerTerm reports whether line mentions the issuer's own address or name.
func (t *Tables) HasIssuerTerm(line string) bool { return containsAny(Fold(line), t.issuer) }

// HasCarrierKeyword reports whether line mentions a known carrier.
func (t *Tables) HasCarrierKeyword(line string) bool { return containsAny(Fold(line), t.carrier) }

// IsCarrierMarker reports whether line opens a carrier block.
func (t *Tables) IsCarrierMarker(line string) bool { return t.carrierRe.MatchString(line) }

// CarrierMarker locates a carrier-block marker in line.
func (t *Tables) CarrierMarker(line string) []int { return t.carrierRe.FindStringIndex(line) }

// DeliveryMarker locates a delivery-section marker in line.
func (t *Tables) DeliveryMarker(line string) []int { return t.deliveryRe.FindStringIndex(line) }

// CustomerMarker locates a customer-section marker in line.
func (t *Tables) CustomerMarker(line string) []int { return t.customerRe.FindStringIndex(line) }

// AdditionalInfo locates an additional delivery info marker in line.
func (t *Tables) AdditionalInfo(line string) []int { return t.additionalRe.FindStringIndex(line) }

// StreetPrefixes returns the byte offsets of every primary street-type prefix
// starting a word in line. Locality qualifiers are not included.
func (t *Tables) StreetPrefixes(line string) []int {
	var out []int
	for _, m := range t.streetRe.FindAllStringSubmatchIndex(line, -1) {
		out = append(out, m[2])
	}
	return out
}

// StartsWithStreet reports whether line opens with a street type or a
// locality qualifier.
func (t *Tables) StartsWithStreet(line string) bool { return t.addressStartRe.MatchString(line) }

// CompanyFormAt returns how many tokens starting at tokens[i] spell a legal
// form suffix, or 0.
func (t *Tables) CompanyFormAt(tokens []string, i int) int {
	clean := func(s string) string { return strings.Trim(stripDots(Fold(s)), ",;:") }
	if t.singleForms[clean(tokens[i])] {
		return 1
	}
	for _, form := range t.multiForms {
		if i+len(form) > len(tokens) {
			continue
		}
		match := true
		for k, part := range form {
			if clean(tokens[i+k]) != part {
				match = false
				break
			}
		}
		if match {
			return len(form)
		}
	}
	return 0
}

func foldMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[Fold(k)] = v
	}
	return out
}

func foldSet(in []string) map[string]bool {
	out := make(map[string]bool, len(in))
	for _, v := range in {
		out[Fold(v)] = true
	}
	return out
}

func foldList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if f := Fold(v); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func containsAny(folded string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(folded, n) {
			return true
		}
	}
	return false
}

// containsPhrase reports whether needle occurs in s bounded by non-alphanumerics.
func containsPhrase(s, needle string) bool {
	for from := 0; from <= len(s)-len(needle); {
		idx := strings.Index(s[from:], needle)
		if idx < 0 {
			return false
		}
		start := from + idx
		end := start + len(needle)
		before, _ := utf8.DecodeLastRuneInString(s[:start])
		after, _ := utf8.DecodeRuneInString(s[end:])
		if (start == 0 || !isWordRune(before)) && (end == len(s) || !isWordRune(after)) {
			return true
		}
		from = start + 1
	}
	return false
}

func isWordRune(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }

// alternation quotes words longest first into a regexp alternation.
func alternation(words []string) string {
	sorted := slices.Clone(words)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	parts := make([]string, 0, len(sorted))
	for _, w := range sorted {
		if w = strings.TrimSpace(w); w != "" {
			parts = append(parts, strings.ReplaceAll(regexp.QuoteMeta(w), " ", `\s+`))
		}
	}
	return strings.Join(parts, "|")
}

// markerRegexp builds a case-insensitive matcher for the given markers,
// anchored on word boundaries where the marker starts or ends with a letter.
func markerRegexp(markers []string) *regexp.Regexp {
	sorted := slices.Clone(markers)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	parts := make([]string, 0, len(sorted))
	for _, m := range sorted {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		p := strings.ReplaceAll(regexp.QuoteMeta(m), " ", `\s+`)
		if first, _ := utf8.DecodeRuneInString(m); isWordRune(first) {
			p = `\b` + p
		}
		if last, _ := utf8.DecodeLastRuneInString(m); isWordRune(last) {
			p += `\b`
		}
		parts = append(parts, p)
	}
	if len(parts) == 0 {
		return regexp.MustCompile(`$^`)
	}
	return regexp.MustCompile(`(?i)(?:` + strings.Join(parts, "|") + `)`)
}

func cloneData(d Data) Data {
	return Data{
		Version:               d.Version,
		ClientAliases:         maps.Clone(d.ClientAliases),
		ClientCodes:           maps.Clone(d.ClientCodes),
		InternalCodeAddresses: maps.Clone(d.InternalCodeAddresses),
		OrderCodeAddresses:    maps.Clone(d.OrderCodeAddresses),
		ArticleCodes:          slices.Clone(d.ArticleCodes),
		ExcludedOrderWords:    slices.Clone(d.ExcludedOrderWords),
		Units:                 slices.Clone(d.Units),
		CompanyForms:          slices.Clone(d.CompanyForms),
		StreetTypes:           slices.Clone(d.StreetTypes),
		LocalityQualifiers:    slices.Clone(d.LocalityQualifiers),
		IssuerKeywords:        slices.Clone(d.IssuerKeywords),
		IssuerVATNumbers:      slices.Clone(d.IssuerVATNumbers),
		CarrierKeywords:       slices.Clone(d.CarrierKeywords),
		CarrierMarkers:        slices.Clone(d.CarrierMarkers),
		DeliveryMarkers:       slices.Clone(d.DeliveryMarkers),
		CustomerMarkers:       slices.Clone(d.CustomerMarkers),
		AdditionalInfoMarkers: slices.Clone(d.AdditionalInfoMarkers),
		VATRates:              slices.Clone(d.VATRates),
		DefaultVATRate:        d.DefaultVATRate,
		DefaultUnit:           d.DefaultUnit,
	}
}
