package patterns

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const tablesSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "definitions": {
    "stringMap": {"type": "object", "additionalProperties": {"type": "string", "minLength": 1}},
    "stringList": {"type": "array", "items": {"type": "string", "minLength": 1}}
  },
  "properties": {
    "version": {"type": "string"},
    "client_aliases": {"$ref": "#/definitions/stringMap"},
    "client_codes": {"$ref": "#/definitions/stringMap"},
    "internal_code_addresses": {"$ref": "#/definitions/stringMap"},
    "order_code_addresses": {"$ref": "#/definitions/stringMap"},
    "article_codes": {"$ref": "#/definitions/stringList"},
    "excluded_order_words": {"$ref": "#/definitions/stringList"},
    "units": {"$ref": "#/definitions/stringList"},
    "company_forms": {"$ref": "#/definitions/stringList"},
    "street_types": {"$ref": "#/definitions/stringList"},
    "locality_qualifiers": {"$ref": "#/definitions/stringList"},
    "issuer_keywords": {"$ref": "#/definitions/stringList"},
    "issuer_vat_numbers": {"type": "array", "items": {"type": "string", "pattern": "^[0-9]{11}$"}},
    "carrier_keywords": {"$ref": "#/definitions/stringList"},
    "carrier_markers": {"$ref": "#/definitions/stringList"},
    "delivery_markers": {"$ref": "#/definitions/stringList"},
    "customer_markers": {"$ref": "#/definitions/stringList"},
    "additional_info_markers": {"$ref": "#/definitions/stringList"},
    "vat_rates": {"type": "array", "items": {"type": "integer", "minimum": 0, "maximum": 100}},
    "default_vat_rate": {"type": "integer", "minimum": 0, "maximum": 100},
    "default_unit": {"type": "string", "minLength": 1}
  }
}`

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("tables.schema.json", strings.NewReader(tablesSchema)); err != nil {
		panic(fmt.Sprintf("add tables schema: %v", err))
	}
	schema, err := compiler.Compile("tables.schema.json")
	if err != nil {
		panic(fmt.Sprintf("compile tables schema: %v", err))
	}
	return schema
}

// Load reads a JSON overlay from path and merges it over the built-in tables.
func Load(path string) (*Tables, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tables %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse validates a JSON overlay and merges it over the built-in tables.
// Maps are merged key by key; lists and scalars replace the defaults when set.
func Parse(raw []byte) (*Tables, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode tables: %w", err)
	}
	if err := compiledSchema.Validate(v); err != nil {
		return nil, fmt.Errorf("tables do not match schema: %w", err)
	}

	var overlay Data
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&overlay); err != nil {
		return nil, fmt.Errorf("decode tables: %w", err)
	}
	return New(Merge(DefaultData(), overlay))
}

// Merge returns base with overlay applied.
func Merge(base, overlay Data) Data {
	out := cloneData(base)
	if overlay.Version != "" {
		out.Version = overlay.Version
	}
	out.ClientAliases = mergeMap(out.ClientAliases, overlay.ClientAliases)
	out.ClientCodes = mergeMap(out.ClientCodes, overlay.ClientCodes)
	out.InternalCodeAddresses = mergeMap(out.InternalCodeAddresses, overlay.InternalCodeAddresses)
	out.OrderCodeAddresses = mergeMap(out.OrderCodeAddresses, overlay.OrderCodeAddresses)

	replace := func(dst *[]string, src []string) {
		if len(src) > 0 {
			*dst = append([]string(nil), src...)
		}
	}
	replace(&out.ArticleCodes, overlay.ArticleCodes)
	replace(&out.ExcludedOrderWords, overlay.ExcludedOrderWords)
	replace(&out.Units, overlay.Units)
	replace(&out.CompanyForms, overlay.CompanyForms)
	replace(&out.StreetTypes, overlay.StreetTypes)
	replace(&out.LocalityQualifiers, overlay.LocalityQualifiers)
	replace(&out.IssuerKeywords, overlay.IssuerKeywords)
	replace(&out.IssuerVATNumbers, overlay.IssuerVATNumbers)
	replace(&out.CarrierKeywords, overlay.CarrierKeywords)
	replace(&out.CarrierMarkers, overlay.CarrierMarkers)
	replace(&out.DeliveryMarkers, overlay.DeliveryMarkers)
	replace(&out.CustomerMarkers, overlay.CustomerMarkers)
	replace(&out.AdditionalInfoMarkers, overlay.AdditionalInfoMarkers)

	if len(overlay.VATRates) > 0 {
		out.VATRates = append([]int(nil), overlay.VATRates...)
	}
	if overlay.DefaultVATRate != 0 {
		out.DefaultVATRate = overlay.DefaultVATRate
	}
	if overlay.DefaultUnit != "" {
		out.DefaultUnit = overlay.DefaultUnit
	}
	return out
}

func mergeMap(base, overlay map[string]string) map[string]string {
	out := maps.Clone(base)
	if out == nil {
		out = make(map[string]string, len(overlay))
	}
	maps.Copy(out, overlay)
	return out
}
