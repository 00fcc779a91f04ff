package intelligence

import "github.com/a3tai/mcp-ddt-reader/internal/document"

// getDefaultRules returns the default set of classification rules
func getDefaultRules() []ClassificationRule {
	return []ClassificationRule{
		// Credit note rules
		{
			Name:     "credit_note_signature",
			Kind:     document.KindCreditNote,
			Category: "signature",
			KeywordPatterns: []string{
				`\bNOTA\s+(?:DI\s+)?CREDITO\b`,
				`\bN\.\s*C\.\s+N[°.]`,
			},
			Keywords: []string{
				"a storno", "storno", "reso merce", "rif. fattura", "rif. ns. fattura",
			},
			Weight:        1.0,
			MinConfidence: 0.3,
			Priority:      1,
			Enabled:       true,
			Description:   "Identifies credit notes by their title",
		},

		// Invoice rules
		{
			Name:     "invoice_signature",
			Kind:     document.KindInvoice,
			Category: "signature",
			KeywordPatterns: []string{
				`(?m)^\s*FATTURA\b`,
				`\bFATT(?:URA|\.)\s*N[°.R]*\.?\s*\d`,
				`(?m)^\s*FT\s+(?:N[°.]?\s*)?\d`,
			},
			Keywords: []string{
				"totale fattura", "scadenza", "scadenze", "iban", "modalita' di pagamento",
				"imponibile", "split payment",
			},
			Weight:        0.9,
			MinConfidence: 0.3,
			Priority:      2,
			Enabled:       true,
			Description:   "Identifies invoices by title and payment terms",
		},

		// Delivery note rules
		{
			Name:     "delivery_note_signature",
			Kind:     document.KindDeliveryNote,
			Category: "signature",
			KeywordPatterns: []string{
				`\bDDT\b`,
				`\bD\.D\.T\.?`,
				`\bDOCUMENTO\s+DI\s+TRASPORTO\b`,
				`\bCAUSALE\s+(?:DEL\s+)?TRASPORTO\b`,
			},
			Keywords: []string{
				"luogo di consegna", "vettore", "aspetto esteriore", "trasporto a cura",
				"n. colli", "peso lordo", "data ritiro", "firma conducente",
			},
			Weight:        0.9,
			MinConfidence: 0.3,
			Priority:      3,
			Enabled:       true,
			Description:   "Identifies transport documents by title and shipping fields",
		},
	}
}
