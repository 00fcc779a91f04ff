package intelligence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-ddt-reader/internal/document"
)

func TestClassify(t *testing.T) {
	dc := NewDocumentClassifier()

	tests := []struct {
		name string
		text string
		want document.Kind
	}{
		{
			name: "delivery note",
			text: "DDT N. 123 del 01/02/2024\nLuogo di consegna\nVettore: SAFIM",
			want: document.KindDeliveryNote,
		},
		{
			name: "invoice quoting a delivery note",
			text: "FATTURA N. 45 del 03/02/2024\nRif. DDT 123\nScadenza 30 gg",
			want: document.KindInvoice,
		},
		{
			name: "credit note quoting an invoice",
			text: "NOTA DI CREDITO N. 7\nRif. fattura 45 del 03/02/2024",
			want: document.KindCreditNote,
		},
		{
			name: "unrelated text",
			text: "Lorem ipsum dolor sit amet",
			want: document.KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dc.Classify(tt.text)
			assert.Equal(t, tt.want, got.Kind)
			if tt.want == document.KindUnknown {
				assert.False(t, got.Recognized())
				assert.Zero(t, got.Confidence)
				return
			}
			assert.True(t, got.Recognized())
			assert.Greater(t, got.Confidence, 0.0)
			assert.LessOrEqual(t, got.Confidence, 1.0)
			assert.NotEmpty(t, got.Reasons)
		})
	}
}

func TestClassifyTieGoesToInvoice(t *testing.T) {
	got := NewDocumentClassifier().Classify("DDT\nFATTURA")
	assert.Equal(t, document.KindInvoice, got.Kind)
	require.Len(t, got.Alternatives, 1)
	assert.Equal(t, document.KindDeliveryNote, got.Alternatives[0].Kind)
	assert.InDelta(t, 0.5, got.Confidence, 1e-9)
}

func TestSingleKeywordIsNotEnough(t *testing.T) {
	got := NewDocumentClassifier().Classify("vettore")
	assert.Equal(t, document.KindUnknown, got.Kind)
	assert.Empty(t, got.RulesApplied)
}

func TestCustomRules(t *testing.T) {
	_, err := NewDocumentClassifierWithRules(DefaultClassificationConfig(), []ClassificationRule{
		{Name: "broken", Kind: document.KindInvoice, KeywordPatterns: []string{"("}, Enabled: true},
	})
	require.Error(t, err)

	dc, err := NewDocumentClassifierWithRules(DefaultClassificationConfig(), []ClassificationRule{
		{Name: "off", Kind: document.KindInvoice, KeywordPatterns: []string{"X"}, Enabled: false},
		{Name: "b", Kind: document.KindDeliveryNote, KeywordPatterns: []string{`\bBOLLA\b`}, Weight: 1, Priority: 2, Enabled: true},
		{Name: "a", Kind: document.KindCreditNote, KeywordPatterns: []string{`\bRESO\b`}, Weight: 1, Priority: 1, Enabled: true},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, dc.Rules())
	assert.Equal(t, document.KindDeliveryNote, dc.Classify("Bolla di accompagnamento").Kind)
}
