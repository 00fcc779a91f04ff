package resolve

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-ddt-reader/internal/document"
	"github.com/a3tai/mcp-ddt-reader/internal/layout"
	"github.com/a3tai/mcp-ddt-reader/internal/patterns"
)

type fakeStrategy struct {
	name string
	conf float64
	ok   bool
}

func (f fakeStrategy) Name() string { return f.name }

func (f fakeStrategy) Resolve(*Input) (Candidate[string], bool) {
	if !f.ok {
		return Candidate[string]{}, false
	}
	return Candidate[string]{Value: f.name, Confidence: f.conf}, true
}

func newInput(text string) *Input {
	tab := patterns.Default()
	return &Input{
		Lines:    strings.Split(text, "\n"),
		Tables:   tab,
		Splitter: layout.NewSplitter(tab),
	}
}

func TestRunFirstConfidentCandidateWins(t *testing.T) {
	res := Run([]Strategy[string]{
		fakeStrategy{name: "none"},
		fakeStrategy{name: "good", conf: 0.8, ok: true},
		fakeStrategy{name: "better", conf: 0.95, ok: true},
	}, newInput(""), DefaultThreshold)

	assert.Equal(t, Resolved, res.State)
	assert.Equal(t, "good", res.Value)
	assert.Equal(t, "good", res.Strategy)
	assert.False(t, res.LowConfidence)
	assert.Empty(t, res.Reason)
	assert.Equal(t, 1, res.Step)
	assert.Equal(t, []Attempt{
		{Strategy: "none"},
		{Strategy: "good", Matched: true, Confidence: 0.8},
	}, res.Attempts)
}

func TestRunFallsBackToBestPartial(t *testing.T) {
	res := Run([]Strategy[string]{
		fakeStrategy{name: "weak", conf: 0.3, ok: true},
		fakeStrategy{name: "partial", conf: 0.5, ok: true},
		fakeStrategy{name: "none"},
	}, newInput(""), DefaultThreshold)

	assert.True(t, res.Found())
	assert.Equal(t, "partial", res.Value)
	assert.True(t, res.LowConfidence)
	assert.Equal(t, document.ReasonLowConfidence, res.Reason)
	assert.Len(t, res.Attempts, 3)
}

func TestRunExhausted(t *testing.T) {
	res := Run([]Strategy[string]{fakeStrategy{name: "a"}, fakeStrategy{name: "b"}}, newInput(""), DefaultThreshold)
	assert.False(t, res.Found())
	assert.Equal(t, Exhausted, res.State)
	assert.Equal(t, document.ReasonNoStrategyMatched, res.Reason)
	assert.Empty(t, res.Value)

	res = Run[string](nil, newInput(""), DefaultThreshold)
	assert.Equal(t, Exhausted, res.State)
	assert.Equal(t, -1, res.Step)
	assert.Equal(t, "exhausted", res.State.String())
}

func TestCleanName(t *testing.T) {
	tab := patterns.Default()
	tests := []struct {
		raw  string
		want string
	}{
		{"AZ. AGR. LA MANDRIA S.S. DI GOIA E. E CAPRA S. S.S.", "AZ. AGR. LA MANDRIA S.S."},
		{"ARUDI MIRELLA P.ZA DEL POPOLO, 3", "ARUDI MIRELLA"},
		{"PIEMONTE CARNI DI CALDERA MASSIMO & C. S.A.S.", "PIEMONTE CARNI DI CALDERA MASSIMO & C. S.A.S."},
		{"DONAC S.R.L. Tel. 0171 123456", "DONAC S.R.L."},
		{"BOREALE SRL VIA ROMA 5", "BOREALE SRL"},
		{"PIEMONTE CARNI", "PIEMONTE CARNI"},
		{"BOTTEGA DELLA CARNE.", "BOTTEGA DELLA CARNE"},
		{"ARDITI F.LLI S.R.L.", "ARDITI F.LLI S.R.L."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanName(tt.raw, tab), tt.raw)
	}
}

const vettoreText = `DDT 4521 21/05/2025
Spett.le          Luogo di consegna
DONAC S.R.L. DONAC S.R.L.
VIA MARGARITA, 8 LOC. TETTO GARETTO VIA SALUZZO, 65
12100 - CUNEO CN 12038 SAVIGLIANO CN
Vettore: S.A.F.I.M. SRL
VIA TORINO, 10
10088 VOLPIANO TO`

func vettoreRows() []layout.Row {
	return []layout.Row{
		{{Text: "DDT 4521 21/05/2025", X: 27}},
		{{Text: "Spett.le", X: 27}, {Text: "Luogo di consegna", X: 294}},
		{{Text: "DONAC S.R.L.", X: 39}, {Text: "DONAC S.R.L.", X: 309}},
		{{Text: "VIA MARGARITA, 8 LOC. TETTO GARETTO", X: 39}, {Text: "VIA SALUZZO, 65", X: 309}},
		{{Text: "12100 - CUNEO CN", X: 39}, {Text: "12038 SAVIGLIANO CN", X: 309}},
		{{Text: "Vettore", X: 27}, {Text: "S.A.F.I.M. SRL", X: 161}},
		{{Text: "VIA TORINO, 10", X: 39}},
		{{Text: "10088 VOLPIANO TO", X: 39}},
	}
}

func TestAddressFromPositionalRows(t *testing.T) {
	in := newInput("")
	in.Rows = vettoreRows()
	in.Lines = layout.Lines(in.Rows)

	res := Run(DefaultAddressStrategies(), in, DefaultThreshold)
	require.True(t, res.Found())
	assert.False(t, res.LowConfidence)
	assert.Equal(t, StrategyTwoColumn, res.Strategy)
	assert.InDelta(t, confPositional, res.Confidence, 1e-9)
	assert.Equal(t, document.Address{
		Street: "VIA SALUZZO, 65", PostalCode: "12038", City: "SAVIGLIANO", Province: "CN",
	}, res.Value)
}

func TestAddressFromTextColumns(t *testing.T) {
	res := Run(DefaultAddressStrategies(), newInput(vettoreText), DefaultThreshold)
	require.True(t, res.Found())
	assert.Equal(t, StrategyTwoColumn, res.Strategy)
	assert.InDelta(t, confTextColumns, res.Confidence, 1e-9)
	assert.Equal(t, "VIA SALUZZO, 65", res.Value.Street)
	assert.Equal(t, "12038", res.Value.PostalCode)
	assert.Equal(t, "SAVIGLIANO", res.Value.City)
	assert.Equal(t, "CN", res.Value.Province)
}

func TestAddressNeverSelectsCarrier(t *testing.T) {
	texts := map[string]string{
		"no delivery section": `DDT 1 01/01/2024
Spett.le
ROSSI MARIO
VIA NIZZA, 4
Vettore: GALLINO TRASPORTI
VIA TORINO, 10
10088 VOLPIANO TO`,
		"delivery section holds only the carrier": `DDT 1 01/01/2024
Luogo di consegna:
Vettore: GALLINO TRASPORTI
VIA TORINO, 10
10088 VOLPIANO TO`,
		"carrier keyword in the delivery window": `DDT 1 01/01/2024
Destinazione merce
SUPEJA TRASPORTI VIA TORINO, 10 10088 VOLPIANO TO`,
	}
	for name, text := range texts {
		t.Run(name, func(t *testing.T) {
			res := Run(DefaultAddressStrategies(), newInput(text), DefaultThreshold)
			assert.False(t, res.Found())
			assert.Equal(t, document.ReasonNoStrategyMatched, res.Reason)
		})
	}
}

func TestAddressFromKnownMapping(t *testing.T) {
	in := newInput("FATTURA 12 01/01/2024")
	in.InternalCode = "701179"
	res := Run(DefaultAddressStrategies(), in, DefaultThreshold)
	require.True(t, res.Found())
	assert.Equal(t, StrategyKnownMapping, res.Strategy)
	assert.Equal(t, document.Address{
		Street: "P.ZA DEL POPOLO, 3", PostalCode: "14046", City: "MOMBARUZZO", Province: "AT",
	}, res.Value)

	in = newInput("FATTURA 12 01/01/2024")
	in.OrderReference = "507A865AS02789"
	res = Run(DefaultAddressStrategies(), in, DefaultThreshold)
	require.True(t, res.Found())
	assert.Equal(t, "VIALE RISORGIMENTO, 162", res.Value.Street)
	assert.Equal(t, "CANELLI", res.Value.City)
}

func TestAddressFromSectionMarker(t *testing.T) {
	in := newInput(`Destinazione merce: PANETTERIA PISTONE RENZO
VIA ROMA, 12
INGR. RETRO
12038 SAVIGLIANO (CN)`)
	res := Run(DefaultAddressStrategies(), in, DefaultThreshold)
	require.True(t, res.Found())
	assert.Equal(t, StrategySectionMarker, res.Strategy)
	assert.Equal(t, document.Address{
		Street: "VIA ROMA, 12", PostalCode: "12038", City: "SAVIGLIANO", Province: "CN",
		AdditionalInfo: "INGR. RETRO",
	}, res.Value)

	res = Run(DefaultAddressStrategies(), newInput("Luogo di consegna\nVIA ROMA, 12"), DefaultThreshold)
	require.True(t, res.Found())
	assert.True(t, res.LowConfidence)
	assert.Equal(t, document.ReasonLowConfidence, res.Reason)
	assert.Equal(t, "VIA ROMA, 12", res.Value.Street)
	assert.Empty(t, res.Value.PostalCode)
}

func TestClientFromMarkerLine(t *testing.T) {
	res := Run(DefaultClientStrategies(), newInput(vettoreText), DefaultThreshold)
	require.True(t, res.Found())
	assert.Equal(t, StrategyMarkerLine, res.Strategy)
	assert.Equal(t, ClientName{Raw: "DONAC S.R.L."}, res.Value)

	res = Run(DefaultClientStrategies(), newInput("DDT 12345 15/01/2024\nCLIENTE: PIEMONTE CARNI\nP.IVA: 01522630056"), DefaultThreshold)
	require.True(t, res.Found())
	assert.Equal(t, "PIEMONTE CARNI", res.Value.Raw)

	res = Run(DefaultClientStrategies(), newInput("DDT 1 01/01/2024\nCLIENTE: DONAC S.R.L.\nVIA MARGARITA, 8"), DefaultThreshold)
	require.True(t, res.Found())
	assert.Equal(t, "DONAC S.R.L.", res.Value.Raw)

	res = Run(DefaultClientStrategies(), newInput("Destinatario\nAZ. AGR. LA MANDRIA S.S. DI GOIA E. E CAPRA S. S.S."), DefaultThreshold)
	require.True(t, res.Found())
	assert.Equal(t, "AZ. AGR. LA MANDRIA S.S.", res.Value.Raw)
}

func splitHeaderRows() []layout.Row {
	return []layout.Row{
		{{Text: "DDT 7 02/02/2025", X: 27}},
		{{Text: "Cliente", X: 27}, {Text: "Luogo di consegna", X: 294}},
		{{Text: "BAR SPORT DI ROSSI MARIO", X: 39}, {Text: "PANETTERIA PISTONE RENZO", X: 309}},
		{{Text: "VIA ROMA, 1", X: 39}, {Text: "VIA NIZZA, 4", X: 309}},
		{{Text: "12038 SAVIGLIANO CN", X: 39}, {Text: "12100 CUNEO CN", X: 309}},
	}
}

func TestClientFromPositionalRows(t *testing.T) {
	in := newInput("")
	in.Rows = splitHeaderRows()
	in.Lines = layout.Lines(in.Rows)

	res := Run(DefaultClientStrategies(), in, DefaultThreshold)
	require.True(t, res.Found())
	assert.Equal(t, StrategyMarkerLine, res.Strategy)
	assert.Equal(t, "BAR SPORT DI ROSSI MARIO", res.Value.Raw)

	addr := Run(DefaultAddressStrategies(), in, DefaultThreshold)
	require.True(t, addr.Found())
	assert.Equal(t, document.Address{
		Street: "VIA NIZZA, 4", PostalCode: "12100", City: "CUNEO", Province: "CN",
	}, addr.Value)

	in.Rows = vettoreRows()
	in.Lines = layout.Lines(in.Rows)
	res = Run(DefaultClientStrategies(), in, DefaultThreshold)
	require.True(t, res.Found())
	assert.Equal(t, "DONAC S.R.L.", res.Value.Raw)
}

func TestAddressSkipsCarrierColumnBesideMarker(t *testing.T) {
	want := document.Address{
		Street: "VIA ROMA, 1", PostalCode: "12038", City: "SAVIGLIANO", Province: "CN",
	}

	text := "Luogo di consegna   Vettore\nVIA ROMA, 1   VIA TORINO, 10\n12038 SAVIGLIANO CN   10088 VOLPIANO TO"
	res := Run(DefaultAddressStrategies(), newInput(text), DefaultThreshold)
	require.True(t, res.Found())
	assert.Equal(t, StrategyTwoColumn, res.Strategy)
	assert.Equal(t, want, res.Value)

	res = Run([]Strategy[document.Address]{SectionMarker{}}, newInput(text), DefaultThreshold)
	require.True(t, res.Found())
	assert.Equal(t, want, res.Value)

	in := newInput("")
	in.Rows = []layout.Row{
		{{Text: "Luogo di consegna", X: 27}, {Text: "Vettore", X: 294}},
		{{Text: "VIA ROMA, 1", X: 39}, {Text: "VIA TORINO, 10", X: 309}},
		{{Text: "12038 SAVIGLIANO CN", X: 39}, {Text: "10088 VOLPIANO TO", X: 309}},
	}
	in.Lines = layout.Lines(in.Rows)
	res = Run(DefaultAddressStrategies(), in, DefaultThreshold)
	require.True(t, res.Found())
	assert.Equal(t, StrategyTwoColumn, res.Strategy)
	assert.InDelta(t, confPositional, res.Confidence, 1e-9)
	assert.Equal(t, want, res.Value)
}

func TestClientMarkerLineRejectsNonNames(t *testing.T) {
	in := newInput(`Spett.le
Luogo di consegna
ALFIERI SPECIALITA' ALIMENTARI S.P.A.
12050 MAGLIANO ALFIERI CN`)
	_, ok := MarkerLine{}.Resolve(in)
	assert.False(t, ok)
}

func TestClientFromAliasTable(t *testing.T) {
	in := newInput("FATTURA 12 01/01/2024")
	in.ClientCode = "20283"
	res := Run(DefaultClientStrategies(), in, DefaultThreshold)
	require.True(t, res.Found())
	assert.Equal(t, StrategyAliasTable, res.Strategy)
	assert.Equal(t, "AZ. AGR. LA MANDRIA S.S.", res.Value.Raw)

	res = Run(DefaultClientStrategies(), newInput("FATTURA 12 01/01/2024\nMerce per Boreale SRL"), DefaultThreshold)
	require.True(t, res.Found())
	assert.Equal(t, "BOREALE SRL", res.Value.Raw)
	assert.InDelta(t, confAliasFound, res.Confidence, 1e-9)
}

func TestClientSynthesizedFromFileName(t *testing.T) {
	in := newInput("FATTURA 12 01/01/2024")
	in.FileName = "FTV_703446_2025_20999_4227_20250610.pdf"
	res := Run(DefaultClientStrategies(), in, DefaultThreshold)
	require.True(t, res.Found())
	assert.Equal(t, StrategyFileNameCode, res.Strategy)
	assert.Equal(t, ClientName{Raw: "Cliente 20999", Synthetic: true}, res.Value)
	assert.True(t, res.LowConfidence)
}

func TestStrategySelection(t *testing.T) {
	addr, err := AddressStrategies(nil)
	require.NoError(t, err)
	assert.Len(t, addr, 3)

	addr, err = AddressStrategies([]string{"section_marker", " two_column"})
	require.NoError(t, err)
	require.Len(t, addr, 2)
	assert.Equal(t, StrategySectionMarker, addr[0].Name())
	assert.Equal(t, StrategyTwoColumn, addr[1].Name())

	_, err = AddressStrategies([]string{"two_column", "two_column"})
	assert.Error(t, err)

	client, err := ClientStrategies([]string{"filename_code"})
	require.NoError(t, err)
	require.Len(t, client, 1)
	assert.Equal(t, StrategyFileNameCode, client[0].Name())

	_, err = ClientStrategies([]string{"guess"})
	assert.ErrorContains(t, err, `unknown strategy "guess"`)
}
