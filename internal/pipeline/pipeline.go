// Package pipeline wires classification, field extraction, resolution and
// normalization into a single Extract call.
package pipeline

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/a3tai/mcp-ddt-reader/internal/document"
	"github.com/a3tai/mcp-ddt-reader/internal/extract"
	"github.com/a3tai/mcp-ddt-reader/internal/intelligence"
	"github.com/a3tai/mcp-ddt-reader/internal/layout"
	"github.com/a3tai/mcp-ddt-reader/internal/normalize"
	"github.com/a3tai/mcp-ddt-reader/internal/patterns"
	"github.com/a3tai/mcp-ddt-reader/internal/resolve"
)

// idNamespace scopes document ids.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/a3tai/mcp-ddt-reader/document"))

// headerOnlyConfidence is reported when the header names a kind the
// classifier did not score.
const headerOnlyConfidence = 0.5

// Options configures a Pipeline. Zero values select the defaults.
type Options struct {
	Tables            *patterns.Tables
	Classifier        *intelligence.DocumentClassifier
	AddressStrategies []resolve.Strategy[document.Address]
	ClientStrategies  []resolve.Strategy[resolve.ClientName]
	Threshold         float64
	Logger            *slog.Logger
}

// Pipeline extracts documents. It is immutable after New and safe for
// concurrent use.
type Pipeline struct {
	tables     *patterns.Tables
	classifier *intelligence.DocumentClassifier
	splitter   *layout.Splitter
	normalizer *normalize.Normalizer
	address    []resolve.Strategy[document.Address]
	client     []resolve.Strategy[resolve.ClientName]
	threshold  float64
	logger     *slog.Logger
}

// New builds a Pipeline from opts.
func New(opts Options) *Pipeline {
	p := &Pipeline{
		tables:     opts.Tables,
		classifier: opts.Classifier,
		address:    opts.AddressStrategies,
		client:     opts.ClientStrategies,
		threshold:  opts.Threshold,
		logger:     opts.Logger,
	}
	if p.tables == nil {
		p.tables = patterns.Default()
	}
	if p.classifier == nil {
		p.classifier = intelligence.NewDocumentClassifier()
	}
	if p.address == nil {
		p.address = resolve.DefaultAddressStrategies()
	}
	if p.client == nil {
		p.client = resolve.DefaultClientStrategies()
	}
	if p.threshold <= 0 {
		p.threshold = resolve.DefaultThreshold
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.splitter = layout.NewSplitter(p.tables)
	p.normalizer = normalize.New(p.tables)
	return p
}

// NewNamed is New with the resolver strategies picked by name. Empty name
// lists keep the default order.
func NewNamed(opts Options, addressOrder, clientOrder []string) (*Pipeline, error) {
	addr, err := resolve.AddressStrategies(addressOrder)
	if err != nil {
		return nil, fmt.Errorf("address strategies: %w", err)
	}
	client, err := resolve.ClientStrategies(clientOrder)
	if err != nil {
		return nil, fmt.Errorf("client strategies: %w", err)
	}
	opts.AddressStrategies = addr
	opts.ClientStrategies = client
	return New(opts), nil
}

// Strategies returns the address and client-name strategy names in order.
func (p *Pipeline) Strategies() (address, client []string) {
	for _, s := range p.address {
		address = append(address, s.Name())
	}
	for _, s := range p.client {
		client = append(client, s.Name())
	}
	return address, client
}

// Tables returns the lookup tables in use.
func (p *Pipeline) Tables() *patterns.Tables { return p.tables }

// Threshold returns the resolver confidence threshold.
func (p *Pipeline) Threshold() float64 { return p.threshold }

// Extract produces a document from text and optional positional rows. When
// text is empty the rows supply it. The error is a *document.ExtractionFailure
// when no header can be recognized.
func (p *Pipeline) Extract(text, fileName string, rows []layout.Row) (*document.Document, error) {
	if strings.TrimSpace(text) == "" && len(rows) > 0 {
		text = strings.Join(layout.Lines(rows), "\n")
	}
	lines := splitLines(text)

	cls := p.classifier.Classify(text)
	id, ok := extract.FindIdentity(lines, cls.Kind)
	if !ok {
		var err *document.ExtractionFailure
		if cls.Recognized() {
			err = document.NewFailure(document.ReasonNoNumber, fileName, cls.Kind,
				"%s recognized but no header carries a number", cls.Kind)
		} else {
			err = document.NewFailure(document.ReasonUnrecognizedType, fileName, document.KindUnknown,
				"no document header found in %d lines", len(lines))
		}
		p.logger.Info("extract.failed", "file", fileName, "reason", err.Reason, "kind", cls.Kind)
		return nil, err
	}

	fn, _ := extract.ParseFileName(fileName)
	clientCode := extract.FindClientCode(lines)
	if clientCode == "" {
		clientCode = id.CustomerCode
	}
	if clientCode == "" {
		clientCode = fn.CustomerCode
	}

	fiscal := extract.FindFiscal(lines, p.tables)
	order := extract.FindOrderReference(lines, p.tables, id.Number)

	in := &resolve.Input{
		Lines:          lines,
		Rows:           rows,
		FileName:       fileName,
		ClientCode:     clientCode,
		InternalCode:   fn.InternalCode,
		OrderReference: order.Value,
		Tables:         p.tables,
		Splitter:       p.splitter,
	}
	addrRes := resolve.Run(p.address, in, p.threshold)
	nameRes := resolve.Run(p.client, in, p.threshold)

	items, itemFlags := p.normalizer.Items(extract.FindItems(lines, p.tables))
	totals, totalFlags := p.normalizer.Totals(extract.FindTotals(lines), items)

	doc := &document.Document{
		ID:             DocumentID(text, fileName),
		FileName:       fileName,
		Kind:           id.Kind,
		KindConfidence: kindConfidence(cls, id.Kind),
		Number:         id.Number,
		Date:           id.Date,
		DeliveryDate:   extract.DeliveryDate(lines),
		OrderReference: order.Value,
		LineItems:      items,
		Totals:         totals,
		TablesVersion:  p.tables.Version(),
		Client: document.Client{
			Code:      clientCode,
			VATNumber: fiscal.VATNumber,
			TaxCode:   fiscal.TaxCode,
		},
	}
	if doc.Date == "" {
		doc.Date = fileNameDate(fn.Date)
	}

	if nameRes.Found() {
		doc.Client.RawName = nameRes.Value.Raw
		doc.Client.CanonicalName = p.normalizer.CanonicalName(nameRes.Value.Raw)
		doc.Client.NameStrategy = nameRes.Strategy
		doc.Client.NameConfidence = nameRes.Confidence
		doc.Client.Synthetic = nameRes.Value.Synthetic
		if nameRes.Value.Synthetic {
			doc.Flags = append(doc.Flags, document.Flag{
				Code: document.FlagSyntheticClient, Field: "client.raw_name",
				Message: fmt.Sprintf("name built from customer code %s", fn.CustomerCode),
			})
		}
	}
	doc.Unresolved, doc.Flags = noteResolution(doc.Unresolved, doc.Flags, "client.raw_name", nameRes.State, nameRes.Reason, nameRes.Confidence)

	if addrRes.Found() {
		addr := addrRes.Value
		addr.SourceConfidence = addrRes.Confidence
		addr.SourceStrategy = addrRes.Strategy
		addr.LowConfidence = addrRes.LowConfidence
		doc.DeliveryAddress = &addr
	}
	doc.Unresolved, doc.Flags = noteResolution(doc.Unresolved, doc.Flags, "delivery_address", addrRes.State, addrRes.Reason, addrRes.Confidence)

	doc.Flags = append(doc.Flags, itemFlags...)
	doc.Flags = append(doc.Flags, totalFlags...)

	p.logger.Debug("extract.ok",
		"file", fileName,
		"kind", doc.Kind,
		"number", doc.Number,
		"items", len(doc.LineItems),
		"address_strategy", addrRes.Strategy,
		"client_strategy", nameRes.Strategy,
		"flags", len(doc.Flags),
	)
	return doc, nil
}

// noteResolution records unresolved and low-confidence fields.
func noteResolution(un []document.Unresolved, flags []document.Flag, field string, state resolve.State, reason string, conf float64) ([]document.Unresolved, []document.Flag) {
	if reason == "" {
		return un, flags
	}
	un = append(un, document.Unresolved{Field: field, Reason: reason})
	if state == resolve.Resolved {
		flags = append(flags, document.Flag{
			Code: document.FlagLowConfidence, Field: field,
			Message: fmt.Sprintf("best candidate scored %.2f", conf),
		})
	}
	return un, flags
}

func kindConfidence(cls intelligence.Classification, kind document.Kind) float64 {
	if cls.Kind == kind {
		return cls.Confidence
	}
	for _, alt := range cls.Alternatives {
		if alt.Kind == kind {
			return alt.Confidence
		}
	}
	return headerOnlyConfidence
}

// DocumentID derives the deterministic id of a document from its input.
func DocumentID(text, fileName string) string {
	return uuid.NewSHA1(idNamespace, []byte(fileName+"\x00"+text)).String()
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t\r")
	}
	return lines
}

// fileNameDate turns the YYYYMMDD stamp of a conventional file name into ISO form.
func fileNameDate(s string) string {
	if len(s) != 8 {
		return ""
	}
	iso, ok := extract.NormalizeDate(s[6:8] + "/" + s[4:6] + "/" + s[0:4])
	if !ok {
		return ""
	}
	return iso
}
