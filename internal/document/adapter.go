// Package document turns a size-capped, mime-allow-listed statement document
// into schema-valid candidates via the extraction model.
package document

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"

	"github.com/avolkov/finledger/internal/domain"
	"github.com/avolkov/finledger/internal/extract"
)

const truncationMarker = "\n[truncated]"

var allowedMIMETypes = map[string]bool{
	"application/pdf": true,
}

// Adapter gates, extracts and submits statement documents.
type Adapter struct {
	model    extract.Caller
	maxBytes int64
	minChars int
	maxChars int
	log      zerolog.Logger
}

// NewAdapter builds a document adapter with the configured gates.
func NewAdapter(model extract.Caller, maxBytes int64, minChars, maxChars int, log zerolog.Logger) *Adapter {
	return &Adapter{
		model:    model,
		maxBytes: maxBytes,
		minChars: minChars,
		maxChars: maxChars,
		log:      log,
	}
}

// Parse runs the full document path: gate, extract text, call the model,
// repair and validate. Rejections happen before any expensive parsing.
func (a *Adapter) Parse(ctx context.Context, data []byte, mimeType string) (*extract.Result, error) {
	text, err := a.StatementText(data, mimeType)
	if err != nil {
		return nil, err
	}

	raw, err := a.model.Extract(ctx, extract.StatementPrompt(), text)
	if err != nil {
		return nil, err
	}
	return extract.Parse(raw, a.log)
}

// StatementText gates the input and extracts the text layer. A document whose
// text layer falls below the viability threshold is rejected without a model
// call — that is the scanned-image case.
func (a *Adapter) StatementText(data []byte, mimeType string) (string, error) {
	if int64(len(data)) > a.maxBytes {
		return "", domain.InputRejected(fmt.Sprintf("document exceeds %d bytes", a.maxBytes))
	}
	if !allowedMIMETypes[strings.ToLower(strings.TrimSpace(mimeType))] {
		return "", domain.InputRejected("unsupported mime type " + mimeType)
	}

	text, err := extractPDFText(data)
	if err != nil {
		return "", domain.ExtractionFailure("document-parse-failed", err.Error())
	}
	return a.prepareText(text)
}

// prepareText applies the viability threshold and the character budget to an
// extracted text layer.
func (a *Adapter) prepareText(text string) (string, error) {
	if len(text) < a.minChars {
		return "", domain.ExtractionFailure("document-not-viable", "")
	}
	if len(text) > a.maxChars {
		// Back off to a rune boundary so the cut never splits a multi-byte
		// character.
		cut := a.maxChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + truncationMarker
	}
	return text, nil
}

// extractPDFText concatenates the plain text of every page.
func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// Pages without a text layer contribute nothing; the viability
			// threshold catches fully scanned documents.
			continue
		}
		b.WriteString(pageText)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String()), nil
}
