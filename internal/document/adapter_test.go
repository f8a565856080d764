package document

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/avolkov/finledger/internal/domain"
)

type mockCaller struct {
	ExtractFunc func(ctx context.Context, prompt, statement string) (string, error)
	calls       int
}

func (m *mockCaller) Extract(ctx context.Context, prompt, statement string) (string, error) {
	m.calls++
	return m.ExtractFunc(ctx, prompt, statement)
}

func newTestAdapter(model *mockCaller) *Adapter {
	return NewAdapter(model, 1024, 100, 20000, zerolog.Nop())
}

func TestStatementText_GatesBeforeModelCall(t *testing.T) {
	model := &mockCaller{ExtractFunc: func(ctx context.Context, prompt, statement string) (string, error) {
		return "", nil
	}}
	adapter := newTestAdapter(model)

	tests := []struct {
		name string
		data []byte
		mime string
	}{
		{"oversized", make([]byte, 2048), "application/pdf"},
		{"wrong mime", []byte("%PDF-1.4"), "image/png"},
		{"empty mime", []byte("%PDF-1.4"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := adapter.Parse(context.Background(), tt.data, tt.mime)
			if !errors.Is(err, domain.ErrInputRejected) {
				t.Fatalf("err = %v, want ErrInputRejected", err)
			}
		})
	}
	if model.calls != 0 {
		t.Errorf("model called %d times for rejected input, want 0", model.calls)
	}
}

func TestStatementText_MimeTypeIsCaseInsensitive(t *testing.T) {
	adapter := newTestAdapter(&mockCaller{})

	// Garbage bytes under the right mime type reach the PDF parser and fail
	// there, not at the gate.
	_, err := adapter.StatementText([]byte("not a pdf"), " Application/PDF ")
	if errors.Is(err, domain.ErrInputRejected) {
		t.Fatalf("err = %v, want the gate to pass this mime type", err)
	}
	if !errors.Is(err, domain.ErrExtraction) {
		t.Fatalf("err = %v, want ErrExtraction from the parser", err)
	}
}

func TestPrepareText_ViabilityThreshold(t *testing.T) {
	adapter := newTestAdapter(&mockCaller{})

	_, err := adapter.prepareText("just a few words")
	if !errors.Is(err, domain.ErrExtraction) {
		t.Fatalf("err = %v, want ErrExtraction", err)
	}
	var reasoned *domain.ReasonError
	if !errors.As(err, &reasoned) {
		t.Fatalf("err = %T, want *domain.ReasonError", err)
	}
	if reasoned.Reason != "document-not-viable" {
		t.Errorf("reason = %q, want document-not-viable", reasoned.Reason)
	}
}

func TestPrepareText_TruncatesOversizedTextLayer(t *testing.T) {
	adapter := newTestAdapter(&mockCaller{})

	text, err := adapter.prepareText(strings.Repeat("x", 25000))
	if err != nil {
		t.Fatalf("prepareText failed: %v", err)
	}
	if len(text) != 20000+len(truncationMarker) {
		t.Errorf("length = %d, want budget plus marker", len(text))
	}
	if !strings.HasSuffix(text, truncationMarker) {
		t.Error("truncation marker missing")
	}
}

func TestPrepareText_TruncationKeepsRuneBoundary(t *testing.T) {
	adapter := newTestAdapter(&mockCaller{})

	// A multi-byte character straddles the cut point at 20000 bytes.
	in := strings.Repeat("x", 19999) + "日" + strings.Repeat("y", 6000)
	out, err := adapter.prepareText(in)
	if err != nil {
		t.Fatalf("prepareText failed: %v", err)
	}
	if !utf8.ValidString(out) {
		t.Error("truncated text is not valid UTF-8")
	}
	if !strings.HasSuffix(out, truncationMarker) {
		t.Error("truncation marker missing")
	}
	body := strings.TrimSuffix(out, truncationMarker)
	if strings.ContainsRune(body, '日') {
		t.Error("straddling rune survived the cut")
	}
	if len(body) != 19999 {
		t.Errorf("body length = %d, want 19999 after backing off the cut", len(body))
	}
}

func TestPrepareText_PassThroughWithinBudget(t *testing.T) {
	adapter := newTestAdapter(&mockCaller{})

	in := strings.Repeat("statement line\n", 20)
	out, err := adapter.prepareText(in)
	if err != nil {
		t.Fatalf("prepareText failed: %v", err)
	}
	if out != in {
		t.Error("in-budget text was altered")
	}
}
