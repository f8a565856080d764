package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy for ingestion runs. InputRejected, ExtractionFailure,
// ValidationFailure and AuthorizationError abort a run; per-record
// reconciliation failures are counted in the run summary instead.
var (
	ErrInputRejected = errors.New("input rejected")
	ErrExtraction    = errors.New("extraction failed")
	ErrValidation    = errors.New("validation failed")
	ErrAuthorization = errors.New("not authorized")
)

// MaxExcerptLen bounds diagnostic excerpts so financial content is never
// echoed verbatim beyond a short preview.
const MaxExcerptLen = 160

// ReasonError carries a short machine-readable reason and an optional bounded
// excerpt of the offending payload.
type ReasonError struct {
	Kind    error
	Reason  string
	Excerpt string
}

func (e *ReasonError) Error() string {
	if e.Excerpt != "" {
		return fmt.Sprintf("%s: %s (excerpt: %q)", e.Kind, e.Reason, e.Excerpt)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *ReasonError) Unwrap() error { return e.Kind }

// InputRejected builds an ErrInputRejected with the given reason.
func InputRejected(reason string) error {
	return &ReasonError{Kind: ErrInputRejected, Reason: reason}
}

// ExtractionFailure builds an ErrExtraction with a reason and a bounded
// excerpt of the raw payload for server-side diagnostics.
func ExtractionFailure(reason, payload string) error {
	return &ReasonError{Kind: ErrExtraction, Reason: reason, Excerpt: BoundExcerpt(payload)}
}

// ValidationFailure builds an ErrValidation with the given reason.
func ValidationFailure(reason string) error {
	return &ReasonError{Kind: ErrValidation, Reason: reason}
}

// AuthorizationFailure builds an ErrAuthorization for a resource the caller
// does not own.
func AuthorizationFailure(resource string) error {
	return &ReasonError{Kind: ErrAuthorization, Reason: resource + " does not belong to caller"}
}

// BoundExcerpt truncates s to MaxExcerptLen runes.
func BoundExcerpt(s string) string {
	runes := []rune(s)
	if len(runes) <= MaxExcerptLen {
		return s
	}
	return string(runes[:MaxExcerptLen]) + "..."
}
