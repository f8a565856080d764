package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/avolkov/finledger/internal/domain"
)

func TestWriteDomainError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"input rejected", domain.InputRejected("document exceeds 10485760 bytes"), http.StatusBadRequest, "document exceeds 10485760 bytes"},
		{"authorization", domain.AuthorizationFailure("account acc-1"), http.StatusForbidden, "account acc-1 does not belong to caller"},
		{"validation", domain.ValidationFailure("bad batch"), http.StatusUnprocessableEntity, "bad batch"},
		{"extraction", domain.ExtractionFailure("unparseable-response", "raw payload"), http.StatusBadGateway, "unparseable-response"},
		{"unknown", errors.New("disk full"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteDomainError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["error"] != tt.wantBody {
				t.Errorf("error = %q, want %q", body["error"], tt.wantBody)
			}
		})
	}
}

func TestWriteDomainError_ExcerptStaysOutOfResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteDomainError(rec, domain.ExtractionFailure("unparseable-response", "ACME GmbH account 123 balance 9999"))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if body := rec.Body.String(); strings.Contains(body, "ACME") || strings.Contains(body, "9999") {
		t.Errorf("response leaked payload content: %s", body)
	}
}
