package aggregator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func pageHandler(t *testing.T, pages map[string]syncResponse) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transactions/sync" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req syncRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		page, ok := pages[req.Cursor]
		if !ok {
			t.Fatalf("no page for cursor %q", req.Cursor)
		}
		json.NewEncoder(w).Encode(page)
	}
}

func TestSync_FollowsCursorAcrossPages(t *testing.T) {
	pages := map[string]syncResponse{
		"": {
			Added:      []AddedTransaction{{TransactionID: "t1", Date: "2024-12-01", Amount: -10}},
			NextCursor: "c1",
			HasMore:    true,
		},
		"c1": {
			Added:      []AddedTransaction{{TransactionID: "t2", Date: "2024-12-02", Amount: -20}},
			NextCursor: "c2",
			HasMore:    false,
		},
	}
	srv := httptest.NewServer(pageHandler(t, pages))
	defer srv.Close()

	result, err := NewClient(srv.URL).Sync(context.Background(), "token", "", 0)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if len(result.Added) != 2 {
		t.Fatalf("got %d items, want 2", len(result.Added))
	}
	if result.NextCursor != "c2" {
		t.Errorf("next cursor = %q, want c2", result.NextCursor)
	}
}

func TestSync_StopsAtMaxRecords(t *testing.T) {
	pages := map[string]syncResponse{
		"": {
			Added:      []AddedTransaction{{TransactionID: "t1", Date: "2024-12-01"}, {TransactionID: "t2", Date: "2024-12-01"}},
			NextCursor: "c1",
			HasMore:    true,
		},
		// Never requested: the cap is hit after the first page.
	}
	srv := httptest.NewServer(pageHandler(t, pages))
	defer srv.Close()

	result, err := NewClient(srv.URL).Sync(context.Background(), "token", "", 2)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if len(result.Added) != 2 {
		t.Errorf("got %d items, want 2", len(result.Added))
	}
	if result.NextCursor != "c1" {
		t.Errorf("next cursor = %q, want c1 so the next run resumes", result.NextCursor)
	}
}

func TestSync_MidLoopErrorAbortsWholeCall(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			json.NewEncoder(w).Encode(syncResponse{
				Added:      []AddedTransaction{{TransactionID: "t1", Date: "2024-12-01"}},
				NextCursor: "c1",
				HasMore:    true,
			})
			return
		}
		http.Error(w, "upstream broke", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Sync(context.Background(), "token", "", 0)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestAddedTransaction_Candidate(t *testing.T) {
	item := AddedTransaction{
		TransactionID: "t1",
		Date:          "2024-12-14",
		Description:   "",
		Amount:        -23.5,
		Pending:       true,
	}

	c, err := item.Candidate()
	if err != nil {
		t.Fatalf("Candidate failed: %v", err)
	}
	if c.ExternalID != "t1" {
		t.Errorf("external id = %q, want t1", c.ExternalID)
	}
	if c.Description != "(no description)" {
		t.Errorf("description = %q, want placeholder", c.Description)
	}
	if !c.Pending {
		t.Error("pending flag lost")
	}
	if c.Amount.String() != "-23.5" {
		t.Errorf("amount = %s, want signed -23.5", c.Amount)
	}
}

func TestAddedTransaction_CandidateRejectsMissingID(t *testing.T) {
	item := AddedTransaction{Date: "2024-12-14", Description: "x", Amount: 1}
	if _, err := item.Candidate(); err == nil {
		t.Fatal("expected error for missing transaction id")
	}
}
