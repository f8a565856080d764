// Package aggregator consumes the bank aggregator's cursor-based incremental
// sync feed for linked accounts.
package aggregator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/avolkov/finledger/internal/domain"
)

// Client is a thin typed client for the aggregator API. It is constructed
// per call site with the base URL; the access credential is injected per
// request, never held as shared state.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an aggregator client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// AddedTransaction is one transaction reported by the incremental feed.
type AddedTransaction struct {
	TransactionID string  `json:"transaction_id"`
	Date          string  `json:"date"`
	Description   string  `json:"description"`
	Amount        float64 `json:"amount"` // negative = outflow
	Currency      string  `json:"currency"`
	CategoryHint  string  `json:"category_hint"`
	Pending       bool    `json:"pending"`
}

type syncRequest struct {
	AccessToken string `json:"access_token"`
	Cursor      string `json:"cursor,omitempty"`
}

type syncResponse struct {
	Added      []AddedTransaction `json:"added"`
	NextCursor string             `json:"next_cursor"`
	HasMore    bool               `json:"has_more"`
}

// SyncResult is the accumulated page set of one sync run.
type SyncResult struct {
	Added      []AddedTransaction
	NextCursor string
}

// Sync loops the incremental-sync endpoint from the given cursor until the
// API reports no further pages or maxRecords is reached, fetching pages
// strictly sequentially. A mid-loop error aborts the whole call so the
// caller never advances the cursor past an unfetched page.
func (c *Client) Sync(ctx context.Context, accessToken, cursor string, maxRecords int) (*SyncResult, error) {
	result := &SyncResult{NextCursor: cursor}

	for {
		page, err := c.syncPage(ctx, accessToken, result.NextCursor)
		if err != nil {
			return nil, err
		}

		result.Added = append(result.Added, page.Added...)
		result.NextCursor = page.NextCursor

		if !page.HasMore {
			return result, nil
		}
		if maxRecords > 0 && len(result.Added) >= maxRecords {
			// Remainder is picked up on the next run; the cursor makes the
			// loop resumable.
			return result, nil
		}
	}
}

func (c *Client) syncPage(ctx context.Context, accessToken, cursor string) (*syncResponse, error) {
	body, err := json.Marshal(syncRequest{AccessToken: accessToken, Cursor: cursor})
	if err != nil {
		return nil, fmt.Errorf("aggregator.syncPage: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/transactions/sync", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("aggregator.syncPage: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("aggregator.syncPage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("aggregator.syncPage: status %d: %s", resp.StatusCode, preview)
	}

	var page syncResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("aggregator.syncPage: decode response: %w", err)
	}
	return &page, nil
}

// Candidate maps a feed item onto the pipeline's candidate shape. The
// category stays unresolved (CategoryHint passes through for the keyword
// categorizer); the stable transaction id becomes the dedup key.
func (t AddedTransaction) Candidate() (domain.CandidateTransaction, error) {
	var c domain.CandidateTransaction

	date, err := civil.ParseDate(t.Date)
	if err != nil {
		return c, fmt.Errorf("aggregator transaction %s: date %q: %w", t.TransactionID, t.Date, err)
	}
	if t.TransactionID == "" {
		return c, fmt.Errorf("aggregator transaction has no id")
	}

	description := t.Description
	if description == "" {
		description = "(no description)"
	}

	c = domain.CandidateTransaction{
		Date:        date,
		Description: description,
		Amount:      decimal.NewFromFloat(t.Amount),
		ExternalID:  t.TransactionID,
		Pending:     t.Pending,
	}
	return c, nil
}
