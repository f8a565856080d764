package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/avolkov/finledger/internal/api/middleware"
	"github.com/avolkov/finledger/internal/blobstore"
	"github.com/avolkov/finledger/internal/document"
	"github.com/avolkov/finledger/internal/extract"
	"github.com/avolkov/finledger/internal/ledger"
	"github.com/avolkov/finledger/internal/reconcile"
	"github.com/avolkov/finledger/internal/spreadsheet"
)

// IngestHandler exposes the ingestion and sync runs over HTTP. Every run is
// request-scoped and synchronous; the response body is the run summary.
type IngestHandler struct {
	documents    *document.Adapter
	spreadsheets *spreadsheet.Adapter
	reconciler   *reconcile.Reconciler
	aggregator   *reconcile.AggregatorSyncer
	processor    *reconcile.ProcessorSyncer
	store        *ledger.Store
	bucket       string
	maxBodyBytes int64
	log          zerolog.Logger
}

// NewIngestHandler creates the handler.
func NewIngestHandler(
	documents *document.Adapter,
	spreadsheets *spreadsheet.Adapter,
	reconciler *reconcile.Reconciler,
	aggregator *reconcile.AggregatorSyncer,
	processor *reconcile.ProcessorSyncer,
	store *ledger.Store,
	bucket string,
	maxBodyBytes int64,
	log zerolog.Logger,
) *IngestHandler {
	return &IngestHandler{
		documents:    documents,
		spreadsheets: spreadsheets,
		reconciler:   reconciler,
		aggregator:   aggregator,
		processor:    processor,
		store:        store,
		bucket:       bucket,
		maxBodyBytes: maxBodyBytes,
		log:          log,
	}
}

// UploadDocument handles POST /api/documents/upload. The raw document bytes
// are the request body; the stored gs:// URI comes back for a later ingest
// call.
func (h *IngestHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	if h.bucket == "" {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Document uploads are not configured")
		return
	}

	filename := r.URL.Query().Get("filename")
	if filename == "" {
		middleware.WriteError(w, http.StatusBadRequest, "filename query parameter is required")
		return
	}

	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	objectName := fmt.Sprintf("uploads/%s/%s-%s", time.Now().Format("2006/01/02"), uuid.NewString(), filename)

	gcsURI, err := blobstore.Upload(r.Context(), h.bucket, objectName, r.Header.Get("Content-Type"), body)
	if err != nil {
		h.log.Error().Err(err).Msg("document upload failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Upload failed")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]string{"gcs_uri": gcsURI})
}

// ListDocuments handles GET /api/documents. Uploaded statements live under
// the uploads/ prefix; the response pairs each gs:// URI with its original
// filename for a later ingest call.
func (h *IngestHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	if h.bucket == "" {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Document uploads are not configured")
		return
	}

	prefix := r.URL.Query().Get("prefix")
	if prefix == "" {
		prefix = "uploads/"
	}

	names, err := blobstore.List(r.Context(), h.bucket, prefix)
	if err != nil {
		h.log.Error().Err(err).Str("prefix", prefix).Msg("document listing failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}

	documents := make([]map[string]string, 0, len(names))
	for _, name := range names {
		uri := fmt.Sprintf("gs://%s/%s", h.bucket, name)
		documents = append(documents, map[string]string{
			"gcs_uri":  uri,
			"filename": blobstore.Filename(uri),
		})
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"documents": documents,
		"count":     len(documents),
	})
}

type ingestDocumentRequest struct {
	GCSURI    string `json:"gcs_uri"`
	MimeType  string `json:"mime_type"`
	UserID    string `json:"user_id"`
	CompanyID string `json:"company_id"`
	AccountID string `json:"account_id"`
	Confirmed bool   `json:"confirmed"`
}

// IngestDocument handles POST /api/ingest/document. Without confirmed=true
// the call is a dry run: the extracted candidates come back for review and
// nothing is persisted. Statement imports have no stable external identity,
// so persistence is append-only behind this explicit confirmation.
func (h *IngestHandler) IngestDocument(w http.ResponseWriter, r *http.Request) {
	var req ingestDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.GCSURI == "" || req.UserID == "" || req.CompanyID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "gcs_uri, user_id and company_id are required")
		return
	}
	if req.MimeType == "" {
		req.MimeType = "application/pdf"
	}

	data, err := blobstore.Fetch(r.Context(), req.GCSURI)
	if err != nil {
		h.log.Error().Err(err).Str("gcs_uri", req.GCSURI).Msg("document fetch failed")
		middleware.WriteError(w, http.StatusBadGateway, "Could not fetch document")
		return
	}

	result, err := h.documents.Parse(r.Context(), data, req.MimeType)
	if err != nil {
		h.log.Warn().Err(err).Str("gcs_uri", req.GCSURI).Msg("document extraction failed")
		middleware.WriteDomainError(w, err)
		return
	}

	h.finishStatementRun(r.Context(), w, result, reconcile.SourceDocument, req.UserID, req.CompanyID, req.AccountID, req.Confirmed)
}

type ingestSpreadsheetRequest struct {
	CSV       string `json:"csv"`
	UserID    string `json:"user_id"`
	CompanyID string `json:"company_id"`
	AccountID string `json:"account_id"`
	Confirmed bool   `json:"confirmed"`
}

// IngestSpreadsheet handles POST /api/ingest/spreadsheet with the delimited
// text inline. Same confirmation contract as document ingestion.
func (h *IngestHandler) IngestSpreadsheet(w http.ResponseWriter, r *http.Request) {
	var req ingestSpreadsheetRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, h.maxBodyBytes)).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.CSV == "" || req.UserID == "" || req.CompanyID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "csv, user_id and company_id are required")
		return
	}

	result, err := h.spreadsheets.Parse(r.Context(), []byte(req.CSV))
	if err != nil {
		h.log.Warn().Err(err).Msg("spreadsheet extraction failed")
		middleware.WriteDomainError(w, err)
		return
	}

	h.finishStatementRun(r.Context(), w, result, reconcile.SourceSpreadsheet, req.UserID, req.CompanyID, req.AccountID, req.Confirmed)
}

func (h *IngestHandler) finishStatementRun(ctx context.Context, w http.ResponseWriter, result *extract.Result, source reconcile.Source, userID, companyID, accountID string, confirmed bool) {
	if !confirmed {
		middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"confirmed":    false,
			"transactions": result.Transactions,
			"accounts":     result.Accounts,
			"dropped":      result.Dropped,
		})
		return
	}

	summary, err := h.reconciler.Run(ctx, &reconcile.Batch{
		UserID:       userID,
		CompanyID:    companyID,
		Source:       source,
		AccountID:    accountID,
		Transactions: result.Transactions,
		Accounts:     result.Accounts,
	})
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, summary)
}

type syncRequest struct {
	UserID    string `json:"user_id"`
	AccountID string `json:"account_id"`
	CompanyID string `json:"company_id"`
}

// SyncAggregator handles POST /api/sync/aggregator.
func (h *IngestHandler) SyncAggregator(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == "" || req.AccountID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id and account_id are required")
		return
	}

	summary, err := h.aggregator.SyncAccount(r.Context(), req.UserID, req.AccountID)
	if err != nil {
		h.log.Warn().Err(err).Str("account_id", req.AccountID).Msg("aggregator sync failed")
		middleware.WriteDomainError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, summary)
}

// SyncProcessor handles POST /api/sync/processor.
func (h *IngestHandler) SyncProcessor(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == "" || req.CompanyID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id and company_id are required")
		return
	}

	summary, err := h.processor.SyncCompany(r.Context(), req.UserID, req.CompanyID)
	if err != nil {
		h.log.Warn().Err(err).Str("company_id", req.CompanyID).Msg("processor sync failed")
		middleware.WriteDomainError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, summary)
}

// ListTransactions handles GET /api/transactions?company_id=...
func (h *IngestHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	companyID := r.URL.Query().Get("company_id")
	if companyID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "company_id query parameter is required")
		return
	}

	txs, err := h.store.ListTransactions(r.Context(), companyID)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	})
}

// ListAccounts handles GET /api/accounts?user_id=...
func (h *IngestHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id query parameter is required")
		return
	}

	accounts, err := h.store.ListAccounts(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list accounts")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list accounts")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": accounts,
		"count":    len(accounts),
	})
}
