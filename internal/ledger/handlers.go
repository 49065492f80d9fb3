package ledger

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/ledgerlite/ledgerlite/internal/extract"
	"github.com/ledgerlite/ledgerlite/internal/ocr"
)

// maxReceiptSize caps receipt uploads at 5MB
const maxReceiptSize = int64(5 << 20)

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// jsonError writes a JSON error body with CORS headers set
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeJSON encodes a response body
func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// errorStatus maps a service error to an HTTP status
func errorStatus(err error) int {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ocr.ErrRecognition) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// handleCreateTransaction creates a manually entered transaction
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, ownerID string) {
	var input TransactionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	transaction, err := s.service.CreateTransaction(ownerID, input)
	if err != nil {
		slog.Error("Error creating transaction", "owner", ownerID, "error", err)
		jsonError(w, err.Error(), errorStatus(err))
		return
	}

	writeJSON(w, http.StatusCreated, transaction)
}

// handleListTransactions returns the owner's transactions, most recent first
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, ownerID string) {
	transactions, err := s.service.ListTransactions(ownerID)
	if err != nil {
		slog.Error("Error listing transactions", "owner", ownerID, "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, transactions)
}

// handleGetTransaction returns a single transaction
func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request, ownerID string) {
	id := r.PathValue("id")
	transaction, err := s.service.GetTransaction(ownerID, id)
	if err != nil {
		corsError(w, "Transaction not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, transaction)
}

// handleUpdateTransaction applies user edits to a transaction
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, ownerID string) {
	id := r.PathValue("id")

	var input TransactionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	transaction, err := s.service.UpdateTransaction(ownerID, id, input)
	if err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		corsError(w, "Transaction not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, transaction)
}

// handleUpdateStatus moves a transaction through the review workflow
func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request, ownerID string) {
	id := r.PathValue("id")

	var req struct {
		Status Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	transaction, err := s.service.UpdateStatus(ownerID, id, req.Status)
	if err != nil {
		jsonError(w, err.Error(), errorStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, transaction)
}

// handleDeleteTransaction deletes a transaction
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, ownerID string) {
	id := r.PathValue("id")
	if err := s.service.DeleteTransaction(ownerID, id); err != nil {
		corsError(w, "Error deleting transaction", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleGetReceiptImage serves the stored receipt image for a transaction
func (s *Server) handleGetReceiptImage(w http.ResponseWriter, r *http.Request, ownerID string) {
	id := r.PathValue("id")
	data, err := s.service.GetReceiptImage(ownerID, id)
	if err != nil {
		corsError(w, "Receipt not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Write(data)
}

// handleUploadReceipt accepts one receipt image or PDF, runs the extraction
// pipeline, and returns the created transaction together with the raw
// extraction for user review
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request, ownerID string) {
	r.Body = http.MaxBytesReader(w, r.Body, maxReceiptSize)
	if err := r.ParseMultipartForm(maxReceiptSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		jsonError(w, "Receipt must be a single image or PDF no larger than 5MB", http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("receipt")
	if err != nil {
		jsonError(w, "No file uploaded", http.StatusBadRequest)
		return
	}
	defer f.Close()

	if header.Size > maxReceiptSize {
		jsonError(w, "Receipt must be no larger than 5MB", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		jsonError(w, "Error reading file", http.StatusInternalServerError)
		return
	}
	if len(data) == 0 {
		jsonError(w, "No file uploaded", http.StatusBadRequest)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = contentTypeFromName(header.Filename)
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	transaction, result, err := s.service.UploadReceipt(r.Context(), ownerID, data, contentType)
	if err != nil {
		slog.Error("Error processing receipt", "owner", ownerID, "filename", header.Filename, "error", err)
		jsonError(w, err.Error(), errorStatus(err))
		return
	}

	writeJSON(w, http.StatusCreated, uploadResponse{
		Transaction: transaction,
		Extraction:  result,
	})
}

// uploadResponse pairs the created transaction with the raw extraction so
// the owner can correct the heuristics before verifying the record
type uploadResponse struct {
	Transaction *Transaction    `json:"transaction"`
	Extraction  *extract.Result `json:"extraction"`
}

// contentTypeFromName guesses a content type from the file extension
func contentTypeFromName(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}

// handleSummary returns the by-type and by-type-and-category rollup inside
// an optional inclusive start/end window
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, ownerID string) {
	start, err := parseDateParam(r, "start")
	if err != nil {
		jsonError(w, "start must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	end, err := parseDateParam(r, "end")
	if err != nil {
		jsonError(w, "end must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	summary, err := s.service.Summary(ownerID, start, end)
	if err != nil {
		slog.Error("Error computing summary", "owner", ownerID, "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// statsResponse is the dashboard rollup: overall income and expenses, the
// expense category ranking, and the net position
type statsResponse struct {
	IncomeCents  int64           `json:"income_cents"`
	ExpenseCents int64           `json:"expense_cents"`
	ByCategory   []CategoryTotal `json:"by_category"`
	NetCents     int64           `json:"net_cents"`
}

// handleStats returns the owner's all-time dashboard rollup
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request, ownerID string) {
	summary, err := s.service.Summary(ownerID, nil, nil)
	if err != nil {
		slog.Error("Error computing stats", "owner", ownerID, "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		IncomeCents:  summary.ByType[Income].TotalCents,
		ExpenseCents: summary.ByType[Expense].TotalCents,
		ByCategory:   summary.ByCategory,
		NetCents:     summary.NetCents,
	})
}

// parseDateParam parses an optional YYYY-MM-DD query parameter
func parseDateParam(r *http.Request, name string) (*time.Time, error) {
	value := strings.TrimSpace(r.URL.Query().Get(name))
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
