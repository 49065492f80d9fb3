package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerlite/ledgerlite/internal/extract"
)

// IDGenerator generates unique IDs for transactions
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now().UTC()
}

// Processor turns a receipt image into an extraction result
type Processor interface {
	Process(ctx context.Context, imageData []byte, contentType string) (*extract.Result, error)
}

// Service handles transaction operations for the bookkeeping ledger
type Service struct {
	db          DB
	processor   Processor
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, processor Processor, storage Storage) *Service {
	return NewServiceWithDeps(db, processor, storage, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, processor Processor, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		processor:   processor,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// TransactionInput carries the user-editable fields of a transaction
type TransactionInput struct {
	Kind        Kind      `json:"kind"`
	AmountCents int64     `json:"amount_cents"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	OccurredAt  time.Time `json:"occurred_at"`
	Notes       string    `json:"notes,omitempty"`
}

// CreateTransaction creates a manually entered transaction
func (s *Service) CreateTransaction(ownerID string, input TransactionInput) (*Transaction, error) {
	now := s.timeSource.Now()

	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = now
	}

	transaction := &Transaction{
		ID:          s.idGenerator.Generate(),
		OwnerID:     ownerID,
		Kind:        input.Kind,
		AmountCents: input.AmountCents,
		Description: input.Description,
		Category:    input.Category,
		OccurredAt:  occurredAt,
		Status:      Pending,
		Notes:       input.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := transaction.Validate(); err != nil {
		return nil, err
	}

	if err := s.db.SaveTransaction(transaction); err != nil {
		return nil, fmt.Errorf("saving transaction: %w", err)
	}

	return transaction, nil
}

// UploadReceipt stores a receipt image, runs it through the extraction
// pipeline, and creates a pending expense transaction pre-populated from the
// extraction for the owner to review. If recognition fails the stored image
// is released again and the error is returned so the caller can fall back to
// manual entry.
func (s *Service) UploadReceipt(ctx context.Context, ownerID string, data []byte, contentType string) (*Transaction, *extract.Result, error) {
	stored, err := s.storage.Store(ownerID, data, contentType)
	if err != nil {
		return nil, nil, fmt.Errorf("storing receipt: %w", err)
	}

	result, err := s.processor.Process(ctx, data, contentType)
	if err != nil {
		slog.Error("Failed to process receipt",
			"owner", ownerID,
			"content_type", contentType,
			"size", len(data),
			"error", err,
		)
		// Clean up the stored image since processing failed
		if delErr := s.storage.Delete(stored.Key); delErr != nil {
			slog.Warn("Failed to delete stored receipt", "key", stored.Key, "error", delErr)
		}
		return nil, nil, fmt.Errorf("processing receipt: %w", err)
	}

	now := s.timeSource.Now()
	transaction := &Transaction{
		ID:          s.idGenerator.Generate(),
		OwnerID:     ownerID,
		Kind:        Expense,
		AmountCents: result.TotalCents,
		Description: result.Vendor,
		Category:    Other,
		OccurredAt:  result.OccurredAt,
		Receipt:     &ReceiptRef{Key: stored.Key, URL: stored.URL},
		Extraction:  result,
		Status:      Pending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := transaction.Validate(); err != nil {
		return nil, nil, err
	}

	if err := s.db.SaveTransaction(transaction); err != nil {
		if delErr := s.storage.Delete(stored.Key); delErr != nil {
			slog.Warn("Failed to delete stored receipt", "key", stored.Key, "error", delErr)
		}
		return nil, nil, fmt.Errorf("saving transaction: %w", err)
	}

	return transaction, result, nil
}

// GetTransaction retrieves one of the owner's transactions
func (s *Service) GetTransaction(ownerID, id string) (*Transaction, error) {
	transaction, err := s.db.GetTransaction(ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("getting transaction: %w", err)
	}
	return transaction, nil
}

// ListTransactions returns the owner's transactions, most recent first
func (s *Service) ListTransactions(ownerID string) ([]*Transaction, error) {
	transactions, err := s.db.ListTransactions(ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	sort.Slice(transactions, func(i, j int) bool {
		return transactions[i].OccurredAt.After(transactions[j].OccurredAt)
	})
	return transactions, nil
}

// UpdateTransaction applies the user-editable fields to one of the owner's
// transactions. ID, owner, receipt reference and extraction are immutable;
// the extraction in particular is kept for audit even after corrections.
func (s *Service) UpdateTransaction(ownerID, id string, input TransactionInput) (*Transaction, error) {
	transaction, err := s.db.GetTransaction(ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("getting transaction for update: %w", err)
	}

	transaction.Kind = input.Kind
	transaction.AmountCents = input.AmountCents
	transaction.Description = input.Description
	transaction.Category = input.Category
	if !input.OccurredAt.IsZero() {
		transaction.OccurredAt = input.OccurredAt
	}
	transaction.Notes = input.Notes
	transaction.UpdatedAt = s.timeSource.Now()

	if err := transaction.Validate(); err != nil {
		return nil, err
	}

	if err := s.db.SaveTransaction(transaction); err != nil {
		return nil, fmt.Errorf("updating transaction: %w", err)
	}

	return transaction, nil
}

// UpdateStatus moves one of the owner's transactions through the review
// workflow
func (s *Service) UpdateStatus(ownerID, id string, status Status) (*Transaction, error) {
	if !status.Valid() {
		return nil, &ValidationError{Field: "status", Constraint: "must be pending, verified or rejected"}
	}

	transaction, err := s.db.GetTransaction(ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("getting transaction for review: %w", err)
	}

	transaction.Status = status
	transaction.UpdatedAt = s.timeSource.Now()

	if err := s.db.SaveTransaction(transaction); err != nil {
		return nil, fmt.Errorf("updating transaction status: %w", err)
	}

	return transaction, nil
}

// DeleteTransaction removes one of the owner's transactions. When the record
// has a stored receipt image, releasing it is a compensating action: a
// storage failure is logged and the record is deleted regardless, accepting
// that an orphaned image may outlive its record.
func (s *Service) DeleteTransaction(ownerID, id string) error {
	transaction, err := s.db.GetTransaction(ownerID, id)
	if err != nil {
		return fmt.Errorf("getting transaction for deletion: %w", err)
	}

	if transaction.Receipt != nil {
		if err := s.storage.Delete(transaction.Receipt.Key); err != nil {
			slog.Warn("Failed to delete receipt image", "key", transaction.Receipt.Key, "error", err)
		}
	}

	if err := s.db.DeleteTransaction(ownerID, id); err != nil {
		return fmt.Errorf("deleting transaction: %w", err)
	}
	return nil
}

// GetReceiptImage retrieves the stored receipt image for a transaction
func (s *Service) GetReceiptImage(ownerID, id string) ([]byte, error) {
	transaction, err := s.db.GetTransaction(ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("getting transaction: %w", err)
	}
	if transaction.Receipt == nil {
		return nil, fmt.Errorf("transaction has no receipt")
	}

	data, err := s.storage.Get(transaction.Receipt.Key)
	if err != nil {
		return nil, fmt.Errorf("getting receipt image: %w", err)
	}
	return data, nil
}

// Summary computes the owner's rollup inside the optional inclusive window
func (s *Service) Summary(ownerID string, start, end *time.Time) (Summary, error) {
	var records []*Transaction
	var err error
	if start != nil && end != nil {
		records, err = s.db.FindByDateRange(ownerID, *start, *end)
	} else {
		records, err = s.db.ListTransactions(ownerID)
	}
	if err != nil {
		return Summary{}, fmt.Errorf("loading transactions for summary: %w", err)
	}

	return Summarize(records, Filter{OwnerID: ownerID, Start: start, End: end}), nil
}
