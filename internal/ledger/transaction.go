package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/ledgerlite/ledgerlite/internal/extract"
)

// Kind distinguishes money coming in from money going out
type Kind string

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

// Valid reports whether the kind is one of the known values
func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

// Category is the closed set of bookkeeping categories
type Category string

const (
	Sales       Category = "sales"
	Utilities   Category = "utilities"
	Rent        Category = "rent"
	Inventory   Category = "inventory"
	Marketing   Category = "marketing"
	Payroll     Category = "payroll"
	Maintenance Category = "maintenance"
	Other       Category = "other"
)

// Categories lists every valid category
var Categories = []Category{Sales, Utilities, Rent, Inventory, Marketing, Payroll, Maintenance, Other}

// Valid reports whether the category belongs to the closed set
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Status tracks the review state of a transaction. Records produced from a
// receipt start pending so a human confirms the heuristics.
type Status string

const (
	Pending  Status = "pending"
	Verified Status = "verified"
	Rejected Status = "rejected"
)

// Valid reports whether the status is one of the known values
func (s Status) Valid() bool {
	return s == Pending || s == Verified || s == Rejected
}

// ReceiptRef points at the stored receipt image backing a transaction
type ReceiptRef struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Transaction represents a single bookkeeping record owned by one account.
// AmountCents holds the value in integer cents.
type Transaction struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	Kind        Kind            `json:"kind"`
	AmountCents int64           `json:"amount_cents"`
	Description string          `json:"description"`
	Category    Category        `json:"category"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Receipt     *ReceiptRef     `json:"receipt,omitempty"`
	Extraction  *extract.Result `json:"extraction,omitempty"`
	Status      Status          `json:"status"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ValidationError reports which field of a transaction violated which
// constraint. It is returned before anything is persisted.
type ValidationError struct {
	Field      string
	Constraint string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid transaction: %s %s", e.Field, e.Constraint)
}

// Validate checks the transaction's invariants
func (t *Transaction) Validate() error {
	if t.OwnerID == "" {
		return &ValidationError{Field: "owner_id", Constraint: "is required"}
	}
	if !t.Kind.Valid() {
		return &ValidationError{Field: "kind", Constraint: "must be income or expense"}
	}
	if t.AmountCents < 0 {
		return &ValidationError{Field: "amount_cents", Constraint: "must not be negative"}
	}
	if strings.TrimSpace(t.Description) == "" {
		return &ValidationError{Field: "description", Constraint: "is required"}
	}
	if !t.Category.Valid() {
		return &ValidationError{Field: "category", Constraint: "is not a known category"}
	}
	if t.OccurredAt.IsZero() {
		return &ValidationError{Field: "occurred_at", Constraint: "is required"}
	}
	if !t.Status.Valid() {
		return &ValidationError{Field: "status", Constraint: "must be pending, verified or rejected"}
	}
	return nil
}
