package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	TransactionType string

	// Transaction is a single income or expense record owned by one user.
	// Mutable fields may be absent after a full-replacement update, so
	// Type, Category and Description use their zero value for "absent" and
	// Amount uses nil.
	Transaction struct {
		ID          string          `json:"id"`
		Type        TransactionType `json:"type,omitempty"`
		Category    string          `json:"category,omitempty"`
		Amount      *Money          `json:"amount,omitempty"`
		Date        Timestamp       `json:"date"`
		Description string          `json:"description,omitempty"`
		Owner       string          `json:"user"`
	}

	// TransactionFields holds the four client-mutable fields. A nil pointer
	// means the field was not supplied.
	TransactionFields struct {
		Type        *TransactionType `json:"type"`
		Category    *string          `json:"category"`
		Amount      *Money           `json:"amount"`
		Description *string          `json:"description"`
	}
)

var (
	ErrNotFound = errors.New("transaction not found")
)

// ValidationError reports a missing or malformed field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// IsValid returns true for the two known transaction types.
func (t TransactionType) IsValid() bool {
	switch t {
	case Income, Expense:
		return true
	default:
		return false
	}
}

func (t TransactionType) String() string {
	return string(t)
}

// ValidateForCreate enforces the required fields of a new transaction.
func (f TransactionFields) ValidateForCreate() error {
	if f.Type == nil || strings.TrimSpace(string(*f.Type)) == "" {
		return &ValidationError{Field: "type", Reason: "is required"}
	}
	if err := f.validateSupplied(); err != nil {
		return err
	}
	if f.Category == nil || strings.TrimSpace(*f.Category) == "" {
		return &ValidationError{Field: "category", Reason: "is required"}
	}
	if f.Amount == nil {
		return &ValidationError{Field: "amount", Reason: "is required"}
	}
	return nil
}

// ValidateForUpdate checks only the fields that were supplied; omitted
// fields are allowed and become absent on the stored record.
func (f TransactionFields) ValidateForUpdate() error {
	return f.validateSupplied()
}

func (f TransactionFields) validateSupplied() error {
	if f.Type != nil && *f.Type != "" && !f.Type.IsValid() {
		return &ValidationError{
			Field:  "type",
			Reason: fmt.Sprintf("%q is not one of [%s %s]", *f.Type, Income, Expense),
		}
	}
	return nil
}

// NewTransaction builds a transaction for owner from validated fields.
func NewTransaction(id, owner string, f TransactionFields, now time.Time) Transaction {
	t := Transaction{
		ID:    id,
		Owner: owner,
		Date:  NewTimestamp(now),
	}
	t.Apply(f)
	return t
}

// Apply overwrites every mutable field with f, storing values exactly as
// supplied. Fields missing from f are cleared rather than kept.
func (t *Transaction) Apply(f TransactionFields) {
	t.Type = ""
	if f.Type != nil {
		t.Type = *f.Type
	}
	t.Category = ""
	if f.Category != nil {
		t.Category = *f.Category
	}
	t.Amount = nil
	if f.Amount != nil {
		amt := *f.Amount
		t.Amount = &amt
	}
	t.Description = ""
	if f.Description != nil {
		t.Description = *f.Description
	}
}
