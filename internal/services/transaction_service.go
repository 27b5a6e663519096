package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

// EventPublisher delivers transaction change events to the audit pipeline.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, e core.TransactionEvent) error
}

// ReportInvalidator drops cached reports after an owner's data changes.
type ReportInvalidator interface {
	Invalidate(owner string)
}

// ListResult is one page of an owner's transactions.
type ListResult struct {
	Transactions []core.Transaction `json:"transactions"`
	Page         int                `json:"page"`
	Pages        int                `json:"pages"`
}

// TransactionService orchestrates transaction operations across the store,
// the event publisher and the report cache. Publisher and invalidator are
// optional.
type TransactionService struct {
	store       storage.TransactionStore
	publisher   EventPublisher
	invalidator ReportInvalidator
	pageSize    int

	newID func() string
	now   func() time.Time
}

func NewTransactionService(store storage.TransactionStore, publisher EventPublisher, invalidator ReportInvalidator, pageSize int) *TransactionService {
	if pageSize < 1 {
		pageSize = 10
	}
	return &TransactionService{
		store:       store,
		publisher:   publisher,
		invalidator: invalidator,
		pageSize:    pageSize,
		newID:       uuid.NewString,
		now:         time.Now,
	}
}

// Create validates f and stores a new transaction dated now.
func (s *TransactionService) Create(ctx context.Context, owner string, f core.TransactionFields) (core.Transaction, error) {
	if err := f.ValidateForCreate(); err != nil {
		return core.Transaction{}, err
	}

	t, err := s.store.Insert(ctx, core.NewTransaction(s.newID(), owner, f, s.now()))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	s.afterMutation(ctx, core.EventCreated, t)
	return t, nil
}

// List returns page (1-based) of owner's transactions in insertion order.
// Pages below 1 are treated as the first page.
func (s *TransactionService) List(ctx context.Context, owner string, page int) (ListResult, error) {
	if page < 1 {
		page = 1
	}

	total, err := s.store.CountByOwner(ctx, owner)
	if err != nil {
		return ListResult{}, fmt.Errorf("count transactions: %w", err)
	}

	pages := (total + s.pageSize - 1) / s.pageSize
	// Pages past the end are empty; checking first keeps the offset below total.
	if page > pages {
		return ListResult{Transactions: []core.Transaction{}, Page: page, Pages: pages}, nil
	}

	txs, err := s.store.FindByOwner(ctx, owner, s.pageSize, (page-1)*s.pageSize)
	if err != nil {
		return ListResult{}, fmt.Errorf("list transactions: %w", err)
	}

	return ListResult{
		Transactions: txs,
		Page:         page,
		Pages:        pages,
	}, nil
}

func (s *TransactionService) GetByID(ctx context.Context, owner, id string) (core.Transaction, error) {
	t, err := s.store.FindOne(ctx, owner, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return t, nil
}

// Update replaces every mutable field of the owned transaction with f.
// Fields omitted from f are cleared.
func (s *TransactionService) Update(ctx context.Context, owner, id string, f core.TransactionFields) (core.Transaction, error) {
	if err := f.ValidateForUpdate(); err != nil {
		return core.Transaction{}, err
	}

	// Normalize through Apply so every adapter stores the same trimmed values.
	var normalized core.Transaction
	normalized.Apply(f)

	t, err := s.store.Replace(ctx, owner, id, fieldsOf(normalized))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", id, err)
	}

	s.afterMutation(ctx, core.EventUpdated, t)
	return t, nil
}

func (s *TransactionService) Delete(ctx context.Context, owner, id string) error {
	if err := s.store.Delete(ctx, owner, id); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}

	s.afterMutation(ctx, core.EventDeleted, core.Transaction{ID: id, Owner: owner})
	return nil
}

// afterMutation never fails the request: the record is already stored.
func (s *TransactionService) afterMutation(ctx context.Context, kind core.EventKind, t core.Transaction) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(t.Owner)
	}

	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, core.NewTransactionEvent(kind, t, s.now())); err != nil {
		applog.FromContext(ctx).WithComponent(applog.ComponentTransaction).Error("Failed to publish transaction event",
			applog.NewFields().
				WithOperation(applog.OpPublish).
				WithOwner(t.Owner).
				WithTransaction(t.ID).
				With(applog.FieldEventKind, string(kind)).
				WithError(err).
				ToSlice()...)
	}
}

// fieldsOf turns the absent-as-zero representation of t back into
// TransactionFields with nil for absent values.
func fieldsOf(t core.Transaction) core.TransactionFields {
	var f core.TransactionFields
	if t.Type != "" {
		typ := t.Type
		f.Type = &typ
	}
	if t.Category != "" {
		cat := t.Category
		f.Category = &cat
	}
	if t.Amount != nil {
		amt := *t.Amount
		f.Amount = &amt
	}
	if t.Description != "" {
		desc := t.Description
		f.Description = &desc
	}
	return f
}
