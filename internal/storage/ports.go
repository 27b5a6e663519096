package storage

import (
	"context"

	"fintrack/internal/core"
)

// Ports implemented by every persistence adapter. All transaction reads and
// writes are scoped to an owner; a record owned by someone else is reported
// as core.ErrNotFound.
type (
	TransactionStore interface {
		// Insert persists t, which must already carry its id, owner and date.
		Insert(ctx context.Context, t core.Transaction) (core.Transaction, error)
		// FindByOwner returns a page of owner's transactions in insertion order.
		FindByOwner(ctx context.Context, owner string, limit, offset int) ([]core.Transaction, error)
		CountByOwner(ctx context.Context, owner string) (int, error)
		FindOne(ctx context.Context, owner, id string) (core.Transaction, error)
		// Replace overwrites the four mutable fields; nil fields become NULL.
		Replace(ctx context.Context, owner, id string, f core.TransactionFields) (core.Transaction, error)
		Delete(ctx context.Context, owner, id string) error
		// FindInRange returns owner's transactions with date inside r, ascending
		// by date with ties in insertion order.
		FindInRange(ctx context.Context, owner string, r core.DateRange) ([]core.Transaction, error)
	}

	AuditWriter interface {
		InsertEvent(ctx context.Context, e core.TransactionEvent) error
	}

	AuditReader interface {
		// EventsByOwner returns the newest events first.
		EventsByOwner(ctx context.Context, owner string, limit int) ([]core.TransactionEvent, error)
	}

	// Store is the full adapter surface the backends expose.
	Store interface {
		TransactionStore
		AuditWriter
		AuditReader
		Ping(ctx context.Context) error
		Close() error
	}
)
