package storage

import (
	"database/sql"
	"fmt"

	"fintrack/internal/core"
)

// scanner is satisfied by *sql.Row, *sql.Rows, pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// transactionRow mirrors the transactions table. Mutable columns are
// nullable because an update may clear them.
type transactionRow struct {
	ID          string
	Type        sql.NullString
	Category    sql.NullString
	Amount      sql.NullString
	DateMillis  int64
	Description sql.NullString
	Owner       string
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var row transactionRow
	if err := s.Scan(
		&row.ID,
		&row.Type,
		&row.Category,
		&row.Amount,
		&row.DateMillis,
		&row.Description,
		&row.Owner,
	); err != nil {
		return core.Transaction{}, err
	}
	return row.toCore()
}

func (r transactionRow) toCore() (core.Transaction, error) {
	t := core.Transaction{
		ID:          r.ID,
		Type:        core.TransactionType(r.Type.String),
		Category:    r.Category.String,
		Date:        core.TimestampFromMillis(r.DateMillis),
		Description: r.Description.String,
		Owner:       r.Owner,
	}
	if r.Amount.Valid {
		amt, err := core.ParseMoney(r.Amount.String)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("decode amount of %s: %w", r.ID, err)
		}
		t.Amount = &amt
	}
	return t, nil
}

// fieldParams returns the mutable columns in table order:
// type, category, amount, description.
func fieldParams(t core.Transaction) []any {
	return []any{
		nullString(string(t.Type)),
		nullString(t.Category),
		nullAmount(t.Amount),
		nullString(t.Description),
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullAmount(m *core.Money) sql.NullString {
	if m == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: m.String(), Valid: true}
}

func scanEvent(s scanner) (core.TransactionEvent, error) {
	var (
		e    core.TransactionEvent
		kind string
		ms   int64
	)
	if err := s.Scan(&e.TransactionID, &e.Owner, &kind, &ms); err != nil {
		return core.TransactionEvent{}, err
	}
	e.Kind = core.EventKind(kind)
	e.OccurredAt = core.TimestampFromMillis(ms)
	return e, nil
}
