package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the default TransactionStore backed by a local file.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunSQLiteMigrations(sqliteDSN(dbPath)); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func sqliteDSN(path string) string {
	return path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Insert(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	args := append([]any{t.ID}, fieldParams(t)...)
	args = append(args, t.Date.Millis(), t.Owner)

	if _, err := r.db.ExecContext(ctx, sqliteInsertTransaction, args...); err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"owner", t.Owner,
		"type", t.Type,
		"category", t.Category)
	return t, nil
}

func (r *SQLiteRepository) FindByOwner(ctx context.Context, owner string, limit, offset int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, sqliteListByOwner, owner, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return collectTransactions(rows)
}

func (r *SQLiteRepository) CountByOwner(ctx context.Context, owner string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, sqliteCountByOwner, owner).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) FindOne(ctx context.Context, owner, id string) (core.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx, sqliteGetTransaction, id, owner))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return t, nil
}

func (r *SQLiteRepository) Replace(ctx context.Context, owner, id string, f core.TransactionFields) (core.Transaction, error) {
	var next core.Transaction
	next.Apply(f)

	args := append(fieldParams(next), id, owner)
	t, err := scanTransaction(r.db.QueryRowContext(ctx, sqliteReplaceTransaction, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", id, err)
	}

	slog.InfoContext(ctx, "Transaction replaced in SQLite", "id", id, "owner", owner)
	return t, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, owner, id string) error {
	res, err := r.db.ExecContext(ctx, sqliteDeleteTransaction, id, owner)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	if n == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction deleted from SQLite", "id", id, "owner", owner)
	return nil
}

func (r *SQLiteRepository) FindInRange(ctx context.Context, owner string, dr core.DateRange) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, sqliteListInRange, owner, dr.Start.Millis(), dr.End.Millis())
	if err != nil {
		return nil, fmt.Errorf("list transactions in range: %w", err)
	}
	return collectTransactions(rows)
}

func (r *SQLiteRepository) InsertEvent(ctx context.Context, e core.TransactionEvent) error {
	_, err := r.db.ExecContext(ctx, sqliteInsertEvent,
		e.TransactionID, e.Owner, string(e.Kind), e.OccurredAt.Millis())
	if err != nil {
		return fmt.Errorf("insert transaction event: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) EventsByOwner(ctx context.Context, owner string, limit int) ([]core.TransactionEvent, error) {
	rows, err := r.db.QueryContext(ctx, sqliteEventsByOwner, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("list transaction events: %w", err)
	}
	defer rows.Close()

	var out []core.TransactionEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}
