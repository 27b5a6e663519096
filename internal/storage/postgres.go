package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a TransactionStore backed by a pgx connection pool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresOptions tunes the pool created by NewPostgresRepository.
type PostgresOptions struct {
	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
}

func NewPostgresRepository(ctx context.Context, databaseURL string, opts PostgresOptions) (*PostgresRepository, error) {
	if err := RunPostgresMigrations(databaseURL); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}
	if opts.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.InfoContext(ctx, "Connected to PostgreSQL", "max_conns", cfg.MaxConns)
	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *PostgresRepository) Insert(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	args := append([]any{t.ID}, fieldParams(t)...)
	args = append(args, t.Date.Millis(), t.Owner)

	if _, err := r.pool.Exec(ctx, pgInsertTransaction, args...); err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction saved to PostgreSQL", "id", t.ID, "owner", t.Owner)
	return t, nil
}

func (r *PostgresRepository) FindByOwner(ctx context.Context, owner string, limit, offset int) ([]core.Transaction, error) {
	rows, err := r.pool.Query(ctx, pgListByOwner, owner, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return collectPgTransactions(rows)
}

func (r *PostgresRepository) CountByOwner(ctx context.Context, owner string) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, pgCountByOwner, owner).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) FindOne(ctx context.Context, owner, id string) (core.Transaction, error) {
	t, err := scanTransaction(r.pool.QueryRow(ctx, pgGetTransaction, id, owner))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return t, nil
}

func (r *PostgresRepository) Replace(ctx context.Context, owner, id string, f core.TransactionFields) (core.Transaction, error) {
	var next core.Transaction
	next.Apply(f)

	args := append(fieldParams(next), id, owner)
	t, err := scanTransaction(r.pool.QueryRow(ctx, pgReplaceTransaction, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", id, err)
	}
	return t, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, owner, id string) error {
	tag, err := r.pool.Exec(ctx, pgDeleteTransaction, id, owner)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) FindInRange(ctx context.Context, owner string, dr core.DateRange) ([]core.Transaction, error) {
	rows, err := r.pool.Query(ctx, pgListInRange, owner, dr.Start.Millis(), dr.End.Millis())
	if err != nil {
		return nil, fmt.Errorf("list transactions in range: %w", err)
	}
	return collectPgTransactions(rows)
}

func (r *PostgresRepository) InsertEvent(ctx context.Context, e core.TransactionEvent) error {
	_, err := r.pool.Exec(ctx, pgInsertEvent,
		e.TransactionID, e.Owner, string(e.Kind), e.OccurredAt.Millis())
	if err != nil {
		return fmt.Errorf("insert transaction event: %w", err)
	}
	return nil
}

func (r *PostgresRepository) EventsByOwner(ctx context.Context, owner string, limit int) ([]core.TransactionEvent, error) {
	rows, err := r.pool.Query(ctx, pgEventsByOwner, owner, limit)
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

func collectPgTransactions(rows pgx.Rows) ([]core.Transaction, error) {
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
