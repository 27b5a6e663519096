package storage

import "context"

// Truncate empties both tables between contract runs.
func (r *PostgresRepository) Truncate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `TRUNCATE transactions, transaction_events RESTART IDENTITY`)
	return err
}
