package storage

// SQLite statements. Column order for transaction reads matches scanTransaction.
const (
	transactionColumns = `id, type, category, amount, date_ms, description, owner`

	sqliteInsertTransaction = `
INSERT INTO transactions (id, type, category, amount, description, date_ms, owner)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	sqliteListByOwner = `
SELECT ` + transactionColumns + `
FROM transactions
WHERE owner = ?
ORDER BY seq ASC
LIMIT ? OFFSET ?`

	sqliteCountByOwner = `SELECT COUNT(*) FROM transactions WHERE owner = ?`

	sqliteGetTransaction = `
SELECT ` + transactionColumns + `
FROM transactions
WHERE id = ? AND owner = ?`

	sqliteReplaceTransaction = `
UPDATE transactions
SET type = ?, category = ?, amount = ?, description = ?
WHERE id = ? AND owner = ?
RETURNING ` + transactionColumns

	sqliteDeleteTransaction = `DELETE FROM transactions WHERE id = ? AND owner = ?`

	sqliteListInRange = `
SELECT ` + transactionColumns + `
FROM transactions
WHERE owner = ? AND date_ms >= ? AND date_ms <= ?
ORDER BY date_ms ASC, seq ASC`

	sqliteInsertEvent = `
INSERT INTO transaction_events (transaction_id, owner, kind, occurred_at_ms)
VALUES (?, ?, ?, ?)`

	sqliteEventsByOwner = `
SELECT transaction_id, owner, kind, occurred_at_ms
FROM transaction_events
WHERE owner = ?
ORDER BY occurred_at_ms DESC, seq DESC
LIMIT ?`
)

// PostgreSQL statements. Amounts are read back as text so decimals keep
// their exact representation.
const (
	pgTransactionColumns = `id, type, category, amount::text, date_ms, description, owner`

	pgInsertTransaction = `
INSERT INTO transactions (id, type, category, amount, description, date_ms, owner)
VALUES ($1, $2, $3, $4::text::numeric, $5, $6, $7)`

	pgListByOwner = `
SELECT ` + pgTransactionColumns + `
FROM transactions
WHERE owner = $1
ORDER BY seq ASC
LIMIT $2 OFFSET $3`

	pgCountByOwner = `SELECT COUNT(*) FROM transactions WHERE owner = $1`

	pgGetTransaction = `
SELECT ` + pgTransactionColumns + `
FROM transactions
WHERE id = $1 AND owner = $2`

	pgReplaceTransaction = `
UPDATE transactions
SET type = $1, category = $2, amount = $3::text::numeric, description = $4
WHERE id = $5 AND owner = $6
RETURNING ` + pgTransactionColumns

	pgDeleteTransaction = `DELETE FROM transactions WHERE id = $1 AND owner = $2`

	pgListInRange = `
SELECT ` + pgTransactionColumns + `
FROM transactions
WHERE owner = $1 AND date_ms >= $2 AND date_ms <= $3
ORDER BY date_ms ASC, seq ASC`

	pgInsertEvent = `
INSERT INTO transaction_events (transaction_id, owner, kind, occurred_at_ms)
VALUES ($1, $2, $3, $4)`

	pgEventsByOwner = `
SELECT transaction_id, owner, kind, occurred_at_ms
FROM transaction_events
WHERE owner = $1
ORDER BY occurred_at_ms DESC, seq DESC
LIMIT $2`
)
