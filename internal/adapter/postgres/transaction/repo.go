// Package transaction implements the Transaction repository using PostgreSQL.
// Transactions are append-only: there are no update or delete operations.
package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/matekasse/matekasse-backend/internal/adapter/postgres"
	"github.com/matekasse/matekasse-backend/internal/domain"
)

// Repo provides transaction persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new transaction repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const txColumns = `id, sender_id, receiver_id, amount, reason, created_at`

const createSQL = `
INSERT INTO transactions (id, sender_id, receiver_id, amount, reason, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + txColumns

const getByIDSQL = `
SELECT ` + txColumns + `
FROM transactions
WHERE id = $1`

const countByUserSQL = `
SELECT count(*) FROM transactions WHERE sender_id = $1 OR receiver_id = $1`

const listByUserSQL = `
SELECT ` + txColumns + `
FROM transactions
WHERE sender_id = $1 OR receiver_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

// Create appends a new transaction record.
func (r *Repo) Create(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	row := querier.QueryRow(ctx, createSQL,
		tx.ID, tx.SenderID, tx.ReceiverID, tx.Amount, tx.Reason, now,
	)

	created, err := scanTransaction(row)
	if err != nil {
		return nil, postgres.MapError(err, "transaction", tx.ID)
	}
	return created, nil
}

// GetByID returns a transaction by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tx, err := scanTransaction(querier.QueryRow(ctx, getByIDSQL, id))
	if err != nil {
		return nil, postgres.MapError(err, "transaction", id)
	}
	return tx, nil
}

// ListByUser returns transactions a user took part in, newest first,
// with pagination. Returns transactions, total count, and error.
func (r *Repo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Transaction, int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var total int
	if err := querier.QueryRow(ctx, countByUserSQL, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions by user: %w", err)
	}

	rows, err := querier.Query(ctx, listByUserSQL, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions by user: %w", err)
	}
	defer rows.Close()

	var txs []*domain.Transaction
	for rows.Next() {
		tx := &domain.Transaction{}
		if err := rows.Scan(&tx.ID, &tx.SenderID, &tx.ReceiverID, &tx.Amount, &tx.Reason, &tx.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("list transactions by user: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list transactions by user: %w", err)
	}

	if txs == nil {
		txs = []*domain.Transaction{}
	}
	return txs, total, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	tx := &domain.Transaction{}
	err := row.Scan(&tx.ID, &tx.SenderID, &tx.ReceiverID, &tx.Amount, &tx.Reason, &tx.CreatedAt)
	if err != nil {
		return nil, err
	}
	return tx, nil
}
