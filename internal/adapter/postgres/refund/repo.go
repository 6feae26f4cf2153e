// Package refund implements the Refund repository using PostgreSQL.
package refund

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

// Repo provides refund and refund vote persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new refund repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const refundColumns = `id, creator_id, amount, reason, state, transaction_id, created_at, updated_at`

const createSQL = `
INSERT INTO refunds (id, creator_id, amount, reason, state, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)
RETURNING ` + refundColumns

const getByIDSQL = `
SELECT ` + refundColumns + `
FROM refunds
WHERE id = $1`

const getForUpdateSQL = `
SELECT ` + refundColumns + `
FROM refunds
WHERE id = $1
FOR UPDATE`

const getActiveByCreatorSQL = `
SELECT ` + refundColumns + `
FROM refunds
WHERE creator_id = $1 AND state = 'ACTIVE'`

const listByStateSQL = `
SELECT ` + refundColumns + `
FROM refunds
WHERE state = $1
ORDER BY created_at`

const setStateSQL = `
UPDATE refunds
SET state = $2, transaction_id = $3, updated_at = now()
WHERE id = $1
RETURNING ` + refundColumns

const upsertVoteSQL = `
INSERT INTO refund_votes (refund_id, voter_id, approve, created_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (refund_id, voter_id)
DO UPDATE SET approve = EXCLUDED.approve, created_at = now()`

const deleteVoteSQL = `
DELETE FROM refund_votes WHERE refund_id = $1 AND voter_id = $2`

const listVotesSQL = `
SELECT voter_id, approve, created_at
FROM refund_votes
WHERE refund_id = $1
ORDER BY created_at`

// Create inserts a new refund in the ACTIVE state.
// A second active refund for the same creator yields domain.ErrAlreadyExists
// via the partial unique index.
func (r *Repo) Create(ctx context.Context, ref *domain.Refund) (*domain.Refund, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	row := querier.QueryRow(ctx, createSQL,
		ref.ID, ref.CreatorID, ref.Amount, ref.Reason, string(domain.RefundStateActive), now,
	)

	created, err := scanRefund(row)
	if err != nil {
		return nil, postgres.MapError(err, "refund", ref.ID)
	}
	return created, nil
}

// GetByID returns a refund with its votes loaded.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Refund, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	ref, err := scanRefund(querier.QueryRow(ctx, getByIDSQL, id))
	if err != nil {
		return nil, postgres.MapError(err, "refund", id)
	}
	if err := r.loadVotes(ctx, ref); err != nil {
		return nil, err
	}
	return ref, nil
}

// GetForUpdate returns a refund with its votes and locks the refund row
// until the surrounding transaction ends. Callers must hold a
// transaction in ctx.
func (r *Repo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Refund, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	ref, err := scanRefund(querier.QueryRow(ctx, getForUpdateSQL, id))
	if err != nil {
		return nil, postgres.MapError(err, "refund", id)
	}
	if err := r.loadVotes(ctx, ref); err != nil {
		return nil, err
	}
	return ref, nil
}

// GetActiveByCreator returns the creator's open refund, or
// domain.ErrNotFound if they have none.
func (r *Repo) GetActiveByCreator(ctx context.Context, creatorID uuid.UUID) (*domain.Refund, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	ref, err := scanRefund(querier.QueryRow(ctx, getActiveByCreatorSQL, creatorID))
	if err != nil {
		return nil, postgres.MapError(err, "refund", uuid.Nil)
	}
	if err := r.loadVotes(ctx, ref); err != nil {
		return nil, err
	}
	return ref, nil
}

// ListByState returns all refunds in the given state with votes loaded.
func (r *Repo) ListByState(ctx context.Context, state domain.RefundState) ([]*domain.Refund, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listByStateSQL, string(state))
	if err != nil {
		return nil, fmt.Errorf("list refunds: %w", err)
	}
	defer rows.Close()

	var refunds []*domain.Refund
	for rows.Next() {
		ref, err := scanRefund(rows)
		if err != nil {
			return nil, fmt.Errorf("list refunds: %w", err)
		}
		refunds = append(refunds, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list refunds: %w", err)
	}

	for _, ref := range refunds {
		if err := r.loadVotes(ctx, ref); err != nil {
			return nil, err
		}
	}

	if refunds == nil {
		refunds = []*domain.Refund{}
	}
	return refunds, nil
}

// SetState moves a refund to a terminal state, optionally recording the
// payout transaction.
func (r *Repo) SetState(ctx context.Context, id uuid.UUID, state domain.RefundState, transactionID *uuid.UUID) (*domain.Refund, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	ref, err := scanRefund(querier.QueryRow(ctx, setStateSQL, id, string(state), transactionID))
	if err != nil {
		return nil, postgres.MapError(err, "refund", id)
	}
	if err := r.loadVotes(ctx, ref); err != nil {
		return nil, err
	}
	return ref, nil
}

// UpsertVote records a vote, replacing the voter's previous vote on the
// same refund if present.
func (r *Repo) UpsertVote(ctx context.Context, refundID, voterID uuid.UUID, approve bool) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := querier.Exec(ctx, upsertVoteSQL, refundID, voterID, approve); err != nil {
		return postgres.MapError(err, "refund_vote", refundID)
	}
	return nil
}

// DeleteVote retracts a voter's vote.
// Returns domain.ErrNotFound if the voter had not voted.
func (r *Repo) DeleteVote(ctx context.Context, refundID, voterID uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	ct, err := querier.Exec(ctx, deleteVoteSQL, refundID, voterID)
	if err != nil {
		return postgres.MapError(err, "refund_vote", refundID)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("refund_vote %s: %w", refundID, domain.ErrNotFound)
	}
	return nil
}

func (r *Repo) loadVotes(ctx context.Context, ref *domain.Refund) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listVotesSQL, ref.ID)
	if err != nil {
		return fmt.Errorf("load refund votes: %w", err)
	}
	defer rows.Close()

	var votes []domain.Vote
	for rows.Next() {
		var v domain.Vote
		if err := rows.Scan(&v.VoterID, &v.Approve, &v.CreatedAt); err != nil {
			return fmt.Errorf("load refund votes: %w", err)
		}
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load refund votes: %w", err)
	}

	ref.Votes = votes
	return nil
}

func scanRefund(row pgx.Row) (*domain.Refund, error) {
	ref := &domain.Refund{}
	var state string
	err := row.Scan(&ref.ID, &ref.CreatorID, &ref.Amount, &ref.Reason, &state, &ref.TransactionID, &ref.CreatedAt, &ref.UpdatedAt)
	if err != nil {
		return nil, err
	}
	ref.State = domain.RefundState(state)
	return ref, nil
}
