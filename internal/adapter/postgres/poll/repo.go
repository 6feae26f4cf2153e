// Package poll implements the MembershipPoll repository using PostgreSQL.
package poll

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

// Repo provides membership poll persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new poll repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const pollColumns = `id, creator_id, state, created_at, updated_at`

const createSQL = `
INSERT INTO membership_polls (id, creator_id, state, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4)
RETURNING ` + pollColumns

const getByIDSQL = `
SELECT ` + pollColumns + `
FROM membership_polls
WHERE id = $1`

const getForUpdateSQL = `
SELECT ` + pollColumns + `
FROM membership_polls
WHERE id = $1
FOR UPDATE`

const listByStateSQL = `
SELECT ` + pollColumns + `
FROM membership_polls
WHERE state = $1
ORDER BY created_at`

const setStateSQL = `
UPDATE membership_polls
SET state = $2, updated_at = now()
WHERE id = $1
RETURNING ` + pollColumns

const upsertVoteSQL = `
INSERT INTO poll_votes (poll_id, voter_id, approve, created_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (poll_id, voter_id)
DO UPDATE SET approve = EXCLUDED.approve, created_at = now()`

const deleteVoteSQL = `
DELETE FROM poll_votes WHERE poll_id = $1 AND voter_id = $2`

const listVotesSQL = `
SELECT voter_id, approve, created_at
FROM poll_votes
WHERE poll_id = $1
ORDER BY created_at`

// Create inserts a new poll in the ACTIVE state.
// A second active poll for the same creator yields domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, p *domain.MembershipPoll) (*domain.MembershipPoll, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	row := querier.QueryRow(ctx, createSQL, p.ID, p.CreatorID, string(domain.PollStateActive), now)

	created, err := scanPoll(row)
	if err != nil {
		return nil, postgres.MapError(err, "poll", p.ID)
	}
	return created, nil
}

// GetByID returns a poll with its votes loaded.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.MembershipPoll, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	p, err := scanPoll(querier.QueryRow(ctx, getByIDSQL, id))
	if err != nil {
		return nil, postgres.MapError(err, "poll", id)
	}
	if err := r.loadVotes(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetForUpdate returns a poll with its votes and locks the poll row
// until the surrounding transaction ends. Callers must hold a
// transaction in ctx.
func (r *Repo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.MembershipPoll, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	p, err := scanPoll(querier.QueryRow(ctx, getForUpdateSQL, id))
	if err != nil {
		return nil, postgres.MapError(err, "poll", id)
	}
	if err := r.loadVotes(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListByState returns all polls in the given state with votes loaded.
func (r *Repo) ListByState(ctx context.Context, state domain.PollState) ([]*domain.MembershipPoll, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listByStateSQL, string(state))
	if err != nil {
		return nil, fmt.Errorf("list polls: %w", err)
	}
	defer rows.Close()

	var polls []*domain.MembershipPoll
	for rows.Next() {
		p, err := scanPoll(rows)
		if err != nil {
			return nil, fmt.Errorf("list polls: %w", err)
		}
		polls = append(polls, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list polls: %w", err)
	}

	for _, p := range polls {
		if err := r.loadVotes(ctx, p); err != nil {
			return nil, err
		}
	}

	if polls == nil {
		polls = []*domain.MembershipPoll{}
	}
	return polls, nil
}

// SetState moves a poll to a terminal state.
func (r *Repo) SetState(ctx context.Context, id uuid.UUID, state domain.PollState) (*domain.MembershipPoll, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	p, err := scanPoll(querier.QueryRow(ctx, setStateSQL, id, string(state)))
	if err != nil {
		return nil, postgres.MapError(err, "poll", id)
	}
	if err := r.loadVotes(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpsertVote records a vote, replacing the voter's previous vote on the
// same poll if present.
func (r *Repo) UpsertVote(ctx context.Context, pollID, voterID uuid.UUID, approve bool) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := querier.Exec(ctx, upsertVoteSQL, pollID, voterID, approve); err != nil {
		return postgres.MapError(err, "poll_vote", pollID)
	}
	return nil
}

// DeleteVote retracts a voter's vote.
// Returns domain.ErrNotFound if the voter had not voted.
func (r *Repo) DeleteVote(ctx context.Context, pollID, voterID uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	ct, err := querier.Exec(ctx, deleteVoteSQL, pollID, voterID)
	if err != nil {
		return postgres.MapError(err, "poll_vote", pollID)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("poll_vote %s: %w", pollID, domain.ErrNotFound)
	}
	return nil
}

func (r *Repo) loadVotes(ctx context.Context, p *domain.MembershipPoll) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listVotesSQL, p.ID)
	if err != nil {
		return fmt.Errorf("load poll votes: %w", err)
	}
	defer rows.Close()

	var votes []domain.Vote
	for rows.Next() {
		var v domain.Vote
		if err := rows.Scan(&v.VoterID, &v.Approve, &v.CreatedAt); err != nil {
			return fmt.Errorf("load poll votes: %w", err)
		}
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load poll votes: %w", err)
	}

	p.Votes = votes
	return nil
}

func scanPoll(row pgx.Row) (*domain.MembershipPoll, error) {
	p := &domain.MembershipPoll{}
	var state string
	err := row.Scan(&p.ID, &p.CreatorID, &state, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.State = domain.PollState(state)
	return p, nil
}
