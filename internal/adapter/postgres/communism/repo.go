// Package communism implements the Communism repository using PostgreSQL.
package communism

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

// Repo provides communism persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new communism repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const communismColumns = `id, creator_id, amount, description, state, created_at, updated_at`

const createSQL = `
INSERT INTO communisms (id, creator_id, amount, description, state, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)
RETURNING ` + communismColumns

const getByIDSQL = `
SELECT ` + communismColumns + `
FROM communisms
WHERE id = $1`

const getForUpdateSQL = `
SELECT ` + communismColumns + `
FROM communisms
WHERE id = $1
FOR UPDATE`

const listByStateSQL = `
SELECT ` + communismColumns + `
FROM communisms
WHERE state = $1
ORDER BY created_at`

const setStateSQL = `
UPDATE communisms
SET state = $2, updated_at = now()
WHERE id = $1
RETURNING ` + communismColumns

const setParticipantSQL = `
INSERT INTO communism_participants (communism_id, user_id, quantity)
VALUES ($1, $2, $3)
ON CONFLICT (communism_id, user_id)
DO UPDATE SET quantity = EXCLUDED.quantity`

const removeParticipantSQL = `
DELETE FROM communism_participants WHERE communism_id = $1 AND user_id = $2`

const listParticipantsSQL = `
SELECT user_id, quantity
FROM communism_participants
WHERE communism_id = $1
ORDER BY user_id`

// Create inserts a new communism in the ACTIVE state.
// A second active communism for the same creator yields domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, c *domain.Communism) (*domain.Communism, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	row := querier.QueryRow(ctx, createSQL,
		c.ID, c.CreatorID, c.Amount, c.Description, string(domain.CommunismStateActive), now,
	)

	created, err := scanCommunism(row)
	if err != nil {
		return nil, postgres.MapError(err, "communism", c.ID)
	}
	return created, nil
}

// GetByID returns a communism with its participants loaded.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Communism, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	c, err := scanCommunism(querier.QueryRow(ctx, getByIDSQL, id))
	if err != nil {
		return nil, postgres.MapError(err, "communism", id)
	}
	if err := r.loadParticipants(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetForUpdate returns a communism with its participants and locks the
// communism row until the surrounding transaction ends. Callers must
// hold a transaction in ctx.
func (r *Repo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Communism, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	c, err := scanCommunism(querier.QueryRow(ctx, getForUpdateSQL, id))
	if err != nil {
		return nil, postgres.MapError(err, "communism", id)
	}
	if err := r.loadParticipants(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListByState returns all communisms in the given state with
// participants loaded.
func (r *Repo) ListByState(ctx context.Context, state domain.CommunismState) ([]*domain.Communism, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listByStateSQL, string(state))
	if err != nil {
		return nil, fmt.Errorf("list communisms: %w", err)
	}
	defer rows.Close()

	var communisms []*domain.Communism
	for rows.Next() {
		c, err := scanCommunism(rows)
		if err != nil {
			return nil, fmt.Errorf("list communisms: %w", err)
		}
		communisms = append(communisms, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list communisms: %w", err)
	}

	for _, c := range communisms {
		if err := r.loadParticipants(ctx, c); err != nil {
			return nil, err
		}
	}

	if communisms == nil {
		communisms = []*domain.Communism{}
	}
	return communisms, nil
}

// SetState moves a communism to a terminal state.
func (r *Repo) SetState(ctx context.Context, id uuid.UUID, state domain.CommunismState) (*domain.Communism, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	c, err := scanCommunism(querier.QueryRow(ctx, setStateSQL, id, string(state)))
	if err != nil {
		return nil, postgres.MapError(err, "communism", id)
	}
	if err := r.loadParticipants(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// SetParticipant upserts a participant's share count.
func (r *Repo) SetParticipant(ctx context.Context, communismID, userID uuid.UUID, quantity int64) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := querier.Exec(ctx, setParticipantSQL, communismID, userID, quantity); err != nil {
		return postgres.MapError(err, "communism_participant", communismID)
	}
	return nil
}

// RemoveParticipant drops a user from the communism entirely.
// Returns domain.ErrNotFound if the user was not participating.
func (r *Repo) RemoveParticipant(ctx context.Context, communismID, userID uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	ct, err := querier.Exec(ctx, removeParticipantSQL, communismID, userID)
	if err != nil {
		return postgres.MapError(err, "communism_participant", communismID)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("communism_participant %s: %w", communismID, domain.ErrNotFound)
	}
	return nil
}

func (r *Repo) loadParticipants(ctx context.Context, c *domain.Communism) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listParticipantsSQL, c.ID)
	if err != nil {
		return fmt.Errorf("load communism participants: %w", err)
	}
	defer rows.Close()

	var parts []domain.CommunismParticipant
	for rows.Next() {
		var p domain.CommunismParticipant
		if err := rows.Scan(&p.UserID, &p.Quantity); err != nil {
			return fmt.Errorf("load communism participants: %w", err)
		}
		parts = append(parts, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load communism participants: %w", err)
	}

	c.Participants = parts
	return nil
}

func scanCommunism(row pgx.Row) (*domain.Communism, error) {
	c := &domain.Communism{}
	var state string
	err := row.Scan(&c.ID, &c.CreatorID, &c.Amount, &c.Description, &state, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.State = domain.CommunismState(state)
	return c, nil
}
