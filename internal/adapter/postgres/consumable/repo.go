// Package consumable implements the Consumable repository using PostgreSQL.
package consumable

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

// Repo provides consumable persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new consumable repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const consumableColumns = `id, name, description, price, symbol, stock, created_at, updated_at`

const createSQL = `
INSERT INTO consumables (id, name, description, price, symbol, stock, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
RETURNING ` + consumableColumns

const getByIDSQL = `
SELECT ` + consumableColumns + `
FROM consumables
WHERE id = $1`

const getByNameSQL = `
SELECT ` + consumableColumns + `
FROM consumables
WHERE name = $1`

const listSQL = `
SELECT ` + consumableColumns + `
FROM consumables
ORDER BY name`

const updateSQL = `
UPDATE consumables
SET name = $2, description = $3, price = $4, symbol = $5, stock = $6, updated_at = now()
WHERE id = $1
RETURNING ` + consumableColumns

const decrementStockSQL = `
UPDATE consumables
SET stock = stock - $2, updated_at = now()
WHERE id = $1
RETURNING ` + consumableColumns

const deleteSQL = `
DELETE FROM consumables WHERE id = $1`

const addMessageSQL = `
INSERT INTO consumable_messages (id, consumable_id, message)
VALUES ($1, $2, $3)`

const listMessagesSQL = `
SELECT message
FROM consumable_messages
WHERE consumable_id = $1
ORDER BY id`

// Create inserts a new consumable.
// A duplicate name yields domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, c *domain.Consumable) (*domain.Consumable, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	row := querier.QueryRow(ctx, createSQL,
		c.ID, c.Name, c.Description, c.Price, c.Symbol, c.Stock, now,
	)

	created, err := scanConsumable(row)
	if err != nil {
		return nil, postgres.MapError(err, "consumable", c.ID)
	}
	return created, nil
}

// GetByID returns a consumable with its messages loaded.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Consumable, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	c, err := scanConsumable(querier.QueryRow(ctx, getByIDSQL, id))
	if err != nil {
		return nil, postgres.MapError(err, "consumable", id)
	}
	if err := r.loadMessages(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetByName returns a consumable by its unique name.
func (r *Repo) GetByName(ctx context.Context, name string) (*domain.Consumable, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	c, err := scanConsumable(querier.QueryRow(ctx, getByNameSQL, name))
	if err != nil {
		return nil, postgres.MapError(err, "consumable", uuid.Nil)
	}
	if err := r.loadMessages(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// List returns all consumables with messages loaded, ordered by name.
func (r *Repo) List(ctx context.Context) ([]*domain.Consumable, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listSQL)
	if err != nil {
		return nil, fmt.Errorf("list consumables: %w", err)
	}
	defer rows.Close()

	var consumables []*domain.Consumable
	for rows.Next() {
		c, err := scanConsumable(rows)
		if err != nil {
			return nil, fmt.Errorf("list consumables: %w", err)
		}
		consumables = append(consumables, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list consumables: %w", err)
	}

	for _, c := range consumables {
		if err := r.loadMessages(ctx, c); err != nil {
			return nil, err
		}
	}

	if consumables == nil {
		consumables = []*domain.Consumable{}
	}
	return consumables, nil
}

// Update replaces the mutable fields of a consumable.
func (r *Repo) Update(ctx context.Context, c *domain.Consumable) (*domain.Consumable, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	updated, err := scanConsumable(querier.QueryRow(ctx, updateSQL,
		c.ID, c.Name, c.Description, c.Price, c.Symbol, c.Stock,
	))
	if err != nil {
		return nil, postgres.MapError(err, "consumable", c.ID)
	}
	if err := r.loadMessages(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// DecrementStock reduces stock by quantity. The schema's stock >= 0
// check rejects oversells with domain.ErrValidation.
func (r *Repo) DecrementStock(ctx context.Context, id uuid.UUID, quantity int64) (*domain.Consumable, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	c, err := scanConsumable(querier.QueryRow(ctx, decrementStockSQL, id, quantity))
	if err != nil {
		return nil, postgres.MapError(err, "consumable", id)
	}
	if err := r.loadMessages(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes a consumable and its messages.
// Returns domain.ErrNotFound if no row was deleted.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	ct, err := querier.Exec(ctx, deleteSQL, id)
	if err != nil {
		return postgres.MapError(err, "consumable", id)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("consumable %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// AddMessage appends a flavor message printed on purchases.
func (r *Repo) AddMessage(ctx context.Context, consumableID uuid.UUID, message string) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := querier.Exec(ctx, addMessageSQL, uuid.New(), consumableID, message); err != nil {
		return postgres.MapError(err, "consumable_message", consumableID)
	}
	return nil
}

func (r *Repo) loadMessages(ctx context.Context, c *domain.Consumable) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listMessagesSQL, c.ID)
	if err != nil {
		return fmt.Errorf("load consumable messages: %w", err)
	}
	defer rows.Close()

	var messages []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return fmt.Errorf("load consumable messages: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load consumable messages: %w", err)
	}

	c.Messages = messages
	return nil
}

func scanConsumable(row pgx.Row) (*domain.Consumable, error) {
	c := &domain.Consumable{}
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Price, &c.Symbol, &c.Stock, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}
