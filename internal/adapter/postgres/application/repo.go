// Package application implements the Application and Callback
// repository using PostgreSQL.
package application

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

// Repo provides application and callback persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new application repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const appColumns = `id, name, secret, created_at`

const createSQL = `
INSERT INTO applications (id, name, secret, created_at)
VALUES ($1, $2, $3, $4)
RETURNING ` + appColumns

const getByIDSQL = `
SELECT ` + appColumns + `
FROM applications
WHERE id = $1`

const getByNameSQL = `
SELECT ` + appColumns + `
FROM applications
WHERE name = $1`

const listSQL = `
SELECT ` + appColumns + `
FROM applications
ORDER BY created_at`

const callbackColumns = `id, application_id, uri, username, password, created_at`

const createCallbackSQL = `
INSERT INTO callbacks (id, application_id, uri, username, password, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + callbackColumns

const listCallbacksSQL = `
SELECT ` + callbackColumns + `
FROM callbacks
ORDER BY created_at`

const listCallbacksByAppSQL = `
SELECT ` + callbackColumns + `
FROM callbacks
WHERE application_id = $1
ORDER BY created_at`

const deleteCallbackSQL = `
DELETE FROM callbacks WHERE id = $1`

// Create registers a new application. A nil ID is replaced with a
// fresh one so callers may leave it unset.
// A duplicate name yields domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, app *domain.Application) (*domain.Application, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	id := app.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	row := querier.QueryRow(ctx, createSQL, id, app.Name, app.Secret, now)

	created, err := scanApplication(row)
	if err != nil {
		return nil, postgres.MapError(err, "application", id)
	}
	return created, nil
}

// GetByID returns an application by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Application, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	app, err := scanApplication(querier.QueryRow(ctx, getByIDSQL, id))
	if err != nil {
		return nil, postgres.MapError(err, "application", id)
	}
	return app, nil
}

// GetByName returns an application by its unique name.
func (r *Repo) GetByName(ctx context.Context, name string) (*domain.Application, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	app, err := scanApplication(querier.QueryRow(ctx, getByNameSQL, name))
	if err != nil {
		return nil, postgres.MapError(err, "application", uuid.Nil)
	}
	return app, nil
}

// List returns all registered applications.
func (r *Repo) List(ctx context.Context) ([]*domain.Application, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listSQL)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var apps []*domain.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("list applications: %w", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}

	if apps == nil {
		apps = []*domain.Application{}
	}
	return apps, nil
}

// CreateCallback registers a notification endpoint for an application.
// A nil ID is replaced with a fresh one so callers may leave it unset.
func (r *Repo) CreateCallback(ctx context.Context, cb *domain.Callback) (*domain.Callback, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	id := cb.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	row := querier.QueryRow(ctx, createCallbackSQL,
		id, cb.ApplicationID, cb.URI, cb.Username, cb.Password, now,
	)

	created, err := scanCallback(row)
	if err != nil {
		return nil, postgres.MapError(err, "callback", id)
	}
	return created, nil
}

// ListCallbacks returns every registered callback across all
// applications. The notifier uses it to fan out events.
func (r *Repo) ListCallbacks(ctx context.Context) ([]*domain.Callback, error) {
	return r.listCallbacks(ctx, listCallbacksSQL)
}

// ListCallbacksByApplication returns the callbacks one application registered.
func (r *Repo) ListCallbacksByApplication(ctx context.Context, applicationID uuid.UUID) ([]*domain.Callback, error) {
	return r.listCallbacks(ctx, listCallbacksByAppSQL, applicationID)
}

// DeleteCallback removes a callback by primary key.
// Returns domain.ErrNotFound if no row was deleted.
func (r *Repo) DeleteCallback(ctx context.Context, id uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	ct, err := querier.Exec(ctx, deleteCallbackSQL, id)
	if err != nil {
		return postgres.MapError(err, "callback", id)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("callback %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *Repo) listCallbacks(ctx context.Context, query string, args ...any) ([]*domain.Callback, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list callbacks: %w", err)
	}
	defer rows.Close()

	var callbacks []*domain.Callback
	for rows.Next() {
		cb, err := scanCallback(rows)
		if err != nil {
			return nil, fmt.Errorf("list callbacks: %w", err)
		}
		callbacks = append(callbacks, cb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list callbacks: %w", err)
	}

	if callbacks == nil {
		callbacks = []*domain.Callback{}
	}
	return callbacks, nil
}

func scanApplication(row pgx.Row) (*domain.Application, error) {
	app := &domain.Application{}
	err := row.Scan(&app.ID, &app.Name, &app.Secret, &app.CreatedAt)
	if err != nil {
		return nil, err
	}
	return app, nil
}

func scanCallback(row pgx.Row) (*domain.Callback, error) {
	cb := &domain.Callback{}
	err := row.Scan(&cb.ID, &cb.ApplicationID, &cb.URI, &cb.Username, &cb.Password, &cb.CreatedAt)
	if err != nil {
		return nil, err
	}
	return cb, nil
}
