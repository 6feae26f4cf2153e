// Package user implements the User and Alias repository using PostgreSQL.
package user

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

// Repo provides user and alias persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new user repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// SQL constants
// ---------------------------------------------------------------------------

const userColumns = `id, name, balance, active, internal, voucher_id, created_at, updated_at`

const createSQL = `
INSERT INTO users (id, name, balance, active, internal, voucher_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + userColumns

const getByIDSQL = `
SELECT ` + userColumns + `
FROM users
WHERE id = $1`

const getForUpdateSQL = `
SELECT ` + userColumns + `
FROM users
WHERE id = $1
FOR UPDATE`

const listSQL = `
SELECT ` + userColumns + `
FROM users
ORDER BY created_at`

const listActiveSQL = `
SELECT ` + userColumns + `
FROM users
WHERE active
ORDER BY created_at`

const addBalanceSQL = `
UPDATE users
SET balance = balance + $2, updated_at = now()
WHERE id = $1
RETURNING ` + userColumns

const setVoucherSQL = `
UPDATE users
SET voucher_id = $2, updated_at = now()
WHERE id = $1
RETURNING ` + userColumns

const promoteSQL = `
UPDATE users
SET internal = TRUE, voucher_id = NULL, updated_at = now()
WHERE id = $1
RETURNING ` + userColumns

const disableSQL = `
UPDATE users
SET active = FALSE, voucher_id = NULL, updated_at = now()
WHERE id = $1
RETURNING ` + userColumns

const updateNameSQL = `
UPDATE users
SET name = $2, updated_at = now()
WHERE id = $1
RETURNING ` + userColumns

const listVouchedBySQL = `
SELECT ` + userColumns + `
FROM users
WHERE voucher_id = $1
ORDER BY created_at`

// ---------------------------------------------------------------------------
// User operations
// ---------------------------------------------------------------------------

// Create inserts a new user and returns the persisted domain.User.
func (r *Repo) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	row := querier.QueryRow(ctx, createSQL,
		u.ID, u.Name, u.Balance, u.Active, u.Internal, u.VoucherID, now, now,
	)

	created, err := scanUser(row)
	if err != nil {
		return nil, postgres.MapError(err, "user", u.ID)
	}
	return created, nil
}

// GetByID returns a user by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	u, err := scanUser(querier.QueryRow(ctx, getByIDSQL, id))
	if err != nil {
		return nil, postgres.MapError(err, "user", id)
	}
	return u, nil
}

// GetForUpdate returns a user and locks its row until the surrounding
// transaction ends. Callers must hold a transaction in ctx.
func (r *Repo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	u, err := scanUser(querier.QueryRow(ctx, getForUpdateSQL, id))
	if err != nil {
		return nil, postgres.MapError(err, "user", id)
	}
	return u, nil
}

// List returns all users ordered by creation time. When activeOnly is
// set, disabled users are filtered out.
func (r *Repo) List(ctx context.Context, activeOnly bool) ([]*domain.User, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	query := listSQL
	if activeOnly {
		query = listActiveSQL
	}

	rows, err := querier.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users, err := scanUsers(rows)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// ListVouchedBy returns all users currently vouched for by voucherID.
func (r *Repo) ListVouchedBy(ctx context.Context, voucherID uuid.UUID) ([]*domain.User, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listVouchedBySQL, voucherID)
	if err != nil {
		return nil, fmt.Errorf("list vouched users: %w", err)
	}
	defer rows.Close()

	users, err := scanUsers(rows)
	if err != nil {
		return nil, fmt.Errorf("list vouched users: %w", err)
	}
	return users, nil
}

// AddBalance atomically adjusts the user's balance by delta (which may
// be negative) and returns the updated user.
func (r *Repo) AddBalance(ctx context.Context, id uuid.UUID, delta int64) (*domain.User, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	u, err := scanUser(querier.QueryRow(ctx, addBalanceSQL, id, delta))
	if err != nil {
		return nil, postgres.MapError(err, "user", id)
	}
	return u, nil
}

// SetVoucher sets or clears (nil) the user's voucher.
func (r *Repo) SetVoucher(ctx context.Context, id uuid.UUID, voucherID *uuid.UUID) (*domain.User, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	u, err := scanUser(querier.QueryRow(ctx, setVoucherSQL, id, voucherID))
	if err != nil {
		return nil, postgres.MapError(err, "user", id)
	}
	return u, nil
}

// Promote marks the user internal and discharges their voucher.
func (r *Repo) Promote(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	u, err := scanUser(querier.QueryRow(ctx, promoteSQL, id))
	if err != nil {
		return nil, postgres.MapError(err, "user", id)
	}
	return u, nil
}

// Disable deactivates the user and clears their voucher.
func (r *Repo) Disable(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	u, err := scanUser(querier.QueryRow(ctx, disableSQL, id))
	if err != nil {
		return nil, postgres.MapError(err, "user", id)
	}
	return u, nil
}

// UpdateName changes the user's display name.
func (r *Repo) UpdateName(ctx context.Context, id uuid.UUID, name *string) (*domain.User, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	u, err := scanUser(querier.QueryRow(ctx, updateNameSQL, id, name))
	if err != nil {
		return nil, postgres.MapError(err, "user", id)
	}
	return u, nil
}

// ---------------------------------------------------------------------------
// Alias operations
// ---------------------------------------------------------------------------

const aliasColumns = `id, user_id, application_id, app_user_id, created_at`

const createAliasSQL = `
INSERT INTO aliases (id, user_id, application_id, app_user_id, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + aliasColumns

const getAliasSQL = `
SELECT ` + aliasColumns + `
FROM aliases
WHERE application_id = $1 AND app_user_id = $2`

const listAliasesByUserSQL = `
SELECT ` + aliasColumns + `
FROM aliases
WHERE user_id = $1
ORDER BY created_at`

const countAliasesByUserSQL = `
SELECT count(*) FROM aliases WHERE user_id = $1`

const deleteAliasSQL = `
DELETE FROM aliases WHERE id = $1`

const getAliasByIDSQL = `
SELECT ` + aliasColumns + `
FROM aliases
WHERE id = $1`

// CreateAlias links a user to an application-side user id.
// A duplicate (application_id, app_user_id) pair yields domain.ErrAlreadyExists.
func (r *Repo) CreateAlias(ctx context.Context, a *domain.Alias) (*domain.Alias, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	row := querier.QueryRow(ctx, createAliasSQL, a.ID, a.UserID, a.ApplicationID, a.AppUserID, now)

	created, err := scanAlias(row)
	if err != nil {
		return nil, postgres.MapError(err, "alias", a.ID)
	}
	return created, nil
}

// GetAlias resolves an application-side user id to an alias.
func (r *Repo) GetAlias(ctx context.Context, applicationID uuid.UUID, appUserID string) (*domain.Alias, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	a, err := scanAlias(querier.QueryRow(ctx, getAliasSQL, applicationID, appUserID))
	if err != nil {
		return nil, postgres.MapError(err, "alias", uuid.Nil)
	}
	return a, nil
}

// GetAliasByID returns an alias by primary key.
func (r *Repo) GetAliasByID(ctx context.Context, id uuid.UUID) (*domain.Alias, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	a, err := scanAlias(querier.QueryRow(ctx, getAliasByIDSQL, id))
	if err != nil {
		return nil, postgres.MapError(err, "alias", id)
	}
	return a, nil
}

// ListAliasesByUser returns all aliases of a user.
func (r *Repo) ListAliasesByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Alias, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listAliasesByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("list aliases: %w", err)
	}
	defer rows.Close()

	var aliases []*domain.Alias
	for rows.Next() {
		a := &domain.Alias{}
		if err := rows.Scan(&a.ID, &a.UserID, &a.ApplicationID, &a.AppUserID, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("list aliases: %w", err)
		}
		aliases = append(aliases, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list aliases: %w", err)
	}

	if aliases == nil {
		aliases = []*domain.Alias{}
	}
	return aliases, nil
}

// CountAliasesByUser returns the number of aliases pointing at a user.
func (r *Repo) CountAliasesByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var n int
	if err := querier.QueryRow(ctx, countAliasesByUserSQL, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count aliases: %w", err)
	}
	return n, nil
}

// DeleteAlias removes an alias by primary key.
// Returns domain.ErrNotFound if no row was deleted.
func (r *Repo) DeleteAlias(ctx context.Context, id uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	ct, err := querier.Exec(ctx, deleteAliasSQL, id)
	if err != nil {
		return postgres.MapError(err, "alias", id)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("alias %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Row scanning helpers
// ---------------------------------------------------------------------------

func scanUser(row pgx.Row) (*domain.User, error) {
	u := &domain.User{}
	err := row.Scan(&u.ID, &u.Name, &u.Balance, &u.Active, &u.Internal, &u.VoucherID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func scanUsers(rows pgx.Rows) ([]*domain.User, error) {
	var users []*domain.User
	for rows.Next() {
		u := &domain.User{}
		if err := rows.Scan(&u.ID, &u.Name, &u.Balance, &u.Active, &u.Internal, &u.VoucherID, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if users == nil {
		users = []*domain.User{}
	}
	return users, nil
}

func scanAlias(row pgx.Row) (*domain.Alias, error) {
	a := &domain.Alias{}
	err := row.Scan(&a.ID, &a.UserID, &a.ApplicationID, &a.AppUserID, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}
