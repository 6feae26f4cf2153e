package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matekasse/matekasse-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedUser creates an active internal user with a zero balance.
// Returns a filled domain.User.
func SeedUser(t *testing.T, pool *pgxpool.Pool) domain.User {
	t.Helper()
	return SeedUserWith(t, pool, func(*domain.User) {})
}

// SeedExternalUser creates an active external user without a voucher.
func SeedExternalUser(t *testing.T, pool *pgxpool.Pool) domain.User {
	t.Helper()
	return SeedUserWith(t, pool, func(u *domain.User) {
		u.Internal = false
	})
}

// SeedUserWith creates a user after applying modify to the default template.
func SeedUserWith(t *testing.T, pool *pgxpool.Pool, modify func(*domain.User)) domain.User {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	name := "test-user-" + suffix
	user := domain.User{
		ID:        uuid.New(),
		Name:      &name,
		Balance:   0,
		Active:    true,
		Internal:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	modify(&user)

	_, err := pool.Exec(ctx,
		`INSERT INTO users (id, name, balance, active, internal, voucher_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, user.Name, user.Balance, user.Active, user.Internal, user.VoucherID, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedUser insert user: %v", err)
	}

	return user
}

// SeedApplication creates an application with a unique name and a fixed
// test secret. Returns a filled domain.Application.
func SeedApplication(t *testing.T, pool *pgxpool.Pool) domain.Application {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	app := domain.Application{
		ID:        uuid.New(),
		Name:      "test-app-" + suffix,
		Secret:    "test-secret-" + suffix,
		CreatedAt: now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO applications (id, name, secret, created_at) VALUES ($1, $2, $3, $4)`,
		app.ID, app.Name, app.Secret, app.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedApplication insert application: %v", err)
	}

	return app
}

// SeedAlias links a user to an application under a unique app-side id.
func SeedAlias(t *testing.T, pool *pgxpool.Pool, userID, applicationID uuid.UUID) domain.Alias {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	alias := domain.Alias{
		ID:            uuid.New(),
		UserID:        userID,
		ApplicationID: applicationID,
		AppUserID:     "app-user-" + uniqueSuffix(),
		CreatedAt:     now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO aliases (id, user_id, application_id, app_user_id, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		alias.ID, alias.UserID, alias.ApplicationID, alias.AppUserID, alias.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedAlias insert alias: %v", err)
	}

	return alias
}

// SeedTransaction records a completed transfer between two existing
// users without touching their balances.
func SeedTransaction(t *testing.T, pool *pgxpool.Pool, senderID, receiverID uuid.UUID, amount int64) domain.Transaction {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	tx := domain.Transaction{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Amount:     amount,
		Reason:     "seed-" + uniqueSuffix(),
		CreatedAt:  now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO transactions (id, sender_id, receiver_id, amount, reason, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		tx.ID, tx.SenderID, tx.ReceiverID, tx.Amount, tx.Reason, tx.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedTransaction insert transaction: %v", err)
	}

	return tx
}

// SeedConsumable creates a consumable with the given price and a unique name.
func SeedConsumable(t *testing.T, pool *pgxpool.Pool, price int64) domain.Consumable {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	c := domain.Consumable{
		ID:          uuid.New(),
		Name:        "test-drink-" + suffix,
		Description: "seeded consumable",
		Price:       price,
		Symbol:      "🍹",
		Stock:       100,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO consumables (id, name, description, price, symbol, stock, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.Name, c.Description, c.Price, c.Symbol, c.Stock, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedConsumable insert consumable: %v", err)
	}

	return c
}
