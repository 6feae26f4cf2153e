package consumable_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/matekasse/matekasse-backend/internal/adapter/postgres/consumable"
	"github.com/matekasse/matekasse-backend/internal/adapter/postgres/testhelper"
	"github.com/matekasse/matekasse-backend/internal/domain"
)

func TestRepo_Create_AndGet(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := consumable.New(pool)
	ctx := context.Background()

	name := "mate-" + uuid.New().String()[:8]
	c := domain.Consumable{
		ID:          uuid.New(),
		Name:        name,
		Description: "the original",
		Price:       150,
		Symbol:      "🧉",
		Stock:       24,
	}

	created, err := repo.Create(ctx, &c)
	if err != nil {
		t.Fatalf("Create: unexpected error: %v", err)
	}
	if created.Price != 150 || created.Stock != 24 {
		t.Errorf("got price=%d stock=%d, want 150/24", created.Price, created.Stock)
	}

	got, err := repo.GetByName(ctx, name)
	if err != nil {
		t.Fatalf("GetByName: unexpected error: %v", err)
	}
	if got.ID != c.ID {
		t.Errorf("ID = %s, want %s", got.ID, c.ID)
	}
}

func TestRepo_Create_DuplicateName(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := consumable.New(pool)
	ctx := context.Background()

	name := "dup-" + uuid.New().String()[:8]
	if _, err := repo.Create(ctx, &domain.Consumable{ID: uuid.New(), Name: name, Price: 100}); err != nil {
		t.Fatalf("Create first: %v", err)
	}

	_, err := repo.Create(ctx, &domain.Consumable{ID: uuid.New(), Name: name, Price: 200})
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got: %v", err)
	}
}

func TestRepo_DecrementStock(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := consumable.New(pool)
	ctx := context.Background()

	c := testhelper.SeedConsumable(t, pool, 150)

	got, err := repo.DecrementStock(ctx, c.ID, 10)
	if err != nil {
		t.Fatalf("DecrementStock: unexpected error: %v", err)
	}
	if got.Stock != c.Stock-10 {
		t.Errorf("Stock = %d, want %d", got.Stock, c.Stock-10)
	}

	// Draining past zero violates the stock check.
	_, err = repo.DecrementStock(ctx, c.ID, got.Stock+1)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for oversell, got: %v", err)
	}
}

func TestRepo_Messages(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := consumable.New(pool)
	ctx := context.Background()

	c := testhelper.SeedConsumable(t, pool, 150)

	if err := repo.AddMessage(ctx, c.ID, "enjoy!"); err != nil {
		t.Fatalf("AddMessage: %v", err)
	}
	if err := repo.AddMessage(ctx, c.ID, "prost!"); err != nil {
		t.Fatalf("AddMessage: %v", err)
	}

	got, err := repo.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("len(Messages) = %d, want 2", len(got.Messages))
	}
}

func TestRepo_Update(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := consumable.New(pool)
	ctx := context.Background()

	c := testhelper.SeedConsumable(t, pool, 150)
	c.Price = 200
	c.Stock = 7

	got, err := repo.Update(ctx, &c)
	if err != nil {
		t.Fatalf("Update: unexpected error: %v", err)
	}
	if got.Price != 200 || got.Stock != 7 {
		t.Errorf("got price=%d stock=%d, want 200/7", got.Price, got.Stock)
	}
}

func TestRepo_Delete(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := consumable.New(pool)
	ctx := context.Background()

	c := testhelper.SeedConsumable(t, pool, 150)

	if err := repo.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete: unexpected error: %v", err)
	}
	if _, err := repo.GetByID(ctx, c.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got: %v", err)
	}
}
