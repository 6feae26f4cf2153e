package transaction_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/matekasse/matekasse-backend/internal/adapter/postgres/testhelper"
	"github.com/matekasse/matekasse-backend/internal/adapter/postgres/transaction"
	"github.com/matekasse/matekasse-backend/internal/domain"
)

func TestRepo_Create_HappyPath(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := transaction.New(pool)
	ctx := context.Background()

	sender := testhelper.SeedUser(t, pool)
	receiver := testhelper.SeedUser(t, pool)

	tx := domain.Transaction{
		ID:         uuid.New(),
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		Amount:     250,
		Reason:     "one mate",
	}

	got, err := repo.Create(ctx, &tx)
	if err != nil {
		t.Fatalf("Create: unexpected error: %v", err)
	}
	if got.Amount != 250 || got.Reason != "one mate" {
		t.Errorf("got %+v, want amount=250 reason=%q", got, "one mate")
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestRepo_Create_NonPositiveAmount(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := transaction.New(pool)
	ctx := context.Background()

	sender := testhelper.SeedUser(t, pool)
	receiver := testhelper.SeedUser(t, pool)

	tx := domain.Transaction{
		ID:         uuid.New(),
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		Amount:     0,
		Reason:     "zero",
	}

	_, err := repo.Create(ctx, &tx)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for amount 0, got: %v", err)
	}
}

func TestRepo_Create_SelfTransferRejectedBySchema(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := transaction.New(pool)
	ctx := context.Background()

	u := testhelper.SeedUser(t, pool)

	tx := domain.Transaction{
		ID:         uuid.New(),
		SenderID:   u.ID,
		ReceiverID: u.ID,
		Amount:     100,
		Reason:     "self",
	}

	_, err := repo.Create(ctx, &tx)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for self transfer, got: %v", err)
	}
}

func TestRepo_GetByID_NotFound(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := transaction.New(pool)

	_, err := repo.GetByID(context.Background(), uuid.New())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestRepo_ListByUser_Pagination(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := transaction.New(pool)
	ctx := context.Background()

	a := testhelper.SeedUser(t, pool)
	b := testhelper.SeedUser(t, pool)
	c := testhelper.SeedUser(t, pool)

	testhelper.SeedTransaction(t, pool, a.ID, b.ID, 100)
	testhelper.SeedTransaction(t, pool, b.ID, a.ID, 200)
	testhelper.SeedTransaction(t, pool, a.ID, c.ID, 300)
	testhelper.SeedTransaction(t, pool, b.ID, c.ID, 400) // a not involved

	txs, total, err := repo.ListByUser(ctx, a.ID, 2, 0)
	if err != nil {
		t.Fatalf("ListByUser: unexpected error: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(txs) != 2 {
		t.Fatalf("len = %d, want 2 (limit)", len(txs))
	}

	rest, _, err := repo.ListByUser(ctx, a.ID, 2, 2)
	if err != nil {
		t.Fatalf("ListByUser offset: unexpected error: %v", err)
	}
	if len(rest) != 1 {
		t.Fatalf("len = %d, want 1 (last page)", len(rest))
	}
}

func TestRepo_ListByUser_EmptyResult(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := transaction.New(pool)

	u := testhelper.SeedUser(t, pool)

	txs, total, err := repo.ListByUser(context.Background(), u.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListByUser: unexpected error: %v", err)
	}
	if total != 0 || len(txs) != 0 {
		t.Fatalf("total=%d len=%d, want 0/0", total, len(txs))
	}
	if txs == nil {
		t.Fatal("expected empty slice, got nil")
	}
}
