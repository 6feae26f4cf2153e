package ledger

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matekasse/matekasse-backend/internal/domain"
)

// ===========================================================================
// Manual mocks (moq-style with func fields)
// ===========================================================================

type mockUserRepo struct {
	GetForUpdateFunc func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	AddBalanceFunc   func(ctx context.Context, id uuid.UUID, delta int64) (*domain.User, error)
}

func (m *mockUserRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.GetForUpdateFunc != nil {
		return m.GetForUpdateFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserRepo) AddBalance(ctx context.Context, id uuid.UUID, delta int64) (*domain.User, error) {
	if m.AddBalanceFunc != nil {
		return m.AddBalanceFunc(ctx, id, delta)
	}
	return &domain.User{ID: id}, nil
}

type mockTransactionRepo struct {
	CreateFunc     func(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	GetByIDFunc    func(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	ListByUserFunc func(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Transaction, int, error)
}

func (m *mockTransactionRepo) Create(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx)
	}
	return tx, nil
}

func (m *mockTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockTransactionRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Transaction, int, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, limit, offset)
	}
	return nil, 0, nil
}

type mockTxManager struct {
	RunInTxFunc func(ctx context.Context, fn func(context.Context) error) error
}

func (m *mockTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.RunInTxFunc != nil {
		return m.RunInTxFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockNotifier struct {
	events []domain.Event
}

func (m *mockNotifier) Emit(_ context.Context, ev domain.Event) {
	m.events = append(m.events, ev)
}

// ===========================================================================
// Test helpers
// ===========================================================================

type testDeps struct {
	users  *mockUserRepo
	txs    *mockTransactionRepo
	tx     *mockTxManager
	events *mockNotifier
}

func newTestService(settings Settings) (*Service, *testDeps) {
	deps := &testDeps{
		users:  &mockUserRepo{},
		txs:    &mockTransactionRepo{},
		tx:     &mockTxManager{},
		events: &mockNotifier{},
	}
	svc := NewService(slog.Default(), deps.users, deps.txs, deps.tx, deps.events, settings)
	return svc, deps
}

func activeUsers(ids ...uuid.UUID) func(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return func(_ context.Context, id uuid.UUID) (*domain.User, error) {
		if !set[id] {
			return nil, domain.ErrNotFound
		}
		return &domain.User{ID: id, Active: true, Internal: true}, nil
	}
}

// ===========================================================================
// Transfer tests
// ===========================================================================

func TestService_Transfer_Success(t *testing.T) {
	t.Parallel()

	sender := uuid.New()
	receiver := uuid.New()

	svc, deps := newTestService(Settings{MaxAmount: 100000})
	deps.users.GetForUpdateFunc = activeUsers(sender, receiver)

	var deltas []int64
	deps.users.AddBalanceFunc = func(_ context.Context, id uuid.UUID, delta int64) (*domain.User, error) {
		deltas = append(deltas, delta)
		return &domain.User{ID: id, Active: true}, nil
	}

	tx, err := svc.Transfer(context.Background(), TransferInput{
		SenderID:   sender,
		ReceiverID: receiver,
		Amount:     150,
		Reason:     "drink",
	})

	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, sender, tx.SenderID)
	assert.Equal(t, receiver, tx.ReceiverID)
	assert.Equal(t, int64(150), tx.Amount)
	assert.Equal(t, "drink", tx.Reason)
	assert.Equal(t, []int64{-150, 150}, deltas)

	require.Len(t, deps.events.events, 1)
	assert.Equal(t, domain.EventTransactionMade, deps.events.events[0].Type)
}

func TestService_Transfer_LocksInSortedOrder(t *testing.T) {
	t.Parallel()

	sender := uuid.MustParse("ffffffff-0000-0000-0000-000000000001")
	receiver := uuid.MustParse("00000000-0000-0000-0000-000000000002")

	svc, deps := newTestService(Settings{})

	var locked []uuid.UUID
	deps.users.GetForUpdateFunc = func(_ context.Context, id uuid.UUID) (*domain.User, error) {
		locked = append(locked, id)
		return &domain.User{ID: id, Active: true}, nil
	}

	_, err := svc.Transfer(context.Background(), TransferInput{
		SenderID:   sender,
		ReceiverID: receiver,
		Amount:     1,
		Reason:     "x",
	})

	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{receiver, sender}, locked)
}

func TestService_Transfer_AllowsOverdraft(t *testing.T) {
	t.Parallel()

	sender := uuid.New()
	receiver := uuid.New()

	svc, deps := newTestService(Settings{})
	deps.users.GetForUpdateFunc = func(_ context.Context, id uuid.UUID) (*domain.User, error) {
		return &domain.User{ID: id, Balance: 0, Active: true}, nil
	}

	_, err := svc.Transfer(context.Background(), TransferInput{
		SenderID:   sender,
		ReceiverID: receiver,
		Amount:     500,
		Reason:     "tab",
	})

	require.NoError(t, err)
}

func TestService_Transfer_Validation(t *testing.T) {
	t.Parallel()

	sender := uuid.New()
	receiver := uuid.New()

	tests := []struct {
		name    string
		input   TransferInput
		wantErr error
	}{
		{
			name:    "zero amount",
			input:   TransferInput{SenderID: sender, ReceiverID: receiver, Amount: 0, Reason: "x"},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "negative amount",
			input:   TransferInput{SenderID: sender, ReceiverID: receiver, Amount: -5, Reason: "x"},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "amount above cap",
			input:   TransferInput{SenderID: sender, ReceiverID: receiver, Amount: 100001, Reason: "x"},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "empty reason",
			input:   TransferInput{SenderID: sender, ReceiverID: receiver, Amount: 10},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "self transfer",
			input:   TransferInput{SenderID: sender, ReceiverID: sender, Amount: 10, Reason: "x"},
			wantErr: domain.ErrSelfTransfer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, deps := newTestService(Settings{MaxAmount: 100000})
			deps.users.GetForUpdateFunc = activeUsers(sender, receiver)

			tx, err := svc.Transfer(context.Background(), tt.input)

			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, tx)
			assert.Empty(t, deps.events.events)
		})
	}
}

func TestService_Transfer_SenderNotFound(t *testing.T) {
	t.Parallel()

	receiver := uuid.New()

	svc, deps := newTestService(Settings{})
	deps.users.GetForUpdateFunc = activeUsers(receiver)

	tx, err := svc.Transfer(context.Background(), TransferInput{
		SenderID:   uuid.New(),
		ReceiverID: receiver,
		Amount:     10,
		Reason:     "x",
	})

	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, tx)
	assert.Empty(t, deps.events.events)
}

func TestService_Transfer_DisabledUser(t *testing.T) {
	t.Parallel()

	sender := uuid.New()
	receiver := uuid.New()

	svc, deps := newTestService(Settings{})
	deps.users.GetForUpdateFunc = func(_ context.Context, id uuid.UUID) (*domain.User, error) {
		return &domain.User{ID: id, Active: id != sender}, nil
	}

	tx, err := svc.Transfer(context.Background(), TransferInput{
		SenderID:   sender,
		ReceiverID: receiver,
		Amount:     10,
		Reason:     "x",
	})

	require.ErrorIs(t, err, domain.ErrUserDisabled)
	assert.Nil(t, tx)
}

func TestService_Transfer_NoEventOnRollback(t *testing.T) {
	t.Parallel()

	sender := uuid.New()
	receiver := uuid.New()
	boom := errors.New("connection reset")

	svc, deps := newTestService(Settings{})
	deps.users.GetForUpdateFunc = activeUsers(sender, receiver)
	deps.txs.CreateFunc = func(_ context.Context, _ *domain.Transaction) (*domain.Transaction, error) {
		return nil, boom
	}

	tx, err := svc.Transfer(context.Background(), TransferInput{
		SenderID:   sender,
		ReceiverID: receiver,
		Amount:     10,
		Reason:     "x",
	})

	require.ErrorIs(t, err, boom)
	assert.Nil(t, tx)
	assert.Empty(t, deps.events.events)
}

// ===========================================================================
// Read path tests
// ===========================================================================

func TestService_GetTransaction(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	expected := &domain.Transaction{ID: id, Amount: 42, Reason: "coffee"}

	svc, deps := newTestService(Settings{})
	deps.txs.GetByIDFunc = func(_ context.Context, got uuid.UUID) (*domain.Transaction, error) {
		assert.Equal(t, id, got)
		return expected, nil
	}

	tx, err := svc.GetTransaction(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, expected, tx)
}

func TestService_GetTransaction_NotFound(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(Settings{})

	tx, err := svc.GetTransaction(context.Background(), uuid.New())

	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, tx)
}

func TestService_ListTransactions_DefaultsPagination(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	svc, deps := newTestService(Settings{})
	deps.txs.ListByUserFunc = func(_ context.Context, got uuid.UUID, limit, offset int) ([]*domain.Transaction, int, error) {
		assert.Equal(t, userID, got)
		assert.Equal(t, 50, limit)
		assert.Equal(t, 0, offset)
		return []*domain.Transaction{{ID: uuid.New()}}, 1, nil
	}

	txs, total, err := svc.ListTransactions(context.Background(), userID, 0, -3)

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, txs, 1)
}
